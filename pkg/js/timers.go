package js

import (
	"time"

	"github.com/dop251/goja"

	"wrapped/pkg/dom"
)

// frameInterval is the requestAnimationFrame period.
const frameInterval = 16 * time.Millisecond

// registerTimers installs setTimeout, clearTimeout, requestAnimationFrame
// and cancelAnimationFrame. Callbacks run as stage mutations, and are
// dropped when the stage is released.
func (e *Engine) registerTimers() {
	vm := e.vm

	vm.Set("setTimeout", func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			panic(vm.NewTypeError("setTimeout: callback is not a function"))
		}
		delay := time.Duration(call.Argument(1).ToInteger()) * time.Millisecond
		if delay < 0 {
			delay = 0
		}
		var args []goja.Value
		if len(call.Arguments) > 2 {
			args = append(args, call.Arguments[2:]...)
		}
		return vm.ToValue(e.schedule(delay, func() { e.call(fn, args...) }))
	})

	vm.Set("requestAnimationFrame", func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			panic(vm.NewTypeError("requestAnimationFrame: callback is not a function"))
		}
		return vm.ToValue(e.schedule(frameInterval, func() {
			e.call(fn, vm.ToValue(float64(time.Since(e.start).Microseconds())/1000))
		}))
	})

	clear := func(call goja.FunctionCall) goja.Value {
		e.stage.ClearTimeout(int(call.Argument(0).ToInteger()))
		return goja.Undefined()
	}
	vm.Set("clearTimeout", clear)
	vm.Set("cancelAnimationFrame", clear)
}

// schedule returns the timer id, or 0 when the stage is gone.
func (e *Engine) schedule(delay time.Duration, fn func()) int {
	id, err := e.stage.SetTimeout(delay, func(*dom.Node) { fn() })
	if err != nil {
		return 0
	}
	return id
}
