// Package js runs card scripts with goja against a stage tree.
package js

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
	"github.com/rs/zerolog"

	"wrapped/pkg/dom"
	"wrapped/pkg/stage"
)

// ErrUnmounted is the interrupt value used when a stage goes away while a
// script is running.
var ErrUnmounted = errors.New("stage unmounted")

// Engine executes scripts against one stage. The goja runtime is only ever
// entered with the stage lock held, from Run or from a stage timer.
type Engine struct {
	vm    *goja.Runtime
	stage *stage.Stage
	log   zerolog.Logger
	dom   *domContext
	start time.Time
}

// New creates an engine bound to s. The runtime is interrupted and dropped
// when s is unmounted.
func New(s *stage.Stage, log zerolog.Logger) *Engine {
	vm := goja.New()
	e := &Engine{vm: vm, stage: s, log: log, start: time.Now()}

	c := &consoleAPI{log: log}
	c.register(vm)
	e.registerTimers()

	s.OnUnmount(func() { vm.Interrupt(ErrUnmounted) })
	return e
}

// Run executes scripts in order against the stage root as one mutation.
// Cancelling ctx interrupts a running script.
func (e *Engine) Run(ctx context.Context, scripts []string) error {
	stop := context.AfterFunc(ctx, func() { e.vm.Interrupt(ctx.Err()) })
	defer stop()
	return e.stage.Mutate(func(root *dom.Node) error {
		if e.dom == nil {
			e.dom = registerDocument(e.vm, root)
		}
		for i, script := range scripts {
			if _, err := e.vm.RunString(script); err != nil {
				return fmt.Errorf("script %d: %w", i, err)
			}
		}
		return nil
	})
}

// call invokes a JS callback from a timer. Errors are logged; a failing
// callback does not stop other timers.
func (e *Engine) call(fn goja.Callable, args ...goja.Value) {
	if _, err := fn(goja.Undefined(), args...); err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return
		}
		e.log.Warn().Err(err).Msg("script callback failed")
	}
}
