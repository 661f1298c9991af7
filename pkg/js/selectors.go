package js

import (
	"strings"

	"github.com/dop251/goja"

	"wrapped/pkg/dom"
)

// compound is one simple selector sequence, e.g. div#hero.card.
type compound struct {
	tag     string
	id      string
	classes []string
}

// selector is a descendant chain; the last compound is the subject.
type selector []compound

func (c compound) matches(n *dom.Node) bool {
	if n.Type != dom.ElementNode {
		return false
	}
	if c.tag != "" && c.tag != "*" && c.tag != n.TagName {
		return false
	}
	if c.id != "" && c.id != n.ID() {
		return false
	}
	for _, cls := range c.classes {
		if !n.HasClass(cls) {
			return false
		}
	}
	return true
}

// matches reports whether n matches sel with ancestors inside scope.
func (sel selector) matches(n, scope *dom.Node) bool {
	if len(sel) == 0 || !sel[len(sel)-1].matches(n) {
		return false
	}
	i := len(sel) - 2
	for p := n.Parent; i >= 0 && p != nil && p != scope; p = p.Parent {
		if sel[i].matches(p) {
			i--
		}
	}
	return i < 0
}

// parseSelectors parses a comma-separated group of descendant selectors.
// Only tag, #id and .class are understood; anything else fails the parse.
func parseSelectors(src string) ([]selector, bool) {
	var group []selector
	for _, part := range strings.Split(src, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			return nil, false
		}
		var sel selector
		for _, f := range fields {
			c, ok := parseCompound(f)
			if !ok {
				return nil, false
			}
			sel = append(sel, c)
		}
		group = append(group, sel)
	}
	return group, len(group) > 0
}

func parseCompound(s string) (compound, bool) {
	var c compound
	i := 0
	for i < len(s) && isNameChar(s[i], true) {
		i++
	}
	c.tag = strings.ToLower(s[:i])
	for i < len(s) {
		kind := s[i]
		if kind != '#' && kind != '.' {
			return compound{}, false
		}
		i++
		start := i
		for i < len(s) && isNameChar(s[i], false) {
			i++
		}
		if start == i {
			return compound{}, false
		}
		if kind == '#' {
			c.id = s[start:i]
		} else {
			c.classes = append(c.classes, s[start:i])
		}
	}
	return c, true
}

func isNameChar(b byte, tag bool) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9', b == '-', b == '_':
		return true
	case tag && b == '*':
		return true
	}
	return false
}

// querySelect returns descendants of scope matching src in document order.
func querySelect(scope *dom.Node, src string, first bool) ([]*dom.Node, bool) {
	group, ok := parseSelectors(src)
	if !ok {
		return nil, false
	}
	var out []*dom.Node
	for _, c := range scope.Children {
		done := !c.Walk(func(n *dom.Node) bool {
			for _, sel := range group {
				if sel.matches(n, scope) {
					out = append(out, n)
					return !first
				}
			}
			return true
		})
		if done {
			break
		}
	}
	return out, true
}

func querySelectorFn(ctx *domContext, scope *dom.Node) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		src := call.Argument(0).String()
		nodes, ok := querySelect(scope, src, true)
		if !ok {
			panic(ctx.vm.NewTypeError("'" + src + "' is not a valid selector"))
		}
		if len(nodes) == 0 {
			return goja.Null()
		}
		return ctx.elementProxy(nodes[0])
	}
}

func querySelectorAllFn(ctx *domContext, scope *dom.Node) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		src := call.Argument(0).String()
		nodes, ok := querySelect(scope, src, false)
		if !ok {
			panic(ctx.vm.NewTypeError("'" + src + "' is not a valid selector"))
		}
		return ctx.elementArray(nodes)
	}
}
