package js

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/dop251/goja"

	"wrapped/pkg/dom"
	"wrapped/pkg/markup"
)

// domContext holds shared state for DOM bindings. It keeps a node-to-proxy
// cache so the same JS object is returned for the same *dom.Node (needed for
// === identity checks).
type domContext struct {
	vm    *goja.Runtime
	root  *dom.Node
	cache map[*dom.Node]*goja.Object
	nodes map[*goja.Object]*dom.Node
}

// registerDocument sets up the global `document` object. Its body is the
// stage root.
func registerDocument(vm *goja.Runtime, root *dom.Node) *domContext {
	ctx := &domContext{
		vm:    vm,
		root:  root,
		cache: make(map[*dom.Node]*goja.Object),
		nodes: make(map[*goja.Object]*dom.Node),
	}

	doc := vm.NewObject()
	doc.Set("body", ctx.elementProxy(root))
	doc.Set("documentElement", ctx.elementProxy(root))
	doc.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		node := root.GetElementByID(call.Argument(0).String())
		if node == nil {
			return goja.Null()
		}
		return ctx.elementProxy(node)
	})
	doc.Set("getElementsByTagName", func(call goja.FunctionCall) goja.Value {
		return ctx.elementArray(root.GetElementsByTagName(strings.ToLower(call.Argument(0).String())))
	})
	doc.Set("getElementsByClassName", func(call goja.FunctionCall) goja.Value {
		return ctx.elementArray(root.GetElementsByClassName(call.Argument(0).String()))
	})
	doc.Set("createElement", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(vm.NewTypeError("Failed to execute 'createElement' on 'Document': 1 argument required"))
		}
		return ctx.elementProxy(dom.NewElement(call.Arguments[0].String(), nil))
	})
	doc.Set("createTextNode", func(call goja.FunctionCall) goja.Value {
		return ctx.elementProxy(dom.NewText(call.Argument(0).String()))
	})
	doc.Set("querySelector", querySelectorFn(ctx, root))
	doc.Set("querySelectorAll", querySelectorAllFn(ctx, root))

	vm.Set("document", doc)
	return ctx
}

// elementArray creates a JS array of Element proxies.
func (ctx *domContext) elementArray(nodes []*dom.Node) goja.Value {
	vals := make([]interface{}, len(nodes))
	for i, n := range nodes {
		vals[i] = ctx.elementProxy(n)
	}
	return ctx.vm.NewArray(vals...)
}

// elementProxy creates (or retrieves from cache) a DynamicObject wrapping node.
func (ctx *domContext) elementProxy(node *dom.Node) *goja.Object {
	if v, ok := ctx.cache[node]; ok {
		return v
	}
	v := ctx.vm.NewDynamicObject(&elementAccessor{ctx: ctx, node: node})
	ctx.cache[node] = v
	ctx.nodes[v] = node
	return v
}

// unwrapNode returns the node behind a proxy, or nil for other values.
func (ctx *domContext) unwrapNode(val goja.Value) *dom.Node {
	if val == nil || goja.IsNull(val) || goja.IsUndefined(val) {
		return nil
	}
	obj, ok := val.(*goja.Object)
	if !ok {
		return nil
	}
	return ctx.nodes[obj]
}

// toNode unwraps a node argument; anything else becomes a text node.
func (ctx *domContext) toNode(val goja.Value) *dom.Node {
	if n := ctx.unwrapNode(val); n != nil {
		return n
	}
	return dom.NewText(val.String())
}

// elementAccessor implements goja.DynamicObject over a *dom.Node.
type elementAccessor struct {
	ctx  *domContext
	node *dom.Node
}

var elementKeys = []string{
	"nodeType", "nodeName", "tagName", "id", "className", "textContent", "innerHTML",
	"getAttribute", "setAttribute", "hasAttribute", "removeAttribute",
	"children", "childNodes", "firstElementChild", "parentElement", "parentNode", "style", "classList", "dataset",
	"appendChild", "removeChild", "insertBefore", "append", "remove", "replaceChildren",
	"querySelector", "querySelectorAll",
}

func (e *elementAccessor) Get(key string) goja.Value {
	vm := e.ctx.vm
	n := e.node

	switch key {
	case "nodeType":
		if n.Type == dom.TextNode {
			return vm.ToValue(3)
		}
		return vm.ToValue(1)
	case "nodeName", "tagName":
		if n.Type == dom.TextNode {
			if key == "tagName" {
				return goja.Undefined()
			}
			return vm.ToValue("#text")
		}
		return vm.ToValue(strings.ToUpper(n.TagName))
	case "id":
		return vm.ToValue(n.ID())
	case "className":
		cls, _ := n.GetAttribute("class")
		return vm.ToValue(cls)
	case "textContent":
		return vm.ToValue(n.TextContent())
	case "innerHTML":
		var sb strings.Builder
		for _, c := range n.Children {
			sb.WriteString(c.Serialize())
		}
		return vm.ToValue(sb.String())
	case "getAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			val, ok := n.GetAttribute(call.Argument(0).String())
			if !ok {
				return goja.Null()
			}
			return vm.ToValue(val)
		})
	case "setAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			n.SetAttribute(call.Argument(0).String(), call.Argument(1).String())
			return goja.Undefined()
		})
	case "hasAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			_, ok := n.GetAttribute(call.Argument(0).String())
			return vm.ToValue(ok)
		})
	case "removeAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			n.RemoveAttribute(call.Argument(0).String())
			return goja.Undefined()
		})
	case "children":
		var els []*dom.Node
		for _, c := range n.Children {
			if c.Type == dom.ElementNode {
				els = append(els, c)
			}
		}
		return e.ctx.elementArray(els)
	case "childNodes":
		return e.ctx.elementArray(n.Children)
	case "firstElementChild":
		for _, c := range n.Children {
			if c.Type == dom.ElementNode {
				return e.ctx.elementProxy(c)
			}
		}
		return goja.Null()
	case "parentElement", "parentNode":
		if n.Parent == nil {
			return goja.Null()
		}
		return e.ctx.elementProxy(n.Parent)
	case "style":
		return vm.NewDynamicObject(&styleAccessor{vm: vm, node: n})
	case "classList":
		return vm.NewDynamicObject(&classListAccessor{ctx: e.ctx, node: n})
	case "dataset":
		return vm.NewDynamicObject(&datasetAccessor{vm: vm, node: n})
	case "appendChild":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			child := e.ctx.unwrapNode(call.Argument(0))
			if child == nil {
				panic(vm.NewTypeError("Failed to execute 'appendChild': parameter is not a Node"))
			}
			n.AddChild(child)
			return e.ctx.elementProxy(child)
		})
	case "removeChild":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			child := e.ctx.unwrapNode(call.Argument(0))
			if child == nil || n.RemoveChild(child) == nil {
				panic(vm.NewTypeError("Failed to execute 'removeChild': The node to be removed is not a child of this node"))
			}
			return e.ctx.elementProxy(child)
		})
	case "insertBefore":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			child := e.ctx.unwrapNode(call.Argument(0))
			if child == nil {
				panic(vm.NewTypeError("Failed to execute 'insertBefore': parameter 1 is not a Node"))
			}
			n.InsertBefore(child, e.ctx.unwrapNode(call.Argument(1)))
			return e.ctx.elementProxy(child)
		})
	case "append":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			for _, arg := range call.Arguments {
				n.AddChild(e.ctx.toNode(arg))
			}
			return goja.Undefined()
		})
	case "remove":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if n.Parent != nil {
				n.Parent.RemoveChild(n)
			}
			return goja.Undefined()
		})
	case "replaceChildren":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			n.RemoveChildren()
			for _, arg := range call.Arguments {
				n.AddChild(e.ctx.toNode(arg))
			}
			return goja.Undefined()
		})
	case "querySelector":
		return vm.ToValue(querySelectorFn(e.ctx, n))
	case "querySelectorAll":
		return vm.ToValue(querySelectorAllFn(e.ctx, n))
	}
	return goja.Undefined()
}

func (e *elementAccessor) Set(key string, val goja.Value) bool {
	switch key {
	case "textContent":
		e.node.SetTextContent(val.String())
	case "className":
		e.node.SetAttribute("class", val.String())
	case "id":
		e.node.SetAttribute("id", val.String())
	case "innerHTML":
		e.setInnerHTML(val.String())
	default:
		return false
	}
	return true
}

func (e *elementAccessor) Has(key string) bool {
	for _, k := range elementKeys {
		if k == key {
			return true
		}
	}
	return false
}

func (e *elementAccessor) Delete(key string) bool { return false }

func (e *elementAccessor) Keys() []string { return elementKeys }

// setInnerHTML replaces the children with parsed markup. Scripts in the
// markup are not run; invalid markup leaves the node empty.
func (e *elementAccessor) setInnerHTML(src string) {
	e.node.RemoveChildren()
	frag, err := markup.Parse(src)
	if err != nil {
		return
	}
	for _, c := range frag.Nodes {
		e.node.AddChild(c)
	}
}

// styleAccessor maps camelCase style properties onto the inline style
// attribute.
type styleAccessor struct {
	vm   *goja.Runtime
	node *dom.Node
}

func (s *styleAccessor) Get(key string) goja.Value {
	decls := parseInlineStyle(s.node.Attributes["style"])
	prop := camelToKebab(key)
	for _, d := range decls {
		if d[0] == prop {
			return s.vm.ToValue(d[1])
		}
	}
	return s.vm.ToValue("")
}

func (s *styleAccessor) Set(key string, val goja.Value) bool {
	s.update(camelToKebab(key), val.String())
	return true
}

func (s *styleAccessor) Has(key string) bool { return true }

func (s *styleAccessor) Delete(key string) bool {
	s.update(camelToKebab(key), "")
	return true
}

func (s *styleAccessor) Keys() []string {
	decls := parseInlineStyle(s.node.Attributes["style"])
	keys := make([]string, len(decls))
	for i, d := range decls {
		keys[i] = d[0]
	}
	return keys
}

// update sets or, with an empty value, removes a declaration, keeping the
// declaration order stable.
func (s *styleAccessor) update(prop, value string) {
	decls := parseInlineStyle(s.node.Attributes["style"])
	out := decls[:0]
	found := false
	for _, d := range decls {
		if d[0] == prop {
			found = true
			if value == "" {
				continue
			}
			d[1] = value
		}
		out = append(out, d)
	}
	if !found && value != "" {
		out = append(out, [2]string{prop, value})
	}
	parts := make([]string, len(out))
	for i, d := range out {
		parts[i] = d[0] + ": " + d[1]
	}
	s.node.SetAttribute("style", strings.Join(parts, "; "))
}

// parseInlineStyle splits a style attribute into ordered declarations.
func parseInlineStyle(s string) [][2]string {
	var out [][2]string
	for _, decl := range strings.Split(s, ";") {
		idx := strings.IndexByte(decl, ':')
		if idx < 0 {
			continue
		}
		prop := strings.TrimSpace(decl[:idx])
		if prop == "" {
			continue
		}
		out = append(out, [2]string{prop, strings.TrimSpace(decl[idx+1:])})
	}
	return out
}

// camelToKebab converts a JS camelCase property name to CSS kebab-case.
func camelToKebab(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// datasetAccessor exposes data-* attributes.
type datasetAccessor struct {
	vm   *goja.Runtime
	node *dom.Node
}

func (d *datasetAccessor) Get(key string) goja.Value {
	if v, ok := d.node.GetAttribute("data-" + camelToKebab(key)); ok {
		return d.vm.ToValue(v)
	}
	return goja.Undefined()
}

func (d *datasetAccessor) Set(key string, val goja.Value) bool {
	d.node.SetAttribute("data-"+camelToKebab(key), val.String())
	return true
}

func (d *datasetAccessor) Has(key string) bool {
	_, ok := d.node.GetAttribute("data-" + camelToKebab(key))
	return ok
}

func (d *datasetAccessor) Delete(key string) bool {
	d.node.RemoveAttribute("data-" + camelToKebab(key))
	return true
}

func (d *datasetAccessor) Keys() []string {
	var keys []string
	for name := range d.node.Attributes {
		if rest, ok := strings.CutPrefix(name, "data-"); ok {
			keys = append(keys, kebabToCamel(rest))
		}
	}
	return keys
}

func kebabToCamel(s string) string {
	parts := strings.Split(s, "-")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

// classListAccessor implements the DOMTokenList subset cards use.
type classListAccessor struct {
	ctx  *domContext
	node *dom.Node
}

func (cl *classListAccessor) classes() []string {
	attr, _ := cl.node.GetAttribute("class")
	return strings.Fields(attr)
}

func (cl *classListAccessor) setClasses(classes []string) {
	cl.node.SetAttribute("class", strings.Join(classes, " "))
}

func (cl *classListAccessor) Get(key string) goja.Value {
	vm := cl.ctx.vm
	classes := cl.classes()

	switch key {
	case "length":
		return vm.ToValue(len(classes))
	case "value":
		return vm.ToValue(strings.Join(classes, " "))
	case "add":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			cls := cl.classes()
			for _, arg := range call.Arguments {
				if token := arg.String(); !containsToken(cls, token) {
					cls = append(cls, token)
				}
			}
			cl.setClasses(cls)
			return goja.Undefined()
		})
	case "remove":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			cls := cl.classes()
			for _, arg := range call.Arguments {
				cls = removeToken(cls, arg.String())
			}
			cl.setClasses(cls)
			return goja.Undefined()
		})
	case "toggle":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			token := call.Argument(0).String()
			cls := cl.classes()
			want := !containsToken(cls, token)
			if len(call.Arguments) > 1 {
				want = call.Arguments[1].ToBoolean()
			}
			cls = removeToken(cls, token)
			if want {
				cls = append(cls, token)
			}
			cl.setClasses(cls)
			return vm.ToValue(want)
		})
	case "contains":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(containsToken(classes, call.Argument(0).String()))
		})
	default:
		if idx, err := strconv.Atoi(key); err == nil && idx >= 0 && idx < len(classes) {
			return vm.ToValue(classes[idx])
		}
	}
	return goja.Undefined()
}

func (cl *classListAccessor) Set(key string, val goja.Value) bool {
	if key == "value" {
		cl.node.SetAttribute("class", val.String())
		return true
	}
	return false
}

func (cl *classListAccessor) Has(key string) bool {
	switch key {
	case "length", "value", "add", "remove", "toggle", "contains":
		return true
	}
	return false
}

func (cl *classListAccessor) Delete(key string) bool { return false }

func (cl *classListAccessor) Keys() []string {
	return []string{"length", "value", "add", "remove", "toggle", "contains"}
}

func containsToken(tokens []string, token string) bool {
	for _, t := range tokens {
		if t == token {
			return true
		}
	}
	return false
}

func removeToken(tokens []string, token string) []string {
	result := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t != token {
			result = append(result, t)
		}
	}
	return result
}
