// Package dom holds the node tree mounted into an export stage.
package dom

import (
	"sort"
	"strings"
)

type NodeType int

const (
	ElementNode NodeType = iota
	TextNode
)

type Node struct {
	Type       NodeType
	TagName    string
	Attributes map[string]string
	Text       string
	Children   []*Node
	Parent     *Node
}

// NewElement returns a detached element node. attrs is copied.
func NewElement(tag string, attrs map[string]string) *Node {
	n := &Node{
		Type:       ElementNode,
		TagName:    strings.ToLower(tag),
		Attributes: make(map[string]string, len(attrs)),
		Children:   make([]*Node, 0),
	}
	for k, v := range attrs {
		n.Attributes[k] = v
	}
	return n
}

// NewText returns a detached text node.
func NewText(text string) *Node {
	return &Node{Type: TextNode, Text: text}
}

func (n *Node) GetAttribute(name string) (string, bool) {
	if n.Attributes == nil {
		return "", false
	}
	val, ok := n.Attributes[name]
	return val, ok
}

func (n *Node) SetAttribute(name, value string) {
	if n.Attributes == nil {
		n.Attributes = make(map[string]string)
	}
	n.Attributes[name] = value
}

func (n *Node) RemoveAttribute(name string) {
	delete(n.Attributes, name)
}

// ID returns the id attribute or "".
func (n *Node) ID() string {
	id, _ := n.GetAttribute("id")
	return id
}

// AddChild adds a child node and sets up the parent relationship.
// A child that already has a parent is moved.
func (n *Node) AddChild(child *Node) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	child.Parent = n
	n.Children = append(n.Children, child)
}

// AppendText creates a text node and adds it as a child
func (n *Node) AppendText(text string) {
	if text == "" {
		return
	}
	n.AddChild(NewText(text))
}

// RemoveChild removes the given child from this node's children list,
// clears its parent pointer, and returns the removed child.
// Returns nil if child is not found.
func (n *Node) RemoveChild(child *Node) *Node {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			return child
		}
	}
	return nil
}

// RemoveChildren detaches every child and returns them.
func (n *Node) RemoveChildren() []*Node {
	removed := n.Children
	for _, c := range removed {
		c.Parent = nil
	}
	n.Children = make([]*Node, 0)
	return removed
}

// InsertBefore inserts newChild before refChild. A nil or missing refChild
// appends.
func (n *Node) InsertBefore(newChild, refChild *Node) *Node {
	if newChild.Parent != nil {
		newChild.Parent.RemoveChild(newChild)
	}
	for i, c := range n.Children {
		if c == refChild {
			n.Children = append(n.Children, nil)
			copy(n.Children[i+1:], n.Children[i:])
			n.Children[i] = newChild
			newChild.Parent = n
			return newChild
		}
	}
	n.AddChild(newChild)
	return newChild
}

// CloneNode returns a copy of the node. If deep is true, all descendants
// are cloned recursively. The clone has no parent.
func (n *Node) CloneNode(deep bool) *Node {
	clone := &Node{
		Type:    n.Type,
		TagName: n.TagName,
		Text:    n.Text,
	}
	if n.Attributes != nil {
		clone.Attributes = make(map[string]string, len(n.Attributes))
		for k, v := range n.Attributes {
			clone.Attributes[k] = v
		}
	}
	clone.Children = make([]*Node, 0, len(n.Children))
	if deep {
		for _, child := range n.Children {
			c := child.CloneNode(true)
			c.Parent = clone
			clone.Children = append(clone.Children, c)
		}
	}
	return clone
}

// Walk visits n and its descendants depth first. Returning false from fn
// stops the walk.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// GetElementByID finds the first descendant element (or n) with the id.
func (n *Node) GetElementByID(id string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if c.Type == ElementNode && c.ID() == id {
			found = c
			return false
		}
		return true
	})
	return found
}

// GetElementsByTagName returns descendant elements with the tag, in
// document order.
func (n *Node) GetElementsByTagName(tag string) []*Node {
	tag = strings.ToLower(tag)
	var out []*Node
	for _, c := range n.Children {
		c.Walk(func(d *Node) bool {
			if d.Type == ElementNode && (tag == "*" || d.TagName == tag) {
				out = append(out, d)
			}
			return true
		})
	}
	return out
}

// GetElementsByClassName returns descendant elements carrying the class.
func (n *Node) GetElementsByClassName(class string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		c.Walk(func(d *Node) bool {
			if d.Type == ElementNode && d.HasClass(class) {
				out = append(out, d)
			}
			return true
		})
	}
	return out
}

func (n *Node) HasClass(class string) bool {
	cls, ok := n.GetAttribute("class")
	if !ok {
		return false
	}
	for _, f := range strings.Fields(cls) {
		if f == class {
			return true
		}
	}
	return false
}

// TextContent concatenates the text of all descendant text nodes.
func (n *Node) TextContent() string {
	if n.Type == TextNode {
		return n.Text
	}
	var sb strings.Builder
	n.Walk(func(c *Node) bool {
		if c.Type == TextNode {
			sb.WriteString(c.Text)
		}
		return true
	})
	return sb.String()
}

// SetTextContent replaces all children with a single text node.
func (n *Node) SetTextContent(text string) {
	if n.Type == TextNode {
		n.Text = text
		return
	}
	n.RemoveChildren()
	n.AppendText(text)
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// Serialize returns the markup of all child nodes, but not the node's
// own tags.
func (n *Node) Serialize() string {
	var sb strings.Builder
	for _, child := range n.Children {
		serializeNode(&sb, child)
	}
	return sb.String()
}

func serializeNode(sb *strings.Builder, n *Node) {
	if n.Type == TextNode {
		sb.WriteString(escapeText(n.Text))
		return
	}

	sb.WriteByte('<')
	sb.WriteString(n.TagName)

	// Sort attributes for deterministic output
	if len(n.Attributes) > 0 {
		keys := make([]string, 0, len(n.Attributes))
		for k := range n.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteByte(' ')
			sb.WriteString(k)
			sb.WriteString(`="`)
			sb.WriteString(escapeAttr(n.Attributes[k]))
			sb.WriteByte('"')
		}
	}

	if IsVoidElement(n.TagName) {
		sb.WriteString(">")
		return
	}

	sb.WriteByte('>')
	for _, child := range n.Children {
		serializeNode(sb, child)
	}
	sb.WriteString("</")
	sb.WriteString(n.TagName)
	sb.WriteByte('>')
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func escapeAttr(s string) string {
	s = escapeText(s)
	return strings.ReplaceAll(s, `"`, "&quot;")
}

// IsInlineElement reports tags laid out in inline flow by default.
func IsInlineElement(tag string) bool {
	switch tag {
	case "span", "b", "strong", "em", "i", "small", "br", "a":
		return true
	}
	return false
}

// IsVoidElement reports tags that never have children.
func IsVoidElement(tag string) bool {
	switch tag {
	case "br", "hr", "img", "meta", "link", "source", "wbr":
		return true
	}
	return false
}
