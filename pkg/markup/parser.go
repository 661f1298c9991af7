// Package markup parses story-card markup into DOM nodes.
//
// Card markup is a small HTML dialect: elements carry inline style
// attributes, <img> loads an image, and <script> blocks are collected
// separately so they can run against the stage once the nodes are mounted.
package markup

import (
	"fmt"
	"strings"

	"wrapped/pkg/dom"
)

// Fragment is a parsed card: top-level nodes plus its scripts in
// document order.
type Fragment struct {
	Nodes   []*dom.Node
	Scripts []string
}

type Parser struct {
	tokenizer *Tokenizer
	root      *dom.Node
	stack     []*dom.Node
	scripts   []string
}

func NewParser(src string) *Parser {
	return &Parser{
		tokenizer: NewTokenizer(src),
		root:      dom.NewElement("fragment", nil),
	}
}

func (p *Parser) Parse() (*Fragment, error) {
	p.stack = []*dom.Node{p.root}

	for {
		token, err := p.tokenizer.NextToken()
		if err != nil {
			return nil, fmt.Errorf("tokenizer error: %w", err)
		}
		if token.Type == TokenEOF {
			break
		}

		switch token.Type {
		case TokenStartTag:
			if token.TagName == "script" {
				if !token.SelfClosing {
					p.scripts = append(p.scripts, p.tokenizer.ReadRawUntil("script"))
				}
				continue
			}

			node := dom.NewElement(token.TagName, token.Attributes)
			p.currentParent().AddChild(node)

			if !token.SelfClosing && !dom.IsVoidElement(token.TagName) {
				p.stack = append(p.stack, node)
			}

		case TokenText:
			p.currentParent().AppendText(token.Text)

		case TokenEndTag:
			p.closeTag(token.TagName)
		}
	}

	trimSpace(p.root)
	nodes := p.root.RemoveChildren()
	return &Fragment{Nodes: nodes, Scripts: p.scripts}, nil
}

func (p *Parser) currentParent() *dom.Node {
	return p.stack[len(p.stack)-1]
}

// closeTag pops the stack until the matching tag is found and closed.
// Unmatched end tags are ignored.
func (p *Parser) closeTag(tagName string) {
	for i := len(p.stack) - 1; i >= 1; i-- {
		if p.stack[i].TagName == tagName {
			p.stack = p.stack[:i]
			return
		}
	}
}

// trimSpace drops whitespace-only text that is not between two inline
// siblings and trims text at the edges of block elements. Spaces next to
// inline content are kept.
func trimSpace(n *dom.Node) {
	kept := make([]*dom.Node, 0, len(n.Children))
	for i, c := range n.Children {
		if c.Type != dom.TextNode {
			trimSpace(c)
			kept = append(kept, c)
			continue
		}
		if strings.TrimSpace(c.Text) == "" {
			if i > 0 && i < len(n.Children)-1 && inline(n.Children[i-1]) && inline(n.Children[i+1]) {
				kept = append(kept, c)
			} else {
				c.Parent = nil
			}
			continue
		}
		kept = append(kept, c)
	}
	n.Children = kept

	if n.Type != dom.ElementNode || dom.IsInlineElement(n.TagName) || len(kept) == 0 {
		return
	}
	if first := kept[0]; first.Type == dom.TextNode {
		first.Text = strings.TrimLeft(first.Text, " ")
	}
	if last := kept[len(kept)-1]; last.Type == dom.TextNode {
		last.Text = strings.TrimRight(last.Text, " ")
	}
}

func inline(n *dom.Node) bool {
	return n.Type == dom.TextNode || dom.IsInlineElement(n.TagName)
}

func Parse(src string) (*Fragment, error) {
	return NewParser(src).Parse()
}
