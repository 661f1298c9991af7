package markup

import (
	"strings"
	"testing"

	"wrapped/pkg/dom"
)

func TestParseNested(t *testing.T) {
	frag, err := Parse(`
		<div id="frame" style="width: 100px">
			<h1>Inner Circle</h1>
			<p>Your top <b>5</b></p>
		</div>`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(frag.Nodes) != 1 {
		t.Fatalf("expected 1 top-level node, got %d", len(frag.Nodes))
	}
	frame := frag.Nodes[0]
	if frame.Parent != nil {
		t.Error("top-level nodes should be detached from the parse root")
	}
	if style, _ := frame.GetAttribute("style"); style != "width: 100px" {
		t.Errorf("style attribute = %q", style)
	}
	if len(frame.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(frame.Children))
	}
	if got := frame.Children[1].TextContent(); got != "Your top 5" {
		t.Errorf("text content = %q", got)
	}
}

func TestParseCollectsScripts(t *testing.T) {
	frag, err := Parse(`<div id="bars"></div>
<script>
  var el = document.getElementById("bars");
  if (1 < 2) { el.setAttribute("data-ready", "1"); }
</script>
<script>console.log("second")</script>`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(frag.Scripts) != 2 {
		t.Fatalf("expected 2 scripts, got %d", len(frag.Scripts))
	}
	if !strings.Contains(frag.Scripts[0], "1 < 2") {
		t.Errorf("script body mangled: %q", frag.Scripts[0])
	}
	if len(frag.Nodes) != 1 {
		t.Errorf("scripts must not become nodes, got %d nodes", len(frag.Nodes))
	}
}

func TestParseVoidAndSelfClosing(t *testing.T) {
	frag, err := Parse(`<div><img src="a.png"><span/><p>after</p></div>`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	div := frag.Nodes[0]
	if len(div.Children) != 3 {
		t.Fatalf("expected img, span, p as siblings; got %d children", len(div.Children))
	}
	if div.Children[0].TagName != "img" || len(div.Children[0].Children) != 0 {
		t.Error("img should be a childless void element")
	}
}

func TestParseEntitiesAndWhitespace(t *testing.T) {
	frag, err := Parse("<p title=\"Tom &amp; Jerry\">  Made   you\n laugh &lt;3 </p>")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	p := frag.Nodes[0]
	if title, _ := p.GetAttribute("title"); title != "Tom & Jerry" {
		t.Errorf("attribute = %q", title)
	}
	if len(p.Children) != 1 || p.Children[0].Type != dom.TextNode {
		t.Fatalf("expected one text child")
	}
	if got := p.Children[0].Text; got != "Made you laugh <3" {
		t.Errorf("text = %q", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		`<div style="unterminated></div>`,
		`<div`,
		`< >`,
	}
	for _, src := range tests {
		if _, err := Parse(src); err == nil {
			t.Errorf("expected error for %q", src)
		}
	}
}

func TestParseKeepsInlineWordBreaks(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`<p><b>new</b> words</p>`, "new words"},
		{`<p>Your top <b>5</b> friends</p>`, "Your top 5 friends"},
		{`<p><b>Maya</b> <i>Alex</i></p>`, "Maya Alex"},
		{"<p>\n  <span>a</span>\n  <span>b</span>\n</p>", "a b"},
	}
	for _, tt := range tests {
		frag, err := Parse(tt.src)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.src, err)
		}
		if got := frag.Nodes[0].TextContent(); got != tt.want {
			t.Errorf("Parse(%q) text = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestParseDropsSpaceBetweenBlocks(t *testing.T) {
	frag, err := Parse("<div>\n  <div>one</div>\n  <div>two</div>\n</div>")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	div := frag.Nodes[0]
	if len(div.Children) != 2 {
		t.Fatalf("expected 2 block children, got %d", len(div.Children))
	}
	for _, c := range div.Children {
		if c.Type != dom.ElementNode {
			t.Errorf("unexpected text node %q between blocks", c.Text)
		}
	}
}

func TestReadRawUntilNonASCII(t *testing.T) {
	// İ (U+0130) and K (U+212A) change byte length when lowercased.
	body := "var s = \"\u0130stanbul \u212Aelvin\";"
	frag, err := Parse("<script>" + body + "</SCRIPT><p>after</p>")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(frag.Scripts) != 1 || frag.Scripts[0] != body {
		t.Fatalf("script = %q, want %q", frag.Scripts, body)
	}
	if len(frag.Nodes) != 1 || frag.Nodes[0].TextContent() != "after" {
		t.Errorf("content after the script was mangled: %d nodes", len(frag.Nodes))
	}
}
