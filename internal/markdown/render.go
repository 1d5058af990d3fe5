package markdown

import (
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const (
	listIndent    = "  "
	thematicBreak = "――――――"
)

//nolint:gochecknoglobals // Parser is safe for concurrent use.
var markdownEngine = goldmark.New(
	goldmark.WithExtensions(
		extension.Strikethrough,
		extension.Linkify,
	),
)

// ToTelegramV2 converts CommonMark text, as returned by the summarizer
// models, into a Telegram MarkdownV2 message body. Constructs Telegram cannot
// show are flattened to escaped text.
func ToTelegramV2(source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return ""
	}

	src := []byte(source)
	doc := markdownEngine.Parser().Parse(text.NewReader(src))

	r := &v2Renderer{src: src}
	r.blocks(doc, 0)

	return strings.TrimSpace(r.b.String())
}

type v2Renderer struct {
	src []byte
	b   strings.Builder
}

func (r *v2Renderer) blocks(parent ast.Node, depth int) {
	first := true
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if !first {
			r.b.WriteString("\n\n")
		}
		first = false

		r.block(n, depth)
	}
}

func (r *v2Renderer) block(n ast.Node, depth int) {
	switch node := n.(type) {
	case *ast.Heading:
		r.b.WriteString("*")
		r.inlines(node)
		r.b.WriteString("*")
	case *ast.List:
		r.list(node, depth)
	case *ast.Blockquote:
		inner := &v2Renderer{src: r.src}
		inner.blocks(node, depth)
		lines := strings.Split(strings.TrimSpace(inner.b.String()), "\n")
		for i, line := range lines {
			if i > 0 {
				r.b.WriteString("\n")
			}
			r.b.WriteString(">")
			r.b.WriteString(line)
		}
	case *ast.FencedCodeBlock:
		r.codeBlock(node, string(node.Language(r.src)))
	case *ast.CodeBlock:
		r.codeBlock(node, "")
	case *ast.ThematicBreak:
		r.b.WriteString(thematicBreak)
	case *ast.HTMLBlock:
		r.b.WriteString(EscapeV2(strings.TrimSpace(r.lines(node))))
	default:
		r.inlines(n)
	}
}

func (r *v2Renderer) list(list *ast.List, depth int) {
	number := list.Start
	first := true

	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		if !first {
			r.b.WriteString("\n")
		}
		first = false

		r.b.WriteString(strings.Repeat(listIndent, depth))
		if list.IsOrdered() {
			r.b.WriteString(strconv.Itoa(number))
			r.b.WriteString(`\. `)
			number++
		} else {
			r.b.WriteString("• ")
		}

		firstChild := true
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if nested, ok := c.(*ast.List); ok {
				r.b.WriteString("\n")
				r.list(nested, depth+1)
				continue
			}
			if !firstChild {
				r.b.WriteString("\n")
				r.b.WriteString(strings.Repeat(listIndent, depth+1))
			}
			firstChild = false

			r.inlines(c)
		}
	}
}

func (r *v2Renderer) codeBlock(n ast.Node, language string) {
	r.b.WriteString("```")
	r.b.WriteString(EscapeV2Code(strings.TrimSpace(language)))
	r.b.WriteString("\n")
	r.b.WriteString(EscapeV2Code(strings.TrimRight(r.lines(n), "\n")))
	r.b.WriteString("\n```")
}

func (r *v2Renderer) lines(n ast.Node) string {
	var b strings.Builder

	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		b.Write(segment.Value(r.src))
	}

	return b.String()
}

func (r *v2Renderer) inlines(parent ast.Node) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		r.inline(n)
	}
}

func (r *v2Renderer) inline(n ast.Node) {
	switch node := n.(type) {
	case *ast.Text:
		r.b.WriteString(EscapeV2(string(node.Segment.Value(r.src))))
		if node.SoftLineBreak() || node.HardLineBreak() {
			r.b.WriteString("\n")
		}
	case *ast.String:
		r.b.WriteString(EscapeV2(string(node.Value)))
	case *ast.Emphasis:
		marker := "_"
		if node.Level >= 2 {
			marker = "*"
		}
		r.b.WriteString(marker)
		r.inlines(node)
		r.b.WriteString(marker)
	case *extast.Strikethrough:
		r.b.WriteString("~")
		r.inlines(node)
		r.b.WriteString("~")
	case *ast.CodeSpan:
		r.b.WriteString("`")
		r.b.WriteString(EscapeV2Code(r.plainText(node)))
		r.b.WriteString("`")
	case *ast.Link:
		r.b.WriteString("[")
		r.inlines(node)
		r.b.WriteString("](")
		r.b.WriteString(EscapeV2URL(string(node.Destination)))
		r.b.WriteString(")")
	case *ast.AutoLink:
		r.b.WriteString("[")
		r.b.WriteString(EscapeV2(string(node.Label(r.src))))
		r.b.WriteString("](")
		r.b.WriteString(EscapeV2URL(string(node.URL(r.src))))
		r.b.WriteString(")")
	case *ast.Image:
		r.inlines(node)
	case *ast.RawHTML:
		for i := 0; i < node.Segments.Len(); i++ {
			segment := node.Segments.At(i)
			r.b.WriteString(EscapeV2(string(segment.Value(r.src))))
		}
	default:
		r.inlines(n)
	}
}

func (r *v2Renderer) plainText(parent ast.Node) string {
	var b strings.Builder

	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(r.src))
		case *ast.String:
			b.Write(node.Value)
		default:
			b.WriteString(r.plainText(n))
		}
	}

	return b.String()
}
