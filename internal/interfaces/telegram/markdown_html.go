package telegram

import (
	"bytes"
	"html"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownToTelegramHTML converts Markdown to the HTML subset Telegram
// accepts: <b>, <i>, <s>, <code>, <pre>, <a href="">. Going through the AST
// guarantees well-formed tags and escaped text, unlike raw Markdown
// parse_mode.
func MarkdownToTelegramHTML(markdown string) string {
	if markdown == "" {
		return ""
	}

	src := []byte(markdown)
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var buf bytes.Buffer
	r := &htmlRenderer{src: src}
	r.renderChildren(&buf, doc)

	return strings.TrimRight(buf.String(), "\n")
}

// htmlRenderer walks the goldmark AST and emits Telegram-compatible HTML.
type htmlRenderer struct {
	src []byte
}

func (r *htmlRenderer) renderNode(w *bytes.Buffer, node ast.Node) {
	switch n := node.(type) {
	case *ast.Paragraph:
		r.renderChildren(w, n)
		w.WriteString("\n\n")

	case *ast.Heading:
		// Telegram has no heading tags; render as bold
		w.WriteString("<b>")
		r.renderChildren(w, n)
		w.WriteString("</b>\n\n")

	case *ast.ThematicBreak:
		w.WriteString("---\n\n")

	case *ast.Blockquote:
		// Telegram has no blockquote; prefix lines
		var inner bytes.Buffer
		r.renderChildren(&inner, n)
		for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
			w.WriteString("| ")
			w.WriteString(line)
			w.WriteString("\n")
		}
		w.WriteString("\n")

	case *ast.FencedCodeBlock:
		lang := string(n.Language(r.src))
		if lang != "" {
			w.WriteString("<pre><code class=\"language-")
			w.WriteString(html.EscapeString(lang))
			w.WriteString("\">")
		} else {
			w.WriteString("<pre><code>")
		}
		r.writeLines(w, n)
		w.WriteString("</code></pre>\n\n")

	case *ast.CodeBlock:
		w.WriteString("<pre><code>")
		r.writeLines(w, n)
		w.WriteString("</code></pre>\n\n")

	case *ast.List:
		r.renderList(w, n)

	case *ast.ListItem:
		r.renderChildren(w, n)

	// Inline nodes
	case *ast.Text:
		w.WriteString(html.EscapeString(string(n.Segment.Value(r.src))))
		if n.SoftLineBreak() || n.HardLineBreak() {
			w.WriteString("\n")
		}

	case *ast.String:
		w.WriteString(html.EscapeString(string(n.Value)))

	case *ast.CodeSpan:
		w.WriteString("<code>")
		r.renderCodeSpanText(w, n)
		w.WriteString("</code>")

	case *ast.Emphasis:
		if n.Level == 2 {
			w.WriteString("<b>")
			r.renderChildren(w, n)
			w.WriteString("</b>")
		} else {
			w.WriteString("<i>")
			r.renderChildren(w, n)
			w.WriteString("</i>")
		}

	case *ast.Link:
		w.WriteString("<a href=\"")
		w.WriteString(html.EscapeString(string(n.Destination)))
		w.WriteString("\">")
		r.renderChildren(w, n)
		w.WriteString("</a>")

	case *ast.AutoLink:
		url := string(n.URL(r.src))
		w.WriteString("<a href=\"")
		w.WriteString(html.EscapeString(url))
		w.WriteString("\">")
		w.WriteString(html.EscapeString(url))
		w.WriteString("</a>")

	case *ast.Image:
		// Telegram has no inline images; show the destination
		w.WriteString("[image: ")
		w.WriteString(html.EscapeString(string(n.Destination)))
		w.WriteString("]")

	case *ast.RawHTML:
		segs := n.Segments
		for i := 0; i < segs.Len(); i++ {
			w.Write(segs.At(i).Value(r.src))
		}

	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			w.Write(lines.At(i).Value(r.src))
		}
		w.WriteString("\n")

	default:
		// Unknown node; render children
		r.renderChildren(w, node)
	}
}

func (r *htmlRenderer) renderChildren(w *bytes.Buffer, node ast.Node) {
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		r.renderNode(w, child)
	}
}

func (r *htmlRenderer) writeLines(w *bytes.Buffer, node ast.Node) {
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		w.WriteString(html.EscapeString(string(lines.At(i).Value(r.src))))
	}
}

func (r *htmlRenderer) renderCodeSpanText(w *bytes.Buffer, node ast.Node) {
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			w.WriteString(html.EscapeString(string(t.Segment.Value(r.src))))
		} else {
			r.renderCodeSpanText(w, child)
		}
	}
}

func (r *htmlRenderer) renderList(w *bytes.Buffer, list *ast.List) {
	idx := list.Start
	for child := list.FirstChild(); child != nil; child = child.NextSibling() {
		if list.IsOrdered() {
			w.WriteString(strconv.Itoa(idx))
			w.WriteString(". ")
			idx++
		} else {
			w.WriteString("- ")
		}
		// Render the item inline, indenting continuation lines
		var item bytes.Buffer
		r.renderChildren(&item, child)
		for i, line := range strings.Split(strings.TrimRight(item.String(), "\n"), "\n") {
			if i > 0 {
				w.WriteString("\n  ")
			}
			w.WriteString(line)
		}
		w.WriteString("\n")
	}
	w.WriteString("\n")
}
