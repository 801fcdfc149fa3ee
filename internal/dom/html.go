package dom

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// elements dropped from template markup together with their content
var unsafeElements = map[atom.Atom]bool{
	atom.Script: true,
	atom.Style:  true,
	atom.Iframe: true,
	atom.Object: true,
	atom.Embed:  true,
}

// sanitize parses template markup as an HTML fragment and renders it back
// without script-capable elements, event handler attributes and javascript
// URLs.
func sanitize(markup string) string {
	if markup == "" || !strings.ContainsAny(markup, "<&") {
		return markup
	}

	parent := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(markup), parent)
	if err != nil {
		return html.EscapeString(markup)
	}

	var b strings.Builder
	for _, n := range nodes {
		clean(n)
		if n.Type == html.ElementNode && unsafeElements[n.DataAtom] {
			continue
		}
		if err := html.Render(&b, n); err != nil {
			return html.EscapeString(markup)
		}
	}
	return b.String()
}

func clean(n *html.Node) {
	if n.Type == html.ElementNode {
		attrs := n.Attr[:0]
		for _, a := range n.Attr {
			key := strings.ToLower(a.Key)
			if strings.HasPrefix(key, "on") {
				continue
			}
			if (key == "href" || key == "src") &&
				strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.Val)), "javascript:") {
				continue
			}
			attrs = append(attrs, a)
		}
		n.Attr = attrs
	}

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && unsafeElements[c.DataAtom] {
			n.RemoveChild(c)
		} else {
			clean(c)
		}
		c = next
	}
}

// Component renders the document body as a templ component.
func (d *Document) Component() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		d.mu.RLock()
		defer d.mu.RUnlock()
		return renderWidget(w, d.body)
	})
}

// HTML renders the document body to a string.
func (d *Document) HTML(ctx context.Context) (string, error) {
	var b strings.Builder
	if err := d.Component().Render(ctx, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// renderWidget must be called with the document lock held.
func renderWidget(w io.Writer, widget *Widget) error {
	classes := append([]string{"viewnav_" + widget.kind}, widget.css...)

	var b strings.Builder
	b.WriteString(`<div view_id="`)
	b.WriteString(templ.EscapeString(widget.id))
	b.WriteString(`" class="`)
	b.WriteString(templ.EscapeString(strings.Join(classes, " ")))
	b.WriteString(`"`)
	for _, key := range []string{"route", "trigger"} {
		if v := widget.attrs[key]; v != "" {
			b.WriteString(" ")
			b.WriteString(key)
			b.WriteString(`="`)
			b.WriteString(templ.EscapeString(v))
			b.WriteString(`"`)
		}
	}
	b.WriteString(">")
	b.WriteString(widget.template)
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	for _, child := range widget.children {
		if err := renderWidget(w, child); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "</div>")
	return err
}
