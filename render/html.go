package render

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	xdv "github.com/dannyswat/xmldiffview"
)

// HTMLRenderer writes the merge tree as a two-column HTML table: baseline on
// the left, changed document on the right. Relocations get reciprocal
// anchors named move_from_<opid> and move_to_<opid>.
type HTMLRenderer struct {
	Title       string
	Indent      int
	ShowIgnored bool
}

// NewHTMLRenderer returns a renderer with default settings.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{Title: "XML Diff", Indent: 2, ShowIgnored: true}
}

const stylesheet = `
table.xmldiff { border-collapse: collapse; font-family: monospace; width: 100%; }
table.xmldiff td { vertical-align: top; white-space: pre; padding: 0 .5em; width: 50%; }
table.xmldiff th { text-align: left; border-bottom: 1px solid #999; }
.ignore { color: #999; }
.add, .moveto { background: #e6ffed; }
.remove, .movefrom { background: #ffeef0; }
.moveto, .movefrom { font-style: italic; }
.change { background: #fff5b1; }
`

// Render writes res to w as a complete HTML document.
func (r *HTMLRenderer) Render(w io.Writer, res *xdv.Result) error {
	return html.Render(w, r.Document(res))
}

// Document builds the HTML document tree for res.
func (r *HTMLRenderer) Document(res *xdv.Result) *html.Node {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html)
	doc.AppendChild(root)
	head := element(atom.Head)
	root.AppendChild(head)
	head.AppendChild(withText(element(atom.Title), r.Title))
	head.AppendChild(withText(element(atom.Style), stylesheet))

	body := element(atom.Body)
	root.AppendChild(body)
	body.AppendChild(withText(element(atom.H1), r.Title))
	if res.Options != (xdv.Options{}) {
		body.AppendChild(withText(element(atom.P, "class", "options"), "Options: "+res.Options.String()))
	}

	table := element(atom.Table, "class", "xmldiff")
	body.AppendChild(table)
	header := element(atom.Tr)
	header.AppendChild(withText(element(atom.Th), Baseline.String()))
	header.AppendChild(withText(element(atom.Th), Changed.String()))
	table.AppendChild(header)

	for _, row := range Rows(res, r.ShowIgnored) {
		table.AppendChild(r.row(row))
	}
	return doc
}

func (r *HTMLRenderer) row(row Row) *html.Node {
	class := cssClass(row.Op)
	if row.Op == xdv.OpMatch && row.Differs() {
		class = cssClass(xdv.OpChange)
	}
	tr := element(atom.Tr, "class", class)
	indent := strings.Repeat(" ", row.Depth*r.Indent)

	left := element(atom.Td)
	if row.InLeft {
		if row.Link != 0 && row.Op == xdv.OpMoveFrom {
			left.AppendChild(element(atom.A, "id", anchor("move_from", row.Link)))
		}
		left.AppendChild(text(indent + row.Left))
		if row.Link != 0 && row.Op == xdv.OpMoveFrom {
			left.AppendChild(withText(element(atom.A, "href", "#"+anchor("move_to", row.Link)), " ⇒"))
		}
	}
	right := element(atom.Td)
	if row.InRight {
		if row.Link != 0 && row.Op == xdv.OpMoveTo {
			right.AppendChild(element(atom.A, "id", anchor("move_to", row.Link)))
		}
		right.AppendChild(text(indent + row.Right))
		if row.Link != 0 && row.Op == xdv.OpMoveTo {
			right.AppendChild(withText(element(atom.A, "href", "#"+anchor("move_from", row.Link)), " ⇐"))
		}
	}
	tr.AppendChild(left)
	tr.AppendChild(right)
	return tr
}

func cssClass(op xdv.Operation) string {
	return strings.ReplaceAll(op.String(), "-", "")
}

func anchor(kind string, opid int) string {
	return fmt.Sprintf("%s_%d", kind, opid)
}

// element creates an element node; attrs are key/value pairs.
func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func withText(n *html.Node, s string) *html.Node {
	n.AppendChild(text(s))
	return n
}
