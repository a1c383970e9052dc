package render

import (
	"strings"

	xdv "github.com/dannyswat/xmldiffview"
)

// Row is one line of output: the markup of a node as it appears in each pane.
type Row struct {
	Op    xdv.Operation
	OpID  int
	Depth int

	Left, Right     string
	InLeft, InRight bool

	// Link is the opid of a relocation whose counterpart the row should link
	// to, or 0. Only the first row of a run sharing one opid carries it.
	Link int
}

// Differs reports whether the row shows different markup in the two panes.
func (r Row) Differs() bool {
	return r.InLeft && r.InRight && r.Left != r.Right
}

type rowBuilder struct {
	res         *xdv.Result
	showIgnored bool
	rows        []Row

	// last is the relocation half that most recently received a link.
	last struct {
		opid int
		op   xdv.Operation
	}
}

// Rows flattens the merge tree into display rows in document order.
func Rows(res *xdv.Result, showIgnored bool) []Row {
	b := &rowBuilder{res: res, showIgnored: showIgnored}
	for c := res.Document.FirstChild; c != nil; c = c.NextSibling {
		b.node(c, 0)
	}
	return b.rows
}

func (b *rowBuilder) node(n *xdv.Node, depth int) {
	if n.Op == xdv.OpIgnore && !b.showIgnored {
		return
	}
	row := Row{
		Op:      n.Op,
		OpID:    n.OpID,
		Depth:   depth,
		InLeft:  Visible(n.Op, Baseline),
		InRight: Visible(n.Op, Changed),
		Link:    b.link(n),
	}

	if n.Type != xdv.ElementNode {
		row.Left = leafMarkup(n, Baseline)
		row.Right = leafMarkup(n, Changed)
		b.rows = append(b.rows, row)
		return
	}

	empty := n.FirstChild == nil
	row.Left = b.startTag(n, Baseline, empty)
	row.Right = b.startTag(n, Changed, empty)
	b.rows = append(b.rows, row)
	if empty {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.node(c, depth+1)
	}
	end := row
	end.Link = 0
	b.last.opid = 0
	end.Left = "</" + Side(n, Baseline).Name() + ">"
	end.Right = "</" + Side(n, Changed).Name() + ">"
	b.rows = append(b.rows, end)
}

// link suppresses repeated anchors for consecutive nodes of one relocation
// half. The move-from and move-to halves each get their own anchor.
func (b *rowBuilder) link(n *xdv.Node) int {
	if n.Op != xdv.OpMoveFrom && n.Op != xdv.OpMoveTo {
		b.last.opid = 0
		return 0
	}
	if b.res.Registry.Kind(n.OpID) != xdv.DescriptorRelocation {
		return 0
	}
	if n.OpID == b.last.opid && n.Op == b.last.op {
		return 0
	}
	b.last.opid, b.last.op = n.OpID, n.Op
	return n.OpID
}

func (b *rowBuilder) startTag(n *xdv.Node, pane Pane, empty bool) string {
	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(Side(n, pane).Name())
	for _, a := range n.Attributes() {
		if a.Op == xdv.OpIgnore && !b.showIgnored {
			continue
		}
		if !Visible(a.Op, pane) {
			continue
		}
		im := Side(a, pane)
		sb.WriteByte(' ')
		sb.WriteString(im.Name())
		sb.WriteString(`="`)
		sb.WriteString(attrEscaper.Replace(im.Value))
		sb.WriteByte('"')
	}
	if empty {
		sb.WriteString("/>")
	} else {
		sb.WriteByte('>')
	}
	return sb.String()
}

func leafMarkup(n *xdv.Node, pane Pane) string {
	im := Side(n, pane)
	switch n.Type {
	case xdv.TextNode, xdv.SignificantWhitespaceNode:
		return textEscaper.Replace(im.Value)
	case xdv.CDATANode:
		return "<![CDATA[" + im.Value + "]]>"
	case xdv.CommentNode:
		return "<!--" + im.Value + "-->"
	case xdv.ProcessingInstructionNode:
		if im.Value == "" {
			return "<?" + im.LocalName + "?>"
		}
		return "<?" + im.LocalName + " " + im.Value + "?>"
	case xdv.XMLDeclarationNode:
		return "<?xml " + im.Value + "?>"
	case xdv.DocumentTypeNode:
		return doctype(im)
	case xdv.AttributeNode:
		return im.Name() + `="` + attrEscaper.Replace(im.Value) + `"`
	default:
		return ""
	}
}

func doctype(im Image) string {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE ")
	sb.WriteString(im.LocalName)
	switch {
	case im.PublicID != "":
		sb.WriteString(` PUBLIC "` + im.PublicID + `" "` + im.SystemID + `"`)
	case im.SystemID != "":
		sb.WriteString(` SYSTEM "` + im.SystemID + `"`)
	}
	if im.Value != "" {
		sb.WriteString(" [" + im.Value + "]")
	}
	sb.WriteByte('>')
	return sb.String()
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", `"`, "&quot;")
)
