package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	xdv "github.com/dannyswat/xmldiffview"
)

// Marker returns the line prefix used for op in text output.
func Marker(op xdv.Operation) string {
	switch op {
	case xdv.OpIgnore:
		return "."
	case xdv.OpAdd:
		return "+"
	case xdv.OpMoveTo:
		return ">"
	case xdv.OpRemove:
		return "-"
	case xdv.OpMoveFrom:
		return "<"
	case xdv.OpChange:
		return "~"
	default:
		return " "
	}
}

// TextRenderer writes the merge tree as an indented listing, one node per
// line, prefixed with the operation marker.
type TextRenderer struct {
	Indent      int
	Color       bool
	ShowIgnored bool

	// SideBySide writes the baseline and changed panes as two columns of
	// PaneWidth display cells each.
	SideBySide bool
	PaneWidth  int
}

// NewTextRenderer returns a renderer with two-space indentation.
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{Indent: 2, ShowIgnored: true, PaneWidth: 60}
}

// textStyles builds the per-operation styles on a renderer bound to w. The
// ANSI profile applies to files and pipes as well as terminals.
func textStyles(w io.Writer) map[xdv.Operation]lipgloss.Style {
	lr := lipgloss.NewRenderer(w)
	lr.SetColorProfile(termenv.ANSI)
	return map[xdv.Operation]lipgloss.Style{
		xdv.OpIgnore:   lr.NewStyle().Faint(true),
		xdv.OpAdd:      lr.NewStyle().Foreground(lipgloss.Color("2")),
		xdv.OpMoveTo:   lr.NewStyle().Foreground(lipgloss.Color("6")),
		xdv.OpRemove:   lr.NewStyle().Foreground(lipgloss.Color("1")),
		xdv.OpMoveFrom: lr.NewStyle().Foreground(lipgloss.Color("5")),
		xdv.OpChange:   lr.NewStyle().Foreground(lipgloss.Color("3")),
	}
}

// Render writes res to w.
func (r *TextRenderer) Render(w io.Writer, res *xdv.Result) error {
	var styles map[xdv.Operation]lipgloss.Style
	if r.Color {
		styles = textStyles(w)
	}
	bw := bufio.NewWriter(w)
	for _, row := range Rows(res, r.ShowIgnored) {
		var line string
		if r.SideBySide {
			line = r.columns(row)
		} else {
			line = r.unified(row)
		}
		if _, err := fmt.Fprintln(bw, style(styles, row, line)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func (r *TextRenderer) unified(row Row) string {
	indent := strings.Repeat(" ", row.Depth*r.Indent)
	marker := Marker(row.Op)
	var body string
	switch {
	case row.Differs():
		marker = Marker(xdv.OpChange)
		body = row.Left + " => " + row.Right
	case row.InLeft:
		body = row.Left
	default:
		body = row.Right
	}
	return marker + " " + indent + body + linkNote(row)
}

func (r *TextRenderer) columns(row Row) string {
	indent := strings.Repeat(" ", row.Depth*r.Indent)
	width := r.PaneWidth
	if width <= 0 {
		width = 60
	}
	cell := func(visible bool, s string) string {
		if !visible {
			s = ""
		} else {
			s = indent + s
		}
		return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
	}
	marker := Marker(row.Op)
	if row.Differs() {
		marker = Marker(xdv.OpChange)
	}
	line := cell(row.InLeft, row.Left) + " " + marker + " " + cell(row.InRight, row.Right)
	return strings.TrimRight(line, " ") + linkNote(row)
}

func linkNote(row Row) string {
	if row.Link == 0 {
		return ""
	}
	if row.Op == xdv.OpMoveFrom {
		return fmt.Sprintf("  (moved to #%d)", row.Link)
	}
	return fmt.Sprintf("  (moved from #%d)", row.Link)
}

func style(styles map[xdv.Operation]lipgloss.Style, row Row, line string) string {
	op := row.Op
	if row.Differs() {
		op = xdv.OpChange
	}
	if st, ok := styles[op]; ok {
		return st.Render(line)
	}
	return line
}
