package xmldiffview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		if n.Type == TextNode {
			out[i] = "#" + n.Value
			continue
		}
		out[i] = n.Name()
	}
	return out
}

func TestResolve(t *testing.T) {
	doc := loadIndexed(t, `<r><c1/><c2 foo="f" bar="b" p:baz="z" xmlns:p="urn:p"><d1/>text</c2><c3/><c4/><c5/><c6/></r>`)
	r := documentElement(doc)
	c2 := r.FirstChild.NextSibling

	tests := []struct {
		name    string
		context *Node
		expr    string
		want    []string
	}{
		{name: "single", context: r, expr: "3", want: []string{"c3"}},
		{name: "range", context: r, expr: "2-4", want: []string{"c2", "c3", "c4"}},
		{name: "range and union", context: r, expr: "2-4|6", want: []string{"c2", "c3", "c4", "c6"}},
		{name: "union keeps order", context: r, expr: "5|1", want: []string{"c5", "c1"}},
		{name: "degenerate range", context: r, expr: "4-4", want: []string{"c4"}},
		{name: "all children", context: c2, expr: "*", want: []string{"d1", "#text"}},
		{name: "absolute", context: c2, expr: "/1/2/1", want: []string{"d1"}},
		{name: "absolute from deep node", context: c2.FirstChild, expr: "/1", want: []string{"r"}},
		{name: "absolute range", context: c2, expr: "/1/1-2", want: []string{"c1", "c2"}},
		{name: "absolute union", context: doc, expr: "/1/2/2|1", want: []string{"#text", "d1"}},
		{name: "all attributes", context: c2, expr: "@*", want: []string{"foo", "bar", "p:baz", "xmlns:p"}},
		{name: "named attributes", context: c2, expr: "@bar|foo", want: []string{"bar", "foo"}},
		{name: "prefixed attribute", context: c2, expr: "@p:baz", want: []string{"p:baz"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes, err := Resolve(tt.context, tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(nodes))
		})
	}
}

func TestResolveIdempotent(t *testing.T) {
	doc := loadIndexed(t, `<r a="1" b="2"><c1/><c2/><c3/><c4/></r>`)
	r := documentElement(doc)

	for _, expr := range []string{"2-4|1", "*", "@b|a", "/1/3"} {
		t.Run(expr, func(t *testing.T) {
			first, err := Resolve(r, expr)
			require.NoError(t, err)
			second, err := Resolve(r, expr)
			require.NoError(t, err)
			require.Len(t, second, len(first))
			for i := range first {
				assert.Same(t, first[i], second[i])
			}
		})
	}
}

func TestResolveErrors(t *testing.T) {
	doc := loadIndexed(t, `<r a="1"><c1/><c2/>text</r>`)
	r := documentElement(doc)

	tests := []struct {
		name    string
		context *Node
		expr    string
		wantErr error
	}{
		{name: "empty", context: r, expr: "", wantErr: ErrInvalidExpression},
		{name: "word", context: r, expr: "abc", wantErr: ErrInvalidExpression},
		{name: "descending range", context: r, expr: "3-1", wantErr: ErrInvalidExpression},
		{name: "open range", context: r, expr: "1-", wantErr: ErrInvalidExpression},
		{name: "empty union term", context: r, expr: "1||2", wantErr: ErrInvalidExpression},
		{name: "trailing slash", context: r, expr: "/1/", wantErr: ErrInvalidExpression},
		{name: "bare slash", context: r, expr: "/", wantErr: ErrInvalidExpression},
		{name: "bad attribute name", context: r, expr: "@1a", wantErr: ErrInvalidExpression},
		{name: "empty attribute name", context: r, expr: "@", wantErr: ErrInvalidExpression},
		{name: "zero", context: r, expr: "0", wantErr: ErrNoMatchingNode},
		{name: "past the end", context: r, expr: "4", wantErr: ErrNoMatchingNode},
		{name: "range past the end", context: r, expr: "2-7", wantErr: ErrNoMatchingNode},
		{name: "absolute past the end", context: r, expr: "/2", wantErr: ErrNoMatchingNode},
		{name: "child of leaf", context: r.LastChild, expr: "1", wantErr: ErrNoMatchingNode},
		{name: "missing attribute", context: r, expr: "@b", wantErr: ErrNoMatchingNode},
		{name: "attributes of text", context: r.LastChild, expr: "@*", wantErr: ErrNoMatchingNode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.context, tt.expr)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var pe *PathError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.expr, pe.Expr)
		})
	}
}

func TestResolveBeforeIndex(t *testing.T) {
	doc, err := LoadBaseline(strings.NewReader(`<r><a/></r>`), Options{}, false)
	require.NoError(t, err)

	_, err = Resolve(documentElement(doc), "1")
	assert.ErrorIs(t, err, ErrIndexNotBuilt)
	_, err = Resolve(doc, "*")
	assert.ErrorIs(t, err, ErrIndexNotBuilt)
}

func TestResolveIgnoresSplicedChildren(t *testing.T) {
	doc := loadIndexed(t, `<r><a/><b/></r>`)
	r := documentElement(doc)
	r.insertAfter(nil, &Node{Type: ElementNode, LocalName: "new", indexed: true})

	nodes, err := Resolve(r, "*")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names(nodes))

	nodes, err = Resolve(r, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, names(nodes))

	_, err = Resolve(r, "3")
	assert.ErrorIs(t, err, ErrNoMatchingNode)
}
