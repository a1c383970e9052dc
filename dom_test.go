package xmldiffview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadIndexed(t *testing.T, content string) *Node {
	t.Helper()
	doc, err := LoadBaseline(strings.NewReader(content), Options{}, false)
	require.NoError(t, err)
	doc.CreateSourceNodesIndex()
	return doc
}

func documentElement(doc *Node) *Node {
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == ElementNode {
			return c
		}
	}
	return nil
}

func TestPathing(t *testing.T) {
	doc := loadIndexed(t, `<?xml version="1.0"?><html><head/><body><div><p>Hello</p></div></body></html>`)

	// document -> html (2, after the declaration) -> body (2) -> div (1) -> p (1) -> "Hello" (1)
	targetPath := NodePath{2, 2, 1, 1, 1}

	node, err := GetNode(doc, targetPath)
	require.NoError(t, err)
	assert.Equal(t, TextNode, node.Type)
	assert.Equal(t, "Hello", node.Value)

	path, err := GetPath(node)
	require.NoError(t, err)
	assert.Equal(t, targetPath, path)
	assert.Equal(t, "/2/2/1/1/1", path.String())

	nodes, err := Resolve(doc, path.String())
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Same(t, node, nodes[0])
}

func TestGetPathRoundTrip(t *testing.T) {
	doc := loadIndexed(t, `<r><a x="1"><b/><!--c--><c>t</c></a><?pi d?><d/></r>`)

	Walk(doc, func(n *Node) bool {
		if n == doc {
			return true
		}
		path, err := GetPath(n)
		require.NoError(t, err)
		got, err := GetNode(doc, path)
		require.NoError(t, err)
		assert.Same(t, n, got, "path %s", path)
		return true
	})
}

func TestGetNodeErrors(t *testing.T) {
	doc := loadIndexed(t, `<r><a/></r>`)

	_, err := GetNode(doc, NodePath{1, 2})
	assert.ErrorIs(t, err, ErrNoMatchingNode)

	_, err = GetNode(doc, NodePath{1, 1, 1})
	assert.ErrorIs(t, err, ErrNoMatchingNode)

	unindexed, err := LoadBaseline(strings.NewReader(`<r/>`), Options{}, false)
	require.NoError(t, err)
	_, err = GetNode(unindexed, NodePath{1})
	assert.ErrorIs(t, err, ErrIndexNotBuilt)
}

func TestGetPathRejectsSplicedNodes(t *testing.T) {
	doc := loadIndexed(t, `<r id="1"><a/></r>`)
	r := documentElement(doc)
	added := &Node{Type: ElementNode, LocalName: "new", indexed: true}
	r.insertAfter(nil, added)

	_, err := GetPath(added)
	assert.Error(t, err)

	_, err = GetPath(r.Attr("id"))
	assert.Error(t, err)

	path, err := GetPath(r.LastChild)
	require.NoError(t, err)
	assert.Equal(t, NodePath{1, 1}, path)
}

func TestInsertAfter(t *testing.T) {
	parent := &Node{Type: ElementNode, LocalName: "p"}
	a := &Node{Type: ElementNode, LocalName: "a"}
	b := &Node{Type: ElementNode, LocalName: "b"}
	c := &Node{Type: ElementNode, LocalName: "c"}

	parent.insertAfter(nil, b)
	parent.insertAfter(nil, a)
	parent.insertAfter(b, c)

	var names []string
	for _, n := range parent.Children() {
		names = append(names, n.LocalName)
		assert.Same(t, parent, n.Parent)
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
	assert.Same(t, c, parent.LastChild)
	assert.Equal(t, 0, parent.SourceChildCount())
}

func TestCloneIsDetachedAndUntagged(t *testing.T) {
	doc := loadIndexed(t, `<r><a x="1"><b>t</b></a></r>`)
	a := documentElement(doc).FirstChild
	a.setSubtreeOperation(OpRemove, 3)

	shallow := a.clone(false)
	assert.Nil(t, shallow.Parent)
	assert.Nil(t, shallow.FirstChild)
	require.NotNil(t, shallow.Attr("x"))
	assert.Equal(t, OpMatch, shallow.Attr("x").Op)
	assert.Equal(t, OpMatch, shallow.Op)

	deep := a.clone(true)
	require.NotNil(t, deep.FirstChild)
	assert.Equal(t, "b", deep.FirstChild.LocalName)
	assert.Equal(t, "t", deep.FirstChild.FirstChild.Value)
	assert.Equal(t, OpMatch, deep.FirstChild.Op)
	assert.Equal(t, 0, deep.SourceChildCount())
}

func TestNodePathString(t *testing.T) {
	assert.Equal(t, "/", NodePath{}.String())
	assert.Equal(t, "/1", NodePath{1}.String())
	assert.Equal(t, "/3/10/2", NodePath{3, 10, 2}.String())
}
