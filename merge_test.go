package xmldiffview

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestOpIDAllocationSkipsExplicitIDs(t *testing.T) {
	res := mustMerge(t, `<r><a/><b/></r>`, dg("None", `
<xd:descriptor opid="5" type="move"/>
<xd:node match="1">
  <xd:add type="1" name="n"/>
  <xd:remove match="2" opid="9"/>
  <xd:add type="1" name="m"/>
</xd:node>`))

	r := documentElement(res.Document)
	assert.Equal(t, []string{"n", "a", "b", "m"}, names(r.Children()))

	var got []int
	for _, c := range r.Children() {
		got = append(got, c.OpID)
	}
	assert.Equal(t, []int{10, 0, 9, 11}, got)
	assert.Equal(t, OpRemove, r.Children()[2].Op, "opid 9 is not a declared relocation")

	var ids []int
	for _, d := range res.Registry.Descriptors() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []int{5, 9, 10, 11}, ids)

	d, ok := res.Registry.Lookup(5)
	require.True(t, ok)
	assert.Empty(t, d.Nodes)
}

func TestMergerReuse(t *testing.T) {
	m := NewMerger(WithLogger(zaptest.NewLogger(t)))
	diffgram := dg("None", `<xd:node match="1"><xd:add type="1" name="n"/></xd:node>`)

	for i := 0; i < 2; i++ {
		res, err := m.Load(strings.NewReader(`<r/>`), strings.NewReader(diffgram))
		require.NoError(t, err)
		n := documentElement(res.Document).FirstChild
		require.NotNil(t, n)
		assert.Equal(t, 1, n.OpID, "run %d", i)
		assert.Len(t, res.Registry.Descriptors(), 1)
	}
}

func TestPatch(t *testing.T) {
	res, err := Patch(`<r><a>x</a></r>`, dg("None", `<xd:node match="1"><xd:node match="1"><xd:change match="1">y</xd:change></xd:node></xd:node>`))
	require.NoError(t, err)
	text, err := GetNode(res.Document, NodePath{1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, "x", text.Value)
	assert.Equal(t, "y", text.Change.Value)
}

func TestResultCarriesDiffgramHeader(t *testing.T) {
	diffgram := fmt.Sprintf(`<xd:xmldiff version="1.0" options="IgnoreComments" fragments="yes" srcDocHash="42" xmlns:xd="%s">
  <xd:remove match="3"/>
</xd:xmldiff>`, DiffgramNamespace)

	res := mustMerge(t, `<a/><!--c--><b/>`, diffgram)
	assert.Equal(t, Options{IgnoreComments: true}, res.Options)
	assert.True(t, res.Fragments)
	assert.Equal(t, "42", res.SrcDocHash)

	children := res.Document.Children()
	require.Len(t, children, 3)
	assert.Equal(t, []Operation{OpMatch, OpIgnore, OpRemove}, ops(children))
}

func TestIgnoredNodesKeepTheirTag(t *testing.T) {
	res := mustMerge(t, `<r><!--c--><a/></r>`, dg("IgnoreComments", `<xd:node match="1"><xd:remove match="2"/></xd:node>`))
	r := documentElement(res.Document)
	assert.Equal(t, []Operation{OpIgnore, OpRemove}, ops(r.Children()))
}

func TestEmptyDiffgram(t *testing.T) {
	res := mustMerge(t, `<r><a b="c">t</a></r>`, dg("None", ""))
	Walk(res.Document, func(n *Node) bool {
		assert.Equal(t, OpMatch, n.Op)
		return true
	})
	assert.Empty(t, res.Registry.Descriptors())
}

func TestWithNilLogger(t *testing.T) {
	m := NewMerger(WithLogger(nil))
	_, err := m.Load(strings.NewReader(`<r/>`), strings.NewReader(dg("None", "")))
	assert.NoError(t, err)
}
