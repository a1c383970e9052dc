package xmldiffview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := newRegistry()
	require.NoError(t, r.declare(4, DescriptorRelocation))
	require.NoError(t, r.declare(2, DescriptorPrefixChange))
	require.NoError(t, r.declare(4, DescriptorRelocation))
	assert.ErrorIs(t, r.declare(4, DescriptorNamespaceChange), ErrInvalidDiffgram)

	from := &Node{Type: ElementNode, LocalName: "a", Op: OpMoveFrom, OpID: 4}
	to := &Node{Type: ElementNode, LocalName: "a", Op: OpMoveTo, OpID: 4}
	added := &Node{Type: TextNode, Op: OpAdd, OpID: 9}
	r.add(4, from)
	r.add(4, to)
	r.add(9, added)
	r.add(0, &Node{Type: TextNode})

	assert.Equal(t, DescriptorRelocation, r.Kind(4))
	assert.Equal(t, DescriptorNone, r.Kind(9))
	assert.Equal(t, DescriptorNone, r.Kind(100))

	d, ok := r.Lookup(4)
	require.True(t, ok)
	assert.Equal(t, []*Node{from, to}, d.Nodes)
	_, ok = r.Lookup(0)
	assert.False(t, ok)

	var ids []int
	for _, d := range r.Descriptors() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []int{2, 4, 9}, ids)

	other, ok := r.Counterpart(from)
	require.True(t, ok)
	assert.Same(t, to, other)
	other, ok = r.Counterpart(to)
	require.True(t, ok)
	assert.Same(t, from, other)

	_, ok = r.Counterpart(added)
	assert.False(t, ok)
}

func TestRegistryCounterpartNeedsRelocation(t *testing.T) {
	r := newRegistry()
	from := &Node{Type: ElementNode, Op: OpMoveFrom, OpID: 1}
	to := &Node{Type: ElementNode, Op: OpMoveTo, OpID: 1}
	r.add(1, from)
	r.add(1, to)

	_, ok := r.Counterpart(from)
	assert.False(t, ok, "undeclared opids are not relocations")
}

func TestRegistryCounterpartPairsRuns(t *testing.T) {
	r := newRegistry()
	require.NoError(t, r.declare(1, DescriptorRelocation))
	from := []*Node{{Op: OpMoveFrom, OpID: 1}, {Op: OpMoveFrom, OpID: 1}}
	to := []*Node{{Op: OpMoveTo, OpID: 1}, {Op: OpMoveTo, OpID: 1}}
	for _, n := range append(append([]*Node{}, from...), to...) {
		r.add(1, n)
	}

	for i := range from {
		got, ok := r.Counterpart(from[i])
		require.True(t, ok)
		assert.Same(t, to[i], got)
		got, ok = r.Counterpart(to[i])
		require.True(t, ok)
		assert.Same(t, from[i], got)
	}
}
