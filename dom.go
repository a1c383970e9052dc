package xmldiffview

import (
	"errors"
	"fmt"
)

// Node is a node of the annotated merge tree. Like html.Node it is a tagged
// union: Type selects which payload fields are meaningful.
//
//   - ElementNode: LocalName, Prefix, NamespaceURI, attribute and child lists
//   - AttributeNode: LocalName, Prefix, NamespaceURI, Value
//   - TextNode, CDATANode, CommentNode, SignificantWhitespaceNode: Value
//   - ProcessingInstructionNode: LocalName (target), Value (data)
//   - XMLDeclarationNode: Value (declaration body)
//   - DocumentTypeNode: LocalName, PublicID, SystemID, Value (internal subset)
//
// Children and attributes are singly linked through NextSibling in insertion
// order. Only the tree root has a nil Parent; attributes point at their element.
type Node struct {
	Parent, FirstChild, LastChild, NextSibling *Node
	FirstAttr, LastAttr                        *Node

	Type         NodeType
	LocalName    string
	Prefix       string
	NamespaceURI string
	Value        string
	PublicID     string
	SystemID     string

	Op     Operation
	OpID   int
	Change *ChangeInfo

	// sourceCount counts the children that came from the baseline document.
	sourceCount int
	sourceIndex []*Node
	indexed     bool
}

// Name returns the qualified name of an element, attribute, processing
// instruction or document type.
func (n *Node) Name() string {
	if n.Prefix == "" {
		return n.LocalName
	}
	return n.Prefix + ":" + n.LocalName
}

// IsParent reports whether the node can hold addressable children.
func (n *Node) IsParent() bool {
	return n.Type == DocumentNode || n.Type == ElementNode
}

// SourceChildCount returns the number of children loaded from the baseline.
func (n *Node) SourceChildCount() int {
	return n.sourceCount
}

// Children returns the child list, baseline and spliced nodes alike.
func (n *Node) Children() []*Node {
	var children []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, c)
	}
	return children
}

// Attributes returns the attribute list of an element.
func (n *Node) Attributes() []*Node {
	var attrs []*Node
	for a := n.FirstAttr; a != nil; a = a.NextSibling {
		attrs = append(attrs, a)
	}
	return attrs
}

// Attr returns the attribute with the given qualified name, or nil.
func (n *Node) Attr(qname string) *Node {
	for a := n.FirstAttr; a != nil; a = a.NextSibling {
		if a.Name() == qname {
			return a
		}
	}
	return nil
}

// appendChild adds c as the last child of n.
func (n *Node) appendChild(c *Node) {
	c.Parent = n
	c.NextSibling = nil
	if n.LastChild == nil {
		n.FirstChild = c
	} else {
		n.LastChild.NextSibling = c
	}
	n.LastChild = c
}

// appendSourceChild adds a baseline child and counts it as a source child.
func (n *Node) appendSourceChild(c *Node) {
	n.appendChild(c)
	n.sourceCount++
}

// insertAfter splices c into n's children after ref. A nil ref inserts c as
// the first child.
func (n *Node) insertAfter(ref, c *Node) {
	c.Parent = n
	if ref == nil {
		c.NextSibling = n.FirstChild
		n.FirstChild = c
		if n.LastChild == nil {
			n.LastChild = c
		}
		return
	}
	c.NextSibling = ref.NextSibling
	ref.NextSibling = c
	if n.LastChild == ref {
		n.LastChild = c
	}
}

func (n *Node) appendAttr(a *Node) {
	a.Parent = n
	a.NextSibling = nil
	if n.LastAttr == nil {
		n.FirstAttr = a
	} else {
		n.LastAttr.NextSibling = a
	}
	n.LastAttr = a
}

// CreateSourceNodesIndex builds the positional index of n and of every parent
// node below it. It must run before any directive mutates those child lists;
// an already built index is left untouched.
func (n *Node) CreateSourceNodesIndex() {
	if !n.IsParent() {
		return
	}
	if !n.indexed {
		n.sourceIndex = make([]*Node, 0, n.sourceCount)
		for c := n.FirstChild; c != nil && len(n.sourceIndex) < n.sourceCount; c = c.NextSibling {
			n.sourceIndex = append(n.sourceIndex, c)
		}
		n.indexed = true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		c.CreateSourceNodesIndex()
	}
}

// sourceChild returns the baseline child at 1-based position pos.
func (n *Node) sourceChild(pos int) (*Node, error) {
	if !n.IsParent() {
		return nil, fmt.Errorf("%s node has no children: %w", n.Type, ErrNoMatchingNode)
	}
	if !n.indexed {
		return nil, ErrIndexNotBuilt
	}
	if pos < 1 || pos > len(n.sourceIndex) {
		return nil, fmt.Errorf("position %d outside [1, %d]: %w", pos, len(n.sourceIndex), ErrNoMatchingNode)
	}
	return n.sourceIndex[pos-1], nil
}

// clone copies n with its attributes, and with its children when deep is
// set. The copy is detached, untagged and has no baseline children.
func (n *Node) clone(deep bool) *Node {
	c := &Node{
		Type:         n.Type,
		LocalName:    n.LocalName,
		Prefix:       n.Prefix,
		NamespaceURI: n.NamespaceURI,
		Value:        n.Value,
		PublicID:     n.PublicID,
		SystemID:     n.SystemID,
		indexed:      true,
	}
	for a := n.FirstAttr; a != nil; a = a.NextSibling {
		c.appendAttr(a.clone(false))
	}
	if deep {
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			c.appendChild(ch.clone(true))
		}
	}
	return c
}

// setOperation tags n and its attributes.
func (n *Node) setOperation(op Operation, opid int) {
	n.Op = op
	n.OpID = opid
	for a := n.FirstAttr; a != nil; a = a.NextSibling {
		a.Op = op
		a.OpID = opid
	}
}

// setSubtreeOperation tags n, its attributes and every descendant.
func (n *Node) setSubtreeOperation(op Operation, opid int) {
	Walk(n, func(d *Node) bool {
		d.setOperation(op, opid)
		return true
	})
}

// Walk visits n and its descendants in document order. Attributes are not
// visited. Returning false from fn skips the node's children.
func Walk(n *Node, fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, fn)
	}
}

// GetNode traverses the tree using the provided path to find a baseline node.
func GetNode(root *Node, path NodePath) (*Node, error) {
	current := root
	for i, pos := range path {
		child, err := current.sourceChild(pos)
		if err != nil {
			return nil, fmt.Errorf("node not found at path %v (failed at position %d, step %d): %w", path, pos, i, err)
		}
		current = child
	}
	return current, nil
}

// GetPath finds the path from the tree root to a baseline node.
func GetPath(target *Node) (NodePath, error) {
	var path NodePath

	current := target
	for current.Parent != nil {
		if current.Type == AttributeNode {
			return nil, errors.New("attributes are not addressed by position")
		}
		parent := current.Parent
		pos := sourcePosition(parent, current)
		if pos == 0 {
			return nil, errors.New("target node is not a baseline node")
		}
		path = append(NodePath{pos}, path...)
		current = parent
	}
	return path, nil
}

// sourcePosition returns the 1-based baseline position of child, or 0.
func sourcePosition(parent, child *Node) int {
	for i, c := range parent.sourceIndex {
		if c == child {
			return i + 1
		}
	}
	return 0
}
