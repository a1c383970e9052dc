package xmldiffview

import (
	"strconv"
	"strings"
)

// NodePath represents the traversal steps from the root to a target node.
// Steps are 1-based positions among the baseline children of each parent.
// Example: [2, 1, 3] means root -> child 2 -> child 1 -> child 3, written "/2/1/3".
type NodePath []int

// String renders the path in the diffgram's absolute addressing syntax.
func (p NodePath) String() string {
	if len(p) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, step := range p {
		b.WriteByte('/')
		b.WriteString(strconv.Itoa(step))
	}
	return b.String()
}

// NodeType identifies the kind of a node in the annotated tree.
type NodeType int

const (
	DocumentNode NodeType = iota
	ElementNode
	AttributeNode
	TextNode
	CDATANode
	CommentNode
	ProcessingInstructionNode
	XMLDeclarationNode
	DocumentTypeNode
	SignificantWhitespaceNode
)

var nodeTypeNames = [...]string{
	DocumentNode:              "document",
	ElementNode:               "element",
	AttributeNode:             "attribute",
	TextNode:                  "text",
	CDATANode:                 "cdata",
	CommentNode:               "comment",
	ProcessingInstructionNode: "processing-instruction",
	XMLDeclarationNode:        "xml-declaration",
	DocumentTypeNode:          "document-type",
	SignificantWhitespaceNode: "significant-whitespace",
}

func (t NodeType) String() string {
	if t >= 0 && int(t) < len(nodeTypeNames) {
		return nodeTypeNames[t]
	}
	return "NodeType(" + strconv.Itoa(int(t)) + ")"
}

// IsCharacterData reports whether nodes of this type carry only a text payload.
func (t NodeType) IsCharacterData() bool {
	switch t {
	case TextNode, CDATANode, CommentNode, SignificantWhitespaceNode:
		return true
	}
	return false
}

// Operation classifies a node of the merge tree.
type Operation int

const (
	OpMatch Operation = iota // unchanged, the default
	OpIgnore
	OpAdd
	OpMoveTo
	OpRemove
	OpMoveFrom
	OpChange
)

func (o Operation) String() string {
	switch o {
	case OpMatch:
		return "match"
	case OpIgnore:
		return "ignore"
	case OpAdd:
		return "add"
	case OpMoveTo:
		return "move-to"
	case OpRemove:
		return "remove"
	case OpMoveFrom:
		return "move-from"
	case OpChange:
		return "change"
	default:
		return "Operation(" + strconv.Itoa(int(o)) + ")"
	}
}

// DescriptorKind is the kind of cross-reference an operation id stands for.
type DescriptorKind int

const (
	// DescriptorNone groups the nodes of a single directive that no
	// descriptor element declared.
	DescriptorNone DescriptorKind = iota
	DescriptorRelocation
	DescriptorPrefixChange
	DescriptorNamespaceChange
)

func (k DescriptorKind) String() string {
	switch k {
	case DescriptorRelocation:
		return "move"
	case DescriptorPrefixChange:
		return "prefix change"
	case DescriptorNamespaceChange:
		return "namespace change"
	default:
		return "none"
	}
}

// ChangeInfo is the post-image of a changed node. The node itself keeps its
// baseline name and value.
type ChangeInfo struct {
	LocalName    string
	Prefix       string
	NamespaceURI string
	// Value is the new text, attribute value, instruction data, comment, xml
	// declaration body or internal subset.
	Value string
	// PublicID and SystemID apply to document type nodes only.
	PublicID string
	SystemID string
}

// Options are the comparison flags carried by the diffgram's options attribute.
type Options struct {
	IgnoreChildOrder bool
	IgnoreComments   bool
	IgnoreNamespaces bool
	IgnorePI         bool
	IgnorePrefixes   bool
	IgnoreWhitespace bool
	IgnoreXMLDecl    bool
	IgnoreDTD        bool
}

func (o Options) String() string {
	var flags []string
	add := func(set bool, name string) {
		if set {
			flags = append(flags, name)
		}
	}
	add(o.IgnoreChildOrder, "IgnoreChildOrder")
	add(o.IgnoreComments, "IgnoreComments")
	add(o.IgnoreNamespaces, "IgnoreNamespaces")
	add(o.IgnorePI, "IgnorePI")
	add(o.IgnorePrefixes, "IgnorePrefixes")
	add(o.IgnoreWhitespace, "IgnoreWhitespace")
	add(o.IgnoreXMLDecl, "IgnoreXmlDecl")
	add(o.IgnoreDTD, "IgnoreDtd")
	if len(flags) == 0 {
		return "None"
	}
	return strings.Join(flags, " ")
}
