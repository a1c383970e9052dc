package xmldiffview

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// DiffgramNamespace is the namespace of every diffgram element.
const DiffgramNamespace = "http://schemas.microsoft.com/xmltools/2002/xmldiff"

// Diffgram is a parsed diffgram document.
type Diffgram struct {
	Options   Options
	Fragments bool
	// SrcDocHash is the baseline hash recorded by the diff producer. It is
	// carried along but not verified.
	SrcDocHash string

	root *Node
}

// ParseDiffgram reads a diffgram and validates its root element.
func ParseDiffgram(r io.Reader) (*Diffgram, error) {
	doc, err := parseTree(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse diffgram: %w", err)
	}
	var root *Node
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == ElementNode {
			root = c
			break
		}
	}
	if root.NamespaceURI != DiffgramNamespace || root.LocalName != "xmldiff" {
		return nil, fmt.Errorf("%w: root element is {%s}%s, want {%s}xmldiff", ErrInvalidDiffgram, root.NamespaceURI, root.LocalName, DiffgramNamespace)
	}

	dg := &Diffgram{root: root}
	options, ok := attrValue(root, "options")
	if !ok {
		return nil, fmt.Errorf("%w: missing options attribute", ErrInvalidDiffgram)
	}
	if dg.Options, err = ParseOptions(options); err != nil {
		return nil, err
	}
	if v, ok := attrValue(root, "fragments"); ok {
		if dg.Fragments, err = yesNo("fragments", v); err != nil {
			return nil, err
		}
	}
	dg.SrcDocHash, _ = attrValue(root, "srcDocHash")
	return dg, nil
}

// ParseOptions parses the space separated flags of the options attribute.
// IgnoreNamespaces implies IgnorePrefixes.
func ParseOptions(s string) (Options, error) {
	var o Options
	for _, flag := range strings.Fields(s) {
		switch flag {
		case "None":
		case "IgnoreChildOrder":
			o.IgnoreChildOrder = true
		case "IgnoreComments":
			o.IgnoreComments = true
		case "IgnoreNamespaces":
			o.IgnoreNamespaces = true
		case "IgnorePI":
			o.IgnorePI = true
		case "IgnorePrefixes":
			o.IgnorePrefixes = true
		case "IgnoreWhitespace":
			o.IgnoreWhitespace = true
		case "IgnoreXmlDecl":
			o.IgnoreXMLDecl = true
		case "IgnoreDtd":
			o.IgnoreDTD = true
		default:
			return Options{}, fmt.Errorf("%w: unknown option %q", ErrInvalidDiffgram, flag)
		}
	}
	if o.IgnoreNamespaces {
		o.IgnorePrefixes = true
	}
	return o, nil
}

// Descriptors returns the descriptor declarations of the diffgram in
// document order.
func (dg *Diffgram) Descriptors() ([]Descriptor, error) {
	var list []Descriptor
	for c := dg.root.FirstChild; c != nil; c = c.NextSibling {
		if !isDirective(c, "descriptor") {
			continue
		}
		v, ok := attrValue(c, "opid")
		if !ok {
			return nil, fmt.Errorf("%w: descriptor without opid", ErrInvalidDiffgram)
		}
		opid, err := parseOpID(v)
		if err != nil {
			return nil, err
		}
		typ, _ := attrValue(c, "type")
		kind, err := parseDescriptorKind(typ)
		if err != nil {
			return nil, err
		}
		list = append(list, Descriptor{ID: opid, Kind: kind})
	}
	return list, nil
}

// maxOpID returns the largest explicit opid anywhere in the diffgram.
func (dg *Diffgram) maxOpID() (int, error) {
	var max int
	var err error
	Walk(dg.root, func(n *Node) bool {
		if err != nil || n.Type != ElementNode || n.NamespaceURI != DiffgramNamespace {
			return false
		}
		if v, ok := attrValue(n, "opid"); ok {
			var id int
			if id, err = parseOpID(v); err == nil && id > max {
				max = id
			}
		}
		return true
	})
	return max, err
}

func parseDescriptorKind(s string) (DescriptorKind, error) {
	switch s {
	case "move":
		return DescriptorRelocation, nil
	case "prefix change":
		return DescriptorPrefixChange, nil
	case "namespace change":
		return DescriptorNamespaceChange, nil
	default:
		return DescriptorNone, fmt.Errorf("%w: %q", ErrUnknownDescriptor, s)
	}
}

func parseOpID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid opid %q", ErrInvalidDiffgram, s)
	}
	return id, nil
}

func yesNo(attr, v string) (bool, error) {
	switch v {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s must be \"yes\" or \"no\", got %q", ErrInvalidDiffgram, attr, v)
	}
}

// isDirective reports whether n is the diffgram element with the given name.
func isDirective(n *Node, name string) bool {
	return n.Type == ElementNode && n.NamespaceURI == DiffgramNamespace && n.LocalName == name
}

// attrValue returns an unqualified attribute of a diffgram element.
func attrValue(n *Node, name string) (string, bool) {
	for a := n.FirstAttr; a != nil; a = a.NextSibling {
		if a.Prefix == "" && a.LocalName == name {
			return a.Value, true
		}
	}
	return "", false
}

// inlineValue returns the text payload of a directive. A directive holding
// element children carries no value.
func inlineValue(n *Node) (string, bool) {
	var b strings.Builder
	found := false
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case ElementNode:
			return "", false
		case TextNode, CDATANode, SignificantWhitespaceNode:
			b.WriteString(c.Value)
			found = true
		}
	}
	return b.String(), found
}
