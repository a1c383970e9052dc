package xmldiffview

import (
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

// apply runs the directives below dgEl against the children of parent.
// Directives are processed in order; each addition is spliced after the
// cursor, which starts before the first child.
func (s *session) apply(parent, dgEl *Node, top bool) error {
	var cursor *Node
	i := 0
	for d := dgEl.FirstChild; d != nil; d = d.NextSibling {
		switch d.Type {
		case CommentNode:
			continue
		case TextNode, CDATANode, SignificantWhitespaceNode:
			// Text next to nested directives is either layout or the value of
			// a change, which the change itself has already read.
			if isSpace(d.Value) || isDirective(dgEl, "change") {
				continue
			}
			return fmt.Errorf("%w: unexpected text %q among directives", ErrInvalidDiffgram, d.Value)
		case ElementNode:
		default:
			return fmt.Errorf("%w: unexpected %s among directives", ErrInvalidDiffgram, d.Type)
		}
		if d.NamespaceURI != DiffgramNamespace {
			return fmt.Errorf("%w: element <%s> outside the diffgram namespace", ErrInvalidDiffgram, d.Name())
		}
		if d.LocalName == "descriptor" {
			if !top {
				return fmt.Errorf("%w: descriptor below the diffgram root", ErrInvalidDiffgram)
			}
			continue
		}

		i++
		s.directives++
		if err := s.applyDirective(parent, d, &cursor); err != nil {
			var de *DirectiveError
			if !errors.As(err, &de) {
				match, _ := attrValue(d, "match")
				err = &DirectiveError{Directive: d.LocalName, Match: match, Err: err}
			}
			return fmt.Errorf("failed to apply directive %d (%s): %w", i, d.LocalName, err)
		}
	}
	return nil
}

func (s *session) applyDirective(parent, d *Node, cursor **Node) error {
	match, hasMatch := attrValue(d, "match")
	s.log.Debug("directive", zap.String("directive", d.LocalName), zap.String("match", match), zap.String("parent", parent.Name()))

	var matched []*Node
	if hasMatch {
		var err error
		if matched, err = Resolve(parent, match); err != nil {
			return err
		}
	}

	switch d.LocalName {
	case "node":
		if !hasMatch {
			return fmt.Errorf("%w: node without match", ErrInvalidDiffgram)
		}
		n, err := single(matched)
		if err != nil {
			return err
		}
		if err := s.descend(n, d); err != nil {
			return err
		}
		advance(parent, cursor, n)

	case "add":
		switch {
		case hasMatch:
			return s.addMoved(parent, d, matched, cursor)
		case hasAttr(d, "type"):
			return s.addNew(parent, d, cursor)
		default:
			return s.addFragment(parent, d, cursor)
		}

	case "remove":
		if !hasMatch {
			return fmt.Errorf("%w: remove without match", ErrInvalidDiffgram)
		}
		return s.remove(parent, d, matched, cursor)

	case "change":
		if !hasMatch {
			return fmt.Errorf("%w: change without match", ErrInvalidDiffgram)
		}
		n, err := single(matched)
		if err != nil {
			return err
		}
		if err := s.change(n, d); err != nil {
			return err
		}
		advance(parent, cursor, n)

	default:
		return fmt.Errorf("%w: unknown directive <%s>", ErrInvalidDiffgram, d.Name())
	}
	return nil
}

// descend applies the nested directives of d to the children of n.
func (s *session) descend(n, d *Node) error {
	if n.IsParent() {
		return s.apply(n, d, false)
	}
	for c := d.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == ElementNode {
			return fmt.Errorf("%w: nested directives below a %s node", ErrInvalidDiffgram, n.Type)
		}
	}
	return nil
}

// addMoved clones the matched nodes as the move-to half of a relocation.
func (s *session) addMoved(parent, d *Node, matched []*Node, cursor **Node) error {
	opid, err := s.opID(d)
	if err != nil {
		return err
	}
	subtree, err := subtreeFlag(d)
	if err != nil {
		return err
	}
	if subtree && hasElementChild(d) {
		return fmt.Errorf("%w: subtree add with nested directives", ErrInvalidDiffgram)
	}
	if !subtree && hasElementChild(d) && len(matched) != 1 {
		return fmt.Errorf("%w: shallow add with nested directives selects %d nodes", ErrWrongCardinality, len(matched))
	}
	for _, src := range matched {
		c := src.clone(subtree)
		if subtree {
			c.setSubtreeOperation(OpMoveTo, opid)
		} else {
			c.setOperation(OpMoveTo, opid)
		}
		if err := s.splice(parent, c, cursor); err != nil {
			return err
		}
		s.registry.add(opid, c)
		if !subtree {
			if err := s.descend(c, d); err != nil {
				return err
			}
		}
	}
	return nil
}

// addNew builds a node from the directive's type code and payload.
func (s *session) addNew(parent, d *Node, cursor **Node) error {
	opid, err := s.opID(d)
	if err != nil {
		return err
	}
	n, err := s.newNode(d)
	if err != nil {
		return err
	}
	n.setOperation(OpAdd, opid)
	if err := s.splice(parent, n, cursor); err != nil {
		return err
	}
	s.registry.add(opid, n)
	if n.Type == ElementNode {
		return s.apply(n, d, false)
	}
	return nil
}

// addFragment imports the literal content of the directive.
func (s *session) addFragment(parent, d *Node, cursor **Node) error {
	opid, err := s.opID(d)
	if err != nil {
		return err
	}
	added := 0
	for c := d.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == ElementNode && c.NamespaceURI == DiffgramNamespace {
			return fmt.Errorf("%w: diffgram element <%s> inside an added fragment", ErrInvalidDiffgram, c.Name())
		}
		n := s.importNode(c, inheritedSpace(d))
		if n == nil {
			continue
		}
		n.setSubtreeOperation(OpAdd, opid)
		if err := s.splice(parent, n, cursor); err != nil {
			return err
		}
		s.registry.add(opid, n)
		added++
	}
	if added == 0 {
		return fmt.Errorf("%w: add without match, type or content", ErrInvalidDiffgram)
	}
	return nil
}

func (s *session) remove(parent, d *Node, matched []*Node, cursor **Node) error {
	opid, err := s.opID(d)
	if err != nil {
		return err
	}
	subtree, err := subtreeFlag(d)
	if err != nil {
		return err
	}
	op := OpRemove
	if s.registry.Kind(opid) == DescriptorRelocation {
		op = OpMoveFrom
	}

	if !subtree {
		n, err := single(matched)
		if err != nil {
			return err
		}
		n.setOperation(op, opid)
		s.registry.add(opid, n)
		if err := s.descend(n, d); err != nil {
			return err
		}
		advance(parent, cursor, n)
		return nil
	}

	if hasElementChild(d) {
		return fmt.Errorf("%w: subtree remove with nested directives", ErrInvalidDiffgram)
	}
	for _, n := range matched {
		n.setSubtreeOperation(op, opid)
		s.registry.add(opid, n)
		advance(parent, cursor, n)
	}
	return nil
}

// change records the post-image of n. Attributes the directive omits keep
// the node's current value.
func (s *session) change(n, d *Node) error {
	var opid int
	if hasAttr(d, "opid") {
		var err error
		if opid, err = s.opID(d); err != nil {
			return err
		}
	}
	ci := &ChangeInfo{
		LocalName:    n.LocalName,
		Prefix:       n.Prefix,
		NamespaceURI: n.NamespaceURI,
		Value:        n.Value,
		PublicID:     n.PublicID,
		SystemID:     n.SystemID,
	}
	if v, ok := attrValue(d, "name"); ok {
		ci.LocalName = v
	}
	if v, ok := attrValue(d, "prefix"); ok {
		ci.Prefix = v
	}
	if v, ok := attrValue(d, "ns"); ok {
		ci.NamespaceURI = v
	}
	if n.Type == DocumentTypeNode {
		if v, ok := attrValue(d, "publicId"); ok {
			ci.PublicID = v
		}
		if v, ok := attrValue(d, "systemId"); ok {
			ci.SystemID = v
		}
	}
	if n.Type != ElementNode {
		if v, ok := inlineValue(d); ok {
			ci.Value = v
			if n.Type != CDATANode {
				ci.Value = s.text(v)
			}
		}
	}

	n.Op = OpChange
	n.OpID = opid
	n.Change = ci
	s.registry.add(opid, n)
	s.log.Debug("changed", zap.Stringer("type", n.Type), zap.String("name", n.Name()), zap.Int("opid", opid))

	if n.Type == ElementNode {
		return s.apply(n, d, false)
	}
	return s.descend(n, d)
}

// splice inserts n after the cursor, or appends it to the attribute list.
func (s *session) splice(parent, n *Node, cursor **Node) error {
	if n.Type == AttributeNode {
		if parent.Type != ElementNode {
			return fmt.Errorf("%w: attribute added to a %s node", ErrInvalidDiffgram, parent.Type)
		}
		parent.appendAttr(n)
		return nil
	}
	if !parent.IsParent() {
		return fmt.Errorf("%w: %s added below a %s node", ErrInvalidDiffgram, n.Type, parent.Type)
	}
	parent.insertAfter(*cursor, n)
	*cursor = n
	return nil
}

// advance moves the cursor to n when n is a child of parent.
func advance(parent *Node, cursor **Node, n *Node) {
	if n.Type != AttributeNode && n.Parent == parent {
		*cursor = n
	}
}

// newNode builds the node described by an add directive's type code.
func (s *session) newNode(d *Node) (*Node, error) {
	v, _ := attrValue(d, "type")
	code, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid node type %q", ErrInvalidDiffgram, v)
	}
	name, hasName := attrValue(d, "name")
	prefix, _ := attrValue(d, "prefix")
	ns, _ := attrValue(d, "ns")
	value, _ := inlineValue(d)

	n := &Node{indexed: true}
	switch code {
	case 1:
		n.Type = ElementNode
		n.LocalName, n.Prefix, n.NamespaceURI = name, prefix, ns
	case 2:
		n.Type = AttributeNode
		n.LocalName, n.Prefix, n.NamespaceURI, n.Value = name, prefix, ns, s.text(value)
	case 3:
		n.Type, n.Value = TextNode, s.text(value)
	case 4:
		n.Type, n.Value = CDATANode, value
	case 7:
		n.Type, n.LocalName, n.Value = ProcessingInstructionNode, name, value
	case 8:
		n.Type, n.Value = CommentNode, value
	case 10:
		n.Type, n.LocalName, n.Value = DocumentTypeNode, name, value
		n.PublicID, _ = attrValue(d, "publicId")
		n.SystemID, _ = attrValue(d, "systemId")
	case 13, 14:
		n.Type, n.Value = SignificantWhitespaceNode, value
	case 17:
		n.Type, n.Value = XMLDeclarationNode, value
	default:
		return nil, fmt.Errorf("%w: unsupported node type %d", ErrInvalidDiffgram, code)
	}
	switch n.Type {
	case ElementNode, AttributeNode, ProcessingInstructionNode, DocumentTypeNode:
		if !hasName || name == "" {
			return nil, fmt.Errorf("%w: %s added without a name", ErrInvalidDiffgram, n.Type)
		}
	}
	return n, nil
}

// importNode copies a literal diffgram node into the merge tree. It returns
// nil for layout whitespace.
func (s *session) importNode(src *Node, preserve bool) *Node {
	switch src.Type {
	case TextNode:
		if isSpace(src.Value) {
			if !preserve || s.opts.IgnoreWhitespace {
				return nil
			}
			return &Node{Type: SignificantWhitespaceNode, Value: src.Value, indexed: true}
		}
		return &Node{Type: TextNode, Value: s.text(src.Value), indexed: true}
	case ElementNode:
		n := &Node{
			Type:         ElementNode,
			LocalName:    src.LocalName,
			Prefix:       src.Prefix,
			NamespaceURI: src.NamespaceURI,
			indexed:      true,
		}
		for a := src.FirstAttr; a != nil; a = a.NextSibling {
			attr := a.clone(false)
			attr.Value = s.text(attr.Value)
			n.appendAttr(attr)
		}
		keep := preserveSpace(src, preserve)
		for c := src.FirstChild; c != nil; c = c.NextSibling {
			if imp := s.importNode(c, keep); imp != nil {
				n.appendChild(imp)
			}
		}
		return n
	default:
		return src.clone(true)
	}
}

// preserveSpace applies el's own xml:space attribute over the inherited
// setting.
func preserveSpace(el *Node, inherited bool) bool {
	if a := el.Attr("xml:space"); a != nil {
		return a.Value == "preserve"
	}
	return inherited
}

// inheritedSpace resolves xml:space for n from n and its ancestors.
func inheritedSpace(n *Node) bool {
	for p := n; p != nil; p = p.Parent {
		if a := p.Attr("xml:space"); a != nil {
			return a.Value == "preserve"
		}
	}
	return false
}

func single(matched []*Node) (*Node, error) {
	if len(matched) != 1 {
		return nil, fmt.Errorf("%w: want 1, got %d", ErrWrongCardinality, len(matched))
	}
	return matched[0], nil
}

func subtreeFlag(d *Node) (bool, error) {
	v, ok := attrValue(d, "subtree")
	if !ok {
		return true, nil
	}
	return yesNo("subtree", v)
}

func hasAttr(n *Node, name string) bool {
	_, ok := attrValue(n, name)
	return ok
}

func hasElementChild(n *Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == ElementNode {
			return true
		}
	}
	return false
}
