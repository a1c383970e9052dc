package xmldiffview

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

const (
	xmlNamespace   = "http://www.w3.org/XML/1998/namespace"
	xmlnsNamespace = "http://www.w3.org/2000/xmlns/"
)

// loader reads an XML token stream into a Node tree by recursive descent.
type loader struct {
	dec  *xml.Decoder
	opts Options

	// raw keeps whitespace-only text and ignores Options. The diffgram is
	// read this way so that inline payloads arrive untouched.
	raw bool

	// src mirrors the undecoded input so CDATA sections can be told apart
	// from plain text. It is unusable once a charset conversion kicked in.
	src       *bytes.Buffer
	converted bool

	scopes []map[string]string
}

func newLoader(r io.Reader, opts Options, raw bool) *loader {
	l := &loader{opts: opts, raw: raw, src: new(bytes.Buffer)}
	l.dec = xml.NewDecoder(io.TeeReader(r, l.src))
	l.dec.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		l.converted = true
		return charset.NewReaderLabel(label, input)
	}
	return l
}

// LoadBaseline reads a baseline document into an unannotated tree, applying
// the ignore flags in opts. With fragments set the input may hold any number
// of top-level nodes.
func LoadBaseline(r io.Reader, opts Options, fragments bool) (*Node, error) {
	doc, err := newLoader(r, opts, false).load()
	if err != nil {
		return nil, err
	}
	if !fragments {
		if err := checkSingleRoot(doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// parseTree reads the diffgram into a tree without any normalisation.
func parseTree(r io.Reader) (*Node, error) {
	doc, err := newLoader(r, Options{}, true).load()
	if err != nil {
		return nil, err
	}
	if err := checkSingleRoot(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func checkSingleRoot(doc *Node) error {
	roots := 0
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case ElementNode:
			roots++
		case TextNode, CDATANode:
			if !isSpace(c.Value) {
				return fmt.Errorf("%w: text outside the document element", ErrMalformedXML)
			}
		}
	}
	if roots != 1 {
		return fmt.Errorf("%w: document has %d root elements", ErrMalformedXML, roots)
	}
	return nil
}

func (l *loader) load() (*Node, error) {
	doc := &Node{Type: DocumentNode}
	if err := l.readChildren(doc, false); err != nil {
		return nil, err
	}
	return doc, nil
}

func (l *loader) readChildren(parent *Node, preserve bool) error {
	for {
		start := l.dec.InputOffset()
		tok, err := l.dec.RawToken()
		if err == io.EOF {
			if parent.Type != DocumentNode {
				return fmt.Errorf("%w: unexpected end of input inside <%s>", ErrMalformedXML, parent.Name())
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedXML, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el, keep, err := l.element(t, preserve)
			if err != nil {
				return err
			}
			parent.appendSourceChild(el)
			if err := l.readChildren(el, keep); err != nil {
				return err
			}
			l.scopes = l.scopes[:len(l.scopes)-1]

		case xml.EndElement:
			if parent.Type != ElementNode || t.Name.Space != parent.Prefix || t.Name.Local != parent.LocalName {
				return fmt.Errorf("%w: unexpected end element </%s>", ErrMalformedXML, qualified(t.Name))
			}
			return nil

		case xml.CharData:
			l.charData(parent, string(t), preserve, l.isCDATA(start))

		case xml.Comment:
			n := &Node{Type: CommentNode, Value: string(t)}
			if l.opts.IgnoreComments {
				n.Op = OpIgnore
			}
			parent.appendSourceChild(n)

		case xml.ProcInst:
			var n *Node
			if t.Target == "xml" {
				n = &Node{Type: XMLDeclarationNode, Value: strings.TrimSpace(string(t.Inst))}
				if l.opts.IgnoreXMLDecl {
					n.Op = OpIgnore
				}
			} else {
				n = &Node{Type: ProcessingInstructionNode, LocalName: t.Target, Value: strings.TrimSpace(string(t.Inst))}
				if l.opts.IgnorePI {
					n.Op = OpIgnore
				}
			}
			parent.appendSourceChild(n)

		case xml.Directive:
			n, err := parseDoctype(string(t))
			if err != nil {
				return err
			}
			if parent.Type != DocumentNode {
				return fmt.Errorf("%w: document type declaration inside an element", ErrMalformedXML)
			}
			if l.opts.IgnoreDTD {
				n.Op = OpIgnore
			}
			parent.appendSourceChild(n)
		}
	}
}

// element builds an element with its attributes and pushes its namespace
// scope. It reports whether xml:space="preserve" is in effect for children.
func (l *loader) element(t xml.StartElement, preserve bool) (*Node, bool, error) {
	scope := make(map[string]string)
	for _, a := range t.Attr {
		switch {
		case a.Name.Space == "xmlns":
			scope[a.Name.Local] = a.Value
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			scope[""] = a.Value
		}
	}
	l.scopes = append(l.scopes, scope)

	el := &Node{Type: ElementNode, Prefix: t.Name.Space, LocalName: t.Name.Local}
	uri, ok := l.lookup(el.Prefix)
	if !ok {
		return nil, false, fmt.Errorf("%w: unbound prefix %q on <%s>", ErrMalformedXML, el.Prefix, el.Name())
	}
	el.NamespaceURI = uri

	for _, a := range t.Attr {
		attr := &Node{Type: AttributeNode, Prefix: a.Name.Space, LocalName: a.Name.Local, Value: a.Value}
		switch {
		case attr.Prefix == "xmlns" || (attr.Prefix == "" && attr.LocalName == "xmlns"):
			attr.NamespaceURI = xmlnsNamespace
			if !l.raw && (l.opts.IgnoreNamespaces || (l.opts.IgnorePrefixes && attr.Prefix == "xmlns")) {
				attr.Op = OpIgnore
			}
		case attr.Prefix == "":
		default:
			uri, ok := l.lookup(attr.Prefix)
			if !ok {
				return nil, false, fmt.Errorf("%w: unbound prefix %q on attribute %s", ErrMalformedXML, attr.Prefix, attr.Name())
			}
			attr.NamespaceURI = uri
		}
		if attr.Prefix == "xml" && attr.LocalName == "space" {
			preserve = attr.Value == "preserve"
		}
		if !l.raw && l.opts.IgnoreWhitespace {
			attr.Value = normalizeSpace(attr.Value)
		}
		el.appendAttr(attr)
	}
	return el, preserve, nil
}

func (l *loader) lookup(prefix string) (string, bool) {
	switch prefix {
	case "xml":
		return xmlNamespace, true
	case "xmlns":
		return xmlnsNamespace, true
	}
	for i := len(l.scopes) - 1; i >= 0; i-- {
		if uri, ok := l.scopes[i][prefix]; ok {
			return uri, true
		}
	}
	return "", prefix == ""
}

func (l *loader) charData(parent *Node, s string, preserve, cdata bool) {
	if cdata {
		parent.appendSourceChild(&Node{Type: CDATANode, Value: s})
		return
	}
	if l.raw {
		parent.appendSourceChild(&Node{Type: TextNode, Value: s})
		return
	}
	if isSpace(s) {
		if preserve && !l.opts.IgnoreWhitespace {
			parent.appendSourceChild(&Node{Type: SignificantWhitespaceNode, Value: s})
		}
		return
	}
	if l.opts.IgnoreWhitespace {
		s = normalizeSpace(s)
	}
	parent.appendSourceChild(&Node{Type: TextNode, Value: s})
}

func (l *loader) isCDATA(start int64) bool {
	if l.converted {
		return false
	}
	b := l.src.Bytes()
	if start < 0 || start >= int64(len(b)) {
		return false
	}
	return bytes.HasPrefix(b[start:], []byte("<![CDATA["))
}

// parseDoctype reads the body of a <!DOCTYPE ...> directive.
func parseDoctype(s string) (*Node, error) {
	rest, ok := strings.CutPrefix(s, "DOCTYPE")
	if !ok {
		return nil, fmt.Errorf("%w: unsupported directive <!%s>", ErrMalformedXML, firstWord(s))
	}
	n := &Node{Type: DocumentTypeNode}
	rest = strings.TrimLeft(rest, " \t\r\n")
	n.LocalName, rest = splitWord(rest)
	if n.LocalName == "" {
		return nil, fmt.Errorf("%w: document type without a name", ErrMalformedXML)
	}

	var err error
	kw, after := splitWord(rest)
	switch kw {
	case "PUBLIC":
		if n.PublicID, after, err = quoted(after); err != nil {
			return nil, err
		}
		if n.SystemID, after, err = quoted(after); err != nil {
			return nil, err
		}
		rest = after
	case "SYSTEM":
		if n.SystemID, after, err = quoted(after); err != nil {
			return nil, err
		}
		rest = after
	}

	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, "[") {
		end := strings.LastIndexByte(rest, ']')
		if end < 0 {
			return nil, fmt.Errorf("%w: unterminated internal subset", ErrMalformedXML)
		}
		n.Value = rest[1:end]
	} else if rest != "" {
		return nil, fmt.Errorf("%w: unexpected %q in document type", ErrMalformedXML, rest)
	}
	return n, nil
}

func splitWord(s string) (string, string) {
	s = strings.TrimLeft(s, " \t\r\n")
	i := strings.IndexAny(s, " \t\r\n[")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

func firstWord(s string) string {
	w, _ := splitWord(s)
	return w
}

func quoted(s string) (string, string, error) {
	s = strings.TrimLeft(s, " \t\r\n")
	if s == "" || (s[0] != '"' && s[0] != '\'') {
		return "", "", fmt.Errorf("%w: expected quoted literal in document type", ErrMalformedXML)
	}
	end := strings.IndexByte(s[1:], s[0])
	if end < 0 {
		return "", "", fmt.Errorf("%w: unterminated literal in document type", ErrMalformedXML)
	}
	return s[1 : end+1], s[end+2:], nil
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func isSpace(s string) bool {
	return strings.TrimLeft(s, " \t\r\n") == ""
}

// normalizeSpace trims s and collapses each whitespace run to one space.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
