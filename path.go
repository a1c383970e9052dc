package xmldiffview

import (
	"fmt"
	"strings"
)

// Resolve evaluates a diffgram match expression. Relative forms operate on
// context; absolute forms ("/2/1") start at the root of context's tree.
//
//	/k1/k2/...   absolute descent through baseline positions
//	/k1/a-b|c    absolute descent ending in a range or union
//	@*           all attributes of context
//	@a|b         the named attributes of context, in expression order
//	*            all baseline children of context
//	a-b|c        a range or union of baseline children of context
//
// Failures are reported as a *PathError wrapping ErrInvalidExpression,
// ErrNoMatchingNode or ErrIndexNotBuilt.
func Resolve(context *Node, expr string) ([]*Node, error) {
	nodes, err := resolve(context, expr)
	if err != nil {
		return nil, &PathError{Expr: expr, Err: err}
	}
	return nodes, nil
}

func resolve(context *Node, expr string) ([]*Node, error) {
	switch {
	case expr == "":
		return nil, fmt.Errorf("empty: %w", ErrInvalidExpression)
	case expr[0] == '/':
		return resolveAbsolute(root(context), expr[1:])
	case expr[0] == '@':
		return resolveAttributes(context, expr[1:])
	case expr == "*":
		return allSourceChildren(context)
	default:
		return resolveOrdinals(context, expr)
	}
}

func root(n *Node) *Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

func resolveAbsolute(node *Node, expr string) ([]*Node, error) {
	if expr == "" {
		return nil, fmt.Errorf("missing position: %w", ErrInvalidExpression)
	}
	for {
		pos, rest, err := readOrdinal(expr)
		if err != nil {
			return nil, err
		}
		if rest != "" && (rest[0] == '-' || rest[0] == '|') {
			return resolveOrdinals(node, expr)
		}
		child, err := node.sourceChild(pos)
		if err != nil {
			return nil, err
		}
		switch {
		case rest == "":
			return []*Node{child}, nil
		case rest[0] == '/' && len(rest) > 1:
			node, expr = child, rest[1:]
		default:
			return nil, fmt.Errorf("unexpected %q: %w", rest, ErrInvalidExpression)
		}
	}
}

// resolveOrdinals evaluates "a", "a-b" and their '|' unions over the baseline
// children of parent.
func resolveOrdinals(parent *Node, expr string) ([]*Node, error) {
	var nodes []*Node
	for _, term := range strings.Split(expr, "|") {
		first, rest, err := readOrdinal(term)
		if err != nil {
			return nil, err
		}
		last := first
		if rest != "" {
			if rest[0] != '-' {
				return nil, fmt.Errorf("unexpected %q: %w", rest, ErrInvalidExpression)
			}
			if last, rest, err = readOrdinal(rest[1:]); err != nil {
				return nil, err
			}
			if rest != "" {
				return nil, fmt.Errorf("unexpected %q: %w", rest, ErrInvalidExpression)
			}
			if last < first {
				return nil, fmt.Errorf("descending range %d-%d: %w", first, last, ErrInvalidExpression)
			}
		}
		for pos := first; pos <= last; pos++ {
			child, err := parent.sourceChild(pos)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, child)
		}
	}
	return nodes, nil
}

func allSourceChildren(parent *Node) ([]*Node, error) {
	if !parent.IsParent() {
		return nil, fmt.Errorf("%s node has no children: %w", parent.Type, ErrNoMatchingNode)
	}
	if !parent.indexed {
		return nil, ErrIndexNotBuilt
	}
	return append([]*Node(nil), parent.sourceIndex...), nil
}

func resolveAttributes(el *Node, expr string) ([]*Node, error) {
	if el.Type != ElementNode {
		return nil, fmt.Errorf("%s node has no attributes: %w", el.Type, ErrNoMatchingNode)
	}
	if expr == "*" {
		return el.Attributes(), nil
	}
	var nodes []*Node
	for _, name := range strings.Split(expr, "|") {
		if !validName(name) {
			return nil, fmt.Errorf("attribute name %q: %w", name, ErrInvalidExpression)
		}
		a := el.Attr(name)
		if a == nil {
			return nil, fmt.Errorf("attribute %q on <%s>: %w", name, el.Name(), ErrNoMatchingNode)
		}
		nodes = append(nodes, a)
	}
	return nodes, nil
}

// readOrdinal reads a decimal at the start of s. Range checks are left to
// sourceChild so that 0 reports ErrNoMatchingNode like any other bad position.
func readOrdinal(s string) (int, string, error) {
	i, pos := 0, 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		pos = pos*10 + int(s[i]-'0')
		if pos > 1<<30 {
			return 0, "", fmt.Errorf("position too large: %w", ErrInvalidExpression)
		}
		i++
	}
	if i == 0 {
		return 0, "", fmt.Errorf("expected position at %q: %w", s, ErrInvalidExpression)
	}
	return pos, s[i:], nil
}

func validName(s string) bool {
	if s == "" || s[0] == ':' || s[len(s)-1] == ':' || strings.IndexByte("-.0123456789", s[0]) >= 0 {
		return false
	}
	if strings.ContainsAny(s, "/@*| \t\r\n") {
		return false
	}
	return strings.Count(s, ":") <= 1
}
