// Package render turns an annotated merge tree into text or two-pane HTML.
//
// The package only reads the public shape of the tree: node kind, operation,
// operation id, change info and the registry of the merge result.
package render

import (
	xdv "github.com/dannyswat/xmldiffview"
)

// Pane selects one side of a two-pane view.
type Pane int

const (
	// Baseline is the "before" side.
	Baseline Pane = iota
	// Changed is the "after" side.
	Changed
)

func (p Pane) String() string {
	if p == Baseline {
		return "baseline"
	}
	return "changed"
}

// Visible reports whether a node tagged op is shown in pane.
func Visible(op xdv.Operation, pane Pane) bool {
	switch op {
	case xdv.OpAdd, xdv.OpMoveTo:
		return pane == Changed
	case xdv.OpRemove, xdv.OpMoveFrom:
		return pane == Baseline
	default:
		return true
	}
}

// Image is a node's name and payload as displayed in one pane.
type Image struct {
	LocalName    string
	Prefix       string
	NamespaceURI string
	Value        string
	PublicID     string
	SystemID     string
}

// Name returns the qualified name of the image.
func (im Image) Name() string {
	if im.Prefix == "" {
		return im.LocalName
	}
	return im.Prefix + ":" + im.LocalName
}

// Side returns the image of n for pane. Changed nodes show their baseline
// values in the baseline pane and their change info in the changed pane.
func Side(n *xdv.Node, pane Pane) Image {
	if n.Op == xdv.OpChange && n.Change != nil && pane == Changed {
		c := n.Change
		return Image{
			LocalName:    c.LocalName,
			Prefix:       c.Prefix,
			NamespaceURI: c.NamespaceURI,
			Value:        c.Value,
			PublicID:     c.PublicID,
			SystemID:     c.SystemID,
		}
	}
	return Image{
		LocalName:    n.LocalName,
		Prefix:       n.Prefix,
		NamespaceURI: n.NamespaceURI,
		Value:        n.Value,
		PublicID:     n.PublicID,
		SystemID:     n.SystemID,
	}
}
