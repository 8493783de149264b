// Package domain – Item
//
// Item is the tagged union over the two matchable aggregates (Part and
// PartRequest). The matching engine branches on the item kind in exactly
// two places: when selecting the opposing candidate collection and when
// mapping fields into the ranking prompt. Keeping the kind explicit here
// avoids ad hoc string comparisons spreading through the codebase.
package domain

import (
	"fmt"
	"strings"
)

// ItemKind discriminates the two sides of the marketplace.
type ItemKind string

const (
	// ItemKindPart is a supplier-owned listing.
	ItemKindPart ItemKind = "part"
	// ItemKindRequest is a requester-owned part request.
	ItemKindRequest ItemKind = "request"
)

// ParseItemKind validates and normalizes a wire-level item type.
func ParseItemKind(s string) (ItemKind, error) {
	switch ItemKind(strings.ToLower(strings.TrimSpace(s))) {
	case ItemKindPart:
		return ItemKindPart, nil
	case ItemKindRequest:
		return ItemKindRequest, nil
	default:
		return "", fmt.Errorf("unknown item kind %q", s)
	}
}

// Opposite returns the kind of the opposing candidate collection.
func (k ItemKind) Opposite() ItemKind {
	if k == ItemKindPart {
		return ItemKindRequest
	}
	return ItemKindPart
}

// Item is a view over either a Part or a PartRequest. Exactly one of the
// two pointers is set, matching Kind.
type Item struct {
	Kind    ItemKind
	Part    *Part
	Request *PartRequest
}

// PartItem wraps a listing as an Item.
func PartItem(p *Part) Item { return Item{Kind: ItemKindPart, Part: p} }

// RequestItem wraps a part request as an Item.
func RequestItem(r *PartRequest) Item { return Item{Kind: ItemKindRequest, Request: r} }

// ID returns the underlying aggregate's primary key.
func (it Item) ID() string {
	switch it.Kind {
	case ItemKindPart:
		return it.Part.ID
	case ItemKindRequest:
		return it.Request.ID
	}
	return ""
}

// OwnerID returns the identity of the item owner: the supplier for a part,
// the requester for a request. Candidate sets must never contain items with
// the same owner as the source item.
func (it Item) OwnerID() string {
	switch it.Kind {
	case ItemKindPart:
		return it.Part.SupplierID
	case ItemKindRequest:
		return it.Request.RequesterID
	}
	return ""
}

// Name returns the part name of the underlying aggregate.
func (it Item) Name() string {
	switch it.Kind {
	case ItemKindPart:
		return it.Part.PartName
	case ItemKindRequest:
		return it.Request.PartName
	}
	return ""
}
