// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides read-only accessors over parts and
// part requests: point reads by id and the filtered candidate reads used
// by the matching engine.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When an item is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated. Callers must surface these rather
//     than fabricate an empty candidate set.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/LewisZett/tech-part-finder/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// GetPart fetches a part by id, or ErrNotFound if missing.
func GetPart(ctx context.Context, db *gorm.DB, id string) (*domain.Part, error) {
	var p domain.Part
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPartRequest fetches a part request by id, or ErrNotFound if missing.
func GetPartRequest(ctx context.Context, db *gorm.DB, id string) (*domain.PartRequest, error) {
	var r domain.PartRequest
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// GetItem fetches either a part or a request, depending on kind, wrapped as
// a domain.Item. This is the single dispatch point between the two aggregate
// reads.
func GetItem(ctx context.Context, db *gorm.DB, kind domain.ItemKind, id string) (domain.Item, error) {
	switch kind {
	case domain.ItemKindPart:
		p, err := GetPart(ctx, db, id)
		if err != nil {
			return domain.Item{}, err
		}
		return domain.PartItem(p), nil
	case domain.ItemKindRequest:
		r, err := GetPartRequest(ctx, db, id)
		if err != nil {
			return domain.Item{}, err
		}
		return domain.RequestItem(r), nil
	}
	return domain.Item{}, ErrNotFound
}

// ListAvailableParts returns every part in "available" status, excluding
// those owned by excludeOwner. Pass an empty excludeOwner to skip the
// owner filter. Ordering is by creation time so candidate enumeration is
// stable across calls with unchanged data.
func ListAvailableParts(ctx context.Context, db *gorm.DB, excludeOwner string) ([]domain.Part, error) {
	q := db.WithContext(ctx).
		Where("status = ?", domain.PartStatusAvailable).
		Order("created_at asc")
	if excludeOwner != "" {
		q = q.Where("supplier_id <> ?", excludeOwner)
	}
	var out []domain.Part
	err := q.Find(&out).Error
	return out, err
}

// ListActiveRequests returns every part request in "active" status,
// excluding those owned by excludeOwner. Ordering is by creation time.
func ListActiveRequests(ctx context.Context, db *gorm.DB, excludeOwner string) ([]domain.PartRequest, error) {
	q := db.WithContext(ctx).
		Where("status = ?", domain.RequestStatusActive).
		Order("created_at asc")
	if excludeOwner != "" {
		q = q.Where("requester_id <> ?", excludeOwner)
	}
	var out []domain.PartRequest
	err := q.Find(&out).Error
	return out, err
}

// ListOpenCandidates returns the opposing open collection for a source item
// as a slice of domain.Item: available parts for a request, active requests
// for a part. Items owned by the source item's owner are excluded so that
// self-matching is impossible.
func ListOpenCandidates(ctx context.Context, db *gorm.DB, source domain.Item) ([]domain.Item, error) {
	switch source.Kind {
	case domain.ItemKindRequest:
		parts, err := ListAvailableParts(ctx, db, source.OwnerID())
		if err != nil {
			return nil, err
		}
		out := make([]domain.Item, 0, len(parts))
		for i := range parts {
			out = append(out, domain.PartItem(&parts[i]))
		}
		return out, nil
	case domain.ItemKindPart:
		reqs, err := ListActiveRequests(ctx, db, source.OwnerID())
		if err != nil {
			return nil, err
		}
		out := make([]domain.Item, 0, len(reqs))
		for i := range reqs {
			out = append(out, domain.RequestItem(&reqs[i]))
		}
		return out, nil
	}
	return nil, ErrNotFound
}

// GetProfiles returns the profiles for the given user ids, keyed by id.
// Missing profiles are simply absent from the map; the ranking prompt
// treats them as "Unknown".
func GetProfiles(ctx context.Context, db *gorm.DB, ids []string) (map[string]domain.Profile, error) {
	out := make(map[string]domain.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.Profile
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}
