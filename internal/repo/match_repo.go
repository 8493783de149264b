// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the match ledger: existing-match
// lookups for dedup, match inserts, agreement updates, and paginated
// listings for a user.
//
// Error semantics follow the package convention: ErrNotFound for missing
// rows, ErrDuplicateMatch when an insert collides with the unique
// (request_id, part_id, supplier_id) index, raw gorm errors otherwise.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/LewisZett/tech-part-finder/internal/domain"
)

// ErrDuplicateMatch indicates that a match already exists for the
// (request_id, part_id, supplier_id) triple.
var ErrDuplicateMatch = errors.New("match already exists")

// MatchKey is the dedup key for a match: the unordered identity of the
// proposed pairing under a given request.
type MatchKey struct {
	PartID     string
	SupplierID string
}

// ExistingMatchKeys returns the set of (part, supplier) pairs already
// matched for the given request. The sweep consults this before creating
// new matches.
func ExistingMatchKeys(ctx context.Context, db *gorm.DB, requestID string) (map[MatchKey]struct{}, error) {
	var rows []domain.Match
	err := db.WithContext(ctx).
		Select("part_id", "supplier_id").
		Where("request_id = ?", requestID).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[MatchKey]struct{}, len(rows))
	for _, m := range rows {
		out[MatchKey{PartID: m.PartID, SupplierID: m.SupplierID}] = struct{}{}
	}
	return out, nil
}

// CreateMatch inserts a new pending match. The unique index on the
// (request_id, part_id, supplier_id) triple is the last line of defense
// against duplicates; a collision is reported as ErrDuplicateMatch so the
// sweep can treat it as an already-done case rather than a failure.
func CreateMatch(ctx context.Context, db *gorm.DB, m *domain.Match) (*domain.Match, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = domain.MatchStatusPending
	}
	m.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") {
			return nil, ErrDuplicateMatch
		}
		return nil, err
	}
	return m, nil
}

// GetMatch fetches a match by id, or ErrNotFound.
func GetMatch(ctx context.Context, db *gorm.DB, id string) (*domain.Match, error) {
	var m domain.Match
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// SetAgreement records one party's agreement on a match. The flag update is
// idempotent and the status is recomputed from both flags in the same
// statement set, so a second call by the same party changes nothing and a
// both_agreed match can never regress to pending.
func SetAgreement(ctx context.Context, db *gorm.DB, id string, asSupplier bool) (*domain.Match, error) {
	var out *domain.Match
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m domain.Match
		if err := tx.Where("id = ?", id).First(&m).Error; err != nil {
			return err
		}
		if asSupplier {
			m.SupplierAgreed = true
		} else {
			m.RequesterAgreed = true
		}
		if m.SupplierAgreed && m.RequesterAgreed {
			m.Status = domain.MatchStatusBothAgreed
		}
		if err := tx.Model(&domain.Match{}).Where("id = ?", id).Updates(map[string]any{
			"supplier_agreed":  m.SupplierAgreed,
			"requester_agreed": m.RequesterAgreed,
			"status":           m.Status,
		}).Error; err != nil {
			return err
		}
		out = &m
		return nil
	})
	return out, err
}

// CountMatchesForUser returns the number of matches where the user is
// either party.
func CountMatchesForUser(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Match{}).
		Where("supplier_id = ? OR requester_id = ?", userID, userID).
		Count(&total).Error
	return total, err
}

// ListMatchesForUserPage returns a page of matches where the user is either
// party, most recent first. Use CountMatchesForUser for pagination metadata.
func ListMatchesForUserPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Match, error) {
	var out []domain.Match
	err := db.WithContext(ctx).
		Where("supplier_id = ? OR requester_id = ?", userID, userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
