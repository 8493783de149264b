// Package services – MatchService
//
// This file implements the interactive matching path: given a part or a
// request, assemble the opposing candidate set, build the ranking prompt,
// invoke the ranker, and return the validated top suggestions. It also owns
// the match agreement flow and the per-user match listing.
//
// RankingFailed is deliberately non-fatal here: suggestions are an
// enhancement, and callers receive an empty list instead of an error.
//
// Observability: public methods are OpenTelemetry-instrumented; spans
// include item/user identifiers.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rs/zerolog/log"

	"github.com/LewisZett/tech-part-finder/internal/domain"
	"github.com/LewisZett/tech-part-finder/internal/matching"
	"github.com/LewisZett/tech-part-finder/internal/repo"
)

// Ranker is the contract the external reasoning model is consumed through.
// Implementations must return at most topN entries whose ids are members of
// the request's candidate enumeration and whose scores lie in [0,100];
// anything else is a bug in the implementation, not something callers
// re-validate.
type Ranker interface {
	Rank(ctx context.Context, req matching.RankingRequest, topN int) ([]matching.CandidateScore, error)
}

// MatchService coordinates interactive match suggestions and agreements.
type MatchService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Ranker invokes the external reasoning model.
	Ranker Ranker

	// TopN caps interactive suggestion lists. Zero means the default of 5.
	TopN int
}

// NewMatchService constructs a MatchService with the default suggestion cap.
func NewMatchService(db *gorm.DB, ranker Ranker) *MatchService {
	return &MatchService{DB: db, Ranker: ranker, TopN: 5}
}

func (s *MatchService) topN() int {
	if s.TopN > 0 {
		return s.TopN
	}
	return 5
}

// FindMatches returns ranked suggestions for the given item. The item must
// exist and be owned by userID. A ranking failure degrades to an empty
// list; storage failures and missing items propagate as hard errors.
func (s *MatchService) FindMatches(ctx context.Context, userID, itemID string, kind domain.ItemKind) ([]matching.CandidateScore, error) {
	tr := otel.Tracer("services/MatchService")
	ctx, span := tr.Start(ctx, "FindMatches",
		trace.WithAttributes(
			attribute.String("item.id", itemID),
			attribute.String("item.kind", string(kind)),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	source, err := repo.GetItem(ctx, s.DB, kind, itemID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	if source.OwnerID() != userID {
		return nil, ErrItemNotFound
	}

	candidates, err := repo.ListOpenCandidates(ctx, s.DB, source)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []matching.CandidateScore{}, nil
	}

	profiles, err := s.candidateProfiles(ctx, candidates)
	if err != nil {
		return nil, err
	}

	req := matching.BuildRankingRequest(source, candidates, profiles, s.topN())

	if s.Ranker == nil {
		rankingCalls.WithLabelValues("interactive", "failed").Inc()
		log.Warn().Str("item_id", itemID).Msg("no ranking backend configured, returning no suggestions")
		return []matching.CandidateScore{}, nil
	}

	scores, err := s.Ranker.Rank(ctx, req, s.topN())
	if err != nil {
		rankingCalls.WithLabelValues("interactive", "failed").Inc()
		log.Warn().Err(err).
			Str("item_id", itemID).
			Str("item_kind", string(kind)).
			Msg("interactive ranking failed, returning no suggestions")
		return []matching.CandidateScore{}, nil
	}
	rankingCalls.WithLabelValues("interactive", "ok").Inc()

	return scores, nil
}

// Agree records userID's agreement on a match. The call is idempotent per
// party; the status flips to both_agreed only when both parties have agreed
// and never regresses.
func (s *MatchService) Agree(ctx context.Context, userID, matchID string) (*domain.Match, error) {
	tr := otel.Tracer("services/MatchService")
	ctx, span := tr.Start(ctx, "Agree",
		trace.WithAttributes(
			attribute.String("match.id", matchID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	m, err := repo.GetMatch(ctx, s.DB, matchID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	var asSupplier bool
	switch userID {
	case m.SupplierID:
		asSupplier = true
	case m.RequesterID:
		asSupplier = false
	default:
		return nil, ErrNotParticipant
	}

	return repo.SetAgreement(ctx, s.DB, matchID, asSupplier)
}

// ListForUser returns a page of matches where userID is either party,
// most recent first, plus the total count.
func (s *MatchService) ListForUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Match, int64, error) {
	tr := otel.Tracer("services/MatchService")
	ctx, span := tr.Start(ctx, "ListForUser",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountMatchesForUser(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Match{}, 0, nil
	}

	items, err := repo.ListMatchesForUserPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// candidateProfiles loads the reputation profiles for the owners of every
// candidate item.
func (s *MatchService) candidateProfiles(ctx context.Context, candidates []domain.Item) (map[string]domain.Profile, error) {
	seen := make(map[string]struct{}, len(candidates))
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		owner := c.OwnerID()
		if _, ok := seen[owner]; ok {
			continue
		}
		seen[owner] = struct{}{}
		ids = append(ids, owner)
	}
	return repo.GetProfiles(ctx, s.DB, ids)
}
