// Package services – SweepService
//
// This file implements the automatic cross-matching sweep: a batch run over
// all active part requests that materializes high-confidence matches
// against available parts. Policies, in order of application:
//
//   - a sliding-window rate limit per invoking actor, denied runs being
//     audited as security events;
//   - per-request failure isolation (one bad candidate set never aborts
//     the batch);
//   - dedup against the match ledger on the (request, part, supplier)
//     triple;
//   - a score threshold (sweep matches are unsolicited, so only
//     high-confidence pairs are created);
//   - a global cap on matches per run to bound cost and notification
//     volume.
//
// Matches already created before a later failure stay committed; the only
// duplication protection is the dedup check, not transactional rollback.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rs/zerolog/log"

	"github.com/LewisZett/tech-part-finder/internal/domain"
	"github.com/LewisZett/tech-part-finder/internal/matching"
	"github.com/LewisZett/tech-part-finder/internal/notify"
	"github.com/LewisZett/tech-part-finder/internal/repo"
)

// sweepFunction is the operation name rate-limit windows and audit events
// are keyed on.
const sweepFunction = "auto-match-sweep"

// Notifier is the asynchronous notification hand-off consumed by the
// sweep. Enqueue must never block.
type Notifier interface {
	Enqueue(n notify.MatchNotification)
}

// SweepConfig carries the sweep's policy constants.
type SweepConfig struct {
	// RateLimitCap is the maximum number of sweep runs per actor per window.
	RateLimitCap int
	// RateLimitWindow is the sliding window length.
	RateLimitWindow time.Duration
	// ScoreThreshold is the minimum score (0-100 scale) for a candidate to
	// be materialized as a match.
	ScoreThreshold float64
	// PerRequestTopN caps ranked candidates considered per request.
	PerRequestTopN int
	// MaxMatchesPerRun is the hard ceiling on matches created in one run.
	MaxMatchesPerRun int
}

// DefaultSweepConfig returns the production policy constants.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		RateLimitCap:     5,
		RateLimitWindow:  time.Hour,
		ScoreThreshold:   70,
		PerRequestTopN:   3,
		MaxMatchesPerRun: 20,
	}
}

// SweepSummary is the terminal state of a sweep run.
type SweepSummary struct {
	MatchesCreated    int `json:"matches_created"`
	RequestsProcessed int `json:"requests_processed"`
	RequestsFailed    int `json:"requests_failed"`
}

// SweepService runs the automatic cross-matching batch.
type SweepService struct {
	DB       *gorm.DB
	Ranker   Ranker
	Notifier Notifier
	Config   SweepConfig
}

// NewSweepService constructs a SweepService with the given collaborators.
func NewSweepService(db *gorm.DB, ranker Ranker, notifier Notifier, cfg SweepConfig) *SweepService {
	if cfg.RateLimitCap <= 0 {
		cfg = DefaultSweepConfig()
	}
	return &SweepService{DB: db, Ranker: ranker, Notifier: notifier, Config: cfg}
}

// Run executes one sweep on behalf of actorID. The rate-limit check happens
// before any request is processed; a denial aborts the whole run with a
// *RateLimitError and leaves an audit event behind. Per-request failures
// are logged and skipped.
func (s *SweepService) Run(ctx context.Context, actorID string) (SweepSummary, error) {
	tr := otel.Tracer("services/SweepService")
	ctx, span := tr.Start(ctx, "Run",
		trace.WithAttributes(attribute.String("actor.id", actorID)),
	)
	defer span.End()

	start := time.Now()
	var summary SweepSummary

	if actorID == "" {
		return summary, ErrUnauthorized
	}
	if s.Ranker == nil {
		// No request could possibly succeed without a ranker; fail the run
		// up front instead of looping over guaranteed failures.
		return summary, ErrRankingFailed
	}

	dec, err := repo.CheckRateLimit(ctx, s.DB, actorID, sweepFunction, s.Config.RateLimitWindow, s.Config.RateLimitCap, time.Now().UTC())
	if err != nil {
		return summary, err
	}
	if !dec.Allowed {
		sweepDenials.Inc()
		log.Warn().
			Str("actor_id", actorID).
			Int("calls", dec.CallCount).
			Dur("retry_after", dec.RetryAfter).
			Msg("sweep denied by rate limit")
		if aerr := repo.RecordSecurityEvent(ctx, s.DB, actorID, "rate_limit_exceeded", "medium", map[string]any{
			"function":               sweepFunction,
			"attempts":               dec.CallCount,
			"max_allowed":            s.Config.RateLimitCap,
			"time_remaining_minutes": int(dec.RetryAfter.Minutes()),
		}); aerr != nil {
			log.Error().Err(aerr).Msg("failed to record rate limit audit event")
		}
		return summary, &RateLimitError{RetryAfter: dec.RetryAfter, Calls: dec.CallCount, Limit: s.Config.RateLimitCap}
	}

	requests, err := repo.ListActiveRequests(ctx, s.DB, "")
	if err != nil {
		return summary, err
	}
	log.Info().
		Str("actor_id", actorID).
		Int("active_requests", len(requests)).
		Msg("starting auto-match sweep")

	for i := range requests {
		if summary.MatchesCreated >= s.Config.MaxMatchesPerRun {
			log.Info().
				Int("max_matches", s.Config.MaxMatchesPerRun).
				Msg("sweep reached global match cap, stopping")
			break
		}
		req := &requests[i]
		created, err := s.processRequest(ctx, req, s.Config.MaxMatchesPerRun-summary.MatchesCreated)
		if err != nil {
			// Isolation: log with the offending request id and continue.
			summary.RequestsFailed++
			log.Error().Err(err).
				Str("request_id", req.ID).
				Str("part_name", req.PartName).
				Msg("sweep failed for request, continuing")
			continue
		}
		summary.RequestsProcessed++
		summary.MatchesCreated += created
	}

	sweepDuration.Observe(time.Since(start).Seconds())
	log.Info().
		Int("matches_created", summary.MatchesCreated).
		Int("requests_processed", summary.RequestsProcessed).
		Int("requests_failed", summary.RequestsFailed).
		Msg("auto-match sweep completed")

	return summary, nil
}

// processRequest ranks one request's candidates and creates up to remaining
// matches above the score threshold, skipping pairs already in the ledger.
func (s *SweepService) processRequest(ctx context.Context, req *domain.PartRequest, remaining int) (int, error) {
	source := domain.RequestItem(req)

	candidates, err := repo.ListOpenCandidates(ctx, s.DB, source)
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	existing, err := repo.ExistingMatchKeys(ctx, s.DB, req.ID)
	if err != nil {
		return 0, err
	}

	profiles, err := repo.GetProfiles(ctx, s.DB, ownerIDs(candidates))
	if err != nil {
		return 0, err
	}

	rreq := matching.BuildRankingRequest(source, candidates, profiles, s.Config.PerRequestTopN)

	scores, err := s.Ranker.Rank(ctx, rreq, s.Config.PerRequestTopN)
	if err != nil {
		rankingCalls.WithLabelValues("sweep", "failed").Inc()
		return 0, err
	}
	rankingCalls.WithLabelValues("sweep", "ok").Inc()

	byID := make(map[string]*domain.Part, len(candidates))
	for _, c := range candidates {
		byID[c.Part.ID] = c.Part
	}

	created := 0
	for _, sc := range scores {
		if created >= remaining {
			break
		}
		if sc.Score < s.Config.ScoreThreshold {
			continue
		}
		part := byID[sc.ID]
		if part == nil {
			continue
		}
		key := repo.MatchKey{PartID: part.ID, SupplierID: part.SupplierID}
		if _, dup := existing[key]; dup {
			log.Debug().
				Str("request_id", req.ID).
				Str("part_id", part.ID).
				Msg("match already exists, skipping")
			continue
		}

		score := sc.Score
		m, err := repo.CreateMatch(ctx, s.DB, &domain.Match{
			RequestID:   req.ID,
			PartID:      part.ID,
			SupplierID:  part.SupplierID,
			RequesterID: req.RequesterID,
			Score:       &score,
			Reason:      sc.Reason,
		})
		if err != nil {
			if errors.Is(err, repo.ErrDuplicateMatch) {
				continue
			}
			log.Error().Err(err).
				Str("request_id", req.ID).
				Str("part_id", part.ID).
				Msg("failed to create match")
			continue
		}

		existing[key] = struct{}{}
		created++
		matchesCreated.Inc()
		log.Info().
			Str("match_id", m.ID).
			Str("request_id", req.ID).
			Str("part_id", part.ID).
			Float64("score", sc.Score).
			Msg("sweep created match")

		if s.Notifier != nil {
			s.Notifier.Enqueue(notify.MatchNotification{
				MatchID:     m.ID,
				SupplierID:  part.SupplierID,
				RequesterID: req.RequesterID,
				ItemName:    req.PartName,
				ItemType:    string(domain.ItemKindRequest),
			})
		}
	}

	return created, nil
}

func ownerIDs(items []domain.Item) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		owner := it.OwnerID()
		if _, ok := seen[owner]; ok {
			continue
		}
		seen[owner] = struct{}{}
		out = append(out, owner)
	}
	return out
}
