// Package gemini – response validation
//
// The Ranker turns raw model output into validated CandidateScore entries.
// The model is treated as an untrusted data source: entries referencing ids
// outside the candidate enumeration, scores outside [0,100], or malformed
// fields are dropped individually; a wholly unparsable payload is a hard
// failure for the call. The Ranker never retries — retry policy belongs to
// the caller, which knows whether a re-ranked result is acceptable.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/LewisZett/tech-part-finder/internal/matching"
	"github.com/LewisZett/tech-part-finder/internal/utils"
)

// ErrUnparsableResponse indicates the model output could not be decoded at
// all. Callers map this onto their RankingFailed semantics.
var ErrUnparsableResponse = errors.New("unparsable ranking response")

// rankingGenerator abstracts the outbound model call so the validation
// logic is testable without network access.
type rankingGenerator interface {
	GenerateRanking(ctx context.Context, req matching.RankingRequest) (string, error)
}

// Ranker invokes the generator and validates its output against the
// original candidate enumeration.
type Ranker struct {
	gen       rankingGenerator
	logger    zerolog.Logger
	maxLogLen int
}

// NewRanker constructs a Ranker around a generator.
func NewRanker(gen rankingGenerator, logger zerolog.Logger) *Ranker {
	return &Ranker{gen: gen, logger: logger, maxLogLen: 200}
}

// rankingPayload mirrors the structured-output schema.
type rankingPayload struct {
	Matches []json.RawMessage `json:"matches"`
}

// rawEntry is one undecoded match entry. Fields are decoded loosely and
// validated strictly afterwards.
type rawEntry struct {
	ID     string   `json:"id"`
	Score  *float64 `json:"score"`
	Reason string   `json:"reason"`
}

// Rank executes one ranking call and returns at most topN validated
// entries, sorted by score descending with ties broken by candidate
// enumeration order.
func (r *Ranker) Rank(ctx context.Context, req matching.RankingRequest, topN int) ([]matching.CandidateScore, error) {
	if topN <= 0 || topN > req.MaxResults {
		topN = req.MaxResults
	}

	raw, err := r.gen.GenerateRanking(ctx, req)
	if err != nil {
		return nil, err
	}

	r.logger.Debug().
		Int("candidates", len(req.CandidateIDs)).
		Str("response_preview", utils.TruncateForLog(raw, r.maxLogLen)).
		Msg("ranking response received")

	entries, err := parseRanking(raw)
	if err != nil {
		return nil, err
	}

	valid := r.validate(entries, req)

	index := req.EnumerationIndex()
	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Score != valid[j].Score {
			return valid[i].Score > valid[j].Score
		}
		return index[valid[i].ID] < index[valid[j].ID]
	})

	if len(valid) > topN {
		valid = valid[:topN]
	}
	return valid, nil
}

// parseRanking decodes the structured payload. Models occasionally wrap
// JSON in markdown fences despite the response MIME type, so fences are
// stripped before decoding. A bare top-level array is accepted as well.
func parseRanking(raw string) ([]rawEntry, error) {
	cleaned := extractJSON(raw)

	var payload rankingPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil || payload.Matches == nil {
		var arr []json.RawMessage
		if aerr := json.Unmarshal([]byte(cleaned), &arr); aerr != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnparsableResponse, firstErr(err, aerr))
		}
		payload.Matches = arr
	}

	out := make([]rawEntry, 0, len(payload.Matches))
	for _, msg := range payload.Matches {
		var e rawEntry
		if err := json.Unmarshal(msg, &e); err != nil {
			// Malformed entry: drop it, keep the rest.
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// validate drops entries individually: unknown ids, missing or out-of-range
// scores, duplicate ids. Out-of-range scores are rejected, never clamped.
func (r *Ranker) validate(entries []rawEntry, req matching.RankingRequest) []matching.CandidateScore {
	set := req.CandidateSet()
	seen := make(map[string]struct{}, len(entries))
	out := make([]matching.CandidateScore, 0, len(entries))

	for _, e := range entries {
		id := strings.TrimSpace(e.ID)
		if id == "" || e.Score == nil {
			continue
		}
		if _, ok := set[id]; !ok {
			r.logger.Warn().Str("id", id).Msg("dropping ranked entry outside candidate set")
			continue
		}
		if *e.Score < 0 || *e.Score > matching.ScoreScaleMax {
			r.logger.Warn().Str("id", id).Float64("score", *e.Score).Msg("dropping out-of-range score")
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, matching.CandidateScore{ID: id, Score: *e.Score, Reason: strings.TrimSpace(e.Reason)})
	}
	return out
}

// extractJSON strips markdown code fences from a raw model response.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func firstErr(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}
