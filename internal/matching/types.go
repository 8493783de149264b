// Package matching contains the transport-agnostic core of the matching and
// ranking engine: the structured prompt built from a source item and its
// candidate set, and the validated score entries the ranker must produce.
// The package has no knowledge of HTTP, storage, or the concrete reasoning
// model; those live behind interfaces in the services layer.
package matching

import "strings"

// CandidateScore is one ranked candidate returned by the ranker.
// Score is on the canonical 0–100 scale everywhere in this system.
type CandidateScore struct {
	ID     string  `json:"id"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// ScoreScaleMax is the upper bound of the canonical score scale.
const ScoreScaleMax = 100

// ImageRef points at supplementary visual evidence for a candidate or the
// source item. Images never replace the text fields; they are appended after
// the full textual enumeration.
type ImageRef struct {
	ItemID string
	Label  string
	URL    string
}

// RankingRequest is the fully assembled input for one ranking call: the
// system framing, the task text (source fields plus the index-stable
// candidate enumeration and the fixed comparison rubric), the valid
// candidate ids, and optional image references.
type RankingRequest struct {
	System string
	Task   string
	// CandidateIDs preserves enumeration order. Ranker output ids outside
	// this set are invalid and must be dropped, not trusted.
	CandidateIDs []string
	Images       []ImageRef
	// MaxResults caps the number of entries the ranker may return
	// (5 interactive, 3 sweep).
	MaxResults int
}

// CandidateSet returns the candidate ids as a membership set.
func (r RankingRequest) CandidateSet() map[string]struct{} {
	out := make(map[string]struct{}, len(r.CandidateIDs))
	for _, id := range r.CandidateIDs {
		out[strings.TrimSpace(id)] = struct{}{}
	}
	return out
}

// EnumerationIndex returns the zero-based enumeration position of each
// candidate id. Used for the deterministic tie-break on equal scores.
func (r RankingRequest) EnumerationIndex() map[string]int {
	out := make(map[string]int, len(r.CandidateIDs))
	for i, id := range r.CandidateIDs {
		out[id] = i
	}
	return out
}
