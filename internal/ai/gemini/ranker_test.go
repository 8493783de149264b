package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/LewisZett/tech-part-finder/internal/matching"
)

// fakeGenerator returns a scripted response or error.
type fakeGenerator struct {
	resp string
	err  error
}

func (f *fakeGenerator) GenerateRanking(context.Context, matching.RankingRequest) (string, error) {
	return f.resp, f.err
}

func testRequest(ids ...string) matching.RankingRequest {
	return matching.RankingRequest{
		Task:         "rank",
		CandidateIDs: ids,
		MaxResults:   5,
	}
}

func newTestRanker(resp string, err error) *Ranker {
	return NewRanker(&fakeGenerator{resp: resp, err: err}, zerolog.Nop())
}

func TestRank_ValidEnvelope(t *testing.T) {
	r := newTestRanker(`{"matches":[{"id":"a","score":92,"reason":"same part"},{"id":"b","score":60,"reason":"related"}]}`, nil)

	got, err := r.Rank(context.Background(), testRequest("a", "b", "c"), 5)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[0].Score != 92 || got[1].ID != "b" {
		t.Fatalf("unexpected result %+v", got)
	}
	if got[0].Reason != "same part" {
		t.Fatalf("reason lost: %+v", got[0])
	}
}

func TestRank_AcceptsBareArrayAndFences(t *testing.T) {
	raw := "```json\n[{\"id\":\"a\",\"score\":80,\"reason\":\"r\"}]\n```"
	r := newTestRanker(raw, nil)

	got, err := r.Rank(context.Background(), testRequest("a"), 5)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestRank_DropsOutOfSetIDs(t *testing.T) {
	r := newTestRanker(`{"matches":[{"id":"ghost","score":95,"reason":"x"},{"id":"a","score":70,"reason":"y"}]}`, nil)

	got, err := r.Rank(context.Background(), testRequest("a", "b"), 5)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("hallucinated id must be dropped, got %+v", got)
	}
}

func TestRank_RejectsOutOfRangeScores(t *testing.T) {
	r := newTestRanker(`{"matches":[
		{"id":"a","score":101,"reason":"too high"},
		{"id":"b","score":-1,"reason":"too low"},
		{"id":"c","score":100,"reason":"edge"},
		{"id":"d","score":0,"reason":"edge"}
	]}`, nil)

	got, err := r.Rank(context.Background(), testRequest("a", "b", "c", "d"), 5)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	// Out-of-range entries are rejected, never clamped; 0 and 100 are valid.
	if len(got) != 2 {
		t.Fatalf("expected the two in-range entries, got %+v", got)
	}
	if got[0].ID != "c" || got[1].ID != "d" {
		t.Fatalf("unexpected survivors %+v", got)
	}
}

func TestRank_DropsMalformedEntriesKeepsRest(t *testing.T) {
	r := newTestRanker(`{"matches":[{"id":"a"},{"id":"","score":50},{"id":"b","score":55,"reason":"ok"},"garbage"]}`, nil)

	got, err := r.Rank(context.Background(), testRequest("a", "b"), 5)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("expected only the well-formed entry, got %+v", got)
	}
}

func TestRank_DeduplicatesIDs(t *testing.T) {
	r := newTestRanker(`{"matches":[{"id":"a","score":90,"reason":"first"},{"id":"a","score":40,"reason":"again"}]}`, nil)

	got, err := r.Rank(context.Background(), testRequest("a"), 5)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(got) != 1 || got[0].Score != 90 {
		t.Fatalf("expected first occurrence to win, got %+v", got)
	}
}

func TestRank_SortsByScoreWithEnumerationTiebreak(t *testing.T) {
	r := newTestRanker(`{"matches":[
		{"id":"c","score":80,"reason":"tie, later in enumeration"},
		{"id":"a","score":80,"reason":"tie, earlier in enumeration"},
		{"id":"b","score":95,"reason":"best"}
	]}`, nil)

	got, err := r.Rank(context.Background(), testRequest("a", "b", "c"), 5)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	wantOrder := []string{"b", "a", "c"}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Fatalf("position %d = %q, want %q (%+v)", i, got[i].ID, id, got)
		}
	}
}

func TestRank_TruncatesToTopN(t *testing.T) {
	r := newTestRanker(`{"matches":[
		{"id":"a","score":90,"reason":"1"},
		{"id":"b","score":80,"reason":"2"},
		{"id":"c","score":70,"reason":"3"}
	]}`, nil)

	got, err := r.Rank(context.Background(), testRequest("a", "b", "c"), 2)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("expected the top 2, got %+v", got)
	}
}

func TestRank_UnparsableResponse(t *testing.T) {
	r := newTestRanker(`the model rambles instead of returning JSON`, nil)

	_, err := r.Rank(context.Background(), testRequest("a"), 5)
	if !errors.Is(err, ErrUnparsableResponse) {
		t.Fatalf("expected ErrUnparsableResponse, got %v", err)
	}
}

func TestRank_GeneratorErrorPropagates(t *testing.T) {
	sentinel := errors.New("deadline exceeded")
	r := newTestRanker("", sentinel)

	_, err := r.Rank(context.Background(), testRequest("a"), 5)
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected generator error, got %v", err)
	}
}

func TestRank_EmptyMatchesIsValid(t *testing.T) {
	r := newTestRanker(`{"matches":[]}`, nil)

	got, err := r.Rank(context.Background(), testRequest("a"), 5)
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
}
