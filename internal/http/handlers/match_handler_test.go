package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/LewisZett/tech-part-finder/internal/domain"
	"github.com/LewisZett/tech-part-finder/internal/matching"
	"github.com/LewisZett/tech-part-finder/internal/services"
)

// fakeMatchService scripts the MatchService interface.
type fakeMatchService struct {
	scores    []matching.CandidateScore
	findErr   error
	agreeOut  *domain.Match
	agreeErr  error
	listOut   []domain.Match
	listTotal int64
	listErr   error

	gotUserID string
	gotItemID string
	gotKind   domain.ItemKind
}

func (f *fakeMatchService) FindMatches(_ context.Context, userID, itemID string, kind domain.ItemKind) ([]matching.CandidateScore, error) {
	f.gotUserID, f.gotItemID, f.gotKind = userID, itemID, kind
	return f.scores, f.findErr
}

func (f *fakeMatchService) Agree(_ context.Context, userID, matchID string) (*domain.Match, error) {
	f.gotUserID = userID
	return f.agreeOut, f.agreeErr
}

func (f *fakeMatchService) ListForUser(_ context.Context, userID string, page, pageSize int) ([]domain.Match, int64, error) {
	f.gotUserID = userID
	return f.listOut, f.listTotal, f.listErr
}

// fakeSweepService scripts the SweepService interface.
type fakeSweepService struct {
	summary  services.SweepSummary
	err      error
	gotActor string
}

func (f *fakeSweepService) Run(_ context.Context, actorID string) (services.SweepSummary, error) {
	f.gotActor = actorID
	return f.summary, f.err
}

func newHandlerRouter(m MatchService, s SweepService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(m, s)
	r.POST("/matches/suggestions", h.Suggestions)
	r.GET("/matches", h.ListMatches)
	r.POST("/matches/:id/agree", h.Agree)
	r.POST("/admin/auto-match", h.AutoMatch)
	return r
}

func postJSON(r *gin.Engine, path, body, user string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestSuggestions_HappyPath(t *testing.T) {
	itemID := uuid.NewString()
	m := &fakeMatchService{scores: []matching.CandidateScore{{ID: "p1", Score: 88, Reason: "fits"}}}
	r := newHandlerRouter(m, &fakeSweepService{})

	body := fmt.Sprintf(`{"item_id":%q,"item_type":"request"}`, itemID)
	w := postJSON(r, "/matches/suggestions", body, "buyer")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}

	var resp SuggestionsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Matches) != 1 || resp.Matches[0].ID != "p1" {
		t.Fatalf("unexpected body %+v", resp)
	}
	if m.gotUserID != "buyer" || m.gotItemID != itemID || m.gotKind != domain.ItemKindRequest {
		t.Fatalf("service saw %q %q %q", m.gotUserID, m.gotItemID, m.gotKind)
	}
}

func TestSuggestions_ValidationErrors(t *testing.T) {
	r := newHandlerRouter(&fakeMatchService{}, &fakeSweepService{})

	cases := []string{
		`not json`,
		`{"item_type":"request"}`,                  // missing id
		`{"item_id":"not-a-uuid","item_type":"request"}`,
		fmt.Sprintf(`{"item_id":%q,"item_type":"listing"}`, uuid.NewString()),
	}
	for _, body := range cases {
		w := postJSON(r, "/matches/suggestions", body, "buyer")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status %d", body, w.Code)
		}
		var er ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || er.Code != ErrCodeBadRequest {
			t.Fatalf("body %s: envelope %+v err %v", body, er, err)
		}
	}
}

func TestSuggestions_ItemNotFound(t *testing.T) {
	m := &fakeMatchService{findErr: services.ErrItemNotFound}
	r := newHandlerRouter(m, &fakeSweepService{})

	body := fmt.Sprintf(`{"item_id":%q,"item_type":"part"}`, uuid.NewString())
	w := postJSON(r, "/matches/suggestions", body, "seller")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d", w.Code)
	}
}

func TestListMatches_PaginationEnvelope(t *testing.T) {
	m := &fakeMatchService{
		listOut:   []domain.Match{{ID: "m1"}, {ID: "m2"}},
		listTotal: 5,
	}
	r := newHandlerRouter(m, &fakeSweepService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/matches?page=1&page_size=2", nil)
	req.Header.Set("X-User-ID", "alice")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}

	var resp ListMatchesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	p := resp.Pagination
	if p.Total != 5 || p.TotalPages != 3 || !p.HasNext || p.Page != 1 || p.PageSize != 2 {
		t.Fatalf("unexpected pagination %+v", p)
	}
	if m.gotUserID != "alice" {
		t.Fatalf("service saw user %q", m.gotUserID)
	}
}

func TestAgree_ErrorMapping(t *testing.T) {
	id := uuid.NewString()
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrMatchNotFound, http.StatusNotFound, ErrCodeNotFound},
		{services.ErrNotParticipant, http.StatusForbidden, ErrCodeForbidden},
		{errors.New("boom"), http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tc := range cases {
		m := &fakeMatchService{agreeErr: tc.err}
		r := newHandlerRouter(m, &fakeSweepService{})

		w := postJSON(r, "/matches/"+id+"/agree", "", "alice")
		if w.Code != tc.status {
			t.Fatalf("err %v: status %d, want %d", tc.err, w.Code, tc.status)
		}
		var er ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || er.Code != tc.code {
			t.Fatalf("err %v: envelope %+v", tc.err, er)
		}
	}
}

func TestAgree_InvalidID(t *testing.T) {
	r := newHandlerRouter(&fakeMatchService{}, &fakeSweepService{})

	w := postJSON(r, "/matches/not-a-uuid/agree", "", "alice")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d", w.Code)
	}
}

func TestAgree_ReturnsUpdatedMatch(t *testing.T) {
	m := &fakeMatchService{agreeOut: &domain.Match{ID: "m1", Status: domain.MatchStatusBothAgreed}}
	r := newHandlerRouter(m, &fakeSweepService{})

	w := postJSON(r, "/matches/"+uuid.NewString()+"/agree", "", "alice")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var out domain.Match
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil || out.Status != domain.MatchStatusBothAgreed {
		t.Fatalf("body %s err %v", w.Body.String(), err)
	}
}

func TestAutoMatch_Success(t *testing.T) {
	s := &fakeSweepService{summary: services.SweepSummary{MatchesCreated: 4, RequestsProcessed: 7}}
	r := newHandlerRouter(&fakeMatchService{}, s)

	w := postJSON(r, "/admin/auto-match", "", "admin")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	var resp SweepResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.MatchesCreated != 4 {
		t.Fatalf("unexpected body %+v", resp)
	}
	if s.gotActor != "admin" {
		t.Fatalf("sweep saw actor %q", s.gotActor)
	}
}

func TestAutoMatch_RateLimited(t *testing.T) {
	s := &fakeSweepService{err: &services.RateLimitError{RetryAfter: 25 * time.Minute, Calls: 5, Limit: 5}}
	r := newHandlerRouter(&fakeMatchService{}, s)

	w := postJSON(r, "/admin/auto-match", "", "admin")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "1500" {
		t.Fatalf("Retry-After = %q", got)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || er.Code != ErrCodeRateLimited {
		t.Fatalf("envelope %+v err %v", er, err)
	}
	if !strings.Contains(er.Message, "try again in 25 minutes") {
		t.Fatalf("message %q", er.Message)
	}
}

func TestAutoMatch_RankerMissing(t *testing.T) {
	s := &fakeSweepService{err: services.ErrRankingFailed}
	r := newHandlerRouter(&fakeMatchService{}, s)

	w := postJSON(r, "/admin/auto-match", "", "admin")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", w.Code)
	}
}

func TestUserID_FallbackChain(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", func(c *gin.Context) { c.String(http.StatusOK, userID(c)) })
	r.GET("/whoami-ctx", func(c *gin.Context) {
		c.Set("userID", "from-token")
		c.String(http.StatusOK, userID(c))
	})

	// Context value wins.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami-ctx", nil)
	req.Header.Set("X-User-ID", "from-header")
	r.ServeHTTP(w, req)
	if w.Body.String() != "from-token" {
		t.Fatalf("context priority: %q", w.Body.String())
	}

	// Header next.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-User-ID", "from-header")
	r.ServeHTTP(w, req)
	if w.Body.String() != "from-header" {
		t.Fatalf("header fallback: %q", w.Body.String())
	}

	// Demo identity last.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	if w.Body.String() != "demo-user" {
		t.Fatalf("default fallback: %q", w.Body.String())
	}
}
