// Match HTTP handlers.
//
// This file exposes the matching engine's REST endpoints:
//   - POST /matches/suggestions      (interactive ranking for an item)
//   - GET  /matches                  (list the caller's matches, paginated)
//   - POST /matches/{id}/agree       (record one party's agreement)
//   - POST /admin/auto-match         (trigger the auto-match sweep)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/LewisZett/tech-part-finder/internal/domain"
	"github.com/LewisZett/tech-part-finder/internal/matching"
	"github.com/LewisZett/tech-part-finder/internal/services"
	"github.com/LewisZett/tech-part-finder/internal/utils"
)

//
// Service contracts (context-aware)
//

// MatchService defines the interactive matching operations consumed by the
// HTTP handlers. Implementations must be safe for concurrent use and honor
// the provided context for cancellation and timeouts.
type MatchService interface {
	// FindMatches ranks candidates for an item owned by userID.
	FindMatches(ctx context.Context, userID, itemID string, kind domain.ItemKind) ([]matching.CandidateScore, error)
	// Agree records userID's agreement on a match.
	Agree(ctx context.Context, userID, matchID string) (*domain.Match, error)
	// ListForUser returns a page of the user's matches and the total count.
	ListForUser(ctx context.Context, userID string, page, pageSize int) ([]domain.Match, int64, error)
}

// SweepService defines the batch sweep operation.
type SweepService interface {
	// Run executes one auto-match sweep on behalf of actorID.
	Run(ctx context.Context, actorID string) (services.SweepSummary, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the matching engine. It depends on
// abstract service interfaces to keep transport concerns separate from
// business logic.
type Handlers struct {
	matchSvc MatchService
	sweepSvc SweepService
}

// New constructs a Handlers instance bound to the given services.
func New(matchSvc MatchService, sweepSvc SweepService) *Handlers {
	return &Handlers{matchSvc: matchSvc, sweepSvc: sweepSvc}
}

// userID extracts the authenticated user id from Gin context (set by the
// auth middleware). If absent, it falls back to "X-User-ID" header (tests
// use it), and finally to "demo-user".
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// SuggestionsRequest is the JSON payload for interactive matching.
type SuggestionsRequest struct {
	// ItemID is the UUID of the caller's part or request.
	ItemID string `json:"item_id" binding:"required"`
	// ItemType is "part" or "request".
	ItemType string `json:"item_type" binding:"required"`
}

// SuggestionsResponse wraps the ranked suggestions.
type SuggestionsResponse struct {
	Matches []matching.CandidateScore `json:"matches"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListMatchesResponse wraps a page of matches and pagination information.
type ListMatchesResponse struct {
	Matches    []domain.Match `json:"matches"`
	Pagination Pagination     `json:"pagination"`
}

// SweepResponse reports the outcome of a sweep run.
type SweepResponse struct {
	Success        bool   `json:"success"`
	MatchesCreated int    `json:"matches_created"`
	Message        string `json:"message"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

//
// Handlers
//

// Suggestions returns ranked counterparty suggestions for one of the
// caller's items. A ranking failure yields an empty list, not an error:
// suggestions are an enhancement, and the surrounding application must stay
// usable without them.
func (h *Handlers) Suggestions(c *gin.Context) {
	var req SuggestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if _, err := uuid.Parse(req.ItemID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "item_id must be a UUID")
		return
	}
	kind, err := domain.ParseItemKind(req.ItemType)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, `item_type must be "part" or "request"`)
		return
	}

	scores, err := h.matchSvc.FindMatches(c.Request.Context(), userID(c), req.ItemID, kind)
	if err != nil {
		if errors.Is(err, services.ErrItemNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "item not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, SuggestionsResponse{Matches: scores})
}

// ListMatches returns a page of the caller's matches, most recent first.
func (h *Handlers) ListMatches(c *gin.Context) {
	page, pageSize := clampPagination(c)

	items, total, err := h.matchSvc.ListForUser(c.Request.Context(), userID(c), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListMatchesResponse{
		Matches: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// Agree records the caller's agreement on a match. Idempotent per party.
func (h *Handlers) Agree(c *gin.Context) {
	matchID := c.Param("id")
	if _, err := uuid.Parse(matchID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "match id must be a UUID")
		return
	}

	m, err := h.matchSvc.Agree(c.Request.Context(), userID(c), matchID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMatchNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "match not found")
		case errors.Is(err, services.ErrNotParticipant):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "you are not part of this match")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, m)
}

// AutoMatch triggers one auto-match sweep as the authenticated actor. A
// rate-limit denial answers 429 with a Retry-After header and a
// human-readable cooldown message.
func (h *Handlers) AutoMatch(c *gin.Context) {
	actor := userID(c)

	summary, err := h.sweepSvc.Run(c.Request.Context(), actor)
	if err != nil {
		var rle *services.RateLimitError
		switch {
		case errors.As(err, &rle):
			c.Header("Retry-After", strconv.Itoa(int(rle.RetryAfter.Seconds())))
			fail(c, http.StatusTooManyRequests, ErrCodeRateLimited, rle.Error())
		case errors.Is(err, services.ErrUnauthorized):
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "valid actor identity required")
		case errors.Is(err, services.ErrRankingFailed):
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "ranking backend is not configured")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, SweepResponse{
		Success:        true,
		MatchesCreated: summary.MatchesCreated,
		Message:        "auto-match sweep completed",
	})
}
