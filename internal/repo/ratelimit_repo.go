// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the sliding-window rate limiter rows
// used to throttle expensive operations (the auto-match sweep) per actor.
//
// One row exists per (user_id, function_name). The check-and-increment is
// performed inside a single transaction so that two concurrent calls cannot
// both pass a check that should have denied the second.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/LewisZett/tech-part-finder/internal/domain"
)

// RateLimitDecision is the outcome of a CheckRateLimit call.
type RateLimitDecision struct {
	// Allowed reports whether the call may proceed.
	Allowed bool
	// CallCount is the number of calls recorded in the current window,
	// including this one when allowed.
	CallCount int
	// RetryAfter is the remaining wait until the window elapses. Only
	// meaningful when Allowed is false; always positive in that case.
	RetryAfter time.Duration
}

// CheckRateLimit performs an atomic check-count-then-increment for the
// (userID, function) pair against a window of the given length and cap.
//
// Semantics:
//   - No row yet: a new window starts now with CallCount=1; allowed.
//   - Row exists and the window has fully elapsed: the row is reset in
//     place (WindowStart=now, CallCount=1); allowed.
//   - Row exists within the window and CallCount < cap: increment; allowed.
//   - Otherwise: denied with a positive RetryAfter.
func CheckRateLimit(ctx context.Context, db *gorm.DB, userID, function string, window time.Duration, cap int, now time.Time) (RateLimitDecision, error) {
	var dec RateLimitDecision
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row domain.RateLimit
		err := tx.Where("user_id = ? AND function_name = ?", userID, function).First(&row).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row = domain.RateLimit{
				ID:           uuid.NewString(),
				UserID:       userID,
				FunctionName: function,
				CallCount:    1,
				WindowStart:  now,
				LastCallAt:   now,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			dec = RateLimitDecision{Allowed: true, CallCount: 1}
			return nil
		case err != nil:
			return err
		}

		if now.Sub(row.WindowStart) >= window {
			// Prior window fully elapsed: reset rather than overlap.
			res := tx.Model(&domain.RateLimit{}).Where("id = ?", row.ID).Updates(map[string]any{
				"call_count":   1,
				"window_start": now,
				"last_call_at": now,
			})
			if res.Error != nil {
				return res.Error
			}
			dec = RateLimitDecision{Allowed: true, CallCount: 1}
			return nil
		}

		if row.CallCount >= cap {
			retry := row.WindowStart.Add(window).Sub(now)
			if retry <= 0 {
				retry = time.Second
			}
			dec = RateLimitDecision{Allowed: false, CallCount: row.CallCount, RetryAfter: retry}
			return nil
		}

		res := tx.Model(&domain.RateLimit{}).Where("id = ?", row.ID).Updates(map[string]any{
			"call_count":   gorm.Expr("call_count + 1"),
			"last_call_at": now,
		})
		if res.Error != nil {
			return res.Error
		}
		dec = RateLimitDecision{Allowed: true, CallCount: row.CallCount + 1}
		return nil
	})
	return dec, err
}
