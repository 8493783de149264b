// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file records security-relevant audit events.
package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/LewisZett/tech-part-finder/internal/domain"
)

// RecordSecurityEvent appends an audit row. Details are JSON-encoded; an
// encoding failure degrades to an empty payload rather than dropping the
// event.
func RecordSecurityEvent(ctx context.Context, db *gorm.DB, userID, eventType, severity string, details map[string]any) error {
	payload := ""
	if details != nil {
		if b, err := json.Marshal(details); err == nil {
			payload = string(b)
		}
	}
	ev := &domain.SecurityEvent{
		ID:            uuid.NewString(),
		UserID:        userID,
		EventType:     eventType,
		EventCategory: "security",
		Severity:      severity,
		Details:       payload,
		CreatedAt:     time.Now().UTC(),
	}
	return db.WithContext(ctx).Create(ev).Error
}
