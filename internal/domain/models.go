// Package domain defines the persistence models for the spare-parts
// marketplace: listings (parts), part requests, proposed matches, public
// profiles, and the bookkeeping tables used by the auto-match sweep
// (rate-limit windows and security events). These types are mapped with
// GORM and form the core data layer of the application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Part categories. The category set is fixed; payloads outside it are
// rejected at the transport layer.
const (
	CategoryPhone    = "Phone Spare Parts"
	CategoryTV       = "TV Spare Parts"
	CategoryComputer = "Computer Spare Parts"
	CategoryCar      = "Car Spare Parts"
)

// Categories lists every valid part category.
var Categories = []string{CategoryPhone, CategoryTV, CategoryComputer, CategoryCar}

// Part status values. A part is matchable only while "available".
const (
	PartStatusAvailable = "available"
	PartStatusSold      = "sold"
)

// Request status values. A request is swept only while "active".
const (
	RequestStatusActive    = "active"
	RequestStatusFulfilled = "fulfilled"
)

// Match status values. A match starts "pending" and becomes "both_agreed"
// once supplier and requester have independently agreed. The transition is
// monotonic: there is no path back to "pending".
const (
	MatchStatusPending    = "pending"
	MatchStatusBothAgreed = "both_agreed"
)

// Part represents a supplier-owned listing of a spare part for sale.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - SupplierID: identifier of the owning supplier; indexed.
//   - PartName / Category / Condition: comparison-relevant attributes.
//   - Price, Description, Location, ImageURL: optional attributes; ImageURL
//     feeds the visual-similarity dimension of the ranking prompt.
//   - Status: "available" or "sold".
type Part struct {
	ID          string    `json:"id"          gorm:"type:char(36);primaryKey"`
	SupplierID  string    `json:"supplier_id" gorm:"type:varchar(64);not null;index:idx_supplier_parts"`
	PartName    string    `json:"part_name"   gorm:"type:varchar(255);not null"`
	Category    string    `json:"category"    gorm:"type:varchar(64);not null;index"`
	Condition   string    `json:"condition"   gorm:"type:varchar(32);not null"`
	Price       *float64  `json:"price,omitempty"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	Location    string    `json:"location,omitempty"    gorm:"type:varchar(255)"`
	ImageURL    string    `json:"image_url,omitempty"   gorm:"type:text"`
	Status      string    `json:"status"      gorm:"type:varchar(16);not null;default:'available';index;check:status IN ('available','sold')"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Part.
func (Part) TableName() string { return "parts" }

// PartRequest represents a requester-owned statement of a part being sought.
//
// ConditionPreference and MaxPrice are soft constraints: they are surfaced
// to the ranking model rather than enforced as hard filters.
type PartRequest struct {
	ID                  string    `json:"id"           gorm:"type:char(36);primaryKey"`
	RequesterID         string    `json:"requester_id" gorm:"type:varchar(64);not null;index:idx_requester_requests"`
	PartName            string    `json:"part_name"    gorm:"type:varchar(255);not null"`
	Category            string    `json:"category"     gorm:"type:varchar(64);not null;index"`
	ConditionPreference string    `json:"condition_preference,omitempty" gorm:"type:varchar(32)"`
	MaxPrice            *float64  `json:"max_price,omitempty"`
	Description         string    `json:"description,omitempty" gorm:"type:text"`
	Location            string    `json:"location,omitempty"    gorm:"type:varchar(255)"`
	Status              string    `json:"status"       gorm:"type:varchar(16);not null;default:'active';index;check:status IN ('active','fulfilled')"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// TableName returns the database table name for PartRequest.
func (PartRequest) TableName() string { return "part_requests" }

// Profile carries the public reputation signal for a marketplace user.
// It is read-only for this service and joined into ranking prompts.
type Profile struct {
	ID         string    `json:"id"         gorm:"type:varchar(64);primaryKey"`
	FullName   string    `json:"full_name"  gorm:"type:varchar(255)"`
	TradeType  string    `json:"trade_type" gorm:"type:varchar(64);not null;default:'general'"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for Profile.
func (Profile) TableName() string { return "profiles" }

// Match represents a proposed pairing between a Part and a PartRequest,
// pending mutual agreement. A match is uniquely identified by the
// (request_id, part_id, supplier_id) triple; the unique index backs the
// sweep's dedup guarantee.
//
// SupplierAgreed and RequesterAgreed are set independently and idempotently
// by the respective parties; Status flips to "both_agreed" only when both
// flags are true and never regresses.
type Match struct {
	ID              string         `json:"id"           gorm:"type:char(36);primaryKey"`
	RequestID       string         `json:"request_id"   gorm:"type:char(36);not null;uniqueIndex:ux_match_triple,priority:1"`
	PartID          string         `json:"part_id"      gorm:"type:char(36);not null;uniqueIndex:ux_match_triple,priority:2"`
	SupplierID      string         `json:"supplier_id"  gorm:"type:varchar(64);not null;index;uniqueIndex:ux_match_triple,priority:3"`
	RequesterID     string         `json:"requester_id" gorm:"type:varchar(64);not null;index"`
	Status          string         `json:"status"       gorm:"type:varchar(16);not null;default:'pending';check:status IN ('pending','both_agreed')"`
	SupplierAgreed  bool           `json:"supplier_agreed"`
	RequesterAgreed bool           `json:"requester_agreed"`
	Score           *float64       `json:"score,omitempty"` // only for sweep-created matches
	Reason          string         `json:"reason,omitempty" gorm:"type:text"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for Match.
func (Match) TableName() string { return "matches" }

// RateLimit tracks one sliding window of calls for an (actor, operation)
// pair. Exactly one row exists per pair: once the prior window has fully
// elapsed the row is reset in place (new WindowStart, CallCount=1) rather
// than a second overlapping window being created.
type RateLimit struct {
	ID           string    `gorm:"type:char(36);primaryKey"`
	UserID       string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_rate_user_fn,priority:1"`
	FunctionName string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_rate_user_fn,priority:2"`
	CallCount    int       `gorm:"not null;default:1"`
	WindowStart  time.Time `gorm:"not null"`
	LastCallAt   time.Time `gorm:"not null"`
}

// TableName returns the database table name for RateLimit.
func (RateLimit) TableName() string { return "rate_limits" }

// SecurityEvent is an append-only audit record for security-relevant
// occurrences such as rate-limit denials on the auto-match sweep.
type SecurityEvent struct {
	ID            string `gorm:"type:char(36);primaryKey"`
	UserID        string `gorm:"type:varchar(64);not null;index"`
	EventType     string `gorm:"type:varchar(64);not null"`
	EventCategory string `gorm:"type:varchar(32);not null;default:'security'"`
	Severity      string `gorm:"type:varchar(16);not null;default:'medium'"`
	Details       string `gorm:"type:text"` // JSON payload
	CreatedAt     time.Time
}

// TableName returns the database table name for SecurityEvent.
func (SecurityEvent) TableName() string { return "security_events" }
