package domain

import (
	"time"

	"gorm.io/datatypes"
)

// QuotaSentinel is the reserved user identifier under which the quota gate
// keeps its bookkeeping rows. It segregates quota rows from per-user data in
// the shared record tables.
const QuotaSentinel = "_ratelimit"

// QuotaRecordID addresses the accumulated token counter below the sentinel.
const QuotaRecordID = "tokens"

// Charge kinds written to the usage ledger.
const (
	ChargeSpeech        = "speech"
	ChargeTranscription = "transcription"
	ChargeManual        = "manual"
)

// UsageRecord is a generic key/attribute row addressed by (UserID, RecordID).
// The quota gate stores its accumulated token-equivalent counter here under
// UserID = QuotaSentinel.
//
// WindowEndsAt is the unix-millisecond instant at which Tokens stops counting;
// an elapsed window reads as zero and the next increment opens a new one.
// It is an integer so the atomic upsert can compare it portably in SQL.
type UsageRecord struct {
	UserID       string    `json:"user_id"        gorm:"type:varchar(64);primaryKey"`
	RecordID     string    `json:"record_id"      gorm:"type:varchar(64);primaryKey"`
	Tokens       int64     `json:"tokens"         gorm:"not null;default:0"`
	WindowEndsAt int64     `json:"window_ends_at" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for UsageRecord.
func (UsageRecord) TableName() string { return "usage_records" }

// UsageEvent is an append-only ledger entry written for every recorded
// charge. Scope is the sentinel of the counter the charge was added to.
type UsageEvent struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	Scope     string         `json:"-"          gorm:"type:varchar(64);not null;index:idx_usage_scope_created,priority:1"`
	UserID    string         `json:"user_id"    gorm:"type:varchar(64);not null;default:''"`
	Kind      string         `json:"kind"       gorm:"type:varchar(32);not null"`
	Units     float64        `json:"units"`
	Tokens    int64          `json:"tokens"     gorm:"not null"`
	Meta      datatypes.JSON `json:"meta,omitempty" swaggertype:"object"`
	CreatedAt time.Time      `json:"created_at" gorm:"index:idx_usage_scope_created,priority:2"`
}

// TableName returns the database table name for UsageEvent.
func (UsageEvent) TableName() string { return "usage_events" }
