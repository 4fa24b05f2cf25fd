package domain

import "time"

// Idempotency records that a quota-charged request identified by
// (user_id, route, key) already completed. Fingerprint hashes the request
// content; a retry with the same key and content before ExpiresAt is not
// charged again, while the same key with other content is refused.
type Idempotency struct {
	ID          string    `gorm:"size:36;primaryKey"`
	UserID      string    `gorm:"size:64;not null;uniqueIndex:ux_user_route_key,priority:1"`
	Route       string    `gorm:"size:255;not null;uniqueIndex:ux_user_route_key,priority:2"`
	Key         string    `gorm:"size:200;not null;uniqueIndex:ux_user_route_key,priority:3"`
	Fingerprint string    `gorm:"size:64;not null;default:''"`
	Tokens      int64     `gorm:"not null;default:0"`
	Status      int       `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt   time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
