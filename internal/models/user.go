package models

import (
	"time"
)

// User - dashboard user
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"size:100;not null" json:"-"`
	IsAdmin      bool      `gorm:"default:false" json:"is_admin"`
	Role         string    `gorm:"size:20;default:'operator'" json:"role"` // admin, operator, viewer
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// AuditEntry - one mutating action against a vessel gateway or the backend.
// Written best-effort; never blocks the action it records.
type AuditEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RequestID string    `gorm:"size:36" json:"request_id"`
	Actor     string    `gorm:"size:255" json:"actor"`
	Action    string    `gorm:"size:50;not null" json:"action"` // e.g. "portforward.save", "vessel.add"
	VesselID  string    `gorm:"size:64;index" json:"vessel_id"`
	Detail    string    `gorm:"type:text" json:"detail,omitempty"` // JSON payload, credentials redacted
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// SelectedVesselRecord - the single persisted selection projection.
// Exactly zero or one row exists; the vessel collection is never persisted.
type SelectedVesselRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	VesselID  string    `gorm:"size:64;not null" json:"vessel_id"`
	IMO       int64     `json:"imo"`
	Name      string    `gorm:"size:255" json:"name"`
	VpnIP     string    `gorm:"size:45" json:"vpn_ip"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
