package models

import "time"

// Auth event types recorded in the local history.
const (
	EventAuthorizeStarted = "authorize_started"
	EventCallbackSuccess  = "callback_success"
	EventCallbackFailed   = "callback_failed"
	EventCodeRedeemed     = "code_redeemed"
	EventRedeemFailed     = "redeem_failed"
	EventGuardRejected    = "guard_rejected"
)

// AuthEvent is one entry in the local authorization audit trail. Events carry
// correlation identifiers only; token values never appear here.
type AuthEvent struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Type      string    `gorm:"index" json:"type"`
	State     string    `json:"state,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Origin    string    `json:"origin,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (AuthEvent) TableName() string {
	return "auth_events"
}
