package models

import "time"

// AttendanceLog is append-only. Rows are never updated or deleted after
// creation; the event cascade delete is the only sweep.
type AttendanceLog struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	EventID        uint      `gorm:"index" json:"event_id,omitempty"`
	ParticipantID  uint      `json:"participant_id,omitempty"`
	TicketID       string    `gorm:"index" json:"ticket_id,omitempty"`
	ScannedAt      time.Time `json:"scanned_at,omitempty"`
	ScannedBy      uint      `json:"scanned_by,omitempty"`
	ManualOverride bool      `json:"manual_override"`
	OverrideReason *string   `json:"override_reason,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`

	Participant Participant `gorm:"foreignKey:participant_id" json:"participant,omitempty"`
}
