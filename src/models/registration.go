package models

import (
	"time"

	"fest/src/types"
)

// Registration is a normal-event registration. One row per
// (event, participant), enforced by the composite unique index.
type Registration struct {
	ID                  uint                     `gorm:"primarykey" json:"id"`
	EventID             uint                     `gorm:"index:idx_registrations_event_participant,unique" json:"event_id,omitempty"`
	ParticipantID       uint                     `gorm:"index:idx_registrations_event_participant,unique" json:"participant_id,omitempty"`
	ParticipantType     types.ParticipantType    `json:"participant_type,omitempty"`
	TicketID            string                   `gorm:"uniqueIndex" json:"ticket_id,omitempty"`
	QRCodeURL           string                   `json:"qr_code_url,omitempty"`
	FormResponses       types.JSONB              `gorm:"type:jsonb" json:"form_responses,omitempty"`
	Status              types.RegistrationStatus `gorm:"default:'registered'" json:"status,omitempty"`
	AttendanceMarked    bool                     `json:"attendance_marked"`
	AttendanceTimestamp *time.Time               `json:"attendance_timestamp,omitempty"`

	Event       Event       `gorm:"foreignKey:event_id" json:"event,omitempty"`
	Participant Participant `gorm:"foreignKey:participant_id" json:"participant,omitempty"`

	types.Timestamps
}
