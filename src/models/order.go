package models

import (
	"time"

	"fest/src/types"
)

// MerchandiseOrder carries its ticket fields as pointers: both stay nil while
// the order is pending and are assigned exactly once, on approval or on the
// free-order fast path.
type MerchandiseOrder struct {
	ID                  uint                    `gorm:"primarykey" json:"id"`
	EventID             uint                    `gorm:"index" json:"event_id,omitempty"`
	ParticipantID       uint                    `gorm:"index" json:"participant_id,omitempty"`
	ParticipantType     types.ParticipantType   `json:"participant_type,omitempty"`
	VariantsSelected    types.VariantSelections `gorm:"type:jsonb" json:"variants_selected,omitempty"`
	Quantity            int                     `gorm:"default:1" json:"quantity,omitempty"`
	RevenueAmount       float64                 `json:"revenue_amount"`
	PaymentProofURL     *string                 `json:"payment_proof_url,omitempty"`
	ApprovalStatus      types.ApprovalStatus    `gorm:"default:'pending'" json:"approval_status,omitempty"`
	TicketID            *string                 `gorm:"uniqueIndex" json:"ticket_id,omitempty"`
	QRCodeURL           *string                 `json:"qr_code_url,omitempty"`
	AttendanceMarked    bool                    `json:"attendance_marked"`
	AttendanceTimestamp *time.Time              `json:"attendance_timestamp,omitempty"`

	Event       Event       `gorm:"foreignKey:event_id" json:"event,omitempty"`
	Participant Participant `gorm:"foreignKey:participant_id" json:"participant,omitempty"`

	types.Timestamps
}
