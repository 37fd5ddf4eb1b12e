package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

type JSONB map[string]any
type JSONBArray []any

func scanBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case nil:
		return []byte("null"), nil
	default:
		return nil, errors.New("unsupported source type for jsonb scan")
	}
}

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, err := scanBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, &a)
}

func (a JSONBArray) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONBArray) Scan(value any) error {
	b, err := scanBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, &a)
}

// VariantSelection is one line of a merchandise order. Qty of zero means
// "use the order-level quantity".
type VariantSelection struct {
	VariantID uint   `json:"variantId"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
	Qty       int    `json:"qty,omitempty"`
}

type VariantSelections []VariantSelection

func (a VariantSelections) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *VariantSelections) Scan(value any) error {
	b, err := scanBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, &a)
}

type Role string

const (
	ROLE_PARTICIPANT Role = "participant"
	ROLE_ORGANIZER   Role = "organizer"
	ROLE_ADMIN       Role = "admin"
)

type EventType string

const (
	EVENT_TYPE_NORMAL      EventType = "normal"
	EVENT_TYPE_MERCHANDISE EventType = "merchandise"
)

type EventStatus string

const (
	EVENT_DRAFT     EventStatus = "draft"
	EVENT_PUBLISHED EventStatus = "published"
	EVENT_ONGOING   EventStatus = "ongoing"
	EVENT_COMPLETED EventStatus = "completed"
	EVENT_CLOSED    EventStatus = "closed"
)

type Eligibility string

const (
	ELIGIBILITY_ALL      Eligibility = "ALL"
	ELIGIBILITY_IIIT     Eligibility = "IIIT"
	ELIGIBILITY_EXTERNAL Eligibility = "EXTERNAL"
)

type ParticipantType string

const (
	PARTICIPANT_IIIT     ParticipantType = "IIIT"
	PARTICIPANT_EXTERNAL ParticipantType = "EXTERNAL"
)

type RegistrationStatus string

const (
	REGISTRATION_REGISTERED RegistrationStatus = "registered"
	REGISTRATION_CANCELLED  RegistrationStatus = "cancelled"
	REGISTRATION_REJECTED   RegistrationStatus = "rejected"
	REGISTRATION_COMPLETED  RegistrationStatus = "completed"
)

type ApprovalStatus string

const (
	APPROVAL_PENDING  ApprovalStatus = "pending"
	APPROVAL_APPROVED ApprovalStatus = "approved"
	APPROVAL_REJECTED ApprovalStatus = "rejected"
)

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type CreateEventRequestBody struct {
	Name                 string      `json:"name" binding:"required"`
	Description          string      `json:"description,omitempty"`
	Type                 EventType   `json:"type" binding:"required,oneof=normal merchandise"`
	Eligibility          Eligibility `json:"eligibility,omitempty" binding:"omitempty,oneof=ALL IIIT EXTERNAL"`
	RegistrationDeadline *string     `json:"registration_deadline,omitempty" binding:"omitempty,bookabledate" time_format:"2006-01-02 15:04:05 -07:00"`
	StartDate            *string     `json:"start_date,omitempty"`
	EndDate              *string     `json:"end_date,omitempty"`
	RegistrationLimit    uint        `json:"registration_limit,omitempty"`
	RegistrationFee      float64     `json:"registration_fee,omitempty"`
	PurchaseLimit        uint        `json:"purchase_limit,omitempty"`
	FormSchema           JSONBArray  `json:"form_schema,omitempty"`
	MerchandiseVariants  []struct {
		Product string  `json:"product"`
		Size    string  `json:"size,omitempty"`
		Color   string  `json:"color,omitempty"`
		Price   float64 `json:"price,omitempty"`
		Stock   int     `json:"stock,omitempty"`
	} `json:"merchandise_variants,omitempty"`
}

type UpdateEventStatusRequestBody struct {
	Status EventStatus `json:"status" binding:"required,oneof=ongoing completed closed"`
}

type RegisterForEventRequestBody struct {
	FormResponses JSONB `json:"formResponses,omitempty"`
}

type PlaceOrderRequestBody struct {
	VariantsSelected string `form:"variantsSelected"`
	Quantity         int    `form:"quantity"`
}

type ScanTicketRequestBody struct {
	TicketData string `json:"ticketData" binding:"required"`
}

type ManualOverrideRequestBody struct {
	TicketID       string `json:"ticketId" binding:"required"`
	OverrideReason string `json:"overrideReason" binding:"required"`
}
