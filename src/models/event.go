package models

import (
	"time"

	"fest/src/types"
)

// Analytics counters live on the event row itself so every increment is one
// UPDATE. Column names are pinned because the aggregator addresses them with
// raw expressions.
type Analytics struct {
	TotalRegistrations    uint    `gorm:"column:total_registrations" json:"totalRegistrations"`
	IIITRegistrations     uint    `gorm:"column:iiit_registrations" json:"iiitRegistrations"`
	ExternalRegistrations uint    `gorm:"column:external_registrations" json:"externalRegistrations"`
	MerchandiseSales      uint    `gorm:"column:merchandise_sales" json:"merchandiseSales"`
	Revenue               float64 `gorm:"column:revenue" json:"revenue"`
	AttendanceCount       uint    `gorm:"column:attendance_count" json:"attendanceCount"`
	CancellationCount     uint    `gorm:"column:cancellation_count" json:"cancellationCount"`
	RejectionCount        uint    `gorm:"column:rejection_count" json:"rejectionCount"`
	PageViews             uint    `gorm:"column:page_views" json:"pageViews"`
}

type Event struct {
	ID                   uint              `gorm:"primarykey" json:"id"`
	OrganizerID          uint              `json:"organizer_id,omitempty"`
	Name                 string            `json:"name,omitempty"`
	Slug                 string            `json:"slug,omitempty"`
	Description          *string           `json:"description,omitempty"`
	Type                 types.EventType   `gorm:"default:'normal'" json:"type,omitempty"`
	Eligibility          types.Eligibility `gorm:"default:'ALL'" json:"eligibility,omitempty"`
	Status               types.EventStatus `gorm:"default:'draft'" json:"status,omitempty"`
	RegistrationDeadline *time.Time        `json:"registration_deadline,omitempty"`
	StartDate            *time.Time        `json:"start_date,omitempty"`
	EndDate              *time.Time        `json:"end_date,omitempty"`
	RegistrationLimit    uint              `json:"registration_limit"` // 0 = unlimited
	RegistrationFee      float64           `json:"registration_fee"`
	PurchaseLimit        uint              `gorm:"default:1" json:"purchase_limit,omitempty"`
	FormSchema           types.JSONBArray  `gorm:"type:jsonb" json:"form_schema,omitempty"`
	FormLocked           bool              `json:"form_locked"`
	Analytics            Analytics         `gorm:"embedded;embeddedPrefix:analytics_" json:"analytics"`

	Organizer           Organizer            `gorm:"foreignKey:organizer_id" json:"-"`
	MerchandiseVariants []MerchandiseVariant `gorm:"foreignKey:event_id" json:"merchandise_variants,omitempty"`

	types.Timestamps
}

// MerchandiseVariant is a purchasable SKU owned by its event. Stock and sold
// move together in a single guarded UPDATE; stock never goes below zero.
type MerchandiseVariant struct {
	ID      uint    `gorm:"primarykey" json:"id"`
	EventID uint    `json:"event_id,omitempty"`
	Product string  `json:"product,omitempty"`
	Size    string  `json:"size,omitempty"`
	Color   string  `json:"color,omitempty"`
	Price   float64 `json:"price"`
	Stock   int     `json:"stock"`
	Sold    int     `json:"sold"`

	types.Timestamps
}
