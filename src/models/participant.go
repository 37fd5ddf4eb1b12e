package models

import "fest/src/types"

type Participant struct {
	ID              uint                  `gorm:"primarykey" json:"id"`
	UserID          uint                  `gorm:"uniqueIndex" json:"user_id,omitempty"`
	FirstName       string                `json:"first_name,omitempty"`
	LastName        string                `json:"last_name,omitempty"`
	ParticipantType types.ParticipantType `json:"participant_type,omitempty"`
	CollegeName     string                `json:"college_name,omitempty"`
	ContactNumber   string                `json:"contact_number,omitempty"`

	User             User     `gorm:"foreignKey:user_id" json:"-"`
	RegisteredEvents []*Event `gorm:"many2many:participant_registered_events;" json:"registered_events,omitempty"`

	types.Timestamps
}

type Organizer struct {
	ID       uint    `gorm:"primarykey" json:"id"`
	UserID   uint    `gorm:"uniqueIndex" json:"user_id,omitempty"`
	Name     string  `json:"name,omitempty"`
	Category *string `json:"category,omitempty"`
	About    *string `json:"about,omitempty"`

	User User `gorm:"foreignKey:user_id" json:"-"`

	types.Timestamps
}
