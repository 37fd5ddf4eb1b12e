package models

import "time"

// EventAnalyticsHistory is the daily snapshot of an event's counters, one row
// per (event, day).
type EventAnalyticsHistory struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	EventID       uint      `gorm:"index:idx_analytics_history_event_date,unique" json:"event_id,omitempty"`
	Date          time.Time `gorm:"index:idx_analytics_history_event_date,unique" json:"date,omitempty"`
	Registrations uint      `json:"registrations"`
	Revenue       float64   `json:"revenue"`
	Attendance    uint      `json:"attendance"`
	Cancellations uint      `json:"cancellations"`
	CreatedAt     time.Time `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
}
