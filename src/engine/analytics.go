package engine

import (
	"fest/src/models"

	"gorm.io/gorm"
)

// Delta is one batch of analytics counter movements. Every mutation site in
// the engine funnels through applyDelta so the increments stay atomic and the
// capacity guard lives in exactly one place.
type Delta struct {
	TotalRegistrations    int
	IIITRegistrations     int
	ExternalRegistrations int
	MerchandiseSales      int
	AttendanceCount       int
	CancellationCount     int
	RejectionCount        int
	PageViews             int
	Revenue               float64
}

func (d Delta) Invert() Delta {
	return Delta{
		TotalRegistrations:    -d.TotalRegistrations,
		IIITRegistrations:     -d.IIITRegistrations,
		ExternalRegistrations: -d.ExternalRegistrations,
		MerchandiseSales:      -d.MerchandiseSales,
		AttendanceCount:       -d.AttendanceCount,
		CancellationCount:     -d.CancellationCount,
		RejectionCount:        -d.RejectionCount,
		PageViews:             -d.PageViews,
		Revenue:               -d.Revenue,
	}
}

func (d Delta) columns() map[string]any {
	cols := map[string]any{}
	add := func(col string, n int) {
		if n != 0 {
			cols[col] = gorm.Expr(col+" + ?", n)
		}
	}
	add("analytics_total_registrations", d.TotalRegistrations)
	add("analytics_iiit_registrations", d.IIITRegistrations)
	add("analytics_external_registrations", d.ExternalRegistrations)
	add("analytics_merchandise_sales", d.MerchandiseSales)
	add("analytics_attendance_count", d.AttendanceCount)
	add("analytics_cancellation_count", d.CancellationCount)
	add("analytics_rejection_count", d.RejectionCount)
	add("analytics_page_views", d.PageViews)
	if d.Revenue != 0 {
		cols["analytics_revenue"] = gorm.Expr("analytics_revenue + ?", d.Revenue)
	}
	return cols
}

// registrationDelta is the counter movement shared by event registrations and
// approved merchandise orders.
func registrationDelta(isIIIT bool, revenue float64) Delta {
	d := Delta{TotalRegistrations: 1, Revenue: revenue}
	if isIIIT {
		d.IIITRegistrations = 1
	} else {
		d.ExternalRegistrations = 1
	}
	return d
}

// applyDelta increments the event's counters in a single UPDATE. With
// enforceLimit set and a positive registration delta the row is guarded by
// the capacity condition, so two racing registrations cannot both slip past a
// cap: the UPDATE that matches no row loses.
func (e *Engine) applyDelta(eventID uint, d Delta, enforceLimit bool) error {
	cols := d.columns()
	if len(cols) == 0 {
		return nil
	}
	tx := e.db.Model(&models.Event{}).Where("id = ?", eventID)
	if enforceLimit && d.TotalRegistrations > 0 {
		tx = tx.Where(
			"registration_limit = 0 OR analytics_total_registrations + ? <= registration_limit",
			d.TotalRegistrations,
		)
	}
	res := tx.Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := e.db.Model(&models.Event{}).Where("id = ?", eventID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errNotFound("Event not found")
		}
		return errInvalid("Registration limit reached")
	}
	return nil
}
