package engine

import (
	"context"
	"log"
	"time"

	"fest/src/models"
	"fest/src/types"
)

// SnapshotAnalytics writes one history row per active event for the current
// UTC day. FirstOrCreate makes the pass idempotent: a rerun on the same day
// touches nothing, so the job can run at boot and on schedule.
func (e *Engine) SnapshotAnalytics(ctx context.Context) error {
	day := time.Now().UTC().Truncate(24 * time.Hour)

	var events []models.Event
	if err := e.db.
		Where("status IN ?", []types.EventStatus{
			types.EVENT_PUBLISHED,
			types.EVENT_ONGOING,
			types.EVENT_COMPLETED,
		}).
		Find(&events).Error; err != nil {
		return err
	}

	var snapshotted int
	for _, event := range events {
		row := models.EventAnalyticsHistory{
			EventID: event.ID,
			Date:    day,
		}
		res := e.db.
			Where("event_id = ? AND date = ?", event.ID, day).
			Attrs(models.EventAnalyticsHistory{
				Registrations: event.Analytics.TotalRegistrations,
				Revenue:       event.Analytics.Revenue,
				Attendance:    event.Analytics.AttendanceCount,
				Cancellations: event.Analytics.CancellationCount,
			}).
			FirstOrCreate(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			snapshotted++
		}
	}
	log.Printf("analytics snapshot: %d of %d active events captured for %s\n", snapshotted, len(events), day.Format("2006-01-02"))
	return nil
}
