package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fest/src/config"
	"fest/src/models"
	"fest/src/types"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// statusRank orders event lifecycle states. Transitions only move up.
var statusRank = map[types.EventStatus]int{
	types.EVENT_DRAFT:     0,
	types.EVENT_PUBLISHED: 1,
	types.EVENT_ONGOING:   2,
	types.EVENT_COMPLETED: 3,
	types.EVENT_CLOSED:    4,
}

func parseEventTime(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := time.Parse(config.TIME_PARSE_FORMAT, *value)
	if err != nil {
		return nil, errValidation(fmt.Sprintf("Invalid date value: %s", *value))
	}
	return &t, nil
}

// CreateEvent creates a draft event owned by the organizer, with its variants
// when the event sells merchandise.
func (e *Engine) CreateEvent(ctx context.Context, organizerID uint, body *types.CreateEventRequestBody) (*models.Event, error) {
	deadline, err := parseEventTime(body.RegistrationDeadline)
	if err != nil {
		return nil, err
	}
	startDate, err := parseEventTime(body.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := parseEventTime(body.EndDate)
	if err != nil {
		return nil, err
	}

	eligibility := body.Eligibility
	if eligibility == "" {
		eligibility = types.ELIGIBILITY_ALL
	}
	purchaseLimit := body.PurchaseLimit
	if purchaseLimit == 0 {
		purchaseLimit = 1
	}

	event := &models.Event{
		OrganizerID:          organizerID,
		Name:                 body.Name,
		Slug:                 slug.Make(body.Name),
		Type:                 body.Type,
		Eligibility:          eligibility,
		Status:               types.EVENT_DRAFT,
		RegistrationDeadline: deadline,
		StartDate:            startDate,
		EndDate:              endDate,
		RegistrationLimit:    body.RegistrationLimit,
		RegistrationFee:      body.RegistrationFee,
		PurchaseLimit:        purchaseLimit,
		FormSchema:           body.FormSchema,
	}
	if body.Description != "" {
		event.Description = &body.Description
	}
	if body.Type == types.EVENT_TYPE_MERCHANDISE {
		if len(body.MerchandiseVariants) == 0 {
			return nil, errValidation("Merchandise events need at least one variant")
		}
		for _, v := range body.MerchandiseVariants {
			if v.Product == "" {
				return nil, errValidation("Variant product name is required")
			}
			if v.Price < 0 || v.Stock < 0 {
				return nil, errValidation("Variant price and stock must not be negative")
			}
			event.MerchandiseVariants = append(event.MerchandiseVariants, models.MerchandiseVariant{
				Product: v.Product,
				Size:    v.Size,
				Color:   v.Color,
				Price:   v.Price,
				Stock:   v.Stock,
			})
		}
	}
	if err := e.db.Create(event).Error; err != nil {
		return nil, err
	}
	return event, nil
}

// PublishEvent flips a draft event live. The transition is a conditional
// UPDATE keyed on the draft state so republishing is rejected.
func (e *Engine) PublishEvent(ctx context.Context, eventID, organizerID uint) (*models.Event, error) {
	event, err := e.ownedEvent(eventID, organizerID)
	if err != nil {
		return nil, err
	}
	res := e.db.Model(&models.Event{}).
		Where("id = ? AND status = ?", event.ID, types.EVENT_DRAFT).
		Update("status", types.EVENT_PUBLISHED)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errInvalid("Only draft events can be published")
	}
	event.Status = types.EVENT_PUBLISHED
	return event, nil
}

// UpdateEventStatus advances the lifecycle. Moving backwards, or repeating
// the current state, is rejected; the WHERE clause pins the state the
// decision was made against.
func (e *Engine) UpdateEventStatus(ctx context.Context, eventID, organizerID uint, next types.EventStatus) (*models.Event, error) {
	event, err := e.ownedEvent(eventID, organizerID)
	if err != nil {
		return nil, err
	}
	nextRank, ok := statusRank[next]
	if !ok {
		return nil, errValidation(fmt.Sprintf("Unknown event status: %s", next))
	}
	if nextRank <= statusRank[event.Status] {
		return nil, errInvalid(fmt.Sprintf("Cannot move event from %s to %s", event.Status, next))
	}
	res := e.db.Model(&models.Event{}).
		Where("id = ? AND status = ?", event.ID, event.Status).
		Update("status", next)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errConflict("Event status changed concurrently")
	}
	event.Status = next
	return event, nil
}

// UpdateFormSchema replaces the registration form. The form locks on the
// first registration and never reopens.
func (e *Engine) UpdateFormSchema(ctx context.Context, eventID, organizerID uint, schema types.JSONBArray) (*models.Event, error) {
	event, err := e.ownedEvent(eventID, organizerID)
	if err != nil {
		return nil, err
	}
	res := e.db.Model(&models.Event{}).
		Where("id = ? AND form_locked = ?", event.ID, false).
		Update("form_schema", schema)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errInvalid("Form is locked after the first registration")
	}
	event.FormSchema = schema
	return event, nil
}

// IncrementPageViews counts a public event detail view.
func (e *Engine) IncrementPageViews(ctx context.Context, eventID uint) error {
	return e.applyDelta(eventID, Delta{PageViews: 1}, false)
}

// DeleteEventCascade removes the event and every dependent row in one
// transaction. Dependents are swept explicitly so nothing relies on database
// level cascade rules.
func (e *Engine) DeleteEventCascade(ctx context.Context, eventID, organizerID uint) error {
	event, err := e.ownedEvent(eventID, organizerID)
	if err != nil {
		return err
	}
	return e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("event_id = ?", event.ID).Delete(&models.Registration{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("event_id = ?", event.ID).Delete(&models.MerchandiseOrder{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", event.ID).Delete(&models.AttendanceLog{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("event_id = ?", event.ID).Delete(&models.MerchandiseVariant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", event.ID).Delete(&models.EventAnalyticsHistory{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM participant_registered_events WHERE event_id = ?", event.ID).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.Event{}, event.ID).Error
	})
}

func (e *Engine) ownedEvent(eventID, organizerID uint) (*models.Event, error) {
	var event models.Event
	if err := e.db.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("Event not found")
		}
		return nil, err
	}
	if event.OrganizerID != organizerID {
		return nil, errForbidden("This event is not yours")
	}
	return &event, nil
}
