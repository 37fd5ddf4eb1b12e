package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fest/src/models"
	"fest/src/types"

	"gorm.io/gorm"
)

// RegisterForEvent registers a participant for a normal event. Preconditions
// are checked in order with no side effects; everything after the
// Registration row is created runs under compensation so a later failure
// (participant list, analytics, email) leaves no trace of the attempt.
func (e *Engine) RegisterForEvent(ctx context.Context, eventID, participantID uint, formResponses types.JSONB) (*models.Registration, error) {
	var event models.Event
	if err := e.db.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("Event not found")
		}
		return nil, err
	}
	if event.Status != types.EVENT_PUBLISHED {
		return nil, errInvalid("Event is not open for registration")
	}
	if event.Type != types.EVENT_TYPE_NORMAL {
		return nil, errInvalid("Use the merchandise order endpoint for this event")
	}
	if event.RegistrationDeadline != nil && time.Now().After(*event.RegistrationDeadline) {
		return nil, errInvalid("Registration deadline has passed")
	}

	var participant models.Participant
	if err := e.db.Preload("User").First(&participant, participantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("Participant not found")
		}
		return nil, err
	}
	if event.Eligibility != types.ELIGIBILITY_ALL && string(event.Eligibility) != string(participant.ParticipantType) {
		return nil, errEligibility(fmt.Sprintf("This event is only for %s participants", event.Eligibility))
	}
	if event.RegistrationLimit > 0 && event.Analytics.TotalRegistrations >= event.RegistrationLimit {
		return nil, errInvalid("Registration limit reached")
	}
	var existing int64
	if err := e.db.Model(&models.Registration{}).
		Where("event_id = ? AND participant_id = ?", event.ID, participant.ID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, errInvalid("Already registered for this event")
	}

	// First registration freezes the form. One-way latch: rollback below
	// never reopens it.
	if !event.FormLocked {
		if err := e.db.Model(&models.Event{}).
			Where("id = ? AND form_locked = ?", event.ID, false).
			Update("form_locked", true).Error; err != nil {
			return nil, err
		}
	}

	ticketID := NewTicketID(TicketPrefixRegistration)
	qrURL, err := e.qr.Encode(newQRPayload(ticketID, event.ID, participant.ID, 0), "ticket_"+ticketID)
	if err != nil {
		return nil, errDependency("Could not generate ticket QR code", err)
	}

	registration := &models.Registration{
		EventID:         event.ID,
		ParticipantID:   participant.ID,
		ParticipantType: participant.ParticipantType,
		TicketID:        ticketID,
		QRCodeURL:       qrURL,
		FormResponses:   formResponses,
		Status:          types.REGISTRATION_REGISTERED,
	}
	if err := e.db.Create(registration).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errInvalid("Already registered for this event")
		}
		return nil, err
	}

	comp := &compensation{}
	comp.add("delete registration row", func() error {
		return e.db.Unscoped().Delete(&models.Registration{}, registration.ID).Error
	})

	err = func() error {
		if err := e.db.Model(&participant).Association("RegisteredEvents").Append(&models.Event{ID: event.ID}); err != nil {
			return err
		}
		comp.add("pull event from registered list", func() error {
			return e.db.Model(&participant).Association("RegisteredEvents").Delete(&models.Event{ID: event.ID})
		})

		delta := registrationDelta(participant.ParticipantType == types.PARTICIPANT_IIIT, event.RegistrationFee)
		if err := e.applyDelta(event.ID, delta, true); err != nil {
			return err
		}
		comp.add("revert analytics counters", func() error {
			return e.applyDelta(event.ID, delta.Invert(), false)
		})

		if err := e.mail.Send(ctx, registrationEmail(&event, participant.User.Email, ticketID, qrURL)); err != nil {
			return errDependency("Could not send ticket email", err)
		}
		return nil
	}()
	if err != nil {
		comp.rollback("RegisterForEvent")
		return nil, err
	}
	return registration, nil
}
