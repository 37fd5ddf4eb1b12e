package engine

import (
	"strings"
	"time"

	"fest/src/models"
	"fest/src/types"

	"gorm.io/gorm"
)

func (s *EngineTestSuite) TestRegisterForEvent() {
	organizer := s.seedOrganizer()
	event := s.seedEvent(organizer.ID, func(e *models.Event) {
		e.RegistrationFee = 150
		e.RegistrationDeadline = futureTime(24 * time.Hour)
	})
	participant := s.seedParticipant(types.PARTICIPANT_IIIT)

	registration, err := s.eng.RegisterForEvent(s.ctx, event.ID, participant.ID, types.JSONB{"tshirt": "M"})
	s.Require().NoError(err)
	s.True(strings.HasPrefix(registration.TicketID, "FEL-"))
	s.NotEmpty(registration.QRCodeURL)
	s.Equal(types.REGISTRATION_REGISTERED, registration.Status)

	fresh := s.reloadEvent(event.ID)
	s.Equal(uint(1), fresh.Analytics.TotalRegistrations)
	s.Equal(uint(1), fresh.Analytics.IIITRegistrations)
	s.Equal(uint(0), fresh.Analytics.ExternalRegistrations)
	s.Equal(float64(150), fresh.Analytics.Revenue)
	s.True(fresh.FormLocked)

	var registered []models.Event
	s.Require().NoError(s.db.Model(s.reloadParticipant(participant.ID)).Association("RegisteredEvents").Find(&registered))
	s.Len(registered, 1)

	s.Require().Len(s.mail.sent, 1)
	s.Contains(s.mail.sent[0].Subject, event.Name)
	s.Equal(participant.User.Email, s.mail.sent[0].To[0])
}

func (s *EngineTestSuite) TestRegisterForEventDuplicate() {
	organizer := s.seedOrganizer()
	event := s.seedEvent(organizer.ID)
	participant := s.seedParticipant(types.PARTICIPANT_EXTERNAL)

	_, err := s.eng.RegisterForEvent(s.ctx, event.ID, participant.ID, nil)
	s.Require().NoError(err)

	_, err = s.eng.RegisterForEvent(s.ctx, event.ID, participant.ID, nil)
	s.assertKind(err, KindInvalid)
	s.Equal("Already registered for this event", MessageOf(err))

	fresh := s.reloadEvent(event.ID)
	s.Equal(uint(1), fresh.Analytics.TotalRegistrations)
}

func (s *EngineTestSuite) TestRegisterForEventCapacity() {
	organizer := s.seedOrganizer()
	event := s.seedEvent(organizer.ID, func(e *models.Event) {
		e.RegistrationLimit = 2
	})

	for i := 0; i < 2; i++ {
		participant := s.seedParticipant(types.PARTICIPANT_IIIT)
		_, err := s.eng.RegisterForEvent(s.ctx, event.ID, participant.ID, nil)
		s.Require().NoError(err)
	}

	late := s.seedParticipant(types.PARTICIPANT_IIIT)
	_, err := s.eng.RegisterForEvent(s.ctx, event.ID, late.ID, nil)
	s.assertKind(err, KindInvalid)
	s.Equal("Registration limit reached", MessageOf(err))

	fresh := s.reloadEvent(event.ID)
	s.Equal(uint(2), fresh.Analytics.TotalRegistrations)
	s.EqualValues(2, s.countRows(&models.Registration{}, "event_id = ?", event.ID))
}

func (s *EngineTestSuite) TestRegisterForEventCapacityRace() {
	organizer := s.seedOrganizer()
	event := s.seedEvent(organizer.ID, func(e *models.Event) {
		e.RegistrationLimit = 1
	})
	participant := s.seedParticipant(types.PARTICIPANT_IIIT)

	// A rival grabs the last slot between this attempt's precondition read
	// and its counter increment. The guarded UPDATE, not the stale
	// precondition, must reject the loser.
	s.Require().NoError(s.db.Callback().Create().After("gorm:create").Register("rival_claims_slot", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Dest.(*models.Registration); !ok {
			return
		}
		tx.Exec(
			"UPDATE events SET analytics_total_registrations = analytics_total_registrations + 1 WHERE id = ?",
			event.ID,
		)
	}))
	defer s.db.Callback().Create().Remove("rival_claims_slot")

	_, err := s.eng.RegisterForEvent(s.ctx, event.ID, participant.ID, nil)
	s.assertKind(err, KindInvalid)
	s.Equal("Registration limit reached", MessageOf(err))

	// The loser's row is rolled back; only the rival's claim remains.
	s.EqualValues(0, s.countRows(&models.Registration{}, "event_id = ?", event.ID))
	fresh := s.reloadEvent(event.ID)
	s.Equal(uint(1), fresh.Analytics.TotalRegistrations)
	s.Equal(uint(0), fresh.Analytics.IIITRegistrations)
	s.EqualValues(0, s.db.Model(s.reloadParticipant(participant.ID)).Association("RegisteredEvents").Count())
	s.Empty(s.mail.sent)
}

func (s *EngineTestSuite) TestRegisterForEventEligibility() {
	organizer := s.seedOrganizer()
	event := s.seedEvent(organizer.ID, func(e *models.Event) {
		e.Eligibility = types.ELIGIBILITY_IIIT
	})
	external := s.seedParticipant(types.PARTICIPANT_EXTERNAL)

	_, err := s.eng.RegisterForEvent(s.ctx, event.ID, external.ID, nil)
	s.assertKind(err, KindEligibility)
	s.Equal("This event is only for IIIT participants", MessageOf(err))
	s.EqualValues(0, s.countRows(&models.Registration{}, ""))
}

func (s *EngineTestSuite) TestRegisterForEventDeadlinePassed() {
	organizer := s.seedOrganizer()
	event := s.seedEvent(organizer.ID, func(e *models.Event) {
		e.RegistrationDeadline = futureTime(-time.Hour)
	})
	participant := s.seedParticipant(types.PARTICIPANT_IIIT)

	_, err := s.eng.RegisterForEvent(s.ctx, event.ID, participant.ID, nil)
	s.assertKind(err, KindInvalid)
	s.Equal("Registration deadline has passed", MessageOf(err))
}

func (s *EngineTestSuite) TestRegisterForEventNotPublished() {
	organizer := s.seedOrganizer()
	event := s.seedEvent(organizer.ID, func(e *models.Event) {
		e.Status = types.EVENT_DRAFT
	})
	participant := s.seedParticipant(types.PARTICIPANT_IIIT)

	_, err := s.eng.RegisterForEvent(s.ctx, event.ID, participant.ID, nil)
	s.assertKind(err, KindInvalid)
}

func (s *EngineTestSuite) TestRegisterForEventWrongType() {
	organizer := s.seedOrganizer()
	event := s.seedMerchEvent(organizer.ID, []models.MerchandiseVariant{
		{Product: "Hoodie", Price: 500, Stock: 10},
	})
	participant := s.seedParticipant(types.PARTICIPANT_IIIT)

	_, err := s.eng.RegisterForEvent(s.ctx, event.ID, participant.ID, nil)
	s.assertKind(err, KindInvalid)
}

func (s *EngineTestSuite) TestRegisterForEventMissingRows() {
	organizer := s.seedOrganizer()
	event := s.seedEvent(organizer.ID)
	participant := s.seedParticipant(types.PARTICIPANT_IIIT)

	_, err := s.eng.RegisterForEvent(s.ctx, 9999, participant.ID, nil)
	s.assertKind(err, KindNotFound)

	_, err = s.eng.RegisterForEvent(s.ctx, event.ID, 9999, nil)
	s.assertKind(err, KindNotFound)
}

func (s *EngineTestSuite) TestRegisterForEventQRFailureLeavesNoTrace() {
	organizer := s.seedOrganizer()
	event := s.seedEvent(organizer.ID)
	participant := s.seedParticipant(types.PARTICIPANT_IIIT)
	s.qr.fail = true

	_, err := s.eng.RegisterForEvent(s.ctx, event.ID, participant.ID, nil)
	s.assertKind(err, KindDependency)
	s.EqualValues(0, s.countRows(&models.Registration{}, ""))

	fresh := s.reloadEvent(event.ID)
	s.Equal(uint(0), fresh.Analytics.TotalRegistrations)
	s.Empty(s.mail.sent)
}

func (s *EngineTestSuite) TestRegisterForEventMailFailureRollsBack() {
	organizer := s.seedOrganizer()
	event := s.seedEvent(organizer.ID, func(e *models.Event) {
		e.RegistrationFee = 99
	})
	participant := s.seedParticipant(types.PARTICIPANT_EXTERNAL)
	s.mail.fail = true

	_, err := s.eng.RegisterForEvent(s.ctx, event.ID, participant.ID, nil)
	s.assertKind(err, KindDependency)

	s.EqualValues(0, s.countRows(&models.Registration{}, ""))
	fresh := s.reloadEvent(event.ID)
	s.Equal(uint(0), fresh.Analytics.TotalRegistrations)
	s.Equal(uint(0), fresh.Analytics.ExternalRegistrations)
	s.Equal(float64(0), fresh.Analytics.Revenue)

	registered := s.db.Model(s.reloadParticipant(participant.ID)).Association("RegisteredEvents").Count()
	s.EqualValues(0, registered)

	// Form lock is a one-way latch: rollback does not reopen it.
	s.True(fresh.FormLocked)

	// The slot freed by the rollback is usable again.
	s.mail.fail = false
	_, err = s.eng.RegisterForEvent(s.ctx, event.ID, participant.ID, nil)
	s.Require().NoError(err)
}
