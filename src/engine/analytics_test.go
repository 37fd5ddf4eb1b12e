package engine

import (
	"fest/src/models"
)

func (s *EngineTestSuite) TestApplyDeltaEnforcesLimit() {
	organizer := s.seedOrganizer()
	event := s.seedEvent(organizer.ID, func(e *models.Event) {
		e.RegistrationLimit = 1
	})

	s.Require().NoError(s.eng.applyDelta(event.ID, Delta{TotalRegistrations: 1}, true))
	s.Equal(uint(1), s.reloadEvent(event.ID).Analytics.TotalRegistrations)

	// At capacity the guarded UPDATE matches no row and the counter holds.
	err := s.eng.applyDelta(event.ID, Delta{TotalRegistrations: 1}, true)
	s.assertKind(err, KindInvalid)
	s.Equal("Registration limit reached", MessageOf(err))
	s.Equal(uint(1), s.reloadEvent(event.ID).Analytics.TotalRegistrations)

	// Rollback inversions skip the guard so compensation always lands.
	s.Require().NoError(s.eng.applyDelta(event.ID, Delta{TotalRegistrations: 1}, false))
	s.Equal(uint(2), s.reloadEvent(event.ID).Analytics.TotalRegistrations)
}

func (s *EngineTestSuite) TestApplyDeltaMissingEvent() {
	err := s.eng.applyDelta(9999, Delta{TotalRegistrations: 1}, true)
	s.assertKind(err, KindNotFound)
}
