package engine

import (
	"strings"

	"fest/src/models"
	"fest/src/types"
)

func proofURL() *string {
	u := "https://assets.test/proofs/order.jpeg"
	return &u
}

func (s *EngineTestSuite) hoodieEvent(organizerID uint, mutate ...func(*models.Event)) *models.Event {
	return s.seedMerchEvent(organizerID, []models.MerchandiseVariant{
		{Product: "Hoodie", Size: "M", Color: "Black", Price: 500, Stock: 10},
		{Product: "Hoodie", Size: "L", Color: "Black", Price: 550, Stock: 5},
	}, mutate...)
}

func (s *EngineTestSuite) TestPlaceOrderPaidGoesPending() {
	organizer := s.seedOrganizer()
	event := s.hoodieEvent(organizer.ID)
	participant := s.seedParticipant(types.PARTICIPANT_IIIT)

	order, err := s.eng.PlaceMerchandiseOrder(s.ctx, event.ID, participant.ID, types.VariantSelections{
		{VariantID: event.MerchandiseVariants[0].ID, Qty: 2},
	}, 2, proofURL())
	s.Require().NoError(err)
	s.Equal(types.APPROVAL_PENDING, order.ApprovalStatus)
	s.Equal(float64(1000), order.RevenueAmount)
	s.Nil(order.TicketID)
	s.NotNil(order.PaymentProofURL)

	// Nothing moves until the organizer approves.
	s.Equal(10, s.reloadVariant(event.MerchandiseVariants[0].ID).Stock)
	fresh := s.reloadEvent(event.ID)
	s.Equal(uint(0), fresh.Analytics.MerchandiseSales)
	s.Equal(float64(0), fresh.Analytics.Revenue)
	s.Empty(s.mail.sent)
}

func (s *EngineTestSuite) TestPlaceOrderPaidRequiresProof() {
	organizer := s.seedOrganizer()
	event := s.hoodieEvent(organizer.ID)
	participant := s.seedParticipant(types.PARTICIPANT_IIIT)

	_, err := s.eng.PlaceMerchandiseOrder(s.ctx, event.ID, participant.ID, types.VariantSelections{
		{VariantID: event.MerchandiseVariants[0].ID, Qty: 1},
	}, 1, nil)
	s.assertKind(err, KindValidation)
	s.Equal("Payment proof is required for paid orders", MessageOf(err))
	s.EqualValues(0, s.countRows(&models.MerchandiseOrder{}, ""))
}

func (s *EngineTestSuite) TestPlaceOrderFreeFastPath() {
	organizer := s.seedOrganizer()
	event := s.seedMerchEvent(organizer.ID, []models.MerchandiseVariant{
		{Product: "Sticker Pack", Price: 0, Stock: 50},
	})
	participant := s.seedParticipant(types.PARTICIPANT_EXTERNAL)

	order, err := s.eng.PlaceMerchandiseOrder(s.ctx, event.ID, participant.ID, types.VariantSelections{
		{VariantID: event.MerchandiseVariants[0].ID, Qty: 1},
	}, 1, nil)
	s.Require().NoError(err)
	s.Equal(types.APPROVAL_APPROVED, order.ApprovalStatus)
	s.Require().NotNil(order.TicketID)
	s.True(strings.HasPrefix(*order.TicketID, "MERCH-"))
	s.NotNil(order.QRCodeURL)

	variant := s.reloadVariant(event.MerchandiseVariants[0].ID)
	s.Equal(49, variant.Stock)
	s.Equal(1, variant.Sold)

	fresh := s.reloadEvent(event.ID)
	s.Equal(uint(1), fresh.Analytics.MerchandiseSales)
	s.Equal(uint(1), fresh.Analytics.TotalRegistrations)
	s.Equal(uint(1), fresh.Analytics.ExternalRegistrations)
	s.Equal(float64(0), fresh.Analytics.Revenue)

	s.Require().Len(s.mail.sent, 1)
	s.Equal("merchandise_confirmation", s.mail.sent[0].Type)
}

func (s *EngineTestSuite) TestPlaceOrderFreeFailureDeletesOrder() {
	organizer := s.seedOrganizer()
	event := s.seedMerchEvent(organizer.ID, []models.MerchandiseVariant{
		{Product: "Sticker Pack", Price: 0, Stock: 50},
	})
	participant := s.seedParticipant(types.PARTICIPANT_IIIT)
	s.mail.fail = true

	_, err := s.eng.PlaceMerchandiseOrder(s.ctx, event.ID, participant.ID, types.VariantSelections{
		{VariantID: event.MerchandiseVariants[0].ID, Qty: 1},
	}, 1, nil)
	s.assertKind(err, KindDependency)

	s.EqualValues(0, s.countRows(&models.MerchandiseOrder{}, ""))
	variant := s.reloadVariant(event.MerchandiseVariants[0].ID)
	s.Equal(50, variant.Stock)
	s.Equal(0, variant.Sold)
	fresh := s.reloadEvent(event.ID)
	s.Equal(uint(0), fresh.Analytics.MerchandiseSales)
}

func (s *EngineTestSuite) TestPlaceOrderLegacyFeeFallback() {
	organizer := s.seedOrganizer()
	event := s.seedMerchEvent(organizer.ID, nil, func(e *models.Event) {
		e.RegistrationFee = 250
	})
	participant := s.seedParticipant(types.PARTICIPANT_IIIT)

	order, err := s.eng.PlaceMerchandiseOrder(s.ctx, event.ID, participant.ID, nil, 3, proofURL())
	s.Require().NoError(err)
	s.Equal(float64(750), order.RevenueAmount)
	s.Equal(types.APPROVAL_PENDING, order.ApprovalStatus)
}

func (s *EngineTestSuite) TestPlaceOrderPurchaseLimit() {
	organizer := s.seedOrganizer()
	event := s.hoodieEvent(organizer.ID)
	participant := s.seedParticipant(types.PARTICIPANT_IIIT)
	selection := types.VariantSelections{{VariantID: event.MerchandiseVariants[0].ID, Qty: 1}}

	_, err := s.eng.PlaceMerchandiseOrder(s.ctx, event.ID, participant.ID, selection, 1, proofURL())
	s.Require().NoError(err)

	_, err = s.eng.PlaceMerchandiseOrder(s.ctx, event.ID, participant.ID, selection, 1, proofURL())
	s.assertKind(err, KindInvalid)
	s.Equal("Purchase limit reached", MessageOf(err))
}

func (s *EngineTestSuite) TestPlaceOrderPreconditions() {
	organizer := s.seedOrganizer()
	participant := s.seedParticipant(types.PARTICIPANT_IIIT)

	_, err := s.eng.PlaceMerchandiseOrder(s.ctx, 9999, participant.ID, nil, 1, proofURL())
	s.assertKind(err, KindNotFound)

	normal := s.seedEvent(organizer.ID)
	_, err = s.eng.PlaceMerchandiseOrder(s.ctx, normal.ID, participant.ID, nil, 1, proofURL())
	s.assertKind(err, KindInvalid)

	draft := s.hoodieEvent(organizer.ID, func(e *models.Event) {
		e.Status = types.EVENT_DRAFT
	})
	_, err = s.eng.PlaceMerchandiseOrder(s.ctx, draft.ID, participant.ID, nil, 1, proofURL())
	s.assertKind(err, KindInvalid)
}

func (s *EngineTestSuite) placePendingOrder(event *models.Event, participant *models.Participant, qty int) *models.MerchandiseOrder {
	order, err := s.eng.PlaceMerchandiseOrder(s.ctx, event.ID, participant.ID, types.VariantSelections{
		{VariantID: event.MerchandiseVariants[0].ID, Qty: qty},
	}, qty, proofURL())
	s.Require().NoError(err)
	s.Require().Equal(types.APPROVAL_PENDING, order.ApprovalStatus)
	return order
}

func (s *EngineTestSuite) TestApproveOrder() {
	organizer := s.seedOrganizer()
	event := s.hoodieEvent(organizer.ID)
	participant := s.seedParticipant(types.PARTICIPANT_IIIT)
	order := s.placePendingOrder(event, participant, 2)

	approved, err := s.eng.ApproveOrder(s.ctx, order.ID, organizer.ID)
	s.Require().NoError(err)
	s.Equal(types.APPROVAL_APPROVED, approved.ApprovalStatus)
	s.Require().NotNil(approved.TicketID)
	s.True(strings.HasPrefix(*approved.TicketID, "MERCH-"))

	variant := s.reloadVariant(event.MerchandiseVariants[0].ID)
	s.Equal(8, variant.Stock)
	s.Equal(2, variant.Sold)

	fresh := s.reloadEvent(event.ID)
	s.Equal(uint(1), fresh.Analytics.MerchandiseSales)
	s.Equal(uint(1), fresh.Analytics.IIITRegistrations)
	s.Equal(float64(1000), fresh.Analytics.Revenue)
	s.Require().Len(s.mail.sent, 1)
}

func (s *EngineTestSuite) TestApproveOrderTwice() {
	organizer := s.seedOrganizer()
	event := s.hoodieEvent(organizer.ID)
	participant := s.seedParticipant(types.PARTICIPANT_IIIT)
	order := s.placePendingOrder(event, participant, 1)

	first, err := s.eng.ApproveOrder(s.ctx, order.ID, organizer.ID)
	s.Require().NoError(err)

	_, err = s.eng.ApproveOrder(s.ctx, order.ID, organizer.ID)
	s.assertKind(err, KindConflict)

	// The ticket assigned by the first approval is untouched.
	var stored models.MerchandiseOrder
	s.Require().NoError(s.db.First(&stored, order.ID).Error)
	s.Require().NotNil(stored.TicketID)
	s.Equal(*first.TicketID, *stored.TicketID)
	s.Equal(9, s.reloadVariant(event.MerchandiseVariants[0].ID).Stock)
}

func (s *EngineTestSuite) TestApproveOrderWrongOrganizer() {
	organizer := s.seedOrganizer()
	other := s.seedOrganizer()
	event := s.hoodieEvent(organizer.ID)
	participant := s.seedParticipant(types.PARTICIPANT_IIIT)
	order := s.placePendingOrder(event, participant, 1)

	_, err := s.eng.ApproveOrder(s.ctx, order.ID, other.ID)
	s.assertKind(err, KindForbidden)
}

func (s *EngineTestSuite) TestApproveOrderInsufficientStock() {
	organizer := s.seedOrganizer()
	event := s.hoodieEvent(organizer.ID)
	participant := s.seedParticipant(types.PARTICIPANT_IIIT)
	order := s.placePendingOrder(event, participant, 1)
	s.Require().NoError(s.db.Model(&models.MerchandiseVariant{}).
		Where("id = ?", event.MerchandiseVariants[0].ID).
		Update("stock", 0).Error)

	_, err := s.eng.ApproveOrder(s.ctx, order.ID, organizer.ID)
	s.assertKind(err, KindInvalid)

	// Compensation returns the order to review with no ticket assigned.
	var stored models.MerchandiseOrder
	s.Require().NoError(s.db.First(&stored, order.ID).Error)
	s.Equal(types.APPROVAL_PENDING, stored.ApprovalStatus)
	s.Nil(stored.TicketID)
	s.Equal(uint(0), s.reloadEvent(event.ID).Analytics.MerchandiseSales)
}

func (s *EngineTestSuite) TestApproveOrderMailFailureCompensates() {
	organizer := s.seedOrganizer()
	event := s.hoodieEvent(organizer.ID)
	participant := s.seedParticipant(types.PARTICIPANT_IIIT)
	order := s.placePendingOrder(event, participant, 2)
	s.mail.fail = true

	_, err := s.eng.ApproveOrder(s.ctx, order.ID, organizer.ID)
	s.assertKind(err, KindDependency)

	var stored models.MerchandiseOrder
	s.Require().NoError(s.db.First(&stored, order.ID).Error)
	s.Equal(types.APPROVAL_PENDING, stored.ApprovalStatus)
	s.Nil(stored.TicketID)
	s.Nil(stored.QRCodeURL)

	variant := s.reloadVariant(event.MerchandiseVariants[0].ID)
	s.Equal(10, variant.Stock)
	s.Equal(0, variant.Sold)
	fresh := s.reloadEvent(event.ID)
	s.Equal(uint(0), fresh.Analytics.MerchandiseSales)
	s.Equal(float64(0), fresh.Analytics.Revenue)

	// A retry after the outage succeeds.
	s.mail.fail = false
	approved, err := s.eng.ApproveOrder(s.ctx, order.ID, organizer.ID)
	s.Require().NoError(err)
	s.Equal(types.APPROVAL_APPROVED, approved.ApprovalStatus)
}

func (s *EngineTestSuite) TestRejectOrder() {
	organizer := s.seedOrganizer()
	event := s.hoodieEvent(organizer.ID)
	participant := s.seedParticipant(types.PARTICIPANT_IIIT)
	order := s.placePendingOrder(event, participant, 1)

	rejected, err := s.eng.RejectOrder(s.ctx, order.ID, organizer.ID)
	s.Require().NoError(err)
	s.Equal(types.APPROVAL_REJECTED, rejected.ApprovalStatus)

	fresh := s.reloadEvent(event.ID)
	s.Equal(uint(1), fresh.Analytics.RejectionCount)
	s.Equal(uint(0), fresh.Analytics.MerchandiseSales)
	s.Equal(10, s.reloadVariant(event.MerchandiseVariants[0].ID).Stock)

	// Resolved orders stay resolved.
	_, err = s.eng.RejectOrder(s.ctx, order.ID, organizer.ID)
	s.assertKind(err, KindConflict)
	_, err = s.eng.ApproveOrder(s.ctx, order.ID, organizer.ID)
	s.assertKind(err, KindConflict)
}
