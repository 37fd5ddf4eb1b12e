package engine

import (
	"context"
	"errors"
	"fmt"

	"fest/src/models"
	"fest/src/types"

	"gorm.io/gorm"
)

type stockLine struct {
	variantID uint
	qty       int
}

// orderLines resolves per-line quantities, falling back to the order-level
// quantity when a selection omits its own.
func orderLines(selections types.VariantSelections, defaultQty int) []stockLine {
	lines := make([]stockLine, 0, len(selections))
	for _, sel := range selections {
		qty := sel.Qty
		if qty <= 0 {
			qty = defaultQty
		}
		lines = append(lines, stockLine{variantID: sel.VariantID, qty: qty})
	}
	return lines
}

// decrementStock moves stock to sold in one guarded UPDATE. The floor check
// rejects the movement instead of letting stock go negative; two concurrent
// approvals over the same variant cannot both win the last unit.
func (e *Engine) decrementStock(eventID uint, line stockLine) error {
	res := e.db.Model(&models.MerchandiseVariant{}).
		Where("id = ? AND event_id = ? AND stock >= ?", line.variantID, eventID, line.qty).
		Updates(map[string]any{
			"stock": gorm.Expr("stock - ?", line.qty),
			"sold":  gorm.Expr("sold + ?", line.qty),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errInvalid(fmt.Sprintf("Insufficient stock for variant %d", line.variantID))
	}
	return nil
}

func (e *Engine) restoreStock(eventID uint, line stockLine) error {
	return e.db.Model(&models.MerchandiseVariant{}).
		Where("id = ? AND event_id = ?", line.variantID, eventID).
		Updates(map[string]any{
			"stock": gorm.Expr("stock + ?", line.qty),
			"sold":  gorm.Expr("sold - ?", line.qty),
		}).Error
}

// fulfillOrder runs the shared tail of the free fast path and organizer
// approval: stock movement, analytics, confirmation mail. Undo steps land on
// comp; the caller owns the rollback decision.
func (e *Engine) fulfillOrder(ctx context.Context, comp *compensation, event *models.Event, participant *models.Participant, order *models.MerchandiseOrder, ticketID, qrURL string) error {
	for _, line := range orderLines(order.VariantsSelected, order.Quantity) {
		line := line
		if err := e.decrementStock(event.ID, line); err != nil {
			return err
		}
		comp.add(fmt.Sprintf("restore stock for variant %d", line.variantID), func() error {
			return e.restoreStock(event.ID, line)
		})
	}

	delta := registrationDelta(order.ParticipantType == types.PARTICIPANT_IIIT, order.RevenueAmount)
	delta.MerchandiseSales = 1
	if err := e.applyDelta(event.ID, delta, false); err != nil {
		return err
	}
	comp.add("revert analytics counters", func() error {
		return e.applyDelta(event.ID, delta.Invert(), false)
	})

	if err := e.mail.Send(ctx, orderEmail(event, participant.User.Email, ticketID, qrURL, order.ID)); err != nil {
		return errDependency("Could not send order confirmation email", err)
	}
	return nil
}

// PlaceMerchandiseOrder creates a merchandise order. Paid orders require a
// payment proof and wait for organizer review; free orders are approved and
// ticketed in the same operation, under compensation.
func (e *Engine) PlaceMerchandiseOrder(ctx context.Context, eventID, participantID uint, selections types.VariantSelections, quantity int, proofURL *string) (*models.MerchandiseOrder, error) {
	if quantity <= 0 {
		quantity = 1
	}
	var event models.Event
	if err := e.db.Preload("MerchandiseVariants").First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("Event not found")
		}
		return nil, err
	}
	if event.Type != types.EVENT_TYPE_MERCHANDISE {
		return nil, errInvalid("Not a merchandise event")
	}
	if event.Status != types.EVENT_PUBLISHED {
		return nil, errInvalid("Event is not active")
	}

	var participant models.Participant
	if err := e.db.Preload("User").First(&participant, participantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("Participant not found")
		}
		return nil, err
	}

	purchaseLimit := event.PurchaseLimit
	if purchaseLimit == 0 {
		purchaseLimit = 1
	}
	var orderCount int64
	if err := e.db.Model(&models.MerchandiseOrder{}).
		Where("event_id = ? AND participant_id = ?", event.ID, participant.ID).
		Count(&orderCount).Error; err != nil {
		return nil, err
	}
	if orderCount >= int64(purchaseLimit) {
		return nil, errInvalid("Purchase limit reached")
	}

	// Line pricing by variant; unknown variant ids contribute nothing. The
	// flat-fee fallback covers events configured with a registration fee and
	// unpriced variants.
	var revenue float64
	for _, sel := range selections {
		for _, v := range event.MerchandiseVariants {
			if v.ID == sel.VariantID {
				qty := sel.Qty
				if qty <= 0 {
					qty = quantity
				}
				revenue += v.Price * float64(qty)
				break
			}
		}
	}
	if revenue == 0 && event.RegistrationFee > 0 {
		revenue = event.RegistrationFee * float64(quantity)
	}

	isFree := revenue == 0
	if !isFree && proofURL == nil {
		return nil, errValidation("Payment proof is required for paid orders")
	}
	if isFree {
		proofURL = nil
	}

	order := &models.MerchandiseOrder{
		EventID:          event.ID,
		ParticipantID:    participant.ID,
		ParticipantType:  participant.ParticipantType,
		VariantsSelected: selections,
		Quantity:         quantity,
		RevenueAmount:    revenue,
		PaymentProofURL:  proofURL,
		ApprovalStatus:   types.APPROVAL_PENDING,
	}
	if isFree {
		order.ApprovalStatus = types.APPROVAL_APPROVED
	}
	if err := e.db.Create(order).Error; err != nil {
		return nil, err
	}
	if !isFree {
		return order, nil
	}

	// Free fast path: ticket, stock and counters in the same logical
	// operation.
	comp := &compensation{}
	comp.add("delete order row", func() error {
		return e.db.Unscoped().Delete(&models.MerchandiseOrder{}, order.ID).Error
	})
	err := func() error {
		ticketID := NewTicketID(TicketPrefixMerchandise)
		qrURL, err := e.qr.Encode(newQRPayload(ticketID, event.ID, participant.ID, order.ID), "ticket_"+ticketID)
		if err != nil {
			return errDependency("Could not generate ticket QR code", err)
		}
		if err := e.db.Model(order).Updates(map[string]any{
			"ticket_id":   ticketID,
			"qr_code_url": qrURL,
		}).Error; err != nil {
			return err
		}
		order.TicketID = &ticketID
		order.QRCodeURL = &qrURL
		return e.fulfillOrder(ctx, comp, &event, &participant, order, ticketID, qrURL)
	}()
	if err != nil {
		comp.rollback("PlaceMerchandiseOrder")
		return nil, err
	}
	return order, nil
}

// ApproveOrder resolves a pending order: assigns the ticket exactly once,
// moves stock, counts the sale and notifies the participant. The
// pending-to-approved transition is a conditional UPDATE, so a double approval
// loses with Conflict instead of issuing a second ticket.
func (e *Engine) ApproveOrder(ctx context.Context, orderID, organizerID uint) (*models.MerchandiseOrder, error) {
	var order models.MerchandiseOrder
	if err := e.db.Preload("Event").Preload("Participant.User").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("Order not found")
		}
		return nil, err
	}
	if order.Event.OrganizerID != organizerID {
		return nil, errForbidden("This order is not for your event")
	}
	if order.ApprovalStatus != types.APPROVAL_PENDING {
		return nil, errConflict("Order has already been resolved")
	}

	ticketID := NewTicketID(TicketPrefixMerchandise)
	qrURL, err := e.qr.Encode(newQRPayload(ticketID, order.EventID, order.ParticipantID, order.ID), "ticket_"+ticketID)
	if err != nil {
		return nil, errDependency("Could not generate ticket QR code", err)
	}

	res := e.db.Model(&models.MerchandiseOrder{}).
		Where("id = ? AND approval_status = ?", order.ID, types.APPROVAL_PENDING).
		Updates(map[string]any{
			"approval_status": types.APPROVAL_APPROVED,
			"ticket_id":       ticketID,
			"qr_code_url":     qrURL,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errConflict("Order has already been resolved")
	}

	comp := &compensation{}
	comp.add("revert order to pending", func() error {
		return e.db.Model(&models.MerchandiseOrder{}).
			Where("id = ?", order.ID).
			Updates(map[string]any{
				"approval_status": types.APPROVAL_PENDING,
				"ticket_id":       nil,
				"qr_code_url":     nil,
			}).Error
	})
	order.ApprovalStatus = types.APPROVAL_APPROVED
	order.TicketID = &ticketID
	order.QRCodeURL = &qrURL

	if err := e.fulfillOrder(ctx, comp, &order.Event, &order.Participant, &order, ticketID, qrURL); err != nil {
		comp.rollback("ApproveOrder")
		return nil, err
	}
	return &order, nil
}

// RejectOrder resolves a pending order without stock or ticket movement.
func (e *Engine) RejectOrder(ctx context.Context, orderID, organizerID uint) (*models.MerchandiseOrder, error) {
	var order models.MerchandiseOrder
	if err := e.db.Preload("Event").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("Order not found")
		}
		return nil, err
	}
	if order.Event.OrganizerID != organizerID {
		return nil, errForbidden("This order is not for your event")
	}

	res := e.db.Model(&models.MerchandiseOrder{}).
		Where("id = ? AND approval_status = ?", order.ID, types.APPROVAL_PENDING).
		Update("approval_status", types.APPROVAL_REJECTED)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errConflict("Order has already been resolved")
	}
	order.ApprovalStatus = types.APPROVAL_REJECTED

	if err := e.applyDelta(order.EventID, Delta{RejectionCount: 1}, false); err != nil {
		if undoErr := e.db.Model(&models.MerchandiseOrder{}).
			Where("id = ?", order.ID).
			Update("approval_status", types.APPROVAL_PENDING).Error; undoErr != nil {
			logRollbackFailure("RejectOrder", "revert order to pending", undoErr)
		}
		return nil, err
	}
	return &order, nil
}
