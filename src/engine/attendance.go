package engine

import (
	"context"
	"errors"
	"time"

	"fest/src/models"
	"fest/src/types"

	"gorm.io/gorm"
)

// ScanResult describes the ticket a scan resolved to. Exactly one of
// Registration and Order is set, matching Kind. AlreadyMarked is only
// meaningful for manual overrides, which log every attempt but count
// attendance once.
type ScanResult struct {
	Kind          TicketKind               `json:"-"`
	TicketID      string                   `json:"ticket_id"`
	EventID       uint                     `json:"event_id"`
	ParticipantID uint                     `json:"participant_id"`
	AlreadyMarked bool                     `json:"already_marked"`
	Registration  *models.Registration     `json:"registration,omitempty"`
	Order         *models.MerchandiseOrder `json:"order,omitempty"`
}

// findTicket resolves a ticket id to its owning row. The prefix picks the
// collection; ids without a known prefix are looked up in both.
func (e *Engine) findTicket(ticketID string) (*ScanResult, error) {
	kind := TicketNamespace(ticketID)
	if kind == TicketKindRegistration || kind == TicketKindUnknown {
		var reg models.Registration
		err := e.db.Preload("Event").Preload("Participant.User").
			Where("ticket_id = ?", ticketID).First(&reg).Error
		if err == nil {
			return &ScanResult{
				Kind:          TicketKindRegistration,
				TicketID:      ticketID,
				EventID:       reg.EventID,
				ParticipantID: reg.ParticipantID,
				Registration:  &reg,
			}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if kind == TicketKindMerchandise || kind == TicketKindUnknown {
		var order models.MerchandiseOrder
		err := e.db.Preload("Event").Preload("Participant.User").
			Where("ticket_id = ?", ticketID).First(&order).Error
		if err == nil {
			return &ScanResult{
				Kind:          TicketKindMerchandise,
				TicketID:      ticketID,
				EventID:       order.EventID,
				ParticipantID: order.ParticipantID,
				Order:         &order,
			}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, errNotFound("Ticket not found")
}

func (e *Engine) checkScannable(res *ScanResult, organizerID uint) error {
	var ownerID uint
	switch res.Kind {
	case TicketKindRegistration:
		ownerID = res.Registration.Event.OrganizerID
	case TicketKindMerchandise:
		ownerID = res.Order.Event.OrganizerID
		if res.Order.ApprovalStatus != types.APPROVAL_APPROVED {
			return errInvalid("Order is not approved")
		}
	}
	if ownerID != organizerID {
		return errForbidden("This ticket is not for your event")
	}
	return nil
}

// flipAttendance marks the ticket attended with a conditional UPDATE keyed on
// the unmarked state. A second scan matches no row and reports false.
func (e *Engine) flipAttendance(res *ScanResult, at time.Time) (bool, error) {
	cols := map[string]any{
		"attendance_marked":    true,
		"attendance_timestamp": at,
	}
	var tx *gorm.DB
	switch res.Kind {
	case TicketKindRegistration:
		tx = e.db.Model(&models.Registration{}).
			Where("id = ? AND attendance_marked = ?", res.Registration.ID, false).
			Updates(cols)
	case TicketKindMerchandise:
		tx = e.db.Model(&models.MerchandiseOrder{}).
			Where("id = ? AND attendance_marked = ?", res.Order.ID, false).
			Updates(cols)
	}
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (e *Engine) revertAttendance(res *ScanResult) error {
	cols := map[string]any{
		"attendance_marked":    false,
		"attendance_timestamp": nil,
	}
	switch res.Kind {
	case TicketKindRegistration:
		return e.db.Model(&models.Registration{}).
			Where("id = ?", res.Registration.ID).Updates(cols).Error
	default:
		return e.db.Model(&models.MerchandiseOrder{}).
			Where("id = ?", res.Order.ID).Updates(cols).Error
	}
}

func (e *Engine) appendAttendanceLog(res *ScanResult, at time.Time, scannedBy uint, manual bool, reason *string) (*models.AttendanceLog, error) {
	entry := &models.AttendanceLog{
		EventID:        res.EventID,
		ParticipantID:  res.ParticipantID,
		TicketID:       res.TicketID,
		ScannedAt:      at,
		ScannedBy:      scannedBy,
		ManualOverride: manual,
		OverrideReason: reason,
	}
	if err := e.db.Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// ScanTicket marks attendance from a scanned QR payload. The payload may be
// the full JSON envelope or a bare ticket id. Rescanning a marked ticket is a
// Conflict and leaves no new log entry.
func (e *Engine) ScanTicket(ctx context.Context, ticketData string, organizerID uint) (*ScanResult, error) {
	ticketID := ExtractTicketID(ticketData)
	if ticketID == "" {
		return nil, errValidation("Ticket data is required")
	}
	res, err := e.findTicket(ticketID)
	if err != nil {
		return nil, err
	}
	if err := e.checkScannable(res, organizerID); err != nil {
		return nil, err
	}

	now := time.Now()
	flipped, err := e.flipAttendance(res, now)
	if err != nil {
		return nil, err
	}
	if !flipped {
		return nil, errConflict("Attendance already marked for this ticket")
	}

	comp := &compensation{}
	comp.add("revert attendance flag", func() error {
		return e.revertAttendance(res)
	})
	err = func() error {
		entry, err := e.appendAttendanceLog(res, now, organizerID, false, nil)
		if err != nil {
			return err
		}
		comp.add("delete attendance log entry", func() error {
			return e.db.Delete(&models.AttendanceLog{}, entry.ID).Error
		})
		return e.applyDelta(res.EventID, Delta{AttendanceCount: 1}, false)
	}()
	if err != nil {
		comp.rollback("ScanTicket")
		return nil, err
	}

	markScanResult(res, now)
	return res, nil
}

// ManualOverride marks attendance by ticket id when the QR flow is not
// usable. Every override is logged with its reason, including overrides of
// tickets already marked; the attendance counter only moves on the first
// mark.
func (e *Engine) ManualOverride(ctx context.Context, ticketID, reason string, organizerID uint) (*ScanResult, error) {
	if reason == "" {
		return nil, errValidation("Override reason is required")
	}
	res, err := e.findTicket(ticketID)
	if err != nil {
		return nil, err
	}
	if err := e.checkScannable(res, organizerID); err != nil {
		return nil, err
	}

	now := time.Now()
	flipped, err := e.flipAttendance(res, now)
	if err != nil {
		return nil, err
	}

	comp := &compensation{}
	if flipped {
		comp.add("revert attendance flag", func() error {
			return e.revertAttendance(res)
		})
	}
	entry, err := e.appendAttendanceLog(res, now, organizerID, true, &reason)
	if err != nil {
		comp.rollback("ManualOverride")
		return nil, err
	}
	if flipped {
		comp.add("delete attendance log entry", func() error {
			return e.db.Delete(&models.AttendanceLog{}, entry.ID).Error
		})
		if err := e.applyDelta(res.EventID, Delta{AttendanceCount: 1}, false); err != nil {
			comp.rollback("ManualOverride")
			return nil, err
		}
		markScanResult(res, now)
	}
	res.AlreadyMarked = !flipped
	return res, nil
}

func markScanResult(res *ScanResult, at time.Time) {
	switch res.Kind {
	case TicketKindRegistration:
		res.Registration.AttendanceMarked = true
		res.Registration.AttendanceTimestamp = &at
	case TicketKindMerchandise:
		res.Order.AttendanceMarked = true
		res.Order.AttendanceTimestamp = &at
	}
}
