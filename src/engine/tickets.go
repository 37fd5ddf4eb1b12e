package engine

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// Ticket identifiers are globally unique and carry their namespace in the
// prefix, so a scanned id resolves without consulting both collections.
const (
	TicketPrefixRegistration = "FEL"
	TicketPrefixMerchandise  = "MERCH"
)

type TicketKind int

const (
	TicketKindUnknown TicketKind = iota
	TicketKindRegistration
	TicketKindMerchandise
)

func NewTicketID(prefix string) string {
	short := strings.ToUpper(strings.Split(uuid.New().String(), "-")[0])
	return fmt.Sprintf("%s-%s-%d", prefix, short, time.Now().UnixMilli())
}

func TicketNamespace(ticketID string) TicketKind {
	switch {
	case strings.HasPrefix(ticketID, TicketPrefixRegistration+"-"):
		return TicketKindRegistration
	case strings.HasPrefix(ticketID, TicketPrefixMerchandise+"-"):
		return TicketKindMerchandise
	default:
		return TicketKindUnknown
	}
}

// ExtractTicketID pulls the ticket id out of a scanned payload. Scanners may
// send the JSON envelope from the QR image or the bare id; a payload that
// does not parse is treated as the id itself.
func ExtractTicketID(raw string) string {
	if id := gjson.Get(raw, "ticketId"); id.Exists() {
		return id.String()
	}
	return strings.TrimSpace(raw)
}

type qrPayload struct {
	TicketID      string `json:"ticketId"`
	EventID       uint   `json:"eventId"`
	ParticipantID uint   `json:"participantId"`
	OrderID       uint   `json:"orderId,omitempty"`
}

func newQRPayload(ticketID string, eventID, participantID, orderID uint) string {
	p := qrPayload{
		TicketID:      ticketID,
		EventID:       eventID,
		ParticipantID: participantID,
		OrderID:       orderID,
	}
	b, _ := json.Marshal(&p)
	return string(b)
}
