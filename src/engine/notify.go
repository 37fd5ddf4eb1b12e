package engine

import (
	"fmt"

	"fest/src/config"
	"fest/src/lib"
	"fest/src/models"
)

func ticketEmailBody(heading, eventName, ticketID, qrURL string) string {
	return fmt.Sprintf(`<div style="font-family:Arial;background:#0a0a0a;color:#fff;padding:30px;border:2px solid #cc0000">
	<h2 style="color:#cc0000">%s</h2>
	<h3>%s <span style="color:#cc0000">%s</span></h3>
	<p><strong>Ticket ID:</strong> %s</p>
	<p>Show your QR code at the event entrance.</p>
	<img src="%s" style="max-width:200px" alt="QR Code"/>
</div>`, config.AppName(), heading, eventName, ticketID, qrURL)
}

func registrationEmail(event *models.Event, to, ticketID, qrURL string) *lib.SendMailInput {
	return &lib.SendMailInput{
		To:      []string{to},
		Subject: fmt.Sprintf("%s - Registration Confirmed: %s", config.AppName(), event.Name),
		Body:    ticketEmailBody("You're registered for", event.Name, ticketID, qrURL),
		Html:    true,
		Type:    "ticket",
		Metadata: map[string]string{
			"ticketId": ticketID,
			"eventId":  fmt.Sprint(event.ID),
		},
	}
}

func orderEmail(event *models.Event, to, ticketID, qrURL string, orderID uint) *lib.SendMailInput {
	return &lib.SendMailInput{
		To:      []string{to},
		Subject: fmt.Sprintf("%s - Merchandise Order Confirmed: %s", config.AppName(), event.Name),
		Body:    ticketEmailBody("Your merchandise order for", event.Name, ticketID, qrURL),
		Html:    true,
		Type:    "merchandise_confirmation",
		Metadata: map[string]string{
			"ticketId": ticketID,
			"orderId":  fmt.Sprint(orderID),
		},
	}
}
