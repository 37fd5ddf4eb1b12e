package engine

import (
	"context"

	"fest/src/lib"

	"gorm.io/gorm"
)

// Notifier sends participant-facing mail. A send failure is surfaced as an
// error so commit paths can react with compensation; it is never fire-and-
// forget here.
type Notifier interface {
	Send(ctx context.Context, input *lib.SendMailInput) error
}

// QREncoder renders a ticket payload to a scannable image and returns a URL
// for it. Any encoding that carries the exact payload string is acceptable.
type QREncoder interface {
	Encode(payload string, name string) (string, error)
}

// Engine holds the registration, merchandise order and attendance flows plus
// the analytics aggregator they all funnel through.
type Engine struct {
	db   *gorm.DB
	mail Notifier
	qr   QREncoder
}

func New(db *gorm.DB, mail Notifier, qr QREncoder) *Engine {
	return &Engine{db: db, mail: mail, qr: qr}
}

type smtpNotifier struct{}

func (smtpNotifier) Send(_ context.Context, input *lib.SendMailInput) error {
	return lib.SendMail(input)
}

type qrImageEncoder struct{}

func (qrImageEncoder) Encode(payload string, name string) (string, error) {
	return lib.NewQRImage(payload, name)
}

// NewDefault wires the engine with the SMTP notifier and the QR-to-S3
// encoder used in deployment.
func NewDefault(db *gorm.DB) *Engine {
	return New(db, smtpNotifier{}, qrImageEncoder{})
}
