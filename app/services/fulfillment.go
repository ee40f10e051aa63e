package services

import (
	"context"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/shashiranjanraj/madina/app/models"
	"github.com/shashiranjanraj/madina/pkg/logger"
	"github.com/shashiranjanraj/madina/pkg/mail"
	"github.com/shashiranjanraj/madina/pkg/metrics"
	"github.com/shashiranjanraj/madina/pkg/storage"
)

// CodeSender dispatches a fulfillment code to a buyer. Satisfied by
// SMTPCodeSender in production and by fakes in tests.
type CodeSender interface {
	SendOrderCode(to, orderID string, png []byte) error
}

// SMTPCodeSender mails the code through the configured SMTP transport.
type SMTPCodeSender struct{}

func (SMTPCodeSender) SendOrderCode(to, orderID string, png []byte) error {
	return mail.To(to).
		Subject(fmt.Sprintf("Your order %s is confirmed", orderID)).
		Body(fmt.Sprintf(
			"<p>Thank you for your purchase!</p>"+
				"<p>Present the attached code to the delivery agent to receive order <b>%s</b>.</p>",
			orderID)).
		Attach("order-"+orderID+".png", png).
		Send()
}

// FulfillmentNotifier generates the scannable code for a paid order,
// archives it on the configured disk and dispatches it to the buyer.
type FulfillmentNotifier struct {
	disk   storage.Disk
	sender CodeSender
}

func NewFulfillmentNotifier(disk storage.Disk, sender CodeSender) *FulfillmentNotifier {
	return &FulfillmentNotifier{disk: disk, sender: sender}
}

const qrSize = 256

// Notify produces the QR code embedding the order id, archives it, and
// emails it to the buyer. Returns the public URL of the archived code.
func (n *FulfillmentNotifier) Notify(ctx context.Context, order *models.Order, email string) (string, error) {
	orderID := order.ID.Hex()

	png, err := qrcode.Encode(orderID, qrcode.Medium, qrSize)
	if err != nil {
		return "", fmt.Errorf("encode fulfillment code: %w", err)
	}

	path := "fulfillment/" + orderID + ".png"
	if err := n.disk.Put(path, png); err != nil {
		// Archival is secondary to delivery; the mail still carries the code.
		logger.WithCtx(ctx).Warn("fulfillment code archive failed", "order_id", orderID, "error", err)
	}

	if err := n.sender.SendOrderCode(email, orderID, png); err != nil {
		metrics.NotificationsSent.WithLabelValues("failed").Inc()
		return "", fmt.Errorf("send fulfillment code: %w", err)
	}
	metrics.NotificationsSent.WithLabelValues("sent").Inc()

	return n.disk.URL(path), nil
}
