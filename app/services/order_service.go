package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/madina/app/models"
	"github.com/shashiranjanraj/madina/app/repositories"
	"github.com/shashiranjanraj/madina/pkg/logger"
	"github.com/shashiranjanraj/madina/pkg/metrics"
)

// Notifier dispatches the fulfillment code for a paid order and returns the
// public URL of the archived code.
type Notifier interface {
	Notify(ctx context.Context, order *models.Order, email string) (string, error)
}

// OrderService drives the order workflow: placement with a payment redirect,
// capture on the confirm callback, delivery scans and the recovery sweep.
type OrderService struct {
	orders   OrderStore
	users    UserStore
	gateway  PaymentGateway
	notifier Notifier

	// confirmURL is the absolute URL of the confirm callback; the gateway
	// redirects the payer here with paymentId/PayerID appended.
	confirmURL string
	cancelURL  string
}

func NewOrderService(orders OrderStore, users UserStore, gateway PaymentGateway, notifier Notifier, confirmURL, cancelURL string) *OrderService {
	return &OrderService{
		orders:     orders,
		users:      users,
		gateway:    gateway,
		notifier:   notifier,
		confirmURL: confirmURL,
		cancelURL:  cancelURL,
	}
}

// PlaceOrderInput carries the order placement payload.
type PlaceOrderInput struct {
	Products    []string `json:"products" validate:"required"`
	VendorID    string   `json:"vendor" validate:"required,objectid"`
	TotalAmount float64  `json:"totalAmount" validate:"required,gt=0"`
}

// Place persists a new order for the consumer and asks the gateway for an
// approval redirect. The order stays persisted in Pending/Pending even when
// the gateway call fails; the recovery sweep retries the redirect later.
func (s *OrderService) Place(ctx context.Context, consumerID primitive.ObjectID, in PlaceOrderInput) (*models.Order, string, error) {
	if len(in.Products) == 0 {
		return nil, "", repositories.ErrNotFound
	}
	productIDs := make([]primitive.ObjectID, 0, len(in.Products))
	for _, raw := range in.Products {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, "", repositories.ErrNotFound
		}
		productIDs = append(productIDs, id)
	}
	vendorID, err := primitive.ObjectIDFromHex(in.VendorID)
	if err != nil {
		return nil, "", repositories.ErrNotFound
	}

	order := &models.Order{
		ProductIDs:  productIDs,
		ConsumerID:  consumerID,
		VendorID:    vendorID,
		TotalAmount: in.TotalAmount,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, "", err
	}

	approvalURL, err := s.issueRedirect(ctx, order)
	if err != nil {
		// The order is already durable; surface the gateway failure so the
		// caller can retry, the sweep picks it up otherwise.
		return order, "", fmt.Errorf("request payment redirect: %w", err)
	}
	return order, approvalURL, nil
}

// issueRedirect requests an approval link from the gateway and records the
// issued payment id on the order.
func (s *OrderService) issueRedirect(ctx context.Context, order *models.Order) (string, error) {
	returnURL := s.confirmURL + "?orderId=" + url.QueryEscape(order.ID.Hex())
	paymentID, approvalURL, err := s.gateway.CreatePayment(ctx, order.ID.Hex(), order.TotalAmount, returnURL, s.cancelURL)
	if err != nil {
		return "", err
	}
	if err := s.orders.SetPaymentID(ctx, order.ID, paymentID); err != nil {
		return "", err
	}
	order.PaymentID = paymentID
	return approvalURL, nil
}

// Confirm handles the gateway redirect callback. The capture is submitted
// with the order's stored total, never a client-supplied amount, and only
// proceeds while the payment status is still Pending. Notification runs
// after the durable Paid write; a notification failure does not undo it.
func (s *OrderService) Confirm(ctx context.Context, callerID primitive.ObjectID, orderIDHex, paymentID, payerID string) (*models.Order, string, error) {
	orderID, err := primitive.ObjectIDFromHex(orderIDHex)
	if err != nil {
		return nil, "", repositories.ErrNotFound
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, "", err
	}
	if order.ConsumerID != callerID {
		return nil, "", ErrNotOwner
	}
	if order.PayStatus != models.PaymentPending {
		metrics.PaymentCaptures.WithLabelValues("duplicate").Inc()
		return nil, "", ErrAlreadyCaptured
	}

	if err := s.gateway.ExecutePayment(ctx, paymentID, payerID, order.TotalAmount); err != nil {
		metrics.PaymentCaptures.WithLabelValues("failed").Inc()
		return nil, "", fmt.Errorf("capture payment: %w", err)
	}

	if err := s.orders.MarkPaid(ctx, order.ID); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			// A concurrent confirm won the race after our read.
			metrics.PaymentCaptures.WithLabelValues("duplicate").Inc()
			return nil, "", ErrAlreadyCaptured
		}
		return nil, "", err
	}
	metrics.PaymentCaptures.WithLabelValues("paid").Inc()
	order.PayStatus = models.PaymentPaid

	codeURL := s.notify(ctx, order)
	return order, codeURL, nil
}

// notify dispatches the fulfillment code to the consumer. Failures are
// logged, not surfaced: the payment is already durably Paid and the sweep
// retries unsent notifications.
func (s *OrderService) notify(ctx context.Context, order *models.Order) string {
	consumer, err := s.users.FindByID(ctx, order.ConsumerID)
	if err != nil {
		logger.WithCtx(ctx).Error("load consumer for notification", "order_id", order.ID.Hex(), "error", err)
		return ""
	}
	codeURL, err := s.notifier.Notify(ctx, order, consumer.Email)
	if err != nil {
		logger.WithCtx(ctx).Error("dispatch fulfillment code", "order_id", order.ID.Hex(), "error", err)
		return ""
	}
	now := time.Now().UTC()
	if err := s.orders.MarkNotified(ctx, order.ID, now); err != nil {
		logger.WithCtx(ctx).Error("record notification", "order_id", order.ID.Hex(), "error", err)
		return codeURL
	}
	order.NotifiedAt = &now
	return codeURL
}

// OrdersFor lists every order placed by the consumer.
func (s *OrderService) OrdersFor(ctx context.Context, consumerID primitive.ObjectID) ([]models.Order, error) {
	return s.orders.ByConsumer(ctx, consumerID)
}

// OrderForConsumer loads one order, scoped to its consumer. An order owned
// by someone else reads as missing rather than forbidden.
func (s *OrderService) OrderForConsumer(ctx context.Context, consumerID primitive.ObjectID, orderIDHex string) (*models.Order, error) {
	orderID, err := primitive.ObjectIDFromHex(orderIDHex)
	if err != nil {
		return nil, repositories.ErrNotFound
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.ConsumerID != consumerID {
		return nil, repositories.ErrNotFound
	}
	return order, nil
}

// Scan marks an order delivered on behalf of a delivery agent. The agent
// must belong to the order's vendor.
func (s *OrderService) Scan(ctx context.Context, agent *models.Delivery, orderIDHex string) (*models.Order, error) {
	orderID, err := primitive.ObjectIDFromHex(orderIDHex)
	if err != nil {
		return nil, repositories.ErrNotFound
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.VendorID != agent.VendorID {
		return nil, ErrNotOwner
	}
	if order.Status == models.FulfillmentDelivered {
		return nil, ErrAlreadyDelivered
	}

	if err := s.orders.MarkDelivered(ctx, order.ID); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, ErrAlreadyDelivered
		}
		return nil, err
	}
	order.Status = models.FulfillmentDelivered
	return order, nil
}

// SweepStalled retries the idempotent workflow steps of orders that sat
// between steps for longer than olderThan. Orders with no payment id get a
// fresh redirect issued; paid orders with no dispatched code are renotified.
// Returns the number of orders it repaired.
func (s *OrderService) SweepStalled(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	stalled, err := s.orders.FindStalled(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for i := range stalled {
		order := &stalled[i]
		switch {
		case order.PayStatus == models.PaymentPending && order.PaymentID == "":
			if _, err := s.issueRedirect(ctx, order); err != nil {
				logger.WithCtx(ctx).Warn("sweep: reissue redirect", "order_id", order.ID.Hex(), "error", err)
				continue
			}
			repaired++
		case order.PayStatus == models.PaymentPaid && order.NotifiedAt == nil:
			if s.notify(ctx, order) == "" {
				continue
			}
			repaired++
		}
	}
	return repaired, nil
}
