package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/madina/app/models"
	"github.com/shashiranjanraj/madina/app/repositories"
)

// ── fakes ────────────────────────────────────────────────────────────────────

type fakeOrderStore struct {
	orders map[primitive.ObjectID]*models.Order

	createErr error
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[primitive.ObjectID]*models.Order)}
}

func (s *fakeOrderStore) Create(_ context.Context, order *models.Order) error {
	if s.createErr != nil {
		return s.createErr
	}
	order.ID = primitive.NewObjectID()
	order.Status = models.FulfillmentPending
	order.PayStatus = models.PaymentPending
	order.CreatedAt = time.Now().UTC()
	clone := *order
	s.orders[order.ID] = &clone
	return nil
}

func (s *fakeOrderStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	order, ok := s.orders[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *order
	return &clone, nil
}

func (s *fakeOrderStore) ByConsumer(_ context.Context, consumerID primitive.ObjectID) ([]models.Order, error) {
	var out []models.Order
	for _, order := range s.orders {
		if order.ConsumerID == consumerID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (s *fakeOrderStore) SetPaymentID(_ context.Context, id primitive.ObjectID, paymentID string) error {
	order, ok := s.orders[id]
	if !ok {
		return repositories.ErrNotFound
	}
	order.PaymentID = paymentID
	return nil
}

func (s *fakeOrderStore) MarkPaid(_ context.Context, id primitive.ObjectID) error {
	order, ok := s.orders[id]
	if !ok || order.PayStatus != models.PaymentPending {
		return repositories.ErrConflict
	}
	order.PayStatus = models.PaymentPaid
	return nil
}

func (s *fakeOrderStore) MarkDelivered(_ context.Context, id primitive.ObjectID) error {
	order, ok := s.orders[id]
	if !ok || order.Status != models.FulfillmentPending {
		return repositories.ErrConflict
	}
	order.Status = models.FulfillmentDelivered
	return nil
}

func (s *fakeOrderStore) MarkNotified(_ context.Context, id primitive.ObjectID, at time.Time) error {
	order, ok := s.orders[id]
	if !ok {
		return repositories.ErrNotFound
	}
	order.NotifiedAt = &at
	return nil
}

func (s *fakeOrderStore) FindStalled(_ context.Context, cutoff time.Time) ([]models.Order, error) {
	var out []models.Order
	for _, order := range s.orders {
		if !order.CreatedAt.Before(cutoff) {
			continue
		}
		pendingNoRedirect := order.PayStatus == models.PaymentPending && order.PaymentID == ""
		paidNotNotified := order.PayStatus == models.PaymentPaid && order.NotifiedAt == nil
		if pendingNoRedirect || paidNotNotified {
			out = append(out, *order)
		}
	}
	return out, nil
}

type fakeUserStore struct {
	users map[primitive.ObjectID]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[primitive.ObjectID]*models.User)}
}

func (s *fakeUserStore) Create(_ context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *fakeUserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return u, nil
}

func (s *fakeUserStore) All(_ context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}

func (s *fakeUserStore) UpdateProfile(_ context.Context, id primitive.ObjectID, fields bson.M) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if name, ok := fields["name"].(string); ok {
		u.Name = name
	}
	return u, nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string) error {
	u, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

type fakeGateway struct {
	paymentID   string
	approvalURL string
	createErr   error
	executeErr  error

	createCalls  int
	executeCalls int
	lastTotal    float64
	lastReturn   string
}

func (g *fakeGateway) CreatePayment(_ context.Context, orderID string, total float64, returnURL, _ string) (string, string, error) {
	g.createCalls++
	g.lastTotal = total
	g.lastReturn = returnURL
	if g.createErr != nil {
		return "", "", g.createErr
	}
	return g.paymentID, g.approvalURL, nil
}

func (g *fakeGateway) ExecutePayment(_ context.Context, paymentID, payerID string, total float64) error {
	g.executeCalls++
	g.lastTotal = total
	return g.executeErr
}

type fakeNotifier struct {
	codeURL string
	err     error

	calls     int
	lastEmail string
}

func (n *fakeNotifier) Notify(_ context.Context, _ *models.Order, email string) (string, error) {
	n.calls++
	n.lastEmail = email
	if n.err != nil {
		return "", n.err
	}
	return n.codeURL, nil
}

// ── fixtures ─────────────────────────────────────────────────────────────────

type orderFixture struct {
	svc      *OrderService
	orders   *fakeOrderStore
	users    *fakeUserStore
	gateway  *fakeGateway
	notifier *fakeNotifier

	consumer *models.User
	vendorID primitive.ObjectID
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	orders := newFakeOrderStore()
	users := newFakeUserStore()
	gateway := &fakeGateway{paymentID: "PAY-1", approvalURL: "https://paypal.test/approve"}
	notifier := &fakeNotifier{codeURL: "http://cdn.test/fulfillment/code.png"}

	consumer := &models.User{Name: "Amina", Email: "amina@example.com", Role: "consumer"}
	require.NoError(t, users.Create(context.Background(), consumer))

	svc := NewOrderService(orders, users, gateway, notifier,
		"http://localhost:3000/api/v1/orders/confirm",
		"http://localhost:3000/api/v1/orders/cancel")

	return &orderFixture{
		svc:      svc,
		orders:   orders,
		users:    users,
		gateway:  gateway,
		notifier: notifier,
		consumer: consumer,
		vendorID: primitive.NewObjectID(),
	}
}

func (f *orderFixture) place(t *testing.T) *models.Order {
	t.Helper()
	order, _, err := f.svc.Place(context.Background(), f.consumer.ID, PlaceOrderInput{
		Products:    []string{primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex()},
		VendorID:    f.vendorID.Hex(),
		TotalAmount: 49.99,
	})
	require.NoError(t, err)
	return order
}

// ── placement ────────────────────────────────────────────────────────────────

func TestPlacePersistsAndReturnsRedirect(t *testing.T) {
	f := newOrderFixture(t)

	order, redirect, err := f.svc.Place(context.Background(), f.consumer.ID, PlaceOrderInput{
		Products:    []string{primitive.NewObjectID().Hex()},
		VendorID:    f.vendorID.Hex(),
		TotalAmount: 49.99,
	})
	require.NoError(t, err)
	require.Equal(t, "https://paypal.test/approve", redirect)
	require.Equal(t, 49.99, f.gateway.lastTotal)
	require.Contains(t, f.gateway.lastReturn, "orderId="+order.ID.Hex())

	stored, err := f.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, models.FulfillmentPending, stored.Status)
	require.Equal(t, models.PaymentPending, stored.PayStatus)
	require.Equal(t, "PAY-1", stored.PaymentID)
}

func TestPlaceSurvivesGatewayFailure(t *testing.T) {
	f := newOrderFixture(t)
	f.gateway.createErr = errors.New("gateway down")

	order, _, err := f.svc.Place(context.Background(), f.consumer.ID, PlaceOrderInput{
		Products:    []string{primitive.NewObjectID().Hex()},
		VendorID:    f.vendorID.Hex(),
		TotalAmount: 10,
	})
	require.Error(t, err)
	require.NotNil(t, order)

	// The order stays persisted Pending/Pending for the sweep to retry.
	stored, err := f.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentPending, stored.PayStatus)
	require.Empty(t, stored.PaymentID)
}

func TestPlaceRejectsMalformedIDs(t *testing.T) {
	f := newOrderFixture(t)

	_, _, err := f.svc.Place(context.Background(), f.consumer.ID, PlaceOrderInput{
		Products:    []string{"not-an-id"},
		VendorID:    f.vendorID.Hex(),
		TotalAmount: 10,
	})
	require.ErrorIs(t, err, repositories.ErrNotFound)
}

// ── confirmation ─────────────────────────────────────────────────────────────

func TestConfirmCapturesAndNotifies(t *testing.T) {
	f := newOrderFixture(t)
	order := f.place(t)

	confirmed, codeURL, err := f.svc.Confirm(context.Background(), f.consumer.ID, order.ID.Hex(), "PAY-1", "PAYER-9")
	require.NoError(t, err)
	require.Equal(t, models.PaymentPaid, confirmed.PayStatus)
	require.Equal(t, models.FulfillmentPending, confirmed.Status)
	require.Equal(t, "http://cdn.test/fulfillment/code.png", codeURL)

	// Capture is submitted with the stored total, not a caller value.
	require.Equal(t, 49.99, f.gateway.lastTotal)
	require.Equal(t, 1, f.gateway.executeCalls)
	require.Equal(t, "amina@example.com", f.notifier.lastEmail)

	stored, err := f.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentPaid, stored.PayStatus)
	require.NotNil(t, stored.NotifiedAt)
}

func TestConfirmRejectsForeignConsumer(t *testing.T) {
	f := newOrderFixture(t)
	order := f.place(t)

	stranger := &models.User{Name: "Eve", Email: "eve@example.com"}
	require.NoError(t, f.users.Create(context.Background(), stranger))

	_, _, err := f.svc.Confirm(context.Background(), stranger.ID, order.ID.Hex(), "PAY-1", "PAYER-9")
	require.ErrorIs(t, err, ErrNotOwner)
	require.Zero(t, f.gateway.executeCalls)
}

func TestConfirmIsGuardedAgainstDuplicates(t *testing.T) {
	f := newOrderFixture(t)
	order := f.place(t)

	_, _, err := f.svc.Confirm(context.Background(), f.consumer.ID, order.ID.Hex(), "PAY-1", "PAYER-9")
	require.NoError(t, err)

	_, _, err = f.svc.Confirm(context.Background(), f.consumer.ID, order.ID.Hex(), "PAY-1", "PAYER-9")
	require.ErrorIs(t, err, ErrAlreadyCaptured)
	require.Equal(t, 1, f.gateway.executeCalls)
	require.Equal(t, 1, f.notifier.calls)
}

func TestConfirmLeavesPendingOnCaptureFailure(t *testing.T) {
	f := newOrderFixture(t)
	order := f.place(t)
	f.gateway.executeErr = errors.New("not approved")

	_, _, err := f.svc.Confirm(context.Background(), f.consumer.ID, order.ID.Hex(), "PAY-1", "PAYER-9")
	require.Error(t, err)
	require.Zero(t, f.notifier.calls)

	stored, err := f.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentPending, stored.PayStatus)
}

func TestConfirmSucceedsWhenNotificationFails(t *testing.T) {
	f := newOrderFixture(t)
	order := f.place(t)
	f.notifier.err = errors.New("smtp down")

	confirmed, codeURL, err := f.svc.Confirm(context.Background(), f.consumer.ID, order.ID.Hex(), "PAY-1", "PAYER-9")
	require.NoError(t, err)
	require.Empty(t, codeURL)
	require.Equal(t, models.PaymentPaid, confirmed.PayStatus)

	// Unsent, so the sweep will find it later.
	stored, err := f.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Nil(t, stored.NotifiedAt)
}

// ── reads ────────────────────────────────────────────────────────────────────

func TestOrderForConsumerScopesOwnership(t *testing.T) {
	f := newOrderFixture(t)
	order := f.place(t)

	got, err := f.svc.OrderForConsumer(context.Background(), f.consumer.ID, order.ID.Hex())
	require.NoError(t, err)
	require.Equal(t, order.ID, got.ID)

	// A foreign order reads as missing, not forbidden.
	_, err = f.svc.OrderForConsumer(context.Background(), primitive.NewObjectID(), order.ID.Hex())
	require.ErrorIs(t, err, repositories.ErrNotFound)

	_, err = f.svc.OrderForConsumer(context.Background(), f.consumer.ID, "not-an-id")
	require.ErrorIs(t, err, repositories.ErrNotFound)
}

// ── delivery scan ────────────────────────────────────────────────────────────

func TestScanMarksDelivered(t *testing.T) {
	f := newOrderFixture(t)
	order := f.place(t)

	agent := &models.Delivery{ID: primitive.NewObjectID(), VendorID: f.vendorID}
	scanned, err := f.svc.Scan(context.Background(), agent, order.ID.Hex())
	require.NoError(t, err)
	require.Equal(t, models.FulfillmentDelivered, scanned.Status)

	stored, err := f.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, models.FulfillmentDelivered, stored.Status)
}

func TestScanRejectsForeignAgent(t *testing.T) {
	f := newOrderFixture(t)
	order := f.place(t)

	agent := &models.Delivery{ID: primitive.NewObjectID(), VendorID: primitive.NewObjectID()}
	_, err := f.svc.Scan(context.Background(), agent, order.ID.Hex())
	require.ErrorIs(t, err, ErrNotOwner)
}

func TestScanRejectsRepeatedScan(t *testing.T) {
	f := newOrderFixture(t)
	order := f.place(t)

	agent := &models.Delivery{ID: primitive.NewObjectID(), VendorID: f.vendorID}
	_, err := f.svc.Scan(context.Background(), agent, order.ID.Hex())
	require.NoError(t, err)

	_, err = f.svc.Scan(context.Background(), agent, order.ID.Hex())
	require.ErrorIs(t, err, ErrAlreadyDelivered)
}

func TestScanMissingOrder(t *testing.T) {
	f := newOrderFixture(t)

	agent := &models.Delivery{ID: primitive.NewObjectID(), VendorID: f.vendorID}
	_, err := f.svc.Scan(context.Background(), agent, primitive.NewObjectID().Hex())
	require.ErrorIs(t, err, repositories.ErrNotFound)
}

// ── recovery sweep ───────────────────────────────────────────────────────────

func TestSweepReissuesMissingRedirects(t *testing.T) {
	f := newOrderFixture(t)
	f.gateway.createErr = errors.New("gateway down")
	order, _, _ := f.svc.Place(context.Background(), f.consumer.ID, PlaceOrderInput{
		Products:    []string{primitive.NewObjectID().Hex()},
		VendorID:    f.vendorID.Hex(),
		TotalAmount: 10,
	})
	f.orders.orders[order.ID].CreatedAt = time.Now().UTC().Add(-2 * time.Hour)

	f.gateway.createErr = nil
	repaired, err := f.svc.SweepStalled(context.Background(), time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, repaired)

	stored, err := f.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, "PAY-1", stored.PaymentID)
}

func TestSweepRenotifiesPaidOrders(t *testing.T) {
	f := newOrderFixture(t)
	order := f.place(t)

	f.notifier.err = errors.New("smtp down")
	_, _, err := f.svc.Confirm(context.Background(), f.consumer.ID, order.ID.Hex(), "PAY-1", "PAYER-9")
	require.NoError(t, err)
	f.orders.orders[order.ID].CreatedAt = time.Now().UTC().Add(-2 * time.Hour)

	f.notifier.err = nil
	repaired, err := f.svc.SweepStalled(context.Background(), time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, repaired)
	require.Equal(t, 2, f.notifier.calls)

	stored, err := f.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.NotifiedAt)
}

func TestSweepSkipsHealthyOrders(t *testing.T) {
	f := newOrderFixture(t)
	order := f.place(t)
	_, _, err := f.svc.Confirm(context.Background(), f.consumer.ID, order.ID.Hex(), "PAY-1", "PAYER-9")
	require.NoError(t, err)
	f.orders.orders[order.ID].CreatedAt = time.Now().UTC().Add(-2 * time.Hour)

	repaired, err := f.svc.SweepStalled(context.Background(), time.Hour)
	require.NoError(t, err)
	require.Zero(t, repaired)
}
