package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/madina/app/controllers"
	"github.com/shashiranjanraj/madina/app/models"
	"github.com/shashiranjanraj/madina/app/repositories"
	"github.com/shashiranjanraj/madina/app/routes"
	"github.com/shashiranjanraj/madina/app/services"
	"github.com/shashiranjanraj/madina/pkg/cache"
	"github.com/shashiranjanraj/madina/pkg/middleware"
	"github.com/shashiranjanraj/madina/pkg/router"
)

// In-memory stores backing a full handler stack. The HTTP pipeline (auth
// gate, role checks, validation, error mapping) is the real one.

type memUserStore struct{ users map[primitive.ObjectID]*models.User }

func (s *memUserStore) Create(_ context.Context, u *models.User) error {
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return repositories.ErrDuplicateEmail
		}
	}
	u.ID = primitive.NewObjectID()
	s.users[u.ID] = u
	return nil
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *memUserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return u, nil
}

func (s *memUserStore) All(_ context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}

func (s *memUserStore) UpdateProfile(_ context.Context, id primitive.ObjectID, fields bson.M) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if name, ok := fields["name"].(string); ok {
		u.Name = name
	}
	if city, ok := fields["city"].(string); ok {
		u.City = city
	}
	return u, nil
}

func (s *memUserStore) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string) error {
	u, ok := s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

type memDeliveryStore struct{ agents map[primitive.ObjectID]*models.Delivery }

func (s *memDeliveryStore) Create(_ context.Context, d *models.Delivery) error {
	d.ID = primitive.NewObjectID()
	s.agents[d.ID] = d
	return nil
}

func (s *memDeliveryStore) FindByEmail(_ context.Context, email string) (*models.Delivery, error) {
	for _, d := range s.agents {
		if d.Email == email {
			return d, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *memDeliveryStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Delivery, error) {
	d, ok := s.agents[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return d, nil
}

type memProductStore struct{ products []models.Product }

func (s *memProductStore) Create(_ context.Context, p *models.Product) error {
	p.ID = primitive.NewObjectID()
	s.products = append(s.products, *p)
	return nil
}

func (s *memProductStore) Page(_ context.Context, page, limit int) ([]models.Product, error) {
	start := (page - 1) * limit
	if start >= len(s.products) {
		return nil, nil
	}
	end := start + limit
	if end > len(s.products) {
		end = len(s.products)
	}
	return s.products[start:end], nil
}

func (s *memProductStore) ByVendor(_ context.Context, vendorID primitive.ObjectID) ([]models.Product, error) {
	var out []models.Product
	for _, p := range s.products {
		if p.VendorID == vendorID {
			out = append(out, p)
		}
	}
	return out, nil
}

type memOrderStore struct{ orders map[primitive.ObjectID]*models.Order }

func (s *memOrderStore) Create(_ context.Context, o *models.Order) error {
	o.ID = primitive.NewObjectID()
	o.Status = models.FulfillmentPending
	o.PayStatus = models.PaymentPending
	o.CreatedAt = time.Now().UTC()
	s.orders[o.ID] = o
	return nil
}

func (s *memOrderStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *o
	return &clone, nil
}

func (s *memOrderStore) ByConsumer(_ context.Context, consumerID primitive.ObjectID) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if o.ConsumerID == consumerID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (s *memOrderStore) SetPaymentID(_ context.Context, id primitive.ObjectID, paymentID string) error {
	o, ok := s.orders[id]
	if !ok {
		return repositories.ErrNotFound
	}
	o.PaymentID = paymentID
	return nil
}

func (s *memOrderStore) MarkPaid(_ context.Context, id primitive.ObjectID) error {
	o, ok := s.orders[id]
	if !ok || o.PayStatus != models.PaymentPending {
		return repositories.ErrConflict
	}
	o.PayStatus = models.PaymentPaid
	return nil
}

func (s *memOrderStore) MarkDelivered(_ context.Context, id primitive.ObjectID) error {
	o, ok := s.orders[id]
	if !ok || o.Status != models.FulfillmentPending {
		return repositories.ErrConflict
	}
	o.Status = models.FulfillmentDelivered
	return nil
}

func (s *memOrderStore) MarkNotified(_ context.Context, id primitive.ObjectID, at time.Time) error {
	o, ok := s.orders[id]
	if !ok {
		return repositories.ErrNotFound
	}
	o.NotifiedAt = &at
	return nil
}

func (s *memOrderStore) FindStalled(_ context.Context, cutoff time.Time) ([]models.Order, error) {
	return nil, nil
}

type memGateway struct{ executeCalls int }

func (g *memGateway) CreatePayment(_ context.Context, _ string, _ float64, _, _ string) (string, string, error) {
	return "PAY-1", "https://paypal.test/approve", nil
}

func (g *memGateway) ExecutePayment(_ context.Context, _, _ string, _ float64) error {
	g.executeCalls++
	return nil
}

type memNotifier struct{ calls int }

func (n *memNotifier) Notify(_ context.Context, _ *models.Order, _ string) (string, error) {
	n.calls++
	return "http://cdn.test/fulfillment/code.png", nil
}

// ── stack ────────────────────────────────────────────────────────────────────

type apiStack struct {
	handler  http.Handler
	gateway  *memGateway
	notifier *memNotifier
}

func newAPIStack(t *testing.T) *apiStack {
	t.Helper()

	users := &memUserStore{users: make(map[primitive.ObjectID]*models.User)}
	agents := &memDeliveryStore{agents: make(map[primitive.ObjectID]*models.Delivery)}
	products := &memProductStore{}
	orders := &memOrderStore{orders: make(map[primitive.ObjectID]*models.Order)}
	gateway := &memGateway{}
	notifier := &memNotifier{}

	orderSvc := services.NewOrderService(orders, users, gateway, notifier,
		"http://localhost:3000/api/v1/orders/confirm",
		"http://localhost:3000/api/v1/orders/cancel")

	r := router.New()
	routes.RegisterAPI(r, routes.Controllers{
		Users:      controllers.NewUserController(services.NewAuthService(users)),
		Products:   controllers.NewProductController(services.NewProductService(products, cache.NewMemory(time.Minute))),
		Orders:     controllers.NewOrderController(orderSvc),
		Deliveries: controllers.NewDeliveryController(services.NewDeliveryService(agents), orderSvc),
	})

	return &apiStack{handler: r.Handler(), gateway: gateway, notifier: notifier}
}

func (s *apiStack) do(t *testing.T, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *apiStack) register(t *testing.T, email, role string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/users/register", map[string]interface{}{
		"name":     "Amina",
		"email":    email,
		"password": "secret123",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *apiStack) login(t *testing.T, path, email string) *http.Cookie {
	t.Helper()
	rec := s.do(t, http.MethodPost, path, map[string]string{
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.CookieName {
			return c
		}
	}
	t.Fatal("login response carries no token cookie")
	return nil
}

func (s *apiStack) loginUser(t *testing.T, email, role string) *http.Cookie {
	t.Helper()
	s.register(t, email, role)
	return s.login(t, "/api/v1/users/login", email)
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Data
}

// ── tests ────────────────────────────────────────────────────────────────────

func TestRegisterValidation(t *testing.T) {
	s := newAPIStack(t)

	rec := s.do(t, http.MethodPost, "/api/v1/users/register", map[string]string{
		"name":  "A",
		"email": "not-an-email",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body.Errors, "name")
	require.Contains(t, body.Errors, "email")
	require.Contains(t, body.Errors, "password")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := newAPIStack(t)
	s.register(t, "amina@example.com", "consumer")

	rec := s.do(t, http.MethodPost, "/api/v1/users/register", map[string]string{
		"name":     "Amina",
		"email":    "amina@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	s := newAPIStack(t)
	s.register(t, "amina@example.com", "consumer")

	rec := s.do(t, http.MethodPost, "/api/v1/users/login", map[string]string{
		"email":    "amina@example.com",
		"password": "wrong",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfileRequiresAuth(t *testing.T) {
	s := newAPIStack(t)

	rec := s.do(t, http.MethodGet, "/api/v1/users/profile", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	cookie := s.loginUser(t, "amina@example.com", "consumer")
	rec = s.do(t, http.MethodGet, "/api/v1/users/profile", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "amina@example.com", decodeData(t, rec)["email"])
}

func TestUserIndexIsAdminOnly(t *testing.T) {
	s := newAPIStack(t)
	cookie := s.loginUser(t, "amina@example.com", "consumer")

	rec := s.do(t, http.MethodGet, "/api/v1/users", nil, cookie)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProductListingIsPublicAnd404WhenEmpty(t *testing.T) {
	s := newAPIStack(t)

	rec := s.do(t, http.MethodGet, "/api/v1/products", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductCreateIsVendorOnly(t *testing.T) {
	s := newAPIStack(t)

	product := map[string]interface{}{
		"name":         "Wax print",
		"description":  "Two yards",
		"category":     "fabric",
		"price":        25.0,
		"countInStock": 10,
	}

	consumer := s.loginUser(t, "amina@example.com", "consumer")
	rec := s.do(t, http.MethodPost, "/api/v1/products", product, consumer)
	require.Equal(t, http.StatusForbidden, rec.Code)

	vendor := s.loginUser(t, "fanta@example.com", "vendor")
	rec = s.do(t, http.MethodPost, "/api/v1/products", product, vendor)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	s := newAPIStack(t)
	vendor := s.loginUser(t, "fanta@example.com", "vendor")
	consumer := s.loginUser(t, "amina@example.com", "consumer")

	// Vendor registers a delivery agent.
	rec := s.do(t, http.MethodPost, "/api/v1/delivery", map[string]string{
		"name":     "Moussa",
		"phone":    "70000000",
		"email":    "moussa@example.com",
		"password": "secret123",
	}, vendor)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	agentVendorID := decodeData(t, rec)["vendor_id"].(string)

	// Consumer places an order against that vendor.
	rec = s.do(t, http.MethodPost, "/api/v1/orders", map[string]interface{}{
		"products":    []string{primitive.NewObjectID().Hex()},
		"vendor":      agentVendorID,
		"totalAmount": 49.99,
	}, consumer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	data := decodeData(t, rec)
	require.Equal(t, "https://paypal.test/approve", data["redirectUrl"])
	orderID := data["order"].(map[string]interface{})["id"].(string)

	// Payment gateway redirects the consumer back.
	confirmPath := "/api/v1/orders/confirm?paymentId=PAY-1&PayerID=PAYER-9&orderId=" + orderID
	rec = s.do(t, http.MethodGet, confirmPath, nil, consumer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 1, s.notifier.calls)

	// A replayed callback is refused without touching the gateway again.
	rec = s.do(t, http.MethodGet, confirmPath, nil, consumer)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, 1, s.gateway.executeCalls)

	// The order shows up for its consumer, not for the vendor.
	rec = s.do(t, http.MethodGet, "/api/v1/users/orders/"+orderID, nil, consumer)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/v1/users/orders/"+orderID, nil, vendor)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// The vendor's agent scans the hand-off.
	agent := s.login(t, "/api/v1/delivery/login", "moussa@example.com")
	rec = s.do(t, http.MethodPost, "/api/v1/delivery/scan/"+orderID, nil, agent)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/users/orders/"+orderID, nil, consumer)
	require.Equal(t, http.StatusOK, rec.Code)
	order := decodeData(t, rec)
	require.Equal(t, string(models.FulfillmentDelivered), order["status"])
	require.Equal(t, string(models.PaymentPaid), order["paymentStatus"])
}

func TestScanRequiresDeliveryRole(t *testing.T) {
	s := newAPIStack(t)
	consumer := s.loginUser(t, "amina@example.com", "consumer")

	rec := s.do(t, http.MethodPost, "/api/v1/delivery/scan/"+primitive.NewObjectID().Hex(), nil, consumer)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHealthz(t *testing.T) {
	s := newAPIStack(t)

	rec := s.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
