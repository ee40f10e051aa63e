package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/madina/app/services"
	"github.com/shashiranjanraj/madina/pkg/response"
	"github.com/shashiranjanraj/madina/pkg/validate"
)

type OrderController struct {
	service *services.OrderService
}

func NewOrderController(service *services.OrderService) *OrderController {
	return &OrderController{service: service}
}

// Create places an order and responds with the payment approval redirect.
func (c *OrderController) Create(w http.ResponseWriter, r *http.Request) {
	consumerID, ok := callerID(w, r)
	if !ok {
		return
	}

	var in services.PlaceOrderInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	order, approvalURL, err := c.service.Place(r.Context(), consumerID, in)
	if err != nil {
		fail(w, r, err)
		return
	}

	response.Created(w, map[string]interface{}{
		"order":       order,
		"redirectUrl": approvalURL,
	})
}

// Confirm is the gateway redirect callback carrying paymentId, PayerID and
// orderId as query parameters.
func (c *OrderController) Confirm(w http.ResponseWriter, r *http.Request) {
	consumerID, ok := callerID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	paymentID := q.Get("paymentId")
	payerID := q.Get("PayerID")
	orderID := q.Get("orderId")
	if paymentID == "" || payerID == "" || orderID == "" {
		response.Error(w, http.StatusBadRequest, "Missing payment parameters")
		return
	}

	order, codeURL, err := c.service.Confirm(r.Context(), consumerID, orderID, paymentID, payerID)
	if err != nil {
		fail(w, r, err)
		return
	}

	response.Success(w, map[string]interface{}{
		"order":   order,
		"codeUrl": codeURL,
	})
}

// Index lists the caller's own orders.
func (c *OrderController) Index(w http.ResponseWriter, r *http.Request) {
	consumerID, ok := callerID(w, r)
	if !ok {
		return
	}
	orders, err := c.service.OrdersFor(r.Context(), consumerID)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, orders)
}

// Show loads one of the caller's orders.
func (c *OrderController) Show(w http.ResponseWriter, r *http.Request) {
	consumerID, ok := callerID(w, r)
	if !ok {
		return
	}
	order, err := c.service.OrderForConsumer(r.Context(), consumerID, chi.URLParam(r, "orderId"))
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, order)
}
