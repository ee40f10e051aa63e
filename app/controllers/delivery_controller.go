package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/madina/app/services"
	"github.com/shashiranjanraj/madina/pkg/middleware"
	"github.com/shashiranjanraj/madina/pkg/response"
	"github.com/shashiranjanraj/madina/pkg/validate"
)

type DeliveryController struct {
	service *services.DeliveryService
	orders  *services.OrderService
}

func NewDeliveryController(service *services.DeliveryService, orders *services.OrderService) *DeliveryController {
	return &DeliveryController{service: service, orders: orders}
}

// Create registers a delivery agent under the calling vendor.
func (c *DeliveryController) Create(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := callerID(w, r)
	if !ok {
		return
	}

	var in services.CreateDeliveryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	delivery, err := c.service.Create(r.Context(), vendorID, in)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Created(w, delivery)
}

func (c *DeliveryController) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if errs := validate.Struct(body); validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	delivery, token, err := c.service.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		fail(w, r, err)
		return
	}

	middleware.SetAuthCookie(w, token)
	response.Success(w, map[string]string{
		"user":  delivery.Email,
		"token": token,
	})
}

// Scan marks an order delivered after verifying the agent belongs to the
// order's vendor.
func (c *DeliveryController) Scan(w http.ResponseWriter, r *http.Request) {
	agentID, ok := callerID(w, r)
	if !ok {
		return
	}

	agent, err := c.service.ByID(r.Context(), agentID)
	if err != nil {
		fail(w, r, err)
		return
	}

	order, err := c.orders.Scan(r.Context(), agent, chi.URLParam(r, "orderId"))
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, order)
}
