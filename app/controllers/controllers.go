// Package controllers holds the HTTP handlers. Each controller decodes and
// validates the request, delegates to a service and writes the JSON
// envelope; no business rules live here.
package controllers

import (
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/madina/app/repositories"
	"github.com/shashiranjanraj/madina/app/services"
	"github.com/shashiranjanraj/madina/pkg/logger"
	"github.com/shashiranjanraj/madina/pkg/middleware"
	"github.com/shashiranjanraj/madina/pkg/response"
)

// fail maps service and repository errors onto the response envelope.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		response.NotFound(w, "Resource not found")
	case errors.Is(err, repositories.ErrDuplicateEmail):
		response.Conflict(w, "Email already registered")
	case errors.Is(err, services.ErrWrongPassword):
		response.Error(w, http.StatusBadRequest, "Password is wrong")
	case errors.Is(err, services.ErrNotOwner):
		response.Forbidden(w)
	case errors.Is(err, services.ErrAlreadyCaptured):
		response.Conflict(w, "Payment already captured")
	case errors.Is(err, services.ErrAlreadyDelivered):
		response.Conflict(w, "Order already delivered")
	default:
		logger.WithCtx(r.Context()).Error("request failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

// callerID extracts the authenticated user's object id from the request
// context. Returns false after writing a 401 when the identity is missing
// or malformed.
func callerID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	raw, ok := middleware.UserIDFromCtx(r.Context())
	if !ok {
		response.Unauthorized(w)
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		response.Unauthorized(w)
		return primitive.NilObjectID, false
	}
	return id, true
}
