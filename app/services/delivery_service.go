package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/madina/app/models"
	"github.com/shashiranjanraj/madina/pkg/auth"
	"github.com/shashiranjanraj/madina/pkg/rbac"
)

// DeliveryService manages delivery agents: vendor-created identities that
// fulfill orders.
type DeliveryService struct {
	deliveries DeliveryStore
}

func NewDeliveryService(deliveries DeliveryStore) *DeliveryService {
	return &DeliveryService{deliveries: deliveries}
}

// CreateDeliveryInput carries the agent-creation payload.
type CreateDeliveryInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Phone    string `json:"phone" validate:"required,min=5"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Create registers a new delivery agent owned by the calling vendor. The
// role is fixed to delivery; an agent always has exactly one owning vendor.
func (s *DeliveryService) Create(ctx context.Context, vendorID primitive.ObjectID, in CreateDeliveryInput) (*models.Delivery, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	delivery := &models.Delivery{
		Name:         in.Name,
		Phone:        in.Phone,
		Email:        in.Email,
		PasswordHash: hash,
		VendorID:     vendorID,
		Role:         rbac.RoleDelivery,
	}

	if err := s.deliveries.Create(ctx, delivery); err != nil {
		return nil, err
	}
	return delivery, nil
}

// Login verifies agent credentials and issues a signed token carrying the
// delivery role.
func (s *DeliveryService) Login(ctx context.Context, email, password string) (*models.Delivery, string, error) {
	delivery, err := s.deliveries.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}

	if !auth.CheckPassword(delivery.PasswordHash, password) {
		return nil, "", ErrWrongPassword
	}

	token, err := auth.GenerateToken(delivery.ID.Hex(), string(delivery.Role))
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}

	return delivery, token, nil
}

// ByID loads one delivery agent.
func (s *DeliveryService) ByID(ctx context.Context, id primitive.ObjectID) (*models.Delivery, error) {
	return s.deliveries.FindByID(ctx, id)
}
