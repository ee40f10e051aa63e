package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/madina/app/models"
	"github.com/shashiranjanraj/madina/pkg/auth"
	"github.com/shashiranjanraj/madina/pkg/rbac"
)

// AuthService covers account registration, login and profile management.
type AuthService struct {
	users UserStore
}

func NewAuthService(users UserStore) *AuthService {
	return &AuthService{users: users}
}

// RegisterInput carries the registration payload.
type RegisterInput struct {
	Name      string `json:"name" validate:"required,min=2,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	Phone     string `json:"phone" validate:"nullable,min=5"`
	Street    string `json:"street"`
	Apartment string `json:"apartment"`
	City      string `json:"city"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
	Role      string `json:"role"`
}

// Register creates a new account. The requested role is parsed through the
// rbac enum: unknown or privileged values degrade to consumer.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        in.Phone,
		Street:       in.Street,
		Apartment:    in.Apartment,
		City:         in.City,
		Zip:          in.Zip,
		Country:      in.Country,
		Role:         rbac.Parse(in.Role),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, "", ErrWrongPassword
	}

	token, err := auth.GenerateToken(user.ID.Hex(), string(user.Role))
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}

	return user, token, nil
}

// Profile returns the account for the given id.
func (s *AuthService) Profile(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

// All returns every account (admin listing).
func (s *AuthService) All(ctx context.Context) ([]models.User, error) {
	return s.users.All(ctx)
}

// ProfileUpdateInput carries the mutable profile fields.
type ProfileUpdateInput struct {
	Name      string `json:"name" validate:"nullable,min=2,max=100"`
	Phone     string `json:"phone"`
	Street    string `json:"street"`
	Apartment string `json:"apartment"`
	City      string `json:"city"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
}

// UpdateProfile applies the non-empty fields of in to the account.
func (s *AuthService) UpdateProfile(ctx context.Context, id primitive.ObjectID, in ProfileUpdateInput) (*models.User, error) {
	fields := bson.M{}
	set := func(key, value string) {
		if value != "" {
			fields[key] = value
		}
	}
	set("name", in.Name)
	set("phone", in.Phone)
	set("street", in.Street)
	set("apartment", in.Apartment)
	set("city", in.City)
	set("zip", in.Zip)
	set("country", in.Country)

	if len(fields) == 0 {
		return s.users.FindByID(ctx, id)
	}
	return s.users.UpdateProfile(ctx, id, fields)
}

// ChangePassword verifies the old password before storing a hash of the new
// one.
func (s *AuthService) ChangePassword(ctx context.Context, id primitive.ObjectID, oldPassword, newPassword string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if !auth.CheckPassword(user.PasswordHash, oldPassword) {
		return ErrWrongPassword
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.users.UpdatePassword(ctx, id, hash)
}
