package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/madina/app/models"
	"github.com/shashiranjanraj/madina/app/repositories"
	"github.com/shashiranjanraj/madina/pkg/cache"
	"github.com/shashiranjanraj/madina/pkg/logger"
)

// Default listing window, shared with the HTTP layer.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

func pageCacheKey(page, limit int) string {
	return fmt.Sprintf("products_page_%d_limit_%d", page, limit)
}

// ProductService manages the catalogue with a read-through listing cache.
// The cache is an optimization only: its absence never changes a response,
// just its latency.
type ProductService struct {
	products ProductStore
	cache    cache.Cache
}

func NewProductService(products ProductStore, c cache.Cache) *ProductService {
	return &ProductService{products: products, cache: c}
}

// CreateProductInput carries the product-creation payload. Every failing
// field is reported back, not just the first.
type CreateProductInput struct {
	Name         string  `json:"name" validate:"required"`
	Description  string  `json:"description" validate:"required"`
	Category     string  `json:"category" validate:"required"`
	Image        string  `json:"image"`
	Price        float64 `json:"price" validate:"required,gt=0"`
	CountInStock int     `json:"countInStock" validate:"gte=0,lte=255,integer"`
	Rating       float64 `json:"rating" validate:"nullable,between=0:5"`
	NumReviews   int     `json:"numReviews" validate:"nullable,gte=0,integer"`
	IsFeatured   bool    `json:"isFeatured"`
}

// Create persists a new product owned by the calling vendor and drops the
// first catalogue page from the cache. Deeper pages age out on their TTL, a
// slightly stale page is acceptable.
func (s *ProductService) Create(ctx context.Context, vendorID primitive.ObjectID, in CreateProductInput) (*models.Product, error) {
	product := &models.Product{
		Name:         in.Name,
		Description:  in.Description,
		Category:     in.Category,
		Image:        in.Image,
		Price:        in.Price,
		CountInStock: in.CountInStock,
		Rating:       in.Rating,
		NumReviews:   in.NumReviews,
		IsFeatured:   in.IsFeatured,
		VendorID:     vendorID,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	if err := s.cache.Del(ctx, pageCacheKey(DefaultPage, DefaultLimit)); err != nil {
		logger.WithCtx(ctx).Warn("cache invalidation failed", "error", err)
	}

	return product, nil
}

// List returns one catalogue page, serving from cache within the TTL.
// An empty page is a not-found condition.
func (s *ProductService) List(ctx context.Context, page, limit int) ([]models.Product, error) {
	key := pageCacheKey(page, limit)

	var cached []models.Product
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	products, err := s.products.Page(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, repositories.ErrNotFound
	}

	if err := s.cache.Set(ctx, key, products); err != nil {
		logger.WithCtx(ctx).Warn("cache write failed", "error", err)
	}

	return products, nil
}

// ByVendor returns every product owned by vendorID; none is not-found.
func (s *ProductService) ByVendor(ctx context.Context, vendorID primitive.ObjectID) ([]models.Product, error) {
	products, err := s.products.ByVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, repositories.ErrNotFound
	}
	return products, nil
}
