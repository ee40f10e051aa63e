package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/madina/app/repositories"
	"github.com/shashiranjanraj/madina/app/services"
	"github.com/shashiranjanraj/madina/pkg/response"
	"github.com/shashiranjanraj/madina/pkg/validate"
)

type ProductController struct {
	service *services.ProductService
}

func NewProductController(service *services.ProductService) *ProductController {
	return &ProductController{service: service}
}

// Index lists products per page. An empty page reads as missing.
func (c *ProductController) Index(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", services.DefaultPage)
	limit := queryInt(r, "limit", services.DefaultLimit)
	if page < 1 {
		page = services.DefaultPage
	}
	if limit < 1 {
		limit = services.DefaultLimit
	}

	products, err := c.service.List(r.Context(), page, limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Paginated(w, products, response.Pagination{
		Page:  page,
		Limit: limit,
		Count: len(products),
	})
}

func (c *ProductController) Create(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := callerID(w, r)
	if !ok {
		return
	}

	var in services.CreateProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	product, err := c.service.Create(r.Context(), vendorID, in)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Created(w, product)
}

func (c *ProductController) ByVendor(w http.ResponseWriter, r *http.Request) {
	vendorID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, repositories.ErrNotFound)
		return
	}

	products, err := c.service.ByVendor(r.Context(), vendorID)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, products)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
