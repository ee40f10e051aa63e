package routes

import (
	"net/http"

	"github.com/shashiranjanraj/madina/app/controllers"
	"github.com/shashiranjanraj/madina/config"
	"github.com/shashiranjanraj/madina/pkg/metrics"
	"github.com/shashiranjanraj/madina/pkg/middleware"
	"github.com/shashiranjanraj/madina/pkg/rbac"
	"github.com/shashiranjanraj/madina/pkg/reqid"
	"github.com/shashiranjanraj/madina/pkg/response"
	"github.com/shashiranjanraj/madina/pkg/router"
)

// Controllers bundles every controller the API mounts.
type Controllers struct {
	Users      *controllers.UserController
	Products   *controllers.ProductController
	Orders     *controllers.OrderController
	Deliveries *controllers.DeliveryController
}

// RegisterAPI mounts the full HTTP surface under the configured prefix.
func RegisterAPI(r *router.Router, c Controllers) {
	prefix := config.APIPrefix()

	r.Use(
		reqid.Middleware(),
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(middleware.DefaultCORSOptions()),
		metrics.Middleware(),
	)

	r.Get("/healthz", "infra.health", func(w http.ResponseWriter, _ *http.Request) {
		response.Success(w, map[string]string{"status": "ok"})
	})
	r.Get("/metrics", "infra.metrics", metrics.Handler())

	api := r.Group(prefix, middleware.Auth(
		middleware.PublicRule{Method: http.MethodPost, Path: prefix + "/users/register"},
		middleware.PublicRule{Method: http.MethodPost, Path: prefix + "/users/login"},
		middleware.PublicRule{Method: http.MethodPost, Path: prefix + "/delivery/login"},
		middleware.PublicRule{Method: http.MethodGet, Path: prefix + "/products"},
	))

	users := api.Group("/users")
	users.Post("/register", "users.register", c.Users.Register)
	users.Post("/login", "users.login", c.Users.Login)
	users.Get("", "users.index", c.Users.Index, rbac.Require(rbac.RoleAdmin))
	users.Get("/profile", "users.profile", c.Users.Profile)
	users.Put("/profile", "users.profile.update", c.Users.UpdateProfile)
	users.Put("/password", "users.password", c.Users.ChangePassword)
	users.Get("/orders", "users.orders", c.Orders.Index)
	users.Get("/orders/{orderId}", "users.orders.show", c.Orders.Show)
	// Alias kept from the original API surface.
	users.Post("/deliveries", "users.deliveries.create", c.Deliveries.Create, rbac.Require(rbac.RoleVendor))
	users.Get("/{id}", "users.show", c.Users.Show)

	products := api.Group("/products")
	products.Get("", "products.index", c.Products.Index)
	products.Post("", "products.create", c.Products.Create, rbac.Require(rbac.RoleVendor))
	products.Get("/vendeuse/{id}", "products.by_vendor", c.Products.ByVendor)

	orders := api.Group("/orders")
	orders.Post("", "orders.create", c.Orders.Create)
	orders.Get("/confirm", "orders.confirm", c.Orders.Confirm)

	delivery := api.Group("/delivery")
	delivery.Post("", "delivery.create", c.Deliveries.Create, rbac.Require(rbac.RoleVendor))
	delivery.Post("/login", "delivery.login", c.Deliveries.Login)
	delivery.Post("/scan/{orderId}", "delivery.scan", c.Deliveries.Scan, rbac.Require(rbac.RoleDelivery))
}
