package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/upb/campus-eats/middleware"
	"github.com/upb/campus-eats/models"
	"github.com/upb/campus-eats/repositories"
	"github.com/upb/campus-eats/services"
	"github.com/upb/campus-eats/utils"
	"go.uber.org/zap"
)

const (
	defaultOrderLimit = 20
	maxOrderLimit     = 100
)

// RestaurantListResponse is the body of GET /api/restaurants
type RestaurantListResponse struct {
	Success     bool                 `json:"success"`
	Restaurants []*models.Restaurant `json:"restaurants"`
}

// OrderListResponse is the body of GET /api/orders
type OrderListResponse struct {
	Success bool            `json:"success"`
	Orders  []*models.Order `json:"orders"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// CatalogHandler serves the read-only restaurant and order listings
type CatalogHandler struct {
	restaurants repositories.RestaurantRepository
	orders      repositories.OrderRepository
	logger      *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(restaurants repositories.RestaurantRepository, orders repositories.OrderRepository, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		restaurants: restaurants,
		orders:      orders,
		logger:      logger,
	}
}

// HandleListRestaurants handles GET /api/restaurants. ?open=true limits the list to open restaurants.
func (h *CatalogHandler) HandleListRestaurants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	openOnly := r.URL.Query().Get("open") == "true"

	list, err := h.restaurants.List(ctx, openOnly)
	if err != nil {
		h.logger.Error("failed to list restaurants",
			zap.String("request_id", chimw.GetReqID(ctx)),
			zap.Error(err))
		HandleServiceError(w, services.WrapInternal("failed to list restaurants", err), h.logger)
		return
	}
	if list == nil {
		list = []*models.Restaurant{}
	}

	_ = utils.WriteJSON(w, http.StatusOK, RestaurantListResponse{Success: true, Restaurants: list})
}

// HandleGetRestaurant handles GET /api/restaurants/{id}
func (h *CatalogHandler) HandleGetRestaurant(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid restaurant id", nil)
		return
	}

	restaurant, err := h.restaurants.GetByID(r.Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		_ = utils.WriteNotFound(w, "Restaurant not found")
		return
	}
	if err != nil {
		HandleServiceError(w, services.WrapInternal("failed to load restaurant", err), h.logger)
		return
	}

	_ = utils.WriteOK(w, restaurant)
}

// HandleListOrders handles GET /api/orders for the current user
func (h *CatalogHandler) HandleListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUserFromContext(ctx)
	if user == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	limit := utils.QueryInt(r, "limit", defaultOrderLimit, 1, maxOrderLimit)
	offset := utils.QueryInt(r, "offset", 0, 0, 1<<20)

	orders, err := h.orders.ListByUser(ctx, user.ID, limit, offset)
	if err != nil {
		h.logger.Error("failed to list orders",
			zap.String("request_id", chimw.GetReqID(ctx)),
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		HandleServiceError(w, services.WrapInternal("failed to list orders", err), h.logger)
		return
	}
	if orders == nil {
		orders = []*models.Order{}
	}

	_ = utils.WriteJSON(w, http.StatusOK, OrderListResponse{
		Success: true,
		Orders:  orders,
		Limit:   limit,
		Offset:  offset,
	})
}

// HandleGetOrder handles GET /api/orders/{id}. Customers only see their own
// orders; staff and admins see any.
func (h *CatalogHandler) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid order id", nil)
		return
	}

	order, err := h.orders.GetByID(r.Context(), id)
	if errors.Is(err, repositories.ErrNotFound) {
		_ = utils.WriteNotFound(w, "Order not found")
		return
	}
	if err != nil {
		HandleServiceError(w, services.WrapInternal("failed to load order", err), h.logger)
		return
	}

	// Another customer's order is reported as missing
	if order.UserID != user.ID && !user.HasRole(models.RoleStaff, models.RoleAdmin) {
		_ = utils.WriteNotFound(w, "Order not found")
		return
	}

	_ = utils.WriteOK(w, order)
}
