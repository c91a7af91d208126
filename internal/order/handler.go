package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"kirana-be/internal/logger"
	"kirana-be/internal/middleware"
	"kirana-be/internal/utils"

	"go.uber.org/zap"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/orders", h.placeOrder)
	mux.HandleFunc("GET /api/orders", middleware.RequireAdmin(h.listAll))
	mux.HandleFunc("GET /api/orders/myorders", h.myOrders)
	mux.HandleFunc("GET /api/orders/{id}", h.detail)
	mux.HandleFunc("PUT /api/orders/{id}/status", middleware.RequireAdmin(h.updateStatus))
}

type placeOrderRequest struct {
	Items        []OrderItem `json:"items"`
	CustomerName string      `json:"customerName"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone"`
	Address      string      `json:"address"`
	DeliverySlot string      `json:"deliverySlot"`
	ServiceFee   float64     `json:"serviceFee"`
	DeliveryFee  float64     `json:"deliveryFee"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Guest checkout is permitted: a valid token attaches the order to
	// the account, its absence leaves the order unowned.
	var userID *uint
	if id, ok := utils.GetUserIDFromContext(r.Context()); ok && id > 0 {
		userID = &id
	}

	o, err := h.svc.PlaceOrder(r.Context(), PlaceOrderInput{
		UserID:       userID,
		CustomerName: req.CustomerName,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		DeliverySlot: req.DeliverySlot,
		Items:        req.Items,
		ServiceFee:   req.ServiceFee,
		DeliveryFee:  req.DeliveryFee,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyOrder),
			errors.Is(err, ErrInvalidItem),
			errors.Is(err, ErrMissingContact):
			utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		default:
			logger.FromCtx(r.Context()).Error("place order failed", zap.Error(err))
			utils.WriteJSONError(w, "Failed to place order", http.StatusInternalServerError)
		}
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]any{
		"msg":     "Order placed",
		"orderId": o.Code,
		"id":      o.ID,
	})
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.ListForOperator(r.Context())
	if err != nil {
		h.writeListError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

func (h *Handler) myOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok || userID == 0 {
		utils.WriteJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	orders, err := h.svc.ListForCustomer(r.Context(), userID)
	if err != nil {
		h.writeListError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

func (h *Handler) detail(w http.ResponseWriter, r *http.Request) {
	id, err := parseOrderID(r.PathValue("id"))
	if err != nil {
		utils.WriteJSONError(w, "Invalid order id", http.StatusBadRequest)
		return
	}

	o, err := h.svc.GetDetail(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			utils.WriteJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, ErrUnauthorized):
			utils.WriteJSONError(w, "Access denied", http.StatusForbidden)
		default:
			logger.FromCtx(r.Context()).Error("get order failed", zap.Error(err))
			utils.WriteJSONError(w, "Server Error", http.StatusInternalServerError)
		}
		return
	}

	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseOrderID(r.PathValue("id"))
	if err != nil {
		utils.WriteJSONError(w, "Invalid order id", http.StatusBadRequest)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.svc.UpdateStatus(r.Context(), id, OrderStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			utils.WriteJSONError(w, "Invalid status", http.StatusBadRequest)
		case errors.Is(err, ErrTransitionNotAllowed):
			utils.WriteJSONError(w, err.Error(), http.StatusConflict)
		case errors.Is(err, ErrOrderNotFound):
			utils.WriteJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, ErrUnauthorized):
			utils.WriteJSONError(w, "Access denied", http.StatusForbidden)
		default:
			logger.FromCtx(r.Context()).Error("update status failed", zap.Error(err))
			utils.WriteJSONError(w, "Server Error", http.StatusInternalServerError)
		}
		return
	}

	utils.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) writeListError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrUnauthorized) {
		utils.WriteJSONError(w, "Access denied", http.StatusForbidden)
		return
	}
	logger.FromCtx(r.Context()).Error("list orders failed", zap.Error(err))
	utils.WriteJSONError(w, "Server Error", http.StatusInternalServerError)
}

func parseOrderID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrOrderNotFound
	}
	return uint(id), nil
}
