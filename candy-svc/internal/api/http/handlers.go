package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"candy-stand/candy-svc/internal/domain"
	"candy-stand/candy-svc/internal/service"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const maxWebhookBody = 64 << 10

type Handler struct {
	Reservations service.ReservationServiceInterface
	Settlement   service.SettlementServiceInterface
	Checkout     service.CheckoutServiceInterface
	Orders       service.OrderServiceInterface
	Logger       *zap.Logger
}

func NewHandler(reservations service.ReservationServiceInterface, settlement service.SettlementServiceInterface, checkout service.CheckoutServiceInterface, orders service.OrderServiceInterface, logger *zap.Logger) *Handler {
	return &Handler{
		Reservations: reservations,
		Settlement:   settlement,
		Checkout:     checkout,
		Orders:       orders,
		Logger:       logger,
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")

	r.HandleFunc("/api/reserve-stock", h.reserveStock).Methods("POST")
	r.HandleFunc("/api/release-reservation", h.releaseReservation).Methods("POST")
	r.HandleFunc("/api/send-order", h.sendOrder).Methods("POST")
	r.HandleFunc("/api/create-checkout-session", h.createCheckoutSession).Methods("POST")
	r.HandleFunc("/api/webhook", h.webhook).Methods("POST")

	r.HandleFunc("/api/inventory", h.getInventory).Methods("GET")
	r.HandleFunc("/api/shop-status", h.getShopStatus).Methods("GET")
	r.HandleFunc("/api/orders/{id}", h.getOrder).Methods("GET")
	r.HandleFunc("/api/orders/{id}/qrcode", h.getOrderQRCode).Methods("GET")
}

type reservationRequest struct {
	SessionID string               `json:"sessionId"`
	Items     []domain.ItemRequest `json:"items"`
}

type orderRequest struct {
	LaneNumber string               `json:"laneNumber"`
	Items      []domain.ItemRequest `json:"items"`
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "candy-svc",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) reserveStock(w http.ResponseWriter, r *http.Request) {
	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Reservations.Reserve(r.Context(), req.SessionID, req.Items); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) releaseReservation(w http.ResponseWriter, r *http.Request) {
	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Reservations.Release(r.Context(), req.SessionID, req.Items); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) sendOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}
	order, err := h.Settlement.SendOrder(r.Context(), req.LaneNumber, req.Items)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}
	session, err := h.Checkout.CreateSession(r.Context(), req.LaneNumber, req.Items)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// webhook needs the raw body: the signature covers the exact bytes sent.
func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	if err := h.Checkout.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *Handler) getInventory(w http.ResponseWriter, r *http.Request) {
	menu, err := h.Orders.Menu(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, menu)
}

func (h *Handler) getShopStatus(w http.ResponseWriter, r *http.Request) {
	open, err := h.Orders.ShopOpen(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"isOpen": open})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.Orders.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) getOrderQRCode(w http.ResponseWriter, r *http.Request) {
	png, err := h.Orders.QRCode(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var (
		insufficient *domain.InsufficientStockError
		notFound     *domain.ItemNotFoundError
	)
	switch {
	case domain.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrInvalidSignature):
		http.Error(w, "Invalid signature", http.StatusBadRequest)
	case errors.Is(err, domain.ErrShopClosed):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.As(err, &insufficient):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &notFound), errors.Is(err, domain.ErrOrderNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		if h.Logger != nil {
			h.Logger.Error("request failed", zap.Error(err))
		}
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
