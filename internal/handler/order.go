package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/storekit/checkout/internal/domain/order"
	"github.com/storekit/checkout/internal/domain/promo"
	"github.com/storekit/checkout/pkg/httpmiddleware"
)

type addressDTO struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type checkoutRequest struct {
	PaymentMethod   string      `json:"payment_method"`
	ShippingMethod  string      `json:"shipping_method"`
	PromoCode       string      `json:"promo_code,omitempty"`
	BillingAddress  *addressDTO `json:"billing_address,omitempty"`
	ShippingAddress *addressDTO `json:"shipping_address,omitempty"`
}

type orderItemDTO struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type orderResponse struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id"`
	Items          []orderItemDTO `json:"items"`
	Subtotal       float64        `json:"subtotal"`
	Tax            float64        `json:"tax"`
	ShippingCost   float64        `json:"shipping_cost"`
	Discount       float64        `json:"discount"`
	Total          float64        `json:"total"`
	Status         string         `json:"status"`
	PaymentStatus  string         `json:"payment_status"`
	PaymentMethod  string         `json:"payment_method"`
	ShippingMethod string         `json:"shipping_method,omitempty"`
	PaymentRef     string         `json:"payment_ref,omitempty"`
	PromoCode      string         `json:"promo_code,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type checkoutResponse struct {
	Order       orderResponse `json:"order"`
	RedirectURL string        `json:"redirect_url,omitempty"`
	Replayed    bool          `json:"replayed,omitempty"`
}

// Checkout turns the caller's cart into an order. A repeated submission with
// the same X-Idempotency-Key returns the original order.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, _ := httpmiddleware.UserID(r.Context())

	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.orders.SubmitOrder(r.Context(), order.SubmitRequest{
		UserID:          userID,
		PaymentMethod:   order.PaymentMethod(req.PaymentMethod),
		ShippingMethod:  req.ShippingMethod,
		PromoCode:       req.PromoCode,
		IdempotencyKey:  r.Header.Get("X-Idempotency-Key"),
		BillingAddress:  toDomainAddress(req.BillingAddress),
		ShippingAddress: toDomainAddress(req.ShippingAddress),
	})
	if err != nil {
		h.respondOrderError(w, r, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	respondJSON(w, r, status, checkoutResponse{
		Order:       toOrderResponse(result.Order),
		RedirectURL: result.RedirectURL,
		Replayed:    result.Replayed,
	})
}

// GetOrder returns a single order. With ?wait=paid the read retries until the
// payment leg has settled, returning 202 with the last observed state when
// the bound runs out.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	wait := r.URL.Query().Get("wait")
	if wait == "" {
		o, err := h.orders.GetOrder(r.Context(), orderID)
		if err != nil {
			h.respondOrderError(w, r, err)
			return
		}
		respondJSON(w, r, http.StatusOK, toOrderResponse(o))
		return
	}

	o, err := h.poller.LoadOrderWithRetries(r.Context(), orderID, wait == "paid")
	if errors.Is(err, order.ErrNotYetConsistent) {
		respondJSON(w, r, http.StatusAccepted, toOrderResponse(o))
		return
	}
	if err != nil {
		h.respondOrderError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toOrderResponse(o))
}

// ReconcileOrder resolves an order's payment state after the gateway
// redirect. ?status=success confirms payment, ?status=cancel leaves the
// order unpaid.
func (h *Handler) ReconcileOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	flag := order.ReconcileFlag(r.URL.Query().Get("status"))

	o, err := h.orders.ReconcilePaymentStatus(r.Context(), orderID, flag)
	if err != nil {
		h.respondOrderError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toOrderResponse(o))
}

// CancelOrder cancels a still-cancellable order and releases its stock.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	o, err := h.orders.CancelOrder(r.Context(), orderID)
	if err != nil {
		h.respondOrderError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) respondOrderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, order.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "order not found")
	case errors.Is(err, order.ErrEmptyCart):
		respondError(w, r, http.StatusBadRequest, "cart is empty")
	case errors.Is(err, order.ErrUnknownPaymentMethod):
		respondError(w, r, http.StatusBadRequest, "unknown payment method")
	case errors.Is(err, order.ErrUnknownReconcileFlag):
		respondError(w, r, http.StatusBadRequest, "status must be success or cancel")
	case errors.Is(err, order.ErrNotCancellable):
		respondError(w, r, http.StatusConflict, "order is not cancellable")
	case errors.Is(err, promo.ErrInvalidCode):
		respondError(w, r, http.StatusUnprocessableEntity, "invalid promo code")
	default:
		respondError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func toDomainAddress(a *addressDTO) *order.Address {
	if a == nil {
		return nil
	}
	return &order.Address{
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemDTO, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemDTO{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.InexactFloat64(),
		}
	}
	return orderResponse{
		ID:             o.ID,
		UserID:         o.UserID,
		Items:          items,
		Subtotal:       o.Subtotal.InexactFloat64(),
		Tax:            o.Tax.InexactFloat64(),
		ShippingCost:   o.ShippingCost.InexactFloat64(),
		Discount:       o.Discount.InexactFloat64(),
		Total:          o.Total.InexactFloat64(),
		Status:         string(o.Status),
		PaymentStatus:  string(o.PaymentStatus),
		PaymentMethod:  string(o.PaymentMethod),
		ShippingMethod: o.ShippingMethod,
		PaymentRef:     o.PaymentRef,
		PromoCode:      o.PromoCode,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}
