package tests

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpapi "candy-stand/candy-svc/internal/api/http"
	"candy-stand/candy-svc/internal/domain"
	"candy-stand/candy-svc/internal/mocks"
	"candy-stand/candy-svc/internal/service"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type handlerMocks struct {
	reservations *mocks.ReservationServiceInterface
	settlement   *mocks.SettlementServiceInterface
	checkout     *mocks.CheckoutServiceInterface
	orders       *mocks.OrderServiceInterface
}

func newHandler(t *testing.T) (*mux.Router, *handlerMocks) {
	m := &handlerMocks{
		reservations: mocks.NewReservationServiceInterface(t),
		settlement:   mocks.NewSettlementServiceInterface(t),
		checkout:     mocks.NewCheckoutServiceInterface(t),
		orders:       mocks.NewOrderServiceInterface(t),
	}
	handler := httpapi.NewHandler(m.reservations, m.settlement, m.checkout, m.orders, zap.NewNop())
	r := mux.NewRouter()
	handler.RegisterRoutes(r)
	return r, m
}

func serve(r *mux.Router, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestReserveStockHandler(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		setup    func(*handlerMocks)
		wantCode int
	}{
		{
			name: "reserved",
			body: `{"sessionId":"s1","items":[{"name":"Gummy Bears","quantity":4}]}`,
			setup: func(m *handlerMocks) {
				m.reservations.On("Reserve", mock.Anything, "s1", []domain.ItemRequest{{Name: "Gummy Bears", Quantity: 4}}).Return(nil).Once()
			},
			wantCode: http.StatusOK,
		},
		{
			name:     "invalid JSON",
			body:     `{invalid}`,
			setup:    func(m *handlerMocks) {},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "missing session",
			body: `{"items":[{"name":"Gummy Bears","quantity":4}]}`,
			setup: func(m *handlerMocks) {
				m.reservations.On("Reserve", mock.Anything, "", mock.Anything).
					Return(domain.NewValidationError("sessionId", "sessionId is required")).Once()
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "insufficient stock",
			body: `{"sessionId":"s1","items":[{"name":"Gummy Bears","quantity":40}]}`,
			setup: func(m *handlerMocks) {
				m.reservations.On("Reserve", mock.Anything, "s1", mock.Anything).
					Return(&domain.InsufficientStockError{Item: "Gummy Bears", Requested: 40, Available: 10}).Once()
			},
			wantCode: http.StatusConflict,
		},
		{
			name: "shop closed",
			body: `{"sessionId":"s1","items":[{"name":"Gummy Bears","quantity":1}]}`,
			setup: func(m *handlerMocks) {
				m.reservations.On("Reserve", mock.Anything, "s1", mock.Anything).Return(domain.ErrShopClosed).Once()
			},
			wantCode: http.StatusForbidden,
		},
		{
			name: "unknown item",
			body: `{"sessionId":"s1","items":[{"name":"Licorice","quantity":1}]}`,
			setup: func(m *handlerMocks) {
				m.reservations.On("Reserve", mock.Anything, "s1", mock.Anything).Return(&domain.ItemNotFoundError{Item: "Licorice"}).Once()
			},
			wantCode: http.StatusNotFound,
		},
		{
			name: "store failure",
			body: `{"sessionId":"s1","items":[{"name":"Gummy Bears","quantity":1}]}`,
			setup: func(m *handlerMocks) {
				m.reservations.On("Reserve", mock.Anything, "s1", mock.Anything).
					Return(domain.NewPersistenceError("inventory transaction", errors.New("redis down"))).Once()
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			r, m := newHandler(t)
			testCase.setup(m)

			w := serve(r, "POST", "/api/reserve-stock", testCase.body, nil)

			assert.Equal(t, testCase.wantCode, w.Code)
		})
	}
}

func TestInsufficientStockMessageNamesItem(t *testing.T) {
	r, m := newHandler(t)
	m.reservations.On("Reserve", mock.Anything, "s1", mock.Anything).
		Return(&domain.InsufficientStockError{Item: "Gummy Bears", Requested: 7, Available: 6}).Once()

	w := serve(r, "POST", "/api/reserve-stock", `{"sessionId":"s1","items":[{"name":"Gummy Bears","quantity":7}]}`, nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Gummy Bears")
}

func TestReleaseReservationHandler(t *testing.T) {
	r, m := newHandler(t)
	m.reservations.On("Release", mock.Anything, "s1", []domain.ItemRequest{{Name: "Gummy Bears", Quantity: 4}}).Return(nil).Once()

	w := serve(r, "POST", "/api/release-reservation", `{"sessionId":"s1","items":[{"name":"Gummy Bears","quantity":4}]}`, nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSendOrderHandler(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		r, m := newHandler(t)
		m.settlement.On("SendOrder", mock.Anything, "3", []domain.ItemRequest{{Name: "Sour Worms", Quantity: 2}}).
			Return(&domain.Order{ID: "order-1", LaneNumber: "3"}, nil).Once()

		w := serve(r, "POST", "/api/send-order", `{"laneNumber":"3","items":[{"name":"Sour Worms","quantity":2}]}`, nil)

		require.Equal(t, http.StatusCreated, w.Code)
		var order domain.Order
		require.NoError(t, json.NewDecoder(w.Body).Decode(&order))
		assert.Equal(t, "order-1", order.ID)
	})

	t.Run("shop closed", func(t *testing.T) {
		r, m := newHandler(t)
		m.settlement.On("SendOrder", mock.Anything, "3", mock.Anything).Return(nil, domain.ErrShopClosed).Once()

		w := serve(r, "POST", "/api/send-order", `{"laneNumber":"3","items":[{"name":"Sour Worms","quantity":2}]}`, nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestCreateCheckoutSessionHandler(t *testing.T) {
	r, m := newHandler(t)
	m.checkout.On("CreateSession", mock.Anything, "7", mock.Anything).
		Return(&domain.CheckoutSession{ID: "cs_1", URL: "https://pay.test/cs_1"}, nil).Once()

	w := serve(r, "POST", "/api/create-checkout-session", `{"laneNumber":"7","items":[{"name":"Gummy Bears","quantity":1}]}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "https://pay.test/cs_1", body["url"])
	assert.Equal(t, "cs_1", body["sessionId"])
}

func TestWebhookHandler(t *testing.T) {
	payload := `{"id":"evt_1","type":"checkout.session.completed"}`

	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "handled", wantCode: http.StatusOK},
		{name: "bad signature", err: domain.ErrInvalidSignature, wantCode: http.StatusBadRequest},
		{name: "processing failure", err: domain.NewPersistenceError("save order", errors.New("db down")), wantCode: http.StatusInternalServerError},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			r, m := newHandler(t)
			m.checkout.On("HandleWebhook", mock.Anything, []byte(payload), "t=1,v1=abc").Return(testCase.err).Once()

			w := serve(r, "POST", "/api/webhook", payload, map[string]string{"Stripe-Signature": "t=1,v1=abc"})

			assert.Equal(t, testCase.wantCode, w.Code)
		})
	}
}

func TestWebhookHandlerRejectsOversizedBody(t *testing.T) {
	r, m := newHandler(t)

	w := serve(r, "POST", "/api/webhook", strings.Repeat("x", 64<<10+1), map[string]string{"Stripe-Signature": "t=1,v1=abc"})

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	m.checkout.AssertNotCalled(t, "HandleWebhook", mock.Anything, mock.Anything, mock.Anything)
}

func TestReadHandlers(t *testing.T) {
	t.Run("inventory", func(t *testing.T) {
		r, m := newHandler(t)
		m.orders.On("Menu", mock.Anything).Return([]domain.MenuItem{{ID: "gummy-bears", Name: "Gummy Bears", PriceCents: 250, Available: 6}}, nil).Once()

		w := serve(r, "GET", "/api/inventory", "", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"available":6`)
	})

	t.Run("shop status", func(t *testing.T) {
		r, m := newHandler(t)
		m.orders.On("ShopOpen", mock.Anything).Return(true, nil).Once()

		w := serve(r, "GET", "/api/shop-status", "", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"isOpen":true}`, w.Body.String())
	})

	t.Run("order not found", func(t *testing.T) {
		r, m := newHandler(t)
		m.orders.On("Get", mock.Anything, "missing").Return(nil, domain.ErrOrderNotFound).Once()

		w := serve(r, "GET", "/api/orders/missing", "", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("qr code", func(t *testing.T) {
		r, m := newHandler(t)
		m.orders.On("QRCode", mock.Anything, "order-1").Return([]byte("\x89PNG"), nil).Once()

		w := serve(r, "GET", "/api/orders/order-1/qrcode", "", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	})

	t.Run("health", func(t *testing.T) {
		r, _ := newHandler(t)

		w := serve(r, "GET", "/health", "", nil)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

var _ service.SettlementServiceInterface = (*mocks.SettlementServiceInterface)(nil)
