package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"candy-stand/candy-svc/internal/domain"

	"github.com/stripe/stripe-go/v76"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

type fakeSessions struct {
	created *stripe.CheckoutSessionParams
	fetched []string
	params  *stripe.CheckoutSessionParams
	session *stripe.CheckoutSession
	err     error
}

func (f *fakeSessions) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.created = params
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.test/cs_test_1"}, nil
}

func (f *fakeSessions) Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.fetched = append(f.fetched, id)
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	if f.session == nil && f.created != nil {
		return f.echo(id), nil
	}
	return f.session, nil
}

// echo returns what Stripe would report for the last created session.
func (f *fakeSessions) echo(id string) *stripe.CheckoutSession {
	session := &stripe.CheckoutSession{ID: id, Metadata: f.created.Metadata, LineItems: &stripe.LineItemList{}}
	for _, li := range f.created.LineItems {
		session.LineItems.Data = append(session.LineItems.Data, &stripe.LineItem{
			Description: *li.PriceData.ProductData.Name,
			Quantity:    *li.Quantity,
			Price: &stripe.Price{
				UnitAmount: *li.PriceData.UnitAmount,
				Product:    &stripe.Product{Name: *li.PriceData.ProductData.Name, Metadata: li.PriceData.ProductData.Metadata},
			},
		})
	}
	return session
}

func sign(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts.Unix(), payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func newGateway(sessions *fakeSessions) *StripeGateway {
	return &StripeGateway{
		Sessions:      sessions,
		WebhookSecret: testSecret,
		Currency:      "usd",
		SuccessURL:    "https://candy.test/success",
		CancelURL:     "https://candy.test/cancel",
	}
}

func TestStripeGateway_CreateCheckoutSession(t *testing.T) {
	sessions := &fakeSessions{}
	gateway := newGateway(sessions)

	session, err := gateway.CreateCheckoutSession(context.Background(), domain.CheckoutRequest{
		LaneNumber: "7",
		Items: []domain.CheckoutLineItem{
			{Key: "gb-01", Name: "Gummy Bears", UnitPriceCents: 250, Quantity: 4},
			{Key: "sour-worms", Name: "Sour Worms", UnitPriceCents: 150, Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", session.ID)
	assert.Equal(t, "https://checkout.stripe.test/cs_test_1", session.URL)

	params := sessions.created
	require.NotNil(t, params)
	assert.Equal(t, "7", params.Metadata["laneNumber"])
	assert.Equal(t, string(stripe.CheckoutSessionModePayment), *params.Mode)
	require.Len(t, params.LineItems, 2)
	assert.Equal(t, int64(250), *params.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, "Gummy Bears", *params.LineItems[0].PriceData.ProductData.Name)
	assert.Equal(t, "gb-01", params.LineItems[0].PriceData.ProductData.Metadata["itemKey"])
	assert.Equal(t, int64(4), *params.LineItems[0].Quantity)
	assert.Equal(t, "usd", *params.LineItems[1].PriceData.Currency)
}

func TestStripeGateway_CreateCheckoutSessionError(t *testing.T) {
	gateway := newGateway(&fakeSessions{err: errors.New("card network down")})

	_, err := gateway.CreateCheckoutSession(context.Background(), domain.CheckoutRequest{LaneNumber: "1"})
	assert.Error(t, err)
}

func TestStripeGateway_ParseEvent(t *testing.T) {
	completed := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_test_1","object":"checkout.session","metadata":{"laneNumber":"7"}}}}`)
	expired := []byte(`{"id":"evt_2","object":"event","type":"checkout.session.expired","data":{"object":{"id":"cs_test_2","object":"checkout.session"}}}`)

	t.Run("completed checkout is expanded", func(t *testing.T) {
		sessions := &fakeSessions{session: &stripe.CheckoutSession{
			ID:       "cs_test_1",
			Metadata: map[string]string{"laneNumber": "7"},
			LineItems: &stripe.LineItemList{Data: []*stripe.LineItem{
				{Description: "Gummy Bears", Quantity: 4, Price: &stripe.Price{
					Product: &stripe.Product{Metadata: map[string]string{"itemKey": "gb-01"}},
				}},
				{Description: "Sour Worms", Quantity: 1},
			}},
			CustomerDetails: &stripe.CheckoutSessionCustomerDetails{Name: "Ada", Email: "ada@example.com", Phone: "+15550100"},
		}}
		gateway := newGateway(sessions)

		event, err := gateway.ParseEvent(context.Background(), completed, sign(completed, testSecret, time.Now()))
		require.NoError(t, err)
		assert.Equal(t, domain.EventCheckoutCompleted, event.Type)
		assert.Equal(t, "cs_test_1", event.SessionID)
		assert.Equal(t, "7", event.LaneNumber)
		assert.Equal(t, []domain.OrderItem{
			{Key: "gb-01", Name: "Gummy Bears", Quantity: 4},
			{Name: "Sour Worms", Quantity: 1},
		}, event.Items)
		assert.Equal(t, &domain.CustomerDetails{Name: "Ada", Email: "ada@example.com", Phone: "+15550100"}, event.Customer)
		assert.Equal(t, []string{"cs_test_1"}, sessions.fetched)
		require.NotNil(t, sessions.params)
		assert.NotNil(t, sessions.params.Context)
		assert.Contains(t, sessions.params.Expand, stripe.String("line_items.data.price.product"))
	})

	t.Run("other event types are passed through without fetching", func(t *testing.T) {
		sessions := &fakeSessions{}
		gateway := newGateway(sessions)

		event, err := gateway.ParseEvent(context.Background(), expired, sign(expired, testSecret, time.Now()))
		require.NoError(t, err)
		assert.Equal(t, "checkout.session.expired", event.Type)
		assert.Empty(t, sessions.fetched)
	})

	t.Run("bad signature", func(t *testing.T) {
		sessions := &fakeSessions{}
		gateway := newGateway(sessions)

		_, err := gateway.ParseEvent(context.Background(), completed, sign(completed, "whsec_other", time.Now()))
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
		assert.Empty(t, sessions.fetched)
	})

	t.Run("tampered payload", func(t *testing.T) {
		gateway := newGateway(&fakeSessions{})
		header := sign(completed, testSecret, time.Now())
		tampered := append([]byte{}, completed...)
		tampered[len(tampered)-3] = 'X'

		_, err := gateway.ParseEvent(context.Background(), tampered, header)
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		gateway := newGateway(&fakeSessions{})

		_, err := gateway.ParseEvent(context.Background(), completed, sign(completed, testSecret, time.Now().Add(-time.Hour)))
		assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	})

	t.Run("session fetch failure is not a signature error", func(t *testing.T) {
		gateway := newGateway(&fakeSessions{err: errors.New("stripe unavailable")})

		_, err := gateway.ParseEvent(context.Background(), completed, sign(completed, testSecret, time.Now()))
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrInvalidSignature)
	})
}

func TestStripeGateway_ItemKeySurvivesCheckout(t *testing.T) {
	sessions := &fakeSessions{}
	gateway := newGateway(sessions)

	_, err := gateway.CreateCheckoutSession(context.Background(), domain.CheckoutRequest{
		LaneNumber: "4",
		Items:      []domain.CheckoutLineItem{{Key: "gb-01", Name: "Gummy Bears", UnitPriceCents: 250, Quantity: 2}},
	})
	require.NoError(t, err)

	completed := []byte(`{"id":"evt_3","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_test_1","object":"checkout.session"}}}`)
	event, err := gateway.ParseEvent(context.Background(), completed, sign(completed, testSecret, time.Now()))
	require.NoError(t, err)

	assert.Equal(t, "4", event.LaneNumber)
	assert.Equal(t, []domain.OrderItem{{Key: "gb-01", Name: "Gummy Bears", Quantity: 2}}, event.Items)
}
