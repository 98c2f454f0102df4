package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"candy-stand/candy-svc/internal/domain"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	laneMetadataKey = "laneNumber"
	itemMetadataKey = "itemKey"
)

// SessionAPI is the part of the Stripe checkout session client the gateway uses.
type SessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type StripeGateway struct {
	Sessions      SessionAPI
	WebhookSecret string
	Currency      string
	SuccessURL    string
	CancelURL     string
}

type Options struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	SuccessURL    string
	CancelURL     string
}

func NewStripeGateway(opts Options) *StripeGateway {
	sc := client.New(opts.SecretKey, nil)
	return &StripeGateway{
		Sessions:      sc.CheckoutSessions,
		WebhookSecret: opts.WebhookSecret,
		Currency:      opts.Currency,
		SuccessURL:    opts.SuccessURL,
		CancelURL:     opts.CancelURL,
	}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(g.SuccessURL),
		CancelURL:  stripe.String(g.CancelURL),
		PhoneNumberCollection: &stripe.CheckoutSessionPhoneNumberCollectionParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for _, item := range req.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(g.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:     stripe.String(item.Name),
					Metadata: map[string]string{itemMetadataKey: string(item.Key)},
				},
				UnitAmount: stripe.Int64(item.UnitPriceCents),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}
	params.AddMetadata(laneMetadataKey, req.LaneNumber)

	session, err := g.Sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &domain.CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// ParseEvent verifies the Stripe-Signature header and decodes the event. Completed
// checkouts are re-fetched with their line items and products, which webhook payloads omit.
func (g *StripeGateway) ParseEvent(ctx context.Context, payload []byte, signature string) (*domain.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.WebhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, errors.Join(domain.ErrInvalidSignature, err)
	}

	out := &domain.PaymentEvent{Type: string(event.Type)}
	if out.Type != domain.EventCheckoutCompleted {
		return out, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("line_items.data.price.product")
	full, err := g.Sessions.Get(session.ID, params)
	if err != nil {
		return nil, fmt.Errorf("fetch checkout session %s: %w", session.ID, err)
	}

	out.SessionID = full.ID
	out.LaneNumber = full.Metadata[laneMetadataKey]
	if out.LaneNumber == "" {
		out.LaneNumber = session.Metadata[laneMetadataKey]
	}
	if full.LineItems != nil {
		for _, li := range full.LineItems.Data {
			out.Items = append(out.Items, domain.OrderItem{
				Key:      itemKeyOf(li),
				Name:     li.Description,
				Quantity: int(li.Quantity),
			})
		}
	}
	if cd := full.CustomerDetails; cd != nil {
		out.Customer = &domain.CustomerDetails{Name: cd.Name, Email: cd.Email, Phone: cd.Phone}
	}
	return out, nil
}

func itemKeyOf(li *stripe.LineItem) domain.ItemKey {
	if li.Price == nil || li.Price.Product == nil {
		return ""
	}
	return domain.ItemKey(li.Price.Product.Metadata[itemMetadataKey])
}
