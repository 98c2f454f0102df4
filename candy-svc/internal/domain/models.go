package domain

import (
	"fmt"
	"strings"
	"time"
)

// ItemKey identifies one inventory record.
type ItemKey string

type Reservation struct {
	Quantity  int       `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

type InventoryRecord struct {
	Key          ItemKey                `json:"id"`
	Name         string                 `json:"name"`
	PriceCents   int64                  `json:"priceCents"`
	Stock        int                    `json:"stock"`
	Reservations map[string]Reservation `json:"reservations"`
}

// InventoryTxFunc runs inside an inventory transaction. Records missing from the store are
// absent from the map. Every record left in the map is written back when it returns nil,
// so deleting an unchanged record skips its write. A non-nil error aborts the transaction
// without writes.
type InventoryTxFunc func(records map[ItemKey]*InventoryRecord) error

// ItemRequest is one line of a client cart.
type ItemRequest struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// OrderItem is one settled line. Key is the inventory record it was sold from; it is
// empty when the payment processor did not echo it back.
type OrderItem struct {
	Key      ItemKey `json:"key,omitempty"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
}

type CustomerDetails struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type Order struct {
	ID         string           `json:"id"`
	Items      []OrderItem      `json:"items"`
	LaneNumber string           `json:"laneNumber"`
	IsPaid     bool             `json:"isPaid"`
	Customer   *CustomerDetails `json:"customer,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// LogRow is one line of the order log sheet.
type LogRow struct {
	Timestamp    time.Time   `json:"timestamp"`
	OrderID      string      `json:"orderId"`
	LaneNumber   string      `json:"laneNumber"`
	IsPaid       bool        `json:"isPaid"`
	ItemSummary  string      `json:"itemSummary"`
	CustomerJSON string      `json:"customerJson"`
	Items        []OrderItem `json:"items"`
}

type CheckoutLineItem struct {
	Key            ItemKey
	Name           string
	UnitPriceCents int64
	Quantity       int
}

type CheckoutRequest struct {
	Items      []CheckoutLineItem
	LaneNumber string
}

type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}

const EventCheckoutCompleted = "checkout.session.completed"

// PaymentEvent is a verified, decoded payment processor event.
type PaymentEvent struct {
	Type       string
	SessionID  string
	LaneNumber string
	Items      []OrderItem
	Customer   *CustomerDetails
}

// MenuItem is an inventory record as the storefront sees it.
type MenuItem struct {
	ID         ItemKey `json:"id"`
	Name       string  `json:"name"`
	PriceCents int64   `json:"priceCents"`
	Available  int     `json:"available"`
}

// SummarizeItems renders items as "Gummy Bears x4, Sour Worms x1".
func SummarizeItems(items []OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%s x%d", item.Name, item.Quantity))
	}
	return strings.Join(parts, ", ")
}
