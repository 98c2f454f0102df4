package domain

import (
	"strings"
	"time"
)

type OrderItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// OrderLogMessage is one settled order as published on the order-log topic.
type OrderLogMessage struct {
	Timestamp    time.Time   `json:"timestamp"`
	OrderID      string      `json:"orderId"`
	LaneNumber   string      `json:"laneNumber"`
	IsPaid       bool        `json:"isPaid"`
	ItemSummary  string      `json:"itemSummary"`
	CustomerJSON string      `json:"customerJson"`
	Items        []OrderItem `json:"items"`
}

func (m OrderLogMessage) Valid() bool {
	return strings.TrimSpace(m.OrderID) != ""
}

// Day is the sales bucket the order counts towards.
func (m OrderLogMessage) Day() string {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return ts.UTC().Format("2006-01-02")
}
