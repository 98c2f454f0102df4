package service

import (
	"fmt"
	"net/url"

	"github.com/skip2/go-qrcode"
)

type DefaultQRGenerator struct {
	BaseURL string
}

func (g DefaultQRGenerator) Generate(orderID string) ([]byte, error) {
	qrData := fmt.Sprintf("%s/order.html?order_id=%s", g.BaseURL, url.QueryEscape(orderID))
	return qrcode.Encode(qrData, qrcode.Medium, 256)
}
