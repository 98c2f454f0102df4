package service

import (
	"context"

	"candy-stand/candy-svc/internal/domain"
)

type ShopGate struct {
	settings ShopSettings
}

func NewShopGate(settings ShopSettings) *ShopGate {
	return &ShopGate{settings: settings}
}

// IsOpen fails open: a missing shop document means the shop is open.
func (g *ShopGate) IsOpen(ctx context.Context) (bool, error) {
	open, found, err := g.settings.ShopOpen(ctx)
	if err != nil {
		return false, domain.NewPersistenceError("read shop settings", err)
	}
	if !found {
		return true, nil
	}
	return open, nil
}

// Check returns domain.ErrShopClosed when new business must be refused.
func (g *ShopGate) Check(ctx context.Context) error {
	open, err := g.IsOpen(ctx)
	if err != nil {
		return err
	}
	if !open {
		return domain.ErrShopClosed
	}
	return nil
}
