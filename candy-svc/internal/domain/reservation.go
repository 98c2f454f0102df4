package domain

import "time"

const ReservationTTL = 10 * time.Minute

// IsLive reports whether a hold still counts against availability at now.
func (r Reservation) IsLive(now time.Time, ttl time.Duration) bool {
	return now.Sub(r.Timestamp) < ttl
}

// DisplayName is the name used in customer facing errors.
func (rec *InventoryRecord) DisplayName() string {
	if rec.Name != "" {
		return rec.Name
	}
	return string(rec.Key)
}

// live returns the non-expired holds and their total quantity without touching rec.
func (rec *InventoryRecord) live(now time.Time, ttl time.Duration) (map[string]Reservation, int) {
	kept := make(map[string]Reservation, len(rec.Reservations))
	reserved := 0
	for session, entry := range rec.Reservations {
		if !entry.IsLive(now, ttl) {
			continue
		}
		kept[session] = entry
		reserved += entry.Quantity
	}
	return kept, reserved
}

// Sweep drops expired holds and returns the quantity still held.
func (rec *InventoryRecord) Sweep(now time.Time, ttl time.Duration) int {
	kept, reserved := rec.live(now, ttl)
	rec.Reservations = kept
	return reserved
}

// Available is stock minus live holds. It does not modify rec.
func (rec *InventoryRecord) Available(now time.Time, ttl time.Duration) int {
	_, reserved := rec.live(now, ttl)
	return rec.Stock - reserved
}

// Hold adds qty to the session's hold. On error rec is left untouched.
func (rec *InventoryRecord) Hold(session string, qty int, now time.Time, ttl time.Duration) error {
	kept, reserved := rec.live(now, ttl)
	if available := rec.Stock - reserved; available < qty {
		return &InsufficientStockError{Item: rec.DisplayName(), Requested: qty, Available: available}
	}
	kept[session] = Reservation{Quantity: kept[session].Quantity + qty, Timestamp: now}
	rec.Reservations = kept
	return nil
}

// Release drops the session's hold and reports whether one existed.
func (rec *InventoryRecord) Release(session string) bool {
	if _, ok := rec.Reservations[session]; !ok {
		return false
	}
	delete(rec.Reservations, session)
	return true
}

// Take sells qty immediately against stock not held by anyone. On error rec is left untouched.
func (rec *InventoryRecord) Take(qty int, now time.Time, ttl time.Duration) error {
	kept, reserved := rec.live(now, ttl)
	if available := rec.Stock - reserved; available < qty {
		return &InsufficientStockError{Item: rec.DisplayName(), Requested: qty, Available: available}
	}
	rec.Stock -= qty
	rec.Reservations = kept
	return nil
}

// Deduct removes already paid-for quantity from stock. Live holds are not consulted:
// the paying session's own hold is still present at this point.
func (rec *InventoryRecord) Deduct(qty int) error {
	if rec.Stock < qty {
		return &InsufficientStockError{Item: rec.DisplayName(), Requested: qty, Available: rec.Stock}
	}
	rec.Stock -= qty
	return nil
}
