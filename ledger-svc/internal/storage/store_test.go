package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"candy-stand/ledger-svc/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage(paid bool) domain.OrderLogMessage {
	return domain.OrderLogMessage{
		Timestamp:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		OrderID:     "order-1",
		LaneNumber:  "3",
		IsPaid:      paid,
		ItemSummary: "Gummy Bears x4, Sour Worms x1",
		Items: []domain.OrderItem{
			{Name: "Gummy Bears", Quantity: 4},
			{Name: "Sour Worms", Quantity: 1},
		},
	}
}

func TestStore_AppendRow(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		execErr  error
		want     bool
	}{
		{name: "new order", affected: 1, want: true},
		{name: "redelivery", affected: 0, want: false},
		{name: "database error", execErr: errors.New("db down")},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			mockDB, sqlMock, err := sqlmock.New()
			require.NoError(t, err)
			defer mockDB.Close()
			store := NewStore(mockDB, nil)

			msg := testMessage(false)
			exec := sqlMock.ExpectExec("INSERT INTO order_log").
				WithArgs(msg.Timestamp, "order-1", "3", false, "Gummy Bears x4, Sour Worms x1", "{}")
			if testCase.execErr != nil {
				exec.WillReturnError(testCase.execErr)
			} else {
				exec.WillReturnResult(sqlmock.NewResult(1, testCase.affected))
			}

			inserted, err := store.AppendRow(context.Background(), msg)
			if testCase.execErr != nil {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, testCase.want, inserted)
			}
			assert.NoError(t, sqlMock.ExpectationsWereMet())
		})
	}
}

func TestStore_UpdateSales(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	store := NewStore(nil, rdb)
	ctx := context.Background()

	paid := testMessage(true)
	table := testMessage(false)
	table.OrderID = "order-2"

	require.NoError(t, store.UpdateSales(ctx, paid))
	require.NoError(t, store.UpdateSales(ctx, table))

	itemsKey := DailyItemsKey("2025-06-01")
	score, err := mr.ZScore(itemsKey, "Gummy Bears")
	require.NoError(t, err)
	assert.Equal(t, float64(8), score)

	score, err = mr.ZScore(itemsKey, "Sour Worms")
	require.NoError(t, err)
	assert.Equal(t, float64(2), score)

	ordersKey := DailyOrdersKey("2025-06-01")
	assert.Equal(t, "1", mr.HGet(ordersKey, "paid"))
	assert.Equal(t, "1", mr.HGet(ordersKey, "table"))
	assert.Equal(t, salesRetention, mr.TTL(itemsKey))
}

func TestStore_UpdateSalesCountsAnOrderOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	store := NewStore(nil, rdb)
	ctx := context.Background()

	require.NoError(t, store.UpdateSales(ctx, testMessage(true)))
	require.NoError(t, store.UpdateSales(ctx, testMessage(true)))

	score, err := mr.ZScore(DailyItemsKey("2025-06-01"), "Gummy Bears")
	require.NoError(t, err)
	assert.Equal(t, float64(4), score)
	assert.Equal(t, "1", mr.HGet(DailyOrdersKey("2025-06-01"), "paid"))
}
