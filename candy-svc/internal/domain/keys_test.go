package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveItemKey(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		item    string
		want    ItemKey
		wantErr bool
	}{
		{name: "explicit id wins", id: "gb-01", item: "Gummy Bears", want: "gb-01"},
		{name: "slug from name", item: "Gummy Bears", want: "gummy-bears"},
		{name: "messy name", item: "  Sour   Worms!! ", want: "sour-worms"},
		{name: "id is trimmed", id: "  lollipop ", want: "lollipop"},
		{name: "nothing usable", item: " !! ", wantErr: true},
		{name: "empty", wantErr: true},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			got, err := ResolveItemKey(testCase.id, testCase.item)
			if testCase.wantErr {
				assert.True(t, IsValidation(err))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, testCase.want, got)
		})
	}
}

func TestSummarizeItems(t *testing.T) {
	got := SummarizeItems([]OrderItem{{Name: "Gummy Bears", Quantity: 4}, {Name: "Sour Worms", Quantity: 1}})
	assert.Equal(t, "Gummy Bears x4, Sour Worms x1", got)
	assert.Equal(t, "", SummarizeItems(nil))
}

func TestPersistenceError_Unwrap(t *testing.T) {
	err := NewPersistenceError("save order", ErrOrderExists)
	assert.ErrorIs(t, err, ErrOrderExists)
	assert.Equal(t, "save order: order already recorded", err.Error())
}
