package core_test

import (
	"testing"

	"pharmacy-inventory/internal/core"

	"github.com/shopspring/decimal"
)

func poLine(ordered, received int64) core.POLine {
	return core.POLine{
		OrderedQtyBase:  decimal.NewFromInt(ordered),
		ReceivedQtyBase: decimal.NewFromInt(received),
	}
}

func TestDeriveFulfillment(t *testing.T) {
	tests := []struct {
		name  string
		lines []core.POLine
		want  core.FulfillmentState
	}{
		{
			name:  "nothing received",
			lines: []core.POLine{poLine(10, 0), poLine(5, 0)},
			want:  core.StateOpen,
		},
		{
			name:  "one line partially received",
			lines: []core.POLine{poLine(10, 3), poLine(5, 0)},
			want:  core.StatePartial,
		},
		{
			name:  "one line full, one untouched",
			lines: []core.POLine{poLine(10, 10), poLine(5, 0)},
			want:  core.StatePartial,
		},
		{
			name:  "all lines full",
			lines: []core.POLine{poLine(10, 10), poLine(5, 5)},
			want:  core.StateFulfilled,
		},
		{
			name:  "no lines counts as open",
			lines: nil,
			want:  core.StateOpen,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := core.DeriveFulfillment(tt.lines); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPOLine_Fulfilled(t *testing.T) {
	if poLine(10, 9).Fulfilled() {
		t.Error("9 of 10 should not be fulfilled")
	}
	if !poLine(10, 10).Fulfilled() {
		t.Error("10 of 10 should be fulfilled")
	}
}
