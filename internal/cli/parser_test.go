package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gungnir/internal/common"
)

func TestParse_Commands(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Command
	}{
		{
			name: "buy limit",
			line: "BUY LIMIT 100 10",
			want: NewOrderCommand{
				Side: common.Buy, Type: common.LimitOrder,
				Price: 100, HasPrice: true, Quantity: 10,
			},
		},
		{
			name: "sell limit",
			line: "SELL LIMIT 99 5",
			want: NewOrderCommand{
				Side: common.Sell, Type: common.LimitOrder,
				Price: 99, HasPrice: true, Quantity: 5,
			},
		},
		{
			name: "buy market",
			line: "BUY MARKET 8",
			want: NewOrderCommand{
				Side: common.Buy, Type: common.MarketOrder, Quantity: 8,
			},
		},
		{
			name: "case insensitive keywords",
			line: "sell market 3",
			want: NewOrderCommand{
				Side: common.Sell, Type: common.MarketOrder, Quantity: 3,
			},
		},
		{
			name: "surrounding whitespace",
			line: "  BUY   LIMIT  100  10  ",
			want: NewOrderCommand{
				Side: common.Buy, Type: common.LimitOrder,
				Price: 100, HasPrice: true, Quantity: 10,
			},
		},
		{
			name: "cancel",
			line: "CANCEL 7",
			want: CancelCommand{OrderID: 7},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd, err := Parse(tc.line)
			require.NoError(t, err)
			assert.Equal(t, tc.want, cmd)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want error
	}{
		{name: "empty line", line: "", want: ErrEmptyCommand},
		{name: "whitespace only", line: "   ", want: ErrEmptyCommand},
		{name: "unknown keyword", line: "HOLD LIMIT 100 10", want: ErrUnknownCommand},
		{name: "missing order type", line: "BUY", want: ErrBadOrderFormat},
		{name: "bad order type", line: "BUY STOP 100 10", want: ErrBadOrderFormat},
		{name: "limit missing quantity", line: "BUY LIMIT 100", want: ErrBadOrderFormat},
		{name: "limit extra field", line: "BUY LIMIT 100 10 20", want: ErrBadOrderFormat},
		{name: "market with price", line: "BUY MARKET 100 10", want: ErrBadOrderFormat},
		{name: "unparseable price", line: "BUY LIMIT abc 10", want: ErrBadPrice},
		{name: "unparseable quantity", line: "BUY LIMIT 100 ten", want: ErrBadQuantity},
		{name: "price overflow", line: "BUY LIMIT 9223372036854775808 10", want: ErrBadPrice},
		{name: "quantity overflow", line: "SELL MARKET 99999999999999999999", want: ErrBadQuantity},
		{name: "cancel missing id", line: "CANCEL", want: ErrBadOrderFormat},
		{name: "cancel extra field", line: "CANCEL 1 2", want: ErrBadOrderFormat},
		{name: "cancel bad id", line: "CANCEL minus", want: ErrBadOrderID},
		{name: "cancel negative id", line: "CANCEL -1", want: ErrBadOrderID},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd, err := Parse(tc.line)
			assert.Nil(t, cmd)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
