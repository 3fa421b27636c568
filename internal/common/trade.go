package common

import "fmt"

// Trade records one execution between an aggressor and a resting order.
// The price is always the resting order's price.
type Trade struct {
	Price       Price
	Quantity    Quantity
	BuyOrderID  OrderID
	SellOrderID OrderID
}

// String renders the wire form printed on the output stream.
func (t Trade) String() string {
	return fmt.Sprintf("TRADE price=%d qty=%d buy_id=%d sell_id=%d",
		t.Price, t.Quantity, t.BuyOrderID, t.SellOrderID)
}
