package gateway

import (
	"gungnir/internal/cli"
	"gungnir/internal/common"
)

const (
	reasonZeroQuantity  = "quantity must be > 0"
	reasonMissingPrice  = "limit order requires price"
	reasonSpuriousPrice = "market order must not have price"
	reasonBadPrice      = "price must be > 0"
)

// Gateway sits between the parser and the engine. It assigns order ids and
// sequence numbers monotonically from 1 and performs the static validation
// the engine trusts: positive quantity, priced limits, unpriced markets.
type Gateway struct {
	nextOrderID common.OrderID
	nextSeq     common.Sequence
}

func New() *Gateway {
	return &Gateway{
		nextOrderID: 1,
		nextSeq:     1,
	}
}

// Process converts one parsed command into a validated gateway event.
func (gw *Gateway) Process(cmd cli.Command) common.GatewayEvent {
	switch c := cmd.(type) {
	case cli.NewOrderCommand:
		return gw.handleNewOrder(c)
	case cli.CancelCommand:
		// Cancels consume an id slot like any other accepted command,
		// so order numbering stays aligned with submission numbering.
		gw.nextOrderID++
		gw.nextSeq++
		return common.Cancel{OrderID: c.OrderID}
	}
	return common.Reject{Reason: "unsupported command"}
}

func (gw *Gateway) handleNewOrder(cmd cli.NewOrderCommand) common.GatewayEvent {
	if cmd.Quantity <= 0 {
		return common.Reject{Reason: reasonZeroQuantity}
	}
	switch cmd.Type {
	case common.LimitOrder:
		if !cmd.HasPrice {
			return common.Reject{Reason: reasonMissingPrice}
		}
		if cmd.Price <= 0 {
			return common.Reject{Reason: reasonBadPrice}
		}
	case common.MarketOrder:
		if cmd.HasPrice {
			return common.Reject{Reason: reasonSpuriousPrice}
		}
	}

	order := common.Order{
		ID:       gw.nextOrderID,
		Side:     cmd.Side,
		Type:     cmd.Type,
		Price:    cmd.Price,
		Quantity: cmd.Quantity,
		Sequence: gw.nextSeq,
	}
	gw.nextOrderID++
	gw.nextSeq++

	return common.NewOrder{Order: order}
}
