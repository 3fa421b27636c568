package engine

import (
	"github.com/rs/zerolog/log"

	"gungnir/internal/book"
	"gungnir/internal/common"
)

const (
	ReasonNotFound       = "order not found"
	ReasonNotFoundInBook = "order not found in book"
)

// Engine is the matching core. It owns the book and the cancel index
// exclusively and must only be driven from a single goroutine; OnEvent is
// synchronous and processes each event to completion.
type Engine struct {
	book  *book.Book
	index *book.Index
}

func New() *Engine {
	return &Engine{
		book:  book.New(),
		index: book.NewIndex(),
	}
}

// OnEvent applies one validated gateway event and returns the resulting
// engine events in emission order. A pass-through reject yields exactly one
// reject and changes no state.
func (eng *Engine) OnEvent(event common.GatewayEvent) []common.EngineEvent {
	switch ev := event.(type) {
	case common.NewOrder:
		return eng.handleNewOrder(ev.Order)
	case common.Cancel:
		return eng.handleCancel(ev.OrderID)
	case common.Reject:
		return []common.EngineEvent{ev}
	}
	return nil
}

// crosses reports whether a limit aggressor at price is marketable against
// the best opposite price.
func crosses(side common.Side, price, bestOpposite common.Price) bool {
	if side == common.Buy {
		return price >= bestOpposite
	}
	return price <= bestOpposite
}

// handleNewOrder runs the cross loop: consume resting liquidity on the
// opposite side in price-time priority while the aggressor remains
// marketable, then rest any limit residue. Market residue is discarded.
func (eng *Engine) handleNewOrder(order common.Order) []common.EngineEvent {
	var events []common.EngineEvent

	opposite := order.Side.Opposite()
	for order.Quantity > 0 {
		bestPrice, ok := eng.book.BestPrice(opposite)
		if !ok {
			break // no liquidity
		}
		if order.Type == common.LimitOrder && !crosses(order.Side, order.Price, bestPrice) {
			break
		}

		// The maker is mutated in place; a partial fill leaves it at
		// the head of its level with its time priority intact.
		maker := eng.book.PeekBest(opposite)
		fill := min(order.Quantity, maker.Quantity)

		trade := common.Trade{
			Price:    bestPrice,
			Quantity: fill,
		}
		if order.Side == common.Buy {
			trade.BuyOrderID, trade.SellOrderID = order.ID, maker.ID
		} else {
			trade.BuyOrderID, trade.SellOrderID = maker.ID, order.ID
		}
		events = append(events, trade)

		order.Quantity -= fill
		maker.Quantity -= fill

		if maker.Quantity == 0 {
			eng.book.PopBest(opposite)
			eng.index.Remove(maker.ID)
		}

		log.Debug().
			Uint64("aggressor", uint64(order.ID)).
			Uint64("maker", uint64(maker.ID)).
			Int64("price", int64(bestPrice)).
			Int64("qty", int64(fill)).
			Msg("matched")
	}

	// Residue rests only for limit aggressors, and is inserted exactly
	// once, after the loop has terminated.
	if order.Quantity > 0 && order.Type == common.LimitOrder {
		resting := order
		eng.book.Insert(&resting)
		eng.index.Insert(resting.ID, book.Location{
			Side:  resting.Side,
			Price: resting.Price,
		})
	}

	return events
}

// handleCancel removes a resting order by id. An unknown id rejects; an id
// the index knows but the book does not indicates corruption and also
// rejects, after logging.
func (eng *Engine) handleCancel(id common.OrderID) []common.EngineEvent {
	loc, ok := eng.index.Remove(id)
	if !ok {
		return []common.EngineEvent{common.Reject{Reason: ReasonNotFound}}
	}

	if !eng.book.RemoveOrder(loc.Side, loc.Price, id) {
		log.Error().
			Uint64("id", uint64(id)).
			Int64("price", int64(loc.Price)).
			Stringer("side", loc.Side).
			Msg("index and book disagree")
		return []common.EngineEvent{common.Reject{Reason: ReasonNotFoundInBook}}
	}

	// Silent success.
	return nil
}

// Depth reports the resting order count and the non-empty price level
// count across both sides.
func (eng *Engine) Depth() (orders, levels int) {
	return eng.book.Len(), eng.book.LevelCount()
}

// Book exposes the underlying book for inspection. Mutating it outside the
// engine breaks the index bijection.
func (eng *Engine) Book() *book.Book {
	return eng.book
}
