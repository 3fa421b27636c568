package book

import (
	"fmt"

	"github.com/tidwall/btree"

	"gungnir/internal/common"
)

// PriceLevel holds all resting orders at one price, sorted by time added
// as they will be push-back'd.
type PriceLevel struct {
	Price  common.Price
	Orders []*common.Order
}

type PriceLevels = btree.BTreeG[*PriceLevel]

// Book is the two-sided limit order book. Each side maps price to a FIFO
// queue of orders; a price level exists iff its queue is non-empty.
type Book struct {
	// Both trees sort their best level first, so MinMut is top of book
	// on either side.
	Bids *PriceLevels
	Asks *PriceLevels

	restingOrders int
}

func New() *Book {
	// Sorted greatest first.
	bids := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price > b.Price
	})
	// Sorted least first.
	asks := btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price < b.Price
	})
	return &Book{
		Bids: bids,
		Asks: asks,
	}
}

func (book *Book) side(side common.Side) *PriceLevels {
	if side == common.Buy {
		return book.Bids
	}
	return book.Asks
}

// BestBidPrice returns the highest bid price, if any bid is resting.
func (book *Book) BestBidPrice() (common.Price, bool) {
	level, ok := book.Bids.Min()
	if !ok {
		return 0, false
	}
	return level.Price, true
}

// BestAskPrice returns the lowest ask price, if any ask is resting.
func (book *Book) BestAskPrice() (common.Price, bool) {
	level, ok := book.Asks.Min()
	if !ok {
		return 0, false
	}
	return level.Price, true
}

// BestPrice returns the best price on the given side.
func (book *Book) BestPrice(side common.Side) (common.Price, bool) {
	if side == common.Buy {
		return book.BestBidPrice()
	}
	return book.BestAskPrice()
}

// Insert appends the order to the tail of the queue at (side, price),
// creating the price level if absent. The order must be a limit order with
// a positive price and positive remaining quantity; anything else is a
// corrupted caller and panics.
func (book *Book) Insert(order *common.Order) {
	if order.Type != common.LimitOrder || order.Price <= 0 {
		panic(fmt.Sprintf("book: insert of unpriced order: %v", order))
	}
	if order.Quantity <= 0 {
		panic(fmt.Sprintf("book: insert of empty order: %v", order))
	}

	levels := book.side(order.Side)

	// Levels comparator only accounts for price, so a bare price makes
	// a valid search key.
	level, ok := levels.GetMut(&PriceLevel{Price: order.Price})
	if ok {
		level.Orders = append(level.Orders, order)
	} else {
		levels.Set(&PriceLevel{
			Price:  order.Price,
			Orders: []*common.Order{order},
		})
	}
	book.restingOrders++
}

// PeekBest returns the head order of the best price level on the given
// side without removing it. The returned order may be mutated in place by
// the matching loop; use PopBest once its quantity reaches zero.
func (book *Book) PeekBest(side common.Side) *common.Order {
	level, ok := book.side(side).MinMut()
	if !ok {
		return nil
	}
	return level.Orders[0]
}

// PopBest removes and returns the head order of the best price level on
// the given side, deleting the level if its queue empties.
func (book *Book) PopBest(side common.Side) (*common.Order, bool) {
	levels := book.side(side)
	level, ok := levels.MinMut()
	if !ok {
		return nil, false
	}
	order := level.Orders[0]
	level.Orders = level.Orders[1:]
	if len(level.Orders) == 0 {
		levels.Delete(level)
	}
	book.restingOrders--
	return order, true
}

// PopBestBid removes and returns the head order at the highest bid.
func (book *Book) PopBestBid() (*common.Order, bool) {
	return book.PopBest(common.Buy)
}

// PopBestAsk removes and returns the head order at the lowest ask.
func (book *Book) PopBestAsk() (*common.Order, bool) {
	return book.PopBest(common.Sell)
}

// RemoveOrder removes the order with the given id from the queue at
// (side, price). Reports whether the order was found there.
func (book *Book) RemoveOrder(side common.Side, price common.Price, id common.OrderID) bool {
	levels := book.side(side)
	level, ok := levels.GetMut(&PriceLevel{Price: price})
	if !ok {
		return false
	}
	for i, order := range level.Orders {
		if order.ID != id {
			continue
		}
		level.Orders = append(level.Orders[:i], level.Orders[i+1:]...)
		if len(level.Orders) == 0 {
			levels.Delete(level)
		}
		book.restingOrders--
		return true
	}
	return false
}

// Len reports the number of resting orders across both sides.
func (book *Book) Len() int {
	return book.restingOrders
}

// LevelCount reports the number of non-empty price levels across both sides.
func (book *Book) LevelCount() int {
	return book.Bids.Len() + book.Asks.Len()
}

// Levels returns the price levels of one side, best first. The slice
// shares the book's level structs.
func (book *Book) Levels(side common.Side) []*PriceLevel {
	return book.side(side).Items()
}
