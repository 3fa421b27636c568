package engine

import (
	"fmt"

	"gungnir/internal/book"
	"gungnir/internal/common"
)

// Audit verifies the structural invariants of the book/index pair and
// returns the first violation found. Intended for tests and debug builds;
// it walks every resting order.
func (eng *Engine) Audit() error {
	resting := 0
	seen := make(map[common.OrderID]book.Location)

	for _, side := range []common.Side{common.Buy, common.Sell} {
		for _, level := range eng.book.Levels(side) {
			if len(level.Orders) == 0 {
				return fmt.Errorf("empty level %d on %v side", level.Price, side)
			}
			var prevSeq common.Sequence
			for i, order := range level.Orders {
				if order.Quantity <= 0 {
					return fmt.Errorf("order %d resting with quantity %d", order.ID, order.Quantity)
				}
				if order.Side != side {
					return fmt.Errorf("order %d on wrong side of the book", order.ID)
				}
				if order.Price != level.Price {
					return fmt.Errorf("order %d priced %d in level %d", order.ID, order.Price, level.Price)
				}
				if i > 0 && order.Sequence <= prevSeq {
					return fmt.Errorf("order %d out of time priority in level %d", order.ID, level.Price)
				}
				prevSeq = order.Sequence
				if _, dup := seen[order.ID]; dup {
					return fmt.Errorf("order %d rests in more than one queue", order.ID)
				}
				seen[order.ID] = book.Location{Side: side, Price: level.Price}
				if !eng.index.Contains(order.ID) {
					return fmt.Errorf("order %d in book but not in index", order.ID)
				}
				resting++
			}
		}
	}

	if eng.index.Len() != resting {
		return fmt.Errorf("index holds %d orders, book holds %d", eng.index.Len(), resting)
	}
	var violation error
	eng.index.Each(func(id common.OrderID, loc book.Location) {
		if violation != nil {
			return
		}
		at, ok := seen[id]
		if !ok {
			violation = fmt.Errorf("order %d in index but not in book", id)
		} else if at != loc {
			violation = fmt.Errorf("index places order %d at %v/%d, book at %v/%d",
				id, loc.Side, loc.Price, at.Side, at.Price)
		}
	})
	if violation != nil {
		return violation
	}

	if eng.book.Len() != resting {
		return fmt.Errorf("book reports %d resting orders, found %d", eng.book.Len(), resting)
	}
	return nil
}
