package book

import "gungnir/internal/common"

// Location identifies the queue holding a resting order.
type Location struct {
	Side  common.Side
	Price common.Price
}

// Index maps an order id to its location in the book, so a cancel carrying
// only an id resolves to a targeted queue operation. An id is present here
// iff the order rests in the book.
type Index struct {
	locations map[common.OrderID]Location
}

func NewIndex() *Index {
	return &Index{
		locations: make(map[common.OrderID]Location),
	}
}

func (ix *Index) Insert(id common.OrderID, loc Location) {
	ix.locations[id] = loc
}

func (ix *Index) Remove(id common.OrderID) (Location, bool) {
	loc, ok := ix.locations[id]
	if ok {
		delete(ix.locations, id)
	}
	return loc, ok
}

func (ix *Index) Contains(id common.OrderID) bool {
	_, ok := ix.locations[id]
	return ok
}

func (ix *Index) Len() int {
	return len(ix.locations)
}

// Each calls fn for every indexed order in unspecified iteration order.
func (ix *Index) Each(fn func(id common.OrderID, loc Location)) {
	for id, loc := range ix.locations {
		fn(id, loc)
	}
}
