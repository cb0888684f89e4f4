package book

// BookSide holds all price levels for one side of the book. Best price
// is the highest level for bids and the lowest for asks, so the two
// sides converge toward each other.
type BookSide struct {
	side   Side
	levels *levelTree
}

func NewBookSide(side Side) *BookSide {
	return &BookSide{side: side, levels: newLevelTree()}
}

func (s *BookSide) Side() Side { return s.side }

func (s *BookSide) BestPrice() (uint64, bool) {
	var lvl *PriceLevel
	if s.side == Bid {
		lvl = s.levels.Max()
	} else {
		lvl = s.levels.Min()
	}
	if lvl == nil {
		return 0, false
	}
	return lvl.Price, true
}

// Insert rests the order at its price level, creating the level if this
// is the first order at that price.
func (s *BookSide) Insert(a *Arena, o Order) int32 {
	lvl := s.levels.Upsert(o.Price)
	return lvl.AddOrder(a, o)
}

func (s *BookSide) Level(price uint64) *PriceLevel {
	return s.levels.Find(price)
}

// RemoveLevelIfEmpty evicts the level once its FIFO chain is empty, so
// BestPrice never reports a level with no orders.
func (s *BookSide) RemoveLevelIfEmpty(price uint64) {
	if lvl := s.levels.Find(price); lvl != nil && lvl.Empty() {
		s.levels.Delete(price)
	}
}

// DeleteOrder cancels a resting order at the given price.
func (s *BookSide) DeleteOrder(a *Arena, price uint64, orderID uint64) bool {
	lvl := s.levels.Find(price)
	if lvl == nil {
		return false
	}
	ok := lvl.DeleteOrder(a, orderID)
	if ok && lvl.Empty() {
		s.levels.Delete(price)
	}
	return ok
}

// Walk visits levels closest-to-best first: descending for bids,
// ascending for asks.
func (s *BookSide) Walk(fn func(*PriceLevel) bool) {
	if s.side == Bid {
		s.levels.ForEachDescending(fn)
	} else {
		s.levels.ForEachAscending(fn)
	}
}

// Levels is the number of distinct prices currently resting.
func (s *BookSide) Levels() int { return s.levels.Size() }
