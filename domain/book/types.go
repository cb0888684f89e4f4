package book

// Fill is one executed trade between a resting (maker) order and an
// incoming (taker) order.
type Fill struct {
	Price        uint64
	Qty          uint32
	TakerOrderID uint64
	MakerOrderID uint64
	TakerUserID  uint64
	MakerUserID  uint64
	Symbol       uint32
	TakerSide    Side
}

// Value is the cash amount exchanged by this fill.
func (f Fill) Value() uint64 {
	return f.Price * uint64(f.Qty)
}

// MatchResult reports what happened to one incoming order.
type MatchResult struct {
	OrderID      uint64
	UserID       uint64
	Fills        []Fill
	RemainingQty uint32
	OriginalQty  uint32
}

// FilledQty is the total quantity executed for the incoming order.
func (r MatchResult) FilledQty() uint32 {
	return r.OriginalQty - r.RemainingQty
}
