package book

// Side of the book an order belongs to.
type Side uint8

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Bid {
		return "bid"
	}
	return "ask"
}

// Opposite returns the side an incoming order matches against.
func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

type OrderType uint8

const (
	Market OrderType = iota
	Limit
)

// noSlot marks an unlinked prev/next reference inside a price level.
const noSlot int32 = -1

// Order is one live order record. While resting it lives in exactly one
// arena slot and is linked into exactly one price level via prev/next
// slot references. Qty is the remaining unfilled quantity and is mutated
// in place on partial fills.
type Order struct {
	ID        uint64
	UserID    uint64
	Price     uint64
	Timestamp uint64
	Symbol    uint32
	Qty       uint32
	Side      Side
	Type      OrderType

	prev int32
	next int32
}

// NewOrder builds an unlinked order.
func NewOrder(id, userID uint64, side Side, typ OrderType, qty uint32, price uint64, ts uint64, symbol uint32) Order {
	return Order{
		ID:        id,
		UserID:    userID,
		Side:      side,
		Type:      typ,
		Qty:       qty,
		Price:     price,
		Timestamp: ts,
		Symbol:    symbol,
		prev:      noSlot,
		next:      noSlot,
	}
}
