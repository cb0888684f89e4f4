package engine

import "tradecore/domain/book"

// EventKind is the lifecycle stage an order event reports.
type EventKind uint8

const (
	EventAccepted EventKind = iota
	EventPartiallyFilled
	EventFilled
	EventRejected
	EventCancelled
)

func (k EventKind) String() string {
	switch k {
	case EventAccepted:
		return "accepted"
	case EventPartiallyFilled:
		return "partially_filled"
	case EventFilled:
		return "filled"
	case EventRejected:
		return "rejected"
	case EventCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// OrderEvent is the outbound record for one order lifecycle transition.
type OrderEvent struct {
	EventID      uint64    `json:"event_id"`
	OrderID      uint64    `json:"order_id"`
	UserID       uint64    `json:"user_id"`
	Symbol       uint32    `json:"symbol"`
	Kind         EventKind `json:"kind"`
	FilledQty    uint32    `json:"filled_qty"`
	RemainingQty uint32    `json:"remaining_qty"`
	OriginalQty  uint32    `json:"original_qty"`
	Reason       string    `json:"reason,omitempty"`
	Timestamp    int64     `json:"timestamp"`
}

// TradeEvent is one executed fill, published on the trade stream.
type TradeEvent struct {
	EventID      uint64    `json:"event_id"`
	Symbol       uint32    `json:"symbol"`
	Price        uint64    `json:"price"`
	Qty          uint32    `json:"qty"`
	TakerOrderID uint64    `json:"taker_order_id"`
	MakerOrderID uint64    `json:"maker_order_id"`
	TakerSide    book.Side `json:"taker_side"`
	Timestamp    int64     `json:"timestamp"`
}

// TickerUpdate carries the post-match top of book for one symbol.
type TickerUpdate struct {
	EventID   uint64 `json:"event_id"`
	Symbol    uint32 `json:"symbol"`
	LastPrice uint64 `json:"last_price"`
	BestBid   uint64 `json:"best_bid"`
	BestAsk   uint64 `json:"best_ask"`
	Timestamp int64  `json:"timestamp"`
}

// CancelRequest asks the core to remove a resting order.
type CancelRequest struct {
	OrderID uint64
	UserID  uint64
	Symbol  uint32
}

// AdminOp selects the administrative action of an AdminQuery.
type AdminOp uint8

const (
	AdminAddUser AdminOp = iota
	AdminDeposit
	AdminDepositShares
	AdminAddBook
)

// AdminQuery is a low-frequency control-plane request handled at the
// end of a cycle.
type AdminQuery struct {
	Op     AdminOp
	UserID uint64
	Amount uint64
	Symbol uint32
	Qty    uint32
}
