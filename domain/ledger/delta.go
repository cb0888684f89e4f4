package ledger

// DeltaReason says which ledger operation produced a delta record.
type DeltaReason uint8

const (
	ReasonLock DeltaReason = iota
	ReasonSettle
	ReasonCancelRefund
	ReasonDeposit
)

func (r DeltaReason) String() string {
	switch r {
	case ReasonLock:
		return "lock"
	case ReasonSettle:
		return "settle"
	case ReasonCancelRefund:
		return "cancel-refund"
	case ReasonDeposit:
		return "deposit"
	default:
		return "unknown"
	}
}

// BalanceDelta is the signed cash change of one mutation, emitted so
// downstream caches can replay ledger state without re-deriving it.
type BalanceDelta struct {
	EventID        uint64      `json:"event_id"`
	UserID         uint64      `json:"user_id"`
	DeltaAvailable int64       `json:"delta_available"`
	DeltaReserved  int64       `json:"delta_reserved"`
	Reason         DeltaReason `json:"reason"`
	OrderID        uint64      `json:"order_id"`
}

// HoldingDelta is the signed share change of one mutation for one symbol.
type HoldingDelta struct {
	EventID        uint64      `json:"event_id"`
	UserID         uint64      `json:"user_id"`
	Symbol         uint32      `json:"symbol"`
	DeltaAvailable int32       `json:"delta_available"`
	DeltaReserved  int32       `json:"delta_reserved"`
	Reason         DeltaReason `json:"reason"`
	OrderID        uint64      `json:"order_id"`
}

// DeltaSink receives one record per ledger mutation. The manager calls
// it synchronously from the mutation itself, so every settlement step
// carries its log obligation.
type DeltaSink interface {
	BalanceChanged(BalanceDelta)
	HoldingChanged(HoldingDelta)
}

// NopSink discards all deltas.
type NopSink struct{}

func (NopSink) BalanceChanged(BalanceDelta) {}
func (NopSink) HoldingChanged(HoldingDelta) {}
