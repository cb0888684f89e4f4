package book

// DepthLevel is one price level in a depth view, with the cumulative
// volume from the best level down to this one.
type DepthLevel struct {
	Price      uint64 `json:"price"`
	Qty        uint64 `json:"qty"`
	Cumulative uint64 `json:"cumulative"`
}

// DepthSnapshot is the periodic per-book view emitted for market data
// and snapshot logging. Levels are ordered closest-to-best first.
type DepthSnapshot struct {
	Timestamp int64        `json:"timestamp"`
	EventID   uint64       `json:"event_id"`
	Symbol    uint32       `json:"symbol"`
	Bids      []DepthLevel `json:"bids"`
	Asks      []DepthLevel `json:"asks"`
}

// Depth walks both sides closest-to-best first, accumulating volume,
// bounded to maxLevels per side. maxLevels <= 0 means unbounded.
func (b *OrderBook) Depth(maxLevels int) (bids, asks []DepthLevel) {
	bids = collectDepth(b.bids, maxLevels)
	asks = collectDepth(b.asks, maxLevels)
	return bids, asks
}

// Snapshot builds a bounded depth snapshot stamped with the given
// timestamp and event id.
func (b *OrderBook) Snapshot(maxLevels int, ts int64, eventID uint64) DepthSnapshot {
	bids, asks := b.Depth(maxLevels)
	return DepthSnapshot{
		Timestamp: ts,
		EventID:   eventID,
		Symbol:    b.Symbol,
		Bids:      bids,
		Asks:      asks,
	}
}

func collectDepth(side *BookSide, maxLevels int) []DepthLevel {
	var out []DepthLevel
	var cum uint64
	side.Walk(func(lvl *PriceLevel) bool {
		cum += lvl.TotalVol()
		out = append(out, DepthLevel{
			Price:      lvl.Price,
			Qty:        lvl.TotalVol(),
			Cumulative: cum,
		})
		return maxLevels <= 0 || len(out) < maxLevels
	})
	return out
}
