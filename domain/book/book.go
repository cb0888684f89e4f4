package book

import "sync/atomic"

// OrderBook is the matching core for one symbol: both sides, the arena
// that owns every resting order, and a reusable fill buffer. It is
// single-writer and deterministic; only lastTradePrice is published for
// concurrent readers.
type OrderBook struct {
	Symbol uint32

	bids  *BookSide
	asks  *BookSide
	arena *Arena

	lastTradePrice atomic.Uint64
	fillBuf        []Fill
}

func NewOrderBook(symbol uint32) *OrderBook {
	return &OrderBook{
		Symbol:  symbol,
		bids:    NewBookSide(Bid),
		asks:    NewBookSide(Ask),
		arena:   NewArena(1 << 16),
		fillBuf: make([]Fill, 0, 64),
	}
}

// MatchBid matches an incoming buy against resting asks, cheapest level
// first, oldest order first within a level. Any residual quantity rests
// on the bid side at the order's limit price.
func (b *OrderBook) MatchBid(o Order) MatchResult {
	orig := o.Qty
	b.fillBuf = b.fillBuf[:0]

	b.drain(&o, b.asks, func(best uint64) bool { return best <= o.Price })

	if o.Qty > 0 {
		b.bids.Insert(b.arena, o)
	}
	b.noteLastTrade()
	return b.result(o, orig)
}

// MatchAsk is the mirror of MatchBid: it consumes resting bids from the
// highest price down and rests any residual on the ask side.
func (b *OrderBook) MatchAsk(o Order) MatchResult {
	orig := o.Qty
	b.fillBuf = b.fillBuf[:0]

	b.drain(&o, b.bids, func(best uint64) bool { return best >= o.Price })

	if o.Qty > 0 {
		b.asks.Insert(b.arena, o)
	}
	b.noteLastTrade()
	return b.result(o, orig)
}

// MatchMarket crosses unconditionally while any opposite liquidity
// exists. Residual quantity is dropped, never rested.
func (b *OrderBook) MatchMarket(o Order) MatchResult {
	orig := o.Qty
	b.fillBuf = b.fillBuf[:0]

	var opp *BookSide
	if o.Side == Bid {
		opp = b.asks
	} else {
		opp = b.bids
	}
	b.drain(&o, opp, func(uint64) bool { return true })

	b.noteLastTrade()
	return b.result(o, orig)
}

// drain is the shared level-sweep: take the opposite side's best price,
// stop when it no longer crosses, consume orders at that level oldest
// first, and evict the level once empty. Terminates because o.Qty
// strictly decreases on every inner iteration.
func (b *OrderBook) drain(o *Order, opp *BookSide, crosses func(best uint64) bool) {
	for o.Qty > 0 {
		best, ok := opp.BestPrice()
		if !ok || !crosses(best) {
			return
		}

		lvl := opp.Level(best)
		for o.Qty > 0 && !lvl.Empty() {
			slot, _ := lvl.RemoveOldest(b.arena)
			rest := b.arena.Get(slot)
			restID, restUser, restQty := rest.ID, rest.UserID, rest.Qty

			if o.Qty >= restQty {
				// resting order fully consumed
				o.Qty -= restQty
				b.fillBuf = append(b.fillBuf, Fill{
					Price:        best,
					Qty:          restQty,
					TakerOrderID: o.ID,
					MakerOrderID: restID,
					TakerUserID:  o.UserID,
					MakerUserID:  restUser,
					Symbol:       b.Symbol,
					TakerSide:    o.Side,
				})
				b.arena.Remove(restID)
			} else {
				// incoming order exhausted; maker keeps its slot and
				// its time priority at the head of the level
				consumed := o.Qty
				rest.Qty -= consumed
				b.fillBuf = append(b.fillBuf, Fill{
					Price:        best,
					Qty:          consumed,
					TakerOrderID: o.ID,
					MakerOrderID: restID,
					TakerUserID:  o.UserID,
					MakerUserID:  restUser,
					Symbol:       b.Symbol,
					TakerSide:    o.Side,
				})
				o.Qty = 0
				lvl.InsertAtHead(b.arena, slot)
			}
		}

		if lvl.Empty() {
			opp.RemoveLevelIfEmpty(best)
		}
	}
}

// Cancel removes a resting order from its side and frees its slot.
// Unknown or already-filled ids are a no-op.
func (b *OrderBook) Cancel(orderID uint64) bool {
	slot, ok := b.arena.Slot(orderID)
	if !ok {
		return false
	}
	o := b.arena.Get(slot)
	if o.Side == Ask {
		return b.asks.DeleteOrder(b.arena, o.Price, orderID)
	}
	return b.bids.DeleteOrder(b.arena, o.Price, orderID)
}

// OrderInfo returns a copy of a resting order, for callers that need
// its side, price and remaining quantity before cancelling it.
func (b *OrderBook) OrderInfo(orderID uint64) (Order, bool) {
	slot, ok := b.arena.Slot(orderID)
	if !ok {
		return Order{}, false
	}
	return *b.arena.Get(slot), true
}

func (b *OrderBook) BestBid() (uint64, bool) { return b.bids.BestPrice() }
func (b *OrderBook) BestAsk() (uint64, bool) { return b.asks.BestPrice() }

// SweepCost prices a hypothetical market sweep: the cash a taker on
// the given side would exchange to fill up to qty against current
// resting liquidity, walking levels closest-to-best first. The second
// return is how much of qty that liquidity covers. A market order
// matched immediately after trades exactly these fills.
func (b *OrderBook) SweepCost(takerSide Side, qty uint32) (uint64, uint32) {
	opp := b.asks
	if takerSide == Ask {
		opp = b.bids
	}
	var cost uint64
	var covered uint32
	opp.Walk(func(lvl *PriceLevel) bool {
		take := uint64(qty - covered)
		if lvl.totalVol < take {
			take = lvl.totalVol
		}
		cost += lvl.Price * take
		covered += uint32(take)
		return covered < qty
	})
	return cost, covered
}

// LastTradePrice is the price of the most recent fill; zero before any
// trade.
func (b *OrderBook) LastTradePrice() uint64 {
	return b.lastTradePrice.Load()
}

// Bids and Asks expose the sides for depth traversal.
func (b *OrderBook) Bids() *BookSide { return b.bids }
func (b *OrderBook) Asks() *BookSide { return b.asks }

// Orders is the number of resting orders across both sides.
func (b *OrderBook) Orders() int { return b.arena.Len() }

func (b *OrderBook) noteLastTrade() {
	if n := len(b.fillBuf); n > 0 {
		b.lastTradePrice.Store(b.fillBuf[n-1].Price)
	}
}

func (b *OrderBook) result(o Order, orig uint32) MatchResult {
	fills := make([]Fill, len(b.fillBuf))
	copy(fills, b.fillBuf)
	return MatchResult{
		OrderID:      o.ID,
		UserID:       o.UserID,
		Fills:        fills,
		RemainingQty: o.Qty,
		OriginalQty:  orig,
	}
}
