package engine

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"

	"tradecore/domain/book"
	"tradecore/domain/ledger"
	"tradecore/infra/sequence"
	"tradecore/infra/spsc"
)

// Queues are the core's inbound and outbound rings. Every ring has
// exactly one producer and one consumer; the core is the consumer of
// the inbound set and the producer of the outbound set.
type Queues struct {
	Orders    *spsc.Ring[book.Order]
	Cancels   *spsc.Ring[CancelRequest]
	Admin     *spsc.Ring[AdminQuery]
	FillInbox *spsc.Ring[book.Fill]

	Events        *spsc.Ring[OrderEvent]
	Trades        *spsc.Ring[TradeEvent]
	Tickers       *spsc.Ring[TickerUpdate]
	Snapshots     *spsc.Ring[book.DepthSnapshot]
	BalanceDeltas *spsc.Ring[ledger.BalanceDelta]
	HoldingDeltas *spsc.Ring[ledger.HoldingDelta]
}

func NewQueues(capacity int) *Queues {
	return &Queues{
		Orders:        spsc.New[book.Order](capacity),
		Cancels:       spsc.New[CancelRequest](capacity),
		Admin:         spsc.New[AdminQuery](capacity),
		FillInbox:     spsc.New[book.Fill](capacity),
		Events:        spsc.New[OrderEvent](capacity),
		Trades:        spsc.New[TradeEvent](capacity),
		Tickers:       spsc.New[TickerUpdate](capacity),
		Snapshots:     spsc.New[book.DepthSnapshot](capacity),
		BalanceDeltas: spsc.New[ledger.BalanceDelta](capacity),
		HoldingDeltas: spsc.New[ledger.HoldingDelta](capacity),
	}
}

// CoreConfig tunes the driver loop.
type CoreConfig struct {
	OrderBatch       int           // max orders per cycle
	SnapshotInterval time.Duration // depth snapshot cadence
	DepthLevels      int           // levels per snapshot side
	ReportInterval   time.Duration // throughput log cadence
}

func (c *CoreConfig) defaults() {
	if c.OrderBatch <= 0 {
		c.OrderBatch = 1000
	}
	if c.SnapshotInterval <= 0 {
		c.SnapshotInterval = 30 * time.Second
	}
	if c.DepthLevels <= 0 {
		c.DepthLevels = 20
	}
	if c.ReportInterval <= 0 {
		c.ReportInterval = 2 * time.Second
	}
}

// ringSink forwards ledger deltas onto the outbound rings. The delta
// stream is best effort: a full ring drops the record and counts it.
type ringSink struct {
	balances *spsc.Ring[ledger.BalanceDelta]
	holdings *spsc.Ring[ledger.HoldingDelta]
	dropped  uint64
}

func (s *ringSink) BalanceChanged(d ledger.BalanceDelta) {
	if !s.balances.TryPush(d) {
		s.dropped++
	}
}

func (s *ringSink) HoldingChanged(d ledger.HoldingDelta) {
	if !s.holdings.TryPush(d) {
		s.dropped++
	}
}

// Core is the single-threaded trading loop. Exactly one goroutine may
// call RunCycle or Run; the books and the ledger have no locks.
type Core struct {
	log    *zap.Logger
	engine *Engine
	ledger *ledger.Manager
	q      *Queues
	sink   *ringSink
	cfg    CoreConfig

	seq *sequence.Sequencer

	now              func() time.Time
	lastSnapshot     time.Time
	lastReport       time.Time
	processed        uint64
	droppedOut       uint64
	droppedMalformed uint64
}

func NewCore(log *zap.Logger, eng *Engine, state *ledger.State, q *Queues, cfg CoreConfig) *Core {
	cfg.defaults()
	c := &Core{
		log:    log.Named("core"),
		engine: eng,
		q:      q,
		cfg:    cfg,
		seq:    sequence.New(0),
		now:    time.Now,
	}
	c.sink = &ringSink{balances: q.BalanceDeltas, holdings: q.HoldingDeltas}
	c.ledger = ledger.NewManager(state, c.sink, c.seq.Next)
	return c
}

func (c *Core) Ledger() *ledger.Manager { return c.ledger }
func (c *Core) Engine() *Engine         { return c.engine }

func (c *Core) nextEventID() uint64 { return c.seq.Next() }

// Run drives cycles until the context is cancelled. Idle cycles back
// off from yielding to sleeping so an empty exchange does not burn a
// core at full power.
func (c *Core) Run(ctx context.Context) {
	c.log.Info("trading core started",
		zap.Int("order_batch", c.cfg.OrderBatch),
		zap.Duration("snapshot_interval", c.cfg.SnapshotInterval),
		zap.Int("depth_levels", c.cfg.DepthLevels))

	c.lastSnapshot = c.now()
	c.lastReport = c.now()

	idle := 0
	for {
		select {
		case <-ctx.Done():
			c.log.Info("trading core stopped")
			return
		default:
		}

		if c.RunCycle() {
			idle = 0
			continue
		}
		idle++
		if idle < 128 {
			runtime.Gosched()
		} else {
			time.Sleep(100 * time.Microsecond)
		}
	}
}

// RunCycle executes one full pass of the pipeline. It reports whether
// any work was found.
func (c *Core) RunCycle() bool {
	work := c.drainFills()

	for i := 0; i < c.cfg.OrderBatch; i++ {
		o, ok := c.q.Orders.TryPop()
		if !ok {
			break
		}
		c.handleOrder(o)
		work = true
	}

	for {
		req, ok := c.q.Cancels.TryPop()
		if !ok {
			break
		}
		c.handleCancel(req)
		work = true
	}

	for {
		q, ok := c.q.Admin.TryPop()
		if !ok {
			break
		}
		c.handleAdmin(q)
		work = true
	}

	now := c.now()
	if now.Sub(c.lastSnapshot) >= c.cfg.SnapshotInterval {
		c.snapshotBooks(now)
		c.lastSnapshot = now
	}
	if now.Sub(c.lastReport) >= c.cfg.ReportInterval {
		c.report(now)
		c.lastReport = now
	}
	return work
}

// drainFills settles every pending externally produced fill before any
// new order is admitted, so reserved funds never lag behind trades.
func (c *Core) drainFills() bool {
	work := false
	for {
		fill, ok := c.q.FillInbox.TryPop()
		if !ok {
			return work
		}
		work = true
		if err := c.ledger.SettleFills([]book.Fill{fill}); err != nil {
			c.log.Error("settle of inbound fill failed",
				zap.Uint64("taker_order_id", fill.TakerOrderID),
				zap.Uint64("maker_order_id", fill.MakerOrderID),
				zap.Error(err))
		}
	}
}

// admissible screens raw inbound records: side, type and quantity
// bytes must be in range before the order may touch the ledger.
func admissible(o book.Order) bool {
	if o.Qty == 0 {
		return false
	}
	if o.Side != book.Bid && o.Side != book.Ask {
		return false
	}
	if o.Type != book.Market && o.Type != book.Limit {
		return false
	}
	return true
}

func (c *Core) handleOrder(o book.Order) {
	if !admissible(o) {
		c.droppedMalformed++
		c.log.Warn("malformed order dropped",
			zap.Uint64("order_id", o.ID),
			zap.Uint64("user_id", o.UserID),
			zap.Uint8("side", uint8(o.Side)),
			zap.Uint8("type", uint8(o.Type)),
			zap.Uint32("qty", o.Qty))
		return
	}
	if !c.engine.HasBook(o.Symbol) {
		c.emitEvent(o, EventRejected, book.MatchResult{OriginalQty: o.Qty, RemainingQty: o.Qty}, ErrNoBook.Error())
		return
	}

	// a market bid has no limit price bounding its fills, so it is
	// reserved at the exact cost of sweeping current depth
	marketBid := o.Type == book.Market && o.Side == book.Bid
	var sweepCost uint64
	var err error
	if marketBid {
		bk, _ := c.engine.Book(o.Symbol)
		sweepCost, _ = bk.SweepCost(book.Bid, o.Qty)
		err = c.ledger.LockMarketBid(o, sweepCost)
	} else {
		err = c.ledger.CheckAndLockFunds(o)
	}
	if err != nil {
		c.emitEvent(o, EventRejected, book.MatchResult{OriginalQty: o.Qty, RemainingQty: o.Qty}, err.Error())
		return
	}

	res, err := c.engine.Process(o)
	if err != nil {
		// reservation already taken, give it back
		var rerr error
		if marketBid {
			rerr = c.ledger.ReleaseBidFunds(o.UserID, o.ID, sweepCost)
		} else {
			rerr = c.ledger.RefundOnCancel(o)
		}
		if rerr != nil {
			c.log.Error("refund after match failure failed",
				zap.Uint64("order_id", o.ID), zap.Error(rerr))
		}
		c.emitEvent(o, EventRejected, book.MatchResult{OriginalQty: o.Qty, RemainingQty: o.Qty}, err.Error())
		return
	}

	if len(res.Fills) > 0 {
		if err := c.ledger.SettleFills(res.Fills); err != nil {
			c.log.Error("settle failed", zap.Uint64("order_id", o.ID), zap.Error(err))
		}
		c.emitTrades(res.Fills)
		c.emitTicker(o.Symbol)
	}

	// a market ask never rests, so its unfilled remainder releases the
	// share reservation immediately; a market bid's residual reserved
	// nothing (the sweep cost covers only fillable quantity)
	if o.Type == book.Market && o.Side == book.Ask && res.RemainingQty > 0 {
		rest := o
		rest.Qty = res.RemainingQty
		if err := c.ledger.RefundOnCancel(rest); err != nil {
			c.log.Error("market residual refund failed",
				zap.Uint64("order_id", o.ID), zap.Error(err))
		}
	}

	c.emitEvent(o, kindFor(res), res, "")
	c.processed++
}

func kindFor(res book.MatchResult) EventKind {
	switch {
	case res.RemainingQty == 0:
		return EventFilled
	case res.FilledQty() > 0:
		return EventPartiallyFilled
	default:
		return EventAccepted
	}
}

func (c *Core) handleCancel(req CancelRequest) {
	rested, ok := c.engine.Cancel(req.Symbol, req.OrderID, req.UserID)
	if !ok {
		// already filled, never seen, or not this user's order
		return
	}
	if err := c.ledger.RefundOnCancel(rested); err != nil {
		c.log.Error("cancel refund failed",
			zap.Uint64("order_id", req.OrderID), zap.Error(err))
		return
	}
	c.q.Events.Push(OrderEvent{
		EventID:      c.nextEventID(),
		OrderID:      rested.ID,
		UserID:       rested.UserID,
		Symbol:       rested.Symbol,
		Kind:         EventCancelled,
		RemainingQty: rested.Qty,
		OriginalQty:  rested.Qty,
		Timestamp:    c.now().UnixNano(),
	})
}

func (c *Core) handleAdmin(q AdminQuery) {
	var err error
	switch q.Op {
	case AdminAddUser:
		err = c.ledger.AddUser(q.UserID)
	case AdminDeposit:
		err = c.ledger.Deposit(q.UserID, q.Amount)
	case AdminDepositShares:
		err = c.ledger.DepositShares(q.UserID, q.Symbol, q.Qty)
	case AdminAddBook:
		err = c.engine.AddBook(q.Symbol)
	}
	if err != nil {
		c.log.Warn("admin query failed",
			zap.Uint8("op", uint8(q.Op)),
			zap.Uint64("user_id", q.UserID),
			zap.Error(err))
	}
}

func (c *Core) emitEvent(o book.Order, kind EventKind, res book.MatchResult, reason string) {
	c.q.Events.Push(OrderEvent{
		EventID:      c.nextEventID(),
		OrderID:      o.ID,
		UserID:       o.UserID,
		Symbol:       o.Symbol,
		Kind:         kind,
		FilledQty:    res.FilledQty(),
		RemainingQty: res.RemainingQty,
		OriginalQty:  res.OriginalQty,
		Reason:       reason,
		Timestamp:    c.now().UnixNano(),
	})
}

func (c *Core) emitTrades(fills []book.Fill) {
	ts := c.now().UnixNano()
	for _, f := range fills {
		ev := TradeEvent{
			EventID:      c.nextEventID(),
			Symbol:       f.Symbol,
			Price:        f.Price,
			Qty:          f.Qty,
			TakerOrderID: f.TakerOrderID,
			MakerOrderID: f.MakerOrderID,
			TakerSide:    f.TakerSide,
			Timestamp:    ts,
		}
		if !c.q.Trades.TryPush(ev) {
			c.droppedOut++
		}
	}
}

func (c *Core) emitTicker(symbol uint32) {
	b, ok := c.engine.Book(symbol)
	if !ok {
		return
	}
	bestBid, _ := b.BestBid()
	bestAsk, _ := b.BestAsk()
	ev := TickerUpdate{
		EventID:   c.nextEventID(),
		Symbol:    symbol,
		LastPrice: b.LastTradePrice(),
		BestBid:   bestBid,
		BestAsk:   bestAsk,
		Timestamp: c.now().UnixNano(),
	}
	if !c.q.Tickers.TryPush(ev) {
		c.droppedOut++
	}
}

func (c *Core) snapshotBooks(now time.Time) {
	c.engine.ForEachBook(func(b *book.OrderBook) {
		snap := b.Snapshot(c.cfg.DepthLevels, now.UnixNano(), c.nextEventID())
		if !c.q.Snapshots.TryPush(snap) {
			c.droppedOut++
		}
	})
}

func (c *Core) report(now time.Time) {
	elapsed := now.Sub(c.lastReport).Seconds()
	if elapsed <= 0 {
		return
	}
	rate := float64(c.processed) / elapsed
	if c.processed > 0 || c.droppedOut > 0 || c.droppedMalformed > 0 || c.sink.dropped > 0 {
		c.log.Info("throughput",
			zap.Uint64("orders", c.processed),
			zap.Float64("orders_per_sec", rate),
			zap.Uint64("dropped_market_data", c.droppedOut),
			zap.Uint64("dropped_malformed", c.droppedMalformed),
			zap.Uint64("dropped_deltas", c.sink.dropped))
	}
	// all counters are per interval
	c.processed = 0
	c.droppedOut = 0
	c.droppedMalformed = 0
	c.sink.dropped = 0
}
