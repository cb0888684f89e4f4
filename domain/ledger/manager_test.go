package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecore/domain/book"
)

type captureSink struct {
	balances []BalanceDelta
	holdings []HoldingDelta
}

func (c *captureSink) BalanceChanged(d BalanceDelta) { c.balances = append(c.balances, d) }
func (c *captureSink) HoldingChanged(d HoldingDelta) { c.holdings = append(c.holdings, d) }

func newTestManager(t *testing.T) (*Manager, *captureSink) {
	t.Helper()
	sink := &captureSink{}
	var eventID uint64
	m := NewManager(NewState(16, 4), sink, func() uint64 {
		eventID++
		return eventID
	})
	return m, sink
}

// fund registers the user and gives them cash plus shares of symbol 0.
func fund(t *testing.T, m *Manager, userID uint64, cash uint64, shares uint32) {
	t.Helper()
	require.NoError(t, m.AddUser(userID))
	if cash > 0 {
		require.NoError(t, m.Deposit(userID, cash))
	}
	if shares > 0 {
		require.NoError(t, m.DepositShares(userID, 0, shares))
	}
}

func TestAddUserDuplicate(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.AddUser(7))
	assert.ErrorIs(t, m.AddUser(7), ErrUserAlreadyExists)
}

func TestAddUserCapacity(t *testing.T) {
	sink := &captureSink{}
	m := NewManager(NewState(2, 1), sink, func() uint64 { return 0 })
	require.NoError(t, m.AddUser(1))
	require.NoError(t, m.AddUser(2))
	assert.ErrorIs(t, m.AddUser(3), ErrMaxUsersReached)
}

func TestDepositUnknownUser(t *testing.T) {
	m, _ := newTestManager(t)
	assert.ErrorIs(t, m.Deposit(99, 100), ErrUserNotFound)
	assert.ErrorIs(t, m.DepositShares(99, 0, 10), ErrUserNotFound)
}

func TestDepositSharesUnknownSymbol(t *testing.T) {
	m, _ := newTestManager(t)
	require.NoError(t, m.AddUser(1))
	assert.ErrorIs(t, m.DepositShares(1, 99, 10), ErrUnknownSymbol)
}

func TestLockBid(t *testing.T) {
	m, sink := newTestManager(t)
	fund(t, m, 1, 1000, 0)

	o := book.NewOrder(10, 1, book.Bid, book.Limit, 5, 100, 0, 0)
	require.NoError(t, m.CheckAndLockFunds(o))

	slot, _ := m.State().Slot(1)
	b := m.State().Balance(slot)
	assert.Equal(t, uint64(500), b.Available)
	assert.Equal(t, uint64(500), b.Reserved)
	assert.Equal(t, uint64(1), b.OrderCountToday)

	last := sink.balances[len(sink.balances)-1]
	assert.Equal(t, ReasonLock, last.Reason)
	assert.Equal(t, int64(-500), last.DeltaAvailable)
	assert.Equal(t, int64(500), last.DeltaReserved)
	assert.Equal(t, uint64(10), last.OrderID)
}

func TestLockAsk(t *testing.T) {
	m, sink := newTestManager(t)
	fund(t, m, 1, 0, 20)

	o := book.NewOrder(11, 1, book.Ask, book.Limit, 15, 100, 0, 0)
	require.NoError(t, m.CheckAndLockFunds(o))

	slot, _ := m.State().Slot(1)
	h := m.State().Holdings(slot)
	assert.Equal(t, uint32(5), h.Available[0])
	assert.Equal(t, uint32(15), h.Reserved[0])

	last := sink.holdings[len(sink.holdings)-1]
	assert.Equal(t, ReasonLock, last.Reason)
	assert.Equal(t, int32(-15), last.DeltaAvailable)
	assert.Equal(t, int32(15), last.DeltaReserved)
}

func TestLockInsufficientLeavesStateUntouched(t *testing.T) {
	m, _ := newTestManager(t)
	fund(t, m, 1, 499, 9)

	bid := book.NewOrder(1, 1, book.Bid, book.Limit, 5, 100, 0, 0)
	assert.ErrorIs(t, m.CheckAndLockFunds(bid), ErrInsufficientFunds)

	ask := book.NewOrder(2, 1, book.Ask, book.Limit, 10, 100, 0, 0)
	assert.ErrorIs(t, m.CheckAndLockFunds(ask), ErrInsufficientFunds)

	slot, _ := m.State().Slot(1)
	b := m.State().Balance(slot)
	h := m.State().Holdings(slot)
	assert.Equal(t, uint64(499), b.Available)
	assert.Equal(t, uint64(0), b.Reserved)
	assert.Equal(t, uint32(9), h.Available[0])
	assert.Equal(t, uint32(0), h.Reserved[0])
	assert.Equal(t, uint64(0), b.OrderCountToday)
}

func TestLockUnknownUser(t *testing.T) {
	m, _ := newTestManager(t)
	o := book.NewOrder(1, 42, book.Bid, book.Limit, 5, 100, 0, 0)
	assert.ErrorIs(t, m.CheckAndLockFunds(o), ErrUserNotFound)
}

func TestLockMarketBidExactCost(t *testing.T) {
	m, sink := newTestManager(t)
	fund(t, m, 1, 1000, 0)

	o := book.NewOrder(3, 1, book.Bid, book.Market, 10, 0, 0, 0)
	require.NoError(t, m.LockMarketBid(o, 950))

	slot, _ := m.State().Slot(1)
	b := m.State().Balance(slot)
	assert.Equal(t, uint64(50), b.Available)
	assert.Equal(t, uint64(950), b.Reserved)
	assert.Equal(t, uint64(1), b.OrderCountToday)

	last := sink.balances[len(sink.balances)-1]
	assert.Equal(t, ReasonLock, last.Reason)
	assert.Equal(t, int64(-950), last.DeltaAvailable)
	assert.Equal(t, int64(950), last.DeltaReserved)

	assert.ErrorIs(t, m.LockMarketBid(o, 51), ErrInsufficientFunds)
	assert.Equal(t, uint64(50), b.Available)
}

func TestLockMarketBidUnknownUser(t *testing.T) {
	m, _ := newTestManager(t)
	o := book.NewOrder(3, 42, book.Bid, book.Market, 10, 0, 0, 0)
	assert.ErrorIs(t, m.LockMarketBid(o, 1), ErrUserNotFound)
}

func TestReleaseBidFunds(t *testing.T) {
	m, sink := newTestManager(t)
	fund(t, m, 1, 1000, 0)

	o := book.NewOrder(4, 1, book.Bid, book.Market, 10, 0, 0, 0)
	require.NoError(t, m.LockMarketBid(o, 600))
	require.NoError(t, m.ReleaseBidFunds(1, 4, 600))

	slot, _ := m.State().Slot(1)
	b := m.State().Balance(slot)
	assert.Equal(t, uint64(1000), b.Available)
	assert.Equal(t, uint64(0), b.Reserved)

	last := sink.balances[len(sink.balances)-1]
	assert.Equal(t, ReasonCancelRefund, last.Reason)
	assert.Equal(t, int64(600), last.DeltaAvailable)

	assert.ErrorIs(t, m.ReleaseBidFunds(9, 4, 1), ErrUserNotFound)
}

func TestSettleTakerBid(t *testing.T) {
	m, _ := newTestManager(t)
	fund(t, m, 1, 1000, 0) // buyer, taker
	fund(t, m, 2, 0, 50)   // seller, maker

	bid := book.NewOrder(1, 1, book.Bid, book.Limit, 10, 100, 0, 0)
	ask := book.NewOrder(2, 2, book.Ask, book.Limit, 10, 100, 0, 0)
	require.NoError(t, m.CheckAndLockFunds(ask))
	require.NoError(t, m.CheckAndLockFunds(bid))

	fills := []book.Fill{{
		Price: 100, Qty: 10,
		TakerOrderID: 1, MakerOrderID: 2,
		TakerUserID: 1, MakerUserID: 2,
		Symbol: 0, TakerSide: book.Bid,
	}}
	require.NoError(t, m.SettleFills(fills))

	buyerSlot, _ := m.State().Slot(1)
	sellerSlot, _ := m.State().Slot(2)

	buyer := m.State().Balance(buyerSlot)
	buyerH := m.State().Holdings(buyerSlot)
	assert.Equal(t, uint64(0), buyer.Available)
	assert.Equal(t, uint64(0), buyer.Reserved)
	assert.Equal(t, uint32(10), buyerH.Available[0])
	assert.Equal(t, uint64(1000), buyer.TotalTradedToday)

	seller := m.State().Balance(sellerSlot)
	sellerH := m.State().Holdings(sellerSlot)
	assert.Equal(t, uint64(1000), seller.Available)
	assert.Equal(t, uint32(40), sellerH.Available[0])
	assert.Equal(t, uint32(0), sellerH.Reserved[0])
	assert.Equal(t, uint64(1000), seller.TotalTradedToday)
}

func TestSettleTakerAsk(t *testing.T) {
	m, _ := newTestManager(t)
	fund(t, m, 1, 1000, 0) // buyer, maker
	fund(t, m, 2, 0, 50)   // seller, taker

	bid := book.NewOrder(1, 1, book.Bid, book.Limit, 10, 100, 0, 0)
	ask := book.NewOrder(2, 2, book.Ask, book.Limit, 10, 100, 0, 0)
	require.NoError(t, m.CheckAndLockFunds(bid))
	require.NoError(t, m.CheckAndLockFunds(ask))

	fills := []book.Fill{{
		Price: 100, Qty: 10,
		TakerOrderID: 2, MakerOrderID: 1,
		TakerUserID: 2, MakerUserID: 1,
		Symbol: 0, TakerSide: book.Ask,
	}}
	require.NoError(t, m.SettleFills(fills))

	buyerSlot, _ := m.State().Slot(1)
	sellerSlot, _ := m.State().Slot(2)

	assert.Equal(t, uint64(0), m.State().Balance(buyerSlot).Reserved)
	assert.Equal(t, uint32(10), m.State().Holdings(buyerSlot).Available[0])
	assert.Equal(t, uint64(1000), m.State().Balance(sellerSlot).Available)
	assert.Equal(t, uint32(0), m.State().Holdings(sellerSlot).Reserved[0])
}

func TestSettleConservesTotals(t *testing.T) {
	m, _ := newTestManager(t)
	fund(t, m, 1, 5000, 30)
	fund(t, m, 2, 2000, 80)

	totalCash := func() uint64 {
		var sum uint64
		for userID := uint64(1); userID <= 2; userID++ {
			slot, _ := m.State().Slot(userID)
			b := m.State().Balance(slot)
			sum += b.Available + b.Reserved
		}
		return sum
	}
	totalShares := func() uint32 {
		var sum uint32
		for userID := uint64(1); userID <= 2; userID++ {
			slot, _ := m.State().Slot(userID)
			h := m.State().Holdings(slot)
			sum += h.Available[0] + h.Reserved[0]
		}
		return sum
	}

	cashBefore, sharesBefore := totalCash(), totalShares()

	bid := book.NewOrder(1, 1, book.Bid, book.Limit, 25, 120, 0, 0)
	ask := book.NewOrder(2, 2, book.Ask, book.Limit, 25, 120, 0, 0)
	require.NoError(t, m.CheckAndLockFunds(ask))
	require.NoError(t, m.CheckAndLockFunds(bid))
	require.NoError(t, m.SettleFills([]book.Fill{{
		Price: 120, Qty: 25,
		TakerOrderID: 1, MakerOrderID: 2,
		TakerUserID: 1, MakerUserID: 2,
		Symbol: 0, TakerSide: book.Bid,
	}}))

	assert.Equal(t, cashBefore, totalCash())
	assert.Equal(t, sharesBefore, totalShares())
}

func TestSettleUnknownUser(t *testing.T) {
	m, _ := newTestManager(t)
	fund(t, m, 1, 1000, 10)
	err := m.SettleFills([]book.Fill{{
		Price: 100, Qty: 1,
		TakerUserID: 1, MakerUserID: 99,
		Symbol: 0, TakerSide: book.Bid,
	}})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRefundOnCancelBid(t *testing.T) {
	m, sink := newTestManager(t)
	fund(t, m, 1, 1000, 0)

	o := book.NewOrder(5, 1, book.Bid, book.Limit, 6, 100, 0, 0)
	require.NoError(t, m.CheckAndLockFunds(o))
	require.NoError(t, m.RefundOnCancel(o))

	slot, _ := m.State().Slot(1)
	b := m.State().Balance(slot)
	assert.Equal(t, uint64(1000), b.Available)
	assert.Equal(t, uint64(0), b.Reserved)

	last := sink.balances[len(sink.balances)-1]
	assert.Equal(t, ReasonCancelRefund, last.Reason)
	assert.Equal(t, int64(600), last.DeltaAvailable)
	assert.Equal(t, int64(-600), last.DeltaReserved)
}

func TestRefundOnCancelAskPartialRemainder(t *testing.T) {
	m, _ := newTestManager(t)
	fund(t, m, 1, 0, 20)

	o := book.NewOrder(6, 1, book.Ask, book.Limit, 12, 100, 0, 0)
	require.NoError(t, m.CheckAndLockFunds(o))

	// 5 filled elsewhere; refund only the unfilled 7.
	rest := o
	rest.Qty = 7
	slot, _ := m.State().Slot(1)
	m.State().Holdings(slot).Reserved[0] -= 5
	require.NoError(t, m.RefundOnCancel(rest))

	h := m.State().Holdings(slot)
	assert.Equal(t, uint32(15), h.Available[0])
	assert.Equal(t, uint32(0), h.Reserved[0])
}

func TestEventIDsAreMonotonic(t *testing.T) {
	m, sink := newTestManager(t)
	fund(t, m, 1, 1000, 10)

	var prev uint64
	for _, d := range sink.balances {
		assert.Greater(t, d.EventID, prev)
		prev = d.EventID
	}
}
