package ledger

import "tradecore/domain/book"

// Manager validates and reserves funds before an order reaches the
// book, and settles or refunds after the book reports back. It is the
// single owner of the State it wraps; callers on other goroutines get
// ledger data through the delta stream, never through shared access.
type Manager struct {
	state       *State
	sink        DeltaSink
	nextEventID func() uint64
}

func NewManager(state *State, sink DeltaSink, nextEventID func() uint64) *Manager {
	if sink == nil {
		sink = NopSink{}
	}
	return &Manager{state: state, sink: sink, nextEventID: nextEventID}
}

func (m *Manager) State() *State { return m.state }

// AddUser registers a ledger slot for the user.
func (m *Manager) AddUser(userID uint64) error {
	_, err := m.state.AddUser(userID)
	return err
}

// Deposit credits external cash into the user's available balance.
func (m *Manager) Deposit(userID uint64, amount uint64) error {
	slot, ok := m.state.Slot(userID)
	if !ok {
		return ErrUserNotFound
	}
	m.state.Balance(slot).Available += amount
	m.sink.BalanceChanged(BalanceDelta{
		EventID:        m.nextEventID(),
		UserID:         userID,
		DeltaAvailable: int64(amount),
		Reason:         ReasonDeposit,
	})
	return nil
}

// DepositShares credits external shares into the user's available
// holdings for one symbol.
func (m *Manager) DepositShares(userID uint64, symbol uint32, qty uint32) error {
	slot, ok := m.state.Slot(userID)
	if !ok {
		return ErrUserNotFound
	}
	if err := m.state.checkSymbol(symbol); err != nil {
		return err
	}
	m.state.Holdings(slot).Available[symbol] += qty
	m.sink.HoldingChanged(HoldingDelta{
		EventID:        m.nextEventID(),
		UserID:         userID,
		Symbol:         symbol,
		DeltaAvailable: int32(qty),
		Reason:         ReasonDeposit,
	})
	return nil
}

// CheckAndLockFunds reserves what the order could cost: shares for an
// ask, price*qty cash for a bid. The reservation is all-or-nothing; on
// any error the ledger is untouched.
func (m *Manager) CheckAndLockFunds(o book.Order) error {
	slot, ok := m.state.Slot(o.UserID)
	if !ok {
		return ErrUserNotFound
	}

	switch o.Side {
	case book.Ask:
		if err := m.state.checkSymbol(o.Symbol); err != nil {
			return err
		}
		h := m.state.Holdings(slot)
		if o.Qty > h.Available[o.Symbol] {
			return ErrInsufficientFunds
		}
		h.Available[o.Symbol] -= o.Qty
		h.Reserved[o.Symbol] += o.Qty
		m.sink.HoldingChanged(HoldingDelta{
			EventID:        m.nextEventID(),
			UserID:         o.UserID,
			Symbol:         o.Symbol,
			DeltaAvailable: -int32(o.Qty),
			DeltaReserved:  int32(o.Qty),
			Reason:         ReasonLock,
			OrderID:        o.ID,
		})

	case book.Bid:
		required := o.Price * uint64(o.Qty)
		b := m.state.Balance(slot)
		if required > b.Available {
			return ErrInsufficientFunds
		}
		b.Available -= required
		b.Reserved += required
		m.sink.BalanceChanged(BalanceDelta{
			EventID:        m.nextEventID(),
			UserID:         o.UserID,
			DeltaAvailable: -int64(required),
			DeltaReserved:  int64(required),
			Reason:         ReasonLock,
			OrderID:        o.ID,
		})
	}

	m.state.Balance(slot).OrderCountToday++
	return nil
}

// LockMarketBid reserves the exact cash a market bid's sweep will
// exchange. Market bids carry no limit price to reserve against, so
// the caller prices the sweep against current depth and the
// reservation equals what settlement will debit.
func (m *Manager) LockMarketBid(o book.Order, cost uint64) error {
	slot, ok := m.state.Slot(o.UserID)
	if !ok {
		return ErrUserNotFound
	}
	b := m.state.Balance(slot)
	if cost > b.Available {
		return ErrInsufficientFunds
	}
	b.Available -= cost
	b.Reserved += cost
	b.OrderCountToday++
	m.sink.BalanceChanged(BalanceDelta{
		EventID:        m.nextEventID(),
		UserID:         o.UserID,
		DeltaAvailable: -int64(cost),
		DeltaReserved:  int64(cost),
		Reason:         ReasonLock,
		OrderID:        o.ID,
	})
	return nil
}

// ReleaseBidFunds moves a cash reservation back to available without a
// fill, for reservations taken by LockMarketBid that never executed.
func (m *Manager) ReleaseBidFunds(userID, orderID uint64, amount uint64) error {
	slot, ok := m.state.Slot(userID)
	if !ok {
		return ErrUserNotFound
	}
	b := m.state.Balance(slot)
	b.Reserved = sub(b.Reserved, amount, "reserved balance")
	b.Available += amount
	m.sink.BalanceChanged(BalanceDelta{
		EventID:        m.nextEventID(),
		UserID:         userID,
		DeltaAvailable: int64(amount),
		DeltaReserved:  -int64(amount),
		Reason:         ReasonCancelRefund,
		OrderID:        orderID,
	})
	return nil
}

// SettleFills applies the four conservation moves per fill: the selling
// party trades reserved shares for available cash, the buying party
// trades reserved cash for available shares. Which party was maker and
// which taker follows from the fill's taker side.
func (m *Manager) SettleFills(fills []book.Fill) error {
	for _, fill := range fills {
		makerSlot, ok := m.state.Slot(fill.MakerUserID)
		if !ok {
			return ErrUserNotFound
		}
		takerSlot, ok := m.state.Slot(fill.TakerUserID)
		if !ok {
			return ErrUserNotFound
		}
		value := fill.Value()

		var sellerSlot, buyerSlot uint32
		var sellerUser, buyerUser uint64
		if fill.TakerSide == book.Ask {
			sellerSlot, sellerUser = takerSlot, fill.TakerUserID
			buyerSlot, buyerUser = makerSlot, fill.MakerUserID
		} else {
			sellerSlot, sellerUser = makerSlot, fill.MakerUserID
			buyerSlot, buyerUser = takerSlot, fill.TakerUserID
		}

		seller := m.state.Balance(sellerSlot)
		sellerH := m.state.Holdings(sellerSlot)
		buyer := m.state.Balance(buyerSlot)
		buyerH := m.state.Holdings(buyerSlot)

		// seller: reserved shares out, available cash in
		sellerH.Reserved[fill.Symbol] = sub32(sellerH.Reserved[fill.Symbol], fill.Qty, "reserved holdings")
		seller.Available += value

		// buyer: reserved cash out, available shares in
		buyer.Reserved = sub(buyer.Reserved, value, "reserved balance")
		buyerH.Available[fill.Symbol] += fill.Qty

		seller.TotalTradedToday += value
		buyer.TotalTradedToday += value

		m.sink.HoldingChanged(HoldingDelta{
			EventID:       m.nextEventID(),
			UserID:        sellerUser,
			Symbol:        fill.Symbol,
			DeltaReserved: -int32(fill.Qty),
			Reason:        ReasonSettle,
			OrderID:       fill.TakerOrderID,
		})
		m.sink.BalanceChanged(BalanceDelta{
			EventID:        m.nextEventID(),
			UserID:         sellerUser,
			DeltaAvailable: int64(value),
			Reason:         ReasonSettle,
			OrderID:        fill.TakerOrderID,
		})
		m.sink.BalanceChanged(BalanceDelta{
			EventID:       m.nextEventID(),
			UserID:        buyerUser,
			DeltaReserved: -int64(value),
			Reason:        ReasonSettle,
			OrderID:       fill.TakerOrderID,
		})
		m.sink.HoldingChanged(HoldingDelta{
			EventID:        m.nextEventID(),
			UserID:         buyerUser,
			Symbol:         fill.Symbol,
			DeltaAvailable: int32(fill.Qty),
			Reason:         ReasonSettle,
			OrderID:        fill.TakerOrderID,
		})
	}
	return nil
}

// RefundOnCancel reverses the outstanding reservation for the unfilled
// remainder of a cancelled resting order.
func (m *Manager) RefundOnCancel(o book.Order) error {
	slot, ok := m.state.Slot(o.UserID)
	if !ok {
		return ErrUserNotFound
	}

	switch o.Side {
	case book.Ask:
		if err := m.state.checkSymbol(o.Symbol); err != nil {
			return err
		}
		h := m.state.Holdings(slot)
		h.Reserved[o.Symbol] = sub32(h.Reserved[o.Symbol], o.Qty, "reserved holdings")
		h.Available[o.Symbol] += o.Qty
		m.sink.HoldingChanged(HoldingDelta{
			EventID:        m.nextEventID(),
			UserID:         o.UserID,
			Symbol:         o.Symbol,
			DeltaAvailable: int32(o.Qty),
			DeltaReserved:  -int32(o.Qty),
			Reason:         ReasonCancelRefund,
			OrderID:        o.ID,
		})

	case book.Bid:
		value := o.Price * uint64(o.Qty)
		b := m.state.Balance(slot)
		b.Reserved = sub(b.Reserved, value, "reserved balance")
		b.Available += value
		m.sink.BalanceChanged(BalanceDelta{
			EventID:        m.nextEventID(),
			UserID:         o.UserID,
			DeltaAvailable: int64(value),
			DeltaReserved:  -int64(value),
			Reason:         ReasonCancelRefund,
			OrderID:        o.ID,
		})
	}
	return nil
}
