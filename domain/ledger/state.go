package ledger

import "fmt"

// UserBalance is one user's cash position. available + reserved only
// changes through deposits and fills; every internal move is a paired
// decrease/increase on the same user.
type UserBalance struct {
	UserID           uint64
	Available        uint64
	Reserved         uint64
	TotalTradedToday uint64
	OrderCountToday  uint64
}

// UserHoldings is one user's share position, dense per symbol id.
type UserHoldings struct {
	UserID    uint64
	Available []uint32
	Reserved  []uint32
}

// State is the balance/holdings ledger: dense slot arrays addressed via
// a user-id lookup. Unlike the order arena, ledger slots are never
// reused; registration only grows until maxUsers.
type State struct {
	balances []UserBalance
	holdings []UserHoldings

	slotByUser   map[uint64]uint32
	nextFreeSlot uint32

	maxUsers   int
	maxSymbols int
}

func NewState(maxUsers, maxSymbols int) *State {
	s := &State{
		balances:   make([]UserBalance, maxUsers),
		holdings:   make([]UserHoldings, maxUsers),
		slotByUser: make(map[uint64]uint32, maxUsers),
		maxUsers:   maxUsers,
		maxSymbols: maxSymbols,
	}
	for i := range s.holdings {
		s.holdings[i].Available = make([]uint32, maxSymbols)
		s.holdings[i].Reserved = make([]uint32, maxSymbols)
	}
	return s
}

// AddUser registers a new ledger slot for the user id.
func (s *State) AddUser(userID uint64) (uint32, error) {
	if _, ok := s.slotByUser[userID]; ok {
		return 0, ErrUserAlreadyExists
	}
	if int(s.nextFreeSlot) >= s.maxUsers {
		return 0, ErrMaxUsersReached
	}
	slot := s.nextFreeSlot
	s.nextFreeSlot++
	s.slotByUser[userID] = slot
	s.balances[slot].UserID = userID
	s.holdings[slot].UserID = userID
	return slot, nil
}

// Slot resolves a user id to its ledger slot.
func (s *State) Slot(userID uint64) (uint32, bool) {
	slot, ok := s.slotByUser[userID]
	return slot, ok
}

func (s *State) Balance(slot uint32) *UserBalance   { return &s.balances[slot] }
func (s *State) Holdings(slot uint32) *UserHoldings { return &s.holdings[slot] }

// Users is the number of registered users.
func (s *State) Users() int { return int(s.nextFreeSlot) }

// MaxSymbols is the width of the per-user holdings tables.
func (s *State) MaxSymbols() int { return s.maxSymbols }

// checkSymbol bounds a symbol id against the holdings tables.
func (s *State) checkSymbol(symbol uint32) error {
	if int(symbol) >= s.maxSymbols {
		return ErrUnknownSymbol
	}
	return nil
}

// sub subtracts b from a, panicking on underflow. Ledger fields never
// saturate: an underflow here means reservation and settlement went out
// of sync and the ledger is corrupt.
func sub(a, b uint64, field string) uint64 {
	if b > a {
		panic(fmt.Sprintf("ledger: %s underflow (%d - %d)", field, a, b))
	}
	return a - b
}

func sub32(a, b uint32, field string) uint32 {
	if b > a {
		panic(fmt.Sprintf("ledger: %s underflow (%d - %d)", field, a, b))
	}
	return a - b
}
