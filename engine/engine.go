// Package engine hosts the per-symbol book registry and the
// single-threaded trading core that drives matching, settlement and
// outbound event flow.
package engine

import (
	"errors"

	"tradecore/domain/book"
)

var (
	ErrNoBook       = errors.New("engine: no book for symbol")
	ErrBookExists   = errors.New("engine: book already exists")
	ErrInvalidOrder = errors.New("engine: invalid order")
)

// Engine maps symbol ids to order books. Symbols are dense small
// integers, so the registry is a slice, not a map.
type Engine struct {
	books []*book.OrderBook
	count int
}

func NewEngine(maxSymbols int) *Engine {
	return &Engine{books: make([]*book.OrderBook, maxSymbols)}
}

func (e *Engine) AddBook(symbol uint32) error {
	if int(symbol) >= len(e.books) {
		return ErrNoBook
	}
	if e.books[symbol] != nil {
		return ErrBookExists
	}
	e.books[symbol] = book.NewOrderBook(symbol)
	e.count++
	return nil
}

func (e *Engine) RemoveBook(symbol uint32) bool {
	if int(symbol) >= len(e.books) || e.books[symbol] == nil {
		return false
	}
	e.books[symbol] = nil
	e.count--
	return true
}

func (e *Engine) Book(symbol uint32) (*book.OrderBook, bool) {
	if int(symbol) >= len(e.books) || e.books[symbol] == nil {
		return nil, false
	}
	return e.books[symbol], true
}

func (e *Engine) HasBook(symbol uint32) bool {
	return int(symbol) < len(e.books) && e.books[symbol] != nil
}

func (e *Engine) BookCount() int { return e.count }

// ForEachBook visits every active book in symbol order.
func (e *Engine) ForEachBook(fn func(*book.OrderBook)) {
	for _, b := range e.books {
		if b != nil {
			fn(b)
		}
	}
}

// Process routes one admitted order to its book's matching path.
func (e *Engine) Process(o book.Order) (book.MatchResult, error) {
	b, ok := e.Book(o.Symbol)
	if !ok {
		return book.MatchResult{}, ErrNoBook
	}
	switch o.Type {
	case book.Market:
		return b.MatchMarket(o), nil
	case book.Limit:
		switch o.Side {
		case book.Bid:
			return b.MatchBid(o), nil
		case book.Ask:
			return b.MatchAsk(o), nil
		}
	}
	return book.MatchResult{}, ErrInvalidOrder
}

// Cancel removes a resting order and returns a copy of what rested,
// for the ledger refund. The order must belong to userID; a cancel
// record naming someone else's order is ignored.
func (e *Engine) Cancel(symbol uint32, orderID, userID uint64) (book.Order, bool) {
	b, ok := e.Book(symbol)
	if !ok {
		return book.Order{}, false
	}
	rested, ok := b.OrderInfo(orderID)
	if !ok || rested.UserID != userID {
		return book.Order{}, false
	}
	if !b.Cancel(orderID) {
		return book.Order{}, false
	}
	return rested, true
}
