package ledger

import "errors"

var (
	// ErrUserNotFound means the order references an unregistered user.
	// The order is rejected; nothing was mutated.
	ErrUserNotFound = errors.New("ledger: user not found")

	// ErrUserAlreadyExists is returned by AddUser for a duplicate id.
	ErrUserAlreadyExists = errors.New("ledger: user already exists")

	// ErrMaxUsersReached means the ledger's fixed slot table is full.
	ErrMaxUsersReached = errors.New("ledger: max users reached")

	// ErrInsufficientFunds is a business rejection, not a bug: the
	// reservation check failed and no balance was touched.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")

	// ErrUnknownSymbol means the symbol id is outside the holdings table.
	ErrUnknownSymbol = errors.New("ledger: unknown symbol")
)
