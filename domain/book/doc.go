// Package book implements the matching core for one symbol: an
// arena-backed order store, price-time-priority FIFO levels held in a
// red-black tree per side, and the limit/market match algorithms.
//
// The package is single-writer. All mutation goes through one owning
// goroutine; nothing here locks.
package book
