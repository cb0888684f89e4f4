package book

// Arena owns every live order record of one book. Orders are stored in
// dense slots addressed by int32 index; removed slots go on a free list
// and are reused by later inserts, so a slot index is only a stable
// identity for the lifetime of the order occupying it.
type Arena struct {
	orders   []Order
	occupied []bool
	idToSlot map[uint64]int32
	freeList []int32
	live     int
}

func NewArena(capacityHint int) *Arena {
	return &Arena{
		orders:   make([]Order, 0, capacityHint),
		occupied: make([]bool, 0, capacityHint),
		idToSlot: make(map[uint64]int32, capacityHint),
	}
}

// Insert stores the order and records its id-to-slot mapping. A slot
// from the free list is reused when available, otherwise the arena grows.
func (a *Arena) Insert(o Order) int32 {
	var slot int32
	if n := len(a.freeList); n > 0 {
		slot = a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
		a.orders[slot] = o
		a.occupied[slot] = true
	} else {
		a.orders = append(a.orders, o)
		a.occupied = append(a.occupied, true)
		slot = int32(len(a.orders) - 1)
	}
	a.idToSlot[o.ID] = slot
	a.live++
	return slot
}

// Remove frees the slot holding the given order id. Unknown ids are a
// no-op: the order is simply already gone.
func (a *Arena) Remove(orderID uint64) {
	slot, ok := a.idToSlot[orderID]
	if !ok {
		return
	}
	a.orders[slot] = Order{}
	a.occupied[slot] = false
	a.freeList = append(a.freeList, slot)
	delete(a.idToSlot, orderID)
	a.live--
}

// Get returns the order at slot, or nil when the slot is out of range or
// vacant. The pointer is only valid until the next Insert, which may
// grow the backing array.
func (a *Arena) Get(slot int32) *Order {
	if slot < 0 || int(slot) >= len(a.orders) || !a.occupied[slot] {
		return nil
	}
	return &a.orders[slot]
}

// Slot resolves an order id to its current slot.
func (a *Arena) Slot(orderID uint64) (int32, bool) {
	slot, ok := a.idToSlot[orderID]
	return slot, ok
}

// Len is the number of live orders.
func (a *Arena) Len() int { return a.live }

// Cap is the number of allocated slots, live or free.
func (a *Arena) Cap() int { return len(a.orders) }
