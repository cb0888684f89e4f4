package book

// PriceLevel is the FIFO of resting orders at one price: head is the
// oldest order, tail the newest. Orders are chained through their
// prev/next slot references, so every operation takes the arena that
// owns the slots.
type PriceLevel struct {
	Price    uint64
	totalVol uint64
	head     int32
	tail     int32
}

func NewPriceLevel(price uint64) *PriceLevel {
	return &PriceLevel{Price: price, head: noSlot, tail: noSlot}
}

// AddOrder inserts the order into the arena and links it at the tail.
func (l *PriceLevel) AddOrder(a *Arena, o Order) int32 {
	o.prev = noSlot
	o.next = noSlot
	slot := a.Insert(o)

	if l.tail == noSlot {
		l.head = slot
		l.tail = slot
	} else {
		a.Get(l.tail).next = slot
		a.Get(slot).prev = l.tail
		l.tail = slot
	}
	l.totalVol += uint64(o.Qty)
	return slot
}

// RemoveOldest unlinks and returns the head slot. The order stays in the
// arena: the caller either removes it (fully consumed) or reinserts it
// at the head after a partial fill.
func (l *PriceLevel) RemoveOldest(a *Arena) (int32, bool) {
	if l.head == noSlot {
		return noSlot, false
	}
	slot := l.head
	o := a.Get(slot)

	l.head = o.next
	if l.head != noSlot {
		a.Get(l.head).prev = noSlot
	}
	if l.tail == slot {
		l.tail = noSlot
	}
	l.totalVol -= uint64(o.Qty)

	o.prev = noSlot
	o.next = noSlot
	return slot, true
}

// InsertAtHead splices a partially consumed order back in as the head.
// It was the oldest order at this price when it was popped, so head
// insertion preserves time priority.
func (l *PriceLevel) InsertAtHead(a *Arena, slot int32) {
	o := a.Get(slot)
	if l.head == noSlot {
		o.prev = noSlot
		o.next = noSlot
		l.head = slot
		l.tail = slot
	} else {
		oldHead := l.head
		o.prev = noSlot
		o.next = oldHead
		a.Get(oldHead).prev = slot
		l.head = slot
	}
	l.totalVol += uint64(o.Qty)
}

// DeleteOrder splices the order out of the chain wherever it sits and
// frees its arena slot. Unknown ids are a no-op.
func (l *PriceLevel) DeleteOrder(a *Arena, orderID uint64) bool {
	slot, ok := a.Slot(orderID)
	if !ok {
		return false
	}
	o := a.Get(slot)
	qty := uint64(o.Qty)

	switch {
	case l.head == slot && l.tail == slot:
		l.head = noSlot
		l.tail = noSlot

	case l.head == slot:
		l.head = o.next
		if l.head != noSlot {
			a.Get(l.head).prev = noSlot
		}

	case l.tail == slot:
		l.tail = o.prev
		if l.tail != noSlot {
			a.Get(l.tail).next = noSlot
		}

	default:
		prev, next := o.prev, o.next
		a.Get(prev).next = next
		a.Get(next).prev = prev
	}

	l.totalVol -= qty
	a.Remove(orderID)
	return true
}

// Empty reports whether the FIFO chain holds no orders.
func (l *PriceLevel) Empty() bool {
	return l.head == noSlot && l.tail == noSlot
}

// TotalVol is the summed remaining quantity of all orders at this price.
func (l *PriceLevel) TotalVol() uint64 { return l.totalVol }

// Head returns the oldest order's slot.
func (l *PriceLevel) Head() (int32, bool) {
	if l.head == noSlot {
		return noSlot, false
	}
	return l.head, true
}
