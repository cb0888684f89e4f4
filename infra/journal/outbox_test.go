package journal

import (
	"testing"
)

func openTestOutbox(t *testing.T) *Outbox {
	t.Helper()
	o, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open outbox: %v", err)
	}
	t.Cleanup(func() { o.Close() })
	return o
}

func TestAppendAndGet(t *testing.T) {
	o := openTestOutbox(t)

	if err := o.Append(1, []byte("payload-1")); err != nil {
		t.Fatalf("append: %v", err)
	}
	rec, err := o.Get(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.State != StateNew {
		t.Errorf("expected NEW, got %s", rec.State)
	}
	if string(rec.Payload) != "payload-1" {
		t.Errorf("payload mismatch: %q", rec.Payload)
	}
}

func TestUpdateStateKeepsPayload(t *testing.T) {
	o := openTestOutbox(t)

	if err := o.Append(7, []byte("evt")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := o.UpdateState(7, StateSent, 1); err != nil {
		t.Fatalf("update: %v", err)
	}
	rec, err := o.Get(7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.State != StateSent || rec.Retries != 1 {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.LastAttempt == 0 {
		t.Error("expected last attempt timestamp")
	}
	if string(rec.Payload) != "evt" {
		t.Errorf("payload lost on update: %q", rec.Payload)
	}
}

func TestScanByStateOrdered(t *testing.T) {
	o := openTestOutbox(t)

	for id := uint64(1); id <= 5; id++ {
		if err := o.Append(id, []byte{byte(id)}); err != nil {
			t.Fatalf("append %d: %v", id, err)
		}
	}
	if err := o.UpdateState(2, StateSent, 1); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := o.UpdateState(4, StateAcked, 1); err != nil {
		t.Fatalf("update: %v", err)
	}

	var got []uint64
	err := o.ScanByState(StateNew, func(id uint64, rec Record) error {
		got = append(got, id)
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	want := []uint64{1, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestDelete(t *testing.T) {
	o := openTestOutbox(t)

	if err := o.Append(3, nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := o.Delete(3); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := o.Get(3); err == nil {
		t.Error("expected get after delete to fail")
	}
}
