package moqt

import (
	"errors"
	"testing"
)

func TestPendingTableInstallAndResolve(t *testing.T) {
	t.Parallel()
	table := newPendingTable[uint64]()

	slot, ok := table.install(1)
	if !ok {
		t.Fatal("install should succeed for a fresh key")
	}

	if !table.resolve(1, "hello") {
		t.Fatal("resolve should find the installed slot")
	}

	select {
	case v := <-slot.ch:
		if v != "hello" {
			t.Fatalf("got %v, want hello", v)
		}
	default:
		t.Fatal("slot channel should have a value")
	}
}

func TestPendingTableInstallDuplicateRejected(t *testing.T) {
	t.Parallel()
	table := newPendingTable[uint64]()

	if _, ok := table.install(1); !ok {
		t.Fatal("first install should succeed")
	}
	if _, ok := table.install(1); ok {
		t.Fatal("second install for the same key should fail")
	}
}

func TestPendingTableResolveOrphanReturnsFalse(t *testing.T) {
	t.Parallel()
	table := newPendingTable[uint64]()
	if table.resolve(42, "nobody waiting") {
		t.Fatal("resolve on a key with no slot should return false")
	}
}

func TestPendingTableRemoveDropsWithoutResolving(t *testing.T) {
	t.Parallel()
	table := newPendingTable[string]()
	slot, _ := table.install("ns")
	table.remove("ns")

	if table.resolve("ns", "late") {
		t.Fatal("resolve after remove should find nothing")
	}
	select {
	case v := <-slot.ch:
		t.Fatalf("removed slot should never receive a value, got %v", v)
	default:
	}
}

func TestPendingTableCloseAllResolvesEveryPendingSlot(t *testing.T) {
	t.Parallel()
	table := newPendingTable[uint64]()
	s1, _ := table.install(1)
	s2, _ := table.install(2)

	closeErr := errors.New("session closed")
	table.closeAll(closeErr)

	for _, slot := range []*pendingSlot{s1, s2} {
		select {
		case v := <-slot.ch:
			if v != error(closeErr) {
				t.Fatalf("got %v, want %v", v, closeErr)
			}
		default:
			t.Fatal("slot should have been resolved by closeAll")
		}
	}

	// The table should be empty afterward; a fresh install for the same
	// key must succeed.
	if _, ok := table.install(1); !ok {
		t.Fatal("install after closeAll should succeed on an emptied table")
	}
}

func TestPendingSlotResolveDoesNotBlockOnSecondCall(t *testing.T) {
	t.Parallel()
	slot := newPendingSlot()
	slot.resolve("first")
	// The buffered channel is full; a second resolve must not block or panic.
	slot.resolve("second")

	v := <-slot.ch
	if v != "first" {
		t.Fatalf("got %v, want first (second resolve should have been dropped)", v)
	}
}
