package delegation

import (
	"testing"
	"time"
)

func TestNewValidatesWindow(t *testing.T) {
	now := time.Now().UTC()
	if _, err := New("MANAGER", "user:dan", now.Add(time.Hour), now, TypeTemporary, "user:boss"); err != ErrInvalidWindow {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
	d, err := New("MANAGER", "user:dan", now, now.Add(time.Hour), "", "user:boss")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.DelegationType != TypeTemporary {
		t.Fatalf("expected TEMPORARY default, got %s", d.DelegationType)
	}
}

func TestActiveAtBoundaries(t *testing.T) {
	end := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	start := end.Add(-24 * time.Hour)
	d, _ := New("MANAGER", "user:dan", start, end, TypeTemporary, "user:boss")

	if !d.ActiveAt(end.Add(-time.Second)) {
		t.Fatal("expected authority one second before endDate")
	}
	if d.ActiveAt(end.Add(time.Second)) {
		t.Fatal("expected no authority one second after endDate")
	}
	if d.ActiveAt(start.Add(-time.Second)) {
		t.Fatal("expected no authority before startDate")
	}
}

func TestCoversAmountCap(t *testing.T) {
	maxAmt := 25000.0
	now := time.Now().UTC()
	d, _ := New("MANAGER", "user:dan", now.Add(-time.Hour), now.Add(time.Hour), TypeTemporary, "user:boss")
	d.MaxAmount = &maxAmt

	if !d.Covers(25000) {
		t.Fatal("expected cap amount itself to be covered")
	}
	if d.Covers(25000.01) {
		t.Fatal("expected amount above cap to be denied")
	}
	d.MaxAmount = nil
	if !d.Covers(9e9) {
		t.Fatal("expected nil cap to cover any amount")
	}
}

func TestGrants(t *testing.T) {
	now := time.Now().UTC()
	maxAmt := 25000.0
	d, _ := New("MANAGER", "user:dan", now.Add(-time.Hour), now.Add(time.Hour), TypeTemporary, "user:boss")
	d.MaxAmount = &maxAmt

	if !d.Grants("user:dan", "MANAGER", 20000, now) {
		t.Fatal("expected grant within window and cap")
	}
	if d.Grants("user:dan", "MANAGER", 83500, now) {
		t.Fatal("expected denial above amount cap")
	}
	if d.Grants("user:eve", "MANAGER", 20000, now) {
		t.Fatal("expected denial for other user")
	}
	if d.Grants("user:dan", "FINANCE_HEAD", 20000, now) {
		t.Fatal("expected denial for other role")
	}
}

func TestRevoke(t *testing.T) {
	now := time.Now().UTC()
	d, _ := New("MANAGER", "user:dan", now.Add(-time.Hour), now.Add(time.Hour), TypeTemporary, "user:boss")
	if err := d.Revoke(now); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if d.ActiveAt(now.Add(time.Minute)) {
		t.Fatal("expected revoked delegation inactive")
	}
	if err := d.Revoke(now); err != ErrAlreadyRevoked {
		t.Fatalf("expected ErrAlreadyRevoked, got %v", err)
	}
}
