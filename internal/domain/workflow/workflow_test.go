package workflow

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/approval-hub/approval-hub/internal/domain/invoice"
	"github.com/approval-hub/approval-hub/internal/domain/rule"
)

func twoLevelRule() *rule.Rule {
	hours := 48
	esc := "CFO"
	r := rule.NewRule("two-step", 50000, 2, []string{"MANAGER", "FINANCE_HEAD"})
	r.ApprovalTimeoutHours = &hours
	r.EscalateToRole = &esc
	return r
}

func snapshot() invoice.Snapshot {
	return invoice.Snapshot{
		InvoiceID:          uuid.New(),
		OwnerID:            "acct-1",
		Amount:             83500,
		Currency:           "INR",
		BaseCurrencyAmount: 83500,
		InvoiceType:        invoice.TypePurchase,
	}
}

func TestNewWorkflowSnapshotsRule(t *testing.T) {
	now := time.Now().UTC()
	w := New(snapshot(), twoLevelRule(), "user:alice", now)

	if w.Status != StatusPending {
		t.Fatalf("expected PENDING, got %s", w.Status)
	}
	if w.CurrentLevel != 1 || w.RequiredLevel != 2 {
		t.Fatalf("expected level 1/2, got %d/%d", w.CurrentLevel, w.RequiredLevel)
	}
	if w.CurrentRole() != "MANAGER" {
		t.Fatalf("expected MANAGER at level 1, got %s", w.CurrentRole())
	}
	if w.DueDate == nil {
		t.Fatal("expected dueDate from timeout hours")
	}
	if got, want := *w.DueDate, now.Add(48*time.Hour); !got.Equal(want) {
		t.Fatalf("dueDate = %v, want %v", got, want)
	}
	if w.EscalateToRole == nil || *w.EscalateToRole != "CFO" {
		t.Fatal("expected escalation role snapshot")
	}
}

func TestSequentialApproveAdvancesThenCompletes(t *testing.T) {
	now := time.Now().UTC()
	w := New(snapshot(), twoLevelRule(), "user:alice", now)

	done, err := w.ApplyApprove(now)
	if err != nil {
		t.Fatalf("level 1 approve: %v", err)
	}
	if done || w.Status != StatusPending || w.CurrentLevel != 2 {
		t.Fatalf("expected PENDING at level 2, got %s level %d", w.Status, w.CurrentLevel)
	}
	if w.CurrentRole() != "FINANCE_HEAD" {
		t.Fatalf("expected FINANCE_HEAD at level 2, got %s", w.CurrentRole())
	}

	done, err = w.ApplyApprove(now)
	if err != nil {
		t.Fatalf("level 2 approve: %v", err)
	}
	if !done || w.Status != StatusApproved {
		t.Fatalf("expected APPROVED, got %s", w.Status)
	}
	if w.FinalDecision == nil || *w.FinalDecision != DecisionApprove {
		t.Fatal("expected finalDecision APPROVED")
	}
	if w.CompletedAt == nil {
		t.Fatal("expected completedAt set")
	}
}

func TestRejectIsTerminalImmediately(t *testing.T) {
	now := time.Now().UTC()
	w := New(snapshot(), twoLevelRule(), "user:alice", now)

	if err := w.ApplyReject(now); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if w.Status != StatusRejected || w.CompletedAt == nil {
		t.Fatalf("expected terminal REJECTED, got %s", w.Status)
	}
	if _, err := w.ApplyApprove(now); err != ErrInvalidState {
		t.Fatalf("expected ErrInvalidState after rejection, got %v", err)
	}
	if err := w.ApplyReject(now); err != ErrInvalidState {
		t.Fatalf("expected ErrInvalidState on double reject, got %v", err)
	}
}

func TestParallelApproveCompletesOnAllRoles(t *testing.T) {
	now := time.Now().UTC()
	r := rule.NewRule("parallel", 0, 1, []string{"MANAGER", "FINANCE_HEAD"})
	r.ParallelApproval = true
	w := New(snapshot(), r, "user:alice", now)

	done, err := w.ApplyParallelApprove(1, now)
	if err != nil || done {
		t.Fatalf("expected still pending after first role, done=%v err=%v", done, err)
	}
	done, err = w.ApplyParallelApprove(2, now)
	if err != nil || !done {
		t.Fatalf("expected completion with all roles, done=%v err=%v", done, err)
	}
	if w.Status != StatusApproved {
		t.Fatalf("expected APPROVED, got %s", w.Status)
	}
}

func TestEscalationIsTerminal(t *testing.T) {
	now := time.Now().UTC()
	w := New(snapshot(), twoLevelRule(), "user:alice", now)

	if w.IsOverdue(now) {
		t.Fatal("fresh workflow must not be overdue")
	}
	past := now.Add(-time.Hour)
	w.DueDate = &past
	if !w.IsOverdue(now) {
		t.Fatal("expected overdue workflow")
	}

	if err := w.ApplyEscalation(now); err != nil {
		t.Fatalf("escalate: %v", err)
	}
	if w.Status != StatusEscalated {
		t.Fatalf("expected ESCALATED, got %s", w.Status)
	}
	if w.EscalatedAt == nil || w.EscalatedTo == nil || *w.EscalatedTo != "CFO" {
		t.Fatal("expected escalation fields set from rule snapshot")
	}
	if w.CompletedAt == nil {
		t.Fatal("expected completedAt on terminal status")
	}
	if w.FinalDecision != nil {
		t.Fatal("escalation must not set a final decision")
	}
	if _, err := w.ApplyApprove(now); err != ErrInvalidState {
		t.Fatalf("expected ErrInvalidState after escalation, got %v", err)
	}
}

func TestLevelNeverExceedsRequired(t *testing.T) {
	now := time.Now().UTC()
	w := New(snapshot(), twoLevelRule(), "user:alice", now)
	levels := []int{w.CurrentLevel}
	for i := 0; i < 2; i++ {
		_, _ = w.ApplyApprove(now)
		levels = append(levels, w.CurrentLevel)
	}
	prev := 0
	for _, l := range levels {
		if l < prev {
			t.Fatalf("level decreased: %v", levels)
		}
		if l > w.RequiredLevel {
			t.Fatalf("level %d exceeds requiredLevel %d", l, w.RequiredLevel)
		}
		prev = l
	}
}

func TestStatusEventFor(t *testing.T) {
	now := time.Now().UTC()
	w := New(snapshot(), twoLevelRule(), "user:alice", now)
	_ = w.ApplyReject(now)
	ev := w.StatusEventFor()
	if ev.InvoiceID != w.InvoiceID {
		t.Fatal("expected invoice id on status event")
	}
	if ev.WorkflowStatus != StatusRejected || ev.FinalDecision == nil || *ev.FinalDecision != DecisionReject {
		t.Fatalf("unexpected status event: %+v", ev)
	}
}
