package quests

import (
	"context"
	"testing"
	"time"

	"questify/internal/app/gateway"
	"questify/internal/pkg/errs"
)

// fakeService is an in-memory quest backend with gateway-style idempotent completion.
type fakeService struct {
	quests        map[int64]*gateway.Quest
	listErr       error
	completeErr   error
	listCalls     int
	completeCalls int
}

func newFakeService(quests ...gateway.Quest) *fakeService {
	f := &fakeService{quests: make(map[int64]*gateway.Quest)}
	for i := range quests {
		q := quests[i]
		f.quests[q.ID] = &q
	}
	return f
}

func (f *fakeService) ListQuests(ctx context.Context, token string) ([]gateway.Quest, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []gateway.Quest
	for _, q := range f.quests {
		out = append(out, *q)
	}
	return out, nil
}

func (f *fakeService) CompleteQuest(ctx context.Context, token string, questID int64) error {
	f.completeCalls++
	if f.completeErr != nil {
		return f.completeErr
	}
	q, ok := f.quests[questID]
	if !ok {
		return errs.NewError(errs.ErrQuestNotFound)
	}
	if !q.IsCompleted {
		now := time.Now()
		q.IsCompleted = true
		q.CompletedAt = &now
	}
	return nil
}

type staticToken struct{}

func (staticToken) Token() string { return "tok123" }

func TestRefreshReplacesCacheAndPartitions(t *testing.T) {
	svc := newFakeService(
		gateway.Quest{ID: 1, Title: "Active", XPValue: 10},
		gateway.Quest{ID: 2, Title: "Done", XPValue: 20, IsCompleted: true},
	)
	vm := New(svc, staticToken{})

	if err := vm.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if got := len(vm.Quests()); got != 2 {
		t.Fatalf("expected 2 cached quests, got %d", got)
	}
	active := vm.Active()
	if len(active) != 1 || active[0].ID != 1 {
		t.Fatalf("unexpected active set: %+v", active)
	}
	completed := vm.Completed()
	if len(completed) != 1 || completed[0].ID != 2 {
		t.Fatalf("unexpected completed set: %+v", completed)
	}
}

func TestRefreshFailureKeepsPriorCache(t *testing.T) {
	svc := newFakeService(gateway.Quest{ID: 1, Title: "Keep me", XPValue: 10})
	vm := New(svc, staticToken{})

	if err := vm.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	svc.listErr = errs.NewError(errs.ErrGatewayUnreachable)
	if err := vm.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh to fail")
	}

	if got := len(vm.Quests()); got != 1 {
		t.Fatalf("cache was not preserved: %d quests", got)
	}
}

func TestCompleteRefetchesInsteadOfMutatingLocally(t *testing.T) {
	svc := newFakeService(gateway.Quest{ID: 5, Title: "Quest five", XPValue: 25})
	vm := New(svc, staticToken{})

	if err := vm.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if err := vm.Complete(context.Background(), 5); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	quests := vm.Quests()
	if len(quests) != 1 {
		t.Fatalf("expected 1 quest, got %d", len(quests))
	}
	if !quests[0].IsCompleted {
		t.Fatal("expected quest 5 completed after re-fetch")
	}
	if quests[0].CompletedAt == nil {
		t.Fatal("expected a completion timestamp")
	}
	if svc.listCalls != 2 {
		t.Fatalf("expected completion to trigger a re-fetch, got %d list calls", svc.listCalls)
	}
}

func TestCompleteTwiceLeavesOneCompletedState(t *testing.T) {
	svc := newFakeService(gateway.Quest{ID: 5, Title: "Quest five", XPValue: 25})
	vm := New(svc, staticToken{})

	for i := 0; i < 2; i++ {
		if err := vm.Complete(context.Background(), 5); err != nil {
			t.Fatalf("Complete #%d: %v", i+1, err)
		}
	}

	completed := vm.Completed()
	if len(completed) != 1 {
		t.Fatalf("expected exactly one completed quest, got %d", len(completed))
	}
	if len(vm.Active()) != 0 {
		t.Fatal("expected no active quests")
	}
}

func TestCompleteFailureKeepsCacheUntouched(t *testing.T) {
	svc := newFakeService(gateway.Quest{ID: 5, Title: "Quest five", XPValue: 25})
	vm := New(svc, staticToken{})

	if err := vm.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	svc.completeErr = errs.NewError(errs.ErrGatewayUnreachable)
	if err := vm.Complete(context.Background(), 5); err == nil {
		t.Fatal("expected completion to fail")
	}

	quests := vm.Quests()
	if len(quests) != 1 || quests[0].IsCompleted {
		t.Fatalf("cache changed on failure: %+v", quests)
	}
}

func TestCompleteUnknownQuest(t *testing.T) {
	svc := newFakeService()
	vm := New(svc, staticToken{})

	err := vm.Complete(context.Background(), 99)
	if !errs.IsCode(err, errs.ErrQuestNotFound) {
		t.Fatalf("expected quest-not-found, got %v", err)
	}
}
