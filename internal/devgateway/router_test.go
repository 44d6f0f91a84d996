package devgateway

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"questify/internal/app/chat"
	"questify/internal/app/gateway"
	"questify/internal/app/quests"
	"questify/internal/app/session"
	"questify/internal/configs"
	"questify/internal/pkg/errs"
)

func startGateway(t *testing.T) *gateway.Client {
	t.Helper()

	cfg := &configs.AppConfig{
		Environment: "development",
		JWTSecret:   "test-secret",
	}

	router := Router(Deps{
		Store:  NewMemoryStore(),
		Hub:    NewHub(),
		Config: cfg,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return gateway.NewClient(srv.URL, 5*time.Second)
}

func TestRegisterLoginMeRoundTrip(t *testing.T) {
	gw := startGateway(t)
	ctx := context.Background()

	if err := gw.Register(ctx, "rin@example.com", "secret1", "Rin"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	token, err := gw.IssueToken(ctx, "rin@example.com", "secret1")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected a non-empty token")
	}

	profile, err := gw.Me(ctx, token)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if profile.AdventurerName != "Rin" || profile.Level != 1 || profile.XP != 0 {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestDuplicateRegistration(t *testing.T) {
	gw := startGateway(t)
	ctx := context.Background()

	if err := gw.Register(ctx, "rin@example.com", "secret1", "Rin"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err := gw.Register(ctx, "rin@example.com", "secret1", "Rin Again")
	if !errs.IsCode(err, errs.ErrUserAlreadyExists) {
		t.Fatalf("expected user-already-exists, got %v", err)
	}
}

func TestInvalidTokenIsRejected(t *testing.T) {
	gw := startGateway(t)

	_, err := gw.Me(context.Background(), "not-a-real-token")
	if !errs.IsCode(err, errs.ErrTokenRejected) {
		t.Fatalf("expected token-rejected, got %v", err)
	}
}

func TestQuestCompletionAwardsXPExactlyOnce(t *testing.T) {
	gw := startGateway(t)
	ctx := context.Background()

	if err := gw.Register(ctx, "rin@example.com", "secret1", "Rin"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, err := gw.IssueToken(ctx, "rin@example.com", "secret1")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	list, err := gw.ListQuests(ctx, token)
	if err != nil {
		t.Fatalf("ListQuests: %v", err)
	}
	if len(list) == 0 {
		t.Fatal("expected starter quests")
	}
	target := list[0]
	if target.IsCompleted || target.CompletedAt != nil {
		t.Fatalf("starter quest already completed: %+v", target)
	}

	for i := 0; i < 2; i++ {
		if err := gw.CompleteQuest(ctx, token, target.ID); err != nil {
			t.Fatalf("CompleteQuest #%d: %v", i+1, err)
		}
	}

	list, err = gw.ListQuests(ctx, token)
	if err != nil {
		t.Fatalf("ListQuests after completion: %v", err)
	}
	var completed int
	for _, q := range list {
		if q.ID != target.ID {
			continue
		}
		if !q.IsCompleted || q.CompletedAt == nil {
			t.Fatalf("quest not completed after round trip: %+v", q)
		}
		completed++
	}
	if completed != 1 {
		t.Fatalf("expected the quest to appear exactly once, got %d", completed)
	}

	profile, err := gw.Me(ctx, token)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if profile.XP != target.XPValue {
		t.Fatalf("expected XP awarded exactly once (%d), got %d", target.XPValue, profile.XP)
	}
}

func TestCompleteUnknownQuest(t *testing.T) {
	gw := startGateway(t)
	ctx := context.Background()

	if err := gw.Register(ctx, "rin@example.com", "secret1", "Rin"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, err := gw.IssueToken(ctx, "rin@example.com", "secret1")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	err = gw.CompleteQuest(ctx, token, 9999)
	if !errs.IsCode(err, errs.ErrQuestNotFound) {
		t.Fatalf("expected quest-not-found, got %v", err)
	}
}

func TestSessionRestoreAcrossRestarts(t *testing.T) {
	gw := startGateway(t)
	ctx := context.Background()

	keysPath := filepath.Join(t.TempDir(), "state.db")
	keys, err := session.NewSQLiteKeyStore(keysPath)
	if err != nil {
		t.Fatalf("NewSQLiteKeyStore: %v", err)
	}

	store := session.NewStore(gw, keys)
	store.Restore(ctx)
	if err := store.Register(ctx, "rin@example.com", "secret1", "Rin"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := keys.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// A new process reads the persisted token and re-derives the profile.
	keys, err = session.NewSQLiteKeyStore(keysPath)
	if err != nil {
		t.Fatalf("reopen keystore: %v", err)
	}
	defer keys.Close()

	restored := session.NewStore(gw, keys)
	restored.Restore(ctx)

	if restored.State() != session.StateAuthenticated {
		t.Fatalf("expected authenticated after restore, got %v", restored.State())
	}
	profile := restored.Profile()
	if profile == nil || profile.AdventurerName != "Rin" {
		t.Fatalf("unexpected restored profile: %+v", profile)
	}
}

func TestQuestViewModelAgainstGateway(t *testing.T) {
	gw := startGateway(t)
	ctx := context.Background()

	if err := gw.Register(ctx, "rin@example.com", "secret1", "Rin"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	token, err := gw.IssueToken(ctx, "rin@example.com", "secret1")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	vm := quests.New(gw, staticTokenSource(token))
	if err := vm.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	active := vm.Active()
	if len(active) == 0 {
		t.Fatal("expected active starter quests")
	}

	if err := vm.Complete(ctx, active[0].ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(vm.Completed()) != 1 {
		t.Fatalf("expected one completed quest, got %d", len(vm.Completed()))
	}
}

type staticTokenSource string

func (s staticTokenSource) Token() string { return string(s) }

func TestGuildChatBroadcastReachesAllClients(t *testing.T) {
	gw := startGateway(t)

	sender := chat.NewChannel("Rin")
	if err := sender.Connect(context.Background(), gw.ChatURL()); err != nil {
		t.Fatalf("sender Connect: %v", err)
	}
	defer sender.Close()

	receiver := chat.NewChannel("Kai")
	if err := receiver.Connect(context.Background(), gw.ChatURL()); err != nil {
		t.Fatalf("receiver Connect: %v", err)
	}
	defer receiver.Close()

	if err := sender.Send("rally at the gates"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	for _, c := range []*chat.Channel{sender, receiver} {
		deadline := time.Now().Add(2 * time.Second)
		for {
			msgs := c.Messages()
			if len(msgs) == 1 {
				if msgs[0].Author != "Rin" || msgs[0].Body != "rally at the gates" {
					t.Fatalf("unexpected message: %+v", msgs[0])
				}
				break
			}
			if time.Now().After(deadline) {
				t.Fatal("broadcast frame never arrived")
			}
			time.Sleep(5 * time.Millisecond)
		}
	}
}
