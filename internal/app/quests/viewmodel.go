/*
Package quests reconciles server-reported quest/XP state with the local cache.

The cache is refreshed only by full re-fetch. Completion deliberately triggers a
re-fetch instead of a local mutation, trading one extra round trip for a cache
that always mirrors server state. There is no optimistic update path; do not add
one without also adding reconciliation and rollback.
*/
package quests

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"questify/internal/app/gateway"
	"questify/internal/pkg/logx"
)

// Service is the slice of the gateway the view-model depends on.
type Service interface {
	ListQuests(ctx context.Context, token string) ([]gateway.Quest, error)
	CompleteQuest(ctx context.Context, token string, questID int64) error
}

// TokenSource supplies the current bearer token. The session store satisfies
// it; the token is read-only from this package's perspective.
type TokenSource interface {
	Token() string
}

// ViewModel caches the quest list and drives completion requests.
type ViewModel struct {
	mu         sync.Mutex
	cache      []gateway.Quest
	completing map[int64]bool

	svc    Service
	tokens TokenSource
	logger zerolog.Logger
}

// New constructs a ViewModel with an empty cache.
func New(svc Service, tokens TokenSource) *ViewModel {
	return &ViewModel{
		completing: make(map[int64]bool),
		svc:        svc,
		tokens:     tokens,
		logger:     logx.Logger().With().Str("component", "quests").Logger(),
	}
}

// Refresh replaces the cache wholesale with the gateway's quest sequence.
// On failure the prior cache is left untouched, stale but consistent.
func (vm *ViewModel) Refresh(ctx context.Context) error {
	fetched, err := vm.svc.ListQuests(ctx, vm.tokens.Token())
	if err != nil {
		vm.logger.Warn().Err(err).Msg("Quest fetch failed, keeping cached list")
		return err
	}

	vm.mu.Lock()
	vm.cache = fetched
	vm.mu.Unlock()

	vm.logger.Debug().Int("count", len(fetched)).Msg("Quest cache replaced")
	return nil
}

// Complete issues the completion request for questID and, on success,
// re-fetches the full list so the cache mirrors server state. The displayed
// completion status only flips once the re-fetch resolves. A second Complete
// for the same quest while one is in flight is ignored.
func (vm *ViewModel) Complete(ctx context.Context, questID int64) error {
	vm.mu.Lock()
	if vm.completing[questID] {
		vm.mu.Unlock()
		return nil
	}
	vm.completing[questID] = true
	vm.mu.Unlock()

	defer func() {
		vm.mu.Lock()
		delete(vm.completing, questID)
		vm.mu.Unlock()
	}()

	if err := vm.svc.CompleteQuest(ctx, vm.tokens.Token(), questID); err != nil {
		vm.logger.Warn().Err(err).Int64("quest_id", questID).Msg("Quest completion failed")
		return err
	}

	return vm.Refresh(ctx)
}

// IsCompleting reports whether a completion request for questID is in flight.
func (vm *ViewModel) IsCompleting(questID int64) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.completing[questID]
}

// Quests returns a copy of the cached quest sequence in fetch order.
func (vm *ViewModel) Quests() []gateway.Quest {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	out := make([]gateway.Quest, len(vm.cache))
	copy(out, vm.cache)
	return out
}

// Active returns the cached quests not yet completed.
func (vm *ViewModel) Active() []gateway.Quest {
	return vm.filter(false)
}

// Completed returns the cached quests already completed.
func (vm *ViewModel) Completed() []gateway.Quest {
	return vm.filter(true)
}

func (vm *ViewModel) filter(completed bool) []gateway.Quest {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	var out []gateway.Quest
	for _, q := range vm.cache {
		if q.IsCompleted == completed {
			out = append(out, q)
		}
	}
	return out
}
