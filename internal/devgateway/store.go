/*
Package devgateway is an in-memory stand-in for the Questify application server.

It implements the REST and streaming contract the client consumes so the client
can be run and integration-tested without the real backend. Nothing here
persists; every restart starts clean.

This file defines the in-memory account and quest store.
*/
package devgateway

import (
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"questify/internal/app/gateway"
	"questify/internal/pkg/errs"
)

// xpPerLevelStep sets the next-level threshold as level * xpPerLevelStep.
const xpPerLevelStep = 100

// Account is a registered adventurer with credentials and progress.
type Account struct {
	ID           int64
	Email        string
	PasswordHash []byte
	Profile      gateway.Profile
}

// MemoryStore holds all accounts and their quests behind one mutex.
type MemoryStore struct {
	mu          sync.Mutex
	byEmail     map[string]*Account
	byID        map[int64]*Account
	quests      map[int64][]*gateway.Quest
	nextAccount int64
	nextQuest   int64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byEmail: make(map[string]*Account),
		byID:    make(map[int64]*Account),
		quests:  make(map[int64][]*gateway.Quest),
	}
}

// CreateAccount registers a new adventurer and seeds their starter quests.
func (s *MemoryStore) CreateAccount(email, password, adventurerName string) (*Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errs.NewError(errs.ErrUnknown)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[email]; exists {
		return nil, errs.NewError(errs.ErrUserAlreadyExists)
	}

	s.nextAccount++
	account := &Account{
		ID:           s.nextAccount,
		Email:        email,
		PasswordHash: hash,
		Profile: gateway.Profile{
			ID:                  s.nextAccount,
			AdventurerName:      adventurerName,
			Level:               1,
			XP:                  0,
			XPForNextLevel:      xpPerLevelStep,
			LastInteractionMood: "neutral",
		},
	}
	s.byEmail[email] = account
	s.byID[account.ID] = account

	s.seedStarterQuests(account.ID)

	return account, nil
}

// seedStarterQuests gives a fresh account something to complete. Callers hold the lock.
func (s *MemoryStore) seedStarterQuests(accountID int64) {
	starters := []struct {
		title, description string
		xp                 int
	}{
		{"Cross the Threshold", "Sign in to Questify from your own machine.", 10},
		{"Hall of Voices", "Say hello in the guild chat.", 15},
		{"First Blood", "Complete any real-world task and mark it done.", 25},
	}

	for _, st := range starters {
		s.nextQuest++
		s.quests[accountID] = append(s.quests[accountID], &gateway.Quest{
			ID:          s.nextQuest,
			Title:       st.title,
			Description: st.description,
			XPValue:     st.xp,
			CreatedAt:   time.Now().UTC(),
		})
	}
}

// Authenticate verifies the credential pair and returns the account.
func (s *MemoryStore) Authenticate(email, password string) (*Account, error) {
	s.mu.Lock()
	account, ok := s.byEmail[email]
	s.mu.Unlock()

	if !ok {
		return nil, errs.NewError(errs.ErrInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password)); err != nil {
		return nil, errs.NewError(errs.ErrInvalidCredentials)
	}
	return account, nil
}

// AccountByEmail looks up an account by its registered email.
func (s *MemoryStore) AccountByEmail(email string) (*Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.byEmail[email]
	return account, ok
}

// ProfileFor returns a copy of the account's current profile.
func (s *MemoryStore) ProfileFor(accountID int64) (gateway.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.byID[accountID]
	if !ok {
		return gateway.Profile{}, false
	}
	return account.Profile, true
}

// QuestsFor returns copies of the account's quests in id order.
func (s *MemoryStore) QuestsFor(accountID int64) []gateway.Quest {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.quests[accountID]
	out := make([]gateway.Quest, 0, len(list))
	for _, q := range list {
		out = append(out, *q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CompleteQuest marks the quest complete and awards its XP. Completing an
// already-completed quest is a no-op, so repeated calls never double-count.
func (s *MemoryStore) CompleteQuest(accountID, questID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.byID[accountID]
	if !ok {
		return errs.NewError(errs.ErrUnauthorized)
	}

	for _, q := range s.quests[accountID] {
		if q.ID != questID {
			continue
		}
		if q.IsCompleted {
			return nil
		}

		now := time.Now().UTC()
		q.IsCompleted = true
		q.CompletedAt = &now

		account.Profile.XP += q.XPValue
		for account.Profile.XP >= account.Profile.XPForNextLevel {
			account.Profile.XP -= account.Profile.XPForNextLevel
			account.Profile.Level++
			account.Profile.XPForNextLevel = account.Profile.Level * xpPerLevelStep
		}
		return nil
	}

	return errs.NewError(errs.ErrQuestNotFound)
}
