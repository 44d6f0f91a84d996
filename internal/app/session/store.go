/*
Package session owns the authenticated identity and its lifecycle.

This file defines the Store, the single mutation point for session state. All
other components read the token and profile through its accessors and never
mutate them directly. The Store mediates every call to the credential gateway.
*/
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"questify/internal/app/gateway"
	"questify/internal/pkg/errs"
	"questify/internal/pkg/logx"
)

// State is the session store's lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateRestoring
	StateUnauthenticated
	StateAuthenticating
	StateAuthenticated
	StateAuthFailed
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRestoring:
		return "restoring"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateAuthFailed:
		return "auth_failed"
	default:
		return "invalid"
	}
}

// Gateway is the slice of the credential gateway the Store depends on.
type Gateway interface {
	IssueToken(ctx context.Context, identifier, secret string) (string, error)
	Register(ctx context.Context, email, secret, adventurerName string) error
	Me(ctx context.Context, token string) (*gateway.Profile, error)
}

// ProfileUpdate carries the fields of a local profile merge. Nil fields are
// left untouched. Merges never reach the network; the gateway remains the
// authority on the next lookup.
type ProfileUpdate struct {
	AdventurerName      *string
	Level               *int
	XP                  *int
	XPForNextLevel      *int
	LastInteractionMood *string
}

// Store is the session state machine.
//
// Invariant: token is non-empty iff the state is StateAuthenticated, and the
// profile is populated iff the token is. No partial session is ever observable.
type Store struct {
	mu sync.Mutex

	state    snapshot
	inFlight bool
	restored bool

	gw     Gateway
	keys   KeyStore
	logger zerolog.Logger
}

// snapshot groups the fields that must change together under the lock.
type snapshot struct {
	current State
	token   string
	profile *gateway.Profile
}

// NewStore constructs a Store in the Uninitialized state.
// Restore must be called once before any other operation.
func NewStore(gw Gateway, keys KeyStore) *Store {
	return &Store{
		state:  snapshot{current: StateUninitialized},
		gw:     gw,
		keys:   keys,
		logger: logx.Logger().With().Str("component", "session").Logger(),
	}
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.current
}

// IsAuthenticated reports whether a full session (token and profile) is held.
func (s *Store) IsAuthenticated() bool {
	return s.State() == StateAuthenticated
}

// Token returns the bearer token, or "" when unauthenticated. Callers treat
// the token as read-only; it changes only through Store transitions.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.token
}

// Profile returns a copy of the authenticated profile, or nil.
func (s *Store) Profile() *gateway.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.profile == nil {
		return nil
	}
	copied := *s.state.profile
	return &copied
}

// Restore runs once at startup. It reads any persisted token, validates it via
// the identity lookup, and lands in Authenticated or Unauthenticated. A token
// the gateway no longer accepts is discarded from durable storage; there is no
// retry loop.
func (s *Store) Restore(ctx context.Context) {
	s.mu.Lock()
	if s.restored {
		s.mu.Unlock()
		return
	}
	s.restored = true
	s.state.current = StateRestoring
	s.mu.Unlock()

	token, err := s.keys.LoadToken(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Reading persisted token failed")
	}
	if token == "" {
		s.settle(StateUnauthenticated, "", nil)
		return
	}

	profile, err := s.gw.Me(ctx, token)
	if err != nil {
		s.logger.Info().Err(err).Msg("Persisted token was not accepted, discarding it")
		if clearErr := s.keys.ClearToken(ctx); clearErr != nil {
			s.logger.Error().Err(clearErr).Msg("Clearing persisted token failed")
		}
		s.settle(StateUnauthenticated, "", nil)
		return
	}

	s.settle(StateAuthenticated, token, profile)
	s.logger.Info().Str("adventurer", profile.AdventurerName).Msg("Session restored")
}

// Login exchanges credentials for a token, performs the identity lookup, and
// commits the full session. Either both calls succeed or the store returns to
// Unauthenticated. Only one authentication attempt may run at a time.
func (s *Store) Login(ctx context.Context, identifier, secret string) error {
	if err := s.beginAuth(); err != nil {
		return err
	}

	token, profile, err := s.authenticate(ctx, identifier, secret)
	if err != nil {
		s.failAuth(err)
		return err
	}

	s.commitAuth(ctx, token, profile)
	return nil
}

// Register creates the account and then logs in under the hood. If registration
// succeeds but the follow-up login fails, the account already exists
// server-side; the reported error says so and the store stays Unauthenticated.
func (s *Store) Register(ctx context.Context, email, secret, adventurerName string) error {
	if err := s.beginAuth(); err != nil {
		return err
	}

	if err := s.gw.Register(ctx, email, secret, adventurerName); err != nil {
		s.failAuth(err)
		return err
	}

	token, profile, err := s.authenticate(ctx, email, secret)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Account created but automatic login failed")
		s.failAuth(err)
		return errs.NewError(errs.ErrPartialRegistration)
	}

	s.commitAuth(ctx, token, profile)
	return nil
}

// Logout clears the token, the profile, and durable storage synchronously.
// It requires no network call and always succeeds.
func (s *Store) Logout(ctx context.Context) {
	s.settle(StateUnauthenticated, "", nil)

	if err := s.keys.ClearToken(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Clearing persisted token on logout failed")
	}

	s.logger.Info().Msg("Logged out")
}

// UpdateProfile merges the given fields into the held profile. Local only; a
// no-op when unauthenticated.
func (s *Store) UpdateProfile(update ProfileUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.current != StateAuthenticated || s.state.profile == nil {
		return
	}

	if update.AdventurerName != nil {
		s.state.profile.AdventurerName = *update.AdventurerName
	}
	if update.Level != nil {
		s.state.profile.Level = *update.Level
	}
	if update.XP != nil {
		s.state.profile.XP = *update.XP
	}
	if update.XPForNextLevel != nil {
		s.state.profile.XPForNextLevel = *update.XPForNextLevel
	}
	if update.LastInteractionMood != nil {
		s.state.profile.LastInteractionMood = *update.LastInteractionMood
	}
}

// beginAuth claims the single in-flight authentication slot.
func (s *Store) beginAuth() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight {
		return errs.NewError(errs.ErrAuthInFlight)
	}

	s.inFlight = true
	s.state.current = StateAuthenticating
	return nil
}

// authenticate runs the token issuance and identity lookup pair. It mutates
// nothing; the caller commits or fails the attempt.
func (s *Store) authenticate(ctx context.Context, identifier, secret string) (string, *gateway.Profile, error) {
	token, err := s.gw.IssueToken(ctx, identifier, secret)
	if err != nil {
		return "", nil, err
	}

	profile, err := s.gw.Me(ctx, token)
	if err != nil {
		return "", nil, err
	}

	return token, profile, nil
}

// commitAuth installs the full session and persists the token.
func (s *Store) commitAuth(ctx context.Context, token string, profile *gateway.Profile) {
	if err := s.keys.SaveToken(ctx, token); err != nil {
		// The in-memory session is still valid; it just will not survive a restart.
		s.logger.Error().Err(err).Msg("Persisting token failed")
	}

	s.mu.Lock()
	s.state = snapshot{current: StateAuthenticated, token: token, profile: profile}
	s.inFlight = false
	s.mu.Unlock()

	s.logger.Info().Str("adventurer", profile.AdventurerName).Msg("Authenticated")
}

// failAuth surfaces the failure and returns the store to Unauthenticated.
func (s *Store) failAuth(err error) {
	s.mu.Lock()
	s.state = snapshot{current: StateAuthFailed}
	s.logger.Warn().Err(err).Str("state", s.state.current.String()).Msg("Authentication attempt failed")
	s.state.current = StateUnauthenticated
	s.inFlight = false
	s.mu.Unlock()
}

// settle replaces the whole session state outside an auth attempt.
func (s *Store) settle(current State, token string, profile *gateway.Profile) {
	s.mu.Lock()
	s.state = snapshot{current: current, token: token, profile: profile}
	s.mu.Unlock()
}
