package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/script-select-api/internal/config"
	"github.com/script-select-api/internal/models"
	"github.com/script-select-api/internal/selection"
	"github.com/script-select-api/internal/store"
)

// session is one logged-in user's server-held state. The working selection
// lives only here until a save dispatches it.
type session struct {
	token   string
	user    models.User
	machine *selection.Machine
}

// sessionService is the concrete implementation of SessionService
type sessionService struct {
	stores  *store.Stores
	gateway SyncGateway
	cfg     *config.Config
	clock   clockwork.Clock
	log     zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*session
	rng      *rand.Rand
}

// newSessionService creates a new SessionService
func newSessionService(stores *store.Stores, gateway SyncGateway, cfg *config.Config, clock clockwork.Clock, log zerolog.Logger) *sessionService {
	return &sessionService{
		stores:   stores,
		gateway:  gateway,
		cfg:      cfg,
		clock:    clock,
		log:      log.With().Str("service", "session").Logger(),
		sessions: make(map[string]*session),
		rng:      rand.New(rand.NewSource(clock.Now().UnixNano())),
	}
}

// Login looks the identifier up in the roster (case-insensitive) and opens a
// session. The first eligible stylist session starts the selection timer and
// dispatches it for persistence.
func (s *sessionService) Login(ctx context.Context, loginID string) (*SessionView, error) {
	loginID = strings.TrimSpace(loginID)
	if loginID == "" {
		return nil, fmt.Errorf("%w: login id is required", ErrInvalidInput)
	}

	user, ok := s.stores.Roster.Get(loginID)
	if !ok {
		return nil, ErrUserNotFound
	}

	machine := selection.NewMachine(
		user.AssignedScripts,
		user.EffectiveQuota(),
		user.SelectionStartTime,
		s.cfg.Selection.Window,
	)

	now := s.clock.Now()
	if user.Role != models.RoleAdmin && s.gateway.CanWrite() && machine.ShouldStartTimer(now) {
		machine.StartTimer(now)
		s.stores.Roster.SetStartTime(user.ID, now)
		user.SelectionStartTime = &now

		result := s.gateway.StartTimer(ctx, user.ID, now)
		if result.Err != nil {
			// Optimistic: the local clock keeps running either way
			s.log.Warn().Err(result.Err).Str("user_id", user.ID).Msg("Timer dispatch failed")
		} else {
			s.log.Info().Str("user_id", user.ID).Time("start", now).Msg("Selection timer started")
		}
	}

	sess := &session{
		token:   uuid.New().String(),
		user:    user,
		machine: machine,
	}

	s.mu.Lock()
	s.sessions[sess.token] = sess
	s.mu.Unlock()

	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("User logged in")
	return s.view(sess), nil
}

// Get returns the current session snapshot, re-evaluating the window
func (s *sessionService) Get(ctx context.Context, token string) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.view(sess), nil
}

// Logout discards the session and any unsaved working selection
func (s *sessionService) Logout(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, token)
	s.log.Info().Str("user_id", sess.user.ID).Msg("User logged out")
	return nil
}

// Library returns the filtered candidate list. Unrestricted users get a fresh
// random sample on every call, so repeating the request is the reshuffle
// trigger.
func (s *sessionService) Library(ctx context.Context, token, category, term string) (*LibraryView, error) {
	catalog := s.stores.Catalog.All()

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}

	eligible := selection.Eligible(catalog, sess.user.ScriptPool)
	return &LibraryView{
		Scripts:    selection.Library(catalog, sess.user.ScriptPool, category, term, s.cfg.Selection.SampleSize, s.rng),
		Categories: selection.Categories(eligible),
	}, nil
}

// Selection returns the user's working selection as catalog items, in catalog
// order
func (s *sessionService) Selection(ctx context.Context, token string) ([]models.Script, error) {
	catalog := s.stores.Catalog.All()

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return selection.Assigned(catalog, sess.machine.Working()), nil
}

// Toggle adds or removes a script from the working selection
func (s *sessionService) Toggle(ctx context.Context, token, scriptID string) (*SessionView, error) {
	script, found := s.stores.Catalog.Get(scriptID)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !found {
		return nil, ErrScriptNotFound
	}
	if !sess.machine.Selected(script.ID) && !selection.PoolAllows(sess.user.ScriptPool, script) {
		return nil, ErrNotInPool
	}

	if err := sess.machine.Toggle(script.ID, s.clock.Now()); err != nil {
		return nil, err
	}
	return s.view(sess), nil
}

// Save validates the pending changes and either asks for confirmation or
// commits. A commit transmits the full working selection and updates local
// state immediately; a failed dispatch is reported but never rolled back.
func (s *sessionService) Save(ctx context.Context, token string, confirm bool) (*SaveView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !s.gateway.CanWrite() {
		return nil, ErrReadOnly
	}

	now := s.clock.Now()
	tier, err := sess.machine.PrepareSave(now)
	if err != nil {
		return nil, err
	}

	if !confirm {
		message := fmt.Sprintf("You have selected %d of %d scripts. You can come back and keep choosing after saving.",
			sess.machine.Count(), sess.machine.Quota())
		if tier == selection.SaveTierLock {
			message = fmt.Sprintf("All %d slots are filled. Confirming will lock the library and your selection cannot be changed.",
				sess.machine.Quota())
		}
		return &SaveView{RequiresConfirm: true, Tier: tier, Message: message}, nil
	}

	scriptIDs, err := sess.machine.CommitSave(now)
	if err != nil {
		return nil, err
	}
	s.stores.Roster.SetAssigned(sess.user.ID, scriptIDs)
	sess.user.AssignedScripts = scriptIDs

	result := s.gateway.SaveSelection(ctx, sess.user.ID, scriptIDs)
	if result.Err != nil {
		s.log.Warn().Err(result.Err).
			Str("user_id", sess.user.ID).
			Int("count", len(scriptIDs)).
			Msg("Selection dispatch failed, local state kept")
	} else {
		s.log.Info().
			Str("user_id", sess.user.ID).
			Int("count", len(scriptIDs)).
			Str("tier", string(tier)).
			Msg("Selection saved")
	}

	return &SaveView{
		Tier:     tier,
		Saved:    true,
		Selected: scriptIDs,
		Dispatch: newDispatchView(result),
	}, nil
}

// Role resolves a token to the account role, for route guards
func (s *sessionService) Role(token string) (models.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return "", ErrSessionNotFound
	}
	return sess.user.Role, nil
}

// RefreshFromRoster re-reads quota and pool into live sessions after a
// wholesale roster refresh. Working selections stay authoritative and are
// never replaced by refreshed data.
func (s *sessionService) RefreshFromRoster() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		user, ok := s.stores.Roster.Get(sess.user.ID)
		if !ok {
			continue
		}
		sess.user.Name = user.Name
		sess.user.Quota = user.Quota
		sess.user.ScriptPool = user.ScriptPool
		sess.machine.SetQuota(user.EffectiveQuota())
	}
}

// view must be called with the lock held or before the session is shared
func (s *sessionService) view(sess *session) *SessionView {
	now := s.clock.Now()
	window := sess.machine.Window(now)
	return &SessionView{
		Token:          sess.token,
		UserID:         sess.user.ID,
		Name:           sess.user.Name,
		Role:           sess.user.Role,
		State:          sess.machine.State(now),
		Locked:         sess.machine.Locked(now),
		Selected:       sess.machine.Working(),
		Count:          sess.machine.Count(),
		Quota:          sess.machine.Quota(),
		TimeLeftMs:     window.TimeLeft.Milliseconds(),
		Expired:        window.Expired,
		PendingChanges: sess.machine.HasPendingChanges(),
		ReadOnly:       !s.gateway.CanWrite(),
	}
}
