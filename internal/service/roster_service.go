package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/script-select-api/internal/config"
	"github.com/script-select-api/internal/models"
	"github.com/script-select-api/internal/store"
)

// rosterService is the concrete implementation of RosterService
type rosterService struct {
	stores  *store.Stores
	gateway SyncGateway
	cfg     *config.Config
	clock   clockwork.Clock
	log     zerolog.Logger
	sync    SyncService
}

// newRosterService creates a new RosterService
func newRosterService(stores *store.Stores, gateway SyncGateway, cfg *config.Config, clock clockwork.Clock, log zerolog.Logger) *rosterService {
	return &rosterService{
		stores:  stores,
		gateway: gateway,
		cfg:     cfg,
		clock:   clock,
		log:     log.With().Str("service", "roster").Logger(),
	}
}

// SetSyncService wires the refresh used after user creation
func (s *rosterService) SetSyncService(sync SyncService) {
	s.sync = sync
}

// List returns the full roster
func (s *rosterService) List(ctx context.Context) []models.User {
	return s.stores.Roster.All()
}

// UpdatePool replaces a user's allow-list optimistically and dispatches the
// pool intent
func (s *rosterService) UpdatePool(ctx context.Context, userID string, pool []string) (*UserView, error) {
	if !s.gateway.CanWrite() {
		return nil, ErrReadOnly
	}

	user, ok := s.stores.Roster.Get(userID)
	if !ok {
		return nil, ErrUserNotFound
	}

	entries := make([]models.PoolEntry, 0, len(pool))
	for _, raw := range pool {
		for _, entry := range models.ParsePool(raw) {
			entries = append(entries, entry)
		}
	}

	s.stores.Roster.SetPool(user.ID, entries)
	user.ScriptPool = entries

	result := s.gateway.SavePool(ctx, user.ID, entries)
	if result.Err != nil {
		s.log.Warn().Err(result.Err).Str("user_id", user.ID).Msg("Pool dispatch failed")
	} else {
		s.log.Info().Str("user_id", user.ID).Int("pool_size", len(entries)).Msg("Pool updated")
	}

	return &UserView{User: user, Dispatch: newDispatchView(result)}, nil
}

// Create adds a stylist account optimistically, dispatches the create intent
// and schedules a roster re-sync so the sheet-assigned row replaces the
// optimistic one shortly after
func (s *rosterService) Create(ctx context.Context, input *UserInput) (*UserView, error) {
	if !s.gateway.CanWrite() {
		return nil, ErrReadOnly
	}
	if input.ID == "" || input.Name == "" {
		return nil, fmt.Errorf("%w: id and name are required", ErrInvalidInput)
	}

	quota := input.Quota
	if quota <= 0 {
		quota = s.cfg.Selection.DefaultQuota
	}

	user := models.User{
		ID:            input.ID,
		Name:          input.Name,
		Role:          models.RoleStylist,
		Quota:         quota,
		ContactPerson: input.ContactPerson,
		Instagram:     input.Instagram,
	}

	if err := s.stores.Roster.Add(user); err != nil {
		return nil, ErrUserExists
	}

	result := s.gateway.CreateUser(ctx, user)
	if result.Err != nil {
		s.log.Warn().Err(result.Err).Str("user_id", user.ID).Msg("User create dispatch failed")
	} else {
		s.log.Info().Str("user_id", user.ID).Int("quota", user.Quota).Msg("User created")
	}

	s.scheduleResync()

	return &UserView{User: user, Dispatch: newDispatchView(result)}, nil
}

// scheduleResync re-fetches the roster a few seconds after a create, giving
// the sheet time to apply the dispatched row
func (s *rosterService) scheduleResync() {
	if s.sync == nil {
		return
	}
	go func() {
		<-s.clock.After(3 * time.Second)
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Sources.FetchTimeout)
		defer cancel()
		if err := s.sync.Refresh(ctx); err != nil {
			s.log.Warn().Err(err).Msg("Post-create resync failed")
		}
	}()
}
