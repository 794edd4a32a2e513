package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/script-select-api/internal/store"
)

// syncService is the concrete implementation of SyncService
type syncService struct {
	stores   *store.Stores
	gateway  SyncGateway
	sessions SessionService
	log      zerolog.Logger
}

// newSyncService creates a new SyncService
func newSyncService(stores *store.Stores, gateway SyncGateway, sessions SessionService, log zerolog.Logger) *syncService {
	return &syncService{
		stores:   stores,
		gateway:  gateway,
		sessions: sessions,
		log:      log.With().Str("service", "sync").Logger(),
	}
}

// Refresh replaces the catalog and roster wholesale from the external source.
// A fetch failure leaves the prior data untouched. Live sessions keep their
// working selections; only quota and pool are re-read into them.
func (s *syncService) Refresh(ctx context.Context) error {
	scripts, err := s.gateway.FetchScripts(ctx)
	if err != nil {
		return fmt.Errorf("refresh aborted: %w", err)
	}
	users, err := s.gateway.FetchUsers(ctx)
	if err != nil {
		return fmt.Errorf("refresh aborted: %w", err)
	}

	s.stores.Catalog.Replace(scripts)
	s.stores.Roster.Replace(users)
	s.sessions.RefreshFromRoster()

	s.log.Info().
		Int("scripts", len(scripts)).
		Int("users", len(users)).
		Msg("Catalog and roster refreshed")
	return nil
}
