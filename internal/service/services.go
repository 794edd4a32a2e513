package service

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/script-select-api/internal/config"
	"github.com/script-select-api/internal/models"
	"github.com/script-select-api/internal/sheet"
	"github.com/script-select-api/internal/store"
)

// Service-level sentinel errors, mapped to HTTP statuses by the API layer
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrScriptNotFound  = errors.New("script not found")
	ErrNotInPool       = errors.New("script is not in the user's pool")
	ErrUserExists      = errors.New("user already exists")
	ErrForbidden       = errors.New("admin session required")
	ErrInvalidInput    = errors.New("invalid input")
	ErrReadOnly        = sheet.ErrReadOnly
)

// SyncGateway defines the external sheet operations the services need
type SyncGateway interface {
	FetchScripts(ctx context.Context) ([]models.Script, error)
	FetchUsers(ctx context.Context) ([]models.User, error)
	CanWrite() bool
	SaveSelection(ctx context.Context, userID string, scriptIDs []string) sheet.DispatchResult
	SavePool(ctx context.Context, userID string, pool []models.PoolEntry) sheet.DispatchResult
	StartTimer(ctx context.Context, userID string, start time.Time) sheet.DispatchResult
	CreateScript(ctx context.Context, script models.Script) sheet.DispatchResult
	UpdateScript(ctx context.Context, script models.Script) sheet.DispatchResult
	CreateUser(ctx context.Context, user models.User) sheet.DispatchResult
}

// SessionService defines the interface for selection sessions
type SessionService interface {
	Login(ctx context.Context, loginID string) (*SessionView, error)
	Get(ctx context.Context, token string) (*SessionView, error)
	Logout(ctx context.Context, token string) error
	Library(ctx context.Context, token, category, term string) (*LibraryView, error)
	Selection(ctx context.Context, token string) ([]models.Script, error)
	Toggle(ctx context.Context, token, scriptID string) (*SessionView, error)
	Save(ctx context.Context, token string, confirm bool) (*SaveView, error)
	Role(token string) (models.Role, error)
	RefreshFromRoster()
}

// CatalogService defines the interface for catalog management
type CatalogService interface {
	List(ctx context.Context) []models.Script
	Get(ctx context.Context, id string) (models.Script, error)
	Create(ctx context.Context, input *ScriptInput) (*ScriptView, error)
	Update(ctx context.Context, id string, input *ScriptInput) (*ScriptView, error)
}

// RosterService defines the interface for roster management
type RosterService interface {
	List(ctx context.Context) []models.User
	UpdatePool(ctx context.Context, userID string, pool []string) (*UserView, error)
	Create(ctx context.Context, input *UserInput) (*UserView, error)
}

// SyncService defines the interface for wholesale catalog/roster refresh
type SyncService interface {
	Refresh(ctx context.Context) error
}

// Services holds all service interfaces
type Services struct {
	Session SessionService
	Catalog CatalogService
	Roster  RosterService
	Sync    SyncService
}

// NewServices creates all services
func NewServices(stores *store.Stores, gateway SyncGateway, cfg *config.Config, clock clockwork.Clock, log zerolog.Logger) *Services {
	sessionSvc := newSessionService(stores, gateway, cfg, clock, log)
	catalogSvc := newCatalogService(stores, gateway, log)
	rosterSvc := newRosterService(stores, gateway, cfg, clock, log)
	syncSvc := newSyncService(stores, gateway, sessionSvc, log)

	// Wire the delayed roster re-sync that follows user creation
	rosterSvc.SetSyncService(syncSvc)

	return &Services{
		Session: sessionSvc,
		Catalog: catalogSvc,
		Roster:  rosterSvc,
		Sync:    syncSvc,
	}
}
