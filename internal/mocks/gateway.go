package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/script-select-api/internal/models"
	"github.com/script-select-api/internal/sheet"
)

// Dispatch records one write intent sent through the mock gateway
type Dispatch struct {
	Action    string
	UserID    string
	ScriptIDs []string
	Pool      []models.PoolEntry
	Start     time.Time
	Script    models.Script
	User      models.User
}

// MockGateway is a mock implementation of service.SyncGateway
type MockGateway struct {
	Scripts         []models.Script
	Users           []models.User
	FetchScriptsErr error
	FetchUsersErr   error
	Writable        bool
	DispatchErr     error
	Dispatches      []Dispatch
}

func NewMockGateway() *MockGateway {
	return &MockGateway{Writable: true}
}

func (m *MockGateway) FetchScripts(ctx context.Context) ([]models.Script, error) {
	if m.FetchScriptsErr != nil {
		return nil, m.FetchScriptsErr
	}
	return m.Scripts, nil
}

func (m *MockGateway) FetchUsers(ctx context.Context) ([]models.User, error) {
	if m.FetchUsersErr != nil {
		return nil, m.FetchUsersErr
	}
	return m.Users, nil
}

func (m *MockGateway) CanWrite() bool {
	return m.Writable
}

func (m *MockGateway) record(d Dispatch) sheet.DispatchResult {
	result := sheet.DispatchResult{ID: uuid.New(), Action: d.Action}
	if !m.Writable {
		result.Err = sheet.ErrReadOnly
		return result
	}
	m.Dispatches = append(m.Dispatches, d)
	if m.DispatchErr != nil {
		result.Err = m.DispatchErr
		return result
	}
	result.Status = sheet.StatusDispatched
	return result
}

// ActionsSent returns the actions of all recorded dispatches in order
func (m *MockGateway) ActionsSent() []string {
	actions := make([]string, 0, len(m.Dispatches))
	for _, d := range m.Dispatches {
		actions = append(actions, d.Action)
	}
	return actions
}

func (m *MockGateway) SaveSelection(ctx context.Context, userID string, scriptIDs []string) sheet.DispatchResult {
	return m.record(Dispatch{
		Action:    sheet.ActionUpdateUserPermissions,
		UserID:    userID,
		ScriptIDs: append([]string(nil), scriptIDs...),
	})
}

func (m *MockGateway) SavePool(ctx context.Context, userID string, pool []models.PoolEntry) sheet.DispatchResult {
	return m.record(Dispatch{
		Action: sheet.ActionUpdateUserPool,
		UserID: userID,
		Pool:   append([]models.PoolEntry(nil), pool...),
	})
}

func (m *MockGateway) StartTimer(ctx context.Context, userID string, start time.Time) sheet.DispatchResult {
	return m.record(Dispatch{
		Action: sheet.ActionStartUserTimer,
		UserID: userID,
		Start:  start,
	})
}

func (m *MockGateway) CreateScript(ctx context.Context, script models.Script) sheet.DispatchResult {
	return m.record(Dispatch{
		Action: sheet.ActionCreateScript,
		Script: script,
	})
}

func (m *MockGateway) UpdateScript(ctx context.Context, script models.Script) sheet.DispatchResult {
	return m.record(Dispatch{
		Action: sheet.ActionUpdateScript,
		Script: script,
	})
}

func (m *MockGateway) CreateUser(ctx context.Context, user models.User) sheet.DispatchResult {
	return m.record(Dispatch{
		Action: sheet.ActionCreateUser,
		UserID: user.ID,
		User:   user,
	})
}
