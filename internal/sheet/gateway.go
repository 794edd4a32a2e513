// Package sheet is the sync gateway to the external spreadsheet: published
// CSV tabs on the read path and an unconfirmed script endpoint on the write
// path.
package sheet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/script-select-api/internal/config"
	"github.com/script-select-api/internal/models"
)

// ErrReadOnly is returned for write intents when no write endpoint is configured
var ErrReadOnly = errors.New("no write endpoint configured")

// Gateway fetches the catalog and roster tables and posts write intents
type Gateway struct {
	cfg    *config.SourcesConfig
	client *http.Client
	clock  clockwork.Clock
	log    zerolog.Logger
}

// NewGateway creates a new Gateway
func NewGateway(cfg *config.SourcesConfig, clock clockwork.Clock, log zerolog.Logger) *Gateway {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Gateway{
		cfg: cfg,
		client: &http.Client{
			Timeout: timeout,
		},
		clock: clock,
		log:   log.With().Str("component", "sheet").Logger(),
	}
}

// CanWrite reports whether a write endpoint is configured
func (g *Gateway) CanWrite() bool {
	return !g.cfg.ReadOnly()
}

// FetchScripts downloads and parses the catalog table
func (g *Gateway) FetchScripts(ctx context.Context) ([]models.Script, error) {
	body, err := g.fetchCSV(ctx, g.cfg.ScriptsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	defer body.Close()

	scripts, err := ParseScripts(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	g.log.Debug().Int("count", len(scripts)).Msg("Catalog fetched")
	return scripts, nil
}

// FetchUsers downloads and parses the roster table
func (g *Gateway) FetchUsers(ctx context.Context) ([]models.User, error) {
	body, err := g.fetchCSV(ctx, g.cfg.UsersURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roster: %w", err)
	}
	defer body.Close()

	users, err := ParseUsers(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	g.log.Debug().Int("count", len(users)).Msg("Roster fetched")
	return users, nil
}

// fetchCSV issues a GET with a cache-busting timestamp so published sheets
// are not served stale
func (g *Gateway) fetchCSV(ctx context.Context, url string) (io.ReadCloser, error) {
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	url = fmt.Sprintf("%s%st=%d", url, sep, g.clock.Now().UnixMilli())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("source returned status code: %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// Write intent actions understood by the script endpoint
const (
	ActionUpdateUserPermissions = "update_user_permissions"
	ActionUpdateUserPool        = "update_user_pool"
	ActionStartUserTimer        = "start_user_timer"
	ActionCreateScript          = "create"
	ActionUpdateScript          = "update"
	ActionCreateUser            = "create_user"
)

// Status reports how much is known about a write intent after sending it
type Status string

const (
	// StatusDispatched: the request left without a transport error. The
	// endpoint never acknowledges, so this is the strongest outcome it
	// can produce.
	StatusDispatched Status = "dispatched"
	// StatusConfirmed: the external system acknowledged the write. Kept
	// distinct so callers never mistake "we sent it" for "it landed".
	StatusConfirmed Status = "confirmed"
)

// DispatchResult is the outcome of a single fire-and-forget write intent
type DispatchResult struct {
	ID     uuid.UUID `json:"id"`
	Action string    `json:"action"`
	Status Status    `json:"status,omitempty"`
	Err    error     `json:"-"`
}

// Dispatched reports whether the intent left without a transport error
func (r DispatchResult) Dispatched() bool {
	return r.Err == nil
}

// dispatch posts one JSON write intent. The response body is opaque and never
// inspected; only transport-level errors count as failures, and nothing is
// retried.
func (g *Gateway) dispatch(ctx context.Context, action string, payload map[string]any) DispatchResult {
	result := DispatchResult{ID: uuid.New(), Action: action}
	if !g.CanWrite() {
		result.Err = ErrReadOnly
		return result
	}

	payload["action"] = action
	body, err := json.Marshal(payload)
	if err != nil {
		result.Err = fmt.Errorf("failed to encode payload: %w", err)
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.WriteEndpoint, bytes.NewReader(body))
	if err != nil {
		result.Err = fmt.Errorf("failed to create request: %w", err)
		return result
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Warn().Err(err).
			Str("dispatch_id", result.ID.String()).
			Str("action", action).
			Msg("Write intent failed")
		result.Err = fmt.Errorf("failed to dispatch %s: %w", action, err)
		return result
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	result.Status = StatusDispatched
	g.log.Info().
		Str("dispatch_id", result.ID.String()).
		Str("action", action).
		Msg("Write intent dispatched")
	return result
}

// SaveSelection persists a user's full assigned set, never a delta
func (g *Gateway) SaveSelection(ctx context.Context, userID string, scriptIDs []string) DispatchResult {
	return g.dispatch(ctx, ActionUpdateUserPermissions, map[string]any{
		"id":              userID,
		"assignedScripts": strings.Join(scriptIDs, ","),
	})
}

// SavePool persists a user's allow-list
func (g *Gateway) SavePool(ctx context.Context, userID string, pool []models.PoolEntry) DispatchResult {
	return g.dispatch(ctx, ActionUpdateUserPool, map[string]any{
		"id":         userID,
		"scriptPool": models.JoinPool(pool),
	})
}

// StartTimer persists a user's selection window start instant
func (g *Gateway) StartTimer(ctx context.Context, userID string, start time.Time) DispatchResult {
	return g.dispatch(ctx, ActionStartUserTimer, map[string]any{
		"id":                 userID,
		"selectionStartTime": start.UnixMilli(),
	})
}

// CreateScript persists a new catalog item
func (g *Gateway) CreateScript(ctx context.Context, script models.Script) DispatchResult {
	return g.dispatch(ctx, ActionCreateScript, scriptPayload(script))
}

// UpdateScript persists edits to an existing catalog item
func (g *Gateway) UpdateScript(ctx context.Context, script models.Script) DispatchResult {
	return g.dispatch(ctx, ActionUpdateScript, scriptPayload(script))
}

func scriptPayload(script models.Script) map[string]any {
	payload := map[string]any{
		"id":                script.ID,
		"category":          script.Category,
		"title":             script.Title,
		"video_description": script.VideoDescription,
		"requirements":      script.Requirements,
		"material_link":     script.MaterialLink,
	}
	stageColumns := [4]string{"start", "develop", "twist", "end"}
	for i, col := range stageColumns {
		payload[col+"_points"] = script.Stages[i].Points
		payload[col+"_dialogue"] = script.Stages[i].Dialogue
	}
	return payload
}

// CreateUser persists a new roster account with an empty selection and pool
func (g *Gateway) CreateUser(ctx context.Context, user models.User) DispatchResult {
	return g.dispatch(ctx, ActionCreateUser, map[string]any{
		"id":              user.ID,
		"name":            user.Name,
		"role":            string(user.Role),
		"quota":           user.EffectiveQuota(),
		"contact_person":  user.ContactPerson,
		"instagram":       user.Instagram,
		"assignedScripts": "",
		"scriptPool":      "",
	})
}
