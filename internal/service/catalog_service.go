package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/script-select-api/internal/models"
	"github.com/script-select-api/internal/store"
)

// catalogService is the concrete implementation of CatalogService
type catalogService struct {
	stores  *store.Stores
	gateway SyncGateway
	log     zerolog.Logger
}

// newCatalogService creates a new CatalogService
func newCatalogService(stores *store.Stores, gateway SyncGateway, log zerolog.Logger) *catalogService {
	return &catalogService{
		stores:  stores,
		gateway: gateway,
		log:     log.With().Str("service", "catalog").Logger(),
	}
}

// List returns the full catalog in sheet order
func (s *catalogService) List(ctx context.Context) []models.Script {
	return s.stores.Catalog.All()
}

// Get returns one script by identifier
func (s *catalogService) Get(ctx context.Context, id string) (models.Script, error) {
	script, ok := s.stores.Catalog.Get(id)
	if !ok {
		return models.Script{}, ErrScriptNotFound
	}
	return script, nil
}

// Create generates an identifier from the category code, stores the script
// optimistically and dispatches the create intent
func (s *catalogService) Create(ctx context.Context, input *ScriptInput) (*ScriptView, error) {
	if !s.gateway.CanWrite() {
		return nil, ErrReadOnly
	}
	if input.Category == "" || input.Title == "" {
		return nil, fmt.Errorf("%w: category and title are required", ErrInvalidInput)
	}

	script := scriptFromInput(input)
	script.ID = models.NextScriptID(input.Category, s.stores.Catalog.All())
	script.Category = input.Category

	// Optimistic: the count-based id generator must see this script before
	// the next sheet refresh lands
	s.stores.Catalog.Upsert(script)

	result := s.gateway.CreateScript(ctx, script)
	if result.Err != nil {
		s.log.Warn().Err(result.Err).Str("script_id", script.ID).Msg("Script create dispatch failed")
	} else {
		s.log.Info().Str("script_id", script.ID).Str("category", script.Category).Msg("Script created")
	}

	return &ScriptView{Script: script, Dispatch: newDispatchView(result)}, nil
}

// Update edits an existing script. Identifier and category are immutable.
func (s *catalogService) Update(ctx context.Context, id string, input *ScriptInput) (*ScriptView, error) {
	if !s.gateway.CanWrite() {
		return nil, ErrReadOnly
	}
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	existing, ok := s.stores.Catalog.Get(id)
	if !ok {
		return nil, ErrScriptNotFound
	}

	script := scriptFromInput(input)
	script.ID = existing.ID
	script.Category = existing.Category
	script.ProjectNote = existing.ProjectNote

	s.stores.Catalog.Upsert(script)

	result := s.gateway.UpdateScript(ctx, script)
	if result.Err != nil {
		s.log.Warn().Err(result.Err).Str("script_id", script.ID).Msg("Script update dispatch failed")
	} else {
		s.log.Info().Str("script_id", script.ID).Msg("Script updated")
	}

	return &ScriptView{Script: script, Dispatch: newDispatchView(result)}, nil
}

func scriptFromInput(input *ScriptInput) models.Script {
	script := models.Script{
		Title:            input.Title,
		VideoDescription: input.VideoDescription,
		Requirements:     input.Requirements,
		MaterialLink:     input.MaterialLink,
	}
	for i := range input.Stages {
		script.Stages[i] = models.Stage{
			Name:     models.StageNames[i],
			Points:   input.Stages[i].Points,
			Dialogue: input.Stages[i].Dialogue,
		}
	}
	return script
}
