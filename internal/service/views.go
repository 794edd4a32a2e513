package service

import (
	"github.com/script-select-api/internal/models"
	"github.com/script-select-api/internal/selection"
	"github.com/script-select-api/internal/sheet"
)

// SessionView is the API snapshot of one selection session
type SessionView struct {
	Token          string          `json:"token"`
	UserID         string          `json:"user_id"`
	Name           string          `json:"name"`
	Role           models.Role     `json:"role"`
	State          selection.State `json:"state"`
	Locked         bool            `json:"locked"`
	Selected       []string        `json:"selected"`
	Count          int             `json:"count"`
	Quota          int             `json:"quota"`
	TimeLeftMs     int64           `json:"time_left_ms"`
	Expired        bool            `json:"expired"`
	PendingChanges bool            `json:"pending_changes"`
	ReadOnly       bool            `json:"read_only"`
}

// LibraryView is the filtered library listing plus its category domain
type LibraryView struct {
	Scripts    []models.Script `json:"scripts"`
	Categories []string        `json:"categories"`
}

// DispatchView reports a write intent's outcome to API clients
type DispatchView struct {
	ID     string       `json:"id"`
	Action string       `json:"action"`
	Status sheet.Status `json:"status,omitempty"`
	Error  string       `json:"error,omitempty"`
}

func newDispatchView(result sheet.DispatchResult) *DispatchView {
	view := &DispatchView{
		ID:     result.ID.String(),
		Action: result.Action,
		Status: result.Status,
	}
	if result.Err != nil {
		view.Error = result.Err.Error()
	}
	return view
}

// SaveView is the outcome of a save attempt. When RequiresConfirm is set the
// caller must repeat the request with confirm=true after presenting Message.
type SaveView struct {
	RequiresConfirm bool               `json:"requires_confirm"`
	Tier            selection.SaveTier `json:"tier"`
	Message         string             `json:"message,omitempty"`
	Saved           bool               `json:"saved"`
	Selected        []string           `json:"selected,omitempty"`
	Dispatch        *DispatchView      `json:"dispatch,omitempty"`
}

// ScriptView is the outcome of a catalog create or update
type ScriptView struct {
	Script   models.Script `json:"script"`
	Dispatch *DispatchView `json:"dispatch,omitempty"`
}

// UserView is the outcome of a roster create or pool update
type UserView struct {
	User     models.User   `json:"user"`
	Dispatch *DispatchView `json:"dispatch,omitempty"`
}

// ScriptInput is the admin payload for creating or editing a script
type ScriptInput struct {
	Category         string `json:"category"`
	Title            string `json:"title"`
	VideoDescription string `json:"video_description"`
	Requirements     string `json:"requirements"`
	MaterialLink     string `json:"material_link"`
	Stages           [4]struct {
		Points   string `json:"points"`
		Dialogue string `json:"dialogue"`
	} `json:"stages"`
}

// UserInput is the admin payload for creating a stylist account
type UserInput struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Instagram     string `json:"instagram"`
	Quota         int    `json:"quota"`
}
