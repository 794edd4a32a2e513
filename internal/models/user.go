package models

import (
	"strings"
	"time"
)

// Role distinguishes admin accounts from stylist accounts
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStylist Role = "stylist"
)

// DefaultQuota is the assigned-set limit used when the roster leaves quota blank
const DefaultQuota = 10

// poolCategoryPrefix tags an allow-list entry as a category filter rather
// than a script identifier
const poolCategoryPrefix = "cat:"

// PoolEntry is one allow-list entry: either a script identifier or a
// category filter of the form "cat:<Category>". The raw text is preserved so
// that pools round-trip through the sheet unchanged.
type PoolEntry string

// IsCategory reports whether the entry is a category filter
func (e PoolEntry) IsCategory() bool {
	return strings.HasPrefix(strings.ToLower(string(e)), poolCategoryPrefix)
}

// Category returns the category named by a category-filter entry, or ""
func (e PoolEntry) Category() string {
	if !e.IsCategory() {
		return ""
	}
	_, name, _ := strings.Cut(string(e), ":")
	return strings.TrimSpace(name)
}

// Matches reports whether the entry admits the given script, by
// case-insensitive identifier equality or category match
func (e PoolEntry) Matches(s Script) bool {
	if e.IsCategory() {
		return strings.EqualFold(e.Category(), s.Category)
	}
	return strings.EqualFold(string(e), s.ID)
}

// ParsePool splits a comma-separated pool column into entries, trimming
// whitespace and dropping empty segments
func ParsePool(raw string) []PoolEntry {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var entries []PoolEntry
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		entries = append(entries, PoolEntry(part))
	}
	return entries
}

// JoinPool serializes entries back to the comma-joined wire form, preserving
// order with no silent drops
func JoinPool(entries []PoolEntry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = string(e)
	}
	return strings.Join(parts, ",")
}

// ParseIDList splits a comma-separated identifier column, trimming whitespace
func ParseIDList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ids = append(ids, part)
	}
	return ids
}

// User represents one roster account
type User struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Role            Role        `json:"role"`
	AssignedScripts []string    `json:"assigned_scripts"`
	ScriptPool      []PoolEntry `json:"script_pool,omitempty"`
	Quota           int         `json:"quota"`
	ContactPerson   string      `json:"contact_person,omitempty"`
	Instagram       string      `json:"instagram,omitempty"`

	// SelectionStartTime is absent until the user's first eligible session
	SelectionStartTime *time.Time `json:"selection_start_time,omitempty"`
}

// HasPool reports whether the user is restricted to an allow-list
func (u *User) HasPool() bool {
	return len(u.ScriptPool) > 0
}

// EffectiveQuota returns the quota, falling back to the default when unset
func (u *User) EffectiveQuota() int {
	if u.Quota <= 0 {
		return DefaultQuota
	}
	return u.Quota
}
