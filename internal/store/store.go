// Package store holds the in-session copy of the catalog and roster. The
// external sheet stays authoritative; refreshes replace everything wholesale
// and local writes are optimistic.
package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/script-select-api/internal/models"
)

// CatalogStore defines the interface for catalog data operations
type CatalogStore interface {
	Replace(scripts []models.Script)
	All() []models.Script
	Get(id string) (models.Script, bool)
	Upsert(script models.Script)
	Count() int
}

// RosterStore defines the interface for roster data operations
type RosterStore interface {
	Replace(users []models.User)
	All() []models.User
	Get(id string) (models.User, bool)
	Add(user models.User) error
	SetAssigned(id string, scriptIDs []string) bool
	SetPool(id string, pool []models.PoolEntry) bool
	SetStartTime(id string, start time.Time) bool
	Count() int
}

// Stores holds all store interfaces
type Stores struct {
	Catalog CatalogStore
	Roster  RosterStore
}

// New creates memory-backed stores
func New() *Stores {
	return &Stores{
		Catalog: &memCatalog{},
		Roster:  &memRoster{},
	}
}

// memCatalog keeps scripts in catalog order
type memCatalog struct {
	mu      sync.RWMutex
	scripts []models.Script
}

func (c *memCatalog) Replace(scripts []models.Script) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scripts = append([]models.Script(nil), scripts...)
}

func (c *memCatalog) All() []models.Script {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.Script(nil), c.scripts...)
}

func (c *memCatalog) Get(id string) (models.Script, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, script := range c.scripts {
		if strings.EqualFold(script.ID, id) {
			return script, true
		}
	}
	return models.Script{}, false
}

func (c *memCatalog) Upsert(script models.Script) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.scripts {
		if strings.EqualFold(existing.ID, script.ID) {
			c.scripts[i] = script
			return
		}
	}
	c.scripts = append(c.scripts, script)
}

func (c *memCatalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.scripts)
}

// memRoster keeps users in roster order with case-insensitive id lookup
type memRoster struct {
	mu    sync.RWMutex
	users []models.User
}

func (r *memRoster) Replace(users []models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append([]models.User(nil), users...)
}

func (r *memRoster) All() []models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.User(nil), r.users...)
}

func (r *memRoster) Get(id string) (models.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.index(id); i >= 0 {
		return r.users[i], true
	}
	return models.User{}, false
}

func (r *memRoster) Add(user models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index(user.ID) >= 0 {
		return fmt.Errorf("user %s already exists", user.ID)
	}
	r.users = append(r.users, user)
	return nil
}

func (r *memRoster) SetAssigned(id string, scriptIDs []string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return false
	}
	r.users[i].AssignedScripts = append([]string(nil), scriptIDs...)
	return true
}

func (r *memRoster) SetPool(id string, pool []models.PoolEntry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 {
		return false
	}
	r.users[i].ScriptPool = append([]models.PoolEntry(nil), pool...)
	return true
}

// SetStartTime records the selection window start. Set at most once: a start
// that is already present never moves.
func (r *memRoster) SetStartTime(id string, start time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(id)
	if i < 0 || r.users[i].SelectionStartTime != nil {
		return false
	}
	t := start
	r.users[i].SelectionStartTime = &t
	return true
}

func (r *memRoster) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// index must be called with the lock held
func (r *memRoster) index(id string) int {
	for i, user := range r.users {
		if strings.EqualFold(user.ID, id) {
			return i
		}
	}
	return -1
}
