package api

import (
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/debemdeboas/stylus/internal/session"
)

// Registry holds the open editing sessions. A session not touched for ttl
// is dropped.
type Registry struct {
	sessions *gocache.Cache
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{sessions: gocache.New(ttl, ttl)}
}

func (r *Registry) Add(c *session.Controller) string {
	id := uuid.NewString()
	r.sessions.SetDefault(id, c)
	return id
}

// Get returns the session and restarts its idle timer.
func (r *Registry) Get(id string) (*session.Controller, bool) {
	v, ok := r.sessions.Get(id)
	if !ok {
		return nil, false
	}
	c := v.(*session.Controller)
	r.sessions.SetDefault(id, c)
	return c, true
}

func (r *Registry) Remove(id string) {
	r.sessions.Delete(id)
}

func (r *Registry) Len() int {
	return r.sessions.ItemCount()
}
