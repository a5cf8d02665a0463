/*
Package chat implements the relay core: the registry of admitted connections,
room membership, and the Hub that routes room and private messages.
*/
package chat

import (
	"maps"
	"slices"
	"sync"

	"provchat/internal/app/user"
	"provchat/internal/pkg/errs"
)

// Sentinel errors for errors.Is. Errors returned at runtime carry the same
// codes with formatted messages.
var (
	ErrIncompleteProfile = errs.NewError(errs.ErrIncompleteProfile)
	ErrNicknameTaken     = errs.NewError(errs.ErrNicknameTaken)
	ErrAlreadyAdmitted   = errs.NewError(errs.ErrAlreadyAdmitted)
	ErrShuttingDown      = errs.NewError(errs.ErrShuttingDown)
)

// Registry maps admitted connections to their profiles and keeps the set of
// nicknames in use. A nickname is held by at most one connection.
//
// Rooms are not stored: membership is derived from the profiles on every read.
type Registry struct {
	mu sync.RWMutex

	// profiles is keyed by connection id.
	profiles map[string]user.Profile

	// nicknames maps each nickname in use to its connection id. It holds an
	// entry iff some profile has that nickname.
	nicknames map[string]string

	// order lists connection ids by admission time.
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		profiles:  make(map[string]user.Profile),
		nicknames: make(map[string]string),
	}
}

// Admit registers profile under connID. It fails without side effects when
// the profile is incomplete, the nickname is taken or connID is already admitted.
func (r *Registry) Admit(connID string, profile user.Profile) error {
	if connID == "" || !profile.Complete() {
		return ErrIncompleteProfile
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[connID]; ok {
		return ErrAlreadyAdmitted
	}
	if _, ok := r.nicknames[profile.Nickname]; ok {
		return errs.NewError(errs.ErrNicknameTaken, profile.Nickname)
	}

	r.profiles[connID] = profile
	r.nicknames[profile.Nickname] = connID
	r.order = append(r.order, connID)

	return nil
}

// Remove drops connID and frees its nickname. It reports false when connID
// was never admitted.
func (r *Registry) Remove(connID string) (user.Profile, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	profile, ok := r.profiles[connID]
	if !ok {
		return user.Profile{}, false
	}

	delete(r.profiles, connID)
	delete(r.nicknames, profile.Nickname)
	if i := slices.Index(r.order, connID); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}

	return profile, true
}

// Profile returns the profile admitted under connID.
func (r *Registry) Profile(connID string) (user.Profile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[connID]
	return p, ok
}

// LookupByNickname returns the connection holding nickname.
func (r *Registry) LookupByNickname(nickname string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.nicknames[nickname]
	return id, ok
}

// MembersOf returns the nicknames in room, in admission order.
func (r *Registry) MembersOf(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]string, 0)
	for _, id := range r.order {
		if p := r.profiles[id]; p.Room == room {
			members = append(members, p.Nickname)
		}
	}
	return members
}

// ConnectionsIn returns the connection ids in room, in admission order.
func (r *Registry) ConnectionsIn(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for _, id := range r.order {
		if r.profiles[id].Room == room {
			ids = append(ids, id)
		}
	}
	return ids
}

// Rooms returns the number of connections in every non-empty room.
func (r *Registry) Rooms() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make(map[string]int)
	for _, p := range r.profiles {
		rooms[p.Room]++
	}
	return rooms
}

// Nicknames returns the nicknames in use, sorted.
func (r *Registry) Nicknames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Sorted(maps.Keys(r.nicknames))
}

// Len returns the number of admitted connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.profiles)
}
