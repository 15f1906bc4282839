package coordinator

import "github.com/kasca/coordinator/pkg/com"

// Binding ties a connection to its room membership.
type Binding struct {
	RoomID string
	UserID string
}

// Registry keeps live connections and their room bindings.
// A connection belongs to at most one room at a time.
type Registry struct {
	users    com.NetMap[com.Uid, *User]
	bindings *com.Map[com.Uid, Binding]
}

func NewRegistry() *Registry {
	return &Registry{
		users:    com.NewNetMap[com.Uid, *User](),
		bindings: com.NewMap[com.Uid, Binding](),
	}
}

func (r *Registry) Add(u *User) { r.users.Add(u) }

// Remove forgets the connection and returns its binding if there was one.
func (r *Registry) Remove(u *User) (Binding, bool) {
	r.users.Remove(u)
	return r.bindings.Pop(u.Id())
}

func (r *Registry) Bind(u *User, b Binding) { r.bindings.Put(u.Id(), b) }

func (r *Registry) Unbind(u *User) (Binding, bool) { return r.bindings.Pop(u.Id()) }

func (r *Registry) Lookup(u *User) (Binding, bool) {
	b, err := r.bindings.Find(u.Id())
	return b, err == nil
}

func (r *Registry) Connections() int { return r.users.Len() }
func (r *Registry) Members() int     { return r.bindings.Len() }

// DisconnectAll closes every connection.
func (r *Registry) DisconnectAll() { r.users.DisconnectAll() }
