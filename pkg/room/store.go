package room

import (
	"errors"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/kasca/coordinator/pkg/api"
)

const (
	DefaultLanguage = "python"
	DefaultIdLength = 10

	alphabet   = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	idAttempts = 16
)

var ErrIdSpace = errors.New("no free room id")

type Store struct {
	mu    sync.Mutex
	rooms map[string]*Room

	lang    string
	newId   func() (string, error)
	onClose func(id string)
}

type Option func(*Store)

func WithLanguage(lang string) Option { return func(s *Store) { s.lang = lang } }
func WithIdLength(n int) Option {
	return func(s *Store) { s.newId = func() (string, error) { return gonanoid.Generate(alphabet, n) } }
}
func WithIdGenerator(fn func() (string, error)) Option { return func(s *Store) { s.newId = fn } }

// OnClose sets a callback for each destroyed room.
func OnClose(fn func(id string)) Option { return func(s *Store) { s.onClose = fn } }

func NewStore(opts ...Option) *Store {
	s := &Store{rooms: make(map[string]*Room, 10), lang: DefaultLanguage}
	WithIdLength(DefaultIdLength)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create makes a new room with its first member.
// The room never exists without members, so it becomes visible
// with the member already inside.
func (s *Store) Create(first *Member) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < idAttempts; i++ {
		id, err := s.newId()
		if err != nil {
			return nil, err
		}
		if _, ok := s.rooms[id]; ok {
			continue
		}
		r := &Room{ID: id, LanguageID: s.lang, members: []*Member{first}}
		s.rooms[id] = r
		return r, nil
	}
	return nil, ErrIdSpace
}

func (s *Store) Get(id string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[id]
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// WithRoom runs fn with exclusive access to the room.
// Calls for the same room are serialized, other rooms go in parallel.
// A room left without members is removed before the access is
// released, so whoever waits for it next gets ErrRoomNotFound.
func (s *Store) WithRoom(id string, fn func(r *Room) error) error {
	r := s.Get(id)
	if r == nil {
		return api.ErrRoomNotFound
	}
	closed, err := s.with(r, fn)
	if closed && s.onClose != nil {
		s.onClose(id)
	}
	return err
}

func (s *Store) with(r *Room, fn func(r *Room) error) (closed bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false, api.ErrRoomNotFound
	}
	err = fn(r)
	if len(r.members) == 0 {
		r.closed = true
		s.mu.Lock()
		if s.rooms[r.ID] == r {
			delete(s.rooms, r.ID)
		}
		s.mu.Unlock()
		return true, err
	}
	return false, err
}
