package room

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/kasca/coordinator/pkg/api"
)

type sink struct {
	mu   sync.Mutex
	msgs []string
	full bool
}

func (s *sink) Send(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full {
		return false
	}
	s.msgs = append(s.msgs, string(data))
	return true
}

func (s *sink) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.msgs...)
}

func TestApplyEdit(t *testing.T) {
	tests := []struct {
		name string
		code string
		op   api.EditOp
		want string
	}{
		{name: "insert into empty", code: "", op: api.EditOp{Text: "x = 1", StartLine: 1, StartColumn: 1, EndLine: 1, EndColumn: 1}, want: "x = 1"},
		{name: "replace word", code: "print(a)", op: api.EditOp{Text: "b", StartLine: 1, StartColumn: 7, EndLine: 1, EndColumn: 8}, want: "print(b)"},
		{name: "second line", code: "a\nbc\nd", op: api.EditOp{Text: "X", StartLine: 2, StartColumn: 2, EndLine: 2, EndColumn: 3}, want: "a\nbX\nd"},
		{name: "across lines", code: "ab\ncd\nef", op: api.EditOp{Text: "-", StartLine: 1, StartColumn: 2, EndLine: 3, EndColumn: 2}, want: "a-f"},
		{name: "delete newline", code: "ab\ncd", op: api.EditOp{StartLine: 1, StartColumn: 3, EndLine: 2, EndColumn: 1}, want: "abcd"},
		{name: "column clamped", code: "ab\ncd", op: api.EditOp{Text: "!", StartLine: 1, StartColumn: 40, EndLine: 1, EndColumn: 50}, want: "ab!\ncd"},
		{name: "line clamped", code: "ab", op: api.EditOp{Text: "\nc", StartLine: 9, StartColumn: 1, EndLine: 9, EndColumn: 1}, want: "ab\nc"},
		{name: "multibyte", code: "héllo", op: api.EditOp{Text: "a", StartLine: 1, StartColumn: 2, EndLine: 1, EndColumn: 3}, want: "hallo"},
		{name: "astral counts two units", code: "😀x", op: api.EditOp{Text: "y", StartLine: 1, StartColumn: 3, EndLine: 1, EndColumn: 4}, want: "😀y"},
		{name: "inside surrogate pair", code: "😀x", op: api.EditOp{Text: "y", StartLine: 1, StartColumn: 2, EndLine: 1, EndColumn: 2}, want: "y😀x"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := ApplyEdit(test.code, test.op); got != test.want {
				t.Errorf("ApplyEdit() = %q, want %q", got, test.want)
			}
		})
	}
}

func TestCreate(t *testing.T) {
	s := NewStore()
	r, err := s.Create(NewMember("u1", "Alice", &sink{}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(r.ID) != DefaultIdLength {
		t.Errorf("id %q has len %v", r.ID, len(r.ID))
	}
	if r.LanguageID != DefaultLanguage {
		t.Errorf("lang = %v", r.LanguageID)
	}
	if s.Get(r.ID) != r || s.Len() != 1 {
		t.Errorf("room is not in the store")
	}
	if r.Len() != 1 {
		t.Errorf("room has %v members, want 1", r.Len())
	}
}

func TestCreateIdCollision(t *testing.T) {
	ids := []string{"a", "a", "a", "b"}
	i := 0
	s := NewStore(WithIdGenerator(func() (string, error) { id := ids[i%len(ids)]; i++; return id, nil }))

	r1, _ := s.Create(NewMember("u1", "A", &sink{}))
	r2, err := s.Create(NewMember("u2", "B", &sink{}))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if r1.ID != "a" || r2.ID != "b" {
		t.Errorf("ids = %v, %v", r1.ID, r2.ID)
	}

	s = NewStore(WithIdGenerator(func() (string, error) { return "same", nil }))
	_, _ = s.Create(NewMember("u1", "A", &sink{}))
	if _, err = s.Create(NewMember("u2", "B", &sink{})); !errors.Is(err, ErrIdSpace) {
		t.Errorf("err = %v, want %v", err, ErrIdSpace)
	}
}

func TestWithRoomNotFound(t *testing.T) {
	s := NewStore()
	called := false
	err := s.WithRoom("nope", func(*Room) error { called = true; return nil })
	if !errors.Is(err, api.ErrRoomNotFound) || called {
		t.Errorf("err = %v, called = %v", err, called)
	}
}

func TestEmptyRoomIsDestroyed(t *testing.T) {
	var closed []string
	s := NewStore(OnClose(func(id string) { closed = append(closed, id) }))
	r, _ := s.Create(NewMember("u1", "Alice", &sink{}))

	if err := s.WithRoom(r.ID, func(r *Room) error { r.Remove("u1"); return nil }); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if s.Get(r.ID) != nil || s.Len() != 0 {
		t.Errorf("empty room is still in the store")
	}
	if !reflect.DeepEqual(closed, []string{r.ID}) {
		t.Errorf("closed = %v", closed)
	}
	if err := s.WithRoom(r.ID, func(*Room) error { return nil }); !errors.Is(err, api.ErrRoomNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestClosedRoomRejectsLateCallers(t *testing.T) {
	s := NewStore()
	r, _ := s.Create(NewMember("u1", "Alice", &sink{}))
	// a caller that fetched the room before it was closed
	r.closed = true
	if err := s.WithRoom(r.ID, func(*Room) error { return nil }); !errors.Is(err, api.ErrRoomNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestBroadcast(t *testing.T) {
	a, b, c := &sink{}, &sink{}, &sink{full: true}
	s := NewStore()
	r, _ := s.Create(NewMember("a", "A", a))
	_ = s.WithRoom(r.ID, func(r *Room) error {
		r.Add(NewMember("b", "B", b))
		r.Add(NewMember("c", "C", c))
		return nil
	})

	var dropped []string
	err := s.WithRoom(r.ID, func(r *Room) (err error) {
		dropped, err = r.Broadcast(api.Notify(api.UserReady, "a"), "a")
		return
	})
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if len(a.all()) != 0 {
		t.Errorf("sender got %v", a.all())
	}
	if want := []string{`{"t":"user-ready","p":["a"]}`}; !reflect.DeepEqual(b.all(), want) {
		t.Errorf("b got %v, want %v", b.all(), want)
	}
	if !reflect.DeepEqual(dropped, []string{"c"}) {
		t.Errorf("dropped = %v", dropped)
	}
}

func TestSendTo(t *testing.T) {
	a := &sink{}
	s := NewStore()
	r, _ := s.Create(NewMember("a", "A", a))
	_ = s.WithRoom(r.ID, func(r *Room) error {
		if err := r.SendTo("a", api.Notify(api.UserLeft, "x")); err != nil {
			t.Errorf("send: %v", err)
		}
		if err := r.SendTo("ghost", api.Notify(api.UserLeft, "x")); !errors.Is(err, api.ErrPeerGone) {
			t.Errorf("err = %v", err)
		}
		return nil
	})
	if len(a.all()) != 1 {
		t.Errorf("a got %v", a.all())
	}
}

func TestSnapshot(t *testing.T) {
	s := NewStore()
	r, _ := s.Create(NewMember("a", "Alice", &sink{}))
	_ = s.WithRoom(r.ID, func(r *Room) error {
		bob := NewMember("b", "Bob", &sink{})
		bob.MicOn = true
		r.Add(bob)
		r.Code = "print(1)"
		r.Terminal = json.RawMessage(`{"out":"1"}`)
		return nil
	})
	var snap api.Snapshot
	_ = s.WithRoom(r.ID, func(r *Room) error { snap = r.Snapshot(); return nil })

	if snap.Code != "print(1)" || snap.LanguageID != DefaultLanguage || string(snap.Terminal) != `{"out":"1"}` {
		t.Errorf("snapshot = %+v", snap)
	}
	if len(snap.Members) != 2 || snap.Members[0].Name != "Alice" || !snap.Members[1].MicOn {
		t.Errorf("members = %+v", snap.Members)
	}
}

// Concurrent joins and leaves on the same room must keep the member
// list consistent and never resurrect a destroyed room.
func TestConcurrentMembership(t *testing.T) {
	s := NewStore()
	r, _ := s.Create(NewMember("owner", "O", &sink{}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("u%d", i)
			_ = s.WithRoom(r.ID, func(r *Room) error { r.Add(NewMember(id, id, &sink{})); return nil })
			_ = s.WithRoom(r.ID, func(r *Room) error { r.Remove(id); return nil })
		}(i)
	}
	wg.Wait()

	var n int
	if err := s.WithRoom(r.ID, func(r *Room) error { n = r.Len(); return nil }); err != nil {
		t.Fatalf("room is gone: %v", err)
	}
	if n != 1 {
		t.Errorf("members = %v, want 1", n)
	}
}
