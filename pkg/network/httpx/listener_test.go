package httpx

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"testing"
)

func TestListenerCreation(t *testing.T) {
	tests := []struct {
		addr  string
		error bool
	}{
		{addr: ":0"},
		{addr: "127.0.0.1:0"},
		{addr: ""},
		{addr: "https://garbage.com:99a9a", error: true},
		{addr: "localhost:abc1", error: true},
	}

	for _, test := range tests {
		ls, err := NewListener(test.addr, false)
		if test.error {
			if err == nil {
				t.Errorf("%v: expected error, but got none", test.addr)
			}
			continue
		}
		if err != nil {
			t.Errorf("%v: unexpected error %v", test.addr, err)
			continue
		}
		if ls.GetPort() <= 0 {
			t.Errorf("%v: expected a random port, got %v", test.addr, ls.GetPort())
		}
		_ = ls.Close()
	}
}

func TestListenerPortRoll(t *testing.T) {
	a, err := NewListener("127.0.0.1:0", false)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() { _ = a.Close() }()
	busy := "127.0.0.1:" + strconv.Itoa(a.GetPort())

	if _, err = NewListener(busy, false); err == nil {
		t.Errorf("expected busy port error, but got none")
	}
	b, err := NewListener(busy, true)
	if err != nil {
		t.Fatalf("expected no port error, but got %v", err)
	}
	defer func() { _ = b.Close() }()
	if b.GetPort() == a.GetPort() {
		t.Errorf("the port was not rolled")
	}
}

func TestServer(t *testing.T) {
	s, err := NewServer("127.0.0.1:0", func(*Server) Handler {
		return NewServeMux("/x").HandleFunc("/ping", func(w ResponseWriter, _ *Request) {
			_, _ = w.Write([]byte("pong"))
		})
	})
	if err != nil {
		t.Fatalf("server: %v", err)
	}
	s.Run()
	defer func() { _ = s.Stop(context.Background()) }()

	resp, err := http.Get("http://127.0.0.1:" + strconv.Itoa(s.GetPort()) + "/x/ping")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "pong" {
		t.Errorf("body = %q", body)
	}
}
