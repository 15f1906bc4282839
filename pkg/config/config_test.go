package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testConfig = `
coordinator:
  debug: false
  origin:
    allowed:
      - http://localhost:3000
    patterns:
      - ^https://kasca-client-[a-z0-9]+\.vercel\.app$
  server:
    address: :4001
  room:
    defaultLanguage: go
webrtc:
  iceServers:
    - urls: stun:stun.l.google.com:19302
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, testConfig)

	var conf CoordinatorConfig
	used, err := LoadConfig(&conf, filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if used != path {
		t.Errorf("expected %v file, got %v", path, used)
	}
	if conf.Coordinator.Server.Address != ":4001" {
		t.Errorf("wrong address %v", conf.Coordinator.Server.Address)
	}
	if conf.Coordinator.Room.DefaultLanguage != "go" {
		t.Errorf("wrong language %v", conf.Coordinator.Room.DefaultLanguage)
	}
	if conf.Coordinator.Room.IdLength != 10 || conf.Coordinator.Room.NameMaxLength != 255 {
		t.Errorf("defaults are not applied: %+v", conf.Coordinator.Room)
	}
	if conf.Coordinator.Connection.SendQueue != 512 {
		t.Errorf("defaults are not applied: %+v", conf.Coordinator.Connection)
	}
	if len(conf.Coordinator.Origin.Allowed) != 1 || len(conf.Coordinator.Origin.Patterns) != 1 {
		t.Errorf("wrong origins %+v", conf.Coordinator.Origin)
	}
	if len(conf.Webrtc.IceServers) != 1 {
		t.Errorf("wrong ice servers %+v", conf.Webrtc.IceServers)
	}
}

func TestConfigEnv(t *testing.T) {
	path := writeConfig(t, testConfig)
	t.Setenv("KASCA_COORDINATOR_ROOM_DEFAULTLANGUAGE", "rust")

	var conf CoordinatorConfig
	if _, err := LoadConfig(&conf, path); err != nil {
		t.Fatal(err)
	}
	if conf.Coordinator.Room.DefaultLanguage != "rust" {
		t.Errorf("env is not applied, got %v", conf.Coordinator.Room.DefaultLanguage)
	}
}

func TestFlagsOverride(t *testing.T) {
	path := writeConfig(t, testConfig)

	conf, used, err := NewCoordinatorConfig([]string{"--c-conf", path, "--address", ":5005", "-d"})
	if err != nil {
		t.Fatal(err)
	}
	if used != path {
		t.Errorf("expected %v file, got %v", path, used)
	}
	if conf.Coordinator.Server.Address != ":5005" {
		t.Errorf("flag is not applied, got %v", conf.Coordinator.Server.Address)
	}
	if !conf.Coordinator.Debug {
		t.Errorf("debug flag is not applied")
	}
	// untouched flags keep the file values
	if len(conf.Coordinator.Origin.Allowed) != 1 {
		t.Errorf("origins are overwritten %+v", conf.Coordinator.Origin.Allowed)
	}
}

func TestReloadKeepsFlags(t *testing.T) {
	path := writeConfig(t, testConfig)

	conf, _, err := NewCoordinatorConfig([]string{"--c-conf", path, "--origin", "https://kasca.dev"})
	if err != nil {
		t.Fatal(err)
	}
	changed := strings.Replace(testConfig, "http://localhost:3000", "http://localhost:4000", 1)
	changed = strings.Replace(changed, "defaultLanguage: go", "defaultLanguage: rust", 1)
	if err = os.WriteFile(path, []byte(changed), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded, err := conf.Reload(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := reloaded.Coordinator.Origin.Allowed; len(got) != 1 || got[0] != "https://kasca.dev" {
		t.Errorf("flag origins are lost after reload: %v", got)
	}
	if reloaded.Coordinator.Room.DefaultLanguage != "rust" {
		t.Errorf("file changes are not applied, got %v", reloaded.Coordinator.Room.DefaultLanguage)
	}

	// a config without a command line takes the file as is
	var plain CoordinatorConfig
	reloaded, err = plain.Reload(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := reloaded.Coordinator.Origin.Allowed; len(got) != 1 || got[0] != "http://localhost:4000" {
		t.Errorf("wrong origins %v", got)
	}
}

func TestWebrtcValidate(t *testing.T) {
	tests := []struct {
		name  string
		ice   []IceServer
		error bool
	}{
		{name: "empty"},
		{name: "stun", ice: []IceServer{{Urls: "stun:stun.l.google.com:19302"}}},
		{name: "turn", ice: []IceServer{{Urls: "turn:x:3478", Username: "u", Credential: "p"}}},
		{name: "turn without credentials", ice: []IceServer{{Urls: "turn:x:3478"}}, error: true},
		{name: "no urls", ice: []IceServer{{Username: "u"}}, error: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Webrtc{IceServers: tt.ice}
			err := w.Validate()
			if tt.error != (err != nil) {
				t.Errorf("expected error %v, got %v", tt.error, err)
			}
		})
	}
}

func TestICEServers(t *testing.T) {
	w := Webrtc{IceServers: []IceServer{
		{Urls: "stun:a:1,stun:b:2"},
		{Urls: "turn:c:3", Username: "u", Credential: "p"},
	}}
	servers := w.ICEServers()
	if len(servers) != 2 {
		t.Fatalf("expected 2 servers, got %v", len(servers))
	}
	if len(servers[0].URLs) != 2 || servers[0].URLs[1] != "stun:b:2" {
		t.Errorf("wrong urls %v", servers[0].URLs)
	}
	if servers[1].Credential != "p" || servers[1].Username != "u" {
		t.Errorf("wrong credentials %+v", servers[1])
	}
}

func TestWatch(t *testing.T) {
	path := writeConfig(t, testConfig)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 10)
	if err := Watch(ctx, path, func() { changed <- struct{}{} }, nil); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(testConfig+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Errorf("no change notification")
	}
}
