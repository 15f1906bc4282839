package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestExtend(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf)
	child := log.Extend(log.With().Str(RoomField, "abc").Str(ConnectionField, "c1"))

	child.Info().Msg("joined")
	out := buf.String()
	for _, want := range []string{`"room":"abc"`, `"cid":"c1"`, `"message":"joined"`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}

	buf.Reset()
	log.Info().Msg("plain")
	if strings.Contains(buf.String(), RoomField) {
		t.Errorf("parent got child fields: %s", buf.String())
	}
}

func TestNop(t *testing.T) {
	Nop().Error().Msg("nothing")
}
