package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type testService struct {
	name string
	log  *[]string
	err  error
}

func (s testService) Run() { *s.log = append(*s.log, "run "+s.name) }
func (s testService) Shutdown(context.Context) error {
	*s.log = append(*s.log, "stop "+s.name)
	return s.err
}
func (s testService) String() string { return s.name }

func TestGroup(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	g := Group{}
	g.Add(testService{name: "a", log: &log}, "not runnable", testService{name: "b", log: &log, err: boom})

	g.Start()
	err := g.Shutdown(context.Background())

	want := []string{"run a", "run b", "stop b", "stop a"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("log = %v, want %v", log, want)
	}
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}
