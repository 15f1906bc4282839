package coordinator

import (
	"fmt"
	"regexp"
	"sync/atomic"

	"github.com/kasca/coordinator/pkg/config"
)

// Origins decides which web origins may talk to the coordinator.
// The lists can be swapped at runtime.
type Origins struct {
	p atomic.Pointer[originList]
}

type originList struct {
	exact    map[string]struct{}
	first    string
	patterns []*regexp.Regexp
}

func NewOrigins(conf config.Origin) (*Origins, error) {
	o := Origins{}
	if err := o.Update(conf); err != nil {
		return nil, err
	}
	return &o, nil
}

// Update replaces the allowed origins. Bad patterns keep the old lists.
func (o *Origins) Update(conf config.Origin) error {
	l := originList{exact: make(map[string]struct{}, len(conf.Allowed))}
	for _, a := range conf.Allowed {
		if l.first == "" {
			l.first = a
		}
		l.exact[a] = struct{}{}
	}
	for _, p := range conf.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("bad origin pattern %q: %w", p, err)
		}
		l.patterns = append(l.patterns, re)
	}
	o.p.Store(&l)
	return nil
}

// Allowed tells if the origin is in the lists.
// Empty lists let everyone in.
func (o *Origins) Allowed(origin string) bool {
	l := o.p.Load()
	if len(l.exact) == 0 && len(l.patterns) == 0 {
		return true
	}
	if _, ok := l.exact[origin]; ok {
		return true
	}
	for _, re := range l.patterns {
		if re.MatchString(origin) {
			return true
		}
	}
	return false
}

// CorsOrigin returns the value of the Access-Control-Allow-Origin header.
// A foreign origin gets the first allowed origin back, so browsers
// reject the response.
func (o *Origins) CorsOrigin(origin string) string {
	if origin == "" {
		return "*"
	}
	if o.Allowed(origin) {
		return origin
	}
	return o.p.Load().first
}
