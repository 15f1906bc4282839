package httpx

import (
	"time"

	"github.com/kasca/coordinator/pkg/config"
	"github.com/kasca/coordinator/pkg/logger"
)

type (
	Options struct {
		Https                bool
		HttpsRedirect        bool
		HttpsRedirectAddress string
		HttpsCert            string
		HttpsKey             string
		HttpsDomain          string
		CertCache            string
		PortRoll             bool
		IdleTimeout          time.Duration
		ReadTimeout          time.Duration
		WriteTimeout         time.Duration
		Logger               *logger.Logger
	}
	Option func(*Options)
)

func (o *Options) override(options ...Option) {
	for _, opt := range options {
		opt(o)
	}
}

// IsAutoHttpsCert tells if certificates should be issued with
// Let's Encrypt instead of the files.
func (o *Options) IsAutoHttpsCert() bool { return !(o.HttpsCert != "" && o.HttpsKey != "") }

func HttpsRedirect(redirect bool) Option {
	return func(opts *Options) { opts.HttpsRedirect = redirect }
}

func WithPortRoll(roll bool) Option            { return func(opts *Options) { opts.PortRoll = roll } }
func WithLogger(log *logger.Logger) Option     { return func(opts *Options) { opts.Logger = log } }
func WithCertCache(dir string) Option          { return func(opts *Options) { opts.CertCache = dir } }
func WithWriteTimeout(t time.Duration) Option  { return func(opts *Options) { opts.WriteTimeout = t } }
func WithServerConfig(conf config.Server) Option {
	return func(opts *Options) {
		opts.Https = conf.Https
		opts.HttpsCert = conf.Tls.HttpsCert
		opts.HttpsKey = conf.Tls.HttpsKey
		opts.HttpsDomain = conf.Tls.Domain
		opts.HttpsRedirectAddress = conf.Address
	}
}
