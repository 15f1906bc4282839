package coordinator

import (
	"context"
	"errors"

	"github.com/kasca/coordinator/pkg/config"
	"github.com/kasca/coordinator/pkg/logger"
	"github.com/kasca/coordinator/pkg/network/httpx"
)

// Coordinator is the collaboration server: rooms, presence and
// the relay of edits and WebRTC signals between room members.
type Coordinator struct {
	conf     config.CoordinatorConfig
	confPath string
	hub      *Hub
	origins  *Origins
	server   *httpx.Server
	log      *logger.Logger

	cancel context.CancelFunc
}

// New makes a coordinator, the confPath param is the loaded config file
// that will be watched for origin changes, can be empty.
func New(conf config.CoordinatorConfig, confPath string, log *logger.Logger) (*Coordinator, error) {
	origins, err := NewOrigins(conf.Coordinator.Origin)
	if err != nil {
		return nil, err
	}
	hub := NewHub(conf, origins, log)
	server, err := httpx.NewServer(
		conf.Coordinator.Server.GetAddr(),
		func(*httpx.Server) httpx.Handler { return hub.Handler() },
		httpx.WithServerConfig(conf.Coordinator.Server),
		httpx.WithLogger(log),
		// websocket handlers stay open
		httpx.WithWriteTimeout(0),
	)
	if err != nil {
		return nil, err
	}
	return &Coordinator{
		conf:     conf,
		confPath: confPath,
		hub:      hub,
		origins:  origins,
		server:   server,
		log:      log,
	}, nil
}

func (c *Coordinator) Run() {
	c.server.Run()
	if c.confPath == "" {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	err := config.Watch(ctx, c.confPath, c.reloadOrigins, func(err error) {
		c.log.Warn().Err(err).Msg("config watch")
	})
	if err != nil {
		c.log.Error().Err(err).Str("path", c.confPath).Msg("couldn't watch the config")
	}
}

// reloadOrigins reads the allowed origins from the config file again,
// origins given on the command line stay.
func (c *Coordinator) reloadOrigins() {
	conf, err := c.conf.Reload(c.confPath)
	if err != nil {
		c.log.Warn().Err(err).Msg("couldn't reload the config")
		return
	}
	if err := c.origins.Update(conf.Coordinator.Origin); err != nil {
		c.log.Warn().Err(err).Msg("couldn't update allowed origins")
		return
	}
	c.log.Info().
		Strs("allowed", conf.Coordinator.Origin.Allowed).
		Strs("patterns", conf.Coordinator.Origin.Patterns).
		Msg("Allowed origins reloaded")
}

func (c *Coordinator) Shutdown(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
	}
	err := c.server.Stop(ctx)
	c.hub.users.DisconnectAll()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Addr returns the address the server listens to.
func (c *Coordinator) Addr() string { return c.server.Addr }

func (c *Coordinator) String() string { return "coordinator" }
