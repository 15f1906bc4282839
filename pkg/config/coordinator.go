package config

import (
	"github.com/spf13/pflag"
)

type CoordinatorConfig struct {
	Coordinator Coordinator
	Webrtc      Webrtc

	// the command line it was made with
	flags *flagOverride
}

type flagOverride struct {
	fs     *pflag.FlagSet
	values CoordinatorConfig
}

type Coordinator struct {
	Debug      bool
	Origin     Origin
	Monitoring Monitoring
	Server     Server
	Room       Room
	Connection Connection
	// an optional lock file which keeps a second instance
	// with the same file from starting
	LockFile string
}

// Origin lists the web origins allowed to open a connection.
// An empty Allowed and Patterns pair lets everyone in.
type Origin struct {
	Allowed  []string
	Patterns []string
}

type Room struct {
	DefaultLanguage string `default:"python"`
	IdLength        int    `default:"10"`
	NameMaxLength   int    `default:"255"`
}

type Connection struct {
	// the outbound queue size per member, overflowing it drops the member
	SendQueue      int   `default:"512"`
	MaxMessageSize int64 `default:"1048576"`
	// inbound messages per second and the burst on top
	Rate          float64 `default:"100"`
	Burst         int     `default:"200"`
	MaxViolations int     `default:"1000"`
}

// NewCoordinatorConfig reads the command line, loads the config file
// and applies the explicitly set flags over it.
// The returned path is the config file in use, if any.
func NewCoordinatorConfig(args []string) (conf CoordinatorConfig, path string, err error) {
	fs := pflag.NewFlagSet("coordinator", pflag.ContinueOnError)
	confPath := fs.String("c-conf", "", "Set custom configuration file path")
	var flags CoordinatorConfig
	flags.AddFlags(fs)
	if err = fs.Parse(args); err != nil {
		return conf, "", err
	}
	if path, err = LoadConfig(&conf, *confPath); err != nil {
		return conf, path, err
	}
	conf.flags = &flagOverride{fs: fs, values: flags}
	conf.override()
	return conf, path, conf.Webrtc.Validate()
}

// Reload loads the config file from the path again and puts
// the explicitly set command line flags back over it.
func (c CoordinatorConfig) Reload(path string) (conf CoordinatorConfig, err error) {
	if _, err = LoadConfig(&conf, path); err != nil {
		return conf, err
	}
	conf.flags = c.flags
	conf.override()
	return conf, conf.Webrtc.Validate()
}

func (c *CoordinatorConfig) AddFlags(fs *pflag.FlagSet) *CoordinatorConfig {
	fs.BoolVarP(&c.Coordinator.Debug, "debug", "d", false, "Enable debug logs")
	fs.StringVar(&c.Coordinator.Server.Address, "address", "", "HTTP server address (host:port)")
	fs.StringVar(&c.Coordinator.Server.Tls.Address, "httpsAddress", "", "HTTPS server address (host:port)")
	fs.StringVar(&c.Coordinator.Server.Tls.HttpsKey, "httpsKey", "", "HTTPS key")
	fs.StringVar(&c.Coordinator.Server.Tls.HttpsCert, "httpsCert", "", "HTTPS chain")
	fs.StringSliceVar(&c.Coordinator.Origin.Allowed, "origin", nil, "Allowed web origins (comma separated)")
	fs.StringVar(&c.Coordinator.LockFile, "lock", "", "Lock file path, prevents running a second instance")
	fs.IntVar(&c.Coordinator.Monitoring.Port, "monitoring.port", 0, "Monitoring server port")
	fs.BoolVarP(&c.Coordinator.Monitoring.MetricEnabled, "monitoring.metric", "m", false, "Enable prometheus metric for server")
	fs.BoolVarP(&c.Coordinator.Monitoring.ProfilingEnabled, "monitoring.pprof", "p", false, "Enable golang pprof for server")
	return c
}

func (c *CoordinatorConfig) override() {
	if c.flags == nil {
		return
	}
	fs, f := c.flags.fs, c.flags.values
	if fs.Changed("debug") {
		c.Coordinator.Debug = f.Coordinator.Debug
	}
	if fs.Changed("address") {
		c.Coordinator.Server.Address = f.Coordinator.Server.Address
	}
	if fs.Changed("httpsAddress") {
		c.Coordinator.Server.Https = true
		c.Coordinator.Server.Tls.Address = f.Coordinator.Server.Tls.Address
	}
	if fs.Changed("httpsKey") {
		c.Coordinator.Server.Tls.HttpsKey = f.Coordinator.Server.Tls.HttpsKey
	}
	if fs.Changed("httpsCert") {
		c.Coordinator.Server.Tls.HttpsCert = f.Coordinator.Server.Tls.HttpsCert
	}
	if fs.Changed("origin") {
		c.Coordinator.Origin.Allowed = f.Coordinator.Origin.Allowed
	}
	if fs.Changed("lock") {
		c.Coordinator.LockFile = f.Coordinator.LockFile
	}
	if fs.Changed("monitoring.port") {
		c.Coordinator.Monitoring.Port = f.Coordinator.Monitoring.Port
	}
	if fs.Changed("monitoring.metric") {
		c.Coordinator.Monitoring.MetricEnabled = f.Coordinator.Monitoring.MetricEnabled
	}
	if fs.Changed("monitoring.pprof") {
		c.Coordinator.Monitoring.ProfilingEnabled = f.Coordinator.Monitoring.ProfilingEnabled
	}
}
