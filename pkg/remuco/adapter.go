// ABOUTME: Adapter tying a media player to remote clients
// ABOUTME: Owns config, server, discovery, snapshots and the coordinator loop
package remuco

import (
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gkfabs/remuco/internal/art"
	"github.com/gkfabs/remuco/internal/config"
	"github.com/gkfabs/remuco/internal/discovery"
	"github.com/gkfabs/remuco/internal/files"
	"github.com/gkfabs/remuco/internal/loop"
	"github.com/gkfabs/remuco/internal/report"
	"github.com/gkfabs/remuco/internal/server"
	"github.com/gkfabs/remuco/pkg/protocol"
)

// Adapter connects one media player to remote control clients. Create it
// with New, hook the player up via the Update methods and the capability
// interfaces, then Start it.
type Adapter struct {
	name   string
	player any
	opts   Options

	cfg *config.Config
	log *log.Logger

	loop       *loop.Loop
	registry   *server.Registry
	server     *server.Server
	advertiser *discovery.Advertiser
	reports    *report.Store
	art        *art.Provider
	fileLib    *files.Library

	features int32
	pinfoMsg []byte

	// Snapshots and pending flags, loop context only.
	state    protocol.PlayerState
	progress protocol.Progress
	item     itemSnapshot

	pendingState    bool
	pendingProgress bool
	pendingItem     bool

	stopPoll func()
	started  bool
}

type itemSnapshot struct {
	id       string
	info     map[string]string
	resource string
}

// New creates an adapter for the named player. The player value is probed
// for the capability interfaces; opts declare everything that cannot be
// expressed as an interface.
func New(name string, player any, opts Options) (*Adapter, error) {
	cfg, err := config.New(name)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	a := &Adapter{
		name:     name,
		player:   player,
		opts:     opts,
		cfg:      cfg,
		loop:     loop.New(),
		registry: server.NewRegistry(),
		reports:  report.NewStore(cfg.CacheDir(), nil),
		art:      art.NewProvider(),
	}
	a.log = newLogger(name, cfg)

	if len(opts.MimeTypes) > 0 {
		a.fileLib = files.NewLibrary(cfg.FbRootDirs(), opts.MimeTypes,
			cfg.FbShowExtensions(), a.log)
	}

	shutdown := cfg.SystemShutdownEnabled() && cfg.SystemShutdownCmd() != ""
	a.features = computeFeatures(player, opts, a.fileLib != nil, shutdown)

	if _, ok := player.(SearchRequester); ok && len(opts.SearchMask) == 0 {
		a.log.Warn("player supports search but no search mask is set, search disabled")
	}

	info := &protocol.PlayerInfo{
		Name:       name,
		Flags:      a.features,
		MaxRating:  byte(opts.MaxRating),
		SearchMask: opts.SearchMask,
	}
	for _, fa := range opts.FileActions {
		info.FIAIDs = append(info.FIAIDs, fa.ID)
		info.FIALabels = append(info.FIALabels, fa.Label)
		info.FIAMultis = append(info.FIAMultis, fa.Multiple)
	}
	a.pinfoMsg = protocol.BuildMessage(protocol.MsgConnPlayerInfo, info)
	if a.pinfoMsg == nil {
		return nil, fmt.Errorf("player info for %q does not serialize", name)
	}

	return a, nil
}

func newLogger(name string, cfg *config.Config) *log.Logger {
	out := io.Writer(os.Stderr)
	if f, err := os.OpenFile(cfg.LogFile(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600); err == nil {
		out = io.MultiWriter(os.Stderr, f)
	}
	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Prefix:          cfg.Player(),
	})
	logger.SetLevel(cfg.LogLevel())
	return logger
}

// Logger returns the adapter's logger for player code that wants to share it.
func (a *Adapter) Logger() *log.Logger { return a.log }

// Config gives player code access to its x- options.
func (a *Adapter) Config() *config.Config { return a.cfg }

// Start brings up the coordinator loop, the wifi server, discovery and the
// poll timer. Safe to call once.
func (a *Adapter) Start() error {
	if a.started {
		return fmt.Errorf("adapter already started")
	}
	a.started = true

	a.loop.Start()

	if a.cfg.WifiEnabled() {
		srv, err := server.NewServer(a.loop, a.registry, server.Config{
			Port:       a.cfg.WifiPort(),
			PlayerInfo: a.pinfoMsg,
			Handler:    a.handleMessage,
			DeviceSeen: a.reports.LogDevice,
			Logger:     a.log,
		})
		a.server = srv
		if err == nil {
			port := srv.Addr().(*net.TCPAddr).Port
			a.advertiser = discovery.NewAdvertiser(a.name, port, a.log)
			if aerr := a.advertiser.Advertise(); aerr != nil {
				a.log.Warn("discovery unavailable", "err", aerr)
			}
		}
	} else {
		a.log.Info("wifi server disabled by config")
	}

	if p, ok := a.player.(Poller); ok {
		interval := a.opts.PollInterval
		if interval <= 0 {
			interval = defaultPollInterval
		}
		a.stopPoll = a.loop.Every(interval, p.Poll)
	}

	a.log.Info("adapter started", "player", a.name)
	return nil
}

// Stop says goodbye to every client and tears everything down. The adapter
// cannot be restarted; create a new one instead.
func (a *Adapter) Stop() {
	if a.stopPoll != nil {
		a.stopPoll()
		a.stopPoll = nil
	}
	if a.advertiser != nil {
		a.advertiser.Withdraw()
	}
	if a.server != nil {
		a.server.Stop()
	}

	a.loop.Sync(func() {
		for _, s := range a.registry.All() {
			s.Disconnect(false, true)
		}
	})
	a.loop.Stop()
	a.log.Info("adapter stopped", "player", a.name)
}

// Addr returns the wifi server's listen address, or nil when it is not up.
func (a *Adapter) Addr() net.Addr {
	if a.server == nil {
		return nil
	}
	return a.server.Addr()
}

// runCommand executes a configured shell command line.
func (a *Adapter) runCommand(cmdline string) string {
	out, err := exec.Command("sh", "-c", cmdline).Output()
	if err != nil {
		a.log.Warn("command failed", "cmd", cmdline, "err", err)
		return ""
	}
	return strings.TrimSpace(string(out))
}

// masterVolume runs the configured mixer command for direction and pushes
// the mixer level reported by the get command back to the clients.
func (a *Adapter) masterVolume(direction int) {
	var which string
	switch {
	case direction < 0:
		which = "down"
	case direction > 0:
		which = "up"
	default:
		which = "mute"
	}
	cmd := a.cfg.MasterVolumeCmd(which)
	if cmd == "" {
		a.log.Error("master volume enabled but no command set", "which", which)
		return
	}
	a.runCommand(cmd)

	if get := a.cfg.MasterVolumeCmd("get"); get != "" {
		if v, err := strconv.Atoi(a.runCommand(get)); err == nil {
			a.UpdateVolume(v)
		}
	}
}

func (a *Adapter) systemShutdown() {
	if !a.cfg.SystemShutdownEnabled() {
		a.log.Error("client asked for shutdown but it is disabled")
		return
	}
	cmd := a.cfg.SystemShutdownCmd()
	if cmd == "" {
		a.log.Error("system shutdown enabled but no command set")
		return
	}
	a.log.Info("system shutdown requested by client")
	go func() {
		// Give the bye messages a moment to get out.
		time.Sleep(500 * time.Millisecond)
		exec.Command("sh", "-c", cmd).Start()
	}()
}
