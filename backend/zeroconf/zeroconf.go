package zeroconf

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/grandcat/zeroconf"

	"github.com/b0bbywan/go-odio-btmedia/config"
	"github.com/b0bbywan/go-odio-btmedia/logger"
)

var ErrAlreadyStarted = errors.New("zeroconf: service already published")

type registerFunc func(instance, service, domain string, port int, text []string, ifaces []net.Interface) (*zeroconf.Server, error)

// ZeroConfBackend advertises the HTTP API over mDNS.
type ZeroConfBackend struct {
	Config *config.ZeroConfig

	register registerFunc
	server   *zeroconf.Server
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
}

// New returns nil when advertising is disabled or the API only listens on
// loopback.
func New(ctx context.Context, cfg *config.ZeroConfig) (*ZeroConfBackend, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	if len(cfg.Listen) == 0 {
		logger.Info("[zeroconf] API bound to loopback, not advertising")
		return nil, nil
	}

	subCtx, cancel := context.WithCancel(ctx)

	return &ZeroConfBackend{
		Config:   cfg,
		register: zeroconf.Register,
		ctx:      subCtx,
		cancel:   cancel,
	}, nil
}

// Start publishes the service until the context is cancelled or Close is
// called.
func (z *ZeroConfBackend) Start() error {
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.server != nil {
		return ErrAlreadyStarted
	}

	server, err := z.register(
		z.Config.InstanceName,
		z.Config.ServiceType,
		z.Config.Domain,
		z.Config.Port,
		z.Config.TxtRecords,
		z.Config.Listen,
	)
	if err != nil {
		return err
	}

	z.server = server
	logger.Info("[zeroconf] service %q published (type: %s, port: %d)",
		z.Config.InstanceName, z.Config.ServiceType, z.Config.Port)

	go func() {
		<-z.ctx.Done()
		z.Close()
	}()

	return nil
}

func (z *ZeroConfBackend) Close() {
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.server != nil {
		z.server.Shutdown()
		z.server = nil
		logger.Debug("[zeroconf] service %q stopped", z.Config.InstanceName)
	}

	if z.cancel != nil {
		z.cancel()
		z.cancel = nil
	}
}
