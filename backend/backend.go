package backend

import (
	"context"

	"github.com/b0bbywan/go-odio-btmedia/backend/bluetooth"
	"github.com/b0bbywan/go-odio-btmedia/backend/volume"
	"github.com/b0bbywan/go-odio-btmedia/backend/zeroconf"
	"github.com/b0bbywan/go-odio-btmedia/config"
	"github.com/b0bbywan/go-odio-btmedia/logger"
)

type Backend struct {
	Bluetooth *bluetooth.BluetoothBackend
	Volume    *volume.VolumeBackend
	Zeroconf  *zeroconf.ZeroConfBackend

	Events *Broadcaster
}

func New(ctx context.Context, btcfg *config.BluetoothConfig, volcfg *config.VolumeConfig, zcfg *config.ZeroConfig) (*Backend, error) {
	var backend Backend
	bt, err := bluetooth.New(ctx, btcfg)
	if err != nil {
		return nil, err
	}
	backend.Bluetooth = bt

	v, err := volume.New(ctx, volcfg)
	if err != nil {
		backend.Close()
		return nil, err
	}
	backend.Volume = v

	z, err := zeroconf.New(ctx, zcfg)
	if err != nil {
		backend.Close()
		return nil, err
	}
	backend.Zeroconf = z

	backend.Events = newBroadcasterFromBackend(ctx, &backend)
	return &backend, nil
}

// Start starts every enabled sub-backend. Only bluetooth is fatal: a missing
// mixer or a failed mDNS registration is logged and skipped.
func (b *Backend) Start() error {
	if b.Bluetooth != nil {
		if err := b.Bluetooth.Start(); err != nil {
			return err
		}
	}

	if b.Volume != nil {
		if err := b.Volume.Start(); err != nil {
			logger.Warn("[volume] mixer unavailable, volume control disabled: %v", err)
			b.Volume.Close()
			b.Volume = nil
		}
	}

	if b.Zeroconf != nil {
		if err := b.Zeroconf.Start(); err != nil {
			logger.Warn("[zeroconf] failed to publish service: %v", err)
		}
	}

	return nil
}

func (b *Backend) Close() {
	if b.Zeroconf != nil {
		b.Zeroconf.Close()
	}
	if b.Volume != nil {
		b.Volume.Close()
	}
	if b.Bluetooth != nil {
		b.Bluetooth.Close()
	}
}
