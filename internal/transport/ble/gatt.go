// internal/transport/ble/gatt.go
package ble

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tinygo.org/x/bluetooth"
)

type gattSession struct {
	device bluetooth.Device
	write  bluetooth.DeviceCharacteristic
}

func (s *gattSession) Write(p []byte) error {
	_, err := s.write.WriteWithoutResponse(p)
	return err
}

func (s *gattSession) Disconnect() error { return s.device.Disconnect() }

// dialGATT scans for the peripheral, connects, and subscribes to the
// notify characteristic.
func dialGATT(ctx context.Context, cfg Config, onData func([]byte), onDisconnect func()) (session, error) {
	service, err := bluetooth.ParseUUID(cfg.ServiceUUID)
	if err != nil {
		return nil, fmt.Errorf("service uuid: %w", err)
	}
	writeUUID, err := bluetooth.ParseUUID(cfg.WriteUUID)
	if err != nil {
		return nil, fmt.Errorf("write uuid: %w", err)
	}
	notifyUUID, err := bluetooth.ParseUUID(cfg.NotifyUUID)
	if err != nil {
		return nil, fmt.Errorf("notify uuid: %w", err)
	}

	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("enable adapter: %w", err)
	}

	addr, err := scan(ctx, adapter, service, cfg)
	if err != nil {
		return nil, err
	}

	adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		if !connected && device.Address.String() == addr.String() {
			onDisconnect()
		}
	})

	device, err := adapter.Connect(addr, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr.String(), err)
	}

	s, err := subscribe(device, service, writeUUID, notifyUUID, onData)
	if err != nil {
		_ = device.Disconnect()
		return nil, err
	}
	return s, nil
}

func subscribe(device bluetooth.Device, service, writeUUID, notifyUUID bluetooth.UUID, onData func([]byte)) (*gattSession, error) {
	services, err := device.DiscoverServices([]bluetooth.UUID{service})
	if err != nil {
		return nil, fmt.Errorf("discover services: %w", err)
	}
	if len(services) == 0 {
		return nil, errors.New("uart service not found")
	}

	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{writeUUID, notifyUUID})
	if err != nil {
		return nil, fmt.Errorf("discover characteristics: %w", err)
	}

	var (
		s        = &gattSession{device: device}
		notify   bluetooth.DeviceCharacteristic
		gotWrite bool
		gotNote  bool
	)
	for _, c := range chars {
		switch c.UUID() {
		case writeUUID:
			s.write = c
			gotWrite = true
		case notifyUUID:
			notify = c
			gotNote = true
		}
	}
	if !gotWrite || !gotNote {
		return nil, errors.New("uart characteristics not found")
	}

	if err := notify.EnableNotifications(onData); err != nil {
		return nil, fmt.Errorf("enable notifications: %w", err)
	}
	return s, nil
}

// scan returns the address of the first advertiser that matches cfg.
func scan(ctx context.Context, adapter *bluetooth.Adapter, service bluetooth.UUID, cfg Config) (bluetooth.Address, error) {
	found := make(chan bluetooth.ScanResult, 1)
	done := make(chan error, 1)

	go func() {
		done <- adapter.Scan(func(a *bluetooth.Adapter, r bluetooth.ScanResult) {
			if !r.AdvertisementPayload.HasServiceUUID(service) {
				return
			}
			if cfg.Name != "" && r.LocalName() != cfg.Name {
				return
			}
			if cfg.Address != "" && !strings.EqualFold(r.Address.String(), cfg.Address) {
				return
			}
			select {
			case found <- r:
			default:
			}
			_ = a.StopScan()
		})
	}()

	select {
	case r := <-found:
		<-done
		return r.Address, nil
	case err := <-done:
		select {
		case r := <-found:
			return r.Address, nil
		default:
		}
		if err == nil {
			err = errors.New("scan stopped")
		}
		return bluetooth.Address{}, fmt.Errorf("scan: %w", err)
	case <-ctx.Done():
		_ = adapter.StopScan()
		<-done
		return bluetooth.Address{}, fmt.Errorf("scan: %w", ctx.Err())
	}
}
