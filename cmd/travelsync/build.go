package main

import (
	"fmt"

	"github.com/nuaibria/travelsync/internal/adapter/nats"
	"github.com/nuaibria/travelsync/internal/adapter/ristretto"
	"github.com/nuaibria/travelsync/internal/adapter/travelapi"
	"github.com/nuaibria/travelsync/internal/adapter/ws"
	"github.com/nuaibria/travelsync/internal/config"
	"github.com/nuaibria/travelsync/internal/domain/travel"
	"github.com/nuaibria/travelsync/internal/port/pushchannel"
	"github.com/nuaibria/travelsync/internal/resilience"
	"github.com/nuaibria/travelsync/internal/service"
)

// remote builds the command endpoint client with its breaker and session cache.
func (a *app) remote() (*travelapi.Client, func(), error) {
	cfg := a.cfg
	api := travelapi.NewClient(cfg.Remote.BaseURL, cfg.Remote.Token, cfg.Remote.Timeout)
	api.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	sessions, err := ristretto.New[travel.StatusView](cfg.Cache.MaxItems)
	if err != nil {
		return nil, nil, fmt.Errorf("session cache: %w", err)
	}
	api.SetSessionCache(sessions, cfg.Cache.SessionTTL)
	return api, sessions.Close, nil
}

// dialer picks the push transport.
func (a *app) dialer() pushchannel.Dialer {
	cfg := a.cfg
	if cfg.Remote.Transport == config.TransportNATS {
		return nats.NewDialer(cfg.Remote.NATSURL, cfg.Actor.ID, cfg.Remote.Token)
	}
	return ws.NewDialer(cfg.Remote.PushURL, cfg.Actor.ID, cfg.Remote.Token)
}

// client wires the sync core for the configured actor.
func (a *app) client() (*service.Client, func(), error) {
	api, closeCache, err := a.remote()
	if err != nil {
		return nil, nil, err
	}

	cfg := a.cfg
	opts := service.ClientOptions{
		ActorID:        cfg.Actor.ID,
		ReconnectDelay: cfg.Connection.ReconnectDelay,
		DialTimeout:    cfg.Connection.DialTimeout,
		Metrics:        a.metrics,
	}
	if cfg.Poll.Enabled {
		opts.Poll = &service.PollerOptions{
			Interval:     cfg.Poll.Interval,
			SlowInterval: cfg.Poll.SlowInterval,
			SlowAfter:    cfg.Poll.SlowAfter,
			MaxBackoff:   cfg.Poll.MaxBackoff,
		}
	}
	return service.NewClient(a.dialer(), api, opts), closeCache, nil
}
