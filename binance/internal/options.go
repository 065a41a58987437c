// Copyright (c) 2025 BVK Chaitanya

package internal

import (
	"fmt"
	"net/url"
	"time"
)

var (
	RestURL = url.URL{
		Scheme: "https",
		Host:   "fapi.binance.com",
	}

	TestnetRestURL = url.URL{
		Scheme: "https",
		Host:   "testnet.binancefuture.com",
	}

	WebsocketURL = url.URL{
		Scheme: "wss",
		Host:   "fstream.binance.com",
		Path:   "/ws",
	}

	TestnetWebsocketURL = url.URL{
		Scheme: "wss",
		Host:   "stream.binancefuture.com",
		Path:   "/ws",
	}
)

type Options struct {
	// Testnet selects the testnet endpoints when the URLs below are empty.
	Testnet bool

	// URLs for the REST and WebSocket service endpoints.
	RestURL      string
	WebsocketURL string

	// RecvWindow is the validity window for signed requests.
	RecvWindow time.Duration

	HttpClientTimeout time.Duration

	// RequestsPerSecond limits the REST request rate.
	RequestsPerSecond float64

	// MaxTimeAdjustment is the maximum allowed clock difference with the
	// server.
	MaxTimeAdjustment time.Duration

	// TimeSyncInterval is the period for refreshing the clock difference with
	// the server.
	TimeSyncInterval time.Duration
}

func (v *Options) setDefaults() {
	if v.RestURL == "" {
		if v.Testnet {
			v.RestURL = TestnetRestURL.String()
		} else {
			v.RestURL = RestURL.String()
		}
	}
	if v.WebsocketURL == "" {
		if v.Testnet {
			v.WebsocketURL = TestnetWebsocketURL.String()
		} else {
			v.WebsocketURL = WebsocketURL.String()
		}
	}
	if v.RecvWindow == 0 {
		v.RecvWindow = 5 * time.Second
	}
	if v.HttpClientTimeout == 0 {
		v.HttpClientTimeout = 10 * time.Second
	}
	if v.RequestsPerSecond == 0 {
		v.RequestsPerSecond = 10
	}
	if v.MaxTimeAdjustment == 0 {
		v.MaxTimeAdjustment = time.Minute
	}
	if v.TimeSyncInterval == 0 {
		v.TimeSyncInterval = 10 * time.Minute
	}
}

// Check validates the options.
func (v *Options) Check() error {
	if _, err := url.Parse(v.RestURL); err != nil {
		return fmt.Errorf("invalid rest url: %w", err)
	}
	if _, err := url.Parse(v.WebsocketURL); err != nil {
		return fmt.Errorf("invalid websocket url: %w", err)
	}
	if v.RecvWindow <= 0 || v.RecvWindow > time.Minute {
		return fmt.Errorf("recv window must be within (0, 1m]")
	}
	if v.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second must be positive")
	}
	return nil
}
