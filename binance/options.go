// Copyright (c) 2025 BVK Chaitanya

package binance

import (
	"fmt"
	"time"

	"github.com/bvk/orderbot/binance/internal"
	"github.com/google/uuid"
)

type Options struct {
	// Testnet selects the futures testnet when the URLs are empty.
	Testnet bool

	// RestURL and WebsocketURL override the default endpoints.
	RestURL      string
	WebsocketURL string

	// RecvWindow is the validity window for signed requests.
	RecvWindow time.Duration

	// Timeout to use for the HTTP requests.
	HttpClientTimeout time.Duration

	RequestsPerSecond float64

	// MaxTimeAdjustment is the max limit for the time difference between the
	// local time and the server time.
	MaxTimeAdjustment time.Duration

	// ExchangeInfoTTL is the duration for which the exchange's symbol list is
	// cached.
	ExchangeInfoTTL time.Duration

	// ClientOrderIDPrefix is prepended to the generated client order ids.
	ClientOrderIDPrefix string

	// ClientOrderIDSeed seeds the client order id generator. A random seed is
	// used when empty.
	ClientOrderIDSeed string
}

func (v *Options) setDefaults() {
	if v.ExchangeInfoTTL == 0 {
		v.ExchangeInfoTTL = 2 * time.Minute
	}
	if v.ClientOrderIDPrefix == "" {
		v.ClientOrderIDPrefix = "ob-"
	}
	if v.ClientOrderIDSeed == "" {
		v.ClientOrderIDSeed = uuid.NewString()
	}
}

func (v *Options) Check() error {
	if v.ExchangeInfoTTL < 0 {
		return fmt.Errorf("exchange info ttl cannot be negative")
	}
	if len(v.ClientOrderIDPrefix) > 8 {
		return fmt.Errorf("client order id prefix %q is too long", v.ClientOrderIDPrefix)
	}
	return nil
}

func (v *Options) internalOptions() *internal.Options {
	return &internal.Options{
		Testnet:           v.Testnet,
		RestURL:           v.RestURL,
		WebsocketURL:      v.WebsocketURL,
		RecvWindow:        v.RecvWindow,
		HttpClientTimeout: v.HttpClientTimeout,
		RequestsPerSecond: v.RequestsPerSecond,
		MaxTimeAdjustment: v.MaxTimeAdjustment,
	}
}
