// Copyright (c) 2025 BVK Chaitanya

package binance

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderbot_gateway_requests_total",
			Help: "Exchange gateway requests by operation and result.",
		},
		[]string{"op", "status"},
	)

	requestSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orderbot_gateway_request_seconds",
			Help:    "Exchange gateway request latency by operation.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, requestSeconds)
}

func observe(op string, start time.Time, err error) {
	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = "canceled"
	default:
		status = "error"
	}
	requestsTotal.WithLabelValues(op, status).Inc()
	requestSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
