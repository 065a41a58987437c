// Copyright (c) 2025 BVK Chaitanya

package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetricsServer(t *testing.T) {
	ctx := context.Background()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orderbot_httputil_test_total",
		Help: "Counter for the metrics server test.",
	})
	prometheus.MustRegister(counter)
	defer prometheus.Unregister(counter)
	counter.Add(3)

	s, err := NewMetricsServer(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
	id, err := s.StartTCP(ctx, addr)
	if err != nil {
		t.Fatal(err)
	}
	if addr.Port == 0 {
		t.Fatalf("want port to be updated")
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/metrics", addr))
	if err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "orderbot_httputil_test_total 3") {
		t.Fatalf("want test counter in the metrics output, got %s", data)
	}

	if err := s.Stop(id); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(id); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want %v, got %v", os.ErrNotExist, err)
	}
}

func TestHandlers(t *testing.T) {
	s, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if s.RemoveHandler("/missing") {
		t.Fatalf("want false for missing handlers")
	}
	s.AddHandler("/x", http.NotFoundHandler())
	if !s.RemoveHandler("/x") {
		t.Fatalf("want true for existing handlers")
	}
}
