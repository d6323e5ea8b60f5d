// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package routecore

import (
	"context"
	"fmt"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsProvider selects the exporter backing the engine's OpenTelemetry
// instruments.
type MetricsProvider string

const (
	// PrometheusProvider registers the instruments on a private Prometheus
	// registry exposed through PrometheusHandler (default).
	PrometheusProvider MetricsProvider = "prometheus"
	// StdoutProvider exports through the stdout metric exporter
	// (development/testing).
	StdoutProvider MetricsProvider = "stdout"
)

// instrumentationScope names the engine's meter.
const instrumentationScope = "rivaas.dev/routecore"

// MetricsConfig holds the engine's OpenTelemetry metrics state: the meter
// provider, the instruments, and the Prometheus registry when that provider
// is selected.
//
// All record methods are nil-safe; a disabled engine carries a nil
// MetricsConfig and pays only a nil check per event.
type MetricsConfig struct {
	provider      MetricsProvider
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter

	prometheusRegistry *promclient.Registry
	prometheusHandler  http.Handler

	routesRegistered metric.Int64Counter
	lookups          metric.Int64Counter
	lookupFailures   metric.Int64Counter
	cacheHits        metric.Int64Counter
	cacheMisses      metric.Int64Counter
}

// newMetricsConfig builds the meter provider for the selected exporter and
// creates the engine's instruments.
func newMetricsConfig(provider MetricsProvider) (*MetricsConfig, error) {
	m := &MetricsConfig{provider: provider}

	switch provider {
	case PrometheusProvider:
		m.prometheusRegistry = promclient.NewRegistry()
		exporter, err := otelprom.New(otelprom.WithRegisterer(m.prometheusRegistry))
		if err != nil {
			return nil, fmt.Errorf("creating prometheus exporter: %w", err)
		}
		m.meterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
		m.prometheusHandler = promhttp.HandlerFor(m.prometheusRegistry, promhttp.HandlerOpts{})
	case StdoutProvider:
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("creating stdout exporter: %w", err)
		}
		m.meterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		)
	default:
		return nil, fmt.Errorf("unknown metrics provider %q", provider)
	}

	m.meter = m.meterProvider.Meter(instrumentationScope)

	var err error
	if m.routesRegistered, err = m.meter.Int64Counter("routecore.routes.registered",
		metric.WithDescription("Routes registered on the mutable tree")); err != nil {
		return nil, err
	}
	if m.lookups, err = m.meter.Int64Counter("routecore.lookups",
		metric.WithDescription("Route lookups against the snapshot")); err != nil {
		return nil, err
	}
	if m.lookupFailures, err = m.meter.Int64Counter("routecore.lookup.failures",
		metric.WithDescription("Lookups that matched no route")); err != nil {
		return nil, err
	}
	if m.cacheHits, err = m.meter.Int64Counter("routecore.cache.hits",
		metric.WithDescription("Route cache hits")); err != nil {
		return nil, err
	}
	if m.cacheMisses, err = m.meter.Int64Counter("routecore.cache.misses",
		metric.WithDescription("Route cache misses")); err != nil {
		return nil, err
	}
	return m, nil
}

func methodAttr(method Method) metric.AddOption {
	return metric.WithAttributes(attribute.String("method", method.String()))
}

func (m *MetricsConfig) recordRouteRegistered(n int64) {
	if m == nil {
		return
	}
	m.routesRegistered.Add(context.Background(), n)
}

func (m *MetricsConfig) recordLookup(method Method, found bool) {
	if m == nil {
		return
	}
	m.lookups.Add(context.Background(), 1, methodAttr(method))
	if !found {
		m.lookupFailures.Add(context.Background(), 1, methodAttr(method))
	}
}

func (m *MetricsConfig) recordCacheHit(method Method) {
	if m == nil {
		return
	}
	m.cacheHits.Add(context.Background(), 1, methodAttr(method))
}

func (m *MetricsConfig) recordCacheMiss(method Method) {
	if m == nil {
		return
	}
	m.cacheMisses.Add(context.Background(), 1, methodAttr(method))
}

// PrometheusHandler returns the scrape handler for the engine's private
// registry, or nil when the Prometheus provider is not active.
func (m *MetricsConfig) PrometheusHandler() http.Handler {
	if m == nil {
		return nil
	}
	return m.prometheusHandler
}

// Shutdown flushes and stops the meter provider.
func (m *MetricsConfig) Shutdown(ctx context.Context) error {
	if m == nil || m.meterProvider == nil {
		return nil
	}
	return m.meterProvider.Shutdown(ctx)
}

// WithMetrics enables OpenTelemetry metrics with the Prometheus provider.
// The instruments land on a private registry; serve PrometheusHandler to
// scrape them.
//
// Construction failures surface as a panic from New: metrics are explicitly
// requested, so a half-configured engine is worse than no engine.
func WithMetrics() Option {
	return WithMetricsProvider(PrometheusProvider)
}

// WithMetricsProvider enables OpenTelemetry metrics with the given provider.
func WithMetricsProvider(provider MetricsProvider) Option {
	return func(c *config) {
		m, err := newMetricsConfig(provider)
		if err != nil {
			panic(fmt.Sprintf("routecore: metrics setup failed: %v", err))
		}
		c.metrics = m
	}
}
