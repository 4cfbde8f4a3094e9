// Package metrics exposes counters for the session layer. Registration uses
// the default registerer so an embedding application can serve them from its
// own /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UnauthorizedResponses counts 401 responses observed by the transport.
	UnauthorizedResponses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clinicclient",
		Subsystem: "transport",
		Name:      "unauthorized_responses_total",
		Help:      "Number of 401 responses received from the clinic API.",
	})

	// AuthorizedRetries counts requests re-issued after a successful refresh.
	AuthorizedRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clinicclient",
		Subsystem: "transport",
		Name:      "authorized_retries_total",
		Help:      "Number of requests re-issued with a fresh access token.",
	})

	// RefreshExchanges counts actual refresh calls to the API; with the
	// single-flight coordinator this stays well below the 401 count.
	RefreshExchanges = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clinicclient",
		Subsystem: "refresh",
		Name:      "exchanges_total",
		Help:      "Number of refresh exchanges performed against the clinic API.",
	})

	// RefreshFailures counts refresh exchanges that ended the session.
	RefreshFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clinicclient",
		Subsystem: "refresh",
		Name:      "failures_total",
		Help:      "Number of refresh exchanges that failed and cleared the session.",
	})
)
