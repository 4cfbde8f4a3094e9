// Package refresh owns the token-refresh exchange. At most one exchange is
// in flight at any time; every 401 observed while it runs is served by its
// single result. Only the coordinator writes the credential store during a
// refresh.
package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/vetwell/go-clinic-client/credstore"
	clienterrors "github.com/vetwell/go-clinic-client/internal/errors"
	"github.com/vetwell/go-clinic-client/internal/metrics"
)

// Exchanger performs the network half of a refresh: presenting the refresh
// token and receiving a new pair.
type Exchanger interface {
	ExchangeRefreshToken(ctx context.Context, refreshToken string) (credstore.Pair, error)
}

// Coordinator serialises refresh exchanges. Concurrent callers attach to the
// outstanding exchange instead of starting their own; once it settles a new
// one may begin.
type Coordinator struct {
	exchanger Exchanger
	store     credstore.Store
	group     singleflight.Group

	mu        sync.RWMutex
	onExpired func()
}

// New creates a Coordinator over the given exchanger and store.
func New(exchanger Exchanger, store credstore.Store) (*Coordinator, error) {
	if exchanger == nil {
		return nil, errors.New("[refresh.New] exchanger is required")
	}
	if store == nil {
		return nil, errors.New("[refresh.New] store is required")
	}
	return &Coordinator{exchanger: exchanger, store: store}, nil
}

// OnSessionExpired registers the callback run when a refresh fails
// unrecoverably and the credentials have been cleared.
func (c *Coordinator) OnSessionExpired(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExpired = fn
}

// Refresh returns a fresh credential pair, joining the in-flight exchange if
// one exists. The exchange runs detached from any single caller's context so
// an abandoned request cannot fail the exchange for the callers still
// waiting on it.
func (c *Coordinator) Refresh(ctx context.Context) (credstore.Pair, error) {
	v, err, shared := c.group.Do("refresh", func() (interface{}, error) {
		return c.exchange(context.WithoutCancel(ctx))
	})
	if err != nil {
		return credstore.Pair{}, err
	}
	if shared {
		log.Debug().Msg("refresh result shared with concurrent caller")
	}
	return v.(credstore.Pair), nil
}

func (c *Coordinator) exchange(ctx context.Context) (credstore.Pair, error) {
	stored, err := c.store.Load(ctx)
	if err != nil {
		return credstore.Pair{}, errors.Wrap(err, "[Coordinator.exchange] load")
	}
	if stored == nil {
		return credstore.Pair{}, clienterrors.ErrNoStoredCredentials
	}

	metrics.RefreshExchanges.Inc()
	fresh, err := c.exchanger.ExchangeRefreshToken(ctx, stored.RefreshToken)
	if err == nil && !fresh.Complete() {
		err = clienterrors.ErrMalformedTokens
	}
	if err != nil {
		metrics.RefreshFailures.Inc()
		log.Warn().Err(err).Msg("refresh exchange failed, ending session")
		if clearErr := c.store.Clear(ctx); clearErr != nil {
			log.Error().Err(clearErr).Msg("clearing credentials after failed refresh")
		}
		c.notifyExpired()
		return credstore.Pair{}, errors.Wrap(clienterrors.ErrSessionExpired, err.Error())
	}

	if err := c.store.Save(ctx, fresh); err != nil {
		return credstore.Pair{}, errors.Wrap(err, "[Coordinator.exchange] save")
	}

	if exp, ok := credstore.AccessTokenExpiry(fresh.AccessToken); ok {
		log.Debug().Time("expires_at", exp).Dur("in", time.Until(exp)).Msg("access token refreshed")
	} else {
		log.Debug().Msg("access token refreshed")
	}
	return fresh, nil
}

func (c *Coordinator) notifyExpired() {
	c.mu.RLock()
	fn := c.onExpired
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}
