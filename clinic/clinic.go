// Package clinic wires the session layer together: stores, transport,
// refresh coordinator, API client and session manager, from configuration.
package clinic

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/vetwell/go-clinic-client/clinicapi"
	"github.com/vetwell/go-clinic-client/credstore"
	"github.com/vetwell/go-clinic-client/credstore/filestore"
	"github.com/vetwell/go-clinic-client/credstore/memstore"
	"github.com/vetwell/go-clinic-client/credstore/redistore"
	"github.com/vetwell/go-clinic-client/internal/config"
	"github.com/vetwell/go-clinic-client/refresh"
	"github.com/vetwell/go-clinic-client/session"
	"github.com/vetwell/go-clinic-client/transport"
)

// Client is the assembled session layer.
type Client struct {
	Session  *session.Manager
	API      *clinicapi.Client
	HTTP     *http.Client
	DeviceID string
}

// New assembles the client from configuration. The durable credential
// backend is redis when a redis address is configured (shared-kiosk
// deployments), otherwise the encrypted file store.
func New(cfg config.Config, options ...session.Option) (*Client, error) {
	files, err := filestore.New(cfg.GetDataDir())
	if err != nil {
		return nil, errors.Wrap(err, "[clinic.New] file store")
	}
	deviceID, err := files.DeviceID()
	if err != nil {
		return nil, errors.Wrap(err, "[clinic.New] device id")
	}

	var durable credstore.Store = files
	if addr := cfg.GetRedisAddr(); addr != "" {
		durable = redistore.New(redis.NewClient(&redis.Options{Addr: addr}), deviceID)
	}

	stores := session.Stores{
		Active:    session.NewActiveStore(durable),
		Durable:   durable,
		Ephemeral: memstore.New(),
	}

	// The refresh exchange and login must not themselves ride the retrying
	// pipeline, so the coordinator gets a bare client.
	bare, err := clinicapi.New(cfg.GetBaseURL(), &http.Client{Timeout: cfg.GetHTTPTimeout()})
	if err != nil {
		return nil, errors.Wrap(err, "[clinic.New] bare api client")
	}
	coordinator, err := refresh.New(bare, stores.Active)
	if err != nil {
		return nil, errors.Wrap(err, "[clinic.New] refresh coordinator")
	}

	httpClient := transport.New(stores.Active, coordinator, cfg.GetHTTPTimeout(), transport.WithDeviceID(deviceID))
	api, err := clinicapi.New(cfg.GetBaseURL(), httpClient)
	if err != nil {
		return nil, errors.Wrap(err, "[clinic.New] api client")
	}

	manager, err := session.NewManager(api, stores, options...)
	if err != nil {
		return nil, errors.Wrap(err, "[clinic.New] session manager")
	}
	coordinator.OnSessionExpired(manager.HandleSessionExpired)

	return &Client{
		Session:  manager,
		API:      api,
		HTTP:     httpClient,
		DeviceID: deviceID,
	}, nil
}
