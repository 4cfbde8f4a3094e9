// Package redistore is the credential store backend for shared-kiosk
// deployments where several front-desk terminals share one signed-in
// session. The pair lives in a single redis hash so it is written and
// cleared as one unit.
package redistore

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/vetwell/go-clinic-client/credstore"
	clienterrors "github.com/vetwell/go-clinic-client/internal/errors"
)

const (
	fieldAccess  = "access_token"
	fieldRefresh = "refresh_token"
)

// Store keeps the credential pair in one redis hash key.
type Store struct {
	rdb *redis.Client
	key string
}

var _ credstore.Store = (*Store)(nil)

// New creates a store over rdb. deviceID scopes the key so terminals bound
// to different devices do not clobber each other.
func New(rdb *redis.Client, deviceID string) *Store {
	return &Store{rdb: rdb, key: "clinic:credentials:" + deviceID}
}

// Save writes both fields with one HSET, so a concurrent Load sees either
// the previous pair or the new one.
func (s *Store) Save(ctx context.Context, pair credstore.Pair) error {
	if err := credstore.ValidatePair(pair); err != nil {
		return err
	}
	err := s.rdb.HSet(ctx, s.key, fieldAccess, pair.AccessToken, fieldRefresh, pair.RefreshToken).Err()
	if err != nil {
		return errors.Wrap(err, "[redistore.Save] HSet")
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (*credstore.Pair, error) {
	fields, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, errors.Wrap(err, "[redistore.Load] HGetAll")
	}
	if len(fields) == 0 {
		return nil, nil
	}
	pair := credstore.Pair{
		AccessToken:  fields[fieldAccess],
		RefreshToken: fields[fieldRefresh],
	}
	if !pair.Complete() {
		return nil, errors.Wrap(clienterrors.ErrPartialCredentials, "[redistore.Load] hash")
	}
	return &pair, nil
}

// Clear deletes the whole hash, the same key Save wrote.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return errors.Wrap(err, "[redistore.Clear] Del")
	}
	return nil
}
