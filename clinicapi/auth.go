package clinicapi

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/vetwell/go-clinic-client/credstore"
	clienterrors "github.com/vetwell/go-clinic-client/internal/errors"
	"github.com/vetwell/go-clinic-client/transport"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Login exchanges credentials for a token pair. A 401 here means the
// credentials were rejected, not that a stored token expired, so the call is
// exempt from the pipeline's refresh handling.
func (c *Client) Login(ctx context.Context, email, password string) (credstore.Pair, error) {
	var resp TokenResponse
	err := c.Do(transport.WithoutRefresh(ctx), http.MethodPost, RouteLogin, loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Status >= 400 && se.Status < 500 {
			return credstore.Pair{}, errors.Wrap(clienterrors.ErrInvalidCredentials, se.Error())
		}
		return credstore.Pair{}, errors.Wrap(err, "[Client.Login]")
	}

	pair := credstore.Pair(resp.Tokens)
	if !pair.Complete() {
		return credstore.Pair{}, errors.Wrap(clienterrors.ErrMalformedTokens, "[Client.Login] response")
	}
	return pair, nil
}

// ExchangeRefreshToken presents a refresh token for a new pair. Implements
// refresh.Exchanger. Exempt from the pipeline's 401 handling for the same
// reason as Login.
func (c *Client) ExchangeRefreshToken(ctx context.Context, refreshToken string) (credstore.Pair, error) {
	var resp TokenResponse
	err := c.Do(transport.WithoutRefresh(ctx), http.MethodPost, RouteRefresh, refreshRequest{RefreshToken: refreshToken}, &resp)
	if err != nil {
		return credstore.Pair{}, errors.Wrap(err, "[Client.ExchangeRefreshToken]")
	}

	pair := credstore.Pair(resp.Tokens)
	if !pair.Complete() {
		return credstore.Pair{}, errors.Wrap(clienterrors.ErrMalformedTokens, "[Client.ExchangeRefreshToken] response")
	}
	return pair, nil
}

// Me fetches the profile of the signed-in user. Goes through the full
// pipeline, so an expired access token is refreshed transparently.
func (c *Client) Me(ctx context.Context) (*UserProfile, error) {
	var profile UserProfile
	if err := c.Do(ctx, http.MethodGet, RouteMe, nil, &profile); err != nil {
		return nil, errors.Wrap(err, "[Client.Me]")
	}
	return &profile, nil
}
