package main

import (
	"crypto/rand"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/vetwell/go-clinic-client/clinicapi"
)

const accessTokenTTL = time.Minute

// account is a seeded development login.
type account struct {
	password string
	profile  clinicapi.UserProfile
	pets     []clinicapi.Pet
}

// Server is an in-memory clinic API for local development: real login,
// rotating refresh tokens, short-lived JWT access tokens, and a destination
// page that consumes the post-login handoff flag.
type Server struct {
	router     *mux.Router
	signingKey []byte

	mu            sync.Mutex
	accounts      map[string]*account
	refreshTokens map[string]int64 // refresh token -> user id
	nextPetID     int64
}

func NewServer() (*Server, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, errors.Wrap(err, "[NewServer] signing key")
	}

	s := &Server{
		router:        mux.NewRouter(),
		signingKey:    key,
		accounts:      map[string]*account{},
		refreshTokens: map[string]int64{},
		nextPetID:     100,
	}
	s.seedAccounts()
	s.initRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) initRoutes() {
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc(clinicapi.RouteLogin, s.LoginHandler()).Methods(http.MethodPost)
	s.router.HandleFunc(clinicapi.RouteRefresh, s.RefreshHandler()).Methods(http.MethodPost)
	s.router.HandleFunc(clinicapi.RouteMe, s.MeHandler()).Methods(http.MethodGet)

	s.router.HandleFunc("/owners/{id:[0-9]+}", s.OwnerPageHandler()).Methods(http.MethodGet)
	s.router.HandleFunc("/owners/{id:[0-9]+}/pets", s.ListPetsHandler()).Methods(http.MethodGet)
	s.router.HandleFunc("/owners/{id:[0-9]+}/pets", s.CreatePetHandler()).Methods(http.MethodPost)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", r.Header.Get("X-Request-ID")).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) seedAccounts() {
	s.accounts["ann@vetwell.example"] = &account{
		password: "letmein1",
		profile: clinicapi.UserProfile{
			ID:            7,
			Email:         "ann@vetwell.example",
			Phone:         "+1 555 0107",
			FirstName:     "Ann",
			LastName:      "Whitfield",
			Roles:         []string{"owner"},
			EmailVerified: true,
			CreatedAt:     time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC),
		},
		pets: []clinicapi.Pet{
			{ID: 1, OwnerID: 7, Name: "Bruno", Species: "dog", Breed: "beagle"},
			{ID: 2, OwnerID: 7, Name: "Clio", Species: "cat"},
		},
	}
	s.accounts["vet@vetwell.example"] = &account{
		password: "stethoscope",
		profile: clinicapi.UserProfile{
			ID:        12,
			Email:     "vet@vetwell.example",
			FirstName: "Pri",
			LastName:  "Raman",
			Roles:     []string{"vet", "admin"},
		},
	}
}

// issueTokens mints a short-lived access JWT and a fresh rotating refresh
// token for the user. Caller holds s.mu.
func (s *Server) issueTokens(userID int64) clinicapi.TokenPair {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(accessTokenTTL).Unix(),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		// HS256 signing of marshalable claims cannot fail at runtime.
		panic(err)
	}

	refreshToken := uuid.New().String()
	s.refreshTokens[refreshToken] = userID

	return clinicapi.TokenPair{AccessToken: access, RefreshToken: refreshToken}
}

// userForAccessToken validates the bearer JWT and resolves the account.
func (s *Server) userForAccessToken(raw string) (*clinicapi.UserProfile, bool) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, false
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.accounts {
		if acct.profile.ID == int64(sub) {
			profile := acct.profile
			return &profile, true
		}
	}
	return nil, false
}
