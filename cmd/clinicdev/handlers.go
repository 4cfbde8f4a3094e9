package main

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/vetwell/go-clinic-client/clinicapi"
	"github.com/vetwell/go-clinic-client/handoff"
)

const contentTypeJSON = "application/json; charset=utf-8"

func (s *Server) LoginHandler() http.HandlerFunc {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		acct, ok := s.accounts[strings.ToLower(req.Email)]
		if !ok || acct.password != req.Password {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		writeJSON(w, http.StatusOK, clinicapi.TokenResponse{Tokens: s.issueTokens(acct.profile.ID)})
	}
}

// RefreshHandler rotates the refresh token: the presented token is consumed
// whether or not it was valid, so a token presented twice fails the second
// time.
func (s *Server) RefreshHandler() http.HandlerFunc {
	type request struct {
		RefreshToken string `json:"refresh_token"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		userID, ok := s.refreshTokens[req.RefreshToken]
		delete(s.refreshTokens, req.RefreshToken)
		if !ok {
			writeError(w, http.StatusUnauthorized, "refresh token invalid or already used")
			return
		}
		writeJSON(w, http.StatusOK, clinicapi.TokenResponse{Tokens: s.issueTokens(userID)})
	}
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, ok := s.userForAccessToken(bearerToken(r))
		if !ok {
			writeError(w, http.StatusUnauthorized, "access token invalid or expired")
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

var ownerPageTemplate = template.Must(template.New("owner").Parse(`<!doctype html>
<html>
<head><title>Owner {{.OwnerID}}</title></head>
<body>
{{if .Welcome}}<div class="toast">{{.Welcome}}</div>{{end}}
<h1>Owner record {{.OwnerID}}</h1>
{{if .Welcome}}<script>history.replaceState(null, "", {{.CleanURL}});</script>{{end}}
</body>
</html>`))

// OwnerPageHandler is the post-login destination. When the handoff flag is
// present it renders the welcome toast once and rewrites the URL with
// history.replaceState, so reloading or navigating back shows no toast.
func (s *Server) OwnerPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad owner id")
			return
		}

		var welcome string
		fired, cleaned := handoff.Consume(r.URL)
		if fired {
			profile, _ := s.userForAccessToken(bearerToken(r))
			welcome = handoff.WelcomeMessage(profile)
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = ownerPageTemplate.Execute(w, struct {
			OwnerID  int64
			Welcome  string
			CleanURL string
		}{OwnerID: ownerID, Welcome: welcome, CleanURL: cleaned})
	}
}

func (s *Server) ListPetsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.userForAccessToken(bearerToken(r)); !ok {
			writeError(w, http.StatusUnauthorized, "access token invalid or expired")
			return
		}

		ownerID, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

		s.mu.Lock()
		defer s.mu.Unlock()
		for _, acct := range s.accounts {
			if acct.profile.ID == ownerID {
				writeJSON(w, http.StatusOK, acct.pets)
				return
			}
		}
		writeError(w, http.StatusNotFound, fmt.Sprintf("owner %d not found", ownerID))
	}
}

func (s *Server) CreatePetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.userForAccessToken(bearerToken(r)); !ok {
			writeError(w, http.StatusUnauthorized, "access token invalid or expired")
			return
		}

		var pet clinicapi.Pet
		if err := json.NewDecoder(r.Body).Decode(&pet); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}
		pet.OwnerID, _ = strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

		s.mu.Lock()
		defer s.mu.Unlock()
		for _, acct := range s.accounts {
			if acct.profile.ID == pet.OwnerID {
				s.nextPetID++
				pet.ID = s.nextPetID
				acct.pets = append(acct.pets, pet)
				writeJSON(w, http.StatusCreated, pet)
				return
			}
		}
		writeError(w, http.StatusNotFound, fmt.Sprintf("owner %d not found", pet.OwnerID))
	}
}

func bearerToken(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, clinicapi.ErrorResponse{Message: message})
}
