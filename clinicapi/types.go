package clinicapi

import (
	"time"
)

// TokenPair is the credential pair issued by the clinic API on login and
// refresh. Both fields are always present together in a well-formed response.
type TokenPair struct {
	// AccessToken is the short-lived JWT attached to each authorized request.
	// Usage: Include in Authorization header: "Bearer <access_token>"
	AccessToken string `json:"access_token"`

	// RefreshToken is an opaque token exchanged for a new pair when the
	// access token expires. Rotates on each use.
	RefreshToken string `json:"refresh_token"`
}

// Complete reports whether both halves of the pair are present.
func (p TokenPair) Complete() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// TokenResponse is the envelope returned by /auth/login and /auth/refresh.
type TokenResponse struct {
	Tokens TokenPair `json:"tokens"`
}

// UserProfile is the record returned by /auth/me. Its shape is owned by the
// clinic API; fields the client does not recognise are ignored.
type UserProfile struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	FirstName     string    `json:"first_name,omitempty"`
	LastName      string    `json:"last_name,omitempty"`
	Roles         []string  `json:"roles,omitempty"`
	EmailVerified bool      `json:"email_verified,omitempty"`
	PhoneVerified bool      `json:"phone_verified,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
}

// DisplayName returns the user's first name, falling back through the full
// email address so callers always have something addressable.
func (u *UserProfile) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Email
}

// Owner is a pet owner record.
type Owner struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Pet is a patient record belonging to an owner.
type Pet struct {
	ID      int64  `json:"id"`
	OwnerID int64  `json:"owner_id"`
	Name    string `json:"name"`
	Species string `json:"species,omitempty"`
	Breed   string `json:"breed,omitempty"`
}

// ErrorResponse is the error payload returned by the clinic API.
type ErrorResponse struct {
	Message string `json:"message"`
}
