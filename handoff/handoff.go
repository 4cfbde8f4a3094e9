// Package handoff carries the one-shot post-login signal through a
// navigation. The flag lives only in the redirect URL: the destination
// consumes it once, fires the welcome notification, and rewrites the URL in
// place so back-navigation cannot replay it.
package handoff

import (
	"fmt"
	"net/url"

	"github.com/vetwell/go-clinic-client/clinicapi"
)

// Flag is the query parameter carrying the signal. Stable; pages key off it.
const Flag = "loginSuccess"

// RedirectURL builds the post-login destination for the signed-in user:
// the owner page plus the one-shot flag.
func RedirectURL(userID int64) string {
	return fmt.Sprintf("/owners/%d?%s=1", userID, Flag)
}

// Consume checks u for the flag. When present it returns fired=true and the
// same URL with the flag stripped; the caller must apply the cleaned URL
// with a history-replacing rewrite, never a pushing one. A URL without the
// flag comes back unchanged with fired=false.
func Consume(u *url.URL) (fired bool, cleaned string) {
	q := u.Query()
	if q.Get(Flag) == "" {
		return false, u.String()
	}
	q.Del(Flag)

	stripped := *u
	stripped.RawQuery = q.Encode()
	return true, stripped.String()
}

// Notifier receives the one-time welcome notification. Decouples the signal
// from whatever renders it (toast, status line, log).
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) {
	f(message)
}

// WelcomeMessage addresses the signed-in user by display name, with a
// generic greeting when the profile is unavailable.
func WelcomeMessage(profile *clinicapi.UserProfile) string {
	if name := profile.DisplayName(); name != "" {
		return fmt.Sprintf("Welcome back, %s!", name)
	}
	return "Welcome back!"
}
