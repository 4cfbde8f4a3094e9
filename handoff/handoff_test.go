package handoff_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vetwell/go-clinic-client/clinicapi"
	"github.com/vetwell/go-clinic-client/handoff"
)

func TestRedirectURLCarriesFlag(t *testing.T) {
	target := handoff.RedirectURL(7)
	require.Equal(t, "/owners/7?loginSuccess=1", target)

	u, err := url.Parse(target)
	require.NoError(t, err)
	require.Equal(t, "1", u.Query().Get(handoff.Flag))
}

func TestConsumeFiresOnceAndStripsFlag(t *testing.T) {
	u, err := url.Parse("/owners/7?loginSuccess=1")
	require.NoError(t, err)

	fired, cleaned := handoff.Consume(u)
	require.True(t, fired)
	require.Equal(t, "/owners/7", cleaned)

	// The rewritten URL no longer carries the flag, so a reload of the same
	// page fires nothing.
	reloaded, err := url.Parse(cleaned)
	require.NoError(t, err)
	fired, cleaned = handoff.Consume(reloaded)
	require.False(t, fired)
	require.Equal(t, "/owners/7", cleaned)
}

func TestConsumePreservesOtherQueryParams(t *testing.T) {
	u, err := url.Parse("/owners/7?tab=pets&loginSuccess=1")
	require.NoError(t, err)

	fired, cleaned := handoff.Consume(u)
	require.True(t, fired)
	require.Equal(t, "/owners/7?tab=pets", cleaned)
}

func TestConsumeWithoutFlag(t *testing.T) {
	u, err := url.Parse("/owners/7")
	require.NoError(t, err)

	fired, cleaned := handoff.Consume(u)
	require.False(t, fired)
	require.Equal(t, "/owners/7", cleaned)
}

func TestWelcomeMessage(t *testing.T) {
	profile := &clinicapi.UserProfile{ID: 7, FirstName: "Ann"}
	require.Equal(t, "Welcome back, Ann!", handoff.WelcomeMessage(profile))
}

func TestWelcomeMessageFallsBackToEmail(t *testing.T) {
	profile := &clinicapi.UserProfile{ID: 7, Email: "ann@vetwell.example"}
	require.Equal(t, "Welcome back, ann@vetwell.example!", handoff.WelcomeMessage(profile))
}

func TestWelcomeMessageWithoutProfile(t *testing.T) {
	require.Equal(t, "Welcome back!", handoff.WelcomeMessage(nil))
}

func TestNotifierFunc(t *testing.T) {
	var got string
	handoff.NotifierFunc(func(message string) { got = message }).Notify("hello")
	require.Equal(t, "hello", got)
}
