package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapcal/registrar/internal/config"
	"github.com/snapcal/registrar/internal/http/services"
	"github.com/snapcal/registrar/internal/http/services/link"
	"github.com/snapcal/registrar/internal/notify"
	"github.com/snapcal/registrar/internal/store/memory"
)

type stubProvider struct{}

func (stubProvider) AuthURL(ctx context.Context, state string) (string, error) {
	return "https://accounts.google.com/o/oauth2/v2/auth?state=" + state, nil
}

func (stubProvider) Exchange(ctx context.Context, code string) (*link.ProviderIdentity, error) {
	return &link.ProviderIdentity{
		Subject:       "sub-1",
		Email:         "ana@gmail.com",
		EmailVerified: true,
	}, nil
}

func newTestServer(t *testing.T, provider link.ProviderClient) *httptest.Server {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.AdminAPIKey = "test-admin-key"
	cfg.Rate.StartPerMinute = 600
	cfg.Rate.StartBurst = 100

	svcs := services.New(services.Deps{
		Sessions:        memory.NewSessionStore(),
		Identities:      memory.NewIdentityStore(),
		Provider:        provider,
		Notifier:        notify.Noop{},
		SessionTTL:      10 * time.Minute,
		ExchangeTimeout: 5 * time.Second,
	})

	srv := httptest.NewServer(New(cfg, svcs))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, stubProvider{})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestLinkFlow_EndToEnd(t *testing.T) {
	srv := newTestServer(t, stubProvider{})

	// 1. Start the handshake.
	resp := postJSON(t, srv.URL+"/v1/link/start", `{"external_id":"discord-1","display_name":"Ana"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var start struct {
		AuthorizationURL string `json:"authorization_url"`
		State            string `json:"state"`
	}
	decode(t, resp, &start)
	require.NotEmpty(t, start.State)
	assert.Contains(t, start.AuthorizationURL, "state="+start.State)

	// 2. Provider redirects back with code and state.
	cb, err := http.Get(srv.URL + "/v1/link/callback?code=code-1&state=" + start.State)
	require.NoError(t, err)
	cb.Body.Close()
	assert.Equal(t, http.StatusOK, cb.StatusCode)
	assert.Equal(t, "no-store", cb.Header.Get("Cache-Control"))

	// 3. The identity is registered now.
	st, err := http.Get(srv.URL + "/v1/identities/discord-1/status")
	require.NoError(t, err)
	defer st.Body.Close()
	var status struct {
		Registered  bool   `json:"registered"`
		ActiveEmail string `json:"active_email"`
	}
	decode(t, st, &status)
	assert.True(t, status.Registered)
	assert.Equal(t, "ana@gmail.com", status.ActiveEmail)

	// 4. A replayed callback must not succeed.
	replay, err := http.Get(srv.URL + "/v1/link/callback?code=code-1&state=" + start.State)
	require.NoError(t, err)
	replay.Body.Close()
	assert.Equal(t, http.StatusBadRequest, replay.StatusCode)
}

func TestStart_MissingExternalID(t *testing.T) {
	srv := newTestServer(t, stubProvider{})

	resp := postJSON(t, srv.URL+"/v1/link/start", `{"display_name":"Ana"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Code string `json:"code"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "BAD_REQUEST", body.Code)
}

func TestStart_WithoutProviderCredentials(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := postJSON(t, srv.URL+"/v1/link/start", `{"external_id":"discord-1"}`)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body struct {
		Code string `json:"code"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "CONFIGURATION_MISSING", body.Code)
}

func TestAccounts_SwitchActive(t *testing.T) {
	srv := newTestServer(t, stubProvider{})

	// Listing before any link yields an empty list, not an error.
	empty, err := http.Get(srv.URL + "/v1/identities/discord-1/accounts")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, empty.StatusCode)
	var emptyBody struct {
		Accounts []any `json:"accounts"`
	}
	decode(t, empty, &emptyBody)
	empty.Body.Close()
	assert.Empty(t, emptyBody.Accounts)

	resp := postJSON(t, srv.URL+"/v1/link/start", `{"external_id":"discord-1"}`)
	var start struct {
		State string `json:"state"`
	}
	decode(t, resp, &start)
	cb, err := http.Get(srv.URL + "/v1/link/callback?code=code-1&state=" + start.State)
	require.NoError(t, err)
	cb.Body.Close()

	// Out-of-range switch names the valid range.
	bad := postJSON(t, srv.URL+"/v1/identities/discord-1/active", `{"position":5}`)
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
	var badBody struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	}
	decode(t, bad, &badBody)
	assert.Equal(t, "POSITION_OUT_OF_RANGE", badBody.Code)
	assert.Contains(t, badBody.Detail, "1..1")

	// Valid switch.
	ok := postJSON(t, srv.URL+"/v1/identities/discord-1/active", `{"position":1}`)
	assert.Equal(t, http.StatusOK, ok.StatusCode)
	var switched struct {
		Switched struct {
			Position      int    `json:"position"`
			ProviderEmail string `json:"provider_email"`
			IsActive      bool   `json:"is_active"`
		} `json:"switched"`
	}
	decode(t, ok, &switched)
	assert.Equal(t, 1, switched.Switched.Position)
	assert.True(t, switched.Switched.IsActive)
}

func TestAdminSweep_RequiresKey(t *testing.T) {
	srv := newTestServer(t, stubProvider{})

	noKey, err := http.Post(srv.URL+"/v1/admin/sessions/sweep", "application/json", nil)
	require.NoError(t, err)
	noKey.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, noKey.StatusCode)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/admin/sessions/sweep", nil)
	require.NoError(t, err)
	req.Header.Set("X-Admin-Key", "test-admin-key")
	withKey, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer withKey.Body.Close()
	assert.Equal(t, http.StatusOK, withKey.StatusCode)

	var body struct {
		Deleted int `json:"deleted"`
	}
	decode(t, withKey, &body)
	assert.GreaterOrEqual(t, body.Deleted, 0)
}
