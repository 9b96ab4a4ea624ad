package server

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluejays/teamtrack/internal/config"
	"github.com/bluejays/teamtrack/internal/drill"
	"github.com/bluejays/teamtrack/internal/team"
	"github.com/bluejays/teamtrack/internal/testutil"
)

type testEnv struct {
	srv    *Server
	ts     *httptest.Server
	svc    *team.Service
	clock  *drill.ManualClock
	client *http.Client
}

// newTestEnv serves a Server over httptest with a 10-number, 5-second drill
// driven by a manual clock.
func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()

	svc, _ := testutil.NewTestService(t)
	clock := drill.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	opts := drill.DefaultOptions()
	opts.GridSize = 10
	opts.Duration = 5
	opts.Clock = clock

	cfg := &Config{
		AllowGuests: true,
		TokenTTL:    time.Hour,
		Drill:       opts,
		RateLimit:   RateLimitConfig{MaxAttempts: 100, Window: time.Minute, BlockAfter: 100, BlockTime: time.Minute},
	}
	if mutate != nil {
		mutate(cfg)
	}

	srv, err := NewServer(cfg, svc)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	client := ts.Client()
	t.Cleanup(func() {
		client.CloseIdleConnections()
		ts.Close()
	})
	t.Cleanup(func() { require.NoError(t, srv.Stop()) })

	return &testEnv{srv: srv, ts: ts, svc: svc, clock: clock, client: client}
}

// call sends a JSON request and returns the status and body.
func (e *testEnv) call(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			r = bytes.NewBufferString(b)
		default:
			r = bytes.NewReader(testutil.MustMarshalJSON(t, b))
		}
	}
	req, err := http.NewRequest(method, e.ts.URL+path, r)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

// signIn signs in email and returns the token and profile.
func (e *testEnv) signIn(t *testing.T, email string) (string, team.Profile) {
	t.Helper()

	status, body := e.call(t, http.MethodPost, "/auth", "", authRequest{Email: email})
	require.Equal(t, http.StatusOK, status, string(body))

	var resp authResponse
	testutil.MustUnmarshalJSON(t, body, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token, resp.Profile
}

func TestNewServer(t *testing.T) {
	svc, _ := testutil.NewTestService(t)
	valid := func() *Config {
		return &Config{TokenTTL: time.Hour, Drill: drill.DefaultOptions()}
	}

	tests := []struct {
		name    string
		cfg     *Config
		svc     *team.Service
		wantErr string
	}{
		{name: "nil config", cfg: nil, svc: svc, wantErr: "config is required"},
		{name: "nil service", cfg: valid(), svc: nil, wantErr: "team service is required"},
		{name: "zero ttl", cfg: &Config{Drill: drill.DefaultOptions()}, svc: svc, wantErr: "token ttl"},
		{name: "zero duration", cfg: &Config{TokenTTL: time.Hour}, svc: svc, wantErr: "drill duration"},
		{name: "valid", cfg: valid(), svc: svc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, err := NewServer(tt.cfg, tt.svc)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NoError(t, srv.Stop())
		})
	}
}

func TestNewServerFromConfig(t *testing.T) {
	svc, _ := testutil.NewTestService(t)

	cfg := config.DefaultConfig()
	cfg.Server.Port = 9999
	cfg.Drill.GridSize = 25
	cfg.Drill.DurationSeconds = 60

	srv, err := NewServerFromConfig(&cfg, svc)
	require.NoError(t, err)
	defer srv.Stop()

	assert.Equal(t, 9999, srv.Port())
	assert.Equal(t, 25, srv.cfg.Drill.GridSize)
	assert.Equal(t, 60, srv.cfg.Drill.Duration)

	_, err = NewServerFromConfig(nil, svc)
	assert.Error(t, err)
}

func TestServerStartStop(t *testing.T) {
	svc, _ := testutil.NewTestService(t)
	srv, err := NewServer(&Config{Port: 0, TokenTTL: time.Hour, Drill: drill.DefaultOptions()}, svc)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	require.Eventually(t, func() bool { return srv.ListenAddr() != "" }, 2*time.Second, 10*time.Millisecond)

	client := &http.Client{}
	defer client.CloseIdleConnections()
	resp, err := client.Get("http://" + srv.ListenAddr() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Cancelling the context stops the server.
	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not exit in time")
	}
	require.NoError(t, srv.Stop())
}

func TestServerDoubleStart(t *testing.T) {
	svc, _ := testutil.NewTestService(t)
	srv, err := NewServer(&Config{Port: 0, TokenTTL: time.Hour, Drill: drill.DefaultOptions()}, svc)
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(context.Background()) }()
	require.Eventually(t, func() bool { return srv.ListenAddr() != "" }, 2*time.Second, 10*time.Millisecond)

	err = srv.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")

	require.NoError(t, srv.Stop())
	assert.NoError(t, <-errCh)
}

func TestServerStopNotStarted(t *testing.T) {
	svc, _ := testutil.NewTestService(t)
	srv, err := NewServer(&Config{TokenTTL: time.Hour, Drill: drill.DefaultOptions()}, svc)
	require.NoError(t, err)

	require.NoError(t, srv.Stop())
	require.NoError(t, srv.Stop())
}

func TestHealthAndStatic(t *testing.T) {
	env := newTestEnv(t, nil)

	status, body := env.call(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok","drills":0}`, string(body))

	status, body = env.call(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "teamtrack")

	status, _ = env.call(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.call(t, http.MethodGet, "/auth", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestStatic_CustomAssets(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) {
		cfg.Assets = fstest.MapFS{
			"index.html": &fstest.MapFile{Data: []byte("<html>custom client</html>")},
		}
	})

	status, body := env.call(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "<html>custom client</html>", string(body))
}
