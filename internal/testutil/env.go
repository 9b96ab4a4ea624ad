package testutil

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bluejays/teamtrack/internal/auth"
	"github.com/bluejays/teamtrack/internal/config"
	"github.com/bluejays/teamtrack/internal/storage/sqlite"
	"github.com/bluejays/teamtrack/internal/team"
)

// CheapParams keep argon2id fast in tests.
var CheapParams = auth.Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

// TestHash hashes secret with CheapParams.
func TestHash(t *testing.T, secret string) string {
	t.Helper()
	hash, err := auth.HashSecretWithParams(secret, CheapParams)
	require.NoError(t, err)
	return hash
}

// NewTestStore opens a SQLite store in a temp dir, closed on cleanup.
func NewTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "teamtrack.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// NewTestService returns a service over a fresh store whose coach passcode is
// TestPasscode.
func NewTestService(t *testing.T) (*team.Service, *sqlite.Store) {
	t.Helper()

	store := NewTestStore(t)
	return team.NewService(store, TestHash(t, TestPasscode)), store
}

// SeedTeam signs in SampleProfiles, promoting coaches, and returns the
// profiles in the same order.
func SeedTeam(t *testing.T, svc *team.Service) []team.Profile {
	t.Helper()

	ctx := context.Background()
	var profiles []team.Profile
	for _, m := range SampleProfiles() {
		p, err := svc.SignIn(ctx, m.Email, m.Name)
		require.NoError(t, err)
		if m.Coach {
			p, err = svc.PromoteCoach(ctx, p.UID, TestPasscode)
			require.NoError(t, err)
		}
		profiles = append(profiles, p)
	}
	return profiles
}

// SetupTestDir writes cfg to .teamtrack/config.yaml under a temp dir and
// returns the dir. A nil cfg writes the defaults.
func SetupTestDir(t *testing.T, cfg *config.Config) string {
	t.Helper()

	if cfg == nil {
		def := config.DefaultConfig()
		cfg = &def
	}
	dir := t.TempDir()
	require.NoError(t, config.SaveConfig(dir, cfg))
	return dir
}

// MustMarshalJSON marshals v to JSON or fails the test.
func MustMarshalJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

// MustUnmarshalJSON unmarshals data into v or fails the test.
func MustUnmarshalJSON(t *testing.T, data []byte, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(data, v))
}
