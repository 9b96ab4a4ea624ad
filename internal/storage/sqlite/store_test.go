package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluejays/teamtrack/internal/team"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "team.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

var created = time.Date(2024, time.February, 3, 7, 30, 0, 0, time.UTC)

func profile(uid, email, name string) team.Profile {
	return team.Profile{
		UID:         uid,
		Email:       email,
		Name:        name,
		Role:        team.RoleAthlete,
		WeightClass: team.Unassigned,
		CreatedAt:   created,
	}
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), " ")
	assert.Error(t, err)
}

func TestOpen_Reopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "team.db")

	first, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.CreateProfile(ctx, profile("u1", "a@example.com", "A")))
	require.NoError(t, first.Close())

	second, err := Open(ctx, path)
	require.NoError(t, err)
	defer second.Close()

	p, err := second.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "A", p.Name)
	require.NoError(t, second.Ping(ctx))
}

func TestProfileRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTempStore(t)

	in := profile("u1", "sam@example.com", "Sam")
	require.NoError(t, store.CreateProfile(ctx, in))

	got, err := store.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, in, got)

	byEmail, err := store.FindProfileByEmail(ctx, "sam@example.com")
	require.NoError(t, err)
	assert.Equal(t, in, byEmail)

	_, err = store.GetProfile(ctx, "missing")
	assert.ErrorIs(t, err, team.ErrNotFound)
	_, err = store.FindProfileByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, team.ErrNotFound)
	_, err = store.FindProfileByEmail(ctx, "")
	assert.ErrorIs(t, err, team.ErrNotFound)
}

func TestCreateProfile_Conflicts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTempStore(t)

	require.NoError(t, store.CreateProfile(ctx, profile("u1", "sam@example.com", "Sam")))

	err := store.CreateProfile(ctx, profile("u1", "other@example.com", "Other"))
	assert.ErrorIs(t, err, team.ErrConflict)

	err = store.CreateProfile(ctx, profile("u2", "sam@example.com", "Sam Two"))
	assert.ErrorIs(t, err, team.ErrConflict)

	// Guests have no email and never collide.
	require.NoError(t, store.CreateProfile(ctx, profile("g1", "", team.GuestName)))
	require.NoError(t, store.CreateProfile(ctx, profile("g2", "", team.GuestName)))
}

func TestSaveProfile_SyncsRoster(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTempStore(t)

	p := profile("u1", "sam@example.com", "Sam")
	require.NoError(t, store.CreateProfile(ctx, p))

	roster, err := store.ListRoster(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, team.Unassigned, roster[0].WeightClass)

	p.Name = "Samuel"
	p.WeightClass = "132"
	p.Role = team.RoleCoach
	require.NoError(t, store.SaveProfile(ctx, p))

	got, err := store.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, team.RoleCoach, got.Role)

	roster, err = store.ListRoster(ctx)
	require.NoError(t, err)
	assert.Equal(t, []team.RosterEntry{{UID: "u1", Name: "Samuel", Email: "sam@example.com", WeightClass: "132"}}, roster)

	err = store.SaveProfile(ctx, profile("ghost", "", "Ghost"))
	assert.ErrorIs(t, err, team.ErrNotFound)
}

func TestListRoster_OrderedByName(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTempStore(t)

	require.NoError(t, store.CreateProfile(ctx, profile("u1", "", "zoe")))
	require.NoError(t, store.CreateProfile(ctx, profile("u2", "", "Adam")))
	require.NoError(t, store.CreateProfile(ctx, profile("u3", "", "bea")))

	roster, err := store.ListRoster(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 3)
	assert.Equal(t, "Adam", roster[0].Name)
	assert.Equal(t, "bea", roster[1].Name)
	assert.Equal(t, "zoe", roster[2].Name)
}

func TestWeights(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTempStore(t)
	require.NoError(t, store.CreateProfile(ctx, profile("u1", "", "A")))
	require.NoError(t, store.CreateProfile(ctx, profile("u2", "", "B")))

	for i, w := range []float64{150.5, 149.0, 148.2} {
		require.NoError(t, store.AddWeight(ctx, team.WeightLog{
			ID:     string(rune('a' + i)),
			UID:    "u1",
			Date:   created.Add(time.Duration(i) * 24 * time.Hour),
			Weight: w,
			Notes:  "cut",
		}))
	}
	require.NoError(t, store.AddWeight(ctx, team.WeightLog{ID: "z", UID: "u2", Date: created, Weight: 200}))

	logs, err := store.ListWeights(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, 148.2, logs[0].Weight)
	assert.Equal(t, 150.5, logs[2].Weight)
	assert.Equal(t, created.Add(48*time.Hour), logs[0].Date)
	assert.Equal(t, "cut", logs[0].Notes)

	limited, err := store.ListWeights(ctx, "u1", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	none, err := store.ListWeights(ctx, "nobody", 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	err = store.AddWeight(ctx, team.WeightLog{ID: "bad", UID: "u1", Date: created, Weight: 0})
	assert.Error(t, err)
}

func TestFocus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTempStore(t)
	require.NoError(t, store.CreateProfile(ctx, profile("u1", "", "A")))

	require.NoError(t, store.AddFocus(ctx, team.FocusLog{ID: "f1", UID: "u1", Date: created, Score: 40}))
	require.NoError(t, store.AddFocus(ctx, team.FocusLog{ID: "f2", UID: "u1", Date: created, Score: 55}))

	logs, err := store.ListFocus(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	// Same timestamp: insertion order breaks the tie.
	assert.Equal(t, 55, logs[0].Score)
	assert.Equal(t, 40, logs[1].Score)

	err = store.AddFocus(ctx, team.FocusLog{ID: "f3", UID: "nobody", Date: created, Score: 1})
	assert.Error(t, err, "foreign key should reject unknown users")
}

func TestApplyMigrations_Idempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := openTempStore(t)

	fsys := fstest.MapFS{
		"0001_extra.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE extra (id INTEGER);\n-- +migrate Down\nDROP TABLE extra;\n")},
		"README.md":      {Data: []byte("ignored")},
	}
	require.NoError(t, applyMigrations(ctx, store.db, fsys))
	require.NoError(t, applyMigrations(ctx, store.db, fsys))

	var count int
	require.NoError(t, store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM schema_migrations WHERE name = ?`, "0001_extra.sql").Scan(&count))
	assert.Equal(t, 1, count)

	_, err := store.db.ExecContext(ctx, `INSERT INTO extra (id) VALUES (1)`)
	require.NoError(t, err)
}

func TestApplyMigrations_FailureRollsBack(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	defer db.Close()

	fsys := fstest.MapFS{"0001_bad.sql": {Data: []byte("CREATE TABLE broken (")}}
	err = applyMigrations(ctx, db, fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0001_bad.sql")

	applied, err := isApplied(ctx, db, "0001_bad.sql")
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestUpSection(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "\nA;\n", upSection("-- +migrate Up\nA;\n-- +migrate Down\nB;"))
	assert.Equal(t, "\nA;", upSection("-- +migrate Up\nA;"))
	assert.Equal(t, "A;", upSection("A;"))
}
