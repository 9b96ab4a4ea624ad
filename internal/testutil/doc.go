// Package testutil provides shared test helpers for teamtrack.
//
// # Fixtures
//
// The fixtures.go file provides sample data:
//
//   - SampleProfiles() - an athlete, a second athlete and a coach
//   - SampleWeights(uid) - a week of weigh-ins, oldest first
//   - SampleScores - focus drill scores, oldest first
//   - TestPasscode, TestTeamPassword - plaintext secrets matching the hashes
//     produced by TestHash
//
// # Environment Helpers
//
// The env.go file provides test environment setup:
//
//   - NewTestStore(t) - opens a SQLite store in a temp dir
//   - NewTestService(t) - a team.Service over NewTestStore with TestPasscode
//   - SeedTeam(t, svc) - signs in SampleProfiles and promotes the coach
//   - SetupTestDir(t, cfg) - writes .teamtrack/config.yaml into a temp dir
//   - TestHash(t, secret) - argon2id hash with cheap parameters
//   - MustMarshalJSON(t, v), MustUnmarshalJSON(t, data, v)
//
// # Assertions
//
// The assertions.go file provides drill-view assertions:
//
//   - AssertPermutation(t, grid, n) - grid holds each of 0..n-1 exactly once
//   - AssertCellCounts(t, view, found, current, pending)
//   - AssertScore(t, view, score) - finished view carries score
//
// # Usage
//
//	func TestSomething(t *testing.T) {
//	    svc, store := testutil.NewTestService(t)
//	    members := testutil.SeedTeam(t, svc)
//	    // ... run test ...
//	}
package testutil
