package testutil

import (
	"time"

	"github.com/bluejays/teamtrack/internal/team"
)

// Plaintext secrets used by test configurations.
const (
	TestPasscode     = "takedown"
	TestTeamPassword = "go-bluejays"
)

// SampleDate is the date the sample weigh-ins start from.
var SampleDate = time.Date(2024, time.January, 8, 6, 30, 0, 0, time.UTC)

// SampleMember describes a member to sign in.
type SampleMember struct {
	Email string
	Name  string
	Coach bool
}

// SampleProfiles returns the members SeedTeam signs in.
// Returns a new slice each time to prevent test interference.
func SampleProfiles() []SampleMember {
	return []SampleMember{
		{Email: "maya.ortiz@example.com", Name: "Maya Ortiz"},
		{Email: "dev.patel@example.com", Name: "Dev Patel"},
		{Email: "coach.reyes@example.com", Name: "Coach Reyes", Coach: true},
	}
}

// SampleWeights returns a week of weigh-ins for uid, oldest first.
func SampleWeights(uid string) []team.WeightLog {
	weights := []float64{151.4, 150.8, 150.2, 149.6, 149.8, 148.9, 148.2}
	logs := make([]team.WeightLog, len(weights))
	for i, w := range weights {
		logs[i] = team.WeightLog{
			UID:    uid,
			Date:   SampleDate.AddDate(0, 0, i),
			Weight: w,
		}
	}
	logs[len(logs)-1].Notes = "weigh-in day"
	return logs
}

// SampleScores are focus drill scores, oldest first.
var SampleScores = []int{31, 38, 44, 42, 57}
