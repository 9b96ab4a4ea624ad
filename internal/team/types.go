package team

import (
	"slices"
	"time"
)

// Role is a team member's role.
type Role string

// Role values.
const (
	RoleAthlete Role = "athlete"
	RoleCoach   Role = "coach"
)

// Unassigned is the weight class of a member who hasn't picked one.
const Unassigned = "Unassigned"

// GuestName is the display name given to guest sign-ins.
const GuestName = "Athlete"

// WeightClasses are the selectable weight classes in pounds.
var WeightClasses = []string{
	"100", "107", "114", "120", "126", "132",
	"138", "145", "152", "165", "185", "235",
}

// ValidWeightClass reports whether c is Unassigned or a known class.
func ValidWeightClass(c string) bool {
	return c == Unassigned || slices.Contains(WeightClasses, c)
}

// Profile is a team member's user document.
type Profile struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        Role      `json:"role"`
	WeightClass string    `json:"weight_class"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsCoach reports whether the profile has the coach role.
func (p Profile) IsCoach() bool {
	return p.Role == RoleCoach
}

// RosterEntry is the denormalized view of a member shown to coaches.
type RosterEntry struct {
	UID         string `json:"uid"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	WeightClass string `json:"weight_class"`
}

// Entry returns the roster entry mirroring p.
func (p Profile) Entry() RosterEntry {
	return RosterEntry{
		UID:         p.UID,
		Name:        p.Name,
		Email:       p.Email,
		WeightClass: p.WeightClass,
	}
}

// WeightLog is one weigh-in.
type WeightLog struct {
	ID     string    `json:"id"`
	UID    string    `json:"uid"`
	Date   time.Time `json:"date"`
	Weight float64   `json:"weight"`
	Notes  string    `json:"notes,omitempty"`
}

// FocusLog is the score of one completed or expired focus drill.
type FocusLog struct {
	ID    string    `json:"id"`
	UID   string    `json:"uid"`
	Date  time.Time `json:"date"`
	Score int       `json:"score"`
}

// Update is a partial profile update. Nil fields are left unchanged.
type Update struct {
	Name        *string `json:"name,omitempty"`
	WeightClass *string `json:"weight_class,omitempty"`
}
