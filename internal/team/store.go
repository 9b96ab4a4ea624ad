package team

import (
	"context"
	"errors"
)

// Sentinel errors shared by the service and store implementations.
var (
	ErrNotFound    = errors.New("not found")
	ErrForbidden   = errors.New("forbidden")
	ErrBadPasscode = errors.New("incorrect passcode")
	ErrInvalid     = errors.New("invalid input")
	ErrConflict    = errors.New("already exists")
)

// Store persists team documents.
//
// CreateProfile returns ErrConflict when the uid or email is taken.
// CreateProfile and SaveProfile write the profile and its roster entry
// atomically. List methods return newest first; limit <= 0 means no limit.
type Store interface {
	GetProfile(ctx context.Context, uid string) (Profile, error)
	FindProfileByEmail(ctx context.Context, email string) (Profile, error)
	CreateProfile(ctx context.Context, p Profile) error
	SaveProfile(ctx context.Context, p Profile) error

	AddWeight(ctx context.Context, w WeightLog) error
	ListWeights(ctx context.Context, uid string, limit int) ([]WeightLog, error)

	AddFocus(ctx context.Context, f FocusLog) error
	ListFocus(ctx context.Context, uid string, limit int) ([]FocusLog, error)

	ListRoster(ctx context.Context) ([]RosterEntry, error)
}
