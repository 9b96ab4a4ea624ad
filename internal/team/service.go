// Package team manages team member profiles, the coach roster, weigh-ins and
// focus drill history.
package team

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bluejays/teamtrack/internal/auth"
	"github.com/bluejays/teamtrack/internal/logging"
)

// Service implements team operations over a Store.
type Service struct {
	store     Store
	coachHash string
	now       func() time.Time
	newID     func() string
}

// NewService returns a Service. coachPasscodeHash is an argon2id hash; when
// empty, nobody can be promoted to coach.
func NewService(store Store, coachPasscodeHash string) *Service {
	return &Service{
		store:     store,
		coachHash: coachPasscodeHash,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

// SignIn returns the profile for email, creating it (and its roster entry)
// on first sign-in. name defaults to the local part of the email.
func (s *Service) SignIn(ctx context.Context, email, name string) (Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return Profile{}, fmt.Errorf("%w: email is required", ErrInvalid)
	}

	p, err := s.store.FindProfileByEmail(ctx, email)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Profile{}, fmt.Errorf("failed to look up profile: %w", err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}
	p, err = s.create(ctx, email, name)
	if errors.Is(err, ErrConflict) {
		// Lost a race with a concurrent first sign-in.
		return s.store.FindProfileByEmail(ctx, email)
	}
	return p, err
}

// SignInGuest creates a fresh profile without an email.
func (s *Service) SignInGuest(ctx context.Context) (Profile, error) {
	return s.create(ctx, "", GuestName)
}

func (s *Service) create(ctx context.Context, email, name string) (Profile, error) {
	p := Profile{
		UID:         s.newID(),
		Email:       email,
		Name:        name,
		Role:        RoleAthlete,
		WeightClass: Unassigned,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.CreateProfile(ctx, p); err != nil {
		return Profile{}, fmt.Errorf("failed to create profile: %w", err)
	}
	logging.Info("created profile", "uid", p.UID, "guest", email == "")
	return p, nil
}

// Profile returns the profile for uid.
func (s *Service) Profile(ctx context.Context, uid string) (Profile, error) {
	return s.store.GetProfile(ctx, uid)
}

// UpdateProfile applies u and re-syncs the roster entry.
func (s *Service) UpdateProfile(ctx context.Context, uid string, u Update) (Profile, error) {
	p, err := s.store.GetProfile(ctx, uid)
	if err != nil {
		return Profile{}, err
	}

	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return Profile{}, fmt.Errorf("%w: name cannot be empty", ErrInvalid)
		}
		p.Name = name
	}
	if u.WeightClass != nil {
		if !ValidWeightClass(*u.WeightClass) {
			return Profile{}, fmt.Errorf("%w: unknown weight class %q", ErrInvalid, *u.WeightClass)
		}
		p.WeightClass = *u.WeightClass
	}

	if err := s.store.SaveProfile(ctx, p); err != nil {
		return Profile{}, fmt.Errorf("failed to save profile: %w", err)
	}
	return p, nil
}

// PromoteCoach grants the coach role if passcode matches the configured hash.
func (s *Service) PromoteCoach(ctx context.Context, uid, passcode string) (Profile, error) {
	p, err := s.store.GetProfile(ctx, uid)
	if err != nil {
		return Profile{}, err
	}
	if s.coachHash == "" {
		return Profile{}, ErrBadPasscode
	}

	ok, err := auth.VerifySecret(passcode, s.coachHash)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to verify passcode: %w", err)
	}
	if !ok {
		return Profile{}, ErrBadPasscode
	}
	if p.IsCoach() {
		return p, nil
	}

	p.Role = RoleCoach
	if err := s.store.SaveProfile(ctx, p); err != nil {
		return Profile{}, fmt.Errorf("failed to save profile: %w", err)
	}
	logging.Info("promoted to coach", "uid", uid)
	return p, nil
}

// LogWeight records a weigh-in in pounds.
func (s *Service) LogWeight(ctx context.Context, uid string, weight float64, notes string) (WeightLog, error) {
	if weight <= 0 {
		return WeightLog{}, fmt.Errorf("%w: weight must be positive", ErrInvalid)
	}
	if _, err := s.store.GetProfile(ctx, uid); err != nil {
		return WeightLog{}, err
	}

	w := WeightLog{
		ID:     s.newID(),
		UID:    uid,
		Date:   s.now().UTC(),
		Weight: weight,
		Notes:  strings.TrimSpace(notes),
	}
	if err := s.store.AddWeight(ctx, w); err != nil {
		return WeightLog{}, fmt.Errorf("failed to add weight: %w", err)
	}
	return w, nil
}

// Weights lists weigh-ins, newest first.
func (s *Service) Weights(ctx context.Context, uid string, limit int) ([]WeightLog, error) {
	return s.store.ListWeights(ctx, uid, limit)
}

// LatestWeight returns the most recent weigh-in or ErrNotFound.
func (s *Service) LatestWeight(ctx context.Context, uid string) (WeightLog, error) {
	logs, err := s.store.ListWeights(ctx, uid, 1)
	if err != nil {
		return WeightLog{}, err
	}
	if len(logs) == 0 {
		return WeightLog{}, ErrNotFound
	}
	return logs[0], nil
}

// RecordFocus stores a drill score.
func (s *Service) RecordFocus(ctx context.Context, uid string, score int) (FocusLog, error) {
	if score < 0 {
		return FocusLog{}, fmt.Errorf("%w: score must not be negative", ErrInvalid)
	}

	f := FocusLog{
		ID:    s.newID(),
		UID:   uid,
		Date:  s.now().UTC(),
		Score: score,
	}
	if err := s.store.AddFocus(ctx, f); err != nil {
		return FocusLog{}, fmt.Errorf("failed to add focus log: %w", err)
	}
	return f, nil
}

// FocusHistory lists drill scores, newest first.
func (s *Service) FocusHistory(ctx context.Context, uid string, limit int) ([]FocusLog, error) {
	return s.store.ListFocus(ctx, uid, limit)
}

// Roster lists all members by name. Only coaches may view it.
func (s *Service) Roster(ctx context.Context, viewer string) ([]RosterEntry, error) {
	if err := s.requireCoach(ctx, viewer); err != nil {
		return nil, err
	}
	return s.AllMembers(ctx)
}

// MemberWeights lists another member's weigh-ins for a coach.
func (s *Service) MemberWeights(ctx context.Context, viewer, uid string, limit int) ([]WeightLog, error) {
	if err := s.requireMember(ctx, viewer, uid); err != nil {
		return nil, err
	}
	return s.store.ListWeights(ctx, uid, limit)
}

// MemberFocus lists another member's drill scores for a coach.
func (s *Service) MemberFocus(ctx context.Context, viewer, uid string, limit int) ([]FocusLog, error) {
	if err := s.requireMember(ctx, viewer, uid); err != nil {
		return nil, err
	}
	return s.store.ListFocus(ctx, uid, limit)
}

func (s *Service) requireCoach(ctx context.Context, viewer string) error {
	p, err := s.store.GetProfile(ctx, viewer)
	if err != nil {
		return err
	}
	if !p.IsCoach() {
		return ErrForbidden
	}
	return nil
}

// requireMember allows members to read their own logs and coaches to read
// anyone's.
func (s *Service) requireMember(ctx context.Context, viewer, uid string) error {
	if viewer != uid {
		if err := s.requireCoach(ctx, viewer); err != nil {
			return err
		}
	}
	_, err := s.store.GetProfile(ctx, uid)
	return err
}

// AllMembers lists the roster without an access check, for operator tooling.
func (s *Service) AllMembers(ctx context.Context) ([]RosterEntry, error) {
	entries, err := s.store.ListRoster(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster: %w", err)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
	return entries, nil
}
