package auth

import (
	"context"
	"regexp"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"mower-status-backend/internal/apperr"
	"mower-status-backend/internal/logging"
)

var emailRe = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)

const minUsernameLength = 3

// UpdateStatus tracks the progress of a profile update.
type UpdateStatus string

const (
	UpdateIdle      UpdateStatus = "idle"
	UpdateLoading   UpdateStatus = "loading"
	UpdateSucceeded UpdateStatus = "succeeded"
	UpdateFailed    UpdateStatus = "failed"
)

// User is the signed-in profile.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ProfileUpdate is a partial profile edit; nil fields are kept.
type ProfileUpdate struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// State is the authentication aggregate.
type State struct {
	IsAuthenticated bool         `json:"isAuthenticated"`
	User            *User        `json:"user"`
	Error           string       `json:"error,omitempty"`
	Loading         bool         `json:"loading"`
	UpdateStatus    UpdateStatus `json:"updateStatus"`
}

// Action is a transition of the auth state.
type Action interface{ authAction() }

type (
	LoginStart           struct{}
	LoginSuccess         struct{ User User }
	LoginFailure         struct{ Error string }
	Logout               struct{}
	UpdateProfileStart   struct{}
	UpdateProfileSuccess struct{ Updates ProfileUpdate }
	UpdateProfileFailure struct{ Error string }
	ClearError           struct{}
)

func (LoginStart) authAction()           {}
func (LoginSuccess) authAction()         {}
func (LoginFailure) authAction()         {}
func (Logout) authAction()               {}
func (UpdateProfileStart) authAction()   {}
func (UpdateProfileSuccess) authAction() {}
func (UpdateProfileFailure) authAction() {}
func (ClearError) authAction()           {}

// Reduce returns the state after a.
func Reduce(s State, a Action) State {
	switch act := a.(type) {
	case LoginStart:
		s.Loading = true
		s.Error = ""
	case LoginSuccess:
		u := act.User
		s.IsAuthenticated = true
		s.User = &u
		s.Loading = false
		s.Error = ""
	case LoginFailure:
		s.Loading = false
		s.Error = act.Error
		s.IsAuthenticated = false
		s.User = nil
	case Logout:
		s = State{UpdateStatus: UpdateIdle}
	case UpdateProfileStart:
		s.UpdateStatus = UpdateLoading
		s.Error = ""
	case UpdateProfileSuccess:
		if s.User != nil {
			u := *s.User
			if act.Updates.Username != nil {
				u.Username = *act.Updates.Username
			}
			if act.Updates.Email != nil {
				u.Email = *act.Updates.Email
			}
			s.User = &u
		}
		s.UpdateStatus = UpdateSucceeded
		s.Error = ""
	case UpdateProfileFailure:
		s.UpdateStatus = UpdateFailed
		s.Error = act.Error
	case ClearError:
		s.Error = ""
		s.UpdateStatus = UpdateIdle
	}
	return s
}

// ValidateProfile checks the fields present in u.
func ValidateProfile(u ProfileUpdate) error {
	if u.Email != nil && !emailRe.MatchString(*u.Email) {
		return apperr.Invalid("email", "Invalid email format")
	}
	if u.Username != nil && utf8.RuneCountInString(*u.Username) < minUsernameLength {
		return apperr.Invalid("username", "Username must be at least 3 characters long")
	}
	return nil
}

// Store owns the auth state.
type Store struct {
	mu    sync.Mutex
	state State

	// latency simulates the backend round trip of a profile update.
	latency time.Duration
	logger  *logrus.Entry
}

// NewStore creates an auth store. authenticated seeds the route guard flag.
func NewStore(authenticated bool, latency time.Duration) *Store {
	return &Store{
		state:   State{IsAuthenticated: authenticated, UpdateStatus: UpdateIdle},
		latency: latency,
		logger:  logging.NewLogger("auth"),
	}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsAuthenticated reports the route guard flag.
func (s *Store) IsAuthenticated() bool {
	return s.State().IsAuthenticated
}

// Dispatch applies a and returns the new snapshot.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, a)
	return s.state
}

// Login validates the profile and signs the user in.
func (s *Store) Login(ctx context.Context, u User) error {
	s.Dispatch(LoginStart{})
	if err := ValidateProfile(ProfileUpdate{Username: &u.Username, Email: &u.Email}); err != nil {
		s.Dispatch(LoginFailure{Error: apperr.Message(err)})
		s.logger.WithError(err).Warn("login rejected")
		return err
	}
	if err := ctx.Err(); err != nil {
		s.Dispatch(LoginFailure{Error: "login cancelled"})
		return err
	}
	s.Dispatch(LoginSuccess{User: u})
	s.logger.WithField("username", u.Username).Info("user signed in")
	return nil
}

// UpdateUserProfile validates u, waits out the simulated latency and commits.
// Failures are recorded in the state and also returned.
func (s *Store) UpdateUserProfile(ctx context.Context, u ProfileUpdate) error {
	s.Dispatch(UpdateProfileStart{})

	if err := ValidateProfile(u); err != nil {
		s.Dispatch(UpdateProfileFailure{Error: apperr.Message(err)})
		return err
	}

	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			s.Dispatch(UpdateProfileFailure{Error: "Failed to update profile"})
			return ctx.Err()
		case <-timer.C:
		}
	}

	if s.State().User == nil {
		// Nothing to merge into; the update still counts as succeeded.
		s.logger.Debug("profile update without signed-in user")
	}
	s.Dispatch(UpdateProfileSuccess{Updates: u})
	return nil
}
