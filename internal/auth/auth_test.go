package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mower-status-backend/internal/apperr"
)

func strPtr(s string) *string { return &s }

func TestReduce_LoginLogout(t *testing.T) {
	s := State{UpdateStatus: UpdateIdle}

	s = Reduce(s, LoginStart{})
	assert.True(t, s.Loading)

	s = Reduce(s, LoginSuccess{User: User{Username: "mika", Email: "mika@example.com"}})
	assert.True(t, s.IsAuthenticated)
	assert.False(t, s.Loading)
	require.NotNil(t, s.User)
	assert.Equal(t, "mika", s.User.Username)

	s = Reduce(s, Logout{})
	assert.False(t, s.IsAuthenticated)
	assert.Nil(t, s.User)
	assert.Equal(t, UpdateIdle, s.UpdateStatus)
}

func TestReduce_LoginFailureClearsUser(t *testing.T) {
	s := Reduce(State{}, LoginSuccess{User: User{Username: "mika"}})
	s = Reduce(s, LoginFailure{Error: "denied"})
	assert.False(t, s.IsAuthenticated)
	assert.Nil(t, s.User)
	assert.Equal(t, "denied", s.Error)
}

func TestReduce_ProfileUpdateDoesNotAliasPreviousUser(t *testing.T) {
	before := Reduce(State{}, LoginSuccess{User: User{Username: "mika", Email: "mika@example.com"}})
	after := Reduce(before, UpdateProfileSuccess{Updates: ProfileUpdate{Email: strPtr("new@example.com")}})

	assert.Equal(t, "mika@example.com", before.User.Email)
	assert.Equal(t, "new@example.com", after.User.Email)
	assert.Equal(t, "mika", after.User.Username)
	assert.Equal(t, UpdateSucceeded, after.UpdateStatus)
}

func TestValidateProfile(t *testing.T) {
	testCases := []struct {
		name   string
		update ProfileUpdate
		field  string
	}{
		{name: "Valid both", update: ProfileUpdate{Username: strPtr("mika"), Email: strPtr("Mika.K@Example.FI")}},
		{name: "Nothing to validate", update: ProfileUpdate{}},
		{name: "Bad email", update: ProfileUpdate{Email: strPtr("mika@localhost")}, field: "email"},
		{name: "Short username", update: ProfileUpdate{Username: strPtr("mk")}, field: "username"},
		{name: "Two characters, three bytes", update: ProfileUpdate{Username: strPtr("é1")}, field: "username"},
		{name: "Three multibyte characters", update: ProfileUpdate{Username: strPtr("äöü")}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateProfile(tc.update)
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorAs(t, err, new(*apperr.ValidationError))
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestStore_UpdateUserProfile(t *testing.T) {
	store := NewStore(true, 0)
	require.NoError(t, store.Login(context.Background(), User{Username: "mika", Email: "mika@example.com"}))

	err := store.UpdateUserProfile(context.Background(), ProfileUpdate{Email: strPtr("not-an-email")})
	assert.ErrorAs(t, err, new(*apperr.ValidationError))
	s := store.State()
	assert.Equal(t, UpdateFailed, s.UpdateStatus)
	assert.Equal(t, "Invalid email format", s.Error)
	assert.Equal(t, "mika@example.com", s.User.Email, "user is untouched on validation failure")

	require.NoError(t, store.UpdateUserProfile(context.Background(), ProfileUpdate{Username: strPtr("mika-k")}))
	s = store.State()
	assert.Equal(t, UpdateSucceeded, s.UpdateStatus)
	assert.Empty(t, s.Error)
	assert.Equal(t, "mika-k", s.User.Username)

	store.Dispatch(ClearError{})
	assert.Equal(t, UpdateIdle, store.State().UpdateStatus)
}

func TestStore_UpdateUserProfileCancelled(t *testing.T) {
	store := NewStore(true, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.UpdateUserProfile(ctx, ProfileUpdate{Username: strPtr("mika")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, UpdateFailed, store.State().UpdateStatus)
}

func TestStore_LoginRejectsInvalidProfile(t *testing.T) {
	store := NewStore(false, 0)
	err := store.Login(context.Background(), User{Username: "mk", Email: "mk@example.com"})
	assert.ErrorAs(t, err, new(*apperr.ValidationError))
	assert.False(t, store.IsAuthenticated())
	assert.Equal(t, "Username must be at least 3 characters long", store.State().Error)
}
