package consultant

import (
	"testing"
	"time"

	appErrors "consultant-access/pkg/errors"

	"github.com/stretchr/testify/assert"
)

func TestDefaultPermissions(t *testing.T) {
	p := DefaultPermissions()
	assert.True(t, p.Allows(CapabilityViewProfile))
	assert.False(t, p.Allows(CapabilityCreateProfile))
	assert.False(t, p.Allows(CapabilityEditProfile))
	assert.False(t, p.Allows(CapabilityDeleteProfile))
}

func TestPermissionsMergeTouchesOnlyGivenFlags(t *testing.T) {
	on := true
	p := Permissions{CreateProfile: true, ViewProfile: true}

	merged := p.Merge(PermissionPatch{DeleteProfile: &on})

	assert.Equal(t, Permissions{CreateProfile: true, ViewProfile: true, DeleteProfile: true}, merged)
	assert.True(t, PermissionPatch{}.IsEmpty())
}

func TestParseCapability(t *testing.T) {
	c, ok := ParseCapability("edit_profile")
	assert.True(t, ok)
	assert.Equal(t, CapabilityEditProfile, c)

	_, ok = ParseCapability("admin")
	assert.False(t, ok)
}

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		action  Transition
		current Status
		want    error
	}{
		{TransitionApprove, StatusPending, nil},
		{TransitionApprove, StatusActive, appErrors.ErrAlreadyApproved},
		{TransitionApprove, StatusSuspended, appErrors.ErrAlreadyApproved},
		{TransitionApprove, StatusRejected, appErrors.ErrAlreadyRejected},
		{TransitionReject, StatusPending, nil},
		{TransitionReject, StatusActive, appErrors.ErrAlreadyApproved},
		{TransitionReject, StatusRejected, appErrors.ErrAlreadyRejected},
		{TransitionSuspend, StatusActive, nil},
		{TransitionSuspend, StatusPending, appErrors.ErrInvalidTransition},
		{TransitionReactivate, StatusSuspended, nil},
		{TransitionReactivate, StatusActive, appErrors.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(string(tt.action)+"_"+string(tt.current), func(t *testing.T) {
			err := ValidateTransition(tt.action, tt.current)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRejectedIsTerminal(t *testing.T) {
	for _, to := range []Status{StatusPending, StatusActive, StatusSuspended} {
		assert.False(t, CanTransition(StatusRejected, to))
	}
	assert.False(t, CanTransition(StatusActive, StatusRejected))
}

func TestLockoutStateEqual(t *testing.T) {
	at := time.Now()
	same := at.Add(0)

	assert.True(t, LockoutState{Attempts: 2}.Equal(LockoutState{Attempts: 2}))
	assert.True(t, LockoutState{Attempts: 5, LockUntil: &at}.Equal(LockoutState{Attempts: 5, LockUntil: &same}))
	assert.False(t, LockoutState{Attempts: 5, LockUntil: &at}.Equal(LockoutState{Attempts: 5}))
	assert.False(t, LockoutState{Attempts: 1}.Equal(LockoutState{Attempts: 2}))
}
