package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusApproved))
	assert.True(t, StatusPending.CanTransitionTo(StatusRejected))
	assert.False(t, StatusPending.CanTransitionTo(StatusPending))

	for _, s := range []Status{StatusApproved, StatusRejected} {
		assert.True(t, s.Terminal(), s)
		for _, next := range []Status{StatusPending, StatusApproved, StatusRejected} {
			assert.False(t, s.CanTransitionTo(next), "%s -> %s", s, next)
		}
	}
	assert.False(t, StatusPending.Terminal())
	assert.False(t, Status("paid").Valid())
}

func TestParseAmount(t *testing.T) {
	for in, want := range map[string]float64{"0": 0, "50000": 50000, " 12.5 ": 12.5} {
		got, err := ParseAmount(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	for _, in := range []string{"", "ten", "-0.01", "NaN", "+Inf", "1e400"} {
		_, err := ParseAmount(in)
		assert.ErrorIs(t, err, ErrInvalidAmount, in)
	}
}

func TestRoles(t *testing.T) {
	assert.False(t, CanApprove(RoleEmployee))
	assert.True(t, CanApprove(RoleManager))
	assert.True(t, CanApprove(RoleAdmin))
	assert.False(t, CanApprove(""))
	assert.False(t, Role("owner").Valid())

	assert.Equal(t, Role(""), RoleOf(nil))
	assert.Equal(t, Role(""), RoleOf(&Session{Token: "t"}))
	assert.Equal(t, RoleManager, RoleOf(&Session{Token: "t", Identity: &Identity{Role: RoleManager}}))
}

func TestSummarize(t *testing.T) {
	items := []Reimbursement{
		{Status: StatusPending, Amount: 10},
		{Status: StatusApproved, Amount: 100},
		{Status: StatusApproved, Amount: 25.5},
		{Status: StatusRejected, Amount: 7},
	}
	assert.Equal(t, Summary{Total: 4, Pending: 1, Approved: 2, Rejected: 1, ApprovedAmount: 125.5}, Summarize(items))
	assert.Len(t, FilterByStatus(items, StatusApproved), 2)
	assert.Len(t, FilterByStatus(items, ""), 4)
	assert.Empty(t, FilterByStatus(items, StatusRejected)[0].Title)
}
