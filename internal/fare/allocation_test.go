package fare

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/susu3304/smashmate/internal/domain"
)

func fourPlayers() []domain.Participant {
	return []domain.Participant{
		{PlayerID: "a", Name: "Ann", Share: 10},
		{PlayerID: "b", Name: "Ben", Share: 10},
		{PlayerID: "c", Name: "Cat", Share: 10},
		{PlayerID: "d", Name: "Dev", Share: 10, Paid: true},
	}
}

func amountOf(t *testing.T, s *Sheet, id string) Allocation {
	t.Helper()
	a, err := s.find(id)
	require.NoError(t, err)
	return *a
}

func TestFromParticipants(t *testing.T) {
	s := FromParticipants(40, fourPlayers())

	require.Len(t, s.Allocations, 4)
	for _, a := range s.Allocations {
		assert.True(t, a.IsIncluded)
		assert.Equal(t, 10.0, a.Amount)
		assert.InDelta(t, 25.0, a.Percentage, 1e-9)
	}
	assert.True(t, amountOf(t, s, "d").IsPaid)
	assert.False(t, amountOf(t, s, "a").IsPaid)
}

func TestFromParticipants_ZeroTotal(t *testing.T) {
	s := FromParticipants(0, []domain.Participant{{PlayerID: "a", Share: 0}})

	assert.Equal(t, 0.0, s.Allocations[0].Percentage)
	assert.True(t, s.IsBalanced())
}

func TestStart_PrefersSavedAllocation(t *testing.T) {
	saved := []Allocation{
		{ParticipantID: "a", Amount: 30, Percentage: 75, IsIncluded: true, IsPaid: true},
		{ParticipantID: "b", Amount: 10, Percentage: 25, IsIncluded: true},
		{ParticipantID: "c", IsIncluded: false},
	}
	s := Start(40, saved, fourPlayers())

	assert.Equal(t, saved, s.Allocations)

	// editing the sheet must not write through to the caller's slice
	require.NoError(t, s.SetAmount("a", 1))
	assert.Equal(t, 30.0, saved[0].Amount)
}

func TestStart_DerivesWithoutSaved(t *testing.T) {
	s := Start(40, nil, fourPlayers())
	assert.Len(t, s.Allocations, 4)
	assert.True(t, s.IsBalanced())
}

func TestResetEqual_Balances(t *testing.T) {
	tests := []struct {
		name     string
		total    float64
		included int
		excluded int
	}{
		{"forty over four", 40, 4, 0},
		{"forty over three", 40, 3, 1},
		{"odd pennies", 17.03, 7, 2},
		{"zero cost", 0, 2, 0},
		{"single payer", 12.5, 1, 3},
		{"large total", 1234567.89, 11, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Sheet{TotalCost: tt.total}
			for i := 0; i < tt.included+tt.excluded; i++ {
				s.Allocations = append(s.Allocations, Allocation{
					ParticipantID: string(rune('a' + i)),
					Amount:        99,
					IsIncluded:    i < tt.included,
				})
			}

			s.ResetEqual()

			assert.Less(t, math.Abs(s.Difference()), Tolerance)
			assert.True(t, s.IsBalanced())
			for _, a := range s.Allocations {
				if !a.IsIncluded {
					assert.Zero(t, a.Amount)
					assert.Zero(t, a.Percentage)
				}
			}
		})
	}
}

func TestResetEqual_Idempotent(t *testing.T) {
	s := FromParticipants(40, fourPlayers())
	require.NoError(t, s.SetAmount("a", 15))
	require.NoError(t, s.ToggleIncluded("c"))

	s.ResetEqual()
	once := append([]Allocation(nil), s.Allocations...)
	s.ResetEqual()

	assert.Equal(t, once, s.Allocations)
}

func TestResetEqual_NoneIncludedIsNoop(t *testing.T) {
	s := &Sheet{TotalCost: 40, Allocations: []Allocation{
		{ParticipantID: "a", Amount: 5, Percentage: 12.5},
		{ParticipantID: "b", Amount: 3, Percentage: 7.5},
	}}
	before := append([]Allocation(nil), s.Allocations...)

	s.ResetEqual()

	assert.Equal(t, before, s.Allocations)
	for _, a := range s.Allocations {
		assert.False(t, math.IsNaN(a.Amount))
		assert.False(t, math.IsInf(a.Amount, 0))
	}
}

func TestToggleIncluded_ExcludeRedistributes(t *testing.T) {
	s := FromParticipants(40, fourPlayers())

	require.NoError(t, s.ToggleIncluded("d"))

	d := amountOf(t, s, "d")
	assert.False(t, d.IsIncluded)
	assert.Zero(t, d.Amount)
	assert.Zero(t, d.Percentage)
	for _, id := range []string{"a", "b", "c"} {
		assert.InDelta(t, 13.3333, amountOf(t, s, id).Amount, 0.001)
	}
	assert.True(t, s.IsBalanced())
}

func TestToggleIncluded_ReincludeRedistributes(t *testing.T) {
	s := FromParticipants(40, fourPlayers())
	require.NoError(t, s.ToggleIncluded("d"))
	require.NoError(t, s.SetAmount("a", 20))

	require.NoError(t, s.ToggleIncluded("d"))

	for _, a := range s.Allocations {
		assert.InDelta(t, 10.0, a.Amount, 1e-9)
	}
	assert.True(t, s.IsBalanced())
}

func TestToggleIncluded_LastOneOut(t *testing.T) {
	s := &Sheet{TotalCost: 20, Allocations: []Allocation{
		{ParticipantID: "a", Amount: 20, Percentage: 100, IsIncluded: true},
	}}

	require.NoError(t, s.ToggleIncluded("a"))

	assert.Zero(t, s.Allocations[0].Amount)
	assert.False(t, s.IsBalanced())
}

func TestSetAmount_DoesNotRebalance(t *testing.T) {
	s := FromParticipants(40, fourPlayers())

	require.NoError(t, s.SetAmount("a", 15))

	assert.Equal(t, 15.0, amountOf(t, s, "a").Amount)
	assert.InDelta(t, 37.5, amountOf(t, s, "a").Percentage, 1e-9)
	assert.Equal(t, 10.0, amountOf(t, s, "b").Amount)
	assert.Equal(t, 45.0, s.TotalAllocated())
	assert.Equal(t, -5.0, s.Difference())
	assert.False(t, s.IsBalanced())
}

func TestUnknownParticipant(t *testing.T) {
	s := FromParticipants(40, fourPlayers())

	assert.ErrorIs(t, s.SetAmount("zz", 1), ErrUnknownParticipant)
	assert.ErrorIs(t, s.ToggleIncluded("zz"), ErrUnknownParticipant)
	assert.ErrorIs(t, s.TogglePaid("zz"), ErrUnknownParticipant)
	assert.ErrorIs(t, s.SetPaid("zz", true), ErrUnknownParticipant)
}

func TestTogglePaid_LeavesAmountsAlone(t *testing.T) {
	s := FromParticipants(40, fourPlayers())
	require.NoError(t, s.SetAmount("a", 15))
	before := append([]Allocation(nil), s.Allocations...)

	require.NoError(t, s.TogglePaid("b"))

	for i, a := range s.Allocations {
		assert.Equal(t, before[i].Amount, a.Amount)
		assert.Equal(t, before[i].Percentage, a.Percentage)
		assert.Equal(t, before[i].IsIncluded, a.IsIncluded)
	}
	assert.True(t, amountOf(t, s, "b").IsPaid)
	assert.False(t, s.IsBalanced())
	assert.Error(t, s.Validate())
}

func TestValidate_ReportsDirection(t *testing.T) {
	over := FromParticipants(40, fourPlayers())
	require.NoError(t, over.SetAmount("a", 15))

	err := over.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotBalanced))

	var imb *ImbalanceError
	require.ErrorAs(t, err, &imb)
	assert.Equal(t, -5.0, imb.Difference)
	assert.Equal(t, OverAllocated, imb.Direction())
	assert.Equal(t, "5.00", imb.Off().StringFixed(2))
	assert.Contains(t, err.Error(), "over-allocated by 5.00")

	under := FromParticipants(40, fourPlayers())
	require.NoError(t, under.SetAmount("a", 2.5))
	require.ErrorAs(t, under.Validate(), &imb)
	assert.Equal(t, UnderAllocated, imb.Direction())
	assert.Equal(t, "7.50", imb.Off().StringFixed(2))
}

func TestValidate_WithinTolerance(t *testing.T) {
	s := FromParticipants(40, fourPlayers())
	require.NoError(t, s.SetAmount("a", 10.005))

	assert.NoError(t, s.Validate())

	require.NoError(t, s.SetAmount("a", 10.02))
	assert.Error(t, s.Validate())
}

func TestNormalize_ZeroesExcluded(t *testing.T) {
	s := &Sheet{TotalCost: 30, Allocations: []Allocation{
		{ParticipantID: "a", Amount: 15, Percentage: 1, IsIncluded: true},
		{ParticipantID: "b", Amount: 15, Percentage: 1, IsIncluded: true},
		{ParticipantID: "c", Amount: 7, Percentage: 1, IsIncluded: false},
	}}

	s.Normalize()

	assert.InDelta(t, 50.0, s.Allocations[0].Percentage, 1e-9)
	assert.Zero(t, s.Allocations[2].Amount)
	assert.Zero(t, s.Allocations[2].Percentage)
	assert.NoError(t, s.Validate())
}

func TestUnpaid(t *testing.T) {
	s := FromParticipants(40, []domain.Participant{
		{PlayerID: "a", Share: 10},
		{PlayerID: "b", Share: 10},
		{PlayerID: "c", Share: 10},
		{PlayerID: "d", Share: 10},
	})
	require.NoError(t, s.SetPaid("a", true))
	require.NoError(t, s.SetPaid("c", true))

	unpaid := s.Unpaid()

	require.Len(t, unpaid, 2)
	assert.Equal(t, "b", unpaid[0].ParticipantID)
	assert.Equal(t, "d", unpaid[1].ParticipantID)
	assert.Equal(t, 2, s.Balance().Unpaid)
}

func TestUnpaid_SkipsExcluded(t *testing.T) {
	s := FromParticipants(40, fourPlayers())
	require.NoError(t, s.ToggleIncluded("a"))

	for _, a := range s.Unpaid() {
		assert.NotEqual(t, "a", a.ParticipantID)
	}
	assert.Len(t, s.Unpaid(), 2)
}

func TestBalance(t *testing.T) {
	s := FromParticipants(40, fourPlayers())
	b := s.Balance()
	assert.True(t, b.Balanced)
	assert.Equal(t, Balanced, b.Direction)
	assert.Equal(t, 40.0, b.Allocated)

	require.NoError(t, s.SetAmount("a", 5))
	b = s.Balance()
	assert.False(t, b.Balanced)
	assert.Equal(t, UnderAllocated, b.Direction)
	assert.Equal(t, 5.0, b.Difference)
}
