// Package fare splits a session's fixed court cost across its participants
// and tracks who has paid.
package fare

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/susu3304/smashmate/internal/domain"
)

// Tolerance is the largest absolute gap between the total cost and the sum of
// included amounts that still counts as balanced.
const Tolerance = 0.01

// ErrUnknownParticipant is returned for an id not present in the sheet.
var ErrUnknownParticipant = errors.New("participant is not part of this allocation")

// Allocation is one participant's row: what they owe and whether they paid.
type Allocation struct {
	ParticipantID string  `json:"participantId"`
	Name          string  `json:"name"`
	AvatarURL     string  `json:"avatarUrl"`
	Amount        float64 `json:"amount"`
	Percentage    float64 `json:"percentage"`
	IsIncluded    bool    `json:"isIncluded"`
	IsPaid        bool    `json:"isPaid"`
}

// Sheet is an editable allocation of TotalCost. Amounts are not clamped here;
// callers bound manual input to [0, TotalCost].
type Sheet struct {
	TotalCost   float64
	Allocations []Allocation
}

// FromParticipants derives a fresh allocation from the stored shares.
func FromParticipants(totalCost float64, participants []domain.Participant) *Sheet {
	allocs := make([]Allocation, 0, len(participants))
	for _, p := range participants {
		allocs = append(allocs, Allocation{
			ParticipantID: p.PlayerID,
			Name:          p.Name,
			AvatarURL:     p.AvatarURL,
			Amount:        p.Share,
			Percentage:    percentOf(p.Share, totalCost),
			IsIncluded:    true,
			IsPaid:        p.Paid,
		})
	}
	return &Sheet{TotalCost: totalCost, Allocations: allocs}
}

// Start opens an allocation for editing. A previously saved allocation is
// loaded verbatim so manual overrides and paid flags survive; otherwise one is
// derived from the participants.
func Start(totalCost float64, saved []Allocation, participants []domain.Participant) *Sheet {
	if len(saved) > 0 {
		allocs := make([]Allocation, len(saved))
		copy(allocs, saved)
		return &Sheet{TotalCost: totalCost, Allocations: allocs}
	}
	return FromParticipants(totalCost, participants)
}

func percentOf(amount, total float64) float64 {
	if total == 0 {
		return 0
	}
	return amount / total * 100
}

func (s *Sheet) find(id string) (*Allocation, error) {
	for i := range s.Allocations {
		if s.Allocations[i].ParticipantID == id {
			return &s.Allocations[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownParticipant, id)
}

// IncludedCount is the number of participants sharing the cost.
func (s *Sheet) IncludedCount() int {
	n := 0
	for _, a := range s.Allocations {
		if a.IsIncluded {
			n++
		}
	}
	return n
}

// ResetEqual divides the total evenly across included participants. With no
// one included it leaves the sheet untouched.
func (s *Sheet) ResetEqual() {
	n := s.IncludedCount()
	if n == 0 {
		return
	}
	each := s.TotalCost / float64(n)
	for i := range s.Allocations {
		a := &s.Allocations[i]
		if a.IsIncluded {
			a.Amount = each
		} else {
			a.Amount = 0
		}
		a.Percentage = percentOf(a.Amount, s.TotalCost)
	}
}

// SetAmount overrides one participant's amount without rebalancing the rest.
func (s *Sheet) SetAmount(id string, amount float64) error {
	a, err := s.find(id)
	if err != nil {
		return err
	}
	a.Amount = amount
	a.Percentage = percentOf(amount, s.TotalCost)
	return nil
}

// ToggleIncluded flips inclusion and redistributes the total equally over
// whoever is included afterwards.
func (s *Sheet) ToggleIncluded(id string) error {
	a, err := s.find(id)
	if err != nil {
		return err
	}
	a.IsIncluded = !a.IsIncluded
	if !a.IsIncluded {
		a.Amount = 0
		a.Percentage = 0
	}
	s.ResetEqual()
	return nil
}

// TogglePaid flips the paid flag. Amounts are left alone.
func (s *Sheet) TogglePaid(id string) error {
	a, err := s.find(id)
	if err != nil {
		return err
	}
	a.IsPaid = !a.IsPaid
	return nil
}

// SetPaid records whether a participant has paid.
func (s *Sheet) SetPaid(id string, paid bool) error {
	a, err := s.find(id)
	if err != nil {
		return err
	}
	a.IsPaid = paid
	return nil
}

// Normalize recomputes every percentage from its amount and zeroes excluded
// rows. Submitted allocations go through it before validation.
func (s *Sheet) Normalize() {
	for i := range s.Allocations {
		a := &s.Allocations[i]
		if !a.IsIncluded {
			a.Amount = 0
		}
		a.Percentage = percentOf(a.Amount, s.TotalCost)
	}
}

// TotalAllocated sums the amounts of included participants.
func (s *Sheet) TotalAllocated() float64 {
	var sum float64
	for _, a := range s.Allocations {
		if a.IsIncluded {
			sum += a.Amount
		}
	}
	return sum
}

// Difference is positive when under-allocated and negative when over.
func (s *Sheet) Difference() float64 {
	return s.TotalCost - s.TotalAllocated()
}

// IsBalanced reports whether the allocation matches the total within Tolerance.
func (s *Sheet) IsBalanced() bool {
	return math.Abs(s.Difference()) < Tolerance
}

// Unpaid lists included participants that have not paid yet.
func (s *Sheet) Unpaid() []Allocation {
	var out []Allocation
	for _, a := range s.Allocations {
		if a.IsIncluded && !a.IsPaid {
			out = append(out, a)
		}
	}
	return out
}

// Direction says which way an allocation misses its total.
type Direction string

const (
	Balanced       Direction = "balanced"
	OverAllocated  Direction = "over"
	UnderAllocated Direction = "under"
)

func directionOf(diff float64) Direction {
	switch {
	case math.Abs(diff) < Tolerance:
		return Balanced
	case diff < 0:
		return OverAllocated
	default:
		return UnderAllocated
	}
}

// Balance summarizes a sheet for display.
type Balance struct {
	TotalCost  float64   `json:"totalCost"`
	Allocated  float64   `json:"allocated"`
	Difference float64   `json:"difference"`
	Balanced   bool      `json:"balanced"`
	Direction  Direction `json:"direction"`
	Unpaid     int       `json:"unpaid"`
}

// Balance reports totals, the gap and the unpaid count.
func (s *Sheet) Balance() Balance {
	diff := s.Difference()
	return Balance{
		TotalCost:  s.TotalCost,
		Allocated:  s.TotalAllocated(),
		Difference: diff,
		Balanced:   math.Abs(diff) < Tolerance,
		Direction:  directionOf(diff),
		Unpaid:     len(s.Unpaid()),
	}
}

// Validate returns an *ImbalanceError when the sheet cannot be committed.
func (s *Sheet) Validate() error {
	if s.IsBalanced() {
		return nil
	}
	return &ImbalanceError{Difference: s.Difference()}
}

// ImbalanceError reports how far an allocation is from its total.
type ImbalanceError struct {
	Difference float64
}

func (e *ImbalanceError) Direction() Direction {
	return directionOf(e.Difference)
}

// Off is the absolute gap rounded to cents.
func (e *ImbalanceError) Off() decimal.Decimal {
	return decimal.NewFromFloat(math.Abs(e.Difference)).Round(2)
}

func (e *ImbalanceError) Error() string {
	return fmt.Sprintf("amounts don't match: %s-allocated by %s", e.Direction(), e.Off().StringFixed(2))
}

func (e *ImbalanceError) Unwrap() error {
	return domain.ErrNotBalanced
}
