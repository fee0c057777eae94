// Package credit builds installment plans: the pure schedule math and
// the contract checks, independent of where the rows end up.
package credit

import (
	"math"
	"strings"
	"time"

	"github.com/Ultramusic201/Anzu/internal/core"
)

// Input is everything a new plan needs besides the daily rate.
type Input struct {
	Name           string
	TotalUSD       float64
	InitialUSD     float64
	Installments   int
	InstallmentUSD float64
	CadenceDays    int
}

// Validate enforces the plan contract before any row is written:
// positive amounts, a cadence from the allowed set, and the total
// matching initial plus the scheduled installments within a cent.
func (in Input) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return core.ErrEmptyDescription
	}
	if in.TotalUSD <= 0 || in.InitialUSD < 0 || in.InstallmentUSD <= 0 ||
		math.IsNaN(in.TotalUSD) || math.IsNaN(in.InitialUSD) || math.IsNaN(in.InstallmentUSD) {
		return core.ErrInvalidAmount
	}
	if in.Installments < 1 {
		return core.ErrInvalidAmount
	}
	valid := false
	for _, c := range core.CreditCadences {
		if c == in.CadenceDays {
			valid = true
			break
		}
	}
	if !valid {
		return core.ErrInvalidCadence
	}
	if math.Abs(in.TotalUSD-(in.InitialUSD+float64(in.Installments)*in.InstallmentUSD)) > core.CreditTolerance {
		return core.ErrCreditMismatch
	}
	return nil
}

// BuildPlan validates the input and synthesizes the credit header plus
// its full installment schedule. Installment sequence n falls due
// cadence*n days after creation; nothing is due on day zero because the
// initial payment covers it.
func BuildPlan(in Input, createdAt time.Time) (core.Credit, []core.Installment, error) {
	if err := in.Validate(); err != nil {
		return core.Credit{}, nil, err
	}

	c := core.Credit{
		Name:           strings.TrimSpace(in.Name),
		CreatedAt:      createdAt.Format(core.DateLayout),
		TotalUSD:       in.TotalUSD,
		InitialUSD:     in.InitialUSD,
		Installments:   in.Installments,
		InstallmentUSD: in.InstallmentUSD,
		CadenceDays:    in.CadenceDays,
		Status:         core.CreditActive,
	}

	schedule := make([]core.Installment, in.Installments)
	for i := range schedule {
		seq := i + 1
		schedule[i] = core.Installment{
			Seq:       seq,
			DueDate:   createdAt.AddDate(0, 0, in.CadenceDays*seq).Format(core.DateLayout),
			AmountUSD: in.InstallmentUSD,
			Status:    core.InstallmentPending,
		}
	}
	return c, schedule, nil
}

// SelectPayable filters the requested ids down to the pending
// installments of the schedule. An empty id list means all pending.
// Ids that are unknown or already paid are rejected rather than
// silently skipped.
func SelectPayable(schedule []core.Installment, ids []int64) ([]core.Installment, error) {
	if len(ids) == 0 {
		var pending []core.Installment
		for _, inst := range schedule {
			if inst.Status == core.InstallmentPending {
				pending = append(pending, inst)
			}
		}
		if len(pending) == 0 {
			return nil, core.ErrEmptySelection
		}
		return pending, nil
	}

	byID := make(map[int64]core.Installment, len(schedule))
	for _, inst := range schedule {
		byID[inst.ID] = inst
	}
	selected := make([]core.Installment, 0, len(ids))
	for _, id := range ids {
		inst, ok := byID[id]
		if !ok {
			return nil, core.ErrNotFound
		}
		if inst.Status != core.InstallmentPending {
			return nil, core.ErrEmptySelection
		}
		selected = append(selected, inst)
	}
	return selected, nil
}

// PaymentTotal sums the USD amounts of a selection. The consolidated
// ledger entry for a payment uses this single figure regardless of how
// many installments were settled together.
func PaymentTotal(selected []core.Installment) float64 {
	var sum float64
	for _, inst := range selected {
		sum += inst.AmountUSD
	}
	return sum
}
