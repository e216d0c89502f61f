package view

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/NanayasWorkshop/MakerManager/internal/ledger"
	"github.com/NanayasWorkshop/MakerManager/internal/machine"
	"github.com/NanayasWorkshop/MakerManager/internal/scan"
)

// perform runs the action chosen for a scanned entity and describes the outcome.
func (m ScanModel) perform(ctx context.Context, match *scan.Match, in scanInput) (string, error) {
	switch match.Type {
	case scan.TypeMaterial:
		return m.moveMaterial(ctx, match, in)
	case scan.TypeMachine:
		return m.useMachine(ctx, match, in)
	case scan.TypeJob:
		if !in.confirm {
			return "Active job unchanged", nil
		}

		sess, err := m.sessions.ActivateJobByID(ctx, m.user, match.ID)
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("Active job is now %s", sess.JobReference()), nil
	}

	return "", fmt.Errorf("unsupported entity type %q", match.Type)
}

func (m ScanModel) moveMaterial(ctx context.Context, match *scan.Match, in scanInput) (string, error) {
	qty, err := decimal.NewFromString(strings.TrimSpace(in.quantity))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ledger.ErrInvalidQuantity, in.quantity)
	}

	sess, err := m.sessions.Load(ctx, m.user)
	if err != nil {
		return "", err
	}

	var (
		mv   *ledger.Movement
		verb = "Withdrew"
	)
	if in.action == "return" {
		verb = "Returned"
		mv, err = m.ledger.Return(ctx, sess, match.ID, qty, in.notes)
	} else {
		mv, err = m.ledger.Withdraw(ctx, sess, match.ID, qty, in.notes)
	}
	if err != nil {
		return "", err
	}

	summary := fmt.Sprintf("%s %s %s of %s, %s left",
		verb, FormatQuantity(qty), mv.Material.Unit, mv.Material.MaterialID, FormatQuantity(mv.Material.CurrentStock))

	if mv.Material.MinimumStockAlert {
		summary += " (below minimum)"
	}

	return summary, nil
}

func (m ScanModel) useMachine(ctx context.Context, match *scan.Match, in scanInput) (string, error) {
	sess, err := m.sessions.Load(ctx, m.user)
	if err != nil {
		return "", err
	}

	if in.action == "stop" {
		u, err := m.machines.StopUsage(ctx, sess, match.ID, machine.StopParams{
			CleanupMinutes: stationCleanupMinutes,
			Notes:          in.notes,
		})
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("Stopped %s, total cost %s", match.ID, u.TotalCost.StringFixed(2)), nil
	}

	u, err := m.machines.StartUsage(ctx, sess, match.ID, machine.StartParams{
		SetupMinutes:     stationSetupMinutes,
		EstimatedMinutes: stationEstimatedMinutes,
		Notes:            in.notes,
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Started %s for %s", match.ID, u.JobReference), nil
}
