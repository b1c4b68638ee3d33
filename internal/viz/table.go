package viz

import (
	"fmt"
	"math"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/san-kum/dynjoint/internal/physics"
	"github.com/san-kum/dynjoint/internal/scenario"
)

// Num formats v with three decimals and infinity as "inf".
func Num(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "nan"
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func limits(p physics.Params) string {
	switch p.Kind {
	case physics.KindLinearConnector:
		return fmt.Sprintf("[%s, %s]", Num(p.LinearMin), Num(p.LinearMax))
	default:
		return fmt.Sprintf("%s %s°", p.AngularMotion, Num(p.AngleLimit))
	}
}

// ConstraintTable lists live constraints with their thresholds and the
// load of the last step. Rows close to breaking are highlighted.
func ConstraintTable(views []scenario.ConstraintView) string {
	if len(views) == 0 {
		return Subtle.Render("no live constraints")
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(Subtle).
		Headers("CONSTRAINT", "KIND", "LIMITS", "BREAK F", "BREAK T", "FORCE", "TORQUE")

	for _, v := range views {
		t.Row(
			v.Label,
			v.Params.Kind.String(),
			limits(v.Params),
			Num(v.Params.BreakForce),
			Num(v.Params.BreakTorque),
			Num(v.Load.Force),
			Num(v.Load.Torque),
		)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		base := lipgloss.NewStyle().Padding(0, 1)
		if row == table.HeaderRow {
			return base.Bold(true).Foreground(lipgloss.Color("#00ffff"))
		}
		if row < 0 || row >= len(views) {
			return base
		}
		v := views[row]
		switch {
		case v.Params.Unbreakable():
			return base.Foreground(lipgloss.Color("#ffaa00"))
		case nearBreak(v):
			return base.Foreground(lipgloss.Color("#ff4444"))
		}
		return base
	})

	return t.Render()
}

func nearBreak(v scenario.ConstraintView) bool {
	return v.Load.Force > 0.8*v.Params.BreakForce || v.Load.Torque > 0.8*v.Params.BreakTorque
}
