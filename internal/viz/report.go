package viz

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/san-kum/dynjoint/internal/config"
	"github.com/san-kum/dynjoint/internal/scenario"
)

// Report summarises a finished run.
func Report(cfg *config.Config, res *scenario.Result) string {
	var b strings.Builder

	b.WriteString(Title.Render(cfg.Name) + "  ")
	b.WriteString(Subtle.Render(fmt.Sprintf("%s on %s, %d steps of %ss", cfg.Variant, cfg.Engine, cfg.Steps, Num(cfg.Dt))))
	b.WriteString("\n\n")

	last := scenario.Sample{Live: true}
	if n := len(res.Samples); n > 0 {
		last = res.Samples[n-1]
	}
	b.WriteString(MetricLabel.Render("status") + Status(last.Live, last.Unbreakable) + "\n")
	if res.Broken {
		b.WriteString(MetricLabel.Render("broke at") + MetricValue.Render(Num(res.BreakTime)+"s") + "\n")
	}

	names := make([]string, 0, len(res.Metrics))
	for name := range res.Metrics {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		b.WriteString(MetricLabel.Render(name) + MetricValue.Render(Num(res.Metrics[name])) + "\n")
	}

	if len(res.Events) > 0 {
		b.WriteString("\n" + EventTable(res.Events) + "\n")
	}
	return b.String()
}

func EventTable(events []scenario.Event) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(Subtle).
		Headers("TIME", "EVENT", "FORCE")
	for _, e := range events {
		force := ""
		if e.Kind == scenario.EventBreak {
			force = Num(e.Force)
		}
		t.Row(Num(e.Time), string(e.Kind), force)
	}
	return t.Render()
}
