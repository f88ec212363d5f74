// ABOUTME: Reporting CLI commands
// ABOUTME: Prints the office dashboard and renders the entity/service graph
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/harperreed/taxdesk/viz"
)

// ReportDashboardCommand prints queue, client and task summaries.
func ReportDashboardCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	_ = fs.Parse(args)

	loc, err := app.Config.Tasks.Location()
	if err != nil {
		return err
	}

	stats, err := viz.GenerateDashboardStats(ctx, app.Store, app.Config.Queue.Statuses, app.Store.Now().In(loc))
	if err != nil {
		return fmt.Errorf("failed to build dashboard: %w", err)
	}
	_, _ = fmt.Fprint(app.Out, viz.RenderDashboard(stats))
	return nil
}

// ReportGraphCommand writes the entity/service graph as DOT.
func ReportGraphCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("graph", flag.ExitOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	entity := fs.String("entity", "", "Only draw this entity ID")
	_ = fs.Parse(args)

	start := time.Now()
	dot, err := viz.NewGraphGenerator(app.Store).GeneratePracticeGraph(ctx, *entity)
	if err != nil {
		return err
	}

	if *output == "" {
		_, _ = fmt.Fprint(app.Out, dot)
		return nil
	}

	if err := os.WriteFile(*output, []byte(dot), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", *output, err)
	}
	_, _ = fmt.Fprintf(app.Out, "✓ Graph written to %s (%s)\n", *output, time.Since(start).Round(time.Millisecond))
	return nil
}
