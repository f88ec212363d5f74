// ABOUTME: Recurring task CLI commands
// ABOUTME: Runs the task generator and lists tasks with their entities
package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/harperreed/taxdesk/models"
	"github.com/harperreed/taxdesk/practice"
)

// TasksGenerateCommand runs one generator pass.
func TasksGenerateCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	force := fs.Bool("force", false, "Run even if tasks were already generated today")
	_ = fs.Parse(args)

	result, err := app.Generator.Run(ctx, *force)
	if err != nil {
		return fmt.Errorf("task generation failed: %w", err)
	}

	if result.AlreadyRan {
		_, _ = fmt.Fprintln(app.Out, "Tasks were already generated today. Use --force to run again.")
		return nil
	}

	_, _ = fmt.Fprintf(app.Out, "✓ Created %d task(s), %d already existed\n", len(result.Created), result.Skipped)
	for _, t := range result.Created {
		_, _ = fmt.Fprintf(app.Out, "  %s  %s  %s\n", t.DueDate.Format(models.DateLayout), t.ServiceName, t.ID)
	}
	return nil
}

// TasksListCommand lists tasks ordered by due date.
func TasksListCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	entity := fs.String("entity", "", "Filter by entity ID")
	status := fs.String("status", "", "Filter by status")
	open := fs.Bool("open", false, "Hide completed tasks")
	limit := fs.Int("limit", 50, "Maximum number of tasks to show")
	_ = fs.Parse(args)

	tasks, err := app.Practice.ListTasks(ctx, practice.TaskFilter{
		EntityID: *entity,
		Status:   *status,
		OpenOnly: *open,
	})
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	if len(tasks) == 0 {
		_, _ = fmt.Fprintln(app.Out, "No tasks found.")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DUE\tENTITY\tSERVICE\tSTATUS\tID")
	_, _ = fmt.Fprintln(w, "---\t------\t-------\t------\t--")
	for i, t := range tasks {
		if i >= *limit {
			break
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			t.DueDate.Format(models.DateLayout), t.EntityName, t.ServiceName, t.Status, t.ID)
	}
	_ = w.Flush()
	return nil
}
