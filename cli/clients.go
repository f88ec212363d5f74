// ABOUTME: Client desk CLI commands
// ABOUTME: Prints the next queued client and searches clients and the reference sheet
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/taxdesk/crm"
	"github.com/harperreed/taxdesk/models"
)

// ClientsNextCommand shows one client from the call queue.
func ClientsNextCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("next", flag.ExitOnError)
	_ = fs.Parse(args)

	client, err := app.Desk.Next(ctx)
	if errors.Is(err, crm.ErrQueueEmpty) {
		_, _ = fmt.Fprintln(app.Out, "No clients left in the queue.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to pick next client: %w", err)
	}

	size, err := app.Desk.QueueSize(ctx)
	if err != nil {
		return err
	}

	printClient(app, client)
	_, _ = fmt.Fprintf(app.Out, "\n%d client(s) in the queue\n", size)
	return nil
}

func printClient(app *App, c *models.Client) {
	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	row := func(label, value string) {
		if value != "" {
			_, _ = fmt.Fprintf(w, "%s\t%s\n", label, value)
		}
	}
	row("ID", c.ID)
	row("Name", c.Name)
	row("Phone", c.Phone)
	row("Email", c.Email)
	row("Spouse email", c.SpouseEmail)
	row("Status", c.Status)
	row("Outcome", c.Outcome)
	row("Last agent", c.LastAgent)
	row("Last updated", c.LastUpdated)
	_ = w.Flush()

	if notes := strings.TrimSpace(c.Notes); notes != "" {
		_, _ = fmt.Fprintf(app.Out, "\nNotes:\n%s\n", notes)
	}
}

// ClientsSearchCommand searches clients by name, email, notes or phone, and
// the reference sheet by any cell.
func ClientsSearchCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Maximum number of clients to show")
	_ = fs.Parse(args)

	query := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("search query is required")
	}

	found, err := app.Desk.Find(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to search clients: %w", err)
	}

	if len(found) == 0 {
		_, _ = fmt.Fprintln(app.Out, "No clients found.")
	} else {
		w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tNAME\tPHONE\tEMAIL\tSTATUS")
		_, _ = fmt.Fprintln(w, "--\t----\t-----\t-----\t------")
		for i, c := range found {
			if i >= *limit {
				break
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Phone, c.Email, c.Status)
		}
		_ = w.Flush()
		if len(found) > *limit {
			_, _ = fmt.Fprintf(app.Out, "... and %d more\n", len(found)-*limit)
		}
	}

	ref := app.Store.LoadReference(ctx)
	matches := crm.SearchReference(ref, query)
	if len(matches) > 0 {
		_, _ = fmt.Fprintf(app.Out, "\nReference matches:\n")
		for _, rec := range matches {
			_, _ = fmt.Fprintf(app.Out, "  %s\n", crm.FormatReference(ref, rec))
		}
	}
	return nil
}
