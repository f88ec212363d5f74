// ABOUTME: Terminal call desk subcommand
// ABOUTME: Launches the bubbletea UI against the configured backend
package cli

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/harperreed/taxdesk/tui"
)

// TUICommand runs the interactive call desk.
func TUICommand(ctx context.Context, app *App) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui needs an interactive terminal; use 'taxdesk clients next' in scripts")
	}

	desk, agent := app.AgentDesk(ctx)
	if agent == "" {
		return fmt.Errorf("no agent name: set 'agent' in the config file or sign in with 'taxdesk auth login'")
	}
	return tui.Run(ctx, desk, agent)
}
