// ABOUTME: Entry point for the taxdesk CLI
// ABOUTME: Routes to the web server, terminal desk, MCP server or CLI commands
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/harperreed/taxdesk/cli"
	"github.com/harperreed/taxdesk/config"
	"github.com/harperreed/taxdesk/logging"
)

const version = "0.1.0"

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Config file (default: ~/.config/taxdesk/config.yaml)")
	debug := flag.Bool("debug", false, "Enable debug logging")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("taxdesk version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *debug {
		cfg.Log.Level = "debug"
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(context.Background(), cfg, logger, args); err != nil {
		_ = logger.Sync()
		log.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string) error {
	command := args[0]
	commandArgs := args[1:]

	// auth needs no storage; everything else does.
	if command == "auth" {
		if len(commandArgs) == 0 || commandArgs[0] != "login" {
			printUsage()
			return fmt.Errorf("auth requires the 'login' subcommand")
		}
		return cli.AuthLoginCommand(ctx, cfg, commandArgs[1:], os.Stdout)
	}

	switch command {
	case "serve", "tui", "mcp", "clients", "tasks", "report":
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}

	app, err := cli.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	switch command {
	case "serve":
		return cli.ServeCommand(ctx, app, commandArgs)
	case "tui":
		return cli.TUICommand(ctx, app)
	case "mcp":
		return cli.MCPCommand(ctx, app)
	case "clients":
		if len(commandArgs) == 0 {
			printUsage()
			return fmt.Errorf("clients requires a subcommand")
		}
		switch commandArgs[0] {
		case "next":
			return cli.ClientsNextCommand(ctx, app, commandArgs[1:])
		case "search":
			return cli.ClientsSearchCommand(ctx, app, commandArgs[1:])
		}
		return fmt.Errorf("unknown clients command: %s", commandArgs[0])
	case "tasks":
		if len(commandArgs) == 0 {
			printUsage()
			return fmt.Errorf("tasks requires a subcommand")
		}
		switch commandArgs[0] {
		case "generate":
			return cli.TasksGenerateCommand(ctx, app, commandArgs[1:])
		case "list":
			return cli.TasksListCommand(ctx, app, commandArgs[1:])
		}
		return fmt.Errorf("unknown tasks command: %s", commandArgs[0])
	case "report":
		if len(commandArgs) == 0 {
			printUsage()
			return fmt.Errorf("report requires a subcommand")
		}
		switch commandArgs[0] {
		case "dashboard":
			return cli.ReportDashboardCommand(ctx, app, commandArgs[1:])
		case "graph":
			return cli.ReportGraphCommand(ctx, app, commandArgs[1:])
		}
		return fmt.Errorf("unknown report command: %s", commandArgs[0])
	}
	return nil
}

func printUsage() {
	fmt.Printf(`taxdesk v%s - Client desk and recurring work for a tax office

USAGE:
  taxdesk [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --config <path>        Config file (default: ~/.config/taxdesk/config.yaml)
  --debug                Enable debug logging

COMMANDS:
  serve                  Start the staff web app and upload portal
    --port <n>             Override server.port
    --no-schedule          Do not run the daily task generator

  tui                    Terminal call desk

  mcp                    Start MCP server (for Claude Desktop integration)

  auth login             Sign in with Google and store the token
    --port <n>             Local callback port (default: 8085)
    --no-browser           Print the sign-in URL only

  clients next           Show the next client in the call queue
  clients search <text>  Search clients and the reference sheet
    --limit <n>            Max results (default: 20)

  tasks generate         Create due recurring tasks
    --force                Run even if already run today
  tasks list             List tasks by due date
    --entity <id>          Filter by entity ID
    --status <status>      Filter by status
    --open                 Hide completed tasks
    --limit <n>            Max results (default: 50)

  report dashboard       Queue, client and task summary
  report graph           Entity/service graph in DOT format
    --output <file>        Output file (default: stdout)
    --entity <id>          Only draw one entity

EXAMPLES:
  # Sign in once, then start the web app
  taxdesk auth login
  taxdesk serve

  # Work the queue from a terminal
  taxdesk tui

  # Find a client by phone
  taxdesk clients search 555-222-3333

`, version)
}
