package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bluejays/teamtrack/internal/config"
	"github.com/bluejays/teamtrack/internal/logging"
	"github.com/bluejays/teamtrack/internal/server"
	"github.com/bluejays/teamtrack/internal/storage/sqlite"
	"github.com/bluejays/teamtrack/internal/team"
)

var (
	servePort   int
	serveGuests bool
)

// coachSetupCommand is suggested when the roster is unreachable.
const coachSetupCommand = "teamtrack passcode coach"

// startServer runs srv until ctx is done. It can be overridden in tests.
var startServer = defaultStartServer

func defaultStartServer(ctx context.Context, srv *server.Server) error {
	return srv.Start(ctx)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the team app server",
	Long: `Starts the HTTP API and live drill view.

Configuration is read from .teamtrack/config.yaml and TEAMTRACK_* environment
variables. Flags override both. The server stops on SIGINT or SIGTERM after
flushing pending drill results.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&serveGuests, "guests", false, "allow guest sign-in (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

// serveOverrides carries flag values that replace config settings.
type serveOverrides struct {
	port   *int
	guests *bool
}

func runServe(cmd *cobra.Command, args []string) error {
	basePath, err := projectDir()
	if err != nil {
		return err
	}

	var overrides serveOverrides
	if cmd.Flags().Changed("port") {
		overrides.port = &servePort
	}
	if cmd.Flags().Changed("guests") {
		overrides.guests = &serveGuests
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, basePath, overrides)
}

// serve runs the server until ctx is cancelled.
func serve(ctx context.Context, basePath string, overrides serveOverrides) error {
	cfg, err := config.LoadConfig(basePath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if overrides.port != nil {
		cfg.Server.Port = *overrides.port
	}
	if overrides.guests != nil {
		cfg.Server.AllowGuests = *overrides.guests
	}
	if err := config.ValidateServerConfig(&cfg.Server); err != nil {
		return err
	}

	logging.Configure(os.Stderr, cfg.Log.Format, cfg.LogLevel())

	if cfg.Server.CoachPasscodeHash == "" {
		logging.Warn("no coach passcode configured, run '" + coachSetupCommand + "' to enable the roster")
	}

	store, err := sqlite.Open(ctx, cfg.DatabasePath(basePath))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error("failed to close database", "error", err)
		}
	}()

	svc := team.NewService(store, cfg.Server.CoachPasscodeHash)
	srv, err := server.NewServerFromConfig(cfg, svc)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return startServer(ctx, srv)
}
