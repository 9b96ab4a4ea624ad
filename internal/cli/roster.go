package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bluejays/teamtrack/internal/config"
	"github.com/bluejays/teamtrack/internal/storage/sqlite"
	"github.com/bluejays/teamtrack/internal/team"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "List team members",
	Long: `Lists every member on the roster with their weight class, sorted by name.

Reads the database directly, so it works while the server is stopped.`,
	Args: cobra.NoArgs,
	RunE: runRoster,
}

func init() {
	rootCmd.AddCommand(rosterCmd)
}

// openService opens the project's database and returns a service over it
// with a func that closes the database.
func openService(ctx context.Context, basePath string) (*team.Service, func(), error) {
	cfg, err := config.LoadConfig(basePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := sqlite.Open(ctx, cfg.DatabasePath(basePath))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	closeFn := func() { store.Close() }
	return team.NewService(store, cfg.Server.CoachPasscodeHash), closeFn, nil
}

func runRoster(cmd *cobra.Command, args []string) error {
	basePath, err := projectDir()
	if err != nil {
		return err
	}

	svc, closeFn, err := openService(cmd.Context(), basePath)
	if err != nil {
		return err
	}
	defer closeFn()

	return listRoster(cmd.Context(), svc)
}

func listRoster(ctx context.Context, svc *team.Service) error {
	members, err := svc.AllMembers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list roster: %w", err)
	}

	if len(members) == 0 {
		fmt.Println("No team members yet.")
		return nil
	}

	// Calculate column widths
	nameWidth := len("NAME")
	emailWidth := len("EMAIL")
	classWidth := len("WEIGHT CLASS")
	for _, m := range members {
		nameWidth = max(nameWidth, len(m.Name))
		emailWidth = max(emailWidth, len(m.Email))
		classWidth = max(classWidth, len(m.WeightClass))
	}

	fmt.Printf("%-*s  %-*s  %-*s  %s\n", nameWidth, "NAME", emailWidth, "EMAIL", classWidth, "WEIGHT CLASS", "UID")
	for _, m := range members {
		fmt.Printf("%-*s  %-*s  %-*s  %s\n", nameWidth, m.Name, emailWidth, m.Email, classWidth, m.WeightClass, m.UID)
	}

	return nil
}
