package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bluejays/teamtrack/internal/team"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history <uid>",
	Short: "Show a member's weigh-ins and focus drill scores",
	Long: `Shows a member's profile followed by their most recent weigh-ins and
focus drill scores, newest first. Use 'teamtrack roster' to find uids.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "entries per section (0 for all)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	basePath, err := projectDir()
	if err != nil {
		return err
	}

	svc, closeFn, err := openService(cmd.Context(), basePath)
	if err != nil {
		return err
	}
	defer closeFn()

	return showHistory(cmd.Context(), svc, args[0], historyLimit)
}

func showHistory(ctx context.Context, svc *team.Service, uid string, limit int) error {
	if limit < 0 {
		return fmt.Errorf("limit must not be negative: %d", limit)
	}

	p, err := svc.Profile(ctx, uid)
	if errors.Is(err, team.ErrNotFound) {
		return fmt.Errorf("member not found: %s", uid)
	}
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	weights, err := svc.Weights(ctx, uid, limit)
	if err != nil {
		return fmt.Errorf("failed to load weigh-ins: %w", err)
	}
	scores, err := svc.FocusHistory(ctx, uid, limit)
	if err != nil {
		return fmt.Errorf("failed to load focus history: %w", err)
	}

	printField("Name", p.Name)
	if p.Email != "" {
		printField("Email", p.Email)
	}
	printField("Role", string(p.Role))
	printField("Weight Class", p.WeightClass)
	fmt.Println()

	fmt.Println("Weigh-ins:")
	if len(weights) == 0 {
		fmt.Println("  none")
	}
	for _, w := range weights {
		line := fmt.Sprintf("  %s  %6.1f lbs", w.Date.Local().Format(dateFormat), w.Weight)
		if w.Notes != "" {
			line += "  " + w.Notes
		}
		fmt.Println(line)
	}
	fmt.Println()

	fmt.Println("Focus drills:")
	if len(scores) == 0 {
		fmt.Println("  none")
	}
	for _, f := range scores {
		fmt.Printf("  %s  %3d\n", f.Date.Local().Format(dateFormat), f.Score)
	}

	return nil
}

const dateFormat = "2006-01-02 15:04"

func printField(label, value string) {
	fmt.Printf("%-14s %s\n", label+":", value)
}
