package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/bluejays/teamtrack/internal/config"
	"github.com/bluejays/teamtrack/internal/drill"
	"github.com/bluejays/teamtrack/internal/team"
	"github.com/bluejays/teamtrack/internal/tui"
)

var (
	drillUID     string
	drillSeconds int
)

var drillCmd = &cobra.Command{
	Use:   "drill",
	Short: "Run the focus grid drill in the terminal",
	Long: `Runs the focus grid drill in the terminal. Type each number, two digits
at a time, in order from 00. Press s to start, r for a new grid after a drill
and q to quit.

With --uid, every finished drill is saved to that member's focus history.`,
	Args: cobra.NoArgs,
	RunE: runDrill,
}

func init() {
	drillCmd.Flags().StringVar(&drillUID, "uid", "", "member to record scores for")
	drillCmd.Flags().IntVar(&drillSeconds, "seconds", 0, "drill length in seconds (overrides config)")
	rootCmd.AddCommand(drillCmd)
}

// resultLog collects finished drills from the session goroutine.
type resultLog struct {
	mu      sync.Mutex
	results []drill.Result
}

func (l *resultLog) Record(r drill.Result) {
	l.mu.Lock()
	l.results = append(l.results, r)
	l.mu.Unlock()
}

func (l *resultLog) all() []drill.Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]drill.Result(nil), l.results...)
}

func runDrill(cmd *cobra.Command, args []string) error {
	basePath, err := projectDir()
	if err != nil {
		return err
	}

	terminal := tui.NewTerminal(os.Stdout)
	if !terminal.IsTerminal() {
		return errors.New("drill needs an interactive terminal")
	}

	cfg, err := config.LoadConfig(basePath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("seconds") {
		cfg.Drill.DurationSeconds = drillSeconds
	}

	var svc *team.Service
	if drillUID != "" {
		s, closeFn, err := openService(cmd.Context(), basePath)
		if err != nil {
			return err
		}
		defer closeFn()
		if _, err := s.Profile(cmd.Context(), drillUID); err != nil {
			if errors.Is(err, team.ErrNotFound) {
				return fmt.Errorf("member not found: %s", drillUID)
			}
			return fmt.Errorf("failed to load profile: %w", err)
		}
		svc = s
	}

	if err := terminal.EnterRaw(); err != nil {
		return err
	}
	results, runErr := playDrill(cmd.Context(), cfg.Drill, terminal.Input(), os.Stdout)
	if err := terminal.ExitRaw(); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	return saveDrillResults(cmd.Context(), svc, drillUID, results)
}

// playDrill runs drills on in/out until the user quits and returns every
// finished drill.
func playDrill(ctx context.Context, cfg config.DrillConfig, in io.Reader, out io.Writer) ([]drill.Result, error) {
	if cfg.DurationSeconds <= 0 {
		return nil, drill.ErrInvalidDuration
	}

	collected := &resultLog{}
	opts := drill.DefaultOptions()
	opts.Duration = cfg.DurationSeconds
	opts.GridSize = cfg.GridSize
	opts.Sink = collected

	session := drill.NewSession(drill.NewMachine(opts))
	defer session.Close()

	if err := tui.NewApp(session, in, out).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return nil, err
	}
	return collected.all(), nil
}

// saveDrillResults records results for uid. Without a service the scores are
// only printed.
func saveDrillResults(ctx context.Context, svc *team.Service, uid string, results []drill.Result) error {
	if len(results) == 0 {
		fmt.Println("No drills finished.")
		return nil
	}

	for _, r := range results {
		fmt.Printf("Score: %d\n", r.Score)
	}
	if svc == nil {
		return nil
	}

	p, err := svc.Profile(ctx, uid)
	if errors.Is(err, team.ErrNotFound) {
		return fmt.Errorf("member not found: %s", uid)
	}
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	for _, r := range results {
		if _, err := svc.RecordFocus(ctx, uid, r.Score); err != nil {
			return fmt.Errorf("failed to record score: %w", err)
		}
	}
	fmt.Printf("Saved %d drill score(s) for %s.\n", len(results), p.Name)
	return nil
}
