package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bluejays/teamtrack/internal/auth"
	"github.com/bluejays/teamtrack/internal/config"
)

// SecretPrompter reads a confirmed secret.
type SecretPrompter interface {
	PromptAndConfirm(label string) (string, error)
}

// passcodePrompter is the prompter used by the passcode command.
// It can be overridden in tests.
var passcodePrompter SecretPrompter

// hashSecret hashes new secrets. It can be overridden in tests.
var hashSecret = auth.HashSecret

var passcodeClear bool

var passcodeCmd = &cobra.Command{
	Use:   "passcode [coach|team]",
	Short: "Set the coach passcode or team password",
	Long: `Prompts for a secret and stores its argon2id hash in .teamtrack/config.yaml.

  coach  the passcode athletes enter to become a coach (default)
  team   the password required to sign in at all

Use --clear to remove a secret. Clearing the coach passcode disables coach
promotion; clearing the team password opens sign-in to anyone.`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"coach", "team"},
	RunE:      runPasscode,
}

func init() {
	passcodeCmd.Flags().BoolVar(&passcodeClear, "clear", false, "remove the secret instead of setting it")
	rootCmd.AddCommand(passcodeCmd)
}

func runPasscode(cmd *cobra.Command, args []string) error {
	basePath, err := projectDir()
	if err != nil {
		return err
	}

	kind := "coach"
	if len(args) == 1 {
		kind = args[0]
	}

	return setPasscode(basePath, kind, passcodeClear)
}

func setPasscode(basePath, kind string, clear bool) error {
	cfg, err := config.LoadConfig(basePath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var target *string
	var label string
	switch kind {
	case "coach":
		target, label = &cfg.Server.CoachPasscodeHash, "coach passcode"
	case "team":
		target, label = &cfg.Server.TeamPasswordHash, "team password"
	default:
		return fmt.Errorf("unknown secret %q: expected coach or team", kind)
	}

	if clear {
		*target = ""
		if err := config.SaveConfig(basePath, cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Printf("Cleared %s.\n", label)
		return nil
	}

	prompter := passcodePrompter
	if prompter == nil {
		prompter = auth.NewTerminalPrompter()
	}

	secret, err := prompter.PromptAndConfirm(label)
	if err != nil {
		return fmt.Errorf("%s setup failed: %w", label, err)
	}

	hash, err := hashSecret(secret)
	if err != nil {
		return fmt.Errorf("failed to hash %s: %w", label, err)
	}
	*target = hash

	if err := config.SaveConfig(basePath, cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Saved %s to %s.\n", label, config.Path(basePath))
	return nil
}
