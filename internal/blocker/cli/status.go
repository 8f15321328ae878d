package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the desired state of every configured domain",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}

		if app.pause.Active() {
			fmt.Printf("Status: PAUSED (%s remaining)\n\n", app.pause.Remaining().Round(time.Second))
		}

		now := time.Now()
		fmt.Printf("Domains (%d):\n", len(app.rules.Rules))
		for _, rule := range app.rules.Rules {
			state := "available"
			desired, err := app.evaluator.ShouldBlock(rule.Schedule, now)
			switch {
			case err != nil:
				state = "blocked (malformed schedule)"
			case rule.Protected:
				state = "blocked (protected)"
			case desired:
				state = "blocked"
			}
			fmt.Printf("  %-40s %s\n", rule.Name, state)
		}

		if len(app.rules.Allowlist) > 0 {
			fmt.Printf("\nAllowlist (%d):\n", len(app.rules.Allowlist))
			for _, entry := range app.rules.Allowlist {
				fmt.Printf("  %-40s always allowed\n", entry.Name)
			}
		}
		return nil
	},
}
