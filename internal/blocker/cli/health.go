package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check configuration, rules, and API connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		passed, total := 0, 0
		check := func(ok bool, name string, detail string) {
			total++
			mark := "FAIL"
			if ok {
				passed++
				mark = "ok"
			}
			if detail != "" {
				fmt.Printf("  [%s] %s: %s\n", mark, name, detail)
			} else {
				fmt.Printf("  [%s] %s\n", mark, name)
			}
		}

		// Config and rules load together; a failure here is fatal.
		app, err := loadApp(cmd.Context())
		if err != nil {
			fmt.Printf("  [FAIL] configuration: %v\n", err)
			return err
		}
		check(true, "configuration", "")
		check(true, "rules", fmt.Sprintf("%d domains, %d allowlist", len(app.rules.Rules), len(app.rules.Allowlist)))

		denylist, err := app.client.Denylist(cmd.Context())
		if err != nil {
			check(false, "API connectivity", err.Error())
		} else {
			check(true, "API connectivity", fmt.Sprintf("%d denylist entries", len(denylist)))
		}

		auditStore, err := app.openAudit()
		if err != nil {
			check(false, "data directory", err.Error())
		} else {
			auditStore.Close()
			check(true, "data directory", app.cfg.DataDir)
		}

		fmt.Printf("\nResult: %d/%d checks passed\n", passed, total)
		if passed != total {
			return fmt.Errorf("health check degraded")
		}
		return nil
	},
}
