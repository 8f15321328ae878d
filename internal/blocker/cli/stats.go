package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show action totals from the audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		auditStore, err := app.openAudit()
		if err != nil {
			return err
		}
		defer auditStore.Close()

		counts, total, err := auditStore.CountByAction()
		if err != nil {
			return err
		}
		if total == 0 {
			fmt.Println("No actions recorded")
			return nil
		}

		actions := make([]string, 0, len(counts))
		for action := range counts {
			actions = append(actions, action)
		}
		sort.Strings(actions)
		for _, action := range actions {
			fmt.Printf("  %s: %d\n", action, counts[action])
		}
		fmt.Printf("\nTotal entries: %d\n", total)
		return nil
	},
}
