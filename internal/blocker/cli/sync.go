package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/common/log"
	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/domain"
	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/services/reconciler"
)

var syncDryRun bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile list membership with the configured schedules",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}

		if app.pause.Active() {
			fmt.Printf("Paused (%s remaining), skipping sync\n", app.pause.Remaining().Round(time.Second))
			return nil
		}

		auditStore, err := app.openAudit()
		if err != nil {
			return err
		}
		defer auditStore.Close()

		rec := reconciler.New(reconciler.Options{
			Client:    app.client,
			Evaluator: app.evaluator,
			Auditor:   auditStore,
			Logger:    log.GetLogger(),
			DryRun:    syncDryRun,
		})

		report := rec.Run(cmd.Context(), app.rules.Rules, app.rules.Allowlist)
		renderReport(report)

		if !report.Success {
			return fmt.Errorf("sync finished with %d failed operation(s)", report.Failed)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "compute the plan without applying it")
}

// renderReport prints a reconciliation report for humans. The report
// itself stays structured; this is the only place it becomes text.
func renderReport(report domain.Report) {
	if report.DryRun {
		fmt.Println("DRY RUN MODE - no changes will be made")
	}
	for _, action := range report.Actions {
		verb := strings.ToUpper(action.Kind.String())
		switch {
		case action.Err != nil:
			fmt.Printf("  FAILED %s: %s (%v)\n", verb, action.Domain, action.Err)
		case report.DryRun:
			fmt.Printf("  Would %s: %s\n", verb, action.Domain)
		default:
			fmt.Printf("  %s: %s\n", verb, action.Domain)
		}
	}
	if report.Changed() > 0 || report.Failed > 0 {
		fmt.Printf("Sync: %d blocked, %d unblocked, %d allowed, %d unchanged, %d failed\n",
			report.Blocked, report.Unblocked, report.Allowed, report.Unchanged, report.Failed)
	} else {
		fmt.Println("Sync: no changes needed")
	}
}
