package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/repos/audit"
)

const defaultPauseMinutes = 30

var pauseCmd = &cobra.Command{
	Use:   "pause [minutes]",
	Short: "Temporarily suspend reconciliation",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes := defaultPauseMinutes
		if len(args) == 1 {
			parsed, err := strconv.Atoi(args[0])
			if err != nil || parsed <= 0 {
				return fmt.Errorf("invalid minutes value: %q", args[0])
			}
			minutes = parsed
		}

		app, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		until, err := app.pause.Set(time.Duration(minutes) * time.Minute)
		if err != nil {
			return err
		}
		recordManual(app, "pause", "", fmt.Sprintf("%d minutes until %s", minutes, until.Format(time.RFC3339)))

		fmt.Printf("Blocking paused for %d minutes\nResumes at: %s\n", minutes, until.Format("15:04"))
		return nil
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Clear an active pause",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		wasPaused, err := app.pause.Clear()
		if err != nil {
			return err
		}
		if !wasPaused {
			fmt.Println("Not currently paused")
			return nil
		}
		recordManual(app, "resume", "", "")
		fmt.Println("Blocking resumed")
		return nil
	},
}

// recordManual best-effort appends a manual CLI action to the audit
// trail; trail failures never fail the command itself.
func recordManual(app *app, action, domainName, detail string) {
	store, err := app.openAudit()
	if err != nil {
		return
	}
	defer store.Close()
	_ = store.Append(audit.Event{Action: action, Domain: domainName, Detail: detail})
}
