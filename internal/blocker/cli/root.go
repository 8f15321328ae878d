// Package cli wires the blocker's cobra commands. Commands render the
// core's structured results; no reconciliation logic lives here.
package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/common/log"
	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/config"
	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/gateways/nextdns"
	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/repos/audit"
	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/repos/pause"
	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/repos/rules"
	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/services/schedule"
)

var version = "dev"

// SetVersion records the build version for the version command.
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:           "nextdns-blocker",
	Short:         "Schedule-driven NextDNS denylist reconciler",
	Long:          "Reconciles NextDNS denylist and allowlist membership against per-domain weekly availability schedules.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(allowCmd)
	rootCmd.AddCommand(disallowCmd)
	rootCmd.AddCommand(unblockCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

// app bundles the wired components one command invocation needs.
type app struct {
	cfg       *config.AppConfig
	client    *nextdns.Client
	evaluator *schedule.Evaluator
	rules     rules.RuleSet
	pause     *pause.Flag
}

// loadApp loads configuration, configures logging, loads and validates
// the rules document, and builds the API client.
func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("logging configuration error: %w", err)
	}

	evaluator, err := schedule.New(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	var ruleSet rules.RuleSet
	if cfg.DomainsURL != "" {
		ruleSet, err = rules.LoadURL(ctx, &http.Client{Timeout: cfg.Timeout()}, cfg.DomainsURL)
	} else {
		ruleSet, err = rules.Load(cfg.DomainsFile)
	}
	if err != nil {
		return nil, err
	}

	// NDB_API_RETRIES=0 means no retries; the client expresses that as
	// a negative value since zero selects its default.
	retries := cfg.APIRetries
	if retries == 0 {
		retries = -1
	}

	client, err := nextdns.New(nextdns.Options{
		APIKey:    cfg.APIKey,
		ProfileID: cfg.ProfileID,
		Timeout:   cfg.Timeout(),
		Retries:   retries,
		Logger:    log.GetLogger(),
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		client:    client,
		evaluator: evaluator,
		rules:     ruleSet,
		pause:     pause.New(cfg.DataDir, nil),
	}, nil
}

// openAudit opens the audit trail under the configured data directory.
// Callers own the returned store and must close it.
func (a *app) openAudit() (*audit.Store, error) {
	if err := os.MkdirAll(a.cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return audit.Open(filepath.Join(a.cfg.DataDir, "audit.db"))
}
