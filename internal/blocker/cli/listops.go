package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nextdns-blocker/nextdns-blocker/internal/blocker/common/validate"
)

var allowCmd = &cobra.Command{
	Use:   "allow <domain>",
	Short: "Add a domain to the remote allowlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		name := validate.CanonicalDomain(args[0])

		// A configured denylist rule would fight the allow on the next
		// pass; refuse instead of creating a tug of war.
		for _, rule := range app.rules.Rules {
			if rule.Name == name {
				return fmt.Errorf("%s is a configured denylist domain; remove it from the domains file first", name)
			}
		}

		if err := app.client.Allow(cmd.Context(), name); err != nil {
			return err
		}
		recordManual(app, "allow", name, "manual")
		fmt.Printf("Added to allowlist: %s\n", name)
		return nil
	},
}

var disallowCmd = &cobra.Command{
	Use:   "disallow <domain>",
	Short: "Remove a domain from the remote allowlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		name := validate.CanonicalDomain(args[0])
		if err := app.client.Disallow(cmd.Context(), name); err != nil {
			return err
		}
		recordManual(app, "disallow", name, "manual")
		fmt.Printf("Removed from allowlist: %s\n", name)
		return nil
	},
}

var unblockCmd = &cobra.Command{
	Use:   "unblock <domain>",
	Short: "Remove a domain from the remote denylist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}
		name := validate.CanonicalDomain(args[0])

		// Protected domains stay blocked, even by hand.
		for _, rule := range app.rules.Rules {
			if rule.Name == name && rule.Protected {
				return fmt.Errorf("%s is protected and cannot be unblocked", name)
			}
		}

		if err := app.client.Unblock(cmd.Context(), name); err != nil {
			return err
		}
		recordManual(app, "unblock", name, "manual")
		fmt.Printf("Unblocked: %s (next sync may re-block it per schedule)\n", name)
		return nil
	},
}
