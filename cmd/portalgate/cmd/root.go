package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lsmith090/CIPP-sub000/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "portalgate",
	Short: "Authentication gateway for the partner-management portal",
	Long: `portalgate reconciles the platform session principal and the
application permission principal into one authoritative auth state, and
serves that state plus the permission-filtered navigation tree to the UI.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
}

func init() {
	// Global flags (documentation only; values come from the environment)
	rootCmd.PersistentFlags().String("listen-addr", "", "Server bind address (env: PORTALGATE_LISTEN_ADDR)")
	rootCmd.PersistentFlags().String("menu-path", "", "Menu definition file (env: PORTALGATE_MENU_PATH)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging (env: PORTALGATE_DEBUG)")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
