package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lsmith090/CIPP-sub000/internal/navigation"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Menu definition tooling",
}

var menuValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a menu definition document",
	Long: `Validates a menu document against the schema the gateway enforces at
startup. With no argument, validates the configured PORTALGATE_MENU_PATH.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.MenuPath
		if len(args) == 1 {
			path = args[0]
		}
		menu, err := navigation.Load(path)
		if err != nil {
			return err
		}
		fmt.Printf("%s: valid (version %d, %d top-level entries)\n", path, menu.Version, len(menu.Items))
		return nil
	},
}

func init() {
	menuCmd.AddCommand(menuValidateCmd)
	rootCmd.AddCommand(menuCmd)
}
