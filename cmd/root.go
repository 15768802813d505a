package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/semai/wildscan-go/cmd/scan"
	"github.com/semai/wildscan-go/cmd/serve"
	"github.com/semai/wildscan-go/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wildscan",
		Short: "WildScan CLI",
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(
		serve.Command(settings),
		scan.Command(settings),
	)

	return rootCmd
}

// setupFlags defines global flags available to every subcommand.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		cobra.CheckErr(err)
	}
}
