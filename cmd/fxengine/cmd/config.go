package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fxengine/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
}

var configInitOutput string

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Default().SaveToFile(configInitOutput); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", configInitOutput)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.LoadFromFile(cfgPath); err != nil {
			return err
		}
		fmt.Printf("%s is valid\n", cfgPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "./fxengine.yaml", "output path")
}
