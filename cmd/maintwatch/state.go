package main

import (
	"fmt"

	"github.com/cuemby/maintwatch/pkg/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newStateCmd(v *viper.Viper) *cobra.Command {
	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or reset the persisted maintenance state",
	}

	stateShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the persisted maintenance event",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStateStore(v)
			if err != nil {
				return err
			}
			defer store.Close()

			event, err := store.Load()
			if err != nil {
				return fmt.Errorf("failed to read state: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), event.String())
			return nil
		},
	}

	stateResetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget the persisted maintenance event",
		Long: `Forget the persisted maintenance event.

The next event reported by the metadata server is then treated as new, so a
running agent will drain (or undrain) again on its next poll.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStateStore(v)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Clear(); err != nil {
				return fmt.Errorf("failed to reset state: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Maintenance state reset")
			return nil
		},
	}

	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateResetCmd)
	return stateCmd
}

func newConfigCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func openStateStore(v *viper.Viper) (storage.Store, error) {
	cfg, err := loadConfig(v)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(cfg.StateBackend, cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	return store, nil
}
