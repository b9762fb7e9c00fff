package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Generate a board and print it as a YAML snapshot",
	Long: `Generate a board and print it as a YAML snapshot, which serve --snapshot
can load to play the same board repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		g, err := newGame(cfg)
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), g.Snapshot().Serialize())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
}
