package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Materialize the technology's archives into the cache directory",
	Long: `Extracts every archive the technology descriptor references into the
extracted-tarballs directory and verifies configured install paths. Running
extract twice is a no-op: archives whose target directory already exists are
skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, cleanup, err := loadTechnology()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := t.ExtractTechnologyFiles(cmd.Context()); err != nil {
			return err
		}

		dir, err := t.ExtractedTarballsDir()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "technology %s materialized under %s\n", t.Name(), dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
