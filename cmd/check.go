package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify install paths and extracted archives without modifying anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, cleanup, err := loadTechnology()
		if err != nil {
			return err
		}
		defer cleanup()

		out := cmd.OutOrStdout()
		ok := true

		if len(t.Config().Installs) > 0 {
			if t.CheckInstalls() {
				fmt.Fprintf(out, "installs: ok (%d configured)\n", len(t.Config().Installs))
			} else {
				fmt.Fprintln(out, "installs: FAILED")
				ok = false
			}
		}

		if len(t.Config().Tarballs) > 0 {
			extractedDir, err := t.ExtractedTarballsDir()
			if err != nil {
				return err
			}
			for _, tarball := range t.Config().Tarballs {
				target := filepath.Join(extractedDir, tarball.Root.ID)
				if _, err := os.Stat(target); err == nil {
					fmt.Fprintf(out, "tarball %s: extracted\n", tarball.Root.ID)
				} else if tarball.Optional {
					fmt.Fprintf(out, "tarball %s: not extracted (optional)\n", tarball.Root.ID)
				} else {
					fmt.Fprintf(out, "tarball %s: NOT EXTRACTED (run 'hammer-tech extract')\n", tarball.Root.ID)
					ok = false
				}
			}
		}

		if !ok {
			return fmt.Errorf("technology %s is not fully materialized", t.Name())
		}
		fmt.Fprintf(out, "technology %s: ok\n", t.Name())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
