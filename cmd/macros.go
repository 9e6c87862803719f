package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var macrosJSON bool

var macrosCmd = &cobra.Command{
	Use:   "macros",
	Short: "List macro sizes from the technology's LEF files and settings overrides",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, cleanup, err := loadTechnology()
		if err != nil {
			return err
		}
		defer cleanup()

		sizes, err := t.GetMacroSizes(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if macrosJSON {
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(sizes)
		}
		for _, size := range sizes {
			fmt.Fprintf(out, "%s\t%s\t%s x %s\n", size.Library, size.Name, size.Width, size.Height)
		}
		return nil
	},
}

func init() {
	macrosCmd.Flags().BoolVar(&macrosJSON, "json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(macrosCmd)
}
