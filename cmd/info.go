package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cedard234/hammer/internal/settings"
)

var (
	infoStackup string
	infoSite    string
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show a summary of the loaded technology",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, cleanup, err := loadTechnology()
		if err != nil {
			return err
		}
		defer cleanup()

		out := cmd.OutOrStdout()

		if infoStackup != "" {
			stackup, err := t.GetStackupByName(infoStackup)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "stackup %s (grid unit %s)\n", stackup.Name, stackup.GridUnit)
			for _, metal := range stackup.Metals {
				fmt.Fprintf(out, "  %d\t%s\t%s\tmin width %s\tpitch %s\n",
					metal.Index, metal.Name, metal.Direction, metal.MinWidth, metal.Pitch)
			}
			return nil
		}

		if infoSite != "" {
			site, err := t.GetSiteByName(infoSite)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "site %s: %s x %s\n", site.Name, site.X, site.Y)
			return nil
		}

		fmt.Fprintf(out, "technology: %s\n", t.Name())
		fmt.Fprintf(out, "descriptor: %s\n", t.DescriptorPath())

		libs, err := t.AvailableLibraries()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "libraries: %d\n", len(libs))

		if unit, err := t.GetGridUnit(); err == nil {
			fmt.Fprintf(out, "grid unit: %s\n", unit)
		}
		if factor, err := t.GetShrinkFactor(); err == nil {
			fmt.Fprintf(out, "shrink factor: %s\n", factor)
		}

		if err := t.LoadLibUnits(cmd.Context()); err == nil {
			if t.TimeUnit() != "" {
				fmt.Fprintf(out, "time unit: %s\n", t.TimeUnit())
			}
			if t.CapUnit() != "" {
				fmt.Fprintf(out, "cap unit: %s\n", t.CapUnit())
			}
		}

		if cells := t.DontUseList(); cells != nil {
			fmt.Fprintf(out, "dont-use cells: %d\n", len(cells))
		}
		if cells := t.PhysicalOnlyCellsList(); cells != nil {
			fmt.Fprintf(out, "physical-only cells: %d\n", len(cells))
		}

		site, err := t.GetPlacementSite()
		switch {
		case err == nil:
			fmt.Fprintf(out, "placement site: %s (%s x %s)\n", site.Name, site.X, site.Y)
		case errors.Is(err, settings.ErrNotConfigured):
			// No configured placement site is fine for a summary.
		default:
			return err
		}

		for _, stackup := range t.Config().Stackups {
			fmt.Fprintf(out, "stackup: %s (%d metals)\n", stackup.Name, len(stackup.Metals))
		}
		return nil
	},
}

func init() {
	infoCmd.Flags().StringVar(&infoStackup, "stackup", "", "print details for one stackup")
	infoCmd.Flags().StringVar(&infoSite, "site", "", "print details for one placement site")
	rootCmd.AddCommand(infoCmd)
}
