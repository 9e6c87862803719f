package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cedard234/hammer/internal/log"
	"github.com/cedard234/hammer/internal/tech"
	"github.com/cedard234/hammer/internal/watcher"
)

var (
	libsFilterTag string
	libsAsArgs    bool
	libsOptional  bool
	libsWatch     bool
)

var libsCmd = &cobra.Command{
	Use:   "libs",
	Short: "Run a library filter and print the resolved paths",
	Long: `Runs one of the predefined library filters over the technology's
libraries (descriptor-defined plus vlsi.technology.extra_libraries) and
prints the resolved, existence-checked paths one per line.

With --watch, the command keeps running and re-resolves whenever the
descriptor file changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		constructors := tech.PredefinedFilters()
		ctor, ok := constructors[libsFilterTag]
		if !ok {
			tags := make([]string, 0, len(constructors))
			for tag := range constructors {
				tags = append(tags, tag)
			}
			sort.Strings(tags)
			return fmt.Errorf("unknown filter %q; available: %s", libsFilterTag, strings.Join(tags, ", "))
		}

		t, cleanup, err := loadTechnology()
		if err != nil {
			return err
		}
		defer cleanup()

		run := func() error {
			outputFunc := tech.ToPlainItem
			if libsAsArgs {
				outputFunc = tech.ToCommandLineArgs
			}
			items, err := t.ReadLibs(cmd.Context(), []tech.LibraryFilter{ctor()}, outputFunc, nil, !libsOptional)
			if err != nil {
				return err
			}
			for _, item := range items {
				fmt.Fprintln(cmd.OutOrStdout(), item)
			}
			return nil
		}

		if err := run(); err != nil {
			return err
		}
		if !libsWatch {
			return nil
		}

		descPath := t.DescriptorPath()
		w, err := watcher.New(watcher.DefaultConfig(descPath))
		if err != nil {
			return err
		}
		defer func() { _ = w.Stop() }()
		changes, err := w.Start()
		if err != nil {
			return err
		}
		log.Info(log.CatWatch, "Watching descriptor for changes", "path", descPath)

		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case <-changes:
				reloaded, err := tech.LoadFromFile(descPath)
				if err != nil {
					log.ErrorErr(log.CatWatch, "reloading descriptor", err)
					continue
				}
				// Carry the wiring over to the reloaded technology.
				*t.Config() = *reloaded.Config()
				fmt.Fprintln(cmd.OutOrStdout(), "--- descriptor changed ---")
				if err := run(); err != nil {
					log.ErrorErr(log.CatWatch, "re-running filter", err)
				}
			}
		}
	},
}

func init() {
	libsCmd.Flags().StringVarP(&libsFilterTag, "filter", "f", "", "filter tag to run (required)")
	libsCmd.Flags().BoolVar(&libsAsArgs, "args", false, "print as command-line args (--<tag> <path>)")
	libsCmd.Flags().BoolVar(&libsOptional, "optional", false, "do not fail when a resolved path is missing on disk")
	libsCmd.Flags().BoolVarP(&libsWatch, "watch", "w", false, "keep running and re-resolve when the descriptor changes")
	_ = libsCmd.MarkFlagRequired("filter")
	rootCmd.AddCommand(libsCmd)
}
