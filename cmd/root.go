package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cedard234/hammer/internal/log"
	"github.com/cedard234/hammer/internal/settings"
	"github.com/cedard234/hammer/internal/tech"
	"github.com/cedard234/hammer/internal/tracing"
)

var (
	version  = "dev"
	cfgFile  string
	techPath string
	cacheDir string
	debug    bool
	traceOn  bool
)

var rootCmd = &cobra.Command{
	Use:   "hammer-tech",
	Short: "Query and materialize VLSI technology descriptors",
	Long: `hammer-tech loads a technology descriptor (tech.json/tech.yml),
materializes the archives and installs it references, and resolves abstract
library artifacts (timing libs, LEFs, GDS, rule decks) into verified
filesystem paths for consumption by CAD-tool flows.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"settings file (default: ./hammer-tech.yaml, then ~/.config/hammer-tech/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&techPath, "tech", "t", "",
		"technology descriptor file, or a directory containing <name>.tech.json")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "",
		"cache directory (default: <user cache dir>/hammer-tech/<tech name>)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&traceOn, "trace", false,
		"emit OpenTelemetry spans (see tracing.* settings for the exporter)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Settings lookup order:
		// 1. ./hammer-tech.yaml (current directory)
		// 2. ~/.config/hammer-tech/config.yaml (user config)
		if _, err := os.Stat("hammer-tech.yaml"); err == nil {
			viper.SetConfigFile("hammer-tech.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "hammer-tech"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// Running without a settings file is fine; install-path and supply
		// lookups will just report keys as not configured.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			fmt.Fprintf(os.Stderr, "reading settings file: %v\n", err)
		}
	}

	log.InitStderr()
	if debug {
		log.SetMinLevel(log.LevelDebug)
	}
}

// loadTechnology builds the fully wired Technology for a subcommand run. The
// returned cleanup func flushes tracing and must be called before exit.
func loadTechnology() (*tech.Technology, func(), error) {
	if techPath == "" {
		return nil, nil, fmt.Errorf("no technology given: pass --tech <descriptor or directory>")
	}

	info, err := os.Stat(techPath)
	if err != nil {
		return nil, nil, fmt.Errorf("technology path %s: %w", techPath, err)
	}

	var t *tech.Technology
	if info.IsDir() {
		t, err = tech.LoadFromDir(techPath)
	} else {
		t, err = tech.LoadFromFile(techPath)
	}
	if err != nil {
		return nil, nil, err
	}

	t.SetDatabase(settings.NewStore(viper.GetViper()))

	dir := cacheDir
	if dir == "" {
		userCache, err := os.UserCacheDir()
		if err != nil {
			return nil, nil, fmt.Errorf("locating user cache dir: %w", err)
		}
		dir = filepath.Join(userCache, "hammer-tech", t.Name())
	}
	if err := t.SetCacheDir(dir); err != nil {
		return nil, nil, err
	}

	tcfg := tracing.DefaultConfig()
	tcfg.Enabled = traceOn || viper.GetBool("tracing.enabled")
	if exporter := viper.GetString("tracing.exporter"); exporter != "" {
		tcfg.Exporter = exporter
	}
	if fp := viper.GetString("tracing.file_path"); fp != "" {
		tcfg.FilePath = fp
	} else {
		tcfg.FilePath = filepath.Join(dir, "traces", "traces.jsonl")
	}
	if ep := viper.GetString("tracing.otlp_endpoint"); ep != "" {
		tcfg.OTLPEndpoint = ep
	}
	provider, err := tracing.NewProvider(tcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing tracing: %w", err)
	}
	t.SetTracer(provider.Tracer())

	cleanup := func() {
		if err := provider.Shutdown(rootCmd.Context()); err != nil {
			log.ErrorErr(log.CatTrace, "flushing traces", err)
		}
	}
	return t, cleanup, nil
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "hammer-tech: %v\n", err)
	}
	return err
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
