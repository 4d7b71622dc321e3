package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/rootcheck/internal/checker"
	"github.com/ppiankov/rootcheck/internal/model"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	logFormat string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "rootcheck",
	Short: "rootcheck - device integrity (root/tamper) checker",
	Long: `rootcheck runs a fixed battery of independent, read-only heuristics
looking for evidence that a device is rooted or tampered with, and combines
them into a single verdict under an explicit, documented policy.

A probe that cannot complete is reported as inconclusive. It is never
treated as evidence of compromise.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of rootcheck.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s\n", checker.Tool, checker.Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.rootcheck/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setDefaults(model.DefaultConfig())

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			log.Warnf("Error finding home directory: %v", err)
		} else {
			// Search for config in home directory
			viper.AddConfigPath(home + "/.rootcheck")
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match ROOTCHECK_* (ROOTCHECK_POLICY_HIGH_CONFIDENCE_THRESHOLD, ...)
	viper.SetEnvPrefix("ROOTCHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		log.Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		log.Warnf("Could not read config file %s: %v", cfgFile, err)
	}
}

// setDefaults registers every config key so env vars and Unmarshal see them
func setDefaults(cfg *model.Config) {
	viper.SetDefault("policy.high_confidence_threshold", cfg.Policy.HighConfidenceThreshold)
	viper.SetDefault("policy.medium_confidence_count", cfg.Policy.MediumConfidenceCount)
	viper.SetDefault("execution.per_check_timeout_ms", cfg.Execution.PerCheckTimeoutMS)
	viper.SetDefault("execution.sequential", cfg.Execution.Sequential)
	viper.SetDefault("execution.workers", cfg.Execution.Workers)
	viper.SetDefault("boundary.cache_ttl", cfg.Boundary.CacheTTL)
	viper.SetDefault("boundary.max_runs_per_minute", cfg.Boundary.MaxRunsPerMinute)
	viper.SetDefault("probe.root", cfg.Probe.Root)
	viper.SetDefault("output.format", cfg.Output.Format)
	viper.SetDefault("output.detail", cfg.Output.Detail)
	viper.SetDefault("output.verbose", cfg.Output.Verbose)
}

// loadConfig decodes the effective configuration (flags > env > file > defaults)
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// setupLogging configures logrus from the global flags and output.verbose
func setupLogging() error {
	log.SetOutput(os.Stderr)

	switch logFormat {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format: %q (supported: text, json)", logFormat)
	}

	// output.verbose carries --verbose, ROOTCHECK_OUTPUT_VERBOSE and the config file
	if viper.GetBool("output.verbose") {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
	return nil
}
