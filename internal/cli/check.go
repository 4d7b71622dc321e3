package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/rootcheck/internal/checker"
	"github.com/ppiankov/rootcheck/internal/report"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ErrRootDetected is returned by check --fail-on-root on a positive verdict
var ErrRootDetected = errors.New("root detected")

var (
	outPath    string
	failOnRoot bool
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check this device for root access or tampering",
	Long: `Check runs every registered heuristic once:
- Root shell binaries at well-known paths and on $PATH
- Magisk/KernelSU artifacts and root modules (e.g. playintegrityfix)
- Test-keys, insecure and debuggable build properties
- System paths mounted read-write or writable by this process
- Installed root-management packages
- Attached tracers and permissive SELinux
- Emulator fingerprints (informational)

Each probe is bounded by a per-check timeout; a probe that times out or
faults is reported as inconclusive.

The probes target Android devices and Android system images (--root).
On a desktop Linux host most of them report clean or inconclusive.

Example:
  rootcheck check
  rootcheck check --format json --out verdict.json
  rootcheck check --root /mnt/android-image --detail
  rootcheck check --fail-on-root --format yaml`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	// Output flags
	checkCmd.Flags().String("format", "text", "output format (text, json, yaml)")
	checkCmd.Flags().StringVar(&outPath, "out", "", "write the report to this file instead of stdout")
	checkCmd.Flags().Bool("detail", false, "include every finding, not only suspicious ones")
	checkCmd.Flags().BoolVar(&failOnRoot, "fail-on-root", false, "exit with status 2 when root is detected")

	// Execution flags
	checkCmd.Flags().Int("timeout-ms", 50, "per-heuristic timeout in milliseconds")
	checkCmd.Flags().Bool("sequential", false, "run heuristics one at a time in registration order")
	checkCmd.Flags().Int("workers", 0, "parallel workers (0 = one per heuristic)")
	checkCmd.Flags().String("root", "/", "filesystem root to probe (a mounted device image for offline checks)")

	// Policy flags
	checkCmd.Flags().Int("high-threshold", 1, "suspicious high-confidence findings that make a device rooted")
	checkCmd.Flags().Int("medium-count", 2, "suspicious medium-confidence findings that make a device rooted")

	_ = viper.BindPFlag("output.format", checkCmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("output.detail", checkCmd.Flags().Lookup("detail"))
	_ = viper.BindPFlag("execution.per_check_timeout_ms", checkCmd.Flags().Lookup("timeout-ms"))
	_ = viper.BindPFlag("execution.sequential", checkCmd.Flags().Lookup("sequential"))
	_ = viper.BindPFlag("execution.workers", checkCmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("probe.root", checkCmd.Flags().Lookup("root"))
	_ = viper.BindPFlag("policy.high_confidence_threshold", checkCmd.Flags().Lookup("high-threshold"))
	_ = viper.BindPFlag("policy.medium_confidence_count", checkCmd.Flags().Lookup("medium-count"))
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	c, err := checker.NewDefault(cfg)
	if err != nil {
		return fmt.Errorf("initialize checker: %w", err)
	}

	renderer, err := report.NewRenderer(cfg.Output.Format)
	if err != nil {
		return err
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Probe root:  %s\n", cfg.Probe.Root)
		fmt.Fprintf(os.Stderr, "Heuristics:  %d\n", c.Registry().Len())
		fmt.Fprintf(os.Stderr, "Timeout:     %v per check\n", cfg.Execution.PerCheckTimeout())
		fmt.Fprintln(os.Stderr)
	}

	// The runner bounds every probe; this only guards against a pathological scheduler
	budget := time.Duration(c.Registry().Len()+1) * cfg.Execution.PerCheckTimeout() * 2
	ctx, cancel := context.WithTimeout(context.Background(), budget)
	defer cancel()

	rep := c.Report(ctx)

	if outPath != "" {
		if err := renderer.WriteFile(outPath, rep); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote report: %s\n", outPath)
		}
		if cfg.Output.Format != "text" {
			if err := report.RenderText(os.Stderr, rep); err != nil {
				return fmt.Errorf("render summary: %w", err)
			}
		}
	} else if err := renderer.Render(os.Stdout, rep); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	if failOnRoot && rep.Verdict.Rooted {
		return ErrRootDetected
	}
	return nil
}
