package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/testlens/core/pkg/discovery"
	"github.com/testlens/core/pkg/domain"
	"github.com/testlens/core/pkg/reconcile"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "testlens",
	Short:   "Static test discovery for JavaScript/TypeScript",
	Long:    `Discovers test declarations in JavaScript/TypeScript sources without executing them, and reconciles the discovered tree against runner output to report per-test status.`,
	Version: version,
}

type flags struct {
	Workers    int
	Timeout    time.Duration
	ResultPath string
	FilePath   string
}

var globalFlags flags

var scanCmd = &cobra.Command{
	Use:   "scan <path>",
	Short: "Discover tests under a directory",
	Long:  "Scan a directory for test files and print the discovered test trees as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <file>",
	Short: "Match a test file's discovered tests against runner output",
	Long:  "Parse one test file, reconcile its cases against a saved runner result document (JSON or raw output), and print per-test status",
	Args:  cobra.ExactArgs(1),
	RunE:  runReconcile,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(reconcileCmd)

	scanCmd.Flags().IntVarP(&globalFlags.Workers, "workers", "w", 0, "Number of concurrent parsers (0 = GOMAXPROCS)")
	scanCmd.Flags().DurationVar(&globalFlags.Timeout, "timeout", 5*time.Minute, "Scan timeout")

	reconcileCmd.Flags().StringVarP(&globalFlags.ResultPath, "results", "r", "", "Path to the runner's JSON or raw output (required)")
	reconcileCmd.Flags().StringVarP(&globalFlags.FilePath, "file", "f", "", "Path the runner reports for this file (defaults to the scanned file path)")
	_ = reconcileCmd.MarkFlagRequired("results")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), globalFlags.Timeout)
	defer cancel()

	result, err := discovery.Scan(ctx, args[0],
		discovery.WithWorkers(globalFlags.Workers),
		discovery.WithTimeout(globalFlags.Timeout),
	)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	for _, scanErr := range result.Errors {
		color.Yellow("warning: %v", scanErr)
	}

	output := map[string]any{
		"filesScanned": result.Stats.FilesScanned,
		"filesParsed":  result.Stats.FilesParsed,
		"caseCount":    result.Inventory.CountCases(),
		"duration":     result.Stats.Duration.String(),
		"files":        result.Inventory.Files,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	tree, err := discovery.ParseFile(ctx, args[0])
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	output, err := os.ReadFile(globalFlags.ResultPath)
	if err != nil {
		return fmt.Errorf("read results: %w", err)
	}

	filePath := globalFlags.FilePath
	if filePath == "" {
		filePath = args[0]
	}

	leaves := tree.Cases()
	outcomes := reconcile.ReconcileOutput(leaves, output, filePath)

	passed, failed, skipped := 0, 0, 0
	for _, leaf := range leaves {
		outcome := outcomes[leaf]
		switch outcome.Status {
		case domain.RunStatusPassed:
			passed++
			color.Green("  ✓ %s", leaf.FullName())
		case domain.RunStatusFailed:
			failed++
			color.Red("  ✕ %s", leaf.FullName())
			if outcome.FailureText != "" {
				fmt.Println(indent(outcome.FailureText, "      "))
			}
		default:
			skipped++
			color.Yellow("  - %s", leaf.FullName())
		}
	}

	fmt.Println()
	color.Cyan("%d passed, %d failed, %d skipped", passed, failed, skipped)
	if failed > 0 {
		os.Exit(1)
	}
	return nil
}

func indent(text, prefix string) string {
	return prefix + strings.ReplaceAll(text, "\n", "\n"+prefix)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
