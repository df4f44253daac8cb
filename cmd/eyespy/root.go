package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	eslog "github.com/techcorp/EyeSpy/internal/log"
	"github.com/techcorp/EyeSpy/internal/store"
)

// Process exit codes.
const (
	exitOK                  = 0
	exitInvalidInput        = 1
	exitMissingPrerequisite = 2
)

// NewRootCmd creates the root command for EyeSpy.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eyespy",
		Short: "Network camera discovery and audit tool",
		Long: `EyeSpy finds network cameras on a local subnet.

Every host of the subnet is probed for a camera web interface (HTTP banner
keywords), an RTSP server and, optionally, ONVIF device information.
Hosts that answer like a camera are saved to a results file that can be
exported as an HTML, Markdown or text report.

Run without arguments to use the interactive menu.`,
		Version:       getVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runMenuCmd,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewDiscoverCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and exits with a status matching the error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		if errors.Is(err, store.ErrNoResults) {
			fmt.Fprintln(os.Stderr, "No results found. Run a scan first.")
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error returned by a command to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, store.ErrNoResults):
		return exitMissingPrerequisite
	default:
		return exitInvalidInput
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the redacting logger and installs it as the default.
func setupLogger(w io.Writer, verbose bool) *slog.Logger {
	logger := eslog.NewLogger(w, verbose)
	slog.SetDefault(logger)
	return logger
}
