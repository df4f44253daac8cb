package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/techcorp/EyeSpy/internal/config"
	"github.com/techcorp/EyeSpy/internal/report"
	"github.com/techcorp/EyeSpy/internal/ui"
)

// runMenuCmd runs the interactive menu. It is the root command's action,
// so it only runs when eyespy is started without a subcommand.
func runMenuCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()

	scanAction := func(ctx context.Context, subnet string) (int, error) {
		scanCfg := *cfg
		scanCfg.Subnet = subnet
		if err := scanCfg.ValidateScan(); err != nil {
			return 0, err
		}
		record, err := runScan(ctx, &scanCfg, out, logger)
		if err != nil {
			return 0, err
		}
		return len(record.Verdicts), nil
	}

	reportAction := func(context.Context) (string, error) {
		path := config.DefaultReportFile
		if err := exportReport(cfg.OutputFile, path, report.FormatHTML, out); err != nil {
			return "", err
		}
		return path, nil
	}

	err = ui.NewMenu(cmd.InOrStdin(), out, getVersion(), scanAction, reportAction).Run(ctx)
	if errors.Is(err, context.Canceled) {
		// interrupted from the keyboard
		return nil
	}
	return err
}
