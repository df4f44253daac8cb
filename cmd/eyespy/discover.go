package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/techcorp/EyeSpy/internal/discovery"
	"github.com/techcorp/EyeSpy/internal/onvif"
	"golang.org/x/sync/errgroup"
)

// discoverResult is the JSON document printed by discover --json.
type discoverResult struct {
	ONVIF []onvif.Endpoint `json:"onvif"`
	MDNS  []discovery.Host `json:"mdns"`
}

// NewDiscoverCmd creates the discover command.
func NewDiscoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List cameras that announce themselves on the local network",
		Long: `Discover listens for devices that announce themselves instead of probing
every address of a subnet.

Two mechanisms run in parallel:
- ONVIF WS-Discovery: a multicast Probe for NetworkVideoTransmitter devices
- mDNS: a browse for _rtsp._tcp and _onvif._tcp services

Both are best-effort. Devices on another network segment, or with
discovery disabled, only show up in 'eyespy scan'.

Examples:
  # Listen for 3 seconds
  eyespy discover

  # Listen longer and print JSON
  eyespy discover -t 10s --json

  # WS-Discovery only
  eyespy discover --no-mdns`,
		Args: cobra.NoArgs,
		RunE: runDiscoverCmd,
	}

	cmd.Flags().DurationP("timeout", "t", onvif.DefaultDiscoveryTimeout,
		"How long to listen for announcements")
	cmd.Flags().Bool("no-onvif", false, "Skip ONVIF WS-Discovery")
	cmd.Flags().Bool("no-mdns", false, "Skip the mDNS browse")
	cmd.Flags().BoolP("json", "j", false, "Print results as JSON")

	return cmd
}

// runDiscoverCmd executes the discover command.
func runDiscoverCmd(cmd *cobra.Command, _ []string) error {
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}
	if timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", timeout)
	}
	noONVIF, err := cmd.Flags().GetBool("no-onvif")
	if err != nil {
		return err
	}
	noMDNS, err := cmd.Flags().GetBool("no-mdns")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	if noONVIF && noMDNS {
		return errors.New("--no-onvif and --no-mdns leave nothing to do")
	}

	logger := setupLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !jsonOutput {
		fmt.Fprintf(cmd.OutOrStdout(), "Listening for camera announcements for %s...\n\n", timeout)
	}

	result := runDiscovery(ctx, timeout, !noONVIF, !noMDNS, logger)

	if jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}
	printDiscovery(cmd.OutOrStdout(), result, !noONVIF, !noMDNS)
	return nil
}

// runDiscovery runs the enabled mechanisms concurrently. A failing
// mechanism is logged and contributes no entries.
func runDiscovery(ctx context.Context, timeout time.Duration, withONVIF, withMDNS bool, logger *slog.Logger) discoverResult {
	result := discoverResult{
		ONVIF: make([]onvif.Endpoint, 0),
		MDNS:  make([]discovery.Host, 0),
	}

	var g errgroup.Group
	if withONVIF {
		g.Go(func() error {
			endpoints, err := onvif.NewDiscoverer().Discover(ctx, timeout)
			if err != nil {
				logger.Warn("WS-Discovery failed", "error", err)
				return nil
			}
			result.ONVIF = endpoints
			return nil
		})
	}
	if withMDNS {
		g.Go(func() error {
			hosts, err := discovery.NewBrowser(
				discovery.WithTimeout(timeout),
				discovery.WithLogger(logger),
			).Browse(ctx)
			if err != nil {
				logger.Warn("mDNS browse failed", "error", err)
				return nil
			}
			result.MDNS = hosts
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // both goroutines return nil

	return result
}

// printDiscovery writes a human-readable listing.
func printDiscovery(w io.Writer, result discoverResult, withONVIF, withMDNS bool) {
	if withONVIF {
		fmt.Fprintf(w, "ONVIF devices (%d)\n", len(result.ONVIF))
		fmt.Fprintln(w, strings.Repeat("-", 40))
		if len(result.ONVIF) == 0 {
			fmt.Fprintln(w, "  none")
		}
		for _, ep := range result.ONVIF {
			label := strings.TrimSpace(strings.Join([]string{ep.Name, ep.Hardware}, " "))
			if label == "" {
				label = "unknown device"
			}
			fmt.Fprintf(w, "  %-15s  %s\n", ep.Address, label)
			for _, xaddr := range ep.XAddrs {
				fmt.Fprintf(w, "  %-15s  %s\n", "", xaddr)
			}
		}
		fmt.Fprintln(w)
	}

	if withMDNS {
		fmt.Fprintf(w, "mDNS services (%d)\n", len(result.MDNS))
		fmt.Fprintln(w, strings.Repeat("-", 40))
		if len(result.MDNS) == 0 {
			fmt.Fprintln(w, "  none")
		}
		for _, h := range result.MDNS {
			name := h.Instance
			if name == "" {
				name = h.Hostname
			}
			fmt.Fprintf(w, "  %-15s  %-12s port %-5d %s\n", h.Address, h.Service, h.Port, name)
		}
		fmt.Fprintln(w)
	}

	if len(result.ONVIF) > 0 || len(result.MDNS) > 0 {
		fmt.Fprintln(w, "Run 'eyespy scan --subnet <cidr>' to probe these hosts.")
	}
}
