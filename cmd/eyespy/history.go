package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/techcorp/EyeSpy/internal/config"
	"github.com/techcorp/EyeSpy/internal/database"
	"github.com/techcorp/EyeSpy/internal/model"
	"github.com/techcorp/EyeSpy/internal/report"
)

// historyTimeLayout formats run timestamps in listings.
const historyTimeLayout = "2006-01-02 15:04:05"

// errNotEnoughRuns is returned when a comparison needs more stored runs.
var errNotEnoughRuns = errors.New("at least two recorded scans are required")

// NewHistoryCmd creates the history command.
// This command reads past scans from the history database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past scans from the history database",
		Long: `History lists the scans recorded by 'eyespy scan' and shows their results.

Every completed scan is stored in a SQLite database in the XDG data
directory (~/.local/share/eyespy/eyespy.db on Linux) unless the scan
ran with --no-history.

Examples:
  # List the 20 most recent scans
  eyespy history

  # Show the cameras found by scan 7
  eyespy history --show 7

  # Every scan in which 192.168.1.64 looked like a camera
  eyespy history --address 192.168.1.64

  # What changed between the two most recent scans
  eyespy history --compare

  # Compare the most recent scan with scan 3
  eyespy history --compare --with 3`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20, "Maximum number of scans to list (0 for all)")
	cmd.Flags().Int64("show", 0, "Show the cameras found by the scan with this ID")
	cmd.Flags().StringP("address", "a", "", "List the scans in which this address was found")
	cmd.Flags().BoolP("compare", "C", false, "Compare the most recent scan with the previous one")
	cmd.Flags().Int64("with", 0, "Scan ID to compare the most recent scan with (requires --compare)")
	cmd.Flags().BoolP("json", "j", false, "Output in JSON format")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	showID, err := flags.GetInt64("show")
	if err != nil {
		return err
	}
	address, err := flags.GetString("address")
	if err != nil {
		return err
	}
	compare, err := flags.GetBool("compare")
	if err != nil {
		return err
	}
	withID, err := flags.GetInt64("with")
	if err != nil {
		return err
	}
	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}

	// Validate flag combinations before opening the database
	if withID != 0 && !compare {
		return errors.New("--with requires --compare")
	}
	modes := 0
	for _, set := range []bool{showID != 0, address != "", compare} {
		if set {
			modes++
		}
	}
	if modes > 1 {
		return errors.New("--show, --address and --compare are mutually exclusive")
	}

	setupLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	switch {
	case showID != 0:
		return showRun(ctx, out, db, showID, jsonOutput)
	case address != "":
		return showSightings(ctx, out, db, address, jsonOutput)
	case compare:
		return compareRuns(ctx, out, db, withID, jsonOutput)
	default:
		return listRuns(ctx, out, db, limit, jsonOutput)
	}
}

// listRuns prints the stored runs, newest first.
func listRuns(ctx context.Context, w io.Writer, db *database.HistoryDB, limit int, jsonOutput bool) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(w, runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No scans recorded yet.")
		fmt.Fprintln(w, "\nUse 'eyespy scan --subnet <cidr>' to run one.")
		return nil
	}

	fmt.Fprintf(w, "Scan history (%d scans):\n\n", len(runs))
	fmt.Fprintf(w, "  %-6s  %-19s  %-18s  %-7s  %s\n", "ID", "Date", "Subnet", "Hosts", "Cameras")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 66))
	for _, r := range runs {
		fmt.Fprintf(w, "  %-6d  %-19s  %-18s  %-7d  %d\n",
			r.ID,
			r.StartedAt.Local().Format(historyTimeLayout),
			r.Subnet,
			r.HostsScanned,
			r.CameraCount,
		)
	}

	fmt.Fprintln(w, "\nUse 'eyespy history --show <id>' to see the cameras of a scan.")
	return nil
}

// showRun prints the verdicts of one stored run.
func showRun(ctx context.Context, w io.Writer, db *database.HistoryDB, id int64, jsonOutput bool) error {
	record, err := db.GetRun(ctx, id)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(w, record)
	}
	_, err = report.NewSimpleWriter(w, report.WithVerbose(true)).Write(record)
	return err
}

// showSightings prints every stored run in which address was found.
func showSightings(ctx context.Context, w io.Writer, db *database.HistoryDB, address string, jsonOutput bool) error {
	sightings, err := db.Sightings(ctx, address)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(w, sightings)
	}

	if len(sightings) == 0 {
		fmt.Fprintf(w, "%s was not found in any recorded scan.\n", address)
		return nil
	}

	fmt.Fprintf(w, "Sightings of %s (%d scans):\n\n", address, len(sightings))
	fmt.Fprintf(w, "  %-6s  %-19s  %-4s  %-4s  %s\n", "Scan", "Date", "HTTP", "RTSP", "Device")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 66))
	for _, s := range sightings {
		fmt.Fprintf(w, "  %-6d  %-19s  %-4s  %-4s  %s\n",
			s.RunID,
			s.StartedAt.Local().Format(historyTimeLayout),
			yesNo(s.HTTPMatched),
			yesNo(s.RTSPMatched),
			deviceLabel(s.DeviceInfo),
		)
	}
	return nil
}

// compareRuns compares the most recent run with withID, or with the run
// before it when withID is zero.
func compareRuns(ctx context.Context, w io.Writer, db *database.HistoryDB, withID int64, jsonOutput bool) error {
	runs, err := db.ListRuns(ctx, 2)
	if err != nil {
		return err
	}
	if len(runs) == 0 || (withID == 0 && len(runs) < 2) {
		return errNotEnoughRuns
	}

	currentID := runs[0].ID
	previousID := withID
	if previousID == 0 {
		previousID = runs[1].ID
	}
	if previousID == currentID {
		return fmt.Errorf("scan %d is the most recent scan; choose an older one", currentID)
	}

	previous, err := db.GetRun(ctx, previousID)
	if err != nil {
		return err
	}
	current, err := db.GetRun(ctx, currentID)
	if err != nil {
		return err
	}

	diff := compareRecords(previous, current)
	diff.PreviousID = previousID
	diff.CurrentID = currentID

	if jsonOutput {
		return writeJSON(w, diff)
	}
	writeRunDiff(w, diff, previous, current)
	return nil
}

// verdictChange is an address found in both runs with different signals.
type verdictChange struct {
	Previous model.HostVerdict `json:"previous"`
	Current  model.HostVerdict `json:"current"`
}

// runDiff describes how the cameras of two runs differ.
type runDiff struct {
	PreviousID int64               `json:"previousId"`
	CurrentID  int64               `json:"currentId"`
	New        []model.HostVerdict `json:"new"`
	Gone       []model.HostVerdict `json:"gone"`
	Changed    []verdictChange     `json:"changed"`
	Unchanged  int                 `json:"unchanged"`
}

// compareRecords matches verdicts by address.
func compareRecords(previous, current *model.ScanRecord) *runDiff {
	diff := &runDiff{
		New:     make([]model.HostVerdict, 0),
		Gone:    make([]model.HostVerdict, 0),
		Changed: make([]verdictChange, 0),
	}

	before := make(map[string]model.HostVerdict, len(previous.Verdicts))
	for _, v := range previous.Verdicts {
		before[v.Address] = v
	}

	seen := make(map[string]bool, len(current.Verdicts))
	for _, v := range current.Verdicts {
		seen[v.Address] = true
		old, ok := before[v.Address]
		switch {
		case !ok:
			diff.New = append(diff.New, v)
		case sameVerdict(old, v):
			diff.Unchanged++
		default:
			diff.Changed = append(diff.Changed, verdictChange{Previous: old, Current: v})
		}
	}
	for _, v := range previous.Verdicts {
		if !seen[v.Address] {
			diff.Gone = append(diff.Gone, v)
		}
	}

	model.SortVerdicts(diff.New)
	model.SortVerdicts(diff.Gone)
	return diff
}

func sameVerdict(a, b model.HostVerdict) bool {
	if a.HTTPMatched != b.HTTPMatched || a.RTSPMatched != b.RTSPMatched {
		return false
	}
	if (a.DeviceInfo == nil) != (b.DeviceInfo == nil) {
		return false
	}
	return a.DeviceInfo == nil || *a.DeviceInfo == *b.DeviceInfo
}

// writeRunDiff outputs the comparison in human-readable text format.
func writeRunDiff(w io.Writer, diff *runDiff, previous, current *model.ScanRecord) {
	fmt.Fprintf(w, "Scan Comparison: #%d -> #%d\n", diff.PreviousID, diff.CurrentID)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "\nPrevious scan: %s  %s  (%d cameras)\n",
		previous.StartedAt.Local().Format(historyTimeLayout), previous.Subnet, len(previous.Verdicts))
	fmt.Fprintf(w, "Current scan:  %s  %s  (%d cameras)\n",
		current.StartedAt.Local().Format(historyTimeLayout), current.Subnet, len(current.Verdicts))

	if len(diff.New) > 0 {
		fmt.Fprintf(w, "\nNew cameras (%d):\n", len(diff.New))
		for _, v := range diff.New {
			fmt.Fprintf(w, "  [+] %-15s  %s\n", v.Address, verdictLabel(v))
		}
	}
	if len(diff.Gone) > 0 {
		fmt.Fprintf(w, "\nNo longer found (%d):\n", len(diff.Gone))
		for _, v := range diff.Gone {
			fmt.Fprintf(w, "  [-] %-15s  %s\n", v.Address, verdictLabel(v))
		}
	}
	if len(diff.Changed) > 0 {
		fmt.Fprintf(w, "\nChanged (%d):\n", len(diff.Changed))
		for _, c := range diff.Changed {
			fmt.Fprintf(w, "  [~] %-15s  %s -> %s\n", c.Current.Address, verdictLabel(c.Previous), verdictLabel(c.Current))
		}
	}
	if len(diff.New) == 0 && len(diff.Gone) == 0 && len(diff.Changed) == 0 {
		fmt.Fprintln(w, "\nNo changes.")
	}
	if diff.Unchanged > 0 {
		fmt.Fprintf(w, "\nUnchanged: %d cameras\n", diff.Unchanged)
	}
}

// verdictLabel summarizes the signals and device of a verdict.
func verdictLabel(v model.HostVerdict) string {
	label := strings.Join(v.Signals(), "+")
	if v.DeviceInfo != nil {
		label += " " + deviceLabel(v.DeviceInfo)
	}
	return label
}

func deviceLabel(info *model.DeviceInfo) string {
	if info == nil {
		return report.Placeholder
	}
	label := strings.TrimSpace(info.Manufacturer + " " + info.Model)
	if label == "" {
		return report.Placeholder
	}
	if info.Firmware != "" {
		label += " (" + info.Firmware + ")"
	}
	return label
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
