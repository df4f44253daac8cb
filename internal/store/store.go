package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/techcorp/EyeSpy/internal/model"
)

// DefaultResultsFile is the results file used when none is configured.
const DefaultResultsFile = "eyespy_results.json"

// ErrNoResults is returned by Load when the results file does not exist.
var ErrNoResults = errors.New("no results found")

// ErrInvalidResults is returned when the file exists but is not a results
// document.
var ErrInvalidResults = errors.New("invalid results file")

// Save writes record to path as indented JSON with mode 0600, creating
// parent directories as needed. The file is replaced atomically.
func Save(path string, record *model.ScanRecord) error {
	if record == nil {
		return errors.New("record is nil")
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".eyespy-results-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write results: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set results permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}
	return nil
}

// Load reads a results file written by Save or by the legacy format.
// A missing file yields ErrNoResults.
func Load(path string) (*model.ScanRecord, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoResults, path)
		}
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	return Decode(data)
}

// Decode parses a results document in either layout.
func Decode(data []byte) (*model.ScanRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidResults)
	}

	switch trimmed[0] {
	case '{':
		var record model.ScanRecord
		if err := json.Unmarshal(trimmed, &record); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResults, err)
		}
		if record.Verdicts == nil {
			record.Verdicts = make([]model.HostVerdict, 0)
		}
		return &record, nil
	case '[':
		return decodeLegacy(trimmed)
	default:
		return nil, fmt.Errorf("%w: expected a JSON object or array", ErrInvalidResults)
	}
}

// legacyEntry is one element of the bare-array layout.
type legacyEntry struct {
	IP    string            `json:"ip"`
	HTTP  bool              `json:"http"`
	RTSP  bool              `json:"rtsp"`
	ONVIF *model.DeviceInfo `json:"onvif"`
}

func decodeLegacy(data []byte) (*model.ScanRecord, error) {
	var entries []legacyEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResults, err)
	}

	// The legacy layout did not record the subnet, timing or host count.
	record := &model.ScanRecord{
		Verdicts: make([]model.HostVerdict, 0, len(entries)),
	}
	for _, e := range entries {
		record.Verdicts = append(record.Verdicts, model.HostVerdict{
			Address:     e.IP,
			HTTPMatched: e.HTTP,
			RTSPMatched: e.RTSP,
			DeviceInfo:  e.ONVIF,
		})
	}
	return record, nil
}
