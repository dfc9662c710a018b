package quality

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FlagsPath returns the side file that records the flags used to produce
// out: the output path without its extension plus "_filters.json".
func FlagsPath(out string) string {
	return strings.TrimSuffix(out, filepath.Ext(out)) + "_filters.json"
}

// WriteFlags writes flags as a JSON array next to out.
func WriteFlags(out string, flags []string) error {
	if flags == nil {
		flags = []string{}
	}
	data, err := json.Marshal(flags)
	if err != nil {
		return err
	}
	if err := os.WriteFile(FlagsPath(out), data, 0o644); err != nil {
		return fmt.Errorf("quality: write flags: %w", err)
	}
	return nil
}

// ReadFlags reads the flag list recorded for out.
func ReadFlags(out string) ([]string, error) {
	data, err := os.ReadFile(FlagsPath(out))
	if err != nil {
		return nil, fmt.Errorf("quality: read flags: %w", err)
	}
	var flags []string
	if err := json.Unmarshal(data, &flags); err != nil {
		return nil, fmt.Errorf("quality: decode flags: %w", err)
	}
	return flags, nil
}
