package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds the directory roots every stage binary operates on. Data flows
// strictly downstream: raw -> interim -> processed -> reports.
type Paths struct {
	Raw       string
	Interim   string
	Processed string
	Reports   string
}

// DefaultPaths mirrors the repository's conventional data layout.
func DefaultPaths() Paths {
	return Paths{
		Raw:       "data/raw",
		Interim:   "data/interim",
		Processed: "data/processed",
		Reports:   "reports",
	}
}

// EnsureDirs creates every directory in the list, including parents.
func EnsureDirs(dirs ...string) error {
	for _, d := range dirs {
		if d == "" {
			continue
		}
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("error creating directory %s: %w", d, err)
		}
	}
	return nil
}

// FiguresDir returns the figures directory under the reports root.
func (p Paths) FiguresDir() string { return filepath.Join(p.Reports, "figures") }

// TablesDir returns the tables directory under the reports root.
func (p Paths) TablesDir() string { return filepath.Join(p.Reports, "tables") }

// RequireFile checks that an upstream output exists before a stage starts
// reading it. producedBy names the stage that should have written the file so
// the operator knows what to re-run.
func RequireFile(path, producedBy string) error {
	info, err := os.Stat(path)
	if err != nil {
		return &MissingInputError{Path: path, ProducedBy: producedBy}
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file", path)
	}
	return nil
}

// RequireDir checks that a required input directory exists.
func RequireDir(path, hint string) error {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return &MissingInputError{Path: path, ProducedBy: hint}
	}
	return nil
}
