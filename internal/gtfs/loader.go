package gtfs

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamespfennell/gtfs"
)

// LoadStatic reads a GTFS feed from a zip archive, a directory of GTFS
// text files, or an HTTP URL pointing at a zip archive, and parses it.
func LoadStatic(source string) (*gtfs.Static, error) {
	b, err := rawFeedData(source)
	if err != nil {
		return nil, fmt.Errorf("error reading GTFS feed %s: %w", source, err)
	}

	staticData, err := gtfs.ParseStatic(b, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("error parsing GTFS feed %s: %w", source, err)
	}

	return staticData, nil
}

func rawFeedData(source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		resp, err := http.Get(source)
		if err != nil {
			return nil, fmt.Errorf("error downloading GTFS data: %w", err)
		}
		defer resp.Body.Close() // nolint

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("error downloading GTFS data: unexpected status %s", resp.Status)
		}
		return io.ReadAll(resp.Body)
	}

	info, err := os.Stat(source)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return zipDirectory(source)
	}
	return os.ReadFile(source)
}

// zipDirectory packs the GTFS text files of a directory into an in-memory
// zip archive so the parser can treat directory feeds like zipped ones.
func zipDirectory(dir string) ([]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error reading GTFS directory: %w", err)
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", entry.Name(), err)
		}
		f, err := w.Create(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("error adding %s to archive: %w", entry.Name(), err)
		}
		if _, err := f.Write(data); err != nil {
			return nil, fmt.Errorf("error writing %s to archive: %w", entry.Name(), err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("error finalizing archive: %w", err)
	}

	return buf.Bytes(), nil
}
