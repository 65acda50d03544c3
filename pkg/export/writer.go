// Package export writes ranked statistics to the per-run report files: a
// line-oriented text report and a tabular CSV, both in the same descending
// order.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"vkstats/pkg/logger"
	"vkstats/pkg/stats"
)

const profileURLPrefix = "https://vk.com/"

// Format selects which report files a run produces.
type Format string

const (
	FormatCSV Format = "csv"
	FormatTxt Format = "txt"
	FormatAll Format = "all"
)

// ParseFormat validates a format string.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatTxt:
		return FormatTxt, nil
	case FormatAll:
		return FormatAll, nil
	}
	return "", fmt.Errorf("invalid export format %q (must be csv, txt or all)", s)
}

// Writer emits report files into a results directory.
type Writer struct {
	dir    string
	format Format
	logger logger.Logger
}

// NewWriter creates the results directory if needed.
func NewWriter(dir string, format Format, log logger.Logger) (*Writer, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}
	return &Writer{dir: dir, format: format, logger: log}, nil
}

// Write emits the ranked entries for one run. Pre-existing files of the
// same name are overwritten. It returns the paths written.
func (w *Writer) Write(mode stats.Mode, screenName string, entries []stats.RankedEntry) ([]string, error) {
	var paths []string

	if w.format == FormatTxt || w.format == FormatAll {
		path := filepath.Join(w.dir, fmt.Sprintf("%s_%s.txt", mode.ExportName(), screenName))
		if err := w.writeText(path, mode, entries); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	if w.format == FormatCSV || w.format == FormatAll {
		path := filepath.Join(w.dir, fmt.Sprintf("%s_%s.csv", mode.ExportName(), screenName))
		if err := w.writeCSV(path, entries); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	w.logger.InfoWithFields("exported statistics", map[string]interface{}{
		"files":   paths,
		"entries": len(entries),
	})
	return paths, nil
}

func (w *Writer) writeText(path string, mode stats.Mode, entries []stats.RankedEntry) error {
	if err := removeExisting(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create text report: %w", err)
	}
	defer file.Close()

	if _, err := fmt.Fprintf(file, "STATISTICS FOR %s\n", strings.ToUpper(mode.ExportName())); err != nil {
		return err
	}
	for _, entry := range entries {
		_, err := fmt.Fprintf(file, "%s%s (%s %s): %d\n",
			profileURLPrefix, entry.User.ScreenName,
			entry.User.FirstName, entry.User.LastName,
			entry.Count)
		if err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeCSV(path string, entries []stats.RankedEntry) error {
	if err := removeExisting(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv report: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"URL", "Name", "Count"}); err != nil {
		return err
	}
	for _, entry := range entries {
		record := []string{
			profileURLPrefix + entry.User.ScreenName,
			entry.User.FirstName + " " + entry.User.LastName,
			strconv.Itoa(entry.Count),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func removeExisting(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing report: %w", err)
	}
	return nil
}
