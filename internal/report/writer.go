package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// Emitter is implemented by every report type.
type Emitter interface {
	WriteJSON(w io.Writer) error
	WriteCSV(w io.Writer) error
}

// Save writes stem.json and stem.csv under dir and returns their paths.
// Files are written to a temporary name first and renamed into place.
func Save(dir, stem string, e Emitter) (string, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create report directory: %w", err)
	}
	jsonPath := filepath.Join(dir, stem+".json")
	csvPath := filepath.Join(dir, stem+".csv")
	if err := writeAtomic(jsonPath, e.WriteJSON); err != nil {
		return "", "", err
	}
	if err := writeAtomic(csvPath, e.WriteCSV); err != nil {
		return "", "", err
	}
	return jsonPath, csvPath, nil
}

func writeAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func itoa(v int) string { return strconv.Itoa(v) }

func btoa(v bool) string { return strconv.FormatBool(v) }
