package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vovakirdan/flappy-lab/internal/env"
)

// ErrBadHeader is returned when a CSV file does not start with Header.
var ErrBadHeader = errors.New("dataset: unexpected csv header")

// Header is the column layout of a dataset file.
var Header = []string{"y_norm", "vy_norm", "dist_norm", "delta_gap_norm", "action"}

// WriteCSV writes the header and one row per sample.
func WriteCSV(w io.Writer, d *Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("dataset: write header: %w", err)
	}

	row := make([]string, len(Header))
	for _, s := range d.Samples {
		for i, v := range s.Obs {
			row[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
		}
		row[env.NumFeatures] = strconv.Itoa(int(s.Action))
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("dataset: write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a dataset. Errors name the offending line.
func ReadCSV(r io.Reader) (Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Dataset{}, fmt.Errorf("%w: empty file", ErrBadHeader)
		}
		return Dataset{}, fmt.Errorf("dataset: line 1: %w", err)
	}
	for i := range Header {
		if head[i] != Header[i] {
			return Dataset{}, fmt.Errorf("%w: column %d is %q, expected %q", ErrBadHeader, i+1, head[i], Header[i])
		}
	}

	var d Dataset
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return Dataset{}, fmt.Errorf("dataset: line %d: %w", line, err)
		}

		var obs env.Observation
		for i := 0; i < env.NumFeatures; i++ {
			v, err := strconv.ParseFloat(rec[i], 32)
			if err != nil {
				return Dataset{}, fmt.Errorf("dataset: line %d: %s: %w", line, Header[i], err)
			}
			obs[i] = float32(v)
		}

		a, err := strconv.Atoi(rec[env.NumFeatures])
		if err != nil || (a != 0 && a != 1) {
			return Dataset{}, fmt.Errorf("dataset: line %d: action %q is not 0 or 1", line, rec[env.NumFeatures])
		}
		d.Append(obs, env.Action(a))
	}
	return d, nil
}

// SaveCSV writes the dataset to path, creating parent directories.
func SaveCSV(path string, d *Dataset) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("dataset: create directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dataset: create file: %w", err)
	}
	if err := WriteCSV(f, d); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadCSV reads a dataset from path.
func LoadCSV(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("dataset: open file: %w", err)
	}
	defer f.Close()

	d, err := ReadCSV(f)
	if err != nil {
		return Dataset{}, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
