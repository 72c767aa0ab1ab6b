package logreg

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Column is a vector stored as an n×1 matrix.
type Column []float64

// Row is a vector stored as a 1×n matrix.
type Row []float64

// MarshalYAML writes one single-element row per entry.
func (c Column) MarshalYAML() (any, error) {
	rows := make([][]float64, len(c))
	for i, v := range c {
		rows[i] = []float64{v}
	}
	return matrixNode(rows)
}

// UnmarshalYAML accepts an n×1 matrix or a flat list.
func (c *Column) UnmarshalYAML(value *yaml.Node) error {
	rows, flat, err := decodeMatrix(value)
	if err != nil {
		return err
	}
	if rows == nil {
		*c = flat
		return nil
	}
	out := make(Column, len(rows))
	for i, r := range rows {
		if len(r) != 1 {
			return fmt.Errorf("%w: line %d: column row %d has %d entries, expected 1", ErrShapeMismatch, value.Line, i, len(r))
		}
		out[i] = r[0]
	}
	*c = out
	return nil
}

// MarshalYAML writes the vector as a single row.
func (r Row) MarshalYAML() (any, error) {
	return matrixNode([][]float64{r})
}

// UnmarshalYAML accepts a 1×n matrix or a flat list.
func (r *Row) UnmarshalYAML(value *yaml.Node) error {
	rows, flat, err := decodeMatrix(value)
	if err != nil {
		return err
	}
	if rows == nil {
		*r = flat
		return nil
	}
	if len(rows) != 1 {
		return fmt.Errorf("%w: line %d: %d rows, expected 1", ErrShapeMismatch, value.Line, len(rows))
	}
	*r = rows[0]
	return nil
}

// matrixNode renders rows as a block sequence of flow sequences.
func matrixNode(rows [][]float64) (*yaml.Node, error) {
	out := &yaml.Node{Kind: yaml.SequenceNode}
	for _, r := range rows {
		var n yaml.Node
		if err := n.Encode(r); err != nil {
			return nil, err
		}
		n.Style = yaml.FlowStyle
		out.Content = append(out.Content, &n)
	}
	return out, nil
}

// decodeMatrix returns rows for a nested sequence and flat otherwise.
func decodeMatrix(value *yaml.Node) (rows [][]float64, flat []float64, err error) {
	if value.Kind != yaml.SequenceNode {
		return nil, nil, fmt.Errorf("%w: line %d: expected a sequence", ErrShapeMismatch, value.Line)
	}
	if len(value.Content) > 0 && value.Content[0].Kind == yaml.SequenceNode {
		err = value.Decode(&rows)
		return rows, nil, err
	}
	err = value.Decode(&flat)
	return nil, flat, err
}

// Encode writes the model as YAML.
func (m *Model) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("logreg: encode: %w", err)
	}
	return enc.Close()
}

// Decode reads a YAML model and validates its shape.
func Decode(r io.Reader) (*Model, error) {
	var m Model
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("logreg: decode: %w", err)
	}
	if m.Degree == 0 {
		m.Degree = 1
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Save writes the model to path, creating parent directories.
func (m *Model) Save(path string) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("logreg: create directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("logreg: create artifact: %w", err)
	}
	if err := m.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads and validates a model artifact.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("logreg: open artifact: %w", err)
	}
	defer f.Close()

	m, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
