package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrMalformedRow indicates a CSV row that cannot be turned into a Sample.
var ErrMalformedRow = errors.New("dataset: malformed row")

// CSVOptions controls how delimited text is turned into samples.
type CSVOptions struct {
	// Quantize truncates every feature toward zero and clamps negatives to zero,
	// producing non-negative integer features.
	Quantize bool
	// Limit caps the number of rows read. Zero reads everything.
	Limit int
	// Comma is the field delimiter. Zero means ','.
	Comma rune
}

// LoadCSV reads samples from every CSV file found at path, in discovery order.
func LoadCSV(path string, opts CSVOptions) ([]Sample, error) {
	files, err := DiscoverCSV(path)
	if err != nil {
		return nil, err
	}
	var out []Sample
	for _, name := range files {
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
		fileOpts := opts
		if opts.Limit > 0 {
			fileOpts.Limit = opts.Limit - len(out)
		}
		samples, err := readCSVFile(name, fileOpts)
		if err != nil {
			return nil, err
		}
		out = append(out, samples...)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w under %s", ErrEmptyDataset, path)
	}
	return out, nil
}

func readCSVFile(name string, opts CSVOptions) ([]Sample, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	samples, err := ReadCSV(f, opts)
	if err != nil && !errors.Is(err, ErrEmptyDataset) {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return samples, nil
}

// ReadCSV parses a header row followed by records whose last column is the
// integer label and whose other columns are numeric features.
func ReadCSV(r io.Reader, opts CSVOptions) ([]Sample, error) {
	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: header has %d columns, need features and a label", ErrMalformedRow, len(header))
	}
	cr.FieldsPerRecord = len(header)

	var out []Sample
	for opts.Limit <= 0 || len(out) < opts.Limit {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRow, err)
		}
		line, _ := cr.FieldPos(0)
		sample, err := parseRecord(record, opts.Quantize)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRow, line, err)
		}
		out = append(out, sample)
	}
	if len(out) == 0 {
		return nil, ErrEmptyDataset
	}
	return out, nil
}

func parseRecord(record []string, quantize bool) (Sample, error) {
	last := len(record) - 1
	features := make([]float64, last)
	for i, field := range record[:last] {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return Sample{}, fmt.Errorf("column %d: %w", i, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Sample{}, fmt.Errorf("column %d: non-finite value %q", i, field)
		}
		if quantize {
			v = math.Max(math.Trunc(v), 0)
		}
		features[i] = v
	}
	label, err := parseLabel(strings.TrimSpace(record[last]))
	if err != nil {
		return Sample{}, fmt.Errorf("label: %w", err)
	}
	return Sample{features: features, label: label}, nil
}

// parseLabel accepts integer labels, including ones written as "1.0".
func parseLabel(field string) (int, error) {
	if v, err := strconv.Atoi(field); err == nil {
		if v < 0 {
			return 0, fmt.Errorf("negative label %d", v)
		}
		return v, nil
	}
	f, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, fmt.Errorf("label %q is not a non-negative integer", field)
	}
	return int(f), nil
}
