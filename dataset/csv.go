package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/YuminosukeSato/adultcensus/pkg/errors"
)

// ReadCSV parses a headered CSV stream. Header names and cells are trimmed
// of surrounding whitespace.
func ReadCSV(r io.Reader) (*Frame, error) {
	return readCSV(r, "csv")
}

// LoadCSV parses the CSV file at path.
func LoadCSV(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer file.Close()

	return readCSV(file, path)
}

func readCSV(r io.Reader, source string) (*Frame, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.NewParseError(source, 1, "missing header row")
	}
	if err != nil {
		return nil, csvError(source, err)
	}
	columns := trimAll(header)
	for _, c := range columns {
		if c == "" {
			return nil, errors.NewParseError(source, 1, "empty column name in header")
		}
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(source, err)
		}
		rows = append(rows, trimAll(rec))
	}

	frame, err := NewFrame(columns, rows)
	if err != nil {
		return nil, errors.NewParseError(source, 1, err.Error())
	}
	return frame, nil
}

func csvError(source string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return errors.NewParseError(source, pe.Line, pe.Err.Error())
	}
	return errors.Wrapf(err, "failed to read %s", source)
}

func trimAll(rec []string) []string {
	out := make([]string, len(rec))
	for i, v := range rec {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
