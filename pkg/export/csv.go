package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vanderheijden86/readmit/pkg/tables"
)

// WriteCSV writes the header row followed by every table row.
func WriteCSV(w io.Writer, t *tables.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return fmt.Errorf("write %s header: %w", t.ID, err)
	}
	if err := cw.WriteAll(t.Rows()); err != nil {
		return fmt.Errorf("write %s rows: %w", t.ID, err)
	}
	return nil
}

// CSVString returns t encoded as CSV.
func CSVString(t *tables.Table) (string, error) {
	var b strings.Builder
	if err := WriteCSV(&b, t); err != nil {
		return "", err
	}
	return b.String(), nil
}

// ReadCSV parses a file written by WriteCSV.
func ReadCSV(r io.Reader) (headers []string, rows [][]string, err error) {
	cr := csv.NewReader(r)
	headers, err = cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("read csv: missing header")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}
	cr.FieldsPerRecord = len(headers)
	rows, err = cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv rows: %w", err)
	}
	return headers, rows, nil
}
