package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// csvBatch is the number of data rows under each "Rows a-b" heading.
const csvBatch = 20

// CSVParser renders each row as "header: value" pairs.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return []string{""}, nil
	}

	headers := records[0]
	rows := records[1:]
	var out strings.Builder
	for i := 0; i < len(rows); i += csvBatch {
		end := min(i+csvBatch, len(rows))
		if out.Len() > 0 {
			out.WriteString("\n")
		}
		// Line numbers are 1-based and skip the header row.
		fmt.Fprintf(&out, "ROWS %d-%d\n", i+2, end+1)
		for _, row := range rows[i:end] {
			cells := make([]string, 0, len(row))
			for j, cell := range row {
				if j < len(headers) && headers[j] != "" {
					cells = append(cells, headers[j]+": "+cell)
				} else {
					cells = append(cells, cell)
				}
			}
			out.WriteString(strings.Join(cells, ", "))
			out.WriteString("\n")
		}
	}
	return []string{strings.TrimRight(out.String(), "\n")}, nil
}
