package importers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// parseCSV reads RFC 4180 CSV with strict quoting: quoted fields may hold
// commas, newlines and doubled quotes. A leading UTF-8 or UTF-16 byte order
// mark is honoured. A record with broken quoting is reported as an issue on
// its first line; the other physical lines it swallowed are read again one by
// one so that rows after a stray quote are not lost.
func parseCSV(content []byte) (Sheet, []RowIssue, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(content), decoder))
	if err != nil {
		return Sheet{}, nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	lines := strings.Split(string(decoded), "\n")

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.FieldsPerRecord = -1 // Allow variable number of fields

	var (
		sheet  Sheet
		issues []RowIssue
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return Sheet{}, nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
			}
			if len(sheet.Rows) == 0 {
				return Sheet{}, nil, fmt.Errorf("%w: header: %v", ErrUnreadableFile, parseErr.Err)
			}
			issues = append(issues, RowIssue{
				Line:   parseErr.StartLine,
				Reason: fmt.Sprintf("malformed CSV: %v", parseErr.Err),
			})
			for n := parseErr.StartLine + 1; n <= parseErr.Line && n <= len(lines); n++ {
				row, issue := parsePhysicalLine(lines[n-1], n)
				switch {
				case issue != nil:
					issues = append(issues, *issue)
				case row != nil:
					sheet.Rows = append(sheet.Rows, *row)
				}
			}
			continue
		}
		if isBlank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		sheet.Rows = append(sheet.Rows, Row{Line: line, Fields: record})
	}
	return sheet, issues, nil
}

// parsePhysicalLine reads a single line as one record. Quoted newlines are
// not possible here, so an open quote is reported instead of reading on.
func parsePhysicalLine(text string, line int) (*Row, *RowIssue) {
	text = strings.TrimSuffix(text, "\r")
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	record, err := reader.Read()
	if err != nil {
		reason := err.Error()
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			reason = parseErr.Err.Error()
		}
		return nil, &RowIssue{Line: line, Reason: "malformed CSV: " + reason}
	}
	if isBlank(record) {
		return nil, nil
	}
	return &Row{Line: line, Fields: record}, nil
}
