package importers

import (
	"fmt"
	"path/filepath"
	"strings"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// Upload is a fully buffered file chosen by the user.
type Upload struct {
	FileName string
	Content  []byte
}

// Row is one parsed record with its 1-based position in the source.
type Row struct {
	Line   int
	Fields []string
}

// Sheet is an ordered run of rows sharing one header. CSV files produce a
// single sheet. DefaultStyle is used when the header has no style column.
type Sheet struct {
	Name         string
	DefaultStyle string
	Rows         []Row
}

// RowIssue records why a row was not imported.
type RowIssue struct {
	Sheet  string `json:"sheet,omitempty"`
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func (i RowIssue) String() string {
	if i.Sheet != "" {
		return fmt.Sprintf("%s line %d: %s", i.Sheet, i.Line, i.Reason)
	}
	return fmt.Sprintf("Line %d: %s", i.Line, i.Reason)
}

// DetectFormat validates the file extension. Content is not sniffed.
func DetectFormat(fileName string) (Format, error) {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(fileName))) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, fileName)
	}
}

// ReadSheets validates the upload and parses it into sheets that each have a
// header and at least one data row. Malformed CSV records come back as issues.
func ReadSheets(upload Upload) ([]Sheet, []RowIssue, error) {
	format, err := DetectFormat(upload.FileName)
	if err != nil {
		return nil, nil, err
	}
	if len(upload.Content) == 0 {
		return nil, nil, ErrEmptyFile
	}

	var (
		sheets []Sheet
		issues []RowIssue
	)
	switch format {
	case FormatCSV:
		var sheet Sheet
		sheet, issues, err = parseCSV(upload.Content)
		sheets = []Sheet{sheet}
	default:
		sheets, err = parseWorkbook(upload.Content)
	}
	if err != nil {
		return nil, nil, err
	}

	usable := make([]Sheet, 0, len(sheets))
	for _, s := range sheets {
		if len(s.Rows) >= 2 {
			usable = append(usable, s)
		}
	}
	if len(usable) == 0 {
		return nil, nil, ErrNotEnoughRows
	}
	return usable, issues, nil
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
