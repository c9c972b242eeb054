package importers

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

// defaultSheetName matches the tab names spreadsheet tools generate.
var defaultSheetName = regexp.MustCompile(`^sheet\d*$`)

// parseWorkbook reads every sheet of a workbook in tab order. Each sheet name,
// lower-cased, becomes the default style for its rows unless it is a
// generated name like "Sheet1".
func parseWorkbook(content []byte) ([]Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer f.Close()

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", ErrUnreadableFile, name, err)
		}
		sheet := Sheet{
			Name:         name,
			DefaultStyle: sheetStyle(name),
		}
		for i, cells := range rows {
			if isBlank(cells) {
				continue
			}
			sheet.Rows = append(sheet.Rows, Row{Line: i + 1, Fields: cells})
		}
		sheets = append(sheets, sheet)
	}
	return sheets, nil
}

func sheetStyle(name string) string {
	style := strings.ToLower(strings.TrimSpace(name))
	if defaultSheetName.MatchString(style) {
		return ""
	}
	return style
}
