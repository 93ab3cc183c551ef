// Package artifact renders collected video links into a file for delivery.
package artifact

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"mediagrab/pkg/types"
)

// Format selects the artifact file format.
type Format string

const (
	FormatText Format = "txt"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a format name from configuration.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatText:
		return FormatText, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unknown artifact format %q", s)
	}
}

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// Render writes the collected links in the given format.
func Render(links []types.VideoLink, format Format) ([]byte, error) {
	switch format {
	case FormatXLSX:
		return renderXLSX(links)
	default:
		return renderText(links), nil
	}
}

// FileName builds the artifact filename for a job.
func FileName(jobID string, format Format) string {
	return "video_links_" + jobID + format.Ext()
}

func renderText(links []types.VideoLink) []byte {
	var buf bytes.Buffer
	for _, l := range links {
		fmt.Fprintf(&buf, "%s - %s\n", l.Title, l.URL)
	}
	return buf.Bytes()
}

func renderXLSX(links []types.VideoLink) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Links"
	f.SetSheetName("Sheet1", sheet)

	if err := f.SetCellValue(sheet, "A1", "Title"); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SetCellValue(sheet, "B1", "URL"); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, l := range links {
		row := i + 2
		if err := f.SetCellValue(sheet, fmt.Sprintf("A%d", row), l.Title); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", row, err)
		}
		if err := f.SetCellValue(sheet, fmt.Sprintf("B%d", row), l.URL); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", row, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
