package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"
)

// renderCSV writes the sections one after another separated by a blank line.
func renderCSV(doc document) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for i, s := range doc.Sections {
		if i > 0 {
			if err := w.Write([]string{}); err != nil {
				return nil, err
			}
		}
		if err := w.Write(s.Header); err != nil {
			return nil, err
		}
		for _, row := range s.Rows {
			if err := w.Write(textRow(row)); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderXLSX writes one sheet per section.
func renderXLSX(doc document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	for i, s := range doc.Sections {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Sheet); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(s.Sheet); err != nil {
			return nil, err
		}

		header := make([]any, len(s.Header))
		for j, h := range s.Header {
			header[j] = h
		}
		if err := f.SetSheetRow(s.Sheet, "A1", &header); err != nil {
			return nil, err
		}
		last, err := excelize.CoordinatesToCellName(len(s.Header), 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(s.Sheet, "A1", last, bold); err != nil {
			return nil, err
		}

		for r, row := range s.Rows {
			values := make([]any, len(row))
			for j, v := range row {
				values[j] = SheetValue(v)
			}
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(s.Sheet, cell, &values); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const (
	pdfMargin     = 10.0
	pdfLineHeight = 7.0
)

// renderPDF draws each section as a simple ruled table on landscape A4.
func renderPDF(doc document) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "L", false, 0, "")

	pageWidth, _ := pdf.GetPageSize()
	usable := pageWidth - 2*pdfMargin

	for _, s := range doc.Sections {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, tr(s.Title), "", 1, "L", false, 0, "")

		width := usable / float64(len(s.Header))
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, h := range s.Header {
			pdf.CellFormat(width, pdfLineHeight, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 9)
		if len(s.Rows) == 0 {
			pdf.CellFormat(usable, pdfLineHeight, "No records", "1", 1, "C", false, 0, "")
			continue
		}
		for _, row := range s.Rows {
			for _, v := range row {
				align := "L"
				if _, ok := SheetValue(v).(float64); ok {
					align = "R"
				}
				pdf.CellFormat(width, pdfLineHeight, tr(FormatCell(v)), "1", 0, align, false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("draw pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
