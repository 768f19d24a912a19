// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package content

import (
	"context"
	"fmt"
	"io"

	"github.com/samber/oops"
	"github.com/xuri/excelize/v2"
)

// ExportSheet is the worksheet name of form exports.
const ExportSheet = "Submissions"

var exportColumns = []struct {
	header string
	width  float64
}{
	{"Submitted", 20},
	{"Name", 24},
	{"Email", 30},
	{"Phone", 18},
	{"Message", 60},
}

// Export writes every submission, newest first, as an xlsx workbook to w.
func (s *FormService) Export(ctx context.Context, w io.Writer) error {
	forms, err := s.List(ctx)
	if err != nil {
		return err
	}
	return WriteFormsXLSX(w, forms)
}

// WriteFormsXLSX renders forms as a single-sheet workbook.
func WriteFormsXLSX(w io.Writer, forms []*ContactForm) error {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck // in-memory workbook

	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return oops.Code("FORM_EXPORT_FAILED").With("operation", "name sheet").Wrap(err)
	}

	for i, col := range exportColumns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return oops.Code("FORM_EXPORT_FAILED").Wrap(err)
		}
		if err := f.SetCellValue(ExportSheet, name+"1", col.header); err != nil {
			return oops.Code("FORM_EXPORT_FAILED").With("operation", "header").Wrap(err)
		}
		if err := f.SetColWidth(ExportSheet, name, name, col.width); err != nil {
			return oops.Code("FORM_EXPORT_FAILED").With("operation", "column width").Wrap(err)
		}
	}

	for i, form := range forms {
		row := i + 2
		values := []any{
			form.SubmittedAt.Format("2006-01-02 15:04"),
			form.Name,
			form.Email,
			form.Phone,
			form.Message,
		}
		if err := f.SetSheetRow(ExportSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return oops.Code("FORM_EXPORT_FAILED").With("row", row).Wrap(err)
		}
	}

	if err := f.Write(w); err != nil {
		return oops.Code("FORM_EXPORT_FAILED").With("operation", "write").Wrap(err)
	}
	return nil
}
