package export

import (
	"io"

	"github.com/FocuswithJustin/writings/core/errors"
	"github.com/FocuswithJustin/writings/core/writings"
	"github.com/xuri/excelize/v2"
)

// SheetNames maps record types to worksheet names.
var SheetNames = map[writings.Type]string{
	writings.TypePrayer:     "Prayers",
	writings.TypeHiddenWord: "Hidden Words",
	writings.TypeGleaning:   "Gleanings",
	writings.TypeMeditation: "Meditations",
	writings.TypeCDB:        "Call of the Divine Beloved",
}

var columns = []string{"Ref ID", "Title", "Subtitle", "Author", "Number", "Paragraph", "Text"}

// XLSX writes records to a workbook at path, one sheet per record type.
func XLSX(path string, records []writings.Writing) error {
	f, err := workbook(records)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return errors.NewIO("write", path, err)
	}
	return nil
}

// WriteXLSX writes the workbook for records to w.
func WriteXLSX(w io.Writer, records []writings.Writing) error {
	f, err := workbook(records)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "xlsx write")
	}
	return nil
}

func workbook(records []writings.Writing) (*excelize.File, error) {
	f := excelize.NewFile()
	groups := groupByType(records)

	first := true
	for _, t := range writings.Types() {
		rows, ok := groups[t]
		if !ok {
			continue
		}
		sheet := SheetNames[t]
		if first {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, errors.Wrap(err, "xlsx sheet")
			}
			first = false
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, errors.Wrap(err, "xlsx sheet")
		}
		if err := writeSheet(f, sheet, rows); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, rows []writings.Header) error {
	for i, h := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return errors.Wrap(err, "xlsx header")
		}
	}

	for i, h := range rows {
		row := i + 2
		values := []any{h.RefID, h.Title, h.Subtitle, h.Author.Name(), h.Number, h.Paragraph, h.Text}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return errors.Wrapf(err, "xlsx row %d", row)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 14)
	_ = f.SetColWidth(sheet, "B", "C", 32)
	_ = f.SetColWidth(sheet, "D", "D", 16)
	_ = f.SetColWidth(sheet, "E", "F", 10)
	_ = f.SetColWidth(sheet, "G", "G", 100)
	return nil
}
