// Package export saves spreadsheet downloads and writes local exports.
package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/casadocigano/fidelidade/internal/errors"
	"github.com/casadocigano/fidelidade/internal/platform"
)

// CustomersSheet is the sheet name used for customer exports.
const CustomersSheet = "Clientes"

// SaveDownload writes d into dir under its server-provided filename.
// Only the base name is used, so a hostile Content-Disposition cannot
// escape dir. An existing file is kept unless overwrite is set.
func SaveDownload(dir string, d *platform.Download, overwrite bool) (string, error) {
	name := filepath.Base(strings.TrimSpace(d.Filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = platform.DefaultExportFilename
	}
	path := filepath.Join(dir, name)

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", errors.New(errors.ErrCodeFileWriteFailed, fmt.Sprintf("%s already exists", path)).
				WithSuggestion("Pass --overwrite or choose another --output directory")
		}
		return "", errors.Wrap(errors.ErrCodeFileWriteFailed, "cannot create "+path, err)
	}
	if _, err := f.Write(d.Data); err != nil {
		_ = f.Close()
		return "", errors.Wrap(errors.ErrCodeFileWriteFailed, "cannot write "+path, err)
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeFileWriteFailed, "cannot write "+path, err)
	}
	return path, nil
}

// Summary describes the first sheet of a workbook.
type Summary struct {
	Sheets []string
	Sheet  string
	Header []string
	// Rows counts data rows, excluding the header.
	Rows int
}

// Inspect opens an xlsx payload and summarizes its first sheet.
func Inspect(data []byte) (*Summary, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSpreadsheet, "not a readable xlsx file", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &Summary{}, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSpreadsheet, "cannot read sheet "+sheets[0], err)
	}

	s := &Summary{Sheets: sheets, Sheet: sheets[0]}
	if len(rows) > 0 {
		s.Header = rows[0]
		s.Rows = len(rows) - 1
	}
	return s, nil
}

var customerHeader = []string{"Nome", "CPF", "Telefone", "Email", "Nascimento", "Loja"}

// WriteCustomers writes customers as an xlsx workbook to w.
// storeName resolves store ids to display names; nil prints the raw id.
func WriteCustomers(w io.Writer, customers []platform.Customer, storeName func(*int) string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", CustomersSheet); err != nil {
		return errors.Wrap(errors.ErrCodeSpreadsheet, "cannot create sheet", err)
	}

	for i, h := range customerHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(CustomersSheet, cell, h); err != nil {
			return errors.Wrap(errors.ErrCodeSpreadsheet, "cannot write header", err)
		}
	}

	for idx, c := range customers {
		row := idx + 2
		values := []any{c.Name, c.CPF, c.Phone, deref(c.Email), deref(c.Birthday), storeLabel(c.StoreID, storeName)}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(CustomersSheet, cell, v); err != nil {
				return errors.Wrap(errors.ErrCodeSpreadsheet, "cannot write row", err)
			}
		}
	}

	_ = f.SetColWidth(CustomersSheet, "A", "A", 30)
	_ = f.SetColWidth(CustomersSheet, "B", "C", 16)
	_ = f.SetColWidth(CustomersSheet, "D", "D", 30)
	_ = f.SetColWidth(CustomersSheet, "E", "F", 14)

	if err := f.Write(w); err != nil {
		return errors.Wrap(errors.ErrCodeSpreadsheet, "cannot encode workbook", err)
	}
	return nil
}

// WriteCustomersFile writes customers to path.
func WriteCustomersFile(path string, customers []platform.Customer, storeName func(*int) string) error {
	var buf bytes.Buffer
	if err := WriteCustomers(&buf, customers, storeName); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "cannot write "+path, err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func storeLabel(id *int, storeName func(*int) string) string {
	if storeName != nil {
		return storeName(id)
	}
	if id == nil {
		return ""
	}
	return fmt.Sprint(*id)
}
