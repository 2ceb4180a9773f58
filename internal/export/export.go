// Package export writes company lists to CSV and Excel files.
package export

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/company-directory/internal/company"
)

// Columns is the fixed column order of every export.
var Columns = []string{
	"id",
	"name",
	"type",
	"website",
	"city",
	"greater_stockholm",
	"source",
	"quality_score",
	"description",
}

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Companies"

func row(c company.Company) []string {
	gs := ""
	if c.GreaterStockholm != nil {
		gs = strconv.FormatBool(*c.GreaterStockholm)
	}
	return []string{
		strconv.FormatInt(c.ID, 10),
		c.Name,
		c.Type,
		c.Website,
		c.City,
		gs,
		c.Source,
		strconv.Itoa(c.QualityScore),
		c.Description,
	}
}

// WriteCSV writes companies as comma-separated values with a header row.
func WriteCSV(w io.Writer, companies []company.Company) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, c := range companies {
		if err := cw.Write(row(c)); err != nil {
			return eris.Wrapf(err, "export: write csv row %d", c.ID)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteXLSX writes companies to a single-sheet workbook at path. Id and
// quality are stored as numbers.
func WriteXLSX(path string, companies []company.Company) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range Columns {
		header.AddCell().SetString(col)
	}

	for _, c := range companies {
		r := sheet.AddRow()
		for i, v := range row(c) {
			cell := r.AddCell()
			switch Columns[i] {
			case "id":
				cell.SetInt64(c.ID)
			case "quality_score":
				cell.SetInt(c.QualityScore)
			default:
				cell.SetString(v)
			}
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

// WriteFile picks the format from the file extension (.csv or .xlsx).
func WriteFile(path string, companies []company.Company) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "export: create %s", path)
		}
		if err := WriteCSV(f, companies); err != nil {
			f.Close() //nolint:errcheck
			return err
		}
		return eris.Wrapf(f.Close(), "export: close %s", path)
	case ".xlsx":
		return WriteXLSX(path, companies)
	default:
		return eris.Errorf("export: unsupported file type %q (use .csv or .xlsx)", filepath.Ext(path))
	}
}
