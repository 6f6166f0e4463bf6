package tabular

import (
	"errors"
	"io"

	"github.com/duomind/backend/internal/core/ports"
	"github.com/xuri/excelize/v2"
)

var ErrNoSheets = errors.New("tabular: workbook has no sheets")

// ExcelCodec reads and writes xlsx workbooks. Only the first sheet is used;
// the transformation pipeline is row-oriented and sheet structure is not part
// of its contract.
type ExcelCodec struct{}

func NewExcelCodec() *ExcelCodec {
	return &ExcelCodec{}
}

func (c *ExcelCodec) ReadRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *ExcelCodec) WriteRows(w io.Writer, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
	}

	return f.Write(w)
}

var _ ports.TabularCodec = (*ExcelCodec)(nil)
