package export

import (
	"sort"

	"github.com/xuri/excelize/v2"
)

const (
	trajectorySheet = "Trajectory"
	parametersSheet = "Parameters"
	metricsSheet    = "Metrics"
)

// ExportXLSX writes a workbook with the sampled trajectory and energies on
// one sheet and the run parameters and metrics on two more.
func ExportXLSX(path string, data ExportData) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", trajectorySheet); err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(trajectorySheet)
	if err != nil {
		return err
	}

	header := []interface{}{"time"}
	for _, c := range data.Channels {
		header = append(header, c)
	}
	header = append(header, "kinetic", "potential", "total")
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, t := range data.Times {
		row := make([]interface{}, 0, len(header))
		row = append(row, t)
		for _, v := range data.States[i] {
			row = append(row, v)
		}
		e := data.Energy[i]
		row = append(row, e.Kinetic, e.Potential, e.Total)

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}

	if err := writeKeyValues(f, parametersSheet, data.Params); err != nil {
		return err
	}
	if err := writeKeyValues(f, metricsSheet, data.Metrics); err != nil {
		return err
	}

	return f.SaveAs(path)
}

func writeKeyValues(f *excelize.File, sheet string, values map[string]float64) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for i, k := range keys {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &[]interface{}{k, values[k]}); err != nil {
			return err
		}
	}
	return nil
}
