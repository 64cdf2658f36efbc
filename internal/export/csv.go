package export

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
)

// WriteCSV writes one row per sample: time, state channels, then kinetic,
// potential and total energy.
func WriteCSV(w io.Writer, data ExportData) error {
	cw := csv.NewWriter(w)

	header := append([]string{"time"}, data.Channels...)
	header = append(header, "kinetic", "potential", "total")
	if err := cw.Write(header); err != nil {
		return err
	}

	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for i, t := range data.Times {
		row := []string{format(t)}
		for _, v := range data.States[i] {
			row = append(row, format(v))
		}
		e := data.Energy[i]
		row = append(row, format(e.Kinetic), format(e.Potential), format(e.Total))
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func ExportCSV(path string, data ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := WriteCSV(file, data); err != nil {
		return err
	}
	return file.Close()
}
