// Package export moves cached series in and out of flat files, so data
// fetched once can be inspected in a spreadsheet or carried to another
// deployment without re-hitting the provider.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"meterflow/internal/model"
	"meterflow/internal/normalize"
)

// WriteSeriesCSV writes one reading per row, with the normalized energy
// next to the raw value so the file is useful without knowing the
// unit/interval conventions.
func WriteSeriesCSV(path string, s model.Series) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"timestamp",
		"meter_id",
		"data_kind",
		"value",
		"unit",
		"interval",
		"energy_wh",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, rd := range s.Readings {
		row := []string{
			rd.Timestamp.Format(time.RFC3339),
			s.MeterID,
			string(s.Kind),
			fmtFloat(rd.Value),
			string(rd.Unit),
			rd.Interval,
			fmtFloat(normalize.EnergyWh(rd, s.Kind)),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

// WriteSeriesJSON dumps a series as-is. The file round-trips through
// ReadSeriesJSON.
func WriteSeriesJSON(path string, s model.Series) error {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// ReadSeriesJSON loads a series dump for re-import into a cache.
func ReadSeriesJSON(path string) (model.Series, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.Series{}, err
	}
	var s model.Series
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.Series{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if s.MeterID == "" || !s.Kind.Valid() {
		return model.Series{}, fmt.Errorf("%s: not a series dump", path)
	}
	return s, nil
}
