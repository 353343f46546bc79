package web

import (
	"net/http"

	"github.com/jszwec/csvutil"

	"github.com/JonMunkholm/agingmap/internal/core"
)

// ExportFilename is the attachment name of the CSV export.
const ExportFilename = "localidades_60plus.csv"

// exportRow is one flat CSV line. Optional values export as empty cells.
type exportRow struct {
	ID           string   `csv:"clc"`
	Jurisdiction string   `csv:"provincia"`
	Name         string   `csv:"localidad"`
	Total2010    float64  `csv:"total_2010"`
	Total2022    float64  `csv:"total_2022"`
	Pop60_2010   float64  `csv:"p60_2010"`
	Pop60_2022   float64  `csv:"p60_2022"`
	Pct60_2010   *float64 `csv:"pct60_2010"`
	Pct60_2022   *float64 `csv:"pct60_2022"`
	GrowthPP     float64  `csv:"growth_pp"`
	Growth60Rel  *float64 `csv:"growth60_rel_pct"`
	Growth60Abs  float64  `csv:"growth60_abs"`
	CentroidLon  *float64 `csv:"centroid_lon"`
	CentroidLat  *float64 `csv:"centroid_lat"`
}

func toExportRows(records []core.LocalityRecord) []exportRow {
	rows := make([]exportRow, len(records))
	for i, r := range records {
		rows[i] = exportRow{
			ID:           r.ID,
			Jurisdiction: r.Jurisdiction,
			Name:         r.Name,
			Total2010:    r.Total2010,
			Total2022:    r.Total2022,
			Pop60_2010:   r.Pop60_2010,
			Pop60_2022:   r.Pop60_2022,
			Pct60_2010:   r.Pct60_2010,
			Pct60_2022:   r.Pct60_2022,
			GrowthPP:     r.GrowthPP,
			Growth60Rel:  r.Growth60RelPct,
			Growth60Abs:  r.Growth60Abs,
		}
		if r.Centroid != nil {
			lon, lat := r.Centroid.Lon, r.Centroid.Lat
			rows[i].CentroidLon = &lon
			rows[i].CentroidLat = &lat
		}
	}
	return rows
}

// handleExportCSV writes the filtered records as a CSV download.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	spec, _, err := parseFilter(r.URL.Query())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	data, err := csvutil.Marshal(toExportRows(s.session.Filter(spec)))
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ExportFilename+`"`)
	_, _ = w.Write(data)
}
