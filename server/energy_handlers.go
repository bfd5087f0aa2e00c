package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jrsteele09/enertrack-console/api"
	"github.com/rs/zerolog/log"
)

func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// ListEnergyHandler answers with a bare array, or with a {count, results}
// page when the page parameter is given.
func (s *Server) ListEnergyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeList(w, r, s.data.listEnergy(queryInt(r, "year"), r.URL.Query().Get("search"), countryScope(r)))
	}
}

func (s *Server) DeleteEnergyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.data.deleteEnergy(r.PathValue("id")) {
			writeError(w, http.StatusNotFound, "Not found.")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ImportEnergyHandler upserts monthly stats keyed by country, year and month.
func (s *Server) ImportEnergyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, filename, err := readUpload(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		// Extra form fields override columns missing from the file.
		defaultYear, _ := strconv.Atoi(r.FormValue("year"))
		importedAt := time.Now().UTC()

		var summary importSummary
		for i, row := range rows {
			stat, err := energyFromRow(row, defaultYear)
			if err != nil {
				summary.fail(i+2, err)
				continue
			}
			stat.SourceFilename = &filename
			stat.ImportedAt = &importedAt
			summary.record(s.data.upsertEnergy(stat))
		}

		log.Info().Str("file", filename).Int("created", summary.Created).Int("updated", summary.Updated).Msg("energy stats imported")
		writeJSON(w, http.StatusOK, summary)
	}
}

func energyFromRow(row importRow, defaultYear int) (api.EnergyMonthlyStat, error) {
	country := row.str("country")
	if country == "" {
		return api.EnergyMonthlyStat{}, fmt.Errorf("country is required")
	}
	year, err := row.int("year")
	if err != nil {
		if defaultYear == 0 {
			return api.EnergyMonthlyStat{}, fmt.Errorf("invalid year %q", row.str("year"))
		}
		year = defaultYear
	}
	month, err := row.int("month")
	if err != nil || month < 1 || month > 12 {
		return api.EnergyMonthlyStat{}, fmt.Errorf("invalid month %q", row.str("month"))
	}

	stat := api.EnergyMonthlyStat{
		Country:          api.Country{Name: country},
		Year:             year,
		Month:            month,
		GridMWh:          row.optFloat("grid_mwh"),
		SolarMWh:         row.optFloat("solar_mwh"),
		GeneratorsMWh:    row.optFloat("generators_mwh"),
		TelecomMWh:       row.optFloat("telecom_mwh"),
		GridPct:          row.optFloat("grid_pct"),
		RERPct:           row.optFloat("rer_pct"),
		GeneratorsPct:    row.optFloat("generators_pct"),
		AvgTelecomLoadMW: row.optFloat("avg_telecom_load_mw"),
	}
	if v, err := row.int("sites_integrated"); err == nil {
		stat.SitesIntegrated = &v
	}
	if v, err := row.int("sites_monitored"); err == nil {
		stat.SitesMonitored = &v
	}
	return stat, nil
}
