package server

import (
	"net/http"
	"sort"

	"github.com/jrsteele09/enertrack-console/api"
)

// ListPQHandler filters power quality reports by q (site id or name),
// country and the date their period begins.
func (s *Server) ListPQHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dates, err := parseDateRange(r, "date_from", "date_to")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		q := r.URL.Query().Get("q")
		inCountry := countryFilter(r)

		reports := s.data.pq.filter(func(p api.PQReport) bool {
			return inCountry(p.Country.Name) &&
				containsFold(q, p.Site.SiteID, p.Site.SiteName) &&
				dates.contains(p.BeginPeriod)
		})
		sort.SliceStable(reports, func(i, j int) bool {
			return reports[i].BeginPeriod > reports[j].BeginPeriod
		})
		writeList(w, r, reports)
	}
}

// ImportPQHandler upserts reports keyed by site and measurement period.
func (s *Server) ImportPQHandler() http.HandlerFunc {
	return importRows("pq", func(u upload, row importRow) (bool, error) {
		report, err := s.pqFromRow(row)
		if err != nil {
			return false, err
		}
		report.SourceFilename = &u.filename
		report.ImportedAt = &u.importedAt

		key := report.Site.SiteID + "/" + report.BeginPeriod + "/" + report.EndPeriod
		return s.data.pq.upsert(key, func(int) api.PQReport {
			report.ID = rowID("pq", key)
			return report
		}), nil
	})
}

func (s *Server) pqFromRow(row importRow) (api.PQReport, error) {
	site, err := s.importSite(row, "")
	if err != nil {
		return api.PQReport{}, err
	}
	begin, err := row.date("begin_period")
	if err != nil {
		return api.PQReport{}, err
	}
	end, err := row.date("end_period")
	if err != nil {
		return api.PQReport{}, err
	}

	return api.PQReport{
		Country:     *site.Country,
		Site:        site,
		BeginPeriod: begin,
		EndPeriod:   end,
		ExtractDate: row.optDate("extract_date"),

		MonoVMinV:             row.optFloat("mono_vmin_v"),
		MonoVAvgV:             row.optFloat("mono_vavg_v"),
		MonoVMaxV:             row.optFloat("mono_vmax_v"),
		MonoIMinA:             row.optFloat("mono_imin_a"),
		MonoIAvgA:             row.optFloat("mono_iavg_a"),
		MonoIMaxA:             row.optFloat("mono_imax_a"),
		MonoPMinKW:            row.optFloat("mono_pmin_kw"),
		MonoPAvgKW:            row.optFloat("mono_pavg_kw"),
		MonoPMaxKW:            row.optFloat("mono_pmax_kw"),
		MonoTotalEnergyKWh:    row.optFloat("mono_total_energy_kwh"),
		MonoEnergyConsumedKWh: row.optFloat("mono_energy_consumed_kwh"),

		TriTotalEnergyKWh:      row.optFloat("tri_total_energy_kwh"),
		TriActiveEnergyKWh:     row.optFloat("tri_active_energy_kwh"),
		TriReactiveEnergyKVarh: row.optFloat("tri_reactive_energy_kvarh"),
		TriApparentEnergyKVAh:  row.optFloat("tri_apparent_energy_kvah"),
	}, nil
}
