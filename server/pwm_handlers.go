package server

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/jrsteele09/enertrack-console/api"
)

func pwmCountry(p api.PWMReport) string {
	if p.Country == nil {
		return ""
	}
	return p.Country.Name
}

func pwmSiteID(p api.PWMReport) string {
	if p.Site == nil {
		return ""
	}
	return p.Site.SiteID
}

// visiblePWM returns the reports the caller may see, newest period first.
func (s *Server) visiblePWM(r *http.Request, keep func(api.PWMReport) bool) []api.PWMReport {
	scope := countryScope(r)
	reports := s.data.pwm.filter(func(p api.PWMReport) bool {
		return sameCountry(scope, pwmCountry(p)) && (keep == nil || keep(p))
	})
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].PeriodStart > reports[j].PeriodStart
	})
	return reports
}

// ListPWMHandler filters reports by q (site id or name), country, site_id and
// the date their period starts.
func (s *Server) ListPWMHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dates, err := parseDateRange(r, "date_from", "date_to")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		query := r.URL.Query()
		q, country, siteID := query.Get("q"), query.Get("country"), query.Get("site_id")

		writeList(w, r, s.visiblePWM(r, func(p api.PWMReport) bool {
			name := ""
			if p.Site != nil {
				name = p.Site.SiteName
			}
			return sameCountry(country, pwmCountry(p)) &&
				(siteID == "" || strings.EqualFold(pwmSiteID(p), siteID)) &&
				containsFold(q, pwmSiteID(p), name) &&
				dates.contains(p.PeriodStart)
		}))
	}
}

func (s *Server) DeletePWMHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !s.data.pwm.remove(func(p api.PWMReport) bool { return p.ID.String() == id }) {
			writeError(w, http.StatusNotFound, "Not found.")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// PWMKPIHandler totals the loads and averages the availability of the
// reports visible to the caller.
func (s *Server) PWMKPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var kpi api.PWMKPI
		var grid, uptime mean
		for _, p := range s.visiblePWM(r, nil) {
			kpi.Count++
			kpi.TotalPWMAvgW += deref(p.TotalPWMAvgW)
			kpi.TotalPWCAvgLoadW += deref(p.TotalPWCAvgLoad)
			grid.add(p.GridAvailabilityPct)
			uptime.add(p.DCPWMAvgUptimePct)
		}
		kpi.AvgGridAvailabilityPct = grid.value()
		kpi.AvgDCUptimePct = uptime.value()
		writeJSON(w, http.StatusOK, kpi)
	}
}

// PWMStatsHandler groups the reports starting between date_from and date_to
// by the month they start in.
func (s *Server) PWMStatsHandler() http.HandlerFunc {
	type acc struct {
		stat api.PWMPeriodStat
		grid mean
	}
	return func(w http.ResponseWriter, r *http.Request) {
		dates, err := parseDateRange(r, "date_from", "date_to")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		byPeriod := map[string]*acc{}
		for _, p := range s.visiblePWM(r, func(p api.PWMReport) bool { return dates.contains(p.PeriodStart) }) {
			period := p.PeriodStart[:7]
			a, ok := byPeriod[period]
			if !ok {
				a = &acc{stat: api.PWMPeriodStat{Period: period}}
				byPeriod[period] = a
			}
			a.stat.Reports++
			a.stat.TotalPWMAvgW += deref(p.TotalPWMAvgW)
			a.grid.add(p.GridAvailabilityPct)
		}

		out := make([]api.PWMPeriodStat, 0, len(byPeriod))
		for _, a := range byPeriod {
			a.stat.AvgGridAvailabilityPct = a.grid.value()
			out = append(out, a.stat)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
		writeJSON(w, http.StatusOK, out)
	}
}

// ImportPWMHandler upserts reports keyed by site and period. The country
// form field applies to sites without one.
func (s *Server) ImportPWMHandler() http.HandlerFunc {
	return importRows("pwm", func(u upload, row importRow) (bool, error) {
		report, err := s.pwmFromRow(row, u.r.FormValue("country"))
		if err != nil {
			return false, err
		}
		report.SourceFilename = &u.filename

		key := pwmSiteID(report) + "/" + report.PeriodStart + "/" + report.PeriodEnd
		return s.data.pwm.upsert(key, func(int) api.PWMReport {
			report.ID = api.FlexString(rowID("pwm", key))
			return report
		}), nil
	})
}

func (s *Server) pwmFromRow(row importRow, defaultCountry string) (api.PWMReport, error) {
	site, err := s.importSite(row, defaultCountry)
	if err != nil {
		return api.PWMReport{}, err
	}
	start, err := row.date("period_start")
	if err != nil {
		return api.PWMReport{}, err
	}
	end, err := row.date("period_end")
	if err != nil {
		return api.PWMReport{}, err
	}
	if end < start {
		return api.PWMReport{}, fmt.Errorf("period_end %s is before period_start %s", end, start)
	}

	p := api.PWMReport{
		Country:     site.Country,
		Site:        &site,
		ReportDate:  row.optDate("report_date"),
		PeriodStart: start,
		PeriodEnd:   end,
		SiteName:    &site.SiteName,
		SiteClass:   row.optStr("site_class"),
		GridStatus:  row.optStr("grid_status"),
		DGStatus:    row.optStr("dg_status"),
		SolarStatus: row.optStr("solar_status"),

		TypologyPowerW:  row.optFloat("typology_power_w"),
		GridActPWMAvgW:  row.optFloat("grid_act_pwm_avg_w"),
		TotalPWMMinW:    row.optFloat("total_pwm_min_w"),
		TotalPWMAvgW:    row.optFloat("total_pwm_avg_w"),
		TotalPWMMaxW:    row.optFloat("total_pwm_max_w"),
		TotalPWCAvgLoad: row.optFloat("total_pwc_avg_load_w"),

		DCPWMAvgUptimePct: row.optFloat("dc_pwm_avg_uptime_pct"),
		PWCUptimePct:      row.optFloat("pwc_uptime_pct"),
		RouterUptimePct:   row.optFloat("router_uptime_pct"),

		TypologyLoadVsRealPct: row.optFloat("typology_load_vs_pwm_real_load_pct"),
		GridAvailabilityPct:   row.optFloat("grid_availability_pct"),
		TotalGridCutsMinutes:  row.optFloat("total_grid_cuts_minutes"),
	}
	for i, dst := range []**float64{
		&p.DC1PWMAvgW, &p.DC2PWMAvgW, &p.DC3PWMAvgW, &p.DC4PWMAvgW, &p.DC5PWMAvgW, &p.DC6PWMAvgW,
		&p.DC7PWMAvgW, &p.DC8PWMAvgW, &p.DC9PWMAvgW, &p.DC10PWMAvgW, &p.DC11PWMAvgW, &p.DC12PWMAvgW,
	} {
		*dst = row.optFloat(fmt.Sprintf("dc%d_pwm_avg_w", i+1))
	}
	if cuts, err := row.int("number_grid_cuts"); err == nil {
		p.NumberGridCuts = &cuts
	}
	return p, nil
}
