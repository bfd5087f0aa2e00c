package server

import (
	"net/http"
	"sort"
	"time"

	"github.com/jrsteele09/enertrack-console/api"
)

// mean averages the values that are present.
type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v *float64) {
	if v != nil {
		m.sum += *v
		m.n++
	}
}

func (m mean) value() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sum / float64(m.n)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// EnergyKPIHandler totals the energy mix rows visible to the caller.
func (s *Server) EnergyKPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var kpi api.EnergyKPI
		var rer, load mean
		for _, e := range s.data.listEnergy(0, "", countryScope(r)) {
			kpi.TotalGrid += deref(e.GridMWh)
			kpi.TotalSolar += deref(e.SolarMWh)
			kpi.TotalGen += deref(e.GeneratorsMWh)
			rer.add(e.RERPct)
			load.add(e.AvgTelecomLoadMW)
		}
		kpi.RERAvg = rer.value()
		kpi.LoadAvg = load.value()
		writeJSON(w, http.StatusOK, kpi)
	}
}

// EnergyStatsHandler sums every country per month between start_year and
// end_year. The renewable share is recomputed from the summed energy.
func (s *Server) EnergyStatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startYear, endYear := queryInt(r, "start_year"), queryInt(r, "end_year")

		byPeriod := map[int]*api.EnergyPeriodStat{}
		for _, e := range s.data.listEnergy(0, "", countryScope(r)) {
			if (startYear != 0 && e.Year < startYear) || (endYear != 0 && e.Year > endYear) {
				continue
			}
			key := e.Year*100 + e.Month
			stat, ok := byPeriod[key]
			if !ok {
				stat = &api.EnergyPeriodStat{Year: e.Year, Month: e.Month}
				byPeriod[key] = stat
			}
			stat.GridMWh += deref(e.GridMWh)
			stat.SolarMWh += deref(e.SolarMWh)
			stat.GeneratorsMWh += deref(e.GeneratorsMWh)
			stat.TelecomMWh += deref(e.TelecomMWh)
		}

		out := make([]api.EnergyPeriodStat, 0, len(byPeriod))
		for _, stat := range byPeriod {
			if produced := stat.GridMWh + stat.SolarMWh + stat.GeneratorsMWh; produced > 0 {
				stat.RERPct = stat.SolarMWh / produced * 100
			}
			out = append(out, *stat)
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Year != out[j].Year {
				return out[i].Year < out[j].Year
			}
			return out[i].Month < out[j].Month
		})
		writeJSON(w, http.StatusOK, out)
	}
}

// invoiceSite prefers the registered site over the names carried by the invoice.
func (s *Server) invoiceSite(inv api.Invoice) (siteID, name string) {
	if site, ok := s.data.getSite(inv.Site.ID); ok {
		return site.SiteID, site.Name
	}
	return inv.Site.SiteID, inv.SiteName
}

// InvoiceStatsHandler averages the invoices dated between start_date and
// end_date per site.
func (s *Server) InvoiceStatsHandler() http.HandlerFunc {
	type acc struct {
		stat  api.InvoiceStat
		means invoiceMeans
	}
	return func(w http.ResponseWriter, r *http.Request) {
		dates, err := parseDateRange(r, "start_date", "end_date")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		bySite := map[int]*acc{}
		var order []int
		for _, inv := range s.data.invoicesBetween(dates.from, dates.to) {
			a, ok := bySite[inv.Site.ID]
			if !ok {
				a = &acc{}
				a.stat.SiteID, a.stat.SiteName = s.invoiceSite(inv)
				bySite[inv.Site.ID] = a
				order = append(order, inv.Site.ID)
			}
			a.means.add(inv)
			a.stat.Count++
		}

		sort.Ints(order)
		out := make([]api.InvoiceStat, 0, len(order))
		for _, id := range order {
			a := bySite[id]
			avg := a.means.averages()
			a.stat.AvgAmountExcl = avg.AvgAmountExcl
			a.stat.AvgAmountIncl = avg.AvgAmountIncl
			a.stat.AvgConsumption = avg.AvgConsumption
			out = append(out, a.stat)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type invoiceMeans struct {
	ttc, kwh, ht mean
}

func (m *invoiceMeans) add(inv api.Invoice) {
	amount := inv.AmountExclTax
	m.ht.add(&amount)
	m.ttc.add(inv.AmountInclTax)
	m.kwh.add(inv.ConsumptionKWh)
}

func (m invoiceMeans) averages() api.InvoiceAverages {
	return api.InvoiceAverages{
		AvgAmountIncl:  m.ttc.value(),
		AvgConsumption: m.kwh.value(),
		AvgAmountExcl:  m.ht.value(),
	}
}

// InvoicesKPIHandler compares each site's last three months, current year
// and previous year, relative to the server clock.
func (s *Server) InvoicesKPIHandler() http.HandlerFunc {
	type acc struct {
		kpi                       api.InvoiceSiteKPI
		recent, current, previous invoiceMeans
	}
	return func(w http.ResponseWriter, r *http.Request) {
		now := s.now()
		recentFrom := now.AddDate(0, -3, 0).Format(api.DateLayout)
		today := now.Format(api.DateLayout)

		bySite := map[int]*acc{}
		for _, inv := range s.data.invoicesBetween("", "") {
			date, err := time.Parse(api.DateLayout, inv.InvoiceDate)
			if err != nil {
				continue
			}
			a, ok := bySite[inv.Site.ID]
			if !ok {
				a = &acc{kpi: api.InvoiceSiteKPI{SiteID: inv.Site.ID}}
				_, a.kpi.SiteName = s.invoiceSite(inv)
				bySite[inv.Site.ID] = a
			}
			if inv.InvoiceDate >= recentFrom && inv.InvoiceDate <= today {
				a.recent.add(inv)
			}
			switch date.Year() {
			case now.Year():
				a.current.add(inv)
			case now.Year() - 1:
				a.previous.add(inv)
			}
		}

		out := make([]api.InvoiceSiteKPI, 0, len(bySite))
		for _, a := range bySite {
			a.kpi.LastMonths = a.recent.averages()
			a.kpi.CurrentYear = a.current.averages()
			a.kpi.PreviousYear = a.previous.averages()
			out = append(out, a.kpi)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].SiteID < out[j].SiteID })
		writeJSON(w, http.StatusOK, out)
	}
}
