package server

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/jrsteele09/enertrack-console/api"
)

var sourceStatuses = map[string]bool{
	api.StatusYes:          true,
	api.StatusNo:           true,
	api.StatusNotMonitored: true,
	api.StatusNotInstalled: true,
	api.StatusNoGenerator:  true,
	api.StatusNotConnected: true,
}

// ListSiteEnergyHandler filters monthly site balances by q (site id or name),
// year, month and country. Newest months come first.
func (s *Server) ListSiteEnergyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		year, month := queryInt(r, "year"), queryInt(r, "month")
		inCountry := countryFilter(r)

		rows := s.data.siteEnergy.filter(func(e api.SiteEnergyRow) bool {
			country := ""
			if e.Site.Country != nil {
				country = e.Site.Country.Name
			}
			return inCountry(country) &&
				(year == 0 || e.Year == year) &&
				(month == 0 || e.Month.String() == strconv.Itoa(month)) &&
				containsFold(q, e.Site.SiteID, e.Site.SiteName)
		})
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].Year != rows[j].Year {
				return rows[i].Year > rows[j].Year
			}
			mi, _ := strconv.Atoi(rows[i].Month.String())
			mj, _ := strconv.Atoi(rows[j].Month.String())
			return mi > mj
		})
		writeList(w, r, rows)
	}
}

// ImportSiteEnergyHandler upserts rows keyed by site, year and month. The
// country, year and month form fields fill columns the file leaves out.
func (s *Server) ImportSiteEnergyHandler() http.HandlerFunc {
	return importRows("site-energy", func(u upload, row importRow) (bool, error) {
		for _, key := range []string{"year", "month"} {
			if row.str(key) == "" {
				row[key] = u.r.FormValue(key)
			}
		}
		e, err := s.siteEnergyFromRow(row, u.r.FormValue("country"))
		if err != nil {
			return false, err
		}
		e.SourceFilename = &u.filename
		e.ImportedAt = &u.importedAt

		key := e.Site.SiteID + "/" + strconv.Itoa(e.Year) + "/" + e.Month.String()
		return s.data.siteEnergy.upsert(key, func(int) api.SiteEnergyRow {
			e.ID = rowID("site-energy", key)
			return e
		}), nil
	})
}

func (s *Server) siteEnergyFromRow(row importRow, defaultCountry string) (api.SiteEnergyRow, error) {
	site, err := s.importSite(row, defaultCountry)
	if err != nil {
		return api.SiteEnergyRow{}, err
	}
	year, err := row.int("year")
	if err != nil {
		return api.SiteEnergyRow{}, fmt.Errorf("invalid year %q", row.str("year"))
	}
	month, err := row.int("month")
	if err != nil || month < 1 || month > 12 {
		return api.SiteEnergyRow{}, fmt.Errorf("invalid month %q", row.str("month"))
	}

	e := api.SiteEnergyRow{
		Site:                  site,
		Year:                  year,
		Month:                 api.FlexString(strconv.Itoa(month)),
		GridEnergyKWh:         row.optFloat("grid_energy_kwh"),
		SolarEnergyKWh:        row.optFloat("solar_energy_kwh"),
		TelecomLoadKWh:        row.optFloat("telecom_load_kwh"),
		GridEnergyPct:         row.optFloat("grid_energy_pct"),
		RERPct:                row.optFloat("rer_pct"),
		RouterAvailabilityPct: row.optFloat("router_availability_pct"),
		PWMAvailabilityPct:    row.optFloat("pwm_availability_pct"),
		PWCAvailabilityPct:    row.optFloat("pwc_availability_pct"),
	}
	for _, f := range []struct {
		column string
		dst    *string
	}{
		{"grid_status", &e.GridStatus},
		{"dg_status", &e.DGStatus},
		{"solar_status", &e.SolarStatus},
	} {
		status, err := sourceStatus(row, f.column)
		if err != nil {
			return api.SiteEnergyRow{}, err
		}
		*f.dst = status
	}
	return e, nil
}

// sourceStatus reads an installation status. An empty cell means the source
// is not monitored.
func sourceStatus(row importRow, column string) (string, error) {
	v := strings.ToUpper(row.str(column))
	if v == "" {
		return api.StatusNotMonitored, nil
	}
	if !sourceStatuses[v] {
		return "", fmt.Errorf("invalid %s %q", column, row.str(column))
	}
	return v, nil
}
