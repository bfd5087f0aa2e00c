package server

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/jrsteele09/enertrack-console/api"
)

// ListRectifiersHandler filters readings by q, site_id, country, param and
// the day they were measured. Newest readings come first.
func (s *Server) ListRectifiersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dates, err := parseDateRange(r, "date_from", "date_to")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		query := r.URL.Query()
		q, siteID, param := query.Get("q"), query.Get("site_id"), query.Get("param")
		inCountry := countryFilter(r)

		readings := s.data.rectifiers.filter(func(rd api.RectifierReading) bool {
			return inCountry(rd.Country.Name) &&
				(siteID == "" || strings.EqualFold(rd.Site.SiteID, siteID)) &&
				(param == "" || strings.EqualFold(rd.ParamName, param)) &&
				containsFold(q, rd.Site.SiteID, rd.Site.SiteName, rd.ParamName) &&
				dates.contains(rd.MeasuredAt)
		})
		sort.SliceStable(readings, func(i, j int) bool {
			return readings[i].MeasuredAt > readings[j].MeasuredAt
		})
		writeList(w, r, readings)
	}
}

// ImportRectifiersHandler upserts readings keyed by site, parameter and
// measurement time. The country form field applies to sites without one.
func (s *Server) ImportRectifiersHandler() http.HandlerFunc {
	return importRows("rectifiers", func(u upload, row importRow) (bool, error) {
		reading, err := s.rectifierFromRow(row, u.r.FormValue("country"))
		if err != nil {
			return false, err
		}
		reading.SourceFilename = &u.filename
		reading.ImportedAt = &u.importedAt

		key := reading.Site.SiteID + "/" + reading.ParamName + "/" + reading.MeasuredAt
		return s.data.rectifiers.upsert(key, func(int) api.RectifierReading {
			reading.ID = rowID("rectifier", key)
			return reading
		}), nil
	})
}

func (s *Server) rectifierFromRow(row importRow, defaultCountry string) (api.RectifierReading, error) {
	site, err := s.importSite(row, defaultCountry)
	if err != nil {
		return api.RectifierReading{}, err
	}
	param := row.str("param_name")
	if param == "" {
		return api.RectifierReading{}, fmt.Errorf("param_name is required")
	}
	measuredAt, err := row.timestamp("measured_at")
	if err != nil {
		return api.RectifierReading{}, err
	}

	return api.RectifierReading{
		Country:    *site.Country,
		Site:       site,
		ParamName:  param,
		ParamValue: row.optFloat("param_value"),
		Measure:    row.optStr("measure"),
		MeasuredAt: measuredAt,
	}, nil
}
