package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/enertrack-console/api"
	"github.com/rs/zerolog/log"
)

// countryScope returns the country the caller is restricted to, or "".
func countryScope(r *http.Request) string {
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		return claims.Pays
	}
	return ""
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	return id, err == nil && id > 0
}

func validateSite(site api.Site) map[string][]string {
	fieldErrors := map[string][]string{}
	if strings.TrimSpace(site.SiteID) == "" {
		fieldErrors["site_id"] = []string{"This field is required."}
	}
	if strings.TrimSpace(site.Name) == "" {
		fieldErrors["name"] = []string{"This field is required."}
	}
	if strings.TrimSpace(site.Country) == "" {
		fieldErrors["country"] = []string{"This field is required."}
	}
	return fieldErrors
}

func (s *Server) ListSitesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.data.listSites(countryScope(r)))
	}
}

func (s *Server) GetSiteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusNotFound, "Not found.")
			return
		}
		site, ok := s.data.getSite(id)
		if !ok || !sameCountry(countryScope(r), site.Country) {
			writeError(w, http.StatusNotFound, "Not found.")
			return
		}
		writeJSON(w, http.StatusOK, site)
	}
}

func (s *Server) CreateSiteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var site api.Site
		if err := decodeJSON(w, r, &site); err != nil {
			writeError(w, http.StatusBadRequest, "JSON parse error")
			return
		}
		if fieldErrors := validateSite(site); len(fieldErrors) > 0 {
			writeJSON(w, http.StatusBadRequest, fieldErrors)
			return
		}
		writeJSON(w, http.StatusCreated, s.data.createSite(site))
	}
}

func (s *Server) UpdateSiteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeError(w, http.StatusNotFound, "Not found.")
			return
		}
		var site api.Site
		if err := decodeJSON(w, r, &site); err != nil {
			writeError(w, http.StatusBadRequest, "JSON parse error")
			return
		}
		if fieldErrors := validateSite(site); len(fieldErrors) > 0 {
			writeJSON(w, http.StatusBadRequest, fieldErrors)
			return
		}
		updated, ok := s.data.updateSite(id, site)
		if !ok {
			writeError(w, http.StatusNotFound, "Not found.")
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func (s *Server) DeleteSiteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok || !s.data.deleteSite(id) {
			writeError(w, http.StatusNotFound, "Not found.")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ImportSitesHandler upserts sites by site_id from an uploaded CSV.
func (s *Server) ImportSitesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, filename, err := readUpload(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var summary importSummary
		for i, row := range rows {
			site := api.Site{
				SiteID:              row.str("site_id"),
				Name:                row.str("name"),
				IsNew:               strings.EqualFold(row.str("is_new"), "true"),
				InstallationDate:    row.optStr("installation_date"),
				ActivationDate:      row.optStr("activation_date"),
				IsBilled:            strings.EqualFold(row.str("is_billed"), "true"),
				RealTypology:        row.optStr("real_typology"),
				ContractualTypology: row.optStr("contratual_typology"),
				BillingTypology:     row.optStr("billing_typology"),
				PowerKW:             row.optFloat("power_kw"),
				BatchAktivco:        row.optStr("batch_aktivco"),
				BatchOperational:    row.optStr("batch_operational"),
				Zone:                row.optStr("zone"),
				Country:             row.str("country"),
			}
			if fieldErrors := validateSite(site); len(fieldErrors) > 0 {
				summary.fail(i+2, fmt.Errorf("missing required fields"))
				continue
			}
			summary.record(s.data.upsertSite(site))
		}

		log.Info().Str("file", filename).Int("created", summary.Created).Int("updated", summary.Updated).Msg("sites imported")
		writeJSON(w, http.StatusOK, summary)
	}
}
