package server

import (
	"fmt"
	"net/http"

	"github.com/jrsteele09/enertrack-console/api"
	"github.com/rs/zerolog/log"
)

const (
	outageDaily  = "daily"
	outageAlarms = "alarms"
)

func (s *Server) ImportGridOutageDailyHandler() http.HandlerFunc {
	return s.importOutages(outageDaily, "date")
}

func (s *Server) ImportGridOutageAlarmsHandler() http.HandlerFunc {
	return s.importOutages(outageAlarms, "alarm_id")
}

// importOutages records rows of kind keyed by site_id plus keyColumn. Rows
// already seen count as updated.
func (s *Server) importOutages(kind, keyColumn string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, filename, err := readUpload(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var res api.ImportResult
		skipped := 0
		for _, row := range rows {
			siteID, key := row.str("site_id"), row.str(keyColumn)
			if siteID == "" || key == "" {
				skipped++
				continue
			}
			if s.data.upsertOutage(kind, fmt.Sprintf("%s/%s", siteID, key)) {
				res.Created++
			} else {
				res.Updated++
			}
		}

		log.Info().Str("file", filename).Str("kind", kind).Int("created", res.Created).Int("updated", res.Updated).Int("skipped", skipped).Msg("grid outages imported")
		writeJSON(w, http.StatusOK, res)
	}
}
