package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/enertrack-console/api"
	"github.com/rs/zerolog/log"
)

const (
	TaskPending = "PENDING"
	TaskSuccess = "SUCCESS"
	TaskFailure = "FAILURE"
)

func parseDateParam(r *http.Request, key string) (string, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return "", nil
	}
	if _, err := time.Parse(api.DateLayout, v); err != nil {
		return "", fmt.Errorf("%s must be YYYY-MM-DD", key)
	}
	return v, nil
}

func (s *Server) InvoicesBetweenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start, err := parseDateParam(r, "start_date")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		end, err := parseDateParam(r, "end_date")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, s.data.invoicesBetween(start, end))
	}
}

func (s *Server) ImportInvoicesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, filename, err := readUpload(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		summary := s.importInvoices(rows)
		log.Info().Str("file", filename).Int("created", summary.Created).Int("updated", summary.Updated).Msg("invoices imported")
		writeJSON(w, http.StatusOK, summary)
	}
}

// ImportInvoicesAsyncHandler parses the upload, then applies it in the
// background. Progress is polled through ImportStatusHandler.
func (s *Server) ImportInvoicesAsyncHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, filename, err := readUpload(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		taskID := uuid.New().String()
		s.data.setTask(taskID, api.ImportStatus{Status: TaskPending})

		go func() {
			summary := s.importInvoices(rows)
			result, err := json.Marshal(summary)
			if err != nil {
				log.Err(err).Str("task_id", taskID).Msg("failed to encode import result")
				s.data.setTask(taskID, api.ImportStatus{Status: TaskFailure})
				return
			}
			s.data.setTask(taskID, api.ImportStatus{Status: TaskSuccess, Result: result})
			log.Info().Str("file", filename).Str("task_id", taskID).Msg("async invoice import finished")
		}()

		writeJSON(w, http.StatusAccepted, api.ImportTask{TaskID: taskID})
	}
}

func (s *Server) ImportStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, ok := s.data.getTask(r.PathValue("id"))
		if !ok {
			writeError(w, http.StatusNotFound, "Not found.")
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

func (s *Server) importInvoices(rows []importRow) importSummary {
	var summary importSummary
	for i, row := range rows {
		inv, err := invoiceFromRow(row)
		if err != nil {
			summary.fail(i+2, err)
			continue
		}
		summary.record(s.data.upsertInvoice(inv))
	}
	return summary
}

func invoiceFromRow(row importRow) (api.Invoice, error) {
	number := row.str("facture_number")
	if number == "" {
		return api.Invoice{}, fmt.Errorf("facture_number is required")
	}
	date := row.str("date_facture")
	if _, err := time.Parse(api.DateLayout, date); err != nil {
		return api.Invoice{}, fmt.Errorf("invalid date_facture %q", date)
	}
	amount := row.optFloat("montant_ht")
	if amount == nil {
		return api.Invoice{}, fmt.Errorf("invalid montant_ht %q", row.str("montant_ht"))
	}

	inv := api.Invoice{
		SiteName:       row.str("site_name"),
		PoliceNumber:   row.str("police_number"),
		ContractNumber: row.str("contrat_number"),
		InvoiceNumber:  number,
		InvoiceDate:    date,
		DueDate:        row.optStr("date_echeance"),
		AmountExclTax:  *amount,
		AmountTax:      row.optFloat("montant_tva"),
		AmountInclTax:  row.optFloat("montant_ttc"),
		ConsumptionKWh: row.optFloat("consommation_kwh"),
		Status:         row.str("statut"),
	}
	if id, err := row.int("site"); err == nil {
		inv.Site = api.InvoiceSite{ID: id}
	}
	return inv, nil
}
