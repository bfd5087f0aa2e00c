package server

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/enertrack-console/api"
	"github.com/rs/zerolog/log"
)

// ImportSonatelHandler records the upload as a new batch and upserts its
// invoice lines by invoice number. Only new lines count as created.
func (s *Server) ImportSonatelHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, filename, err := readUpload(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var batch api.SonatelBatch
		s.data.sonatelBatches.upsert(fmt.Sprintf("%s/%d", filename, time.Now().UnixNano()), func(seq int) api.SonatelBatch {
			batch = api.SonatelBatch{ID: seq, SourceFilename: filename, ImportedAt: time.Now().UTC()}
			return batch
		})

		created, failed := 0, 0
		for i, row := range rows {
			inv, err := sonatelFromRow(row)
			if err != nil {
				failed++
				log.Warn().Str("file", filename).Int("line", i+2).Err(err).Msg("sonatel line skipped")
				continue
			}
			inv.Batch = batch.ID
			if s.data.sonatelRecords.upsert(inv.InvoiceNumber, func(seq int) api.SonatelInvoice {
				inv.ID = seq
				return inv
			}) {
				created++
			}
		}

		log.Info().Str("file", filename).Int("batch", batch.ID).Int("created", created).Int("failed", failed).Msg("sonatel billing imported")
		writeJSON(w, http.StatusCreated, api.SonatelImport{Batch: batch, RowsCreated: created})
	}
}

func sonatelFromRow(row importRow) (api.SonatelInvoice, error) {
	number := row.str("numero_facture")
	if number == "" {
		return api.SonatelInvoice{}, fmt.Errorf("numero_facture is required")
	}
	account := row.str("numero_compte_contrat")
	if account == "" {
		return api.SonatelInvoice{}, fmt.Errorf("numero_compte_contrat is required")
	}
	accounting, err := row.date("date_comptable_facture")
	if err != nil {
		return api.SonatelInvoice{}, err
	}
	start, err := row.date("date_debut_periode")
	if err != nil {
		return api.SonatelInvoice{}, err
	}
	end, err := row.date("date_fin_periode")
	if err != nil {
		return api.SonatelInvoice{}, err
	}
	if end < start {
		return api.SonatelInvoice{}, fmt.Errorf("date_fin_periode %s is before date_debut_periode %s", end, start)
	}

	return api.SonatelInvoice{
		AccountNumber:     account,
		Partner:           row.optStr("partenaire"),
		Locality:          row.optStr("localite"),
		District:          row.optStr("arrondissement"),
		Street:            row.optStr("rue"),
		InvoiceNumber:     number,
		AccountingDate:    accounting,
		AmountEnergy:      row.optDecimal("montant_total_energie"),
		AmountFee:         row.optDecimal("montant_redevance"),
		AmountTCO:         row.optDecimal("montant_tco"),
		AmountExclTax:     row.optDecimal("montant_hors_tva"),
		AmountTax:         row.optDecimal("montant_tva"),
		AmountInclTax:     row.optDecimal("montant_ttc"),
		PeriodStart:       start,
		PeriodEnd:         end,
		PreviousIndexK1:   row.optDecimal("ancien_index_k1"),
		PreviousIndexK2:   row.optDecimal("ancien_index_k2"),
		NewIndexK1:        row.optDecimal("nouvel_index_k1"),
		NewIndexK2:        row.optDecimal("nouvel_index_k2"),
		BilledConsumption: row.optDecimal("conso_facturee"),
		Agency:            row.optStr("agence"),
		MeterNumber:       row.optStr("numero_compteur"),
	}, nil
}

// ListSonatelBatchesHandler lists import batches, newest first.
func (s *Server) ListSonatelBatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batches := s.data.sonatelBatches.filter(nil)
		sort.Slice(batches, func(i, j int) bool { return batches[i].ID > batches[j].ID })
		writeJSON(w, http.StatusOK, batches)
	}
}

// ListSonatelRecordsHandler searches invoice lines by invoice, account or
// meter number.
func (s *Server) ListSonatelRecordsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		search := r.URL.Query().Get("search")
		writeList(w, r, s.data.sonatelRecords.filter(func(inv api.SonatelInvoice) bool {
			meter := ""
			if inv.MeterNumber != nil {
				meter = *inv.MeterNumber
			}
			return containsFold(search, inv.InvoiceNumber, inv.AccountNumber, meter)
		}))
	}
}

// ListSonatelMonthlyHandler splits every invoice across the calendar months
// of its billing period and filters the shares by year, month, account and
// facture.
func (s *Server) ListSonatelMonthlyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		year, month := queryInt(r, "year"), queryInt(r, "month")
		account, facture := query.Get("account"), query.Get("facture")

		out := []api.SonatelMonthly{}
		id := 0
		for _, inv := range s.data.sonatelRecords.filter(nil) {
			for _, share := range monthlyShares(inv) {
				id++
				share.ID = id
				if (year != 0 && share.Year != year) || (month != 0 && share.Month != month) {
					continue
				}
				if (account != "" && !strings.EqualFold(share.AccountNumber, account)) ||
					(facture != "" && !strings.EqualFold(share.InvoiceNumber, facture)) {
					continue
				}
				out = append(out, share)
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// monthlyShares prorates an invoice's consumption and amounts by the number of
// days of its billing period, both ends included, that fall in each month.
func monthlyShares(inv api.SonatelInvoice) []api.SonatelMonthly {
	start, err := time.Parse(api.DateLayout, inv.PeriodStart)
	if err != nil {
		return nil
	}
	end, err := time.Parse(api.DateLayout, inv.PeriodEnd)
	if err != nil || end.Before(start) {
		return nil
	}
	totalDays := int(end.Sub(start).Hours()/24) + 1

	var shares []api.SonatelMonthly
	for monthStart := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC); !monthStart.After(end); monthStart = monthStart.AddDate(0, 1, 0) {
		monthEnd := monthStart.AddDate(0, 1, -1)
		from, to := start, end
		if monthStart.After(from) {
			from = monthStart
		}
		if monthEnd.Before(to) {
			to = monthEnd
		}
		covered := int(to.Sub(from).Hours()/24) + 1
		shares = append(shares, api.SonatelMonthly{
			Source:        inv.ID,
			Year:          monthStart.Year(),
			Month:         int(monthStart.Month()),
			DaysInMonth:   monthEnd.Day(),
			DaysCovered:   covered,
			Consumption:   prorate(inv.BilledConsumption, covered, totalDays),
			AmountEnergy:  prorate(inv.AmountEnergy, covered, totalDays),
			AmountInclTax: prorate(inv.AmountInclTax, covered, totalDays),
			AccountNumber: inv.AccountNumber,
			InvoiceNumber: inv.InvoiceNumber,
		})
	}
	return shares
}

func prorate(total *string, covered, days int) *string {
	if total == nil {
		return nil
	}
	v, err := strconv.ParseFloat(*total, 64)
	if err != nil {
		return nil
	}
	share := strconv.FormatFloat(v*float64(covered)/float64(days), 'f', 2, 64)
	return &share
}
