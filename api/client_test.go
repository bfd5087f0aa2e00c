package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/enertrack-console/api"
	"github.com/jrsteele09/enertrack-console/internal/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := api.NewClient(srv.URL+"/api/", api.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestNewClient_RejectsBadBaseURL(t *testing.T) {
	_, err := api.NewClient("localhost:8000")
	require.Error(t, err)

	_, err = api.NewClient("ftp://example.com")
	require.Error(t, err)
}

func TestClient_Sites(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/core/sites/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "SN", r.URL.Query().Get("country"))
		writeJSON(t, w, http.StatusOK, []map[string]any{
			{"id": 1, "site_id": "DKR-001", "name": "Dakar Plateau", "country": "Senegal", "power_kw": 12.5},
		})
	})
	mux.HandleFunc("GET /api/core/sites/{id}/", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "1" {
			writeJSON(t, w, http.StatusNotFound, map[string]string{"detail": "Not found."})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"id": 1, "site_id": "DKR-001", "name": "Dakar Plateau"})
	})
	mux.HandleFunc("POST /api/core/sites/", func(w http.ResponseWriter, r *http.Request) {
		var site api.Site
		require.NoError(t, json.NewDecoder(r.Body).Decode(&site))
		site.ID = 7
		writeJSON(t, w, http.StatusCreated, site)
	})
	mux.HandleFunc("PUT /api/core/sites/{id}/", func(w http.ResponseWriter, r *http.Request) {
		var site api.Site
		require.NoError(t, json.NewDecoder(r.Body).Decode(&site))
		writeJSON(t, w, http.StatusOK, site)
	})
	mux.HandleFunc("DELETE /api/core/sites/{id}/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	c := newTestClient(t, mux)
	ctx := context.Background()

	sites, err := c.ListSites(ctx, map[string][]string{"country": {"SN"}})
	require.NoError(t, err)
	require.Len(t, sites, 1)
	require.Equal(t, "DKR-001", sites[0].SiteID)
	require.NotNil(t, sites[0].PowerKW)
	require.InDelta(t, 12.5, *sites[0].PowerKW, 0.001)

	site, err := c.GetSite(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Dakar Plateau", site.Name)

	_, err = c.GetSite(ctx, 2)
	require.Error(t, err)
	require.True(t, api.IsNotFound(err))
	require.False(t, api.IsUnauthorized(err))

	created, err := c.CreateSite(ctx, api.Site{SiteID: "THS-002", Name: "Thies", Country: "Senegal"})
	require.NoError(t, err)
	require.Equal(t, 7, created.ID)

	updated, err := c.UpdateSite(ctx, 7, api.Site{SiteID: "THS-002", Name: "Thies Nord"})
	require.NoError(t, err)
	require.Equal(t, "Thies Nord", updated.Name)

	require.NoError(t, c.DeleteSite(ctx, 7))
}

func TestClient_APIError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"detail": "Given token not valid"})
	}))

	_, err := c.ListSites(context.Background(), nil)
	require.Error(t, err)
	require.True(t, api.IsUnauthorized(err))

	var apiErr *api.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Contains(t, apiErr.Body, "Given token not valid")
	require.Contains(t, err.Error(), "ListSites")
}

func TestClient_ListEnergyStats(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantItems int
		wantTotal int
	}{
		{
			name:      "paginated with results and count",
			body:      `{"count": 42, "results": [{"id": "a", "year": 2025, "month": 1, "country": {"id": 1, "name": "Senegal"}}]}`,
			wantItems: 1,
			wantTotal: 42,
		},
		{
			name:      "paginated with items and total",
			body:      `{"total": 9, "items": [{"id": "a"}, {"id": "b"}]}`,
			wantItems: 2,
			wantTotal: 9,
		},
		{
			name:      "envelope without a total",
			body:      `{"results": [{"id": "a"}, {"id": "b"}, {"id": "c"}]}`,
			wantItems: 3,
			wantTotal: 3,
		},
		{
			name:      "bare array",
			body:      `[{"id": "a"}, {"id": "b"}]`,
			wantItems: 2,
			wantTotal: 2,
		},
		{
			name:      "empty envelope",
			body:      `{}`,
			wantItems: 0,
			wantTotal: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/api/energy/", r.URL.Path)
				require.Equal(t, "2", r.URL.Query().Get("page"))
				require.Equal(t, "2025", r.URL.Query().Get("year"))
				require.Empty(t, r.URL.Query().Get("search"))
				_, _ = io.WriteString(w, tt.body)
			}))

			page, err := c.ListEnergyStats(context.Background(), api.EnergyListParams{Page: 2, Year: 2025})
			require.NoError(t, err)
			require.Len(t, page.Items, tt.wantItems)
			require.Equal(t, tt.wantTotal, page.Total)
		})
	}
}

func TestClient_ListInvoices(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/invoices/between/", r.URL.Path)
		require.Equal(t, "2025-01-01", r.URL.Query().Get("start_date"))
		require.False(t, r.URL.Query().Has("end_date"))
		_, _ = io.WriteString(w, `[
			{"id": 1, "site": 12, "facture_number": "F-1", "montant_ht": 1000.5},
			{"id": 2, "site": {"id": 13, "site_id": "DKR-013", "name": "Medina"}, "facture_number": "F-2", "montant_ht": 20}
		]`)
	}))

	invoices, err := c.ListInvoices(context.Background(), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Time{})
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	require.Equal(t, 12, invoices[0].Site.ID)
	require.Empty(t, invoices[0].Site.Name)
	require.Equal(t, 13, invoices[1].Site.ID)
	require.Equal(t, "Medina", invoices[1].Site.Name)
	require.Equal(t, "F-2", invoices[1].InvoiceNumber)
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestClient_Imports(t *testing.T) {
	mux := http.NewServeMux()
	uploaded := map[string]string{}
	recordUpload := func(r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		uploaded[r.URL.Path] = hdr.Filename + ":" + string(data)
	}

	mux.HandleFunc("POST /api/grid-outages/daily/import/", func(w http.ResponseWriter, r *http.Request) {
		recordUpload(r)
		writeJSON(t, w, http.StatusOK, api.ImportResult{Created: 3, Updated: 1})
	})
	mux.HandleFunc("POST /api/invoices/import_async/", func(w http.ResponseWriter, r *http.Request) {
		recordUpload(r)
		writeJSON(t, w, http.StatusAccepted, api.ImportTask{TaskID: "task-1"})
	})
	mux.HandleFunc("GET /api/invoices/import-status/{id}/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "task-1", r.PathValue("id"))
		_, _ = io.WriteString(w, `{"status": "SUCCESS", "result": {"created": 10}}`)
	})
	mux.HandleFunc("POST /api/energy/import/", func(w http.ResponseWriter, r *http.Request) {
		recordUpload(r)
		require.Equal(t, "Senegal", r.FormValue("country"))
		require.False(t, r.Form.Has("note"))
		writeJSON(t, w, http.StatusOK, map[string]any{"rows": 12})
	})

	c := newTestClient(t, mux)
	ctx := context.Background()

	res, err := c.ImportGridOutageDaily(ctx, writeTempFile(t, "daily.xlsx", "daily-bytes"))
	require.NoError(t, err)
	require.Equal(t, api.ImportResult{Created: 3, Updated: 1}, res)
	require.Equal(t, "daily.xlsx:daily-bytes", uploaded["/api/grid-outages/daily/import/"])

	task, err := c.ImportInvoicesAsync(ctx, writeTempFile(t, "invoices.xlsx", "inv"))
	require.NoError(t, err)
	require.Equal(t, "task-1", task.TaskID)

	status, err := c.ImportStatus(ctx, task.TaskID)
	require.NoError(t, err)
	require.Equal(t, "SUCCESS", status.Status)
	require.JSONEq(t, `{"created": 10}`, string(status.Result))

	summary, err := c.ImportEnergy(ctx, writeTempFile(t, "mix.xlsx", "mix"), map[string]string{"country": "Senegal", "note": ""})
	require.NoError(t, err)
	require.EqualValues(t, 12, summary["rows"])

	_, err = c.ImportSites(ctx, filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
}
