package server_test

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/enertrack-console/api"
	"github.com/jrsteele09/enertrack-console/session"
	"github.com/jrsteele09/enertrack-console/token"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	b := newTestBackend(t)

	pair := b.login(t, "admin", adminPassword)
	require.NotEmpty(t, pair.Refresh)

	identity, err := session.DecodeIdentity(pair.Access)
	require.NoError(t, err)
	require.Equal(t, "admin", identity.Username)
	require.Equal(t, "admin", identity.Role)

	pair = b.login(t, "viewer", viewerPassword)
	identity, err = session.DecodeIdentity(pair.Access)
	require.NoError(t, err)
	require.Equal(t, "viewer", identity.Role)
	require.Equal(t, "Senegal", identity.CountryScope)
}

func TestLogin_Rejected(t *testing.T) {
	b := newTestBackend(t)

	res, _ := b.do(t, http.MethodPost, "/auth/login/", "", map[string]string{"username": "admin", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, _ = b.do(t, http.MethodPost, "/auth/login/", "", map[string]string{"username": "admin"})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestRequireAuth(t *testing.T) {
	b := newTestBackend(t)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing", token: ""},
		{name: "garbage", token: "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, body := b.do(t, http.MethodGet, "/core/sites/", tt.token, nil)
			require.Equal(t, http.StatusUnauthorized, res.StatusCode)
			require.Contains(t, res.Header.Get("WWW-Authenticate"), "Bearer")

			var detail map[string]string
			require.NoError(t, json.Unmarshal([]byte(body), &detail))
			require.Equal(t, "token_not_valid", detail["code"])
		})
	}
}

func TestExpiredAccessTokenRejected(t *testing.T) {
	var skew atomic.Int64
	b := newTestBackend(t,
		token.WithNowFunc(func() time.Time { return time.Now().Add(time.Duration(skew.Load())) }),
		token.WithAccessTokenExpiry(time.Minute),
	)
	pair := b.login(t, "admin", adminPassword)

	res, _ := b.do(t, http.MethodGet, "/core/sites/", pair.Access, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	skew.Store(int64(2 * time.Minute))
	res, _ = b.do(t, http.MethodGet, "/core/sites/", pair.Access, nil)
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestRefresh(t *testing.T) {
	b := newTestBackend(t)
	pair := b.login(t, "admin", adminPassword)

	res, body := b.do(t, http.MethodPost, "/auth/refresh/", "", map[string]string{"refresh": pair.Refresh})
	require.Equal(t, http.StatusOK, res.StatusCode)

	var refreshed token.Pair
	require.NoError(t, json.Unmarshal([]byte(body), &refreshed))
	require.NotEmpty(t, refreshed.Access)
	require.Empty(t, refreshed.Refresh)

	res, body = b.do(t, http.MethodPost, "/auth/refresh/", "", map[string]string{"refresh": "unknown"})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Contains(t, body, "token_not_valid")
}

func TestRefresh_Rotation(t *testing.T) {
	b := newTestBackend(t, token.WithRefreshRotation(true))
	pair := b.login(t, "admin", adminPassword)

	res, body := b.do(t, http.MethodPost, "/auth/refresh/", "", map[string]string{"refresh": pair.Refresh})
	require.Equal(t, http.StatusOK, res.StatusCode)

	var refreshed token.Pair
	require.NoError(t, json.Unmarshal([]byte(body), &refreshed))
	require.NotEmpty(t, refreshed.Refresh)
	require.NotEqual(t, pair.Refresh, refreshed.Refresh)

	res, _ = b.do(t, http.MethodPost, "/auth/refresh/", "", map[string]string{"refresh": pair.Refresh})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestRevoke(t *testing.T) {
	b := newTestBackend(t)
	pair := b.login(t, "admin", adminPassword)

	res, _ := b.do(t, http.MethodPost, "/auth/revoke/", pair.Access, map[string]string{"token": pair.Access, "refresh": pair.Refresh})
	require.Equal(t, http.StatusNoContent, res.StatusCode)

	res, _ = b.do(t, http.MethodGet, "/core/sites/", pair.Access, nil)
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, _ = b.do(t, http.MethodPost, "/auth/refresh/", "", map[string]string{"refresh": pair.Refresh})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestSites_CountryScope(t *testing.T) {
	b := newTestBackend(t)

	var sites []api.Site
	_, body := b.do(t, http.MethodGet, "/core/sites/", b.login(t, "admin", adminPassword).Access, nil)
	require.NoError(t, json.Unmarshal([]byte(body), &sites))
	require.Len(t, sites, 3)

	viewer := b.login(t, "viewer", viewerPassword).Access
	_, body = b.do(t, http.MethodGet, "/core/sites/", viewer, nil)
	require.NoError(t, json.Unmarshal([]byte(body), &sites))
	require.Len(t, sites, 2)
	for _, s := range sites {
		require.Equal(t, "Senegal", s.Country)
	}

	res, _ := b.do(t, http.MethodGet, "/core/sites/3/", viewer, nil)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestSites_CRUD(t *testing.T) {
	b := newTestBackend(t)
	admin := b.login(t, "admin", adminPassword).Access

	zone := "Kaolack"
	res, body := b.do(t, http.MethodPost, "/core/sites/", admin, api.Site{SiteID: "SN-KLK-020", Name: "Kaolack Est", Zone: &zone, Country: "Senegal"})
	require.Equal(t, http.StatusCreated, res.StatusCode, body)

	var created api.Site
	require.NoError(t, json.Unmarshal([]byte(body), &created))
	require.Equal(t, 4, created.ID)

	created.Name = "Kaolack Ouest"
	res, body = b.do(t, http.MethodPut, "/core/sites/4/", admin, created)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var fetched api.Site
	_, body = b.do(t, http.MethodGet, "/core/sites/4/", admin, nil)
	require.NoError(t, json.Unmarshal([]byte(body), &fetched))
	require.Equal(t, "Kaolack Ouest", fetched.Name)
	require.Equal(t, "Kaolack", *fetched.Zone)

	res, _ = b.do(t, http.MethodDelete, "/core/sites/4/", admin, nil)
	require.Equal(t, http.StatusNoContent, res.StatusCode)

	res, _ = b.do(t, http.MethodGet, "/core/sites/4/", admin, nil)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestSites_Validation(t *testing.T) {
	b := newTestBackend(t)
	admin := b.login(t, "admin", adminPassword).Access

	res, body := b.do(t, http.MethodPost, "/core/sites/", admin, api.Site{Name: "No id"})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Contains(t, body, "site_id")
}

func TestAdminRoutes_ForbiddenForViewer(t *testing.T) {
	b := newTestBackend(t)
	viewer := b.login(t, "viewer", viewerPassword).Access

	res, _ := b.do(t, http.MethodPost, "/core/sites/", viewer, api.Site{SiteID: "X", Name: "X", Country: "Senegal"})
	require.Equal(t, http.StatusForbidden, res.StatusCode)

	res, _ = b.do(t, http.MethodDelete, "/core/sites/1/", viewer, nil)
	require.Equal(t, http.StatusForbidden, res.StatusCode)

	res, _ = b.upload(t, "/energy/import/", viewer, "country,year,month\n")
	require.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestEnergy_ListShapes(t *testing.T) {
	b := newTestBackend(t)
	admin := b.login(t, "admin", adminPassword).Access

	_, body := b.do(t, http.MethodGet, "/energy/?year=2025", admin, nil)
	var all []api.EnergyMonthlyStat
	require.NoError(t, json.Unmarshal([]byte(body), &all))
	require.Len(t, all, 6)
	require.Equal(t, 3, all[0].Month)

	_, body = b.do(t, http.MethodGet, "/energy/?page=2&page_size=4", admin, nil)
	var page struct {
		Count   int                     `json:"count"`
		Results []api.EnergyMonthlyStat `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &page))
	require.Equal(t, 6, page.Count)
	require.Len(t, page.Results, 2)

	_, body = b.do(t, http.MethodGet, "/energy/?search=mal", admin, nil)
	require.NoError(t, json.Unmarshal([]byte(body), &all))
	require.Len(t, all, 3)

	res, _ := b.do(t, http.MethodGet, "/energy/?page=9", admin, nil)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestEnergy_ImportAndDelete(t *testing.T) {
	b := newTestBackend(t)
	admin := b.login(t, "admin", adminPassword).Access

	csv := "Country,Year,Month,Grid_MWh,Solar_MWh\n" +
		"Senegal,2025,1,500.5,10\n" +
		"Guinea,2025,4,100,20\n" +
		"Guinea,2025,13,1,1\n"
	res, body := b.upload(t, "/energy/import/", admin, csv)
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var summary struct {
		Created int      `json:"created"`
		Updated int      `json:"updated"`
		Errors  []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &summary))
	require.Equal(t, 1, summary.Created)
	require.Equal(t, 1, summary.Updated)
	require.Len(t, summary.Errors, 1)

	var stats []api.EnergyMonthlyStat
	_, body = b.do(t, http.MethodGet, "/energy/?search=guinea", admin, nil)
	require.NoError(t, json.Unmarshal([]byte(body), &stats))
	require.Len(t, stats, 1)
	require.Equal(t, "upload.csv", *stats[0].SourceFilename)

	res, _ = b.do(t, http.MethodDelete, "/energy/"+stats[0].ID+"/", admin, nil)
	require.Equal(t, http.StatusNoContent, res.StatusCode)
	res, _ = b.do(t, http.MethodDelete, "/energy/"+stats[0].ID+"/", admin, nil)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestInvoices_Between(t *testing.T) {
	b := newTestBackend(t)
	admin := b.login(t, "admin", adminPassword).Access

	var invoices []api.Invoice
	_, body := b.do(t, http.MethodGet, "/invoices/between/?start_date=2025-02-01&end_date=2025-03-31", admin, nil)
	require.NoError(t, json.Unmarshal([]byte(body), &invoices))
	require.Len(t, invoices, 2)
	require.Equal(t, "F-2025-0002", invoices[0].InvoiceNumber)

	res, _ := b.do(t, http.MethodGet, "/invoices/between/?start_date=02-01-2025", admin, nil)
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestInvoices_ImportAsync(t *testing.T) {
	b := newTestBackend(t)
	admin := b.login(t, "admin", adminPassword).Access

	csv := "facture_number,date_facture,montant_ht,site\n" +
		"F-2025-0001,2025-01-31,1300000,1\n" +
		"F-2025-0200,2025-04-30,99.5,2\n"
	res, body := b.upload(t, "/invoices/import_async/", admin, csv)
	require.Equal(t, http.StatusAccepted, res.StatusCode, body)

	var task api.ImportTask
	require.NoError(t, json.Unmarshal([]byte(body), &task))
	require.NotEmpty(t, task.TaskID)

	var status api.ImportStatus
	require.Eventually(t, func() bool {
		_, body := b.do(t, http.MethodGet, "/invoices/import-status/"+task.TaskID+"/", admin, nil)
		if err := json.Unmarshal([]byte(body), &status); err != nil {
			return false
		}
		return status.Status == "SUCCESS"
	}, 2*time.Second, 10*time.Millisecond)
	require.JSONEq(t, `{"created":1,"updated":1}`, string(status.Result))

	res, _ = b.do(t, http.MethodGet, "/invoices/import-status/unknown/", admin, nil)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestGridOutages_Import(t *testing.T) {
	b := newTestBackend(t)
	admin := b.login(t, "admin", adminPassword).Access

	csv := "site_id,date,minutes\nSN-DKR-001,2025-01-01,30\nSN-DKR-001,2025-01-02,0\n,2025-01-03,5\n"
	_, body := b.upload(t, "/grid-outages/daily/import/", admin, csv)
	var first api.ImportResult
	require.NoError(t, json.Unmarshal([]byte(body), &first))
	require.Equal(t, api.ImportResult{Created: 2}, first)

	_, body = b.upload(t, "/grid-outages/daily/import/", admin, csv)
	var second api.ImportResult
	require.NoError(t, json.Unmarshal([]byte(body), &second))
	require.Equal(t, api.ImportResult{Updated: 2}, second)
}

func TestUpload_MissingFile(t *testing.T) {
	b := newTestBackend(t)
	admin := b.login(t, "admin", adminPassword).Access

	res, _ := b.do(t, http.MethodPost, "/core/import/", admin, map[string]string{})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestPreflight(t *testing.T) {
	b := newTestBackend(t)

	res, _ := b.do(t, http.MethodOptions, "/core/sites/", "", nil)
	require.Equal(t, http.StatusNoContent, res.StatusCode)
}

func TestCors(t *testing.T) {
	b := newTestBackend(t)

	send := func(method, origin string) *http.Response {
		req, err := http.NewRequest(method, b.url("/core/sites/"), nil)
		require.NoError(t, err)
		req.Header.Set("Origin", origin)
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		res.Body.Close()
		return res
	}

	t.Run("allowed origin preflight", func(t *testing.T) {
		res := send(http.MethodOptions, "http://localhost:5173")
		require.Equal(t, http.StatusNoContent, res.StatusCode)
		require.Equal(t, "http://localhost:5173", res.Header.Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", res.Header.Get("Access-Control-Allow-Credentials"))
		require.Contains(t, res.Header.Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("unknown origin gets no headers", func(t *testing.T) {
		res := send(http.MethodOptions, "http://evil.example")
		require.Equal(t, http.StatusNoContent, res.StatusCode)
		require.Empty(t, res.Header.Get("Access-Control-Allow-Origin"))
	})

	t.Run("actual request still needs a token", func(t *testing.T) {
		res := send(http.MethodGet, "http://localhost:5173")
		require.Equal(t, http.StatusUnauthorized, res.StatusCode)
		require.Equal(t, "http://localhost:5173", res.Header.Get("Access-Control-Allow-Origin"))
	})
}
