package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/enertrack-console/internal/config"
	"github.com/jrsteele09/enertrack-console/server"
	"github.com/jrsteele09/enertrack-console/token"
	"github.com/jrsteele09/enertrack-console/token/refresh"
	refreshrepofake "github.com/jrsteele09/enertrack-console/token/refresh/repofake"
	fakeuserrepo "github.com/jrsteele09/enertrack-console/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	adminPassword  = "Admin1234"
	viewerPassword = "Viewer1234"
)

type testBackend struct {
	srv    *httptest.Server
	issuer *token.Issuer
}

func (b *testBackend) url(path string) string {
	return b.srv.URL + "/api" + path
}

func newTestBackend(t *testing.T, options ...token.IssuerOption) *testBackend {
	t.Helper()
	return newTestBackendWith(t, nil, options...)
}

func newTestBackendWith(t *testing.T, serverOptions []server.Option, options ...token.IssuerOption) *testBackend {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("MOCK_ADMIN_PASSWORD", adminPassword)
	t.Setenv("MOCK_VIEWER_PASSWORD", viewerPassword)

	cfg := config.New()
	userRepo := fakeuserrepo.NewFakeUserRepo()
	refreshManager := refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), time.Hour)
	issuer := token.NewIssuer(token.NewHMACSigner("test-secret"), userRepo, refreshManager, options...)

	s, err := server.New(cfg, issuer, userRepo, serverOptions...)
	require.NoError(t, err)

	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return &testBackend{srv: srv, issuer: issuer}
}

func (b *testBackend) login(t *testing.T, username, password string) token.Pair {
	t.Helper()
	res, body := b.do(t, http.MethodPost, "/auth/login/", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, res.StatusCode, body)

	var pair token.Pair
	require.NoError(t, json.Unmarshal([]byte(body), &pair))
	return pair
}

// do sends a JSON request, authenticated when accessToken is set, and
// returns the response with its body read.
func (b *testBackend) do(t *testing.T, method, path, accessToken string, in any) (*http.Response, string) {
	t.Helper()

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, b.url(path), body)
	require.NoError(t, err)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return b.send(t, req, accessToken)
}

func (b *testBackend) upload(t *testing.T, path, accessToken, csv string) (*http.Response, string) {
	t.Helper()
	return b.uploadForm(t, path, accessToken, csv, nil)
}

// uploadForm sends csv as upload.csv with the given extra form fields.
func (b *testBackend) uploadForm(t *testing.T, path, accessToken, csv string, fields map[string]string) (*http.Response, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile("file", "upload.csv")
	require.NoError(t, err)
	_, err = io.Copy(part, strings.NewReader(csv))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, b.url(path), &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return b.send(t, req, accessToken)
}

func (b *testBackend) send(t *testing.T, req *http.Request, accessToken string) (*http.Response, string) {
	t.Helper()
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	res, err := b.srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, string(raw)
}

func decodeBody[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v), body)
	return v
}

type importSummary struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Errors  []string `json:"errors"`
}
