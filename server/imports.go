package server

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/enertrack-console/api"
	"github.com/rs/zerolog/log"
)

const maxUploadSize = 32 << 20

// importRow is one spreadsheet row keyed by lower-cased header.
type importRow map[string]string

func (r importRow) str(key string) string {
	return strings.TrimSpace(r[key])
}

func (r importRow) optStr(key string) *string {
	if v := r.str(key); v != "" {
		return &v
	}
	return nil
}

func (r importRow) int(key string) (int, error) {
	return strconv.Atoi(r.str(key))
}

func (r importRow) optFloat(key string) *float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(r.str(key), ",", "."), 64)
	if err != nil {
		return nil
	}
	return &v
}

// date reads an ISO date, keeping only the date part of a timestamp.
func (r importRow) date(key string) (string, error) {
	v := r.str(key)
	if len(v) > 10 {
		v = v[:10]
	}
	if _, err := time.Parse(api.DateLayout, v); err != nil {
		return "", fmt.Errorf("invalid %s %q", key, r.str(key))
	}
	return v, nil
}

func (r importRow) optDate(key string) *string {
	if v, err := r.date(key); err == nil {
		return &v
	}
	return nil
}

var timestampLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02 15:04", api.DateLayout}

// timestamp reads a date and time and returns it as RFC 3339 in UTC.
func (r importRow) timestamp(key string) (string, error) {
	v := r.str(key)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC().Format(time.RFC3339), nil
		}
	}
	return "", fmt.Errorf("invalid %s %q", key, v)
}

// optDecimal normalises a decimal to the two-place string the backend
// serializes decimals as.
func (r importRow) optDecimal(key string) *string {
	v := r.optFloat(key)
	if v == nil {
		return nil
	}
	s := strconv.FormatFloat(*v, 'f', 2, 64)
	return &s
}

// importSite resolves the row's site_id to a registered site. A site without a
// country takes the row's country column, then defaultCountry.
func (s *Server) importSite(row importRow, defaultCountry string) (api.SiteRef, error) {
	siteID := row.str("site_id")
	if siteID == "" {
		return api.SiteRef{}, fmt.Errorf("site_id is required")
	}
	ref, ok := s.data.siteRef(siteID)
	if !ok {
		return api.SiteRef{}, fmt.Errorf("unknown site %q", siteID)
	}
	if ref.Country == nil {
		name := row.str("country")
		if name == "" {
			name = strings.TrimSpace(defaultCountry)
		}
		if name == "" {
			return api.SiteRef{}, fmt.Errorf("site %s has no country", siteID)
		}
		country := s.data.country(name)
		ref.Country = &country
	}
	return ref, nil
}

// importSummary is what the synchronous import endpoints answer with.
type importSummary struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Errors  []string `json:"errors,omitempty"`
}

func (s *importSummary) record(created bool) {
	if created {
		s.Created++
	} else {
		s.Updated++
	}
}

func (s *importSummary) fail(line int, err error) {
	s.Errors = append(s.Errors, fmt.Sprintf("line %d: %v", line, err))
}

// readUpload reads the CSV sent as the "file" multipart field and returns its
// rows with the uploaded file name. The first record is the header row.
func readUpload(w http.ResponseWriter, r *http.Request) ([]importRow, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, "", fmt.Errorf("invalid multipart form: %w", err)
	}
	f, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("file is required: %w", err)
	}
	defer f.Close()

	rows, err := parseCSV(f)
	if err != nil {
		return nil, "", err
	}
	return rows, header.Filename, nil
}

func parseCSV(src io.Reader) ([]importRow, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header[i], "\uFEFF")))
	}

	var rows []importRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(rows)+2, err)
		}
		row := make(importRow, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

// upload describes the file being imported.
type upload struct {
	r          *http.Request
	filename   string
	importedAt time.Time
}

// importRows answers an upload by applying every row with apply, which
// reports whether it created a row. Failed rows are listed in the summary.
func importRows(kind string, apply func(u upload, row importRow) (bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, filename, err := readUpload(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		u := upload{r: r, filename: filename, importedAt: time.Now().UTC()}
		var summary importSummary
		for i, row := range rows {
			created, err := apply(u, row)
			if err != nil {
				summary.fail(i+2, err)
				continue
			}
			summary.record(created)
		}

		log.Info().Str("file", filename).Str("kind", kind).Int("created", summary.Created).Int("updated", summary.Updated).Int("failed", len(summary.Errors)).Msg("rows imported")
		writeJSON(w, http.StatusOK, summary)
	}
}
