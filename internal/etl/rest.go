package etl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/BartekS5/xfer/pkg/models"
)

// APIError is the error body PostgREST returns for rejected requests.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("postgrest %d", e.Status)
	if e.Code != "" {
		msg += " " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

// RESTStore speaks the PostgREST dialect served by Supabase at /rest/v1.
// The credential is an API key (anon or service role) sent both as the
// apikey header and as a bearer token.
type RESTStore struct {
	BaseURL string
	APIKey  string
	// IDColumn is used to build the filter PostgREST requires for a
	// table-wide DELETE.
	IDColumn string
	Client   *http.Client
}

func NewRESTStore(rawURL, apiKey string, timeout time.Duration) *RESTStore {
	base := strings.TrimRight(rawURL, "/")
	if !strings.HasSuffix(base, "/rest/v1") {
		base += "/rest/v1"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RESTStore{
		BaseURL:  base,
		APIKey:   apiKey,
		IDColumn: "id",
		Client:   &http.Client{Timeout: timeout},
	}
}

func (s *RESTStore) Read(ctx context.Context, q Query) ([]models.Record, error) {
	params := url.Values{"select": {"*"}}
	if q.OrderBy != "" {
		params.Set("order", q.OrderBy+".asc")
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		params.Set("offset", strconv.Itoa(q.Offset))
	}

	resp, err := s.do(ctx, http.MethodGet, q.Table, params, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var rows []models.Record
	if err := decodeJSON(resp.Body, &rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return rows, nil
}

func (s *RESTStore) Insert(ctx context.Context, table string, rows []models.Record) (int, error) {
	return s.post(ctx, table, nil, "return=representation", rows)
}

func (s *RESTStore) Upsert(ctx context.Context, table, conflictKey string, rows []models.Record) (int, error) {
	params := url.Values{"on_conflict": {conflictKey}}
	return s.post(ctx, table, params, "resolution=merge-duplicates,return=representation", rows)
}

func (s *RESTStore) post(ctx context.Context, table string, params url.Values, prefer string, rows []models.Record) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if params == nil {
		params = url.Values{}
	}
	// Bulk inserts need every object to carry the same keys.
	params.Set("columns", strings.Join(columnsOf(rows), ","))

	body, err := json.Marshal(rows)
	if err != nil {
		return 0, fmt.Errorf("encode batch: %w", err)
	}
	resp, err := s.do(ctx, http.MethodPost, table, params, http.Header{"Prefer": {prefer}}, body)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var written []json.RawMessage
	if err := decodeJSON(resp.Body, &written); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	return len(written), nil
}

// Count asks for an exact count without transferring rows.
func (s *RESTStore) Count(ctx context.Context, table string) (int64, error) {
	resp, err := s.do(ctx, http.MethodHead, table, url.Values{"select": {"*"}},
		http.Header{"Prefer": {"count=exact"}}, nil)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return parseContentRange(resp.Header.Get("Content-Range"))
}

func (s *RESTStore) DeleteAll(ctx context.Context, table string) (int64, error) {
	params := url.Values{s.IDColumn: {"not.is.null"}}
	resp, err := s.do(ctx, http.MethodDelete, table, params,
		http.Header{"Prefer": {"return=minimal,count=exact"}}, nil)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return parseContentRange(resp.Header.Get("Content-Range"))
}

func (s *RESTStore) Close(context.Context) error {
	s.Client.CloseIdleConnections()
	return nil
}

func (s *RESTStore) do(ctx context.Context, method, table string, params url.Values, header http.Header, body []byte) (*http.Response, error) {
	target := s.BaseURL + "/" + url.PathEscape(table)
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.APIKey != "" {
		req.Header.Set("apikey", s.APIKey)
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		apiErr := &APIError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return nil, apiErr
	}
	return resp, nil
}

// parseContentRange reads the total from "0-24/73" or "*/73".
func parseContentRange(h string) (int64, error) {
	i := strings.LastIndexByte(h, '/')
	if i < 0 {
		return 0, fmt.Errorf("missing count in Content-Range %q", h)
	}
	total := h[i+1:]
	if total == "*" {
		return 0, fmt.Errorf("server did not report a count: %q", h)
	}
	return strconv.ParseInt(total, 10, 64)
}

func decodeJSON(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return dec.Decode(v)
}
