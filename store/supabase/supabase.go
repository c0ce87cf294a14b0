// Package supabase implements store.Sink against a Supabase project through
// its PostgREST endpoint. The project key is injected by the caller.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/pathway/store"
)

// Config holds the endpoint and credentials of one project.
type Config struct {
	URL     string
	Key     string
	Timeout time.Duration
	Client  *http.Client
}

// Sink talks to the /rest/v1 API.
type Sink struct {
	base   *url.URL
	key    string
	client *http.Client
}

// New validates cfg and returns a Sink.
func New(cfg Config) (*Sink, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("supabase url is required")
	}
	if strings.TrimSpace(cfg.Key) == "" {
		return nil, fmt.Errorf("supabase key is required")
	}
	u, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse supabase url: %w", err)
	}
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Sink{base: u, key: cfg.Key, client: client}, nil
}

func (s *Sink) endpoint(table string) string {
	return s.base.JoinPath("rest", "v1", table).String()
}

func (s *Sink) newRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", s.key)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Insert posts one row.
func (s *Sink) Insert(ctx context.Context, table string, rec store.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", table, err)
	}
	req, err := s.newRequest(ctx, http.MethodPost, s.endpoint(table), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "return=minimal")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// Query reads rows matching f.
func (s *Sink) Query(ctx context.Context, table string, f store.Filter) ([]store.Record, error) {
	q := url.Values{}
	q.Set("select", "*")
	cols := make([]string, 0, len(f.Eq))
	for c := range f.Eq {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	for _, c := range cols {
		q.Set(c, "eq."+fmt.Sprint(f.Eq[c]))
	}
	if f.OrderBy != "" {
		dir := "asc"
		if f.Desc {
			dir = "desc"
		}
		q.Set("order", f.OrderBy+"."+dir)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}

	req, err := s.newRequest(ctx, http.MethodGet, s.endpoint(table)+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var recs []store.Record
	if err := json.NewDecoder(resp.Body).Decode(&recs); err != nil {
		return nil, fmt.Errorf("decode %s rows: %w", table, err)
	}
	return recs, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("supabase status %d: %s", resp.StatusCode, msg)
}
