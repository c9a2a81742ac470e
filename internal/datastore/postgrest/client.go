// Package postgrest talks to the Supabase REST interface (PostgREST) of the expenses database.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"expense-api/internal/datastore"
	"expense-api/internal/models"

	"github.com/sirupsen/logrus"
)

// filterTimeLayout renders range bounds the way the query builder of supabase-js does
const filterTimeLayout = "2006-01-02T15:04:05"

// maxErrorBody bounds how much of an error answer is read
const maxErrorBody = 64 * 1024

// Config holds the connection settings of the REST endpoint
type Config struct {
	URL        string
	AnonKey    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

// Connector creates request-scoped REST clients sharing one transport
type Connector struct {
	restURL    string
	anonKey    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewConnector creates a new PostgREST connector
func NewConnector(cfg Config) (*Connector, error) {
	base, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid store URL %q", cfg.URL)
	}
	if cfg.AnonKey == "" {
		return nil, fmt.Errorf("store anon key is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
	}

	return &Connector{
		restURL:    base.String() + "/rest/v1",
		anonKey:    cfg.AnonKey,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Connect returns a client acting with the forwarded Authorization header.
// Without one the anon key is used as bearer, as supabase-js does.
func (c *Connector) Connect(ctx context.Context, authorization string) (datastore.Client, error) {
	if strings.TrimSpace(authorization) == "" {
		authorization = "Bearer " + c.anonKey
	}
	return &Client{
		connector:     c,
		authorization: authorization,
	}, nil
}

// Close releases idle connections
func (c *Connector) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Client is a PostgREST client scoped to one set of credentials
type Client struct {
	connector     *Connector
	authorization string
}

// Insert writes one expense with POST /rest/v1/{table}
func (c *Client) Insert(ctx context.Context, table string, expense *models.Expense) error {
	body, err := json.Marshal(expense)
	if err != nil {
		return datastore.NewStoreError("insert", table, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, table, nil, bytes.NewReader(body))
	if err != nil {
		return datastore.NewStoreError("insert", table, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.do(req, "insert", table)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}

// Select reads rows with GET /rest/v1/{table}?select=*&col=gte.from&col=lte.to
func (c *Client) Select(ctx context.Context, table string, filter datastore.RangeFilter) ([]models.Expense, error) {
	if filter.Column == "" {
		return nil, datastore.NewStoreError("select", table, datastore.ErrUnsupported)
	}

	query := url.Values{}
	query.Set("select", "*")
	query.Add(filter.Column, "gte."+filter.From.UTC().Format(filterTimeLayout))
	query.Add(filter.Column, "lte."+filter.To.UTC().Format(filterTimeLayout))

	req, err := c.newRequest(ctx, http.MethodGet, table, query, nil)
	if err != nil {
		return nil, datastore.NewStoreError("select", table, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req, "select", table)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	expenses := []models.Expense{}
	if err := json.NewDecoder(resp.Body).Decode(&expenses); err != nil {
		return nil, datastore.NewStoreError("select", table, fmt.Errorf("%w: decode rows: %v", datastore.ErrUnavailable, err))
	}

	return expenses, nil
}

func (c *Client) newRequest(ctx context.Context, method, table string, query url.Values, body io.Reader) (*http.Request, error) {
	endpoint := c.connector.restURL + "/" + url.PathEscape(table)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.connector.anonKey)
	req.Header.Set("Authorization", c.authorization)
	req.Header.Set("X-Client-Info", "expense-api")

	return req, nil
}

// do sends the request and turns transport failures and non-2xx answers into StoreErrors
func (c *Client) do(req *http.Request, op, table string) (*http.Response, error) {
	start := time.Now()
	resp, err := c.connector.httpClient.Do(req)
	duration := time.Since(start)

	fields := logrus.Fields{
		"operation": op,
		"table":     table,
		"method":    req.Method,
		"duration":  duration,
	}

	if err != nil {
		fields["error"] = err.Error()
		c.connector.logger.WithFields(fields).Error("Store request failed")
		return nil, datastore.NewStoreError(op, table, fmt.Errorf("%w: %v", datastore.ErrUnavailable, err))
	}

	fields["status_code"] = resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.connector.logger.WithFields(fields).Debug("Store request executed")
		return resp, nil
	}

	defer resp.Body.Close()
	storeErr := decodeError(resp, op, table)
	fields["error"] = storeErr.Error()
	c.connector.logger.WithFields(fields).Warn("Store rejected request")

	return nil, storeErr
}

// apiError is the error document PostgREST answers with
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func decodeError(resp *http.Response, op, table string) *datastore.StoreError {
	storeErr := datastore.NewStoreError(op, table, classifyStatus(resp.StatusCode))
	storeErr.Status = resp.StatusCode

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var doc apiError
	if err := json.Unmarshal(raw, &doc); err == nil && (doc.Message != "" || doc.Code != "") {
		storeErr.Code = doc.Code
		storeErr.Detail = doc.Message
		if doc.Details != "" {
			storeErr.Detail += " (" + doc.Details + ")"
		}
	} else if len(raw) > 0 {
		storeErr.Detail = strings.TrimSpace(string(raw))
	}

	return storeErr
}

func classifyStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return datastore.ErrUnauthorized
	case status >= 500:
		return datastore.ErrUnavailable
	default:
		return datastore.ErrRejected
	}
}
