// Package notion talks to the Notion REST API so users can mirror their
// vocabulary into a database of their own.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.notion.com/v1"
	apiVersion     = "2022-06-28"
)

// APIError is a non-2xx answer from Notion
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion: %s (%d): %s", e.Code, e.Status, e.Message)
}

// Client is an integration-token API client. Tokens are per user, so one
// client is built per user rather than shared.
type Client struct {
	token   string
	baseURL string
	client  *http.Client
}

func NewClient(token string, timeout time.Duration) *Client {
	return &Client{
		token:   token,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("notion: failed to marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("notion: failed to create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("notion: request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr APIError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
			apiErr.Message = "unreadable error body"
		}
		apiErr.Status = resp.StatusCode
		return &apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("notion: failed to decode response: %v", err)
		}
	}
	return nil
}

// Database is the subset of the database object the sync needs
type Database struct {
	ID         string                    `json:"id"`
	Properties map[string]DatabaseColumn `json:"properties"`
}

// DatabaseColumn describes one property of a database schema. Type is the
// Notion property type, e.g. "title", "rich_text", "select".
type DatabaseColumn struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// GetDatabase fetches a database's schema
func (c *Client) GetDatabase(ctx context.Context, databaseID string) (*Database, error) {
	var db Database
	if err := c.do(ctx, http.MethodGet, "/databases/"+databaseID, nil, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

type richTextSpan struct {
	Text struct {
		Content string `json:"content"`
	} `json:"text"`
}

func spans(text string) []richTextSpan {
	var span richTextSpan
	span.Text.Content = text
	return []richTextSpan{span}
}

// PropertyValue is one page property in Notion's tagged wire shape. Only
// the field for the property's type is set.
type PropertyValue struct {
	Title    []richTextSpan `json:"title,omitempty"`
	RichText []richTextSpan `json:"rich_text,omitempty"`
	Select   *selectValue   `json:"select,omitempty"`
	Date     *dateValue     `json:"date,omitempty"`
	Checkbox *bool          `json:"checkbox,omitempty"`
}

type selectValue struct {
	Name string `json:"name"`
}

type dateValue struct {
	Start string `json:"start"`
}

func Title(text string) PropertyValue    { return PropertyValue{Title: spans(text)} }
func RichText(text string) PropertyValue { return PropertyValue{RichText: spans(text)} }
func Select(name string) PropertyValue   { return PropertyValue{Select: &selectValue{Name: name}} }
func Date(t time.Time) PropertyValue {
	return PropertyValue{Date: &dateValue{Start: t.Format("2006-01-02")}}
}
func Checkbox(v bool) PropertyValue { return PropertyValue{Checkbox: &v} }

type createPageRequest struct {
	Parent     map[string]string        `json:"parent"`
	Properties map[string]PropertyValue `json:"properties"`
}

// CreatePage adds a page (one row) to a database
func (c *Client) CreatePage(ctx context.Context, databaseID string, properties map[string]PropertyValue) error {
	req := createPageRequest{
		Parent:     map[string]string{"database_id": databaseID},
		Properties: properties,
	}
	return c.do(ctx, http.MethodPost, "/pages", req, nil)
}

// ColumnSpec declares one property when creating a database
type ColumnSpec struct {
	Title    *struct{} `json:"title,omitempty"`
	RichText *struct{} `json:"rich_text,omitempty"`
	Select   *struct{} `json:"select,omitempty"`
	Date     *struct{} `json:"date,omitempty"`
	Checkbox *struct{} `json:"checkbox,omitempty"`
}

type createDatabaseRequest struct {
	Parent     map[string]string     `json:"parent"`
	Title      []richTextSpan        `json:"title"`
	Properties map[string]ColumnSpec `json:"properties"`
}

// CreateDatabase creates a database under a page the integration can see
func (c *Client) CreateDatabase(ctx context.Context, parentPageID, title string, properties map[string]ColumnSpec) (*Database, error) {
	req := createDatabaseRequest{
		Parent:     map[string]string{"page_id": parentPageID},
		Title:      spans(title),
		Properties: properties,
	}
	var db Database
	if err := c.do(ctx, http.MethodPost, "/databases", req, &db); err != nil {
		return nil, err
	}
	return &db, nil
}
