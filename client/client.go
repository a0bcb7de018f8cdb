// Package client talks to the StandupX REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/nikhilsahni7/StandupX/models"
	"github.com/nikhilsahni7/StandupX/ordering"
	"github.com/nikhilsahni7/StandupX/question"
	"github.com/nikhilsahni7/StandupX/response"
	"github.com/nikhilsahni7/StandupX/templates"
)

var _ ordering.Store = (*Client)(nil)

// TransportError is a non-2xx answer from the server.
type TransportError struct {
	StatusCode int
	Message    string
}

func (e *TransportError) Error() string {
	return e.Message
}

// Client keeps the session cookie between calls, so Login must succeed before
// any authenticated call.
type Client struct {
	base string
	http *http.Client
}

// New returns a client for the server at base, e.g. http://localhost:8080.
func New(base string) (*Client, error) {
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Jar: jar, Timeout: 30 * time.Second},
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return transportError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func transportError(status int, body []byte) *TransportError {
	var payload struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Detail != "" {
		return &TransportError{StatusCode: status, Message: payload.Detail}
	}
	return &TransportError{StatusCode: status, Message: fmt.Sprintf("request failed: %d", status)}
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var u models.User
	err := c.do(ctx, http.MethodPost, "/login", map[string]string{"email": email, "password": password}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, nil)
}

func (c *Client) GetCeremony(ctx context.Context, id uint) (*models.Ceremony, error) {
	var cer models.Ceremony
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/ceremonies/%d", id), nil, &cer); err != nil {
		return nil, err
	}
	return &cer, nil
}

func (c *Client) ListCeremonyQuestions(ctx context.Context, ceremonyID uint) ([]models.CeremonyQuestion, error) {
	var rows []models.CeremonyQuestion
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/ceremonies/%d/questions", ceremonyID), nil, &rows)
	return rows, err
}

// InsertCeremonyQuestion attaches cq. The server shifts the rows after it.
func (c *Client) InsertCeremonyQuestion(ctx context.Context, cq *models.CeremonyQuestion) error {
	in := map[string]any{
		"question_id": cq.QuestionID,
		"order_index": cq.OrderIndex,
		"is_required": cq.IsRequired,
	}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/ceremonies/%d/questions", cq.CeremonyID), in, cq)
}

func (c *Client) UpdateCeremonyQuestion(ctx context.Context, cq *models.CeremonyQuestion) error {
	path := fmt.Sprintf("/ceremonies/%d/questions/%d", cq.CeremonyID, cq.QuestionID)
	return c.do(ctx, http.MethodPut, path, map[string]any{"is_required": cq.IsRequired}, nil)
}

// RemoveCeremonyQuestion detaches the question. The server closes the gap.
func (c *Client) RemoveCeremonyQuestion(ctx context.Context, ceremonyID, questionID uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/ceremonies/%d/questions/%d", ceremonyID, questionID), nil, nil)
}

// ReorderCeremonyQuestions sends a full reorder. The server ranks the
// questions by OrderIndex, so orders must name every attached question.
func (c *Client) ReorderCeremonyQuestions(ctx context.Context, ceremonyID uint, orders []models.QuestionOrder) error {
	path := fmt.Sprintf("/ceremonies/%d/questions/reorder", ceremonyID)
	return c.do(ctx, http.MethodPatch, path, map[string]any{"question_orders": orders}, nil)
}

func (c *Client) CreateQuestion(ctx context.Context, q *models.Question) error {
	return c.do(ctx, http.MethodPost, "/questions/", q, q)
}

// ListQuestions returns the catalog filtered server side.
func (c *Client) ListQuestions(ctx context.Context, f question.Filter) ([]models.Question, error) {
	query := url.Values{}
	if f.Query != "" {
		query.Set("search", f.Query)
	}
	if f.Type != "" {
		query.Set("type", string(f.Type))
	}
	if len(f.ExcludeIDs) > 0 {
		ids := make([]string, 0, len(f.ExcludeIDs))
		for _, id := range f.ExcludeIDs {
			ids = append(ids, fmt.Sprint(id))
		}
		query.Set("exclude", strings.Join(ids, ","))
	}
	path := "/questions/"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var questions []models.Question
	err := c.do(ctx, http.MethodGet, path, nil, &questions)
	return questions, err
}

func (c *Client) Templates(ctx context.Context) ([]templates.Template, error) {
	var out struct {
		Templates []templates.Template `json:"templates"`
	}
	err := c.do(ctx, http.MethodGet, "/templates", nil, &out)
	return out.Templates, err
}

// ApplyTemplates expands the named templates into the ceremony on the server.
func (c *Client) ApplyTemplates(ctx context.Context, ceremonyID uint, ids []string, start int, allRequired bool) (ordering.BulkResult, error) {
	var res ordering.BulkResult
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/ceremonies/%d/templates", ceremonyID), map[string]any{
		"template_ids": ids,
		"start_index":  start,
		"all_required": allRequired,
	}, &res)
	return res, err
}

func (c *Client) Submit(ctx context.Context, sub *response.Submission) (*models.CeremonyResponse, error) {
	var resp models.CeremonyResponse
	if err := c.do(ctx, http.MethodPost, "/responses/", sub, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SaveDraft(ctx context.Context, sub *response.Submission) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/ceremonies/%d/draft", sub.CeremonyID), sub, nil)
}
