package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultBaseURL is the spreadsheet values API base path.
	DefaultBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

	// valueInputUserEntered asks the API to parse written values the way a
	// human-entered value would be ("1234" becomes a number, "2025-01-01"
	// becomes a date).
	valueInputUserEntered = "USER_ENTERED"
)

// TokenSource provides a valid bearer token for outgoing requests.
// *satoken.Broker satisfies this.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// Client issues authenticated calls against a remote spreadsheet resource.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenSource
}

// NewClient creates a spreadsheet client with the default endpoint and a
// bounded-timeout HTTP client.
func NewClient(tokens TokenSource) *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Tokens:     tokens,
	}
}

// ValueRange mirrors the API's values resource. Values may be absent when
// the requested range is empty.
type ValueRange struct {
	Range          string  `json:"range,omitempty"`
	MajorDimension string  `json:"majorDimension,omitempty"`
	Values         [][]any `json:"values,omitempty"`
}

// UpdateResult describes the outcome of an update call.
type UpdateResult struct {
	SpreadsheetID  string `json:"spreadsheetId"`
	UpdatedRange   string `json:"updatedRange"`
	UpdatedRows    int    `json:"updatedRows"`
	UpdatedColumns int    `json:"updatedColumns"`
	UpdatedCells   int    `json:"updatedCells"`
}

// AppendResult describes the outcome of an append call.
type AppendResult struct {
	SpreadsheetID string        `json:"spreadsheetId"`
	TableRange    string        `json:"tableRange,omitempty"`
	Updates       *UpdateResult `json:"updates,omitempty"`
}

// ReadRange fetches the cell values of a range.
func (c *Client) ReadRange(ctx context.Context, spreadsheetID, rangeExpr string) (*ValueRange, error) {
	if err := validateRef(spreadsheetID, rangeExpr); err != nil {
		return nil, err
	}

	var out ValueRange
	u := c.valuesURL(spreadsheetID, rangeExpr, "", nil)
	if err := c.do(ctx, http.MethodGet, u, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AppendRows appends rows after the last row of data in the range's table,
// with USER_ENTERED input interpretation.
func (c *Client) AppendRows(ctx context.Context, spreadsheetID, rangeExpr string, rows [][]any) (*AppendResult, error) {
	if err := validateRef(spreadsheetID, rangeExpr); err != nil {
		return nil, err
	}
	if err := validateRows(rows); err != nil {
		return nil, err
	}

	u := c.valuesURL(spreadsheetID, rangeExpr, ":append", url.Values{
		"valueInputOption": {valueInputUserEntered},
	})

	var out AppendResult
	if err := c.do(ctx, http.MethodPost, u, &ValueRange{Values: rows}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRange overwrites the exact range with the given rows, with
// USER_ENTERED input interpretation.
func (c *Client) UpdateRange(ctx context.Context, spreadsheetID, rangeExpr string, rows [][]any) (*UpdateResult, error) {
	if err := validateRef(spreadsheetID, rangeExpr); err != nil {
		return nil, err
	}
	if err := validateRows(rows); err != nil {
		return nil, err
	}

	u := c.valuesURL(spreadsheetID, rangeExpr, "", url.Values{
		"valueInputOption": {valueInputUserEntered},
	})

	var out UpdateResult
	if err := c.do(ctx, http.MethodPut, u, &ValueRange{Values: rows}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func validateRef(spreadsheetID, rangeExpr string) error {
	if spreadsheetID == "" {
		return &ValidationError{Message: "spreadsheet id is required"}
	}
	if rangeExpr == "" {
		return &ValidationError{Message: "range is required"}
	}
	return nil
}

// validateRows rejects anything that isn't a non-empty list of rows. The
// check runs before the access token is fetched so a bad payload never
// causes network traffic.
func validateRows(rows [][]any) error {
	if len(rows) == 0 {
		return &ValidationError{Message: "rows must be a non-empty list of row lists"}
	}
	for _, row := range rows {
		if row == nil {
			return &ValidationError{Message: "rows must be a non-empty list of row lists"}
		}
	}
	return nil
}

// valuesURL builds the percent-encoded URL for a range's values resource.
func (c *Client) valuesURL(spreadsheetID, rangeExpr, verb string, query url.Values) string {
	u := c.BaseURL + "/" + url.PathEscape(spreadsheetID) + "/values/" + url.PathEscape(rangeExpr) + verb
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do performs one authenticated request/response cycle.
func (c *Client) do(ctx context.Context, method, u string, payload, out any) error {
	token, err := c.Tokens.AccessToken(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return &ValidationError{Message: "rows are not encodable: " + err.Error()}
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return &RemoteServiceError{Message: err.Error(), Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &RemoteServiceError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RemoteServiceError{StatusCode: resp.StatusCode, Message: err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RemoteServiceError{
			StatusCode: resp.StatusCode,
			Message:    remoteFailureMessage(raw),
			Body:       string(raw),
		}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &MalformedResponseError{StatusCode: resp.StatusCode, Raw: string(raw), Err: err}
	}

	return nil
}

// remoteFailureMessage extracts the API's error message when the body
// follows the standard {"error": {"message": ...}} shape.
func remoteFailureMessage(body []byte) string {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	return string(body)
}
