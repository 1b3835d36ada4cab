package devrecords

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client fetches billable time entries from the devRecords API. Numeric
// fields come back string-typed; parsing is the normalizer's job, not ours.
type Client struct {
	BaseURL string
	Token   string
	OrgID   string
	HTTP    *http.Client
}

func NewClient(baseURL, token, orgID string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		OrgID:   orgID,
		HTTP:    &http.Client{Timeout: 20 * time.Second},
	}
}

func (c *Client) doRequest(ctx context.Context, method, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("devrecords api error %d: %s", res.StatusCode, string(body))
	}
	return body, nil
}

// FetchEntries pulls every billable entry in the inclusive range, paginated.
// Rows are returned raw; upstream schema keys are resolved by the field map.
func (c *Client) FetchEntries(ctx context.Context, start, end time.Time) ([]map[string]interface{}, error) {
	if strings.TrimSpace(c.OrgID) == "" {
		return nil, errors.New("devrecords org id not configured")
	}

	var out []map[string]interface{}
	page := 0
	for {
		url := fmt.Sprintf("%s/api/v1/orgs/%s/entries?start=%s&end=%s&page=%d",
			c.BaseURL, c.OrgID, start.Format("2006-01-02"), end.Format("2006-01-02"), page)
		b, err := c.doRequest(ctx, "GET", url)
		if err != nil {
			return nil, err
		}
		var data struct {
			Entries []map[string]interface{} `json:"entries"`
		}
		if err := json.Unmarshal(b, &data); err != nil {
			return nil, err
		}
		if len(data.Entries) == 0 {
			break
		}
		out = append(out, data.Entries...)
		page++
	}
	return out, nil
}
