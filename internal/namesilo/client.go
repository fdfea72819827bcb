package namesilo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ipsync/internal/config"
)

// CodeSuccess is the reply code Namesilo uses for a successful operation.
const CodeSuccess = 300

// ResourceRecord is a DNS record as returned by dnsListRecords.
type ResourceRecord struct {
	RecordID string `json:"record_id"`
	Type     string `json:"type"`
	Host     string `json:"host"`
	Value    string `json:"value"`
	TTL      string `json:"ttl"`
}

// ReplyError is returned when Namesilo answers with a non-success code.
type ReplyError struct {
	Op     string
	Code   int
	Detail string
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("namesilo %s failed: %s (code %d)", e.Op, e.Detail, e.Code)
}

// Client talks to the Namesilo API for one domain and record host.
type Client struct {
	baseURL string
	key     string
	domain  string
	rrhost  string
	rrttl   string
	client  *http.Client
	timeout time.Duration
}

// New creates a Client from NamesiloConfig.
func New(cfg config.NamesiloConfig) (*Client, error) {
	base := strings.TrimRight(cfg.URL, "/")
	if base == "" {
		return nil, fmt.Errorf("namesilo.url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid namesilo.url: %w", err)
	}

	timeoutMs := cfg.TimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = 10000
	}

	return &Client{
		baseURL: base,
		key:     cfg.Key,
		domain:  cfg.Domain,
		rrhost:  cfg.RRHost,
		rrttl:   cfg.RRTTL,
		client:  &http.Client{Timeout: time.Duration(timeoutMs) * time.Millisecond},
		timeout: time.Duration(timeoutMs) * time.Millisecond,
	}, nil
}

// Domain returns the domain the client manages.
func (c *Client) Domain() string { return c.domain }

// RRHost returns the record host (e.g. "www", "@" or empty).
func (c *Client) RRHost() string { return c.rrhost }

// replyCode accepts the code either as a JSON number or a string.
type replyCode int

func (r *replyCode) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	var n int
	if _, err := fmt.Sscanf(string(b), "%d", &n); err != nil {
		return fmt.Errorf("invalid reply code %q", string(b))
	}
	*r = replyCode(n)
	return nil
}

type listReply struct {
	Reply struct {
		Code           replyCode        `json:"code"`
		Detail         string           `json:"detail"`
		ResourceRecord []ResourceRecord `json:"resource_record"`
	} `json:"reply"`
}

type updateReply struct {
	Reply struct {
		Code     replyCode `json:"code"`
		Detail   string    `json:"detail"`
		RecordID string    `json:"record_id"`
	} `json:"reply"`
}

// ListRecords returns every DNS record of the configured domain.
func (c *Client) ListRecords(ctx context.Context) ([]ResourceRecord, error) {
	values := c.baseValues()

	var payload listReply
	if err := c.get(ctx, "/api/dnsListRecords", values, &payload); err != nil {
		return nil, fmt.Errorf("list DNS records: %w", err)
	}
	if int(payload.Reply.Code) != CodeSuccess {
		return nil, &ReplyError{Op: "dnsListRecords", Code: int(payload.Reply.Code), Detail: payload.Reply.Detail}
	}

	return payload.Reply.ResourceRecord, nil
}

// UpdateRecord points the record identified by recordID at value, keeping
// the configured host and TTL.
func (c *Client) UpdateRecord(ctx context.Context, recordID, value string) error {
	values := c.baseValues()
	values.Set("rrid", recordID)
	values.Set("rrhost", c.rrhost)
	values.Set("rrvalue", value)
	values.Set("rrttl", c.rrttl)

	var payload updateReply
	if err := c.get(ctx, "/api/dnsUpdateRecord", values, &payload); err != nil {
		return fmt.Errorf("update DNS record: %w", err)
	}
	if int(payload.Reply.Code) != CodeSuccess {
		return &ReplyError{Op: "dnsUpdateRecord", Code: int(payload.Reply.Code), Detail: payload.Reply.Detail}
	}

	return nil
}

func (c *Client) baseValues() url.Values {
	values := url.Values{}
	values.Set("version", "1")
	values.Set("type", "json")
	values.Set("key", c.key)
	values.Set("domain", c.domain)
	return values
}

func (c *Client) get(ctx context.Context, path string, values url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + path + "?" + values.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// the URL carries the API key; keep it out of the error
		if uerr, ok := err.(*url.Error); ok {
			return fmt.Errorf("%s %s: %w", uerr.Op, c.baseURL+path, uerr.Err)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
