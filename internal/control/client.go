package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrDaemonUnreachable means no daemon answered on the control address.
var ErrDaemonUnreachable = errors.New("control: daemon unreachable")

type Client struct {
	base string
	http *http.Client
}

func NewClient(addr string) *Client {
	base := addr
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", http.StatusOK, nil)
}

func (c *Client) Scan(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/v1/scan", http.StatusAccepted, nil)
}

func (c *Client) Alarms(ctx context.Context) ([]int64, error) {
	var resp AlarmsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/alarms", http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return resp.Alarms, nil
}

func (c *Client) Dismiss(ctx context.Context, taskID int64) (bool, error) {
	var resp DismissResponse
	path := "/v1/alarms/" + strconv.FormatInt(taskID, 10) + "/dismiss"
	if err := c.do(ctx, http.MethodPost, path, http.StatusOK, &resp); err != nil {
		return false, err
	}
	return resp.Dismissed, nil
}

func (c *Client) do(ctx context.Context, method, path string, want int, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, nil)
	if err != nil {
		return err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDaemonUnreachable, err)
	}
	defer res.Body.Close()

	if res.StatusCode != want {
		var apiErr ErrorResponse
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("control %s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("control %s %s: unexpected status %d", method, path, res.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
