package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"printq/internal/config"
)

// daemonClient performs best-effort calls against a running daemon's HTTP
// API. Commands fall back to direct store access when no daemon is listening.
type daemonClient struct {
	base  string
	token string
	http  *http.Client
}

func newDaemonClient(cfg *config.Config) *daemonClient {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}
	return &daemonClient{
		base:  "http://" + bind,
		token: cfg.Paths.APIToken,
		http:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *daemonClient) call(method, path string, out any) error {
	req, err := http.NewRequest(method, c.base+path, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var body struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
			return fmt.Errorf("daemon: %s", body.Error)
		}
		return fmt.Errorf("daemon: %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
