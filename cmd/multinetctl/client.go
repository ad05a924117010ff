package main

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
)

// apiError mirrors the error body rendered by the server
type apiError struct {
	Status  int                    `json:"-"`
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details"`
}

func (e *apiError) Error() string {
	msg := fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
	if violations, ok := e.Details["errors"].([]interface{}); ok {
		for _, v := range violations {
			msg += fmt.Sprintf("\n  - %v", v)
		}
	}
	return msg
}

// client talks to a multinet server over HTTP
type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func newClient(server, token string, timeout time.Duration) *client {
	return &client{
		baseURL: strings.TrimRight(server, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// do sends a request and decodes a JSON response into out when out is non-nil
func (c *client) do(ctx context.Context, method, path, contentType string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &apiError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func workspacePath(workspace string, parts ...string) string {
	path := "/api/workspaces/" + url.PathEscape(workspace)
	for _, p := range parts {
		path += "/" + url.PathEscape(p)
	}
	return path
}

func (c *client) createWorkspace(ctx context.Context, workspace string) (interface{}, error) {
	var out interface{}
	err := c.do(ctx, http.MethodPost, workspacePath(workspace), "", nil, &out)
	return out, err
}

func (c *client) deleteWorkspace(ctx context.Context, workspace string) (interface{}, error) {
	var out interface{}
	err := c.do(ctx, http.MethodDelete, workspacePath(workspace), "", nil, &out)
	return out, err
}

func (c *client) listWorkspaces(ctx context.Context) ([]string, error) {
	var out []string
	err := c.do(ctx, http.MethodGet, "/api/workspaces", "", nil, &out)
	return out, err
}

func (c *client) listTables(ctx context.Context, workspace, tableType string) ([]string, error) {
	path := workspacePath(workspace, "tables")
	if tableType != "" {
		path += "?type=" + url.QueryEscape(tableType)
	}
	var out []string
	err := c.do(ctx, http.MethodGet, path, "", nil, &out)
	return out, err
}

func (c *client) listGraphs(ctx context.Context, workspace string) ([]string, error) {
	var out []string
	err := c.do(ctx, http.MethodGet, workspacePath(workspace, "graphs"), "", nil, &out)
	return out, err
}

func (c *client) upload(ctx context.Context, kind, workspace, table, contentType string, data []byte) (interface{}, error) {
	path := fmt.Sprintf("/api/%s/%s/%s", kind, url.PathEscape(workspace), url.PathEscape(table))
	var out interface{}
	err := c.do(ctx, http.MethodPost, path, contentType, bytes.NewReader(data), &out)
	return out, err
}

func (c *client) createGraph(ctx context.Context, workspace, graph string, nodeTables []string, edgeTable string) (interface{}, error) {
	body, err := json.Marshal(map[string]interface{}{
		"node_tables": nodeTables,
		"edge_table":  edgeTable,
	})
	if err != nil {
		return nil, err
	}
	var out interface{}
	err = c.do(ctx, http.MethodPost, workspacePath(workspace, "graph", graph), "application/json", bytes.NewReader(body), &out)
	return out, err
}
