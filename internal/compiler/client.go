/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package compiler is the HTTP client for the VN compiler service. The
// service owns sessions: a session collects a script and assets, compiles
// them, and serves the compiled bundle for download. The service itself is an
// external collaborator; this package only speaks its API.
package compiler

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/KenanMathews/vn-story-editor/internal/config"
	applog "github.com/KenanMathews/vn-story-editor/internal/log"
)

// Client talks to one VN compiler service instance.
type Client struct {
	baseURL string
	token   string
	log     *slog.Logger
	cli     *http.Client
}

// New constructs a client from the compiler section of the app config.
// The token may be empty; it is sent as a bearer token when present.
func New(cfg config.CompilerConfig, token string) *Client {
	httpCli := &http.Client{Timeout: cfg.EffectiveTimeout()}
	if cfg.TLSInsecure {
		httpCli.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   token,
		log:     applog.WithComponent("compiler"),
		cli:     httpCli,
	}
}

// SessionOptions are passed to the service when creating a session.
type SessionOptions struct {
	Title  string `json:"title,omitempty"`
	Minify bool   `json:"minify,omitempty"`
}

// CompileOptions control a compile run within a session.
type CompileOptions struct {
	Minify bool `json:"minify"`
}

// CompileResult is the service's compile response.
type CompileResult struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Warnings int    `json:"warnings,omitempty"`
	OutputKB int    `json:"outputKb,omitempty"`
}

// Health is the service's health probe response.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// CreateSession opens a new compile session and returns its ID.
func (c *Client) CreateSession(ctx context.Context, opts SessionOptions) (string, error) {
	var out struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/session", opts, &out); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	if out.SessionID == "" {
		return "", fmt.Errorf("create session: empty session id in response")
	}
	c.log.Debug("session created", slog.String("session", out.SessionID))
	return out.SessionID, nil
}

// UploadScript sends the story YAML into the session.
func (c *Client) UploadScript(ctx context.Context, sessionID, yamlContent string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/session/"+sessionID+"/script", strings.NewReader(yamlContent))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if err := c.doDiscard(req); err != nil {
		return fmt.Errorf("upload script: %w", err)
	}
	return nil
}

// UploadAsset sends one asset file into the session as multipart form data.
// filename overrides the stored name when non-empty.
func (c *Client) UploadAsset(ctx context.Context, sessionID, filename string, content io.Reader) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("asset", filename)
	if err != nil {
		return fmt.Errorf("upload asset: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("upload asset: %w", err)
	}
	if filename != "" {
		if err := mw.WriteField("filename", filename); err != nil {
			return fmt.Errorf("upload asset: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("upload asset: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/session/"+sessionID+"/asset", &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := c.doDiscard(req); err != nil {
		return fmt.Errorf("upload asset: %w", err)
	}
	return nil
}

// Compile runs the compiler over the session's uploaded content.
// A non-2xx response with a JSON error body surfaces that error message.
func (c *Client) Compile(ctx context.Context, sessionID string, opts CompileOptions) (CompileResult, error) {
	var res CompileResult
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/api/session/"+sessionID+"/compile", opts)
	if err != nil {
		return res, err
	}
	resp, err := c.cli.Do(req)
	if err != nil {
		return res, fmt.Errorf("compile: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	// The service reports compile failures in the JSON body, so decode first.
	decErr := json.NewDecoder(resp.Body).Decode(&res)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decErr == nil && res.Error != "" {
			return res, fmt.Errorf("compile: %s", res.Error)
		}
		return res, fmt.Errorf("compile: unexpected status %s", resp.Status)
	}
	if decErr != nil {
		return res, fmt.Errorf("compile: decode response: %w", decErr)
	}
	c.log.Debug("compile finished", slog.String("session", sessionID), slog.Bool("success", res.Success))
	return res, nil
}

// Download streams the compiled bundle for the session into w and returns the
// number of bytes written.
func (c *Client) Download(ctx context.Context, sessionID string, w io.Writer) (int64, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/session/"+sessionID+"/download", nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.cli.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("download: unexpected status %s", resp.Status)
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("download: %w", err)
	}
	return n, nil
}

// DeleteSession releases the session's resources on the service.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/session/"+sessionID, nil)
	if err != nil {
		return err
	}
	if err := c.doDiscard(req); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Status probes the service health endpoint.
func (c *Client) Status(ctx context.Context) (Health, error) {
	var h Health
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &h); err != nil {
		return h, fmt.Errorf("status: %w", err)
	}
	return h, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	req, err := c.newRequest(ctx, method, path, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// doJSON issues a request (JSON payload when non-nil) and decodes a JSON response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var req *http.Request
	var err error
	if payload != nil {
		req, err = c.newJSONRequest(ctx, method, path, payload)
	} else {
		req, err = c.newRequest(ctx, method, path, nil)
	}
	if err != nil {
		return err
	}
	resp, err := c.cli.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// doDiscard issues a request, drains the body, and maps non-2xx to an error.
func (c *Client) doDiscard(req *http.Request) error {
	resp, err := c.cli.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}
