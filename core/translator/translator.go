// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package translator submits post translation tasks to the external
translation worker.

The worker accepts a task with POST <base>/tasks and answers with a JSON
object carrying at least "id" and "status". Submission is best-effort: a
failed submission is logged and counted, it never fails the write that
triggered it.
*/
package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"codeberg.org/xeoos/xeo/core/audit"
	"codeberg.org/xeoos/xeo/core/idgen"
	"codeberg.org/xeoos/xeo/core/metrics"
	"codeberg.org/xeoos/xeo/i18n"
	"codeberg.org/xeoos/xeo/server/request_context"
	"codeberg.org/xeoos/xeo/server/utils"
)

var (
	errInvalidJSON    = errors.New("worker response contained invalid JSON")
	errMissingTaskID  = errors.New("worker response has no task id")
	errWorkerRejected = errors.New("worker rejected the task")
)

// Task asks the worker to translate a post into TargetLocales.
type Task struct {
	PostID        uuid.UUID     `json:"post_id"`
	SourceLocale  i18n.Locale   `json:"source_locale"`
	TargetLocales []i18n.Locale `json:"target_locales"`
}

// Receipt is the worker's acknowledgement of a task.
type Receipt struct {
	ID     string
	Status string
}

// WorkerError is returned when the worker answers with a non-2xx status.
type WorkerError struct {
	StatusCode int
	Message    string
}

func (e *WorkerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (status code: %d)", errWorkerRejected, e.StatusCode)
	}

	return fmt.Sprintf("%s: %s (status code: %d)", errWorkerRejected, e.Message, e.StatusCode)
}

func (e *WorkerError) Unwrap() error {
	return errWorkerRejected
}

// Client talks to the translation worker. A nil *Client, or one with an
// empty base URL, is disabled and accepts every task silently.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
}

// New returns a client for the worker at baseURL. A zero timeout leaves
// requests bounded only by the caller's context.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, timeout: timeout, http: utils.HTTPClient}
}

// Enabled reports whether tasks are actually submitted.
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// TargetsFor returns every supported locale except source.
func TargetsFor(source i18n.Locale) []i18n.Locale {
	return slices.DeleteFunc(i18n.Locales(), func(l i18n.Locale) bool { return l == source })
}

// Enqueue submits task and returns the worker's receipt.
func (c *Client) Enqueue(ctx context.Context, task Task) (Receipt, error) {
	if !c.Enabled() {
		return Receipt{}, nil
	}

	if len(task.TargetLocales) == 0 {
		task.TargetLocales = TargetsFor(task.SourceLocale)
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to encode task: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tasks", bytes.NewReader(payload))
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, status, err := c.send(ctx, req)
	if err != nil {
		metrics.TranslationTasks.WithLabelValues("error").Inc()

		return Receipt{}, err
	}

	receipt, err := parseReceipt(status, body)
	if err != nil {
		metrics.TranslationTasks.WithLabelValues("rejected").Inc()

		return Receipt{}, err
	}

	metrics.TranslationTasks.WithLabelValues("accepted").Inc()

	return receipt, nil
}

// EnqueueBestEffort submits task and logs a failure instead of returning it.
func (c *Client) EnqueueBestEffort(ctx context.Context, task Task) {
	receipt, err := c.Enqueue(ctx, task)
	if err != nil {
		log.Warn().
			Str("sys", "translator").
			Err(err).
			Stringer("post_id", task.PostID).
			Msg("Failed to submit translation task")

		return
	}

	if receipt.ID != "" {
		log.Debug().
			Str("sys", "translator").
			Str("task_id", receipt.ID).
			Str("status", receipt.Status).
			Stringer("post_id", task.PostID).
			Msg("Translation task submitted")
	}
}

// send executes req and returns the response body, audited as a worker span.
func (c *Client) send(ctx context.Context, req *http.Request) (_ []byte, _ int, err error) {
	span := audit.Span{
		Destination: audit.ToWorker,
		RequestID:   request_context.FromContext(ctx).RequestID + "-" + idgen.Make(),
		Method:      req.Method,
		URL:         req.URL.String(),
	}

	defer func() {
		span.Error = err
		span.End()
		span.Log()
	}()

	_ = span.Begin(ctx)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	span.StatusCode = resp.StatusCode

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	span.Body = body

	return body, resp.StatusCode, nil
}

func parseReceipt(status int, body []byte) (Receipt, error) {
	if status < 200 || status > 299 {
		msg := ""
		if gjson.ValidBytes(body) {
			msg = gjson.GetBytes(body, "error").String()
		}

		return Receipt{}, &WorkerError{StatusCode: status, Message: msg}
	}

	if !gjson.ValidBytes(body) {
		return Receipt{}, errInvalidJSON
	}

	res := gjson.GetManyBytes(body, "id", "status")

	if res[0].String() == "" {
		return Receipt{}, errMissingTaskID
	}

	return Receipt{ID: res[0].String(), Status: res[1].String()}, nil
}
