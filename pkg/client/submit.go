package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goliatone/go-formguard/pkg/report"
)

// SubmitResult describes the outcome of a submission.
type SubmitResult struct {
	// Blocked is true when the submit gate stopped the request.
	Blocked bool
	Status  int
	Body    []byte
	// Errors holds the client side messages when blocked, or the reconciled
	// server messages after a 4xx.
	Errors report.Report
	// FormErrors are server messages that matched no field.
	FormErrors []string
}

// OK reports whether the server accepted the submission.
func (r SubmitResult) OK() bool {
	return !r.Blocked && r.Status >= 200 && r.Status < 300
}

// Submitter posts forms through the submit gate and reconciles validation
// responses.
type Submitter struct {
	evaluator *Evaluator
	client    *http.Client
}

// NewSubmitter constructs a Submitter. A nil client uses http.DefaultClient.
func NewSubmitter(e *Evaluator, client *http.Client) *Submitter {
	if client == nil {
		client = http.DefaultClient
	}
	return &Submitter{evaluator: e, client: client}
}

// Submit validates f and, when it passes, posts its values form-encoded to
// action. Transport errors are returned; validation outcomes are data.
func (s *Submitter) Submit(ctx context.Context, f *Form, action string) (SubmitResult, error) {
	if errs := s.evaluator.ValidateForm(f); !errs.Valid() {
		return SubmitResult{Blocked: true, Errors: errs}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, action, strings.NewReader(f.Values().Encode()))
	if err != nil {
		return SubmitResult{}, fmt.Errorf("client: build submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json, application/problem+json")

	resp, err := s.client.Do(req)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("client: submit: %w", err)
	}
	defer resp.Body.Close()

	result := SubmitResult{Status: resp.StatusCode}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		if mapping, ok := s.evaluator.ReconcileResponse(f, resp); ok {
			result.Errors = mapping.Fields
			result.FormErrors = mapping.Form
		}
		return result, nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return result, fmt.Errorf("client: read submit response: %w", err)
	}
	result.Body = body
	return result, nil
}
