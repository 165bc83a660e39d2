package board

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"taskboard-api/domain"
)

const (
	reorderPath          = "/api/tasks/reorder"
	maxErrorBodySize     = 1 << 20
	defaultClientTimeout = 30 * time.Second

	// invalidFieldError is the server's distinguished message for a store
	// schema missing the position attribute.
	invalidFieldError = "Invalid update field"
)

// Client submits reorder batches to the taskboard API over HTTP.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client for the API at baseURL authenticating with the
// given bearer token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: defaultClientTimeout},
	}
}

type reorderRequest struct {
	WorkspaceID string                 `json:"workspaceId"`
	Updates     []domain.ReorderUpdate `json:"updates"`
}

type reorderItemResult struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type reorderResponse struct {
	Results []reorderItemResult `json:"results"`
	Error   string              `json:"error,omitempty"`
	Details string              `json:"details,omitempty"`
}

// SubmitReorder posts one batch and classifies any failure. Per-item failures
// count as a failed submission: the server may have applied part of the
// batch, but the caller rolls back its local view and relies on refetch.
func (c *Client) SubmitReorder(ctx context.Context, workspaceID string, updates []domain.ReorderUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	body, err := sonic.Marshal(reorderRequest{WorkspaceID: workspaceID, Updates: updates})
	if err != nil {
		return &SubmitError{Kind: FailureGeneric, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+reorderPath, bytes.NewReader(body))
	if err != nil {
		return &SubmitError{Kind: FailureGeneric, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return &SubmitError{Kind: FailureGeneric, Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		return &SubmitError{Kind: FailureGeneric, Err: err}
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var parsed reorderResponse
		if err := sonic.Unmarshal(payload, &parsed); err != nil {
			return &SubmitError{Kind: FailureGeneric, Err: err}
		}
		failed := 0
		for _, r := range parsed.Results {
			if !r.OK {
				failed++
			}
		}
		if failed > 0 {
			return &SubmitError{
				Kind:   FailureGeneric,
				Detail: fmt.Sprintf("%d of %d updates failed", failed, len(parsed.Results)),
			}
		}
		return nil
	case http.StatusUnauthorized:
		return &SubmitError{Kind: FailureUnauthorized, Detail: "not a member of this workspace"}
	case http.StatusBadRequest:
		var parsed reorderResponse
		if err := sonic.Unmarshal(payload, &parsed); err == nil && parsed.Error == invalidFieldError {
			return &SubmitError{Kind: FailureInvalidField, Detail: parsed.Details}
		}
		return &SubmitError{Kind: FailureGeneric, Err: errors.New(string(payload))}
	default:
		return &SubmitError{
			Kind: FailureGeneric,
			Err:  fmt.Errorf("unexpected status %d: %s", resp.StatusCode, payload),
		}
	}
}
