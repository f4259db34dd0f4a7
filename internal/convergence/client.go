package convergence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// #region errors

// ErrEmptyAnswer is returned before any network call when the answer is
// missing or blank. The 400-equivalent of the taxonomy: caller input that
// never reaches the wire.
var ErrEmptyAnswer = errors.New("answer must be a non-empty string")

// BackendError is a well-formed error payload from the backend. Its detail
// text is surfaced verbatim as the failure message.
type BackendError struct {
	StatusCode int
	Detail     string
}

func (e *BackendError) Error() string {
	return e.Detail
}

// #endregion errors

// #region client

// Client submits convergence answers to the backend over a one-shot
// request/response call.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient creates a convergence client against the backend base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

// NewClientWithHTTP creates a Client with an injected *http.Client.
// Used for testing with custom transports.
func NewClientWithHTTP(baseURL string, httpc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpc: httpc}
}

// #endregion client

// #region submit

type answerPayload struct {
	Answer string `json:"answer"`
}

type errorPayload struct {
	Detail string `json:"detail"`
}

// SubmitAnswer posts {answer} to the backend. The success payload is opaque
// JSON forwarded verbatim to the caller. A non-2xx response carrying a
// detail field becomes a *BackendError; transport failures and bodies we
// cannot read come back wrapped.
func (c *Client) SubmitAnswer(ctx context.Context, answer string) (json.RawMessage, error) {
	if strings.TrimSpace(answer) == "" {
		return nil, ErrEmptyAnswer
	}

	body, err := json.Marshal(answerPayload{Answer: answer})
	if err != nil {
		return nil, fmt.Errorf("marshal answer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/converge/answer", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit answer: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ep errorPayload
		if err := json.Unmarshal(raw, &ep); err == nil && ep.Detail != "" {
			return nil, &BackendError{StatusCode: resp.StatusCode, Detail: ep.Detail}
		}
		return nil, fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	return json.RawMessage(raw), nil
}

// #endregion submit
