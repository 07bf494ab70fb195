package lago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/railzwaylabs/subscribe/internal/config"
	subscriptiondomain "github.com/railzwaylabs/subscribe/internal/subscription/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const graphqlPath = "/graphql"

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
}

// Client talks to a Lago-compatible GraphQL billing API.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	log      *zap.Logger
}

func New(p Params) *Client {
	timeout := p.Config.Lago.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(p.Config.Lago.BaseURL, "/") + graphqlPath,
		apiKey:   p.Config.Lago.APIKey,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: p.Log.Named("providers.lago"),
	}
}

type graphqlRequest struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

type graphqlError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code    string                     `json:"code"`
		Status  int                        `json:"status"`
		Details map[string]json.RawMessage `json:"details"`
	} `json:"extensions"`
}

// do posts one operation. Business errors come back in the response;
// only failures to complete the exchange are returned as errors.
func (c *Client) do(ctx context.Context, req graphqlRequest, out any) ([]graphqlError, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", req.OperationName, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", req.OperationName, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &subscriptiondomain.TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &subscriptiondomain.TransportError{StatusCode: resp.StatusCode, Err: err}
	}

	var decoded graphqlResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &subscriptiondomain.TransportError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return nil, &subscriptiondomain.TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode %s: %w", req.OperationName, err)}
	}

	if len(decoded.Errors) > 0 {
		return decoded.Errors, nil
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &subscriptiondomain.TransportError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	if out != nil && len(decoded.Data) > 0 {
		if err := json.Unmarshal(decoded.Data, out); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", req.OperationName, err)
		}
	}
	return nil, nil
}

// errorCode prefers a known code found in the error details over the
// generic extension code.
func (e graphqlError) errorCode(known ...string) string {
	for _, detail := range e.Extensions.Details {
		var values []string
		if err := json.Unmarshal(detail, &values); err != nil {
			continue
		}
		for _, value := range values {
			for _, code := range known {
				if value == code {
					return code
				}
			}
		}
	}
	return e.Extensions.Code
}

// flexInt accepts both JSON numbers and numeric strings; BigInt scalars
// are serialized as strings.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(data), `"`)
	if text == "" || text == "null" {
		*f = 0
		return nil
	}
	value, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return errors.New("invalid integer value " + string(data))
	}
	*f = flexInt(value)
	return nil
}
