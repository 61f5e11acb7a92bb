package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"roomchat/internal/errors"
	"roomchat/internal/metrics"
	"roomchat/internal/models"
	"roomchat/internal/tracing"
	"roomchat/pkg/circuitbreaker"
	"roomchat/pkg/transport/types"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Client talks to the room backend's request/response endpoints. All calls
// are guarded by a circuit breaker so a failing backend is not hammered.
type Client struct {
	baseURL   string
	authToken string
	client    *http.Client
	breaker   *circuitbreaker.CircuitBreaker
	logger    *logrus.Logger
}

func NewClient(baseURL, authToken string, httpClient *http.Client, logger *logrus.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}

	baseURL = strings.TrimSuffix(baseURL, "/")

	return &Client{
		baseURL:   baseURL,
		authToken: authToken,
		client:    httpClient,
		breaker:   circuitbreaker.New("room-backend", 5, 30*time.Second, logger),
		logger:    logger,
	}
}

func (c *Client) SendText(ctx context.Context, roomID, body string) (*models.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, errors.NewValidationError("body", "message body cannot be empty")
	}

	ctx, span := tracing.StartSpan(ctx, "transport.SendText", attribute.String("room.id", roomID))
	defer span.End()

	start := time.Now()
	var resp types.SendMessageResponse
	endpoint := fmt.Sprintf("%s/v1/rooms/%s/messages", c.baseURL, url.PathEscape(roomID))
	if err := c.do(ctx, http.MethodPost, endpoint, types.SendTextRequest{Body: body}, &resp, "send text"); err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}
	metrics.RecordTimer(metrics.SendLatency, time.Since(start), map[string]string{"kind": "text"})

	return &resp.Message, nil
}

func (c *Client) SendMedia(ctx context.Context, roomID string, kind models.MessageKind, payload types.MediaPayload, caption string) (*models.Message, error) {
	if len(payload.Data) == 0 {
		return nil, errors.NewValidationError("data", "media payload cannot be empty")
	}

	ctx, span := tracing.StartSpan(ctx, "transport.SendMedia",
		attribute.String("room.id", roomID),
		attribute.String("media.kind", string(kind)),
	)
	defer span.End()

	req := types.SendMediaRequest{
		Kind:       kind,
		Caption:    caption,
		FileName:   payload.FileName,
		MimeType:   payload.MimeType,
		Base64Data: base64.StdEncoding.EncodeToString(payload.Data),
	}

	start := time.Now()
	var resp types.SendMessageResponse
	endpoint := fmt.Sprintf("%s/v1/rooms/%s/messages", c.baseURL, url.PathEscape(roomID))
	if err := c.do(ctx, http.MethodPost, endpoint, req, &resp, "send media"); err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}
	metrics.RecordTimer(metrics.SendLatency, time.Since(start), map[string]string{"kind": string(kind)})

	return &resp.Message, nil
}

func (c *Client) EditMessage(ctx context.Context, roomID, messageID, body string) (*models.Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, errors.NewValidationError("body", "message body cannot be empty")
	}

	ctx, span := tracing.StartSpan(ctx, "transport.EditMessage", attribute.String("room.id", roomID))
	defer span.End()

	var resp types.SendMessageResponse
	endpoint := fmt.Sprintf("%s/v1/rooms/%s/messages/%s", c.baseURL, url.PathEscape(roomID), url.PathEscape(messageID))
	if err := c.do(ctx, http.MethodPatch, endpoint, types.EditMessageRequest{Body: body}, &resp, "edit message"); err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}
	return &resp.Message, nil
}

func (c *Client) DeleteMessage(ctx context.Context, roomID, messageID string) error {
	ctx, span := tracing.StartSpan(ctx, "transport.DeleteMessage", attribute.String("room.id", roomID))
	defer span.End()

	endpoint := fmt.Sprintf("%s/v1/rooms/%s/messages/%s", c.baseURL, url.PathEscape(roomID), url.PathEscape(messageID))
	if err := c.do(ctx, http.MethodDelete, endpoint, nil, nil, "delete message"); err != nil {
		tracing.RecordError(ctx, err)
		return err
	}
	return nil
}

// SetTyping is fire-and-forget: presence is best-effort, so failures are
// logged and swallowed here rather than surfaced to the user.
func (c *Client) SetTyping(ctx context.Context, roomID string, isTyping bool) error {
	endpoint := fmt.Sprintf("%s/v1/rooms/%s/typing", c.baseURL, url.PathEscape(roomID))
	err := c.do(ctx, http.MethodPost, endpoint, types.TypingRequest{IsTyping: isTyping}, nil, "set typing")
	if err != nil {
		c.logger.WithError(err).Debug("Typing signal failed")
	}
	return err
}

func (c *Client) FetchHistory(ctx context.Context, roomID, cursor string, limit int) (*models.MessagePage, error) {
	ctx, span := tracing.StartSpan(ctx, "transport.FetchHistory", attribute.String("room.id", roomID))
	defer span.End()

	endpoint := fmt.Sprintf("%s/v1/rooms/%s/messages?limit=%d", c.baseURL, url.PathEscape(roomID), limit)
	if cursor != "" {
		endpoint += "&cursor=" + url.QueryEscape(cursor)
	}

	start := time.Now()
	var resp types.HistoryResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp, "fetch history"); err != nil {
		tracing.RecordError(ctx, err)
		return nil, err
	}
	metrics.RecordTimer(metrics.HistoryFetchLatency, time.Since(start), nil)

	return &models.MessagePage{
		Messages: resp.Messages,
		Cursor:   resp.Cursor,
		HasMore:  resp.HasMore,
	}, nil
}

// do issues one request through the circuit breaker and maps failures onto
// the engine's error taxonomy.
func (c *Client) do(ctx context.Context, method, endpoint string, reqBody, respBody interface{}, operation string) error {
	err := c.doGuarded(ctx, method, endpoint, reqBody, respBody, operation)
	if circuitbreaker.IsOpenError(err) {
		return errors.WrapRetryable(err, errors.ErrCodeTransport, "backend temporarily unavailable").
			WithUserMessage("Connection problem, please try again")
	}
	return err
}

func (c *Client) doGuarded(ctx context.Context, method, endpoint string, reqBody, respBody interface{}, operation string) error {
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		var bodyReader io.Reader
		if reqBody != nil {
			jsonData, err := json.Marshal(reqBody)
			if err != nil {
				return fmt.Errorf("failed to marshal request: %w", err)
			}
			bodyReader = bytes.NewBuffer(jsonData)
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		if reqBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.authToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.authToken)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return errors.NewTransportError(operation, 0, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return c.mapHTTPError(operation, resp)
		}

		if respBody != nil {
			if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
				return errors.NewTransportError(operation, resp.StatusCode,
					fmt.Errorf("failed to decode response: %w", err))
			}
		}
		return nil
	})
}

func (c *Client) mapHTTPError(operation string, resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var errResp types.ErrorResponse
	_ = json.Unmarshal(bodyBytes, &errResp)
	serverMsg := errResp.Error.Message
	if serverMsg == "" {
		serverMsg = strings.TrimSpace(string(bodyBytes))
	}

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		appErr := errors.New(errors.ErrCodeValidationFailed, serverMsg).
			WithUserMessage(serverMsg)
		for field, msg := range errResp.Error.Fields {
			appErr = appErr.WithContext("field_"+field, msg)
		}
		return appErr
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.NewAuthorizationError(operation)
	case http.StatusNotFound:
		return errors.NewNotFoundError("message", operation)
	default:
		return errors.NewTransportError(operation, resp.StatusCode,
			fmt.Errorf("backend error: status %d, body: %s", resp.StatusCode, serverMsg))
	}
}
