// Package upstream is the HTTP client for the cooperative core API: the
// external backend that owns authentication, ledgering, and member records.
// The gateway only ever reads the group list and relays completed
// registration submissions.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"coopgate/internal/groups"
	"coopgate/internal/wizard/models"
	dErrors "coopgate/pkg/domain-errors"
)

// Submission is a completed draft ready for relay: resolved field values
// (group already swapped for its display name) plus the optional passport.
type Submission struct {
	Fields      map[string]string
	Passport    *models.Passport
	Route       Route
	BearerToken string
}

// Client talks to the cooperative core API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client, for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL string, timeout time.Duration, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		tracer:     otel.Tracer("coopgate/upstream"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchGroups reads the available cooperative groups. Callers handle the
// fallback-to-static-table policy; this method only reports what the backend
// said.
func (c *Client) FetchGroups(ctx context.Context) ([]groups.Group, error) {
	ctx, span := c.tracer.Start(ctx, "upstream.fetch_groups")
	var spanErr error
	defer func() { endSpan(span, spanErr) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/groups", nil)
	if err != nil {
		spanErr = err
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not build groups request")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		spanErr = err
		return nil, dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "groups request failed")
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		spanErr = fmt.Errorf("groups endpoint returned %d", res.StatusCode)
		return nil, dErrors.New(dErrors.CodeUpstreamUnavailable, spanErr.Error())
	}

	var list []groups.Group
	if err := json.NewDecoder(res.Body).Decode(&list); err != nil {
		spanErr = err
		return nil, dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "could not decode group list")
	}
	return list, nil
}

// SubmitRegistration relays a completed draft to the route's endpoint as a
// multipart request. Returns the server-supplied success message, which may
// be empty. All failures come back as domain errors carrying the user-facing
// message to display.
func (c *Client) SubmitRegistration(ctx context.Context, sub Submission) (string, error) {
	ctx, span := c.tracer.Start(ctx, "upstream.submit_registration",
		trace.WithAttributes(
			attribute.String("route.path", sub.Route.Path),
			attribute.Bool("route.authenticated", sub.Route.Authenticated),
		))
	var spanErr error
	defer func() { endSpan(span, spanErr) }()

	body, contentType, err := encodeMultipart(sub)
	if err != nil {
		spanErr = err
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sub.Route.Path, body)
	if err != nil {
		spanErr = err
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not build submission request")
	}
	req.Header.Set("Content-Type", contentType)
	if sub.Route.Authenticated {
		req.Header.Set("Authorization", "Bearer "+sub.BearerToken)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		// No response at all: transport-level failure.
		spanErr = err
		return "", mapTransportFailure(err)
	}
	defer res.Body.Close()

	payload := decodeBody(res.Body)

	if res.StatusCode >= 200 && res.StatusCode <= 299 {
		return payload.Message, nil
	}

	serverText := payload.Error
	if serverText == "" {
		serverText = payload.Message
	}
	c.logger.WarnContext(ctx, "upstream rejected registration",
		"status", res.StatusCode,
		"path", sub.Route.Path,
	)
	spanErr = fmt.Errorf("upstream returned %d", res.StatusCode)
	return "", mapRejection(serverText)
}

// responseBody is the upstream envelope: {message} on success, {error} (or
// sometimes {message}) on rejection.
type responseBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func decodeBody(r io.Reader) responseBody {
	var body responseBody
	raw, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		return body
	}
	if json.Unmarshal(raw, &body) != nil {
		// Not JSON: treat the raw text as the server message.
		body.Error = strings.TrimSpace(string(raw))
	}
	return body
}

// encodeMultipart writes every field in deterministic order, then the
// passport image as a binary part when present.
func encodeMultipart(sub Submission) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	names := make([]string, 0, len(sub.Fields))
	for name := range sub.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := w.WriteField(name, sub.Fields[name]); err != nil {
			return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "could not encode submission field")
		}
	}

	if sub.Passport != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`,
			models.FieldPassportImage, sub.Passport.Filename))
		contentType := sub.Passport.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "could not encode passport part")
		}
		if _, err := part.Write(sub.Passport.Data); err != nil {
			return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "could not write passport bytes")
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "could not finalize multipart body")
	}
	return buf, w.FormDataContentType(), nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
