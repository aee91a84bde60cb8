// Package layout forwards mensa layouts to the external rendering service.
package layout

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

	"go.uber.org/zap"

	"github.com/olivezebra/mensa-api/internal/app/apperr"
	"github.com/olivezebra/mensa-api/internal/domain"
	"github.com/olivezebra/mensa-api/internal/platform/observability"
	"github.com/olivezebra/mensa-api/internal/ports/out/httpclient"
)

const (
	// DefaultTimeout bounds the whole renderer round trip, body included.
	DefaultTimeout = 10 * time.Second

	renderPath = "/render"
	acceptSVG  = ContentTypeSVG + ", text/xml"
)

// Outcome labels used in logs and metrics. They never reach the caller.
const (
	resultDelivered      = "delivered"
	resultTimeout        = "timeout"
	resultTransportError = "transport_error"
	resultBadStatus      = "bad_status"
	resultReadError      = "read_error"
	resultEmptyBody      = "empty_body"
	resultCircuitOpen    = "circuit_open"
)

// Proxy performs one bounded round trip to the renderer per call. It keeps no state
// between calls and never retries.
type Proxy struct {
	client  httpclient.Doer
	baseURL string
	logger  *zap.Logger

	// Timeout overrides DefaultTimeout when positive.
	Timeout time.Duration
}

func NewProxy(client httpclient.Doer, baseURL string, logger *zap.Logger) *Proxy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Proxy{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		Timeout: DefaultTimeout,
	}
}

// RenderLayout sends the mensa's projection to the renderer and returns the rendered SVG.
//
// Every failure (deadline exceeded, transport error, error status, empty body) yields
// the same apperr.KindRenderUnavailable error; the cause is only logged.
func (p *Proxy) RenderLayout(ctx context.Context, m domain.Mensa) (Document, error) {
	body, err := json.Marshal(NewRenderRequest(m))
	if err != nil {
		return Document{}, p.fail(m.ID, resultTransportError, fmt.Errorf("encode render request: %w", err), 0)
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	// Only the deadline cancels the call; a caller going away does not.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+renderPath, bytes.NewReader(body))
	if err != nil {
		return Document{}, p.fail(m.ID, resultTransportError, fmt.Errorf("build render request: %w", err), 0)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", acceptSVG)

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return Document{}, p.fail(m.ID, classifyTransport(ctx, err), err, time.Since(start))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Document{}, p.fail(m.ID, resultBadStatus, fmt.Errorf("renderer status=%d", resp.StatusCode), time.Since(start))
	}

	svg, err := io.ReadAll(resp.Body)
	if err != nil {
		result := resultReadError
		if ctx.Err() != nil {
			result = resultTimeout
		}
		return Document{}, p.fail(m.ID, result, fmt.Errorf("read renderer body: %w", err), time.Since(start))
	}
	if len(svg) == 0 {
		return Document{}, p.fail(m.ID, resultEmptyBody, errors.New("renderer returned empty body"), time.Since(start))
	}

	elapsed := time.Since(start)
	observability.ObserveRender(resultDelivered, elapsed)
	p.logger.Debug("layout rendered",
		zap.String("mensa_id", string(m.ID)),
		zap.Int("bytes", len(svg)),
		zap.Duration("elapsed", elapsed),
	)
	return Document{ContentType: ContentTypeSVG, Body: svg}, nil
}

func (p *Proxy) fail(id domain.MensaID, result string, cause error, elapsed time.Duration) error {
	observability.ObserveRender(result, elapsed)
	p.logger.Error("microservices call to render layout svg failed",
		zap.String("mensa_id", string(id)),
		zap.String("result", result),
		zap.Duration("elapsed", elapsed),
		zap.Error(cause),
	)
	return apperr.RenderUnavailable(apperr.CodeLayoutUnavailable, "Failed to render layout svg", cause)
}

func classifyTransport(ctx context.Context, err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil:
		return resultTimeout
	case errors.Is(err, httpclient.ErrCircuitOpen):
		return resultCircuitOpen
	default:
		return resultTransportError
	}
}
