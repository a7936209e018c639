package sbisec

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/go-resty/resty/v2"

	"sbisec-trading-bot/internal/logger"
	"sbisec-trading-bot/internal/trace"
)

type messageIDKey struct{}

// instrument logs every request at debug level and wraps it in a span.
func instrument(client *resty.Client) {
	var counter uint64

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		id := atomic.AddUint64(&counter, 1)
		ctx, _ := trace.StartRequestSpan(req.Context(), req.Method, req.URL)
		ctx = context.WithValue(ctx, messageIDKey{}, id)
		req.SetContext(ctx)

		logger.Debug(ctx, "start request", "method", req.Method, "url", req.URL, "message_id", id)
		return nil
	})

	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		ctx := res.Request.Context()
		defer trace.EndRequestSpan(ctx, res.StatusCode(), nil)

		logger.Debug(ctx, "end request",
			"method", res.Request.Method,
			"url", res.Request.URL,
			"status", res.StatusCode(),
			"bytes", len(res.Body()),
			"duration_ms", res.Time().Milliseconds(),
			"message_id", res.Request.Context().Value(messageIDKey{}),
		)
		return nil
	})

	client.OnError(func(req *resty.Request, err error) {
		ctx := req.Context()
		status := 0
		var resErr *resty.ResponseError
		if errors.As(err, &resErr) && resErr.Response != nil {
			status = resErr.Response.StatusCode()
		}
		defer trace.EndRequestSpan(ctx, status, err)

		logger.ErrorWithErr(ctx, "request failed", err, "method", req.Method, "url", req.URL)
	})
}

