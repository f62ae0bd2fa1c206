package tracing

import (
	"activity-assistant/config"
	"context"
	"net/url"

	"github.com/getsentry/sentry-go"
	"github.com/go-resty/resty/v2"
)

type restySpanKey struct{}

func restySpan(ctx context.Context) *sentry.Span {
	span, _ := ctx.Value(restySpanKey{}).(*sentry.Span)
	return span
}

// SetupResty 为 resty 客户端加上 http.client span 和 sentry-trace 头
func SetupResty(client *resty.Client) {
	if !config.Get().Sentry.Tracing.TraceHTTPCalls {
		return
	}

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		span := StartSpan(req.Context(), "http.client", req.Method+" "+sanitizeURL(req.URL))
		if span == nil {
			return nil
		}
		span.SetData("http.request.method", req.Method)
		req.SetHeader("sentry-trace", span.ToSentryTrace())
		if baggage := span.ToBaggage(); baggage != "" {
			req.SetHeader("baggage", baggage)
		}
		req.SetContext(context.WithValue(span.Context(), restySpanKey{}, span))
		return nil
	})

	client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		span := restySpan(resp.Request.Context())
		if span == nil {
			return nil
		}
		span.SetData("http.response.status_code", resp.StatusCode())
		if resp.StatusCode() >= 400 {
			span.Status = sentry.HTTPtoSpanStatus(resp.StatusCode())
		} else {
			span.Status = sentry.SpanStatusOK
		}
		span.Finish()
		return nil
	})

	client.OnError(func(req *resty.Request, err error) {
		if req == nil {
			return
		}
		finish(restySpan(req.Context()), 0, 0, err)
	})
}

// sanitizeURL 只保留 scheme://host/path，去掉可能带 token 的查询参数
func sanitizeURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return "unknown"
	}
	return parsed.Scheme + "://" + parsed.Host + parsed.Path
}
