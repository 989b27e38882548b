// Package gateway performs single upstream fetches for a (source, sort mode) pair.
package gateway

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"feedsync/features/feed"
	"feedsync/internal/collector"
	"feedsync/internal/config"

	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Fetcher is what the engine and the prefetch scheduler need from a gateway.
type Fetcher interface {
	Fetch(ctx context.Context, src feed.Source, mode feed.SortMode) ([]feed.Item, error)
}

// Gateway fetches listings through a colly collector. It never retries.
type Gateway struct {
	collector *colly.Collector
	baseURL   string
	limit     int
	tracer    trace.Tracer
}

func New(cc *colly.Collector, cfg config.UpstreamConfig) *Gateway {
	return &Gateway{
		collector: cc,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		limit:     cfg.Limit,
		tracer:    otel.Tracer("feedsync/gateway"),
	}
}

// URL builds the listing address for a pair.
func (g *Gateway) URL(src feed.Source, mode feed.SortMode) string {
	var b strings.Builder
	b.WriteString(g.baseURL)
	if src.IsComposite() {
		b.WriteString(src.Path())
	} else {
		b.WriteString("/r/")
		b.WriteString(strings.Trim(src.Path(), "/"))
	}
	b.WriteString("/")
	b.WriteString(url.PathEscape(mode.String()))
	b.WriteString(".json?limit=")
	b.WriteString(strconv.Itoa(g.limit))
	return b.String()
}

// Fetch issues one request and returns the non-pinned items in upstream order.
// Every failure is an *Error.
func (g *Gateway) Fetch(ctx context.Context, src feed.Source, mode feed.SortMode) ([]feed.Item, error) {
	target := g.URL(src, mode)
	startedAt := time.Now()

	ctx, span := g.tracer.Start(ctx, "gateway.fetch", trace.WithAttributes(
		attribute.String("feed.source", src.Path()),
		attribute.String("feed.sort", mode.String()),
		attribute.String("http.url", target),
	))
	defer span.End()

	items, err := g.fetch(ctx, target)

	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	} else {
		span.SetAttributes(attribute.Int("feed.items", len(items)))
	}
	collector.GetMetricsCollector().ObserveFetch(mode.String(), outcome, time.Since(startedAt))

	return items, err
}

func (g *Gateway) fetch(ctx context.Context, target string) ([]feed.Item, error) {
	var (
		body       []byte
		statusCode int
	)

	c := g.collector.Clone()
	c.Context = ctx

	c.OnResponse(func(r *colly.Response) {
		body = r.Body
		statusCode = r.StatusCode
		log.Trace().
			Str("url", target).
			Int("bytes", len(r.Body)).
			Msg("Fetched listing")
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
	})

	if err := c.Visit(target); err != nil {
		if statusCode > 0 {
			log.Debug().Err(err).Str("url", target).Int("status_code", statusCode).Msg("Upstream error response")
			return nil, &Error{Kind: KindHTTP, URL: target, StatusCode: statusCode, Err: err}
		}
		log.Debug().Err(err).Str("url", target).Msg("Request was not dispatched")
		return nil, &Error{Kind: KindNetworkBlocked, URL: target, Err: err}
	}

	items, err := feed.DecodeListing(bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Kind: KindHTTP, URL: target, StatusCode: statusCode, Err: err}
	}

	if len(items) == 0 {
		return nil, &Error{Kind: KindEmptyResult, URL: target, StatusCode: statusCode, Err: errors.New("listing has no unpinned items")}
	}

	return items, nil
}
