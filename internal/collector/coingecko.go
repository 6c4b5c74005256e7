package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"CandleLedger/internal/model"
)

const (
	endpointMarketChart = "market_chart"
	endpointHistory     = "history"

	maxErrorBody = 512
)

// RetryPolicy bounds retries of rate-limited (429) and 5xx responses.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// CoinGeckoOptions configures a CoinGeckoFetcher.
type CoinGeckoOptions struct {
	BaseURL    string
	CoinID     string
	VsCurrency string
	Timeout    time.Duration
	Proxy      string
	// CushionDelay is the minimum spacing between consecutive provider
	// calls. Zero or negative disables it.
	CushionDelay time.Duration
	Retry        RetryPolicy
	Observer     Observer
}

// CoinGeckoFetcher implements Fetcher using the CoinGecko public REST API.
type CoinGeckoFetcher struct {
	client     *resty.Client
	coinID     string
	vsCurrency string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	retry      RetryPolicy
	observer   Observer
}

// NewCoinGeckoFetcher creates a fetcher with optional proxy support.
func NewCoinGeckoFetcher(opts CoinGeckoOptions) *CoinGeckoFetcher {
	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetHeaders(map[string]string{
			"Accept":     "application/json",
			"User-Agent": "candle-ledger/1.0",
		})
	if opts.Proxy != "" {
		client.SetProxy(opts.Proxy)
	}

	limit := rate.Inf
	if opts.CushionDelay > 0 {
		limit = rate.Every(opts.CushionDelay)
	}

	retry := opts.Retry
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	if retry.InitialInterval <= 0 {
		retry.InitialInterval = time.Second
	}
	if retry.MaxInterval < retry.InitialInterval {
		retry.MaxInterval = retry.InitialInterval
	}

	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	return &CoinGeckoFetcher{
		client:     client,
		coinID:     opts.CoinID,
		vsCurrency: opts.VsCurrency,
		limiter:    rate.NewLimiter(limit, 1),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "coingecko",
			Timeout: 5 * time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			},
		}),
		retry:    retry,
		observer: observer,
	}
}

func (f *CoinGeckoFetcher) Name() string { return "coingecko" }

// marketChart is the response of /coins/{id}/market_chart.
type marketChart struct {
	Prices [][]float64 `json:"prices"`
}

// coinHistory is the response of /coins/{id}/history.
type coinHistory struct {
	MarketData *struct {
		TotalVolume map[string]*float64 `json:"total_volume"`
	} `json:"market_data"`
}

func (f *CoinGeckoFetcher) FetchHourlyPrices(ctx context.Context) ([]model.HourlyPricePoint, error) {
	var chart marketChart
	err := f.get(ctx, endpointMarketChart, "/coins/"+url.PathEscape(f.coinID)+"/market_chart", map[string]string{
		"vs_currency": f.vsCurrency,
		"days":        "2",
		"interval":    "hourly",
	}, &chart)
	if err != nil {
		return nil, err
	}

	points := make([]model.HourlyPricePoint, 0, len(chart.Prices))
	for _, p := range chart.Prices {
		if len(p) < 2 {
			continue
		}
		points = append(points, model.HourlyPricePoint{
			Time:  time.UnixMilli(int64(p[0])).UTC(),
			Price: p[1],
		})
	}
	return points, nil
}

func (f *CoinGeckoFetcher) FetchVolume(ctx context.Context, dateQuery string) (float64, error) {
	var hist coinHistory
	err := f.get(ctx, endpointHistory, "/coins/"+url.PathEscape(f.coinID)+"/history", map[string]string{
		"date":         dateQuery,
		"localization": "false",
	}, &hist)
	if err != nil {
		return 0, err
	}
	if hist.MarketData == nil {
		return 0, fmt.Errorf("%w: market_data for %s", ErrDataMissing, dateQuery)
	}
	v := hist.MarketData.TotalVolume[f.vsCurrency]
	if v == nil {
		return 0, fmt.Errorf("%w: total_volume.%s for %s", ErrDataMissing, f.vsCurrency, dateQuery)
	}
	return *v, nil
}

// get performs one logical provider call: cushion wait, retries with
// jittered backoff on 429/5xx/transport errors, and the circuit breaker.
// Every failure is returned as a *FetchError.
func (f *CoinGeckoFetcher) get(ctx context.Context, endpoint, path string, query map[string]string, out interface{}) error {
	start := time.Now()
	_, err := f.breaker.Execute(func() (interface{}, error) {
		b := f.backoff()
		return nil, backoff.Retry(func() error {
			err := f.attempt(ctx, endpoint, path, query, out)
			var fe *FetchError
			if errors.As(err, &fe) {
				b.hint = fe.RetryAfter
			}
			return err
		}, backoff.WithContext(backoff.WithMaxRetries(b, uint64(f.retry.MaxAttempts-1)), ctx))
	})
	var fe *FetchError
	if err != nil && !errors.As(err, &fe) {
		err = &FetchError{Endpoint: endpoint, Err: err}
	}
	f.observer.ObserveFetch(endpoint, time.Since(start), err)
	return err
}

// hintedBackOff replaces the next exponential interval with a server
// Retry-After hint when one was given.
type hintedBackOff struct {
	*backoff.ExponentialBackOff
	hint time.Duration
}

func (h *hintedBackOff) NextBackOff() time.Duration {
	next := h.ExponentialBackOff.NextBackOff()
	if next != backoff.Stop && h.hint > 0 {
		next = h.hint
	}
	h.hint = 0
	return next
}

func (h *hintedBackOff) Reset() {
	h.ExponentialBackOff.Reset()
	h.hint = 0
}

func (f *CoinGeckoFetcher) backoff() *hintedBackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = f.retry.InitialInterval
	exp.MaxInterval = f.retry.MaxInterval
	exp.RandomizationFactor = 0.5
	exp.MaxElapsedTime = 0
	return &hintedBackOff{ExponentialBackOff: exp}
}

func (f *CoinGeckoFetcher) attempt(ctx context.Context, endpoint, path string, query map[string]string, out interface{}) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return backoff.Permanent(&FetchError{Endpoint: endpoint, Err: err})
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(path)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(&FetchError{Endpoint: endpoint, Err: ctx.Err()})
		}
		log.Warn().Err(err).Str("endpoint", endpoint).Msg("provider request failed, retrying")
		return &FetchError{Endpoint: endpoint, Err: err}
	}

	status := resp.StatusCode()
	switch {
	case status == http.StatusTooManyRequests:
		ferr := statusError(endpoint, resp)
		ferr.RetryAfter = f.retryAfter(resp.Header().Get("Retry-After"))
		log.Warn().Str("endpoint", endpoint).Dur("retry_after", ferr.RetryAfter).Msg("rate limited, backing off")
		return ferr
	case status >= 500:
		log.Warn().Int("status", status).Str("endpoint", endpoint).Msg("provider server error, retrying")
		return statusError(endpoint, resp)
	case status < 200 || status >= 300:
		return backoff.Permanent(statusError(endpoint, resp))
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return backoff.Permanent(&FetchError{Endpoint: endpoint, StatusCode: status, Err: fmt.Errorf("decode: %w", err)})
	}
	return nil
}

func (f *CoinGeckoFetcher) retryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(header)
	if err != nil || secs <= 0 {
		return 0
	}
	d := time.Duration(secs) * time.Second
	if d > f.retry.MaxInterval {
		d = f.retry.MaxInterval
	}
	return d
}

func statusError(endpoint string, resp *resty.Response) *FetchError {
	body := resp.String()
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &FetchError{
		Endpoint:   endpoint,
		StatusCode: resp.StatusCode(),
		Body:       body,
		Err:        fmt.Errorf("status %d", resp.StatusCode()),
	}
}
