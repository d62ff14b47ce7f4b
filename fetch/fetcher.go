// Package fetch performs the single-URL HTTP leg of metadata resolution:
// a deadline-bounded GET whose body is tolerantly parsed as JSON.
package fetch

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SolomonYakubu/dop-marketplace-sub000/common"
	"github.com/SolomonYakubu/dop-marketplace-sub000/config"
	"github.com/SolomonYakubu/dop-marketplace-sub000/resiliency"
	"github.com/SolomonYakubu/dop-marketplace-sub000/util"
	"github.com/failsafe-go/failsafe-go"
	"github.com/rs/zerolog"
)

// Gateway responses beyond this size are not metadata documents.
const maxBodyBytes = 10 << 20

type Fetcher struct {
	logger     *zerolog.Logger
	httpClient *http.Client
	timeout    time.Duration
	executor   failsafe.Executor[any]
}

func NewFetcher(logger *zerolog.Logger, cfg *config.ResolverConfig) (*Fetcher, error) {
	policies, err := resiliency.CreateFailSafePolicies("fetcher", cfg.Failsafe)
	if err != nil {
		return nil, err
	}

	f := &Fetcher{
		logger:  logger,
		timeout: cfg.RequestTimeout(),
	}
	if len(policies) > 0 {
		f.executor = failsafe.NewExecutor[any](policies...)
	}

	if util.IsTest() {
		// Plain client so gock can intercept via the default transport.
		f.httpClient = &http.Client{}
	} else {
		f.httpClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        128,
				MaxIdleConnsPerHost: 16,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	return f, nil
}

// FetchJSON issues a GET against url and parses the body as JSON. Every
// failure mode (timeout, connection error, non-2xx status, unparseable
// body) is reported uniformly as ErrFetchFailed so callers simply move to
// the next candidate; none of them is retryable against the same URL beyond
// what the configured failsafe retry policy allows.
func (f *Fetcher) FetchJSON(ctx context.Context, url string) (interface{}, error) {
	if f.executor == nil {
		return f.fetchOnce(ctx, url, true)
	}
	result, execErr := f.executor.WithContext(ctx).GetWithExecution(func(exec failsafe.Execution[any]) (any, error) {
		return f.fetchOnce(exec.Context(), url, true)
	})
	if execErr != nil {
		return nil, resiliency.TranslateFailsafeError(execErr)
	}
	return result, nil
}

// FetchText issues a GET against url and returns the raw body when the
// gateway responds 2xx, regardless of content type. Used for the
// plain-text fallback path when no candidate yielded JSON.
func (f *Fetcher) FetchText(ctx context.Context, url string) (string, error) {
	if f.executor == nil {
		result, err := f.fetchOnce(ctx, url, false)
		if err != nil {
			return "", err
		}
		s, _ := result.(string)
		return s, nil
	}
	result, execErr := f.executor.WithContext(ctx).GetWithExecution(func(exec failsafe.Execution[any]) (any, error) {
		return f.fetchOnce(exec.Context(), url, false)
	})
	if execErr != nil {
		return "", resiliency.TranslateFailsafeError(execErr)
	}
	s, _ := result.(string)
	return s, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string, wantJson bool) (interface{}, error) {
	// Hard per-attempt deadline, independent from the caller's overall
	// context.
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, common.NewErrFetchFailed(err, url, 0)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, common.NewErrFetchFailed(err, url, 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, common.NewErrFetchFailed(nil, url, resp.StatusCode)
	}

	body, err := readBody(resp)
	if err != nil {
		return nil, common.NewErrFetchFailed(err, url, resp.StatusCode)
	}

	if !wantJson {
		return string(body), nil
	}

	var parsed interface{}
	if err := common.SonicCfg.Unmarshal(body, &parsed); err != nil {
		// Non-JSON content types are still given a parse attempt above;
		// at this point the candidate is useless for JSON resolution.
		if f.logger != nil {
			f.logger.Debug().Str("url", url).Str("contentType", resp.Header.Get("Content-Type")).Msg("gateway body is not json")
		}
		return nil, common.NewErrFetchFailed(common.NewErrInvalidJson(err), url, resp.StatusCode)
	}

	return parsed, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if strings.Contains(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	}
	return io.ReadAll(io.LimitReader(reader, maxBodyBytes))
}
