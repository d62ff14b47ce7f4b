package fetch

import (
	"context"
	"testing"
	"time"

	"github.com/SolomonYakubu/dop-marketplace-sub000/common"
	"github.com/SolomonYakubu/dop-marketplace-sub000/config"
	"github.com/SolomonYakubu/dop-marketplace-sub000/util"
	"github.com/h2non/gock"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	util.ConfigureTestLogger()
}

func newTestFetcher(t *testing.T, timeoutMs int) *Fetcher {
	t.Helper()
	cfg := &config.ResolverConfig{RequestTimeoutMs: timeoutMs}
	cfg.SetDefaults()
	f, err := NewFetcher(&log.Logger, cfg)
	require.NoError(t, err)
	return f
}

func TestFetchJSON_Success(t *testing.T) {
	defer util.ResetGock()

	gock.New("https://gw1.localhost").
		Get("/ipfs/QmTest123").
		Reply(200).
		JSON(map[string]interface{}{"title": "Logo Design", "category": 2})

	f := newTestFetcher(t, 1000)
	v, err := f.FetchJSON(context.Background(), "https://gw1.localhost/ipfs/QmTest123")
	require.NoError(t, err)

	obj, ok := v.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Logo Design", obj["title"])
}

func TestFetchJSON_NonJsonContentTypeStillParsed(t *testing.T) {
	defer util.ResetGock()

	gock.New("https://gw1.localhost").
		Get("/meta").
		Reply(200).
		SetHeader("Content-Type", "text/plain").
		BodyString(`{"title":"Audit"}`)

	f := newTestFetcher(t, 1000)
	v, err := f.FetchJSON(context.Background(), "https://gw1.localhost/meta")
	require.NoError(t, err)
	assert.Equal(t, "Audit", v.(map[string]interface{})["title"])
}

func TestFetchJSON_HttpErrorStatus(t *testing.T) {
	defer util.ResetGock()

	gock.New("https://gw1.localhost").
		Get("/meta").
		Reply(500).
		BodyString("internal error")

	f := newTestFetcher(t, 1000)
	_, err := f.FetchJSON(context.Background(), "https://gw1.localhost/meta")
	require.Error(t, err)
	assert.True(t, common.HasCode(err, "ErrFetchFailed"))
}

func TestFetchJSON_MalformedBody(t *testing.T) {
	defer util.ResetGock()

	gock.New("https://gw1.localhost").
		Get("/meta").
		Reply(200).
		BodyString("<html>definitely not json</html>")

	f := newTestFetcher(t, 1000)
	_, err := f.FetchJSON(context.Background(), "https://gw1.localhost/meta")
	require.Error(t, err)
	assert.True(t, common.HasCode(err, "ErrFetchFailed"))
	assert.True(t, common.HasCode(err, "ErrInvalidJson"))
}

func TestFetchJSON_TimeoutIsHardDeadline(t *testing.T) {
	defer util.ResetGock()

	gock.New("https://gw1.localhost").
		Get("/meta").
		Reply(200).
		Delay(2 * time.Second).
		JSON(map[string]interface{}{"title": "late"})

	f := newTestFetcher(t, 100)

	start := time.Now()
	_, err := f.FetchJSON(context.Background(), "https://gw1.localhost/meta")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 1500*time.Millisecond)
}

func TestFetchText_ReturnsRawBody(t *testing.T) {
	defer util.ResetGock()

	gock.New("https://gw1.localhost").
		Get("/note").
		Reply(200).
		SetHeader("Content-Type", "text/plain").
		BodyString("a human readable note")

	f := newTestFetcher(t, 1000)
	text, err := f.FetchText(context.Background(), "https://gw1.localhost/note")
	require.NoError(t, err)
	assert.Equal(t, "a human readable note", text)
}
