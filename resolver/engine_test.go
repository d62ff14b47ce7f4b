package resolver

import (
	"context"
	"encoding/base64"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SolomonYakubu/dop-marketplace-sub000/config"
	"github.com/SolomonYakubu/dop-marketplace-sub000/metadata"
	"github.com/SolomonYakubu/dop-marketplace-sub000/util"
	"github.com/h2non/gock"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRecord = metadata.OnChainRecord{Id: 42, Kind: metadata.KindListing, Category: 2}

func newTestEngine(t *testing.T, timeoutMs int) *Engine {
	t.Helper()
	cfg := &config.ResolverConfig{
		PrimaryGateway: "https://gw-primary.localhost/ipfs/",
		ExtraGateways: []string{
			"https://gw-mirror1.localhost/ipfs/",
			"https://gw-mirror2.localhost/ipfs/",
		},
		RequestTimeoutMs: timeoutMs,
	}
	cfg.SetDefaults()
	e, err := NewEngine(&log.Logger, cfg)
	require.NoError(t, err)
	return e
}

// The end-to-end scenario: primary gateway is broken, the first mirror
// serves the document, the result is cached and a repeat resolution makes
// zero network requests.
func TestResolveMetadata_GatewayFallbackAndCaching(t *testing.T) {
	defer util.ResetGock()

	var requestCount atomic.Int32
	countRequests := func(r *http.Request) bool {
		requestCount.Add(1)
		return true
	}

	gock.New("https://gw-primary.localhost").
		Get("/ipfs/QmTest123").
		Filter(countRequests).
		Persist().
		Reply(500)
	gock.New("https://gw-mirror1.localhost").
		Get("/ipfs/QmTest123").
		Filter(countRequests).
		Persist().
		Reply(200).
		JSON(map[string]interface{}{"title": "Logo Design", "category": 2})
	gock.New("https://gw-mirror2.localhost").
		Get("/ipfs/QmTest123").
		Filter(countRequests).
		Persist().
		Reply(200).
		Delay(200 * time.Millisecond).
		JSON(map[string]interface{}{"title": "Logo Design", "category": 2})

	e := newTestEngine(t, 1000)

	md := e.ResolveMetadata(context.Background(), "ipfs://QmTest123", testRecord)
	assert.Equal(t, "Logo Design", md.Title)
	assert.Equal(t, 2, md.Category)
	assert.Equal(t, "", md.Description)

	util.WaitForSettle(300 * time.Millisecond)
	countBefore := requestCount.Load()

	md = e.ResolveMetadata(context.Background(), "ipfs://QmTest123", testRecord)
	assert.Equal(t, "Logo Design", md.Title)
	assert.Equal(t, countBefore, requestCount.Load(), "second resolution within TTL must make zero network requests")
}

func TestResolveMetadata_TotalFailureYieldsFallbackRecord(t *testing.T) {
	defer util.ResetGock()

	for _, host := range []string{"gw-primary", "gw-mirror1", "gw-mirror2"} {
		gock.New("https://" + host + ".localhost").
			Get("/ipfs/QmUnreachable").
			Persist().
			Reply(502)
	}

	e := newTestEngine(t, 200)

	start := time.Now()
	md := e.ResolveMetadata(context.Background(), "ipfs://QmUnreachable", testRecord)
	assert.Equal(t, "Listing #42", md.Title)
	assert.Equal(t, "", md.Description)
	assert.Equal(t, 2, md.Category)
	assert.NotNil(t, md.Requirements)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestResolveMetadata_InlineJsonNeedsNoNetwork(t *testing.T) {
	defer util.ResetGock()
	// No mocks registered: any network request would fail the resolution
	// and surface the fallback record instead of the inline payload.
	gock.Intercept()

	e := newTestEngine(t, 200)

	md := e.ResolveMetadata(context.Background(), `{"title":"Inline Brief","category":4}`, testRecord)
	assert.Equal(t, "Inline Brief", md.Title)
	assert.Equal(t, 4, md.Category)
}

func TestResolveMetadata_DataUrlRoundTrip(t *testing.T) {
	defer util.ResetGock()

	ref := "data:application/json;base64," +
		base64.StdEncoding.EncodeToString([]byte(`{"title":"Encoded","category":9}`))

	e := newTestEngine(t, 200)
	md := e.ResolveMetadata(context.Background(), ref, testRecord)
	assert.Equal(t, "Encoded", md.Title)
	assert.Equal(t, 9, md.Category)
}

func TestResolveMetadata_NoReference(t *testing.T) {
	e := newTestEngine(t, 200)

	for _, raw := range []interface{}{nil, "", "\x00\x00"} {
		md := e.ResolveMetadata(context.Background(), raw, testRecord)
		assert.Equal(t, "Listing #42", md.Title)
		assert.Equal(t, 2, md.Category)
	}
}

func TestResolveMetadata_UndecodableDataUrlNeverLeaksIntoDescription(t *testing.T) {
	e := newTestEngine(t, 200)

	// Array and scalar payloads are valid JSON but not metadata objects;
	// the raw data: URL must not surface as user-facing text.
	for _, ref := range []string{
		"data:application/json;base64," + base64.StdEncoding.EncodeToString([]byte(`["a","b"]`)),
		"data:application/json;base64,%%%not-base64%%%",
		`data:application/json,["a","b"]`,
	} {
		md := e.ResolveMetadata(context.Background(), ref, testRecord)
		assert.Equal(t, "Listing #42", md.Title, ref)
		assert.Equal(t, "", md.Description, ref)
		assert.Equal(t, 2, md.Category, ref)
	}
}

func TestResolveMetadata_PlainTextReferenceBecomesDescription(t *testing.T) {
	e := newTestEngine(t, 200)

	md := e.ResolveMetadata(context.Background(), "painted sign, details on request", testRecord)
	assert.Equal(t, "Listing #42", md.Title)
	assert.Equal(t, "painted sign, details on request", md.Description)
}

func TestResolveMetadata_PlainTextGatewayBodyBecomesDescription(t *testing.T) {
	defer util.ResetGock()

	gock.New("https://gw-primary.localhost").
		Get("/ipfs/QmNote").
		Persist().
		Reply(200).
		SetHeader("Content-Type", "text/plain").
		BodyString("A human readable brief.")
	for _, host := range []string{"gw-mirror1", "gw-mirror2"} {
		gock.New("https://" + host + ".localhost").
			Get("/ipfs/QmNote").
			Persist().
			Reply(404)
	}

	e := newTestEngine(t, 500)

	md := e.ResolveMetadata(context.Background(), "ipfs://QmNote", testRecord)
	assert.Equal(t, "Listing #42", md.Title)
	assert.Equal(t, "A human readable brief.", md.Description)
}

func TestResolveMetadata_HexEncodedReference(t *testing.T) {
	defer util.ResetGock()

	gock.New("https://gw-primary.localhost").
		Get("/ipfs/QmHexRef").
		Reply(200).
		JSON(map[string]interface{}{"title": "From Hex"})

	e := newTestEngine(t, 500)

	// hex of "ipfs://QmHexRef"
	md := e.ResolveMetadata(context.Background(), "0x697066733a2f2f516d486578526566", testRecord)
	assert.Equal(t, "From Hex", md.Title)
}
