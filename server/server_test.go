package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solvari/radar/pkg/db"
	"github.com/solvari/radar/pkg/domain"
)

// fakeDB serves canned profiles keyed by ID
type fakeDB struct {
	profiles map[int64]*domain.Profile
	outreach []*domain.OutreachMessage
	stats    *db.Stats
}

func (f *fakeDB) GetProfile(_ context.Context, id int64) (*domain.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %d not found", id)
	}
	return p, nil
}

func (f *fakeDB) GetProfiles(_ context.Context, ring domain.Ring, limit int) ([]domain.Profile, error) {
	var out []domain.Profile
	for _, p := range f.profiles {
		if ring != 0 && p.Ring != ring {
			continue
		}
		if len(out) >= limit {
			break
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeDB) CreateOutreach(_ context.Context, msg *domain.OutreachMessage) (int64, error) {
	f.outreach = append(f.outreach, msg)
	return int64(len(f.outreach)), nil
}

func (f *fakeDB) GetStats(_ context.Context) (*db.Stats, error) {
	if f.stats == nil {
		return &db.Stats{ByRing: map[string]int{}}, nil
	}
	return f.stats, nil
}

// fakePipeline echoes one successful result per URL
type fakePipeline struct {
	lastURLs     []string
	lastSource   string
	lastOutreach bool
}

func (f *fakePipeline) Process(_ context.Context, urls []string, sourceType string, autoOutreach bool) []domain.Result {
	f.lastURLs = urls
	f.lastSource = sourceType
	f.lastOutreach = autoOutreach

	results := make([]domain.Result, len(urls))
	for i, u := range urls {
		results[i] = domain.Result{URL: u, Success: true, ProfileID: int64(i + 1), Ring: domain.RingZZP, RingName: "ZZP'er"}
	}
	return results
}

// fakeClassifier returns a fixed vakman classification
type fakeClassifier struct{}

func (f *fakeClassifier) Classify(_ context.Context, content domain.ScrapedContent) domain.Classification {
	return domain.Classification{
		Ring:            domain.RingVakman,
		QualityScore:    8.0,
		Confidence:      0.9,
		Reasoning:       "test classificatie",
		ExtractedData:   map[string]any{"source_url": content.URL},
		RecommendedHook: "Instant Payouts",
		ClassifiedAt:    time.Now(),
	}
}

// fakeGenerator returns a minimal message on the resolved channel
type fakeGenerator struct{}

func (f *fakeGenerator) Generate(profileID int64, classification domain.Classification, channel domain.Channel) domain.OutreachMessage {
	if channel == "" {
		channel = classification.Ring.DefaultChannel()
	}
	return domain.OutreachMessage{
		ProfileID: profileID,
		Ring:      classification.Ring,
		Channel:   channel,
		Subject:   "Test onderwerp",
		Body:      "Test bericht",
	}
}

type fakeConfig struct{}

func (f *fakeConfig) GetServerConfig() (string, time.Duration) { return ":0", 30 * time.Second }

func newTestServer(database Database) (*Server, *fakePipeline) {
	pipe := &fakePipeline{}
	srv := New(&fakeConfig{}, database, pipe, &fakeClassifier{}, &fakeGenerator{}, "test", false)
	return srv, pipe
}

func doRequest(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, reqBody)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	return rec
}

func TestServer_Status(t *testing.T) {
	srv, _ := newTestServer(&fakeDB{})
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/status", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "test", resp["version"])
}

func TestServer_Rings(t *testing.T) {
	srv, _ := newTestServer(&fakeDB{})
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/rings", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Rings []ringInfo `json:"rings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Rings, 4)
	assert.Equal(t, "Vakman", resp.Rings[0].Name)
	assert.Equal(t, "Academy", resp.Rings[3].Name)
}

func TestServer_Profiles(t *testing.T) {
	database := &fakeDB{profiles: map[int64]*domain.Profile{
		1: {ID: 1, Name: "Jan", Ring: domain.RingVakman, QualityScore: 8.5, SourceURL: "https://a.nl"},
		2: {ID: 2, Name: "Kees", Ring: domain.RingZZP, QualityScore: 6.0, SourceURL: "https://b.nl"},
	}}
	srv, _ := newTestServer(database)

	t.Run("list all", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/profiles", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp []profileResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp, 2)
	})

	t.Run("filter by ring", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/profiles?ring=1", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp []profileResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp, 1)
		assert.Equal(t, "Jan", resp[0].Name)
		assert.Equal(t, "Vakman", resp[0].RingName)
	})

	t.Run("invalid ring rejected", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/profiles?ring=9", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("get by id", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/profiles/2", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp profileResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Kees", resp.Name)
		assert.Equal(t, 2, resp.Ring)
	})

	t.Run("missing id is 404", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/profiles/99", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("non-numeric id rejected", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/v1/profiles/abc", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_Classify(t *testing.T) {
	srv, _ := newTestServer(&fakeDB{})

	t.Run("classifies text", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/classify",
			map[string]string{"text": "bouwbedrijf met 25 jaar ervaring", "source_url": "https://a.nl"})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.InEpsilon(t, 1.0, resp["ring"], 0.001)
		assert.Equal(t, "Vakman", resp["ring_name"])
		assert.Equal(t, "Instant Payouts", resp["recommended_hook"])
	})

	t.Run("empty text rejected", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/classify", map[string]string{"text": ""})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid json rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/classify", bytes.NewBufferString("{broken"))
		rec := httptest.NewRecorder()
		srv.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_Pipeline(t *testing.T) {
	t.Run("runs batch", func(t *testing.T) {
		srv, pipe := newTestServer(&fakeDB{})
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/pipeline",
			map[string]any{"urls": []string{"https://a.nl", "https://b.nl"}, "source_type": "marktplaats"})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp []domain.Result
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp, 2)
		assert.Equal(t, []string{"https://a.nl", "https://b.nl"}, pipe.lastURLs)
		assert.Equal(t, "marktplaats", pipe.lastSource)
		assert.True(t, pipe.lastOutreach, "outreach defaults to on")
	})

	t.Run("outreach can be disabled", func(t *testing.T) {
		srv, pipe := newTestServer(&fakeDB{})
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/pipeline",
			map[string]any{"urls": []string{"https://a.nl"}, "auto_generate_outreach": false})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, pipe.lastOutreach)
		assert.Equal(t, "generic", pipe.lastSource, "source type defaults to generic")
	})

	t.Run("empty urls rejected", func(t *testing.T) {
		srv, _ := newTestServer(&fakeDB{})
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/pipeline", map[string]any{"urls": []string{}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("oversized batch rejected", func(t *testing.T) {
		srv, _ := newTestServer(&fakeDB{})
		urls := make([]string, maxBatchURLs+1)
		for i := range urls {
			urls[i] = fmt.Sprintf("https://site-%d.nl", i)
		}
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/pipeline", map[string]any{"urls": urls})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_GenerateOutreach(t *testing.T) {
	database := &fakeDB{profiles: map[int64]*domain.Profile{
		1: {ID: 1, Name: "Jan", Ring: domain.RingVakman, QualityScore: 8.5},
	}}

	t.Run("generates and stores message", func(t *testing.T) {
		srv, _ := newTestServer(database)
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/outreach/generate",
			map[string]any{"profile_id": 1})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "email", resp["channel"], "vakman defaults to email")
		assert.Equal(t, "Test bericht", resp["body"])
		require.Len(t, database.outreach, 1)
		assert.Equal(t, int64(1), database.outreach[0].ProfileID)
	})

	t.Run("channel override", func(t *testing.T) {
		srv, _ := newTestServer(&fakeDB{profiles: database.profiles})
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/outreach/generate",
			map[string]any{"profile_id": 1, "channel": "dm"})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "dm", resp["channel"])
	})

	t.Run("invalid channel rejected", func(t *testing.T) {
		srv, _ := newTestServer(database)
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/outreach/generate",
			map[string]any{"profile_id": 1, "channel": "fax"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown profile is 404", func(t *testing.T) {
		srv, _ := newTestServer(database)
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/outreach/generate",
			map[string]any{"profile_id": 999})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_Stats(t *testing.T) {
	database := &fakeDB{stats: &db.Stats{
		TotalProfiles:       3,
		ByRing:              map[string]int{"Vakman": 2, "Hobbyist": 1},
		AverageQualityScore: 7.0,
		OutreachSent:        1,
	}}
	srv, _ := newTestServer(database)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp db.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.TotalProfiles)
	assert.Equal(t, 2, resp.ByRing["Vakman"])
}

func TestServer_Ping(t *testing.T) {
	srv, _ := newTestServer(&fakeDB{})
	rec := doRequest(t, srv, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestServer_Run(t *testing.T) {
	srv, _ := newTestServer(&fakeDB{})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := srv.Run(ctx)
	assert.NoError(t, err, "run should exit cleanly on context cancellation")
}
