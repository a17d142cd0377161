package service

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drforse/match/internal/errors"
	"github.com/drforse/match/internal/fetch"
	"github.com/drforse/match/internal/index"
	"github.com/drforse/match/internal/logging"
	"github.com/drforse/match/internal/signature"
)

func encodePNG(t *testing.T, f func(x, y int) uint8) []byte {
	t.Helper()
	const size = 100
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := f(x, y)
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func catImage(t *testing.T) []byte {
	return encodePNG(t, func(x, y int) uint8 {
		return uint8(128 + 90*math.Sin(float64(x)/7.0)*math.Cos(float64(y)/11.0))
	})
}

func dogImage(t *testing.T) []byte {
	return encodePNG(t, func(x, y int) uint8 {
		return uint8(128 + 90*math.Cos(float64(x)/13.0)*math.Sin(float64(y)/5.0))
	})
}

func gradientImage(t *testing.T) []byte {
	return encodePNG(t, func(x, y int) uint8 { return uint8((x * 255) / 99) })
}

func mirroredGradientImage(t *testing.T) []byte {
	return encodePNG(t, func(x, y int) uint8 { return uint8(((99 - x) * 255) / 99) })
}

type fixture struct {
	store      *index.Memory
	registry   *Registry
	searcher   *Searcher
	comparer   *Comparer
	enumerator *Enumerator
}

func newFixture(cfg Config) *fixture {
	logger := logging.DiscardLogger()
	store := index.NewMemory(logger)
	engine := signature.NewEngine()
	fetcher := fetch.New(time.Second, 0)
	return &fixture{
		store:      store,
		registry:   NewRegistry(store, engine, fetcher, logger),
		searcher:   NewSearcher(store, engine, fetcher, cfg, logger),
		comparer:   NewComparer(engine, fetcher),
		enumerator: NewEnumerator(store),
	}
}

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

func TestScoreConversionBijection(t *testing.T) {
	for d := 0.0; d <= 1.0; d += 0.01 {
		assert.InDelta(t, d, DistanceFromScore(ScoreFromDistance(d)), 1e-9)
	}
	assert.Equal(t, 100.0, ScoreFromDistance(0))
	assert.Equal(t, 0.0, ScoreFromDistance(1))
	assert.Equal(t, 0.0, DistanceFromScore(100))
	assert.Equal(t, 1.0, DistanceFromScore(0))
}

func TestAddSearchRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{DefaultMinScore: 80})

	meta := json.RawMessage(`{"tag":"cat"}`)
	require.NoError(t, f.registry.Add(ctx, ByValue(catImage(t), "cats/1.jpg"), meta))

	hits, err := f.searcher.Search(ctx, ByValue(catImage(t), ""), SearchOptions{MinScore: floatPtr(90)})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 100.0, hits[0].Score, 0.01)
	assert.Equal(t, "cats/1.jpg", hits[0].Filepath)
	assert.JSONEq(t, `{"tag":"cat"}`, string(hits[0].Metadata))
}

func TestAddRawBytesWithoutPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	err := f.registry.Add(ctx, ByValue(catImage(t), ""), nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))

	count, err := f.enumerator.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "a rejected add must not mutate the index")
}

func TestAddReplacesPreviousRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	require.NoError(t, f.registry.Add(ctx, ByValue(catImage(t), "x.jpg"), nil))
	require.NoError(t, f.registry.Add(ctx, ByValue(dogImage(t), "x.jpg"), nil))

	paths, err := f.enumerator.ListPaths(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"x.jpg"}, paths)

	count, err := f.enumerator.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// The surviving record carries the newest signature.
	hits, err := f.searcher.Search(ctx, ByValue(dogImage(t), ""), SearchOptions{MinScore: floatPtr(95)})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "x.jpg", hits[0].Filepath)
}

func TestAddReplacementKeepsLatestMetadata(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	require.NoError(t, f.registry.Add(ctx, ByValue(catImage(t), "x.jpg"), json.RawMessage(`{"v":1}`)))
	require.NoError(t, f.registry.Add(ctx, ByValue(catImage(t), "x.jpg"), json.RawMessage(`{"v":2}`)))

	hits, err := f.searcher.Search(ctx, ByValue(catImage(t), ""), SearchOptions{MinScore: floatPtr(90)})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.JSONEq(t, `{"v":2}`, string(hits[0].Metadata))
}

func TestDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	require.NoError(t, f.registry.Add(ctx, ByValue(catImage(t), "x.jpg"), nil))
	require.NoError(t, f.registry.Delete(ctx, "x.jpg"))
	require.NoError(t, f.registry.Delete(ctx, "x.jpg"))
	require.NoError(t, f.registry.Delete(ctx, "never-added.jpg"))

	count, err := f.enumerator.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDeleteRequiresPath(t *testing.T) {
	f := newFixture(Config{})
	err := f.registry.Delete(context.Background(), "")
	assert.True(t, errors.IsInvalidInput(err))
}

func TestCutoffMonotonicity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	require.NoError(t, f.registry.Add(ctx, ByValue(catImage(t), "cat.jpg"), nil))
	require.NoError(t, f.registry.Add(ctx, ByValue(dogImage(t), "dog.jpg"), nil))
	require.NoError(t, f.registry.Add(ctx, ByValue(gradientImage(t), "grad.jpg"), nil))

	last := 4
	for _, minScore := range []float64{0, 50, 90, 100} {
		hits, err := f.searcher.Search(ctx, ByValue(catImage(t), ""), SearchOptions{MinScore: floatPtr(minScore)})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(hits), last, "raising min_score must not grow the result set")
		last = len(hits)
	}
}

func TestSearchEmptyResultIsSuccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	hits, err := f.searcher.Search(ctx, ByValue(catImage(t), ""), SearchOptions{MinScore: floatPtr(90)})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchAllOrientations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	require.NoError(t, f.registry.Add(ctx, ByValue(mirroredGradientImage(t), "mirror.jpg"), nil))

	probe := ByValue(gradientImage(t), "")
	hits, err := f.searcher.Search(ctx, probe, SearchOptions{MinScore: floatPtr(80), AllOrientations: boolPtr(false)})
	require.NoError(t, err)
	assert.Empty(t, hits, "the mirrored record is not reachable as-is")

	hits, err = f.searcher.Search(ctx, probe, SearchOptions{MinScore: floatPtr(80), AllOrientations: boolPtr(true)})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "mirror.jpg", hits[0].Filepath)
}

func TestSearchDefaultsComeFromConfig(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{DefaultMinScore: 101})

	require.NoError(t, f.registry.Add(ctx, ByValue(catImage(t), "cat.jpg"), nil))

	// The impossible process-wide default filters everything out...
	hits, err := f.searcher.Search(ctx, ByValue(catImage(t), ""), SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, hits)

	// ...until the request overrides it.
	hits, err = f.searcher.Search(ctx, ByValue(catImage(t), ""), SearchOptions{MinScore: floatPtr(90)})
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestCompareSymmetry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	a := ByValue(catImage(t), "")
	b := ByValue(dogImage(t), "")

	ab, err := f.comparer.Compare(ctx, a, b)
	require.NoError(t, err)
	ba, err := f.comparer.Compare(ctx, b, a)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
}

func TestCompareIdenticalImages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	score, err := f.comparer.Compare(ctx, ByValue(catImage(t), ""), ByValue(catImage(t), ""))
	require.NoError(t, err)
	assert.Equal(t, 100.0, score)
}

func TestCompareUndecodableImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	_, err := f.comparer.Compare(ctx, ByValue([]byte("junk"), ""), ByValue(catImage(t), ""))
	assert.True(t, errors.IsImageDecode(err))

	_, err = f.comparer.Compare(ctx, ByValue(catImage(t), ""), ByValue([]byte("junk"), ""))
	assert.True(t, errors.IsImageDecode(err))
}

func TestEnumeratorClampsArguments(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	require.NoError(t, f.registry.Add(ctx, ByValue(catImage(t), "a.jpg"), nil))

	paths, err := f.enumerator.ListPaths(ctx, -5, -1)
	require.NoError(t, err)
	assert.Empty(t, paths)

	paths, err = f.enumerator.ListPaths(ctx, -5, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg"}, paths)
}

func TestAddByReferenceUsesURLAsPath(t *testing.T) {
	ctx := context.Background()
	img := catImage(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(img)
	}))
	defer srv.Close()

	f := newFixture(Config{})
	url := srv.URL + "/cats/remote.png"
	require.NoError(t, f.registry.Add(ctx, ByReference(url), nil))

	paths, err := f.enumerator.ListPaths(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{url}, paths)

	hits, err := f.searcher.Search(ctx, ByReference(url), SearchOptions{MinScore: floatPtr(90)})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, url, hits[0].Filepath)
}

func TestAddByReferenceWithExplicitPath(t *testing.T) {
	ctx := context.Background()
	img := catImage(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(img)
	}))
	defer srv.Close()

	f := newFixture(Config{})
	require.NoError(t, f.registry.Add(ctx, ByReference(srv.URL).WithPath("cats/1.jpg"), nil))

	paths, err := f.enumerator.ListPaths(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"cats/1.jpg"}, paths)
}

func TestAddUnreachableURL(t *testing.T) {
	ctx := context.Background()
	f := newFixture(Config{})

	err := f.registry.Add(ctx, ByReference("http://127.0.0.1:1/nothing.jpg"), nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeNetwork))

	count, err := f.enumerator.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
