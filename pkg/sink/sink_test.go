package sink

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelscraper/pkg/models"
)

func openTestSink(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func samplePost(id, shortcode string) models.Post {
	return models.Post{
		ID:            id,
		Shortcode:     shortcode,
		URL:           "https://www.instagram.com/reel/" + shortcode + "/",
		Caption:       "sunset timelapse",
		ViewCount:     54321,
		LikeCount:     1200,
		CommentCount:  34,
		PostedAt:      time.Unix(1700000000, 0).UTC(),
		PostedAtKnown: true,
		Author:        models.Author{Username: "alice", FollowerCount: 5000},
	}
}

func TestStoreAndCount(t *testing.T) {
	s := openTestSink(t)
	ctx := context.Background()

	err := s.Store(ctx, []models.Post{
		samplePost("17900001", "Cabc123defG"),
		samplePost("17900002", "Cxyz789defG"),
	})
	require.NoError(t, err)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStoreUpsertsByIdentity(t *testing.T) {
	s := openTestSink(t)
	ctx := context.Background()

	first := samplePost("17900001", "Cabc123defG")
	require.NoError(t, s.Store(ctx, []models.Post{first}))

	updated := first
	updated.ViewCount = 99999
	require.NoError(t, s.Store(ctx, []models.Post{updated}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "same identity must not create a second row")

	var views int64
	err = s.db.QueryRowContext(ctx,
		"SELECT view_count FROM posts WHERE identity = ?", first.Identity()).Scan(&views)
	require.NoError(t, err)
	assert.Equal(t, int64(99999), views, "upsert must refresh counts")
}

func TestStoreEmptyIsNoop(t *testing.T) {
	s := openTestSink(t)
	assert.NoError(t, s.Store(context.Background(), nil))

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStoreShortcodeOnlyRecords(t *testing.T) {
	s := openTestSink(t)
	ctx := context.Background()

	skeleton := models.Post{
		Shortcode: "AAAAA111",
		URL:       "https://www.instagram.com/reel/AAAAA111/",
		PostedAt:  time.Now(),
	}
	require.NoError(t, s.Store(ctx, []models.Post{skeleton, skeleton}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "records without an ID dedupe on shortcode")
}

func TestOpenSQLiteCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "reels.db")

	s, err := OpenSQLite(path, nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Store(context.Background(), []models.Post{samplePost("1", "AAAAA111")}))
}

func TestNoopSink(t *testing.T) {
	var s Sink = Noop{}
	assert.NoError(t, s.Store(context.Background(), []models.Post{samplePost("1", "AAAAA111")}))
	assert.NoError(t, s.Close())
}
