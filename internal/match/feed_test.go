package match

import (
    "context"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func newTestFeedBuilder(repo Repository) *FeedBuilder {
    return NewFeedBuilder(repo, NewScorer(), nil, 4, DefaultDiversityRatio)
}

func TestBuildFeedLength(t *testing.T) {
    viewer := testProfile(1)
    repo := newFakeRepo(viewer)
    for id := int64(2); id <= 31; id++ {
        repo.profiles[id] = testProfile(id)
    }
    builder := newTestFeedBuilder(repo)

    t.Run("truncates to limit", func(t *testing.T) {
        feed, err := builder.BuildFeed(context.Background(), 1, 10)
        require.NoError(t, err)
        assert.Len(t, feed, 10)
    })

    t.Run("returns all when pool is smaller than limit", func(t *testing.T) {
        feed, err := builder.BuildFeed(context.Background(), 1, 100)
        require.NoError(t, err)
        assert.Len(t, feed, 30)
    })

    t.Run("empty pool yields empty feed", func(t *testing.T) {
        lonely := testProfile(99)
        feed, err := newTestFeedBuilder(newFakeRepo(lonely)).BuildFeed(context.Background(), 99, 10)
        require.NoError(t, err)
        assert.Empty(t, feed)
    })
}

func TestBuildFeedNoDuplicates(t *testing.T) {
    viewer := testProfile(1)
    repo := newFakeRepo(viewer)
    for id := int64(2); id <= 51; id++ {
        repo.profiles[id] = testProfile(id)
    }
    builder := newTestFeedBuilder(repo)

    // Diversity injection samples randomly, so run it a few times.
    for i := 0; i < 20; i++ {
        feed, err := builder.BuildFeed(context.Background(), 1, 20)
        require.NoError(t, err)

        seen := make(map[int64]bool, len(feed))
        for _, entry := range feed {
            assert.False(t, seen[entry.Profile.ID], "duplicate profile %d in feed", entry.Profile.ID)
            seen[entry.Profile.ID] = true
        }
    }
}

func TestBuildFeedExclusions(t *testing.T) {
    viewer := testProfile(1)
    liked := testProfile(2)
    matched := testProfile(3)
    blocked := testProfile(4)
    fresh := testProfile(5)

    repo := newFakeRepo(viewer, liked, matched, blocked, fresh)
    repo.likes[[2]int64{1, 2}] = &LikeRecord{SenderID: 1, ReceiverID: 2, Status: LikePending}
    repo.matches[sortedPair(1, 3)] = &MatchRelation{ID: 1, User1ID: 1, User2ID: 3}
    repo.blocks[[2]int64{4, 1}] = true

    feed, err := newTestFeedBuilder(repo).BuildFeed(context.Background(), 1, 10)
    require.NoError(t, err)

    require.Len(t, feed, 1)
    assert.Equal(t, int64(5), feed[0].Profile.ID)
}

func TestBuildFeedScoresAttached(t *testing.T) {
    viewer := testProfile(1)
    candidate := testProfile(2)
    candidate.Interests = viewer.Interests

    repo := newFakeRepo(viewer, candidate)
    feed, err := newTestFeedBuilder(repo).BuildFeed(context.Background(), 1, 5)
    require.NoError(t, err)
    require.Len(t, feed, 1)

    entry := feed[0]
    assert.Equal(t, entry.Breakdown.Composite, entry.Score)
    assert.GreaterOrEqual(t, entry.Score, 0.0)
    assert.LessOrEqual(t, entry.Score, 100.0)
}

func TestBuildFeedViewerNotFound(t *testing.T) {
    repo := newFakeRepo()
    _, err := newTestFeedBuilder(repo).BuildFeed(context.Background(), 42, 10)
    assert.ErrorIs(t, err, ErrNotFound)
}

func TestBuildFeedCancelledContext(t *testing.T) {
    viewer := testProfile(1)
    repo := newFakeRepo(viewer)
    for id := int64(2); id <= 40; id++ {
        repo.profiles[id] = testProfile(id)
    }

    ctx, cancel := context.WithCancel(context.Background())
    cancel()

    _, err := newTestFeedBuilder(repo).BuildFeed(ctx, 1, 10)
    assert.ErrorIs(t, err, context.Canceled)
}

func TestDiversifyKeepsHighScorers(t *testing.T) {
    builder := newTestFeedBuilder(newFakeRepo())

    scored := make([]*FeedEntry, 10)
    for i := range scored {
        scored[i] = &FeedEntry{Profile: testProfile(int64(i + 1)), Score: float64(100 - i*5)}
    }

    feed := builder.diversify(scored, 10)
    require.Len(t, feed, 10)

    // With pool == size, every reserved entry survives regardless of shuffle.
    ids := make(map[int64]bool)
    for _, e := range feed {
        ids[e.Profile.ID] = true
    }
    for i := int64(1); i <= 8; i++ {
        assert.True(t, ids[i], "reserved profile %d missing", i)
    }
}

func TestStandoutsWithoutCache(t *testing.T) {
    viewer := testProfile(1)

    standout := testProfile(2)
    standout.IsPremium = true
    standout.Credibility = 92
    standout.BehaviorIndex = 88

    ordinary := testProfile(3)

    repo := newFakeRepo(viewer, standout, ordinary)
    got, err := newTestFeedBuilder(repo).Standouts(context.Background(), 1, 10)
    require.NoError(t, err)

    require.Len(t, got, 1)
    assert.Equal(t, int64(2), got[0].ID)
}
