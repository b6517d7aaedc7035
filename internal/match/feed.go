package match

import (
    "context"
    "encoding/json"
    "fmt"
    "log"
    "math/rand"
    "sort"
    "sync"
    "time"

    "github.com/go-redis/redis/v8"
)

const (
    // DefaultDiversityRatio is the fraction of the feed replaced by a random
    // sample from the rest of the scored pool.
    DefaultDiversityRatio = 0.2

    // overfetchFactor gives post-filtering headroom when querying candidates.
    overfetchFactor = 2

    standoutsCacheTTL = 10 * time.Minute
)

// FeedEntry pairs a candidate with its score for the discovery response.
type FeedEntry struct {
    Profile   *Profile       `json:"profile"`
    Score     float64        `json:"score"`
    Breakdown ScoreBreakdown `json:"breakdown"`
}

type FeedBuilder struct {
    repo           Repository
    scorer         *Scorer
    cache          *redis.Client // nil disables standouts caching
    workers        int
    diversityRatio float64
}

func NewFeedBuilder(repo Repository, scorer *Scorer, cache *redis.Client, workers int, diversityRatio float64) *FeedBuilder {
    if workers < 1 {
        workers = 4
    }
    if diversityRatio < 0 || diversityRatio > 1 {
        diversityRatio = DefaultDiversityRatio
    }
    return &FeedBuilder{
        repo:           repo,
        scorer:         scorer,
        cache:          cache,
        workers:        workers,
        diversityRatio: diversityRatio,
    }
}

// BuildFeed produces the ordered discovery feed for a viewer: over-fetch
// candidates through the hard filters, score them concurrently, rank, inject
// diversity, truncate.
func (b *FeedBuilder) BuildFeed(ctx context.Context, viewerID int64, limit int) ([]*FeedEntry, error) {
    start := time.Now()

    viewer, err := b.repo.GetProfile(ctx, viewerID)
    if err != nil {
        return nil, err
    }

    filter := CandidateFilter{
        Gender: viewer.GenderPreference,
        MinAge: viewer.MinAgePref,
        MaxAge: viewer.MaxAgePref,
        Limit:  overfetchFactor * limit,
    }
    if filter.Gender == "" {
        filter.Gender = PrefEveryone
    }

    candidates, err := b.repo.FindCandidates(ctx, viewer, filter)
    if err != nil {
        return nil, err
    }

    scored, err := b.scoreAll(ctx, viewer, candidates)
    if err != nil {
        return nil, err
    }

    // Stable sort keeps insertion order on ties.
    sort.SliceStable(scored, func(i, j int) bool {
        return scored[i].Score > scored[j].Score
    })

    feed := b.diversify(scored, limit)

    RecordFeedBuild(time.Since(start))
    return feed, nil
}

// scoreAll fans candidates out to a bounded worker pool. Scoring is pure, so
// workers share nothing but the jobs channel; cancellation abandons the
// remaining work cooperatively.
func (b *FeedBuilder) scoreAll(ctx context.Context, viewer *Profile, candidates []*Profile) ([]*FeedEntry, error) {
    entries := make([]*FeedEntry, len(candidates))
    jobs := make(chan int)

    var wg sync.WaitGroup
    for w := 0; w < b.workers; w++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            for {
                select {
                case <-ctx.Done():
                    return
                case i, ok := <-jobs:
                    if !ok {
                        return
                    }
                    breakdown := b.scorer.Score(viewer, candidates[i])
                    ObserveCompositeScore(breakdown.Composite)
                    entries[i] = &FeedEntry{
                        Profile:   candidates[i],
                        Score:     breakdown.Composite,
                        Breakdown: breakdown,
                    }
                }
            }
        }()
    }

feed:
    for i := range candidates {
        select {
        case <-ctx.Done():
            break feed
        case jobs <- i:
        }
    }
    close(jobs)
    wg.Wait()

    if err := ctx.Err(); err != nil {
        return nil, err
    }
    return entries, nil
}

// diversify keeps the top (1-r) share of the feed and fills the remaining r
// share with a uniform sample drawn from the scored pool outside the reserved
// set, then shuffles the combined list. Feed order is deliberately not a
// strict score ranking.
func (b *FeedBuilder) diversify(scored []*FeedEntry, limit int) []*FeedEntry {
    size := limit
    if len(scored) < size {
        size = len(scored)
    }
    if size == 0 {
        return []*FeedEntry{}
    }

    reserved := int(float64(size) * (1 - b.diversityRatio))
    wildcards := size - reserved

    feed := make([]*FeedEntry, 0, size)
    feed = append(feed, scored[:reserved]...)

    // Sample without replacement from everything past the reserved head, so
    // the feed can never contain a duplicate.
    pool := scored[reserved:]
    for _, idx := range rand.Perm(len(pool))[:wildcards] {
        feed = append(feed, pool[idx])
    }

    rand.Shuffle(len(feed), func(i, j int) {
        feed[i], feed[j] = feed[j], feed[i]
    })

    return feed
}

// Standouts returns the curated premium list. The result is cached
// best-effort: a Redis outage falls through to Postgres.
func (b *FeedBuilder) Standouts(ctx context.Context, viewerID int64, limit int) ([]*Profile, error) {
    cacheKey := fmt.Sprintf("standouts:%d:%d", viewerID, limit)

    if b.cache != nil {
        if raw, err := b.cache.Get(ctx, cacheKey).Bytes(); err == nil {
            var cached []*Profile
            if err := json.Unmarshal(raw, &cached); err == nil {
                return cached, nil
            }
        }
    }

    standouts, err := b.repo.FindStandouts(ctx, viewerID, limit)
    if err != nil {
        return nil, err
    }

    if b.cache != nil {
        if raw, err := json.Marshal(standouts); err == nil {
            if err := b.cache.Set(ctx, cacheKey, raw, standoutsCacheTTL).Err(); err != nil {
                log.Printf("standouts cache write failed: %v", err)
            }
        }
    }
    return standouts, nil
}
