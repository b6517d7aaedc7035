package match

import (
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

var (
    likesTotal = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "match_likes_total",
            Help: "Total likes submitted, by kind",
        },
        []string{"kind"},
    )

    matchesTotal = promauto.NewCounter(
        prometheus.CounterOpts{
            Name: "match_matches_total",
            Help: "Total mutual matches created",
        },
    )

    quotaRejectionsTotal = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "match_quota_rejections_total",
            Help: "Like/boost attempts rejected for insufficient quota, by resource",
        },
        []string{"resource"},
    )

    feedBuildSeconds = promauto.NewHistogram(
        prometheus.HistogramOpts{
            Name:    "match_feed_build_seconds",
            Help:    "Time to build a discovery feed",
            Buckets: prometheus.DefBuckets,
        },
    )

    compositeScores = promauto.NewHistogram(
        prometheus.HistogramOpts{
            Name:    "match_composite_scores",
            Help:    "Distribution of composite match scores",
            Buckets: prometheus.LinearBuckets(0, 10, 11),
        },
    )
)

func RecordLike(kind LikeKind) {
    likesTotal.WithLabelValues(string(kind)).Inc()
}

func RecordMatch() {
    matchesTotal.Inc()
}

func RecordQuotaRejection(resource string) {
    quotaRejectionsTotal.WithLabelValues(resource).Inc()
}

func RecordFeedBuild(duration time.Duration) {
    feedBuildSeconds.Observe(duration.Seconds())
}

func ObserveCompositeScore(score float64) {
    compositeScores.Observe(score)
}
