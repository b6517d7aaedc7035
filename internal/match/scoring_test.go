package match

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestWeightsSumToOne(t *testing.T) {
    sum := weightCompatibility + weightProximity + weightActivity + weightCredibility + weightPreferenceFit
    assert.InDelta(t, 1.0, sum, 1e-9)

    subSum := weightInterests + weightLifestyle + weightValues
    assert.InDelta(t, 1.0, subSum, 1e-9)
}

func TestScoreBoundsAndDeterminism(t *testing.T) {
    scorer := NewScorer()
    viewer := testProfile(1)
    candidate := testProfile(2)
    candidate.Credibility = 95
    candidate.Interests = []string{"hiking", "cooking"}

    first := scorer.Score(viewer, candidate)
    second := scorer.Score(viewer, candidate)

    assert.Equal(t, first, second)

    for name, v := range map[string]float64{
        "compatibility":  first.Compatibility,
        "proximity":      first.Proximity,
        "activity":       first.Activity,
        "credibility":    first.Credibility,
        "preference_fit": first.PreferenceFit,
        "composite":      first.Composite,
    } {
        assert.GreaterOrEqual(t, v, 0.0, name)
        assert.LessOrEqual(t, v, 100.0, name)
    }
}

func TestProximityScore(t *testing.T) {
    scorer := NewScorer()

    viewer := testProfile(1)
    viewer.MaxDistanceKm = 100

    t.Run("same location scores full", func(t *testing.T) {
        candidate := testProfile(2)
        candidate.LocationLat = viewer.LocationLat
        candidate.LocationLng = viewer.LocationLng
        assert.InDelta(t, 100.0, scorer.proximityScore(viewer, candidate), 0.01)
    })

    t.Run("closer candidate scores higher", func(t *testing.T) {
        near := testProfile(2)
        nearLat, nearLng := 40.75, -74.0 // a few km away
        near.LocationLat, near.LocationLng = &nearLat, &nearLng

        far := testProfile(3)
        farLat, farLng := 41.2, -74.5
        far.LocationLat, far.LocationLng = &farLat, &farLng

        assert.Greater(t, scorer.proximityScore(viewer, near), scorer.proximityScore(viewer, far))
    })

    t.Run("beyond max distance scores zero", func(t *testing.T) {
        candidate := testProfile(2)
        lat, lng := 51.5074, -0.1278 // London, well past 100km from NYC
        candidate.LocationLat, candidate.LocationLng = &lat, &lng
        assert.Equal(t, 0.0, scorer.proximityScore(viewer, candidate))
    })

    t.Run("missing location is neutral", func(t *testing.T) {
        candidate := testProfile(2)
        candidate.LocationLat = nil
        candidate.LocationLng = nil
        assert.Equal(t, neutralScore, scorer.proximityScore(viewer, candidate))
    })
}

func TestInterestOverlap(t *testing.T) {
    assert.Equal(t, 100.0, interestOverlap([]string{"a", "b"}, []string{"b", "a"}))
    assert.Equal(t, 0.0, interestOverlap([]string{"a"}, []string{"b"}))
    assert.Equal(t, neutralScore, interestOverlap(nil, []string{"a"}))
    assert.Equal(t, neutralScore, interestOverlap([]string{"a"}, nil))

    // {a,b,c} vs {b,c,d}: intersection 2, union 4
    assert.InDelta(t, 50.0, interestOverlap([]string{"a", "b", "c"}, []string{"b", "c", "d"}), 0.01)

    // Duplicates collapse before the ratio is taken.
    assert.Equal(t, 100.0, interestOverlap([]string{"a", "a"}, []string{"a"}))
}

func TestFieldMatchScore(t *testing.T) {
    t.Run("exact matches score full", func(t *testing.T) {
        score := fieldMatchScore([]fieldPair{
            {"drinking", strPtr("socially"), strPtr("socially")},
            {"smoking", strPtr("never"), strPtr("never")},
        }, lifestyleAdjacency)
        assert.Equal(t, 100.0, score)
    })

    t.Run("adjacent answers score half", func(t *testing.T) {
        score := fieldMatchScore([]fieldPair{
            {"drinking", strPtr("socially"), strPtr("regularly")},
        }, lifestyleAdjacency)
        assert.Equal(t, 50.0, score)
    })

    t.Run("distant answers score zero", func(t *testing.T) {
        score := fieldMatchScore([]fieldPair{
            {"drinking", strPtr("never"), strPtr("regularly")},
        }, lifestyleAdjacency)
        assert.Equal(t, 0.0, score)
    })

    t.Run("unanswered fields are skipped", func(t *testing.T) {
        score := fieldMatchScore([]fieldPair{
            {"drinking", strPtr("never"), nil},
            {"smoking", strPtr("never"), strPtr("never")},
        }, lifestyleAdjacency)
        assert.Equal(t, 100.0, score)
    })

    t.Run("nothing comparable is neutral", func(t *testing.T) {
        score := fieldMatchScore([]fieldPair{
            {"drinking", nil, strPtr("never")},
        }, lifestyleAdjacency)
        assert.Equal(t, neutralScore, score)
    })
}

func TestValuesAdjacency(t *testing.T) {
    score := fieldMatchScore([]fieldPair{
        {"children", strPtr("want"), strPtr("open")},
        {"politics", strPtr("liberal"), strPtr("conservative")},
    }, valuesAdjacency)
    // one adjacent (1 point) + one distant (0) over 2 compared fields
    assert.Equal(t, 25.0, score)
}

func TestCompatibilitySymmetry(t *testing.T) {
    scorer := NewScorer()

    a := testProfile(1)
    a.Interests = []string{"hiking", "jazz", "cooking"}
    a.Lifestyle.Drinking = strPtr("socially")
    a.Lifestyle.Workout = strPtr("daily")
    a.Values.Children = strPtr("want")
    a.Values.Politics = strPtr("liberal")

    b := testProfile(2)
    b.Interests = []string{"jazz", "climbing"}
    b.Lifestyle.Drinking = strPtr("regularly")
    b.Values.Children = strPtr("open")
    b.Values.Politics = strPtr("conservative")

    assert.Equal(t, scorer.Score(a, b).Compatibility, scorer.Score(b, a).Compatibility)

    // The symmetry holds piecewise too.
    assert.Equal(t, interestOverlap(a.Interests, b.Interests), interestOverlap(b.Interests, a.Interests))
    forward := fieldMatchScore([]fieldPair{{"drinking", a.Lifestyle.Drinking, b.Lifestyle.Drinking}}, lifestyleAdjacency)
    reverse := fieldMatchScore([]fieldPair{{"drinking", b.Lifestyle.Drinking, a.Lifestyle.Drinking}}, lifestyleAdjacency)
    assert.Equal(t, forward, reverse)
}

func TestScoreFaultDegradesToNeutral(t *testing.T) {
    scorer := NewScorer()
    nowFunc = func() time.Time { panic("clock unavailable") }
    defer func() { nowFunc = time.Now }()

    // One faulting signal must not take down a feed request; the whole
    // breakdown degrades to neutral.
    breakdown := scorer.Score(testProfile(1), testProfile(2))
    assert.Equal(t, ScoreBreakdown{
        Compatibility: neutralScore,
        Proximity:     neutralScore,
        Activity:      neutralScore,
        Credibility:   neutralScore,
        PreferenceFit: neutralScore,
        Composite:     neutralScore,
    }, breakdown)
}

func TestActivityBuckets(t *testing.T) {
    scorer := NewScorer()
    now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
    nowFunc = func() time.Time { return now }
    defer func() { nowFunc = time.Now }()

    cases := []struct {
        name string
        idle time.Duration
        want float64
    }{
        {"active within the hour", 30 * time.Minute, 100},
        {"active today", 5 * time.Hour, 80},
        {"active this week", 3 * 24 * time.Hour, 60},
        {"active this month", 20 * 24 * time.Hour, 40},
        {"dormant", 60 * 24 * time.Hour, 20},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            candidate := testProfile(2)
            candidate.LastActive = now.Add(-tc.idle)
            assert.Equal(t, tc.want, scorer.activityScore(candidate))
        })
    }
}

func TestPreferenceFit(t *testing.T) {
    scorer := NewScorer()

    viewer := testProfile(1)
    viewer.MinAgePref = 25
    viewer.MaxAgePref = 35
    viewer.GenderPreference = PrefFemale

    t.Run("inside all preferences", func(t *testing.T) {
        candidate := testProfile(2)
        candidate.Age = 30
        candidate.Gender = GenderFemale
        assert.Equal(t, 100.0, scorer.preferenceFit(viewer, candidate))
    })

    t.Run("age outside window", func(t *testing.T) {
        candidate := testProfile(2)
        candidate.Age = 45
        candidate.Gender = GenderFemale
        assert.Equal(t, 70.0, scorer.preferenceFit(viewer, candidate))
    })

    t.Run("gender mismatch", func(t *testing.T) {
        candidate := testProfile(2)
        candidate.Age = 30
        candidate.Gender = GenderMale
        assert.Equal(t, 50.0, scorer.preferenceFit(viewer, candidate))
    })

    t.Run("both penalties floor at zero not below", func(t *testing.T) {
        candidate := testProfile(2)
        candidate.Age = 50
        candidate.Gender = GenderMale
        assert.Equal(t, 20.0, scorer.preferenceFit(viewer, candidate))
    })
}

func TestCredibilityClamped(t *testing.T) {
    scorer := NewScorer()
    viewer := testProfile(1)

    candidate := testProfile(2)
    candidate.Credibility = 250

    breakdown := scorer.Score(viewer, candidate)
    require.Equal(t, 100.0, breakdown.Credibility)
    assert.LessOrEqual(t, breakdown.Composite, 100.0)
}

func TestHaversineKnownDistance(t *testing.T) {
    // NYC to Philadelphia, roughly 130km
    d := haversineKm(40.7128, -74.0060, 39.9526, -75.1652)
    assert.InDelta(t, 130, d, 5)
}
