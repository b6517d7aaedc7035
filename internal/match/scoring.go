package match

import (
    "log"
    "math"
    "time"
)

// nowFunc is swapped out by activity-bucket tests.
var nowFunc = time.Now

const (
    time1h  = time.Hour
    time24h = 24 * time.Hour
    time7d  = 7 * 24 * time.Hour
    time30d = 30 * 24 * time.Hour
)

// Composite weights. They must sum to 1.0; TestWeightsSumToOne guards the
// invariant.
const (
    weightCompatibility = 0.35
    weightProximity     = 0.25
    weightActivity      = 0.20
    weightCredibility   = 0.15
    weightPreferenceFit = 0.05
)

// Compatibility sub-term weights.
const (
    weightInterests = 0.4
    weightLifestyle = 0.3
    weightValues    = 0.3
)

// neutralScore is used whenever a signal is missing or a scorer faults.
const neutralScore = 50.0

const earthRadiusKm = 6371

// Adjacency tables: answers one step apart score half credit. Keys are
// unordered pairs.
var lifestyleAdjacency = map[string][][2]string{
    "drinking": {{"never", "rarely"}, {"rarely", "socially"}, {"socially", "regularly"}},
    "smoking":  {{"never", "trying_to_quit"}, {"trying_to_quit", "socially"}, {"socially", "regularly"}},
    "workout":  {{"never", "sometimes"}, {"sometimes", "often"}, {"often", "daily"}},
}

var valuesAdjacency = map[string][][2]string{
    "children": {{"want", "open"}, {"open", "unsure"}, {"unsure", "dont_want"}},
    "religion": {{"not_important", "somewhat_important"}, {"somewhat_important", "very_important"}},
    "politics": {{"liberal", "moderate"}, {"moderate", "conservative"}},
}

type Scorer struct{}

func NewScorer() *Scorer {
    return &Scorer{}
}

// Score computes the full breakdown for viewer looking at candidate. It is
// pure and never fails: one candidate with malformed data must not take down
// a feed request, so an internal fault degrades to the neutral composite.
func (s *Scorer) Score(viewer, candidate *Profile) (breakdown ScoreBreakdown) {
    defer func() {
        if r := recover(); r != nil {
            log.Printf("scoring fault for candidate %d: %v", candidate.ID, r)
            breakdown = ScoreBreakdown{
                Compatibility: neutralScore,
                Proximity:     neutralScore,
                Activity:      neutralScore,
                Credibility:   neutralScore,
                PreferenceFit: neutralScore,
                Composite:     neutralScore,
            }
        }
    }()

    breakdown.Compatibility = s.compatibilityScore(viewer, candidate)
    breakdown.Proximity = s.proximityScore(viewer, candidate)
    breakdown.Activity = s.activityScore(candidate)
    breakdown.Credibility = clamp(candidate.Credibility, 0, 100)
    breakdown.PreferenceFit = s.preferenceFit(viewer, candidate)

    breakdown.Composite = math.Round(
        weightCompatibility*breakdown.Compatibility +
            weightProximity*breakdown.Proximity +
            weightActivity*breakdown.Activity +
            weightCredibility*breakdown.Credibility +
            weightPreferenceFit*breakdown.PreferenceFit)

    return breakdown
}

// proximityScore decays linearly with distance up to the viewer's max
// distance preference. Missing coordinates on either side are neutral.
func (s *Scorer) proximityScore(viewer, candidate *Profile) float64 {
    vLoc, cLoc := viewer.Location(), candidate.Location()
    if vLoc == nil || cLoc == nil {
        return neutralScore
    }
    if viewer.MaxDistanceKm <= 0 {
        return neutralScore
    }

    distance := haversineKm(vLoc.Lat, vLoc.Lng, cLoc.Lat, cLoc.Lng)
    if distance >= viewer.MaxDistanceKm {
        return 0
    }
    return clamp(100*(1-distance/viewer.MaxDistanceKm), 0, 100)
}

func (s *Scorer) activityScore(candidate *Profile) float64 {
    idle := nowFunc().Sub(candidate.LastActive)
    switch {
    case idle < time1h:
        return 100
    case idle < time24h:
        return 80
    case idle < time7d:
        return 60
    case idle < time30d:
        return 40
    default:
        return 20
    }
}

func (s *Scorer) compatibilityScore(viewer, candidate *Profile) float64 {
    interests := interestOverlap(viewer.Interests, candidate.Interests)

    lifestyle := fieldMatchScore([]fieldPair{
        {"drinking", viewer.Lifestyle.Drinking, candidate.Lifestyle.Drinking},
        {"smoking", viewer.Lifestyle.Smoking, candidate.Lifestyle.Smoking},
        {"workout", viewer.Lifestyle.Workout, candidate.Lifestyle.Workout},
    }, lifestyleAdjacency)

    values := fieldMatchScore([]fieldPair{
        {"children", viewer.Values.Children, candidate.Values.Children},
        {"religion", viewer.Values.Religion, candidate.Values.Religion},
        {"politics", viewer.Values.Politics, candidate.Values.Politics},
    }, valuesAdjacency)

    return clamp(weightInterests*interests+weightLifestyle*lifestyle+weightValues*values, 0, 100)
}

// interestOverlap is Jaccard similarity scaled to 0-100. An empty set on
// either side gives no signal, so it defaults to neutral rather than zero.
func interestOverlap(a, b []string) float64 {
    if len(a) == 0 || len(b) == 0 {
        return neutralScore
    }

    seen := make(map[string]bool, len(a))
    for _, interest := range a {
        seen[interest] = true
    }

    intersection := 0
    for _, interest := range b {
        if seen[interest] {
            intersection++
        }
    }

    union := len(seen) + uniqueCount(b) - intersection
    if union == 0 {
        return neutralScore
    }
    return 100 * float64(intersection) / float64(union)
}

func uniqueCount(values []string) int {
    seen := make(map[string]bool, len(values))
    for _, v := range values {
        seen[v] = true
    }
    return len(seen)
}

type fieldPair struct {
    field     string
    viewer    *string
    candidate *string
}

// fieldMatchScore awards 2 points for an exact answer match and 1 point for
// answers one step apart in the adjacency table, normalized by the number of
// fields both sides answered. No comparable fields means no signal.
func fieldMatchScore(pairs []fieldPair, adjacency map[string][][2]string) float64 {
    points, compared := 0, 0
    for _, p := range pairs {
        if p.viewer == nil || p.candidate == nil {
            continue
        }
        compared++
        switch {
        case *p.viewer == *p.candidate:
            points += 2
        case isAdjacent(adjacency[p.field], *p.viewer, *p.candidate):
            points++
        }
    }

    if compared == 0 {
        return neutralScore
    }
    return 100 * float64(points) / float64(2*compared)
}

func isAdjacent(pairs [][2]string, a, b string) bool {
    for _, p := range pairs {
        if (p[0] == a && p[1] == b) || (p[0] == b && p[1] == a) {
            return true
        }
    }
    return false
}

// preferenceFit penalizes candidates outside the viewer's stated hard
// preferences without excluding them outright.
func (s *Scorer) preferenceFit(viewer, candidate *Profile) float64 {
    fit := 100.0

    if viewer.MinAgePref > 0 && viewer.MaxAgePref > 0 {
        if candidate.Age < viewer.MinAgePref || candidate.Age > viewer.MaxAgePref {
            fit -= 30
        }
    }

    if viewer.GenderPreference != PrefEveryone && viewer.GenderPreference != "" {
        if string(candidate.Gender) != string(viewer.GenderPreference) {
            fit -= 50
        }
    }

    return math.Max(fit, 0)
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
    dLat := (lat2 - lat1) * math.Pi / 180
    dLon := (lon2 - lon1) * math.Pi / 180

    a := math.Sin(dLat/2)*math.Sin(dLat/2) +
        math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
            math.Sin(dLon/2)*math.Sin(dLon/2)

    c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

    return earthRadiusKm * c
}

func clamp(v, lo, hi float64) float64 {
    return math.Min(hi, math.Max(lo, v))
}
