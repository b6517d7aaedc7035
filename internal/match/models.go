package match

import (
    "time"

    "github.com/lib/pq"
)

type Gender string

const (
    GenderMale      Gender = "male"
    GenderFemale    Gender = "female"
    GenderNonBinary Gender = "nonbinary"
)

// GenderPreference is stored as the gender the user wants to see,
// or "everyone" when unrestricted.
type GenderPreference string

const (
    PrefMale     GenderPreference = "male"
    PrefFemale   GenderPreference = "female"
    PrefEveryone GenderPreference = "everyone"
)

type LikeKind string

const (
    LikeStandard LikeKind = "standard"
    LikeRose     LikeKind = "rose"
    LikeSuper    LikeKind = "super"
)

type LikeStatus string

const (
    LikePending LikeStatus = "pending"
    LikeMatched LikeStatus = "matched"
)

type GeoPoint struct {
    Lat float64 `json:"lat"`
    Lng float64 `json:"lng"`
}

// Lifestyle holds the enumerated lifestyle answers a user may have filled in.
// Nil means the question was skipped; scorers only compare fields present on
// both profiles.
type Lifestyle struct {
    Drinking *string `json:"drinking,omitempty" db:"drinking"`
    Smoking  *string `json:"smoking,omitempty" db:"smoking"`
    Workout  *string `json:"workout,omitempty" db:"workout"`
}

// Values holds the enumerated values answers.
type Values struct {
    Children *string `json:"children,omitempty" db:"children"`
    Religion *string `json:"religion,omitempty" db:"religion"`
    Politics *string `json:"politics,omitempty" db:"politics"`
}

// Profile is the engine's read model of a user. It is owned by the user
// directory; the engine only mutates the quota counters and like/match
// bookkeeping through Repository.
type Profile struct {
    ID               int64            `json:"id" db:"id"`
    DisplayName      string           `json:"display_name" db:"display_name"`
    Age              int              `json:"age" db:"age"`
    Gender           Gender           `json:"gender" db:"gender"`
    GenderPreference GenderPreference `json:"gender_preference" db:"gender_preference"`
    ProfilePicture   *string          `json:"profile_picture,omitempty" db:"profile_picture"`

    // Location
    LocationLat *float64 `json:"location_lat,omitempty" db:"location_lat"`
    LocationLng *float64 `json:"location_lng,omitempty" db:"location_lng"`

    // Attributes
    Interests pq.StringArray `json:"interests" db:"interests"`
    Lifestyle Lifestyle      `json:"lifestyle"`
    Values    Values         `json:"values"`

    // Activity & reputation (externally maintained, consumed here)
    LastActive    time.Time `json:"last_active" db:"last_active"`
    Credibility   float64   `json:"credibility" db:"credibility"`
    BehaviorIndex float64   `json:"behavior_index" db:"behavior_index"`
    IsPremium     bool      `json:"is_premium" db:"is_premium"`

    // Preferences
    MinAgePref    int     `json:"min_age_pref" db:"min_age_pref"`
    MaxAgePref    int     `json:"max_age_pref" db:"max_age_pref"`
    MaxDistanceKm float64 `json:"max_distance_km" db:"max_distance_km"`

    // Quotas & counters
    SuperLikesUsed  int `json:"super_likes_used" db:"super_likes_used"`
    SuperLikesDaily int `json:"super_likes_daily" db:"super_likes_daily"`
    Roses           int `json:"roses" db:"roses"`
    BoostCredits    int `json:"boost_credits" db:"boost_credits"`
    LikesGiven      int `json:"likes_given" db:"likes_given"`
    LikesReceived   int `json:"likes_received" db:"likes_received"`

    CreatedAt time.Time `json:"created_at" db:"created_at"`
    UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Location returns the profile's geo point, or nil when the user has not
// shared one.
func (p *Profile) Location() *GeoPoint {
    if p.LocationLat == nil || p.LocationLng == nil {
        return nil
    }
    return &GeoPoint{Lat: *p.LocationLat, Lng: *p.LocationLng}
}

// PublicSummary is the slice of a profile that may be shown to the other
// side of a match.
type PublicSummary struct {
    ID             int64   `json:"id"`
    DisplayName    string  `json:"display_name"`
    Age            int     `json:"age"`
    ProfilePicture *string `json:"profile_picture,omitempty"`
}

func (p *Profile) Summary() PublicSummary {
    return PublicSummary{
        ID:             p.ID,
        DisplayName:    p.DisplayName,
        Age:            p.Age,
        ProfilePicture: p.ProfilePicture,
    }
}

// LikeRecord is one directed like. At most one record exists per ordered
// (sender, receiver) pair; the unique constraint in the likes table enforces
// it.
type LikeRecord struct {
    ID         int64      `json:"id" db:"id"`
    SenderID   int64      `json:"sender_id" db:"sender_id"`
    ReceiverID int64      `json:"receiver_id" db:"receiver_id"`
    ContentRef string     `json:"content_ref" db:"content_ref"`
    Comment    *string    `json:"comment,omitempty" db:"comment"`
    Kind       LikeKind   `json:"kind" db:"kind"`
    Status     LikeStatus `json:"status" db:"status"`
    CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// MatchRelation is the unordered pair created exactly once when both
// directions have liked. User1ID < User2ID always.
type MatchRelation struct {
    ID        int64     `json:"id" db:"id"`
    User1ID   int64     `json:"user1_id" db:"user1_id"`
    User2ID   int64     `json:"user2_id" db:"user2_id"`
    MatchedAt time.Time `json:"matched_at" db:"matched_at"`
}

// ScoreBreakdown is computed per request and never persisted.
type ScoreBreakdown struct {
    Compatibility float64 `json:"compatibility"`
    Proximity     float64 `json:"proximity"`
    Activity      float64 `json:"activity"`
    Credibility   float64 `json:"credibility"`
    PreferenceFit float64 `json:"preference_fit"`
    Composite     float64 `json:"composite"`
}

// MatchSummary is the read side of a match for the matches list endpoint.
type MatchSummary struct {
    MatchID   int64         `json:"match_id"`
    MatchedAt time.Time     `json:"matched_at"`
    User      PublicSummary `json:"user"`
}
