package match

import (
    "context"
    "errors"
    "sort"
    "sync"
    "time"
)

// fakeRepo is an in-memory Repository with the same semantics the Postgres
// implementation gets from its constraints: one like per ordered pair, one
// match per unordered pair, conditional quota updates.
type fakeRepo struct {
    mu          sync.Mutex
    profiles    map[int64]*Profile
    likes       map[[2]int64]*LikeRecord
    matches     map[[2]int64]*MatchRelation
    blocks      map[[2]int64]bool
    nextLikeID  int64
    nextMatchID int64

    // createLikeFailures makes the next N CreateLike calls fail before any
    // state changes, mimicking a rolled-back transaction.
    createLikeFailures int
}

func newFakeRepo(profiles ...*Profile) *fakeRepo {
    r := &fakeRepo{
        profiles: make(map[int64]*Profile),
        likes:    make(map[[2]int64]*LikeRecord),
        matches:  make(map[[2]int64]*MatchRelation),
        blocks:   make(map[[2]int64]bool),
    }
    for _, p := range profiles {
        r.profiles[p.ID] = p
    }
    return r
}

func sortedPair(a, b int64) [2]int64 {
    if a > b {
        a, b = b, a
    }
    return [2]int64{a, b}
}

func (r *fakeRepo) GetProfile(_ context.Context, userID int64) (*Profile, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    p, ok := r.profiles[userID]
    if !ok {
        return nil, ErrNotFound
    }
    return p, nil
}

func (r *fakeRepo) FindCandidates(_ context.Context, viewer *Profile, filter CandidateFilter) ([]*Profile, error) {
    r.mu.Lock()
    defer r.mu.Unlock()

    ids := make([]int64, 0, len(r.profiles))
    for id := range r.profiles {
        ids = append(ids, id)
    }
    sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

    var out []*Profile
    for _, id := range ids {
        p := r.profiles[id]
        if p.ID == viewer.ID {
            continue
        }
        if p.Age < filter.MinAge || p.Age > filter.MaxAge {
            continue
        }
        if filter.Gender != PrefEveryone && string(p.Gender) != string(filter.Gender) {
            continue
        }
        if _, liked := r.likes[[2]int64{viewer.ID, p.ID}]; liked {
            continue
        }
        if _, matched := r.matches[sortedPair(viewer.ID, p.ID)]; matched {
            continue
        }
        if r.blocks[[2]int64{viewer.ID, p.ID}] || r.blocks[[2]int64{p.ID, viewer.ID}] {
            continue
        }
        out = append(out, p)
        if len(out) == filter.Limit {
            break
        }
    }
    return out, nil
}

func (r *fakeRepo) FindStandouts(_ context.Context, viewerID int64, limit int) ([]*Profile, error) {
    r.mu.Lock()
    defer r.mu.Unlock()

    var out []*Profile
    for _, p := range r.profiles {
        if p.ID != viewerID && p.IsPremium && p.Credibility >= 85 && p.BehaviorIndex >= 80 {
            out = append(out, p)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].Credibility > out[j].Credibility })
    if len(out) > limit {
        out = out[:limit]
    }
    return out, nil
}

func (r *fakeRepo) IsBlocked(_ context.Context, userA, userB int64) (bool, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    return r.blocks[[2]int64{userA, userB}] || r.blocks[[2]int64{userB, userA}], nil
}

func (r *fakeRepo) GetLike(_ context.Context, senderID, receiverID int64) (*LikeRecord, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    like, ok := r.likes[[2]int64{senderID, receiverID}]
    if !ok {
        return nil, ErrNotFound
    }
    return like, nil
}

func (r *fakeRepo) CreateLike(_ context.Context, like *LikeRecord) (int, error) {
    r.mu.Lock()
    defer r.mu.Unlock()

    if r.createLikeFailures > 0 {
        r.createLikeFailures--
        return 0, errors.New("connection reset by peer")
    }

    key := [2]int64{like.SenderID, like.ReceiverID}
    if _, exists := r.likes[key]; exists {
        return 0, ErrDuplicateAction
    }

    sender, ok := r.profiles[like.SenderID]
    if !ok {
        return 0, ErrNotFound
    }

    var remaining int
    switch like.Kind {
    case LikeSuper:
        if sender.SuperLikesUsed >= sender.SuperLikesDaily {
            return 0, ErrQuotaExceeded
        }
        sender.SuperLikesUsed++
        remaining = sender.SuperLikesDaily - sender.SuperLikesUsed
    case LikeRose:
        if sender.Roses < 1 {
            return 0, ErrQuotaExceeded
        }
        sender.Roses--
        remaining = sender.Roses
    }

    r.nextLikeID++
    like.ID = r.nextLikeID
    like.CreatedAt = time.Now()
    r.likes[key] = like
    return remaining, nil
}

func (r *fakeRepo) CommitMatch(_ context.Context, userA, userB int64) (*MatchRelation, error) {
    r.mu.Lock()
    defer r.mu.Unlock()

    pair := sortedPair(userA, userB)
    if like, ok := r.likes[[2]int64{userA, userB}]; ok {
        like.Status = LikeMatched
    }
    if like, ok := r.likes[[2]int64{userB, userA}]; ok {
        like.Status = LikeMatched
    }

    if existing, ok := r.matches[pair]; ok {
        return existing, nil
    }
    r.nextMatchID++
    relation := &MatchRelation{
        ID:        r.nextMatchID,
        User1ID:   pair[0],
        User2ID:   pair[1],
        MatchedAt: time.Now(),
    }
    r.matches[pair] = relation
    return relation, nil
}

func (r *fakeRepo) ListMatches(_ context.Context, userID int64) ([]*MatchSummary, error) {
    r.mu.Lock()
    defer r.mu.Unlock()

    var out []*MatchSummary
    for _, m := range r.matches {
        var otherID int64
        switch userID {
        case m.User1ID:
            otherID = m.User2ID
        case m.User2ID:
            otherID = m.User1ID
        default:
            continue
        }
        other, ok := r.profiles[otherID]
        if !ok {
            continue
        }
        out = append(out, &MatchSummary{MatchID: m.ID, MatchedAt: m.MatchedAt, User: other.Summary()})
    }
    return out, nil
}

func (r *fakeRepo) IncrementLikeCounters(_ context.Context, senderID, receiverID int64) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    if sender, ok := r.profiles[senderID]; ok {
        sender.LikesGiven++
    }
    if receiver, ok := r.profiles[receiverID]; ok {
        receiver.LikesReceived++
    }
    return nil
}

func (r *fakeRepo) ConsumeBoostCredit(_ context.Context, userID int64) (int, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    p, ok := r.profiles[userID]
    if !ok || p.BoostCredits < 1 {
        return 0, ErrQuotaExceeded
    }
    p.BoostCredits--
    return p.BoostCredits, nil
}

func (r *fakeRepo) ResetDailySuperLikes(_ context.Context) (int64, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    var reset int64
    for _, p := range r.profiles {
        if p.SuperLikesUsed > 0 {
            p.SuperLikesUsed = 0
            reset++
        }
    }
    return reset, nil
}

func (r *fakeRepo) matchCount() int {
    r.mu.Lock()
    defer r.mu.Unlock()
    return len(r.matches)
}

func (r *fakeRepo) likeCount() int {
    r.mu.Lock()
    defer r.mu.Unlock()
    return len(r.likes)
}

// fakeDispatcher records delivered events.
type fakeDispatcher struct {
    mu     sync.Mutex
    events map[int64][]Event
}

func newFakeDispatcher() *fakeDispatcher {
    return &fakeDispatcher{events: make(map[int64][]Event)}
}

func (d *fakeDispatcher) Notify(userID int64, event Event) {
    d.mu.Lock()
    defer d.mu.Unlock()
    d.events[userID] = append(d.events[userID], event)
}

func (d *fakeDispatcher) eventsFor(userID int64) []Event {
    d.mu.Lock()
    defer d.mu.Unlock()
    return d.events[userID]
}

// stubIceBreaker always answers with a fixed line.
type stubIceBreaker struct {
    text string
}

func (s *stubIceBreaker) GenerateIceBreaker(context.Context, PublicSummary, PublicSummary, string) string {
    return s.text
}

func strPtr(s string) *string { return &s }

func testProfile(id int64) *Profile {
    lat, lng := 40.7128, -74.0060
    return &Profile{
        ID:               id,
        DisplayName:      "User",
        Age:              28,
        Gender:           GenderFemale,
        GenderPreference: PrefEveryone,
        LocationLat:      &lat,
        LocationLng:      &lng,
        Interests:        []string{"hiking", "music"},
        LastActive:       time.Now(),
        Credibility:      70,
        BehaviorIndex:    70,
        MinAgePref:       18,
        MaxAgePref:       60,
        MaxDistanceKm:    100,
        SuperLikesDaily:  5,
        Roses:            3,
        BoostCredits:     2,
    }
}
