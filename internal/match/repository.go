package match

import (
    "context"
    "database/sql"
    "errors"
    "fmt"

    "github.com/jmoiron/sqlx"
    "github.com/lib/pq"
)

// CandidateFilter carries the hard filters FindCandidates applies in SQL.
type CandidateFilter struct {
    Gender GenderPreference
    MinAge int
    MaxAge int
    Limit  int
}

type Repository interface {
    // Profiles
    GetProfile(ctx context.Context, userID int64) (*Profile, error)
    FindCandidates(ctx context.Context, viewer *Profile, filter CandidateFilter) ([]*Profile, error)
    FindStandouts(ctx context.Context, viewerID int64, limit int) ([]*Profile, error)
    IsBlocked(ctx context.Context, userA, userB int64) (bool, error)

    // Likes & matches. CreateLike charges the sender's super-like or rose
    // balance in the same transaction as the insert and returns the
    // remaining balance for the charged resource.
    GetLike(ctx context.Context, senderID, receiverID int64) (*LikeRecord, error)
    CreateLike(ctx context.Context, like *LikeRecord) (remaining int, err error)
    CommitMatch(ctx context.Context, userA, userB int64) (*MatchRelation, error)
    ListMatches(ctx context.Context, userID int64) ([]*MatchSummary, error)
    IncrementLikeCounters(ctx context.Context, senderID, receiverID int64) error

    // Quotas: consumes are single conditional updates so two concurrent
    // requests can never both pass a check against a stale balance.
    ConsumeBoostCredit(ctx context.Context, userID int64) (remaining int, err error)
    ResetDailySuperLikes(ctx context.Context) (int64, error)
}

type postgresRepository struct {
    db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) Repository {
    return &postgresRepository{db: db}
}

const profileColumns = `
    u.id, u.display_name, u.age, u.gender, u.gender_preference, u.profile_picture,
    u.location_lat, u.location_lng, u.interests,
    u.drinking, u.smoking, u.workout, u.children, u.religion, u.politics,
    u.last_active, u.credibility, u.behavior_index, u.is_premium,
    u.min_age_pref, u.max_age_pref, u.max_distance_km,
    u.super_likes_used, u.super_likes_daily, u.roses, u.boost_credits,
    u.likes_given, u.likes_received, u.created_at, u.updated_at
`

func scanProfile(row sqlx.ColScanner) (*Profile, error) {
    var p Profile
    err := row.Scan(
        &p.ID, &p.DisplayName, &p.Age, &p.Gender, &p.GenderPreference, &p.ProfilePicture,
        &p.LocationLat, &p.LocationLng, &p.Interests,
        &p.Lifestyle.Drinking, &p.Lifestyle.Smoking, &p.Lifestyle.Workout,
        &p.Values.Children, &p.Values.Religion, &p.Values.Politics,
        &p.LastActive, &p.Credibility, &p.BehaviorIndex, &p.IsPremium,
        &p.MinAgePref, &p.MaxAgePref, &p.MaxDistanceKm,
        &p.SuperLikesUsed, &p.SuperLikesDaily, &p.Roses, &p.BoostCredits,
        &p.LikesGiven, &p.LikesReceived, &p.CreatedAt, &p.UpdatedAt,
    )
    return &p, err
}

func (r *postgresRepository) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
    query := `SELECT ` + profileColumns + ` FROM users u WHERE u.id = $1`

    row := r.db.QueryRowxContext(ctx, query, userID)
    profile, err := scanProfile(row)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    return profile, nil
}

// FindCandidates applies the discovery hard filters in SQL: not self, not
// matched, no outgoing like from the viewer, not blocked either direction,
// reciprocal gender preference, candidate age inside the viewer's window.
func (r *postgresRepository) FindCandidates(ctx context.Context, viewer *Profile, filter CandidateFilter) ([]*Profile, error) {
    query := `SELECT ` + profileColumns + `
        FROM users u
        WHERE u.id <> $1
          AND u.age BETWEEN $2 AND $3
          AND ($4 = 'everyone' OR u.gender::text = $4)
          AND (u.gender_preference = 'everyone' OR u.gender_preference::text = $5)
          AND NOT EXISTS (
              SELECT 1 FROM matches m
              WHERE m.user1_id = LEAST(u.id, $1) AND m.user2_id = GREATEST(u.id, $1)
          )
          AND NOT EXISTS (
              SELECT 1 FROM likes l
              WHERE l.sender_id = $1 AND l.receiver_id = u.id
          )
          AND NOT EXISTS (
              SELECT 1 FROM blocks b
              WHERE (b.user_id = $1 AND b.blocked_user_id = u.id)
                 OR (b.user_id = u.id AND b.blocked_user_id = $1)
          )
        ORDER BY u.last_active DESC
        LIMIT $6
    `

    rows, err := r.db.QueryxContext(ctx, query,
        viewer.ID, filter.MinAge, filter.MaxAge,
        string(filter.Gender), string(viewer.Gender), filter.Limit,
    )
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var candidates []*Profile
    for rows.Next() {
        profile, err := scanProfile(rows)
        if err != nil {
            return nil, err
        }
        candidates = append(candidates, profile)
    }
    return candidates, rows.Err()
}

// FindStandouts is a curated high-bar filter, not a ranked feed: premium
// profiles with credibility >= 85 and behavior index >= 80, ordered purely by
// reputation and recency.
func (r *postgresRepository) FindStandouts(ctx context.Context, viewerID int64, limit int) ([]*Profile, error) {
    query := `SELECT ` + profileColumns + `
        FROM users u
        WHERE u.id <> $1
          AND u.is_premium = TRUE
          AND u.credibility >= 85
          AND u.behavior_index >= 80
          AND NOT EXISTS (
              SELECT 1 FROM matches m
              WHERE m.user1_id = LEAST(u.id, $1) AND m.user2_id = GREATEST(u.id, $1)
          )
          AND NOT EXISTS (
              SELECT 1 FROM blocks b
              WHERE (b.user_id = $1 AND b.blocked_user_id = u.id)
                 OR (b.user_id = u.id AND b.blocked_user_id = $1)
          )
        ORDER BY u.credibility DESC, u.behavior_index DESC, u.last_active DESC
        LIMIT $2
    `

    rows, err := r.db.QueryxContext(ctx, query, viewerID, limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var standouts []*Profile
    for rows.Next() {
        profile, err := scanProfile(rows)
        if err != nil {
            return nil, err
        }
        standouts = append(standouts, profile)
    }
    return standouts, rows.Err()
}

func (r *postgresRepository) IsBlocked(ctx context.Context, userA, userB int64) (bool, error) {
    var blocked bool
    query := `
        SELECT EXISTS(
            SELECT 1 FROM blocks
            WHERE (user_id = $1 AND blocked_user_id = $2)
               OR (user_id = $2 AND blocked_user_id = $1)
        )
    `
    err := r.db.GetContext(ctx, &blocked, query, userA, userB)
    return blocked, err
}

func (r *postgresRepository) GetLike(ctx context.Context, senderID, receiverID int64) (*LikeRecord, error) {
    var like LikeRecord
    query := `
        SELECT id, sender_id, receiver_id, content_ref, comment, kind, status, created_at
        FROM likes
        WHERE sender_id = $1 AND receiver_id = $2
    `
    err := r.db.GetContext(ctx, &like, query, senderID, receiverID)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    return &like, nil
}

// CreateLike persists the like and, for super likes and roses, charges the
// sender's balance inside the same transaction. A failed insert rolls the
// charge back, so a retry after a transient failure never double-charges.
func (r *postgresRepository) CreateLike(ctx context.Context, like *LikeRecord) (int, error) {
    tx, err := r.db.BeginTxx(ctx, nil)
    if err != nil {
        return 0, fmt.Errorf("begin like: %w", err)
    }
    defer tx.Rollback()

    var remaining int
    switch like.Kind {
    case LikeSuper:
        err = tx.QueryRowxContext(ctx, `
            UPDATE users
            SET super_likes_used = super_likes_used + 1, updated_at = NOW()
            WHERE id = $1 AND super_likes_used < super_likes_daily
            RETURNING super_likes_daily - super_likes_used
        `, like.SenderID).Scan(&remaining)
        if errors.Is(err, sql.ErrNoRows) {
            return 0, ErrQuotaExceeded
        }
        if err != nil {
            return 0, fmt.Errorf("charge super like: %w", err)
        }
    case LikeRose:
        err = tx.QueryRowxContext(ctx, `
            UPDATE users
            SET roses = roses - 1, updated_at = NOW()
            WHERE id = $1 AND roses >= 1
            RETURNING roses
        `, like.SenderID).Scan(&remaining)
        if errors.Is(err, sql.ErrNoRows) {
            return 0, ErrQuotaExceeded
        }
        if err != nil {
            return 0, fmt.Errorf("charge rose: %w", err)
        }
    }

    err = tx.QueryRowxContext(ctx, `
        INSERT INTO likes (sender_id, receiver_id, content_ref, comment, kind, status)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at
    `,
        like.SenderID, like.ReceiverID, like.ContentRef, like.Comment, like.Kind, like.Status,
    ).Scan(&like.ID, &like.CreatedAt)

    var pqErr *pq.Error
    if errors.As(err, &pqErr) && pqErr.Code == "23505" {
        return 0, ErrDuplicateAction
    }
    if err != nil {
        return 0, fmt.Errorf("insert like: %w", err)
    }

    if err := tx.Commit(); err != nil {
        return 0, fmt.Errorf("commit like: %w", err)
    }
    return remaining, nil
}

// CommitMatch moves both like records to matched and creates the unordered
// match row in one transaction. The unique (user1_id, user2_id) constraint
// plus sorted-pair insert guarantee at most one MatchRelation per pair even
// if two commits race.
func (r *postgresRepository) CommitMatch(ctx context.Context, userA, userB int64) (*MatchRelation, error) {
    if userA > userB {
        userA, userB = userB, userA
    }

    tx, err := r.db.BeginTxx(ctx, nil)
    if err != nil {
        return nil, fmt.Errorf("begin match commit: %w", err)
    }
    defer tx.Rollback()

    _, err = tx.ExecContext(ctx, `
        UPDATE likes SET status = 'matched'
        WHERE (sender_id = $1 AND receiver_id = $2)
           OR (sender_id = $2 AND receiver_id = $1)
    `, userA, userB)
    if err != nil {
        return nil, fmt.Errorf("update likes: %w", err)
    }

    var relation MatchRelation
    err = tx.QueryRowxContext(ctx, `
        INSERT INTO matches (user1_id, user2_id)
        VALUES ($1, $2)
        ON CONFLICT (user1_id, user2_id) DO NOTHING
        RETURNING id, user1_id, user2_id, matched_at
    `, userA, userB).Scan(&relation.ID, &relation.User1ID, &relation.User2ID, &relation.MatchedAt)

    if errors.Is(err, sql.ErrNoRows) {
        // Lost the insert race; the pair is already matched.
        err = tx.QueryRowxContext(ctx, `
            SELECT id, user1_id, user2_id, matched_at FROM matches
            WHERE user1_id = $1 AND user2_id = $2
        `, userA, userB).Scan(&relation.ID, &relation.User1ID, &relation.User2ID, &relation.MatchedAt)
    }
    if err != nil {
        return nil, fmt.Errorf("insert match: %w", err)
    }

    if err := tx.Commit(); err != nil {
        return nil, fmt.Errorf("commit match: %w", err)
    }
    return &relation, nil
}

func (r *postgresRepository) ListMatches(ctx context.Context, userID int64) ([]*MatchSummary, error) {
    query := `
        SELECT m.id, m.matched_at,
               u.id AS user_id, u.display_name, u.age, u.profile_picture
        FROM matches m
        JOIN users u ON u.id = CASE WHEN m.user1_id = $1 THEN m.user2_id ELSE m.user1_id END
        WHERE m.user1_id = $1 OR m.user2_id = $1
        ORDER BY m.matched_at DESC
    `

    rows, err := r.db.QueryxContext(ctx, query, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var matches []*MatchSummary
    for rows.Next() {
        var summary MatchSummary
        err := rows.Scan(
            &summary.MatchID, &summary.MatchedAt,
            &summary.User.ID, &summary.User.DisplayName, &summary.User.Age, &summary.User.ProfilePicture,
        )
        if err != nil {
            return nil, err
        }
        matches = append(matches, &summary)
    }
    return matches, rows.Err()
}

func (r *postgresRepository) IncrementLikeCounters(ctx context.Context, senderID, receiverID int64) error {
    _, err := r.db.ExecContext(ctx, `
        UPDATE users SET likes_given = likes_given + 1, updated_at = NOW() WHERE id = $1
    `, senderID)
    if err != nil {
        return err
    }
    _, err = r.db.ExecContext(ctx, `
        UPDATE users SET likes_received = likes_received + 1, updated_at = NOW() WHERE id = $1
    `, receiverID)
    return err
}

func (r *postgresRepository) ConsumeBoostCredit(ctx context.Context, userID int64) (int, error) {
    var remaining int
    err := r.db.QueryRowxContext(ctx, `
        UPDATE users
        SET boost_credits = boost_credits - 1, updated_at = NOW()
        WHERE id = $1 AND boost_credits >= 1
        RETURNING boost_credits
    `, userID).Scan(&remaining)
    if errors.Is(err, sql.ErrNoRows) {
        return 0, ErrQuotaExceeded
    }
    return remaining, err
}

// ResetDailySuperLikes is idempotent: rerunning it on an already-reset day is
// a no-op for rows where the counter is zero.
func (r *postgresRepository) ResetDailySuperLikes(ctx context.Context) (int64, error) {
    result, err := r.db.ExecContext(ctx, `
        UPDATE users SET super_likes_used = 0, updated_at = NOW()
        WHERE super_likes_used > 0
    `)
    if err != nil {
        return 0, err
    }
    return result.RowsAffected()
}
