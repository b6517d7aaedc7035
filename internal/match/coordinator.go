package match

import (
    "context"
    "errors"
    "fmt"
    "log"
)

// LikeResult is returned to the caller after a successful like. Remaining
// counts reflect the sender's balances after any quota charge.
type LikeResult struct {
    Like                *LikeRecord    `json:"like"`
    Matched             bool           `json:"matched"`
    Match               *MatchRelation `json:"match,omitempty"`
    IceBreaker          string         `json:"ice_breaker,omitempty"`
    SuperLikesRemaining int            `json:"super_likes_remaining"`
    RosesRemaining      int            `json:"roses_remaining"`
}

// Coordinator owns the like/match state machine and the quota rules. All
// mutations for one unordered user pair run under that pair's lock, so two
// users liking each other concurrently resolve to exactly one match.
type Coordinator struct {
    repo       Repository
    dispatcher NotificationDispatcher
    iceBreaker IceBreakerService
    locks      *pairLocks
}

func NewCoordinator(repo Repository, dispatcher NotificationDispatcher, iceBreaker IceBreakerService) *Coordinator {
    return &Coordinator{
        repo:       repo,
        dispatcher: dispatcher,
        iceBreaker: iceBreaker,
        locks:      newPairLocks(),
    }
}

// SubmitLike runs the full like pipeline: validate target, reject
// duplicates, charge quota, persist the pending like, then check the reverse
// direction and commit a mutual match when it exists.
func (c *Coordinator) SubmitLike(ctx context.Context, senderID, receiverID int64, contentRef string, comment *string, kind LikeKind) (*LikeResult, error) {
    if senderID == receiverID {
        return nil, ErrInvalidTarget
    }

    sender, err := c.repo.GetProfile(ctx, senderID)
    if err != nil {
        return nil, err
    }
    receiver, err := c.repo.GetProfile(ctx, receiverID)
    if err != nil {
        return nil, err
    }

    blocked, err := c.repo.IsBlocked(ctx, senderID, receiverID)
    if err != nil {
        return nil, fmt.Errorf("%w: %v", ErrDependencyFailure, err)
    }
    if blocked {
        return nil, ErrInvalidTarget
    }

    unlock := c.locks.Lock(senderID, receiverID)
    defer unlock()

    // The duplicate check runs before the quota charge so a retry of an
    // already-recorded like never double-charges.
    if _, err := c.repo.GetLike(ctx, senderID, receiverID); err == nil {
        return nil, ErrDuplicateAction
    } else if !errors.Is(err, ErrNotFound) {
        return nil, fmt.Errorf("%w: %v", ErrDependencyFailure, err)
    }

    result := &LikeResult{
        SuperLikesRemaining: sender.SuperLikesDaily - sender.SuperLikesUsed,
        RosesRemaining:      sender.Roses,
    }

    like := &LikeRecord{
        SenderID:   senderID,
        ReceiverID: receiverID,
        ContentRef: contentRef,
        Comment:    comment,
        Kind:       kind,
        Status:     LikePending,
    }

    // The quota charge and the like row commit atomically in the repository,
    // so a transient failure can never strand a charge without a like.
    remaining, err := c.repo.CreateLike(ctx, like)
    switch {
    case errors.Is(err, ErrQuotaExceeded):
        switch kind {
        case LikeSuper:
            RecordQuotaRejection("super_like")
        case LikeRose:
            RecordQuotaRejection("rose")
        }
        return nil, err
    case errors.Is(err, ErrDuplicateAction):
        return nil, err
    case err != nil:
        return nil, fmt.Errorf("%w: %v", ErrDependencyFailure, err)
    }

    switch kind {
    case LikeSuper:
        result.SuperLikesRemaining = remaining
    case LikeRose:
        result.RosesRemaining = remaining
    }
    result.Like = like
    RecordLike(kind)

    if err := c.repo.IncrementLikeCounters(ctx, senderID, receiverID); err != nil {
        log.Printf("like counter update failed for %d->%d: %v", senderID, receiverID, err)
    }

    // Mutual?
    if _, err := c.repo.GetLike(ctx, receiverID, senderID); err != nil {
        if errors.Is(err, ErrNotFound) {
            return result, nil
        }
        return nil, fmt.Errorf("%w: %v", ErrDependencyFailure, err)
    }

    relation, err := c.repo.CommitMatch(ctx, senderID, receiverID)
    if err != nil {
        return nil, fmt.Errorf("%w: %v", ErrDependencyFailure, err)
    }
    like.Status = LikeMatched
    result.Matched = true
    result.Match = relation
    RecordMatch()

    // Everything past the commit is best-effort: the match is already
    // durable and must not be rolled back by a flaky collaborator.
    result.IceBreaker = c.iceBreaker.GenerateIceBreaker(ctx, sender.Summary(), receiver.Summary(), contentRef)
    c.dispatcher.Notify(receiverID, newMatchEvent(relation.ID, sender.Summary(), result.IceBreaker))

    return result, nil
}

// Boost consumes one boost credit. The visibility-weighting effect itself is
// applied by an external collaborator; the engine only owns the balance.
func (c *Coordinator) Boost(ctx context.Context, userID int64) (int, error) {
    if _, err := c.repo.GetProfile(ctx, userID); err != nil {
        return 0, err
    }
    remaining, err := c.repo.ConsumeBoostCredit(ctx, userID)
    if errors.Is(err, ErrQuotaExceeded) {
        RecordQuotaRejection("boost")
        return 0, err
    }
    if err != nil {
        return 0, fmt.Errorf("%w: %v", ErrDependencyFailure, err)
    }
    return remaining, nil
}

// Pass validates the target and deliberately records nothing: a passed
// profile can resurface in later discovery calls. Whether passes should be
// persisted is an open product question; until it is answered this mirrors
// the observed behavior.
func (c *Coordinator) Pass(ctx context.Context, userID, targetID int64) error {
    if userID == targetID {
        return ErrInvalidTarget
    }
    if _, err := c.repo.GetProfile(ctx, targetID); err != nil {
        return err
    }
    return nil
}
