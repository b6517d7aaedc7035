package match

import (
    "context"
    "log"
)

type Service interface {
    GetDiscoveryFeed(ctx context.Context, viewerID int64, limit int) ([]*FeedEntry, error)
    GetStandouts(ctx context.Context, viewerID int64, limit int) ([]*Profile, error)
    SubmitLike(ctx context.Context, senderID int64, dto *SubmitLikeDTO, kind LikeKind) (*LikeResult, error)
    Boost(ctx context.Context, viewerID int64) (int, error)
    Pass(ctx context.Context, viewerID, targetID int64) error
    GetCompatibilityBreakdown(ctx context.Context, viewerID, targetID int64) (*ScoreBreakdown, error)
    GetMatches(ctx context.Context, userID int64) ([]*MatchSummary, error)
    ResetDailySuperLikes(ctx context.Context) error
}

type service struct {
    repo        Repository
    scorer      *Scorer
    feedBuilder *FeedBuilder
    coordinator *Coordinator
}

func NewService(repo Repository, scorer *Scorer, feedBuilder *FeedBuilder, coordinator *Coordinator) Service {
    return &service{
        repo:        repo,
        scorer:      scorer,
        feedBuilder: feedBuilder,
        coordinator: coordinator,
    }
}

func (s *service) GetDiscoveryFeed(ctx context.Context, viewerID int64, limit int) ([]*FeedEntry, error) {
    return s.feedBuilder.BuildFeed(ctx, viewerID, limit)
}

func (s *service) GetStandouts(ctx context.Context, viewerID int64, limit int) ([]*Profile, error) {
    return s.feedBuilder.Standouts(ctx, viewerID, limit)
}

func (s *service) SubmitLike(ctx context.Context, senderID int64, dto *SubmitLikeDTO, kind LikeKind) (*LikeResult, error) {
    var comment *string
    if dto.Comment != "" {
        comment = &dto.Comment
    }
    return s.coordinator.SubmitLike(ctx, senderID, dto.ReceiverID, dto.ContentRef, comment, kind)
}

func (s *service) Boost(ctx context.Context, viewerID int64) (int, error) {
    return s.coordinator.Boost(ctx, viewerID)
}

func (s *service) Pass(ctx context.Context, viewerID, targetID int64) error {
    return s.coordinator.Pass(ctx, viewerID, targetID)
}

func (s *service) GetCompatibilityBreakdown(ctx context.Context, viewerID, targetID int64) (*ScoreBreakdown, error) {
    viewer, err := s.repo.GetProfile(ctx, viewerID)
    if err != nil {
        return nil, err
    }
    target, err := s.repo.GetProfile(ctx, targetID)
    if err != nil {
        return nil, err
    }

    breakdown := s.scorer.Score(viewer, target)
    return &breakdown, nil
}

func (s *service) GetMatches(ctx context.Context, userID int64) ([]*MatchSummary, error) {
    return s.repo.ListMatches(ctx, userID)
}

func (s *service) ResetDailySuperLikes(ctx context.Context) error {
    reset, err := s.repo.ResetDailySuperLikes(ctx)
    if err != nil {
        return err
    }
    log.Printf("daily super like reset: %d users", reset)
    return nil
}
