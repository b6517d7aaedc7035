package match

import (
    "context"
    "log"
    "time"
)

// Scheduler runs the in-process daily jobs. The super-like reset is
// idempotent, so a restart that replays it is harmless.
type Scheduler struct {
    service   Service
    resetHour int
}

func NewScheduler(service Service, resetHour int) *Scheduler {
    return &Scheduler{service: service, resetHour: resetHour}
}

func (s *Scheduler) Start(ctx context.Context) {
    go s.runDaily(ctx, s.resetHour, 0, s.service.ResetDailySuperLikes)
}

func (s *Scheduler) runDaily(ctx context.Context, hour, minute int, task func(context.Context) error) {
    for {
        now := time.Now()
        next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
        if now.After(next) {
            next = next.Add(24 * time.Hour)
        }

        timer := time.NewTimer(next.Sub(now))

        select {
        case <-timer.C:
            if err := task(ctx); err != nil {
                log.Printf("Scheduled task failed: %v", err)
            }
        case <-ctx.Done():
            timer.Stop()
            return
        }
    }
}
