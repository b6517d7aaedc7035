package match

import (
    "time"

    "github.com/google/uuid"
)

// Event is the payload handed to the notification dispatcher.
type Event struct {
    ID        string      `json:"id"`
    Type      string      `json:"type"`
    CreatedAt time.Time   `json:"created_at"`
    Data      interface{} `json:"data"`
}

const EventNewMatch = "new_match"

// MatchEvent is the data carried by a new_match event: the counterpart's
// public summary plus the optional ice breaker.
type MatchEvent struct {
    MatchID    int64         `json:"match_id"`
    With       PublicSummary `json:"with"`
    IceBreaker string        `json:"ice_breaker,omitempty"`
}

// NotificationDispatcher delivers events to users who are currently
// reachable. Notify is fire-and-forget: it must never block or fail the
// caller's success path, and an unreachable user is simply skipped.
type NotificationDispatcher interface {
    Notify(userID int64, event Event)
}

func newMatchEvent(matchID int64, with PublicSummary, iceBreaker string) Event {
    return Event{
        ID:        uuid.NewString(),
        Type:      EventNewMatch,
        CreatedAt: time.Now(),
        Data: MatchEvent{
            MatchID:    matchID,
            With:       with,
            IceBreaker: iceBreaker,
        },
    }
}
