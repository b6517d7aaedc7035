package match

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "log"
    "net/http"
    "time"
)

// IceBreakerService produces an opening line for a fresh match. It never
// fails: implementations must degrade to a deterministic templated line on
// any error or timeout, because a broken text generator must not delay or
// fail a match.
type IceBreakerService interface {
    GenerateIceBreaker(ctx context.Context, sender, receiver PublicSummary, likedContent string) string
}

// fallbackIceBreaker is the deterministic template used whenever generation
// is unavailable.
func fallbackIceBreaker(sender, receiver PublicSummary, likedContent string) string {
    return fmt.Sprintf("You and %s liked each other! Ask %s about %q to get things going.",
        receiver.DisplayName, receiver.DisplayName, likedContent)
}

type httpIceBreaker struct {
    endpoint string
    client   *http.Client
    timeout  time.Duration
}

// NewHTTPIceBreaker talks to the external text-generation endpoint. An empty
// endpoint yields a client that always answers with the fallback template,
// which is the development-mode default.
func NewHTTPIceBreaker(endpoint string, timeout time.Duration) IceBreakerService {
    if timeout <= 0 {
        timeout = 3 * time.Second
    }
    return &httpIceBreaker{
        endpoint: endpoint,
        client:   &http.Client{Timeout: timeout},
        timeout:  timeout,
    }
}

type iceBreakerRequest struct {
    Sender       PublicSummary `json:"sender"`
    Receiver     PublicSummary `json:"receiver"`
    LikedContent string        `json:"liked_content"`
}

type iceBreakerResponse struct {
    Text string `json:"text"`
}

func (g *httpIceBreaker) GenerateIceBreaker(ctx context.Context, sender, receiver PublicSummary, likedContent string) string {
    if g.endpoint == "" {
        return fallbackIceBreaker(sender, receiver, likedContent)
    }

    ctx, cancel := context.WithTimeout(ctx, g.timeout)
    defer cancel()

    payload, err := json.Marshal(iceBreakerRequest{
        Sender:       sender,
        Receiver:     receiver,
        LikedContent: likedContent,
    })
    if err != nil {
        return fallbackIceBreaker(sender, receiver, likedContent)
    }

    req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
    if err != nil {
        return fallbackIceBreaker(sender, receiver, likedContent)
    }
    req.Header.Set("Content-Type", "application/json")

    resp, err := g.client.Do(req)
    if err != nil {
        log.Printf("ice breaker generation failed: %v", err)
        return fallbackIceBreaker(sender, receiver, likedContent)
    }
    defer resp.Body.Close()

    if resp.StatusCode != http.StatusOK {
        return fallbackIceBreaker(sender, receiver, likedContent)
    }

    var out iceBreakerResponse
    if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Text == "" {
        return fallbackIceBreaker(sender, receiver, likedContent)
    }
    return out.Text
}
