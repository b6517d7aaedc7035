package match

import (
    "encoding/json"
    "errors"
    "net/http"
    "strconv"

    "github.com/gorilla/mux"

    "github.com/evinjohnn/tinder-clone-sub000/internal/auth"
    "github.com/evinjohnn/tinder-clone-sub000/internal/common/utils"
)

const (
    defaultFeedLimit = 20
    maxFeedLimit     = 100
)

type Handler struct {
    service Service
}

func NewHandler(service Service) *Handler {
    return &Handler{service: service}
}

func (h *Handler) GetDiscoveryFeed(w http.ResponseWriter, r *http.Request) {
    userID, ok := auth.GetUserIDFromContext(r.Context())
    if !ok {
        utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
        return
    }

    feed, err := h.service.GetDiscoveryFeed(r.Context(), userID, limitParam(r))
    if err != nil {
        respondServiceError(w, err, "")
        return
    }

    utils.RespondWithJSON(w, http.StatusOK, feed)
}

func (h *Handler) GetStandouts(w http.ResponseWriter, r *http.Request) {
    userID, ok := auth.GetUserIDFromContext(r.Context())
    if !ok {
        utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
        return
    }

    standouts, err := h.service.GetStandouts(r.Context(), userID, limitParam(r))
    if err != nil {
        respondServiceError(w, err, "")
        return
    }

    utils.RespondWithJSON(w, http.StatusOK, standouts)
}

func (h *Handler) SubmitLike(w http.ResponseWriter, r *http.Request) {
    h.submitLike(w, r, LikeStandard)
}

func (h *Handler) SubmitRose(w http.ResponseWriter, r *http.Request) {
    h.submitLike(w, r, LikeRose)
}

func (h *Handler) SubmitSuperLike(w http.ResponseWriter, r *http.Request) {
    h.submitLike(w, r, LikeSuper)
}

func (h *Handler) submitLike(w http.ResponseWriter, r *http.Request, kind LikeKind) {
    userID, ok := auth.GetUserIDFromContext(r.Context())
    if !ok {
        utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
        return
    }

    var dto SubmitLikeDTO
    if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
        utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
        return
    }
    if err := utils.ValidateStruct(&dto); err != nil {
        utils.RespondWithError(w, http.StatusBadRequest, err.Error())
        return
    }

    result, err := h.service.SubmitLike(r.Context(), userID, &dto, kind)
    if err != nil {
        respondServiceError(w, err, quotaResource(kind))
        return
    }

    utils.RespondWithJSON(w, http.StatusCreated, result)
}

func (h *Handler) Boost(w http.ResponseWriter, r *http.Request) {
    userID, ok := auth.GetUserIDFromContext(r.Context())
    if !ok {
        utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
        return
    }

    remaining, err := h.service.Boost(r.Context(), userID)
    if err != nil {
        if errors.Is(err, ErrQuotaExceeded) {
            utils.RespondWithError(w, http.StatusPaymentRequired, "No boost credits left")
            return
        }
        respondServiceError(w, err, "")
        return
    }

    utils.RespondWithJSON(w, http.StatusOK, map[string]int{"boost_credits_remaining": remaining})
}

// Pass records nothing; a passed profile may show up again in a later feed.
func (h *Handler) Pass(w http.ResponseWriter, r *http.Request) {
    userID, ok := auth.GetUserIDFromContext(r.Context())
    if !ok {
        utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
        return
    }

    var dto PassDTO
    if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
        utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
        return
    }
    if err := utils.ValidateStruct(&dto); err != nil {
        utils.RespondWithError(w, http.StatusBadRequest, err.Error())
        return
    }

    if err := h.service.Pass(r.Context(), userID, dto.TargetID); err != nil {
        respondServiceError(w, err, "")
        return
    }

    utils.RespondWithJSON(w, http.StatusOK, map[string]bool{"passed": true})
}

func (h *Handler) GetCompatibility(w http.ResponseWriter, r *http.Request) {
    userID, ok := auth.GetUserIDFromContext(r.Context())
    if !ok {
        utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
        return
    }

    vars := mux.Vars(r)
    targetID, err := strconv.ParseInt(vars["userId"], 10, 64)
    if err != nil {
        utils.RespondWithError(w, http.StatusBadRequest, "Invalid user ID")
        return
    }

    breakdown, err := h.service.GetCompatibilityBreakdown(r.Context(), userID, targetID)
    if err != nil {
        respondServiceError(w, err, "")
        return
    }

    utils.RespondWithJSON(w, http.StatusOK, breakdown)
}

func (h *Handler) GetMatches(w http.ResponseWriter, r *http.Request) {
    userID, ok := auth.GetUserIDFromContext(r.Context())
    if !ok {
        utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
        return
    }

    matches, err := h.service.GetMatches(r.Context(), userID)
    if err != nil {
        respondServiceError(w, err, "")
        return
    }

    utils.RespondWithJSON(w, http.StatusOK, matches)
}

// quotaResource names the charged resource for an endpoint, for error
// mapping and metrics labels. Standard likes are free.
func quotaResource(kind LikeKind) string {
    switch kind {
    case LikeSuper:
        return "super_like"
    case LikeRose:
        return "rose"
    default:
        return ""
    }
}

// respondServiceError maps the engine's error taxonomy onto HTTP statuses.
// QuotaExceeded splits by resource: the daily super-like cap is a rate
// problem (429), consumable balances are a payment problem (402).
func respondServiceError(w http.ResponseWriter, err error, resource string) {
    switch {
    case errors.Is(err, ErrNotFound):
        utils.RespondWithError(w, http.StatusNotFound, "User not found")
    case errors.Is(err, ErrInvalidTarget):
        utils.RespondWithError(w, http.StatusUnprocessableEntity, "Invalid target user")
    case errors.Is(err, ErrDuplicateAction):
        utils.RespondWithError(w, http.StatusConflict, "Like already recorded for this user")
    case errors.Is(err, ErrQuotaExceeded):
        if resource == "super_like" {
            utils.RespondWithError(w, http.StatusTooManyRequests, "Daily super like limit reached")
        } else {
            utils.RespondWithError(w, http.StatusPaymentRequired, "Insufficient balance")
        }
    case errors.Is(err, ErrDependencyFailure):
        utils.RespondWithError(w, http.StatusBadGateway, "Service temporarily unavailable")
    default:
        utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
    }
}

func limitParam(r *http.Request) int {
    limit := defaultFeedLimit
    if raw := r.URL.Query().Get("limit"); raw != "" {
        if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
            limit = parsed
        }
    }
    if limit > maxFeedLimit {
        limit = maxFeedLimit
    }
    return limit
}
