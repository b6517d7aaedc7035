package match

import (
    "github.com/gorilla/mux"

    "github.com/evinjohnn/tinder-clone-sub000/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, hub *Hub, authMiddleware *auth.Middleware) {
    api := router.PathPrefix("/api/v1/match").Subrouter()
    api.Use(authMiddleware.Authenticate)

    // Discovery
    api.HandleFunc("/feed", handler.GetDiscoveryFeed).Methods("GET")
    api.HandleFunc("/standouts", handler.GetStandouts).Methods("GET")
    api.HandleFunc("/compatibility/{userId}", handler.GetCompatibility).Methods("GET")

    // Like actions
    api.HandleFunc("/likes", handler.SubmitLike).Methods("POST")
    api.HandleFunc("/roses", handler.SubmitRose).Methods("POST")
    api.HandleFunc("/superlikes", handler.SubmitSuperLike).Methods("POST")
    api.HandleFunc("/pass", handler.Pass).Methods("POST")
    api.HandleFunc("/boost", handler.Boost).Methods("POST")

    // Matches
    api.HandleFunc("/matches", handler.GetMatches).Methods("GET")

    // Realtime match notifications
    ws := router.PathPrefix("/ws").Subrouter()
    ws.Use(authMiddleware.Authenticate)
    ws.HandleFunc("", hub.ServeWS).Methods("GET")
}
