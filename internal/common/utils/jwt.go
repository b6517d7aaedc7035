// internal/common/utils/jwt.go
// JWT token validation for access tokens issued by the auth service

package utils

import (
    "errors"
    "fmt"
    "strconv"

    "github.com/golang-jwt/jwt/v4"
)

// JWTClaims are the claims this service reads from an access token. Token
// issuance lives in the auth service; this side only validates.
type JWTClaims struct {
    UserID    int64  `json:"user_id"`
    Username  string `json:"username"`
    Type      string `json:"type"` // "access" or "refresh"
    ExpiresAt int64  `json:"exp"`
}

// ValidateJWT validates a JWT token and returns claims
func ValidateJWT(tokenString string, secret string) (*JWTClaims, error) {
    token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
        if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
        }
        return []byte(secret), nil
    })
    if err != nil {
        return nil, err
    }

    claims, ok := token.Claims.(jwt.MapClaims)
    if !ok || !token.Valid {
        return nil, errors.New("invalid token")
    }

    userIDStr, ok := claims["user_id"].(string)
    if !ok {
        return nil, errors.New("invalid user_id in token")
    }
    userID, err := strconv.ParseInt(userIDStr, 10, 64)
    if err != nil {
        return nil, errors.New("invalid user_id format")
    }

    return &JWTClaims{
        UserID:    userID,
        Username:  getStringClaim(claims, "username"),
        Type:      getStringClaim(claims, "type"),
        ExpiresAt: getInt64Claim(claims, "exp"),
    }, nil
}

func getStringClaim(claims jwt.MapClaims, key string) string {
    if val, ok := claims[key].(string); ok {
        return val
    }
    return ""
}

func getInt64Claim(claims jwt.MapClaims, key string) int64 {
    if val, ok := claims[key].(float64); ok {
        return int64(val)
    }
    return 0
}
