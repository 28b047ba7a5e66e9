package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/nmoreau/storesync-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	ActorID int64
	Email   string
	Role    enums.ActorRole
	JTI     string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	ActorID int64           `json:"actor_id"`
	Email   string          `json:"email,omitempty"`
	Role    enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}
