package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/qtrack-api/pkg/auth"
	"github.com/jwalitptl/qtrack-api/pkg/logger"
)

const contextActorID = "actor_id"

// Actor extracts staff identity from a bearer token when one is present.
// Requests without a token proceed anonymously; authorization is handled
// by the identity service upstream, so the claims feed audit trails only.
func Actor(verifier *auth.Verifier, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			c.Next()
			return
		}

		claims, err := verifier.ParseActor(tokenString)
		if err != nil {
			log.ZL.Debug().Err(err).Msg("ignoring unverifiable actor token")
			c.Next()
			return
		}

		c.Set(contextActorID, claims.StaffID)
		c.Next()
	}
}

// ActorID returns the authenticated staff ID, or nil for anonymous requests.
func ActorID(c *gin.Context) *uuid.UUID {
	v, ok := c.Get(contextActorID)
	if !ok {
		return nil
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return nil
	}
	return &id
}
