package auth

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	apierrors "github.com/zaplinker/backend/internal/errors"
	"github.com/zaplinker/backend/internal/logger"
	"github.com/zaplinker/backend/internal/models"
	"github.com/zaplinker/backend/internal/plans"
	"github.com/zaplinker/backend/internal/repository"
	"github.com/zaplinker/backend/internal/util"
	"go.uber.org/zap"
)

// FirebaseUIDHeader carries the caller's Firebase UID, set by the web app after sign-in.
const FirebaseUIDHeader = "Firebase-UID"

// Authenticator resolves the calling user and stores it in the Gin context.
type Authenticator struct {
	Users  repository.UserRepository
	Tokens *TokenIssuer
}

// Middleware accepts either "Authorization: Bearer <token>" or the Firebase-UID header.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, apiErr := a.authenticate(c)
		if apiErr != nil {
			util.RespondWithAPIError(c, apiErr)
			c.Abort()
			return
		}

		util.SetUser(c, user)
		c.Next()
	}
}

func (a *Authenticator) authenticate(c *gin.Context) (*models.User, *apierrors.APIError) {
	ctx := c.Request.Context()

	if header := c.GetHeader("Authorization"); header != "" && a.Tokens != nil {
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			return nil, apierrors.Unauthorized("malformed authorization header")
		}
		userID, err := a.Tokens.Validate(raw)
		if err != nil {
			return nil, apierrors.Unauthorized("invalid token")
		}
		user, err := a.Users.GetUser(ctx, userID)
		if err != nil {
			return nil, a.lookupError(err, userID)
		}
		// Downgraded accounts lose API access even with a valid token.
		if !plans.AllowsAPITokens(user.Plan) {
			return nil, apierrors.Forbidden("api tokens require the premium plan")
		}
		return user, nil
	}

	uid := strings.TrimSpace(c.GetHeader(FirebaseUIDHeader))
	if uid == "" {
		return nil, apierrors.Unauthorized("access denied")
	}
	user, err := a.Users.GetByFirebaseUID(ctx, uid)
	if err != nil {
		return nil, a.lookupError(err, uid)
	}
	return user, nil
}

func (a *Authenticator) lookupError(err error, id string) *apierrors.APIError {
	if errors.Is(err, repository.ErrUserNotFound) || errors.Is(err, repository.ErrNotFound) {
		return apierrors.Unauthorized("user not found")
	}
	logger.Log.Error("Failed to load authenticated user", zap.String("id", id), zap.Error(err))
	return apierrors.InternalError("failed to authenticate")
}
