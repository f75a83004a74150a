package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/config"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/database"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/middleware"
	"github.com/VeerPalSingh-0000/Revision-Mania/internal/models"
	apperrors "github.com/VeerPalSingh-0000/Revision-Mania/pkg/errors"
	"github.com/VeerPalSingh-0000/Revision-Mania/pkg/logger"
	"github.com/VeerPalSingh-0000/Revision-Mania/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

const (
	minPasswordLen = 6
	resetTokenTTL  = 15 * time.Minute
	oauthStateKey  = "oauth_state"

	msgEmailTaken         = "An account with this email already exists."
	msgWeakPassword       = "Password should be at least 6 characters."
	msgBadCredentials     = "Invalid credentials"
	msgResetLinkMaybeSent = "If this email is registered, you will receive a password reset link."
)

// --- Local Auth ---

type RegisterInput struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid email address.")
		return
	}
	if len(input.Password) < minPasswordLen {
		badRequest(c, msgWeakPassword)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to hash password")
		fail(c, apperrors.Internal("Failed to hash password"))
		return
	}

	user := models.User{
		Email:       normalizeEmail(input.Email),
		DisplayName: strings.TrimSpace(input.DisplayName),
		Password:    string(hashedPassword),
	}

	if result := database.DB.Create(&user); result.Error != nil {
		var existing models.User
		if err := database.DB.Unscoped().Where("email = ?", user.Email).First(&existing).Error; err == nil {
			fail(c, apperrors.Conflict(msgEmailTaken))
			return
		}
		logger.Error().Err(result.Error).Str("email", user.Email).Msg("Registration failed")
		fail(c, apperrors.Internal("Failed to create account"))
		return
	}

	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to generate token")
		fail(c, apperrors.Internal("Failed to generate token"))
		return
	}

	logger.Info().Str("user_id", user.ID).Msg("User registered successfully")
	AuthHub.SignedIn(&user)

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  user,
	})
}

func Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid email address.")
		return
	}
	email := normalizeEmail(input.Email)

	var user models.User
	if result := database.DB.Where("email = ?", email).First(&user); result.Error != nil {
		logger.Warn().Str("email", email).Msg("Login failed: user not found")
		fail(c, apperrors.Unauthorized(msgBadCredentials))
		return
	}

	// Google-only accounts have no password.
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
		logger.Warn().Str("email", email).Msg("Login failed: invalid password")
		fail(c, apperrors.Unauthorized(msgBadCredentials))
		return
	}

	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to generate token")
		fail(c, apperrors.Internal("Failed to generate token"))
		return
	}

	logger.Info().Str("user_id", user.ID).Msg("User logged in")
	AuthHub.SignedIn(&user)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// Logout revokes the token for the rest of its lifetime and signs that
// session out. Sockets opened with the same token receive a null auth state
// and close; the user's other devices stay connected.
func Logout(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		c.JSON(http.StatusOK, gin.H{"message": "Already logged out"})
		return
	}

	if jti := claims.GetJTI(); jti != "" {
		if ttl := time.Until(claims.GetExpiresAt()); ttl > 0 {
			if err := database.BlacklistToken(jti, ttl); err != nil {
				logger.Error().Err(err).Str("jti", jti).Msg("Failed to blacklist token")
			}
		}
	}

	AuthHub.SignedOut(claims.UserID, claims.GetJTI())
	logger.Info().Str("user_id", claims.UserID).Msg("User logged out")

	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

func Me(c *gin.Context) {
	var user models.User
	if err := database.DB.First(&user, "id = ?", middleware.CurrentUserID(c)).Error; err != nil {
		fail(c, apperrors.NotFound("User not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// --- OAuth ---

var googleOauthConfig *oauth2.Config

func InitOAuthConfig() {
	if config.AppConfig.GoogleClientID == "" {
		logger.Warn().Msg("Google OAuth keys missing")
		return
	}
	googleOauthConfig = &oauth2.Config{
		RedirectURL:  config.AppConfig.GoogleCallbackURL,
		ClientID:     config.AppConfig.GoogleClientID,
		ClientSecret: config.AppConfig.GoogleClientSecret,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		Endpoint:     google.Endpoint,
	}
}

func GoogleLogin(c *gin.Context) {
	if googleOauthConfig == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google OAuth not configured"})
		return
	}

	state, err := randomState()
	if err != nil {
		fail(c, apperrors.Internal("Failed to start sign-in"))
		return
	}
	secure := config.AppConfig.Env == "production"
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateKey, state, int((10 * time.Minute).Seconds()), "/", "", secure, true)

	c.Redirect(http.StatusTemporaryRedirect, googleOauthConfig.AuthCodeURL(state))
}

func GoogleCallback(c *gin.Context) {
	if googleOauthConfig == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google OAuth not configured"})
		return
	}

	expected, err := c.Cookie(oauthStateKey)
	if err != nil || expected == "" || c.Query("state") != expected {
		logger.Warn().Msg("Google OAuth state mismatch")
		badRequest(c, "Sign-in cancelled.")
		return
	}
	c.SetCookie(oauthStateKey, "", -1, "/", "", false, true)

	ctx := c.Request.Context()
	token, err := googleOauthConfig.Exchange(ctx, c.Query("code"))
	if err != nil {
		logger.Error().Err(err).Msg("Google OAuth exchange failed")
		badRequest(c, "Failed to exchange token")
		return
	}

	resp, err := googleOauthConfig.Client(ctx, token).Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		logger.Error().Err(err).Msg("Failed to get Google user info")
		fail(c, apperrors.Internal("Failed to get user info"))
		return
	}
	defer resp.Body.Close()

	var userInfo googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil || userInfo.Email == "" {
		logger.Error().Err(err).Msg("Failed to parse Google user info")
		fail(c, apperrors.Internal("Failed to parse user info"))
		return
	}

	user, err := resolveGoogleUser(userInfo)
	if err != nil {
		fail(c, err)
		return
	}
	finishOAuthLogin(c, user)
}

type googleUserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// resolveGoogleUser signs in only with an address Google has verified, since
// accounts are linked by email.
func resolveGoogleUser(info googleUserInfo) (*models.User, error) {
	if !info.VerifiedEmail {
		logger.Warn().Str("email", normalizeEmail(info.Email)).Msg("Google sign-in rejected: email not verified")
		return nil, apperrors.Forbidden("Your Google account email is not verified")
	}
	return findOrCreateOAuthUser(info.Email, info.Name, info.Picture)
}

// findOrCreateOAuthUser resolves the account by email, restoring a
// soft-deleted one, or creates it.
func findOrCreateOAuthUser(email, name, image string) (*models.User, error) {
	email = normalizeEmail(email)

	var user models.User
	result := database.DB.Unscoped().Where("email = ?", email).First(&user)
	if result.Error == nil {
		if user.DeletedAt.Valid {
			if err := database.DB.Unscoped().Model(&user).Update("deleted_at", nil).Error; err != nil {
				logger.Error().Err(err).Str("email", email).Msg("Failed to restore soft-deleted user during OAuth")
			} else {
				logger.Info().Str("email", email).Msg("Restored soft-deleted user via OAuth")
			}
		}
		return &user, nil
	}

	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		logger.Error().Err(result.Error).Str("email", email).Msg("Database query failed during OAuth login")
		return nil, apperrors.Internal("Database error during login process")
	}

	now := time.Now()
	user = models.User{
		ID:            uuid.New().String(),
		Email:         email,
		EmailVerified: &now,
		DisplayName:   name,
		Image:         image,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		logger.Error().Err(err).Str("email", email).Msg("Failed to create user during OAuth")
		return nil, apperrors.Internal("Account creation failed")
	}
	logger.Info().Str("email", email).Str("user_id", user.ID).Msg("New user registered via OAuth")
	return &user, nil
}

func finishOAuthLogin(c *gin.Context, user *models.User) {
	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to generate token during OAuth")
		fail(c, apperrors.Internal("Failed to generate token"))
		return
	}

	logger.Info().Str("user_id", user.ID).Msg("User logged in via OAuth")
	AuthHub.SignedIn(user)

	redirectURL := fmt.Sprintf("%s/oauth-callback?token=%s", config.AppConfig.FrontendURL, url.QueryEscape(token))
	c.Redirect(http.StatusTemporaryRedirect, redirectURL)
}

func randomState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// --- Forgot Password ---

type ForgotPasswordInput struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordInput struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ForgotPassword answers the same way whether or not the email exists.
func ForgotPassword(c *gin.Context) {
	var input ForgotPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid email address.")
		return
	}
	email := normalizeEmail(input.Email)

	var user models.User
	if err := database.DB.Where("email = ?", email).First(&user).Error; err != nil {
		logger.Info().Str("email", email).Msg("Forgot password requested for unknown email")
		c.JSON(http.StatusOK, gin.H{"message": msgResetLinkMaybeSent})
		return
	}

	resetToken := uuid.New().String()
	expiry := time.Now().Add(resetTokenTTL)
	err := database.DB.Model(&user).Updates(map[string]interface{}{
		"reset_token":        resetToken,
		"reset_token_expiry": expiry,
	}).Error
	if err != nil {
		logger.Error().Err(err).Msg("Failed to store reset token")
		fail(c, apperrors.Internal("Failed to generate reset token"))
		return
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", config.AppConfig.FrontendURL, resetToken)
	body := fmt.Sprintf("Someone asked to reset the password of your Revision Mania account.\n\nOpen this link within 15 minutes to choose a new one:\n%s\n\nIf it wasn't you, ignore this email.\n", link)
	if err := Mailer.Send(c.Request.Context(), user.Email, "Reset your password", body); err != nil {
		logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to send reset email")
	} else {
		logger.Info().Str("user_id", user.ID).Msg("Password reset email sent")
	}

	c.JSON(http.StatusOK, gin.H{"message": msgResetLinkMaybeSent})
}

func ResetPassword(c *gin.Context) {
	var input ResetPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Token and password are required")
		return
	}
	if len(input.Password) < minPasswordLen {
		badRequest(c, msgWeakPassword)
		return
	}

	var user models.User
	if err := database.DB.Where("reset_token = ?", input.Token).First(&user).Error; err != nil {
		logger.Warn().Msg("Password reset failed: invalid token")
		badRequest(c, "Invalid or expired token")
		return
	}
	if user.ResetTokenExpiry == nil || time.Now().After(*user.ResetTokenExpiry) {
		logger.Warn().Str("user_id", user.ID).Msg("Password reset failed: expired token")
		badRequest(c, "Token expired")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to hash password during reset")
		fail(c, apperrors.Internal("Failed to hash password"))
		return
	}

	err = database.DB.Model(&user).Updates(map[string]interface{}{
		"password":           string(hashedPassword),
		"reset_token":        "",
		"reset_token_expiry": nil,
	}).Error
	if err != nil {
		logger.Error().Err(err).Msg("Failed to update password")
		fail(c, apperrors.Internal("Failed to reset password"))
		return
	}

	logger.Info().Str("user_id", user.ID).Msg("Password reset successfully")
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}
