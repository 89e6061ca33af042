package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/moritama/project-board-api/internal/config"
	"github.com/moritama/project-board-api/internal/constants"
	apierrors "github.com/moritama/project-board-api/internal/errors"
	"github.com/moritama/project-board-api/internal/middleware"
	"github.com/moritama/project-board-api/internal/services"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const userInfoEndpoint = "https://www.googleapis.com/oauth2/v2/userinfo"

// AuthHandler drives the identity-provider handshake and resolves the
// resulting profile to a local user.
type AuthHandler struct {
	identityService *services.IdentityService
	oauthConfig     *oauth2.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(identityService *services.IdentityService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		identityService: identityService,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleCallbackURL,
			Scopes:       []string{"profile", "email"},
			Endpoint:     google.Endpoint,
		},
	}
}

// GoogleLogin redirects the browser to the identity provider.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	state, err := randomState()
	if err != nil {
		apierrors.InternalError(c, "Failed to start login")
		return
	}

	session := sessions.Default(c)
	session.Set("oauth_state", state)
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	url := h.oauthConfig.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// GoogleCallback exchanges the authorization code, fetches the provider
// profile and logs the resolved local user into the session.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	session := sessions.Default(c)

	expectedState, _ := session.Get("oauth_state").(string)
	session.Delete("oauth_state")
	if expectedState == "" || c.Query("state") != expectedState {
		apierrors.BadRequest(c, "Invalid OAuth state")
		return
	}

	code := c.Query("code")
	if code == "" {
		apierrors.BadRequest(c, "Missing authorization code")
		return
	}

	token, err := h.oauthConfig.Exchange(c.Request.Context(), code)
	if err != nil {
		apierrors.Unauthorized(c, "Failed to exchange authorization code")
		return
	}

	profile, err := h.fetchProfile(c, token)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch user profile")
		return
	}

	user, err := h.identityService.ResolveUser(*profile)
	if err != nil {
		apierrors.InternalError(c, "Failed to resolve user")
		return
	}

	session.Set(constants.ContextKeyUserID, user.ID)
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) fetchProfile(c *gin.Context, token *oauth2.Token) (*services.ExternalProfile, error) {
	client := h.oauthConfig.Client(c.Request.Context(), token)
	resp, err := client.Get(userInfoEndpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("userinfo endpoint returned " + resp.Status)
	}

	var info struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
		Email      string `json:"email"`
		Picture    string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}

	profile := &services.ExternalProfile{
		ID:          info.ID,
		DisplayName: info.Name,
		FirstName:   info.GivenName,
		LastName:    info.FamilyName,
	}
	if info.Email != "" {
		profile.Emails = []string{info.Email}
	}
	if info.Picture != "" {
		profile.Photos = []string{info.Picture}
	}

	return profile, nil
}

// Logout removes the authentication session.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// Check reports whether the request carries an authenticated session.
func (h *AuthHandler) Check(c *gin.Context) {
	session := sessions.Default(c)
	c.JSON(http.StatusOK, gin.H{
		"loggedIn": session.Get(constants.ContextKeyUserID) != nil,
	})
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	user, err := h.identityService.GetUser(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			apierrors.NotFound(c, err.Error())
		} else {
			apierrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           user.ID,
		"display_name": user.DisplayName,
		"image":        user.Image,
	})
}

func randomState() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
