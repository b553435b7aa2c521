package handlers

import (
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/mchavez27/melipanel/configs"
	"github.com/mchavez27/melipanel/internal/service"
	"github.com/mchavez27/melipanel/internal/transfer"
	"github.com/mchavez27/melipanel/pkg/utils"
)

type AuthHandler struct {
	s        service.AuthService
	meliAuth service.MeliAuthService
	cfg      config.Config
}

func NewAuthHandler(cfg config.Config, s service.AuthService, meliAuth service.MeliAuthService) *AuthHandler {
	return &AuthHandler{s: s, meliAuth: meliAuth, cfg: cfg}
}

// Login starts the dashboard Google sign-in.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	state, err := utils.GenerateRandomKey(16)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	authURL := "https://accounts.google.com/o/oauth2/v2/auth"
	params := url.Values{}
	params.Add("client_id", h.cfg.GoogleClientID)
	params.Add("redirect_uri", h.cfg.GoogleRedirectURI)
	params.Add("response_type", "code")
	params.Add("scope", "https://www.googleapis.com/auth/userinfo.profile https://www.googleapis.com/auth/userinfo.email")
	params.Add("state", state)
	params.Add("access_type", "offline")

	return c.Redirect(fmt.Sprintf("%s?%s", authURL, params.Encode()))
}

func (h *AuthHandler) LoginCallbackHandler(c *fiber.Ctx) error {
	code := c.Query("code")

	userID, err := h.s.LoginCallback(c.Context(), code)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	token, err := utils.GenerateToken(h.cfg.SecretKey, fmt.Sprintf("%d", userID), 24*time.Hour)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "something went wrong",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		HTTPOnly: true,
		Secure:   false,
		SameSite: fiber.CookieSameSiteNoneMode,
		Path:     "/",
		Expires:  time.Now().Add(24 * time.Hour),
	})

	return c.Redirect(h.cfg.FrontendURL, fiber.StatusTemporaryRedirect)
}

// MeliAuthorize redirects the operator to the marketplace consent page.
func (h *AuthHandler) MeliAuthorize(c *fiber.Ctx) error {
	return c.Redirect(h.meliAuth.AuthorizationURL())
}

func (h *AuthHandler) MeliCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "authorization code not found",
		})
	}

	if err := h.meliAuth.ExchangeCode(c.Context(), code); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Redirect(h.cfg.FrontendURL, fiber.StatusTemporaryRedirect)
}

// InjectToken stores credentials obtained by another deployment of the
// same marketplace app.
func (h *AuthHandler) InjectToken(c *fiber.Ctx) error {
	var req transfer.InjectTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := h.meliAuth.InjectToken(c.Context(), &req); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

func (h *AuthHandler) MeliStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"hasToken": h.meliAuth.HasValidToken(c.Context()),
	})
}
