package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	config "github.com/mchavez27/melipanel/configs"
	"github.com/mchavez27/melipanel/internal/models"
	"github.com/mchavez27/melipanel/internal/repository"
	"github.com/mchavez27/melipanel/internal/transfer"
	"github.com/mchavez27/melipanel/pkg/utils"
)

const (
	meliAuthURL  = "https://auth.mercadolibre.com.mx/authorization"
	meliTokenURL = "https://api.mercadolibre.com/oauth/token"

	// Tokens within this window of expiry are refreshed before use.
	tokenRefreshWindow = 5 * time.Minute
)

// ErrNoToken means the marketplace app has never been authorized.
var ErrNoToken = errors.New("no token available, authorize the app first")

// MeliAuthService owns the marketplace OAuth token: exchange, refresh and
// encrypted persistence. It is constructed once and injected wherever a
// token is needed.
type MeliAuthService interface {
	AuthorizationURL() string
	ExchangeCode(ctx context.Context, code string) error
	Refresh(ctx context.Context) error
	GetToken(ctx context.Context) (string, error)
	InjectToken(ctx context.Context, req *transfer.InjectTokenRequest) error
	HasValidToken(ctx context.Context) bool
}

type meliAuthService struct {
	cfg    config.Config
	tokens repository.TokenRepository
	client *http.Client
}

func NewMeliAuthService(cfg config.Config, tokens repository.TokenRepository) MeliAuthService {
	return &meliAuthService{
		cfg:    cfg,
		tokens: tokens,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *meliAuthService) AuthorizationURL() string {
	params := url.Values{}
	params.Add("response_type", "code")
	params.Add("client_id", s.cfg.MeliAppID)
	params.Add("redirect_uri", s.cfg.MeliRedirectURI)
	params.Add("scope", "offline_access write")

	return fmt.Sprintf("%s?%s", meliAuthURL, params.Encode())
}

func (s *meliAuthService) ExchangeCode(ctx context.Context, code string) error {
	if code == "" {
		err := errors.New("authorization code is empty")
		slog.Info(err.Error())
		return err
	}

	resp, err := s.requestToken(ctx, map[string]string{
		"grant_type":    "authorization_code",
		"client_id":     s.cfg.MeliAppID,
		"client_secret": s.cfg.MeliAppSecret,
		"code":          code,
		"redirect_uri":  s.cfg.MeliRedirectURI,
	})
	if err != nil {
		return err
	}

	return s.store(ctx, resp)
}

func (s *meliAuthService) Refresh(ctx context.Context) error {
	token, err := s.load(ctx)
	if err != nil {
		return err
	}
	if token.RefreshToken == "" {
		err = errors.New("no refresh token available")
		slog.Info(err.Error())
		return err
	}

	resp, err := s.requestToken(ctx, map[string]string{
		"grant_type":    "refresh_token",
		"client_id":     s.cfg.MeliAppID,
		"client_secret": s.cfg.MeliAppSecret,
		"refresh_token": token.RefreshToken,
	})
	if err != nil {
		return err
	}

	return s.store(ctx, resp)
}

func (s *meliAuthService) GetToken(ctx context.Context) (string, error) {
	token, err := s.load(ctx)
	if err != nil {
		return "", err
	}

	if token.ExpiresWithin(time.Now(), tokenRefreshWindow) {
		if err := s.Refresh(ctx); err != nil {
			return "", fmt.Errorf("token refresh failed: %w", err)
		}
		if token, err = s.load(ctx); err != nil {
			return "", err
		}
	}

	return token.AccessToken, nil
}

// InjectToken stores externally obtained credentials, used when the OAuth
// dance happened on another deployment of the same app.
func (s *meliAuthService) InjectToken(ctx context.Context, req *transfer.InjectTokenRequest) error {
	if req.AccessToken == "" {
		err := errors.New("access_token is required")
		slog.Info(err.Error())
		return err
	}

	return s.store(ctx, &transfer.MeliTokenResponse{
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		ExpiresIn:    req.ExpiresIn,
		Scope:        req.Scope,
	})
}

func (s *meliAuthService) HasValidToken(ctx context.Context) bool {
	token, err := s.load(ctx)
	if err != nil {
		return false
	}
	return !token.ExpiresWithin(time.Now(), 0)
}

func (s *meliAuthService) requestToken(ctx context.Context, form map[string]string) (*transfer.MeliTokenResponse, error) {
	body, err := json.Marshal(form)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, meliTokenURL, bytes.NewReader(body))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		err = fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(respBody))
		slog.Info(err.Error())
		return nil, err
	}

	var tokenResponse transfer.MeliTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	return &tokenResponse, nil
}

func (s *meliAuthService) store(ctx context.Context, resp *transfer.MeliTokenResponse) error {
	encryptedAccess, err := utils.Encrypt([]byte(resp.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	encryptedRefresh, err := utils.Encrypt([]byte(resp.RefreshToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	return s.tokens.Save(ctx, &models.MeliToken{
		AccessToken:  encryptedAccess,
		RefreshToken: encryptedRefresh,
		ExpiresIn:    resp.ExpiresIn,
		Scope:        resp.Scope,
		CreatedAt:    time.Now(),
	})
}

func (s *meliAuthService) load(ctx context.Context) (*models.MeliToken, error) {
	token, exists, err := s.tokens.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		slog.Info(ErrNoToken.Error())
		return nil, ErrNoToken
	}

	access, err := utils.Decrypt(token.AccessToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}
	refresh, err := utils.Decrypt(token.RefreshToken, []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}

	token.AccessToken = access
	token.RefreshToken = refresh
	return token, nil
}
