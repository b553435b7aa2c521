package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/mchavez27/melipanel/internal/transfer"
)

const meliAPIURL = "https://api.mercadolibre.com"

// MeliService is the marketplace REST client. Every call takes the bearer
// token explicitly so the scheduler and the dashboard share one client.
type MeliService interface {
	GetItem(ctx context.Context, itemID, token string) (*transfer.MeliItem, error)
	GetItemDescription(ctx context.Context, itemID, token string) (string, error)
	CreateItem(ctx context.Context, payload *transfer.ItemCreation, token string) (*transfer.MeliPublishResponse, error)
	SetDescription(ctx context.Context, itemID, text, token string) error
	SearchSellerItems(ctx context.Context, token string, offset, limit int) (*transfer.MeliSearchResponse, error)
	UploadPicture(ctx context.Context, file []byte, filename, token string) (*transfer.MeliPictureUpload, error)
}

type meliService struct {
	baseURL string
	client  *http.Client
	publish *http.Client
}

func NewMeliService() MeliService {
	return newMeliService(meliAPIURL)
}

func newMeliService(baseURL string) *meliService {
	return &meliService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		// Listing creation is the slowest marketplace call.
		publish: &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *meliService) GetItem(ctx context.Context, itemID, token string) (*transfer.MeliItem, error) {
	var item transfer.MeliItem
	url := fmt.Sprintf("%s/items/%s", s.baseURL, itemID)
	if err := s.getJSON(ctx, url, token, &item); err != nil {
		return nil, fmt.Errorf("could not fetch item %s: %w", itemID, err)
	}
	return &item, nil
}

// GetItemDescription is best-effort: listings without a description are
// common and must not fail the caller.
func (s *meliService) GetItemDescription(ctx context.Context, itemID, token string) (string, error) {
	var description struct {
		Text string `json:"text"`
	}
	url := fmt.Sprintf("%s/items/%s/description", s.baseURL, itemID)
	if err := s.getJSON(ctx, url, token, &description); err != nil {
		slog.Info(err.Error())
		return "", nil
	}
	return description.Text, nil
}

func (s *meliService) CreateItem(ctx context.Context, payload *transfer.ItemCreation, token string) (*transfer.MeliPublishResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/items", bytes.NewReader(body))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.publish.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("create item request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		// The marketplace's validation message is the only diagnosis an
		// operator gets, keep it verbatim.
		respBody, _ := io.ReadAll(resp.Body)
		err = fmt.Errorf("create item rejected with %d: %s", resp.StatusCode, string(respBody))
		slog.Info(err.Error())
		return nil, err
	}

	var publishResp transfer.MeliPublishResponse
	if err := json.NewDecoder(resp.Body).Decode(&publishResp); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &publishResp, nil
}

func (s *meliService) SetDescription(ctx context.Context, itemID, text, token string) error {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/items/%s/description", s.baseURL, itemID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		respBody, _ := io.ReadAll(resp.Body)
		err = fmt.Errorf("set description returned %d: %s", resp.StatusCode, string(respBody))
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (s *meliService) SearchSellerItems(ctx context.Context, token string, offset, limit int) (*transfer.MeliSearchResponse, error) {
	var me transfer.MeliUser
	if err := s.getJSON(ctx, s.baseURL+"/users/me", token, &me); err != nil {
		return nil, err
	}

	var search transfer.MeliSearchResponse
	url := fmt.Sprintf("%s/users/%d/items/search?offset=%d&limit=%d", s.baseURL, me.ID, offset, limit)
	if err := s.getJSON(ctx, url, token, &search); err != nil {
		return nil, err
	}

	return &search, nil
}

func (s *meliService) UploadPicture(ctx context.Context, file []byte, filename, token string) (*transfer.MeliPictureUpload, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	if _, err := part.Write(file); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/pictures", &buf)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.publish.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		respBody, _ := io.ReadAll(resp.Body)
		err = fmt.Errorf("picture upload returned %d: %s", resp.StatusCode, string(respBody))
		slog.Info(err.Error())
		return nil, err
	}

	var upload transfer.MeliPictureUpload
	if err := json.NewDecoder(resp.Body).Decode(&upload); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &upload, nil
}

func (s *meliService) getJSON(ctx context.Context, url, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		err = fmt.Errorf("marketplace returned %d: %s", resp.StatusCode, string(respBody))
		slog.Info(err.Error())
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
