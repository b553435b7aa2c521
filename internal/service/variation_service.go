package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/mchavez27/melipanel/internal/transfer"
)

const (
	deepSeekAPIURL = "https://api.deepseek.com/chat/completions"
	deepSeekModel  = "deepseek-chat"

	maxTitleLength       = 60
	maxDescriptionLength = 500
)

// fallbackSuffixes are the local variations applied when the generation
// call fails. One is picked uniformly at random; "NUEVO: " is a prefix.
var fallbackSuffixes = []string{
	" - Stock Disponible",
	" - Entrega Rápida",
	" - Garantizado",
	" - Oferta Especial",
	"NUEVO: ",
	" | Envío a Todo el País",
}

// VariationService produces a title (and optional description) variation
// for a listing. It never fails: any generation error degrades to a local
// fallback so the publish pipeline cannot stall on AI unavailability.
type VariationService interface {
	GenerateVariations(ctx context.Context, original transfer.Variation, varyDescription bool, category string) transfer.Variation
}

type variationService struct {
	apiKey string
	apiURL string
	client *http.Client
}

func NewVariationService(apiKey string) VariationService {
	return newVariationService(apiKey, deepSeekAPIURL)
}

func newVariationService(apiKey, apiURL string) *variationService {
	return &variationService{
		apiKey: apiKey,
		apiURL: apiURL,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *variationService) GenerateVariations(ctx context.Context, original transfer.Variation, varyDescription bool, category string) transfer.Variation {
	generated, err := s.callDeepSeek(ctx, original, varyDescription, category)
	if err != nil {
		slog.Info("variation generation failed, using fallback", "error", err.Error())
		return fallbackVariation(original, varyDescription)
	}

	variation := transfer.Variation{Title: validateTitle(generated.Title)}
	if varyDescription {
		variation.Description = validateDescription(generated.Description)
	}
	return variation
}

func (s *variationService) callDeepSeek(ctx context.Context, original transfer.Variation, varyDescription bool, category string) (*transfer.Variation, error) {
	reqBody := transfer.DeepSeekRequest{
		Model: deepSeekModel,
		Messages: []transfer.DeepSeekMessage{
			{
				Role:    "system",
				Content: "Eres un experto en marketing de MercadoLibre. Generas títulos y descripciones atractivos y optimizados.",
			},
			{
				Role:    "user",
				Content: buildPrompt(original, varyDescription, category),
			},
		},
		Temperature: 0.7,
		MaxTokens:   300,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("deepseek returned %d", resp.StatusCode)
	}

	var completion transfer.DeepSeekResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, err
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return nil, errors.New("empty completion")
	}

	return parseVariation(completion.Choices[0].Message.Content)
}

func buildPrompt(original transfer.Variation, varyDescription bool, category string) string {
	var b strings.Builder
	b.WriteString("Necesito una variación de un producto de MercadoLibre.\n\nDatos del producto:\n")
	if category != "" {
		fmt.Fprintf(&b, "- Categoría: %s\n", category)
	}
	fmt.Fprintf(&b, "- Título actual: %q\n", original.Title)
	if original.Description != "" {
		fmt.Fprintf(&b, "- Descripción actual (para referencia): %q\n", original.Description)
	}

	b.WriteString(`
Tu tarea:
1. Generar un NUEVO título que sea DIFERENTE pero igualmente relevante
   - Máximo 60 caracteres
   - Incluir palabras clave importantes
   - Mantener el tipo de producto
   - Sin caracteres especiales (excepto guiones y espacios)
   - Diferente al original: no copies el título original
`)
	if varyDescription {
		b.WriteString(`2. Generar una NUEVA descripción breve y atractiva (máximo 500 caracteres)
   - Incluir puntos clave del producto
   - Ser conciso pero persuasivo
`)
	} else {
		b.WriteString("2. NO generes descripción\n")
	}
	b.WriteString(`
Responde en este formato JSON (SIN texto adicional):
{
  "title": "nuevo título aquí",
  "description": "nueva descripción aquí"
}

IMPORTANTE: Responde SOLO el JSON, nada más.`)

	return b.String()
}

// parseVariation pulls the first balanced {...} object out of a free-form
// completion, which may carry leading or trailing prose.
func parseVariation(content string) (*transfer.Variation, error) {
	object, err := extractJSONObject(content)
	if err != nil {
		return nil, err
	}

	var variation transfer.Variation
	if err := json.Unmarshal([]byte(object), &variation); err != nil {
		return nil, fmt.Errorf("unparseable variation JSON: %w", err)
	}

	variation.Title = strings.TrimSpace(variation.Title)
	variation.Description = strings.TrimSpace(variation.Description)
	if variation.Title == "" {
		return nil, errors.New("variation has no title")
	}

	return &variation, nil
}

func extractJSONObject(content string) (string, error) {
	start := strings.IndexByte(content, '{')
	if start == -1 {
		return "", errors.New("no JSON object in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return content[start : i+1], nil
			}
		}
	}

	return "", errors.New("unbalanced JSON object in response")
}

func fallbackVariation(original transfer.Variation, varyDescription bool) transfer.Variation {
	pick := fallbackSuffixes[rand.Intn(len(fallbackSuffixes))]

	title := original.Title + pick
	if strings.HasSuffix(pick, ": ") {
		title = pick + original.Title
	}

	variation := transfer.Variation{Title: validateTitle(title)}
	if varyDescription {
		variation.Description = original.Description
	}
	return variation
}

func validateTitle(title string) string {
	title = strings.NewReplacer("<", "", ">", "").Replace(title)
	runes := []rune(title)
	if len(runes) > maxTitleLength {
		title = string(runes[:maxTitleLength])
	}
	return strings.TrimSpace(title)
}

func validateDescription(description string) string {
	runes := []rune(description)
	if len(runes) > maxDescriptionLength {
		description = string(runes[:maxDescriptionLength])
	}
	return strings.TrimSpace(description)
}
