package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mchavez27/melipanel/internal/transfer"
	"github.com/stretchr/testify/require"
)

func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req transfer.DeepSeekRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, deepSeekModel, req.Model)
		require.Len(t, req.Messages, 2)

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestGenerateVariationsFromCompletion(t *testing.T) {
	server := completionServer(t, "Claro, aquí está el JSON:\n"+
		`{"title": "Audífonos Inalámbricos Premium", "description": "Sonido nítido y batería de larga duración."}`+
		"\nEspero que sea útil.")
	defer server.Close()

	s := newVariationService("test-key", server.URL)
	got := s.GenerateVariations(context.Background(), transfer.Variation{
		Title:       "Audífonos Bluetooth",
		Description: "Descripción original",
	}, true, "MLM1055")

	require.Equal(t, "Audífonos Inalámbricos Premium", got.Title)
	require.Equal(t, "Sonido nítido y batería de larga duración.", got.Description)
}

func TestGenerateVariationsDescriptionSuppressed(t *testing.T) {
	server := completionServer(t, `{"title": "Audífonos Pro", "description": "no pedida"}`)
	defer server.Close()

	s := newVariationService("test-key", server.URL)
	got := s.GenerateVariations(context.Background(), transfer.Variation{Title: "Audífonos"}, false, "")

	require.Equal(t, "Audífonos Pro", got.Title)
	require.Empty(t, got.Description)
}

func TestGenerateVariationsTruncatesLongoutput(t *testing.T) {
	longTitle := strings.Repeat("á", 80)
	longDescription := strings.Repeat("b", 600)
	server := completionServer(t, `{"title": "`+longTitle+`", "description": "`+longDescription+`"}`)
	defer server.Close()

	s := newVariationService("test-key", server.URL)
	got := s.GenerateVariations(context.Background(), transfer.Variation{Title: "Audífonos"}, true, "")

	require.Equal(t, maxTitleLength, len([]rune(got.Title)))
	require.Equal(t, maxDescriptionLength, len([]rune(got.Description)))
}

func TestGenerateVariationsFallbackOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	s := newVariationService("test-key", server.URL)
	original := transfer.Variation{Title: "Audífonos Bluetooth", Description: "Original"}
	got := s.GenerateVariations(context.Background(), original, true, "")

	require.NotEqual(t, original.Title, got.Title)
	require.Contains(t, got.Title, "Audífonos Bluetooth")
	// Description variation degrades to the original text.
	require.Equal(t, "Original", got.Description)
}

func TestGenerateVariationsFallbackOnGarbageCompletion(t *testing.T) {
	server := completionServer(t, "no hay JSON aquí")
	defer server.Close()

	s := newVariationService("test-key", server.URL)
	got := s.GenerateVariations(context.Background(), transfer.Variation{Title: "Silla Gamer"}, false, "")

	require.Contains(t, got.Title, "Silla Gamer")
	require.NotEqual(t, "Silla Gamer", got.Title)
}

func TestFallbackVariationShapes(t *testing.T) {
	// Every fallback either appends a suffix or prepends the "NUEVO: " tag.
	for i := 0; i < 50; i++ {
		got := fallbackVariation(transfer.Variation{Title: "Mouse Gamer"}, false)
		require.Contains(t, got.Title, "Mouse Gamer")
		require.Greater(t, len(got.Title), len("Mouse Gamer"))
	}
}

func TestExtractJSONObject(t *testing.T) {
	t.Run("bare object", func(t *testing.T) {
		got, err := extractJSONObject(`{"title":"x"}`)
		require.NoError(t, err)
		require.Equal(t, `{"title":"x"}`, got)
	})

	t.Run("object wrapped in prose", func(t *testing.T) {
		got, err := extractJSONObject("Aquí tienes: {\"title\":\"x\"} ¡saludos!")
		require.NoError(t, err)
		require.Equal(t, `{"title":"x"}`, got)
	})

	t.Run("nested braces", func(t *testing.T) {
		got, err := extractJSONObject(`{"a":{"b":1},"c":2} trailing`)
		require.NoError(t, err)
		require.Equal(t, `{"a":{"b":1},"c":2}`, got)
	})

	t.Run("braces inside strings", func(t *testing.T) {
		got, err := extractJSONObject(`{"title":"llaves } dentro \" de texto {"}`)
		require.NoError(t, err)
		require.Equal(t, `{"title":"llaves } dentro \" de texto {"}`, got)
	})

	t.Run("no object", func(t *testing.T) {
		_, err := extractJSONObject("sin json")
		require.Error(t, err)
	})

	t.Run("unbalanced", func(t *testing.T) {
		_, err := extractJSONObject(`{"title":"x"`)
		require.Error(t, err)
	})
}
