package ai

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/lexgate/internal/core/domain"
)

func TestInitResult_Close(t *testing.T) {
	t.Run("close with nil services", func(t *testing.T) {
		result := &InitResult{}
		// Should not panic
		result.Close()
	})
}

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.EmbeddingSettings
		wantNil     bool
		wantModel   string
		errContains string
	}{
		{
			name:    "nil settings returns nil",
			wantNil: true,
		},
		{
			name:     "empty provider returns nil",
			settings: &domain.EmbeddingSettings{},
			wantNil:  true,
		},
		{
			name: "cohere provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderCohere,
				APIKey:   "test-key",
			},
			wantModel: "embed-multilingual-v3.0",
		},
		{
			name: "openai provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "text-embedding-3-large",
			},
			wantModel: "text-embedding-3-large",
		},
		{
			name: "ollama provider needs no key",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				Model:    "bge-m3",
			},
			wantModel: "bge-m3",
		},
		{
			name: "anthropic provider returns error",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
			},
			wantNil:     true,
			errContains: "does not support embeddings",
		},
		{
			name:        "missing key returns error",
			settings:    &domain.EmbeddingSettings{Provider: domain.AIProviderCohere},
			wantNil:     true,
			errContains: "requires an API key",
		},
		{
			name:        "unknown provider returns error",
			settings:    &domain.EmbeddingSettings{Provider: "mistral", APIKey: "k"},
			wantNil:     true,
			errContains: "does not support embeddings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			} else {
				require.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, svc)
				return
			}
			require.NotNil(t, svc)
			assert.Equal(t, tt.wantModel, svc.ModelName())
			assert.Positive(t, svc.Dimensions())
		})
	}
}

func TestCreateGenerator(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.GeneratorSettings
		wantNil     bool
		wantModel   string
		errContains string
	}{
		{
			name:    "nil settings returns nil",
			wantNil: true,
		},
		{
			name: "openai",
			settings: &domain.GeneratorSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
			},
			wantModel: "gpt-4o-mini",
		},
		{
			name: "anthropic",
			settings: &domain.GeneratorSettings{
				Provider: domain.AIProviderAnthropic,
				APIKey:   "test-key",
				Model:    "claude-3-5-haiku-latest",
			},
			wantModel: "claude-3-5-haiku-latest",
		},
		{
			name:      "ollama",
			settings:  &domain.GeneratorSettings{Provider: domain.AIProviderOllama},
			wantModel: "llama3.2",
		},
		{
			name:        "cohere cannot generate",
			settings:    &domain.GeneratorSettings{Provider: domain.AIProviderCohere, APIKey: "k"},
			wantNil:     true,
			errContains: "does not support answer generation",
		},
		{
			name:        "missing key",
			settings:    &domain.GeneratorSettings{Provider: domain.AIProviderAnthropic},
			wantNil:     true,
			errContains: "requires an API key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := CreateGenerator(tt.settings)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
			} else {
				require.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, gen)
				return
			}
			require.NotNil(t, gen)
			assert.Equal(t, tt.wantModel, gen.ModelName())
		})
	}
}

func TestCreateAndValidateEmbeddingService(t *testing.T) {
	t.Run("reachable service is returned", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/tags", r.URL.Path)
			_, _ = w.Write([]byte(`{"models":[]}`))
		}))
		defer server.Close()

		svc, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  server.URL,
		})
		require.NoError(t, err)
		require.NotNil(t, svc)
		svc.Close()
	})

	t.Run("unreachable service is unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		svc, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  server.URL,
		})
		assert.Nil(t, svc)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})

	t.Run("bad settings are unavailable", func(t *testing.T) {
		_, err := CreateAndValidateEmbeddingService(&domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI})
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})

	t.Run("no provider is not an error", func(t *testing.T) {
		svc, err := CreateAndValidateEmbeddingService(nil)
		require.NoError(t, err)
		assert.Nil(t, svc)
	})
}

func TestInit(t *testing.T) {
	embedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer embedServer.Close()

	genServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer genServer.Close()

	result := Init(
		&domain.EmbeddingSettings{Provider: domain.AIProviderOllama, BaseURL: embedServer.URL},
		&domain.GeneratorSettings{Provider: domain.AIProviderOpenAI, APIKey: "k", BaseURL: genServer.URL},
	)
	defer result.Close()

	assert.NotNil(t, result.EmbeddingService)
	assert.Nil(t, result.Generator)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "answer generator unavailable")
}

func TestInit_EmbeddingFailureIsWarning(t *testing.T) {
	result := Init(&domain.EmbeddingSettings{Provider: domain.AIProviderCohere}, nil)

	assert.Nil(t, result.EmbeddingService)
	assert.Nil(t, result.Generator)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "requires an API key")
}
