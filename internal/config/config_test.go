package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434", s.OllamaHost)
	assert.Equal(t, "http://localhost:7474", s.Neo4jURL)
	assert.Equal(t, ".env", s.EnvFile)
	assert.Equal(t, ".env.example", s.EnvTemplate)
	assert.Equal(t, "compose.yaml", s.ComposeFile)
	assert.Equal(t, "app", s.AppService)
	assert.Equal(t, "kg", s.GraphProfile)
	assert.Equal(t, "graphrag_app.py", s.AppScript)
	assert.Equal(t, "~/.tutorctl", s.StateDir)
	assert.Equal(t, "llama3.2", s.Models.LLM)
	assert.Equal(t, "mxbai-embed-large", s.Models.Embedding)
	assert.Equal(t, []string{"mxbai-embed-large", "nomic-embed-text", "all-minilm"}, s.Models.EmbeddingCandidates)
	assert.Equal(t, 60, s.Models.VerifyWaitSeconds)
	assert.Equal(t, 30, s.Models.ServeWaitSeconds)
}

func TestLoadConfigOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("ollama_host", "http://10.0.0.5:11434")
	viper.Set("models.llm", "mistral")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:11434", s.OllamaHost)
	assert.Equal(t, "mistral", s.Models.LLM)
	assert.Equal(t, "mxbai-embed-large", s.Models.Embedding)
}
