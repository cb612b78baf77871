package envfile

import (
	"bytes"
	"os"
	"text/template"
)

// SeedData fills the built-in env template.
type SeedData struct {
	OllamaHost     string
	LLMModel       string
	EmbeddingModel string
}

const defaultTemplate = `# TutorStack environment
# Managed by tutorctl; edit values as needed.

OLLAMA_HOST={{ .OllamaHost }}
LLM_MODEL={{ .LLMModel }}
EMBEDDING_MODEL={{ .EmbeddingModel }}

ENABLE_KNOWLEDGE_GRAPH=false
ENABLE_LLM_ENTITY_EXTRACTION=false

NEO4J_URI=bolt://localhost:7687
NEO4J_USER=neo4j
NEO4J_PASSWORD=password
`

// Seed writes a fresh env file: the template file verbatim when it exists,
// otherwise the built-in default. Overwrites an existing file; callers
// confirm with the operator first.
func (s *Store) Seed(data SeedData) error {
	content, err := s.seedContent(data)
	if err != nil {
		return err
	}
	return s.flush(parseDocument(content))
}

func (s *Store) seedContent(data SeedData) (string, error) {
	if s.TemplatePath != "" {
		if tdata, err := os.ReadFile(s.TemplatePath); err == nil {
			return string(tdata), nil
		}
	}

	tmpl, err := template.New("env").Parse(defaultTemplate)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
