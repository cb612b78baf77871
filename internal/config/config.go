package config

import "github.com/spf13/viper"

type Settings struct {
	OllamaHost string `mapstructure:"ollama_host"`
	Neo4jURL   string `mapstructure:"neo4j_url"`

	EnvFile     string `mapstructure:"env_file"`
	EnvTemplate string `mapstructure:"env_template"`

	ComposeFile  string `mapstructure:"compose_file"`
	AppService   string `mapstructure:"app_service"`
	GraphProfile string `mapstructure:"graph_profile"`

	Python       string `mapstructure:"python"`
	Pip          string `mapstructure:"pip"`
	AppScript    string `mapstructure:"app_script"`
	Requirements string `mapstructure:"requirements"`

	StateDir string `mapstructure:"state_dir"`

	Models Models `mapstructure:"models"`
}

type Models struct {
	LLM                 string   `mapstructure:"llm"`
	Embedding           string   `mapstructure:"embedding"`
	EmbeddingCandidates []string `mapstructure:"embedding_candidates"`
	VerifyWaitSeconds   int      `mapstructure:"verify_wait_seconds"`
	ServeWaitSeconds    int      `mapstructure:"serve_wait_seconds"`
}

func Load() (Settings, error) {
	s := Settings{
		OllamaHost:   "http://localhost:11434",
		Neo4jURL:     "http://localhost:7474",
		EnvFile:      ".env",
		EnvTemplate:  ".env.example",
		ComposeFile:  "compose.yaml",
		AppService:   "app",
		GraphProfile: "kg",
		Python:       "python3",
		Pip:          "pip3",
		AppScript:    "graphrag_app.py",
		Requirements: "requirements.txt",
		StateDir:     "~/.tutorctl",
	}
	s.Models.LLM = "llama3.2"
	s.Models.Embedding = "mxbai-embed-large"
	s.Models.EmbeddingCandidates = []string{"mxbai-embed-large", "nomic-embed-text", "all-minilm"}
	s.Models.VerifyWaitSeconds = 60
	s.Models.ServeWaitSeconds = 30

	if err := viper.Unmarshal(&s); err != nil {
		return Settings{}, err
	}

	return s, nil
}
