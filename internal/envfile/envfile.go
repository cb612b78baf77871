package envfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Keys the orchestrator reads or writes in the stack's env file.
const (
	KeyEmbeddingModel   = "EMBEDDING_MODEL"
	KeyLLMModel         = "LLM_MODEL"
	KeyKnowledgeGraph   = "ENABLE_KNOWLEDGE_GRAPH"
	KeyEntityExtraction = "ENABLE_LLM_ENTITY_EXTRACTION"
)

// PersistError wraps a failed write of the env file. The previous file
// content is left untouched when this is returned.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persisting %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

// Document is an ordered KEY=VALUE file held line by line. Mutating one key
// leaves every other line byte-identical, including comments and blanks.
type Document struct {
	lines []string
}

// parseDocument splits file content into lines. The document always
// serializes with a trailing newline.
func parseDocument(content string) *Document {
	if content == "" {
		return &Document{}
	}
	content = strings.TrimSuffix(content, "\n")
	return &Document{lines: strings.Split(content, "\n")}
}

// pairKey returns the key of a KEY=VALUE line, or "" when the line is a
// comment, blank, or otherwise not a pair.
func pairKey(line string) string {
	if strings.HasPrefix(line, "#") {
		return ""
	}
	idx := strings.IndexByte(line, '=')
	if idx <= 0 {
		return ""
	}
	key := line[:idx]
	if strings.ContainsAny(key, " \t") {
		return ""
	}
	return key
}

// Get returns the value stored under key.
func (d *Document) Get(key string) (string, bool) {
	for _, line := range d.lines {
		if pairKey(line) == key {
			return line[len(key)+1:], true
		}
	}
	return "", false
}

// Upsert replaces the value of an existing key in place, or appends a new
// KEY=VALUE line at the end of the document.
func (d *Document) Upsert(key, value string) {
	for i, line := range d.lines {
		if pairKey(line) == key {
			d.lines[i] = key + "=" + value
			return
		}
	}
	d.lines = append(d.lines, key+"="+value)
}

// String serializes the document. Non-empty documents end with a newline.
func (d *Document) String() string {
	if len(d.lines) == 0 {
		return ""
	}
	return strings.Join(d.lines, "\n") + "\n"
}

// Store reads and writes the stack's env file.
type Store struct {
	Path         string
	TemplatePath string
}

// NewStore creates a store for the env file at path, seeding missing files
// from templatePath when that file exists.
func NewStore(path, templatePath string) *Store {
	return &Store{Path: path, TemplatePath: templatePath}
}

// Load reads the backing file. A missing file yields the template document
// when one exists, otherwise an empty document.
func (s *Store) Load() (*Document, error) {
	data, err := os.ReadFile(s.Path)
	if err == nil {
		return parseDocument(string(data)), nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", s.Path, err)
	}

	if s.TemplatePath != "" {
		if tdata, terr := os.ReadFile(s.TemplatePath); terr == nil {
			return parseDocument(string(tdata)), nil
		}
	}
	return parseDocument(""), nil
}

// Get returns the value stored under key in the backing file.
func (s *Store) Get(key string) (string, bool, error) {
	doc, err := s.Load()
	if err != nil {
		return "", false, err
	}
	v, ok := doc.Get(key)
	return v, ok, nil
}

// Upsert sets key to value and flushes the whole document before returning.
// Calling it twice with the same arguments leaves the file identical after
// the first call.
func (s *Store) Upsert(key, value string) error {
	doc, err := s.Load()
	if err != nil {
		return err
	}
	doc.Upsert(key, value)
	return s.flush(doc)
}

// flush writes atomically: the file either reflects the new document or, on
// failure, keeps its prior content.
func (s *Store) flush(doc *Document) error {
	dir := filepath.Dir(s.Path)
	tmp, err := os.CreateTemp(dir, ".env-*")
	if err != nil {
		return &PersistError{Path: s.Path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(doc.String()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &PersistError{Path: s.Path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &PersistError{Path: s.Path, Err: err}
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		os.Remove(tmpName)
		return &PersistError{Path: s.Path, Err: err}
	}
	return nil
}
