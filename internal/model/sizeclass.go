package model

import "strings"

// SizeClass is a rough footprint bucket for a model.
type SizeClass string

const (
	SizeSmall  SizeClass = "small"
	SizeMedium SizeClass = "medium"
	SizeLarge  SizeClass = "large"
)

// sizeClassPatterns maps model name substrings to size classes.
var sizeClassPatterns = map[string]SizeClass{
	// Embedding models
	"all-minilm":       SizeSmall,
	"nomic-embed-text": SizeMedium,
	"mxbai-embed":      SizeLarge,
	"bge-m3":           SizeMedium,
	"snowflake-arctic": SizeMedium,

	// Chat models by tag
	"llama3.2:1b": SizeSmall,
	"llama3.2:3b": SizeMedium,
	"phi3:mini":   SizeSmall,
	"qwen2.5:0.5": SizeSmall,
	"qwen2.5:1.5": SizeSmall,
	"gemma2:2b":   SizeSmall,

	// Chat model families
	"llama3.2": SizeMedium,
	"llama3.1": SizeLarge,
	"mistral":  SizeLarge,
	"phi3":     SizeSmall,
	"gemma2":   SizeMedium,
}

// SizeClassFor buckets a model name by its known family or tag.
// Unknown names default to medium.
func SizeClassFor(name string) SizeClass {
	lower := strings.ToLower(name)

	// Try exact match first
	if sc, ok := sizeClassPatterns[lower]; ok {
		return sc
	}

	// Substring match; longest pattern wins so "llama3.2:1b" beats "llama3.2"
	var best string
	var bestClass SizeClass
	for pattern, sc := range sizeClassPatterns {
		if strings.Contains(lower, pattern) && len(pattern) > len(best) {
			best, bestClass = pattern, sc
		}
	}
	if best != "" {
		return bestClass
	}

	return SizeMedium
}
