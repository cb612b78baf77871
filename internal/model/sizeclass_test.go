package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizeClassFor(t *testing.T) {
	tests := []struct {
		name     string
		expected SizeClass
	}{
		{"all-minilm", SizeSmall},
		{"all-minilm:latest", SizeSmall},
		{"nomic-embed-text", SizeMedium},
		{"mxbai-embed-large", SizeLarge},
		{"mxbai-embed-large:latest", SizeLarge},
		{"llama3.2:1b", SizeSmall},
		{"llama3.2:3b", SizeMedium},
		{"llama3.2", SizeMedium},
		{"phi3:mini", SizeSmall},
		{"mistral:7b", SizeLarge},
		{"some-unknown-model", SizeMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SizeClassFor(tt.name))
		})
	}
}

func TestSizeClassLongestPatternWins(t *testing.T) {
	// A tagged variant must not fall back to its family bucket.
	assert.Equal(t, SizeSmall, SizeClassFor("llama3.2:1b-instruct-q4_0"))
}

func TestModelDescriptorConfirmed(t *testing.T) {
	d := ModelDescriptor{RequestedName: "llama3.2"}
	assert.False(t, d.Confirmed())
	assert.Equal(t, "llama3.2", d.Name())

	d.ResolvedTag = "llama3.2:3b"
	assert.True(t, d.Confirmed())
	assert.Equal(t, "llama3.2:3b", d.Name())
}
