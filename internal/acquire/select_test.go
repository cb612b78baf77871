package acquire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorstack/tutorctl/internal/model"
)

func testCandidates() []model.ModelDescriptor {
	return Candidates([]string{"mxbai-embed-large", "nomic-embed-text", "all-minilm"})
}

func TestCandidates(t *testing.T) {
	descs := testCandidates()

	require.Len(t, descs, 3)
	assert.Equal(t, "mxbai-embed-large", descs[0].RequestedName)
	assert.Equal(t, model.SizeLarge, descs[0].SizeClass)
	assert.Equal(t, model.SizeSmall, descs[2].SizeClass)
	for _, d := range descs {
		assert.False(t, d.Confirmed())
	}
}

func TestDecideByIndex(t *testing.T) {
	desc, err := Decide(testCandidates(), Choice{Index: 2})
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", desc.RequestedName)
}

func TestDecideSkip(t *testing.T) {
	_, err := Decide(testCandidates(), Choice{Skip: true})
	assert.ErrorIs(t, err, ErrSkipped)
}

func TestDecideIndexOutOfRange(t *testing.T) {
	_, err := Decide(testCandidates(), Choice{Index: 4})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestDecideCustom(t *testing.T) {
	desc, err := Decide(testCandidates(), Choice{Custom: "bge-m3"})
	require.NoError(t, err)
	assert.Equal(t, "bge-m3", desc.RequestedName)
	assert.Empty(t, desc.ResolvedTag)
}

func TestDecideCustomTrimsSpace(t *testing.T) {
	desc, err := Decide(testCandidates(), Choice{Custom: "  snowflake-arctic-embed  "})
	require.NoError(t, err)
	assert.Equal(t, "snowflake-arctic-embed", desc.RequestedName)
}

func TestDecideEmptyInput(t *testing.T) {
	_, err := Decide(testCandidates(), Choice{})
	assert.Error(t, err)
}
