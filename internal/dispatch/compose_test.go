package dispatch

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspectCompose(t *testing.T) {
	info, err := InspectCompose("testdata/compose.yaml")
	require.NoError(t, err)

	require.Len(t, info.Services, 2)
	assert.Equal(t, "app", info.Services[0].Name)
	assert.Equal(t, "neo4j", info.Services[1].Name)
	assert.Equal(t, []string{"kg"}, info.Services[1].Profiles)
}

func TestInspectComposeProfileSplit(t *testing.T) {
	info, err := InspectCompose("testdata/compose.yaml")
	require.NoError(t, err)

	assert.Equal(t, []string{"app"}, info.DefaultServices())
	assert.Equal(t, []string{"neo4j"}, info.ProfileServices("kg"))
	assert.Empty(t, info.ProfileServices("monitoring"))
}

func TestInspectComposeInterpolated(t *testing.T) {
	// Unresolvable ${VAR} references must not hide the service list,
	// whichever parse path ends up handling the file.
	info, err := InspectCompose("testdata/interpolated.yaml")
	require.NoError(t, err)

	names := make([]string, 0, len(info.Services))
	for _, svc := range info.Services {
		names = append(names, svc.Name)
	}
	assert.Equal(t, []string{"app", "neo4j"}, names)
	assert.Equal(t, []string{"neo4j"}, info.ProfileServices("kg"))
}

func TestInspectFallback(t *testing.T) {
	info, err := inspectFallback("testdata/interpolated.yaml")
	require.NoError(t, err)

	require.Len(t, info.Services, 2)
	assert.Equal(t, "app", info.Services[0].Name)
	assert.Equal(t, []string{"kg"}, info.Services[1].Profiles)
}

func TestInspectComposeMalformed(t *testing.T) {
	_, err := InspectCompose("testdata/malformed.yaml")
	assert.Error(t, err)
}

func TestInspectComposeMissingFile(t *testing.T) {
	_, err := InspectCompose("testdata/no-such-file.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestHasService(t *testing.T) {
	info, err := InspectCompose("testdata/compose.yaml")
	require.NoError(t, err)

	assert.True(t, info.HasService("app"))
	assert.False(t, info.HasService("web"))
}

func TestSummary(t *testing.T) {
	info, err := InspectCompose("testdata/compose.yaml")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"app (tutorstack/app:latest)",
		"neo4j (neo4j:5) [profile kg]",
	}, info.Summary())
}

func TestSummaryWithoutImage(t *testing.T) {
	info := ComposeInfo{Services: []ComposeService{{Name: "app"}}}
	assert.Equal(t, []string{"app"}, info.Summary())
}

func TestProfileServicesEmptyInfo(t *testing.T) {
	assert.Empty(t, ComposeInfo{}.ProfileServices("kg"))
	assert.Empty(t, ComposeInfo{}.DefaultServices())
}
