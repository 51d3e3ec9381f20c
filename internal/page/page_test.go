package page

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderReplacesPlaceholders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registration.html")
	require.NoError(t, os.WriteFile(path, []byte(
		`<link href="$BOOTSTRAP"><script src="$ANGULAR"></script><form action="$REGISTERLINK"></form><a href="$REGISTERLINK">`), 0o600))

	r := NewRenderer(path, map[string]string{
		"$REGISTERLINK": "/register/create",
		"$BOOTSTRAP":    "/css/bootstrap.css",
		"$ANGULAR":      "/js/angular.js",
	})
	out, err := r.Render()
	require.NoError(t, err)
	assert.Equal(t,
		`<link href="/css/bootstrap.css"><script src="/js/angular.js"></script><form action="/register/create"></form><a href="/register/create">`,
		string(out))
}

func TestRenderMissingFile(t *testing.T) {
	r := NewRenderer(filepath.Join(t.TempDir(), "missing.html"), nil)
	_, err := r.Render()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBundledPageHasNoPlaceholdersLeft(t *testing.T) {
	r := NewRenderer(filepath.Join("..", "..", "assets", "registration", "registration.html"), map[string]string{
		"$REGISTERLINK": "/register/create",
		"$BOOTSTRAP":    "b.css",
		"$ANGULAR":      "a.js",
		"$JQUERY":       "j.js",
	})
	out, err := r.Render()
	require.NoError(t, err)
	for _, token := range []string{"$REGISTERLINK", "$BOOTSTRAP", "$ANGULAR", "$JQUERY"} {
		assert.NotContains(t, string(out), token)
	}
}
