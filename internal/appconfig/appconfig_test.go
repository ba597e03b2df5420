package appconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatjpcsguy/reviewsite/internal/config"
	"github.com/thatjpcsguy/reviewsite/internal/registry"
)

func testSite(t *testing.T) (*config.Config, *registry.Site) {
	t.Helper()
	cfg := &config.Config{
		SitesRoot:   filepath.Join(t.TempDir(), "sites"),
		DBPrefix:    "review_",
		DBHost:      "db.internal",
		DBUser:      "review",
		DBPass:      "secret",
		BaseDomains: []string{"review.example.test"},
	}
	reg := registry.New(cfg)
	site, err := reg.Init("feature-login-fix", "feature/login-fix", time.Now())
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(site.SourceDir(), "sites", "default"), 0755))
	return cfg, site
}

func writeSettings(t *testing.T, site *registry.Site, content string) string {
	t.Helper()
	path := filepath.Join(site.SourceDir(), settingsPath)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestInjectSettings(t *testing.T) {
	cfg, site := testSite(t)
	path := writeSettings(t, site, "<?php\n// base settings\n")

	require.NoError(t, Inject(cfg, site))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, beginMarker)
	assert.Contains(t, text, endMarker)
	assert.Contains(t, text, "'database' => 'review_feature_login_fix'")
	assert.Contains(t, text, "'host' => 'db.internal'")
	assert.Contains(t, text, "'^feature-login-fix.review.example.test$'")
	assert.Contains(t, text, site.FilesPublicDir())
}

func TestInjectIsIdempotent(t *testing.T) {
	cfg, site := testSite(t)
	path := writeSettings(t, site, "<?php\n")

	require.NoError(t, Inject(cfg, site))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, Inject(cfg, site))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.Equal(t, 1, strings.Count(string(second), beginMarker))
}

func TestInjectMissingSettingsFile(t *testing.T) {
	cfg, site := testSite(t)
	err := Inject(cfg, site)
	require.ErrorIs(t, err, ErrConfig)
}

func TestEnableRewriteBase(t *testing.T) {
	cfg, site := testSite(t)
	writeSettings(t, site, "<?php\n")

	htaccess := filepath.Join(site.SourceDir(), htaccessPath)
	require.NoError(t, os.WriteFile(htaccess, []byte(
		"RewriteEngine on\n  # RewriteBase /\nRewriteRule ^ index.php [L]\n"), 0644))

	require.NoError(t, Inject(cfg, site))

	data, err := os.ReadFile(htaccess)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  RewriteBase /\n")
	assert.NotContains(t, string(data), "# RewriteBase")

	// Running again leaves the now-enabled directive alone.
	require.NoError(t, Inject(cfg, site))
	again, err := os.ReadFile(htaccess)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestEnableRewriteBaseAbsent(t *testing.T) {
	cfg, site := testSite(t)
	writeSettings(t, site, "<?php\n")

	// No .htaccess at all: silently skipped.
	require.NoError(t, Inject(cfg, site))
}

func TestVerify(t *testing.T) {
	cfg, site := testSite(t)

	tool := filepath.Join(t.TempDir(), "cms-tool")
	script := "#!/bin/sh\necho '{\"db-name\": \"review_feature_login_fix\", \"db-hostname\": \"db.internal\"}'\n"
	require.NoError(t, os.WriteFile(tool, []byte(script), 0755))
	cfg.CMSTool = tool

	require.NoError(t, Verify(cfg, site))
}

func TestVerifyMismatch(t *testing.T) {
	cfg, site := testSite(t)

	tool := filepath.Join(t.TempDir(), "cms-tool")
	script := "#!/bin/sh\necho '{\"db-name\": \"cms_base\", \"db-hostname\": \"db.internal\"}'\n"
	require.NoError(t, os.WriteFile(tool, []byte(script), 0755))
	cfg.CMSTool = tool

	err := Verify(cfg, site)
	require.ErrorIs(t, err, ErrVerification)
	assert.Contains(t, err.Error(), "cms_base")
}

func TestVerifyHostMismatch(t *testing.T) {
	cfg, site := testSite(t)

	tool := filepath.Join(t.TempDir(), "cms-tool")
	script := "#!/bin/sh\necho '{\"db-name\": \"review_feature_login_fix\", \"db-hostname\": \"other.host\"}'\n"
	require.NoError(t, os.WriteFile(tool, []byte(script), 0755))
	cfg.CMSTool = tool

	err := Verify(cfg, site)
	require.ErrorIs(t, err, ErrVerification)
	assert.Contains(t, err.Error(), "other.host")
}

func TestVerifyHostIgnoresPort(t *testing.T) {
	cfg, site := testSite(t)
	cfg.DBHost = "db.internal:3307"

	tool := filepath.Join(t.TempDir(), "cms-tool")
	script := "#!/bin/sh\necho '{\"db-name\": \"review_feature_login_fix\", \"db-hostname\": \"db.internal\"}'\n"
	require.NoError(t, os.WriteFile(tool, []byte(script), 0755))
	cfg.CMSTool = tool

	require.NoError(t, Verify(cfg, site))
}

func TestRenderSettingsTemplate(t *testing.T) {
	cfg, site := testSite(t)

	block, err := renderSettings(cfg, site)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(block, beginMarker))
	assert.True(t, strings.HasSuffix(block, endMarker+"\n"))
	assert.NotContains(t, block, "<no value>")
}
