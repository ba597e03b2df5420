// Package appconfig points a site's CMS configuration at its own database
// and file storage, and verifies afterwards that the live configuration
// really took effect.
package appconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/thatjpcsguy/reviewsite/internal/config"
	"github.com/thatjpcsguy/reviewsite/internal/registry"
)

var (
	ErrConfig       = errors.New("configuration rewrite failed")
	ErrVerification = errors.New("configuration verification failed")
)

// Markers bracketing the injected settings block. The begin marker doubles
// as the idempotency check: if it is already present, injection is skipped.
const (
	beginMarker = "// reviewsite:begin"
	endMarker   = "// reviewsite:end"
)

// Paths inside a site's source checkout.
const (
	settingsPath = "sites/default/settings.php"
	htaccessPath = ".htaccess"
)

// settingsData is the substitution context for the settings block. Every
// placeholder in the template is a field here, so a typo in either fails
// the template test instead of producing a broken settings file.
type settingsData struct {
	Database     string
	Host         string
	User         string
	Password     string
	FilesPublic  string
	FilesPrivate string
	Domains      []string
}

var settingsTemplate = template.Must(template.New("settings").Parse(beginMarker + `
$databases['default']['default'] = [
  'database' => '{{.Database}}',
  'username' => '{{.User}}',
  'password' => '{{.Password}}',
  'host' => '{{.Host}}',
  'driver' => 'mysql',
];
$settings['file_public_path'] = '{{.FilesPublic}}';
$settings['file_private_path'] = '{{.FilesPrivate}}';
$settings['trusted_host_patterns'] = [
{{- range .Domains}}
  '^{{.}}$',
{{- end}}
];
` + endMarker + "\n"))

// disabledRewriteBase matches the commented-out RewriteBase directive the
// application ships with.
var disabledRewriteBase = regexp.MustCompile(`(?m)^(\s*)#\s*(RewriteBase /\s*)$`)

// Inject rewrites the site's configuration to use its own database, file
// storage and domains. Running it twice is safe: the rewrite-base edit
// only fires on the commented form and the settings block is only added
// when the begin marker is absent.
func Inject(cfg *config.Config, site *registry.Site) error {
	if err := enableRewriteBase(site); err != nil {
		return err
	}
	return injectSettings(cfg, site)
}

// enableRewriteBase uncomments the RewriteBase directive in the site's
// rewrite config. A missing file or missing directive is silently skipped;
// the base environment may legitimately not carry one.
func enableRewriteBase(site *registry.Site) error {
	path := filepath.Join(site.SourceDir(), htaccessPath)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}

	updated := disabledRewriteBase.ReplaceAll(data, []byte("$1$2"))
	if bytes.Equal(updated, data) {
		return nil
	}

	if err := os.WriteFile(path, updated, 0644); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return nil
}

// injectSettings appends the marked settings block to the application's
// settings file, substituting the site's values into the template.
func injectSettings(cfg *config.Config, site *registry.Site) error {
	path := filepath.Join(site.SourceDir(), settingsPath)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}

	if bytes.Contains(data, []byte(beginMarker)) {
		return nil
	}

	block, err := renderSettings(cfg, site)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	out.Write(data)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		out.WriteByte('\n')
	}
	out.WriteString(block)

	if err := os.WriteFile(path, out.Bytes(), 0644); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return nil
}

// renderSettings fills the settings template with the site's values.
func renderSettings(cfg *config.Config, site *registry.Site) (string, error) {
	var buf bytes.Buffer
	err := settingsTemplate.Execute(&buf, settingsData{
		Database:     site.Database,
		Host:         cfg.DBHost,
		User:         cfg.DBUser,
		Password:     cfg.DBPass,
		FilesPublic:  site.FilesPublicDir(),
		FilesPrivate: site.FilesPrivateDir(),
		Domains:      site.Domains,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return buf.String(), nil
}

// cmsStatus is the subset of the CMS tool's status output we care about.
type cmsStatus struct {
	DBName string `json:"db-name"`
	DBHost string `json:"db-hostname"`
}

// Verify asks the application itself which database and host it is
// talking to and fails when either differs from what the site was given.
func Verify(cfg *config.Config, site *registry.Site) error {
	cmd := exec.Command(cfg.CMSTool, "status", "--format=json")
	cmd.Dir = site.SourceDir()

	output, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("%w: %s did not run: %v", ErrVerification, cfg.CMSTool, err)
	}

	var status cmsStatus
	if err := json.Unmarshal(output, &status); err != nil {
		return fmt.Errorf("%w: unreadable status output: %v", ErrVerification, err)
	}

	if status.DBName != site.Database {
		return fmt.Errorf("%w: live database is %q, expected %q", ErrVerification, status.DBName, site.Database)
	}

	// The configured host may carry a port; the application reports the
	// bare hostname.
	host := cfg.DBHost
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	if status.DBHost != "" && status.DBHost != host {
		return fmt.Errorf("%w: live database host is %q, expected %q", ErrVerification, status.DBHost, host)
	}
	return nil
}
