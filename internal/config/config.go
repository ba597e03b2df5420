package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// DefaultPath is where the environment-wide configuration lives unless
// REVIEWSITE_CONFIG points somewhere else.
const DefaultPath = "/etc/reviewsite.conf"

// Config holds the environment-wide settings for one review-site host.
// It is built once by Load and passed by reference into every component;
// nothing mutates it afterwards.
type Config struct {
	// Site storage
	SitesRoot  string
	WebrootDir string
	HooksDir   string

	// Base environment (the canonical, always-on instance)
	BaseRoot     string
	BaseDatabase string

	// Review domains, one FQDN suffix per entry
	BaseDomains []string

	// Source control
	RepoURL string

	// Database server
	DBPrefix string
	DBHost   string
	DBUser   string
	DBPass   string

	// Path to the CMS command-line tool used for config verification
	CMSTool string

	// File storage subtrees under BaseRoot to seed new sites from
	FilesPublic  string
	FilesPrivate string
}

// Load reads and parses the reviewsite configuration file. The path is
// taken from REVIEWSITE_CONFIG when set, otherwise DefaultPath; a
// ".local" variant next to the main file is applied on top when present.
func Load() (*Config, error) {
	cfg := &Config{
		DBHost:       "127.0.0.1",
		DBPrefix:     "review_",
		FilesPublic:  "files",
		FilesPrivate: "private",
	}

	path := os.Getenv("REVIEWSITE_CONFIG")
	if path == "" {
		path = DefaultPath
	}

	if err := loadConfigFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	// Local overrides, highest priority
	localPath := path + ".local"
	if _, err := os.Stat(localPath); err == nil {
		if err := loadConfigFile(localPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", localPath, err)
		}
	}

	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadConfigFile parses a bash-style config file into cfg.
func loadConfigFile(filename string, cfg *Config) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	// Regex to match KEY="value" or KEY=value
	re := regexp.MustCompile(`^([A-Z_]+)=(.*)$`)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		matches := re.FindStringSubmatch(line)
		if matches == nil {
			continue
		}

		key := matches[1]
		value := strings.Trim(matches[2], `"'`)

		switch key {
		case "SITES_ROOT":
			cfg.SitesRoot = value
		case "WEBROOT_DIR":
			cfg.WebrootDir = value
		case "HOOKS_DIR":
			cfg.HooksDir = value
		case "BASE_ROOT":
			cfg.BaseRoot = value
		case "BASE_DATABASE":
			cfg.BaseDatabase = value
		case "BASE_DOMAINS":
			cfg.BaseDomains = strings.Fields(value)
		case "REPO_URL":
			cfg.RepoURL = value
		case "DB_PREFIX":
			cfg.DBPrefix = value
		case "DB_HOST":
			cfg.DBHost = value
		case "DB_USER":
			cfg.DBUser = value
		case "DB_PASS":
			cfg.DBPass = value
		case "CMS_TOOL":
			cfg.CMSTool = value
		case "FILES_PUBLIC":
			cfg.FilesPublic = value
		case "FILES_PRIVATE":
			cfg.FilesPrivate = value
		}
	}

	return scanner.Err()
}

// expandPaths expands a leading ~ in the path-valued settings.
func (c *Config) expandPaths() {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	for _, p := range []*string{&c.SitesRoot, &c.WebrootDir, &c.HooksDir, &c.BaseRoot, &c.CMSTool} {
		if strings.HasPrefix(*p, "~/") {
			*p = filepath.Join(home, (*p)[2:])
		}
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	required := map[string]string{
		"SITES_ROOT":    c.SitesRoot,
		"WEBROOT_DIR":   c.WebrootDir,
		"BASE_ROOT":     c.BaseRoot,
		"BASE_DATABASE": c.BaseDatabase,
		"REPO_URL":      c.RepoURL,
		"DB_USER":       c.DBUser,
		"CMS_TOOL":      c.CMSTool,
	}

	var missing []string
	for field, value := range required {
		if value == "" {
			missing = append(missing, field)
		}
	}
	if len(c.BaseDomains) == 0 {
		missing = append(missing, "BASE_DOMAINS")
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required configuration fields: %s", strings.Join(missing, ", "))
	}

	return nil
}
