// Package database is the database capability: create, drop and inspect
// MySQL databases through the driver, and move data in and out with the
// mysqldump/mysql client binaries.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"github.com/thatjpcsguy/reviewsite/internal/config"
)

// validName matches the database identifiers this tool is willing to
// create or drop. Anything else (path separators, quotes, spaces) is
// rejected before it reaches the server.
var validName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Admin holds a server-level connection, not bound to any schema.
type Admin struct {
	db  *sql.DB
	cfg *config.Config
}

// Open connects to the configured MySQL server.
func Open(cfg *config.Config) (*Admin, error) {
	host := cfg.DBHost
	if !strings.Contains(host, ":") {
		host += ":3306"
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s)/", cfg.DBUser, cfg.DBPass, host)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database server: %w", err)
	}

	return &Admin{db: db, cfg: cfg}, nil
}

// Close closes the server connection.
func (a *Admin) Close() error {
	return a.db.Close()
}

// Exists reports whether a database with the given name exists.
func (a *Admin) Exists(name string) (bool, error) {
	var found string
	err := a.db.QueryRow(
		"SELECT schema_name FROM information_schema.schemata WHERE schema_name = ?",
		name,
	).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check database %s: %w", name, err)
	}
	return true, nil
}

// Create creates a new, empty database with a fixed UTF-8 character set.
// Fails if the name is already taken.
func (a *Admin) Create(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid database name %q", name)
	}
	query := fmt.Sprintf("CREATE DATABASE `%s` CHARACTER SET utf8mb4 COLLATE utf8mb4_general_ci", name)
	if _, err := a.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create database %s: %w", name, err)
	}
	return nil
}

// Drop removes a database. A database that is already gone is not an
// error, so delete can clean up after a partial provisioning.
func (a *Admin) Drop(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("invalid database name %q", name)
	}
	query := fmt.Sprintf("DROP DATABASE IF EXISTS `%s`", name)
	if _, err := a.db.Exec(query); err != nil {
		return fmt.Errorf("failed to drop database %s: %w", name, err)
	}
	return nil
}

// Dump exports a point-in-time dump of the named database to outPath,
// with DEFINER clauses stripped so the dump restores under any user.
func (a *Admin) Dump(name, outPath string) error {
	args := append(a.clientArgs(),
		"--single-transaction",
		"--routines",
		"--triggers",
		name,
	)

	cmd := exec.Command("mysqldump", args...)
	output, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("mysqldump of %s failed: %w", name, err)
	}

	if err := os.WriteFile(outPath, StripDefiners(output), 0644); err != nil {
		return fmt.Errorf("failed to write dump: %w", err)
	}
	return nil
}

// Import loads a dump file into the named database via the mysql client.
func (a *Admin) Import(name, dumpPath string) error {
	file, err := os.Open(dumpPath)
	if err != nil {
		return fmt.Errorf("failed to open dump: %w", err)
	}
	defer func() { _ = file.Close() }()

	args := append(a.clientArgs(), name)
	cmd := exec.Command("mysql", args...)
	cmd.Stdin = file
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("import into %s failed: %w", name, err)
	}
	return nil
}

// clientArgs builds the connection arguments shared by the mysql and
// mysqldump client invocations.
func (a *Admin) clientArgs() []string {
	host := a.cfg.DBHost
	port := "3306"
	if h, p, ok := strings.Cut(a.cfg.DBHost, ":"); ok {
		host, port = h, p
	}

	args := []string{
		"--host", host,
		"--port", port,
		"--user", a.cfg.DBUser,
	}
	if a.cfg.DBPass != "" {
		args = append(args, "--password="+a.cfg.DBPass)
	}
	return args
}

// definerClause matches the DEFINER clauses mysqldump embeds in views,
// routines and triggers. They reference the user the dump was taken as
// and would break restoration under the review-site database user.
var definerClause = regexp.MustCompile("DEFINER=`[^`]*`@`[^`]*`\\s?")

// StripDefiners removes environment-specific DEFINER clauses from a dump.
func StripDefiners(dump []byte) []byte {
	return definerClause.ReplaceAll(dump, nil)
}

// BootstrapStatements returns the SQL that grants the configured database
// user the rights this tool needs: full control over every database with
// the review prefix and read access to the base database for dumps. The
// output is meant to be piped into a privileged mysql session.
func BootstrapStatements(cfg *config.Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE USER IF NOT EXISTS '%s'@'%%' IDENTIFIED BY '%s';\n", cfg.DBUser, cfg.DBPass)
	fmt.Fprintf(&b, "GRANT ALL PRIVILEGES ON `%s%%`.* TO '%s'@'%%';\n", cfg.DBPrefix, cfg.DBUser)
	fmt.Fprintf(&b, "GRANT SELECT, LOCK TABLES, SHOW VIEW, EVENT, TRIGGER ON `%s`.* TO '%s'@'%%';\n", cfg.BaseDatabase, cfg.DBUser)
	b.WriteString("FLUSH PRIVILEGES;\n")
	return b.String()
}
