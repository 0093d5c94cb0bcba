package pgsql

import (
	"context"
	"embed"
	"fmt"
	"strings"

	ilog "spacewars/internal/log"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Migrate applies the embedded schema for the connector's driver. Every
// statement is idempotent so it is safe to run on each start.
func Migrate(ctx context.Context, connector SQLConnector) error {
	logger := ilog.Component("pgsql")
	name := "schema/" + connector.Driver() + ".sql"
	raw, err := schemaFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}

	stmts := splitStatements(string(raw))
	logger.Infof("applying %s (%d statements)", name, len(stmts))
	for i, stmt := range stmts {
		if _, err := connector.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	logger.Infof("schema up to date")
	return nil
}

func splitStatements(script string) []string {
	var lines []string
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		lines = append(lines, line)
	}
	out := make([]string, 0)
	for _, stmt := range strings.Split(strings.Join(lines, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
