package pgsql

import (
	"context"
	"fmt"

	ilog "spacewars/internal/log"
)

var _ Store = (*SQLStore)(nil)

// SQLStore runs repositories over a database/sql connection.
type SQLStore struct {
	connector SQLConnector
	repos     Repos
}

func NewSQLStore(connector SQLConnector) *SQLStore {
	return &SQLStore{connector: connector, repos: NewRepos(connector)}
}

func (s *SQLStore) Repos() Repos { return s.repos }

func (s *SQLStore) InTx(ctx context.Context, fn func(Repos) error) error {
	tx, err := s.connector.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(NewRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		ilog.Component("pgsql").Errorf("commit failed: %v", err)
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
