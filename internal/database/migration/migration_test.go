package migration

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestEnsureMigrated_FreshDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	core, logs := observer.New(zapcore.InfoLevel)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT name FROM schema_migrations").WillReturnRows(sqlmock.NewRows([]string{"name"}))
	for _, step := range steps {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(step.SQL)).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO schema_migrations").WithArgs(step.Name).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}

	err = EnsureMigrated(context.Background(), db, zap.New(core))
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, len(steps), logs.FilterMessage("db_migration_step").Len())
	assert.Equal(t, 1, logs.FilterMessage("db_migration_success").Len())
}

func TestEnsureMigrated_AlreadyApplied(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	core, logs := observer.New(zapcore.InfoLevel)

	rows := sqlmock.NewRows([]string{"name"})
	for _, step := range steps {
		rows.AddRow(step.Name)
	}
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT name FROM schema_migrations").WillReturnRows(rows)

	err = EnsureMigrated(context.Background(), db, zap.New(core))
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 1, logs.FilterMessage("db_migration_skip").Len())
}

func TestEnsureMigrated_StepFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	core, logs := observer.New(zapcore.InfoLevel)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT name FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow(steps[0].Name))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(steps[1].SQL)).WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	err = EnsureMigrated(context.Background(), db, zap.New(core))
	assert.ErrorContains(t, err, "migration step "+steps[1].Name+" failed: permission denied")
	assert.NoError(t, mock.ExpectationsWereMet())

	failed := logs.FilterMessage("db_migration_failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, steps[1].Name, failed[0].ContextMap()["migration_step"])
}

func TestEnsureMigrated_LedgerError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnError(errors.New("read only"))

	err = EnsureMigrated(context.Background(), db, zap.NewNop())
	assert.ErrorContains(t, err, "create migration ledger: read only")
}
