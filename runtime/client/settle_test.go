package client

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTxOptions(t *testing.T) {
	opts := TxOptions(Serializable, true)
	assert.Equal(t, sql.LevelSerializable, opts.Isolation)
	assert.True(t, opts.ReadOnly)

	assert.Equal(t, sql.LevelDefault, TxOptions(DefaultIsolation, false).Isolation)
	assert.Equal(t, sql.LevelDefault, IsolationLevel(42).sqlLevel())
	assert.Equal(t, "Repeatable Read", RepeatableRead.String())
}

func TestSettle(t *testing.T) {
	var committed, rolledBack int
	commit := func() error { committed++; return nil }
	rollback := func() error { rolledBack++; return nil }

	assert.NoError(t, settle(nil, commit, rollback))
	assert.Equal(t, 1, committed)

	failure := errors.New("insert failed")
	assert.Same(t, failure, settle(failure, commit, rollback))
	assert.Equal(t, 1, rolledBack)
	assert.Equal(t, 1, committed)

	broken := errors.New("connection reset")
	err := settle(failure, commit, func() error { return broken })
	assert.ErrorIs(t, err, failure)
	assert.ErrorIs(t, err, broken)

	err = settle(nil, func() error { return broken }, rollback)
	assert.ErrorIs(t, err, broken)
	assert.Contains(t, err.Error(), "commit failed")
}
