package transaction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *fakeTx) Commit() error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback() error {
	if t.committed {
		return nil
	}
	t.rolledBack = true
	return nil
}

type fakeManager struct {
	tx       *fakeTx
	beginErr error
}

func (m *fakeManager) Begin(ctx context.Context) (Tx, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	return m.tx, nil
}

func TestRun_Commit(t *testing.T) {
	m := &fakeManager{tx: &fakeTx{}}

	err := Run(context.Background(), m, func(tx Tx) error { return nil })

	require.NoError(t, err)
	assert.True(t, m.tx.committed)
	assert.False(t, m.tx.rolledBack)
}

func TestRun_RollbackOnError(t *testing.T) {
	m := &fakeManager{tx: &fakeTx{}}
	fnErr := errors.New("失敗")

	err := Run(context.Background(), m, func(tx Tx) error { return fnErr })

	assert.ErrorIs(t, err, fnErr)
	assert.False(t, m.tx.committed)
	assert.True(t, m.tx.rolledBack)
}

func TestRun_RollbackOnPanic(t *testing.T) {
	m := &fakeManager{tx: &fakeTx{}}

	assert.Panics(t, func() {
		_ = Run(context.Background(), m, func(tx Tx) error { panic("boom") })
	})
	assert.True(t, m.tx.rolledBack)
}

func TestRun_CommitError(t *testing.T) {
	commitErr := errors.New("コミット失敗")
	m := &fakeManager{tx: &fakeTx{commitErr: commitErr}}

	err := Run(context.Background(), m, func(tx Tx) error { return nil })

	assert.ErrorIs(t, err, commitErr)
	assert.True(t, m.tx.rolledBack)
}

func TestRun_BeginError(t *testing.T) {
	beginErr := errors.New("接続失敗")
	m := &fakeManager{beginErr: beginErr}
	called := false

	err := Run(context.Background(), m, func(tx Tx) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, beginErr)
	assert.False(t, called)
}
