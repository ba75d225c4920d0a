package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bluffpark/holidaylights/internal/types"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"record not found", gorm.ErrRecordNotFound, types.ErrNotFound},
		{"duplicated key", gorm.ErrDuplicatedKey, types.ErrConflict},
		{"mysql deadlock", &mysql.MySQLError{Number: 1213, Message: "Deadlock found"}, types.ErrConflict},
		{"mysql lock wait", &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout"}, types.ErrConflict},
		{"postgres serialization", &pgconn.PgError{Code: "40001"}, types.ErrConflict},
		{"postgres connection", &pgconn.PgError{Code: "08006"}, types.ErrStorageUnavailable},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), types.ErrConflict},
		{"bad connection", mysql.ErrInvalidConn, types.ErrStorageUnavailable},
		{"already classified", fmt.Errorf("user %q: %w", "u1", types.ErrNotFound), types.ErrNotFound},
		{"deadline", context.DeadlineExceeded, context.DeadlineExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err, "op")
			assert.True(t, errors.Is(got, tt.want), "classify(%v) = %v", tt.err, got)
		})
	}

	assert.NoError(t, classify(nil, "op"))

	plain := errors.New("syntax error")
	got := classify(plain, "op")
	assert.True(t, errors.Is(got, plain))
	assert.False(t, errors.Is(got, types.ErrConflict))
	assert.False(t, errors.Is(got, types.ErrStorageUnavailable))
}
