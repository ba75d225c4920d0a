package ledger

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/bluffpark/holidaylights/internal/types"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	mssql "github.com/microsoft/go-mssqldb"
	"gorm.io/gorm"
)

// classify maps driver errors onto the ledger error taxonomy.
// Errors that already carry a taxonomy sentinel, and context errors, pass through.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		types.ErrInvalidArgument,
		types.ErrNotFound,
		types.ErrConflict,
		types.ErrStorageUnavailable,
		types.ErrForbidden,
		context.Canceled,
		context.DeadlineExceeded,
	} {
		if errors.Is(err, known) {
			return err
		}
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, types.ErrNotFound)
	case isContention(err):
		return fmt.Errorf("%s: %w: %v", op, types.ErrConflict, err)
	case isUnavailable(err):
		return fmt.Errorf("%s: %w: %v", op, types.ErrStorageUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isContention reports deadlocks, lock timeouts, serialization failures and
// duplicate-key races, all of which succeed when the transaction is rerun
func isContention(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1062, 1205, 1213:
			return true
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "40001", "40P01", "55P03":
			return true
		}
	}

	var msErr mssql.Error
	if errors.As(err, &msErr) {
		switch msErr.Number {
		case 1205, 1222, 2601, 2627:
			return true
		}
	}

	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "08") {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
