package secure

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// Category is a machine-readable failure class for execution errors.
type Category string

const (
	CategoryConstraint Category = "constraint"
	CategoryTimeout    Category = "timeout"
	CategoryConnection Category = "connection"
	CategoryOther      Category = "other"
)

// ExecError wraps a store-level failure without leaking driver internals.
type ExecError struct {
	Category Category
	err      error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("query execution failed (%s)", e.Category)
}

func (e *ExecError) Unwrap() error { return e.err }

// Result holds the structured outcome of a validated query.
type Result struct {
	Verb         string
	Tables       []string
	Rows         []map[string]interface{} // SELECT
	RowsAffected int64                    // INSERT/UPDATE
	LastInsertID int64                    // INSERT
}

// Gateway executes validated requests against the pooled store connection.
type Gateway struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGateway wraps a GORM handle. timeout bounds each query, including
// pool acquisition; zero means 15 seconds.
func NewGateway(db *gorm.DB, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Gateway{db: db, timeout: timeout}
}

// Execute validates and runs a request. A validator denial returns a
// *DenialError before any connection is acquired. Store failures return a
// *ExecError; reads are retried once on the connection category. Writes
// are never retried: the first attempt may have committed before the
// connection dropped.
func (g *Gateway) Execute(ctx context.Context, req Request) (*Result, error) {
	tables, err := Validate(req)
	if err != nil {
		return nil, err
	}

	res, err := g.run(ctx, req, tables)
	var execErr *ExecError
	if req.Kind == KindRead && errors.As(err, &execErr) && execErr.Category == CategoryConnection {
		res, err = g.run(ctx, req, tables)
	}
	return res, err
}

// run executes one attempt. The connection is acquired, used and released
// within this synchronous span; it is never held across a suspension point.
func (g *Gateway) run(ctx context.Context, req Request, tables []string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	result := &Result{Verb: Verb(req), Tables: tables}

	if result.Verb == "SELECT" {
		var rows []map[string]interface{}
		if err := g.db.WithContext(ctx).Raw(req.SQL).Scan(&rows).Error; err != nil {
			return nil, classify(err)
		}
		result.Rows = rows
		return result, nil
	}

	sqlDB, err := g.db.DB()
	if err != nil {
		return nil, classify(err)
	}
	execResult, err := sqlDB.ExecContext(ctx, req.SQL)
	if err != nil {
		return nil, classify(err)
	}
	if n, err := execResult.RowsAffected(); err == nil {
		result.RowsAffected = n
	}
	if result.Verb == "INSERT" {
		if id, err := execResult.LastInsertId(); err == nil {
			result.LastInsertID = id
		}
	}
	return result, nil
}

// classify maps a driver error to a machine-readable category.
func classify(err error) error {
	wrapped := &ExecError{Category: CategoryOther, err: err}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		wrapped.Category = CategoryTimeout
		return wrapped
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		wrapped.Category = CategoryConnection
		return wrapped
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1062, 1048, 1451, 1452, 1216, 1217:
			wrapped.Category = CategoryConstraint
		case 1205:
			wrapped.Category = CategoryTimeout
		}
		return wrapped
	}

	// SQLite phrasing, used by the test stores.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"),
		strings.Contains(msg, "FOREIGN KEY constraint failed"),
		strings.Contains(msg, "NOT NULL constraint failed"),
		strings.Contains(msg, "CHECK constraint failed"):
		wrapped.Category = CategoryConstraint
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "bad connection"):
		wrapped.Category = CategoryConnection
	}
	return wrapped
}
