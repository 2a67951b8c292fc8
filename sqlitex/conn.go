package sqlitex

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"zombiezen.com/go/sqlite"

	"github.com/zschoche/sqlite-go/resultx"
)

const defaultStmtCacheSize = 64

type connOption struct {
	stmtCacheSize int
}

// WithStmtCacheSize bounds the number of prepared statements the connection
// keeps alive; the least recently used statement is finalized on overflow.
func WithStmtCacheSize(n int) func(*connOption) {
	return func(o *connOption) {
		if n > 0 {
			o.stmtCacheSize = n
		}
	}
}

// Conn owns a single SQLite database handle plus a cache of prepared
// statements. The underlying handle guarantees it is closed exactly once;
// Conn is not safe for concurrent use.
type Conn struct {
	db        *sqlite.Conn
	stmts     *lru.Cache[string, *Stmt]
	lastError string
}

// Open opens (creating if necessary) the database at path. An open failure
// is the one place reported immediately as a plain error: it happens before
// any checked result can exist.
func Open(path string, opts ...func(*connOption)) (*Conn, error) {
	options := &connOption{
		stmtCacheSize: defaultStmtCacheSize,
	}
	for _, opt := range opts {
		opt(options)
	}

	db, err := sqlite.OpenConn(path)
	if err != nil {
		return nil, err
	}
	c := &Conn{db: db}
	c.stmts, _ = lru.NewWithEvict[string, *Stmt](options.stmtCacheSize, func(_ string, s *Stmt) {
		s.finalize()
	})
	return c, nil
}

// OpenMemory opens a private in-memory database.
func OpenMemory(opts ...func(*connOption)) (*Conn, error) {
	return Open(":memory:", opts...)
}

// Exec prepares, runs to completion and finalizes a single statement,
// reporting the classified outcome.
func (c *Conn) Exec(query string) *Result {
	stmt, _, err := c.db.PrepareTransient(query)
	if err != nil {
		return c.cmdResult(err)
	}
	defer stmt.Finalize()
	for {
		row, err := stmt.Step()
		if err != nil {
			return c.stmtResult(err)
		}
		if !row {
			return cleanResult(sqlite.ResultOK)
		}
	}
}

// ExecScript runs every statement in script, stopping at the first failure.
func (c *Conn) ExecScript(script string) *Result {
	sql := script
	for {
		sql = strings.TrimSpace(sql)
		if sql == "" {
			return cleanResult(sqlite.ResultOK)
		}
		stmt, trailing, err := c.db.PrepareTransient(sql)
		if err != nil {
			return c.cmdResult(err)
		}
		if stmt == nil {
			// Only comments or whitespace remained.
			return cleanResult(sqlite.ResultOK)
		}
		for {
			row, err := stmt.Step()
			if err != nil {
				r := c.stmtResult(err)
				stmt.Finalize()
				return r
			}
			if !row {
				break
			}
		}
		if err := stmt.Finalize(); err != nil {
			return c.cmdResult(err)
		}
		sql = sql[len(sql)-trailing:]
	}
}

// Prepare returns a statement for query, reusing a cached one when
// available. A cache hit is handed back with its bindings cleared.
// Statements returned by Prepare belong to the connection: they are
// finalized on cache eviction or Close, never by the caller.
func (c *Conn) Prepare(query string) resultx.Result[*Stmt] {
	if s, ok := c.stmts.Get(query); ok {
		s.stmt.Reset()
		s.stmt.ClearBindings()
		return resultx.Ok(s)
	}
	stmt, _, err := c.db.PrepareTransient(query)
	if err != nil {
		c.lastError = err.Error()
		return resultx.Err[*Stmt](&Error{Code: sqlite.ErrCode(err), Message: err.Error()})
	}
	s := &Stmt{conn: c, stmt: stmt, query: query}
	c.stmts.Add(query, s)
	return resultx.Ok(s)
}

// LastError returns the diagnostic message of the most recent failure on
// this connection, or "" when none occurred.
func (c *Conn) LastError() string {
	return c.lastError
}

// LastInsertRowID returns the rowid of the most recent successful insert.
func (c *Conn) LastInsertRowID() int64 {
	return c.db.LastInsertRowID()
}

// Changes returns the number of rows modified by the most recent statement.
func (c *Conn) Changes() int {
	return c.db.Changes()
}

// Close finalizes every cached statement and closes the database handle.
func (c *Conn) Close() error {
	c.stmts.Purge()
	return c.db.Close()
}

func (c *Conn) cmdResult(err error) *Result {
	if err == nil {
		return cleanResult(sqlite.ResultOK)
	}
	c.lastError = err.Error()
	return dirtyResult(sqlite.ErrCode(err), err.Error())
}

func (c *Conn) stmtResult(err error) *Result {
	if err == nil {
		return cleanResult(sqlite.ResultDone)
	}
	c.lastError = err.Error()
	return dirtyResult(sqlite.ErrCode(err), err.Error())
}
