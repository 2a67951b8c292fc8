package sqlitex

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/valyala/bytebufferpool"
	"zombiezen.com/go/sqlite"

	"github.com/zschoche/sqlite-go/resultx"
)

// Stmt is a prepared statement. Parameters are 1-based, columns 0-based,
// matching the native API. A Stmt belongs to its Conn and must only be used
// from one goroutine at a time.
type Stmt struct {
	conn  *Conn
	stmt  *sqlite.Stmt
	query string
}

// Bind binds value at index and returns the statement for chaining. The
// per-bind result is released on the spot, so a failed bind raises at the
// call site.
func (s *Stmt) Bind(index int, value any) *Stmt {
	s.createBinding(index, value).Release()
	return s
}

func (s *Stmt) createBinding(index int, value any) *Result {
	switch v := value.(type) {
	case nil:
		return s.BindNull(index)
	case int:
		return s.BindInt64(index, int64(v))
	case int32:
		return s.BindInt64(index, int64(v))
	case int64:
		return s.BindInt64(index, v)
	case uint32:
		return s.BindInt64(index, int64(v))
	case uint:
		return s.BindInt64(index, int64(v))
	case uint64:
		return s.BindInt64(index, int64(v))
	case float32:
		return s.BindFloat(index, float64(v))
	case float64:
		return s.BindFloat(index, v)
	case bool:
		return s.BindBool(index, v)
	case string:
		return s.BindText(index, v)
	case []byte:
		return s.BindBytes(index, v)
	default:
		msg := fmt.Sprintf("cannot bind value of type %T", value)
		s.conn.lastError = msg
		return dirtyResult(sqlite.ResultMisuse, msg)
	}
}

func (s *Stmt) BindInt(index int, value int) *Result {
	return s.BindInt64(index, int64(value))
}

func (s *Stmt) BindInt64(index int, value int64) *Result {
	if r := s.rangeResult(index); r != nil {
		return r
	}
	s.stmt.BindInt64(index, value)
	return cleanResult(sqlite.ResultOK)
}

func (s *Stmt) BindFloat(index int, value float64) *Result {
	if r := s.rangeResult(index); r != nil {
		return r
	}
	s.stmt.BindFloat(index, value)
	return cleanResult(sqlite.ResultOK)
}

func (s *Stmt) BindBool(index int, value bool) *Result {
	if r := s.rangeResult(index); r != nil {
		return r
	}
	s.stmt.BindBool(index, value)
	return cleanResult(sqlite.ResultOK)
}

func (s *Stmt) BindText(index int, value string) *Result {
	if r := s.rangeResult(index); r != nil {
		return r
	}
	s.stmt.BindText(index, value)
	return cleanResult(sqlite.ResultOK)
}

func (s *Stmt) BindBytes(index int, value []byte) *Result {
	if r := s.rangeResult(index); r != nil {
		return r
	}
	s.stmt.BindBytes(index, value)
	return cleanResult(sqlite.ResultOK)
}

func (s *Stmt) BindNull(index int) *Result {
	if r := s.rangeResult(index); r != nil {
		return r
	}
	s.stmt.BindNull(index)
	return cleanResult(sqlite.ResultOK)
}

func (s *Stmt) BindZeroBlob(index int, size int64) *Result {
	if r := s.rangeResult(index); r != nil {
		return r
	}
	s.stmt.BindZeroBlob(index, size)
	return cleanResult(sqlite.ResultOK)
}

// BindJSON marshals value and binds it as TEXT at index.
func (s *Stmt) BindJSON(index int, value any) *Result {
	if r := s.rangeResult(index); r != nil {
		return r
	}
	data, err := sonic.MarshalString(value)
	if err != nil {
		s.conn.lastError = err.Error()
		return dirtyResult(sqlite.ResultMismatch, err.Error())
	}
	s.stmt.BindText(index, data)
	return cleanResult(sqlite.ResultOK)
}

// rangeResult rejects an out-of-range bind index before the native layer
// ever sees it.
func (s *Stmt) rangeResult(index int) *Result {
	if n := s.stmt.BindParamCount(); index < 1 || index > n {
		msg := fmt.Sprintf("bind index %d out of range [1, %d]", index, n)
		s.conn.lastError = msg
		return dirtyResult(sqlite.ResultRange, msg)
	}
	return nil
}

// ResetBindings rewinds the statement and clears all bindings so it can be
// run again. Any error from a previous step was already reported through
// that step's result; reset outcomes are intentionally discarded, exactly
// like re-running a statement in the native API.
func (s *Stmt) ResetBindings() *Stmt {
	s.stmt.Reset()
	s.stmt.ClearBindings()
	return s
}

// Step advances the statement one row. The result classifies the outcome
// as row-available, done, or a failure carrying the native code.
func (s *Stmt) Step() *Result {
	row, err := s.stmt.Step()
	if err != nil {
		return s.conn.stmtResult(err)
	}
	if row {
		return cleanResult(sqlite.ResultRow)
	}
	return cleanResult(sqlite.ResultDone)
}

// StepRow is the value-or-error form of Step: true while rows remain.
func (s *Stmt) StepRow() resultx.Result[bool] {
	row, err := s.stmt.Step()
	if err != nil {
		s.conn.lastError = err.Error()
		return resultx.Err[bool](&Error{Code: sqlite.ErrCode(err), Message: err.Error()})
	}
	return resultx.Ok(row)
}

// Query returns the SQL text this statement was prepared from.
func (s *Stmt) Query() string {
	return s.query
}

// RowID returns the rowid of the most recent insert on the owning
// connection.
func (s *Stmt) RowID() int64 {
	return s.conn.db.LastInsertRowID()
}

func (s *Stmt) Int(col int) int {
	return int(s.stmt.ColumnInt64(col))
}

func (s *Stmt) Int64(col int) int64 {
	return s.stmt.ColumnInt64(col)
}

func (s *Stmt) Float(col int) float64 {
	return s.stmt.ColumnFloat(col)
}

func (s *Stmt) Text(col int) string {
	return s.stmt.ColumnText(col)
}

// Blob returns a copy of the blob stored in col.
func (s *Stmt) Blob(col int) []byte {
	b := make([]byte, s.stmt.ColumnLen(col))
	s.stmt.ColumnBytes(col, b)
	return b
}

// AppendBlob appends the blob stored in col to buf and returns the number
// of bytes appended. Use with a pooled buffer to read large blobs without
// a per-row allocation.
func (s *Stmt) AppendBlob(col int, buf *bytebufferpool.ByteBuffer) int {
	n := s.stmt.ColumnLen(col)
	off := len(buf.B)
	if cap(buf.B) >= off+n {
		buf.B = buf.B[:off+n]
	} else {
		buf.B = append(buf.B, make([]byte, n)...)
	}
	s.stmt.ColumnBytes(col, buf.B[off:])
	return n
}

// JSON unmarshals the TEXT stored in col into value.
func (s *Stmt) JSON(col int, value any) error {
	return sonic.UnmarshalString(s.stmt.ColumnText(col), value)
}

// Type returns the storage class of col for the current row.
func (s *Stmt) Type(col int) sqlite.ColumnType {
	return s.stmt.ColumnType(col)
}

func (s *Stmt) ColumnCount() int {
	return s.stmt.ColumnCount()
}

func (s *Stmt) ColumnName(col int) string {
	return s.stmt.ColumnName(col)
}

func (s *Stmt) finalize() {
	s.stmt.Finalize()
}
