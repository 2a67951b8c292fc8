package sqlitex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/bytebufferpool"
	"zombiezen.com/go/sqlite"
)

func kitchenSinkConn(t *testing.T) *Conn {
	t.Helper()
	c := testConn(t)
	c.Exec(`create table things (id integer primary key, name text, weight real, payload blob, tags text)`).Release()
	return c
}

func TestBindChain(t *testing.T) {
	c := kitchenSinkConn(t)

	ins := c.Prepare(`insert into things (id, name, weight, payload) values (?, ?, ?, ?)`).Must()
	ins.Bind(1, 7).Bind(2, "anvil").Bind(3, 99.5).Bind(4, []byte{0xde, 0xad}).Step().Release()
	assert.Equal(t, int64(7), ins.RowID())

	sel := c.Prepare(`select id, name, weight, payload from things where id = ?`).Must()
	sel.Bind(1, 7)
	require.True(t, sel.Step().HasRow())
	assert.Equal(t, 7, sel.Int(0))
	assert.Equal(t, int64(7), sel.Int64(0))
	assert.Equal(t, "anvil", sel.Text(1))
	assert.Equal(t, 99.5, sel.Float(2))
	assert.Equal(t, []byte{0xde, 0xad}, sel.Blob(3))
	assert.True(t, sel.Step().Done())
}

func TestTypedBinds(t *testing.T) {
	c := kitchenSinkConn(t)

	ins := c.Prepare(`insert into things (id, name) values (?, ?)`).Must()

	assert.True(t, ins.BindInt64(1, 1).OK())
	assert.True(t, ins.BindText(2, "first").OK())
	ins.Step().Release()

	ins.ResetBindings()
	assert.True(t, ins.BindInt(1, 2).OK())
	assert.True(t, ins.BindNull(2).OK())
	ins.Step().Release()

	sel := c.Prepare(`select name from things order by id`).Must()
	require.True(t, sel.Step().HasRow())
	assert.Equal(t, sqlite.TypeText, sel.Type(0))
	assert.Equal(t, "first", sel.Text(0))
	require.True(t, sel.Step().HasRow())
	assert.Equal(t, sqlite.TypeNull, sel.Type(0))
}

func TestBindOutOfRange(t *testing.T) {
	c := kitchenSinkConn(t)

	ins := c.Prepare(`insert into things (id) values (?)`).Must()

	r := ins.BindInt64(2, 1)
	assert.Equal(t, sqlite.ResultRange, r.Code())
	require.Error(t, r.Err())
	assert.Equal(t, "bind index 2 out of range [1, 1]", c.LastError())

	r = ins.BindNull(0)
	assert.Equal(t, sqlite.ResultRange, r.Code())
	require.Error(t, r.Err())
}

func TestBindUnsupportedTypeRaises(t *testing.T) {
	c := kitchenSinkConn(t)

	ins := c.Prepare(`insert into things (id) values (?)`).Must()

	assert.PanicsWithError(t, "(21): cannot bind value of type struct {}", func() {
		ins.Bind(1, struct{}{})
	})
}

func TestBindChainRaisesOnBadIndex(t *testing.T) {
	c := kitchenSinkConn(t)

	ins := c.Prepare(`insert into things (id) values (?)`).Must()

	assert.Panics(t, func() {
		ins.Bind(99, 1)
	})
}

func TestBindJSON(t *testing.T) {
	type tags struct {
		Color string `json:"color"`
		Size  int    `json:"size"`
	}

	c := kitchenSinkConn(t)

	ins := c.Prepare(`insert into things (id, tags) values (?, ?)`).Must()
	ins.BindInt64(1, 1).Release()
	ins.BindJSON(2, tags{Color: "red", Size: 3}).Release()
	ins.Step().Release()

	sel := c.Prepare(`select tags from things where id = 1`).Must()
	require.True(t, sel.Step().HasRow())

	var got tags
	require.NoError(t, sel.JSON(0, &got))
	assert.Equal(t, tags{Color: "red", Size: 3}, got)
}

func TestAppendBlob(t *testing.T) {
	c := kitchenSinkConn(t)

	payload := []byte("0123456789")
	ins := c.Prepare(`insert into things (id, payload) values (1, ?)`).Must()
	ins.Bind(1, payload).Step().Release()

	sel := c.Prepare(`select payload from things where id = 1`).Must()
	require.True(t, sel.Step().HasRow())

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	buf.WriteString("prefix:")

	n := sel.AppendBlob(0, buf)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, "prefix:0123456789", buf.String())
}

func TestBindZeroBlob(t *testing.T) {
	c := kitchenSinkConn(t)

	ins := c.Prepare(`insert into things (id, payload) values (1, ?)`).Must()
	assert.True(t, ins.BindZeroBlob(1, 4).OK())
	ins.Step().Release()

	sel := c.Prepare(`select payload from things where id = 1`).Must()
	require.True(t, sel.Step().HasRow())
	assert.Equal(t, []byte{0, 0, 0, 0}, sel.Blob(0))
}

func TestStepRow(t *testing.T) {
	c := kitchenSinkConn(t)
	c.ExecScript(`
		insert into things (id, name) values (1, 'a');
		insert into things (id, name) values (2, 'b');
	`).Release()

	sel := c.Prepare(`select name from things order by id`).Must()

	var names []string
	for sel.StepRow().Must() {
		names = append(names, sel.Text(0))
	}
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestStepRowFailure(t *testing.T) {
	c := kitchenSinkConn(t)

	// Stepping a statement whose target table vanished underneath it.
	sel := c.Prepare(`select id from things`).Must()
	require.True(t, sel.Step().Done())
	c.Exec(`drop table things`).Release()
	sel.ResetBindings()

	res := sel.StepRow()
	require.False(t, res.IsOk())

	var serr *Error
	require.ErrorAs(t, res.Err(), &serr)
	assert.NotEmpty(t, serr.Message)
}

func TestResetBindingsReusesStatement(t *testing.T) {
	c := kitchenSinkConn(t)

	ins := c.Prepare(`insert into things (id, name) values (?, ?)`).Must()
	ins.Bind(1, 101).Bind(2, "Henrietta").Step().Release()
	ins.ResetBindings()
	ins.Bind(1, 102).Bind(2, "Rowena").Step().Release()

	sel := c.Prepare(`select count(*) from things`).Must()
	require.True(t, sel.Step().HasRow())
	assert.Equal(t, 2, sel.Int(0))
}

func TestColumnMetadata(t *testing.T) {
	c := kitchenSinkConn(t)

	sel := c.Prepare(`select id, name from things`).Must()
	assert.Equal(t, 2, sel.ColumnCount())
	assert.Equal(t, "id", sel.ColumnName(0))
	assert.Equal(t, "name", sel.ColumnName(1))
	assert.Equal(t, `select id, name from things`, sel.Query())
}
