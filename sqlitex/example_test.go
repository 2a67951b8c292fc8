package sqlitex_test

import (
	"fmt"

	"github.com/zschoche/sqlite-go/sqlitex"
)

func Example() {
	c, err := sqlitex.OpenMemory()
	if err != nil {
		panic(err)
	}
	defer c.Close()

	c.Exec(`drop table if exists hens`).Release()
	c.Exec(`create table hens (id integer primary key, name text not null)`).Release()

	insert := c.Prepare(`insert into hens (id, name) values (?, ?)`).Must()
	insert.Bind(1, 101).Bind(2, "Henrietta").Step().Release()
	insert.ResetBindings()
	insert.Bind(1, 102).Bind(2, "Rowena").Step().Release()

	sel := c.Prepare(`select id, name from hens order by id`).Must()
	for sel.StepRow().Must() {
		fmt.Printf("id:%d name:%s\n", sel.Int(0), sel.Text(1))
	}

	// Output:
	// id:101 name:Henrietta
	// id:102 name:Rowena
}

func ExampleResult_Err() {
	c, err := sqlitex.OpenMemory()
	if err != nil {
		panic(err)
	}
	defer c.Close()

	r := c.Exec(`insert into nowhere values (1)`)
	if err := r.Err(); err != nil {
		fmt.Println("insert failed")
	}
	// Output:
	// insert failed
}
