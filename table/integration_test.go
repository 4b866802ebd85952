//go:build integration

package table

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shipq/sqltable/codec"
	"github.com/shipq/sqltable/conn"
	"github.com/shipq/sqltable/ddl"
	"github.com/shipq/sqltable/logging"
	"github.com/shipq/sqltable/query"
	"github.com/shipq/sqltable/query/compile"
	"github.com/shipq/sqltable/sqlerr"
)

// Server-backed tests read their connection URL from the environment and
// skip when it is unset or the server does not answer.
var servers = []struct {
	name string
	env  string
}{
	{"postgres", "SQLTABLE_POSTGRES_URL"},
	{"mysql", "SQLTABLE_MYSQL_URL"},
}

func serverScope(t *testing.T, env string) *conn.Scope {
	t.Helper()

	url := os.Getenv(env)
	if url == "" {
		t.Skipf("%s not set", env)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := conn.Open(ctx, conn.Config{URL: url, Logger: logging.Discard})
	if err != nil {
		t.Skipf("server unavailable: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// uniqueName keeps runs apart on servers where DDL commits implicitly.
func uniqueName(base string) string {
	return fmt.Sprintf("%s_%d", base, time.Now().UnixNano())
}

// dropOnCleanup removes tables in the order given. MySQL commits DDL
// outside the scope's transaction, so rollback alone would leave them.
func dropOnCleanup(t *testing.T, s *conn.Scope, tables ...*Table) {
	t.Cleanup(func() {
		for _, tbl := range tables {
			stmt := compile.Compiled{SQL: "DROP TABLE IF EXISTS " + s.Dialect().QuoteIdentifier(tbl.Name())}
			if _, err := s.Execute(context.Background(), stmt); err != nil {
				t.Logf("drop %s: %v", tbl.Name(), err)
			}
		}
	})
}

func TestIntegration_People(t *testing.T) {
	for _, srv := range servers {
		t.Run(srv.name, func(t *testing.T) {
			ctx := context.Background()
			s := serverScope(t, srv.env)

			tb := ddl.MakeTable(uniqueName("People"))
			tb.Integer("PersonID").PrimaryKey()
			tb.Text("FirstName")
			tb.Text("LastName")
			people := MustDeclare(tb.Build())

			if err := people.Create(ctx, s); err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			dropOnCleanup(t, s, people)

			first, last := people.Col("FirstName"), people.Col("LastName")
			var keys []int64
			for _, name := range []string{"One", "Two"} {
				id, err := people.InsertInto(ctx, s, Values{first: "Person", last: name})
				if err != nil {
					t.Fatalf("InsertInto failed: %v", err)
				}
				keys = append(keys, id)
			}
			if keys[0] != 1 || keys[1] != 2 {
				t.Errorf("expected keys [1 2], got %v", keys)
			}

			n, err := people.Update(Values{first: "Child"}).Where(last.Eq("One")).Exec(ctx, s)
			if err != nil {
				t.Fatalf("Update failed: %v", err)
			}
			if n != 1 {
				t.Errorf("expected one updated row, got %d", n)
			}
			if _, err := people.Delete().Where(last.Eq("Two")).Exec(ctx, s); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}

			rs, err := people.SelectAll().Fetch(ctx, s)
			if err != nil {
				t.Fatalf("Fetch failed: %v", err)
			}
			if rs.Len() != 1 {
				t.Fatalf("expected one row, got %d", rs.Len())
			}
			row := rs.Row(0)
			if row["PersonID"] != int64(1) || row["FirstName"] != "Child" || row["LastName"] != "One" {
				t.Errorf("unexpected row %v", row)
			}
		})
	}
}

func TestIntegration_Calendar(t *testing.T) {
	for _, srv := range servers {
		t.Run(srv.name, func(t *testing.T) {
			ctx := context.Background()
			s := serverScope(t, srv.env)

			tb := ddl.MakeTable(uniqueName("Events"))
			tb.Integer("ID").PrimaryKey()
			tb.Date("Day")
			tb.Time("At").Nullable()
			tb.Decimal("Cost")
			tb.Bool("Public")
			events := MustDeclare(tb.Build())

			if err := events.Create(ctx, s); err != nil {
				t.Fatalf("Create failed: %v", err)
			}
			dropOnCleanup(t, s, events)

			day, at, cost, public := events.Col("Day"), events.Col("At"), events.Col("Cost"), events.Col("Public")
			if _, err := events.InsertInto(ctx, s, Values{
				day:    codec.NewDate(2002, time.June, 29),
				at:     codec.NewTimeOfDay(22, 30, 0),
				cost:   12.5,
				public: true,
			}); err != nil {
				t.Fatalf("InsertInto failed: %v", err)
			}
			if _, err := events.InsertInto(ctx, s, Values{
				day:    "2002-07-01",
				at:     nil,
				cost:   0,
				public: false,
			}); err != nil {
				t.Fatalf("InsertInto failed: %v", err)
			}

			rs, err := events.Select(day, at, cost, public).
				Where(query.And(at.IsNotNull(), day.Lt(codec.NewDate(2002, time.June, 30)))).
				Fetch(ctx, s)
			if err != nil {
				t.Fatalf("Fetch failed: %v", err)
			}
			if rs.Len() != 1 {
				t.Fatalf("expected one row, got %d", rs.Len())
			}
			row := rs.Row(0)
			if row["Day"] != codec.NewDate(2002, time.June, 29) {
				t.Errorf("Day: got %v", row["Day"])
			}
			if row["At"] != codec.NewTimeOfDay(22, 30, 0) {
				t.Errorf("At: got %v", row["At"])
			}
			if row["Cost"] != 12.5 || row["Public"] != true {
				t.Errorf("unexpected row %v", row)
			}

			rs, err = events.Select(at).Where(public.Eq(false)).Fetch(ctx, s)
			if err != nil {
				t.Fatalf("Fetch failed: %v", err)
			}
			if rs.Len() != 1 || rs.Row(0)["At"] != nil {
				t.Errorf("expected a NULL time, got %v", rs.Rows())
			}
		})
	}
}

// The constraint failure runs last: Postgres aborts the transaction after it.
func TestIntegration_ForeignKeyViolation(t *testing.T) {
	for _, srv := range servers {
		t.Run(srv.name, func(t *testing.T) {
			ctx := context.Background()
			s := serverScope(t, srv.env)

			sb := ddl.MakeTable(uniqueName("Subjects"))
			sb.Integer("SubjectID").PrimaryKey()
			sb.Varchar("SubjectName", 20)
			subjects := MustDeclare(sb.Build())

			st := ddl.MakeTable(uniqueName("Students"))
			st.Integer("StudentID").PrimaryKey()
			st.Varchar("FirstName", 30)
			st.Integer("FavouriteSubject").References(subjects.Name(), "SubjectID")
			students := MustDeclare(st.Build(), subjects)

			if err := CreateAll(ctx, s, subjects, students); err != nil {
				t.Fatalf("CreateAll failed: %v", err)
			}
			dropOnCleanup(t, s, students, subjects)

			subjectID, err := subjects.InsertInto(ctx, s, Values{subjects.Col("SubjectName"): "Computing"})
			if err != nil {
				t.Fatalf("InsertInto failed: %v", err)
			}
			if _, err := students.InsertInto(ctx, s, Values{
				students.Col("FirstName"):        "Kieran",
				students.Col("FavouriteSubject"): subjectID,
			}); err != nil {
				t.Fatalf("InsertInto failed: %v", err)
			}

			_, err = students.InsertInto(ctx, s, Values{
				students.Col("FirstName"):        "Connor",
				students.Col("FavouriteSubject"): subjectID + 100,
			})
			if !errors.Is(err, sqlerr.ErrEngineExecution) {
				t.Fatalf("expected engine execution error, got %v", err)
			}
			if !sqlerr.IsConstraintViolation(err) {
				t.Errorf("expected a constraint violation, got %v", err)
			}
		})
	}
}
