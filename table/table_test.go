package table

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shipq/sqltable/codec"
	"github.com/shipq/sqltable/conn"
	"github.com/shipq/sqltable/ddl"
	"github.com/shipq/sqltable/dburl"
	"github.com/shipq/sqltable/logging"
	"github.com/shipq/sqltable/query"
	"github.com/shipq/sqltable/query/compile"
	"github.com/shipq/sqltable/sqlerr"
)

// openScope returns a scope on a private in-memory SQLite database.
func openScope(t *testing.T) *conn.Scope {
	t.Helper()
	s, err := conn.Open(context.Background(), conn.Config{Path: dburl.MemoryPath, Logger: logging.Discard})
	if err != nil {
		t.Fatalf("conn.Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// recordingConn counts statements without running them.
type recordingConn struct {
	dialect compile.Dialect
	sent    []compile.Compiled
}

func (r *recordingConn) Dialect() compile.Dialect { return r.dialect }

func (r *recordingConn) Execute(_ context.Context, c compile.Compiled) (*conn.Result, error) {
	r.sent = append(r.sent, c)
	return &conn.Result{}, nil
}

func peopleTable(t *testing.T) *Table {
	t.Helper()
	tb := ddl.MakeTable("People")
	tb.Integer("PersonID").PrimaryKey()
	tb.Text("FirstName")
	tb.Text("LastName")
	people, err := Declare(tb.Build())
	if err != nil {
		t.Fatalf("Declare failed: %v", err)
	}
	return people
}

func subjectsAndStudents(t *testing.T) (*Table, *Table) {
	t.Helper()
	sb := ddl.MakeTable("Subjects")
	sb.Integer("SubjectID").PrimaryKey()
	sb.Varchar("SubjectName", 20)
	subjects := MustDeclare(sb.Build())

	st := ddl.MakeTable("Students")
	st.Integer("StudentID").PrimaryKey()
	st.Varchar("FirstName", 30)
	st.Varchar("LastName", 20)
	st.Integer("FavouriteSubject").References("Subjects", "SubjectID")
	students := MustDeclare(st.Build(), subjects)
	return subjects, students
}

func TestPeopleScenario(t *testing.T) {
	ctx := context.Background()
	s := openScope(t)
	people := peopleTable(t)
	if err := people.Create(ctx, s); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	first, last := people.Col("FirstName"), people.Col("LastName")

	id1, err := people.InsertInto(ctx, s, Values{first: "Person", last: "One"})
	if err != nil {
		t.Fatalf("insert One failed: %v", err)
	}
	id2, err := people.InsertInto(ctx, s, Values{first: "Person", last: "Two"})
	if err != nil {
		t.Fatalf("insert Two failed: %v", err)
	}
	if id1 != 1 || id2 != 2 {
		t.Errorf("expected generated keys 1 and 2, got %d and %d", id1, id2)
	}

	n, err := people.Update(Values{first: "Child"}).Where(last.Eq("One")).Exec(ctx, s)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Update affected %d rows, want 1", n)
	}

	n, err = people.Delete().Where(last.Eq("Two")).Exec(ctx, s)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Delete affected %d rows, want 1", n)
	}

	rs, err := people.SelectAll().Where(first.Eq("Child")).Fetch(ctx, s)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if rs.Len() != 1 {
		t.Fatalf("expected exactly one row, got %d", rs.Len())
	}
	row := rs.Row(0)
	if row["FirstName"] != "Child" || row["LastName"] != "One" || row["PersonID"] != int64(1) {
		t.Errorf("unexpected row %v", row)
	}

	got, err := people.Describe(ctx, s)
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	want := strings.Join([]string{
		"PersonID | FirstName | LastName",
		"---------+-----------+---------",
		"1        | Child     | One     ",
	}, "\n")
	if got != want {
		t.Errorf("Describe mismatch\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestDateTimeRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openScope(t)

	tb := ddl.MakeTable("Events")
	tb.Integer("ID").PrimaryKey()
	tb.Date("Day")
	tb.Time("At")
	events := MustDeclare(tb.Build())
	if err := events.Create(ctx, s); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	day := codec.NewDate(2002, 6, 29)
	at := codec.NewTimeOfDay(22, 30, 0)
	if _, err := events.InsertInto(ctx, s, Values{events.Col("Day"): day, events.Col("At"): at}); err != nil {
		t.Fatalf("InsertInto failed: %v", err)
	}

	rs, err := events.Select(events.Col("Day"), events.Col("At")).Fetch(ctx, s)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if rs.Len() != 1 {
		t.Fatalf("expected one row, got %d", rs.Len())
	}
	row := rs.Row(0)

	gotDay, ok := row["Day"].(codec.Date)
	if !ok {
		t.Fatalf("Day decoded as %T, want codec.Date", row["Day"])
	}
	if gotDay != day {
		t.Errorf("Day = %v, want %v", gotDay, day)
	}
	gotAt, ok := row["At"].(codec.TimeOfDay)
	if !ok {
		t.Fatalf("At decoded as %T, want codec.TimeOfDay", row["At"])
	}
	if gotAt != at {
		t.Errorf("At = %v, want %v", gotAt, at)
	}

	// Comparisons encode dates the same way they are stored.
	rs, err = events.SelectAll().Where(events.Col("Day").Eq(day)).Fetch(ctx, s)
	if err != nil {
		t.Fatalf("Fetch by date failed: %v", err)
	}
	if rs.Len() != 1 {
		t.Errorf("expected date filter to match one row, got %d", rs.Len())
	}

	want := strings.Join([]string{
		"ID | Day        | At      ",
		"---+------------+---------",
		"1  | 2002-06-29 | 22:30:00",
	}, "\n")
	if got := rs.String(); got != want {
		t.Errorf("render mismatch\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestDelete_Unfiltered(t *testing.T) {
	ctx := context.Background()
	s := openScope(t)
	people := peopleTable(t)
	if err := people.Create(ctx, s); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for _, name := range []string{"A", "B", "C"} {
		if _, err := people.InsertInto(ctx, s, Values{people.Col("FirstName"): name, people.Col("LastName"): "X"}); err != nil {
			t.Fatalf("InsertInto failed: %v", err)
		}
	}

	n, err := people.Delete().Exec(ctx, s)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Delete affected %d rows, want 3", n)
	}

	got, err := people.Describe(ctx, s)
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	want := "PersonID | FirstName | LastName\n---------+-----------+---------"
	if got != want {
		t.Errorf("empty table render mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestInsertInto_Errors(t *testing.T) {
	people := peopleTable(t)
	first, last := people.Col("FirstName"), people.Col("LastName")
	other := query.ColumnRef{Table: "Other", Name: "FirstName", Type: first.Type}

	tests := []struct {
		name   string
		values Values
		want   error
	}{
		{"missing column", Values{first: "Only"}, sqlerr.ErrMissingColumn},
		{"null in non-nullable", Values{first: "A", last: nil}, sqlerr.ErrNullabilityViolation},
		{"wrong type", Values{first: 5, last: "B"}, sqlerr.ErrTypeMismatch},
		{"foreign column", Values{other: "A", last: "B"}, sqlerr.ErrInvalidStatement},
		{"unknown column", Values{query.ColumnRef{Table: "People", Name: "Age"}: 3, first: "A", last: "B"}, sqlerr.ErrInvalidStatement},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := &recordingConn{dialect: compile.SQLite}
			_, err := people.InsertInto(context.Background(), rc, tt.values)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if len(rc.sent) != 0 {
				t.Errorf("expected no statement sent, got %v", rc.sent)
			}
		})
	}
}

func TestInsertInto_UnstorableValues(t *testing.T) {
	tb := ddl.MakeTable("Readings")
	tb.Integer("ID").PrimaryKey()
	tb.Decimal("Value").Nullable()
	tb.Date("Taken").Nullable()
	readings := MustDeclare(tb.Build())
	value, taken := readings.Col("Value"), readings.Col("Taken")

	tests := []struct {
		name   string
		values Values
		want   error
	}{
		{"nan", Values{value: math.NaN()}, sqlerr.ErrTypeMismatch},
		{"infinity", Values{value: math.Inf(1)}, sqlerr.ErrTypeMismatch},
		{"date past year 9999", Values{taken: time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)}, sqlerr.ErrFormat},
		{"year zero", Values{taken: "0000-01-01"}, sqlerr.ErrFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := &recordingConn{dialect: compile.SQLite}
			_, err := readings.InsertInto(context.Background(), rc, tt.values)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if len(rc.sent) != 0 {
				t.Errorf("expected no statement sent, got %v", rc.sent)
			}
		})
	}
}

func TestInsertInto_Keys(t *testing.T) {
	ctx := context.Background()
	s := openScope(t)

	people := peopleTable(t)
	tb := ddl.MakeTable("Codes")
	tb.Text("Code").PrimaryKey()
	tb.Text("Label").Nullable()
	codes := MustDeclare(tb.Build())
	if err := CreateAll(ctx, s, people, codes); err != nil {
		t.Fatalf("CreateAll failed: %v", err)
	}

	id, err := people.InsertInto(ctx, s, Values{
		people.Col("PersonID"):  42,
		people.Col("FirstName"): "Given",
		people.Col("LastName"):  "Key",
	})
	if err != nil {
		t.Fatalf("InsertInto failed: %v", err)
	}
	if id != 42 {
		t.Errorf("expected supplied key 42, got %d", id)
	}

	id, err = people.InsertInto(ctx, s, Values{people.Col("FirstName"): "Next", people.Col("LastName"): "One"})
	if err != nil {
		t.Fatalf("InsertInto failed: %v", err)
	}
	if id != 43 {
		t.Errorf("expected generated key 43, got %d", id)
	}

	id, err = codes.InsertInto(ctx, s, Values{codes.Col("Code"): "AB"})
	if err != nil {
		t.Fatalf("InsertInto failed: %v", err)
	}
	if id != 0 {
		t.Errorf("expected 0 for a text key, got %d", id)
	}

	rs, err := codes.SelectAll().Where(codes.Col("Label").IsNull()).Fetch(ctx, s)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if rs.Len() != 1 || rs.Row(0)["Label"] != nil {
		t.Errorf("expected one row with a NULL label, got %v", rs.Rows())
	}
}

func TestInsertInto_ForeignKeyViolation(t *testing.T) {
	ctx := context.Background()
	s := openScope(t)
	subjects, students := subjectsAndStudents(t)
	if err := CreateAll(ctx, s, subjects, students); err != nil {
		t.Fatalf("CreateAll failed: %v", err)
	}

	subjectID, err := subjects.InsertInto(ctx, s, Values{subjects.Col("SubjectName"): "Computing"})
	if err != nil {
		t.Fatalf("InsertInto failed: %v", err)
	}

	_, err = students.InsertInto(ctx, s, Values{
		students.Col("FirstName"):        "Kieran",
		students.Col("LastName"):         "Lock",
		students.Col("FavouriteSubject"): subjectID,
	})
	if err != nil {
		t.Fatalf("InsertInto failed: %v", err)
	}

	_, err = students.InsertInto(ctx, s, Values{
		students.Col("FirstName"):        "No",
		students.Col("LastName"):         "Subject",
		students.Col("FavouriteSubject"): 99,
	})
	if !errors.Is(err, sqlerr.ErrEngineExecution) {
		t.Fatalf("expected engine error, got %v", err)
	}
	if !sqlerr.IsConstraintViolation(err) {
		t.Errorf("expected a constraint violation, got %v", err)
	}
}

func TestVarcharLength(t *testing.T) {
	_, students := subjectsAndStudents(t)
	rc := &recordingConn{dialect: compile.SQLite}

	_, err := students.InsertInto(context.Background(), rc, Values{
		students.Col("FirstName"):        "K",
		students.Col("LastName"):         strings.Repeat("x", 21),
		students.Col("FavouriteSubject"): 1,
	})
	if !errors.Is(err, sqlerr.ErrTypeMismatch) {
		t.Errorf("expected type mismatch for an over-long value, got %v", err)
	}
}

func TestDeclare(t *testing.T) {
	subjects, _ := subjectsAndStudents(t)

	build := func(f func(tb *ddl.TableBuilder)) *ddl.Table {
		tb := ddl.MakeTable("T")
		f(tb)
		return tb.Build()
	}

	tests := []struct {
		name string
		def  *ddl.Table
		deps []*Table
		ok   bool
	}{
		{
			name: "valid reference",
			def: build(func(tb *ddl.TableBuilder) {
				tb.Integer("ID").PrimaryKey()
				tb.Integer("Subject").References("Subjects", "SubjectID")
			}),
			deps: []*Table{subjects},
			ok:   true,
		},
		{
			name: "self reference",
			def: build(func(tb *ddl.TableBuilder) {
				tb.Integer("ID").PrimaryKey()
				tb.Integer("Parent").Nullable().References("T", "ID")
			}),
			ok: true,
		},
		{
			name: "undeclared table",
			def: build(func(tb *ddl.TableBuilder) {
				tb.Integer("ID").PrimaryKey()
				tb.Integer("Subject").References("Subjects", "SubjectID")
			}),
		},
		{
			name: "missing column",
			def: build(func(tb *ddl.TableBuilder) {
				tb.Integer("ID").PrimaryKey()
				tb.Integer("Subject").References("Subjects", "Nope")
			}),
			deps: []*Table{subjects},
		},
		{
			name: "not a primary key",
			def: build(func(tb *ddl.TableBuilder) {
				tb.Integer("ID").PrimaryKey()
				tb.Text("Subject").References("Subjects", "SubjectName")
			}),
			deps: []*Table{subjects},
		},
		{
			name: "kind mismatch",
			def: build(func(tb *ddl.TableBuilder) {
				tb.Integer("ID").PrimaryKey()
				tb.Text("Subject").References("Subjects", "SubjectID")
			}),
			deps: []*Table{subjects},
		},
		{
			name: "two primary keys",
			def: build(func(tb *ddl.TableBuilder) {
				tb.Integer("A").PrimaryKey()
				tb.Integer("B").PrimaryKey()
			}),
		},
		{
			name: "no primary key",
			def: build(func(tb *ddl.TableBuilder) {
				tb.Integer("A")
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Declare(tt.def, tt.deps...)
			if tt.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.Name() != "T" || got.String() != "T" {
					t.Errorf("unexpected name %q", got.Name())
				}
				return
			}
			if !errors.Is(err, sqlerr.ErrSchemaViolation) {
				t.Errorf("expected schema violation, got %v", err)
			}
		})
	}
}

func TestMustDeclare_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected MustDeclare to panic")
		}
	}()
	tb := ddl.MakeTable("NoKey")
	tb.Text("Name")
	MustDeclare(tb.Build())
}

func TestDeclare_CopiesDefinition(t *testing.T) {
	tb := ddl.MakeTable("People")
	tb.Integer("PersonID").PrimaryKey()
	tb.Text("Name")
	def := tb.Build()

	people := MustDeclare(def)
	def.Columns[1].Name = "Changed"

	if _, ok := people.Lookup("Name"); !ok {
		t.Error("declared table should not see later changes to its definition")
	}
}

func TestCol(t *testing.T) {
	people := peopleTable(t)

	c := people.Col("LastName")
	if c.Table != "People" || c.Name != "LastName" || c.Type.Kind != ddl.Text {
		t.Errorf("unexpected column %+v", c)
	}
	if pk := people.PrimaryKey(); pk.Name != "PersonID" {
		t.Errorf("unexpected primary key %s", pk)
	}
	if cols := people.Columns(); len(cols) != 3 || cols[0].Name != "PersonID" {
		t.Errorf("unexpected columns %v", cols)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected Col to panic for an unknown column")
		}
	}()
	people.Col("Age")
}

func TestCreateSQL(t *testing.T) {
	_, students := subjectsAndStudents(t)
	got, err := students.CreateSQL(compile.SQLite)
	if err != nil {
		t.Fatalf("CreateSQL failed: %v", err)
	}
	want := `CREATE TABLE IF NOT EXISTS "Students" ("StudentID" INTEGER PRIMARY KEY, "FirstName" VARCHAR(30) NOT NULL, "LastName" VARCHAR(20) NOT NULL, "FavouriteSubject" INTEGER NOT NULL, FOREIGN KEY ("FavouriteSubject") REFERENCES "Subjects" ("SubjectID"))`
	if got != want {
		t.Errorf("SQL mismatch\n got: %s\nwant: %s", got, want)
	}
}
