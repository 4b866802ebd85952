package main

import (
	"context"
	"fmt"
	"io"

	"github.com/shipq/sqltable/codec"
	"github.com/shipq/sqltable/conn"
	"github.com/shipq/sqltable/ddl"
	"github.com/shipq/sqltable/query"
	"github.com/shipq/sqltable/table"
)

type schema struct {
	subjects *table.Table
	students *table.Table
	people   *table.Table
	events   *table.Table
}

func declare() schema {
	sb := ddl.MakeTable("Subjects")
	sb.Integer("SubjectID").PrimaryKey()
	sb.Varchar("SubjectName", 20)
	subjects := table.MustDeclare(sb.Build())

	st := ddl.MakeTable("Students")
	st.Integer("StudentID").PrimaryKey()
	st.Varchar("FirstName", 30)
	st.Varchar("LastName", 20)
	st.Integer("FavouriteSubject").References("Subjects", "SubjectID")
	students := table.MustDeclare(st.Build(), subjects)

	pb := ddl.MakeTable("People")
	pb.Integer("PersonID").PrimaryKey()
	pb.Text("FirstName")
	pb.Text("LastName")
	people := table.MustDeclare(pb.Build())

	eb := ddl.MakeTable("Events")
	eb.Integer("EventID").PrimaryKey()
	eb.Varchar("Title", 40)
	eb.Date("Day")
	eb.Time("StartsAt").Nullable()
	events := table.MustDeclare(eb.Build())

	return schema{subjects: subjects, students: students, people: people, events: events}
}

// run declares the example tables in one scope and prints each result.
func run(ctx context.Context, w io.Writer, cfg conn.Config) error {
	s := declare()

	return conn.WithScope(ctx, cfg, func(sc *conn.Scope) error {
		if err := table.CreateAll(ctx, sc, s.subjects, s.students, s.people, s.events); err != nil {
			return err
		}

		steps := []struct {
			title string
			fn    func(context.Context, io.Writer, *conn.Scope, schema) error
		}{
			{"Subjects and students", studentsScenario},
			{"People", peopleScenario},
			{"Events", eventsScenario},
		}
		for _, step := range steps {
			fmt.Fprintf(w, "== %s ==\n", step.title)
			if err := step.fn(ctx, w, sc, s); err != nil {
				return fmt.Errorf("%s: %w", step.title, err)
			}
			fmt.Fprintln(w)
		}
		return nil
	})
}

func studentsScenario(ctx context.Context, w io.Writer, sc *conn.Scope, s schema) error {
	subjectID, err := s.subjects.InsertInto(ctx, sc, table.Values{
		s.subjects.Col("SubjectName"): "Computing",
	})
	if err != nil {
		return err
	}
	if err := describe(ctx, w, sc, s.subjects); err != nil {
		return err
	}

	studentID, err := s.students.InsertInto(ctx, sc, table.Values{
		s.students.Col("FirstName"):        "Kieran",
		s.students.Col("LastName"):         "Lock",
		s.students.Col("FavouriteSubject"): subjectID,
	})
	if err != nil {
		return err
	}
	if err := describe(ctx, w, sc, s.students); err != nil {
		return err
	}

	_, err = s.students.Update(table.Values{
		s.students.Col("FirstName"):        "Connor",
		s.students.Col("LastName"):         "Jackson",
		s.students.Col("FavouriteSubject"): subjectID,
	}).Where(s.students.Col("StudentID").Eq(studentID)).Exec(ctx, sc)
	if err != nil {
		return err
	}
	return describe(ctx, w, sc, s.students)
}

func peopleScenario(ctx context.Context, w io.Writer, sc *conn.Scope, s schema) error {
	first, last := s.people.Col("FirstName"), s.people.Col("LastName")

	for _, name := range []string{"One", "Two"} {
		if _, err := s.people.InsertInto(ctx, sc, table.Values{first: "Person", last: name}); err != nil {
			return err
		}
	}

	if _, err := s.people.Update(table.Values{first: "Child"}).Where(last.Eq("One")).Exec(ctx, sc); err != nil {
		return err
	}
	if _, err := s.people.Delete().Where(last.Eq("Two")).Exec(ctx, sc); err != nil {
		return err
	}

	rs, err := s.people.SelectAll().Where(first.Eq("Child")).Fetch(ctx, sc)
	if err != nil {
		return err
	}
	return rs.Fprint(w)
}

func eventsScenario(ctx context.Context, w io.Writer, sc *conn.Scope, s schema) error {
	title, day, startsAt := s.events.Col("Title"), s.events.Col("Day"), s.events.Col("StartsAt")

	rows := []table.Values{
		{title: "Launch", day: codec.NewDate(2002, 6, 29), startsAt: codec.NewTimeOfDay(22, 30, 0)},
		{title: "Retro", day: codec.NewDate(2002, 7, 1), startsAt: nil},
	}
	for _, v := range rows {
		if _, err := s.events.InsertInto(ctx, sc, v); err != nil {
			return err
		}
	}

	rs, err := s.events.Select(title, day, startsAt).
		Where(query.Or(startsAt.IsNotNull(), day.Gt(codec.NewDate(2002, 6, 30)))).
		OrderBy(day.Asc()).
		Fetch(ctx, sc)
	if err != nil {
		return err
	}
	return rs.Fprint(w)
}

func describe(ctx context.Context, w io.Writer, sc *conn.Scope, t *table.Table) error {
	out, err := t.Describe(ctx, sc)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}
