package compile

import (
	"fmt"
	"strconv"
	"strings"
)

// Compiled is SQL text ready for the engine plus its bound parameters, in
// placeholder order.
type Compiled struct {
	SQL    string
	Params []any

	// ReturnsRows is set for SELECT and for INSERT ... RETURNING.
	ReturnsRows bool

	// Unfiltered marks an UPDATE or DELETE without a WHERE clause.
	Unfiltered bool
}

// String renders the statement as `sql {p1, p2}` for diagnostics.
func (c Compiled) String() string {
	parts := make([]string, len(c.Params))
	for i, p := range c.Params {
		parts[i] = formatParam(p)
	}
	return c.SQL + " {" + strings.Join(parts, ", ") + "}"
}

func formatParam(p any) string {
	switch v := p.(type) {
	case nil:
		return "NULL"
	case string:
		return strconv.Quote(v)
	case []byte:
		return strconv.Quote(string(v))
	default:
		return fmt.Sprint(v)
	}
}
