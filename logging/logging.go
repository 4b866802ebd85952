package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Formats accepted by New.
const (
	FormatJSON   = "json"
	FormatPretty = "pretty"
)

// PrettyJSONHandler is a custom handler that pretty prints JSON in development
type PrettyJSONHandler struct {
	*slog.JSONHandler
	writer io.Writer
	attrs  []groupedAttr
	groups []string
}

// groupedAttr is an attribute added by With, under the groups open at the time.
type groupedAttr struct {
	groups []string
	attr   slog.Attr
}

func (h *PrettyJSONHandler) Handle(ctx context.Context, r slog.Record) error {
	out := make(map[string]any, r.NumAttrs()+len(h.attrs)+3)
	for _, ga := range h.attrs {
		putAttr(out, ga.groups, ga.attr)
	}
	r.Attrs(func(a slog.Attr) bool {
		putAttr(out, h.groups, a)
		return true
	})

	out["time"] = r.Time.Format(time.RFC3339)
	out["level"] = r.Level.String()
	out["msg"] = r.Message

	prettyJSON, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}

	_, err = h.writer.Write(append(prettyJSON, '\n'))
	return err
}

// putAttr stores a under the nested objects named by groups. Group values
// become objects; an empty key inlines them.
func putAttr(m map[string]any, groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		members := a.Value.Group()
		if len(members) == 0 {
			return
		}
		if a.Key != "" {
			groups = append(groups[:len(groups):len(groups)], a.Key)
		}
		for _, member := range members {
			putAttr(m, groups, member)
		}
		return
	}
	for _, g := range groups {
		sub, ok := m[g].(map[string]any)
		if !ok {
			sub = make(map[string]any)
			m[g] = sub
		}
		m = sub
	}
	m[a.Key] = a.Value.Any()
}

// WithAttrs keeps the pretty output for loggers derived with Logger.With.
func (h *PrettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]groupedAttr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, a := range attrs {
		merged = append(merged, groupedAttr{groups: h.groups, attr: a})
	}
	return &PrettyJSONHandler{
		JSONHandler: h.JSONHandler,
		writer:      h.writer,
		attrs:       merged,
		groups:      h.groups,
	}
}

// WithGroup keeps the pretty output for loggers derived with Logger.WithGroup.
func (h *PrettyJSONHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	groups := make([]string, 0, len(h.groups)+1)
	groups = append(groups, h.groups...)
	groups = append(groups, name)
	return &PrettyJSONHandler{
		JSONHandler: h.JSONHandler,
		writer:      h.writer,
		attrs:       h.attrs,
		groups:      groups,
	}
}

// NewPrettyJSONHandler creates a pretty JSON handler writing to w.
func NewPrettyJSONHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyJSONHandler {
	return &PrettyJSONHandler{
		JSONHandler: slog.NewJSONHandler(w, opts),
		writer:      w,
	}
}

var ProdLogger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

var DevLogger = slog.New(NewPrettyJSONHandler(os.Stdout, nil))

// Discard drops every record.
var Discard = slog.New(slog.DiscardHandler)

// New returns a logger writing format ("json" or "pretty") to w at level.
func New(format string, w io.Writer, level slog.Level) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case "", FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case FormatPretty:
		return slog.New(NewPrettyJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// LogQuery records a statement about to be sent to the engine.
func LogQuery(ctx context.Context, logger *slog.Logger, sql string, params []any) {
	logger.InfoContext(ctx, "query",
		"sql", sql,
		"params", params,
	)
}
