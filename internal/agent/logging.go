package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// LineLogger receives one formatted line per log record.
type LineLogger interface {
	Log(line string)
}

// MirrorHandler forwards records to another handler and also writes a
// "message key=value ..." line to a LineLogger, usually the agent memory.
type MirrorHandler struct {
	inner  slog.Handler
	mirror LineLogger
	attrs  []slog.Attr
	group  string
}

func NewMirrorHandler(inner slog.Handler, mirror LineLogger) *MirrorHandler {
	return &MirrorHandler{inner: inner, mirror: mirror}
}

func (h *MirrorHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *MirrorHandler) Handle(ctx context.Context, r slog.Record) error {
	var b strings.Builder
	if r.Level != slog.LevelInfo {
		b.WriteString(r.Level.String())
		b.WriteByte(' ')
	}
	b.WriteString(r.Message)
	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.group, a)
		return true
	})
	h.mirror.Log(b.String())

	return h.inner.Handle(ctx, r)
}

func (h *MirrorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefixed := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	prefixed = append(prefixed, h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		prefixed = append(prefixed, a)
	}
	return &MirrorHandler{
		inner:  h.inner.WithAttrs(attrs),
		mirror: h.mirror,
		attrs:  prefixed,
		group:  h.group,
	}
}

func (h *MirrorHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &MirrorHandler{
		inner:  h.inner.WithGroup(name),
		mirror: h.mirror,
		attrs:  h.attrs,
		group:  group,
	}
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(b, key, ga)
		}
		return
	}
	fmt.Fprintf(b, " %s=%s", key, a.Value.String())
}
