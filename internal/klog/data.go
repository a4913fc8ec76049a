package klog

import (
	"context"
	"log/slog"
	"maps"
)

type data map[string]slog.Attr

func (d data) append(attrs ...slog.Attr) {
	for _, attr := range attrs {
		d[attr.Key] = attr
	}
}

type dataKey struct{}

func cloneData(ctx context.Context) data {
	d, ok := ctx.Value(dataKey{}).(data)
	if !ok {
		return data{}
	}
	return maps.Clone(d)
}

// WithAttrs returns a context carrying attrs, merged onto any already
// attached. A handler wrapped with dataHook copies them onto every
// record logged through that context, so a cancellation scope's ID or
// a transfer's byte count only needs to be attached once.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	if len(attrs) == 0 {
		return ctx
	}
	d := cloneData(ctx)
	d.append(attrs...)
	return context.WithValue(ctx, dataKey{}, d)
}

type dataHook struct{}

func (dataHook) Run(ctx context.Context, r *slog.Record) {
	d, ok := ctx.Value(dataKey{}).(data)
	if !ok {
		return
	}
	for _, attr := range d {
		r.AddAttrs(attr)
	}
}
