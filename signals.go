package objgraph

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for serializer and resolver events.
var (
	SignalSerializerCreated = capitan.NewSignal("objgraph.serializer.created", "Serializer instantiated")
	SignalSerializeStart    = capitan.NewSignal("objgraph.serialize.start", "Serialize call beginning")
	SignalSerializeComplete = capitan.NewSignal("objgraph.serialize.complete", "Serialize call finished")
	SignalRebuildStart      = capitan.NewSignal("objgraph.rebuild.start", "Rebuild call beginning")
	SignalRebuildComplete   = capitan.NewSignal("objgraph.rebuild.complete", "Rebuild call finished")
)

// Keys for typed event data.
var (
	KeySession   = capitan.NewStringKey("session")
	KeyTypeName  = capitan.NewStringKey("type_name")
	KeyMaxDepth  = capitan.NewIntKey("max_depth")
	KeyNodeCount = capitan.NewIntKey("node_count")
	KeyRefCount  = capitan.NewIntKey("ref_count")
	KeyDuration  = capitan.NewDurationKey("duration")
	KeyError     = capitan.NewErrorKey("error")
)

func emitSerializerCreated(ctx context.Context, maxDepth int) {
	capitan.Emit(ctx, SignalSerializerCreated, KeyMaxDepth.Field(maxDepth))
}

func emitSerializeStart(ctx context.Context, session, typeName string, maxDepth int) {
	capitan.Emit(ctx, SignalSerializeStart,
		KeySession.Field(session),
		KeyTypeName.Field(typeName),
		KeyMaxDepth.Field(maxDepth),
	)
}

// emitSerializeComplete reports the size of the emitted tree; failures go
// out at error severity.
func emitSerializeComplete(ctx context.Context, session, typeName string, nodes, refs int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeySession.Field(session),
		KeyTypeName.Field(typeName),
		KeyNodeCount.Field(nodes),
		KeyRefCount.Field(refs),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalSerializeComplete, fields...)
		return
	}
	capitan.Emit(ctx, SignalSerializeComplete, fields...)
}

func emitRebuildStart(ctx context.Context, session, typeName string) {
	capitan.Emit(ctx, SignalRebuildStart,
		KeySession.Field(session),
		KeyTypeName.Field(typeName),
	)
}

func emitRebuildComplete(ctx context.Context, session, typeName string, nodes int, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeySession.Field(session),
		KeyTypeName.Field(typeName),
		KeyNodeCount.Field(nodes),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalRebuildComplete, fields...)
		return
	}
	capitan.Emit(ctx, SignalRebuildComplete, fields...)
}
