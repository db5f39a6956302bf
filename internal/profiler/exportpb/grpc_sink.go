package exportpb

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/blacksail-games/falconjobs/internal/jobqueue"
	"github.com/blacksail-games/falconjobs/pkg/types"
)

// GRPCSink is a profiler.Sink that forwards every event to a remote
// collector over gRPC, one unary call per event. Each Observe call waits
// for its RPC to finish, up to a 5-second timeout, on the goroutine that
// reports the event. A failed RPC is passed to the caller-supplied
// errHandler and never returned or panicked.
type GRPCSink struct {
	client     ProfileEventServiceClient
	workerTag  string
	timeout    time.Duration
	errHandler func(error)
}

// NewGRPCSink wraps an established connection. workerTag identifies this
// process to the remote collector (e.g. a hostname or pool name).
// errHandler receives any RPC error; pass a no-op if errors should be
// silently dropped.
func NewGRPCSink(conn grpc.ClientConnInterface, workerTag string, errHandler func(error)) *GRPCSink {
	if errHandler == nil {
		errHandler = func(error) {}
	}
	return &GRPCSink{
		client:     NewProfileEventServiceClient(conn),
		workerTag:  workerTag,
		timeout:    5 * time.Second,
		errHandler: errHandler,
	}
}

// Observe implements profiler.Sink.
func (s *GRPCSink) Observe(entry jobqueue.Entry, event types.EventKind, value1, value2 uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	fields := map[string]interface{}{
		"event":      event.String(),
		"worker_tag": s.workerTag,
		"value1":     float64(value1),
		"value2":     float64(value2),
	}
	if entry.State != nil {
		fields["job_id"] = float64(entry.State.ID())
		if tag := entry.State.DebugTag(); tag != 0 {
			fields["debug_tag"] = string(tag)
		}
	}

	payload, err := structpb.NewStruct(fields)
	if err != nil {
		s.errHandler(fmt.Errorf("encode profile event: %w", err))
		return
	}

	if _, err := s.client.ReportEvent(ctx, payload); err != nil {
		s.errHandler(fmt.Errorf("report profile event: %w", err))
	}
}
