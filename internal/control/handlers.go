package control

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/npratt/walletshell/internal/lifecycle"
)

// handleRequest dispatches the request to the appropriate handler.
func (s *Server) handleRequest(ctx context.Context, req *Request) Response {
	if s.target == nil {
		return Response{Error: "no controller available"}
	}
	switch req.Method {
	case MethodStatus:
		return s.handleStatus()
	case MethodNotify:
		return s.handleNotify(ctx, req)
	case MethodQuit:
		return s.handleQuit(ctx)
	default:
		return Response{Error: fmt.Sprintf("unknown method: %s", req.Method)}
	}
}

func (s *Server) handleStatus() Response {
	snap := s.target.Snapshot()
	start := s.StartTime()
	return Response{
		Result: StatusResponse{
			Phase:          snap.Phase,
			Ready:          snap.Ready,
			StatusText:     snap.StatusText,
			StatusSubtext:  snap.StatusSubtext,
			PendingVersion: snap.PendingVersion,
			Uptime:         time.Since(start).Truncate(time.Second).String(),
			StartTime:      start.Format(time.RFC3339),
			PID:            os.Getpid(),
		},
	}
}

// handleNotify queues a notification. Payload validity is judged by the
// lifecycle, not here.
func (s *Server) handleNotify(ctx context.Context, req *Request) Response {
	var params NotifyParams
	if len(req.Params) == 0 {
		return Response{Error: "notify requires params"}
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return Response{Error: fmt.Sprintf("invalid params: %v", err)}
	}

	e := lifecycle.Event{Kind: lifecycle.EventKind(params.Kind), Payload: params.Payload}
	if err := s.target.Deliver(ctx, e); err != nil {
		return Response{Error: err.Error()}
	}
	s.logger.Debug("notification queued", "kind", params.Kind)
	return Response{Result: "queued"}
}

func (s *Server) handleQuit(ctx context.Context) Response {
	if err := s.target.RequestQuit(ctx); err != nil {
		return Response{Error: err.Error()}
	}
	return Response{Result: "quitting"}
}
