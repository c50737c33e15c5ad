package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"log/slog"

	"tidycore/internal/daemon"
	"tidycore/internal/decisions"
	"tidycore/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("TidyCore", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun tidycore stop"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func convertDecision(decision *decisions.Decision) Decision {
	return Decision{
		ID:           decision.ID,
		OriginalPath: decision.OriginalPath,
		NewPath:      decision.NewPath,
		Category:     decision.Category,
		Subcategory:  decision.Subcategory,
		State:        decision.State,
		CreatedAt:    decision.CreatedAt,
	}
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.log().Debug("engine start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "engine started"
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("engine stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.StartedAt = status.StartedAt
	resp.PendingPaths = status.PendingPaths
	resp.MovesCompleted = status.MovesCompleted
	resp.DroppedStatus = status.DroppedStatus
	resp.DecisionDBPath = status.DecisionDBPath
	resp.LockPath = status.LockFilePath
	resp.ConfigPath = status.ConfigPath
	resp.Roots = make([]RootStatus, 0, len(status.Roots))
	for _, root := range status.Roots {
		resp.Roots = append(resp.Roots, RootStatus{Root: root.Root, State: root.State})
	}
	return nil
}

func (s *service) Reload(_ ReloadRequest, resp *ReloadResponse) error {
	s.log().Debug("config reload requested")
	if err := s.daemon.Reload(s.ctx); err != nil {
		resp.Reloaded = false
		resp.Message = err.Error()
		return nil
	}
	resp.Reloaded = true
	resp.Message = "configuration reloaded"
	return nil
}

func (s *service) DecisionList(req DecisionListRequest, resp *DecisionListResponse) error {
	list, err := s.daemon.ListDecisions(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Decisions = make([]Decision, 0, len(list))
	for _, decision := range list {
		resp.Decisions = append(resp.Decisions, convertDecision(decision))
	}
	return nil
}

func (s *service) DecisionUndo(req DecisionUndoRequest, resp *DecisionUndoResponse) error {
	if req.ID == "" {
		return errors.New("decision undo requires an id")
	}
	decision, err := s.daemon.UndoDecision(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Decision = convertDecision(decision)
	s.log().Info("decision undone via IPC", logging.String(logging.FieldDecisionID, req.ID))
	return nil
}

func (s *service) DecisionIgnore(req DecisionIgnoreRequest, resp *DecisionIgnoreResponse) error {
	if req.ID == "" {
		return errors.New("decision ignore requires an id")
	}
	decision, err := s.daemon.IgnoreDecision(s.ctx, req.ID)
	if err != nil {
		return err
	}
	resp.Decision = convertDecision(decision)
	s.log().Info("decision ignored via IPC", logging.String(logging.FieldDecisionID, req.ID))
	return nil
}

func (s *service) Stats(_ StatsRequest, resp *StatsResponse) error {
	summary, err := s.daemon.Stats(s.ctx)
	if err != nil {
		return err
	}
	resp.TodayCount = summary.TodayCount
	resp.TotalCount = summary.TotalCount
	resp.TotalBytes = summary.TotalBytes
	resp.TodayByCategory = summary.TodayByCategory
	resp.Week = make([]DailyCount, 0, len(summary.Week))
	for _, day := range summary.Week {
		resp.Week = append(resp.Week, DailyCount{Day: day.Day, Count: day.Count})
	}
	return nil
}

func (s *service) Recent(req RecentRequest, resp *RecentResponse) error {
	operations, err := s.daemon.RecentOperations(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Operations = make([]Operation, 0, len(operations))
	for _, operation := range operations {
		resp.Operations = append(resp.Operations, Operation{
			SourcePath:      operation.SourcePath,
			DestinationPath: operation.DestinationPath,
			Category:        operation.Category,
			Subcategory:     operation.Subcategory,
			IsFolder:        operation.IsFolder,
			SizeBytes:       operation.SizeBytes,
			MovedAt:         operation.MovedAt,
		})
	}
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
