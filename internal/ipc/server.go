package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"

	"github.com/rahulptl/synapse-sub001/internal/api"
	"github.com/rahulptl/synapse-sub001/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path. shutdown, if
// non-nil, is invoked when a client requests daemon exit.
func NewServer(ctx context.Context, path string, queue *api.QueueService, shutdown func(), logger *slog.Logger) (*Server, error) {
	if queue == nil {
		return nil, errors.New("ipc server requires a queue service")
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
	srv := &service{queue: queue, shutdown: shutdown, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Synapse", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
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
			logging.String(logging.FieldErrorHint, "Remove the socket file manually before the next start"))
	}
}

type service struct {
	queue    *api.QueueService
	shutdown func()
	logger   *slog.Logger
	ctx      context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Capture(req CaptureRequest, resp *CaptureResponse) error {
	view, err := s.queue.EnqueueCapture(s.ctx, req)
	if err != nil {
		return err
	}
	resp.Item = *view
	s.log().Info("capture accepted via IPC",
		logging.String(logging.FieldItemID, view.ID),
		logging.String(logging.FieldEventType, "capture"))
	return nil
}

func (s *service) Drain(_ DrainRequest, resp *DrainResponse) error {
	s.log().Debug("drain requested")
	if err := s.queue.Drain(s.ctx); err != nil {
		return err
	}
	resp.Drained = true
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status, err := s.queue.Status(s.ctx)
	if err != nil {
		return err
	}
	*resp = status
	return nil
}

func (s *service) ItemList(_ ItemListRequest, resp *ItemListResponse) error {
	views, err := s.queue.Items(s.ctx)
	if err != nil {
		return err
	}
	resp.Items = views
	return nil
}

func (s *service) ItemShow(req ItemShowRequest, resp *ItemShowResponse) error {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return fmt.Errorf("item id is required")
	}
	view, err := s.queue.Item(s.ctx, id)
	if err != nil {
		return err
	}
	if view == nil {
		return fmt.Errorf("item %s not found", id)
	}
	resp.Item = *view
	return nil
}

func (s *service) ItemRemove(req ItemRemoveRequest, resp *ItemRemoveResponse) error {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return fmt.Errorf("item id is required")
	}
	removed, err := s.queue.RemoveItem(s.ctx, id)
	if err != nil {
		return err
	}
	resp.Removed = removed
	return nil
}

func (s *service) ItemRetry(req ItemRetryRequest, resp *ItemRetryResponse) error {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return fmt.Errorf("item id is required")
	}
	retried, err := s.queue.RetryItem(s.ctx, id)
	if err != nil {
		return err
	}
	resp.Retried = retried
	return nil
}

func (s *service) QueueList(_ QueueListRequest, resp *QueueListResponse) error {
	tasks, err := s.queue.Queue(s.ctx)
	if err != nil {
		return err
	}
	resp.Tasks = tasks
	return nil
}

func (s *service) QueueHealth(_ QueueHealthRequest, resp *QueueHealthResponse) error {
	health, err := s.queue.Health(s.ctx)
	if err != nil {
		return err
	}
	*resp = health
	return nil
}

func (s *service) Folders(_ FoldersRequest, resp *FoldersResponse) error {
	folders, err := s.queue.Folders(s.ctx)
	if err != nil {
		return err
	}
	resp.Folders = folders
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	if err := s.queue.TestNotification(s.ctx); err != nil {
		resp.Sent = false
		resp.Message = err.Error()
		return nil
	}
	resp.Sent = true
	resp.Message = "notification sent"
	return nil
}

func (s *service) Shutdown(_ ShutdownRequest, resp *ShutdownResponse) error {
	if s.shutdown == nil {
		return fmt.Errorf("shutdown not supported")
	}
	s.log().Info("shutdown requested via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	resp.Stopping = true
	go s.shutdown()
	return nil
}
