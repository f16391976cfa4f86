package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/razyhost/razy/internal/app"
	"github.com/razyhost/razy/internal/razyerr"
	"github.com/razyhost/razy/internal/reqctx"
)

// serverStatus mirrors the Starting/Ready/Draining lifecycle a long-lived
// bridge server reports, so /health reflects what Start/Shutdown are doing
// rather than just whether the process is alive.
type serverStatus string

const (
	statusStarting serverStatus = "starting"
	statusReady    serverStatus = "ready"
	statusDraining serverStatus = "draining"
)

var (
	serveAddr            string
	serveShutdownTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a reference net/http host that adapts requests into Application.Dispatch",
	Long: `serve is a reference integration, not part of the core: it binds a TCP
listener, locks the Application so worker-mode caching is active, and turns
each incoming request's Host header and URL path into an Application.Dispatch
call, translating HttpSignal and error results into HTTP responses.`,
	Args: cobra.NoArgs,
	RunE: func(c *cobra.Command, args []string) error {
		a, err := buildApplication()
		if err != nil {
			return err
		}
		a.Lock()

		srv := newBridgeServer(a, serveAddr)
		ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := srv.Start(ctx); err != nil {
			return err
		}
		fmt.Fprintf(c.OutOrStdout(), "serving on %s\n", srv.Addr())

		<-ctx.Done()
		fmt.Fprintln(c.OutOrStdout(), "draining")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "address to listen on")
	serveCmd.Flags().DurationVar(&serveShutdownTimeout, "shutdown-timeout", 15*time.Second, "grace period for in-flight requests on shutdown")
}

// bridgeServer wraps the http.Server adapting raw requests into
// Application.Dispatch calls.
type bridgeServer struct {
	app  *app.Application
	addr string

	mu        sync.RWMutex
	server    *http.Server
	listener  net.Listener
	status    serverStatus
	startTime time.Time
}

func newBridgeServer(a *app.Application, addr string) *bridgeServer {
	return &bridgeServer{app: a, addr: addr, status: statusStarting}
}

func (s *bridgeServer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("serve: server already started")
	}
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("serve: listen %s: %w", s.addr, err)
	}
	s.listener = listener
	s.startTime = time.Now().UTC()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleDispatch)

	server := &http.Server{
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	if ctx != nil {
		server.BaseContext = func(net.Listener) context.Context { return ctx }
	}
	s.server = server
	s.status = statusReady
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.app.Logger.Printf("serve: error: %v", err)
		}
	}()
	return nil
}

func (s *bridgeServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.status = statusDraining
	server := s.server
	s.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

func (s *bridgeServer) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

func (s *bridgeServer) Status() serverStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *bridgeServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	status := s.status
	uptime := time.Since(s.startTime).Seconds()
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        status,
		"uptimeSeconds": int64(uptime),
		"guid":          s.app.GUID,
	})
}

func (s *bridgeServer) handleDispatch(w http.ResponseWriter, r *http.Request) {
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")

	ctx := &reqctx.Context{Values: map[string]any{
		"http.request": r,
		"http.header":  r.Header,
	}}

	result, err := s.app.Dispatch(host, r.Method, r.URL.Path, ctx)
	if err != nil {
		var signal *razyerr.HttpSignal
		if errors.As(err, &signal) {
			if signal.NotFound {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			status := signal.Status
			if status == 0 {
				status = http.StatusFound
			}
			http.Redirect(w, r, signal.Redirect, status)
			return
		}
		var routingErr *razyerr.RoutingError
		if errors.As(err, &routingErr) {
			http.Error(w, err.Error(), http.StatusLoopDetected)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	switch v := result.(type) {
	case []byte:
		w.Write(v)
	case string:
		w.Write([]byte(v))
	case nil:
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusOK, v)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
