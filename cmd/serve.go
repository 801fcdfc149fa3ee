package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"html"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/a-h/templ"
	"github.com/spf13/cobra"

	"github.com/conneroisu/viewnav/internal/app"
	"github.com/conneroisu/viewnav/internal/config"
	"github.com/conneroisu/viewnav/internal/dom"
	"github.com/conneroisu/viewnav/internal/errors"
	"github.com/conneroisu/viewnav/internal/events"
	"github.com/conneroisu/viewnav/internal/logging"
	"github.com/conneroisu/viewnav/internal/middleware"
	"github.com/conneroisu/viewnav/internal/monitoring"
	"github.com/conneroisu/viewnav/internal/registry"
	"github.com/conneroisu/viewnav/internal/router"
	"github.com/conneroisu/viewnav/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Serve the application over HTTP with a websocket router",
	Long: `Start the application on an in-memory document and serve it over HTTP.
Browsers connect to /ws to follow and drive navigation: the server sends
{"type":"route","path":...} after every navigation and accepts
{"type":"navigate","path":...} from clients.

Endpoints:
  /          the current page; ?path=/users navigates first
  /ws        websocket router
  /metrics   Prometheus metrics
  /health    health report as JSON

Examples:
  viewnav serve                  # Serve on the configured host and port
  viewnav serve -p 3000          # Serve on port 3000
  viewnav serve --host 0.0.0.0   # Listen on all interfaces
  viewnav serve --log-file nav.log  # Also append JSON logs to nav.log`,
	RunE: runServe,
}

var (
	servePort    int
	serveHost    string
	serveWatch   bool
	serveLogFile string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to serve on (default from config)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().BoolVarP(&serveWatch, "watch", "w", false, "Reload view descriptors when their file changes")
	serveCmd.Flags().StringVar(&serveLogFile, "log-file", "", "Also append JSON logs to this file")
	AddFlagValidation(serveCmd, "port", ValidatePort)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	logger, closeLog, err := serveLogger(cfg, cmd.ErrOrStderr(), serveLogFile)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	if cfg.Router.Kind != config.RouterSocket {
		logger.Info(context.Background(), "serve uses the socket router", "configured", cfg.Router.Kind)
		cfg.Router.Kind = config.RouterSocket
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newServer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.app.Destroy()

	if serveWatch {
		stopWatch, err := s.watchDescriptors(ctx)
		if err != nil {
			return err
		}
		defer stopWatch()
	}

	srv := s.http
	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "serving application", "addr", srv.Addr, "start", s.app.Router().Get())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !stderrors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info(shutdownCtx, "shutting down")
	return srv.Shutdown(shutdownCtx)
}

// serveLogger logs to w and, when path is set, also appends JSON lines to the
// file at path. The returned function closes that file.
func serveLogger(cfg *config.Config, w io.Writer, path string) (logging.Logger, func() error, error) {
	console := newLogger(cfg, w)
	if path == "" {
		return console, func() error { return nil }, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	fileCfg := *cfg
	fileCfg.Log.Format = "json"
	return logging.NewMultiLogger(console, newLogger(&fileCfg, f)), f.Close, nil
}

type server struct {
	http   *http.Server
	app    *app.App
	views  *registry.ViewRegistry
	cfg    *config.Config
	logger logging.Logger
}

// newServer starts an application with the socket router and returns the
// HTTP server exposing it. Descriptors are served from a module registry so
// that they can be replaced while the application runs.
func newServer(ctx context.Context, cfg *config.Config, logger logging.Logger) (*server, error) {
	views := registry.NewViewRegistry()
	if cfg.Views.Descriptors != "" {
		descriptors, err := registry.LoadDescriptors(cfg.Views.Descriptors)
		if err != nil {
			return nil, err
		}
		views.RegisterDescriptors(cfg.Views.Module, descriptors)
	}

	metrics := monitoring.NewMetrics()
	doc := dom.NewDocument()
	a, err := newApplication(cfg, doc, logger, app.WithMetrics(metrics), app.WithModules(views))
	if err != nil {
		return nil, err
	}
	handler := errors.NewErrorHandler(logger)
	a.On(events.Error, events.Listener(func(args ...any) {
		if len(args) > 0 {
			if err, ok := args[0].(error); ok {
				handler.Handle(ctx, err)
			}
		}
	}))

	if err := a.Start(ctx, ""); err != nil {
		a.Destroy()
		return nil, fmt.Errorf("failed to start application: %w", err)
	}
	socket, ok := a.Router().(*router.Socket)
	if !ok {
		a.Destroy()
		return nil, fmt.Errorf("router %T does not accept websocket clients", a.Router())
	}

	health := monitoring.NewHealthMonitor(logger)
	for _, check := range a.HealthChecks() {
		health.RegisterCheck(check)
	}
	health.RegisterCheck(monitoring.NewHealthCheckFunc("socket", false, func(context.Context) monitoring.HealthCheck {
		return monitoring.HealthCheck{
			Status:   monitoring.HealthStatusHealthy,
			Message:  fmt.Sprintf("%d client(s) connected", socket.Clients()),
			Metadata: map[string]interface{}{"clients": socket.Clients()},
		}
	}))

	mux := http.NewServeMux()
	mux.Handle("/ws", socket.Handler())
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/health", health.HTTPHandler())
	mux.Handle("/", pageHandler(a, doc, logger))

	return &server{
		http: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
			Handler:           middleware.NewDefaultChain(logger).Apply(mux),
			ReadHeaderTimeout: 10 * time.Second,
		},
		app:    a,
		views:  views,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// watchDescriptors reloads the descriptor file on change and re-renders the
// current path. The returned function stops watching.
func (s *server) watchDescriptors(ctx context.Context) (func(), error) {
	if s.cfg.Views.Descriptors == "" {
		return nil, fmt.Errorf("--watch needs views.descriptors")
	}
	fw, err := watcher.NewFileWatcher(200*time.Millisecond, s.logger)
	if err != nil {
		return nil, err
	}
	if err := fw.AddFile(s.cfg.Views.Descriptors); err != nil {
		_ = fw.Stop()
		return nil, err
	}
	fw.AddHandler(func(ctx context.Context, _ []watcher.ChangeEvent) error {
		return s.reloadDescriptors(ctx)
	})
	if err := fw.Start(ctx); err != nil {
		_ = fw.Stop()
		return nil, err
	}
	return func() { _ = fw.Stop() }, nil
}

func (s *server) reloadDescriptors(ctx context.Context) error {
	descriptors, err := registry.LoadDescriptors(s.cfg.Views.Descriptors)
	if err != nil {
		return err
	}
	s.views.ReplaceDescriptors(s.cfg.Views.Module, descriptors)
	s.logger.Info(ctx, "view descriptors reloaded", "pages", len(descriptors))
	return s.app.Refresh(ctx)
}

func pageHandler(a *app.App, doc *dom.Document, logger logging.Logger) http.Handler {
	page := templ.Handler(pageShell(a.Name(), doc.Component()))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if path := r.URL.Query().Get("path"); path != "" {
			if err := a.Show(r.Context(), path); err != nil {
				logger.Warn(r.Context(), err, "navigation failed", "path", path)
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
		}
		page.ServeHTTP(w, r)
	})
}

// pageShell wraps the document body in a page that reloads when the socket
// router reports a navigation.
func pageShell(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html><head><meta charset="utf-8"><title>`+
			html.EscapeString(title)+`</title></head>`); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, reloadScript+`</html>`)
		return err
	})
}

const reloadScript = `<script>
(function () {
  var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
  var first = true;
  ws.onmessage = function (ev) {
    var msg = JSON.parse(ev.data);
    if (msg.type !== "route") return;
    if (first) { first = false; return; }
    location.reload();
  };
  window.viewnavShow = function (path) {
    ws.send(JSON.stringify({ type: "navigate", path: path }));
  };
})();
</script>`
