package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/yuqie6/OpenPath/internal/bootstrap"
	"github.com/yuqie6/OpenPath/internal/dto"
	"github.com/yuqie6/OpenPath/internal/eventbus"
	"github.com/yuqie6/OpenPath/internal/pkg/buildinfo"
	"github.com/yuqie6/OpenPath/internal/service"
)

type LocalServer struct {
	rt      *bootstrap.AgentRuntime
	ln      net.Listener
	srv     *http.Server
	baseURL string
}

type Options struct {
	ListenAddr string // e.g. "127.0.0.1:8787"
}

func Start(ctx context.Context, rt *bootstrap.AgentRuntime, opts Options) (*LocalServer, error) {
	if rt == nil {
		return nil, fmt.Errorf("rt 不能为空")
	}
	if strings.TrimSpace(opts.ListenAddr) == "" {
		opts.ListenAddr = "127.0.0.1:0"
	}

	ln, err := net.Listen("tcp", opts.ListenAddr)
	if err != nil {
		return nil, err
	}
	baseURL := "http://" + ln.Addr().String()

	srv := &http.Server{
		Handler:           NewHandler(rt),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ls := &LocalServer{
		rt:      rt,
		ln:      ln,
		srv:     srv,
		baseURL: baseURL,
	}

	go func() {
		<-ctx.Done()
		_ = ls.Shutdown(context.Background())
	}()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server 异常退出", "error", err)
		}
	}()

	slog.Info("本地 HTTP 已启动", "base_url", baseURL)
	return ls, nil
}

func (s *LocalServer) BaseURL() string {
	if s == nil {
		return ""
	}
	return s.baseURL
}

func (s *LocalServer) Shutdown(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// NewHandler 构建路由，测试可直接配合 httptest 使用
func NewHandler(rt *bootstrap.AgentRuntime) http.Handler {
	hub := rt.Hub
	if hub == nil {
		hub = eventbus.NewHub()
		rt.Hub = hub
	}
	api := newAPI(rt, hub)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", api.handleHealth)
	mux.HandleFunc("GET /api/events", api.handleSSE)
	api.registerJSONRoutes(mux)
	return mux
}

type apiServer struct {
	rt        *bootstrap.AgentRuntime
	hub       *eventbus.Hub
	startTime time.Time
}

func newAPI(rt *bootstrap.AgentRuntime, hub *eventbus.Hub) *apiServer {
	return &apiServer{
		rt:        rt,
		hub:       hub,
		startTime: time.Now(),
	}
}

func (a *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.HealthDTO{
		OK:        true,
		Name:      a.rt.Cfg.App.Name,
		Version:   buildinfo.Version,
		Commit:    buildinfo.Commit,
		StartedAt: a.startTime.Format(time.RFC3339),
		UptimeSec: int64(time.Since(a.startTime).Seconds()),
	})
}

func (a *apiServer) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "stream not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx := r.Context()
	sub := a.hub.Subscribe(ctx, 32)

	_, _ = io.WriteString(w, "event: ready\n")
	_, _ = io.WriteString(w, "data: {}\n\n")
	flusher.Flush()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, "event: ping\n")
			_, _ = io.WriteString(w, "data: {}\n\n")
			flusher.Flush()
		case evt, ok := <-sub:
			if !ok {
				return
			}
			b, _ := json.Marshal(evt)
			_, _ = io.WriteString(w, "event: "+sanitizeSSEName(evt.Type)+"\n")
			_, _ = io.WriteString(w, "data: ")
			_, _ = w.Write(b)
			_, _ = io.WriteString(w, "\n\n")
			flusher.Flush()
		}
	}
}

func sanitizeSSEName(name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return "message"
	}
	n = strings.ReplaceAll(n, "\n", "")
	n = strings.ReplaceAll(n, "\r", "")
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

// writeServiceError 校验类错误 400，同步失败 502，其余 500
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUserIDRequired),
		errors.Is(err, service.ErrInvalidFilter),
		errors.Is(err, service.ErrLoginRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSyncFailed):
		writeError(w, http.StatusBadGateway, service.ErrSyncFailed.Error())
	default:
		slog.Error("请求处理失败", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
