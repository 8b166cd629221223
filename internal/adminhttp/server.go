// Package adminhttp implements C8, the admin/ops HTTP surface: read-only
// status, health, Prometheus metrics, an SSE chat tail, and a JWT-gated
// reconcile-source action.
package adminhttp

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arung-agamani/zelfm/internal/auth"
	"github.com/arung-agamani/zelfm/internal/broadcaster"
	"github.com/arung-agamani/zelfm/internal/bus"
	"github.com/arung-agamani/zelfm/internal/chat"
	"github.com/arung-agamani/zelfm/internal/metrics"
	"github.com/arung-agamani/zelfm/internal/trackinfo"
)

// Server is the admin HTTP surface.
type Server struct {
	engine *gin.Engine
	http   *http.Server
}

// New builds the admin HTTP surface bound to addr. sourceFile is used for
// C9's best-effort tag read; a handles the JWT login the reconcile-source
// endpoint requires.
func New(addr string, st *broadcaster.Station, sourceFile string, a *auth.Auth) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(securityHeaders)

	reg := prometheus.NewRegistry()
	metrics.Register(reg)

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	engine.GET("/api/status", func(c *gin.Context) {
		snap := st.Snapshot()
		track := trackinfo.Read(sourceFile)
		c.JSON(http.StatusOK, gin.H{
			"station":   snap.Station,
			"listeners": snap.Listeners,
			"track":     track,
		})
	})

	engine.GET("/api/chat/stream", func(c *gin.Context) {
		streamChat(c, st.ChatBus())
	})

	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	engine.POST("/api/auth/login", func(c *gin.Context) {
		handleLogin(c, a)
	})

	protected := engine.Group("/api")
	protected.Use(authRequired(a))
	protected.POST("/reconcile-source", func(c *gin.Context) {
		// This endpoint only acknowledges the operator's request: it does
		// not signal internal/source, whose loop re-opens the file only
		// when a decode pass ends or fails.
		c.JSON(http.StatusAccepted, gin.H{"status": "reconcile requested"})
	})

	return &Server{
		engine: engine,
		http: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      0, // SSE and metrics scrapes can run long
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 20,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start runs the HTTP server until ctx is canceled, then shuts it down with
// a grace period before forcing remaining connections closed.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := s.http.Shutdown(shutdownCtx)
		if err != nil {
			_ = s.http.Close()
		}
		return err
	}
}

func streamChat(c *gin.Context, chatBus *bus.Bus[chat.Message]) {
	sub := chatBus.Subscribe()
	defer chatBus.Unsubscribe(sub)

	c.Stream(func(w http.ResponseWriter) bool {
		msg, lagged, ok := chatBus.Recv(c.Request.Context(), sub)
		if !ok {
			return false
		}
		if lagged > 0 {
			return true
		}
		sse.Encode(w, sse.Event{Event: "chat", Data: msg})
		return true
	})
}

func handleLogin(c *gin.Context, a *auth.Auth) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	token, err := a.Authenticate(body.Username, body.Password, c.ClientIP())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
