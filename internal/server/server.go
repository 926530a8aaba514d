package server

import (
	"net/http"
	"net/http/pprof"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atikulmunna/esoloom/internal/aggregator"
	"github.com/atikulmunna/esoloom/internal/encounter"
	"github.com/atikulmunna/esoloom/internal/hub"
)

// Server holds the Gin engine and dependencies for the dashboard API.
type Server struct {
	engine     *gin.Engine
	hub        *hub.Hub
	aggregator *aggregator.Aggregator
	gatherer   prometheus.Gatherer
	port       string
}

// New creates the dashboard server. gatherer backs /metrics.
func New(h *hub.Hub, agg *aggregator.Aggregator, gatherer prometheus.Gatherer, port string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	// Disable automatic redirects that cause 301 issues.
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	s := &Server{
		engine:     engine,
		hub:        h,
		aggregator: agg,
		gatherer:   gatherer,
		port:       port,
	}

	s.setupRoutes()
	return s
}

// reportListItem is the /api/reports entry; lines and players are left to
// the detail route.
type reportListItem struct {
	ID              uuid.UUID `json:"id"`
	Zone            string    `json:"zone,omitempty"`
	Difficulty      string    `json:"difficulty,omitempty"`
	Start           string    `json:"start,omitempty"`
	DurationSeconds float64   `json:"duration_seconds"`
	TotalDamage     int64     `json:"total_damage"`
	DPS             float64   `json:"dps"`
	Players         int       `json:"players"`
}

func listItem(r encounter.Report) reportListItem {
	item := reportListItem{
		ID:              r.ID,
		Zone:            r.Zone,
		Difficulty:      r.Difficulty,
		DurationSeconds: r.Summary.DurationSeconds,
		TotalDamage:     r.Summary.TotalDamage,
		DPS:             r.Summary.DPS,
		Players:         len(r.Summary.Players),
	}
	if !r.Start.IsZero() {
		item.Start = r.Start.UTC().Format("2006-01-02T15:04:05Z")
	}
	return item
}

func (s *Server) setupRoutes() {
	s.engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "esoloom",
			"routes":  []string{"/healthz", "/api/stats", "/api/reports", "/api/reports/:id", "/api/live", "/api/zones", "/ws", "/metrics"},
		})
	})

	// Health check.
	s.engine.GET("/healthz", func(c *gin.Context) {
		stats := s.aggregator.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"status":         "ok",
			"uptime":         stats.Uptime,
			"files_watched":  stats.FilesWatched,
			"eps":            stats.EPS,
			"dropped_events": stats.DroppedEvents,
		})
	})

	api := s.engine.Group("/api")
	api.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.aggregator.Snapshot())
	})
	api.GET("/reports", s.handleReports)
	api.GET("/reports/:id", s.handleReport)
	api.GET("/live", s.handleLive)
	api.GET("/zones", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.hub.Zones())
	})

	// WebSocket.
	s.engine.GET("/ws", s.handleWebSocket)

	// Prometheus.
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	// pprof profiling endpoints.
	s.engine.GET("/debug/pprof/", gin.WrapF(pprof.Index))
	s.engine.GET("/debug/pprof/cmdline", gin.WrapF(pprof.Cmdline))
	s.engine.GET("/debug/pprof/profile", gin.WrapF(pprof.Profile))
	s.engine.GET("/debug/pprof/symbol", gin.WrapF(pprof.Symbol))
	s.engine.GET("/debug/pprof/trace", gin.WrapF(pprof.Trace))
	s.engine.GET("/debug/pprof/allocs", gin.WrapH(pprof.Handler("allocs")))
	s.engine.GET("/debug/pprof/heap", gin.WrapH(pprof.Handler("heap")))
	s.engine.GET("/debug/pprof/goroutine", gin.WrapH(pprof.Handler("goroutine")))
}

func (s *Server) handleReports(c *gin.Context) {
	recent := s.hub.Recent()
	out := make([]reportListItem, 0, len(recent))
	for _, r := range recent {
		out = append(out, listItem(r))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}
	r, ok := s.hub.Find(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) handleLive(c *gin.Context) {
	live, ok := s.hub.Live()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no current encounter"})
		return
	}
	c.JSON(http.StatusOK, live)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start runs the server. Blocks until the server is stopped.
func (s *Server) Start() error {
	return s.engine.Run(":" + s.port)
}
