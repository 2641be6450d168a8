package api

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rollcall/pkg/common"
	"rollcall/pkg/core"
)

type Server struct {
	registry *core.Registry
	engine   *gin.Engine
	httpSrv  *http.Server
}

// NewServer wires the routes. gatherer backs /metrics; nil falls back to the
// default Prometheus registry.
func NewServer(registry *core.Registry, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), cors.Default())

	s := &Server{
		registry: registry,
		engine:   engine,
		httpSrv:  &http.Server{Handler: engine},
	}

	engine.GET("/health", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := engine.Group("/api")
	api.GET("/students", s.handleList)
	api.POST("/students", s.handleEnroll)
	api.GET("/students/:enrollment", s.handleGet)
	api.PUT("/students/:enrollment", s.handleUpdate)
	api.DELETE("/students/:enrollment", s.handleWithdraw)
	api.POST("/index/rebuild", s.handleRebuild)
	api.GET("/stats", s.handleStats)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Printf("[API] Server listening on %s...", addr)
	return s.Serve(listener)
}

// Serve blocks until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Serve(listener net.Listener) error {
	if err := s.httpSrv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones to finish
// or for ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleList serves the full ordered roster, or one of the O(n) filters when
// roll_no, division_id or name is given.
func (s *Server) handleList(c *gin.Context) {
	if roll := c.Query("roll_no"); roll != "" {
		n, err := strconv.Atoi(roll)
		if err != nil {
			fail(c, http.StatusBadRequest, "roll_no must be an integer")
			return
		}
		rec, err := s.registry.LookupRoll(n)
		if err != nil {
			failErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "student": rec})
		return
	}

	var students []common.StudentRecord
	switch {
	case c.Query("division_id") != "":
		id, err := strconv.ParseInt(c.Query("division_id"), 10, 64)
		if err != nil {
			fail(c, http.StatusBadRequest, "division_id must be an integer")
			return
		}
		students = s.registry.ListDivision(id)
	case c.Query("name") != "":
		students = s.registry.SearchName(c.Query("name"))
	default:
		students = s.registry.List()
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(students), "students": students})
}

func (s *Server) handleGet(c *gin.Context) {
	rec, err := s.registry.Lookup(c.Param("enrollment"))
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "student": rec})
}

func (s *Server) handleEnroll(c *gin.Context) {
	var rec common.StudentRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		fail(c, http.StatusBadRequest, "Invalid body")
		return
	}
	if err := s.registry.Enroll(c.Request.Context(), rec); err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "student": rec})
}

func (s *Server) handleUpdate(c *gin.Context) {
	var rec common.StudentRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		fail(c, http.StatusBadRequest, "Invalid body")
		return
	}
	rec.EnrollmentNo = c.Param("enrollment")
	if err := s.registry.Update(c.Request.Context(), rec); err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "student": rec})
}

func (s *Server) handleWithdraw(c *gin.Context) {
	if err := s.registry.Withdraw(c.Request.Context(), c.Param("enrollment")); err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleRebuild(c *gin.Context) {
	n, err := s.registry.Rebuild()
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": n})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.registry.Stats())
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "message": msg})
}

func failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrStudentNotFound):
		fail(c, http.StatusNotFound, "Student not found")
	case errors.Is(err, common.ErrInvalidRecord):
		fail(c, http.StatusBadRequest, "enrollment_no and roll_no are required")
	case errors.Is(err, common.ErrDuplicateEnrollment):
		fail(c, http.StatusConflict, "Enrollment number already registered")
	default:
		log.Printf("[API] Internal error: %v", err)
		fail(c, http.StatusInternalServerError, err.Error())
	}
}
