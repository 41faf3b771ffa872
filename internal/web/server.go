// Package web serves the planner over a JSON HTTP API.
package web

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Joseda-hg/lazyplan/internal/planner"
)

type Options struct {
	RatePerSecond float64
	Burst         int
	CORSOrigins   []string
}

func DefaultOptions() Options {
	return Options{RatePerSecond: 10, Burst: 20, CORSOrigins: []string{"*"}}
}

type Server struct {
	svc  *planner.Service
	opts Options
}

func NewServer(svc *planner.Service, opts Options) *Server {
	return &Server{svc: svc, opts: opts}
}

func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(RecoveryWithLog())
	if s.opts.RatePerSecond > 0 {
		r.Use(RateLimiter(rate.Limit(s.opts.RatePerSecond), s.opts.Burst))
	}
	r.Use(cors.New(corsConfig(s.opts.CORSOrigins)))

	api := r.Group("/api")
	{
		api.GET("/tasks", s.listTasks)
		api.POST("/tasks", s.createTask)
		api.GET("/tasks/category/:category", s.listByCategory)
		api.GET("/tasks/:id", s.getTask)
		api.PATCH("/tasks/:id", s.patchTask)
		api.PUT("/tasks/:id", s.revertTask)
		api.DELETE("/tasks/:id", s.deleteTask)

		api.POST("/tasks/:id/taskify", s.taskify)
		api.POST("/tasks/:id/schedule", s.schedule)
		api.POST("/tasks/:id/flexible", s.flexible)
		api.POST("/tasks/:id/unschedule", s.unschedule)
		api.POST("/tasks/:id/backlog", s.backlog)
		api.POST("/tasks/:id/current", s.current)
		api.POST("/tasks/:id/complete", s.complete)
		api.POST("/tasks/:id/logs", s.addLog)

		api.POST("/quick-add", s.quickAdd)
		api.POST("/parse", s.parse)
		api.GET("/archive", s.archive)
		api.GET("/agenda", s.agenda)
		api.GET("/categories", s.categories)
	}
	return r
}
