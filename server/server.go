// Package server exposes a browse.Service over HTTP with gin.
//
// Routes:
//
//	GET    /list?prefix=&cursor=   one page, HX-Replace-Url set to the canonical link
//	POST   /list/items             first page for the form field prefix, HX-Push-Url set
//	GET    /get?q=                 point lookup
//	POST   /get/item               point lookup for the form field key, HX-Push-Url set
//	DELETE /item?key=              delete, 404 when the key does not decode
//	GET    /healthz, /metrics
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rawbytedev/kvview/browse"
	"github.com/rawbytedev/kvview/keys"
	"github.com/rawbytedev/kvview/scan"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 30 * time.Second

type Server struct {
	svc     *browse.Service
	log     logrus.FieldLogger
	metrics *Metrics
	router  *gin.Engine
}

type listResponse struct {
	*browse.ListResult
	NextCursorURL string `json:"nextCursorUrl,omitempty"`
	Limit         int    `json:"limit"`
}

// New wires the routes. metrics may be nil.
func New(svc *browse.Service, log logrus.FieldLogger, metrics *Metrics) *Server {
	if metrics == nil {
		metrics = NewMetrics()
	}
	s := &Server{svc: svc, log: log, metrics: metrics, router: gin.New()}
	s.router.Use(requestID(), s.accessLog(), s.recovery())

	s.router.GET("/", s.index)
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	s.router.GET("/list", s.list)
	s.router.POST("/list/items", s.listItems)
	s.router.GET("/get", s.get)
	s.router.POST("/get/item", s.getItem)
	s.router.DELETE("/item", s.deleteItem)

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	s.log.WithField("addr", addr).Info("kvview is running")

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "server: listen")
	case <-ctx.Done():
	}
	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Wrap(srv.Shutdown(shutdownCtx), "server: shutdown")
}

func (s *Server) index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":  "kvview",
		"limit": s.svc.Limit(),
		"routes": []string{
			"GET /list?prefix=&cursor=",
			"POST /list/items",
			"GET /get?q=",
			"POST /get/item",
			"DELETE /item?key=",
		},
	})
}

func (s *Server) list(c *gin.Context) {
	res, err := s.svc.List(c.Request.Context(), c.Query("prefix"), c.Query("cursor"))
	if err != nil {
		s.fail(c, "list", err)
		return
	}
	c.Header("HX-Replace-Url", listURL(res.Prefix, res.Cursor, res.NextCursor))
	s.renderList(c, res)
}

// listItems always starts from the first page.
func (s *Server) listItems(c *gin.Context) {
	res, err := s.svc.List(c.Request.Context(), c.PostForm("prefix"), "")
	if err != nil {
		s.fail(c, "list", err)
		return
	}
	c.Header("HX-Push-Url", listURL(res.Prefix, res.Cursor, res.NextCursor))
	s.renderList(c, res)
}

func (s *Server) renderList(c *gin.Context, res *browse.ListResult) {
	s.metrics.Pages.Inc()
	resp := listResponse{ListResult: res, Limit: s.svc.Limit()}
	if res.NextCursor != "" {
		resp.NextCursorURL = listURL(res.Prefix, res.NextCursor, "")
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) get(c *gin.Context) {
	res, err := s.svc.Get(c.Request.Context(), c.Query("q"))
	if err != nil {
		s.fail(c, "get", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) getItem(c *gin.Context) {
	keyText := c.PostForm("key")
	res, err := s.svc.Get(c.Request.Context(), keyText)
	if err != nil {
		s.fail(c, "get", err)
		return
	}
	query := res.Query
	if !res.Valid {
		query = keyText
	}
	c.Header("HX-Push-Url", getURL(query))
	c.JSON(http.StatusOK, res)
}

func (s *Server) deleteItem(c *gin.Context) {
	key, err := s.svc.Delete(c.Request.Context(), c.Query("key"))
	if errors.Is(err, keys.ErrDecode) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		s.fail(c, "delete", err)
		return
	}
	c.JSON(http.StatusOK, browse.GetResult{Query: key, Valid: true})
}

func (s *Server) fail(c *gin.Context, op string, err error) {
	log := s.requestLog(c).WithError(err).WithField("op", op)
	switch {
	case errors.Is(err, context.Canceled):
		log.Debug("request cancelled")
		c.Status(499)
	case errors.Is(err, scan.ErrStoreUnavailable):
		s.metrics.StoreErrors.WithLabelValues(op).Inc()
		log.Error("store unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
	default:
		log.Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
