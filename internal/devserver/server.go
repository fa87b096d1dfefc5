// Package devserver serves the API router over plain HTTP for local runs,
// translating requests into the API Gateway payloads the Lambda receives.
package devserver

import (
	"context"
	"encoding/base64"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kylejryan/nail-studio-portal/internal/httpx"
	"github.com/kylejryan/nail-studio-portal/internal/router"
)

// Server is the local HTTP server.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	log        *zap.Logger
}

// New mounts every route of rt on addr.
func New(addr string, rt *router.Router, log *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	for _, r := range rt.Routes() {
		engine.Handle(r.Method(), ginPath(r.Path()), adapt(rt, r.Key))
	}

	return &Server{
		httpServer: &http.Server{
			Addr:           addr,
			Handler:        engine,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			MaxHeaderBytes: 1 << 20, // 1 MB
		},
		engine: engine,
		log:    log.Named("devserver"),
	}
}

// Handler exposes the engine, for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run listens until Shutdown.
func (s *Server) Run() error {
	s.log.Info("Server is running", zap.String("address", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down server")
	return s.httpServer.Shutdown(ctx)
}

// ginPath turns "/looks/{id}/move" into "/looks/:id/move".
func ginPath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
			segs[i] = ":" + s[1:len(s)-1]
		}
	}
	return strings.Join(segs, "/")
}

func adapt(rt *router.Router, key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := toRequest(c, key)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read request body"})
			return
		}
		resp, err := rt.Handle(c.Request.Context(), req)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		write(c, resp)
	}
}

func toRequest(c *gin.Context, key string) (httpx.Request, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return httpx.Request{}, err
	}

	req := httpx.Request{
		RouteKey:              key,
		RawPath:               c.Request.URL.Path,
		RawQueryString:        c.Request.URL.RawQuery,
		Headers:               map[string]string{},
		QueryStringParameters: map[string]string{},
		PathParameters:        map[string]string{},
	}
	for k, v := range c.Request.Header {
		req.Headers[strings.ToLower(k)] = strings.Join(v, ",")
	}
	for k, v := range c.Request.URL.Query() {
		req.QueryStringParameters[k] = strings.Join(v, ",")
	}
	for _, p := range c.Params {
		req.PathParameters[p.Key] = p.Value
	}
	req.RequestContext.HTTP.Method = c.Request.Method
	req.RequestContext.HTTP.Path = c.Request.URL.Path
	req.RequestContext.HTTP.SourceIP = c.ClientIP()
	req.RequestContext.HTTP.UserAgent = c.Request.UserAgent()

	if textual(c.ContentType()) {
		req.Body = string(body)
	} else if len(body) > 0 {
		req.Body = base64.StdEncoding.EncodeToString(body)
		req.IsBase64Encoded = true
	}
	return req, nil
}

// textual reports whether API Gateway would pass the body through as text.
func textual(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return contentType == ""
	}
	return strings.HasPrefix(mt, "text/") || mt == "application/json"
}

func write(c *gin.Context, resp httpx.Response) {
	for k, v := range resp.Headers {
		c.Header(k, v)
	}
	body := []byte(resp.Body)
	if resp.IsBase64Encoded {
		if b, err := base64.StdEncoding.DecodeString(resp.Body); err == nil {
			body = b
		}
	}
	c.Status(resp.StatusCode)
	_, _ = c.Writer.Write(body)
}
