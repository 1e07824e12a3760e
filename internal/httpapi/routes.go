// SPDX-License-Identifier: MPL-2.0

package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/omniauto/omniauto/internal/action"
	"github.com/omniauto/omniauto/internal/service"
)

var statusByKind = map[action.ErrorKind]int{
	action.KindValidation:          http.StatusBadRequest,
	action.KindUnknownAction:       http.StatusNotFound,
	action.KindPermissionDenied:    http.StatusForbidden,
	action.KindPartialBatchFailure: http.StatusMultiStatus,
	action.KindUnsupportedPlatform: http.StatusNotImplemented,
	action.KindOperationFailure:    http.StatusInternalServerError,
}

// StatusFor maps a Result to its HTTP status.
func StatusFor(res *action.Result) int {
	if res.Success {
		return http.StatusOK
	}
	if code, ok := statusByKind[res.Kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	r.GET("/healthz", s.health)

	v1 := r.Group("/v1", s.bearerAuth())
	v1.GET("/platform", s.platform)
	v1.GET("/capabilities", s.catalog)
	v1.GET("/capabilities/:capability", s.describe)
	v1.POST("/actions/:capability/:action", s.executePath)
	v1.POST("/execute", s.executeBody)

	r.NoRoute(func(c *gin.Context) {
		s.respondError(c, &action.ValidationError{Reason: "no route for " + c.Request.Method + " " + c.Request.URL.Path}, http.StatusNotFound)
	})
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "platform": s.svc.Platform()})
}

func (s *Server) platform(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"platform":     s.svc.Platform(),
		"capabilities": action.AllCapabilities(),
	})
}

func (s *Server) catalog(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.Catalog())
}

func (s *Server) describe(c *gin.Context) {
	info, err := s.svc.Describe(action.Capability(c.Param("capability")))
	if err != nil {
		s.respondError(c, err, http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) executePath(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		s.respondError(c, err, 0)
		return
	}
	params, err := action.DecodeParamsJSON(body)
	if err != nil {
		s.respondError(c, err, 0)
		return
	}
	s.execute(c, service.Request{
		Capability: action.Capability(c.Param("capability")),
		Action:     c.Param("action"),
		Params:     params,
	})
}

func (s *Server) executeBody(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		s.respondError(c, err, 0)
		return
	}
	var req service.Request
	if err := binding.JSON.BindBody(body, &req); err != nil {
		s.respondError(c, &action.ValidationError{Param: "request", Reason: "malformed JSON: " + err.Error()}, 0)
		return
	}
	s.execute(c, req)
}

func (s *Server) execute(c *gin.Context, req service.Request) {
	res := s.svc.Execute(c.Request.Context(), req)
	c.JSON(StatusFor(res), res)
}

// respondError writes err as a failed Result. A zero status derives it from
// the error kind.
func (s *Server) respondError(c *gin.Context, err error, status int) {
	res := action.NewErrorResult(err)
	if status == 0 {
		status = StatusFor(res)
	}
	c.AbortWithStatusJSON(status, res)
}

func readBody(c *gin.Context) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &action.ValidationError{Param: "body", Reason: "request body exceeds 1 MiB"}
		}
		return nil, &action.OperationError{Action: "read request", Err: err}
	}
	return body, nil
}
