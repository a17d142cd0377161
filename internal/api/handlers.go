package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/drforse/match/internal/breaker"
	"github.com/drforse/match/internal/errors"
	"github.com/drforse/match/internal/service"
)

const (
	defaultListOffset = 0
	defaultListLimit  = 20
)

func (s *Server) handleAdd(c *gin.Context) {
	const method = "add"

	src, err := s.imageSource(c, "url", "image")
	if err != nil {
		s.fail(c, method, err)
		return
	}
	src = src.WithPath(c.PostForm("filepath"))

	metadata, err := parseMetadata(c.PostForm("metadata"))
	if err != nil {
		s.fail(c, method, err)
		return
	}

	if err := s.registry.Add(c.Request.Context(), src, metadata); err != nil {
		s.fail(c, method, err)
		return
	}
	c.JSON(http.StatusOK, service.OK(method))
}

func (s *Server) handleDelete(c *gin.Context) {
	const method = "delete"

	if err := s.registry.Delete(c.Request.Context(), c.PostForm("filepath")); err != nil {
		s.fail(c, method, err)
		return
	}
	c.JSON(http.StatusOK, service.OK(method))
}

func (s *Server) handleSearch(c *gin.Context) {
	const method = "search"

	src, err := s.imageSource(c, "url", "image")
	if err != nil {
		s.fail(c, method, err)
		return
	}

	opts, err := searchOptions(c)
	if err != nil {
		s.fail(c, method, err)
		return
	}

	var hits []service.Hit
	var searchErr error
	err = s.searchBreaker.Execute(func() error {
		hits, searchErr = s.searcher.Search(c.Request.Context(), src, opts)
		if errors.IsClientError(searchErr) {
			// Bad probes are the caller's fault; they must not trip the breaker.
			return nil
		}
		return searchErr
	})
	if err == breaker.ErrOpenState {
		c.JSON(http.StatusServiceUnavailable, service.Fail(method, "search temporarily unavailable"))
		return
	}
	if searchErr != nil {
		s.fail(c, method, searchErr)
		return
	}

	results := make([]any, len(hits))
	for i, h := range hits {
		results[i] = h
	}
	c.JSON(http.StatusOK, service.OK(method, results...))
}

func (s *Server) handleCompare(c *gin.Context) {
	const method = "compare"

	a, err := s.imageSource(c, "url1", "image1")
	if err != nil {
		s.fail(c, method, err)
		return
	}
	b, err := s.imageSource(c, "url2", "image2")
	if err != nil {
		s.fail(c, method, err)
		return
	}

	score, err := s.comparer.Compare(c.Request.Context(), a, b)
	if err != nil {
		s.fail(c, method, err)
		return
	}
	c.JSON(http.StatusOK, service.OK(method, gin.H{"score": score}))
}

func (s *Server) handleList(c *gin.Context) {
	const method = "list"

	offset, err := intParam(c, "offset", defaultListOffset)
	if err != nil {
		s.fail(c, method, err)
		return
	}
	limit, err := intParam(c, "limit", defaultListLimit)
	if err != nil {
		s.fail(c, method, err)
		return
	}

	paths, err := s.enumerator.ListPaths(c.Request.Context(), offset, limit)
	if err != nil {
		s.fail(c, method, err)
		return
	}

	results := make([]any, len(paths))
	for i, p := range paths {
		results[i] = p
	}
	c.JSON(http.StatusOK, service.OK(method, results...))
}

func (s *Server) handleCount(c *gin.Context) {
	const method = "count"

	count, err := s.enumerator.Count(c.Request.Context())
	if err != nil {
		s.fail(c, method, err)
		return
	}
	c.JSON(http.StatusOK, service.OK(method, count))
}

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, service.OK("ping"))
}

// imageSource reads the image of a request from either the URL form field or
// the uploaded file field.
func (s *Server) imageSource(c *gin.Context, urlField, fileField string) (service.ImageSource, error) {
	if url := c.PostForm(urlField); url != "" {
		return service.ByReference(url), nil
	}

	fh, err := c.FormFile(fileField)
	if err != nil {
		return service.ImageSource{}, errors.NewInvalidInput("request",
			fmt.Sprintf("either %q or %q must be provided", urlField, fileField))
	}
	if s.cfg.MaxUploadBytes > 0 && fh.Size > s.cfg.MaxUploadBytes {
		return service.ImageSource{}, errors.NewInvalidInput("request",
			fmt.Sprintf("uploaded image exceeds %d bytes", s.cfg.MaxUploadBytes))
	}

	f, err := fh.Open()
	if err != nil {
		return service.ImageSource{}, errors.Wrap(err, errors.TypeInvalidInput, "request", "unreadable upload")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return service.ImageSource{}, errors.Wrap(err, errors.TypeInvalidInput, "request", "unreadable upload")
	}
	return service.ByValue(data, ""), nil
}

// fail renders err into the envelope of the operation.
func (s *Server) fail(c *gin.Context, method string, err error) {
	if errors.IsClientError(err) {
		c.JSON(http.StatusBadRequest, service.Fail(method, errors.UserMessage(err)))
		return
	}
	s.logger.Error("operation failed", zap.String("operation", method), zap.Error(err))
	c.JSON(http.StatusInternalServerError, service.Fail(method, err.Error()))
}

func parseMetadata(raw string) (json.RawMessage, error) {
	if raw == "" {
		return nil, nil
	}
	if !json.Valid([]byte(raw)) {
		return nil, errors.NewInvalidInput("add", "metadata must be valid JSON")
	}
	return json.RawMessage(raw), nil
}

func searchOptions(c *gin.Context) (service.SearchOptions, error) {
	var opts service.SearchOptions
	if raw := c.PostForm("all_orientations"); raw != "" {
		v := raw == "true"
		opts.AllOrientations = &v
	}
	if raw := c.PostForm("min_score"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return opts, errors.NewInvalidInput("search", "min_score must be a number")
		}
		opts.MinScore = &v
	}
	return opts, nil
}

// intParam reads a non-negative integer from the query string on GET and
// from the form on other methods.
func intParam(c *gin.Context, name string, fallback int) (int, error) {
	var raw string
	if c.Request.Method == http.MethodGet {
		raw = c.Query(name)
	} else {
		raw = c.PostForm(name)
	}
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewInvalidInput("list", fmt.Sprintf("%s must be an integer", name))
	}
	if v < 0 {
		v = 0
	}
	return v, nil
}
