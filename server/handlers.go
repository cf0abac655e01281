package server

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hupe1980/kmeanslab"
	"github.com/hupe1980/kmeanslab/blobstore"
)

type initializeRequest struct {
	NumClusters int    `json:"num_clusters"`
	InitMethod  string `json:"init_method"`
}

type placeRequest struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

type toleranceRequest struct {
	Abs float64 `json:"abs"`
	Rel float64 `json:"rel"`
}

type convergeRequest struct {
	Tolerance     *toleranceRequest `json:"tolerance"`
	MaxIterations *int              `json:"max_iterations"`
}

type exportRequest struct {
	Compression *string `json:"compression"`
}

func (s *Server) initialize(c *gin.Context) {
	var req initializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := s.cfg.Session.Initialize(c.Request.Context(), req.NumClusters, kmeanslab.ParseMode(req.InitMethod))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) reset(c *gin.Context) {
	s.cfg.Session.Reset(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

func (s *Server) placeCentroid(c *gin.Context) {
	var req placeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.X == nil || req.Y == nil {
		badRequest(c, errors.New("x and y are required"))
		return
	}

	res, err := s.cfg.Session.PlaceCentroid(c.Request.Context(), kmeanslab.Point{*req.X, *req.Y})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) step(c *gin.Context) {
	res, err := s.cfg.Session.Step(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) converge(c *gin.Context) {
	var req convergeRequest
	if err := bindOptional(c, &req); err != nil {
		badRequest(c, err)
		return
	}

	var opts []kmeanslab.ConvergeOption
	if req.Tolerance != nil {
		if req.Tolerance.Abs < 0 || req.Tolerance.Rel < 0 {
			badRequest(c, errors.New("tolerance must not be negative"))
			return
		}
		opts = append(opts, kmeanslab.WithConvergeTolerance(kmeanslab.Tolerance{Abs: req.Tolerance.Abs, Rel: req.Tolerance.Rel}))
	}
	if req.MaxIterations != nil {
		if *req.MaxIterations <= 0 {
			badRequest(c, errors.New("max_iterations must be positive"))
			return
		}
		opts = append(opts, kmeanslab.WithConvergeMaxIterations(*req.MaxIterations))
	}

	ctx := c.Request.Context()
	if s.cfg.ConvergeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ConvergeTimeout)
		defer cancel()
	}

	if err := s.cfg.Limits.AcquireConverge(ctx); err != nil {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "converge busy: " + err.Error()})
		return
	}
	defer s.cfg.Limits.ReleaseConverge()

	res, err := s.cfg.Session.Converge(ctx, opts...)
	if err != nil {
		if errors.Is(err, kmeanslab.ErrConvergenceTimeout) && res != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":      err.Error(),
				"centroids":  res.Centroids,
				"iterations": res.Iterations,
			})
			return
		}
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) export(c *gin.Context) {
	var req exportRequest
	if err := bindOptional(c, &req); err != nil {
		badRequest(c, err)
		return
	}

	compression := s.cfg.Compression
	if req.Compression != nil {
		var err error
		if compression, err = kmeanslab.ParseCompression(*req.Compression); err != nil {
			fail(c, err)
			return
		}
	}

	info, err := s.cfg.Session.Export(c.Request.Context(), s.cfg.Store, compression)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) listExports(c *gin.Context) {
	ids, err := kmeanslab.ListExports(c.Request.Context(), s.cfg.Store)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exports": ids})
}

func (s *Server) getExport(c *gin.Context) {
	run, err := kmeanslab.ReadExport(c.Request.Context(), s.cfg.Store, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) deleteExport(c *gin.Context) {
	if err := kmeanslab.DeleteExport(c.Request.Context(), s.cfg.Store, c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) state(c *gin.Context) {
	c.JSON(http.StatusOK, s.cfg.Session.State())
}

func (s *Server) metrics(c *gin.Context) {
	body := gin.H{
		"rejected_requests":  s.cfg.Limits.Rejected(),
		"converge_in_flight": s.cfg.Limits.ConvergeInFlight(),
	}
	if s.cfg.Metrics != nil {
		body["session"] = s.cfg.Metrics.GetStats()
	}
	c.JSON(http.StatusOK, body)
}

// bindOptional decodes a JSON body if one was sent.
func bindOptional(c *gin.Context, obj any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	var complete *kmeanslab.ErrCentroidsComplete
	switch {
	case errors.Is(err, kmeanslab.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.As(err, &complete):
		return http.StatusConflict
	case errors.Is(err, kmeanslab.ErrPreconditionFailed):
		return http.StatusBadRequest
	case errors.Is(err, kmeanslab.ErrConvergenceTimeout):
		return http.StatusUnprocessableEntity
	case errors.Is(err, blobstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, kmeanslab.ErrNoStore):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
