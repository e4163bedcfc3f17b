package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"crontab/internal/crontab"
)

type runView struct {
	At         time.Time `json:"at"`
	Status     string    `json:"status"`
	ExitStatus int       `json:"exit_status"`
	Duration   string    `json:"duration"`
	Error      string    `json:"error,omitempty"`
	Output     []string  `json:"output,omitempty"`
}

type jobView struct {
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Command    string    `json:"command"`
	Expression string    `json:"expression"`
	NextRun    time.Time `json:"next_run"`
	LastRun    *runView  `json:"last_run,omitempty"`
}

// Router builds the gin engine serving /healthz, /jobs and /jobs/:name.
func Router(s *Status) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		s.mu.RLock()
		body := gin.H{"jobs": s.registry.Len(), "ticks": s.ticks}
		if !s.lastTick.IsZero() {
			body["last_tick"] = s.lastTick
		}
		s.mu.RUnlock()

		if !s.Healthy() {
			body["status"] = "stale"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		body["status"] = "ok"
		c.JSON(http.StatusOK, body)
	})

	r.GET("/jobs", func(c *gin.Context) {
		now := s.now()
		jobs := s.registry.Jobs()
		out := make([]jobView, 0, len(jobs))
		for _, j := range jobs {
			out = append(out, s.view(j, now))
		}
		c.JSON(http.StatusOK, out)
	})

	r.GET("/jobs/:name", func(c *gin.Context) {
		j, ok := s.registry.Get(c.Param("name"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusOK, s.view(j, s.now()))
	})

	return r
}

func (s *Status) view(j *crontab.Job, now time.Time) jobView {
	v := jobView{
		Name:       j.Name(),
		Type:       j.Kind().String(),
		Command:    j.Command(),
		Expression: j.Schedule().String(),
		NextRun:    j.Schedule().Next(now),
	}
	if o, ok := s.Last(j.Name()); ok {
		rv := &runView{
			At:         o.At,
			Status:     o.Status.String(),
			ExitStatus: o.ExitStatus,
			Duration:   o.Duration.String(),
			Output:     o.Output,
		}
		if o.Err != nil {
			rv.Error = o.Err.Error()
		}
		v.LastRun = rv
	}
	return v
}

// Serve runs the status server on addr until ctx is done, then shuts it down.
func Serve(ctx context.Context, addr string, s *Status, log *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Router(s),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("status server listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
