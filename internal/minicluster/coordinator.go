package minicluster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/flowmatic/jobenv/internal/jobstore"
)

// storeOpTimeout bounds individual job store operations issued by HTTP
// handlers and dispatch workers.
const storeOpTimeout = 5 * time.Second

// SubmitRequest is the body of POST /v1/jobs.
type SubmitRequest struct {
	Name        string `json:"name"`
	Parallelism int    `json:"parallelism"`
}

// JobResponse is the wire form of a job record.
type JobResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Parallelism int    `json:"parallelism"`
	State       string `json:"state"`
}

// Overview is the body of GET /v1/overview.
type Overview struct {
	TaskManagers        int `json:"taskManagers"`
	SlotsPerTaskManager int `json:"slotsPerTaskManager"`
	TotalSlots          int `json:"totalSlots"`
	Jobs                int `json:"jobs"`
}

// router builds the coordinator's administrative surface.
func (c *Cluster) router() http.Handler {
	r := httprouter.New()
	r.GET("/readyz", c.handleReady)
	r.GET("/v1/overview", c.handleOverview)
	r.POST("/v1/jobs", c.handleSubmit)
	r.GET("/v1/jobs/:id", c.handleJobStatus)
	return r
}

func (c *Cluster) handleReady(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	if !c.ready.Load() {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (c *Cluster) handleOverview(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), storeOpTimeout)
	defer cancel()

	recs, err := c.store.List(ctx)
	if err != nil {
		c.log.Warn("overview: list jobs", "error", err)
		http.Error(w, "list jobs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, Overview{
		TaskManagers:        c.cfg.TaskManagers,
		SlotsPerTaskManager: c.cfg.SlotsPerTaskManager,
		TotalSlots:          c.cfg.TotalSlots(),
		Jobs:                len(recs),
	})
}

func (c *Cluster) handleSubmit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	select {
	case <-c.closed:
		http.Error(w, "cluster shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("decode request: %v", err), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "job name must not be empty", http.StatusBadRequest)
		return
	}
	if req.Parallelism < 1 || req.Parallelism > c.cfg.TotalSlots() {
		http.Error(w,
			fmt.Sprintf("parallelism must be between 1 and %d, got %d", c.cfg.TotalSlots(), req.Parallelism),
			http.StatusBadRequest)
		return
	}

	rec := jobstore.Record{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Parallelism: req.Parallelism,
		State:       jobstore.StatePending,
		SubmittedAt: time.Now(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeOpTimeout)
	defer cancel()
	if err := c.store.Insert(ctx, rec); err != nil {
		c.log.Warn("submit: insert job", "error", err)
		http.Error(w, "record job", http.StatusInternalServerError)
		return
	}

	select {
	case c.queue <- rec.ID:
	default:
		// Queue full: shed load rather than block the coordinator. The
		// record stays FAILED so status queries explain what happened.
		c.failJob(rec.ID)
		http.Error(w, "dispatch queue full", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, JobResponse{
		ID:          rec.ID,
		Name:        rec.Name,
		Parallelism: rec.Parallelism,
		State:       string(rec.State),
	})
}

func (c *Cluster) handleJobStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), storeOpTimeout)
	defer cancel()

	rec, err := c.store.Get(ctx, ps.ByName("id"))
	if errors.Is(err, jobstore.ErrJobNotFound) {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		c.log.Warn("status: get job", "error", err)
		http.Error(w, "get job", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, JobResponse{
		ID:          rec.ID,
		Name:        rec.Name,
		Parallelism: rec.Parallelism,
		State:       string(rec.State),
	})
}

// failJob best-effort marks a record FAILED outside a request context.
func (c *Cluster) failJob(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), storeOpTimeout)
	defer cancel()
	if err := c.store.UpdateState(ctx, id, jobstore.StateFailed); err != nil {
		c.log.Warn("mark job failed", "job", id, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encode error here is unreportable.
	_ = json.NewEncoder(w).Encode(v)
}
