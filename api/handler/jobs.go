package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/jobscout/models"
	"github.com/use-agent/jobscout/store"
)

// ListJobs returns a handler for GET /api/v1/jobs.
func ListJobs(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ids, err := st.List(c.Request.Context())
		if err != nil {
			respondError(c, http.StatusInternalServerError, models.ErrCodeInternal, err.Error())
			return
		}
		c.JSON(http.StatusOK, models.JobListResponse{Success: true, IDs: ids, Total: len(ids)})
	}
}

// GetJob returns a handler for GET /api/v1/jobs/:id.
func GetJob(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, err := st.Read(c.Request.Context(), c.Param("id"))
		switch {
		case errors.Is(err, store.ErrNotFound):
			respondError(c, http.StatusNotFound, models.ErrCodeNotFound, "job not found")
			return
		case err != nil:
			respondError(c, http.StatusInternalServerError, models.ErrCodeInternal, err.Error())
			return
		}
		c.JSON(http.StatusOK, models.JobResponse{Success: true, Job: job})
	}
}
