package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// checkAbsentStudents runs the absence sweep for a date (default today).
// Mounted for both POST (body {date?}) and GET (?date=); GET re-dispatches
// to the same handler with the query value.
func (s *Server) checkAbsentStudents(c *gin.Context) {
	var raw string
	if c.Request.Method == http.MethodGet {
		raw = c.Query("date")
	} else {
		var req struct {
			Date string `json:"date"`
		}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
				return
			}
		}
		raw = req.Date
	}

	date, err := dateOrToday(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "date must be YYYY-MM-DD"})
		return
	}

	res, err := s.detector.Sweep(c.Request.Context(), date, time.Now())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"date":           res.Date,
		"absentCount":    res.AbsentCount,
		"absentStudents": res.AbsentStudents,
	})
}
