package httpapi

import (
	"net/http"
	"time"

	"studyhall/internal/attendance"
	"studyhall/internal/shift"

	"github.com/gin-gonic/gin"
)

func (s *Server) checkIn(c *gin.Context) {
	var req struct {
		Shift string `json:"shift" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := s.attendance.CheckIn(c.Request.Context(), callerID(c), req.Shift, time.Now())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"attendance": rec})
}

func (s *Server) checkOut(c *gin.Context) {
	var req struct {
		AttendanceID string `json:"attendance_id" binding:"required"`
		Shift        string `json:"shift" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := s.attendance.CheckOut(c.Request.Context(), req.AttendanceID, req.Shift, time.Now())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendance": rec})
}

// todayAttendance returns the raw rows plus the derived per-shift
// classification for the caller's day.
func (s *Server) todayAttendance(c *gin.Context) {
	now := time.Now()
	rows, err := s.attendance.ListForDay(c.Request.Context(), callerID(c), now)
	if err != nil {
		fail(c, err)
		return
	}

	statuses := map[shift.Shift]attendance.DayStatus{}
	for _, sh := range shift.All() {
		statuses[sh] = attendance.Classify(rows, sh, now)
	}
	c.JSON(http.StatusOK, gin.H{"records": rows, "shift_status": statuses})
}
