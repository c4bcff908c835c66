package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) createAdmission(c *gin.Context) {
	var req struct {
		Shifts         []string `json:"shifts" binding:"required"`
		DurationMonths int      `json:"duration_months" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a, err := s.admissions.Create(c.Request.Context(), callerID(c), req.Shifts, req.DurationMonths)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"admission": a})
}

func (s *Server) currentAdmission(c *gin.Context) {
	a, err := s.admissions.Current(c.Request.Context(), callerID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"admission": a})
}

func (s *Server) confirmUPI(c *gin.Context) {
	a, err := s.admissions.ConfirmUPI(c.Request.Context(), c.Param("id"), callerID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"admission": a})
}
