package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) submitCash(c *gin.Context) {
	var req struct {
		BookingID   string  `json:"booking_id"`
		AdmissionID string  `json:"admission_id"`
		Amount      float64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := s.payments.SubmitCash(c.Request.Context(), callerID(c), req.BookingID, req.AdmissionID, req.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment": p})
}

func (s *Server) pendingPayments(c *gin.Context) {
	items, err := s.payments.PendingList(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": items})
}

func (s *Server) approvePayment(c *gin.Context) {
	if err := s.payments.Approve(c.Request.Context(), c.Param("id"), callerID(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "approved"})
}

func (s *Server) rejectPayment(c *gin.Context) {
	if err := s.payments.Reject(c.Request.Context(), c.Param("id"), callerID(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}
