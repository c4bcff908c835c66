package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) requestBooking(c *gin.Context) {
	var req struct {
		Shift       string `json:"shift" binding:"required"`
		SeatNumber  string `json:"seat_number" binding:"required"`
		BookingDate string `json:"booking_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := dateOrToday(req.BookingDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "booking_date must be YYYY-MM-DD"})
		return
	}

	b, err := s.bookings.Request(c.Request.Context(), callerID(c), req.Shift, req.SeatNumber, date)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": b})
}

func (s *Server) listBookings(c *gin.Context) {
	date, err := dateOrToday(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	items, err := s.bookings.ListForUser(c.Request.Context(), callerID(c), date)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": items})
}

func (s *Server) availability(c *gin.Context) {
	shiftName := c.Query("shift")
	if shiftName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "shift query parameter is required"})
		return
	}
	date, err := dateOrToday(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	free, err := s.bookings.Availability(c.Request.Context(), shiftName, date)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shift": shiftName, "date": date.Format("2006-01-02"), "available": free})
}

func (s *Server) approveBooking(c *gin.Context) {
	if err := s.bookings.Approve(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "booked"})
}

func (s *Server) rejectBooking(c *gin.Context) {
	if err := s.bookings.Reject(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}
