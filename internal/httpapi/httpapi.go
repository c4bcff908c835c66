package httpapi

import (
	"log"
	"net/http"
	"time"

	"studyhall/internal/absence"
	"studyhall/internal/admission"
	"studyhall/internal/apperr"
	"studyhall/internal/attendance"
	"studyhall/internal/auth"
	"studyhall/internal/booking"
	"studyhall/internal/config"
	"studyhall/internal/notify"
	"studyhall/internal/payment"
	"studyhall/internal/user"

	"github.com/gin-gonic/gin"
)

// Server groups the domain services behind the gin handlers.
type Server struct {
	cfg           config.App
	users         *user.Service
	admissions    *admission.Service
	bookings      *booking.Service
	attendance    *attendance.Service
	payments      *payment.Service
	detector      *absence.Detector
	notifications *notify.Repository
}

// NewServer wires handlers to services.
func NewServer(cfg config.App, users *user.Service, admissions *admission.Service, bookings *booking.Service, att *attendance.Service, payments *payment.Service, detector *absence.Detector, notifications *notify.Repository) *Server {
	return &Server{
		cfg:           cfg,
		users:         users,
		admissions:    admissions,
		bookings:      bookings,
		attendance:    att,
		payments:      payments,
		detector:      detector,
		notifications: notifications,
	}
}

// Register mounts all routes on the engine.
func (s *Server) Register(r *gin.Engine) {
	r.POST("/v1/auth/register", s.register)
	r.POST("/v1/auth/login", s.login)

	authed := r.Group("/v1", auth.UserAuth(s.cfg.JWTSigningKey, s.cfg.JWTIssuer))
	authed.POST("/admissions", s.createAdmission)
	authed.GET("/admissions/current", s.currentAdmission)
	authed.POST("/admissions/:id/upi-confirm", s.confirmUPI)
	authed.POST("/bookings", s.requestBooking)
	authed.GET("/bookings", s.listBookings)
	authed.GET("/bookings/availability", s.availability)
	authed.POST("/attendance/checkin", s.checkIn)
	authed.POST("/attendance/checkout", s.checkOut)
	authed.GET("/attendance/today", s.todayAttendance)
	authed.POST("/payments/cash", s.submitCash)
	authed.GET("/notifications", s.listNotifications)

	admin := authed.Group("/admin", auth.RequireAdmin())
	admin.GET("/users/pending", s.pendingUsers)
	admin.POST("/users/:id/approve", s.approveUser)
	admin.POST("/users/:id/reject", s.rejectUser)
	admin.POST("/bookings/:id/approve", s.approveBooking)
	admin.POST("/bookings/:id/reject", s.rejectBooking)
	admin.GET("/payments/pending", s.pendingPayments)
	admin.POST("/payments/:id/approve", s.approvePayment)
	admin.POST("/payments/:id/reject", s.rejectPayment)

	// Absence sweep endpoint; GET re-dispatches to the POST handler for
	// convenience callers.
	sweep := r.Group("/", auth.UserAuth(s.cfg.JWTSigningKey, s.cfg.JWTIssuer), auth.RequireAdmin())
	sweep.POST("/check-absent-students", s.checkAbsentStudents)
	sweep.GET("/check-absent-students", s.checkAbsentStudents)
}

// fail maps a workflow error to its HTTP response. Unexpected errors get a
// generic message for the user and full detail in the log.
func fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "something went wrong, please try again", "code": apperr.CodeOf(err)})
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": apperr.CodeOf(err)})
}

// callerID returns the authenticated user's id.
func callerID(c *gin.Context) string {
	claims, _ := auth.FromContext(c)
	return claims.UserID
}

// dateOrToday parses a YYYY-MM-DD value, defaulting to today.
func dateOrToday(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now(), nil
	}
	return time.Parse("2006-01-02", raw)
}
