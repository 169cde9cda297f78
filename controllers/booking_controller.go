package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/LakshanUd/sl-go-tour-backend/common/errors"
	"github.com/LakshanUd/sl-go-tour-backend/middleware"
	"github.com/LakshanUd/sl-go-tour-backend/models"
	"github.com/LakshanUd/sl-go-tour-backend/services"
)

// BookingController handles the direct booking endpoints.
type BookingController struct {
	bookings services.BookingService
	logger   *zap.Logger
}

func NewBookingController(bookings services.BookingService, logger *zap.Logger) *BookingController {
	return &BookingController{bookings: bookings, logger: logger}
}

// CreateBooking handles POST /bookings
func (bc *BookingController) CreateBooking(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		respondError(c, bc.logger, err)
		return
	}
	draft, err := models.DecodeBookingDraft(body)
	if err != nil {
		respondError(c, bc.logger, err)
		return
	}

	booking, err := bc.bookings.Create(c.Request.Context(), middleware.CallerFrom(c), draft)
	if err != nil {
		respondError(c, bc.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Booking created successfully", "booking": booking})
}

// ListBookings handles GET /bookings?status=&limit=
func (bc *BookingController) ListBookings(c *gin.Context) {
	opts := services.ListOptions{Status: models.BookingStatus(c.Query("status"))}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || limit < 1 {
			respondError(c, bc.logger, apperrors.Validation("Invalid limit"))
			return
		}
		opts.Limit = limit
	}

	bookings, err := bc.bookings.List(c.Request.Context(), middleware.CallerFrom(c), opts)
	if err != nil {
		respondError(c, bc.logger, err)
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	c.JSON(http.StatusOK, bookings)
}

// GetBooking handles GET /bookings/:id
func (bc *BookingController) GetBooking(c *gin.Context) {
	booking, err := bc.bookings.Get(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, bc.logger, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// UpdateBooking handles PUT /bookings/:id
func (bc *BookingController) UpdateBooking(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		respondError(c, bc.logger, err)
		return
	}
	patch, err := models.DecodeBookingPatch(body)
	if err != nil {
		respondError(c, bc.logger, err)
		return
	}

	booking, err := bc.bookings.Update(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), patch)
	if err != nil {
		respondError(c, bc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking updated", "booking": booking})
}

// CancelBooking handles POST /bookings/:id/cancel
func (bc *BookingController) CancelBooking(c *gin.Context) {
	booking, err := bc.bookings.Cancel(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, bc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled", "booking": booking})
}

// DeleteBooking handles DELETE /bookings/:id
func (bc *BookingController) DeleteBooking(c *gin.Context) {
	if err := bc.bookings.Delete(c.Request.Context(), middleware.CallerFrom(c), c.Param("id")); err != nil {
		respondError(c, bc.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking deleted"})
}

// Receipt handles GET /bookings/:id/receipt
func (bc *BookingController) Receipt(c *gin.Context) {
	booking, pdf, err := bc.bookings.Receipt(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, bc.logger, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="receipt_%s.pdf"`, booking.BookingID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
