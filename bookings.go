package main

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"tradesnap/models"
	"tradesnap/pkg/buyers"
	"tradesnap/pkg/plate"

	"github.com/gin-gonic/gin"
)

// Bookable slots. Recall repairs take a full workshop bay so the early slot
// differs from the walk-in inspection one.
var (
	recallSlots     = []string{"09:00 AM", "11:00 AM", "02:00 PM", "04:00 PM"}
	inspectionSlots = []string{"Next Available (30 mins)", "11:00 AM", "02:00 PM", "04:00 PM"}
)

// Scheduling windows in days from today.
const (
	recallMinAdvanceDays     = 1
	recallMaxAdvanceDays     = 60
	inspectionMaxAdvanceDays = 7
)

var (
	phoneDigitRE = regexp.MustCompile(`\d`)
	emailRE      = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

type bookingRequest struct {
	Kind          string `json:"kind" binding:"required"`
	Registration  string `json:"registration" binding:"required"`
	RecallID      string `json:"recall_id"`
	Garage        string `json:"garage" binding:"required"`
	Date          string `json:"date" binding:"required"` // YYYY-MM-DD
	TimeSlot      string `json:"time_slot" binding:"required"`
	CustomerName  string `json:"customer_name" binding:"required"`
	CustomerPhone string `json:"customer_phone" binding:"required"`
	CustomerEmail string `json:"customer_email"`
	OfferValue    int    `json:"offer_value"`
}

// validateBooking turns a request into a Booking or the first validation error.
// now anchors the date-window checks so tests can pin it.
func validateBooking(req bookingRequest, now time.Time) (*models.Booking, error) {
	if req.Kind != models.BookingRecall && req.Kind != models.BookingInspection {
		return nil, fmt.Errorf("kind must be %q or %q", models.BookingRecall, models.BookingInspection)
	}
	reg, err := plate.Normalize(req.Registration)
	if err != nil {
		return nil, err
	}
	if _, ok := buyers.LocationByName(req.Garage); !ok {
		return nil, errors.New("unknown garage")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, errors.New("date must be YYYY-MM-DD")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	days := int(date.Sub(today).Hours() / 24)
	slots := inspectionSlots
	if req.Kind == models.BookingRecall {
		slots = recallSlots
		if req.RecallID == "" {
			return nil, errors.New("recall_id required for recall bookings")
		}
		if days < recallMinAdvanceDays || days > recallMaxAdvanceDays {
			return nil, fmt.Errorf("recall bookings must be %d to %d days ahead", recallMinAdvanceDays, recallMaxAdvanceDays)
		}
	} else {
		if days < 0 || days > inspectionMaxAdvanceDays {
			return nil, fmt.Errorf("inspections must be today to %d days ahead", inspectionMaxAdvanceDays)
		}
	}
	if !slotAllowed(slots, req.TimeSlot) {
		return nil, fmt.Errorf("time_slot must be one of %s", strings.Join(slots, ", "))
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, errors.New("customer_name required")
	}
	if len(phoneDigitRE.FindAllString(req.CustomerPhone, -1)) < 10 {
		return nil, errors.New("customer_phone must contain at least 10 digits")
	}
	if req.CustomerEmail != "" && !emailRE.MatchString(req.CustomerEmail) {
		return nil, errors.New("customer_email is not a valid address")
	}
	return &models.Booking{
		Reference:     bookingReference(req.Kind, req.RecallID, now),
		Kind:          req.Kind,
		Registration:  reg,
		RecallID:      req.RecallID,
		Garage:        req.Garage,
		Date:          date,
		TimeSlot:      req.TimeSlot,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		OfferValue:    req.OfferValue,
	}, nil
}

func slotAllowed(slots []string, slot string) bool {
	for _, s := range slots {
		if s == slot {
			return true
		}
	}
	return false
}

// bookingReference builds RCL-<recallID>-<yyyymmddhhmm> or INS-<yyyymmddhhmm>.
func bookingReference(kind, recallID string, now time.Time) string {
	ts := now.Format("200601021504")
	if kind == models.BookingRecall {
		return fmt.Sprintf("RCL-%s-%s", recallID, ts)
	}
	return fmt.Sprintf("INS-%s", ts)
}

func createBookingHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	booking, err := validateBooking(req, time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	booking.UserID = user.ID
	if err := db.Create(booking).Error; err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "reference collision, retry"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusOK, booking)
}

// listBookingsHandler returns bookings; admin sees all, user only their own.
func listBookingsHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var items []models.Booking
	q := db.Model(&models.Booking{})
	if role != "administrator" {
		q = q.Where("user_id = ?", user.ID)
	}
	if kind := c.Query("kind"); kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if err := q.Order("id desc").Limit(200).Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func getBookingHandler(c *gin.Context) {
	role, _ := c.Get("role")
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	ref := c.Param("reference")
	var b models.Booking
	if err := db.Where("reference = ?", ref).First(&b).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if role != "administrator" && b.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.JSON(http.StatusOK, b)
}
