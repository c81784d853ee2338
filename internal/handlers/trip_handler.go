package handlers

import (
	"net/http"
	"strings"

	"github.com/biyahe/booking-backend/internal/database"
	"github.com/biyahe/booking-backend/internal/models"
	"github.com/biyahe/booking-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TripHandler handles destination search and trip lookup endpoints
type TripHandler struct {
	trips        *database.TripRepository
	availability *services.AvailabilityService
	logger       *logrus.Logger
}

// NewTripHandler creates a new trip handler
func NewTripHandler(trips *database.TripRepository, availability *services.AvailabilityService, logger *logrus.Logger) *TripHandler {
	return &TripHandler{
		trips:        trips,
		availability: availability,
		logger:       logger,
	}
}

// SearchDestinations handles GET /api/v1/destinations?q=
func (h *TripHandler) SearchDestinations(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))

	destinations, err := h.trips.SearchDestinations(q)
	if err != nil {
		h.logger.WithError(err).Error("Destination search failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search destinations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"destinations": destinations})
}

// ListTrips handles GET /api/v1/destinations/:id/trips
func (h *TripHandler) ListTrips(c *gin.Context) {
	destinationID := c.Param("id")

	destination, err := h.trips.GetDestinationByID(destinationID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "destination not found"})
		return
	}

	trips, err := h.trips.ListTripsByDestination(destinationID)
	if err != nil {
		h.logger.WithError(err).WithField("destination_id", destinationID).
			Error("Trip listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list trips"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"destination": destination,
		"trips":       trips,
	})
}

// GetTrip handles GET /api/v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, err := h.trips.GetTripByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "trip not found"})
		return
	}

	c.JSON(http.StatusOK, trip)
}

// GetTripSeats handles GET /api/v1/trips/:id/seats. It returns the
// resolved seat grid together with the vehicle's row layout so clients
// can render the picker without hardcoding topologies.
func (h *TripHandler) GetTripSeats(c *gin.Context) {
	trip, err := h.trips.GetTripByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "trip not found"})
		return
	}

	grid, err := h.availability.Resolve(trip)
	if err != nil {
		h.logger.WithError(err).WithField("trip_id", trip.ID).
			Error("Seat availability resolution failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve seat availability"})
		return
	}

	vehicle := models.NormalizeVehicleType(string(trip.VehicleType))
	c.JSON(http.StatusOK, gin.H{
		"trip_id":      trip.ID,
		"vehicle_type": vehicle,
		"driver_seat":  models.DriverSeat(),
		"layout":       vehicle.LayoutRows(),
		"seats":        grid,
	})
}
