package handler

import (
	"net/http"

	"github.com/eaglebank/transaction-api/shared/logger"
	"github.com/eaglebank/transaction-api/shared/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var emptyDocument = []byte("{}")

// ReservationHandler serves the reservation endpoints. Every call answers
// with an empty JSON document; request bodies are decoded for logging only.
type ReservationHandler struct {
	logger *zap.Logger
}

func NewReservationHandler(logger *zap.Logger) *ReservationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationHandler{logger: logger}
}

func (h *ReservationHandler) GetReservation(c *gin.Context) {
	logger.WithRequestID(c.Request.Context(), h.logger).Debug("get reservation",
		zap.String("room_id", c.Param("roomId")),
	)
	h.empty(c)
}

func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	h.logBody(c, "create reservation")
	h.empty(c)
}

func (h *ReservationHandler) UpdatePrice(c *gin.Context) {
	h.logBody(c, "update reservation price")
	h.empty(c)
}

func (h *ReservationHandler) logBody(c *gin.Context, msg string) {
	var reservation models.Reservation
	if err := c.ShouldBindJSON(&reservation); err != nil {
		return
	}
	logger.WithRequestID(c.Request.Context(), h.logger).Debug(msg,
		zap.String("room_id", c.Param("roomId")),
		zap.Any("reservation", reservation),
	)
}

func (h *ReservationHandler) empty(c *gin.Context) {
	c.Data(http.StatusOK, "application/json", emptyDocument)
}
