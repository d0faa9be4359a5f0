package event

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"activity-alerts-svc/src/internal/config"
	"activity-alerts-svc/src/internal/metrics"
	"activity-alerts-svc/src/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const amountPlaces = 2

// Query parameters for event listing
const (
	queryType  = "type"
	queryOrder = "order"
	orderAsc   = "asc"
	orderDesc  = "desc"
	msgOrder   = "Must be one of: asc, desc."
)

type Handler interface {
	CreateEvent(c *gin.Context)
	ListUserEvents(c *gin.Context)
}

type handler struct {
	config  *config.Configuration
	service Service
}

func NewHandler(cfg *config.Configuration, service Service) Handler {
	return &handler{
		config:  cfg,
		service: service,
	}
}

// eventResponse is the wire form of a stored event.
type eventResponse struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	Amount          string    `json:"amount"`
	UserID          int64     `json:"user_id"`
	EventReceivedAt int64     `json:"t"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toEventResponse(e *models.ActivityEvent) *eventResponse {
	return &eventResponse{
		ID:              e.ID,
		Type:            string(e.TransactionType),
		Amount:          e.Amount.StringFixed(amountPlaces),
		UserID:          e.UserID,
		EventReceivedAt: e.EventReceivedAt,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// CreateEvent handles POST /event. Errors are left on the context for the
// error middleware to render.
func (h *handler) CreateEvent(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.config.RequestTimeout())
	defer cancel()

	body, err := c.GetRawData()
	if err != nil {
		h.abort(c, err)
		return
	}

	req, err := ParseCreateEventRequest(body)
	if err != nil {
		metrics.EventsRejected.WithLabelValues(metrics.ReasonValidation).Inc()
		logrus.WithError(err).Debug("Rejected event payload")
		h.abort(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"user_id": req.UserID,
		"type":    req.TransactionType,
		"t":       req.EventReceivedAt,
	}).Info("CreateEvent request received")

	response, err := h.service.CreateEvent(ctx, req)
	if err != nil {
		h.abort(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// ListUserEvents handles GET /users/:id/events.
func (h *handler) ListUserEvents(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.config.RequestTimeout())
	defer cancel()

	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.abort(c, models.ErrInvalidUserID)
		return
	}

	opts, err := parseListOptions(c)
	if err != nil {
		h.abort(c, err)
		return
	}

	adminID, _ := c.Get("user_id")
	logrus.WithFields(logrus.Fields{
		"admin_user_id": adminID,
		"user_id":       userID,
		"type":          opts.TransactionType,
		"ascending":     opts.Ascending,
	}).Info("ListUserEvents request received")

	events, err := h.service.ListEvents(ctx, userID, opts)
	if err != nil {
		h.abort(c, err)
		return
	}

	data := make([]*eventResponse, len(events))
	for i, e := range events {
		data[i] = toEventResponse(e)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"message": "Events retrieved successfully",
	})
}

func parseListOptions(c *gin.Context) (models.ListOptions, error) {
	var opts models.ListOptions
	verr := models.NewValidationError()

	if raw := c.Query(queryType); raw != "" {
		t, ok := models.ParseTransactionType(raw)
		if !ok {
			verr.Add(queryType, models.MsgInvalidType)
		}
		opts.TransactionType = t
	}

	switch strings.ToLower(c.DefaultQuery(queryOrder, orderDesc)) {
	case orderAsc:
		opts.Ascending = true
	case orderDesc:
	default:
		verr.Add(queryOrder, msgOrder)
	}

	if verr.HasErrors() {
		return opts, verr
	}
	return opts, nil
}

func (h *handler) abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
