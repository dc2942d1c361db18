package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kbai612/churn-analytics-service/internal/dto"
	"github.com/kbai612/churn-analytics-service/internal/ml"
	"github.com/kbai612/churn-analytics-service/internal/repository"
	"github.com/kbai612/churn-analytics-service/internal/service"
)

// Handler wires the HTTP routes to the service layer.
type Handler struct {
	eventService   service.EventServicer
	insightService service.InsightServicer
	predictService service.PredictServicer
	router         *gin.Engine
	log            *zap.Logger
}

// NewHandler creates a new HTTP handler with all routes registered.
func NewHandler(
	eventService service.EventServicer,
	insightService service.InsightServicer,
	predictService service.PredictServicer,
	log *zap.Logger,
) *Handler {
	h := &Handler{
		eventService:   eventService,
		insightService: insightService,
		predictService: predictService,
		router:         gin.Default(),
		log:            log,
	}

	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)
	h.router.POST("/events", h.publishEvent)
	h.router.POST("/events/bulk", h.publishEventsBulk)
	h.router.GET("/insights/summary", h.getSummary)
	h.router.GET("/insights/customers/:id", h.getCustomer)
	h.router.POST("/predict", h.predict)
	h.router.POST("/predict/explain", h.explain)
}

// healthCheck handles GET /health.
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// publishEvent handles POST /events.
func (h *Handler) publishEvent(c *gin.Context) {
	var req dto.PublishEventRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid event request",
			zap.Error(err),
			zap.String("event_type", req.EventType))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	eventID, err := h.eventService.ProcessEvent(&req)
	if err != nil {
		h.log.Error("Failed to process event",
			zap.Error(err),
			zap.String("event_type", req.EventType),
			zap.String("customer_id", req.CustomerID))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	h.log.Info("Event accepted",
		zap.String("event_id", eventID),
		zap.String("event_type", req.EventType))

	c.JSON(http.StatusAccepted, dto.PublishEventResponse{
		EventID: eventID,
		Status:  "accepted",
	})
}

// publishEventsBulk handles POST /events/bulk.
func (h *Handler) publishEventsBulk(c *gin.Context) {
	var bulkRequest dto.PublishEventsBulkRequest

	if err := c.ShouldBindJSON(&bulkRequest); err != nil {
		h.log.Warn("Invalid bulk event request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	eventIDs, errs, err := h.eventService.ProcessBulkEvents(bulkRequest.Events)
	if err != nil {
		h.log.Error("Failed to process bulk events",
			zap.Error(err),
			zap.Int("event_count", len(bulkRequest.Events)))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	accepted := len(eventIDs)
	rejected := len(errs)

	h.log.Info("Bulk events processed",
		zap.Int("accepted", accepted),
		zap.Int("rejected", rejected),
		zap.Int("total", len(bulkRequest.Events)))

	c.JSON(http.StatusAccepted, dto.PublishBulkEventsResponse{
		Accepted: accepted,
		Rejected: rejected,
		EventIDs: eventIDs,
		Errors:   errs,
	})
}

// getSummary handles GET /insights/summary.
func (h *Handler) getSummary(c *gin.Context) {
	resp, err := h.insightService.Summary(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to get summary", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// getCustomer handles GET /insights/customers/:id.
func (h *Handler) getCustomer(c *gin.Context) {
	customerID := c.Param("id")

	resp, err := h.insightService.Customer(c.Request.Context(), customerID)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{
				Error:   "not_found",
				Message: err.Error(),
			})
			return
		}
		h.log.Error("Failed to get customer insight",
			zap.Error(err),
			zap.String("customer_id", customerID))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// predict handles POST /predict.
func (h *Handler) predict(c *gin.Context) {
	var req dto.PredictRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid predict request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	resp, err := h.predictService.Score(&req)
	if err != nil {
		if errors.Is(err, ml.ErrMissingFeature) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "validation_error",
				Message: err.Error(),
			})
			return
		}
		h.log.Error("Failed to score features",
			zap.Error(err),
			zap.String("model", req.Model))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// explain handles POST /predict/explain.
func (h *Handler) explain(c *gin.Context) {
	var req dto.ExplainRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid explain request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	resp, err := h.predictService.Explain(&req)
	if err != nil {
		if errors.Is(err, ml.ErrMissingFeature) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "validation_error",
				Message: err.Error(),
			})
			return
		}
		h.log.Error("Failed to explain prediction",
			zap.Error(err),
			zap.String("model", req.Model))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}
