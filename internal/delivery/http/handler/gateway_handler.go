package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	domainGateway "gateway-registry/internal/domain/gateway"
	"gateway-registry/internal/logger"
	"gateway-registry/internal/middleware"
	"gateway-registry/internal/usecase/gateway"
	appErrors "gateway-registry/pkg/errors"
	"gateway-registry/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgInternalError = "Internal server error"

type GatewayHandler struct {
	service *gateway.Service
}

func NewGatewayHandler(service *gateway.Service) *GatewayHandler {
	return &GatewayHandler{service: service}
}

func (h *GatewayHandler) RegisterRoutes(router *gin.RouterGroup) {
	gateways := router.Group("/gateways")
	{
		gateways.GET("", h.ListGateways)
		gateways.GET("/:serialNumber", h.GetGateway)
		gateways.POST("", h.CreateGateway)
		gateways.PUT("/:serialNumber", h.UpdateGateway)
		gateways.DELETE("/:serialNumber", h.DeleteGateway)
		gateways.POST("/:serialNumber/devices", h.AddDevice)
		gateways.DELETE("/:serialNumber/devices/:uid", h.RemoveDevice)
	}
}

func (h *GatewayHandler) ListGateways(c *gin.Context) {
	gateways, err := h.service.ListGateways(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, gateways)
}

func (h *GatewayHandler) GetGateway(c *gin.Context) {
	gw, err := h.service.GetGateway(c.Request.Context(), c.Param("serialNumber"))
	if err != nil {
		writeError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, gw)
}

func (h *GatewayHandler) CreateGateway(c *gin.Context) {
	payload, ok := bindPayload(c)
	if !ok {
		return
	}

	gw, err := h.service.CreateGateway(c.Request.Context(), payload)
	if err != nil {
		writeError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, gw)
}

func (h *GatewayHandler) UpdateGateway(c *gin.Context) {
	payload, ok := bindPayload(c)
	if !ok {
		return
	}

	gw, err := h.service.UpdateGateway(c.Request.Context(), c.Param("serialNumber"), payload)
	if err != nil {
		writeError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, gw)
}

func (h *GatewayHandler) DeleteGateway(c *gin.Context) {
	deleted, err := h.service.DeleteGateway(c.Request.Context(), c.Param("serialNumber"))
	if err != nil {
		writeError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, deleted)
}

func (h *GatewayHandler) AddDevice(c *gin.Context) {
	payload, ok := bindPayload(c)
	if !ok {
		return
	}

	gw, err := h.service.AddDevice(c.Request.Context(), c.Param("serialNumber"), payload)
	if err != nil {
		writeError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, gw)
}

func (h *GatewayHandler) RemoveDevice(c *gin.Context) {
	uid, err := strconv.ParseInt(c.Param("uid"), 10, 64)
	if err != nil {
		writeError(c, appErrors.NewValidationError(domainGateway.FieldUID, `"uid" must be a number`))
		return
	}

	if err := h.service.RemoveDevice(c.Request.Context(), c.Param("serialNumber"), uid); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// bindPayload decodes the body as a JSON object. An empty body counts as an
// empty object so the validator can name the missing fields.
func bindPayload(c *gin.Context) (map[string]any, bool) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, true
		}
		if middleware.IsBodyTooLarge(err) {
			middleware.RejectBodyTooLarge(c)
			return nil, false
		}
		utils.ErrorResponseWithCode(c, http.StatusBadRequest, appErrors.CodeValidation, "",
			`"value" must be a JSON object`)
		return nil, false
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return payload, true
}

// writeError maps use case errors to HTTP responses.
func writeError(c *gin.Context, err error) {
	var appErr *appErrors.AppError
	var conflict *domainGateway.ConflictError

	switch {
	case errors.As(err, &appErr) && appErr.Code == appErrors.CodeValidation:
		utils.ErrorResponseWithCode(c, http.StatusBadRequest, appErr.Code, appErr.Field, appErr.Message)
	case errors.As(err, &conflict):
		utils.ErrorResponseWithCode(c, http.StatusBadRequest, appErrors.CodeConflict, conflict.Field, conflict.Error())
	case errors.Is(err, domainGateway.ErrDeviceLimitReached):
		utils.ErrorResponseWithCode(c, http.StatusBadRequest, appErrors.CodeValidation,
			domainGateway.FieldPeripheralDevices, err.Error())
	case errors.Is(err, domainGateway.ErrGatewayNotFound), errors.Is(err, domainGateway.ErrDeviceNotFound):
		utils.ErrorResponseWithCode(c, http.StatusNotFound, appErrors.CodeNotFound, "", err.Error())
	default:
		_ = c.Error(err)
		logger.WithRequestID(middleware.GetRequestID(c)).Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		utils.ErrorResponseWithCode(c, http.StatusInternalServerError, appErrors.CodeInternal, "", msgInternalError)
	}
}
