package handler

import (
	"errors"
	"net/http"

	"meterstock/internal/lifecycle"
	"meterstock/internal/middleware"
	"meterstock/internal/model"
	"meterstock/internal/repository"
	"meterstock/internal/service"
	"meterstock/pkg/pagination"
	"meterstock/pkg/response"

	"github.com/gin-gonic/gin"
)

type RequestHandler struct {
	requestService service.RequestService
}

func NewRequestHandler(requestService service.RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

func (h *RequestHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api")
	{
		api.POST("/requests", middleware.RequireRole(model.RoleContractor), h.SubmitRequest)
		api.POST("/dispatches", middleware.RequireRole(model.RoleManufacturer), h.SubmitDispatch)
		api.GET("/requests", middleware.RequireRole(model.AllRoles...), h.ListRequests)
		api.GET("/requests/:request_id", middleware.RequireRole(model.AllRoles...), h.GetRequest)
		api.PUT("/requests/:request_id/approve", middleware.RequireRole(model.RoleCity), h.ApproveRequest)
		api.PUT("/requests/:request_id/decline", middleware.RequireRole(model.RoleCity), h.DeclineRequest)
		api.PUT("/requests/:request_id/receive", middleware.RequireRole(model.RoleInstaller), h.MarkReceived)
		api.DELETE("/requests/:request_id", middleware.RequireRole(model.RoleManager), h.DeleteRequest)
	}
}

// actorFromContext rebuilds the authenticated actor the middleware stored.
func actorFromContext(c *gin.Context) service.Actor {
	id, _ := c.Get("userID")
	role, _ := c.Get("userRole")
	name, _ := c.Get("userName")

	actor := service.Actor{}
	if s, ok := id.(string); ok {
		actor.ID = s
	}
	if s, ok := role.(string); ok {
		actor.Role = s
	}
	if s, ok := name.(string); ok {
		actor.Name = s
	}
	return actor
}

// statusFor maps domain errors onto HTTP status codes. Conflicts (illegal
// transitions and lost compare-and-swap races) are 409 so clients know to
// re-fetch; everything unexpected stays 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, lifecycle.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, lifecycle.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, repository.ErrVersionConflict),
		errors.Is(err, repository.ErrDuplicateID):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *RequestHandler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "Internal server error"
	}
	c.JSON(status, response.Error(status, msg))
}

// SubmitRequest handles POST /api/requests
// @Summary      Submit stock request
// @Description  Contractor submits a stock request; one record is created per item line
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SubmitRequestDTO  true  "Request Payload"
// @Success      201      {object}  response.Response{data=[]service.RequestResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/requests [post]
func (h *RequestHandler) SubmitRequest(c *gin.Context) {
	var req service.SubmitRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	records, err := h.requestService.SubmitContractorRequest(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, records))
}

// SubmitDispatch handles POST /api/dispatches
// @Summary      Submit dispatch notification
// @Description  Manufacturer announces an outbound batch; the record skips straight to city review
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SubmitDispatchDTO  true  "Dispatch Payload"
// @Success      201      {object}  response.Response{data=service.RequestResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/dispatches [post]
func (h *RequestHandler) SubmitDispatch(c *gin.Context) {
	var req service.SubmitDispatchDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	record, err := h.requestService.SubmitManufacturerDispatch(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, record))
}

// ListRequests handles GET /api/requests with optional status/origin/installer filters
// @Summary      List stock requests
// @Description  Returns a filtered, paginated view of the record store
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        status     query     string  false  "Filter by status"
// @Param        origin     query     string  false  "Filter by origin"
// @Param        installer  query     string  false  "Filter by installer name"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Items per page (default 20)"
// @Success      200        {object}  response.Response{data=[]service.RequestResponse}
// @Router       /api/requests [get]
func (h *RequestHandler) ListRequests(c *gin.Context) {
	params := pagination.Parse(c)
	filter := service.ListRequestsFilter{
		Status:        c.Query("status"),
		Origin:        c.Query("origin"),
		InstallerName: c.Query("installer"),
		Page:          params.Page,
		Limit:         params.Limit,
	}

	records, total, err := h.requestService.ListRequests(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessList(http.StatusOK, records, response.Meta{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: pagination.TotalPages(total, params.Limit),
	}))
}

// GetRequest handles GET /api/requests/:request_id
// @Summary      Get stock request
// @Description  Fetch one record by its request id
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        request_id  path      string  true  "Request ID"
// @Success      200         {object}  response.Response{data=service.RequestResponse}
// @Failure      404         {object}  response.Response
// @Router       /api/requests/{request_id} [get]
func (h *RequestHandler) GetRequest(c *gin.Context) {
	record, err := h.requestService.GetRequest(c.Request.Context(), c.Param("request_id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
}

// ApproveRequest handles PUT /api/requests/:request_id/approve
// @Summary      Approve request
// @Description  City reviewer approves a pending record, optionally with a reduced quantity
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request_id  path      string                     true   "Request ID"
// @Param        payload     body      service.ApproveRequestDTO  false  "Approval Payload"
// @Success      200         {object}  response.Response{data=service.RequestResponse}
// @Failure      400         {object}  response.Response
// @Failure      403         {object}  response.Response
// @Failure      404         {object}  response.Response
// @Failure      409         {object}  response.Response
// @Router       /api/requests/{request_id}/approve [put]
func (h *RequestHandler) ApproveRequest(c *gin.Context) {
	var req service.ApproveRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		// Empty body approves the full offered quantity
		req = service.ApproveRequestDTO{}
	}

	record, err := h.requestService.ApproveRequest(c.Request.Context(), actorFromContext(c), c.Param("request_id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
}

// DeclineRequest handles PUT /api/requests/:request_id/decline
// @Summary      Decline request
// @Description  City reviewer declines a pending record; a non-empty reason is required
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request_id  path      string                     true  "Request ID"
// @Param        payload     body      service.DeclineRequestDTO  true  "Decline Payload"
// @Success      200         {object}  response.Response{data=service.RequestResponse}
// @Failure      400         {object}  response.Response
// @Failure      403         {object}  response.Response
// @Failure      404         {object}  response.Response
// @Failure      409         {object}  response.Response
// @Router       /api/requests/{request_id}/decline [put]
func (h *RequestHandler) DeclineRequest(c *gin.Context) {
	var req service.DeclineRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Reason = ""
	}

	record, err := h.requestService.DeclineRequest(c.Request.Context(), actorFromContext(c), c.Param("request_id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
}

// MarkReceived handles PUT /api/requests/:request_id/receive
// @Summary      Mark request received
// @Description  Installer confirms delivery of an approved record
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        request_id  path      string  true  "Request ID"
// @Success      200         {object}  response.Response{data=service.RequestResponse}
// @Failure      403         {object}  response.Response
// @Failure      404         {object}  response.Response
// @Failure      409         {object}  response.Response
// @Router       /api/requests/{request_id}/receive [put]
func (h *RequestHandler) MarkReceived(c *gin.Context) {
	record, err := h.requestService.MarkReceived(c.Request.Context(), actorFromContext(c), c.Param("request_id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
}

// DeleteRequest handles DELETE /api/requests/:request_id
// @Summary      Delete request
// @Description  Manager removes a record from the store entirely
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        request_id  path      string  true  "Request ID"
// @Success      200         {object}  response.Response
// @Failure      404         {object}  response.Response
// @Router       /api/requests/{request_id} [delete]
func (h *RequestHandler) DeleteRequest(c *gin.Context) {
	if err := h.requestService.DeleteRequest(c.Request.Context(), actorFromContext(c), c.Param("request_id")); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Request deleted successfully"))
}
