package handler

import (
	"net/http"
	"time"

	"github.com/campustrade/backend/internal/model"
	"github.com/campustrade/backend/internal/service"
	"github.com/labstack/echo/v4"
)

type AppointmentHandler struct {
	svc service.BookingService
}

func NewAppointmentHandler(svc service.BookingService) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

type AppointmentResponse struct {
	ID        string `json:"id"`
	ItemID    string `json:"itemId"`
	SellerID  string `json:"sellerId"`
	BuyerID   string `json:"buyerId"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Status    string `json:"status"`
	Location  string `json:"location,omitempty"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toAppointmentResponse(a *model.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:        a.ID,
		ItemID:    a.ItemID,
		SellerID:  a.SellerUID,
		BuyerID:   a.BuyerUID,
		StartTime: a.StartTime.Format(time.RFC3339),
		EndTime:   a.EndTime.Format(time.RFC3339),
		Status:    string(a.Status),
		Location:  a.Location,
		Notes:     a.Notes,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
		UpdatedAt: a.UpdatedAt.Format(time.RFC3339),
	}
}

type createAppointmentRequest struct {
	ItemID    string    `json:"itemId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Location  string    `json:"location"`
	Notes     string    `json:"notes"`
}

func (h *AppointmentHandler) Create(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return nil
	}
	var req createAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
	}
	if req.ItemID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse("Item ID is required"))
	}
	if len(req.Notes) > 500 {
		return c.JSON(http.StatusBadRequest, errorResponse("Notes must not exceed 500 characters"))
	}

	appt, err := h.svc.RequestBooking(c.Request().Context(), req.ItemID, uid, req.StartTime, req.EndTime, req.Location, req.Notes)
	if err != nil {
		return serviceError(c, err)
	}
	resp := toAppointmentResponse(appt)
	return c.JSON(http.StatusCreated, successMessage(resp, "Appointment created successfully"))
}

func (h *AppointmentHandler) List(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return nil
	}
	status := model.AppointmentStatus(c.QueryParam("status"))
	upcoming := c.QueryParam("upcoming") == "true"

	list, err := h.svc.ListForUser(c.Request().Context(), uid, status, upcoming)
	if err != nil {
		return serviceError(c, err)
	}
	resp := make([]AppointmentResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toAppointmentResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, successResponse(resp))
}

func (h *AppointmentHandler) Get(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return nil
	}
	id := c.Param("id")
	appt, err := h.svc.Get(c.Request().Context(), id, uid)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, successResponse(toAppointmentResponse(appt)))
}

type updateAppointmentRequest struct {
	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	Status    *string    `json:"status"`
	Location  *string    `json:"location"`
	Notes     *string    `json:"notes"`
}

func (h *AppointmentHandler) Update(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return nil
	}
	id := c.Param("id")
	var req updateAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
	}
	if req.Notes != nil && len(*req.Notes) > 500 {
		return c.JSON(http.StatusBadRequest, errorResponse("Notes must not exceed 500 characters"))
	}

	patch := service.AppointmentPatch{
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Location:  req.Location,
		Notes:     req.Notes,
	}
	if req.Status != nil {
		st := model.AppointmentStatus(*req.Status)
		if !model.ValidAppointmentStatus(st) {
			return c.JSON(http.StatusBadRequest, errorResponse("Invalid status"))
		}
		patch.Status = &st
	}

	appt, err := h.svc.UpdateAppointment(c.Request().Context(), id, uid, patch)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, successMessage(toAppointmentResponse(appt), "Appointment updated successfully"))
}

func (h *AppointmentHandler) Cancel(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return nil
	}
	id := c.Param("id")
	if _, err := h.svc.CancelAppointment(c.Request().Context(), id, uid); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, Response{Success: true, Message: "Appointment cancelled successfully"})
}

func (h *AppointmentHandler) ListByItem(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return nil
	}
	itemID := c.Param("itemId")
	list, err := h.svc.ListForItem(c.Request().Context(), itemID, uid)
	if err != nil {
		return serviceError(c, err)
	}
	resp := make([]AppointmentResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toAppointmentResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, successResponse(resp))
}
