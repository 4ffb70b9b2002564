package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/campustrade/backend/internal/model"
	"github.com/campustrade/backend/internal/service"
	"github.com/labstack/echo/v4"
)

type NotificationHandler struct {
	svc service.NotificationService
}

func NewNotificationHandler(svc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

type NotificationResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Metadata  string `json:"metadata,omitempty"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"createdAt"`
}

func toNotificationResponse(n model.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Metadata:  n.Metadata,
		Read:      n.ReadAt != nil,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
}

func (h *NotificationHandler) List(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return nil
	}
	unreadOnly := c.QueryParam("unread_only") == "true"
	limit := 20
	if lStr := c.QueryParam("limit"); lStr != "" {
		if lParsed, err := strconv.Atoi(lStr); err == nil && lParsed > 0 {
			limit = lParsed
		}
	}
	list, unreadCount, err := h.svc.List(c.Request().Context(), uid, unreadOnly, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse("Failed to fetch notifications"))
	}
	resp := make([]NotificationResponse, 0, len(list))
	for _, n := range list {
		resp = append(resp, toNotificationResponse(n))
	}
	return c.JSON(http.StatusOK, successResponse(map[string]interface{}{
		"notifications": resp,
		"unreadCount":   unreadCount,
	}))
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return nil
	}
	if err := h.svc.MarkRead(c.Request().Context(), uid, c.Param("id")); err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse("Failed to mark notification read"))
	}
	return c.JSON(http.StatusOK, Response{Success: true})
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return nil
	}
	if err := h.svc.MarkAllRead(c.Request().Context(), uid); err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse("Failed to mark notifications read"))
	}
	return c.JSON(http.StatusOK, Response{Success: true})
}
