package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/campustrade/backend/internal/model"
	"github.com/campustrade/backend/internal/repository"
	"github.com/campustrade/backend/internal/service"
	"github.com/labstack/echo/v4"
)

type ItemHandler struct {
	svc service.ItemService
}

func NewItemHandler(svc service.ItemService) *ItemHandler {
	return &ItemHandler{svc: svc}
}

type ItemResponse struct {
	ID          string `json:"id"`
	SellerID    string `json:"sellerId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       uint   `json:"price"`
	Category    string `json:"category,omitempty"`
	Condition   string `json:"condition,omitempty"`
	Location    string `json:"location,omitempty"`
	Tags        string `json:"tags,omitempty"`
	Images      string `json:"images,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func toItemResponse(i *model.Item) ItemResponse {
	return ItemResponse{
		ID:          i.ID,
		SellerID:    i.SellerUID,
		Title:       i.Title,
		Description: i.Description,
		Price:       i.Price,
		Category:    i.Category,
		Condition:   i.Condition,
		Location:    i.Location,
		Tags:        i.Tags,
		Images:      i.Images,
		Status:      string(i.Status),
		CreatedAt:   i.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   i.UpdatedAt.Format(time.RFC3339),
	}
}

type itemRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       uint   `json:"price"`
	Category    string `json:"category"`
	Condition   string `json:"condition"`
	Location    string `json:"location"`
	Tags        string `json:"tags"`
	Images      string `json:"images"`
}

func (h *ItemHandler) Create(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return nil
	}
	var req itemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
	}
	item, err := h.svc.Create(c.Request().Context(), uid, service.ItemInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Condition:   req.Condition,
		Location:    req.Location,
		Tags:        req.Tags,
		Images:      req.Images,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, successResponse(toItemResponse(item)))
}

func (h *ItemHandler) Get(c echo.Context) error {
	item, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, successResponse(toItemResponse(item)))
}

type paginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

func (h *ItemHandler) List(c echo.Context) error {
	page := 1
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	limit := 12
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 {
		limit = l
	}

	f := repository.ItemFilter{
		Category: c.QueryParam("category"),
		Status:   model.ItemStatus(c.QueryParam("status")),
		Search:   c.QueryParam("search"),
	}
	if v := c.QueryParam("priceMin"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			min := uint(n)
			f.PriceMin = &min
		}
	}
	if v := c.QueryParam("priceMax"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			max := uint(n)
			f.PriceMax = &max
		}
	}

	items, total, err := h.svc.List(c.Request().Context(), f, limit, (page-1)*limit)
	if err != nil {
		return serviceError(c, err)
	}
	resp := make([]ItemResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toItemResponse(&items[i]))
	}
	totalPages := (total + int64(limit) - 1) / int64(limit)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":    true,
		"data":       resp,
		"pagination": paginationMeta{Page: page, Limit: limit, Total: total, TotalPages: totalPages},
	})
}

func (h *ItemHandler) ListMine(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return nil
	}
	items, err := h.svc.ListBySeller(c.Request().Context(), uid)
	if err != nil {
		return serviceError(c, err)
	}
	resp := make([]ItemResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toItemResponse(&items[i]))
	}
	return c.JSON(http.StatusOK, successResponse(resp))
}

type updateItemRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Price       *uint   `json:"price"`
	Category    *string `json:"category"`
	Condition   *string `json:"condition"`
	Location    *string `json:"location"`
	Tags        *string `json:"tags"`
	Images      *string `json:"images"`
	Status      *string `json:"status"`
}

func (h *ItemHandler) Update(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return nil
	}
	var req updateItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse("Invalid request body"))
	}
	patch := service.ItemPatch{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Condition:   req.Condition,
		Location:    req.Location,
		Tags:        req.Tags,
		Images:      req.Images,
	}
	if req.Status != nil {
		st := model.ItemStatus(*req.Status)
		if !model.ValidItemStatus(st) {
			return c.JSON(http.StatusBadRequest, errorResponse("Invalid status"))
		}
		patch.Status = &st
	}
	item, err := h.svc.Update(c.Request().Context(), c.Param("id"), uid, patch)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, successResponse(toItemResponse(item)))
}

func (h *ItemHandler) Delete(c echo.Context) error {
	uid, ok := requireUID(c)
	if !ok {
		return nil
	}
	if err := h.svc.Delete(c.Request().Context(), c.Param("id"), uid); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, Response{Success: true, Message: "Item deleted successfully"})
}
