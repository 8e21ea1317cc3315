package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-booking/internal/logger"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository"
)

// HallHandler manages screening halls.
type HallHandler struct {
	Halls HallStore
	Log   *logger.Logger
}

func NewHallHandler(halls HallStore, log *logger.Logger) *HallHandler {
	return &HallHandler{Halls: halls, Log: log}
}

type createHallReq struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Capacity    int      `json:"capacity" validate:"required,min=1,max=1000"`
	Type        string   `json:"type" validate:"required,oneof=Standard IMAX VIP Premium"`
	Status      string   `json:"status" validate:"omitempty,oneof=Active Maintenance Inactive"`
	Description string   `json:"description" validate:"max=500"`
	Amenities   []string `json:"amenities"`
}

type updateHallReq struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Capacity    *int     `json:"capacity" validate:"omitempty,min=1,max=1000"`
	Type        *string  `json:"type" validate:"omitempty,oneof=Standard IMAX VIP Premium"`
	Status      *string  `json:"status" validate:"omitempty,oneof=Active Maintenance Inactive"`
	Description *string  `json:"description" validate:"omitempty,max=500"`
	Amenities   []string `json:"amenities"`
}

func toHallDTOs(in []*model.Hall) []hallDTO {
	out := make([]hallDTO, 0, len(in))
	for _, h := range in {
		out = append(out, toHallDTO(h))
	}
	return out
}

// List returns all halls, optionally filtered by ?status=.
func (h *HallHandler) List(c echo.Context) error {
	status := strings.TrimSpace(c.QueryParam("status"))
	if strings.EqualFold(status, "all") {
		status = ""
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	halls, err := h.Halls.List(ctx, status)
	if err != nil {
		return h.storeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"halls": toHallDTOs(halls)})
}

// Active returns the halls that can host screenings.
func (h *HallHandler) Active(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	halls, err := h.Halls.List(ctx, "Active")
	if err != nil {
		return h.storeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"halls": toHallDTOs(halls)})
}

// Get returns one hall.
func (h *HallHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	hall, err := h.Halls.GetByID(ctx, c.Param("id"))
	if err != nil {
		return h.storeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"hall": toHallDTO(hall)})
}

// Create adds a hall (admin).  Names are unique, case-insensitively.
func (h *HallHandler) Create(c echo.Context) error {
	var req createHallReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	status := req.Status
	if status == "" {
		status = "Active"
	}
	hall := &model.Hall{
		Name:        strings.TrimSpace(req.Name),
		Capacity:    req.Capacity,
		Type:        req.Type,
		Status:      status,
		Description: strings.TrimSpace(req.Description),
		Amenities:   req.Amenities,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Halls.Create(ctx, hall); err != nil {
		return h.storeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"hall": toHallDTO(hall)})
}

// Update changes the supplied fields of a hall (admin).
func (h *HallHandler) Update(c echo.Context) error {
	var req updateHallReq
	if ok, err := bind(c, &req); !ok {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	hall, err := h.Halls.GetByID(ctx, c.Param("id"))
	if err != nil {
		return h.storeError(c, err)
	}
	setTrimmed(&hall.Name, req.Name)
	setTrimmed(&hall.Type, req.Type)
	setTrimmed(&hall.Status, req.Status)
	setTrimmed(&hall.Description, req.Description)
	if req.Capacity != nil {
		hall.Capacity = *req.Capacity
	}
	if req.Amenities != nil {
		hall.Amenities = req.Amenities
	}
	if err := h.Halls.Update(ctx, hall); err != nil {
		return h.storeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"hall": toHallDTO(hall)})
}

// Delete removes a hall (admin).
func (h *HallHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Halls.Delete(ctx, c.Param("id")); err != nil {
		return h.storeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "hall deleted"})
}

func (h *HallHandler) storeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "hall not found"})
	case errors.Is(err, repository.ErrDuplicateName):
		return c.JSON(http.StatusConflict, echo.Map{"error": "hall name already exists"})
	}
	h.Log.ErrorContext(c.Request().Context(), "hall store failure", "error", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}
