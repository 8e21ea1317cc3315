package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-ticket-booking/internal/booking"
	"github.com/iliyamo/cinema-ticket-booking/internal/logger"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository"
	"github.com/iliyamo/cinema-ticket-booking/internal/utils"
)

// MovieHandler serves the movie catalogue.  Deleting a movie cancels its
// active bookings through Bookings.
type MovieHandler struct {
	Movies       MovieStore
	Bookings     *booking.Service
	Log          *logger.Logger
	DefaultPrice int64 // cents, used for showtimes posted without a price
}

func NewMovieHandler(movies MovieStore, bookings *booking.Service, log *logger.Logger, defaultPriceCents int64) *MovieHandler {
	return &MovieHandler{Movies: movies, Bookings: bookings, Log: log, DefaultPrice: defaultPriceCents}
}

type showtimeReq struct {
	Date  string   `json:"date" validate:"required,isodate"`
	Time  string   `json:"time" validate:"required,clock"`
	Price *float64 `json:"price" validate:"omitempty,gte=0"`
}

type createMovieReq struct {
	Title       string        `json:"title" validate:"required,max=200"`
	Duration    string        `json:"duration" validate:"required"`
	Hall        string        `json:"hall" validate:"required"`
	Image       string        `json:"image"`
	Showtimes   []showtimeReq `json:"showtimes" validate:"omitempty,dive"`
	Times       []string      `json:"times" validate:"omitempty,dive,clock"`
	Genre       string        `json:"genre"`
	Description string        `json:"description"`
	Status      string        `json:"status" validate:"omitempty,oneof=active inactive coming-soon"`
}

type updateMovieReq struct {
	Title       *string       `json:"title" validate:"omitempty,min=1,max=200"`
	Duration    *string       `json:"duration" validate:"omitempty,min=1"`
	Hall        *string       `json:"hall" validate:"omitempty,min=1"`
	Image       *string       `json:"image"`
	Showtimes   []showtimeReq `json:"showtimes" validate:"omitempty,dive"`
	Times       []string      `json:"times" validate:"omitempty,dive,clock"`
	Genre       *string       `json:"genre"`
	Description *string       `json:"description"`
	Status      *string       `json:"status" validate:"omitempty,oneof=active inactive coming-soon"`
}

func (h *MovieHandler) showtimes(in []showtimeReq) []model.MovieShowtime {
	if len(in) == 0 {
		return nil
	}
	out := make([]model.MovieShowtime, 0, len(in))
	for _, st := range in {
		price := h.DefaultPrice
		if st.Price != nil {
			price = utils.AmountToCents(*st.Price)
		}
		out = append(out, model.MovieShowtime{Date: st.Date, Time: st.Time, PriceCents: price})
	}
	return out
}

// List returns every movie that is not inactive.
func (h *MovieHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	movies, err := h.Movies.List(ctx, false)
	if err != nil {
		h.Log.ErrorContext(ctx, "list movies failed", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]movieDTO, 0, len(movies))
	for _, m := range movies {
		out = append(out, toMovieDTO(m))
	}
	return c.JSON(http.StatusOK, echo.Map{"movies": out})
}

// Get returns one movie.
func (h *MovieHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.Movies.GetByID(ctx, c.Param("id"))
	if err != nil {
		return h.storeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"movie": toMovieDTO(m)})
}

// Create adds a movie (admin).
func (h *MovieHandler) Create(c echo.Context) error {
	var req createMovieReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	status := req.Status
	if status == "" {
		status = model.MovieActive
	}
	m := &model.Movie{
		Title:       strings.TrimSpace(req.Title),
		Duration:    strings.TrimSpace(req.Duration),
		Hall:        strings.TrimSpace(req.Hall),
		Image:       strings.TrimSpace(req.Image),
		Showtimes:   h.showtimes(req.Showtimes),
		Times:       req.Times,
		Genre:       strings.TrimSpace(req.Genre),
		Description: strings.TrimSpace(req.Description),
		Status:      status,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Movies.Create(ctx, m); err != nil {
		return h.storeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"movie": toMovieDTO(m)})
}

// Update changes the supplied fields of a movie (admin).  Posting
// showtimes replaces the whole schedule.
func (h *MovieHandler) Update(c echo.Context) error {
	var req updateMovieReq
	if ok, err := bind(c, &req); !ok {
		return err
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.Movies.GetByID(ctx, c.Param("id"))
	if err != nil {
		return h.storeError(c, err)
	}
	setTrimmed(&m.Title, req.Title)
	setTrimmed(&m.Duration, req.Duration)
	setTrimmed(&m.Hall, req.Hall)
	setTrimmed(&m.Image, req.Image)
	setTrimmed(&m.Genre, req.Genre)
	setTrimmed(&m.Description, req.Description)
	setTrimmed(&m.Status, req.Status)
	if req.Showtimes != nil {
		m.Showtimes = h.showtimes(req.Showtimes)
	}
	if req.Times != nil {
		m.Times = req.Times
	}
	if err := h.Movies.Update(ctx, m); err != nil {
		return h.storeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"movie": toMovieDTO(m)})
}

// Delete removes a movie (admin).  Its pending and confirmed bookings are
// cancelled first with reason movie_deleted.
func (h *MovieHandler) Delete(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	m, err := h.Movies.GetByID(ctx, c.Param("id"))
	if err != nil {
		return h.storeError(c, err)
	}
	n, err := h.Bookings.CancelForDeletedMovie(ctx, m.ID, m.Title)
	if err != nil {
		return bookingError(c, err)
	}
	if err := h.Movies.Delete(ctx, m.ID); err != nil {
		return h.storeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "movie deleted", "cancelledBookings": n})
}

// CleanupImages clears placeholder image URLs from booking snapshots
// (admin).
func (h *MovieHandler) CleanupImages(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.Bookings.ScrubPlaceholderImages(ctx)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"cleanedCount": n})
}

func (h *MovieHandler) storeError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	}
	h.Log.ErrorContext(c.Request().Context(), "movie store failure", "error", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}

// setTrimmed assigns the trimmed value of src to dst when src is set.
func setTrimmed(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}
