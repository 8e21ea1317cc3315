package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticket-booking/internal/booking"
	"github.com/iliyamo/cinema-ticket-booking/internal/config"
	"github.com/iliyamo/cinema-ticket-booking/internal/handler"
	"github.com/iliyamo/cinema-ticket-booking/internal/logger"
	"github.com/iliyamo/cinema-ticket-booking/internal/middleware"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository/memstore"
	"github.com/iliyamo/cinema-ticket-booking/internal/utils"
)

const secret = "router-test-secret"

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	log := logger.Discard()
	movies := memstore.NewMovies()
	halls := memstore.NewHalls()
	users := memstore.NewUsers()
	svc := booking.NewService(memstore.NewBookings(), movies, log, 1500)

	require.NoError(t, movies.Create(context.Background(), &model.Movie{
		Title: "Casablanca", Duration: "1h 42m", Hall: "Hall 2", Status: model.MovieActive,
	}))

	cfg := config.Config{JWTSecret: secret, AccessTTLMin: 5, BcryptCost: 4}
	// No Redis: limiter, cache and purge are pass-through.
	var none echo.MiddlewareFunc = middleware.NewTokenBucket(config.RateLimitConfig{}, nil, log)

	e := echo.New()
	e.Validator = handler.NewValidator()
	movieH := handler.NewMovieHandler(movies, svc, log, 1500)
	hallH := handler.NewHallHandler(halls, log)
	RegisterRoutes(e, "memory")
	RegisterAuth(e, handler.NewAuthHandler(cfg, users, log), secret, none)
	RegisterPublic(e, movieH, hallH, none, none)
	RegisterBookings(e, handler.NewBookingHandler(svc), secret, none)
	RegisterAdmin(e, movieH, hallH, handler.NewDashboardHandler(movies, halls, users, svc, log), secret, none)
	return e
}

func token(t *testing.T, uid, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, uid, role, 5)
	require.NoError(t, err)
	return tok.Token
}

func do(e *echo.Echo, method, path, body, tok string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if tok != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestPublicRoutes(t *testing.T) {
	e := newServer(t)

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/healthz", "", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/api/seatmap", "", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/api/movies", "", "").Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/api/halls/active/list", "", "").Code)
	assert.Equal(t, http.StatusOK,
		do(e, http.MethodGet, "/api/bookings/showtime?movie=Casablanca&date=2024-01-01&time=20:00", "", "").Code)
}

func TestBookingFlowThroughRouter(t *testing.T) {
	e := newServer(t)
	alice := token(t, "alice", model.RoleCustomer)
	root := token(t, "root", model.RoleAdmin)

	body := `{"movieTitle":"Casablanca","date":"2024-01-01","time":"20:00","seats":["A1"]}`
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodPost, "/api/bookings", body, "").Code)
	// Admins do not book.
	assert.Equal(t, http.StatusForbidden, do(e, http.MethodPost, "/api/bookings", body, root).Code)

	rec := do(e, http.MethodPost, "/api/bookings", body, alice)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Booking struct {
			BookingID string `json:"bookingId"`
			Pricing   struct {
				TotalAmount float64 `json:"totalAmount"`
			} `json:"pricing"`
		} `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created.Booking.BookingID
	assert.Regexp(t, `^RES-[0-9A-Z]+-[0-9A-Z]{4}$`, id)
	assert.Equal(t, 15.0, created.Booking.Pricing.TotalAmount)

	// Customers cannot reach admin listings.
	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/api/bookings/admin/all", "", alice).Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/api/bookings/admin/all", "", root).Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/api/bookings?status=confirmed", "", root).Code)

	// Static segments win over :bookingId.
	rec = do(e, http.MethodGet, "/api/bookings/user", "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), id)

	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/api/bookings/"+id, "", alice).Code)
	assert.Equal(t, http.StatusOK,
		do(e, http.MethodPut, "/api/bookings/admin/"+id+"/validate", `{"isValidated":true}`, root).Code)
	assert.Equal(t, http.StatusOK, do(e, http.MethodDelete, "/api/bookings/"+id, "", alice).Code)

	rec = do(e, http.MethodGet, "/api/bookings/showtime?movie=Casablanca&date=2024-01-01&time=20:00", "", "")
	assert.JSONEq(t, `{"bookedSeats":[]}`, rec.Body.String())
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	e := newServer(t)
	alice := token(t, "alice", model.RoleCustomer)
	root := token(t, "root", model.RoleAdmin)

	hall := `{"name":"Hall 1","capacity":96,"type":"Standard"}`
	assert.Equal(t, http.StatusUnauthorized, do(e, http.MethodPost, "/api/halls", hall, "").Code)
	assert.Equal(t, http.StatusForbidden, do(e, http.MethodPost, "/api/halls", hall, alice).Code)
	assert.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/api/halls", hall, root).Code)

	assert.Equal(t, http.StatusForbidden, do(e, http.MethodGet, "/api/admin/dashboard/stats", "", alice).Code)
	rec := do(e, http.MethodGet, "/api/admin/dashboard/stats", "", root)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalMovies":1,"totalHalls":1,"totalReservations":0}`, rec.Body.String())

	assert.Equal(t, http.StatusOK, do(e, http.MethodPost, "/api/auth/verify-token", "", root).Code)
	assert.Equal(t, http.StatusForbidden, do(e, http.MethodPost, "/api/auth/verify-token", "", alice).Code)
}

func TestRegisterLoginMe(t *testing.T) {
	e := newServer(t)

	rec := do(e, http.MethodPost, "/api/user-auth/register",
		`{"name":"Bob","email":"bob@example.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(e, http.MethodPost, "/api/user-auth/login", `{"email":"bob@example.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Access struct {
			Token string `json:"token"`
		} `json:"access"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	rec = do(e, http.MethodGet, "/api/user-auth/me", "", out.Access.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bob@example.com")
}
