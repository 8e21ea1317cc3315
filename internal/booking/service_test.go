package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticket-booking/internal/logger"
	"github.com/iliyamo/cinema-ticket-booking/internal/model"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository/memstore"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) BookingConfirmed(ctx context.Context, b *model.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockPublisher) BookingCancelled(ctx context.Context, b *model.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

var fixedNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *Service
	bookings *memstore.Bookings
	movies   *memstore.Movies
	dune     *model.Movie
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()
	movies := memstore.NewMovies()
	dune := &model.Movie{
		Title:    "Dune",
		Duration: "2h 46m",
		Hall:     "Hall 1",
		Image:    "dune.jpg",
		Status:   model.MovieActive,
		Showtimes: []model.MovieShowtime{
			{Date: "2024-01-01", Time: "19:00", PriceCents: 1250},
			{Date: "2024-01-01", Time: "22:00", PriceCents: 1400},
		},
	}
	require.NoError(t, movies.Create(ctx, dune))
	legacy := &model.Movie{Title: "Casablanca", Hall: "Hall 2", Status: model.MovieActive}
	require.NoError(t, movies.Create(ctx, legacy))

	bookings := memstore.NewBookings()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	svc := NewService(bookings, movies, logger.Discard(), DefaultSeatPriceCents, opts...)
	return &fixture{svc: svc, bookings: bookings, movies: movies, dune: dune}
}

func duneRequest(user string, seats ...string) CreateRequest {
	return CreateRequest{UserID: user, MovieTitle: "Dune", Date: "2024-01-01", Time: "19:00", Seats: seats}
}

func TestCreateBooking_Dune(t *testing.T) {
	f := newFixture(t)
	b, err := f.svc.CreateBooking(context.Background(), duneRequest("u1", "A1", "A2"))
	require.NoError(t, err)

	assert.Equal(t, model.StatusConfirmed, b.Status)
	assert.Equal(t, int64(1250), b.Pricing.PricePerSeatCents)
	assert.Equal(t, 2, b.Pricing.SeatCount)
	assert.Equal(t, int64(2500), b.Pricing.TotalAmountCents)
	assert.Equal(t, []string{"A1", "A2"}, b.Seats)
	assert.Regexp(t, `^RES-[0-9A-Z]+-[0-9A-Z]{4}$`, b.BookingID)
	assert.Equal(t, "Dune", b.Movie.Title)
	assert.Equal(t, f.dune.ID, b.Movie.ID)
	require.NotNil(t, b.Movie.ImageURL)
	assert.Equal(t, "dune.jpg", *b.Movie.ImageURL)
	assert.Equal(t, fixedNow, b.CreatedAt)

	held, err := f.svc.HeldSeats(context.Background(), "Dune", "2024-01-01", "19:00")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, held)
}

func TestCreateBooking_SecondRequestConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.CreateBooking(ctx, duneRequest("u1", "A1", "A2"))
	require.NoError(t, err)

	_, err = f.svc.CreateBooking(ctx, duneRequest("u2", "A1", "B5"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSeatConflict)
	var sc *SeatConflictError
	require.True(t, errors.As(err, &sc))
	assert.Equal(t, []string{"A1"}, sc.Seats)

	// Nothing of the failed request was written.
	held, err := f.svc.HeldSeats(ctx, "Dune", "2024-01-01", "19:00")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, held)

	// Same seat at another showing is free.
	other := duneRequest("u2", "A1")
	other.Time = "22:00"
	b, err := f.svc.CreateBooking(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, int64(1400), b.Pricing.TotalAmountCents)
}

func TestCreateBooking_SeatsNormalised(t *testing.T) {
	f := newFixture(t)
	b, err := f.svc.CreateBooking(context.Background(), duneRequest("u1", "b3", " a12", "B3"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A12", "B3"}, b.Seats)
	assert.Equal(t, int64(2500), b.Pricing.TotalAmountCents)
}

func TestCreateBooking_InvalidRequests(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cases := map[string]CreateRequest{
		"no user":      {MovieTitle: "Dune", Date: "2024-01-01", Time: "19:00", Seats: []string{"A1"}},
		"no movie":     {UserID: "u1", Date: "2024-01-01", Time: "19:00", Seats: []string{"A1"}},
		"no date":      {UserID: "u1", MovieTitle: "Dune", Time: "19:00", Seats: []string{"A1"}},
		"no seats":     duneRequest("u1"),
		"unknown seat": duneRequest("u1", "A1", "Q9"),
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.CreateBooking(ctx, req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
	n, _ := f.bookings.Count(ctx)
	assert.Zero(t, n)
}

func TestCreateBooking_ShowtimeAndFallbackPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := duneRequest("u1", "A1")
	req.Time = "10:00"
	_, err := f.svc.CreateBooking(ctx, req)
	assert.ErrorIs(t, err, ErrShowtimeNotFound)

	b, err := f.svc.CreateBooking(ctx, CreateRequest{
		UserID: "u1", MovieTitle: "Casablanca", Date: "2024-02-02", Time: "18:00", Seats: []string{"C1", "C2", "C3"},
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultSeatPriceCents, b.Pricing.PricePerSeatCents)
	assert.Equal(t, int64(4500), b.Pricing.TotalAmountCents)
	assert.Nil(t, b.Movie.ImageURL)
}

func TestCreateBooking_UnknownMovie(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateBooking(context.Background(), CreateRequest{
		UserID: "u1", MovieID: "nope", Date: "2024-01-01", Time: "19:00", Seats: []string{"A1"},
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBooking_DuplicateIDRetriedOnce(t *testing.T) {
	ids := []string{"RES-TAKEN-0000", "RES-TAKEN-0000", "RES-FRESH-0001"}
	var i int
	f := newFixture(t, WithIDGenerator(func() string { id := ids[i]; i++; return id }))
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, duneRequest("u1", "A1"))
	require.NoError(t, err)

	b, err := f.svc.CreateBooking(ctx, duneRequest("u2", "A2"))
	require.NoError(t, err)
	assert.Equal(t, "RES-FRESH-0001", b.BookingID)
}

func TestCreateBooking_DuplicateIDTwiceIsInternal(t *testing.T) {
	f := newFixture(t, WithIDGenerator(func() string { return "RES-SAME-0000" }))
	ctx := context.Background()
	_, err := f.svc.CreateBooking(ctx, duneRequest("u1", "A1"))
	require.NoError(t, err)

	_, err = f.svc.CreateBooking(ctx, duneRequest("u2", "A2"))
	assert.ErrorIs(t, err, ErrInternal)

	held, _ := f.svc.HeldSeats(ctx, "Dune", "2024-01-01", "19:00")
	assert.Equal(t, []string{"A1"}, held)
}

func TestCreateBooking_ConcurrentOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const attempts = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		won     []*model.Booking
		clashes int
	)
	for n := 0; n < attempts; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			// Every request wants A5 plus one seat of its own.
			b, err := f.svc.CreateBooking(ctx, duneRequest(fmt.Sprintf("u%d", n), "A5", fmt.Sprintf("C%d", n%12+1)))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				won = append(won, b)
				return
			}
			if errors.Is(err, ErrSeatConflict) {
				clashes++
			}
		}(n)
	}
	wg.Wait()

	require.Len(t, won, 1)
	assert.Equal(t, attempts-1, clashes)

	held, err := f.svc.HeldSeats(ctx, "Dune", "2024-01-01", "19:00")
	require.NoError(t, err)
	assert.ElementsMatch(t, won[0].Seats, held)
}

func TestHeldSeats_RequiresAllFields(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.HeldSeats(context.Background(), "Dune", "", "19:00")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestHeldSeats_TitleCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.CreateBooking(ctx, CreateRequest{
		UserID: "u1", MovieTitle: "dune", Date: "2024-01-01", Time: "19:00", Seats: []string{"A1", "A2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Dune", b.Movie.Title)

	for _, title := range []string{"dune", "Dune", " DUNE "} {
		held, err := f.svc.HeldSeats(ctx, title, "2024-01-01", "19:00")
		require.NoError(t, err)
		assert.Equal(t, []string{"A1", "A2"}, held, title)
	}

	held, err := f.svc.HeldSeats(ctx, "Nosferatu", "2024-01-01", "19:00")
	require.NoError(t, err)
	assert.Empty(t, held)
}

func TestRenamedMovieKeepsItsSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.svc.CreateBooking(ctx, duneRequest("u1", "A1"))
	require.NoError(t, err)

	renamed, err := f.movies.GetByID(ctx, f.dune.ID)
	require.NoError(t, err)
	renamed.Title = "Dune: Part One"
	require.NoError(t, f.movies.Update(ctx, renamed))

	_, err = f.svc.CreateBooking(ctx, CreateRequest{
		UserID: "u2", MovieID: f.dune.ID, Date: "2024-01-01", Time: "19:00", Seats: []string{"A1"},
	})
	assert.ErrorIs(t, err, ErrSeatConflict)

	held, err := f.svc.HeldSeats(ctx, "Dune: Part One", "2024-01-01", "19:00")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, held)

	n, err := f.svc.CancelForDeletedMovie(ctx, f.dune.ID, "Dune: Part One")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, err := f.svc.Get(ctx, first.BookingID, Actor{Admin: true})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)
	assert.Equal(t, "Dune", got.Movie.Title)

	_, err = f.svc.CancelForDeletedMovie(ctx, "", " ")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestSetStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.CreateBooking(ctx, duneRequest("u1", "A1"))
	require.NoError(t, err)

	same, err := f.svc.SetStatus(ctx, b.BookingID, model.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, same.Status)

	_, err = f.svc.SetStatus(ctx, b.BookingID, model.StatusPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	cancelled, err := f.svc.SetStatus(ctx, b.BookingID, model.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancellationReason)
	assert.Equal(t, model.ReasonAdminCancelled, *cancelled.CancellationReason)

	_, err = f.svc.SetStatus(ctx, b.BookingID, model.StatusPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.svc.SetStatus(ctx, b.BookingID, model.StatusConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	again, err := f.svc.SetStatus(ctx, b.BookingID, model.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, again.Status)

	_, err = f.svc.SetStatus(ctx, "RES-NOPE", model.StatusConfirmed)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.SetStatus(ctx, b.BookingID, "archived")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestSetStatus_PendingToConfirmed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.bookings.Insert(ctx, &model.Booking{
		BookingID: "RES-P-0001", UserID: "u1",
		Movie:    model.MovieSnapshot{Title: "Dune"},
		Seats:    []string{"D4"},
		Showtime: model.Slot{Date: "2024-01-01", Time: "19:00"},
		Status:   model.StatusPending,
	}))

	b, err := f.svc.SetStatus(ctx, "RES-P-0001", model.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, b.Status)
	assert.Equal(t, fixedNow, b.UpdatedAt)
}

func TestCancel_IdempotentAndReleasesSeats(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("BookingConfirmed", mock.Anything, mock.Anything).Return(nil)
	pub.On("BookingCancelled", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	f := newFixture(t, WithPublisher(pub))
	ctx := context.Background()

	b, err := f.svc.CreateBooking(ctx, duneRequest("u1", "A1", "A2"))
	require.NoError(t, err)

	c1, err := f.svc.Cancel(ctx, b.BookingID, Actor{UserID: "u1"}, model.ReasonUserCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, c1.Status)
	assert.Equal(t, model.ReasonUserCancelled, *c1.CancellationReason)

	c2, err := f.svc.Cancel(ctx, b.BookingID, Actor{UserID: "u1"}, model.ReasonUserCancelled)
	require.NoError(t, err)
	assert.Equal(t, c1.UpdatedAt, c2.UpdatedAt)

	held, _ := f.svc.HeldSeats(ctx, "Dune", "2024-01-01", "19:00")
	assert.Empty(t, held)

	_, err = f.svc.CreateBooking(ctx, duneRequest("u2", "A1"))
	require.NoError(t, err)

	pub.AssertNumberOfCalls(t, "BookingCancelled", 1)
	pub.AssertNumberOfCalls(t, "BookingConfirmed", 2)
}

func TestCancel_Ownership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.CreateBooking(ctx, duneRequest("u1", "A1"))
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, b.BookingID, Actor{UserID: "u2"}, model.ReasonUserCancelled)
	assert.ErrorIs(t, err, ErrForbidden)

	c, err := f.svc.Cancel(ctx, b.BookingID, Actor{UserID: "admin", Admin: true}, model.ReasonAdminCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.ReasonAdminCancelled, *c.CancellationReason)
}

func TestValidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.CreateBooking(ctx, duneRequest("u1", "A1"))
	require.NoError(t, err)

	v, err := f.svc.Validate(ctx, b.BookingID, "", true)
	require.NoError(t, err)
	assert.True(t, v.IsValidated)
	require.NotNil(t, v.ValidatedAt)
	assert.Equal(t, fixedNow, *v.ValidatedAt)
	assert.Equal(t, DefaultValidatorName, *v.ValidatedBy)
	assert.Equal(t, model.StatusConfirmed, v.Status)

	u, err := f.svc.Validate(ctx, b.BookingID, "Sara", false)
	require.NoError(t, err)
	assert.False(t, u.IsValidated)
	assert.Nil(t, u.ValidatedAt)
	assert.Nil(t, u.ValidatedBy)
	assert.Equal(t, model.StatusConfirmed, u.Status, "un-validating leaves status alone")

	_, err = f.svc.Cancel(ctx, b.BookingID, Actor{Admin: true}, model.ReasonAdminCancelled)
	require.NoError(t, err)
	_, err = f.svc.Validate(ctx, b.BookingID, "Sara", true)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.svc.Validate(ctx, "RES-NOPE", "Sara", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelForDeletedMovie(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d1, err := f.svc.CreateBooking(ctx, duneRequest("u1", "A1"))
	require.NoError(t, err)
	d2, err := f.svc.CreateBooking(ctx, duneRequest("u2", "A2"))
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, d2.BookingID, Actor{UserID: "u2"}, model.ReasonUserCancelled)
	require.NoError(t, err)
	other, err := f.svc.CreateBooking(ctx, CreateRequest{
		UserID: "u3", MovieTitle: "Casablanca", Date: "2024-02-02", Time: "18:00", Seats: []string{"A1"},
	})
	require.NoError(t, err)

	n, err := f.svc.CancelForDeletedMovie(ctx, f.dune.ID, "Dune")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.svc.Get(ctx, d1.BookingID, Actor{Admin: true})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)
	assert.Equal(t, model.ReasonMovieDeleted, *got.CancellationReason)
	assert.Nil(t, got.Movie.ImageURL)

	got2, _ := f.svc.Get(ctx, d2.BookingID, Actor{Admin: true})
	assert.Equal(t, model.ReasonUserCancelled, *got2.CancellationReason)
	assert.Nil(t, got2.Movie.ImageURL)

	untouched, _ := f.svc.Get(ctx, other.BookingID, Actor{Admin: true})
	assert.Equal(t, model.StatusConfirmed, untouched.Status)
	assert.Nil(t, untouched.CancellationReason)

	n, err = f.svc.CancelForDeletedMovie(ctx, f.dune.ID, "Dune")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGet_Ownership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b, err := f.svc.CreateBooking(ctx, duneRequest("u1", "A1"))
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, b.BookingID, Actor{UserID: "u2"})
	assert.ErrorIs(t, err, ErrForbidden)
	got, err := f.svc.Get(ctx, b.BookingID, Actor{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, b.BookingID, got.BookingID)
}

func TestScrubPlaceholderImages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.dune.Image = "https://via.placeholder.com/300"
	require.NoError(t, f.movies.Update(ctx, f.dune))

	_, err := f.svc.CreateBooking(ctx, duneRequest("u1", "A1"))
	require.NoError(t, err)
	n, err := f.svc.ScrubPlaceholderImages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
