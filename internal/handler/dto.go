package handler

import (
	"time"

	"github.com/iliyamo/cinema-ticket-booking/internal/model"
	"github.com/iliyamo/cinema-ticket-booking/internal/utils"
)

// Response shapes.  Amounts leave the service as decimals; everything
// below the handlers works in cents.

type movieSnapshotDTO struct {
	ID       string  `json:"id,omitempty"`
	Title    string  `json:"title"`
	Duration string  `json:"duration"`
	Hall     string  `json:"hall"`
	ImageURL *string `json:"imageUrl"`
}

type showtimeDTO struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type pricingDTO struct {
	PricePerSeat float64 `json:"pricePerSeat"`
	TotalSeats   int     `json:"totalSeats"`
	TotalAmount  float64 `json:"totalAmount"`
}

type bookingDTO struct {
	BookingID          string           `json:"bookingId"`
	UserID             string           `json:"userId"`
	Movie              movieSnapshotDTO `json:"movie"`
	Seats              []string         `json:"seats"`
	Showtime           showtimeDTO      `json:"showtime"`
	Pricing            pricingDTO       `json:"pricing"`
	Status             string           `json:"status"`
	IsValidated        bool             `json:"isValidated"`
	ValidatedAt        *time.Time       `json:"validatedAt"`
	ValidatedBy        *string          `json:"validatedBy"`
	CancellationReason *string          `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

func toBookingDTO(b *model.Booking) bookingDTO {
	out := bookingDTO{
		BookingID: b.BookingID,
		UserID:    b.UserID,
		Movie: movieSnapshotDTO{
			ID:       b.Movie.ID,
			Title:    b.Movie.Title,
			Duration: b.Movie.Duration,
			Hall:     b.Movie.Hall,
			ImageURL: b.Movie.ImageURL,
		},
		Seats:    b.Seats,
		Showtime: showtimeDTO{Date: b.Showtime.Date, Time: b.Showtime.Time},
		Pricing: pricingDTO{
			PricePerSeat: utils.CentsToAmount(b.Pricing.PricePerSeatCents),
			TotalSeats:   b.Pricing.SeatCount,
			TotalAmount:  utils.CentsToAmount(b.Pricing.TotalAmountCents),
		},
		Status:      string(b.Status),
		IsValidated: b.IsValidated,
		ValidatedAt: b.ValidatedAt,
		ValidatedBy: b.ValidatedBy,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	if b.CancellationReason != nil {
		r := string(*b.CancellationReason)
		out.CancellationReason = &r
	}
	return out
}

func toBookingDTOs(in []*model.Booking) []bookingDTO {
	out := make([]bookingDTO, 0, len(in))
	for _, b := range in {
		out = append(out, toBookingDTO(b))
	}
	return out
}

type movieShowtimeDTO struct {
	Date  string  `json:"date"`
	Time  string  `json:"time"`
	Price float64 `json:"price"`
}

type movieDTO struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Duration    string             `json:"duration"`
	Hall        string             `json:"hall"`
	Image       string             `json:"image"`
	Showtimes   []movieShowtimeDTO `json:"showtimes"`
	Times       []string           `json:"times"`
	Genre       string             `json:"genre"`
	Description string             `json:"description"`
	Status      string             `json:"status"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

func toMovieDTO(m *model.Movie) movieDTO {
	sts := make([]movieShowtimeDTO, 0, len(m.Showtimes))
	for _, st := range m.Showtimes {
		sts = append(sts, movieShowtimeDTO{Date: st.Date, Time: st.Time, Price: utils.CentsToAmount(st.PriceCents)})
	}
	times := m.Times
	if times == nil {
		times = []string{}
	}
	return movieDTO{
		ID:          m.ID,
		Title:       m.Title,
		Duration:    m.Duration,
		Hall:        m.Hall,
		Image:       m.Image,
		Showtimes:   sts,
		Times:       times,
		Genre:       m.Genre,
		Description: m.Description,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type hallDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Capacity    int       `json:"capacity"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Description string    `json:"description"`
	Amenities   []string  `json:"amenities"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toHallDTO(h *model.Hall) hallDTO {
	am := h.Amenities
	if am == nil {
		am = []string{}
	}
	return hallDTO{
		ID:          h.ID,
		Name:        h.Name,
		Capacity:    h.Capacity,
		Type:        h.Type,
		Status:      h.Status,
		Description: h.Description,
		Amenities:   am,
		CreatedAt:   h.CreatedAt,
		UpdatedAt:   h.UpdatedAt,
	}
}

type userDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role"`
}

func toUserDTO(u *model.User) userDTO {
	return userDTO{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, Role: u.Role}
}
