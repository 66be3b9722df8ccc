package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/runnerstay/booking-service/internal/dto"
	"github.com/runnerstay/booking-service/internal/models"
	"github.com/runnerstay/booking-service/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBookingService lets each test plug in just the method it exercises.
type mockBookingService struct {
	createFn        func(ctx context.Context, in service.CreateBookingInput) (*models.Booking, error)
	acceptFn        func(ctx context.Context, bookingID, hostID uint) (*models.Booking, error)
	rejectFn        func(ctx context.Context, bookingID, hostID uint) (*models.Booking, error)
	cancelByGuestFn func(ctx context.Context, bookingID, guestID uint, reason string) (*models.Booking, error)
	cancelByHostFn  func(ctx context.Context, bookingID, hostID uint, reason string) (*models.Booking, error)
	getFn           func(ctx context.Context, id uint) (*models.Booking, error)
	listByGuestFn   func(ctx context.Context, guestID uint, status *models.BookingStatus) ([]models.Booking, error)
	listByHostFn    func(ctx context.Context, hostID uint, status *models.BookingStatus) ([]models.Booking, error)
}

func (m *mockBookingService) Create(ctx context.Context, in service.CreateBookingInput) (*models.Booking, error) {
	return m.createFn(ctx, in)
}

func (m *mockBookingService) Accept(ctx context.Context, bookingID, hostID uint) (*models.Booking, error) {
	return m.acceptFn(ctx, bookingID, hostID)
}

func (m *mockBookingService) Reject(ctx context.Context, bookingID, hostID uint) (*models.Booking, error) {
	return m.rejectFn(ctx, bookingID, hostID)
}

func (m *mockBookingService) CancelByGuest(ctx context.Context, bookingID, guestID uint, reason string) (*models.Booking, error) {
	return m.cancelByGuestFn(ctx, bookingID, guestID, reason)
}

func (m *mockBookingService) CancelByHost(ctx context.Context, bookingID, hostID uint, reason string) (*models.Booking, error) {
	return m.cancelByHostFn(ctx, bookingID, hostID, reason)
}

func (m *mockBookingService) CancelByPlatform(ctx context.Context, bookingID uint, reason string) error {
	return nil
}

func (m *mockBookingService) Get(ctx context.Context, id uint) (*models.Booking, error) {
	return m.getFn(ctx, id)
}

func (m *mockBookingService) ListByGuest(ctx context.Context, guestID uint, status *models.BookingStatus) ([]models.Booking, error) {
	return m.listByGuestFn(ctx, guestID, status)
}

func (m *mockBookingService) ListByHost(ctx context.Context, hostID uint, status *models.BookingStatus) ([]models.Booking, error) {
	return m.listByHostFn(ctx, hostID, status)
}

func (m *mockBookingService) ExpireSweep(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

func (m *mockBookingService) AutoConfirmSweep(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

func (m *mockBookingService) AutoCompleteSweep(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

func doRequest(t *testing.T, svc service.BookingService, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	NewBookingHandler(svc).RegisterRoutes(e)

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreateBookingEndpoint(t *testing.T) {
	svc := &mockBookingService{
		createFn: func(ctx context.Context, in service.CreateBookingInput) (*models.Booking, error) {
			assert.Equal(t, uint(3), in.GuestID)
			assert.Equal(t, uint(9), in.RaceID)
			assert.Equal(t, 2, in.Guests)
			return &models.Booking{ID: 1, GuestID: in.GuestID, RaceID: in.RaceID, PointsCost: 60, Status: models.StatusPending}, nil
		},
	}

	rec := doRequest(t, svc, http.MethodPost, "/api/v1/bookings",
		`{"guest_id":3,"race_id":9,"check_in":"2026-10-01T00:00:00Z","check_out":"2026-10-03T00:00:00Z","guests":2}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"points_cost":60`)
	assert.Contains(t, rec.Body.String(), `"status":"pending"`)
}

func TestCreateBookingEndpoint_MissingFields(t *testing.T) {
	rec := doRequest(t, &mockBookingService{}, http.MethodPost, "/api/v1/bookings", `{"race_id":9}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBookingEndpoint_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"insufficient points", service.ErrInsufficientPoints, http.StatusPaymentRequired},
		{"race unavailable", service.ErrRaceUnavailable, http.StatusConflict},
		{"dates taken", service.ErrAvailabilityConflict, http.StatusConflict},
		{"inactive account", service.ErrUserInactive, http.StatusForbidden},
		{"own property", service.ErrOwnProperty, http.StatusBadRequest},
		{"unknown race", service.ErrRaceNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockBookingService{
				createFn: func(ctx context.Context, in service.CreateBookingInput) (*models.Booking, error) {
					return nil, tc.err
				},
			}
			rec := doRequest(t, svc, http.MethodPost, "/api/v1/bookings",
				`{"guest_id":3,"race_id":9,"check_in":"2026-10-01T00:00:00Z","check_out":"2026-10-03T00:00:00Z"}`)
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestAcceptBookingEndpoint(t *testing.T) {
	svc := &mockBookingService{
		acceptFn: func(ctx context.Context, bookingID, hostID uint) (*models.Booking, error) {
			assert.Equal(t, uint(7), bookingID)
			assert.Equal(t, uint(2), hostID)
			return &models.Booking{ID: bookingID, HostID: hostID, Status: models.StatusAccepted, ChannelID: "chan-1"}, nil
		},
	}

	rec := doRequest(t, svc, http.MethodPost, "/api/v1/bookings/7/accept", `{"host_id":2}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"accepted"`)
	assert.Contains(t, rec.Body.String(), `"channel_id":"chan-1"`)
}

func TestAcceptBookingEndpoint_Stale(t *testing.T) {
	svc := &mockBookingService{
		acceptFn: func(ctx context.Context, bookingID, hostID uint) (*models.Booking, error) {
			return nil, service.ErrStaleBookingState
		},
	}
	rec := doRequest(t, svc, http.MethodPost, "/api/v1/bookings/7/accept", `{"host_id":2}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAcceptBookingEndpoint_MissingHost(t *testing.T) {
	rec := doRequest(t, &mockBookingService{}, http.MethodPost, "/api/v1/bookings/7/accept", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAcceptBookingEndpoint_BadID(t *testing.T) {
	rec := doRequest(t, &mockBookingService{}, http.MethodPost, "/api/v1/bookings/abc/accept", `{"host_id":2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelBookingEndpoint_RoutesByActor(t *testing.T) {
	var guestCalled, hostCalled bool
	svc := &mockBookingService{
		cancelByGuestFn: func(ctx context.Context, bookingID, guestID uint, reason string) (*models.Booking, error) {
			guestCalled = true
			assert.Equal(t, "change of plans", reason)
			return &models.Booking{ID: bookingID, Status: models.StatusCancelled}, nil
		},
		cancelByHostFn: func(ctx context.Context, bookingID, hostID uint, reason string) (*models.Booking, error) {
			hostCalled = true
			return &models.Booking{ID: bookingID, Status: models.StatusCancelled}, nil
		},
	}

	rec := doRequest(t, svc, http.MethodPost, "/api/v1/bookings/7/cancel",
		`{"user_id":3,"by":"guest","reason":"change of plans"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, guestCalled)

	rec = doRequest(t, svc, http.MethodPost, "/api/v1/bookings/7/cancel", `{"user_id":2,"by":"host"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, hostCalled)

	rec = doRequest(t, svc, http.MethodPost, "/api/v1/bookings/7/cancel", `{"user_id":2,"by":"platform"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetBookingEndpoint_NotFound(t *testing.T) {
	svc := &mockBookingService{
		getFn: func(ctx context.Context, id uint) (*models.Booking, error) {
			return nil, service.ErrBookingNotFound
		},
	}
	rec := doRequest(t, svc, http.MethodGet, "/api/v1/bookings/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListUserBookingsEndpoint(t *testing.T) {
	svc := &mockBookingService{
		listByGuestFn: func(ctx context.Context, guestID uint, status *models.BookingStatus) ([]models.Booking, error) {
			assert.Equal(t, uint(3), guestID)
			require.NotNil(t, status)
			assert.Equal(t, models.StatusPending, *status)
			return []models.Booking{{ID: 1, GuestID: guestID, Status: models.StatusPending}}, nil
		},
		listByHostFn: func(ctx context.Context, hostID uint, status *models.BookingStatus) ([]models.Booking, error) {
			assert.Equal(t, uint(3), hostID)
			assert.Nil(t, status)
			return nil, nil
		},
	}

	rec := doRequest(t, svc, http.MethodGet, "/api/v1/users/3/bookings?status=pending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"pending"`)

	rec = doRequest(t, svc, http.MethodGet, "/api/v1/users/3/bookings?role=host", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp []dto.BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp)
}
