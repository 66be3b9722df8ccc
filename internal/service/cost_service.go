package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/runnerstay/booking-service/config"
	"github.com/runnerstay/booking-service/internal/repository"
)

var (
	ErrInvalidDateRange = errors.New("check-out must be after check-in")
	ErrRaceNotFound     = errors.New("race not found")
)

// provinceRates maps a normalized province name to points per night.
// Provinces missing from the table fall back to the configured default
// rather than failing the booking.
var provinceRates = map[string]int{
	"madrid":                 45,
	"barcelona":              45,
	"illes balears":          50,
	"valencia":               35,
	"sevilla":                35,
	"malaga":                 35,
	"cadiz":                  35,
	"girona":                 35,
	"navarra":                35,
	"bizkaia":                40,
	"gipuzkoa":               40,
	"las palmas":             40,
	"santa cruz de tenerife": 40,
	"zaragoza":               30,
	"alicante":               30,
	"granada":                30,
	"murcia":                 30,
	"asturias":               30,
	"cantabria":              30,
	"tarragona":              30,
	"cordoba":                30,
	"valladolid":             28,
	"leon":                   25,
	"salamanca":              25,
	"badajoz":                25,
	"huesca":                 25,
	"la rioja":               25,
}

type CostService interface {
	PointsPerNight(province string) int
	Nights(checkIn, checkOut time.Time) (int, error)
	EstimateCost(province string, checkIn, checkOut time.Time) (int, error)
	CalculateBookingCost(ctx context.Context, raceID uint, checkIn, checkOut time.Time) (int, error)
}

type costService struct {
	races        repository.RaceRepository
	rates        map[string]int
	fallbackRate int
}

func NewCostService(races repository.RaceRepository, cfg *config.Config) CostService {
	return &costService{
		races:        races,
		rates:        provinceRates,
		fallbackRate: cfg.FallbackRatePerNight,
	}
}

// NewCostServiceWithRates substitutes the rate table, used in tests.
func NewCostServiceWithRates(races repository.RaceRepository, rates map[string]int, fallbackRate int) CostService {
	return &costService{races: races, rates: rates, fallbackRate: fallbackRate}
}

func (s *costService) PointsPerNight(province string) int {
	if rate, ok := s.rates[normalizeProvince(province)]; ok {
		return rate
	}
	return s.fallbackRate
}

// Nights counts whole nights between check-in and check-out, rounding
// partial days up.
func (s *costService) Nights(checkIn, checkOut time.Time) (int, error) {
	d := checkOut.Sub(checkIn)
	if d <= 0 {
		return 0, ErrInvalidDateRange
	}
	nights := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		nights++
	}
	return nights, nil
}

// EstimateCost is pure: the same inputs always produce the same cost and
// nothing is written. It backs CalculateBookingCost when the race row has
// no usable province.
func (s *costService) EstimateCost(province string, checkIn, checkOut time.Time) (int, error) {
	nights, err := s.Nights(checkIn, checkOut)
	if err != nil {
		return 0, err
	}
	return nights * s.PointsPerNight(province), nil
}

// CalculateBookingCost prices a stay from the race's province. The race's
// own province wins; an empty one falls through to the property's, and an
// unknown province prices at the fallback rate.
func (s *costService) CalculateBookingCost(ctx context.Context, raceID uint, checkIn, checkOut time.Time) (int, error) {
	race, err := s.races.FindByID(ctx, raceID)
	if err != nil {
		return 0, ErrRaceNotFound
	}
	province := race.Province
	if province == "" && race.Property != nil {
		province = race.Property.Province
	}
	return s.EstimateCost(province, checkIn, checkOut)
}

func normalizeProvince(province string) string {
	return strings.ToLower(strings.TrimSpace(province))
}
