package service

import (
	"context"

	"github.com/runnerstay/booking-service/internal/models"
	"github.com/runnerstay/booking-service/internal/repository"
)

// RaceService backs the read-only race status endpoint. Races are written
// by booking transitions and the subscription flows, never directly here.
type RaceService interface {
	Get(ctx context.Context, id uint) (*models.Race, error)
}

type raceService struct {
	races repository.RaceRepository
}

func NewRaceService(races repository.RaceRepository) RaceService {
	return &raceService{races: races}
}

func (s *raceService) Get(ctx context.Context, id uint) (*models.Race, error) {
	race, err := s.races.FindByID(ctx, id)
	if err != nil {
		return nil, ErrRaceNotFound
	}
	return race, nil
}
