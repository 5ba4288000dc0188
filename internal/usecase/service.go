package usecase

import (
	"appointment-booking/internal/data/repository"
	"appointment-booking/pkg/events"
	"appointment-booking/pkg/ratelimit"
	"appointment-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Booking BookingService
}

func NewService(repo *repository.Repository, exec TxRunner, limiter ratelimit.Limiter, pub events.Publisher, config *utils.Config, log *zap.Logger) *Service {
	return &Service{
		Booking: NewBookingService(repo, exec, limiter, pub, config.Booking, log),
	}
}
