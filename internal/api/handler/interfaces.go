package handler

import (
	"context"
	"time"

	"github.com/sanosuguru/go-calendar-booking/internal/application"
	"github.com/sanosuguru/go-calendar-booking/internal/domain/client"
	"github.com/sanosuguru/go-calendar-booking/internal/domain/owner"
	"github.com/sanosuguru/go-calendar-booking/internal/domain/reservation"
)

// ReservationServiceInterface は予約サービスのインターフェース
type ReservationServiceInterface interface {
	application.OverlapChecker
	ReplayIdempotent(ctx context.Context, key string) (*reservation.View, bool)
	CreateReservation(ctx context.Context, input application.CreateReservationInput) (*reservation.Reservation, error)
	GetReservation(ctx context.Context, id string) (*reservation.View, error)
	ListWeek(ctx context.Context, day time.Time) ([]*reservation.View, reservation.Interval, error)
}

// DirectoryServiceInterface はオーナーとクライアントの参照サービスのインターフェース
type DirectoryServiceInterface interface {
	ListOwners(ctx context.Context) ([]*owner.Owner, error)
	ListClients(ctx context.Context) ([]*client.Client, error)
	OwnerExists(ctx context.Context, id string) (bool, error)
	ClientExists(ctx context.Context, id string) (bool, error)
}
