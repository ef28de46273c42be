package dispatch

import (
	"log/slog"

	"github.com/example/ride-hail/internal/models"
)

// RideNotifier pushes a ride status update to the driver it concerns.
type RideNotifier interface {
	NotifyRide(driverID int64, update models.RideUpdate) error
}

// SMSSender delivers a one-time passcode to a phone. Real delivery runs
// through an external gateway; this service only hands the code over.
type SMSSender interface {
	SendOTP(phone, code string) error
}

// LogSMS writes the code to the log instead of sending it. Stand-in for
// the SMS gateway in local and test environments.
type LogSMS struct {
	Logger *slog.Logger
}

func (l *LogSMS) SendOTP(phone, code string) error {
	l.Logger.Info("otp issued", "phone", phone, "code", code)
	return nil
}
