package jobs

import (
	"context"
	"log/slog"
)

type OTPSweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// SweepExpiredOTPs deletes password reset codes past their expiry.
func SweepExpiredOTPs(ctx context.Context, sweeper OTPSweeper) {
	n, err := sweeper.Sweep(ctx)
	if err != nil {
		slog.Error("error sweeping expired otps", "error", err)
		return
	}
	if n > 0 {
		slog.Info("expired otps removed", "count", n)
	}
}
