package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jo-2640/firstmyapp/internal/repository"
	"github.com/sirupsen/logrus"
)

// staleAfter is how long a user may stay silent before the sweeper
// flips them offline. Clients that disconnect cleanly flip themselves;
// this catches crashed tabs and dropped connections.
const staleAfter = 10 * time.Minute

type PresenceSweeper struct {
	Users *repository.UserRepository
}

// NewPresenceSweeper creates a new instance of PresenceSweeper.
func NewPresenceSweeper(users *repository.UserRepository) *PresenceSweeper {
	return &PresenceSweeper{Users: users}
}

// RunSweep marks users offline whose last activity is older than the
// stale threshold.
func (p *PresenceSweeper) RunSweep(ctx context.Context) error {
	cutoff := time.Now().Add(-staleAfter)
	swept, err := p.Users.MarkStaleOffline(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to sweep stale presence: %v", err)
	}
	if swept > 0 {
		logrus.WithField("count", swept).Info("Marked stale users offline")
	}
	return nil
}
