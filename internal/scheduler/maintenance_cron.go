package cron

import (
	"context"
	"time"

	"github.com/jo-2640/firstmyapp/internal/jobs"
	"github.com/jo-2640/firstmyapp/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Browse sessions untouched this long are reclaimed.
const browseSessionIdleTTL = 30 * time.Minute

// StartMaintenanceCronJobs schedules the recurring background work:
// purging expired notifications, sweeping stale presence flags, and
// reclaiming abandoned directory browse sessions.
func StartMaintenanceCronJobs(notificationService *services.NotificationService, sweeper *jobs.PresenceSweeper, directory *services.DirectoryService) {
	c := cron.New()

	// Expired notification cleanup
	c.AddFunc("0 3 * * *", func() {
		if err := notificationService.DeleteExpiredNotifications(context.Background()); err != nil {
			logrus.WithError(err).Error("DeleteExpiredNotifications failed")
		}
	})

	// Stale presence sweep
	c.AddFunc("@every 5m", func() {
		if err := sweeper.RunSweep(context.Background()); err != nil {
			logrus.WithError(err).Error("Presence sweep failed")
		}
	})

	// Abandoned browse session cleanup
	c.AddFunc("@every 10m", func() {
		directory.SweepIdleSessions(browseSessionIdleTTL)
	})

	c.Start()
}
