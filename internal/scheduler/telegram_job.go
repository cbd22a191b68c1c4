package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonesrussell/cinefeed/internal/config"
	"github.com/jonesrussell/cinefeed/internal/domain"
	"github.com/jonesrussell/cinefeed/internal/logger"
	"github.com/jonesrussell/cinefeed/internal/telegram"
)

// TelegramJob syncs every configured channel once per cadence. One
// channel's failure never stops the rest of the batch.
type TelegramJob struct {
	cfg    *config.Config
	syncer *telegram.Syncer
	log    logger.Interface
	now    func() time.Time
}

// NewTelegramJob wires the channel-sync cycle.
func NewTelegramJob(cfg *config.Config, syncer *telegram.Syncer, log logger.Interface) *TelegramJob {
	return &TelegramJob{cfg: cfg, syncer: syncer, log: log, now: time.Now}
}

func (j *TelegramJob) Kind() domain.JobKind { return domain.JobTelegram }

func (j *TelegramJob) Interval() time.Duration { return j.cfg.ChannelSyncInterval }

// Run syncs the batch. Status is Ok when every channel synced, Partial
// when some failed, Error when none succeeded.
func (j *TelegramJob) Run(ctx context.Context) (domain.JobStatus, map[string]int, error) {
	channels := j.cfg.TelegramChannels
	res := j.syncer.Sync(ctx, channels, j.cfg.OutDir, j.now().UTC())

	counts := map[string]int{
		"channels": len(channels),
		"synced":   len(res.Synced),
		"failed":   len(res.Failed),
	}

	switch {
	case len(res.Failed) == 0:
		return domain.JobStatusOk, counts, nil
	case len(res.Synced) > 0:
		return domain.JobStatusPartial, counts,
			fmt.Errorf("channels failed: %s", strings.Join(res.Failed, ", "))
	default:
		return domain.JobStatusError, counts,
			fmt.Errorf("all channels failed: %s", strings.Join(res.Failed, ", "))
	}
}
