package persistence

import (
	"context"
	"fmt"
	"time"

	"plant-shop/internal/catalog/domain/repository"
	"plant-shop/internal/shared/logger"

	"github.com/robfig/cron/v3"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

const trimTimeout = 30 * time.Second

// ChangeLogJanitor trims the change log on a cron schedule.
type ChangeLogJanitor struct {
	sched     *cron.Cron
	changeLog repository.ChangeLog
	logger    logger.Logger
}

// NewChangeLogJanitor validates schedule and registers the trim job. Call Start to run it.
func NewChangeLogJanitor(changeLog repository.ChangeLog, schedule string, log logger.Logger) (*ChangeLogJanitor, error) {
	j := &ChangeLogJanitor{
		sched:     cron.New(cron.WithParser(cronParser)),
		changeLog: changeLog,
		logger:    log.WithComponent("change-log-janitor"),
	}
	if _, err := j.sched.AddFunc(schedule, j.run); err != nil {
		return nil, fmt.Errorf("invalid change log trim schedule %q: %w", schedule, err)
	}
	return j, nil
}

// Start begins running the job in the background.
func (j *ChangeLogJanitor) Start() {
	j.sched.Start()
}

// Stop halts the scheduler and waits for a running trim to finish.
func (j *ChangeLogJanitor) Stop() {
	<-j.sched.Stop().Done()
}

func (j *ChangeLogJanitor) run() {
	defer func() {
		if err := recover(); err != nil {
			j.logger.Errorf("change log trim panicked: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), trimTimeout)
	defer cancel()

	if _, err := j.changeLog.Trim(ctx); err != nil {
		j.logger.Warnf("change log trim failed: %v", err)
	}
}
