package service

import (
	"context"
	"time"

	"receipt_relay/internal/logger"
	"receipt_relay/internal/models"
	"receipt_relay/internal/repository"
)

// StatusRecorderService samples the pipeline status on a fixed tick and
// persists transitions, so the dashboard shows the last-known state across
// agent restarts.
type StatusRecorderService struct {
	status     Status
	statusRepo repository.StatusRepo
	log        *logger.Logger
}

var _ StatusRecorder = (*StatusRecorderService)(nil)

func NewStatusRecorderService(status Status, statusRepo repository.StatusRepo, log *logger.Logger) *StatusRecorderService {
	return &StatusRecorderService{
		status:     status,
		statusRepo: statusRepo,
		log:        log,
	}
}

// Run ticks at the given interval until ctx is canceled, saving the status
// only when something other than the timestamp changed.
func (s *StatusRecorderService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()

	last, err := s.statusRepo.Load(ctx)
	if err != nil && s.log != nil {
		s.log.Errorw("status_load_failed", "err", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			cur := s.status.GetStatus()
			if !statusChanged(last, cur) {
				continue
			}
			cur.UpdatedAt = now.UTC()
			if err := s.statusRepo.Save(ctx, cur); err != nil {
				if s.log != nil {
					s.log.Errorw("status_save_failed", "err", err)
				}
				continue
			}
			if s.log != nil {
				s.log.Infow("pipeline_status_changed",
					"printer_connected", cur.Printer.IsConnected,
					"device", cur.Printer.DeviceName,
					"transport_connected", cur.TransportConnected,
					"active", cur.Active,
				)
			}
			last = cur
		}
	}
}

// statusChanged compares everything except the timestamp.
func statusChanged(a, b models.PipelineStatus) bool {
	return a.Printer != b.Printer ||
		a.TransportConnected != b.TransportConnected ||
		a.Active != b.Active
}
