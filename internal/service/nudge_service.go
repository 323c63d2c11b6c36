package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-crm-api/internal/models"
	"github.com/noah-isme/academy-crm-api/pkg/jobs"
)

// NudgeKind labels the retention trigger behind a nudge.
type NudgeKind string

const (
	NudgeRenewalDue   NudgeKind = "renewal_due"
	NudgeMilestoneHit NudgeKind = "milestone_hit"
)

// NudgePayload is handed to the notifier; the message transport itself lives
// outside this service.
type NudgePayload struct {
	LeadID    string    `json:"lead_id"`
	StudentID string    `json:"student_id"`
	Kind      NudgeKind `json:"kind"`
	SentAt    time.Time `json:"sent_at"`
}

// Notifier delivers a nudge through an external channel.
type Notifier interface {
	SendNudge(ctx context.Context, payload NudgePayload) error
}

// LogNotifier writes nudges to the log. Stands in until the messaging
// provider integration lands.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs the logging notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// SendNudge implements Notifier.
func (n *LogNotifier) SendNudge(_ context.Context, payload NudgePayload) error {
	n.logger.Info("nudge dispatched",
		zap.String("lead_id", payload.LeadID),
		zap.String("student_id", payload.StudentID),
		zap.String("kind", string(payload.Kind)))
	return nil
}

type nudgeLeadRepository interface {
	FindByID(ctx context.Context, id string) (*models.Lead, error)
	IncrementNudgeCount(ctx context.Context, id string) error
}

// NudgeServiceConfig tunes dispatch behaviour.
type NudgeServiceConfig struct {
	Workers     int
	BufferSize  int
	MaxRetries  int
	RetryDelay  time.Duration
	MaxPerLead  int
	RenewalDays int
	Scheme      models.MilestoneScheme
}

// NudgeService scans retention signals and pushes nudge jobs to the notifier
// through an in-memory queue. Each lead carries a bounded nudge counter so a
// stuck signal cannot spam a family.
type NudgeService struct {
	retention renewalDetector
	leads     nudgeLeadRepository
	notifier  Notifier
	metrics   *MetricsService
	logger    *zap.Logger
	queue     *jobs.Queue
	cfg       NudgeServiceConfig
}

// NewNudgeService constructs the nudge dispatcher.
func NewNudgeService(retention renewalDetector, leads nudgeLeadRepository, notifier Notifier, metrics *MetricsService, logger *zap.Logger, cfg NudgeServiceConfig) *NudgeService {
	if cfg.MaxPerLead <= 0 {
		cfg.MaxPerLead = 3
	}
	if cfg.RenewalDays <= 0 {
		cfg.RenewalDays = 7
	}
	if !cfg.Scheme.Valid() {
		cfg.Scheme = models.MilestoneSchemeWeb
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NudgeService{
		retention: retention,
		leads:     leads,
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
	svc.queue = jobs.NewQueue("nudges", svc.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return svc
}

// Start begins queue consumption.
func (s *NudgeService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains workers.
func (s *NudgeService) Stop() {
	s.queue.Stop()
}

// DispatchDue scans both retention detectors and enqueues one nudge per
// qualifying student. Returns the number of nudges enqueued.
func (s *NudgeService) DispatchDue(ctx context.Context) (int, error) {
	enqueued := 0

	renewals, err := s.retention.RenewalsDue(ctx, s.cfg.RenewalDays)
	if err != nil {
		return 0, err
	}
	enqueued += s.enqueueAll(ctx, renewals, NudgeRenewalDue)

	milestones, err := s.retention.MilestoneStudents(ctx, s.cfg.Scheme)
	if err != nil {
		return enqueued, err
	}
	enqueued += s.enqueueAll(ctx, milestones, NudgeMilestoneHit)

	return enqueued, nil
}

func (s *NudgeService) enqueueAll(ctx context.Context, students []models.Student, kind NudgeKind) int {
	enqueued := 0
	for _, student := range students {
		lead, err := s.leads.FindByID(ctx, student.LeadID)
		if err != nil {
			s.logger.Warn("nudge target lookup failed", zap.String("lead_id", student.LeadID), zap.Error(err))
			continue
		}
		if lead.NudgeCount >= s.cfg.MaxPerLead {
			continue
		}
		payload := NudgePayload{
			LeadID:    student.LeadID,
			StudentID: student.ID,
			Kind:      kind,
			SentAt:    time.Now().UTC(),
		}
		job := jobs.Job{ID: uuid.NewString(), Type: string(kind), Payload: payload}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("nudge enqueue failed", zap.String("lead_id", student.LeadID), zap.Error(err))
			continue
		}
		enqueued++
	}
	return enqueued
}

func (s *NudgeService) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(NudgePayload)
	if !ok {
		return fmt.Errorf("unexpected payload type for job %s", job.ID)
	}
	if err := s.notifier.SendNudge(ctx, payload); err != nil {
		s.metrics.RecordNudge(string(payload.Kind), false)
		return err
	}
	s.metrics.RecordNudge(string(payload.Kind), true)
	if err := s.leads.IncrementNudgeCount(ctx, payload.LeadID); err != nil {
		s.logger.Warn("failed to bump nudge count", zap.String("lead_id", payload.LeadID), zap.Error(err))
	}
	return nil
}
