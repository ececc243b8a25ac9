package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"receipt_relay/internal/models"
	"receipt_relay/internal/repository"
)

// LogHistoryService serves the durable audit copy of the activity log.
type LogHistoryService struct {
	logRepo repository.LogRepo
}

func NewLogHistoryService(logRepo repository.LogRepo) *LogHistoryService {
	return &LogHistoryService{logRepo: logRepo}
}

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeSeverity trims spaces and uppercases the severity filter.
func normalizeSeverity(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}

	return from, to, normalizeSeverity(f.Severity), nil
}

func (s *LogHistoryService) List(ctx context.Context, f LogFilter) ([]models.LogEntry, error) {
	from, to, severity, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.logRepo.List(ctx, from, to, severity)
}
