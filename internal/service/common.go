package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"contapos/internal/model"
	"contapos/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// emailValidator checks addresses that do not arrive through gin binding
var emailValidator = validator.New()

// parseUserID returns nil for system calls and malformed ids
func parseUserID(userID string) *uuid.UUID {
	if parsed, err := uuid.Parse(userID); err == nil {
		return &parsed
	}
	return nil
}

func parseID(id, entity string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, validationError("invalid %s id", entity)
	}
	return parsed, nil
}

// parseOptionalID accepts an empty string as "not set"
func parseOptionalID(id, entity string) (*uuid.UUID, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	parsed, err := parseID(id, entity)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func writeAudit(ctx context.Context, repo repository.AuditRepository, userID, action, entityID, entityName string, details interface{}) error {
	var payload string
	switch d := details.(type) {
	case nil:
	case string:
		payload = d
	default:
		raw, _ := json.Marshal(d)
		payload = string(raw)
	}

	audit := &model.AuditLog{
		UserID:     parseUserID(userID),
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    payload,
	}
	if err := repo.Log(ctx, audit); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func normalizePage(page, limit, defaultLimit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// money rounds to cents
func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// percentOf returns amount * pct / 100
func percentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred)
}

// DateRange is a half-open [From, To) interval in local time
type DateRange struct {
	From time.Time
	To   time.Time
}

// ParseDateRange reads YYYY-MM-DD bounds. Both ends are inclusive days; a
// missing start means the first day of the current month, a missing end today.
func ParseDateRange(from, to string, now time.Time) (DateRange, error) {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	if from != "" {
		parsed, err := time.ParseInLocation("2006-01-02", from, loc)
		if err != nil {
			return DateRange{}, validationError("invalid from date %q", from)
		}
		start = parsed
	}

	end := today
	if to != "" {
		parsed, err := time.ParseInLocation("2006-01-02", to, loc)
		if err != nil {
			return DateRange{}, validationError("invalid to date %q", to)
		}
		end = parsed
	}
	if end.Before(start) {
		return DateRange{}, validationError("from date is after to date")
	}
	return DateRange{From: start, To: end.AddDate(0, 0, 1)}, nil
}
