package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/datafokus/bizplan_backend/config"
	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"
)

const DefaultTimezone = "Asia/Jakarta"

// ConvertToDate truncates t to its calendar date in the given timezone and
// returns midnight UTC of that date. The MySQL driver renders time values in
// UTC on write; anchoring the date at UTC midnight keeps the stored DATE (and
// SQL MONTH()/YEAR() bucketing) on the calendar day the user entered instead
// of shifting first-of-month rows into the neighboring month.
func ConvertToDate(t time.Time, timezone string) (time.Time, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}

	location, err := time.LoadLocation(timezone)
	if err != nil {
		return t, err
	}
	localTime := t.In(location)

	dateOnly := time.Date(localTime.Year(), localTime.Month(), localTime.Day(), 0, 0, 0, 0, time.UTC)
	return dateOnly, nil
}

// ParseDecimal converts a string to a decimal.Decimal value.
func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}

	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}

	return dec, nil
}

// ObtainBusinessLock takes a best-effort Redis lock scoped to one business.
// The caller must Release the returned lock. Reliability must not depend on
// Redis; recompute paths also serialize via MySQL advisory locks.
func ObtainBusinessLock(ctx context.Context, businessId string, lockType string, ttl time.Duration) (*redislock.Lock, error) {
	locker := config.GetRedisLock()
	if locker == nil {
		return nil, errors.New("redis lock not initialized")
	}
	lockKey := fmt.Sprintf("%s:%s", lockType, businessId)
	lock, err := locker.Obtain(ctx, lockKey, ttl, nil)
	if err == redislock.ErrNotObtained {
		return nil, fmt.Errorf("could not obtain lock %s", lockKey)
	} else if err != nil {
		return nil, err
	}
	return lock, nil
}
