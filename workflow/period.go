package workflow

import (
	"fmt"
	"time"
)

// PeriodKey identifies one financial summary: a (user, business, calendar
// month, calendar year) tuple. Every recompute and every cascade step is
// scoped to exactly one key.
type PeriodKey struct {
	UserId     int
	BusinessId string
	Month      int
	Year       int
}

func PeriodOfDate(userId int, businessId string, date time.Time) PeriodKey {
	return PeriodKey{
		UserId:     userId,
		BusinessId: businessId,
		Month:      int(date.Month()),
		Year:       date.Year(),
	}
}

func (k PeriodKey) Validate() error {
	if k.UserId <= 0 {
		return fmt.Errorf("invalid period key: user_id=%d", k.UserId)
	}
	if k.BusinessId == "" {
		return fmt.Errorf("invalid period key: empty business_id")
	}
	if k.Month < 1 || k.Month > 12 {
		return fmt.Errorf("invalid period key: month=%d", k.Month)
	}
	if k.Year <= 0 {
		return fmt.Errorf("invalid period key: year=%d", k.Year)
	}
	return nil
}

// Next returns the immediately following calendar month, rolling the year
// over December.
func (k PeriodKey) Next() PeriodKey {
	if k.Month == 12 {
		return PeriodKey{UserId: k.UserId, BusinessId: k.BusinessId, Month: 1, Year: k.Year + 1}
	}
	return PeriodKey{UserId: k.UserId, BusinessId: k.BusinessId, Month: k.Month + 1, Year: k.Year}
}

// Previous returns the immediately preceding calendar month.
func (k PeriodKey) Previous() PeriodKey {
	if k.Month == 1 {
		return PeriodKey{UserId: k.UserId, BusinessId: k.BusinessId, Month: 12, Year: k.Year - 1}
	}
	return PeriodKey{UserId: k.UserId, BusinessId: k.BusinessId, Month: k.Month - 1, Year: k.Year}
}

func (k PeriodKey) String() string {
	return fmt.Sprintf("user=%d business=%s period=%04d-%02d", k.UserId, k.BusinessId, k.Year, k.Month)
}
