package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquireRollupLock serializes summary recomputation per (user, business)
// across instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB that will do the recompute transaction.
func AcquireRollupLock(tx *gorm.DB, userId int, businessId string) error {
	lockName := fmt.Sprintf("rollup:%d:%s", userId, businessId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire rollup lock for user_id=%d business_id=%s", userId, businessId)
	}
	return nil
}

func ReleaseRollupLock(tx *gorm.DB, userId int, businessId string) {
	lockName := fmt.Sprintf("rollup:%d:%s", userId, businessId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
