package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix         = "user:%d"
	BusinessKeyPrefix     = "business:%d"
	PendingQueuePrefix    = "requests:pending:%s"
	NotificationKeyPrefix = "notifications:%d"
)

const (
	UserTTL         = 5 * time.Minute
	BusinessTTL     = 5 * time.Minute
	PendingQueueTTL = time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func BusinessKey(businessID uint) string {
	return fmt.Sprintf(BusinessKeyPrefix, businessID)
}

func PendingQueueKey(requestType string) string {
	return fmt.Sprintf(PendingQueuePrefix, requestType)
}

func NotificationKey(userID uint) string {
	return fmt.Sprintf(NotificationKeyPrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateBusiness(ctx context.Context, businessID uint) {
	Invalidate(ctx, BusinessKey(businessID))
}
