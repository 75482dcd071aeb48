package services

import (
	"context"
	"time"
)

// notificationTimeout bounds one asynchronous dispatch.
const notificationTimeout = 30 * time.Second

// persistentContext keeps request values (trace ids) but drops the request's
// cancellation, so work started after a response is written still completes.
func persistentContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}

func detachedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(persistentContext(ctx), notificationTimeout)
}
