package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tbourn/dealership-backend/internal/notify"
	"github.com/tbourn/dealership-backend/internal/sysutil"
)

const defaultNotifyTimeout = 5 * time.Second

// deliver sends ev and reports whether it went out. The send is detached
// from ctx cancellation and bounded by timeout. Errors and panics are logged
// and swallowed; there is no retry.
func deliver(ctx context.Context, n notify.Notifier, ev notify.Event, timeout time.Duration) (sent bool) {
	if n == nil {
		return false
	}
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			sysutil.Logger(ctx).Error().Str("kind", string(ev.Kind)).Str("panic", fmt.Sprint(r)).Msg("notification panicked")
			sent = false
		}
	}()

	if err := n.Notify(nctx, ev); err != nil {
		sysutil.Logger(ctx).Warn().Err(err).Str("kind", string(ev.Kind)).Msg("notification failed")
		return false
	}
	return true
}
