package middleware

import (
	"context"
	"errors"

	"stayrates/internal/app/commands"
)

// PropertyScoped commands mutate one property's pricing state and must be
// serialized against concurrent edits of the same property. Quote reads
// never pass through this middleware.
type PropertyScoped interface {
	commands.Command
	PropertyKey() string
}

var ErrPropertyLocked = errors.New("middleware: property is locked by another edit")

// Locker grants an exclusive, TTL-bounded lock for a key.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

const lockKeyPrefix = "pricing:lock:"

// PropertyLock wraps property-scoped commands in an exclusive per-property
// lock so two edits cannot interleave their apply and sync stages.
func PropertyLock(locker Locker) CommandMiddleware {
	if locker == nil {
		panic("middleware: locker required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			scoped, ok := cmd.(PropertyScoped)
			if !ok || scoped.PropertyKey() == "" {
				return nextFn(ctx, cmd)
			}
			release, err := locker.Acquire(ctx, lockKeyPrefix+scoped.PropertyKey())
			if err != nil {
				return nil, err
			}
			defer release()
			return nextFn(ctx, cmd)
		})
	}
}
