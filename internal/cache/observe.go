package cache

import "context"

// observe turns a list query plus a watch-hub topic into a restartable
// stream. The current snapshot is emitted immediately, then again after
// every write signal. Query failures are skipped; the next signal retries.
func observe[T any](ctx context.Context, h *hub, topic string, list func(context.Context) ([]T, error)) <-chan []T {
	out := make(chan []T, 1)
	sig, cancel := h.subscribe(topic)

	go func() {
		defer close(out)
		defer cancel()

		for {
			items, err := list(ctx)
			if err == nil {
				select {
				case out <- items:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-sig:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
