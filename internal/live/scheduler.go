package live

import (
	"sync"
	"time"
)

// Task is a handle on a repeating job. Stop is idempotent and may be called
// from inside the job itself.
type Task interface {
	Stop()
}

type Scheduler interface {
	Every(interval time.Duration, fn func()) Task
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// TickerScheduler runs fn on its own goroutine. Runs never overlap: a slow
// fn delays the next tick instead of racing it.
type TickerScheduler struct{}

func (TickerScheduler) Every(interval time.Duration, fn func()) Task {
	t := &tickerTask{done: make(chan struct{})}
	go t.run(interval, fn)
	return t
}

type tickerTask struct {
	once sync.Once
	done chan struct{}
}

func (t *tickerTask) Stop() {
	t.once.Do(func() { close(t.done) })
}

func (t *tickerTask) run(interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			select {
			case <-t.done:
				return
			default:
			}
			fn()
		}
	}
}
