package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/kmarek/evalarena/internal/adapters/mq/queue"
	"github.com/kmarek/evalarena/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type recordingProcessor struct {
	mu   sync.Mutex
	seen []string
	fail map[string]bool
}

func (p *recordingProcessor) Process(_ context.Context, job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail[job.JobID] {
		return errors.New("boom")
	}
	p.seen = append(p.seen, job.JobID)
	return nil
}

func (p *recordingProcessor) processed() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.seen))
	copy(out, p.seen)
	return out
}

func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestWorker(t *testing.T) {
	Convey("Given a worker over a queue", t, func() {
		q := queue.NewInMemory(queue.WithCapacity(10))
		p := &recordingProcessor{}
		w := New(q, p, WithName("test-worker"))
		ctx := context.Background()

		Convey("When jobs are enqueued", func() {
			go w.Run(ctx)
			q.Enqueue(ctx, Job{JobID: "a"})
			q.Enqueue(ctx, Job{JobID: "b"})

			Convey("Then the worker processes them in order", func() {
				So(waitFor(time.Second, func() bool { return len(p.processed()) == 2 }), ShouldBeTrue)
				So(p.processed(), ShouldResemble, []string{"a", "b"})
				So(w.Shutdown(ctx), ShouldBeNil)
			})
		})

		Convey("When a job fails", func() {
			p.fail = map[string]bool{"bad": true}
			go w.Run(ctx)
			q.Enqueue(ctx, Job{JobID: "bad"})
			q.Enqueue(ctx, Job{JobID: "good"})

			Convey("Then the worker keeps going", func() {
				So(waitFor(time.Second, func() bool { return len(p.processed()) == 1 }), ShouldBeTrue)
				So(p.processed(), ShouldResemble, []string{"good"})
				So(w.Shutdown(ctx), ShouldBeNil)
			})
		})

		Convey("When the queue closes", func() {
			go w.Run(ctx)
			q.Enqueue(ctx, Job{JobID: "a"})
			q.Close()

			Convey("Then the worker drains and stops on its own", func() {
				select {
				case <-w.done:
				case <-time.After(time.Second):
					So("worker did not stop", ShouldBeEmpty)
				}
				So(p.processed(), ShouldResemble, []string{"a"})
			})
		})
	})
}

func TestPool(t *testing.T) {
	Convey("Given a pool of four workers", t, func() {
		q := queue.NewInMemory(queue.WithCapacity(100))
		p := &recordingProcessor{}
		pool := NewPool(4, q, p)
		ctx := context.Background()

		Convey("When many jobs are enqueued", func() {
			pool.Start(ctx)
			for i := 0; i < 40; i++ {
				So(q.Enqueue(ctx, Job{JobID: fmt.Sprintf("job-%d", i)}), ShouldBeTrue)
			}

			Convey("Then every job is processed exactly once", func() {
				So(waitFor(2*time.Second, func() bool { return len(p.processed()) == 40 }), ShouldBeTrue)

				seen := make(map[string]int)
				for _, id := range p.processed() {
					seen[id]++
				}
				So(len(seen), ShouldEqual, 40)
				for _, n := range seen {
					So(n, ShouldEqual, 1)
				}
				So(pool.Shutdown(ctx), ShouldBeNil)
			})
		})

		Convey("When shutting down with a backlog", func() {
			for i := 0; i < 10; i++ {
				q.Enqueue(ctx, Job{JobID: fmt.Sprintf("job-%d", i)})
			}
			pool.Start(ctx)

			Convey("Then the backlog drains before the pool stops", func() {
				So(pool.Shutdown(ctx), ShouldBeNil)
				So(len(p.processed()), ShouldEqual, 10)
			})
		})
	})
}
