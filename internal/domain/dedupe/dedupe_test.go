package dedupe

import (
	"context"
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSeenAndRecord(t *testing.T) {
	Convey("Given a fresh deduper", t, func() {
		d := NewInMemory()
		ctx := context.Background()

		Convey("When recording a new fingerprint", func() {
			seen := d.SeenAndRecord(ctx, "abc")

			Convey("Then it is not a duplicate the first time", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And it is a duplicate the second time", func() {
				So(d.SeenAndRecord(ctx, "abc"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When unrecording a fingerprint", func() {
			d.SeenAndRecord(ctx, "abc")
			d.Unrecord(ctx, "abc")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "abc"), ShouldBeFalse)
			})
		})

		Convey("When unrecording an unknown fingerprint", func() {
			d.Unrecord(ctx, "never-seen")

			Convey("Then nothing changes", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})
}

func TestEviction(t *testing.T) {
	Convey("Given a deduper bounded at three entries", t, func() {
		d := NewInMemory(WithMaxSize(3))
		ctx := context.Background()

		Convey("When a fourth fingerprint arrives", func() {
			for i := 0; i < 4; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("key-%d", i))
			}

			Convey("Then the oldest entry is forgotten", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "key-0"), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, "key-3"), ShouldBeTrue)
			})
		})
	})
}

func TestConcurrentRecording(t *testing.T) {
	Convey("Given many goroutines racing on the same fingerprint", t, func() {
		d := NewInMemory()
		ctx := context.Background()

		Convey("When they all record at once", func() {
			const goroutines = 32
			firsts := make(chan bool, goroutines)
			var wg sync.WaitGroup
			for i := 0; i < goroutines; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if !d.SeenAndRecord(ctx, "contested") {
						firsts <- true
					}
				}()
			}
			wg.Wait()
			close(firsts)

			Convey("Then exactly one wins", func() {
				So(len(firsts), ShouldEqual, 1)
				So(d.Size(), ShouldEqual, 1)
			})
		})
	})
}

func TestKey(t *testing.T) {
	Convey("Given submission content", t, func() {
		lines := []string{"0.1", "0.9", "0.5"}

		Convey("When the same content comes from the same submitter", func() {
			Convey("Then the fingerprints collide", func() {
				So(Key(1, "ann", lines), ShouldEqual, Key(1, "ann", []string{"0.1", "0.9", "0.5"}))
			})
		})

		Convey("When any component differs", func() {
			base := Key(1, "ann", lines)

			Convey("Then the fingerprint changes", func() {
				So(Key(2, "ann", lines), ShouldNotEqual, base)
				So(Key(1, "bob", lines), ShouldNotEqual, base)
				So(Key(1, "ann", []string{"0.1", "0.9"}), ShouldNotEqual, base)
			})
		})
	})
}
