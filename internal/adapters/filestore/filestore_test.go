package filestore

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestExpectedFiles(t *testing.T) {
	Convey("Given a filestore in a temp directory", t, func() {
		s, err := New(t.TempDir())
		So(err, ShouldBeNil)

		Convey("When saving and loading expected lines", func() {
			lines := []string{"0.1", "0.9", "0.5"}
			So(s.SaveExpected("digits", lines), ShouldBeNil)

			got, err := s.LoadExpected("digits")

			Convey("Then the lines round-trip exactly", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, lines)
			})
		})

		Convey("When saving over an existing file", func() {
			So(s.SaveExpected("digits", []string{"a"}), ShouldBeNil)
			So(s.SaveExpected("digits", []string{"b", "c"}), ShouldBeNil)

			got, err := s.LoadExpected("digits")

			Convey("Then the newest content wins", func() {
				So(err, ShouldBeNil)
				So(got, ShouldResemble, []string{"b", "c"})
			})
		})

		Convey("When loading a missing challenge", func() {
			_, err := s.LoadExpected("ghost")

			Convey("Then the not-found sentinel is returned", func() {
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When the title would escape the store", func() {
			Convey("Then it is rejected", func() {
				So(errors.Is(s.SaveExpected("../evil", nil), ErrInvalidTitle), ShouldBeTrue)
				So(errors.Is(s.SaveExpected("a/b", nil), ErrInvalidTitle), ShouldBeTrue)
				So(errors.Is(s.SaveExpected("", nil), ErrInvalidTitle), ShouldBeTrue)
			})
		})

		Convey("When removing a file", func() {
			So(s.SaveExpected("digits", []string{"x"}), ShouldBeNil)
			So(s.RemoveExpected("digits"), ShouldBeNil)

			Convey("Then it is gone and a second removal is harmless", func() {
				_, err := s.LoadExpected("digits")
				So(errors.Is(err, ErrNotFound), ShouldBeTrue)
				So(s.RemoveExpected("digits"), ShouldBeNil)
			})
		})
	})
}
