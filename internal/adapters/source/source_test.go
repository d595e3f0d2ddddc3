package source_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/chatgraph/internal/adapters/source"
	"github.com/okian/chatgraph/internal/domain/credit"
	"github.com/okian/chatgraph/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeReader struct {
	format string
	convs  []credit.Conversation
	err    error
}

func (f fakeReader) Format() string { return f.format }

func (f fakeReader) Read(_ context.Context, _ string, emit func(credit.Conversation) error) error {
	for _, c := range f.convs {
		if err := emit(c); err != nil {
			return err
		}
	}
	return f.err
}

func TestParseSpec(t *testing.T) {
	Convey("Given format:path arguments", t, func() {
		Convey("When the argument is well formed", func() {
			spec, err := source.ParseSpec("Facebook:/data/fb")
			So(err, ShouldBeNil)
			So(spec, ShouldResemble, source.Spec{Format: "facebook", Path: "/data/fb"})
			So(spec.String(), ShouldEqual, "facebook:/data/fb")
		})

		Convey("When the path contains a colon", func() {
			spec, err := source.ParseSpec("adium:/logs/a:b")
			So(err, ShouldBeNil)
			So(spec.Path, ShouldEqual, "/logs/a:b")
		})

		Convey("When the path starts with a tilde", func() {
			home, err := os.UserHomeDir()
			So(err, ShouldBeNil)
			spec, err := source.ParseSpec("hangouts:~/takeout")
			So(err, ShouldBeNil)
			So(spec.Path, ShouldEqual, filepath.Join(home, "takeout"))
		})

		Convey("When either side is missing", func() {
			for _, arg := range []string{"facebook", ":/x", "facebook:"} {
				_, err := source.ParseSpec(arg)
				So(errors.Is(err, source.ErrBadSpec), ShouldBeTrue)
			}
		})
	})
}

func TestRegistry(t *testing.T) {
	Convey("Given a registry", t, func() {
		r := source.NewRegistry(fakeReader{format: "b"}, fakeReader{format: "a"})

		So(r.Formats(), ShouldResemble, []string{"a", "b"})

		rd, err := r.Lookup("a")
		So(err, ShouldBeNil)
		So(rd.Format(), ShouldEqual, "a")

		_, err = r.Lookup("icq")
		So(errors.Is(err, source.ErrUnknownFormat), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "a, b")
	})
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2016, time.May, 4, 10, 0, 0, 0, time.UTC)

	direct := credit.Conversation{
		Participants: []string{"Me", "Ada"},
		Messages:     []credit.Message{{Sender: "Ada", At: at, Text: "hello"}, {Sender: "Me", At: at, Text: "hi ada"}},
	}
	self := credit.Conversation{
		Participants: []string{"Me"},
		Messages:     []credit.Message{{Sender: "Me", At: at, Text: "memo"}},
	}

	Convey("Given a reader with credited and skipped conversations", t, func() {
		rd := fakeReader{format: "fake", convs: []credit.Conversation{direct, self, direct}}
		s := credit.NewSplitter("Me", credit.WithDeduper(dedupe.NewInMemoryDeduper()))

		events, stats, err := source.Load(ctx, rd, "/x", s)

		Convey("Then stats account for every conversation", func() {
			So(err, ShouldBeNil)
			So(stats.Conversations, ShouldEqual, 3)
			So(stats.Messages, ShouldEqual, 5)
			So(stats.Credited, ShouldEqual, 1)
			So(stats.Skipped[credit.SkipNoOthers], ShouldEqual, 1)
			So(stats.Skipped[credit.SkipAllDuplicate], ShouldEqual, 1)
			So(stats.Duplicates, ShouldEqual, 2)
			So(stats.Events, ShouldEqual, 2)
			So(events, ShouldHaveLength, 2)
		})
	})

	Convey("Given a reader that fails", t, func() {
		rd := fakeReader{format: "fake", err: source.ErrMalformedArchive}
		_, _, err := source.Load(ctx, rd, "/broken", credit.NewSplitter("Me"))

		So(errors.Is(err, source.ErrMalformedArchive), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "fake:/broken")
	})

	Convey("Given a cancelled context", t, func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		rd := fakeReader{format: "fake", convs: []credit.Conversation{direct}}

		_, _, err := source.Load(cctx, rd, "/x", credit.NewSplitter("Me"))
		So(errors.Is(err, context.Canceled), ShouldBeTrue)
	})
}
