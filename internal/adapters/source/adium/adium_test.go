package adium_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/chatgraph/internal/adapters/source"
	"github.com/okian/chatgraph/internal/adapters/source/adium"
	"github.com/okian/chatgraph/internal/domain/credit"
	. "github.com/smartystreets/goconvey/convey"
)

const transcript = `<?xml version="1.0" encoding="UTF-8" ?>
<chat xmlns="http://purl.org/net/ulf/ns/0.4-02" account="jane.doe" service="AIM">
<event type="windowOpened" sender="jane.doe" time="2009-03-01T20:14:03-05:00"/>
<message sender="jane.doe" time="2009-03-01T20:14:05-05:00"><div><span style="color: #000000">are you around</span></div></message>
<message sender="ada.l" time="2009-03-01T20:15:00-05:00"><div>yes <b>just</b> got back</div></message>
<status type="away" sender="ada.l" time="2009-03-01T20:30:00-05:00"/>
</chat>`

func TestDecode(t *testing.T) {
	Convey("Given an Adium transcript", t, func() {
		conv, err := adium.Decode(strings.NewReader(transcript))

		Convey("Then the account is the local identity", func() {
			So(err, ShouldBeNil)
			So(conv.Self, ShouldEqual, "jane.doe")
			So(conv.Participants, ShouldBeEmpty)
		})

		Convey("Then only message elements become messages, with nested text", func() {
			So(conv.Messages, ShouldHaveLength, 2)
			So(conv.Messages[0].Sender, ShouldEqual, "jane.doe")
			So(conv.Messages[0].Text, ShouldEqual, "are you around")
			So(conv.Messages[1].Text, ShouldEqual, "yes just got back")
			want := time.Date(2009, time.March, 2, 1, 15, 0, 0, time.UTC)
			So(conv.Messages[1].At.Equal(want), ShouldBeTrue)
		})

		Convey("Then crediting uses the account as self", func() {
			s := credit.NewSplitter("Jane Doe", credit.WithLocation(time.UTC))
			res := s.Split(context.Background(), conv)
			So(res.Others, ShouldResemble, []string{"ada.l"})
			So(res.Events, ShouldHaveLength, 2)
			So(res.Events[0].Creditors, ShouldResemble, []string{"ada.l"})
			So(res.Events[0].Weight, ShouldEqual, 3.0)
		})
	})

	Convey("Given malformed transcripts", t, func() {
		Convey("When the time is not RFC 3339", func() {
			_, err := adium.Decode(strings.NewReader(`<chat account="a"><message sender="b" time="yesterday">x</message></chat>`))
			So(err, ShouldNotBeNil)
		})

		Convey("When the root element is missing", func() {
			_, err := adium.Decode(strings.NewReader(`<log/>`))
			So(err, ShouldNotBeNil)
		})

		Convey("When the XML is truncated", func() {
			_, err := adium.Decode(strings.NewReader(`<chat account="a"><message sender="b" time="2009-03-01T20:14:05-05:00">x`))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestRead(t *testing.T) {
	ctx := context.Background()

	Convey("Given a log tree with nested transcripts", t, func() {
		root := t.TempDir()
		dir := filepath.Join(root, "AIM.jane.doe", "ada.l", "ada.l (2009-03-01).chatlog")
		So(os.MkdirAll(dir, 0o755), ShouldBeNil)
		So(os.WriteFile(filepath.Join(dir, "ada.l (2009-03-01).xml"), []byte(transcript), 0o600), ShouldBeNil)
		So(os.WriteFile(filepath.Join(root, "notes.txt"), []byte("ignored"), 0o600), ShouldBeNil)

		var convs []credit.Conversation
		err := adium.New().Read(ctx, root, func(c credit.Conversation) error {
			convs = append(convs, c)
			return nil
		})

		Convey("Then every .xml file is read", func() {
			So(err, ShouldBeNil)
			So(convs, ShouldHaveLength, 1)
			So(convs[0].Messages, ShouldHaveLength, 2)
		})
	})

	Convey("Given a broken transcript", t, func() {
		root := t.TempDir()
		So(os.WriteFile(filepath.Join(root, "bad.xml"), []byte(`<chat><message`), 0o600), ShouldBeNil)

		err := adium.New().Read(ctx, root, func(credit.Conversation) error { return nil })
		So(errors.Is(err, source.ErrMalformedArchive), ShouldBeTrue)
	})

	Convey("Given a missing path", t, func() {
		err := adium.New().Read(ctx, filepath.Join(t.TempDir(), "nope"), func(credit.Conversation) error { return nil })
		So(errors.Is(err, source.ErrMalformedArchive), ShouldBeTrue)
	})
}
