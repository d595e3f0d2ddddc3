package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/chatgraph/internal/adapters/source"
	"github.com/okian/chatgraph/internal/adapters/worker"
	service "github.com/okian/chatgraph/internal/app"
	"github.com/okian/chatgraph/internal/config"
	"github.com/okian/chatgraph/internal/domain/credit"
	"github.com/okian/chatgraph/internal/domain/model"
	"github.com/okian/chatgraph/internal/domain/names"
	"github.com/okian/chatgraph/internal/domain/ranking"
	"github.com/okian/chatgraph/internal/domain/smoothing"
	"github.com/okian/chatgraph/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// memReader serves fixed conversations for any path.
type memReader struct {
	format string
	convs  []credit.Conversation
	err    error
}

func (r memReader) Format() string { return r.format }

func (r memReader) Read(_ context.Context, _ string, emit func(credit.Conversation) error) error {
	if r.err != nil {
		return r.err
	}
	for _, c := range r.convs {
		if err := emit(c); err != nil {
			return err
		}
	}
	return nil
}

var day0 = time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC)

func at(day int) time.Time { return day0.AddDate(0, 0, day) }

func msg(sender string, day int, text string) credit.Message {
	return credit.Message{Sender: sender, At: at(day), Text: text}
}

// nth is the i-th distinct message of a sender on day.
func nth(sender string, day, i int) credit.Message {
	return credit.Message{Sender: sender, At: at(day).Add(time.Duration(i) * time.Minute), Text: "x"}
}

// flatSettings charts ten days without smoothing and with flat weights.
func flatSettings(topN int) *config.Settings {
	return &config.Settings{
		User:          "Me",
		Start:         model.Date(2020, 1, 1),
		End:           model.Date(2020, 1, 11),
		Location:      time.UTC,
		TopN:          topN,
		KernelName:    smoothing.KernelBox,
		Kernel:        smoothing.KernelFunc(func(d int) float64 { return 1 }),
		HalfWindow:    0,
		GroupChats:    true,
		WordCount:     false,
		Normalizer:    names.NewNormalizer(nil),
		SmoothWorkers: 2,
		Title:         "test",
	}
}

func scenario() []credit.Conversation {
	a := credit.Conversation{Participants: []string{"Me", "A"}}
	for i := 0; i < 10; i++ {
		a.Messages = append(a.Messages, nth("A", 0, i))
	}
	for i := 0; i < 5; i++ {
		a.Messages = append(a.Messages, nth("Me", 5, i))
	}
	b := credit.Conversation{Participants: []string{"Me", "B"}}
	for i := 0; i < 3; i++ {
		b.Messages = append(b.Messages, nth("B", 0, i))
	}
	return []credit.Conversation{a, b}
}

func newService(settings *config.Settings, readers ...source.Reader) *service.Service {
	return service.New(settings,
		service.WithLogger(logger.Nop()),
		service.WithRegistry(source.NewRegistry(readers...)),
	)
}

func TestService_Run(t *testing.T) {
	ctx := context.Background()
	specs := []source.Spec{{Format: "mem", Path: "x"}}

	Convey("Given two people and no smoothing", t, func() {
		svc := newService(flatSettings(1), memReader{format: "mem", convs: scenario()})

		Convey("When the pipeline runs", func() {
			chart, err := svc.Run(ctx, specs)

			Convey("Then A is ranked alone and B falls into Other", func() {
				So(err, ShouldBeNil)
				So(len(chart.Series), ShouldEqual, 2)
				So(chart.Series[0].Label, ShouldEqual, "A(15)")
				So(chart.Series[0].Values[0], ShouldEqual, 10.0)
				So(chart.Series[0].Values[5], ShouldEqual, 5.0)
				So(chart.Series[0].Values[1], ShouldEqual, 0.0)
				So(chart.Series[1].Label, ShouldEqual, "Other(3)")
				So(chart.Series[1].Values[0], ShouldEqual, 3.0)
				So(len(chart.Days), ShouldEqual, 10)
				So(chart.Days[0], ShouldEqual, "2020-01-01")
			})

			Convey("Then the chart and stats are kept for serving", func() {
				kept, ok := svc.Chart()
				So(ok, ShouldBeTrue)
				So(kept.Series[0].Label, ShouldEqual, "A(15)")

				stats := svc.GetStats()
				So(stats["ready"], ShouldEqual, true)
				So(stats["stats"].(service.Stats).Persons, ShouldEqual, 2)
				So(stats["stats"].(service.Stats).Events, ShouldEqual, 18)
			})
		})

		Convey("When it runs twice", func() {
			first, err := svc.Run(ctx, specs)
			So(err, ShouldBeNil)
			second, err := svc.Run(ctx, specs)
			So(err, ShouldBeNil)

			Convey("Then the output is identical", func() {
				So(second, ShouldResemble, first)
			})
		})
	})

	Convey("Given a group conversation", t, func() {
		conv := credit.Conversation{
			Participants: []string{"Me", "X", "Y"},
			Messages:     []credit.Message{msg("Me", 0, "one two three four")},
		}
		settings := flatSettings(5)
		settings.WordCount = true

		Convey("When group chats are enabled", func() {
			chart, err := newService(settings, memReader{format: "mem", convs: []credit.Conversation{conv}}).Run(ctx, specs)

			Convey("Then each participant is credited half", func() {
				So(err, ShouldBeNil)
				So(chart.Series[0].Label, ShouldEqual, "X(2)")
				So(chart.Series[1].Label, ShouldEqual, "Y(2)")
				So(chart.Series[0].Values[0], ShouldEqual, 2.0)
			})
		})

		Convey("When group chats are disabled", func() {
			settings.GroupChats = false
			svc := newService(settings, memReader{format: "mem", convs: []credit.Conversation{conv}})
			chart, err := svc.Run(ctx, specs)

			Convey("Then nothing is charted but Other", func() {
				So(err, ShouldBeNil)
				So(len(chart.Series), ShouldEqual, 1)
				So(chart.Series[0].Label, ShouldEqual, "Other(0)")
				So(svc.GetStats()["stats"].(service.Stats).Skipped[credit.SkipGroupChat], ShouldEqual, 1)
			})
		})
	})

	Convey("Given anonymization", t, func() {
		settings := flatSettings(2)
		settings.Anonymize = true
		settings.AnonymizationNames = []string{"Fox", "Owl"}
		chart, err := newService(settings, memReader{format: "mem", convs: scenario()}).Run(ctx, specs)

		Convey("Then names follow rank order", func() {
			So(err, ShouldBeNil)
			So(chart.Series[0].Label, ShouldEqual, "Fox(15)")
			So(chart.Series[1].Label, ShouldEqual, "Owl(3)")
		})
	})

	Convey("Given too few anonymization names", t, func() {
		settings := flatSettings(2)
		settings.Anonymize = true
		settings.AnonymizationNames = []string{"Fox"}
		_, err := newService(settings, memReader{format: "mem", convs: scenario()}).Run(ctx, specs)

		Convey("Then the run fails before reading", func() {
			So(errors.Is(err, ranking.ErrInsufficientNames), ShouldBeTrue)
		})
	})

	Convey("Given an unknown format", t, func() {
		svc := newService(flatSettings(1), memReader{format: "mem"})
		_, err := svc.Run(ctx, []source.Spec{{Format: "icq", Path: "x"}})

		Convey("Then it is reported", func() {
			So(errors.Is(err, source.ErrUnknownFormat), ShouldBeTrue)
			_, ok := svc.Chart()
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given a failing archive", t, func() {
		svc := newService(flatSettings(1), memReader{format: "mem", err: source.ErrMalformedArchive})
		_, err := svc.Run(ctx, specs)

		Convey("Then the error names the archive", func() {
			So(errors.Is(err, source.ErrMalformedArchive), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "mem:x")
		})
	})

	Convey("Given the same archive twice with de-duplication", t, func() {
		settings := flatSettings(2)
		settings.Dedupe = true
		reader := memReader{format: "mem", convs: scenario()}
		chart, err := newService(settings, reader).Run(ctx, []source.Spec{
			{Format: "mem", Path: "first"},
			{Format: "mem", Path: "second"},
		})

		Convey("Then every message counts once", func() {
			So(err, ShouldBeNil)
			So(chart.Series[0].Label, ShouldEqual, "A(15)")
			So(chart.Series[1].Label, ShouldEqual, "B(3)")
		})
	})
	Convey("Given one person whose smoothed series overflows", t, func() {
		settings := flatSettings(2)
		settings.Kernel = smoothing.KernelFunc(func(d int) float64 { return 1e308 })
		a := credit.Conversation{Participants: []string{"Me", "A"}}
		for i := 0; i < 10; i++ {
			a.Messages = append(a.Messages, nth("A", 0, i))
		}
		b := credit.Conversation{Participants: []string{"Me", "B"}, Messages: []credit.Message{nth("B", 0, 0)}}
		svc := newService(settings, memReader{format: "mem", convs: []credit.Conversation{a, b}})

		chart, err := svc.Run(ctx, specs)

		Convey("Then the chart is built from the remaining persons", func() {
			So(len(chart.Series), ShouldEqual, 2)
			So(chart.Series[0].Label, ShouldEqual, "B(1)")
			So(chart.Series[1].Label, ShouldEqual, "Other(0)")
		})

		Convey("Then the failure is reported with the person's name", func() {
			So(errors.Is(err, service.ErrPartialSmoothing), ShouldBeTrue)
			So(errors.Is(err, worker.ErrNonFinite), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, `"A"`)
		})

		Convey("Then the partial chart is kept for serving", func() {
			kept, ok := svc.Chart()
			So(ok, ShouldBeTrue)
			So(kept.Series[0].Label, ShouldEqual, "B(1)")
			So(svc.GetStats()["stats"].(service.Stats).Failed, ShouldEqual, 1)
		})
	})

	Convey("Given messages without a sender", t, func() {
		conv := credit.Conversation{
			Participants: []string{"Me", "A"},
			Messages:     []credit.Message{msg("", 0, "joined"), msg("A", 0, "hi")},
		}
		svc := newService(flatSettings(2), memReader{format: "mem", convs: []credit.Conversation{conv}})
		chart, err := svc.Run(ctx, specs)

		Convey("Then they are counted and never charted", func() {
			So(err, ShouldBeNil)
			So(chart.Series[0].Label, ShouldEqual, "A(1)")
			for _, series := range chart.Series {
				So(series.Label, ShouldNotStartWith, "(")
			}
			stats := svc.GetStats()["stats"].(service.Stats)
			So(stats.Unattributed, ShouldEqual, 1)
			So(stats.Events, ShouldEqual, 1)
		})
	})
}
