package samplearchive_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/chatgraph/internal/adapters/source"
	"github.com/okian/chatgraph/internal/adapters/source/facebook"
	"github.com/okian/chatgraph/internal/domain/aggregate"
	"github.com/okian/chatgraph/internal/domain/credit"
	"github.com/okian/chatgraph/internal/domain/types"
	"github.com/okian/chatgraph/internal/domain/weighting"
	"github.com/okian/chatgraph/internal/samplearchive"
	"github.com/okian/chatgraph/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func smallConfig(root string) *samplearchive.Config {
	return &samplearchive.Config{
		Root:          root,
		User:          "Sample User",
		People:        6,
		Conversations: 12,
		Messages:      30,
		GroupShare:    0.4,
		MaxWords:      5,
		Start:         time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Days:          60,
		Seed:          42,
	}
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	Convey("Given a generated archive", t, func() {
		cfg := smallConfig(t.TempDir())
		stats, err := samplearchive.Generate(ctx, cfg)
		So(err, ShouldBeNil)
		So(stats.Threads, ShouldEqual, 12)
		So(stats.Messages, ShouldEqual, 360)

		Convey("When it is read back and aggregated with word counts", func() {
			splitter := credit.NewSplitter(cfg.User,
				credit.WithWeigher(weighting.WordCount{}),
				credit.WithLocation(time.UTC),
			)
			events, st, err := source.Load(ctx, facebook.New(), cfg.Root, splitter)
			So(err, ShouldBeNil)
			So(st.Events, ShouldEqual, 360)

			byPerson, err := aggregate.Fold(events, nil)
			So(err, ShouldBeNil)

			Convey("Then every total matches the expectation", func() {
				So(len(byPerson), ShouldEqual, len(stats.Words))
				for person, want := range stats.Words {
					So(byPerson[person].Total(), ShouldAlmostEqual, want, samplearchive.Tolerance)
				}
			})
		})

		Convey("When the same seed is used again", func() {
			again, err := samplearchive.Generate(ctx, smallConfig(t.TempDir()))

			Convey("Then the expectations are identical", func() {
				So(err, ShouldBeNil)
				So(again.Flat, ShouldResemble, stats.Flat)
				So(again.Words, ShouldResemble, stats.Words)
			})
		})
	})

	Convey("Given an invalid config", t, func() {
		cfg := smallConfig(t.TempDir())
		cfg.People = 0

		_, err := samplearchive.Generate(ctx, cfg)

		Convey("Then generation is refused", func() {
			So(errors.Is(err, samplearchive.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}

func TestVerify(t *testing.T) {
	expected := map[string]float64{"Ann": 10, "Bob": 6, "Cy": 1}
	chart := types.Chart{Series: []types.Series{
		{Label: "Ann(10)", Total: 10},
		{Label: "Bob(6)", Total: 6},
		{Label: "Other(1)", Total: 1, Other: true},
	}}

	Convey("Given a chart that matches", t, func() {
		So(samplearchive.Verify(chart, expected), ShouldBeNil)
	})

	Convey("Given a chart with a wrong total", t, func() {
		bad := chart
		bad.Series = append([]types.Series(nil), chart.Series...)
		bad.Series[1].Total = 5
		So(errors.Is(samplearchive.Verify(bad, expected), samplearchive.ErrMismatch), ShouldBeTrue)
	})

	Convey("Given a chart without Other", t, func() {
		bad := types.Chart{Series: chart.Series[:2]}
		So(errors.Is(samplearchive.Verify(bad, expected), samplearchive.ErrMismatch), ShouldBeTrue)
	})

	Convey("Given a label", t, func() {
		So(samplearchive.LabelName("Mary (Work)(12)"), ShouldEqual, "Mary (Work)")
	})
}
