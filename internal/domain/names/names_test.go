package names_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/chatgraph/internal/domain/names"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalizer(t *testing.T) {
	Convey("Given a normalizer with a table", t, func() {
		n := names.NewNormalizer(map[string]string{
			"Bobby T":  "Bob Tables",
			" Zoë  ":   "Zoe",
			"Self Alt": "Me",
		})

		Convey("When the name is mapped", func() {
			So(n.Normalize("Bobby T"), ShouldEqual, "Bob Tables")
			So(n.Normalize("  Bobby T "), ShouldEqual, "Bob Tables")
		})

		Convey("When the name uses a decomposed accent", func() {
			decomposed := "Zoe\u0308"
			So(n.Normalize(decomposed), ShouldEqual, "Zoe")
		})

		Convey("When the name is unknown", func() {
			So(n.Normalize("Alice"), ShouldEqual, "Alice")
		})

		Convey("Then Len counts entries", func() {
			So(n.Len(), ShouldEqual, 3)
		})
	})

	Convey("Given a nil normalizer", t, func() {
		var n *names.Normalizer
		So(n.Normalize(" Alice "), ShouldEqual, "Alice")
		So(n.Len(), ShouldEqual, 0)
	})
}

func TestReadTable(t *testing.T) {
	Convey("Given JSON table input", t, func() {
		Convey("When the JSON is valid", func() {
			table, err := names.ReadTable(strings.NewReader(`{"a":"A","b":"B"}`))
			So(err, ShouldBeNil)
			So(table, ShouldResemble, map[string]string{"a": "A", "b": "B"})
		})

		Convey("When the JSON is not an object of strings", func() {
			_, err := names.ReadTable(strings.NewReader(`["a","b"]`))
			So(errors.Is(err, names.ErrBadTable), ShouldBeTrue)
		})
	})

	Convey("Given table files", t, func() {
		dir := t.TempDir()

		Convey("When the path is empty", func() {
			n, err := names.LoadNormalizer("")
			So(err, ShouldBeNil)
			So(n.Len(), ShouldEqual, 0)
		})

		Convey("When the file exists", func() {
			path := filepath.Join(dir, "name_normalization.json")
			So(os.WriteFile(path, []byte(`{"Bobby":"Bob"}`), 0o600), ShouldBeNil)

			n, err := names.LoadNormalizer(path)
			So(err, ShouldBeNil)
			So(n.Normalize("Bobby"), ShouldEqual, "Bob")
		})

		Convey("When the file is missing", func() {
			_, err := names.LoadNormalizer(filepath.Join(dir, "missing.json"))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestReadList(t *testing.T) {
	Convey("Given a newline separated name list", t, func() {
		list, err := names.ReadList(strings.NewReader("  Ada\n\nGrace \r\nLinus\n"))

		Convey("Then names are trimmed, blanks skipped and order kept", func() {
			So(err, ShouldBeNil)
			So(list, ShouldResemble, []string{"Ada", "Grace", "Linus"})
		})
	})

	Convey("Given a list file", t, func() {
		path := filepath.Join(t.TempDir(), "anon_names.txt")
		So(os.WriteFile(path, []byte("One\nTwo\n"), 0o600), ShouldBeNil)

		list, err := names.LoadList(path)
		So(err, ShouldBeNil)
		So(list, ShouldResemble, []string{"One", "Two"})

		_, err = names.LoadList(path + ".missing")
		So(err, ShouldNotBeNil)
	})
}
