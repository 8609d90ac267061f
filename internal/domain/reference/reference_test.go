package reference_test

import (
	"context"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/weris/internal/domain/model"
	"github.com/okian/weris/internal/domain/reference"
	. "github.com/smartystreets/goconvey/convey"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestChunkReader(t *testing.T) {
	Convey("Given a CSV with five data rows", t, func() {
		data := "fever,cough\n1,0\n0,1\n1,1\n0,0\n1,0\n"

		Convey("When reading in chunks of two", func() {
			cr, err := reference.NewChunkReader(strings.NewReader(data), 2)
			So(err, ShouldBeNil)
			So(cr.Header(), ShouldResemble, []string{"fever", "cough"})

			var sizes []int
			for {
				chunk, err := cr.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				So(err, ShouldBeNil)
				sizes = append(sizes, len(chunk.Rows))
			}

			Convey("Then it yields 2, 2 and 1 rows and stays exhausted", func() {
				So(sizes, ShouldResemble, []int{2, 2, 1})
				_, err := cr.Next()
				So(errors.Is(err, io.EOF), ShouldBeTrue)
			})
		})
	})

	Convey("Given an empty file", t, func() {
		_, err := reference.NewChunkReader(strings.NewReader(""), 10)

		Convey("Then it is malformed", func() {
			So(errors.Is(err, model.ErrMalformedInput), ShouldBeTrue)
		})
	})

	Convey("Given a header-only file", t, func() {
		cr, err := reference.NewChunkReader(strings.NewReader("fever,cough\n"), 10)
		So(err, ShouldBeNil)

		Convey("Then there are no chunks", func() {
			_, err := cr.Next()
			So(errors.Is(err, io.EOF), ShouldBeTrue)
		})
	})

	Convey("Given a header with a byte order mark", t, func() {
		cr, err := reference.NewChunkReader(strings.NewReader("\ufefffever, cough\n1,1\n"), 10)
		So(err, ShouldBeNil)
		So(cr.Header(), ShouldResemble, []string{"fever", "cough"})
	})
}

func TestChunkFirstValue(t *testing.T) {
	Convey("Given a chunk with assorted cell encodings", t, func() {
		chunk := reference.Chunk{
			Header: []string{"a", "b", "c", "d", "e"},
			Rows:   [][]string{{"1", "1.0", "True", "abc"}, {"0", "0", "0", "0", "0"}},
		}

		Convey("Then numeric and boolean cells parse, others become NaN", func() {
			v, ok := chunk.FirstValue("a")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 1)
			v, _ = chunk.FirstValue("b")
			So(v, ShouldEqual, 1)
			v, _ = chunk.FirstValue("c")
			So(v, ShouldEqual, 1)
			v, _ = chunk.FirstValue("d")
			So(math.IsNaN(v), ShouldBeTrue)
		})

		Convey("And a short first row yields NaN for the missing cell", func() {
			v, ok := chunk.FirstValue("e")
			So(ok, ShouldBeTrue)
			So(math.IsNaN(v), ShouldBeTrue)
		})

		Convey("And unknown columns are unresolved", func() {
			_, ok := chunk.FirstValue("zzz")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestEagerLoader(t *testing.T) {
	Convey("Given three reference files", t, func() {
		dir := t.TempDir()
		paths := []string{
			writeCSV(t, dir, "data1.csv", "fever,cough\n1,0\n0,1\n"),
			writeCSV(t, dir, "data2.csv", "fever,rash\n0,1\n"),
			writeCSV(t, dir, "data3.csv", "cough\n"),
		}
		ctx := context.Background()

		Convey("When loading eagerly", func() {
			tables, err := reference.NewEagerLoader(paths).Load(ctx, nil)

			Convey("Then every table keeps only its first row", func() {
				So(err, ShouldBeNil)
				So(len(tables), ShouldEqual, 3)
				So(tables[0].Name, ShouldEqual, "data1.csv")

				v, ok := tables[0].FirstValue("fever")
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 1)
				v, ok = tables[0].FirstValue("cough")
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 0)

				_, ok = tables[1].FirstValue("cough")
				So(ok, ShouldBeFalse)
			})

			Convey("And a header-only table is kept with no values", func() {
				So(tables[2].Len(), ShouldEqual, 0)
			})
		})

		Convey("When one file is missing", func() {
			missing := append([]string{}, paths[0], filepath.Join(dir, "nope.csv"), paths[2])
			tables, err := reference.NewEagerLoader(missing).Load(ctx, nil)

			Convey("Then the whole load fails", func() {
				So(tables, ShouldBeNil)
				So(errors.Is(err, model.ErrMissingFile), ShouldBeTrue)
			})
		})

		Convey("When a file is empty", func() {
			empty := writeCSV(t, dir, "empty.csv", "")
			_, err := reference.NewEagerLoader([]string{empty}).Load(ctx, nil)

			Convey("Then the load is malformed", func() {
				So(errors.Is(err, model.ErrMalformedInput), ShouldBeTrue)
			})
		})
	})
}

func TestStreamingLoader(t *testing.T) {
	Convey("Given reference files larger than one chunk", t, func() {
		dir := t.TempDir()
		paths := []string{
			writeCSV(t, dir, "data1.csv", "fever,cough\n1,0\n0,1\n0,1\n"),
			writeCSV(t, dir, "data2.csv", "fever,cough\n0,1\n1,1\n"),
			writeCSV(t, dir, "data3.csv", "fever,cough\n1,1\n0,0\n"),
		}
		ctx := context.Background()
		columns := []string{"fever", "cough", "unknown"}

		Convey("When streaming with a chunk size of one row", func() {
			tables, err := reference.NewStreamingLoader(paths, reference.WithChunkSize(1)).Load(ctx, columns)

			Convey("Then each column comes from the first chunk only", func() {
				So(err, ShouldBeNil)
				So(len(tables), ShouldEqual, 3)
				v, _ := tables[0].FirstValue("fever")
				So(v, ShouldEqual, 1)
				v, _ = tables[0].FirstValue("cough")
				So(v, ShouldEqual, 0)
				v, _ = tables[1].FirstValue("cough")
				So(v, ShouldEqual, 1)
			})

			Convey("And columns absent from every chunk stay unresolved", func() {
				_, ok := tables[0].FirstValue("unknown")
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When streaming and eager loading the same files", func() {
			streamed, err := reference.NewStreamingLoader(paths, reference.WithChunkSize(2)).Load(ctx, columns)
			So(err, ShouldBeNil)
			eager, err := reference.NewEagerLoader(paths).Load(ctx, columns)
			So(err, ShouldBeNil)

			Convey("Then both agree on every requested column", func() {
				So(len(streamed), ShouldEqual, len(eager))
				for i := range eager {
					for _, col := range columns {
						ev, eok := eager[i].FirstValue(col)
						sv, sok := streamed[i].FirstValue(col)
						So(sok, ShouldEqual, eok)
						So(sv, ShouldEqual, ev)
					}
				}
			})
		})

		Convey("When one file is missing", func() {
			withMissing := []string{paths[0], filepath.Join(dir, "gone.csv"), paths[2]}
			tables, err := reference.NewStreamingLoader(withMissing).Load(ctx, columns)

			Convey("Then that table is skipped and the rest load", func() {
				So(err, ShouldBeNil)
				So(len(tables), ShouldEqual, 2)
				So(tables[0].Name, ShouldEqual, "data1.csv")
				So(tables[1].Name, ShouldEqual, "data3.csv")
			})
		})

		Convey("When every file is missing", func() {
			tables, err := reference.NewStreamingLoader([]string{
				filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv"), filepath.Join(dir, "c.csv"),
			}).Load(ctx, columns)

			Convey("Then no tables are returned without an error", func() {
				So(err, ShouldBeNil)
				So(tables, ShouldBeEmpty)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := reference.NewStreamingLoader(paths).Load(cctx, columns)

			Convey("Then loading stops", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestNewTable(t *testing.T) {
	Convey("Given a table built from a map", t, func() {
		src := map[string]float64{"fever": 1}
		table := reference.NewTable("manual", src)
		src["fever"] = 0

		Convey("Then later changes to the map do not leak in", func() {
			v, ok := table.FirstValue("fever")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 1)
			So(table.Len(), ShouldEqual, 1)
		})
	})
}
