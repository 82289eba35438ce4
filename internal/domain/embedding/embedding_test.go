package embedding_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/okian/resumatch/internal/domain/embedding"
	"github.com/okian/resumatch/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func norm(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

func TestHashingEncoder(t *testing.T) {
	ctx := context.Background()

	Convey("Given a hashing encoder", t, func() {
		enc := embedding.NewHashingEncoder(128)

		Convey("Vectors have the configured dimension and unit norm", func() {
			v, err := enc.Encode(ctx, "Senior Go engineer with Kubernetes experience")
			So(err, ShouldBeNil)
			So(len(v), ShouldEqual, 128)
			So(enc.Dimension(), ShouldEqual, 128)
			So(norm(v), ShouldAlmostEqual, 1, 1e-9)
		})

		Convey("Encoding is deterministic", func() {
			a, _ := enc.Encode(ctx, "python django postgres")
			b, _ := enc.Encode(ctx, "python django postgres")
			So(a, ShouldResemble, b)
		})

		Convey("Empty text yields the zero vector", func() {
			v, err := enc.Encode(ctx, "   ")
			So(err, ShouldBeNil)
			So(len(v), ShouldEqual, 128)
			So(norm(v), ShouldEqual, 0)
		})

		Convey("Related text scores higher than unrelated text", func() {
			role, _ := enc.Encode(ctx, "Backend engineer Go microservices PostgreSQL Kubernetes")
			near, _ := enc.Encode(ctx, "I build Go microservices on Kubernetes backed by PostgreSQL")
			far, _ := enc.Encode(ctx, "Pastry chef specialised in croissants and sourdough")
			sNear, err := scoring.MatchScore(role, near)
			So(err, ShouldBeNil)
			sFar, err := scoring.MatchScore(role, far)
			So(err, ShouldBeNil)
			So(sNear, ShouldBeGreaterThan, sFar)
		})

		Convey("A non-positive dimension falls back to the default", func() {
			So(embedding.NewHashingEncoder(0).Dimension(), ShouldEqual, embedding.DefaultDimension)
		})
	})
}

func TestTokenize(t *testing.T) {
	Convey("Tokenize lowercases and splits on punctuation", t, func() {
		So(embedding.Tokenize("Go, SQL & C++/Rust!"), ShouldResemble, []string{"go", "sql", "c", "rust"})
		So(embedding.Tokenize(""), ShouldBeEmpty)
	})
}

type countingEncoder struct {
	*embedding.HashingEncoder
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	closed   atomic.Bool
}

func (c *countingEncoder) Encode(ctx context.Context, text string) ([]float64, error) {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		m := c.maxSeen.Load()
		if n <= m || c.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	return c.HashingEncoder.Encode(ctx, text)
}

func (c *countingEncoder) Close() error {
	c.closed.Store(true)
	return nil
}

func TestSerialize(t *testing.T) {
	Convey("Given a serialized encoder", t, func() {
		inner := &countingEncoder{HashingEncoder: embedding.NewHashingEncoder(32)}
		enc := embedding.Serialize(inner)

		Convey("Then calls never overlap", func() {
			var wg sync.WaitGroup
			for i := 0; i < 32; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _ = enc.Encode(context.Background(), "some words to encode")
				}()
			}
			wg.Wait()
			So(inner.maxSeen.Load(), ShouldEqual, 1)
			So(enc.Dimension(), ShouldEqual, 32)
		})

		Convey("Then Close reaches the inner encoder", func() {
			So(enc.(embedding.Closer).Close(), ShouldBeNil)
			So(inner.closed.Load(), ShouldBeTrue)
		})
	})
}

func TestHandle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a handle with a factory", t, func() {
		var builds atomic.Int32
		inner := &countingEncoder{HashingEncoder: embedding.NewHashingEncoder(16)}
		h := embedding.NewHandle(func(context.Context) (embedding.Encoder, error) {
			builds.Add(1)
			return inner, nil
		})

		Convey("The factory runs once no matter how many consumers ask", func() {
			var wg sync.WaitGroup
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _ = h.Encode(ctx, "text")
				}()
			}
			wg.Wait()
			So(builds.Load(), ShouldEqual, 1)

			a, _ := h.Get(ctx)
			b, _ := h.Get(ctx)
			So(a, ShouldEqual, b)
		})

		Convey("Close releases the encoder and later calls fail", func() {
			_, err := h.Get(ctx)
			So(err, ShouldBeNil)
			So(h.Close(), ShouldBeNil)
			So(inner.closed.Load(), ShouldBeTrue)
			_, err = h.Get(ctx)
			So(errors.Is(err, embedding.ErrClosed), ShouldBeTrue)
			So(h.Close(), ShouldBeNil)
		})
	})

	Convey("Given a handle whose factory fails", t, func() {
		h := embedding.NewHandle(func(context.Context) (embedding.Encoder, error) {
			return nil, errors.New("no model")
		})

		Convey("Then every Get reports the failure", func() {
			_, err := h.Get(ctx)
			So(errors.Is(err, embedding.ErrInit), ShouldBeTrue)
			_, err = h.Encode(ctx, "x")
			So(errors.Is(err, embedding.ErrInit), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "no model")
		})
	})

	Convey("Static wraps a ready encoder", t, func() {
		h := embedding.Static(embedding.NewHashingEncoder(8))
		enc, err := h.Get(ctx)
		So(err, ShouldBeNil)
		So(enc.Dimension(), ShouldEqual, 8)
	})
}
