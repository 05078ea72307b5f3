package codec

import (
	"encoding/binary"
	"math"

	"github.com/pgfe/pgfe/buffer"
	"github.com/pgfe/pgfe/oid"
)

// Point is a single (x, y) pair, the building block of every other
// geometric type below.
type Point struct{ X, Y float64 }

func writePoint(w *buffer.Writer, p Point) {
	w.WriteFloat64(p.X)
	w.WriteFloat64(p.Y)
}

func readPoint(src []byte) Point {
	x := math.Float64frombits(binary.BigEndian.Uint64(src[0:8]))
	y := math.Float64frombits(binary.BigEndian.Uint64(src[8:16]))
	return Point{X: x, Y: y}
}

func pointCodec() *Codec {
	return newScalar(oid.Point, "point", func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		p, ok := v.(Point)
		if !ok {
			return dataErr(oid.Point, "expected Point, got %T", v)
		}
		writePoint(w, p)
		return nil
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		if err := wantLen(oid.Point, src, 16); err != nil {
			return nil, err
		}
		return readPoint(src), nil
	})
}

// LSeg is a line segment between two points.
type LSeg struct{ A, B Point }

func lsegCodec() *Codec {
	return newScalar(oid.LSeg, "lseg", func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		s, ok := v.(LSeg)
		if !ok {
			return dataErr(oid.LSeg, "expected LSeg, got %T", v)
		}
		writePoint(w, s.A)
		writePoint(w, s.B)
		return nil
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		if err := wantLen(oid.LSeg, src, 32); err != nil {
			return nil, err
		}
		return LSeg{A: readPoint(src[0:16]), B: readPoint(src[16:32])}, nil
	})
}

// Box is the two opposite corners of an axis-aligned rectangle.
type Box struct{ High, Low Point }

func boxCodec() *Codec {
	return newScalar(oid.Box, "box", func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		b, ok := v.(Box)
		if !ok {
			return dataErr(oid.Box, "expected Box, got %T", v)
		}
		writePoint(w, b.High)
		writePoint(w, b.Low)
		return nil
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		if err := wantLen(oid.Box, src, 32); err != nil {
			return nil, err
		}
		return Box{High: readPoint(src[0:16]), Low: readPoint(src[16:32])}, nil
	})
}

// Path is an ordered list of points, either open or closed.
type Path struct {
	Points []Point
	Closed bool
}

func pathCodec() *Codec {
	return newScalar(oid.Path, "path", func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		p, ok := v.(Path)
		if !ok {
			return dataErr(oid.Path, "expected Path, got %T", v)
		}
		if p.Closed {
			w.WriteByte(1)
		} else {
			w.WriteByte(0)
		}
		w.WriteInt32(int32(len(p.Points)))
		for _, pt := range p.Points {
			writePoint(w, pt)
		}
		return nil
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		if len(src) < 5 {
			return nil, dataErr(oid.Path, "short path payload: %d bytes", len(src))
		}
		closed := src[0] != 0
		n := int(int32(binary.BigEndian.Uint32(src[1:5])))
		if err := wantLen(oid.Path, src[5:], n*16); err != nil {
			return nil, err
		}
		points := make([]Point, n)
		for i := 0; i < n; i++ {
			points[i] = readPoint(src[5+i*16 : 5+(i+1)*16])
		}
		return Path{Points: points, Closed: closed}, nil
	})
}

// Polygon is a closed sequence of points with no explicit closed flag on
// the wire (a polygon is always closed).
type Polygon struct{ Points []Point }

func polygonCodec() *Codec {
	return newScalar(oid.Polygon, "polygon", func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		p, ok := v.(Polygon)
		if !ok {
			return dataErr(oid.Polygon, "expected Polygon, got %T", v)
		}
		w.WriteInt32(int32(len(p.Points)))
		for _, pt := range p.Points {
			writePoint(w, pt)
		}
		return nil
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		if len(src) < 4 {
			return nil, dataErr(oid.Polygon, "short polygon payload: %d bytes", len(src))
		}
		n := int(int32(binary.BigEndian.Uint32(src[0:4])))
		if err := wantLen(oid.Polygon, src[4:], n*16); err != nil {
			return nil, err
		}
		points := make([]Point, n)
		for i := 0; i < n; i++ {
			points[i] = readPoint(src[4+i*16 : 4+(i+1)*16])
		}
		return Polygon{Points: points}, nil
	})
}

// Line is the infinite line Ax + By + C = 0.
type Line struct{ A, B, C float64 }

func lineCodec() *Codec {
	return newScalar(oid.Line, "line", func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		l, ok := v.(Line)
		if !ok {
			return dataErr(oid.Line, "expected Line, got %T", v)
		}
		w.WriteFloat64(l.A)
		w.WriteFloat64(l.B)
		w.WriteFloat64(l.C)
		return nil
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		if err := wantLen(oid.Line, src, 24); err != nil {
			return nil, err
		}
		return Line{
			A: math.Float64frombits(binary.BigEndian.Uint64(src[0:8])),
			B: math.Float64frombits(binary.BigEndian.Uint64(src[8:16])),
			C: math.Float64frombits(binary.BigEndian.Uint64(src[16:24])),
		}, nil
	})
}

// Circle is a center point and radius.
type Circle struct {
	Center Point
	Radius float64
}

func circleCodec() *Codec {
	return newScalar(oid.Circle, "circle", func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		c, ok := v.(Circle)
		if !ok {
			return dataErr(oid.Circle, "expected Circle, got %T", v)
		}
		writePoint(w, c.Center)
		w.WriteFloat64(c.Radius)
		return nil
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		if err := wantLen(oid.Circle, src, 24); err != nil {
			return nil, err
		}
		return Circle{Center: readPoint(src[0:16]), Radius: math.Float64frombits(binary.BigEndian.Uint64(src[16:24]))}, nil
	})
}
