package codec

import (
	"net"

	"github.com/jackc/pgtype"
	"github.com/pgfe/pgfe/buffer"
	"github.com/pgfe/pgfe/oid"
)

// Postgres wire family bytes for inet/cidr, distinct from the address
// family constants the stdlib net package uses.
const (
	pgAFInet  = 2
	pgAFInet6 = 3
)

// inetFamilyCodec builds the codec shared by inet and cidr: a family
// byte, prefix bits, an is-cidr flag, an address length byte and the raw
// address bytes. The only difference between the two OIDs is the value of
// the is-cidr flag this codec writes, matching the documented layout
// rather than pgtype's own (unexported) encoder; the Go-side value is
// still a *net.IPNet, optionally wrapped in pgtype.Inet for structured
// scalar vocabulary.
func inetFamilyCodec(o oid.OID, name string, isCIDR bool) *Codec {
	return newScalar(o, name, func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		ipnet, err := toIPNet(o, v)
		if err != nil {
			return err
		}

		ip4 := ipnet.IP.To4()
		family := byte(pgAFInet6)
		addr := []byte(ipnet.IP)
		if ip4 != nil {
			family = pgAFInet
			addr = ip4
		}

		ones, _ := ipnet.Mask.Size()

		w.WriteByte(family)
		w.WriteByte(byte(ones))
		if isCIDR {
			w.WriteByte(1)
		} else {
			w.WriteByte(0)
		}
		w.WriteByte(byte(len(addr)))
		w.WriteBytes(addr)
		return nil
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		if len(src) < 4 {
			return nil, dataErr(o, "short inet/cidr payload: %d bytes", len(src))
		}

		family := src[0]
		bits := src[1]
		addrLen := int(src[3])

		if len(src) != 4+addrLen {
			return nil, dataErr(o, "inet/cidr length mismatch: declared %d, have %d", addrLen, len(src)-4)
		}

		ip := net.IP(append([]byte{}, src[4:]...))

		var maskBits int
		switch family {
		case pgAFInet:
			maskBits = 32
		case pgAFInet6:
			maskBits = 128
		default:
			return nil, dataErr(o, "unknown inet family byte %d", family)
		}

		return &net.IPNet{IP: ip, Mask: net.CIDRMask(int(bits), maskBits)}, nil
	})
}

func toIPNet(o oid.OID, v any) (*net.IPNet, error) {
	switch n := v.(type) {
	case *net.IPNet:
		return n, nil
	case net.IPNet:
		return &n, nil
	case net.IP:
		bits := 32
		if n.To4() == nil {
			bits = 128
		}
		return &net.IPNet{IP: n, Mask: net.CIDRMask(bits, bits)}, nil
	case pgtype.Inet:
		if n.IPNet == nil {
			return nil, dataErr(o, "pgtype.Inet has no IPNet set")
		}
		return n.IPNet, nil
	default:
		return nil, dataErr(o, "expected *net.IPNet, net.IP or pgtype.Inet, got %T", v)
	}
}

// macaddrCodec: textual fallback, one of the text-format system types.
func macaddrCodec() *Codec {
	return newTextScalar(oid.MacAddr, "macaddr", func(w *buffer.Writer, _ buffer.TextEncoder, v any) error {
		hw, ok := v.(net.HardwareAddr)
		if !ok {
			s, ok := v.(string)
			if !ok {
				return dataErr(oid.MacAddr, "expected net.HardwareAddr or string, got %T", v)
			}
			w.WriteBytes([]byte(s))
			return nil
		}
		w.WriteBytes([]byte(hw.String()))
		return nil
	}, func(src []byte, _ buffer.TextEncoder) (any, error) {
		hw, err := net.ParseMAC(string(src))
		if err != nil {
			return string(src), nil
		}
		return hw, nil
	})
}
