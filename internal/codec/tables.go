// internal/codec/tables.go
//
// Fixed-width table encoders/decoders for the CTX format (spec §4.5):
// 32-byte node records, 8-byte edge records, the feature matrix, the
// action catalog, the cluster table and the variable-length URL table.
package codec

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/cortexlabs/cortex/internal/sitegraph"
)

func math32bits(v float32) uint32  { return math.Float32bits(v) }
func bits32math(b uint32) float32  { return math.Float32frombits(b) }

func writeUint32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func writeUint8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

func readUint8(r io.Reader) (uint8, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func writeUint16(w io.Writer, v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readUint16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

// quantize8 maps a [0,1] ratio to its nearest uint8 level (spec §3:
// confidence and freshness are stored as uint8 on the wire).
func quantize8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(v * 255))
}

func dequantize8(b uint8) float64 {
	return float64(b) / 255
}

func writeUint32Slice(w io.Writer, vs []uint32) error {
	for _, v := range vs {
		if err := writeUint32(w, v); err != nil {
			return err
		}
	}
	return nil
}

func readUint32Slice(r io.Reader, n int) ([]uint32, error) {
	out := make([]uint32, n)
	for i := range out {
		v, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func writeIntSlice(w io.Writer, vs []int) error {
	for _, v := range vs {
		if err := writeUint32(w, uint32(v)); err != nil {
			return err
		}
	}
	return nil
}

func readIntSlice(r io.Reader, n int) ([]int, error) {
	out := make([]int, n)
	for i := range out {
		v, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		out[i] = int(v)
	}
	return out, nil
}

func writeString(w io.Writer, s string) error {
	if err := writeUint32(w, uint32(len(s))); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	_, err := w.Write([]byte(s))
	return err
}

func readString(r io.Reader) (string, error) {
	n, err := readUint32(r)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

// Node records are written in a fixed field order as a 32-byte record
// (spec §3/§4.5): page_type(1) + confidence(1, uint8 quantized) +
// freshness(1, uint8 quantized) + flags(2) + content_hash(4) +
// rendered_at(8) + http_status(2) + depth(1) + inbound_count(4) +
// outbound_count(4) + feature_norm(4) = 32 bytes. The URL string lives
// in the separate URL table, not inline here, since it is variable
// length and the node record is fixed-width on disk.
func writeNodes(w io.Writer, nodes []sitegraph.Node) error {
	for _, n := range nodes {
		if err := writeUint8(w, uint8(n.PageType)); err != nil {
			return err
		}
		if err := writeUint8(w, quantize8(n.Confidence)); err != nil {
			return err
		}
		if err := writeUint8(w, quantize8(n.Freshness)); err != nil {
			return err
		}
		if err := writeUint16(w, uint16(n.Flags)); err != nil {
			return err
		}
		if err := writeUint32(w, n.ContentHash); err != nil {
			return err
		}
		var b8 [8]byte
		binary.LittleEndian.PutUint64(b8[:], uint64(n.RenderedAt))
		if _, err := w.Write(b8[:]); err != nil {
			return err
		}
		if err := writeUint16(w, uint16(n.HTTPStatus)); err != nil {
			return err
		}
		depth := n.Depth
		if depth > 255 {
			depth = 255
		}
		if err := writeUint8(w, uint8(depth)); err != nil {
			return err
		}
		if err := writeUint32(w, uint32(n.InboundCount)); err != nil {
			return err
		}
		if err := writeUint32(w, uint32(n.OutboundCount)); err != nil {
			return err
		}
		if err := writeUint32(w, math32bits(n.FeatureNorm)); err != nil {
			return err
		}
	}
	return nil
}

func readNodes(r io.Reader, n int) ([]sitegraph.Node, error) {
	out := make([]sitegraph.Node, n)
	for i := range out {
		pageType, err := readUint8(r)
		if err != nil {
			return nil, err
		}
		confBits, err := readUint8(r)
		if err != nil {
			return nil, err
		}
		freshBits, err := readUint8(r)
		if err != nil {
			return nil, err
		}
		flags, err := readUint16(r)
		if err != nil {
			return nil, err
		}
		contentHash, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		var b8 [8]byte
		if _, err := io.ReadFull(r, b8[:]); err != nil {
			return nil, err
		}
		httpStatus, err := readUint16(r)
		if err != nil {
			return nil, err
		}
		depth, err := readUint8(r)
		if err != nil {
			return nil, err
		}
		inbound, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		outbound, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		normBits, err := readUint32(r)
		if err != nil {
			return nil, err
		}

		out[i] = sitegraph.Node{
			PageType:      sitegraph.PageType(pageType),
			Confidence:    dequantize8(confBits),
			Freshness:     dequantize8(freshBits),
			Flags:         sitegraph.NodeFlags(flags),
			ContentHash:   contentHash,
			RenderedAt:    int64(binary.LittleEndian.Uint64(b8[:])),
			HTTPStatus:    int(httpStatus),
			Depth:         int(depth),
			InboundCount:  int(inbound),
			OutboundCount: int(outbound),
			FeatureNorm:   bits32math(normBits),
		}
	}
	return out, nil
}

// Edge records: target(4) + type(1) + weight(1) + flags(1) + one zero
// pad byte, 8 bytes in all.
func writeEdges(w io.Writer, edges []sitegraph.Edge) error {
	for _, e := range edges {
		if err := writeUint32(w, e.Target); err != nil {
			return err
		}
		b := []byte{byte(e.Type), e.Weight, byte(e.Flags), 0}
		if _, err := w.Write(b); err != nil {
			return err
		}
	}
	return nil
}

func readEdges(r io.Reader, n int) ([]sitegraph.Edge, error) {
	out := make([]sitegraph.Edge, n)
	for i := range out {
		target, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, err
		}
		out[i] = sitegraph.Edge{
			Target: target,
			Type:   sitegraph.EdgeType(b[0]),
			Weight: b[1],
			Flags:  sitegraph.EdgeFlags(b[2]),
		}
	}
	return out, nil
}

func writeFeatures(w io.Writer, features []float32) error {
	for _, v := range features {
		if err := writeUint32(w, math32bits(v)); err != nil {
			return err
		}
	}
	return nil
}

func readFeatures(r io.Reader, nodeCount int) ([]float32, error) {
	total := nodeCount * sitegraph.FeatureDims
	out := make([]float32, total)
	for i := range out {
		bits, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		out[i] = bits32math(bits)
	}
	return out, nil
}

func writeActions(w io.Writer, actions []sitegraph.Action) error {
	if err := writeUint32(w, uint32(len(actions))); err != nil {
		return err
	}
	for _, a := range actions {
		if err := writeUint32(w, uint32(a.OpCode)); err != nil {
			return err
		}
		if err := writeUint32(w, a.Target); err != nil {
			return err
		}
		b := []byte{a.CostHint, byte(a.Risk), 0, 0}
		if _, err := w.Write(b); err != nil {
			return err
		}
	}
	return nil
}

func readActions(r io.Reader, n int) ([]sitegraph.Action, error) {
	out := make([]sitegraph.Action, n)
	for i := range out {
		op, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		target, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, err
		}
		out[i] = sitegraph.Action{
			OpCode:   sitegraph.OpCode(op),
			Target:   target,
			CostHint: b[0],
			Risk:     sitegraph.ActionRisk(b[1]),
		}
	}
	return out, nil
}

func writeClusters(w io.Writer, clusters []sitegraph.Cluster) error {
	for _, c := range clusters {
		for _, v := range c.Centroid {
			if err := writeUint32(w, math32bits(v)); err != nil {
				return err
			}
		}
		if err := writeUint32(w, uint32(c.DominantPageType)); err != nil {
			return err
		}
	}
	return nil
}

func readClusters(r io.Reader, n int) ([]sitegraph.Cluster, error) {
	out := make([]sitegraph.Cluster, n)
	for i := range out {
		var c sitegraph.Cluster
		for d := range c.Centroid {
			bits, err := readUint32(r)
			if err != nil {
				return nil, err
			}
			c.Centroid[d] = bits32math(bits)
		}
		pt, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		c.DominantPageType = sitegraph.PageType(pt)
		out[i] = c
	}
	return out, nil
}

func writeURLTable(w io.Writer, nodes []sitegraph.Node) error {
	for _, n := range nodes {
		if err := writeString(w, n.URL); err != nil {
			return err
		}
	}
	return nil
}

func readURLTable(r io.Reader, n int) ([]string, error) {
	out := make([]string, n)
	for i := range out {
		s, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("url %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}
