// internal/codec/ctx.go
//
// CTX binary format read/write (spec §4.5): a 48-byte header followed
// by the node, edge, feature, action, cluster and URL tables. The
// read path validates the magic/version, cross-checks CSR bounds and
// recomputes feature_norm, returning E_MAP_CORRUPT on any mismatch.
//
// Encoding follows the teacher's BTON idiom in internal/toon/bton.go:
// a magic header, length-prefixed strings, and encoding/binary little
// endian integers throughout.
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	cerrors "github.com/cortexlabs/cortex/internal/errors"
	"github.com/cortexlabs/cortex/internal/sitegraph"
)

// Magic is the CTX file magic: the ASCII bytes "CTX\0" read as a
// big-endian uint32 (spec §4.5). Like every other integer it is written
// little-endian, so the first four bytes on disk are 00 58 54 43.
const Magic uint32 = 0x43545800

// FormatVersion is the current CTX wire format version.
const FormatVersion uint32 = 1

// headerSize is the fixed 48-byte header (spec §4.5): magic(4) +
// version(4) + domain_length(4) + inline domain bytes(24) +
// mapped_at(8) + flags(4). The node/edge/cluster counts do not fit the
// fixed header, so they are written as the first fields of the variable
// section instead.
const headerSize = 48
const inlineDomainBytes = 24

// Encode writes m in CTX binary format.
func Encode(w io.Writer, m *sitegraph.SiteMap) error {
	m.RLock()
	defer m.RUnlock()

	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:4], Magic)
	binary.LittleEndian.PutUint32(header[4:8], FormatVersion)

	domain := []byte(m.Domain)
	domainLen := len(domain)
	binary.LittleEndian.PutUint32(header[8:12], uint32(domainLen))
	if domainLen <= inlineDomainBytes {
		copy(header[12:12+inlineDomainBytes], domain)
	}
	binary.LittleEndian.PutUint64(header[36:44], uint64(m.MappedAt))
	flags := uint32(0)
	if m.ProgressiveActive {
		flags = 1
	}
	binary.LittleEndian.PutUint32(header[44:48], flags)

	if _, err := w.Write(header); err != nil {
		return err
	}
	if domainLen > inlineDomainBytes {
		if _, err := w.Write(domain); err != nil {
			return err
		}
	}

	if err := writeUint32(w, uint32(len(m.Nodes))); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(len(m.Edges))); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(len(m.Clusters))); err != nil {
		return err
	}

	if err := writeNodes(w, m.Nodes); err != nil {
		return err
	}
	if err := writeEdges(w, m.Edges); err != nil {
		return err
	}
	if err := writeUint32Slice(w, m.EdgeIndex); err != nil {
		return err
	}
	if err := writeFeatures(w, m.Features); err != nil {
		return err
	}
	if err := writeActions(w, m.Actions); err != nil {
		return err
	}
	if err := writeUint32Slice(w, m.ActionIndex); err != nil {
		return err
	}
	if err := writeIntSlice(w, m.ClusterAssignments); err != nil {
		return err
	}
	if err := writeClusters(w, m.Clusters); err != nil {
		return err
	}
	if err := writeURLTable(w, m.Nodes); err != nil {
		return err
	}

	return nil
}

// Decode reads a CTX stream back into a SiteMap, validating the
// header, cross-checking CSR bounds and recomputing feature_norm.
// Any structural mismatch returns an E_MAP_CORRUPT *errors.Error.
func Decode(r io.Reader) (*sitegraph.SiteMap, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, corrupt("reading header", err)
	}
	magic := binary.LittleEndian.Uint32(header[0:4])
	if magic != Magic {
		return nil, corrupt(fmt.Sprintf("bad magic 0x%x", magic), nil)
	}
	version := binary.LittleEndian.Uint32(header[4:8])
	if version != FormatVersion {
		return nil, corrupt(fmt.Sprintf("unsupported format version %d", version), nil)
	}
	domainLen := binary.LittleEndian.Uint32(header[8:12])
	var domain string
	if domainLen <= inlineDomainBytes {
		domain = string(bytes.TrimRight(header[12:12+domainLen], "\x00"))
	} else {
		buf := make([]byte, domainLen)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, corrupt("reading overflow domain", err)
		}
		domain = string(buf)
	}
	mappedAt := int64(binary.LittleEndian.Uint64(header[36:44]))
	flags := binary.LittleEndian.Uint32(header[44:48])

	nodeCount, err := readUint32(r)
	if err != nil {
		return nil, corrupt("reading node_count", err)
	}
	edgeCount, err := readUint32(r)
	if err != nil {
		return nil, corrupt("reading edge_count", err)
	}
	clusterCount, err := readUint32(r)
	if err != nil {
		return nil, corrupt("reading cluster_count", err)
	}

	nodes, err := readNodes(r, int(nodeCount))
	if err != nil {
		return nil, corrupt("reading node table", err)
	}
	edges, err := readEdges(r, int(edgeCount))
	if err != nil {
		return nil, corrupt("reading edge table", err)
	}
	edgeIndex, err := readUint32Slice(r, int(nodeCount)+1)
	if err != nil {
		return nil, corrupt("reading edge_index", err)
	}
	if err := validateCSR(edgeIndex, len(edges), int(nodeCount)); err != nil {
		return nil, corrupt("edge_index out of bounds", err)
	}

	features, err := readFeatures(r, int(nodeCount))
	if err != nil {
		return nil, corrupt("reading feature matrix", err)
	}

	actionCount, err := readUint32(r)
	if err != nil {
		return nil, corrupt("reading action_count", err)
	}
	actions, err := readActions(r, int(actionCount))
	if err != nil {
		return nil, corrupt("reading action table", err)
	}
	actionIndex, err := readUint32Slice(r, int(nodeCount)+1)
	if err != nil {
		return nil, corrupt("reading action_index", err)
	}
	if err := validateCSR(actionIndex, len(actions), int(nodeCount)); err != nil {
		return nil, corrupt("action_index out of bounds", err)
	}

	assignments, err := readIntSlice(r, int(nodeCount))
	if err != nil {
		return nil, corrupt("reading cluster assignments", err)
	}
	for _, a := range assignments {
		if a < 0 || a >= int(clusterCount) {
			return nil, corrupt(fmt.Sprintf("cluster assignment %d out of range [0,%d)", a, clusterCount), nil)
		}
	}
	clusters, err := readClusters(r, int(clusterCount))
	if err != nil {
		return nil, corrupt("reading cluster table", err)
	}

	urls, err := readURLTable(r, int(nodeCount))
	if err != nil {
		return nil, corrupt("reading URL table", err)
	}
	for i := range nodes {
		nodes[i].URL = urls[i]
		nodes[i].ClusterID = assignments[i]
	}

	if err := recomputeFeatureNorms(nodes, features); err != nil {
		return nil, corrupt("feature_norm mismatch", err)
	}

	m := &sitegraph.SiteMap{
		Domain:             domain,
		MappedAt:           mappedAt,
		Nodes:              nodes,
		Edges:              edges,
		EdgeIndex:          edgeIndex,
		Actions:            actions,
		ActionIndex:        actionIndex,
		Features:           features,
		Clusters:           clusters,
		ClusterAssignments: assignments,
		ProgressiveActive:  flags&1 != 0,
	}
	if err := m.Validate(); err != nil {
		return nil, corrupt("decoded SiteMap failed invariants", err)
	}
	return m, nil
}

func corrupt(msg string, cause error) error {
	return &cerrors.Error{Kind: cerrors.KindMapCorrupt, Msg: msg, Err: cause}
}

func validateCSR(index []uint32, total, n int) error {
	if len(index) != n+1 {
		return fmt.Errorf("index length %d, want %d", len(index), n+1)
	}
	if n > 0 && int(index[n]) != total {
		return fmt.Errorf("index[n]=%d, want table length %d", index[n], total)
	}
	for i := 1; i < len(index); i++ {
		if index[i] < index[i-1] {
			return fmt.Errorf("index not monotonic at %d: %d < %d", i, index[i], index[i-1])
		}
	}
	return nil
}

func recomputeFeatureNorms(nodes []sitegraph.Node, features []float32) error {
	for i := range nodes {
		row := features[i*sitegraph.FeatureDims : (i+1)*sitegraph.FeatureDims]
		var sum float64
		for _, v := range row {
			sum += float64(v) * float64(v)
		}
		got := float32(math.Sqrt(sum))
		// Allow a small float32 rounding tolerance between the stored
		// norm and the recomputed one.
		diff := got - nodes[i].FeatureNorm
		if diff < 0 {
			diff = -diff
		}
		if diff > 1e-3 {
			return fmt.Errorf("node %d: stored feature_norm %v, recomputed %v", i, nodes[i].FeatureNorm, got)
		}
		nodes[i].FeatureNorm = got
	}
	return nil
}
