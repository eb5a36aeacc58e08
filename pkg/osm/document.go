// Package osm provides the OpenStreetMap document model and API client for
// nearway.
//
// A Document is an immutable snapshot of the node/way network inside one
// bounding box, decoded from the OSM API 0.6 "map" response. Ways reference
// nodes by id only; the document owns the id lookup table that resolves
// them. Once built a Document is never mutated, so concurrent read-only
// queries need no locking.
package osm

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/osmtools/nearway/pkg/geo"
)

// Node is a single geographic point in the network.
type Node struct {
	ID  int64   `xml:"id,attr" json:"id"`
	Lat float64 `xml:"lat,attr" json:"lat"`
	Lon float64 `xml:"lon,attr" json:"lon"`
}

// Location returns the node's coordinate.
func (n *Node) Location() geo.Location {
	return geo.Location{Latitude: n.Lat, Longitude: n.Lon}
}

// Tag is a key/value attribute attached to a way.
type Tag struct {
	Key   string `xml:"k,attr" json:"key"`
	Value string `xml:"v,attr" json:"value"`
}

// nodeRef is the XML shape of a <nd ref="..."/> element inside a way.
type nodeRef struct {
	Ref int64 `xml:"ref,attr"`
}

// Way is an ordered polyline of node references with descriptive tags.
// It never owns nodes directly; many ways may share the same node.
type Way struct {
	ID       int64   `xml:"id,attr" json:"id"`
	NodeRefs []int64 `xml:"-" json:"nodeRefs"`
	Tags     []Tag   `xml:"tag" json:"tags,omitempty"`
}

// UnmarshalXML decodes a <way> element, flattening its <nd> children into
// the NodeRefs id list.
func (w *Way) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var raw struct {
		ID   int64     `xml:"id,attr"`
		Refs []nodeRef `xml:"nd"`
		Tags []Tag     `xml:"tag"`
	}
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}

	w.ID = raw.ID
	w.Tags = raw.Tags
	w.NodeRefs = make([]int64, len(raw.Refs))
	for i, r := range raw.Refs {
		w.NodeRefs[i] = r.Ref
	}
	return nil
}

// MissingNodeError reports a way node reference that does not resolve in
// the document's index. This is a data-integrity fault in the source
// document, not a condition to skip silently.
type MissingNodeError struct {
	WayID  int64
	NodeID int64
}

func (e *MissingNodeError) Error() string {
	return fmt.Sprintf("way %d references missing node %d", e.WayID, e.NodeID)
}

// Document is an immutable snapshot of nodes and ways decoded from one map
// response. Nodes and Ways keep their document order; the index gives O(1)
// node resolution for way references.
type Document struct {
	XMLName xml.Name `xml:"osm" json:"-"`
	Nodes   []Node   `xml:"node" json:"nodes"`
	Ways    []Way    `xml:"way" json:"ways"`

	index map[int64]int
}

// DecodeDocument decodes an OSM API 0.6 map response and builds the node
// index. Node coordinates are validated during decoding.
func DecodeDocument(r io.Reader) (*Document, error) {
	var doc Document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding OSM document: %w", err)
	}

	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		if err := ValidateCoords(n.Lat, n.Lon); err != nil {
			return nil, fmt.Errorf("node %d: %w", n.ID, err)
		}
	}

	doc.buildIndex()
	return &doc, nil
}

// NewDocument builds a document directly from nodes and ways, for callers
// that already hold decoded records.
func NewDocument(nodes []Node, ways []Way) *Document {
	doc := &Document{Nodes: nodes, Ways: ways}
	doc.buildIndex()
	return doc
}

// buildIndex constructs the id lookup table. Called once at construction;
// the document is read-only afterwards.
func (d *Document) buildIndex() {
	d.index = make(map[int64]int, len(d.Nodes))
	for i, n := range d.Nodes {
		d.index[n.ID] = i
	}
}

// NodeByID resolves a node id through the document index.
func (d *Document) NodeByID(id int64) (*Node, bool) {
	i, ok := d.index[id]
	if !ok {
		return nil, false
	}
	return &d.Nodes[i], true
}

// WayLine resolves a way's node references into its ordered coordinates.
// A reference that does not resolve yields a MissingNodeError naming the
// way and the dangling node id.
func (d *Document) WayLine(w *Way) ([]geo.Location, error) {
	line := make([]geo.Location, len(w.NodeRefs))
	for i, id := range w.NodeRefs {
		n, ok := d.NodeByID(id)
		if !ok {
			return nil, &MissingNodeError{WayID: w.ID, NodeID: id}
		}
		line[i] = n.Location()
	}
	return line, nil
}

// Bounds returns a bounding box covering every node in the document, or nil
// for a document without nodes.
func (d *Document) Bounds() *geo.BoundingBox {
	if len(d.Nodes) == 0 {
		return nil
	}
	bbox := geo.NewBoundingBox()
	for _, n := range d.Nodes {
		bbox.ExtendWithPoint(n.Lat, n.Lon)
	}
	return bbox
}
