/*
Copyright © 2026 the changealong authors.
This file is part of changealong.

changealong is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

changealong is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with changealong.  If not, see <http://www.gnu.org/licenses/>.
*/


package changealong

import (
	"fmt"
	"math"
	"sort"

	"github.com/prosuite/changealong/geometry"
)

// NodePrecision is the number of significant digits node coordinates are
// rounded to.
const NodePrecision = 7

// Direction selects the rotation sense of Node.Ordered.
type Direction int

// Directions.
const (
	// LeftToRight orders by ascending angle delta (counter-clockwise).
	LeftToRight Direction = iota
	// RightToLeft orders by descending angle delta (clockwise).
	RightToLeft
)

// NodeKey is the rounded location of a node. Two nodes are equal iff
// their keys are equal.
type NodeKey struct{ X, Y float64 }

// KeyOf returns the node key of pt.
func KeyOf(pt geometry.Point) NodeKey {
	return NodeKey{X: roundSignificant(pt.X, NodePrecision), Y: roundSignificant(pt.Y, NodePrecision)}
}

func (k NodeKey) String() string { return fmt.Sprintf("(%g, %g)", k.X, k.Y) }

func roundSignificant(v float64, digits int) float64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	mag := math.Ceil(math.Log10(math.Abs(v)))
	scale := math.Pow(10, float64(digits)-mag)
	return math.Round(v*scale) / scale
}

// Node is a point where subcurves meet.
type Node struct {
	key       NodeKey
	connected []*Subcurve
}

// Key returns the rounded location of n.
func (n *Node) Key() NodeKey { return n.key }

// Point returns the rounded location of n.
func (n *Node) Point() geometry.Point { return geometry.Pt(n.key.X, n.key.Y) }

// Equal reports whether n and o are at the same rounded location.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	return n.key == o.key
}

// Connected returns a copy of the subcurves connected at n in the order
// they were attached.
func (n *Node) Connected() []*Subcurve {
	return append([]*Subcurve(nil), n.connected...)
}

// Ordered returns the subcurves other than arriving that are connected at
// n, sorted by the difference between their outgoing angle and the angle
// of arriving at n. Ties are broken by path length and then by creation
// order. RightToLeft is the exact reverse of LeftToRight. n is not
// modified.
func (n *Node) Ordered(arriving *Subcurve, dir Direction) []*Subcurve {
	theta0 := arriving.angleAt(n)
	type entry struct {
		c      *Subcurve
		delta  float64
		length float64
	}
	var entries []entry
	seen := make(map[*Subcurve]bool)
	for _, c := range n.connected {
		if c == arriving || seen[c] {
			continue
		}
		seen[c] = true
		entries = append(entries, entry{c: c, delta: c.angleAt(n) - theta0, length: c.path.Length()})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.delta != b.delta {
			return a.delta < b.delta
		}
		if a.length != b.length {
			return a.length < b.length
		}
		return a.c.seq < b.c.seq
	})
	out := make([]*Subcurve, len(entries))
	for i, e := range entries {
		if dir == RightToLeft {
			out[len(entries)-1-i] = e.c
		} else {
			out[i] = e.c
		}
	}
	return out
}

func (n *Node) String() string {
	return fmt.Sprintf("node%v[%d]", n.key, len(n.connected))
}

// NodeRegistry holds the nodes of one calculation.
type NodeRegistry struct {
	nodes map[NodeKey]*Node
	order []*Node
	seq   int
}

// NewNodeRegistry returns an empty registry.
func NewNodeRegistry() *NodeRegistry {
	return &NodeRegistry{nodes: make(map[NodeKey]*Node)}
}

// Node returns the node at pt, creating it if necessary.
func (r *NodeRegistry) Node(pt geometry.Point) *Node {
	k := KeyOf(pt)
	if n, ok := r.nodes[k]; ok {
		return n
	}
	n := &Node{key: k}
	r.nodes[k] = n
	r.order = append(r.order, n)
	return n
}

// Nodes returns all nodes in creation order.
func (r *NodeRegistry) Nodes() []*Node { return append([]*Node(nil), r.order...) }

// Attach connects both ends of c to their nodes.
func (r *NodeRegistry) Attach(c *Subcurve) {
	r.seq++
	c.seq = r.seq
	if c.path.IsEmpty() {
		return
	}
	c.fromNode = r.Node(c.path.Start())
	c.toNode = r.Node(c.path.End())
	c.fromNode.connected = append(c.fromNode.connected, c)
	if c.toNode != c.fromNode {
		c.toNode.connected = append(c.toNode.connected, c)
	}
}

// Detach removes c from its nodes.
func (r *NodeRegistry) Detach(c *Subcurve) {
	for _, n := range []*Node{c.fromNode, c.toNode} {
		if n == nil {
			continue
		}
		for i, o := range n.connected {
			if o == c {
				n.connected = append(n.connected[:i], n.connected[i+1:]...)
				break
			}
		}
	}
}
