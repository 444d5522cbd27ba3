package buffer

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/walteh/ussls/pkg/position"
)

// maxLeafBytes bounds the text held by a single leaf. Adjacent small leaves
// are merged on join so keystroke-sized inserts do not fragment the tree.
const maxLeafBytes = 512

// summary aggregates the metrics of a span of text. Every node caches the
// summary of its subtree so that offset, line, and brace queries descend the
// tree in O(log n).
type summary struct {
	bytes  int
	units  int // UTF-16 code units
	lines  int // '\n' count
	opens  int // '{' count
	closes int // '}' count
}

func summarize(s string) summary {
	sum := summary{bytes: len(s)}
	for _, r := range s {
		switch r {
		case '\n':
			sum.lines++
		case '{':
			sum.opens++
		case '}':
			sum.closes++
		}
		sum.units += utf16.RuneLen(r)
	}
	return sum
}

func (s summary) add(o summary) summary {
	return summary{
		bytes:  s.bytes + o.bytes,
		units:  s.units + o.units,
		lines:  s.lines + o.lines,
		opens:  s.opens + o.opens,
		closes: s.closes + o.closes,
	}
}

// node is an immutable AVL-balanced rope node. Leaves hold text; branches
// always have two children.
type node struct {
	left, right *node
	text        string
	height      int
	sum         summary
}

func newLeaf(s string) *node {
	if s == "" {
		return nil
	}
	return &node{text: s, sum: summarize(s)}
}

func newBranch(l, r *node) *node {
	return &node{
		left:   l,
		right:  r,
		height: 1 + max(l.height, r.height),
		sum:    l.sum.add(r.sum),
	}
}

func (n *node) isLeaf() bool {
	return n.left == nil
}

// build chunks s into leaves on rune boundaries and assembles a balanced tree.
func build(s string) *node {
	if s == "" {
		return nil
	}
	leaves := make([]*node, 0, len(s)/maxLeafBytes+1)
	for len(s) > 0 {
		cut := len(s)
		if cut > maxLeafBytes {
			cut = maxLeafBytes
			for cut > 0 && !utf8.RuneStart(s[cut]) {
				cut--
			}
			if cut == 0 {
				cut = maxLeafBytes
			}
		}
		leaves = append(leaves, newLeaf(s[:cut]))
		s = s[cut:]
	}
	return buildBalanced(leaves)
}

func buildBalanced(leaves []*node) *node {
	switch len(leaves) {
	case 0:
		return nil
	case 1:
		return leaves[0]
	}
	mid := len(leaves) / 2
	return newBranch(buildBalanced(leaves[:mid]), buildBalanced(leaves[mid:]))
}

func fits(l, r *node) bool {
	return l.isLeaf() && r.isLeaf() && len(l.text)+len(r.text) <= maxLeafBytes
}

// concat2 joins two trees of similar height, folding a lone leaf into the
// neighbouring leaf when the result still fits.
func concat2(l, r *node) *node {
	switch {
	case fits(l, r):
		return newLeaf(l.text + r.text)
	case r.isLeaf() && !l.isLeaf() && fits(l.right, r):
		return newBranch(l.left, newLeaf(l.right.text+r.text))
	case l.isLeaf() && !r.isLeaf() && fits(l, r.left):
		return newBranch(newLeaf(l.text+r.left.text), r.right)
	}
	return newBranch(l, r)
}

// join concatenates two trees, keeping the AVL height invariant.
func join(l, r *node) *node {
	switch {
	case l == nil:
		return r
	case r == nil:
		return l
	case l.height > r.height+1:
		return joinRight(l, r)
	case r.height > l.height+1:
		return joinLeft(l, r)
	}
	return concat2(l, r)
}

func joinRight(l, r *node) *node {
	if l.height <= r.height+1 {
		return concat2(l, r)
	}
	return rebalance(l.left, joinRight(l.right, r))
}

func joinLeft(l, r *node) *node {
	if r.height <= l.height+1 {
		return concat2(l, r)
	}
	return rebalance(joinLeft(l, r.left), r.right)
}

func rebalance(l, r *node) *node {
	switch {
	case l.height > r.height+1:
		if l.left.height >= l.right.height {
			return newBranch(l.left, newBranch(l.right, r))
		}
		return newBranch(newBranch(l.left, l.right.left), newBranch(l.right.right, r))
	case r.height > l.height+1:
		if r.right.height >= r.left.height {
			return newBranch(newBranch(l, r.left), r.right)
		}
		return newBranch(newBranch(l, r.left.left), newBranch(r.left.right, r.right))
	}
	return newBranch(l, r)
}

// split divides n so the left tree holds the first k UTF-16 units. A k inside
// a surrogate pair rounds down to the start of the pair.
func split(n *node, k int) (*node, *node) {
	switch {
	case n == nil:
		return nil, nil
	case k <= 0:
		return nil, n
	case k >= n.sum.units:
		return n, nil
	case n.isLeaf():
		b := position.UTF16ToByte(n.text, k)
		return newLeaf(n.text[:b]), newLeaf(n.text[b:])
	}

	lu := n.left.sum.units
	switch {
	case k < lu:
		a, b := split(n.left, k)
		return a, join(b, n.right)
	case k == lu:
		return n.left, n.right
	}
	a, b := split(n.right, k-lu)
	return join(n.left, a), b
}

// prefixUnits returns the summary of the first k UTF-16 units.
func (n *node) prefixUnits(k int) summary {
	var acc summary
	for n != nil && k > 0 {
		if k >= n.sum.units {
			return acc.add(n.sum)
		}
		if n.isLeaf() {
			return acc.add(summarize(n.text[:position.UTF16ToByte(n.text, k)]))
		}
		if k <= n.left.sum.units {
			n = n.left
			continue
		}
		acc = acc.add(n.left.sum)
		k -= n.left.sum.units
		n = n.right
	}
	return acc
}

// prefixBytes returns the summary of the first b bytes.
func (n *node) prefixBytes(b int) summary {
	var acc summary
	for n != nil && b > 0 {
		if b >= n.sum.bytes {
			return acc.add(n.sum)
		}
		if n.isLeaf() {
			return acc.add(summarize(n.text[:b]))
		}
		if b <= n.left.sum.bytes {
			n = n.left
			continue
		}
		acc = acc.add(n.left.sum)
		b -= n.left.sum.bytes
		n = n.right
	}
	return acc
}

// prefixLines returns the summary of everything before the start of line
// (that is, up to and including the line-th newline).
func (n *node) prefixLines(line int) summary {
	var acc summary
	for n != nil && line > 0 {
		if line > n.sum.lines {
			return acc.add(n.sum)
		}
		if n.isLeaf() {
			idx := nthNewline(n.text, line)
			if idx < 0 {
				return acc.add(n.sum)
			}
			return acc.add(summarize(n.text[:idx+1]))
		}
		if line <= n.left.sum.lines {
			n = n.left
			continue
		}
		acc = acc.add(n.left.sum)
		line -= n.left.sum.lines
		n = n.right
	}
	return acc
}

func nthNewline(s string, n int) int {
	off := 0
	for {
		i := strings.IndexByte(s[off:], '\n')
		if i < 0 {
			return -1
		}
		n--
		if n == 0 {
			return off + i
		}
		off += i + 1
	}
}

// appendBytes writes the bytes in [start, end) of n to sb.
func (n *node) appendBytes(sb *strings.Builder, start, end int) {
	if n == nil || start >= end || end <= 0 || start >= n.sum.bytes {
		return
	}
	if n.isLeaf() {
		sb.WriteString(n.text[max(start, 0):min(end, len(n.text))])
		return
	}
	lb := n.left.sum.bytes
	n.left.appendBytes(sb, start, end)
	n.right.appendBytes(sb, start-lb, end-lb)
}

func (n *node) appendAll(sb *strings.Builder) {
	if n == nil {
		return
	}
	if n.isLeaf() {
		sb.WriteString(n.text)
		return
	}
	n.left.appendAll(sb)
	n.right.appendAll(sb)
}
