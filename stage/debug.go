package stage

import (
	"fmt"
	"os"
	"time"
)

// globalDebug enables tree checks in node operations. Set via Scene.SetDebugMode.
var globalDebug bool

// frameStats holds timing for one drawn frame. Only populated in debug mode.
type frameStats struct {
	drawTime  time.Duration
	commands  int
	nodeCount int
}

func (s *Scene) debugLog(stats frameStats) {
	if !s.debug {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "[stage] draw: %v | commands: %d | nodes: %d\n",
		stats.drawTime, stats.commands, stats.nodeCount)
}

// debugCheckDisposed panics when a disposed node is used in a tree operation.
func debugCheckDisposed(n *Node, op string) {
	if n.disposed {
		panic(fmt.Sprintf("stage: %s on disposed node %q", op, n.ID))
	}
}

const debugMaxTreeDepth = 32

// debugCheckTreeDepth warns on stderr if tree depth exceeds the threshold.
func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.Parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		_, _ = fmt.Fprintf(os.Stderr, "[stage] warning: tree depth %d exceeds %d (node %q)\n",
			depth, debugMaxTreeDepth, n.ID)
	}
}

const debugMaxChildCount = 1000

// debugCheckChildCount warns on stderr if a node has more than 1000 children.
func debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		_, _ = fmt.Fprintf(os.Stderr, "[stage] warning: node %q has %d children (threshold %d)\n",
			n.ID, len(n.children), debugMaxChildCount)
	}
}

func countNodes(n *Node) int {
	c := 1
	for _, child := range n.children {
		c += countNodes(child)
	}
	return c
}
