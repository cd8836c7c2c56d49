package mergespec

// LineOp is the operation recorded for one positional line comparison.
type LineOp string

const (
	LineSame   LineOp = "SAME"
	LineAdd    LineOp = "ADD"
	LineRemove LineOp = "REMOVE"
	LineModify LineOp = "MODIFY"
)

// LineDiff is one entry of a positional line diff.
type LineDiff struct {
	LineIndex int    `json:"line_index" yaml:"line_index"`
	BaseLine  string `json:"base_line" yaml:"base_line"`
	NewLine   string `json:"new_line" yaml:"new_line"`
	Op        LineOp `json:"op" yaml:"op"`
}

// Node is a process model node.
type Node struct {
	ID         string         `json:"node_id" yaml:"node_id"`
	Type       string         `json:"object_type" yaml:"object_type"`
	Name       string         `json:"name" yaml:"name"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Flow is a directed process model connection between two nodes.
type Flow struct {
	From      string `json:"from_node_id" yaml:"from_node_id"`
	To        string `json:"to_node_id" yaml:"to_node_id"`
	Label     string `json:"label,omitempty" yaml:"label,omitempty"`
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`
}

// NodeChange pairs the two snapshots of a modified node.
type NodeChange struct {
	Old Node `json:"old" yaml:"old"`
	New Node `json:"new" yaml:"new"`
}

// FlowChange pairs the two snapshots of a modified flow.
type FlowChange struct {
	Old Flow `json:"old" yaml:"old"`
	New Flow `json:"new" yaml:"new"`
}

// NodeBuckets partitions the node id space of two graph snapshots.
type NodeBuckets struct {
	Added     []Node       `json:"added" yaml:"added"`
	Removed   []Node       `json:"removed" yaml:"removed"`
	Modified  []NodeChange `json:"modified" yaml:"modified"`
	Unchanged []Node       `json:"unchanged" yaml:"unchanged"`
}

// FlowBuckets partitions the flow space of two graph snapshots.
type FlowBuckets struct {
	Added     []Flow       `json:"added" yaml:"added"`
	Removed   []Flow       `json:"removed" yaml:"removed"`
	Modified  []FlowChange `json:"modified" yaml:"modified"`
	Unchanged []Flow       `json:"unchanged" yaml:"unchanged"`
}

// GraphDiff is the structural delta between two process model snapshots.
type GraphDiff struct {
	Nodes NodeBuckets `json:"nodes" yaml:"nodes"`
	Flows FlowBuckets `json:"flows" yaml:"flows"`
}

// ChangedNodes returns |added|+|removed|+|modified| nodes.
func (g *GraphDiff) ChangedNodes() int {
	return len(g.Nodes.Added) + len(g.Nodes.Removed) + len(g.Nodes.Modified)
}

// HasChanges reports whether any node or flow moved out of the unchanged buckets.
func (g *GraphDiff) HasChanges() bool {
	return g.ChangedNodes() > 0 ||
		len(g.Flows.Added)+len(g.Flows.Removed)+len(g.Flows.Modified) > 0
}

// DiffKind identifies the shape of a Delta.
type DiffKind string

const (
	DiffKindLine  DiffKind = "line"
	DiffKindGraph DiffKind = "graph"
	DiffKindNone  DiffKind = "none"
)

// Delta is the diff of one object between the base and one other package.
// Exactly one of Lines or Graph is populated, according to the owning DiffResult's Kind.
type Delta struct {
	Lines []LineDiff `json:"lines,omitempty" yaml:"lines,omitempty"`
	Graph *GraphDiff `json:"graph,omitempty" yaml:"graph,omitempty"`
	// Fields lists compared attributes (other than the content field) whose values differ.
	Fields []string `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// ChangedLines counts the non-SAME line operations.
func (d *Delta) ChangedLines() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, l := range d.Lines {
		if l.Op != LineSame {
			n++
		}
	}
	return n
}

// HasChanges reports whether the delta records any difference.
func (d *Delta) HasChanges() bool {
	if d == nil {
		return false
	}
	if len(d.Fields) > 0 {
		return true
	}
	if d.Graph != nil {
		return d.Graph.HasChanges()
	}
	return d.ChangedLines() > 0
}

// Magnitude is the diff size used by complexity estimation.
func (d *Delta) Magnitude() int {
	if d == nil {
		return 0
	}
	if d.Graph != nil {
		return d.Graph.ChangedNodes()
	}
	return d.ChangedLines()
}

// DiffResult holds the customer-side (A vs B) and vendor-side (A vs C) deltas of a change.
// A nil side means that comparison was not applicable or not computed.
type DiffResult struct {
	Kind     DiffKind `json:"kind" yaml:"kind"`
	Customer *Delta   `json:"customer,omitempty" yaml:"customer,omitempty"`
	Vendor   *Delta   `json:"vendor,omitempty" yaml:"vendor,omitempty"`
}

// Preferred returns the vendor-side delta when present, otherwise the customer-side delta.
func (r DiffResult) Preferred() *Delta {
	if r.Vendor != nil {
		return r.Vendor
	}
	return r.Customer
}
