package objdiff

import (
	"fmt"
	"sort"

	"github.com/emenda-labs/mergeassist/core/mergespec"
	"github.com/emenda-labs/mergeassist/pkg/canonical"
)

type nodeStatus int

const (
	nodeAdded nodeStatus = iota
	nodeRemoved
	nodeModified
	nodeUnchanged
)

// flowKey identifies a flow by its endpoints. Ordinal separates parallel flows
// between the same pair of nodes, in the order they appear in the snapshot.
type flowKey struct {
	from    string
	to      string
	ordinal int
}

// graphState holds the working state across the node and flow passes.
type graphState struct {
	oldNodes  map[string]mergespec.Node
	newNodes  map[string]mergespec.Node
	oldPrints map[string]uint64
	newPrints map[string]uint64
	status    map[string]nodeStatus
	oldFlows  map[flowKey]mergespec.Flow
	newFlows  map[flowKey]mergespec.Flow
	diff      mergespec.GraphDiff
}

// DiffGraph compares two process model snapshots.
//
// Nodes are matched by node id only. A matched node is modified iff its type,
// name or canonically serialized property bag differ. Flows are matched by
// their (from, to) pair; since nodes keep their ids across snapshots the pair
// needs no remapping. A flow present on both sides is unchanged only when both
// endpoints are unchanged nodes and its label and condition are equal.
//
// A node whose id changed between snapshots is reported as removed plus added.
func DiffGraph(baseNodes []mergespec.Node, baseFlows []mergespec.Flow, otherNodes []mergespec.Node, otherFlows []mergespec.Flow) (mergespec.GraphDiff, error) {
	s, err := newGraphState(baseNodes, baseFlows, otherNodes, otherFlows)
	if err != nil {
		return mergespec.GraphDiff{}, err
	}
	s.matchNodes()
	s.matchFlows()
	return s.diff, nil
}

func newGraphState(baseNodes []mergespec.Node, baseFlows []mergespec.Flow, otherNodes []mergespec.Node, otherFlows []mergespec.Flow) (*graphState, error) {
	s := &graphState{
		oldNodes:  make(map[string]mergespec.Node, len(baseNodes)),
		newNodes:  make(map[string]mergespec.Node, len(otherNodes)),
		oldPrints: make(map[string]uint64, len(baseNodes)),
		newPrints: make(map[string]uint64, len(otherNodes)),
		status:    make(map[string]nodeStatus),
		oldFlows:  indexFlows(baseFlows),
		newFlows:  indexFlows(otherFlows),
		diff:      emptyGraphDiff(),
	}
	if err := indexNodes(baseNodes, s.oldNodes, s.oldPrints); err != nil {
		return nil, fmt.Errorf("indexing base nodes: %w", err)
	}
	if err := indexNodes(otherNodes, s.newNodes, s.newPrints); err != nil {
		return nil, fmt.Errorf("indexing other nodes: %w", err)
	}
	return s, nil
}

func emptyGraphDiff() mergespec.GraphDiff {
	return mergespec.GraphDiff{
		Nodes: mergespec.NodeBuckets{
			Added:     []mergespec.Node{},
			Removed:   []mergespec.Node{},
			Modified:  []mergespec.NodeChange{},
			Unchanged: []mergespec.Node{},
		},
		Flows: mergespec.FlowBuckets{
			Added:     []mergespec.Flow{},
			Removed:   []mergespec.Flow{},
			Modified:  []mergespec.FlowChange{},
			Unchanged: []mergespec.Flow{},
		},
	}
}

func indexNodes(nodes []mergespec.Node, byID map[string]mergespec.Node, prints map[string]uint64) error {
	for _, n := range nodes {
		if _, dup := byID[n.ID]; dup {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		fp, err := nodeFingerprint(n)
		if err != nil {
			return fmt.Errorf("fingerprinting node %q: %w", n.ID, err)
		}
		byID[n.ID] = n
		prints[n.ID] = fp
	}
	return nil
}

// nodeFingerprint hashes everything that makes a node "modified" when it changes.
func nodeFingerprint(n mergespec.Node) (uint64, error) {
	props := n.Properties
	if props == nil {
		props = map[string]any{}
	}
	return canonical.Fingerprint(map[string]any{
		"type":       n.Type,
		"name":       n.Name,
		"properties": props,
	})
}

func indexFlows(flows []mergespec.Flow) map[flowKey]mergespec.Flow {
	seen := make(map[[2]string]int)
	out := make(map[flowKey]mergespec.Flow, len(flows))
	for _, f := range flows {
		pair := [2]string{f.From, f.To}
		out[flowKey{from: f.From, to: f.To, ordinal: seen[pair]}] = f
		seen[pair]++
	}
	return out
}

// Pass 1: bucket every node id in the union of both snapshots exactly once.
func (s *graphState) matchNodes() {
	ids := make([]string, 0, len(s.oldNodes)+len(s.newNodes))
	for id := range s.oldNodes {
		ids = append(ids, id)
	}
	for id := range s.newNodes {
		if _, ok := s.oldNodes[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	for _, id := range ids {
		oldNode, inOld := s.oldNodes[id]
		newNode, inNew := s.newNodes[id]
		switch {
		case inOld && !inNew:
			s.status[id] = nodeRemoved
			s.diff.Nodes.Removed = append(s.diff.Nodes.Removed, oldNode)
		case !inOld && inNew:
			s.status[id] = nodeAdded
			s.diff.Nodes.Added = append(s.diff.Nodes.Added, newNode)
		case s.oldPrints[id] == s.newPrints[id]:
			s.status[id] = nodeUnchanged
			s.diff.Nodes.Unchanged = append(s.diff.Nodes.Unchanged, newNode)
		default:
			s.status[id] = nodeModified
			s.diff.Nodes.Modified = append(s.diff.Nodes.Modified, mergespec.NodeChange{Old: oldNode, New: newNode})
		}
	}
}

// Pass 2: bucket flows by presence, then by endpoint and attribute stability.
func (s *graphState) matchFlows() {
	keys := make([]flowKey, 0, len(s.oldFlows)+len(s.newFlows))
	for k := range s.oldFlows {
		keys = append(keys, k)
	}
	for k := range s.newFlows {
		if _, ok := s.oldFlows[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].from != keys[j].from {
			return keys[i].from < keys[j].from
		}
		if keys[i].to != keys[j].to {
			return keys[i].to < keys[j].to
		}
		return keys[i].ordinal < keys[j].ordinal
	})

	for _, k := range keys {
		oldFlow, inOld := s.oldFlows[k]
		newFlow, inNew := s.newFlows[k]
		switch {
		case inOld && !inNew:
			s.diff.Flows.Removed = append(s.diff.Flows.Removed, oldFlow)
		case !inOld && inNew:
			s.diff.Flows.Added = append(s.diff.Flows.Added, newFlow)
		case s.endpointsUnchanged(k) && oldFlow.Label == newFlow.Label && oldFlow.Condition == newFlow.Condition:
			s.diff.Flows.Unchanged = append(s.diff.Flows.Unchanged, newFlow)
		default:
			s.diff.Flows.Modified = append(s.diff.Flows.Modified, mergespec.FlowChange{Old: oldFlow, New: newFlow})
		}
	}
}

func (s *graphState) endpointsUnchanged(k flowKey) bool {
	return s.endpointStable(k.from) && s.endpointStable(k.to)
}

// An endpoint declared in neither node set carries no change of its own.
func (s *graphState) endpointStable(id string) bool {
	st, ok := s.status[id]
	return !ok || st == nodeUnchanged
}
