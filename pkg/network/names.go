package network

import (
	"fmt"
	"strconv"
	"strings"
)

// StopNodeName returns the node name for a stop: "<stopID>:<name>".
func StopNodeName(stopID int, name string) string {
	return fmt.Sprintf("%d:%s", stopID, name)
}

// BoardingNodeName returns the node name for a boarding node: "<stopID>:<name>@<line>".
func BoardingNodeName(stopID int, name string, line int) string {
	return fmt.Sprintf("%d:%s@%d", stopID, name, line)
}

// ParseStopID extracts the source stop ID encoded in a stop or boarding node name.
func ParseStopID(name string) (int, bool) {
	prefix, _, ok := strings.Cut(name, ":")
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, false
	}
	return id, true
}

// StopIndex maps source stop IDs to stop node IDs for every stop node in net.
func StopIndex(net *Network) (map[int]int, error) {
	idx := make(map[int]int)
	for _, n := range net.Nodes {
		if n.Type != NodeStop {
			continue
		}
		stopID, ok := ParseStopID(n.Name)
		if !ok {
			return nil, fmt.Errorf("node %d: %w: %q", n.ID, ErrUnnamedStop, n.Name)
		}
		if prev, dup := idx[stopID]; dup {
			return nil, fmt.Errorf("stop %d on nodes %d and %d: %w", stopID, prev, n.ID, ErrDuplicateStop)
		}
		idx[stopID] = n.ID
	}
	return idx, nil
}
