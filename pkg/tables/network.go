package tables

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/matzehuels/transitnet/pkg/errors"
	"github.com/matzehuels/transitnet/pkg/network"
)

// NodeHeader and ArcHeader are the mandatory header rows of the output tables.
var (
	NodeHeader = []string{"ID", "Name", "Type", "Line", "Value"}
	ArcHeader  = []string{"ID", "Type", "Line", "Tail", "Head", "Time"}
)

var nameReplacer = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteNodes writes the node table, header first. Tabs and line breaks in
// names are replaced by spaces.
func WriteNodes(w io.Writer, nodes []network.Node) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(strings.Join(NodeHeader, "\t"))
	bw.WriteByte('\n')
	for _, n := range nodes {
		fmt.Fprintf(bw, "%d\t%s\t%d\t%d\t%s\n",
			n.ID, nameReplacer.Replace(n.Name), int(n.Type), n.Line, formatFloat(n.Value))
	}
	return bw.Flush()
}

// WriteArcs writes the arc table, header first.
func WriteArcs(w io.Writer, arcs []network.Arc) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(strings.Join(ArcHeader, "\t"))
	bw.WriteByte('\n')
	for _, a := range arcs {
		fmt.Fprintf(bw, "%d\t%d\t%d\t%d\t%d\t%s\n",
			a.ID, int(a.Type), a.Line, a.Tail, a.Head, formatFloat(a.Time))
	}
	return bw.Flush()
}

// scanRows calls fn for each data row of a tab-separated table after
// checking the header. Rows passed to fn are numbered from 2.
func scanRows(r io.Reader, file string, header []string, fn func(row int, fields []string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	row := 0
	for sc.Scan() {
		row++
		line := strings.TrimSuffix(sc.Text(), "\r")
		fields := strings.Split(line, "\t")
		if row == 1 {
			if strings.Join(fields, "\t") != strings.Join(header, "\t") {
				return errors.Input(errors.ErrCodeInvalidFormat, file, 1, "",
					fmt.Errorf("header %q, want %q", line, strings.Join(header, "\t")))
			}
			continue
		}
		if line == "" {
			continue
		}
		if len(fields) != len(header) {
			return errors.Input(errors.ErrCodeInvalidFormat, file, row, "",
				fmt.Errorf("%d fields, want %d", len(fields), len(header)))
		}
		if err := fn(row, fields); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", file)
	}
	if row == 0 {
		return errors.New(errors.ErrCodeInvalidFormat, "%s: no header row", file)
	}
	return nil
}

// fieldParser collects the first parse failure of a row.
type fieldParser struct {
	file   string
	row    int
	fields []string
	header []string
	err    error
}

func (p *fieldParser) atoi(i int) int {
	if p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(p.fields[i])
	if err != nil {
		p.err = errors.Input(errors.ErrCodeInvalidNumber, p.file, p.row, p.header[i], err)
	}
	return v
}

func (p *fieldParser) atof(i int) float64 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(p.fields[i], 64)
	if err != nil {
		p.err = errors.Input(errors.ErrCodeInvalidNumber, p.file, p.row, p.header[i], err)
	}
	return v
}

// ReadNodes decodes a node table.
func ReadNodes(r io.Reader, file string) ([]network.Node, error) {
	var nodes []network.Node
	err := scanRows(r, file, NodeHeader, func(row int, f []string) error {
		p := &fieldParser{file: file, row: row, fields: f, header: NodeHeader}
		n := network.Node{
			ID:    p.atoi(0),
			Name:  f[1],
			Type:  network.NodeType(p.atoi(2)),
			Line:  p.atoi(3),
			Value: p.atof(4),
		}
		if p.err != nil {
			return p.err
		}
		if !n.Type.Valid() {
			return errors.Input(errors.ErrCodeInvalidFormat, file, row, "Type",
				fmt.Errorf("unknown node type %d", int(n.Type)))
		}
		nodes = append(nodes, n)
		return nil
	})
	return nodes, err
}

// ReadArcs decodes an arc table.
func ReadArcs(r io.Reader, file string) ([]network.Arc, error) {
	var arcs []network.Arc
	err := scanRows(r, file, ArcHeader, func(row int, f []string) error {
		p := &fieldParser{file: file, row: row, fields: f, header: ArcHeader}
		a := network.Arc{
			ID:   p.atoi(0),
			Type: network.ArcType(p.atoi(1)),
			Line: p.atoi(2),
			Tail: p.atoi(3),
			Head: p.atoi(4),
			Time: p.atof(5),
		}
		if p.err != nil {
			return p.err
		}
		if !a.Type.Valid() {
			return errors.Input(errors.ErrCodeInvalidFormat, file, row, "Type",
				fmt.Errorf("unknown arc type %d", int(a.Type)))
		}
		arcs = append(arcs, a)
		return nil
	})
	return arcs, err
}

// ImportNetwork reads a node table and an arc table.
func ImportNetwork(nodesPath, arcsPath string) (*network.Network, error) {
	net := &network.Network{}
	var err error
	if net.Nodes, err = importTable(nodesPath, ReadNodes); err != nil {
		return nil, err
	}
	if net.Arcs, err = importTable(arcsPath, ReadArcs); err != nil {
		return nil, err
	}
	return net, nil
}

func importTable[T any](path string, read func(io.Reader, string) ([]T, error)) ([]T, error) {
	if err := errors.ValidateTablePath(path, ""); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()
	return read(f, path)
}

// ExportNetwork writes the node and arc tables of net, replacing both files
// only once both have been written in full.
func ExportNetwork(net *network.Network, nodesPath, arcsPath string) error {
	nodes, err := createPending(nodesPath)
	if err != nil {
		return err
	}
	defer nodes.discard()
	arcs, err := createPending(arcsPath)
	if err != nil {
		return err
	}
	defer arcs.discard()

	if err := nodes.write(func(w io.Writer) error { return WriteNodes(w, net.Nodes) }); err != nil {
		return err
	}
	if err := arcs.write(func(w io.Writer) error { return WriteArcs(w, net.Arcs) }); err != nil {
		return err
	}
	if err := arcs.commit(); err != nil {
		return err
	}
	return nodes.commit()
}

// Resume scans the ID column of a node or arc table and returns the ID
// following the largest one. A missing or empty table yields start.
func Resume(path string, start int) (int, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return start, nil
	}
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()

	next := start
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	row := 0
	for sc.Scan() {
		row++
		if row == 1 || sc.Text() == "" {
			continue
		}
		field, _, _ := strings.Cut(sc.Text(), "\t")
		id, err := strconv.Atoi(field)
		if err != nil {
			return 0, errors.Input(errors.ErrCodeInvalidNumber, path, row, "ID", err)
		}
		next = network.ResumeFrom([]int{id}, next)
	}
	if err := sc.Err(); err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	return next, nil
}
