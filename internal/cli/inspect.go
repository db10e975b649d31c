package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/transitnet/pkg/network"
	"github.com/matzehuels/transitnet/pkg/tables"
)

func newInspectCmd() *cobra.Command {
	var nodesPath, arcsPath string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize and check a node and arc table",
		Long: `Count the nodes and arcs of each type and check the network invariants:
unique IDs, no dangling arcs, one board and one alight arc per boarding node,
line arcs between boarding nodes of their line and a reverse arc for every
walking arc.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			spinner := newSpinner(ctx, "Checking network...")
			spinner.Start()
			net, err := tables.ImportNetwork(nodesPath, arcsPath)
			if err != nil {
				spinner.StopWithError("Failed to read network")
				return err
			}
			checkErr := network.Check(net)
			spinner.Stop()

			nextNode, err := tables.Resume(nodesPath, 0)
			if err != nil {
				return err
			}
			nextArc, err := tables.Resume(arcsPath, 0)
			if err != nil {
				return err
			}
			logger.Debug("inspected network", "nodes", net.NodeCount(), "arcs", net.ArcCount())

			fmt.Println(countTable(net))
			printKeyValue("Next node ID", strconv.Itoa(nextNode))
			printKeyValue("Next arc ID", strconv.Itoa(nextArc))

			if checkErr != nil {
				printError("Network check failed")
				return checkErr
			}
			printSuccess("All network checks passed")
			return nil
		},
	}

	cmd.Flags().StringVar(&nodesPath, "nodes", defaultNodesPath, "node table path")
	cmd.Flags().StringVar(&arcsPath, "arcs", defaultArcsPath, "arc table path")
	return cmd
}
