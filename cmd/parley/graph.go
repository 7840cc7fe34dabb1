package main

import (
	"github.com/aretw0/parley/internal/cli"
	"github.com/aretw0/parley/internal/presentation/graph"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [dialogue]",
	Short: "Print the resource graph of a dialogue as Mermaid",
	Long: `Renders the requires relation of a dialogue as a Mermaid flowchart.
With --client the stored state of that client is overlaid and the resource in
focus is highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		ctx := cmd.Context()

		stack, err := cli.Build(ctx, cfg, logger, false)
		if err != nil {
			return err
		}
		defer stack.Close()

		name := "fruitseller"
		if len(args) > 0 {
			name = args[0]
		}

		client, _ := cmd.Flags().GetString("client")
		if client == "" {
			tmpl, err := stack.Engine.Template(ctx, name)
			if err != nil {
				return err
			}
			printf(cmd, "%s", graph.GenerateMermaid(tmpl.Resources, nil))
			return nil
		}

		m, err := stack.Engine.Inspect(ctx, client, name)
		if err != nil {
			return err
		}
		overlay := &graph.Overlay{States: make(map[string]domain.ResourceState)}
		for _, r := range m.Resources() {
			overlay.States[r.Name] = r.State
		}
		if m.Active() {
			overlay.Current = m.CurrentResource().Name
		}
		printf(cmd, "%s", graph.GenerateMermaid(m.Resources(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("client", "", "Overlay the stored state of this client")
}
