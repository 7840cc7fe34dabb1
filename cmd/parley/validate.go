package main

import (
	"fmt"

	"github.com/aretw0/parley/pkg/adapters/template"
	"github.com/aretw0/parley/pkg/dsm"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check dialogue templates",
	Long: `Parses each template and builds its resource graph, reporting unknown
kinds, missing Final resources, dangling requirements and wrappers shared by
more than one parent.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, file := range args {
			tmpl, err := template.LoadFile(file)
			if err == nil {
				_, err = dsm.New(tmpl)
			}
			if err != nil {
				failed++
				printf(cmd, "✗ %s: %v\n", file, err)
				continue
			}
			printf(cmd, "✓ %s: dialogue %q, %d resources, %d dynamic\n",
				file, tmpl.Name, len(tmpl.Resources), len(tmpl.DynamicResources))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d templates are invalid", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
