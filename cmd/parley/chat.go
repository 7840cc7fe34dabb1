package main

import (
	"github.com/aretw0/parley/internal/cli"
	"github.com/aretw0/parley/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to a dialogue in the terminal",
	Long: `Starts an interactive session with a dialogue. Type /reset to start over
and /quit to leave. State is kept in the configured store, so a session can be
resumed later with the same --client.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		stack, err := cli.Build(ctx, cfg, logger, false)
		if err != nil {
			return err
		}
		defer stack.Close()

		opts := cli.ChatOptions{In: cmd.InOrStdin(), Out: cmd.OutOrStdout()}
		opts.Dialogue, _ = cmd.Flags().GetString("dialogue")
		opts.ClientID, _ = cmd.Flags().GetString("client")
		opts.Greeting, _ = cmd.Flags().GetString("greeting")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Watch, _ = cmd.Flags().GetBool("watch")
		opts.Plain, _ = cmd.Flags().GetBool("plain")
		if !opts.JSON && !tui.IsInteractive() {
			opts.Plain = true
		}
		return cli.RunChat(ctx, stack, opts, logger)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("dialogue", "fruitseller", "Dialogue to talk to")
	chatCmd.Flags().String("client", "local", "Client identifier the state is stored under")
	chatCmd.Flags().String("greeting", "", "Utterance sent before reading input, e.g. the hotword")
	chatCmd.Flags().Bool("json", false, "Read and write line-delimited JSON")
	chatCmd.Flags().Bool("plain", false, "Disable markdown rendering")
	chatCmd.Flags().Bool("watch", false, "Reload templates when they change")
}
