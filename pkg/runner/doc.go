/*
Package runner implements the interactive loop around the dialogue engine.

It reads utterances through a pluggable IOHandler (text or JSON lines), runs
each one as a turn and presents the reply. It also owns input sanitization,
which every transport applies before a parse layer sees an utterance.

# Usage

	r := runner.NewRunner(
		runner.WithDialogue("fruitseller"),
		runner.WithClientID("user-1"),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx, engine); err != nil {
		log.Fatal(err)
	}
*/
package runner
