package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the chat banner with the version and dialogue name.
func PrintBanner(w io.Writer, version, dialogue string) {
	p := termenv.EnvColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"                   _", "#818cf8"},
		{"  _ __  __ _ _ _| |___ _  _", "#a78bfa"},
		{" | '_ \\/ _` | '_| / -_) || |", "#c084fc"},
		{" | .__/\\__,_|_| |_\\___|\\_, |", "#e879f9"},
		{" |_|                   |__/", "#f472b6"},
	}
	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	info := termenv.String(fmt.Sprintf(" %s · %s", dialogue, version)).Faint()
	fmt.Fprintln(w, info)
	fmt.Fprintln(w, termenv.String(" /reset starts over, /quit leaves").Faint())
	fmt.Fprintln(w)
}
