package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
)

// Overlay carries the runtime state of one client's dialogue.
type Overlay struct {
	States  map[string]domain.ResourceState
	Current string
}

var stateClasses = map[domain.ResourceState]string{
	domain.StatePartiallyFulfilled: "partial",
	domain.StateFulfilled:          "fulfilled",
	domain.StateConfirmed:          "confirmed",
	domain.StateSkipped:            "skipped",
	domain.StateCancelled:          "cancelled",
}

// GenerateMermaid renders the requires relation as a Mermaid flowchart,
// parents above children. Shapes follow the kind:
//   - final: ((circle))
//   - wrapper: [[subroutine]]
//   - or: {{hexagon}}
//   - list: [/parallelogram/]
//   - anything else: [rectangle]
func GenerateMermaid(resources []*domain.Resource, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, r := range resources {
		id := sanitizeMermaidID(r.Name)
		opener, closer := "[", "]"
		switch {
		case r.Kind == domain.KindFinal || r.Name == domain.FinalResourceName:
			opener, closer = "((", "))"
		case r.Kind.IsWrapper():
			opener, closer = "[[", "]]"
		case r.Kind == domain.KindOr:
			opener, closer = "{{", "}}"
		case r.Kind == domain.KindList:
			opener, closer = "[/", "/]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s <br/> %s\"%s\n", id, opener, r.Name, r.Kind, closer)
	}

	for _, r := range resources {
		arrow := "-->"
		if r.Kind == domain.KindOr {
			arrow = "-. or .->"
		}
		for _, req := range r.Requires {
			fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(r.Name), arrow, sanitizeMermaidID(req))
		}
	}

	if overlay != nil {
		writeOverlay(&sb, overlay)
	}
	return sb.String()
}

func writeOverlay(sb *strings.Builder, overlay *Overlay) {
	sb.WriteString("\n    %% Overlay Styles\n")
	// color:#000 keeps labels readable on both light and dark themes.
	sb.WriteString("    classDef partial fill:#fff3e0,stroke:#ef6c00,color:#000;\n")
	sb.WriteString("    classDef fulfilled fill:#e1f5fe,stroke:#01579b,color:#000;\n")
	sb.WriteString("    classDef confirmed fill:#e8f5e9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef skipped fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray:4,color:#000;\n")
	sb.WriteString("    classDef cancelled fill:#ffebee,stroke:#c62828,color:#000;\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

	names := make([]string, 0, len(overlay.States))
	for name := range overlay.States {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if class, ok := stateClasses[overlay.States[name]]; ok {
			fmt.Fprintf(sb, "    class %s %s;\n", sanitizeMermaidID(name), class)
		}
	}
	if overlay.Current != "" {
		fmt.Fprintf(sb, "    class %s current;\n", sanitizeMermaidID(overlay.Current))
	}
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
