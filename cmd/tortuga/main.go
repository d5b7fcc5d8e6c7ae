// Tortuga workspace tool - inspect memory configuration and manage the
// snapshot library of a Tortuga project.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/tortugalang/tortuga/manifest"
	"github.com/tortugalang/tortuga/mem"
	"github.com/tortugalang/tortuga/workspace"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	projectDir := flag.String("C", ".", "Project directory (searched upward for tortuga.toml)")
	showStats := flag.Bool("stats", false, "Show memory configuration and occupancy")
	listSnaps := flag.Bool("list", false, "List snapshots in the workspace library")
	showSnap := flag.String("show", "", "Print the contents of a stored snapshot")
	deleteSnap := flag.String("delete", "", "Delete a stored snapshot")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tortuga [options]\n\n")
		fmt.Fprintf(os.Stderr, "Inspects a Tortuga project's memory setup and snapshot library.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  tortuga -stats              # Memory sizes from tortuga.toml\n")
		fmt.Fprintf(os.Stderr, "  tortuga -list               # Stored workspace snapshots\n")
		fmt.Fprintf(os.Stderr, "  tortuga -show session       # Property lists and globals in 'session'\n")
		fmt.Fprintf(os.Stderr, "  tortuga -delete session\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 1
	}
	commonlog.Configure(verbosity, nil)

	m, err := manifest.FindAndLoad(*projectDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading tortuga.toml: %v\n", err)
		os.Exit(1)
	}
	if m == nil {
		m = manifest.Default(*projectDir)
	}

	didSomething := false

	if *showStats {
		didSomething = true
		if err := printStats(m); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if *listSnaps || *showSnap != "" || *deleteSnap != "" {
		didSomething = true
		if err := withLibrary(m, *listSnaps, *showSnap, *deleteSnap); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if !didSomething {
		flag.Usage()
		os.Exit(2)
	}
}

// printStats brings up a memory context from the manifest and reports
// its configured sizes.
func printStats(m *manifest.Manifest) error {
	memory, err := mem.NewMemory(m.MemConfig())
	if err != nil {
		return err
	}

	s := memory.Stats()
	fmt.Printf("Project:        %s\n", projectName(m))
	fmt.Printf("Frame arena:    %d words (%d bytes)\n", s.ArenaCapacity, s.ArenaCapacity*mem.WordSize)
	fmt.Printf("Value heap:     %d nodes\n", s.HeapCapacity)
	fmt.Printf("Library:        %s\n", m.LibraryPath())
	fmt.Printf("Strict marks:   %v\n", m.GC.StrictMarks)
	if m.Workspace.Autosave != "" {
		fmt.Printf("Autosave:       %s\n", m.Workspace.Autosave)
	}
	return nil
}

func projectName(m *manifest.Manifest) string {
	if m.Project.Name != "" {
		return m.Project.Name
	}
	return "(unnamed)"
}

// withLibrary runs the requested library operations against the
// manifest's snapshot database.
func withLibrary(m *manifest.Manifest, list bool, show, del string) error {
	lib, err := workspace.OpenLibrary(m.LibraryPath())
	if err != nil {
		return err
	}
	defer lib.Close()

	if list {
		entries, err := lib.List()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No snapshots stored.")
		}
		for _, e := range entries {
			fmt.Printf("%-24s %s  %d bytes\n", e.Name, e.CreatedAt.Format("2006-01-02 15:04:05"), e.Size)
		}
	}

	if show != "" {
		snap, err := lib.Load(show)
		if err != nil {
			return err
		}
		printSnapshot(snap)
	}

	if del != "" {
		if err := lib.Delete(del); err != nil {
			return err
		}
		fmt.Printf("Deleted snapshot %q.\n", del)
	}

	return nil
}

// printSnapshot renders a snapshot the way the PPS and PONS commands
// print the live workspace.
func printSnapshot(s *workspace.Snapshot) {
	fmt.Printf("Snapshot saved %s\n", s.SavedAt.Format("2006-01-02 15:04:05"))

	for _, p := range s.Properties {
		if len(p.Pairs) == 0 {
			continue
		}
		for _, pair := range p.Pairs {
			fmt.Printf("PPROP %q %q %s\n", p.Name, pair.Prop, formatDatum(pair.Value))
		}
	}

	for _, g := range s.Globals {
		fmt.Printf("MAKE %q %s\n", g.Name, formatDatum(g.Value))
	}
}

// formatDatum renders a datum in Logo surface syntax.
func formatDatum(d workspace.Datum) string {
	switch d.Kind {
	case workspace.DatumNumber:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", d.Number), "0"), ".")
	case workspace.DatumWord:
		return d.Word
	case workspace.DatumList:
		parts := make([]string, len(d.List))
		for i, e := range d.List {
			parts[i] = formatDatum(e)
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return "[]"
	}
}
