// Command storyboard-inspect prints the story saved in a storyboard store.
//
//	storyboard-inspect -store storyboard.db [-hidden] [-versions]
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/phanxgames/storyboard"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	kindStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Width(10)
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	hiddenStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func main() {
	var (
		path     = flag.String("store", "storyboard.db", "store file")
		hidden   = flag.Bool("hidden", false, "include deleted nodes")
		versions = flag.Bool("versions", false, "list archived versions")
	)
	flag.Parse()

	store, err := storyboard.OpenBoltStore(*path)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	snap, err := storyboard.LoadSession(store)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(titleStyle.Render(fmt.Sprintf("%s: %d nodes", *path, len(snap.App))))
	fmt.Println(boxStyle.Render(renderState(snap, *hidden)))

	if !*versions {
		return
	}
	vs, err := storyboard.LoadVersions(store)
	if err != nil {
		log.Fatal(err)
	}
	if len(vs) == 0 {
		fmt.Fprintln(os.Stderr, "no versions")
		return
	}
	fmt.Println(titleStyle.Render("versions"))
	for _, v := range vs {
		at := time.UnixMilli(v.ID).Format(time.DateTime)
		fmt.Printf("  %s  %s  %s\n", idStyle.Render(fmt.Sprint(v.ID)), at, v.Label)
	}
}

func renderState(snap storyboard.Snapshot, hidden bool) string {
	var b strings.Builder
	for _, n := range snap.App.Order(snap.Sorting) {
		writeNode(&b, n, 0, hidden)
	}
	if b.Len() == 0 {
		return "(empty)"
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeNode(b *strings.Builder, n *storyboard.CNode, depth int, hidden bool) {
	if !n.Visible() && !hidden {
		return
	}
	a := n.Attrs
	line := fmt.Sprintf("%s%s %s  (%.0f, %.0f) %.0fx%.0f",
		strings.Repeat("  ", depth),
		kindStyle.Render(n.Kind.String()),
		idStyle.Render(a.ID),
		a.X, a.Y, a.Width, a.Height)
	switch {
	case n.Text != nil:
		line += fmt.Sprintf("  %q", n.Text.Content)
	case n.Kind == storyboard.KindImage:
		line += "  " + n.DisplayURL()
	}
	if !n.Visible() {
		line = hiddenStyle.Render(line)
	}
	b.WriteString(line)
	b.WriteByte('\n')
	for _, ch := range n.SortedChildren() {
		writeNode(b, ch, depth+1, hidden)
	}
}
