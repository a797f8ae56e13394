package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Sternrassler/dex-browser/pkg/browser"
	"github.com/Sternrassler/dex-browser/pkg/catalog"
	"github.com/Sternrassler/dex-browser/pkg/pagination"
	"github.com/Sternrassler/dex-browser/pkg/view"
	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	nameWidth = 16
	barWidth  = 20
	colWidth  = 34
)

var (
	browseRows int
	noColor    bool
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the catalog interactively",
	Long: `Start an interactive session on standard input.

The session keeps a virtual viewport of --rows lines over the filtered
records. Scrolling it to the bottom loads the next page, exactly like
scrolling a list in a browser window. Type "help" for the command list.`,
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().IntVar(&browseRows, "rows", 20, "Viewport height in records")
	browseCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgFile, currentOverrides())
	if err != nil {
		return err
	}
	cfg.setupLogging()
	if noColor {
		color.Enable = false
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	b, cleanup, err := newBrowser(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	s := newSession(b, cmd.InOrStdin(), cmd.OutOrStdout(), browseRows)
	if err := b.Mount(ctx); err != nil {
		fmt.Fprintf(s.out, "First page failed to load (%v). Scroll to retry.\n", err)
	}
	defer b.Unmount()

	return s.run(ctx)
}

// session is one interactive terminal session over a browser.
type session struct {
	b    *browser.Browser
	in   *bufio.Scanner
	out  io.Writer
	rows int
	top  int
}

func newSession(b *browser.Browser, in io.Reader, out io.Writer, rows int) *session {
	if rows <= 0 {
		rows = 20
	}
	return &session{b: b, in: bufio.NewScanner(in), out: out, rows: rows}
}

func (s *session) run(ctx context.Context) error {
	s.renderList()
	fmt.Fprint(s.out, "> ")
	for s.in.Scan() {
		line := strings.TrimSpace(s.in.Text())
		if line != "" {
			if quit := s.exec(ctx, line); quit {
				return nil
			}
		}
		fmt.Fprint(s.out, "> ")
	}
	return s.in.Err()
}

// exec runs one command line and reports whether the session should end.
func (s *session) exec(ctx context.Context, line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		s.renderHelp()
	case "list", "ls":
		s.renderList()
	case "scroll", "down":
		s.scroll(arg)
	case "top":
		s.top = 0
		s.renderList()
	case "more":
		if err := s.b.LoadMore(ctx); err != nil {
			fmt.Fprintf(s.out, "Load failed: %v\n", err)
		}
		s.renderStatus()
	case "search", "find", "/":
		s.b.SetQuery(arg)
		s.top = 0
		s.renderList()
	case "expand", "toggle":
		id, ok := s.parseID(arg)
		if !ok {
			break
		}
		if err := s.b.ToggleDetails(id); err != nil {
			fmt.Fprintln(s.out, err)
			break
		}
		rec, _ := s.b.Record(id)
		s.renderRecord(rec)
	case "show":
		id, ok := s.parseID(arg)
		if !ok {
			break
		}
		rec, found := s.b.Record(id)
		if !found {
			fmt.Fprintf(s.out, "No record %d\n", id)
			break
		}
		rec.UI.DetailsExpanded = true
		s.renderRecord(rec)
	case "compare":
		switch strings.ToLower(arg) {
		case "on":
			s.b.SetCompareMode(true)
		case "off":
			s.b.SetCompareMode(false)
		default:
			if cmp := s.b.Comparison(); cmp != nil {
				s.renderComparison(cmp)
				return false
			}
		}
		s.renderCompareState()
	case "select", "pick":
		id, ok := s.parseID(arg)
		if !ok {
			break
		}
		changed, err := s.b.Select(id)
		if err != nil {
			fmt.Fprintln(s.out, err)
			break
		}
		if !changed && !s.b.Snapshot().CompareMode {
			fmt.Fprintln(s.out, `Comparison mode is off, use "compare on" first`)
			break
		}
		s.renderCompareState()
		if cmp := s.b.Comparison(); cmp != nil {
			s.renderComparison(cmp)
		}
	case "status":
		s.renderStatus()
	default:
		fmt.Fprintf(s.out, "Unknown command %q, type \"help\"\n", cmd)
	}
	return false
}

func (s *session) parseID(arg string) (int, bool) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Fprintf(s.out, "Expected a record id, got %q\n", arg)
		return 0, false
	}
	return id, true
}

// viewport maps the line window onto the filtered list. The content is
// never shorter than the window, like a page that fits its window.
func (s *session) viewport() pagination.Viewport {
	content := len(s.b.Records())
	if content < s.rows {
		content = s.rows
	}
	return pagination.Viewport{
		ScrollTop:      float64(s.top),
		ViewportHeight: float64(s.rows),
		ContentHeight:  float64(content),
	}
}

func (s *session) scroll(arg string) {
	step := s.rows
	if arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			fmt.Fprintf(s.out, "Expected a positive line count, got %q\n", arg)
			return
		}
		step = n
	}

	maxTop := len(s.b.Records()) - s.rows
	if maxTop < 0 {
		maxTop = 0
	}
	s.top += step
	if s.top > maxTop {
		s.top = maxTop
	}

	s.b.Scroll(s.viewport())
	if s.b.Snapshot().Busy {
		fmt.Fprintln(s.out, "Loading more records...")
		s.b.Wait()
	}
	s.renderList()
}

func (s *session) renderHelp() {
	fmt.Fprint(s.out, `Commands:
  list              show the records in the viewport
  scroll [n]        scroll down n lines (default one screen); loads more at the bottom
  top               scroll back to the top
  more              load the next page now
  search <text>     filter by name (empty clears the filter)
  expand <id>       toggle the detail panel of a record
  show <id>         print a record with details
  compare on|off    switch comparison mode
  select <id>       pick a record for comparison (again to unpick)
  compare           show the comparison pair
  status            show loading and selection state
  quit              leave
`)
}

func (s *session) renderList() {
	snap := s.b.Snapshot()
	records := snap.Records
	end := s.top + s.rows
	if end > len(records) {
		end = len(records)
	}
	start := s.top
	if start > end {
		start = end
	}

	selected := map[int]bool{}
	for _, id := range snap.Selected {
		selected[id] = true
	}

	for _, rec := range records[start:end] {
		marker := " "
		if selected[rec.ID] {
			marker = "*"
		}
		fmt.Fprintf(s.out, "%s #%-4d %s %s\n", marker, rec.ID, runewidth.FillRight(runewidth.Truncate(rec.Name, nameWidth, "…"), nameWidth), typeLabels(rec.Types))
		if rec.UI.DetailsExpanded {
			s.renderStats(rec, "        ")
		}
	}

	summary := fmt.Sprintf("%d-%d of %d", min(start+1, end), end, len(records))
	if snap.Query != "" {
		summary += fmt.Sprintf(" matching %q (%d loaded)", snap.Query, snap.Total)
	}
	fmt.Fprintln(s.out, summary)
}

func (s *session) renderRecord(rec catalog.Record) {
	fmt.Fprintf(s.out, "#%d %s %s\n", rec.ID, color.Bold.Sprint(rec.Name), typeLabels(rec.Types))
	if !rec.UI.DetailsExpanded {
		return
	}
	fmt.Fprintf(s.out, "  weight %d\n", rec.Weight)
	if rec.Sprite != "" {
		fmt.Fprintf(s.out, "  sprite %s\n", rec.Sprite)
	}
	s.renderStats(rec, "  ")
}

func (s *session) renderStats(rec catalog.Record, indent string) {
	for _, name := range view.StatOrder {
		v := view.StatValue(rec.Stats, name)
		fmt.Fprintf(s.out, "%s%s %3d %s\n", indent, runewidth.FillRight(name, nameWidth), v, statBar(v))
	}
}

func (s *session) renderComparison(cmp *browser.Comparison) {
	left := fmt.Sprintf("#%d %s", cmp.A.ID, cmp.A.Name)
	right := fmt.Sprintf("#%d %s", cmp.B.ID, cmp.B.Name)
	fmt.Fprintf(s.out, "%s %s %s\n", strings.Repeat(" ", nameWidth), runewidth.FillRight(left, colWidth), right)
	fmt.Fprintf(s.out, "%s %s %s\n", strings.Repeat(" ", nameWidth), runewidth.FillRight(typeNames(cmp.A.Types), colWidth), typeNames(cmp.B.Types))

	for _, name := range view.StatOrder {
		a := view.StatValue(cmp.A.Stats, name)
		b := view.StatValue(cmp.B.Stats, name)
		cellA := fmt.Sprintf("%3d %s", a, statBar(a))
		cellB := fmt.Sprintf("%3d %s", b, statBar(b))
		fmt.Fprintf(s.out, "%s %s %s\n", runewidth.FillRight(name, nameWidth), runewidth.FillRight(cellA, colWidth), cellB)
	}
	wA := fmt.Sprintf("%d", cmp.A.Weight)
	fmt.Fprintf(s.out, "%s %s %d\n", runewidth.FillRight("weight", nameWidth), runewidth.FillRight(wA, colWidth), cmp.B.Weight)
}

func (s *session) renderCompareState() {
	snap := s.b.Snapshot()
	fmt.Fprintf(s.out, "Comparison %s, selected %v\n", snap.CompareState, snap.Selected)
}

func (s *session) renderStatus() {
	snap := s.b.Snapshot()
	state := "idle"
	if snap.Busy {
		state = "loading"
	}
	fmt.Fprintf(s.out, "%d records loaded, next page %d, %s", snap.Total, snap.Cursor, state)
	if snap.Exhausted {
		fmt.Fprint(s.out, ", end of catalog reached")
	}
	fmt.Fprintln(s.out)
	log.Debug().Int("records", snap.Total).Int("next_page", snap.Cursor).Msg("Status rendered")
}

func typeLabels(types []catalog.Type) string {
	labels := make([]string, len(types))
	for i, t := range types {
		labels[i] = color.HEX(view.TypeColor(t.Name)).Sprint(t.Name)
	}
	return strings.Join(labels, " ")
}

func typeNames(types []catalog.Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.Name
	}
	return strings.Join(names, "/")
}

func statBar(value int) string {
	filled := int(math.Round(view.StatPercentage(value) / 100 * barWidth))
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}
