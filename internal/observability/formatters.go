// Package observability provides formatted terminal output for the CLI.
package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/purelink/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// Writer returns the underlying writer
func (p *Printer) Writer() io.Writer {
	return p.out
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// Messagef prints a single line
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) Messagef(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// PrintJSON writes v as indented JSON
func (p *Printer) PrintJSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintResolution lists the candidates of a resolution, marking the selected one.
func (p *Printer) PrintResolution(res *types.ToolResolution) {
	if res == nil || len(res.Candidates) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Source: %s\n\n", res.Source))

	count := min(len(res.Candidates), maxItemsToShow)
	for i := 0; i < count; i++ {
		c := res.Candidates[i]
		marker := " "
		if i == res.SelectedIndex {
			marker = "→"
		}
		sb.WriteString(fmt.Sprintf("%s %d. %s (%.2f)\n", marker, i+1, c.ToolName, c.Confidence))
		if c.WebsiteDomain != "" {
			sb.WriteString(fmt.Sprintf("     %s\n", c.WebsiteDomain))
		}
	}
	if len(res.Candidates) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(res.Candidates)-maxItemsToShow))
	}
	if res.Disambiguation != "" {
		sb.WriteString(fmt.Sprintf("\nNote: %s\n", res.Disambiguation))
	}

	p.printBox("TOOL CANDIDATES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCandidate outputs the fields of a single candidate.
func (p *Printer) PrintCandidate(c *types.ToolCandidate) {
	if c == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Tool:       %s\n", c.ToolName))
	if c.Developer != "" {
		sb.WriteString(fmt.Sprintf("Developer:  %s\n", c.Developer))
	}
	if c.WebsiteDomain != "" {
		sb.WriteString(fmt.Sprintf("Domain:     %s\n", c.WebsiteDomain))
	}
	if c.WebsiteURL != "" {
		sb.WriteString(fmt.Sprintf("Website:    %s\n", c.WebsiteURL))
	}
	sb.WriteString(fmt.Sprintf("Confidence: %.2f\n", c.Confidence))
	sb.WriteString(fmt.Sprintf("ID:         %s\n", c.CandidateID))
	if c.Notes != "" {
		sb.WriteString(fmt.Sprintf("Notes:      %s\n", c.Notes))
	}

	p.printBox("SELECTED TOOL", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintMethods outputs a numbered menu of discovered methods.
func (p *Printer) PrintMethods(toolName string, d *types.MethodDiscovery) {
	if d == nil || len(d.Methods) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d methods for %s (%s):\n\n", len(d.Methods), toolName, d.DiscoverySource))
	for i, m := range d.Methods {
		sb.WriteString(fmt.Sprintf("%d. %s [%s] (%.2f)\n", i+1, m.MethodName, m.MethodType, m.Confidence))
		if m.AuthType != "" {
			sb.WriteString(fmt.Sprintf("   Auth: %s\n", m.AuthType))
		}
		if m.DocsURL != "" {
			sb.WriteString(fmt.Sprintf("   Docs: %s\n", m.DocsURL))
		}
		if i < len(d.Methods)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("DISCOVERED METHODS", sb.String())
}

// PrintExpiration outputs the freshness of a cached discovery batch.
func (p *Printer) PrintExpiration(info *types.ExpirationInfo) {
	if info == nil {
		return
	}
	if info.IsExpired {
		p.Messagef("Cached methods expired on %s", info.ExpiresAt.Format("2006-01-02"))
		return
	}
	p.Messagef("Using %d cached methods (expire in %d days)", info.MethodsCount, info.DaysUntilExpiry)
}

// PrintCaptureSummary outputs the persisted capture.
func (p *Printer) PrintCaptureSummary(d *types.CaptureDisplay) {
	if d == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Tool:      %s\n", d.ToolName))
	if d.Developer != "" {
		sb.WriteString(fmt.Sprintf("Developer: %s\n", d.Developer))
	}
	if d.Domain != "" {
		sb.WriteString(fmt.Sprintf("Domain:    %s\n", d.Domain))
	}
	sb.WriteString(fmt.Sprintf("Record:    %s", d.ID))

	p.printBox("✅ TOOL CAPTURED", sb.String())
}

// PrintMethodSummary outputs the persisted method selection.
func (p *Printer) PrintMethodSummary(d *types.MethodDisplay) {
	if d == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Method:    %s [%s]\n", d.MethodName, d.MethodType))
	if d.AuthType != "" {
		sb.WriteString(fmt.Sprintf("Auth:      %s\n", d.AuthType))
	}
	if d.Endpoint != "" {
		sb.WriteString(fmt.Sprintf("Endpoint:  %s\n", d.Endpoint))
	}
	if d.DocsURL != "" {
		sb.WriteString(fmt.Sprintf("Docs:      %s\n", d.DocsURL))
	}
	sb.WriteString(fmt.Sprintf("Candidate: %s\n", d.CandidateID))
	sb.WriteString(fmt.Sprintf("Record:    %s", d.ID))

	p.printBox("✅ METHOD SELECTED", sb.String())
}

// PrintStats outputs history statistics.
func (p *Printer) PrintStats(s *types.HistoryStats) {
	if s == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Backend:            %s\n", s.RecordBackend))
	sb.WriteString(fmt.Sprintf("Captures:           %d\n", s.Captures))
	sb.WriteString(fmt.Sprintf("Unique tools:       %d\n", s.UniqueTools))
	sb.WriteString(fmt.Sprintf("Stored candidates:  %d\n", s.StoredCandidates))
	sb.WriteString(fmt.Sprintf("Discoveries:        %d\n", s.Discoveries))
	sb.WriteString(fmt.Sprintf("Fresh discoveries:  %d\n", s.FreshDiscoveries))

	if len(s.MethodTypeCounts) > 0 {
		keys := make([]string, 0, len(s.MethodTypeCounts))
		for k := range s.MethodTypeCounts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("\nMethod types:\n")
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("  • %s: %d\n", k, s.MethodTypeCounts[k]))
		}
	}

	p.printBox("HISTORY", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCaptures outputs a list of recent captures.
func (p *Printer) PrintCaptures(captures []types.CaptureDisplay) {
	if len(captures) == 0 {
		p.Messagef("No captures recorded")
		return
	}

	var sb strings.Builder
	for i, c := range captures {
		sb.WriteString(fmt.Sprintf("%d. %s", i+1, c.ToolName))
		if c.Domain != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", c.Domain))
		}
		sb.WriteString(fmt.Sprintf("\n   %s\n", c.ID))
	}

	p.printBox("RECENT CAPTURES", strings.TrimSuffix(sb.String(), "\n"))
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}
