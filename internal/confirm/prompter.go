package confirm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jonathan/purelink/internal/observability"
	"github.com/jonathan/purelink/internal/types"
)

// ErrCancelled is returned when the user ends input or cancels a menu.
var ErrCancelled = errors.New("cancelled by user")

// Supplement is the optional extra detail collected after a rejection.
type Supplement struct {
	ToolName    string
	Developer   string
	Domain      string
	Description string
}

// Empty reports whether no field was provided.
func (s Supplement) Empty() bool {
	return s.ToolName == "" && s.Developer == "" && s.Domain == "" && s.Description == ""
}

// Refinement joins the provided fields into a single resolver input.
func (s Supplement) Refinement() string {
	var parts []string
	add := func(label, v string) {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, label+": "+v)
		}
	}
	add("Tool name", s.ToolName)
	add("Developer", s.Developer)
	add("Website", s.Domain)
	add("Description", s.Description)
	return strings.Join(parts, " | ")
}

// Prompter is the human side of the confirmation loop.
type Prompter interface {
	// PrimaryInput asks for the initial tool description.
	PrimaryInput(ctx context.Context) (string, error)
	// Supplementary asks for extra detail after a rejection.
	Supplementary(ctx context.Context, attempt, maxAttempts int) (Supplement, error)
	// Confirm asks whether the selected candidate is correct.
	Confirm(ctx context.Context, res *types.ToolResolution) (bool, error)
	// Choose asks for a 1-based choice among n options and returns the 0-based
	// index, or ErrCancelled.
	Choose(ctx context.Context, question string, n int) (int, error)
}

// LinePrompter reads answers line by line from a reader.
type LinePrompter struct {
	in      *bufio.Reader
	printer *observability.Printer
}

// NewLinePrompter creates a prompter reading from in and writing to printer.
func NewLinePrompter(in io.Reader, printer *observability.Printer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), printer: printer}
}

// PrimaryInput implements Prompter. Blank answers are asked again.
func (p *LinePrompter) PrimaryInput(ctx context.Context) (string, error) {
	for {
		line, err := p.ask(ctx, "What tool do you want to connect? ")
		if err != nil {
			return "", err
		}
		if line != "" {
			return line, nil
		}
		p.printer.Messagef("Please enter a tool name or description.")
	}
}

// Supplementary implements Prompter. A fully blank answer is asked again.
func (p *LinePrompter) Supplementary(ctx context.Context, attempt, maxAttempts int) (Supplement, error) {
	p.printer.Messagef("\nAttempt %d of %d. Add any details you know (press Enter to skip a field).", attempt, maxAttempts)
	for {
		var s Supplement
		fields := []struct {
			label string
			dst   *string
		}{
			{"Tool name", &s.ToolName},
			{"Developer/company", &s.Developer},
			{"Website or domain", &s.Domain},
			{"Short description", &s.Description},
		}
		for _, f := range fields {
			line, err := p.ask(ctx, f.label+": ")
			if err != nil {
				return Supplement{}, err
			}
			*f.dst = line
		}
		if !s.Empty() {
			return s, nil
		}
		p.printer.Messagef("Please provide at least some information.")
	}
}

// Confirm implements Prompter.
func (p *LinePrompter) Confirm(ctx context.Context, res *types.ToolResolution) (bool, error) {
	p.printer.PrintResolution(res)
	selected := res.Selected()
	p.printer.PrintCandidate(&selected)
	for {
		line, err := p.ask(ctx, "Is this the right tool? [y/n] ")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		p.printer.Messagef("Please answer y or n.")
	}
}

// Choose implements Prompter. Entering 0 or q cancels.
func (p *LinePrompter) Choose(ctx context.Context, question string, n int) (int, error) {
	for {
		line, err := p.ask(ctx, fmt.Sprintf("%s [1-%d, 0 to cancel] ", question, n))
		if err != nil {
			return -1, err
		}
		if line == "0" || strings.EqualFold(line, "q") {
			return -1, ErrCancelled
		}
		choice, err := strconv.Atoi(line)
		if err != nil || choice < 1 || choice > n {
			p.printer.Messagef("Please enter a number between 1 and %d.", n)
			continue
		}
		return choice - 1, nil
	}
}

// ask prints question and returns the trimmed answer. End of input cancels.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *LinePrompter) ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(p.printer.Writer(), question)
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && strings.TrimSpace(line) != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrCancelled
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
