package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const helpIndent = "  "

var helpNotes = []string{
	"the places provider key is read from PLACETOUR_API_KEY (a .env file in the working directory is loaded too).",
	"without --lat/--lon or --address the default saved profile is used.",
	"tours are straight-line nearest-neighbour loops, not street routes.",
}

type optionDoc struct {
	name     string
	token    string
	usage    string
	defValue string
	shared   bool
}

func (o optionDoc) line() string {
	text := o.token + ": " + o.usage
	if o.defValue != "" {
		text += " (default " + o.defValue + ")"
	}
	return text
}

// renderRootHelp prints the whole command reference. Options shared by every
// command are listed once at the top.
func renderRootHelp(out io.Writer, root *cobra.Command) {
	p := helpPrinter{out: out}
	p.line(0, "%s: %s", root.Name(), root.Short)
	p.blank()
	p.line(0, "usage: %s <command> [options]", root.Name())
	p.blank()

	p.line(0, "global options:")
	for _, option := range sharedOptions() {
		p.line(1, "%s", option.line())
	}
	for _, option := range commandOptions(root) {
		p.line(1, "%s", option.line())
	}
	p.blank()

	p.line(0, "commands:")
	for _, cmd := range leafCommands(root) {
		p.line(1, "%s", commandPath(cmd))
		p.line(2, "%s", cmd.Short)
		for _, option := range commandOptions(cmd) {
			p.line(2, "%s", option.line())
		}
		if example := strings.TrimSpace(cmd.Example); example != "" {
			p.line(2, "example:")
			for _, exampleLine := range strings.Split(example, "\n") {
				p.line(3, "%s", strings.TrimSpace(exampleLine))
			}
		}
		p.blank()
	}

	p.line(0, "notes:")
	for _, note := range helpNotes {
		p.line(1, "- %s", note)
	}
}

type helpPrinter struct {
	out io.Writer
}

func (p helpPrinter) line(depth int, format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, strings.Repeat(helpIndent, depth)+format+"\n", args...)
}

func (p helpPrinter) blank() {
	_, _ = fmt.Fprintln(p.out)
}

// leafCommands returns the runnable visible commands in tree order.
func leafCommands(parent *cobra.Command) []*cobra.Command {
	var leaves []*cobra.Command
	for _, cmd := range parent.Commands() {
		if cmd.Hidden {
			continue
		}
		if cmd.Runnable() {
			leaves = append(leaves, cmd)
		}
		leaves = append(leaves, leafCommands(cmd)...)
	}
	return leaves
}

func commandPath(cmd *cobra.Command) string {
	return strings.TrimSpace(cmd.CommandPath() + " " + strings.TrimPrefix(cmd.Use, cmd.Name()))
}

// sharedOptions documents the flags registered by addGlobalFlags in their
// declared order.
func sharedOptions() []optionDoc {
	probe := &cobra.Command{}
	probe.Flags().SortFlags = false
	addGlobalFlags(probe, &globalFlags{})
	var options []optionDoc
	probe.Flags().VisitAll(func(flag *pflag.Flag) {
		options = append(options, describeFlag(flag))
	})
	return options
}

// commandOptions lists the flags specific to cmd, sorted by name.
func commandOptions(cmd *cobra.Command) []optionDoc {
	var options []optionDoc
	cmd.NonInheritedFlags().VisitAll(func(flag *pflag.Flag) {
		if flag.Hidden || flag.Name == "help" || isSharedGlobalFlag(flag) {
			return
		}
		options = append(options, describeFlag(flag))
	})
	sort.Slice(options, func(i, j int) bool {
		return options[i].name < options[j].name
	})
	return options
}

func describeFlag(flag *pflag.Flag) optionDoc {
	token := "--" + flag.Name
	if flag.Shorthand != "" {
		token += "/-" + flag.Shorthand
	}
	doc := optionDoc{
		name:   flag.Name,
		token:  token,
		usage:  strings.TrimSpace(flag.Usage),
		shared: isSharedGlobalFlag(flag),
	}
	switch flag.DefValue {
	case "", "0", "false", "[]":
	default:
		doc.defValue = flag.DefValue
	}
	return doc
}

func isSharedGlobalFlag(flag *pflag.Flag) bool {
	values := flag.Annotations[sharedGlobalFlagAnnotation]
	return len(values) > 0 && values[0] == "true"
}
