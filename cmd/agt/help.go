package main

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/agritag/internal/ui"
)

// helpRule restyles every match of re in cobra's plain help text.
type helpRule struct {
	re    *regexp.Regexp
	style func(groups []string) string
}

var helpRules = []helpRule{
	// "Features:", "Flags:" and other section headers.
	{regexp.MustCompile(`(?m)^([A-Z][^\n]*:)[ \t]*$`), func(g []string) string {
		return ui.RenderAccent(g[1])
	}},
	// "  list        List features"
	{regexp.MustCompile(`(?m)^(  )(\S+)(  )`), func(g []string) string {
		return g[1] + ui.RenderCommand(g[2]) + g[3]
	}},
	// "--crop string"
	{regexp.MustCompile(`(--?\S+\s+)(string|int|duration|stringSlice)\b`), func(g []string) string {
		return g[1] + ui.RenderMuted(g[2])
	}},
	// (default "local")
	{regexp.MustCompile(`(\(default [^)]*\))`), func(g []string) string {
		return ui.RenderMuted(g[1])
	}},
}

// colorizedHelpFunc renders cobra's usage text with the helpRules applied
// when the terminal takes color.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, _ []string) {
		if !ui.ShouldUseColor() {
			_ = cmd.Usage()
			return
		}
		out := cmd.OutOrStdout()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(out)
		_, _ = out.Write([]byte(colorizeHelpOutput(buf.String())))
	}
}

func colorizeHelpOutput(s string) string {
	for _, r := range helpRules {
		s = r.re.ReplaceAllStringFunc(s, func(m string) string {
			return r.style(r.re.FindStringSubmatch(m))
		})
	}
	return strings.TrimRight(s, " ")
}
