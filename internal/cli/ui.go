// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/framegraph"
)

var (
	colorCyan  = lipgloss.Color("36")
	colorGreen = lipgloss.Color("35")
	colorBlue  = lipgloss.Color("75")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")
)

var (
	styleTitle    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleIndex    = lipgloss.NewStyle().Foreground(colorDim).Width(4).Align(lipgloss.Right)
	styleNode     = lipgloss.NewStyle().Bold(true)
	styleResource = lipgloss.NewStyle().Foreground(colorBlue)
	styleDim      = lipgloss.NewStyle().Foreground(colorGray)
	styleSuccess  = lipgloss.NewStyle().Foreground(colorGreen)
)

const iconArrow = "→"

// printer formats counts with digit grouping.
var printer = message.NewPrinter(language.English)

// printPlan writes the compiled order of g, one node per line with its
// inputs and outputs.
func printPlan(w io.Writer, title string, g *framegraph.Graph) {
	fmt.Fprintln(w, styleTitle.Render(title))
	for pos, idx := range g.Order() {
		n := g.Node(idx)
		line := styleIndex.Render(fmt.Sprintf("%d.", pos+1)) + " " + styleNode.Render(n.Name())
		if r := n.Reads(); len(r) > 0 {
			line += " " + styleDim.Render("reads") + " " + styleResource.Render(strings.Join(r, ", "))
		}
		if wr := n.Writes(); len(wr) > 0 {
			line += " " + styleDim.Render(iconArrow) + " " + styleResource.Render(strings.Join(wr, ", "))
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, styleSuccess.Render(printer.Sprintf("%d nodes, %d edges", g.Len(), len(g.Edges()))))
}
