// Package viz renders control-loop traces for the terminal.
//
// Plots are drawn with asciigraph and framed with lipgloss styles. Traces
// from unstable or degenerate runs may contain NaN or Inf samples; [Graph]
// holds the last finite value across them so the plot still renders.
//
// # Usage
//
//	fmt.Println(viz.Title.Render("thermal"))
//	fmt.Println(viz.Graph(measurement, 80, 12, "temperature"))
package viz
