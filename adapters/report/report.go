// Package report renders analysis results as markdown and HTML documents.
package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"gonum.org/v1/gonum/mat"

	"plskit/domain/pls"
)

// Markdown renders a run result as a markdown document: one row per latent
// variable with its singular value, explained variance and significance,
// followed by reliability and cross-validation sections when those stages ran.
func Markdown(res *pls.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s analysis %s\n\n", res.Method, res.RunID)
	fmt.Fprintf(&b, "- samples: %d (groups %v, %d conditions)\n",
		res.Design.NumSamples(), res.Design.Groups, res.Design.NCond)
	fmt.Fprintf(&b, "- resamples: %d permutations, %d bootstraps, %d splits\n",
		res.Config.NPerm, res.Config.NBoot, res.Config.NSplit)
	fmt.Fprintf(&b, "- seed: %d, elapsed: %s\n\n", res.Config.Seed, res.Elapsed)

	b.WriteString("## Latent variables\n\n")
	if res.Perm != nil {
		b.WriteString("| LV | singular value | variance explained | p-value |\n")
		b.WriteString("|----|----------------|--------------------|--------|\n")
		for i, s := range res.Decomp.S {
			fmt.Fprintf(&b, "| %d | %.4f | %.4f | %.4f |\n",
				i+1, s, res.VarExplained[i], res.Perm.PValues[i])
		}
	} else {
		b.WriteString("| LV | singular value | variance explained |\n")
		b.WriteString("|----|----------------|--------------------|\n")
		for i, s := range res.Decomp.S {
			fmt.Fprintf(&b, "| %d | %.4f | %.4f |\n", i+1, s, res.VarExplained[i])
		}
	}
	b.WriteString("\n")

	if res.Split != nil {
		b.WriteString("## Split-half reliability\n\n")
		b.WriteString("| LV | U corr | V corr |\n")
		b.WriteString("|----|--------|--------|\n")
		for i := range res.Split.UCorr {
			fmt.Fprintf(&b, "| %d | %.4f | %.4f |\n", i+1, res.Split.UCorr[i], res.Split.VCorr[i])
		}
		b.WriteString("\n")
	}

	if res.CV != nil {
		b.WriteString("## Cross-validation\n\n")
		b.WriteString("| response | mean r | mean R² |\n")
		b.WriteString("|----------|--------|--------|\n")
		rows, _ := res.CV.PearsonR.Dims()
		for t := 0; t < rows; t++ {
			fmt.Fprintf(&b, "| %d | %.4f | %.4f |\n", t+1,
				rowMean(res.CV.PearsonR, t), rowMean(res.CV.RSquared, t))
		}
		b.WriteString("\n")
	}

	if len(res.Diagnostics) > 0 {
		b.WriteString("## Diagnostics\n\n")
		for _, d := range res.Diagnostics {
			fmt.Fprintf(&b, "- %s\n", d)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// HTML renders the markdown report as a complete HTML page.
func HTML(res *pls.Result) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse([]byte(Markdown(res)))
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: fmt.Sprintf("%s analysis %s", res.Method, res.RunID),
	})
	return markdown.Render(doc, renderer)
}

func rowMean(m *mat.Dense, row int) float64 {
	_, cols := m.Dims()
	if cols == 0 {
		return 0
	}
	sum := 0.0
	for j := 0; j < cols; j++ {
		sum += m.At(row, j)
	}
	return sum / float64(cols)
}
