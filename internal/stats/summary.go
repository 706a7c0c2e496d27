package stats

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// GLMSummary renders a plain-text summary of a fitted count model.
func GLMSummary(title string, res *GLMResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", title)
	fmt.Fprintf(&b, "family: %s", res.Family)
	if res.Family == NegativeBinomial {
		fmt.Fprintf(&b, " (alpha=%.4f)", res.Dispersion)
	}
	fmt.Fprintf(&b, "\nobservations: %d  clusters: %d  iterations: %d\n", res.N, res.NClusters, res.Iterations)
	fmt.Fprintf(&b, "log-likelihood: %.2f  AIC: %.2f\n\n", res.LogLik, res.AIC)
	writeCoefTable(&b, res.Coefficients)
	return b.String()
}

// OLSSummary renders a plain-text summary of a fitted linear model.
func OLSSummary(title string, res *OLSResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", title)
	fmt.Fprintf(&b, "observations: %d  clusters: %d  R2: %.4f\n\n", res.N, res.NClusters, res.R2)
	writeCoefTable(&b, res.Coefficients)
	return b.String()
}

// AICComparison renders the Poisson vs Negative Binomial comparison.
func AICComparison(pois, nb *GLMResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "model comparison (lower AIC preferred)\n")
	fmt.Fprintf(&b, "  poisson            AIC %12.2f  loglik %12.2f\n", pois.AIC, pois.LogLik)
	fmt.Fprintf(&b, "  negative binomial  AIC %12.2f  loglik %12.2f  alpha %.4f\n", nb.AIC, nb.LogLik, nb.Dispersion)
	if nb.AIC < pois.AIC {
		fmt.Fprintf(&b, "  -> negative binomial preferred, counts are overdispersed\n")
	} else {
		fmt.Fprintf(&b, "  -> poisson preferred\n")
	}
	return b.String()
}

func writeCoefTable(b *strings.Builder, coefs []Coefficient) {
	fmt.Fprintf(b, "%-24s %12s %10s %8s %8s\n", "term", "estimate", "std err", "z", "P>|z|")
	for _, c := range coefs {
		fmt.Fprintf(b, "%-24s %12.5f %10.5f %8.3f %8.4f\n", c.Name, c.Estimate, c.SE, c.Z, c.P)
	}
}

// WriteCoefficientsCSV writes one model's coefficients as a CSV table.
func WriteCoefficientsCSV(path, model string, coefs []Coefficient) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", path, err)
	}
	defer f.Close() // nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write([]string{"model", "term", "estimate", "std_err", "z", "p_value"}); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}
	for _, c := range coefs {
		rec := []string{
			model,
			c.Name,
			strconv.FormatFloat(c.Estimate, 'g', 8, 64),
			strconv.FormatFloat(c.SE, 'g', 8, 64),
			strconv.FormatFloat(c.Z, 'g', 6, 64),
			strconv.FormatFloat(c.P, 'g', 6, 64),
		}
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("error writing coefficient row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("error flushing %s: %w", path, err)
	}
	return nil
}
