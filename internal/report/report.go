// Package report renders pipeline results for the console and for Telegram.
package report

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"B3Sentinel/internal/model"
	"B3Sentinel/internal/pipeline"
)

// Renderer formats results. A plain renderer emits no ANSI sequences.
type Renderer struct {
	title   lipgloss.Style
	section lipgloss.Style
	good    lipgloss.Style
	warn    lipgloss.Style
	muted   lipgloss.Style
}

// New returns a styled renderer for terminals.
func New() *Renderer {
	return &Renderer{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		section: lipgloss.NewStyle().Bold(true).Underline(true),
		good:    lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E")),
		warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
	}
}

// Plain returns a renderer for logs and chat messages.
func Plain() *Renderer {
	s := lipgloss.NewStyle()
	return &Renderer{title: s, section: s, good: s, warn: s, muted: s}
}

// Money formats a BRL amount with two decimals.
func Money(v float64) string { return fmt.Sprintf("R$ %.2f", v) }

// Pct formats a fraction as a percentage with one decimal.
func Pct(v float64) string { return fmt.Sprintf("%.1f%%", v*100) }

// Screen renders a screening run. err is the terminal state returned by the pipeline.
func (r *Renderer) Screen(res pipeline.ScreenResult, err error) string {
	var b strings.Builder
	b.WriteString(r.title.Render(fmt.Sprintf("B3 Sentinel | Triagem %s", res.StartedAt.Format("2006-01-02 15:04"))))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Caixa disponível: %s | analisados %d, elegíveis %d, descartados %d\n",
		Money(res.Cash), res.Parsed, res.Eligible, res.Dropped)
	r.diagnostics(&b, res.Diagnostics)

	switch {
	case errors.Is(err, pipeline.ErrNoCandidates):
		b.WriteString("\n" + r.warn.Render("Nenhum candidato encontrado com os filtros atuais.") + "\n")
		return b.String()
	case errors.Is(err, pipeline.ErrNoneQualified):
		b.WriteString("\n" + r.warn.Render("Candidatos encontrados, mas nenhum atingiu a pontuação mínima.") + "\n")
		return b.String()
	}

	plan := res.Plan
	if top := plan.TopPick; top != nil {
		b.WriteString("\n" + r.section.Render("Melhor oportunidade") + "\n")
		fmt.Fprintf(&b, "%s %s | %s | score %.1f | preço %s | DY %s\n",
			r.good.Render(top.Symbol()), top.Profile, top.Sector, top.Score, Money(top.Price), Pct(top.DividendYield))
		if len(top.Justification) > 0 {
			fmt.Fprintf(&b, "  Motivo: %s\n", top.Reason())
		}
		for _, p := range top.Premises {
			fmt.Fprintf(&b, "  Premissa: %s\n", p)
		}
	}
	if res.Basket {
		r.basket(&b, plan)
		return b.String()
	}
	if len(plan.Orders) > 0 {
		o := plan.Orders[0]
		fmt.Fprintf(&b, "  Comprar %dx a %s = %s | sobra %s\n", o.Quantity, Money(o.Price), Money(o.Cost), Money(plan.Leftover))
	} else if plan.TopPick != nil {
		fmt.Fprintf(&b, "  Caixa insuficiente para uma unidade | sobra %s\n", Money(plan.Leftover))
	}

	if len(plan.Alternatives) > 0 {
		b.WriteString("\n" + r.section.Render("Alternativas") + "\n")
		b.WriteString(table(plan.Alternatives))
	}
	return b.String()
}

func (r *Renderer) basket(b *strings.Builder, plan model.Plan) {
	fmt.Fprintf(b, "\n%s\n", r.section.Render("Cesta de compra"))
	if plan.Strategy != "" {
		fmt.Fprintf(b, "Estratégia: %s\n", plan.Strategy)
	}
	if len(plan.Orders) == 0 {
		fmt.Fprintf(b, "  Caixa insuficiente para o ativo mais barato | sobra %s\n", Money(plan.Leftover))
		return
	}
	tw := tabwriter.NewWriter(b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ATIVO\tPREÇO\tQTD\tTOTAL\tMOTIVO")
	for _, o := range plan.Orders {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", model.BaseTicker(o.Ticker), Money(o.Price), o.Quantity, Money(o.Cost), o.Justification)
	}
	_ = tw.Flush()
	fmt.Fprintf(b, "Total investido: %s | troco %s\n", Money(plan.TotalSpent), Money(plan.Leftover))
}

// Rebalance renders a rebalancing run.
func (r *Renderer) Rebalance(res pipeline.RebalanceResult) string {
	plan := res.Plan
	var b strings.Builder
	b.WriteString(r.title.Render("B3 Sentinel | Gestão de carteira"))
	b.WriteString("\n")
	r.diagnostics(&b, res.Diagnostics)

	fmt.Fprintf(&b, "\n%s (patrimônio %s)\n", r.section.Render("Diagnóstico de alocação"), Money(plan.TotalValue))
	invested := 0.0
	for _, a := range plan.Buckets {
		invested += a.CurrentValue
	}
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORIA\tATUAL\t\tMETA\tDESVIO\tSTATUS")
	for _, a := range plan.Buckets {
		if invested <= 0 {
			fmt.Fprintf(tw, "%s\t%s\tn/a\t%s\tn/a\t-\n", a.Bucket, Money(a.CurrentValue), Pct(a.TargetPct))
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%+.1f%%\t%s\n",
			a.Bucket, Money(a.CurrentValue), Pct(a.CurrentPct), Pct(a.TargetPct), a.Deviation*100, a.Status)
	}
	_ = tw.Flush()
	if invested <= 0 && len(plan.Buckets) > 0 {
		b.WriteString(r.muted.Render("Carteira sem posições avaliadas: percentuais atuais não se aplicam.") + "\n")
	}
	if plan.RiskAlert {
		b.WriteString(r.warn.Render("Alerta de risco: desvio relevante em renda. Ajuste prioritário recomendado.") + "\n")
	}

	fmt.Fprintf(&b, "\n%s (disponível %s)\n", r.section.Render("Planejamento de aporte"), Money(plan.Cash))
	if plan.Strategy != "" {
		fmt.Fprintf(&b, "Estratégia: %s\n", plan.Strategy)
	}
	if plan.NoEligible {
		b.WriteString(r.warn.Render("Nenhum ativo elegível para compra.") + "\n")
	}
	for _, o := range plan.Orders {
		fmt.Fprintf(&b, "  %s %dx %s a %s\n", r.good.Render("COMPRAR"), o.Quantity, model.BaseTicker(o.Ticker), Money(o.Price))
		if o.Justification != "" {
			fmt.Fprintf(&b, "    Motivo: %s\n", o.Justification)
		}
		fmt.Fprintf(&b, "    Impacto: +%s/ano em dividendos estimados\n", Money(o.ProjectedIncome()))
	}

	fmt.Fprintf(&b, "\nTotal alocado: %s | incremento de renda: +%s/ano", Money(plan.TotalSpent), Money(plan.ProjectedIncome))
	if plan.Leftover > 0 {
		fmt.Fprintf(&b, " | sobra %s", Money(plan.Leftover))
	}
	b.WriteString("\n")

	if len(plan.Review) > 0 {
		b.WriteString("\n" + r.warn.Render("Ponto de atenção (revisão necessária)") + "\n")
		for _, c := range plan.Review {
			fmt.Fprintf(&b, "  %s: score %.1f. %s\n", c.Symbol(), c.Score, c.Reason())
		}
	}
	return b.String()
}

func (r *Renderer) diagnostics(b *strings.Builder, diags []pipeline.Diagnostic) {
	for _, d := range diags {
		b.WriteString(r.muted.Render("aviso: "+d.String()) + "\n")
	}
}

func table(cands []model.Candidate) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ATIVO\tPERFIL\tSCORE\tPREÇO\tDY\tMOMENTUM")
	for _, c := range cands {
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%s\t%s\t%s\n",
			c.Symbol(), c.Profile, c.Score, Money(c.Price), Pct(c.DividendYield), Pct(c.Momentum))
	}
	_ = tw.Flush()
	return b.String()
}
