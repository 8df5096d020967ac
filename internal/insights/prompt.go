package insights

import (
	"fmt"
	"strings"

	"github.com/dealsense-ai/insights-engine/internal/rag"
	"github.com/dealsense-ai/insights-engine/internal/warehouse"
)

// Section header markers the model is instructed to emit and the parser
// locates verbatim.
const (
	winsMarker            = "### WINS"
	lossesMarker          = "### LOSSES"
	recommendationsMarker = "### RECOMMENDATIONS"
)

// BuildPrompt assembles the single generation prompt: the facts record, the
// active filter context, and the highlight lists, with hard instructions
// against inventing numbers or naming accounts, sellers or monetary values.
func BuildPrompt(query string, filters warehouse.Filters, facts Facts, highlights rag.Highlights) string {
	var b strings.Builder

	b.WriteString("Você é um analista de vendas sênior. Analise os fatos agregados abaixo e produza um resumo executivo em português.\n\n")

	fmt.Fprintf(&b, "CONSULTA DO USUÁRIO: %s\n\n", query)

	b.WriteString("CONTEXTO DE FILTROS:\n")
	writeFilterContext(&b, filters)

	b.WriteString("\nFATOS AGREGADOS (única fonte de números permitida):\n")
	fmt.Fprintf(&b, "- Negócios ganhos: %d\n", facts.WinsTotal)
	fmt.Fprintf(&b, "- Negócios perdidos: %d\n", facts.LossesTotal)
	fmt.Fprintf(&b, "- Negócios em pipeline: %d\n", facts.PipelineTotal)
	fmt.Fprintf(&b, "- Ciclo médio de vitórias (dias): %.2f\n", facts.AvgWinCycleDays)
	fmt.Fprintf(&b, "- Ciclo médio de derrotas (dias): %.2f\n", facts.AvgLossCycleDays)
	fmt.Fprintf(&b, "- Dias médios sem movimentação: %.2f\n", facts.AvgIdleDays)
	fmt.Fprintf(&b, "- Razão ciclo derrota/vitória: %.2f\n", facts.LossToWinCycleRatio)

	writeHighlights(&b, highlights)

	b.WriteString("\nINSTRUÇÕES OBRIGATÓRIAS:\n")
	b.WriteString("1. NUNCA invente números; use apenas os fatos listados acima.\n")
	b.WriteString("2. NUNCA cite nomes de contas, vendedores ou valores monetários no texto.\n")
	b.WriteString("3. Produza de 4 a 6 bullets por seção, cada bullet iniciando com \"- \".\n")
	b.WriteString("4. Cada bullet deve citar ao menos um número dos fatos.\n")
	b.WriteString("5. Responda EXATAMENTE com as três seções abaixo, nesta ordem e com estes títulos:\n\n")
	b.WriteString(winsMarker + "\n(bullets sobre padrões de vitória)\n\n")
	b.WriteString(lossesMarker + "\n(bullets sobre padrões de derrota)\n\n")
	b.WriteString(recommendationsMarker + "\n(bullets com recomendações acionáveis)\n")

	return b.String()
}

func writeFilterContext(b *strings.Builder, f warehouse.Filters) {
	wrote := false
	if f.Year != 0 {
		fmt.Fprintf(b, "- Ano fiscal: %d\n", f.Year)
		wrote = true
	}
	if label := f.FiscalLabel(); label != "" {
		fmt.Fprintf(b, "- Trimestre: %s\n", label)
		wrote = true
	}
	if f.Month != 0 {
		fmt.Fprintf(b, "- Mês: %d\n", f.Month)
		wrote = true
	}
	if f.HasDateRange() {
		fmt.Fprintf(b, "- Período: %s a %s\n", f.DateStart.Format("2006-01-02"), f.DateEnd.Format("2006-01-02"))
		wrote = true
	}
	if f.Seller != "" {
		b.WriteString("- Filtro por vendedor ativo\n")
		wrote = true
	}
	if f.Phase != "" {
		fmt.Fprintf(b, "- Fase: %s\n", f.Phase)
		wrote = true
	}
	if f.Source != "" {
		fmt.Fprintf(b, "- Origem: %s\n", f.Source)
		wrote = true
	}
	if !wrote {
		b.WriteString("- Sem filtros ativos (base completa)\n")
	}
}

// writeHighlights lists deal names and causes only. Account, seller and
// monetary detail stays out of the prompt context the model may quote.
func writeHighlights(b *strings.Builder, h rag.Highlights) {
	if len(h.WinCauses) > 0 {
		b.WriteString("\nCAUSAS DE VITÓRIA MAIS FREQUENTES:\n")
		for _, c := range h.WinCauses {
			fmt.Fprintf(b, "- %s (%d ocorrências)\n", c.Cause, c.Count)
		}
	}
	if len(h.LossCauses) > 0 {
		b.WriteString("\nCAUSAS DE DERROTA MAIS FREQUENTES:\n")
		for _, c := range h.LossCauses {
			fmt.Fprintf(b, "- %s (%d ocorrências)\n", c.Cause, c.Count)
		}
	}
	if len(h.TopWon) > 0 {
		b.WriteString("\nPRINCIPAIS VITÓRIAS (apenas nome da oportunidade):\n")
		for _, d := range h.TopWon {
			fmt.Fprintf(b, "- %s\n", d.Opportunity)
		}
	}
	if len(h.TopLost) > 0 {
		b.WriteString("\nPRINCIPAIS DERROTAS (apenas nome da oportunidade):\n")
		for _, d := range h.TopLost {
			fmt.Fprintf(b, "- %s\n", d.Opportunity)
		}
	}
	if len(h.TopPipeline) > 0 {
		b.WriteString("\nPRINCIPAIS OPORTUNIDADES EM PIPELINE (apenas nome da oportunidade):\n")
		for _, d := range h.TopPipeline {
			fmt.Fprintf(b, "- %s\n", d.Opportunity)
		}
	}
}
