package ai

import "github.com/akif987/papersearch/pkg/models"

// qaPrompt grounds the answer strictly in the retrieved context so the
// model declines rather than invents when the papers do not cover the
// question. Confidence assessment downstream keys off that phrasing.
func qaPrompt(ctxText, question string) string {
	return `You are an expert academic paper analyst. Answer the following question based ONLY on the provided context from an academic paper.

IMPORTANT INSTRUCTIONS:
1. Only use information explicitly stated in the context
2. If the answer is not found in the context, clearly state "This information is not present in the provided paper sections."
3. Be precise and technically accurate
4. Cite specific parts of the context when relevant
5. Do not make up or hallucinate any information

CONTEXT FROM PAPER:
` + ctxText + `

QUESTION: ` + question + `

ANSWER:`
}

func summaryPrompt(text string, kind models.SummaryKind) string {
	var instruction string
	switch kind {
	case models.SummarySections:
		instruction = `Provide a structured summary of this academic paper with the following sections:
- **Background**: Brief context and problem statement (2-3 sentences)
- **Methodology**: Key methods and approach (2-3 sentences)
- **Results**: Main findings (3-4 sentences)
- **Significance**: Why this matters and implications (1-2 sentences)

Use clear, precise language and maintain technical accuracy.`
	case models.SummaryKeyPoints:
		instruction = `Extract the 5-7 most important key points from this academic paper.

Format as a bulleted list where each point:
- Captures a distinct and significant finding, claim, or contribution
- Is self-contained and understandable
- Uses precise technical language from the paper

Start each bullet with an action verb or key concept.`
	default:
		instruction = `Provide a concise 2-3 sentence summary of this academic paper that captures:
- The main research question or problem
- The key methodology or approach
- The primary findings or contributions

Keep it accessible but technically accurate.`
	}

	return `You are an expert at summarizing academic papers accurately and concisely.

INSTRUCTIONS:
` + instruction + `

IMPORTANT:
- Only include information explicitly stated in the paper
- Do not add interpretations or outside knowledge
- If certain information is unclear or missing, acknowledge it

PAPER TEXT:
` + text + `

SUMMARY:`
}
