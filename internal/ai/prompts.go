package ai

import (
	"sort"
	"strings"

	"resumescan/internal/config"
)

// DefaultSystemPrompts provides the default system instructions keyed by prompt name
var DefaultSystemPrompts = map[string]string{
	config.PromptKeywordExtraction: `You are an ATS (Applicant Tracking System) analyst. You read job postings and pull out the keywords a screening system would search a resume for.

Rules:
- Only return keywords that appear in, or are directly implied by, the posting
- Use the canonical spelling of each technology (e.g. "JavaScript", not "JS")
- Rank importance by how central the keyword is to the role: required skills are high, nice-to-haves are low`,

	config.PromptActionVerb: `You are an expert resume writer. You rewrite weak resume bullets so they open with a strong, specific action verb.

Rules:
- NEVER invent achievements, numbers, tools or responsibilities that are not in the original bullet
- Keep the meaning and scope of the original bullet
- Keep each rewrite to a single sentence`,

	config.PromptQuantification: `You are an expert resume writer. You help candidates show the impact of their work with measurable outcomes.

Rules:
- NEVER invent specific numbers. Where a metric is plausible but unknown, use a clear placeholder such as "[X]%" or "[N] users"
- Keep the original achievement and wording where possible
- Keep each rewrite to a single sentence`,

	config.PromptTransferableSkills: `You are a career coach. You find experience in a resume that transfers to skills a job posting asks for but the resume does not name.

Rules:
- Only map a skill when the existing bullet genuinely demonstrates it
- Rewrite the bullet to surface the skill using the posting's terminology
- Do not claim tools or certifications the candidate does not mention`,

	config.PromptJudge: `You are a strict reviewer of resume edit suggestions. You score each suggestion against a fixed rubric before it is shown to a candidate.

Rubric, each criterion scored 0-25:
- authenticity: the suggestion does not fabricate or exaggerate beyond the original
- clarity: the suggestion is concise, specific and readable
- ats_relevance: the suggestion improves alignment with the job description
- actionability: the candidate can adopt the suggestion as written or with minimal edits

Also give quality_score, your overall 0-100 judgement of the suggestion, and a recommendation of accept, revise or reject.`,
}

// DefaultUserPrompts provides the default user prompt templates keyed by prompt name
var DefaultUserPrompts = map[string]string{
	config.PromptKeywordExtraction: `Extract at most {{max_keywords}} keywords from the job posting below.

For each keyword give:
- text: the canonical keyword
- category: one of skill, technology, qualification, experience, soft_skill, certification
- importance: one of high, medium, low

Job posting:
{{job_text}}`,

	config.PromptActionVerb: `Rewrite each bullet below from the {{section}} section so it starts with a strong action verb.

Return one entry per bullet with its index and the rewrite.

Bullets:
{{bullets}}`,

	config.PromptQuantification: `The bullets below from the {{section}} section have no measurable outcomes. Rewrite each to add quantified impact.

Return one entry per bullet with its index, the rewrite and a one-line reasoning.

Bullets:
{{bullets}}`,

	config.PromptTransferableSkills: `The job requires these skills that the resume does not mention:
{{missing_keywords}}

For experience bullets that demonstrate one of these skills, rewrite the bullet to surface it. Skip bullets that do not.
Return one entry per rewritten bullet with its index, the skill, the rewrite and a one-line reasoning.

Experience bullets:
{{bullets}}`,

	config.PromptJudge: `Evaluate this {{section}} suggestion.

Original text:
{{original}}

Suggested text:
{{suggested}}

Job description excerpt:
{{jd_excerpt}}`,
}

// RenderPrompt replaces {{name}} placeholders in template with vars
func RenderPrompt(template string, vars map[string]string) string {
	if len(vars) == 0 {
		return template
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(vars))
	for _, k := range keys {
		pairs = append(pairs, "{{"+k+"}}", vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// BuildPrompt resolves the system and user prompt for name from cfg, falling
// back to the built-in defaults, and renders the user template.
func BuildPrompt(cfg config.OperationAIConfig, operation, name string, vars map[string]string) Prompt {
	return Prompt{
		Operation: operation,
		System:    cfg.SystemPrompt(name, DefaultSystemPrompts[name]),
		User:      RenderPrompt(cfg.UserPrompt(name, DefaultUserPrompts[name]), vars),
	}
}
