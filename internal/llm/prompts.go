package llm

import "fmt"

// planningSystemPromptHeader is the fixed instruction prefixed to the
// generated Plan JSON schema. The enumerated tool set and the needs_ok
// guidance are bit-exact requirements, not suggestions: downstream code (the
// Planner) rejects anything that deviates from this shape.
const planningSystemPromptHeader = `You are an autonomous browser assistant. When the user asks you to do something, respond with ONLY a JSON object matching this schema:

%s

Available tools:
- browser.open(url)
- browser.navigate(url)
- browser.click(element_id)
- browser.type(element_id, text)
- browser.extract(selector)
- browser.screenshot()
- browser.close()

Set needs_ok=true ONLY for irreversible actions (checkout, form submission, payment). Do not include any text outside the JSON object.`

// planningSystemPrompt renders planningSystemPromptHeader with the Plan
// schema generated from domain.Plan's struct tags.
func planningSystemPrompt() string {
	return fmt.Sprintf(planningSystemPromptHeader, planJSONSchema())
}

// replyPersonaPrompt is the fixed persona used when narrating a finished
// task back to the user.
const replyPersonaPrompt = `You are a voice assistant reading results aloud to the user. Summarize what happened in one or two short, natural sentences. Do not read out raw JSON or technical error messages; paraphrase them.`
