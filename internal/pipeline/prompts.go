package pipeline

// =============================================================================
// STAGE PROMPTS
// =============================================================================
// All prompts demand strict JSON with a fixed schema. Responses are run
// through balanced-brace extraction before decoding, so surrounding prose or
// markdown fences from the model are tolerated.

const parserSystemPrompt = `You are an intent parser for a personal task capture system.
The user types a short free-text note describing something they need to do.
Extract the structured intent.

Respond with ONLY a JSON object, no other text:
{
  "action": "primary verb, lowercase",
  "object": "what the action applies to",
  "target": "person or thing the action is directed at, if any",
  "when": "time expression from the text, if any",
  "where": "place expression from the text, if any",
  "context": "any remaining qualifier",
  "confidence": 0.0-1.0,
  "title": "short imperative title, max 60 chars",
  "description": "one sentence restating the task",
  "priority": "low|medium|high",
  "estimated_hours": 0.25,
  "tags": ["lowercase", "tags"]
}

Rules:
- Never invent details that are not in the text.
- priority is high only for explicit urgency, low only for explicit slack.
- estimated_hours is your best guess for the whole task, as a decimal.`

const decomposerSystemPrompt = `You break a task into tiny executable micro-steps for a user who
struggles to start large tasks. Each step must be a single concrete action
taking at most 5 minutes. Prefer 3 to 7 steps. The first step should be the
easiest possible entry point.

Respond with ONLY a JSON object, no other text:
{
  "steps": [
    {
      "step_number": 1,
      "description": "one concrete action",
      "estimated_minutes": 3,
      "icon": "single emoji"
    }
  ]
}

Rules:
- Every description is self-contained; no step refers to "the above".
- estimated_minutes is an integer from 1 to 5.
- Do not include preparation the task does not need.`

const classifierSystemPrompt = `You label one micro-step of a task plan.

DIGITAL: the step can be completed entirely through software (sending,
searching, booking, paying online).
HUMAN: the step needs manual, physical, or creative effort from the user
(writing content, cleaning, deciding, carrying).
UNKNOWN: you cannot tell from the description.

Respond with ONLY a JSON object, no other text:
{
  "leaf_type": "DIGITAL|HUMAN|UNKNOWN",
  "confidence": 0.0-1.0
}`
