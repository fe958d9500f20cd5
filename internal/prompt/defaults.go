package prompt

const defaultBaseline = `You are co-writing an interactive story with a reader.

{{ .Message }}

Decisions the reader has made:
{{ .Context | default "None yet." }}

Instructions:
{{ .Instructions }}`

const defaultExtended = `You are co-writing an interactive story with a reader.

The passage so far:
{{ .TextBeforeDynamic | default "(the passage has just begun)" }}

{{ .Message }}

Decisions the reader has made:
{{ .Context | default "None yet." }}

Instructions:
{{ .Instructions }}`

const defaultTextInstruction = `Write {{ .SentenceCount }} {{ if eq .SentenceCount 1 }}sentence{{ else }}sentences{{ end }} to continue the passage.
{{- with .Lexicon }} Draw your vocabulary from {{ . }}.{{ end }}
Reply only with a JSON object of the form {"deliverable": "<your text>"}.`

const defaultOptionsInstruction = `Write exactly {{ .OptionCount }} short options the reader can choose between, each a single phrase.
{{- with .Lexicon }} Draw your vocabulary from {{ . }}.{{ end }}
Reply only with a JSON object of the form {"deliverable": ["<option 1>", "<option 2>"]}.`
