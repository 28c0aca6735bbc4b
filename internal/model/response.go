package model

import (
	"encoding/json"
	"strings"
)

// Response is the union of every response shape the providers are known to
// return. A provider fills in whichever fields its wire format carries;
// ExtractText walks them in a fixed order. Raw holds the plain rendering of
// the response body for the last-resort extraction step.
type Response struct {
	Text       string      `json:"text,omitempty"`
	Candidates []Candidate `json:"candidates,omitempty"`
	Result     *Result     `json:"result,omitempty"`
	Raw        string      `json:"-"`
}

type Candidate struct {
	Content      *Content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
}

type Content struct {
	Parts []Part `json:"parts,omitempty"`
}

// Part tolerates both object-shaped ({"text": "..."}) and bare-string
// elements in a parts array.
type Part struct {
	Text string
}

func (p *Part) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.Text = s
		return nil
	}
	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	p.Text = obj.Text
	return nil
}

func (p Part) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Text string `json:"text"`
	}{Text: p.Text})
}

// Result mirrors the text/parts pair nested under a "result" field.
type Result struct {
	Text  string `json:"text,omitempty"`
	Parts []Part `json:"parts,omitempty"`
}

// minRawLength guards the raw-rendering fallback from returning fragments
// too short to be an answer.
const minRawLength = 20

// ExtractText walks the known shapes until one yields non-empty text:
// the direct text field, then candidate content parts, then the raw
// rendering, then the nested result. Empty string means nothing usable.
func (r *Response) ExtractText() string {
	if r == nil {
		return ""
	}
	if t := strings.TrimSpace(r.Text); t != "" {
		return t
	}
	if t := joinCandidateParts(r.Candidates); t != "" {
		return t
	}
	if t := strings.TrimSpace(r.Raw); len(t) >= minRawLength && !looksLikeObjectDump(t) {
		return t
	}
	if r.Result != nil {
		if t := strings.TrimSpace(r.Result.Text); t != "" {
			return t
		}
		if t := joinParts(r.Result.Parts); t != "" {
			return t
		}
	}
	return ""
}

func joinCandidateParts(candidates []Candidate) string {
	var parts []string
	for _, c := range candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t := strings.TrimSpace(p.Text); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, "\n")
}

func joinParts(in []Part) string {
	var parts []string
	for _, p := range in {
		if t := strings.TrimSpace(p.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

// looksLikeObjectDump rejects renderings that are a type label or a
// serialized object rather than prose: "<GenerateResponse ...>", "map[...]",
// "&{...}", or a JSON document.
func looksLikeObjectDump(s string) bool {
	for _, prefix := range []string{"<", "map[", "&{", "{", "["} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
