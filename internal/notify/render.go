package notify

import (
	"embed"
	"fmt"
	"strings"

	"github.com/osteele/liquid"
)

//go:embed templates/*.liquid
var templateFS embed.FS

type templateSet struct {
	subject, text, html *liquid.Template
}

// Renderer holds the parsed Liquid templates for every Kind.
type Renderer struct {
	sets map[Kind]templateSet
}

// NewRenderer parses the embedded templates once.
func NewRenderer() (*Renderer, error) {
	engine := liquid.NewEngine()
	r := &Renderer{sets: make(map[Kind]templateSet)}
	for _, k := range []Kind{KindContact, KindWelcome} {
		var set templateSet
		for _, part := range []struct {
			name string
			dst  **liquid.Template
		}{
			{"subject", &set.subject},
			{"text", &set.text},
			{"html", &set.html},
		} {
			src, err := templateFS.ReadFile("templates/" + string(k) + "." + part.name + ".liquid")
			if err != nil {
				return nil, err
			}
			tpl, perr := engine.ParseString(string(src))
			if perr != nil {
				return nil, fmt.Errorf("notify: parse %s.%s: %w", k, part.name, perr)
			}
			*part.dst = tpl
		}
		r.sets[k] = set
	}
	return r, nil
}

// Render produces the subject and both bodies for kind.
func (r *Renderer) Render(kind Kind, data map[string]any) (Message, error) {
	set, ok := r.sets[kind]
	if !ok {
		return Message{}, fmt.Errorf("notify: unknown kind %q", kind)
	}
	subject, err := set.subject.RenderString(data)
	if err != nil {
		return Message{}, err
	}
	text, err := set.text.RenderString(data)
	if err != nil {
		return Message{}, err
	}
	html, err := set.html.RenderString(data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Subject: oneLine(subject),
		Text:    strings.TrimSpace(text) + "\n",
		HTML:    html,
	}, nil
}

// oneLine collapses whitespace so user input cannot add header lines.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
