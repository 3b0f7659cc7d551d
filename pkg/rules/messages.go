package rules

import (
	"fmt"
	"sync"

	"github.com/flosch/pongo2/v6"
)

// Messages renders default message templates with pongo2. Compiled templates
// are cached by source.
type Messages struct {
	mu    sync.Mutex
	set   *pongo2.TemplateSet
	cache map[string]*pongo2.Template
}

// NewMessages builds an isolated pongo2 template set for messages.
func NewMessages() *Messages {
	return &Messages{
		set:   pongo2.NewSet("formguard-messages", pongo2.MustNewLocalFileSystemLoader("")),
		cache: make(map[string]*pongo2.Template),
	}
}

// Render executes source with the field display name and rule parameters.
// Output is not HTML escaped; display layers sanitize messages themselves.
func (m *Messages) Render(source, display string, rule Rule) (string, error) {
	tpl, err := m.compile(source)
	if err != nil {
		return "", err
	}
	ctx := pongo2.Context{"field": display, "kind": string(rule.Kind)}
	for name, value := range rule.Params {
		ctx[name] = value
	}
	if other, ok := rule.Param(ParamOther); ok {
		ctx[ParamOther] = StripPrefix(other)
	}
	out, err := tpl.Execute(ctx)
	if err != nil {
		return "", fmt.Errorf("rules: render message for %s: %w", rule.Kind, err)
	}
	return out, nil
}

func (m *Messages) compile(source string) (*pongo2.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tpl, ok := m.cache[source]; ok {
		return tpl, nil
	}
	tpl, err := m.set.FromString("{% autoescape off %}" + source + "{% endautoescape %}")
	if err != nil {
		return nil, fmt.Errorf("rules: compile message template: %w", err)
	}
	m.cache[source] = tpl
	return tpl, nil
}
