package executor

import (
	"regexp"
	"strings"

	"github.com/yuki-yano/vde-layout/internal/errors"
)

// Template tokens usable inside terminal commands. Substitution happens at
// configuration time, after every split has registered its real pane id.
const (
	tokenThisPane  = "{{this_pane}}"
	tokenFocusPane = "{{focus_pane}}"
)

var paneByNameToken = regexp.MustCompile(`\{\{pane_id:([^{}]+)\}\}`)

// substituteTokens expands pane reference tokens in a terminal command.
// selfReal is the real pane id the command will run in.
func (e *Executor) substituteTokens(command, selfReal string) (string, error) {
	out := strings.ReplaceAll(command, tokenThisPane, selfReal)

	if strings.Contains(out, tokenFocusPane) {
		real, ok := e.resolvePane(e.emission.Summary.FocusPaneID)
		if !ok {
			return "", errors.New(errors.TemplateTokenError, "focus pane is not registered").
				WithDetail("token", "focus_pane")
		}
		out = strings.ReplaceAll(out, tokenFocusPane, real)
	}

	var tokenErr error
	out = paneByNameToken.ReplaceAllStringFunc(out, func(match string) string {
		if tokenErr != nil {
			return match
		}
		name := paneByNameToken.FindStringSubmatch(match)[1]
		virtual, ok := e.nameIndex[name]
		if !ok {
			tokenErr = errors.Newf(errors.TemplateTokenError, "no terminal named %q", name).
				WithDetail("token", "pane_id").
				WithDetail("name", name)
			return match
		}
		real, ok := e.resolvePane(virtual)
		if !ok {
			tokenErr = errors.Newf(errors.TemplateTokenError, "pane for terminal %q is not registered", name).
				WithDetail("token", "pane_id").
				WithDetail("name", name)
			return match
		}
		return real
	})
	if tokenErr != nil {
		return "", tokenErr
	}

	return out, nil
}
