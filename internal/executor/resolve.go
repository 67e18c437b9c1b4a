package executor

import "strings"

// register binds a virtual pane id to a real backend pane id. Later
// registrations for the same virtual id overwrite earlier ones.
func (e *Executor) register(virtual, real string) {
	e.paneMap[virtual] = real
	e.logger.Debug("registered pane", "virtual", virtual, "real", real)
}

// resolvePane maps a virtual pane id to a real one. Resolution order:
//
//  1. exact match
//  2. nearest registered ancestor, walking dotted segments upward; a split
//     target inherits the pane its parent currently occupies
//  3. lexicographically smallest registered descendant, so references to an
//     interior split id degrade to its first subdivided pane
func (e *Executor) resolvePane(virtual string) (string, bool) {
	if real, ok := e.paneMap[virtual]; ok {
		return real, true
	}

	ancestor := virtual
	for {
		dot := strings.LastIndex(ancestor, ".")
		if dot < 0 {
			break
		}
		ancestor = ancestor[:dot]
		if real, ok := e.paneMap[ancestor]; ok {
			return real, true
		}
	}

	prefix := virtual + "."
	best := ""
	for id := range e.paneMap {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		if best == "" || id < best {
			best = id
		}
	}
	if best != "" {
		return e.paneMap[best], true
	}

	return "", false
}
