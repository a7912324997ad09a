package triplet

import (
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/glorpus-work/portman/pkg/errors"
)

// EvalSupports evaluates a port supports expression against a triplet.
// Expressions combine triplet attributes with `!`, `&`, `|` and parentheses,
// e.g. "!windows & !arm" or "x64 | (arm64 & osx)". An empty expression means
// the port supports every triplet.
//
// The expression is rewritten into a tengo boolean expression and executed
// with every referenced attribute bound to its value for the triplet.
func EvalSupports(expr, name, host string) (bool, error) {
	if strings.TrimSpace(expr) == "" {
		return true, nil
	}

	idents, err := supportsIdentifiers(expr)
	if err != nil {
		return false, err
	}

	script := tengo.NewScript([]byte("__supported__ := " + rewriteSupports(expr)))
	attrs := Attributes(name, host)
	for ident := range idents {
		if err := script.Add(ident, attrs[ident]); err != nil {
			return false, errors.Wrapf(err, "failed to bind attribute %s", ident)
		}
	}

	compiled, err := script.Run()
	if err != nil {
		return false, errors.Wrapf(errors.ErrInvalidRecipe, "bad supports expression %q: %v", expr, err)
	}

	supported, ok := compiled.Get("__supported__").Value().(bool)
	if !ok {
		return false, errors.Wrapf(errors.ErrInvalidRecipe, "supports expression %q is not boolean", expr)
	}
	return supported, nil
}

// rewriteSupports converts the single-character operators of a supports
// expression into tengo's boolean operators.
func rewriteSupports(expr string) string {
	expr = strings.ReplaceAll(expr, "&&", "&")
	expr = strings.ReplaceAll(expr, "||", "|")
	expr = strings.ReplaceAll(expr, "&", " && ")
	expr = strings.ReplaceAll(expr, "|", " || ")
	return expr
}

// supportsIdentifiers collects the attribute names referenced by an
// expression and rejects characters outside the supports grammar.
func supportsIdentifiers(expr string) (map[string]struct{}, error) {
	idents := make(map[string]struct{})
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			idents[current.String()] = struct{}{}
			current.Reset()
		}
	}
	for _, r := range expr {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			current.WriteRune(r)
		case r == '!' || r == '&' || r == '|' || r == '(' || r == ')' || r == ' ' || r == '\t':
			flush()
		default:
			return nil, errors.Wrapf(errors.ErrInvalidRecipe,
				"supports expression contains invalid character %q", r)
		}
	}
	flush()
	if len(idents) == 0 {
		return nil, fmt.Errorf("supports expression references no attributes: %w", errors.ErrInvalidRecipe)
	}
	return idents, nil
}
