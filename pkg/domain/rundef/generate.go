package rundef

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	xerrors "github.com/scgcore/quantd/pkg/errors"
)

// Generator renders RunDef templates by literal token substitution,
// line by line.
//
// Templates are site-managed, so by default a token left unmatched is
// passed through untouched. With Strict set, rendering fails when any
// SSS_..._SSS token survives substitution.
type Generator struct {
	Tokens map[string]string
	Strict bool
}

// UnresolvedTokenError lists tokens still present after rendering a
// template in Strict mode.
type UnresolvedTokenError struct {
	Template string
	Tokens   []string
}

func (e UnresolvedTokenError) Error() string {
	return fmt.Sprintf(
		"template %s: unresolved tokens after substitution: %s",
		e.Template, strings.Join(e.Tokens, ", "),
	)
}

const (
	tokenPrefix = "SSS_"
	tokenSuffix = "_SSS"
)

// Render copies the template to out, replacing every known token on every
// line. The replacement values may span multiple lines (platemap and
// storage blocks do).
func (g Generator) Render(out io.Writer, template io.Reader) error {
	leftover := map[string]bool{}

	// fixed substitution order keeps output deterministic even if one
	// token's name were a substring of another's value
	keys := make([]string, 0, len(g.Tokens))
	for k := range g.Tokens {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sc := bufio.NewScanner(template)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		for _, k := range keys {
			line = strings.ReplaceAll(line, k, g.Tokens[k])
		}
		if g.Strict {
			for _, tok := range scanTokens(line) {
				leftover[tok] = true
			}
		}
		if _, err := io.WriteString(out, line+"\n"); err != nil {
			return xerrors.Wrap(err)
		}
	}
	if err := sc.Err(); err != nil {
		return xerrors.Wrap(err)
	}

	if len(leftover) != 0 {
		toks := make([]string, 0, len(leftover))
		for t := range leftover {
			toks = append(toks, t)
		}
		sort.Strings(toks)
		return UnresolvedTokenError{Tokens: toks}
	}
	return nil
}

// scanTokens finds SSS_..._SSS markers in an already-substituted line.
func scanTokens(line string) []string {
	var found []string
	for {
		start := strings.Index(line, tokenPrefix)
		if start < 0 {
			return found
		}
		rest := line[start+len(tokenPrefix):]
		end := strings.Index(rest, tokenSuffix)
		if end < 0 {
			return found
		}
		found = append(found, line[start:start+len(tokenPrefix)+end+len(tokenSuffix)])
		line = rest[end+len(tokenSuffix):]
	}
}

// RenderFile renders templatePath into destPath, whole or not at all.
func (g Generator) RenderFile(destPath, templatePath string) error {
	in, err := os.Open(templatePath)
	if err != nil {
		return xerrors.Wrap(err)
	}
	defer in.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return xerrors.Wrap(err)
	}
	if err := g.Render(out, in); err != nil {
		out.Close()
		os.Remove(destPath)
		if ute, ok := err.(UnresolvedTokenError); ok {
			ute.Template = templatePath
			return ute
		}
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(destPath)
		return xerrors.Wrap(err)
	}
	return nil
}

// Deliver places the already-rendered document srcPath into the inbox
// directory under its own filename. The copy lands under a temporary name
// first and is renamed into place, so the inbox watcher never sees a
// partial document.
func Deliver(srcPath, inboxDir string) error {
	in, err := os.Open(srcPath)
	if err != nil {
		return xerrors.Wrap(err)
	}
	defer in.Close()

	name := filepath.Base(srcPath)
	tmp, err := os.CreateTemp(inboxDir, "."+name+".tmp-*")
	if err != nil {
		return xerrors.Wrap(err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return xerrors.Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return xerrors.Wrap(err)
	}
	if err := os.Rename(tmpName, filepath.Join(inboxDir, name)); err != nil {
		os.Remove(tmpName)
		return xerrors.Wrap(err)
	}
	return nil
}
