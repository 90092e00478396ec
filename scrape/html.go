package scrape

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// ErrNoPayload reports a page without the expected embedded payload.
var ErrNoPayload = errors.New("no payload in page")

// script is an inline script element.
type script struct {
	attrs map[string]string
	text  string
}

// scripts returns all the script elements of page, in document order.
func scripts(page []byte) ([]script, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("cannot parse html: %w", err)
	}
	var res []script
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" {
			s := script{attrs: make(map[string]string)}
			for _, a := range n.Attr {
				s.attrs[a.Key] = a.Val
			}
			var b strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					b.WriteString(c.Data)
				}
			}
			s.text = b.String()
			res = append(res, s)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return res, nil
}

// ScriptByID returns the content of the script element with the given id.
func ScriptByID(page []byte, id string) (string, error) {
	all, err := scripts(page)
	if err != nil {
		return "", err
	}
	for _, s := range all {
		if s.attrs["id"] == id {
			return s.text, nil
		}
	}
	return "", fmt.Errorf("script %q: %w", id, ErrNoPayload)
}

// ScriptAssignment returns the string literal assigned to variable in an inline
// script, as in
//
//	<script>window['state'] = '{"a": 1}'</script>
//
// The literal is returned as written, escape sequences are left untouched.
func ScriptAssignment(page []byte, variable string) (string, error) {
	all, err := scripts(page)
	if err != nil {
		return "", err
	}
	for _, s := range all {
		i := strings.Index(s.text, variable)
		if i < 0 {
			continue
		}
		rest := strings.TrimSpace(s.text[i+len(variable):])
		rest, ok := strings.CutPrefix(rest, "=")
		if !ok {
			continue
		}
		rest = strings.TrimSpace(rest)
		rest = strings.TrimSuffix(rest, ";")
		if len(rest) < 2 {
			continue
		}
		quote := rest[0]
		if quote != '\'' && quote != '"' {
			continue
		}
		end := strings.LastIndexByte(rest, quote)
		if end <= 0 {
			continue
		}
		return rest[1:end], nil
	}
	return "", fmt.Errorf("assignment to %s: %w", variable, ErrNoPayload)
}
