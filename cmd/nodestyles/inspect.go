package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/npillmayer/nodestyles/nodestyles"
	"github.com/npillmayer/nodestyles/protocol"
	"github.com/npillmayer/nodestyles/provider/sheetprovider"
	"github.com/npillmayer/schuko/tracing"
	"github.com/spf13/afero"
)

// request collects what to inspect.
type request struct {
	Document    string
	Selector    string
	CSS         []string
	UserCSS     []string
	Force       []string
	NoUserAgent bool
	Computed    bool
	Options     nodestyles.Options
}

func defaultOptions() nodestyles.Options {
	return nodestyles.DefaultOptions()
}

func tracer() tracing.Trace {
	return tracing.Select("nodestyles.cmd")
}

// inspect loads a document and its style sheets from fsys, and renders the
// cascade of the element selected by req.Selector.
func inspect(ctx context.Context, fsys afero.Fs, req request) (string, error) {
	html, err := afero.ReadFile(fsys, req.Document)
	if err != nil {
		return "", fmt.Errorf("reading document: %w", err)
	}
	doc, err := sheetprovider.ParseDocument(bytes.NewReader(html), "main")
	if err != nil {
		return "", err
	}
	p := sheetprovider.New(doc)
	if !req.NoUserAgent {
		if err := p.AddUserAgentDefaults(); err != nil {
			return "", err
		}
	}
	if err := addStyleSheets(p, fsys, protocol.OriginUser, req.UserCSS); err != nil {
		return "", err
	}
	if err := p.AddDocumentStyles(); err != nil {
		return "", err
	}
	if err := addStyleSheets(p, fsys, protocol.OriginRegular, req.CSS); err != nil {
		return "", err
	}
	el, err := doc.Query(req.Selector)
	if err != nil {
		return "", err
	}
	for _, pc := range req.Force {
		if err := p.ForcePseudoClass(el.NodeID(), pc, true); err != nil {
			return "", err
		}
	}
	tracer().Infof("inspecting %s", el)
	ns := nodestyles.New(ctx, el, p, req.Options)
	if _, err := ns.Refresh(ctx); err != nil {
		return "", fmt.Errorf("computing styles of %s: %w", req.Selector, err)
	}
	var out strings.Builder
	out.WriteString(ns.Dump(req.Selector))
	if req.Computed {
		if computed := ns.ComputedStyle(); computed != nil {
			out.WriteString("computed\n")
			for _, prop := range computed.Properties() {
				mark := " "
				if !prop.Implicit() {
					mark = "*"
				}
				fmt.Fprintf(&out, "%s %s: %s\n", mark, prop.Name(), prop.Value())
			}
		}
	}
	return out.String(), nil
}

func addStyleSheets(p *sheetprovider.Provider, fsys afero.Fs, origin protocol.StyleSheetOrigin,
	paths []string) error {
	//
	for _, path := range paths {
		text, err := afero.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("reading style sheet: %w", err)
		}
		if _, err := p.AddStyleSheet(origin, path, string(text)); err != nil {
			return err
		}
	}
	return nil
}
