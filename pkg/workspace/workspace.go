// Package workspace answers editor queries against the set of open USS
// documents. Every operation is total: unknown documents and stale positions
// produce empty results.
package workspace

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/walteh/ussls/pkg/buffer"
	"github.com/walteh/ussls/pkg/color"
	"github.com/walteh/ussls/pkg/completion"
	"github.com/walteh/ussls/pkg/completion/providers"
	"github.com/walteh/ussls/pkg/diagnostic"
	"github.com/walteh/ussls/pkg/document"
	"github.com/walteh/ussls/pkg/format"
	"github.com/walteh/ussls/pkg/hover"
	"github.com/walteh/ussls/pkg/knowledge"
	"github.com/walteh/ussls/pkg/position"
	"github.com/walteh/ussls/pkg/references"
	"github.com/walteh/ussls/pkg/semtok"
)

type Workspace struct {
	store       *document.Store
	completion  *completion.Engine
	hover       *hover.Provider
	diagnostics diagnostic.Generator
	index       references.Index
	tokenizer   *semtok.Tokenizer
	formatting  format.Options
}

type Option func(*Workspace)

// WithIndex replaces the rescanning reference index.
func WithIndex(index references.Index) Option {
	return func(w *Workspace) { w.index = index }
}

func WithDiagnostics(gen diagnostic.Generator) Option {
	return func(w *Workspace) { w.diagnostics = gen }
}

func WithFormatting(opts format.Options) Option {
	return func(w *Workspace) { w.formatting = opts }
}

func New(tables *knowledge.Tables, opts ...Option) *Workspace {
	w := &Workspace{
		store:       document.NewStore(),
		completion:  completion.NewEngine(tables),
		hover:       hover.NewProvider(tables),
		diagnostics: diagnostic.NewScanner(tables),
		index:       references.NewScanner(),
		tokenizer:   semtok.NewTokenizer(tables),
		formatting:  format.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Workspace) Formatting() format.Options {
	return w.formatting
}

func (w *Workspace) Open(ctx context.Context, uri, languageID, text string, version int32) {
	w.store.Open(ctx, uri, languageID, text, version)
}

// Change applies edits in order. It reports false when the document is not
// open.
func (w *Workspace) Change(ctx context.Context, uri string, version int32, changes []document.Change) bool {
	_, ok := w.store.Change(ctx, uri, version, changes)
	return ok
}

func (w *Workspace) Close(ctx context.Context, uri string) bool {
	return w.store.Close(ctx, uri)
}

func (w *Workspace) Document(uri string) (*document.Document, bool) {
	return w.store.Get(uri)
}

// URIs lists the open documents.
func (w *Workspace) URIs() []string {
	return w.store.URIs()
}

func (w *Workspace) lookup(ctx context.Context, uri string) (*document.Document, bool) {
	doc, ok := w.store.Get(uri)
	if !ok {
		zerolog.Ctx(ctx).Debug().Str("uri", uri).Msg("query for unknown document")
	}
	return doc, ok
}

// read runs fn against the document's buffer, or reports false for an
// unknown URI.
func (w *Workspace) read(ctx context.Context, uri string, fn func(buf *buffer.Buffer)) bool {
	doc, ok := w.lookup(ctx, uri)
	if !ok {
		return false
	}
	doc.Read(func(buf *buffer.Buffer, _ int32) { fn(buf) })
	return true
}

func (w *Workspace) Classify(ctx context.Context, uri string, pos position.Place) completion.CompletionContext {
	result := completion.Unknown
	w.read(ctx, uri, func(buf *buffer.Buffer) {
		result = completion.Classify(buf, pos)
	})
	return result
}

func (w *Workspace) Diagnostics(ctx context.Context, uri string) []diagnostic.Diagnostic {
	var diags []diagnostic.Diagnostic
	w.read(ctx, uri, func(buf *buffer.Buffer) {
		diags = w.diagnostics.Generate(ctx, buf.Text())
	})
	return diags
}

func (w *Workspace) Definition(ctx context.Context, uri string, pos position.Place) (position.Range, bool) {
	var (
		rng   position.Range
		found bool
	)
	w.read(ctx, uri, func(buf *buffer.Buffer) {
		rng, found = w.index.Definition(ctx, buf, pos)
	})
	return rng, found
}

func (w *Workspace) References(ctx context.Context, uri string, pos position.Place) []position.Range {
	var refs []position.Range
	w.read(ctx, uri, func(buf *buffer.Buffer) {
		refs = w.index.References(ctx, buf, pos)
	})
	return refs
}

// Rename returns every edit needed to rename the token at pos, keyed by the
// document URI, or false when there is nothing to change.
func (w *Workspace) Rename(ctx context.Context, uri string, pos position.Place, newName string) (map[string][]buffer.Edit, bool) {
	doc, found := w.lookup(ctx, uri)
	if !found {
		return nil, false
	}
	var (
		edits []buffer.Edit
		ok    bool
	)
	doc.Read(func(buf *buffer.Buffer, _ int32) {
		edits, ok = w.index.Rename(ctx, buf, pos, newName)
	})
	if !ok {
		return nil, false
	}
	return map[string][]buffer.Edit{doc.URI(): edits}, true
}

func (w *Workspace) Complete(ctx context.Context, uri string, pos position.Place) []providers.CompletionItem {
	var items []providers.CompletionItem
	w.read(ctx, uri, func(buf *buffer.Buffer) {
		items, _ = w.completion.Complete(ctx, buf, pos)
	})
	return items
}

func (w *Workspace) ResolveCompletion(item providers.CompletionItem) providers.CompletionItem {
	return w.completion.Resolve(item)
}

func (w *Workspace) Hover(ctx context.Context, uri string, pos position.Place) (*hover.HoverInfo, bool) {
	var (
		info  *hover.HoverInfo
		found bool
	)
	w.read(ctx, uri, func(buf *buffer.Buffer) {
		info, found = w.hover.Hover(ctx, buf, pos)
	})
	return info, found
}

// Format uses opts when given, otherwise the workspace formatting options.
func (w *Workspace) Format(ctx context.Context, uri string, opts *format.Options) []buffer.Edit {
	var edits []buffer.Edit
	w.read(ctx, uri, func(buf *buffer.Buffer) {
		edits = format.Document(ctx, buf, w.options(opts))
	})
	return edits
}

func (w *Workspace) FormatRange(ctx context.Context, uri string, r position.Range, opts *format.Options) []buffer.Edit {
	var edits []buffer.Edit
	w.read(ctx, uri, func(buf *buffer.Buffer) {
		edits = format.Range(ctx, buf, r, w.options(opts))
	})
	return edits
}

func (w *Workspace) options(opts *format.Options) format.Options {
	if opts == nil || opts.IndentWidth <= 0 {
		return w.formatting
	}
	return *opts
}

func (w *Workspace) Colors(ctx context.Context, uri string) []color.Information {
	var infos []color.Information
	w.read(ctx, uri, func(buf *buffer.Buffer) {
		infos = color.Find(ctx, buf)
	})
	return infos
}

func (w *Workspace) ColorPresentations(c color.RGBA) []color.Presentation {
	return color.Presentations(c)
}

func (w *Workspace) SemanticTokens(ctx context.Context, uri string) []semtok.Token {
	var tokens []semtok.Token
	w.read(ctx, uri, func(buf *buffer.Buffer) {
		tokens = w.tokenizer.GetTokensForText(ctx, buf.Text())
	})
	return tokens
}

func (w *Workspace) SemanticTokensRange(ctx context.Context, uri string, r position.Range) []semtok.Token {
	var tokens []semtok.Token
	w.read(ctx, uri, func(buf *buffer.Buffer) {
		tokens = w.tokenizer.GetTokensForRange(ctx, buf.Text(), r)
	})
	return tokens
}
