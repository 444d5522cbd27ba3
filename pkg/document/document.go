// Package document tracks the open documents of an editing session.
package document

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/walteh/ussls/pkg/buffer"
	"github.com/walteh/ussls/pkg/position"
)

// Document owns one buffer. Edits take the write lock and queries the read
// lock, so work on one document never waits on another.
type Document struct {
	uri        string
	languageID string

	mu      sync.RWMutex
	version int32
	buf     *buffer.Buffer
}

// Change is one entry of an edit notification. A nil Range replaces the
// whole text.
type Change struct {
	Range *position.Range
	Text  string
}

func (d *Document) URI() string {
	return d.uri
}

func (d *Document) LanguageID() string {
	return d.languageID
}

func (d *Document) Version() int32 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.buf.Text()
}

// Read runs fn with shared access to the buffer. fn must not keep buf.
func (d *Document) Read(fn func(buf *buffer.Buffer, version int32)) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fn(d.buf, d.version)
}

// Apply performs changes in order and records version. Edits whose range
// cannot be resolved are skipped; the count of applied changes is returned.
func (d *Document) Apply(ctx context.Context, version int32, changes []Change) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	if version < d.version {
		zerolog.Ctx(ctx).Warn().Str("uri", d.uri).Int32("have", d.version).Int32("got", version).Msg("document version went backwards")
	}

	applied := 0
	for _, c := range changes {
		if c.Range == nil {
			d.buf.SetText(c.Text)
			applied++
			continue
		}
		if d.buf.ApplyEdit(*c.Range, c.Text) {
			applied++
			continue
		}
		zerolog.Ctx(ctx).Debug().Str("uri", d.uri).Stringer("range", *c.Range).Msg("skipping unresolvable edit")
	}
	d.version = version
	return applied
}

// Store maps URIs to open documents and is safe for concurrent use.
type Store struct {
	docs sync.Map // map[string]*Document
}

func NewStore() *Store {
	return &Store{}
}

// NormalizeURI keys "file:///a.uss", "file:/a.uss" and "/a.uss" alike.
func NormalizeURI(uri string) string {
	uri = strings.TrimPrefix(uri, "file://")
	uri = strings.TrimPrefix(uri, "file:")
	return uri
}

// Open registers a document, replacing any previous one with the same URI.
func (s *Store) Open(ctx context.Context, uri, languageID, text string, version int32) *Document {
	doc := &Document{
		uri:        uri,
		languageID: languageID,
		version:    version,
		buf:        buffer.New(text),
	}
	s.docs.Store(NormalizeURI(uri), doc)
	zerolog.Ctx(ctx).Debug().Str("uri", uri).Int32("version", version).Int("length", doc.buf.Len()).Msg("document opened")
	return doc
}

func (s *Store) Get(uri string) (*Document, bool) {
	v, ok := s.docs.Load(NormalizeURI(uri))
	if !ok {
		return nil, false
	}
	return v.(*Document), true
}

// Change applies changes to an open document. It reports false for an
// unknown URI.
func (s *Store) Change(ctx context.Context, uri string, version int32, changes []Change) (*Document, bool) {
	doc, ok := s.Get(uri)
	if !ok {
		zerolog.Ctx(ctx).Debug().Str("uri", uri).Msg("change for unknown document")
		return nil, false
	}
	doc.Apply(ctx, version, changes)
	return doc, true
}

func (s *Store) Close(ctx context.Context, uri string) bool {
	_, ok := s.docs.LoadAndDelete(NormalizeURI(uri))
	zerolog.Ctx(ctx).Debug().Str("uri", uri).Bool("known", ok).Msg("document closed")
	return ok
}

// URIs lists open documents in sorted order.
func (s *Store) URIs() []string {
	var uris []string
	s.docs.Range(func(_, v any) bool {
		uris = append(uris, v.(*Document).uri)
		return true
	})
	slices.Sort(uris)
	return uris
}
