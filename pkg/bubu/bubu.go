package bubu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/calvinalkan/bubu/pkg/ngram"
	"github.com/calvinalkan/bubu/pkg/recordstore"
)

// Workspace file names and default store tuning.
const (
	IndexFileName   = "bubu.idx"
	LibraryFileName = "bubu.lib"

	DefaultBucketLength   = 100000
	DefaultFreePoolLength = 10000

	// The index stores uint32 (docID, position) pairs; the library stores
	// raw document bytes.
	indexElemSize   = 4
	libraryElemSize = 1

	// pairSize is the byte length of one (docID, position) posting entry.
	pairSize = 8
)

// Hit is one candidate match: a document id and the character position the
// match starts at.
type Hit struct {
	DocID uint32
	Pos   uint32
}

// Config carries optional engine dependencies and create-time tuning.
type Config struct {
	// Logger receives operation-level debug logging. Nil means no logging.
	Logger *zap.SugaredLogger

	// BucketLength and FreePoolLength tune both stores at Create. Zero
	// means: use the value from a pre-existing bubu.json, or the default.
	// Ignored by Open (the stores carry their own tuning).
	BucketLength   uint32
	FreePoolLength uint32
}

// Engine is the document-level search engine over one workspace.
//
// Not safe for concurrent use.
type Engine struct {
	dir     string
	index   *recordstore.Store // gram -> (docID, position) pairs
	library *recordstore.Store // decimal docID -> document bytes
	log     *zap.SugaredLogger
}

// WorkspaceStats is a snapshot of both stores' bookkeeping.
type WorkspaceStats struct {
	Index   recordstore.Stats
	Library recordstore.Stats
}

// Create creates a new workspace in dir, truncating any existing store
// files. Store tuning comes from the non-zero fields of cfg, then from a
// pre-existing bubu.json when present, otherwise the defaults; the
// manifest is (re)written with a fresh workspace id.
func Create(dir string, cfg *Config) (*Engine, error) {
	log := loggerFrom(cfg)

	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("create workspace directory: %w", err)
	}

	m, _, err := loadManifest(dir)
	if err != nil {
		return nil, err
	}

	if cfg != nil && cfg.BucketLength != 0 {
		m.BucketLength = cfg.BucketLength
	}

	if cfg != nil && cfg.FreePoolLength != 0 {
		m.FreePoolLength = cfg.FreePoolLength
	}

	if m.BucketLength == 0 {
		m.BucketLength = DefaultBucketLength
	}

	if m.FreePoolLength == 0 {
		m.FreePoolLength = DefaultFreePoolLength
	}

	index, err := recordstore.Create(recordstore.Options{
		Path:           filepath.Join(dir, IndexFileName),
		BucketLength:   m.BucketLength,
		FreePoolLength: m.FreePoolLength,
		ElemSize:       indexElemSize,
	})
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}

	library, err := recordstore.Create(recordstore.Options{
		Path:           filepath.Join(dir, LibraryFileName),
		BucketLength:   m.BucketLength,
		FreePoolLength: m.FreePoolLength,
		ElemSize:       libraryElemSize,
	})
	if err != nil {
		_ = index.Close()

		return nil, fmt.Errorf("create library: %w", err)
	}

	m.ID = uuid.NewString()
	m.CreatedAt = time.Now().UTC()

	err = writeManifest(dir, m)
	if err != nil {
		_ = index.Close()
		_ = library.Close()

		return nil, err
	}

	log.Infow("workspace created",
		"dir", dir,
		"id", m.ID,
		"bucketLength", m.BucketLength,
		"freePoolLength", m.FreePoolLength,
	)

	return &Engine{dir: dir, index: index, library: library, log: log}, nil
}

// Open opens an existing workspace in dir.
func Open(dir string, cfg *Config) (*Engine, error) {
	log := loggerFrom(cfg)

	index, err := recordstore.Open(filepath.Join(dir, IndexFileName), indexElemSize)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	library, err := recordstore.Open(filepath.Join(dir, LibraryFileName), libraryElemSize)
	if err != nil {
		_ = index.Close()

		return nil, fmt.Errorf("open library: %w", err)
	}

	m, found, err := loadManifest(dir)
	if err != nil {
		log.Warnw("workspace manifest unreadable", "dir", dir, "error", err)
	} else if found {
		log.Debugw("workspace opened", "dir", dir, "id", m.ID)
	}

	return &Engine{dir: dir, index: index, library: library, log: log}, nil
}

// Close flushes both store headers and closes them. Idempotent.
func (e *Engine) Close() error {
	return errors.Join(e.index.Close(), e.library.Close())
}

// RegisterDoc indexes content under docID and stores it in the library.
// Empty content is a silent no-op. Registering the same docID twice
// without unregistering in between corrupts the postings for that id;
// callers must unregister first.
func (e *Engine) RegisterDoc(docID uint32, content []byte) error {
	if len(content) == 0 {
		return nil
	}

	unigrams, bigrams := ngram.Tokenize(content, true)

	// Unigram and bigram positions advance independently, one per
	// emission. Search depends on both counting characters this way.
	var pair [pairSize]byte

	binary.LittleEndian.PutUint32(pair[0:4], docID)

	for pos, gram := range unigrams {
		binary.LittleEndian.PutUint32(pair[4:8], uint32(pos))

		err := e.index.Append([]byte(gram), pair[:])
		if err != nil {
			return fmt.Errorf("index unigram %q: %w", gram, err)
		}
	}

	for pos, gram := range bigrams {
		binary.LittleEndian.PutUint32(pair[4:8], uint32(pos))

		err := e.index.Append([]byte(gram), pair[:])
		if err != nil {
			return fmt.Errorf("index bigram %q: %w", gram, err)
		}
	}

	err := e.library.Set(docKey(docID), content)
	if err != nil {
		return fmt.Errorf("store document %d: %w", docID, err)
	}

	e.log.Debugw("document registered",
		"docID", docID,
		"bytes", len(content),
		"unigrams", len(unigrams),
		"bigrams", len(bigrams),
	)

	return nil
}

// Search returns the candidate starting positions of query in every
// registered document, in posting order. An empty query returns no hits.
//
// The query is decomposed into consecutive character pairs (plus a final
// solo character when its length is odd) and the postings of those grams
// are intersected positionally: a hit at position p survives gram i iff
// that gram occurs at p + 2*i in the same document.
func (e *Engine) Search(query string) ([]Hit, error) {
	if query == "" {
		return nil, nil
	}

	unigrams, bigrams := ngram.Tokenize([]byte(query), false)

	n := len(unigrams)
	if n == 0 {
		return nil, nil
	}

	grams := bigrams
	if n%2 == 1 {
		grams = append(grams, unigrams[n-1])
	}

	hits, err := e.posting(grams[0])
	if err != nil {
		return nil, err
	}

	offsetStep := uint32(2)

	for _, gram := range grams[1:] {
		if len(hits) == 0 {
			break
		}

		posting, err := e.posting(gram)
		if err != nil {
			return nil, err
		}

		occurs := make(map[Hit]struct{}, len(posting))
		for _, p := range posting {
			occurs[p] = struct{}{}
		}

		kept := hits[:0]

		for _, h := range hits {
			_, ok := occurs[Hit{DocID: h.DocID, Pos: h.Pos + offsetStep}]
			if ok {
				kept = append(kept, h)
			}
		}

		hits = kept
		offsetStep += 2
	}

	e.log.Debugw("search completed", "query", query, "grams", len(grams), "hits", len(hits))

	return hits, nil
}

// UnregisterDoc removes docID's content from the library and its entries
// from every gram posting the document contributed to. Unknown ids are a
// silent no-op.
func (e *Engine) UnregisterDoc(docID uint32) error {
	key := docKey(docID)

	content, found, err := e.library.Get(key)
	if err != nil {
		return fmt.Errorf("load document %d: %w", docID, err)
	}

	if !found {
		return nil
	}

	err = e.library.Remove(key)
	if err != nil {
		return fmt.Errorf("remove document %d: %w", docID, err)
	}

	unigrams, bigrams := ngram.Tokenize(content, true)
	grams := append(unigrams, bigrams...)

	for _, gram := range grams {
		err := e.scrubPosting(gram, docID)
		if err != nil {
			return err
		}
	}

	e.log.Debugw("document unregistered", "docID", docID, "grams", len(grams))

	return nil
}

// scrubPosting deletes docID's entries from one gram's posting list.
//
// A document's entries form one contiguous run per key (appends during
// register are sequential and never interleave documents), so a single
// run scan suffices. Revisiting a gram already scrubbed finds no run and
// does nothing.
func (e *Engine) scrubPosting(gram string, docID uint32) error {
	key := []byte(gram)

	value, found, err := e.index.Get(key)
	if err != nil {
		return fmt.Errorf("load posting %q: %w", gram, err)
	}

	if !found {
		return nil
	}

	matchStart := 0
	matchLen := 0

	for i := 0; i+pairSize <= len(value); i += pairSize {
		if binary.LittleEndian.Uint32(value[i:]) == docID {
			if matchLen == 0 {
				matchStart = i
			}

			matchLen += pairSize
		} else if matchLen > 0 {
			break
		}
	}

	if matchLen == 0 {
		return nil
	}

	if matchLen == len(value) {
		err = e.index.Remove(key)
		if err != nil {
			return fmt.Errorf("remove posting %q: %w", gram, err)
		}

		return nil
	}

	copy(value[matchStart:], value[matchStart+matchLen:])

	err = e.index.Set(key, value[:len(value)-matchLen])
	if err != nil {
		return fmt.Errorf("shrink posting %q: %w", gram, err)
	}

	return nil
}

// GetDocContent returns the stored content of docID, or nil when the id is
// not registered.
func (e *Engine) GetDocContent(docID uint32) ([]byte, error) {
	content, _, err := e.library.Get(docKey(docID))
	if err != nil {
		return nil, fmt.Errorf("load document %d: %w", docID, err)
	}

	return content, nil
}

// Stats returns bookkeeping snapshots of both stores.
func (e *Engine) Stats() (WorkspaceStats, error) {
	indexStats, err := e.index.Stats()
	if err != nil {
		return WorkspaceStats{}, err
	}

	libraryStats, err := e.library.Stats()
	if err != nil {
		return WorkspaceStats{}, err
	}

	return WorkspaceStats{Index: indexStats, Library: libraryStats}, nil
}

// posting loads one gram's posting list as decoded hits.
func (e *Engine) posting(gram string) ([]Hit, error) {
	value, _, err := e.index.Get([]byte(gram))
	if err != nil {
		return nil, fmt.Errorf("load posting %q: %w", gram, err)
	}

	hits := make([]Hit, 0, len(value)/pairSize)

	for i := 0; i+pairSize <= len(value); i += pairSize {
		hits = append(hits, Hit{
			DocID: binary.LittleEndian.Uint32(value[i:]),
			Pos:   binary.LittleEndian.Uint32(value[i+4:]),
		})
	}

	return hits, nil
}

// docKey is the library key for a document: its decimal ASCII id.
func docKey(docID uint32) []byte {
	return strconv.AppendUint(nil, uint64(docID), 10)
}

func loggerFrom(cfg *Config) *zap.SugaredLogger {
	if cfg != nil && cfg.Logger != nil {
		return cfg.Logger
	}

	return zap.NewNop().Sugar()
}
