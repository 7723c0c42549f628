// Package bubu is a small full-text search engine for UTF-8 text.
//
// Documents are identified by uint32 ids and stored in a workspace
// directory holding two recordstore files: bubu.idx, a positional inverted
// index over character unigrams and bigrams, and bubu.lib, the document
// library keyed by decimal id. A bubu.json manifest records the workspace
// identity and store tuning.
//
// # Basic Usage
//
//	eng, err := bubu.Create("/tmp/ws", nil)
//	if err != nil {
//	    // handle error
//	}
//	defer eng.Close()
//
//	err = eng.RegisterDoc(1, []byte("本日は、快晴なり。"))
//	hits, err := eng.Search("日は、")
//
// Search returns raw (docID, position) candidate pairs; positions count
// characters from the start of the document. There is no ranking, stemming
// or normalization.
//
// An Engine is single-writer and not safe for concurrent use, matching the
// underlying stores.
package bubu
