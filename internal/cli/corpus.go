package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hupe1980/sensego/codec"
	"github.com/hupe1980/sensego/model"
)

// senseFile is a sense in a corpus file. Gloss is a whitespace separated
// shorthand for a signature of unit weight symbols.
type senseFile struct {
	ID        string          `json:"id"`
	Gloss     string          `json:"gloss,omitempty"`
	Signature model.Signature `json:"signature,omitempty"`
}

type wordFile struct {
	ID     string      `json:"id"`
	Lemma  string      `json:"lemma,omitempty"`
	POS    string      `json:"pos,omitempty"`
	Senses []senseFile `json:"senses"`
}

type documentFile struct {
	ID    string     `json:"id"`
	Words []wordFile `json:"words"`
}

func (f documentFile) document(fallbackID string) *model.MemoryDocument {
	id := f.ID
	if id == "" {
		id = fallbackID
	}
	words := make([]model.Word, len(f.Words))
	for i, w := range f.Words {
		senses := make([]model.Sense, len(w.Senses))
		for k, s := range w.Senses {
			sig := s.Signature
			if len(sig) == 0 {
				sig = model.ParseSignature(s.Gloss)
			}
			senses[k] = model.Sense{ID: s.ID, Signature: sig}
		}
		wid := w.ID
		if wid == "" {
			wid = fmt.Sprintf("w%d", i)
		}
		words[i] = model.Word{ID: wid, Lemma: w.Lemma, POS: w.POS, Senses: senses}
	}
	return model.NewDocument(id, words...)
}

// LoadCorpus reads documents from files and directories. A file holds one
// document object or an array of them; a directory contributes its .json
// files in name order. Documents without an id are named after their file.
func LoadCorpus(c codec.Codec, paths ...string) ([]model.Document, error) {
	var docs []model.Document
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		files := []string{p}
		if info.IsDir() {
			if files, err = jsonFiles(p); err != nil {
				return nil, err
			}
		}
		for _, f := range files {
			loaded, err := loadFile(c, f)
			if err != nil {
				return nil, err
			}
			docs = append(docs, loaded...)
		}
	}
	return docs, nil
}

func jsonFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func loadFile(c codec.Codec, path string) ([]model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var files []documentFile
		if err := c.Unmarshal(data, &files); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		docs := make([]model.Document, len(files))
		for i, f := range files {
			docs[i] = f.document(fmt.Sprintf("%s-%d", base, i))
		}
		return docs, nil
	}

	var f documentFile
	if err := c.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return []model.Document{f.document(base)}, nil
}
