package score

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"

	"github.com/hupe1980/sensego/blobstore"
	"github.com/hupe1980/sensego/model"
)

// Snapshot layout:
//
//	magic "SGSC" | version u8 | compression u8 | crc32c(body) u32 | body size u32 | payload
//
// The uncompressed body is
//
//	fingerprint u32 | words uvarint | counts uvarint... | entries uvarint |
//	(i, j, k, l uvarint, value f64 LE)...
const (
	snapshotMagic      = "SGSC"
	snapshotVersion    = 1
	snapshotHeaderSize = 4 + 1 + 1 + 4 + 4
)

var (
	// ErrNotBound is returned by Snapshot when the scorer is not bound to
	// the requested document.
	ErrNotBound = errors.New("score: document not bound")

	// ErrSnapshotMismatch is returned when a snapshot was taken for a
	// document of a different shape or content.
	ErrSnapshotMismatch = errors.New("score: snapshot does not match document")

	// ErrCorruptSnapshot is returned for malformed snapshot bytes.
	ErrCorruptSnapshot = errors.New("score: corrupt snapshot")
)

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// Fingerprint identifies a document's content: its ID and, for every word,
// the ID and signature of each candidate sense. Snapshots only restore into
// documents with an equal fingerprint.
func Fingerprint(doc model.Document) uint32 {
	h := crc32.New(crc32cTable)
	var buf [binary.MaxVarintLen64]byte
	writeUvarint := func(v uint64) {
		n := binary.PutUvarint(buf[:], v)
		_, _ = h.Write(buf[:n])
	}
	writeString := func(s string) {
		writeUvarint(uint64(len(s)))
		_, _ = h.Write([]byte(s))
	}

	writeString(doc.ID())
	writeUvarint(uint64(doc.Len()))
	for i := 0; i < doc.Len(); i++ {
		senses := doc.Senses(i)
		writeUvarint(uint64(len(senses)))
		for _, sense := range senses {
			writeString(sense.ID)
			writeUvarint(uint64(len(sense.Signature)))
			for _, sym := range sense.Signature {
				writeString(sym.Value)
				writeUvarint(math.Float64bits(sym.Weight))
			}
		}
	}
	return h.Sum32()
}

// SnapshotName returns the blob name a document's snapshot is stored under.
func SnapshotName(docID string) string {
	return blobstore.Join("scores", docID+".snap")
}

// Snapshot encodes the pair cache of doc. The scorer must be bound to doc.
func (s *CachedScorer) Snapshot(ctx context.Context, doc model.Document) ([]byte, error) {
	s.mu.Lock()
	bound, cache := s.doc, s.cache
	s.mu.Unlock()
	if cache == nil || bound != doc {
		return nil, ErrNotBound
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body := binary.LittleEndian.AppendUint32(nil, Fingerprint(doc))
	counts := cache.Counts()
	body = binary.AppendUvarint(body, uint64(len(counts)))
	for _, c := range counts {
		body = binary.AppendUvarint(body, uint64(c))
	}

	var (
		entries []byte
		n       uint64
	)
	cache.Range(func(i, j, k, l int, v float64) bool {
		entries = binary.AppendUvarint(entries, uint64(i))
		entries = binary.AppendUvarint(entries, uint64(j))
		entries = binary.AppendUvarint(entries, uint64(k))
		entries = binary.AppendUvarint(entries, uint64(l))
		entries = binary.LittleEndian.AppendUint64(entries, math.Float64bits(v))
		n++
		return true
	})
	body = binary.AppendUvarint(body, n)
	body = append(body, entries...)

	payload, used, err := compress(body, s.opts.Compression)
	if err != nil {
		return nil, fmt.Errorf("score: compress snapshot: %w", err)
	}

	out := make([]byte, 0, snapshotHeaderSize+len(payload))
	out = append(out, snapshotMagic...)
	out = append(out, snapshotVersion, byte(used))
	out = binary.LittleEndian.AppendUint32(out, crc32.Checksum(body, crc32cTable))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(body)))
	out = append(out, payload...)

	s.logger.Debug("score snapshot encoded",
		"document", doc.ID(),
		"entries", n,
		"bytes", len(out),
		"compression", used.String(),
	)
	return out, nil
}

// Restore binds the scorer to doc and loads the cached pairs of a snapshot
// taken for a document with the same fingerprint. Pairs already cached are
// kept.
func (s *CachedScorer) Restore(ctx context.Context, doc model.Document, data []byte) error {
	body, err := decodeSnapshot(data)
	if err != nil {
		return err
	}
	if binary.LittleEndian.Uint32(body) != Fingerprint(doc) {
		return ErrSnapshotMismatch
	}
	r := &uvarintReader{buf: body[4:]}

	words := r.next()
	if r.err != nil || words != uint64(doc.Len()) {
		return ErrSnapshotMismatch
	}
	for i := 0; i < doc.Len(); i++ {
		if c := r.next(); r.err != nil || c != uint64(doc.SenseCount(i)) {
			return ErrSnapshotMismatch
		}
	}

	cache := s.bind(doc)
	n := r.next()
	for e := uint64(0); e < n && r.err == nil; e++ {
		if e%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		i, j, k, l := int(r.next()), int(r.next()), int(r.next()), int(r.next())
		v := r.float()
		if r.err != nil {
			break
		}
		if math.IsNaN(v) {
			return ErrCorruptSnapshot
		}
		cache.Put(i, j, k, l, v)
	}
	if r.err != nil {
		return r.err
	}

	s.logger.Debug("score snapshot restored",
		"document", doc.ID(),
		"entries", n,
	)
	return nil
}

func decodeSnapshot(data []byte) ([]byte, error) {
	if len(data) < snapshotHeaderSize || string(data[:4]) != snapshotMagic {
		return nil, ErrCorruptSnapshot
	}
	if data[4] != snapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, data[4])
	}
	c := Compression(data[5])
	sum := binary.LittleEndian.Uint32(data[6:])
	size := int(binary.LittleEndian.Uint32(data[10:]))

	body, err := decompress(data[snapshotHeaderSize:], c, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if crc32.Checksum(body, crc32cTable) != sum || len(body) < 4 {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorruptSnapshot)
	}
	return body, nil
}

type uvarintReader struct {
	buf []byte
	err error
}

func (r *uvarintReader) next() uint64 {
	if r.err != nil {
		return 0
	}
	v, n := binary.Uvarint(r.buf)
	if n <= 0 {
		r.err = ErrCorruptSnapshot
		return 0
	}
	r.buf = r.buf[n:]
	return v
}

func (r *uvarintReader) float() float64 {
	if r.err != nil {
		return 0
	}
	if len(r.buf) < 8 {
		r.err = ErrCorruptSnapshot
		return 0
	}
	v := math.Float64frombits(binary.LittleEndian.Uint64(r.buf))
	r.buf = r.buf[8:]
	return v
}

// SaveSnapshot writes the snapshot of doc to store under SnapshotName.
func (s *CachedScorer) SaveSnapshot(ctx context.Context, store blobstore.Store, doc model.Document) error {
	data, err := s.Snapshot(ctx, doc)
	if err != nil {
		return err
	}
	return store.Put(ctx, SnapshotName(doc.ID()), data)
}

// LoadSnapshot restores the snapshot of doc from store. A missing snapshot
// returns an error satisfying errors.Is(err, blobstore.ErrNotFound).
func (s *CachedScorer) LoadSnapshot(ctx context.Context, store blobstore.Store, doc model.Document) error {
	data, err := store.Get(ctx, SnapshotName(doc.ID()))
	if err != nil {
		return err
	}
	return s.Restore(ctx, doc, data)
}
