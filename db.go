package flatdoc

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

const defaultBucket = "docs"

// DB persists trees by name in a key-value store. Each stored value is a
// short header followed by the tree's binary snapshot:
//
//	flags        uvarint (format version)
//	fingerprint  fixed64 (Tree.Fingerprint of the stored tree)
//	data size    uvarint
//	data         msgpack snapshot
//
// A DB is safe for concurrent use; the trees it returns are not shared.
type DB struct {
	st      storage
	bdb     *bbolt.DB
	bucket  string
	ctx     context.Context
	logger  *slog.Logger
	verbose bool

	lastSize   atomic.Int64
	ReadCount  atomic.Uint64
	WriteCount atomic.Uint64
}

type DBOptions struct {
	Context context.Context
	Logger  *slog.Logger
	Verbose bool

	// Bucket names the key space documents live in. Defaults to "docs".
	Bucket string

	IsTesting bool
	MmapSize  int
	Timeout   time.Duration
}

func (o *DBOptions) normalize() {
	if o.Context == nil {
		o.Context = context.Background()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Bucket == "" {
		o.Bucket = defaultBucket
	}
}

// Open opens (creating if needed) a Bolt database file.
func Open(path string, opt DBOptions) (*DB, error) {
	opt.normalize()
	bopt := &bbolt.Options{}
	*bopt = *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opt.Timeout != 0 {
		bopt.Timeout = opt.Timeout
	}
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
		bopt.InitialMmapSize = 1024 * 1024 * 5
	} else {
		bopt.FreelistType = bbolt.FreelistMapType
	}
	if opt.MmapSize != 0 {
		bopt.InitialMmapSize = opt.MmapSize
	}

	bdb, err := bbolt.Open(path, 0666, bopt)
	if err != nil {
		return nil, fmt.Errorf("flatdoc: %w", err)
	}
	db := newDB(newBoltStorage(bdb), opt)
	db.bdb = bdb
	if opt.Verbose {
		db.logger.LogAttrs(db.ctx, slog.LevelDebug, "flatdoc: opened", slog.String("path", path), slog.String("bucket", db.bucket))
	}
	return db, nil
}

// OpenMemory returns a DB that keeps everything in memory.
func OpenMemory(opt DBOptions) *DB {
	opt.normalize()
	return newDB(newMemStorage(), opt)
}

func newDB(st storage, opt DBOptions) *DB {
	return &DB{
		st:      st,
		bucket:  opt.Bucket,
		ctx:     opt.Context,
		logger:  opt.Logger,
		verbose: opt.Verbose,
	}
}

// Bolt returns the underlying Bolt database, or nil for a memory DB.
func (db *DB) Bolt() *bbolt.DB {
	return db.bdb
}

// Size is the database size observed by the most recent write.
func (db *DB) Size() int64 {
	return db.lastSize.Load()
}

func (db *DB) Close() error {
	err := db.st.Close()
	if err != nil {
		return fmt.Errorf("flatdoc: closing: %w", err)
	}
	return nil
}

func (db *DB) read(f func(b storageBucket) error) error {
	db.ReadCount.Add(1)
	tx, err := db.st.BeginTx(false)
	if err != nil {
		return fmt.Errorf("flatdoc: %w", err)
	}
	defer tx.Rollback()
	b := tx.Bucket(db.bucket)
	if b == nil {
		return f(nil)
	}
	return f(b)
}

func (db *DB) write(f func(b storageBucket) (commit bool, err error)) error {
	db.WriteCount.Add(1)
	tx, err := db.st.BeginTx(true)
	if err != nil {
		return fmt.Errorf("flatdoc: %w", err)
	}
	defer tx.Rollback()
	b, err := tx.CreateBucket(db.bucket)
	if err != nil {
		return fmt.Errorf("flatdoc: %w", err)
	}
	commit, err := f(b)
	if err != nil || !commit {
		return err
	}
	size := tx.Size() // not available after commit
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("flatdoc: commit: %w", err)
	}
	db.lastSize.Store(size)
	return nil
}

// Put stores t under name. It returns false without writing anything when the
// stored document already has the same fingerprint.
func (db *DB) Put(name string, t *Tree) (bool, error) {
	if name == "" {
		return false, fmt.Errorf("flatdoc: empty document name")
	}
	fp := t.Fingerprint()
	key := []byte(name)
	var changed bool
	buf := valueBytesPool.Get().([]byte)
	defer func() { releaseValueBytes(buf) }()
	err := db.write(func(b storageBucket) (bool, error) {
		if old := b.Get(key); old != nil {
			hdr, err := decodeDocHeader(old)
			if err != nil {
				db.logger.LogAttrs(db.ctx, slog.LevelWarn, "flatdoc: overwriting corrupted document", slog.String("name", name), hexAttr("head", old[:min(len(old), 16)]), slog.Any("err", err))
			} else if hdr.Fingerprint == fp {
				return false, nil
			}
		}
		// Bolt keeps referencing the value until the transaction ends, so
		// buf goes back to the pool only after db.write returns.
		var err error
		buf, err = encodeDoc(buf, t, fp)
		if err != nil {
			return false, err
		}
		if err := b.Put(key, buf); err != nil {
			return false, fmt.Errorf("flatdoc: put %q: %w", name, err)
		}
		changed = true
		return true, nil
	})
	if err != nil {
		return false, err
	}
	if db.verbose {
		db.logger.LogAttrs(db.ctx, slog.LevelDebug, "flatdoc: put", slog.String("name", name), slog.Int("nodes", t.Len()-1), slog.Bool("changed", changed))
	}
	return changed, nil
}

// Add stores t under a freshly generated name and returns the name.
func (db *DB) Add(t *Tree) (string, error) {
	name := uuid.NewString()
	_, err := db.Put(name, t)
	if err != nil {
		return "", err
	}
	return name, nil
}

// Get loads the document stored under name into a new tree configured by
// opt. The stored widths take precedence over opt.Widths.
func (db *DB) Get(name string, opt Options) (*Tree, error) {
	var t *Tree
	err := db.read(func(b storageBucket) error {
		var raw []byte
		if b != nil {
			raw = b.Get([]byte(name))
		}
		if raw == nil {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		hdr, err := decodeDocHeader(raw)
		if err != nil {
			return fmt.Errorf("flatdoc: document %q: %w", name, err)
		}
		t = newEmpty(opt)
		if err := t.UnmarshalBinary(hdr.Data); err != nil {
			return fmt.Errorf("flatdoc: document %q: %w", name, err)
		}
		if fp := t.Fingerprint(); fp != hdr.Fingerprint {
			return fmt.Errorf("flatdoc: document %q: %w", name, dataErrf(raw, 0, nil, "fingerprint mismatch: stored %016x, computed %016x", hdr.Fingerprint, fp))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes the document stored under name and reports whether it
// existed.
func (db *DB) Delete(name string) (bool, error) {
	key := []byte(name)
	var found bool
	err := db.write(func(b storageBucket) (bool, error) {
		if b.Get(key) == nil {
			return false, nil
		}
		found = true
		return true, b.Delete(key)
	})
	if err == nil && found && db.verbose {
		db.logger.LogAttrs(db.ctx, slog.LevelDebug, "flatdoc: deleted", slog.String("name", name))
	}
	return found, err
}

// Names lists stored document names in key order.
func (db *DB) Names() ([]string, error) {
	var names []string
	err := db.read(func(b storageBucket) error {
		if b == nil {
			return nil
		}
		names = make([]string, 0, b.KeyCount())
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			names = append(names, string(k))
		}
		return nil
	})
	return names, err
}

// NamesWithPrefix lists stored document names that start with prefix.
func (db *DB) NamesWithPrefix(prefix string) ([]string, error) {
	var names []string
	p := []byte(prefix)
	err := db.read(func(b storageBucket) error {
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.Seek(p); k != nil && len(k) >= len(p) && string(k[:len(p)]) == prefix; k, _ = c.Next() {
			names = append(names, string(k))
		}
		return nil
	})
	return names, err
}

const (
	docFormatVer1      = 1
	docFormatVerLatest = docFormatVer1

	docFlagVerMask       = 0xF
	docFlagSupportedMask = docFlagVerMask
)

type docHeader struct {
	Flags       uint64
	Fingerprint uint64
	Data        []byte
}

func encodeDoc(buf []byte, t *Tree, fp uint64) ([]byte, error) {
	data, err := t.MarshalBinary()
	if err != nil {
		return buf, err
	}
	bb := bytesBuilder{buf[:0]}
	bb.AppendUvarint(docFormatVerLatest)
	bb.AppendFixedUint64(fp)
	bb.AppendUvarint(uint64(len(data)))
	bb.Write(data)
	return bb.Buf, nil
}

func decodeDocHeader(raw []byte) (docHeader, error) {
	var hdr docHeader
	d := makeByteDecoder(raw)
	var err error
	hdr.Flags, err = d.Uvarint()
	if err != nil {
		return hdr, err
	}
	if hdr.Flags&^docFlagSupportedMask != 0 || hdr.Flags&docFlagVerMask != docFormatVer1 {
		return hdr, dataErrf(raw, 0, nil, "unsupported document flags %x", hdr.Flags)
	}
	hdr.Fingerprint, err = d.FixedUint64()
	if err != nil {
		return hdr, err
	}
	size, err := d.Uvarinti()
	if err != nil {
		return hdr, err
	}
	hdr.Data, err = d.Raw(size)
	if err != nil {
		return hdr, err
	}
	if len(d.Buf) != 0 {
		return hdr, dataErrf(raw, d.Off(), nil, "%d trailing bytes after document data", len(d.Buf))
	}
	return hdr, nil
}
