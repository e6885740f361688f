package vecindex

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// File format: magic, version, kind, dimension, vector count, vectors
// (float32 little-endian), and for inverted-file indexes the centroid set
// plus the per-vector cluster assignment. The file is an opaque blob to
// everything outside this package.
const (
	indexMagic   = "CLVX"
	indexVersion = uint8(1)

	kindFlat     = uint8(0)
	kindInverted = uint8(1)
)

var errCorruptIndex = errors.New("vecindex: corrupt index file")

// persistLocked serialises the whole structure to a temporary file and
// renames it into place. Caller holds the write lock.
func (idx *Index) persistLocked() error {
	if idx.path == "" {
		return nil
	}

	tmp := idx.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create temp index file: %w", err)
	}

	w := bufio.NewWriter(f)
	if err := idx.encode(w); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode index: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("flush index: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close index file: %w", err)
	}

	if err := os.Rename(tmp, idx.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace index file: %w", err)
	}
	return nil
}

func (idx *Index) encode(w io.Writer) error {
	if _, err := w.Write([]byte(indexMagic)); err != nil {
		return err
	}
	kind := kindFlat
	if idx.ivf != nil {
		kind = kindInverted
	}
	header := []any{
		indexVersion,
		kind,
		int32(idx.dim),
		int64(len(idx.vectors)),
	}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	for _, vec := range idx.vectors {
		if err := writeFloats(w, vec); err != nil {
			return err
		}
	}

	if idx.ivf == nil {
		return nil
	}

	if err := binary.Write(w, binary.LittleEndian, int32(idx.ivf.nlist)); err != nil {
		return err
	}
	for _, centroid := range idx.ivf.centroids {
		if err := writeFloats(w, centroid); err != nil {
			return err
		}
	}
	// Per-vector cluster assignment; lists are rebuilt on load.
	assignment := make([]int32, len(idx.vectors))
	for c, list := range idx.ivf.lists {
		for _, off := range list {
			assignment[off] = int32(c)
		}
	}
	return binary.Write(w, binary.LittleEndian, assignment)
}

// readIndexFile loads a persisted index. Returns (nil, nil) when the file
// does not exist, an error when it exists but cannot be decoded.
func readIndexFile(path string, dim int) (*Index, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	// The file cannot hold more dim-sized float32 records than its size
	// allows. Counts beyond that are corruption, not data.
	maxRecords := fi.Size() / int64(4*dim)

	r := bufio.NewReader(f)

	magic := make([]byte, len(indexMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != indexMagic {
		return nil, errCorruptIndex
	}

	var version, kind uint8
	var fileDim int32
	var count int64
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, errCorruptIndex
	}
	if version != indexVersion {
		return nil, fmt.Errorf("vecindex: unsupported index version %d", version)
	}
	if err := binary.Read(r, binary.LittleEndian, &kind); err != nil {
		return nil, errCorruptIndex
	}
	if err := binary.Read(r, binary.LittleEndian, &fileDim); err != nil {
		return nil, errCorruptIndex
	}
	if int(fileDim) != dim {
		return nil, fmt.Errorf("vecindex: index dimension %d does not match configured %d", fileDim, dim)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil || count < 0 || count > maxRecords {
		return nil, errCorruptIndex
	}

	idx := &Index{path: path, dim: dim}
	idx.vectors = make([][]float32, count)
	for i := range idx.vectors {
		vec, err := readFloats(r, dim)
		if err != nil {
			return nil, errCorruptIndex
		}
		idx.vectors[i] = vec
	}

	if kind == kindFlat {
		return idx, nil
	}
	if kind != kindInverted {
		return nil, errCorruptIndex
	}

	var nlist int32
	if err := binary.Read(r, binary.LittleEndian, &nlist); err != nil || nlist <= 0 || int64(nlist) > maxRecords {
		return nil, errCorruptIndex
	}
	ivf := &ivfState{
		nlist:     int(nlist),
		centroids: make([][]float32, nlist),
		lists:     make([][]int32, nlist),
	}
	for c := range ivf.centroids {
		centroid, err := readFloats(r, dim)
		if err != nil {
			return nil, errCorruptIndex
		}
		ivf.centroids[c] = centroid
	}
	assignment := make([]int32, count)
	if err := binary.Read(r, binary.LittleEndian, assignment); err != nil {
		return nil, errCorruptIndex
	}
	for off, c := range assignment {
		if c < 0 || c >= nlist {
			return nil, errCorruptIndex
		}
		ivf.lists[c] = append(ivf.lists[c], int32(off))
	}
	idx.ivf = ivf
	return idx, nil
}

func writeFloats(w io.Writer, vec []float32) error {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	_, err := w.Write(buf)
	return err
}

func readFloats(r io.Reader, n int) ([]float32, error) {
	buf := make([]byte, 4*n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	vec := make([]float32, n)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec, nil
}
