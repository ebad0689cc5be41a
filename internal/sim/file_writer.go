package sim

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"

	"cryotank-sim/internal/telemetry"
)

// jsonlFile is a JSON lines sink, zstd-compressed when its path ends in .zst.
type jsonlFile struct {
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
	je  *json.Encoder
}

func openJSONL(path string) (*jsonlFile, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	jf := &jsonlFile{f: f}
	if IsCompressed(path) {
		enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		jf.enc = enc
		jf.w = bufio.NewWriterSize(enc, 128*1024)
	} else {
		jf.w = bufio.NewWriter(f)
	}
	jf.je = json.NewEncoder(jf.w)
	return jf, nil
}

func (j *jsonlFile) encode(v any) error {
	if err := j.je.Encode(v); err != nil {
		return err
	}
	return j.w.Flush()
}

func (j *jsonlFile) close() error {
	err := j.w.Flush()
	if j.enc != nil {
		if e := j.enc.Close(); e != nil && err == nil {
			err = e
		}
	}
	if e := j.f.Close(); e != nil && err == nil {
		err = e
	}
	return err
}

// IsCompressed reports whether path names a zstd-compressed log.
func IsCompressed(path string) bool {
	return strings.HasSuffix(path, ".zst")
}

// FileWriter writes tank rows, vessel state rows and events to JSONL files.
type FileWriter struct {
	mu    sync.Mutex
	tanks *jsonlFile
	state *jsonlFile
	evs   *jsonlFile
}

// NewFileWriter creates a FileWriter. statePath or eventPath may be empty to
// skip those logs.
func NewFileWriter(tankPath, statePath, eventPath string) (*FileWriter, error) {
	tf, err := openJSONL(tankPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{tanks: tf}
	if statePath != "" {
		if fw.state, err = openJSONL(statePath); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	if eventPath != "" {
		if fw.evs, err = openJSONL(eventPath); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return fw, nil
}

// Write logs a single tank row.
func (f *FileWriter) Write(row telemetry.TankRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tanks.encode(row)
}

// WriteBatch logs multiple tank rows.
func (f *FileWriter) WriteBatch(rows []telemetry.TankRow) error {
	for _, r := range rows {
		if err := f.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteState logs a vessel state row, if enabled.
func (f *FileWriter) WriteState(row telemetry.VesselStateRow) error {
	if f.state == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.encode(row)
}

// WriteEvent logs a cooling event, if enabled.
func (f *FileWriter) WriteEvent(e telemetry.CoolingEventRow) error {
	if f.evs == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.evs.encode(e)
}

// Close flushes and closes any underlying files.
func (f *FileWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var err error
	for _, j := range []*jsonlFile{f.tanks, f.state, f.evs} {
		if j == nil {
			continue
		}
		if e := j.close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
