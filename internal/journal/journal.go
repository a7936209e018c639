// Package journal keeps an append-only record of order attempts, one JSON
// line per attempt in a file per trading day.
package journal

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JST is the exchange's time zone; journal files are cut at JST midnight.
var JST = time.FixedZone("JST", 9*60*60)

const timeLayout = "2006-01-02 15:04:05"

var mu sync.Mutex

type Entry struct {
	ID       string   `json:"id"`
	Time     string   `json:"time"`
	Code     string   `json:"code"`
	Side     string   `json:"side"`
	Quantity int      `json:"quantity"`
	Price    string   `json:"price"`
	Status   string   `json:"status"`
	Message  []string `json:"message,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Journal writes under one directory.
type Journal struct {
	dir string
	now func() time.Time
}

func New(dir string) *Journal {
	if dir == "" {
		dir = "logs"
	}
	return &Journal{dir: dir, now: time.Now}
}

func (j *Journal) Dir() string { return j.dir }

func (j *Journal) dailyFilepath(t time.Time) string {
	return filepath.Join(j.dir, t.In(JST).Format("2006-01-02")+".txt")
}

// Append stamps e with the current JST time and an id, and appends it to
// today's file.
func (j *Journal) Append(e Entry) error {
	mu.Lock()
	defer mu.Unlock()

	now := j.now().In(JST)
	e.Time = now.Format(timeLayout)
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	p := j.dailyFilepath(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips day files last modified more than retentionDays ago.
// Zero or negative retention keeps everything as is.
func (j *Journal) CompressOlder(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := j.now().AddDate(0, 0, -retentionDays)
	compressed := 0

	err := filepath.WalkDir(j.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		// an earlier run already compressed it
		if _, err := os.Stat(gz); err == nil {
			return os.Remove(p)
		}
		if err := gzipFile(p, gz); err != nil {
			return fmt.Errorf("compress %s: %w", p, err)
		}
		compressed++
		return os.Remove(p)
	})
	return compressed, err
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := gw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
