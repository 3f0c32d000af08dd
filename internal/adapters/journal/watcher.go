package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/fsnotify/fsnotify"

	"github.com/chadvangaalen/sfr/internal/domain"
)

const journalGlob = "Journal*.log"

// Watcher tails the newest journal file in a directory, decoding every
// appended JSON line into a domain.Event. When the game rolls over to a new
// journal file the watcher finishes the old one and follows the new one.
type Watcher struct {
	dir     string
	log     *log.Logger
	entries chan domain.Event
}

func NewWatcher(dir string, logger *log.Logger) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat journal directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("journal path %s is not a directory", dir)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Watcher{
		dir:     dir,
		log:     logger,
		entries: make(chan domain.Event, 64),
	}, nil
}

// Entries is the stream of decoded journal entries, in file order. Closed
// when Run returns.
func (w *Watcher) Entries() <-chan domain.Event { return w.entries }

// Run tails the journal directory until ctx is cancelled. The current
// journal file is replayed from its start, so a relay attached mid-session
// still sees the session's startup entries.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.entries)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create journal watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch journal directory: %w", err)
	}

	current := latestJournal(w.dir)
	var file *os.File
	var partial []byte
	if current != "" {
		if file, err = os.Open(current); err != nil {
			return fmt.Errorf("open journal file: %w", err)
		}
		if err := w.drain(ctx, file, &partial); err != nil {
			_ = file.Close()
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			if file != nil {
				_ = file.Close()
			}
			return ctx.Err()

		case ev, ok := <-fsw.Events:
			if !ok {
				if file != nil {
					_ = file.Close()
				}
				return nil
			}

			if ev.Op.Has(fsnotify.Create) && isJournalFile(ev.Name) && ev.Name > current {
				// Finish the old file before switching.
				if file != nil {
					if err := w.drain(ctx, file, &partial); err != nil {
						_ = file.Close()
						return err
					}
					_ = file.Close()
				}
				current = ev.Name
				partial = nil
				if file, err = os.Open(current); err != nil {
					return fmt.Errorf("open journal file: %w", err)
				}
			}

			if file != nil && ev.Op.Has(fsnotify.Write) && ev.Name == current {
				if err := w.drain(ctx, file, &partial); err != nil {
					_ = file.Close()
					return err
				}
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				if file != nil {
					_ = file.Close()
				}
				return nil
			}
			w.log.Printf("journal watch: %v", err)
		}
	}
}

// drain reads everything currently appended to f, emitting each complete
// line. A trailing partial line is kept for the next drain.
func (w *Watcher) drain(ctx context.Context, f *os.File, partial *[]byte) error {
	buf := make([]byte, 64*1024)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			*partial = append(*partial, buf[:n]...)
			for {
				i := bytes.IndexByte(*partial, '\n')
				if i < 0 {
					break
				}
				line := bytes.TrimSpace((*partial)[:i])
				rest := make([]byte, len(*partial)-i-1)
				copy(rest, (*partial)[i+1:])
				*partial = rest

				if len(line) == 0 {
					continue
				}
				entry, derr := DecodeLine(line)
				if derr != nil {
					w.log.Printf("skip journal line: %v", derr)
					continue
				}
				select {
				case w.entries <- entry:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read journal file: %w", err)
		}
	}
}

// DecodeLine parses one journal line. Numbers decode as json.Number so ship
// and market identifiers keep full precision.
func DecodeLine(line []byte) (domain.Event, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	var entry domain.Event
	if err := dec.Decode(&entry); err != nil {
		return nil, fmt.Errorf("decode journal line: %w", err)
	}
	if entry.Name() == "" {
		return nil, fmt.Errorf("journal line has no event name")
	}
	return entry, nil
}

func latestJournal(dir string) string {
	matches, err := filepath.Glob(filepath.Join(dir, journalGlob))
	if err != nil || len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)
	return matches[len(matches)-1]
}

func isJournalFile(path string) bool {
	ok, err := filepath.Match(journalGlob, filepath.Base(path))
	return err == nil && ok
}
