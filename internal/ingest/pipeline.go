package ingest

import (
	"fmt"
	"os"
	"runtime"
	"sync"
)

type result struct {
	pos   int
	entry Entry
	err   error
}

// ReadFile loads and splits a single markdown file.
func ReadFile(sf SourceFile) (Entry, error) {
	raw, err := os.ReadFile(sf.Path)
	if err != nil {
		return Entry{}, err
	}
	fields, body, err := ParseFrontMatter(raw)
	if err != nil {
		return Entry{}, fmt.Errorf("%s: %w", sf.Name, err)
	}
	return Entry{
		Filename: sf.Name,
		Fields:   fields,
		Content:  string(body),
	}, nil
}

// Ingest reads every markdown file under root. Files are read concurrently
// but the result keeps DiscoverSource order. The first failure aborts the
// whole load.
func Ingest(root string) ([]Entry, error) {
	files, err := DiscoverSource(root)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(files) {
		workers = len(files)
	}
	jobs := make(chan int)
	results := make(chan result)
	done := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pos := range jobs {
				e, err := ReadFile(files[pos])
				select {
				case results <- result{pos: pos, entry: e, err: err}:
				case <-done:
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for pos := range files {
			select {
			case jobs <- pos:
			case <-done:
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]Entry, len(files))
	for r := range results {
		if r.err != nil {
			close(done)
			return nil, r.err
		}
		out[r.pos] = r.entry
	}
	return out, nil
}
