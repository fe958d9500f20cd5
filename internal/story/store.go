package story

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/pixil98/go-storyweave/internal/storage"
)

// Story is an ordered list of blocks loaded from one story file.
type Story struct {
	ID     string   `json:"-"`
	Blocks []*Block `json:"blocks"`

	index map[string]int
}

func (s *Story) validate() error {
	s.index = make(map[string]int, len(s.Blocks))
	for i, b := range s.Blocks {
		if b == nil {
			return fmt.Errorf("block %d is empty", i)
		}
		if err := b.Validate(); err != nil {
			return fmt.Errorf("block %d: %w", i, err)
		}
		if _, dup := s.index[b.ID]; dup {
			return fmt.Errorf("block id %q is not unique", b.ID)
		}
		s.index[b.ID] = i
	}
	return nil
}

// IndexOf returns the position of blockID within the story, or -1.
func (s *Story) IndexOf(blockID string) int {
	if i, ok := s.index[blockID]; ok {
		return i
	}
	return -1
}

// Entry is a block paired with the story it came from.
type Entry struct {
	StoryID string
	Block   *Block
}

// Location identifies where a block sits across the loaded stories.
type Location struct {
	StoryID string
	Index   int
	Block   *Block
}

// Store lazily loads story files from a directory and caches them by id.
type Store struct {
	dir   string
	order []string

	mu      sync.RWMutex
	stories map[string]*Story
}

// NewStore creates a store reading <dir>/<storyID>.json. The order lists the
// story ids in play order and defines station numbering.
func NewStore(dir string, order []string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("checking story directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	for _, id := range order {
		if err := storage.ValidateIdentifier("story", id); err != nil {
			return nil, err
		}
	}

	return &Store{
		dir:     dir,
		order:   order,
		stories: map[string]*Story{},
	}, nil
}

// Order returns the configured story ids in play order.
func (s *Store) Order() []string {
	return append([]string(nil), s.order...)
}

// Story returns the story with the given id, loading it on first use.
func (s *Store) Story(id string) (*Story, error) {
	s.mu.RLock()
	st, ok := s.stories[id]
	s.mu.RUnlock()
	if ok {
		return st, nil
	}

	if err := storage.ValidateIdentifier("story", id); err != nil {
		return nil, err
	}

	st, err := s.load(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another caller may have loaded it while we were reading the file.
	if existing, ok := s.stories[id]; ok {
		return existing, nil
	}
	s.stories[id] = st
	return st, nil
}

func (s *Store) load(id string) (*Story, error) {
	path := filepath.Join(s.dir, id+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading story %q: %w", id, err)
	}

	var st Story
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parsing story %q: %w", id, err)
	}
	st.ID = id

	if err := st.validate(); err != nil {
		return nil, fmt.Errorf("validating story %q: %w", id, err)
	}

	slog.Debug("loaded story", "story", id, "blocks", len(st.Blocks))
	return &st, nil
}

// lookup is Story for the degrade-on-missing paths: failures are logged and
// reported as nil.
func (s *Store) lookup(id string) *Story {
	st, err := s.Story(id)
	if err != nil {
		slog.Warn("story unavailable", "story", id, "error", err)
		return nil
	}
	return st
}

// Block returns a block by id, or nil when the story or block is missing.
func (s *Store) Block(storyID string, blockID string) *Block {
	st := s.lookup(storyID)
	if st == nil {
		return nil
	}
	i := st.IndexOf(blockID)
	if i < 0 {
		return nil
	}
	return st.Blocks[i]
}

// Locate finds a block in the first of the given stories that contains it. With
// no story ids the configured order is searched.
func (s *Store) Locate(blockID string, storyIDs ...string) (Location, bool) {
	if len(storyIDs) == 0 {
		storyIDs = s.order
	}
	for _, id := range storyIDs {
		st := s.lookup(id)
		if st == nil {
			continue
		}
		if i := st.IndexOf(blockID); i >= 0 {
			return Location{StoryID: id, Index: i, Block: st.Blocks[i]}, true
		}
	}
	return Location{}, false
}

// BlocksByType returns the blocks of a story whose type is one of types.
func (s *Store) BlocksByType(storyID string, types ...BlockType) []*Block {
	st := s.lookup(storyID)
	if st == nil {
		return nil
	}

	want := make(map[BlockType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}

	var out []*Block
	for _, b := range st.Blocks {
		if want[b.Type] {
			out = append(out, b)
		}
	}
	return out
}

// Range returns blocks from fromID (inclusive) up to toID (exclusive). An empty
// fromID starts at the beginning and an empty or unknown toID runs to the end.
func (s *Store) Range(storyID string, fromID string, toID string) []*Block {
	st := s.lookup(storyID)
	if st == nil {
		return nil
	}

	start := 0
	if fromID != "" {
		start = st.IndexOf(fromID)
		if start < 0 {
			return nil
		}
	}
	end := len(st.Blocks)
	if toID != "" {
		if i := st.IndexOf(toID); i >= start {
			end = i
		}
	}
	return st.Blocks[start:end]
}

// Before walks the stories in order and returns every block that precedes
// blockID. The block itself is excluded. An empty blockID, or one that is in none
// of the stories, yields every block of every story.
func (s *Store) Before(storyIDs []string, blockID string) []Entry {
	var out []Entry
	for _, id := range storyIDs {
		st := s.lookup(id)
		if st == nil {
			continue
		}
		for _, b := range st.Blocks {
			if blockID != "" && b.ID == blockID {
				return out
			}
			out = append(out, Entry{StoryID: id, Block: b})
		}
	}
	return out
}

// Passage returns the blocks of the passage containing blockID, from the last
// scene header before it up to the block itself (exclusive).
func (s *Store) Passage(storyID string, blockID string) []*Block {
	st := s.lookup(storyID)
	if st == nil {
		return nil
	}
	end := st.IndexOf(blockID)
	if end < 0 {
		return nil
	}

	start := 0
	for i := end - 1; i >= 0; i-- {
		if st.Blocks[i].Type == BlockSceneHeader {
			start = i
			break
		}
	}
	return st.Blocks[start:end]
}

// Station returns the 1-based position of a story in play order. Stories not in
// the configured order fall back to their numeric id, then to the slot after the
// last configured story.
func (s *Store) Station(storyID string) int {
	for i, id := range s.order {
		if id == storyID {
			return i + 1
		}
	}
	if n, err := strconv.Atoi(storyID); err == nil && n > 0 {
		return n
	}
	return len(s.order) + 1
}

// Reload drops every cached story so the next access re-reads it from disk.
func (s *Store) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stories = map[string]*Story{}
}

// Tick reloads the stories. It lets the store be driven by the maintenance scheduler.
func (s *Store) Tick(ctx context.Context) error {
	s.Reload()
	slog.DebugContext(ctx, "story cache cleared")
	return nil
}
