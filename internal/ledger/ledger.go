package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pixil98/go-storyweave/internal/storage"
)

const archiveLabelFormat = "20060102-150405"

var (
	ErrChoiceRecorded  = errors.New("a different choice is already recorded for this block")
	ErrContentRecorded = errors.New("dynamic content is already recorded for this block")
	ErrInvalidChoice   = errors.New("invalid choice")
	ErrNoArchiver      = errors.New("document store does not support archives")
)

// Ledger records player choices and generated content in a shared document.
// Every read-modify-write runs under one mutex so concurrent requests cannot
// drop each other's writes.
type Ledger struct {
	store storage.DocumentStore
	now   func() time.Time

	mu sync.Mutex
}

func New(store storage.DocumentStore, opts ...LedgerOpt) *Ledger {
	l := &Ledger{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// read decodes the document. A document that was never written reads as an
// empty database.
func (l *Ledger) read(ctx context.Context) (*Database, error) {
	data, err := l.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return newDatabase(l.now()), nil
	}

	var db Database
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("decoding database: %w", err)
	}
	if db.Players == nil {
		db.Players = map[string]*Player{}
	}
	if db.Blocks == nil {
		db.Blocks = []json.RawMessage{}
	}
	return &db, nil
}

// load is read for query paths: failures are logged and replaced with an
// empty database.
func (l *Ledger) load(ctx context.Context) *Database {
	db, err := l.read(ctx)
	if err != nil {
		slog.WarnContext(ctx, "reading ledger failed, using empty database", "error", err)
		return newDatabase(l.now())
	}
	return db
}

func (l *Ledger) write(ctx context.Context, db *Database) error {
	data, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding database: %w", err)
	}
	if err := l.store.Write(ctx, data); err != nil {
		return fmt.Errorf("writing database: %w", err)
	}
	return nil
}

// update runs fn against the current document and writes the result. A failed
// read aborts the update rather than overwriting the document with an empty one.
func (l *Ledger) update(ctx context.Context, fn func(db *Database) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	db, err := l.read(ctx)
	if err != nil {
		return fmt.Errorf("reading database: %w", err)
	}
	if err := fn(db); err != nil {
		return err
	}
	return l.write(ctx, db)
}

// Snapshot returns a decoded copy of the whole document.
func (l *Ledger) Snapshot(ctx context.Context) *Database {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

// Player returns the record of one player, if any.
func (l *Ledger) Player(ctx context.Context, playerID string) (*Player, bool) {
	p, ok := l.Snapshot(ctx).Players[playerID]
	if !ok || p == nil {
		return nil, false
	}
	return p, true
}

// Players returns every player ordered by id.
func (l *Ledger) Players(ctx context.Context) []*Player {
	db := l.Snapshot(ctx)

	out := make([]*Player, 0, len(db.Players))
	for id, p := range db.Players {
		if p == nil {
			continue
		}
		if p.ID == "" {
			p.ID = id
		}
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b *Player) int { return strings.Compare(a.ID, b.ID) })
	return out
}

func (l *Ledger) Choice(ctx context.Context, playerID string, blockID string) (*PlayerChoice, bool) {
	p, ok := l.Player(ctx, playerID)
	if !ok {
		return nil, false
	}
	c, ok := p.Choices[blockID]
	return c, ok && c != nil
}

func (l *Ledger) DynamicContent(ctx context.Context, playerID string, blockID string) (*DynamicContent, bool) {
	p, ok := l.Player(ctx, playerID)
	if !ok {
		return nil, false
	}
	dc, ok := p.DynamicContent[blockID]
	return dc, ok && dc != nil
}

// RecordChoice stores a player's choice for a block. The first recorded choice
// wins: recording the same choice again is a no-op, and a different one fails
// with ErrChoiceRecorded. The stored choice is returned.
func (l *Ledger) RecordChoice(ctx context.Context, playerID string, choice PlayerChoice) (*PlayerChoice, error) {
	if playerID == "" {
		return nil, fmt.Errorf("%w: player id must be set", ErrInvalidChoice)
	}
	if err := normalizeChoice(&choice); err != nil {
		return nil, err
	}
	choice.Timestamp = l.now()

	var stored *PlayerChoice
	err := l.update(ctx, func(db *Database) error {
		p := db.player(playerID)
		if existing, ok := p.Choices[choice.BlockID]; ok && existing != nil {
			if !existing.sameAs(&choice) {
				return fmt.Errorf("block %q: %w", choice.BlockID, ErrChoiceRecorded)
			}
			stored = existing
			return nil
		}
		p.Choices[choice.BlockID] = &choice
		stored = &choice
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// normalizeChoice checks the chosen index against the options snapshot and
// fills the chosen text from it.
func normalizeChoice(c *PlayerChoice) error {
	if c.BlockID == "" {
		return fmt.Errorf("%w: block id must be set", ErrInvalidChoice)
	}
	if c.ChosenIndex == nil {
		if c.ChosenText == "" {
			return fmt.Errorf("%w: chosen index or text must be set", ErrInvalidChoice)
		}
		return nil
	}

	i := *c.ChosenIndex
	if i < 0 || i >= len(c.AvailableOptions) {
		return fmt.Errorf("%w: index %d outside %d options", ErrInvalidChoice, i, len(c.AvailableOptions))
	}
	c.ChosenText = c.AvailableOptions[i]
	return nil
}

// RecordDynamicContent stores generated content for a block. Content is
// written once; a second write fails with ErrContentRecorded.
func (l *Ledger) RecordDynamicContent(ctx context.Context, playerID string, dc DynamicContent) error {
	if playerID == "" || dc.BlockID == "" {
		return fmt.Errorf("player and block ids must be set")
	}
	dc.Timestamp = l.now()

	return l.update(ctx, func(db *Database) error {
		p := db.player(playerID)
		if _, ok := p.DynamicContent[dc.BlockID]; ok {
			return fmt.Errorf("block %q: %w", dc.BlockID, ErrContentRecorded)
		}
		p.DynamicContent[dc.BlockID] = &dc
		return nil
	})
}

func (l *Ledger) SetCodename(ctx context.Context, playerID string, codename string) error {
	if playerID == "" {
		return fmt.Errorf("player id must be set")
	}
	return l.update(ctx, func(db *Database) error {
		db.player(playerID).Codename = codename
		return nil
	})
}

// Archive copies the document to a labelled archive and starts a fresh one with
// no players. It requires a store that implements storage.Archiver.
func (l *Ledger) Archive(ctx context.Context, label string) error {
	archiver, ok := l.store.(storage.Archiver)
	if !ok {
		return ErrNoArchiver
	}

	return l.update(ctx, func(db *Database) error {
		data, err := json.MarshalIndent(db, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding archive: %w", err)
		}
		if err := archiver.WriteArchive(ctx, label, data); err != nil {
			return fmt.Errorf("writing archive %q: %w", label, err)
		}

		now := l.now()
		cleanup := db.Cleanup
		cleanup.LastArchive = now
		cleanup.Archives = append(cleanup.Archives, label)

		*db = *newDatabase(now)
		db.Cleanup = cleanup
		return nil
	})
}

// Tick archives the document when it holds any players. It is called by the
// maintenance scheduler.
func (l *Ledger) Tick(ctx context.Context) error {
	if len(l.Snapshot(ctx).Players) == 0 {
		return nil
	}

	label := l.now().UTC().Format(archiveLabelFormat)
	if err := l.Archive(ctx, label); err != nil {
		return fmt.Errorf("archiving ledger: %w", err)
	}
	slog.InfoContext(ctx, "ledger archived", "label", label)
	return nil
}
