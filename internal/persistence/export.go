package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Backup is the content of an export file.
type Backup struct {
	ExportedAt time.Time  `json:"exported_at"`
	Save       string     `json:"save,omitempty"`
	Snapshots  []Snapshot `json:"snapshots"`
}

// Export writes the current save and every snapshot to w as
// zstd-compressed JSON.
func (db *DB) Export(w io.Writer) error {
	b := Backup{ExportedAt: time.Now().UTC()}

	save, err := db.Get(SaveKey)
	switch {
	case err == nil:
		b.Save = save
	case !errors.Is(err, ErrNotFound):
		return fmt.Errorf("export: %w", err)
	}
	if b.Snapshots, err = db.allSnapshots(); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if err := json.NewEncoder(enc).Encode(b); err != nil {
		enc.Close()
		return fmt.Errorf("export encode: %w", err)
	}
	return enc.Close()
}

// ReadBackup decodes an export written by Export.
func ReadBackup(r io.Reader) (Backup, error) {
	var b Backup
	dec, err := zstd.NewReader(r)
	if err != nil {
		return b, err
	}
	defer dec.Close()

	if err := json.NewDecoder(dec).Decode(&b); err != nil {
		return b, fmt.Errorf("backup decode: %w", err)
	}
	return b, nil
}

// Import restores a backup: the save is written under SaveKey and snapshots
// missing from this database are added with their original IDs.
func (db *DB) Import(b Backup) (int, error) {
	if b.Save != "" {
		if err := db.Put(SaveKey, b.Save); err != nil {
			return 0, fmt.Errorf("import save: %w", err)
		}
	}
	added := 0
	for _, s := range b.Snapshots {
		res, err := db.conn.Exec(
			"INSERT OR IGNORE INTO snapshots (id, label, created_at, data) VALUES (?, ?, ?, ?)",
			s.ID, s.Label, s.CreatedAt.UnixNano(), s.Data,
		)
		if err != nil {
			return added, fmt.Errorf("import snapshot %s: %w", s.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}
	return added, nil
}
