package bib

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"
)

// Bibliography database loading. The database is the already-parsed form of
// the bibliography sources: a flat list of entry records in YAML.

type database struct {
	Entries []Entry `yaml:"entries"`
}

// LoadDatabase reads a bibliography database, formats every record and
// returns the populated entry registry.
func LoadDatabase(r io.Reader, f Formatter, log *zap.Logger) (*EntryRegistry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var db database
	if err := dec.Decode(&db); err != nil {
		return nil, fmt.Errorf("unable to decode bibliography database: %w", err)
	}

	reg := NewEntryRegistry()
	for i := range db.Entries {
		fe, err := f.Format(&db.Entries[i])
		if err != nil {
			return nil, fmt.Errorf("unable to format entry %d (%q): %w", i, db.Entries[i].Key, err)
		}
		if err := reg.Add(fe); err != nil {
			return nil, err
		}
		log.Debug("Registered bibliography entry", zap.String("key", fe.Key), zap.String("label", fe.Label))
	}
	log.Info("Bibliography database loaded", zap.Int("entries", reg.Len()))
	return reg, nil
}
