package puzzle

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"
)

// Source loads a puzzle collection. Implementations are expected to be cheap
// enough to call once per process start; callers cache the result.
type Source interface {
	Load(ctx context.Context) ([]Puzzle, error)
}

type FileSource struct {
	path   string
	logger *zap.Logger
}

func NewFileSource(path string, logger *zap.Logger) *FileSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSource{path: path, logger: logger}
}

func (s *FileSource) Load(ctx context.Context) ([]Puzzle, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read puzzle file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(s.path))
	if ext == ".yaml" || ext == ".yml" {
		return decodeCollection(raw, yaml.Unmarshal, s.logger)
	}
	return decodeCollection(raw, json.Unmarshal, s.logger)
}

// decodeCollection parses a collection and drops records that fail
// validation. A collection where every record is broken is an error; a few
// bad records are only worth a warning.
func decodeCollection(raw []byte, unmarshal func([]byte, any) error, logger *zap.Logger) ([]Puzzle, error) {
	var recs []record
	if err := unmarshal(raw, &recs); err != nil {
		var wrapped collection
		if werr := unmarshal(raw, &wrapped); werr != nil {
			return nil, fmt.Errorf("decode puzzle collection: %w", err)
		}
		recs = wrapped.Puzzles
	}

	puzzles := make([]Puzzle, 0, len(recs))
	for i, r := range recs {
		p, err := fromRecord(r)
		if err != nil {
			logger.Warn("dropping invalid puzzle record",
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		puzzles = append(puzzles, p)
	}
	if len(puzzles) == 0 {
		return nil, ErrEmptyCollection
	}
	return puzzles, nil
}
