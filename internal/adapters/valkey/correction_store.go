package valkey

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/valkey-io/valkey-go"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
)

const (
	correctionPrefix = "alignment:"
	correctionIndex  = "alignment:__keys__"
)

// CorrectionStore implements ports.CorrectionStore. Each record is a JSON
// string at alignment:<key>; a set tracks the keys for listing.
type CorrectionStore struct {
	client valkey.Client
}

// NewCorrectionStore creates a store on an existing client.
func NewCorrectionStore(client valkey.Client) *CorrectionStore {
	return &CorrectionStore{client: client}
}

// Get returns the record at key or domain.ErrNotFound.
func (s *CorrectionStore) Get(ctx context.Context, key string) (domain.AlignmentCorrection, error) {
	b, err := s.client.Do(ctx, s.client.B().Get().Key(correctionPrefix+key).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return domain.AlignmentCorrection{}, fmt.Errorf("correction %q: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return domain.AlignmentCorrection{}, err
	}
	return domain.DecodeCorrection(b)
}

// Set writes the record and indexes its key.
func (s *CorrectionStore) Set(ctx context.Context, key string, rec domain.AlignmentCorrection) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode correction: %w", err)
	}
	for _, r := range s.client.DoMulti(ctx,
		s.client.B().Set().Key(correctionPrefix+key).Value(valkey.BinaryString(data)).Build(),
		s.client.B().Sadd().Key(correctionIndex).Member(key).Build(),
	) {
		if err := r.Error(); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the record and its index entry.
func (s *CorrectionStore) Delete(ctx context.Context, key string) error {
	for _, r := range s.client.DoMulti(ctx,
		s.client.B().Del().Key(correctionPrefix+key).Build(),
		s.client.B().Srem().Key(correctionIndex).Member(key).Build(),
	) {
		if err := r.Error(); err != nil {
			return err
		}
	}
	return nil
}

// List returns every indexed record. Keys whose value vanished or does not
// decode are skipped.
func (s *CorrectionStore) List(ctx context.Context) (map[string]domain.AlignmentCorrection, error) {
	keys, err := s.client.Do(ctx, s.client.B().Smembers().Key(correctionIndex).Build()).AsStrSlice()
	if err != nil {
		return nil, fmt.Errorf("list correction keys: %w", err)
	}
	out := make(map[string]domain.AlignmentCorrection, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	cmds := make(valkey.Commands, 0, len(keys))
	for _, k := range keys {
		cmds = append(cmds, s.client.B().Get().Key(correctionPrefix+k).Build())
	}
	for i, r := range s.client.DoMulti(ctx, cmds...) {
		b, err := r.AsBytes()
		if valkey.IsValkeyNil(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read correction %q: %w", keys[i], err)
		}
		rec, err := domain.DecodeCorrection(b)
		if err != nil {
			slog.Warn("skipping undecodable correction", "key", keys[i], "error", err)
			continue
		}
		out[keys[i]] = rec
	}
	return out, nil
}
