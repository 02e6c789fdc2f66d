package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/silodex/silodex/internal/db"
)

// Replace deletes delKeys and writes sets inside a single MULTI/EXEC block.
// Concurrent readers observe either the old document set or the new one.
func (s *Store) Replace(ctx context.Context, delKeys []string, sets []db.HashSetItem) error {
	if len(delKeys) == 0 && len(sets) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, 0, len(sets)+3)
	cmds = append(cmds, s.b().Multi().Build())
	if len(delKeys) > 0 {
		cmds = append(cmds, s.b().Del().Key(delKeys...).Build())
	}
	for _, item := range sets {
		cmd := s.b().Hset().Key(item.Key).FieldValue()
		for k, v := range item.Fields {
			cmd = cmd.FieldValue(k, v)
		}
		cmds = append(cmds, cmd.Build())
	}
	cmds = append(cmds, s.b().Exec().Build())

	results := s.client.DoMulti(ctx, cmds...)
	for _, res := range results {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpReplace, Err: err}
		}
	}

	// EXEC returns the queued command replies; a nil reply means the
	// transaction was aborted.
	exec := results[len(results)-1]
	arr, err := exec.ToArray()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return &db.Error{Op: db.OpReplace, Err: errors.New("transaction aborted")}
		}
		return &db.Error{Op: db.OpReplace, Err: err}
	}
	for i, msg := range arr {
		if err := msg.Error(); err != nil {
			return &db.Error{Op: db.OpReplace, Err: fmt.Errorf("command %d: %w", i, err)}
		}
	}

	return nil
}
