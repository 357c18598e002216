package metastore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/danthegoodman1/splitread/part"
	"github.com/danthegoodman1/splitread/utils"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

const partsKey = "parts"

type (
	RedisMetaStore struct {
		client *redis.Client
	}
)

func NewRedisMetaStore(ctx context.Context) (*RedisMetaStore, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Msg("connecting to redis metastore")
	rms := &RedisMetaStore{
		client: redis.NewClient(&redis.Options{
			Addr:        utils.REDIS_ADDR,
			Password:    utils.REDIS_PASSWORD,
			DB:          0,
			DialTimeout: time.Second * 3,
		}),
	}

	// Ping test first to ensure valid connection
	if os.Getenv("REDIS_PING_TEST") == "1" {
		logger.Debug().Msg("running redis ping test")
		s := time.Now()
		_, err := rms.client.Ping(ctx).Result()
		if err != nil {
			rms.client.Close()
			return nil, fmt.Errorf("error pinging redis: %w", err)
		}
		logger.Debug().Msgf("redis ping test successful in %s", time.Since(s))
	}

	return rms, nil
}

func (rms *RedisMetaStore) PartKey(partID string) string {
	return "part_" + partID
}

func (rms *RedisMetaStore) GetPart(ctx context.Context, id string) (part.Part, []part.ColumnMark, error) {
	p := part.Part{}
	rawJSON, err := rms.client.HGet(ctx, partsKey, id).Result()
	if errors.Is(err, redis.Nil) {
		return p, nil, fmt.Errorf("%w: %s", ErrPartNotFound, id)
	}
	if err != nil {
		return p, nil, fmt.Errorf("error in redis HGET: %w", err)
	}
	if err = json.Unmarshal([]byte(rawJSON), &p); err != nil {
		return p, nil, fmt.Errorf("error in json.Unmarshal: %w", err)
	}

	rawMarks, err := rms.client.HGetAll(ctx, rms.PartKey(id)).Result()
	if err != nil {
		return p, nil, fmt.Errorf("error in redis HGETALL: %w", err)
	}
	marks := make([]part.ColumnMark, 0, len(rawMarks))
	for name, rawMark := range rawMarks {
		mark := part.ColumnMark{}
		if err = json.Unmarshal([]byte(rawMark), &mark); err != nil {
			return p, nil, fmt.Errorf("error unmarshalling column mark '%s' of part '%s': %w", name, id, err)
		}
		marks = append(marks, mark)
	}
	// hash order is random, so restore the column order of the export
	sort.Slice(marks, func(i, j int) bool { return marks[i].Position < marks[j].Position })
	return p, marks, nil
}

func (rms *RedisMetaStore) ListParts(ctx context.Context, filters ...FilterOption) ([]part.Part, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Msgf("listing parts with filter options %+v", filters)

	var cursorPos uint64 = 0
	parts := make([]part.Part, 0)

	// Loop until we have all the results
	for {
		logger.Debug().Msgf("running redis HSCAN with cursor %d", cursorPos)
		rawParts, newCursor, err := rms.client.HScan(ctx, partsKey, cursorPos, "", 0).Result()
		if err != nil {
			return nil, fmt.Errorf("error in redis HSCAN: %w", err)
		}

	AllParts:
		// HSCAN replies with flat field, value pairs
		for i := 0; i+1 < len(rawParts); i += 2 {
			partID, rawJSON := rawParts[i], rawParts[i+1]
			p := part.Part{}
			err = json.Unmarshal([]byte(rawJSON), &p)
			if err != nil {
				return nil, fmt.Errorf("error unmarshalling part ID '%s': %w", partID, err)
			}
			if !p.Alive {
				continue
			}

			// Verify against filter options
			for _, filter := range filters {
				if !PassFilterOption(p.ID, filter) {
					// If any fail, we skip this part
					continue AllParts
				}
			}
			parts = append(parts, p)
		}

		if newCursor == 0 {
			break
		}
		cursorPos = newCursor
	}

	sort.Slice(parts, func(i, j int) bool { return parts[i].ID < parts[j].ID })
	return parts, nil
}

func (rms *RedisMetaStore) CreatePart(ctx context.Context, p part.Part, colMarks []part.ColumnMark) error {
	pipe := rms.client.TxPipeline()

	partJSON, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("error json.Marshal(part): %w", err)
	}

	// Insert part
	pipe.HSet(ctx, partsKey, p.ID, string(partJSON))

	if len(colMarks) > 0 {
		// Build a single HSet of all column marks
		colMarksHash := make([]any, 0, len(colMarks)*2)
		for _, colMark := range colMarks {
			jsonBytes, err := json.Marshal(colMark)
			if err != nil {
				return fmt.Errorf("error in json.Marshal(colMark): %w", err)
			}
			colMarksHash = append(colMarksHash, colMark.ColumnName, string(jsonBytes))
		}

		// Insert column marks
		pipe.HSet(ctx, rms.PartKey(p.ID), colMarksHash...)
	}

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("error in redis pipeline exec: %w", err)
	}

	return nil
}

func (rms *RedisMetaStore) Shutdown(_ context.Context) error {
	err := rms.client.Close()
	if err != nil {
		return fmt.Errorf("error closing redis client: %w", err)
	}
	return nil
}
