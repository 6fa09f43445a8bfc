package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jmarq76/beerstock/internal/core/domain"
	"github.com/jmarq76/beerstock/internal/port"
)

const (
	beerKeyPrefix     = "beer:"
	beerNameKeyPrefix = "beer:name:"
	beerSequenceKey   = "beer:seq"
	beerIndexKey      = "beers"
	movementKeyPrefix = "movements:"
)

// KEYS: beer hash, name index, id index. ARGV: id, name, brand, type, max, quantity, now.
var insertBeerScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[2]) == 1 then
	return 0
end

redis.call('HSET', KEYS[1],
	'id', ARGV[1],
	'name', ARGV[2],
	'brand', ARGV[3],
	'type', ARGV[4],
	'max', ARGV[5],
	'quantity', ARGV[6],
	'version', 1,
	'created_at', ARGV[7],
	'updated_at', ARGV[7])
redis.call('SET', KEYS[2], ARGV[1])
redis.call('ZADD', KEYS[3], ARGV[1], ARGV[1])
return 1
`)

// KEYS: beer hash. ARGV: expected version, brand, type, max, quantity, now.
var updateBeerScript = redis.NewScript(`
local version = redis.call('HGET', KEYS[1], 'version')
if not version or tonumber(version) ~= tonumber(ARGV[1]) then
	return 0
end

redis.call('HSET', KEYS[1],
	'brand', ARGV[2],
	'type', ARGV[3],
	'max', ARGV[4],
	'quantity', ARGV[5],
	'updated_at', ARGV[6])
return redis.call('HINCRBY', KEYS[1], 'version', 1)
`)

// KEYS: beer hash, name index, id index, movement list. ARGV: id, name.
var deleteBeerScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'name') ~= ARGV[2] then
	return 0
end

redis.call('DEL', KEYS[1], KEYS[2], KEYS[4])
redis.call('ZREM', KEYS[3], ARGV[1])
return 1
`)

// KEYS: beer hash, movement list. ARGV: movement json.
var appendMovementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return 0
end

redis.call('LPUSH', KEYS[2], ARGV[1])
return 1
`)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func beerKey(id int64) string {
	return beerKeyPrefix + strconv.FormatInt(id, 10)
}

func movementKey(beerID int64) string {
	return movementKeyPrefix + strconv.FormatInt(beerID, 10)
}

func (r *RedisAdapter) FindByName(ctx context.Context, name string) (*domain.Beer, error) {
	id, err := r.client.Get(ctx, beerNameKeyPrefix+name).Int64()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get beer name index: %w", err)
	}
	return r.FindByID(ctx, id)
}

func (r *RedisAdapter) FindByID(ctx context.Context, id int64) (*domain.Beer, error) {
	fields, err := r.client.HGetAll(ctx, beerKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get beer: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	beer, err := parseBeerHash(fields)
	if err != nil {
		return nil, err
	}
	return &beer, nil
}

func (r *RedisAdapter) FindAll(ctx context.Context) ([]domain.Beer, error) {
	ids, err := r.client.ZRange(ctx, beerIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list beer ids: %w", err)
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, pipe.HGetAll(ctx, beerKeyPrefix+id))
	}
	if len(cmds) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("get beers: %w", err)
		}
	}

	beers := make([]domain.Beer, 0, len(cmds))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		beer, err := parseBeerHash(fields)
		if err != nil {
			return nil, err
		}
		beers = append(beers, beer)
	}
	return beers, nil
}

func (r *RedisAdapter) Save(ctx context.Context, beer domain.Beer) (domain.Beer, error) {
	now := time.Now().UTC()
	stamp := now.Format(time.RFC3339Nano)

	if beer.ID == 0 {
		// ids burnt by a rejected duplicate leave harmless gaps
		id, err := r.client.Incr(ctx, beerSequenceKey).Result()
		if err != nil {
			return domain.Beer{}, fmt.Errorf("next beer id: %w", err)
		}

		inserted, err := insertBeerScript.Run(ctx, r.client,
			[]string{beerKey(id), beerNameKeyPrefix + beer.Name, beerIndexKey},
			id, beer.Name, beer.Brand, string(beer.Type), beer.Max, beer.Quantity, stamp,
		).Int()
		if err != nil {
			return domain.Beer{}, fmt.Errorf("insert beer: %w", err)
		}
		if inserted == 0 {
			return domain.Beer{}, port.ErrDuplicateName
		}

		beer.ID = id
		beer.Version = 1
		beer.CreatedAt = now
		beer.UpdatedAt = now
		return beer, nil
	}

	version, err := updateBeerScript.Run(ctx, r.client,
		[]string{beerKey(beer.ID)},
		beer.Version, beer.Brand, string(beer.Type), beer.Max, beer.Quantity, stamp,
	).Int()
	if err != nil {
		return domain.Beer{}, fmt.Errorf("update beer: %w", err)
	}
	if version == 0 {
		return domain.Beer{}, port.ErrOptimisticLock
	}

	beer.Version = version
	beer.UpdatedAt = now
	return beer, nil
}

func (r *RedisAdapter) DeleteByID(ctx context.Context, id int64) error {
	name, err := r.client.HGet(ctx, beerKey(id), "name").Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get beer name: %w", err)
	}

	err = deleteBeerScript.Run(ctx, r.client,
		[]string{beerKey(id), beerNameKeyPrefix + name, beerIndexKey, movementKey(id)},
		id, name,
	).Err()
	if err != nil {
		return fmt.Errorf("delete beer: %w", err)
	}
	return nil
}

func (r *RedisAdapter) Append(ctx context.Context, movement domain.Movement) error {
	payload, err := json.Marshal(movement)
	if err != nil {
		return fmt.Errorf("marshal movement: %w", err)
	}

	pushed, err := appendMovementScript.Run(ctx, r.client,
		[]string{beerKey(movement.BeerID), movementKey(movement.BeerID)},
		payload,
	).Int()
	if err != nil {
		return fmt.Errorf("push movement: %w", err)
	}
	if pushed == 0 {
		return port.ErrUnknownBeer
	}
	return nil
}

func (r *RedisAdapter) ListByBeer(ctx context.Context, beerID int64) ([]domain.Movement, error) {
	items, err := r.client.LRange(ctx, movementKey(beerID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}

	movements := make([]domain.Movement, 0, len(items))
	for _, item := range items {
		var mv domain.Movement
		if err := json.Unmarshal([]byte(item), &mv); err != nil {
			return nil, fmt.Errorf("unmarshal movement: %w", err)
		}
		movements = append(movements, mv)
	}
	return movements, nil
}

func parseBeerHash(fields map[string]string) (domain.Beer, error) {
	var (
		beer domain.Beer
		err  error
	)

	if beer.ID, err = strconv.ParseInt(fields["id"], 10, 64); err != nil {
		return domain.Beer{}, fmt.Errorf("parse beer id: %w", err)
	}
	if beer.Max, err = strconv.Atoi(fields["max"]); err != nil {
		return domain.Beer{}, fmt.Errorf("parse beer max: %w", err)
	}
	if beer.Quantity, err = strconv.Atoi(fields["quantity"]); err != nil {
		return domain.Beer{}, fmt.Errorf("parse beer quantity: %w", err)
	}
	if beer.Version, err = strconv.Atoi(fields["version"]); err != nil {
		return domain.Beer{}, fmt.Errorf("parse beer version: %w", err)
	}
	if beer.CreatedAt, err = time.Parse(time.RFC3339Nano, fields["created_at"]); err != nil {
		return domain.Beer{}, fmt.Errorf("parse beer created_at: %w", err)
	}
	if beer.UpdatedAt, err = time.Parse(time.RFC3339Nano, fields["updated_at"]); err != nil {
		return domain.Beer{}, fmt.Errorf("parse beer updated_at: %w", err)
	}

	beer.Name = fields["name"]
	beer.Brand = fields["brand"]
	beer.Type = domain.BeerType(fields["type"])
	return beer, nil
}
