package mystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	redisConnectAttempts = 5
	redisPingTimeout     = 5 * time.Second
)

// redisStore keeps every value as a JSON document under its uid. Transactions use
// optimistic locking: keys read inside a transaction are watched and the queued writes
// are only executed when none of them changed in the meantime.
type redisStore[T any] struct {
	client *redis.Client
}

type redisTransaction struct {
	tx     *redis.Tx
	writes []func(pipe redis.Pipeliner)
}

func newRedisStore[T any](c context.Context, redisAddr string) (*redisStore[T], func(), error) {
	opts, err := redis.ParseURL(redisAddr)
	if err != nil {
		// plain "hostname:port"
		if !strings.Contains(redisAddr, ":") {
			redisAddr = redisAddr + ":6379"
		}
		opts = &redis.Options{
			Addr:         redisAddr,
			MinIdleConns: 1,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     4,
		}
	}

	client := redis.NewClient(opts)
	cleanup := func() {
		client.Close()
	}

	err = waitForRedis(c, client)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return &redisStore[T]{
		client: client,
	}, cleanup, nil
}

func waitForRedis(c context.Context, client *redis.Client) error {
	var err error
	for i := 0; i < redisConnectAttempts; i++ {
		pingCtx, cancel := context.WithTimeout(c, redisPingTimeout)
		err = client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			return nil
		}

		backoff := time.Duration(100*(1<<uint(i))) * time.Millisecond
		log.Printf("Redis not reachable (attempt %d of %d), retrying in %v: %s", i+1, redisConnectAttempts, backoff, err)

		select {
		case <-c.Done():
			return c.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("error connecting to redis after %d attempts: %w", redisConnectAttempts, err)
}

func (s *redisStore[T]) RunInTransaction(c context.Context, f func(c context.Context) error) error {
	var err error
	for i := 1; i <= maxTransactionAttempts; i++ {
		err = s.client.Watch(c, func(tx *redis.Tx) error {
			txn := &redisTransaction{tx: tx}

			err := f(context.WithValue(c, ctxTransactionKey{}, txn))
			if err != nil {
				return err
			}
			if len(txn.writes) == 0 {
				return nil
			}

			_, err = tx.TxPipelined(c, func(pipe redis.Pipeliner) error {
				for _, write := range txn.writes {
					write(pipe)
				}
				return nil
			})
			return err
		})
		if errors.Is(err, redis.TxFailedErr) {
			log.Printf("Watched key changed, retrying transaction (%d of %d)", i, maxTransactionAttempts)
			// force retry: this approach requires idempotency of the business logic
			continue
		}
		return err
	}
	return err
}

// Writes inside a transaction are queued and become visible on commit
func (s *redisStore[T]) Put(c context.Context, uid string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("error marshalling value with uid %s: %w", uid, err)
	}

	txn, ok := c.Value(ctxTransactionKey{}).(*redisTransaction)
	if ok {
		txn.writes = append(txn.writes, func(pipe redis.Pipeliner) {
			pipe.Set(c, uid, data, 0)
		})
		return nil
	}

	err = s.client.Set(c, uid, data, 0).Err()
	if err != nil {
		return fmt.Errorf("error storing value with uid %s: %w", uid, err)
	}

	return nil
}

func (s *redisStore[T]) Get(c context.Context, uid string) (T, bool, error) {
	var value T

	var cmd *redis.StringCmd
	txn, ok := c.Value(ctxTransactionKey{}).(*redisTransaction)
	if ok {
		err := txn.tx.Watch(c, uid).Err()
		if err != nil {
			return value, false, fmt.Errorf("error watching value with uid %s: %w", uid, err)
		}
		cmd = txn.tx.Get(c, uid)
	} else {
		cmd = s.client.Get(c, uid)
	}

	data, err := cmd.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return value, false, nil
		}
		return value, false, fmt.Errorf("error fetching value with uid %s: %w", uid, err)
	}

	err = json.Unmarshal(data, &value)
	if err != nil {
		return value, false, fmt.Errorf("error unmarshalling value with uid %s: %w", uid, err)
	}

	return value, true, nil
}
