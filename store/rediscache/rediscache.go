/*
Package rediscache provides a Redis-backed month-summary cache.

PURPOSE:
  Implements ledger.SummaryCache over Redis. Month summaries are the
  read-heavy surface of the engine (a calendar view fetches them on every
  render) while writes are comparatively rare, so caching a month's rows
  as one JSON blob and dropping it whenever a write touches that month is
  a good trade.

KEYS:
  summary:{userID}:{yyyy-mm} -> JSON array of day rows, with a TTL as a
  backstop against missed invalidations.

FAILURE POLICY:
  The cache is best-effort. Connection or codec failures degrade to a miss;
  they never fail the request. The engine runs identically with
  ledger.NopCache when no Redis is configured.
*/
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/warp/savings-engine/ledger"
)

// DefaultTTL bounds how long a stale month can survive a missed invalidation.
const DefaultTTL = 15 * time.Minute

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis at the given URL (redis://host:port or plain
// host:port) and verifies the connection.
func New(ctx context.Context, redisURL string) (*Cache, error) {
	client := redis.NewClient(parseOptions(redisURL))

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Cache{client: client, ttl: DefaultTTL}, nil
}

// parseOptions accepts either a full URL (redis://, rediss://) or a bare
// host:port address. A scheme is only added when the input lacks one.
func parseOptions(redisURL string) *redis.Options {
	u := redisURL
	if !strings.Contains(u, "://") {
		u = "redis://" + u
	}
	opt, err := redis.ParseURL(u)
	if err != nil {
		// Last resort: treat the raw input as a plain address.
		return &redis.Options{Addr: redisURL}
	}
	return opt
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func monthKey(userID ledger.UserID, ym ledger.YearMonth) string {
	return fmt.Sprintf("summary:%s:%s", userID, ym)
}

// cachedRow is the wire form of a DaySummary. Amounts travel as decimal
// strings so precision survives the round-trip.
type cachedRow struct {
	UserID    string    `json:"userId"`
	Date      string    `json:"date"`
	Income    string    `json:"income"`
	Expenses  string    `json:"expenses"`
	Savings   string    `json:"savings"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *Cache) GetMonth(ctx context.Context, userID ledger.UserID, ym ledger.YearMonth) ([]ledger.DaySummary, bool) {
	raw, err := c.client.Get(ctx, monthKey(userID, ym)).Bytes()
	if err != nil {
		return nil, false
	}

	var cached []cachedRow
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false
	}

	rows := make([]ledger.DaySummary, 0, len(cached))
	for _, r := range cached {
		date, err := ledger.ParseDate(r.Date)
		if err != nil {
			return nil, false
		}
		income, err1 := decimal.NewFromString(r.Income)
		expenses, err2 := decimal.NewFromString(r.Expenses)
		savings, err3 := decimal.NewFromString(r.Savings)
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, false
		}
		rows = append(rows, ledger.DaySummary{
			UserID:    ledger.UserID(r.UserID),
			Date:      date,
			Income:    income,
			Expenses:  expenses,
			Savings:   savings,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		})
	}
	return rows, true
}

func (c *Cache) SetMonth(ctx context.Context, userID ledger.UserID, ym ledger.YearMonth, rows []ledger.DaySummary) {
	cached := make([]cachedRow, 0, len(rows))
	for _, s := range rows {
		cached = append(cached, cachedRow{
			UserID:    string(s.UserID),
			Date:      s.Date.String(),
			Income:    s.Income.String(),
			Expenses:  s.Expenses.String(),
			Savings:   s.Savings.String(),
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		})
	}

	raw, err := json.Marshal(cached)
	if err != nil {
		return
	}
	c.client.Set(ctx, monthKey(userID, ym), raw, c.ttl)
}

func (c *Cache) Invalidate(ctx context.Context, userID ledger.UserID, ym ledger.YearMonth) {
	c.client.Del(ctx, monthKey(userID, ym))
}
