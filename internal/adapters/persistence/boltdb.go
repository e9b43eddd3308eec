package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
)

const (
	PricesBucket = "prices"
	PairsBucket  = "pairs"

	DefaultDBPath = "./data/swap-engine.db"
)

// StoredPrice is the persisted form of one best-effort USD price.
type StoredPrice struct {
	Token     string  `json:"token"`
	USD       float64 `json:"usd"`
	UpdatedAt int64   `json:"updatedAt"`
}

// StoredPairSources remembers which sources last served a pair, so indicative
// data can be shown before the first live fan-out completes.
type StoredPairSources struct {
	Pair      string   `json:"pair"`
	SourceIDs []string `json:"sourceIds"`
	UpdatedAt int64    `json:"updatedAt"`
}

type Storage struct {
	db     *boltdb.BoltDatabase
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	os.MkdirAll(filepath.Dir(dbPath), 0755)

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	log.Info().Str("path", dbPath).Msg("[storage] opened database")

	return &Storage{db: db, dbPath: dbPath}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) SavePrice(token string, usd float64) error {
	stored := StoredPrice{Token: token, USD: usd, UpdatedAt: time.Now().Unix()}
	data, err := sonic.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal price: %w", err)
	}
	return s.db.Set(PricesBucket, []byte(token), data)
}

// LoadPrices returns every persisted price keyed by token ID. The cache is
// best-effort: corrupt entries are skipped, an empty bucket is not an error.
func (s *Storage) LoadPrices() (map[string]StoredPrice, error) {
	data, err := s.db.List(PricesBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list prices: %w", err)
	}

	prices := make(map[string]StoredPrice, len(data))
	for token, value := range data {
		var stored StoredPrice
		if err := sonic.Unmarshal(value, &stored); err != nil {
			log.Warn().Err(err).Str("token", token).Msg("[storage] skipping corrupt price entry")
			continue
		}
		prices[token] = stored
	}
	return prices, nil
}

// LoadPrice returns one persisted price and its timestamp. A missing entry
// returns (0, zero time, nil).
func (s *Storage) LoadPrice(token string) (float64, time.Time, error) {
	prices, err := s.LoadPrices()
	if err != nil {
		return 0, time.Time{}, err
	}
	stored, ok := prices[token]
	if !ok {
		return 0, time.Time{}, nil
	}
	return stored.USD, time.Unix(stored.UpdatedAt, 0), nil
}

func (s *Storage) SavePairSources(pair string, sourceIDs []string) error {
	stored := StoredPairSources{Pair: pair, SourceIDs: sourceIDs, UpdatedAt: time.Now().Unix()}
	data, err := sonic.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal pair sources: %w", err)
	}
	return s.db.Set(PairsBucket, []byte(pair), data)
}

func (s *Storage) LoadPairSources(pair string) ([]string, error) {
	data, err := s.db.List(PairsBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list pairs: %w", err)
	}
	value, ok := data[pair]
	if !ok {
		return nil, nil
	}
	var stored StoredPairSources
	if err := sonic.Unmarshal(value, &stored); err != nil {
		log.Warn().Err(err).Str("pair", pair).Msg("[storage] skipping corrupt pair entry")
		return nil, nil
	}
	return stored.SourceIDs, nil
}
