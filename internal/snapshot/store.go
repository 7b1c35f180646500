package snapshot

import (
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hypercore-tracker/internal/models"
)

// Store persists point-in-time balance and trade snapshots and answers
// the latest/historical/recent queries. Rows are append-only; nothing
// here updates or deletes history. Storage errors are not recovered:
// they propagate to the caller.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore creates a snapshot store over the given database.
func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Save inserts one balance row per held coin and one trade row per trade,
// all under a single transaction so a snapshot commits or rolls back as a
// unit. ValueUSD is computed from the price table at save time and is not
// re-derived later. Trades missing required fields are skipped, not
// rejected.
func (s *Store) Save(wallet string, balances []models.SpotBalance, prices map[string]float64, trades []models.Trade) error {
	now := time.Now()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, b := range balances {
			coin := b.Coin
			if coin == "" {
				coin = "Unknown"
			}
			amount, _ := strconv.ParseFloat(b.Total, 64)
			price := prices[coin]

			row := models.Balance{
				Wallet:    wallet,
				Timestamp: now,
				Coin:      coin,
				Amount:    amount,
				Price:     price,
				ValueUSD:  amount * price,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to insert balance row: %w", err)
			}
		}

		for _, t := range trades {
			if t.Coin == "" || t.Side == "" || t.Timestamp.IsZero() {
				continue
			}
			value := t.ValueUSD
			if value == 0 {
				value = t.Size * t.Price
			}

			row := models.Trade{
				Wallet:    wallet,
				Timestamp: t.Timestamp,
				Coin:      t.Coin,
				Side:      t.Side,
				Size:      t.Size,
				Price:     t.Price,
				Fee:       t.Fee,
				ValueUSD:  value,
				PnL:       t.PnL,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to insert trade row: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("Stored snapshot",
		zap.String("wallet", wallet),
		zap.Int("balances", len(balances)),
		zap.Int("trades", len(trades)))
	return nil
}

// LatestBalances returns the balance rows at each wallet's most recent
// stored timestamp. An empty wallet means all wallets; the per-wallet
// max-timestamp join is the same either way, the filter just narrows it.
func (s *Store) LatestBalances(wallet string) ([]models.Balance, error) {
	sub := s.db.Model(&models.Balance{}).
		Select("wallet, MAX(timestamp) AS max_time").
		Group("wallet")
	if wallet != "" {
		sub = sub.Where("wallet = ?", wallet)
	}

	var rows []models.Balance
	err := s.db.Model(&models.Balance{}).
		Joins("INNER JOIN (?) latest ON balances.wallet = latest.wallet AND balances.timestamp = latest.max_time", sub).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query latest balances: %w", err)
	}
	return rows, nil
}

// HistoricalBalances returns all balance rows within the lookback window,
// in ascending time order.
func (s *Store) HistoricalBalances(wallet string, days int) ([]models.Balance, error) {
	start := time.Now().AddDate(0, 0, -days)

	q := s.db.Where("timestamp >= ?", start).Order("timestamp asc")
	if wallet != "" {
		q = q.Where("wallet = ?", wallet)
	}

	var rows []models.Balance
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query historical balances: %w", err)
	}
	return rows, nil
}

// RecentTrades returns the most recent trades by timestamp, descending.
func (s *Store) RecentTrades(wallet string, limit int) ([]models.Trade, error) {
	q := s.db.Order("timestamp desc").Limit(limit)
	if wallet != "" {
		q = q.Where("wallet = ?", wallet)
	}

	var rows []models.Trade
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query recent trades: %w", err)
	}
	return rows, nil
}
