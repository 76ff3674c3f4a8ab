package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"CryptoPulse/internal/domain/models"
	drepo "CryptoPulse/internal/domain/repository"
	pkgkafka "CryptoPulse/pkg/kafka"
)

// ClickHouseHistory implements HistoryStore on ClickHouse. Research results
// are append-only; the table is ordered by (user_id, symbol, ts) for the
// history queries the API serves.
type ClickHouseHistory struct {
	db    *sql.DB
	table string
}

func NewClickHouseHistory(db *sql.DB, table string) drepo.HistoryStore {
	return &ClickHouseHistory{db: db, table: table}
}

func (s *ClickHouseHistory) Init(ctx context.Context) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts DateTime,
		user_id String,
		symbol String,
		signal String,
		confidence Float64,
		recommendation String,
		score_indicators Float64,
		score_structure Float64,
		score_momentum Float64,
		score_volume Float64,
		score_availability Float64,
		providers String
	) ENGINE = MergeTree()
	PARTITION BY toYYYYMM(ts)
	ORDER BY (user_id, symbol, ts)`, s.table)
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("init history schema: %w", err)
	}
	return nil
}

const historyColumns = "ts, user_id, symbol, signal, confidence, recommendation, score_indicators, score_structure, score_momentum, score_volume, score_availability, providers"

func (s *ClickHouseHistory) Store(ctx context.Context, res *models.ResearchResult) error {
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table, historyColumns)
	_, err := s.db.ExecContext(ctx, q, resultArgs(res)...)
	return err
}

func (s *ClickHouseHistory) StoreBatch(ctx context.Context, results []*models.ResearchResult) error {
	if len(results) == 0 {
		return nil
	}
	const chunkSize = 1000
	for start := 0; start < len(results); start += chunkSize {
		end := start + chunkSize
		if end > len(results) {
			end = len(results)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*12)
		for _, res := range results[start:end] {
			if res == nil || res.Symbol == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, resultArgs(res)...)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, historyColumns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func resultArgs(res *models.ResearchResult) []interface{} {
	ts := res.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return []interface{}{
		ts,
		res.UserID,
		res.Symbol,
		string(res.Signal),
		res.Confidence,
		res.Recommendation,
		res.Breakdown.Indicators,
		res.Breakdown.Structure,
		res.Breakdown.Momentum,
		res.Breakdown.Volume,
		res.Breakdown.Availability,
		strings.Join(res.Providers, ","),
	}
}

func (s *ClickHouseHistory) Query(ctx context.Context, userID, symbol string, from, to time.Time, limit int) ([]*models.ResearchResult, error) {
	if limit <= 0 {
		limit = 100
	}

	q := fmt.Sprintf("SELECT %s FROM %s WHERE user_id = ?", historyColumns, s.table)
	args := []interface{}{userID}
	if symbol != "" {
		q += " AND symbol = ?"
		args = append(args, symbol)
	}
	if !from.IsZero() {
		q += " AND ts >= ?"
		args = append(args, from)
	}
	if !to.IsZero() {
		q += " AND ts <= ?"
		args = append(args, to)
	}
	q += " ORDER BY ts DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*models.ResearchResult
	for rows.Next() {
		var res models.ResearchResult
		var ts time.Time
		var sig, providers string
		if err := rows.Scan(&ts, &res.UserID, &res.Symbol, &sig, &res.Confidence, &res.Recommendation,
			&res.Breakdown.Indicators, &res.Breakdown.Structure, &res.Breakdown.Momentum,
			&res.Breakdown.Volume, &res.Breakdown.Availability, &providers); err != nil {
			return nil, err
		}
		res.Timestamp = ts
		res.Signal = models.Signal(sig)
		if providers != "" {
			res.Providers = strings.Split(providers, ",")
		}
		results = append(results, &res)
	}
	return results, rows.Err()
}

func (s *ClickHouseHistory) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseHistory) Close() error {
	return nil // pool owned by pkg client
}

// KafkaPublisher implements Publisher for the kafka backend: results go to a
// topic and a consumer writes them to history.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) drepo.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, res *models.ResearchResult) error {
	return p.producer.Publish(ctx, p.topic, []byte(res.UserID+":"+res.Symbol), res)
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, results []*models.ResearchResult) error {
	if len(results) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(results))
	for i, res := range results {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(res.UserID + ":" + res.Symbol),
			Value: res,
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
