package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"CryptoPulse/internal/domain/models"
	drepo "CryptoPulse/internal/domain/repository"
)

const (
	settingsCollection = "research_settings"
	resultsCollection  = "research_results"
	alertsCollection   = "alert_log"

	latestResultsKeep = 500
	alertLogKeep      = 200
)

// MongoStore implements SettingsStore and ResultStore on one Mongo database.
// Settings are one document per user keyed by _id; latest results and the
// alert log are capped per user.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

// EnsureIndexes creates the supporting indexes; call once at startup.
func (m *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := m.db.Collection(resultsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("results index: %w", err)
	}
	_, err = m.db.Collection(alertsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("alerts index: %w", err)
	}
	return nil
}

func (m *MongoStore) Get(ctx context.Context, userID string) (*models.ResearchSettings, error) {
	var s models.ResearchSettings
	err := m.db.Collection(settingsCollection).FindOne(ctx, bson.M{"_id": userID}).Decode(&s)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("settings get %s: %w", userID, err)
	}
	return &s, nil
}

func (m *MongoStore) Save(ctx context.Context, s *models.ResearchSettings) error {
	if s == nil || s.UserID == "" {
		return fmt.Errorf("settings without user id")
	}
	s.UpdatedAt = time.Now().UTC()

	opts := options.Replace().SetUpsert(true)
	_, err := m.db.Collection(settingsCollection).ReplaceOne(ctx, bson.M{"_id": s.UserID}, s, opts)
	if err != nil {
		return fmt.Errorf("settings save %s: %w", s.UserID, err)
	}
	return nil
}

func (m *MongoStore) List(ctx context.Context) ([]*models.ResearchSettings, error) {
	cur, err := m.db.Collection(settingsCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("settings list: %w", err)
	}
	defer cur.Close(ctx)

	var out []*models.ResearchSettings
	for cur.Next(ctx) {
		var s models.ResearchSettings
		if err := cur.Decode(&s); err != nil {
			continue
		}
		out = append(out, &s)
	}
	return out, cur.Err()
}

type resultDoc struct {
	UserID         string                `bson:"user_id"`
	Symbol         string                `bson:"symbol"`
	Signal         string                `bson:"signal"`
	Confidence     float64               `bson:"confidence"`
	Recommendation string                `bson:"recommendation"`
	Breakdown      models.ScoreBreakdown `bson:"breakdown"`
	Weights        map[string]float64    `bson:"weights,omitempty"`
	Providers      []string              `bson:"providers,omitempty"`
	Timestamp      time.Time             `bson:"timestamp"`
}

func (m *MongoStore) SaveResult(ctx context.Context, res *models.ResearchResult) error {
	if res == nil {
		return fmt.Errorf("result is nil")
	}
	doc := resultDoc{
		UserID:         res.UserID,
		Symbol:         res.Symbol,
		Signal:         string(res.Signal),
		Confidence:     res.Confidence,
		Recommendation: res.Recommendation,
		Breakdown:      res.Breakdown,
		Weights:        res.Weights,
		Providers:      res.Providers,
		Timestamp:      res.Timestamp,
	}
	coll := m.db.Collection(resultsCollection)
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("result insert: %w", err)
	}
	m.trim(ctx, coll, res.UserID, "timestamp", latestResultsKeep)
	return nil
}

func (m *MongoStore) LatestResults(ctx context.Context, userID string, limit int) ([]*models.ResearchResult, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(int64(limit))
	cur, err := m.db.Collection(resultsCollection).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("latest results: %w", err)
	}
	defer cur.Close(ctx)

	var out []*models.ResearchResult
	for cur.Next(ctx) {
		var doc resultDoc
		if err := cur.Decode(&doc); err != nil {
			continue
		}
		out = append(out, &models.ResearchResult{
			UserID:         doc.UserID,
			Symbol:         doc.Symbol,
			Signal:         models.Signal(doc.Signal),
			Confidence:     doc.Confidence,
			Recommendation: doc.Recommendation,
			Breakdown:      doc.Breakdown,
			Weights:        doc.Weights,
			Providers:      doc.Providers,
			Timestamp:      doc.Timestamp,
		})
	}
	return out, cur.Err()
}

type alertDoc struct {
	UserID    string       `bson:"user_id"`
	Alert     models.Alert `bson:"alert"`
	CreatedAt time.Time    `bson:"created_at"`
}

func (m *MongoStore) LogAlert(ctx context.Context, userID string, a models.Alert) error {
	coll := m.db.Collection(alertsCollection)
	_, err := coll.InsertOne(ctx, alertDoc{UserID: userID, Alert: a, CreatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("alert log insert: %w", err)
	}
	m.trim(ctx, coll, userID, "created_at", alertLogKeep)
	return nil
}

// trim drops a user's oldest documents beyond keep. Best effort; a failed
// trim never fails the write that triggered it.
func (m *MongoStore) trim(ctx context.Context, coll *mongo.Collection, userID, tsField string, keep int) {
	n, err := coll.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil || n <= int64(keep) {
		return
	}

	opts := options.Find().
		SetSort(bson.D{{Key: tsField, Value: -1}}).
		SetSkip(int64(keep)).
		SetProjection(bson.M{"_id": 1})
	cur, err := coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return
	}
	defer cur.Close(ctx)

	var ids []interface{}
	for cur.Next(ctx) {
		var doc struct {
			ID interface{} `bson:"_id"`
		}
		if cur.Decode(&doc) == nil {
			ids = append(ids, doc.ID)
		}
	}
	if len(ids) > 0 {
		_, _ = coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	}
}

var (
	_ drepo.SettingsStore = (*MongoStore)(nil)
	_ drepo.ResultStore   = (*MongoStore)(nil)
)
