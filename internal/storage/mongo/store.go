// Package mongo provides MongoDB-backed video and channel persistence.
package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	apperrors "github.com/louisbranch/tubewatch/internal/platform/errors"
	"github.com/louisbranch/tubewatch/internal/platform/timeouts"
	"github.com/louisbranch/tubewatch/internal/storage"
	"github.com/louisbranch/tubewatch/internal/youtube/channel"
	"github.com/louisbranch/tubewatch/internal/youtube/video"
)

const (
	videosCollection   = "videos"
	channelsCollection = "channels"

	// searchResultCap bounds unbounded search queries.
	searchResultCap = 100
)

// Store is a MongoDB-backed storage.Store implementation.
type Store struct {
	client   *mongo.Client
	videos   *mongo.Collection
	channels *mongo.Collection
}

var _ storage.Store = (*Store)(nil)

// Open connects to MongoDB, verifies the connection, and ensures indexes.
func Open(ctx context.Context, uri, databaseName string) (*Store, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, fmt.Errorf("mongodb uri is required")
	}
	databaseName = strings.TrimSpace(databaseName)
	if databaseName == "" {
		return nil, fmt.Errorf("database name is required")
	}

	clientOptions := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(timeouts.MongoConnect).
		SetConnectTimeout(timeouts.MongoConnect).
		SetSocketTimeout(timeouts.MongoRequest)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.MongoConnect)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(databaseName)
	store := &Store{
		client:   client,
		videos:   db.Collection(videosCollection),
		channels: db.Collection(channelsCollection),
	}
	if err := store.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}

// ensureIndexes creates the indexes idempotent ingestion and the common
// query paths depend on.
func (s *Store) ensureIndexes(ctx context.Context) error {
	videoIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "video_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "channel_id", Value: 1}, {Key: "upload_date", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "upload_date", Value: -1}},
		},
	}
	if _, err := s.videos.Indexes().CreateMany(ctx, videoIndexes); err != nil {
		return fmt.Errorf("create video indexes: %w", err)
	}

	channelIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "channel_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := s.channels.Indexes().CreateMany(ctx, channelIndexes); err != nil {
		return fmt.Errorf("create channel indexes: %w", err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// Ping verifies the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// InsertVideo stores one video; a duplicate video ID maps to ErrDuplicate.
func (s *Store) InsertVideo(ctx context.Context, meta video.Metadata) error {
	if _, err := s.videos.InsertOne(ctx, meta); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.WithMetadata(apperrors.CodeDuplicate, "video already stored", map[string]string{"video_id": meta.VideoID})
		}
		return apperrors.Wrap(apperrors.CodeStorage, "insert video", err)
	}
	return nil
}

// RecentVideos returns newest-first videos, optionally scoped to a channel.
func (s *Store) RecentVideos(ctx context.Context, limit int, channelID string) ([]video.Metadata, error) {
	filter := bson.M{}
	if channelID = strings.TrimSpace(channelID); channelID != "" {
		filter["channel_id"] = channelID
	}
	return s.findVideos(ctx, filter, limit)
}

// VideosByChannel returns newest-first videos for one channel.
func (s *Store) VideosByChannel(ctx context.Context, channelID string, limit int) ([]video.Metadata, error) {
	return s.findVideos(ctx, bson.M{"channel_id": strings.TrimSpace(channelID)}, limit)
}

// CountByChannel returns the stored video count for one channel.
func (s *Store) CountByChannel(ctx context.Context, channelID string) (int64, error) {
	count, err := s.videos.CountDocuments(ctx, bson.M{"channel_id": strings.TrimSpace(channelID)})
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeStorage, "count videos", err)
	}
	return count, nil
}

// SearchVideos runs a case-insensitive regex search over title and
// description with optional channel and recency filters.
func (s *Store) SearchVideos(ctx context.Context, query storage.SearchQuery) ([]video.Metadata, error) {
	filter := SearchFilter(query, time.Now)
	limit := query.Limit
	if limit <= 0 || limit > searchResultCap {
		limit = searchResultCap
	}
	return s.findVideos(ctx, filter, limit)
}

// SearchFilter builds the MongoDB filter document for a search query.
// Exported for white-box query construction tests; the upload date cutoff
// compares ISO 8601 strings, which order lexicographically.
func SearchFilter(query storage.SearchQuery, now func() time.Time) bson.M {
	pattern := bson.M{"$regex": query.Query, "$options": "i"}
	filter := bson.M{
		"$or": bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		},
	}
	if channelID := strings.TrimSpace(query.ChannelID); channelID != "" {
		filter["channel_id"] = channelID
	}
	if query.Hours > 0 {
		if now == nil {
			now = time.Now
		}
		cutoff := now().UTC().Add(-time.Duration(query.Hours) * time.Hour)
		filter["upload_date"] = bson.M{"$gte": cutoff.Format("2006-01-02T15:04:05Z")}
	}
	return filter
}

func (s *Store) findVideos(ctx context.Context, filter bson.M, limit int) ([]video.Metadata, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "upload_date", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.videos.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "find videos", err)
	}
	defer cursor.Close(ctx)

	var videos []video.Metadata
	if err := cursor.All(ctx, &videos); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "decode videos", err)
	}
	return videos, nil
}

// Stats aggregates engagement numbers for one channel.
func (s *Store) Stats(ctx context.Context, channelID string) (storage.ChannelStats, error) {
	pipeline := StatsPipeline(channelID)
	cursor, err := s.videos.Aggregate(ctx, pipeline)
	if err != nil {
		return storage.ChannelStats{}, apperrors.Wrap(apperrors.CodeStorage, "aggregate channel stats", err)
	}
	defer cursor.Close(ctx)

	var results []storage.ChannelStats
	if err := cursor.All(ctx, &results); err != nil {
		return storage.ChannelStats{}, apperrors.Wrap(apperrors.CodeStorage, "decode channel stats", err)
	}
	if len(results) == 0 {
		return storage.ChannelStats{}, apperrors.WithMetadata(apperrors.CodeNotFound, "no videos stored for channel", map[string]string{"channel_id": channelID})
	}
	return results[0], nil
}

// StatsPipeline builds the aggregation pipeline behind Stats. Exported for
// white-box query construction tests.
func StatsPipeline(channelID string) mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"channel_id": strings.TrimSpace(channelID)}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":           "$channel_id",
			"total_videos":  bson.M{"$sum": 1},
			"total_views":   bson.M{"$sum": "$view_count"},
			"total_likes":   bson.M{"$sum": "$like_count"},
			"average_views": bson.M{"$avg": "$view_count"},
			"average_likes": bson.M{"$avg": "$like_count"},
			"latest_upload": bson.M{"$max": "$upload_date"},
		}}},
	}
}

// UpsertChannel stores or refreshes one channel record.
func (s *Store) UpsertChannel(ctx context.Context, ch channel.Channel) error {
	filter := bson.M{"channel_id": ch.ID}
	update := bson.M{"$set": bson.M{
		"channel_id":     ch.ID,
		"handle":         ch.Handle,
		"name":           ch.Name,
		"description":    ch.Description,
		"high_frequency": ch.HighFrequency,
		"timezone":       ch.Timezone,
	}}
	if _, err := s.channels.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "upsert channel", err)
	}
	return nil
}

// ListChannels returns all stored channels.
func (s *Store) ListChannels(ctx context.Context) ([]channel.Channel, error) {
	cursor, err := s.channels.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "find channels", err)
	}
	defer cursor.Close(ctx)

	var records []struct {
		ChannelID     string `bson:"channel_id"`
		Handle        string `bson:"handle"`
		Name          string `bson:"name"`
		Description   string `bson:"description"`
		HighFrequency bool   `bson:"high_frequency"`
		Timezone      string `bson:"timezone"`
	}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "decode channels", err)
	}

	channels := make([]channel.Channel, 0, len(records))
	for _, record := range records {
		channels = append(channels, channel.Channel{
			ID:            record.ChannelID,
			Handle:        record.Handle,
			Name:          record.Name,
			Description:   record.Description,
			HighFrequency: record.HighFrequency,
			Timezone:      record.Timezone,
		})
	}
	return channels, nil
}
