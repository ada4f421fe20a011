package seed

import (
	"context"
	"fmt"
	"testing"

	videostore "github.com/louisbranch/tubewatch/internal/storage"
	"github.com/louisbranch/tubewatch/internal/youtube/channel"
	"github.com/louisbranch/tubewatch/internal/youtube/video"
)

type fakeVideoStore struct {
	inserted []video.Metadata
	seen     map[string]bool
	err      error
}

func (f *fakeVideoStore) InsertVideo(ctx context.Context, meta video.Metadata) error {
	if f.err != nil {
		return f.err
	}
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[meta.VideoID] {
		return videostore.ErrDuplicate
	}
	f.seen[meta.VideoID] = true
	f.inserted = append(f.inserted, meta)
	return nil
}

func (f *fakeVideoStore) RecentVideos(ctx context.Context, limit int, channelID string) ([]video.Metadata, error) {
	return nil, nil
}

func (f *fakeVideoStore) VideosByChannel(ctx context.Context, channelID string, limit int) ([]video.Metadata, error) {
	return nil, nil
}

func (f *fakeVideoStore) CountByChannel(ctx context.Context, channelID string) (int64, error) {
	return 0, nil
}

func (f *fakeVideoStore) SearchVideos(ctx context.Context, query videostore.SearchQuery) ([]video.Metadata, error) {
	return nil, nil
}

func (f *fakeVideoStore) Stats(ctx context.Context, channelID string) (videostore.ChannelStats, error) {
	return videostore.ChannelStats{}, nil
}

func (f *fakeVideoStore) Ping(ctx context.Context) error { return nil }

type fakeSource struct {
	playlists   map[string]string
	playlistErr error
	videoIDs    map[string][]string
	metas       map[string]video.Metadata
	detailErrs  map[string]error
}

func (f *fakeSource) UploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	if f.playlistErr != nil {
		return "", f.playlistErr
	}
	playlist, ok := f.playlists[channelID]
	if !ok {
		return "", fmt.Errorf("channel %s not found", channelID)
	}
	return playlist, nil
}

func (f *fakeSource) PlaylistVideoIDs(ctx context.Context, playlistID string, maxResults int) ([]string, error) {
	ids := f.videoIDs[playlistID]
	if len(ids) > maxResults {
		ids = ids[:maxResults]
	}
	return ids, nil
}

func (f *fakeSource) VideoDetails(ctx context.Context, videoID string) (video.Metadata, error) {
	if err, ok := f.detailErrs[videoID]; ok {
		return video.Metadata{}, err
	}
	meta, ok := f.metas[videoID]
	if !ok {
		return video.Metadata{}, fmt.Errorf("video %s not found", videoID)
	}
	return meta, nil
}

func singleChannelRoster(t *testing.T) *channel.Roster {
	t.Helper()
	roster := channel.NewRoster()
	err := roster.Add(channel.Channel{
		ID:   "UCseed000000000000000001",
		Name: "Seed Channel",
	}, "seed")
	if err != nil {
		t.Fatalf("add channel: %v", err)
	}
	return roster
}

func seedMetadata(videoID string) video.Metadata {
	return video.Metadata{
		VideoID:    videoID,
		Title:      "Video " + videoID,
		UploadDate: "2024-01-15T09:00:00Z",
		ViewCount:  100,
		CategoryID: "25",
	}
}

func TestRunStoresPlaylistVideos(t *testing.T) {
	t.Parallel()

	store := &fakeVideoStore{}
	source := &fakeSource{
		playlists: map[string]string{"UCseed000000000000000001": "UUseed"},
		videoIDs:  map[string][]string{"UUseed": {"vid1", "vid2"}},
		metas: map[string]video.Metadata{
			"vid1": seedMetadata("vid1"),
			"vid2": seedMetadata("vid2"),
		},
	}
	runner, err := NewRunner(store, source, singleChannelRoster(t), 10)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Stored != 2 || result.Failures != 0 {
		t.Fatalf("result = %+v, want 2 stored", result)
	}
	if len(store.inserted) != 2 {
		t.Fatalf("inserted = %d, want 2", len(store.inserted))
	}
	if store.inserted[0].ChannelID != "UCseed000000000000000001" {
		t.Fatalf("channel id = %q, want roster channel", store.inserted[0].ChannelID)
	}
	if store.inserted[0].Category != video.CategoryNews {
		t.Fatalf("category = %q, want news from category id", store.inserted[0].Category)
	}
}

func TestRunCountsDuplicates(t *testing.T) {
	t.Parallel()

	store := &fakeVideoStore{}
	source := &fakeSource{
		playlists: map[string]string{"UCseed000000000000000001": "UUseed"},
		videoIDs:  map[string][]string{"UUseed": {"vid1"}},
		metas:     map[string]video.Metadata{"vid1": seedMetadata("vid1")},
	}
	runner, err := NewRunner(store, source, singleChannelRoster(t), 10)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if result.Stored != 0 || result.Duplicates != 1 {
		t.Fatalf("result = %+v, want 1 duplicate", result)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("inserted = %d, want 1", len(store.inserted))
	}
}

func TestRunContinuesPastVideoFailures(t *testing.T) {
	t.Parallel()

	store := &fakeVideoStore{}
	source := &fakeSource{
		playlists: map[string]string{"UCseed000000000000000001": "UUseed"},
		videoIDs:  map[string][]string{"UUseed": {"vid1", "vid2"}},
		metas:     map[string]video.Metadata{"vid2": seedMetadata("vid2")},
		detailErrs: map[string]error{
			"vid1": fmt.Errorf("api unavailable"),
		},
	}
	runner, err := NewRunner(store, source, singleChannelRoster(t), 10)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Failures != 1 || result.Stored != 1 {
		t.Fatalf("result = %+v, want 1 failure and 1 stored", result)
	}
}

func TestRunRecordsChannelFailure(t *testing.T) {
	t.Parallel()

	source := &fakeSource{playlistErr: fmt.Errorf("quota exceeded")}
	runner, err := NewRunner(&fakeVideoStore{}, source, singleChannelRoster(t), 10)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Failures != 1 {
		t.Fatalf("result = %+v, want channel failure counted", result)
	}
}

func TestRunRespectsPerChannelLimit(t *testing.T) {
	t.Parallel()

	store := &fakeVideoStore{}
	source := &fakeSource{
		playlists: map[string]string{"UCseed000000000000000001": "UUseed"},
		videoIDs:  map[string][]string{"UUseed": {"vid1", "vid2", "vid3"}},
		metas: map[string]video.Metadata{
			"vid1": seedMetadata("vid1"),
			"vid2": seedMetadata("vid2"),
			"vid3": seedMetadata("vid3"),
		},
	}
	runner, err := NewRunner(store, source, singleChannelRoster(t), 2)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Stored != 2 {
		t.Fatalf("stored = %d, want limit applied", result.Stored)
	}
}

func TestNewRunnerValidatesDependencies(t *testing.T) {
	t.Parallel()

	if _, err := NewRunner(nil, &fakeSource{}, nil, 0); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := NewRunner(&fakeVideoStore{}, nil, nil, 0); err == nil {
		t.Fatal("expected error for nil source")
	}
}
