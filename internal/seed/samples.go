package seed

import (
	"time"

	"github.com/google/uuid"
)

// namespace scopes the name-based document IDs of sample data.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:schemasync:sample-data"))

// Sample is one sample document.
type Sample struct {
	Collection string
	// Key is the natural key the document ID is derived from.
	Key  string
	Data map[string]any
}

// ID returns the deterministic document ID of the sample.
func (s Sample) ID() string {
	return DocumentID(s.Collection, s.Key)
}

// DocumentID derives a stable UUIDv5 from the collection and natural key so
// that seeding twice targets the same documents.
func DocumentID(collection, key string) string {
	return uuid.NewSHA1(namespace, []byte(collection+"/"+key)).String()
}

// Collections lists the seeded collections in seeding order.
var Collections = []string{"music", "hashtags", "challenges"}

// Samples returns the sample documents with timestamps taken from now.
// The challenge runs for 30 days from now.
func Samples(now time.Time) []Sample {
	ts := now.UTC().Format(time.RFC3339)
	end := now.Add(30 * 24 * time.Hour).UTC().Format(time.RFC3339)

	stamp := func(data map[string]any) map[string]any {
		data["createdAt"] = ts
		data["updatedAt"] = ts
		return data
	}

	return []Sample{
		{Collection: "music", Key: "Original Sound/TikTok", Data: stamp(map[string]any{
			"title":      "Original Sound",
			"artist":     "TikTok",
			"audioUrl":   "https://example.com/original-sound.mp3",
			"duration":   30,
			"isOriginal": true,
			"usageCount": 1000,
			"isActive":   true,
		})},
		{Collection: "music", Key: "Trending Beat/Popular Artist", Data: stamp(map[string]any{
			"title":      "Trending Beat",
			"artist":     "Popular Artist",
			"audioUrl":   "https://example.com/trending-beat.mp3",
			"duration":   45,
			"isOriginal": false,
			"isTrending": true,
			"usageCount": 5000,
			"isActive":   true,
		})},

		{Collection: "hashtags", Key: "fyp", Data: stamp(map[string]any{
			"name": "fyp", "description": "For You Page", "usageCount": 1000000, "isTrending": true, "isBlocked": false,
		})},
		{Collection: "hashtags", Key: "viral", Data: stamp(map[string]any{
			"name": "viral", "description": "Viral content", "usageCount": 500000, "isTrending": true, "isBlocked": false,
		})},
		{Collection: "hashtags", Key: "dance", Data: stamp(map[string]any{
			"name": "dance", "description": "Dance videos", "usageCount": 300000, "category": "Entertainment", "isBlocked": false,
		})},
		{Collection: "hashtags", Key: "comedy", Data: stamp(map[string]any{
			"name": "comedy", "description": "Funny videos", "usageCount": 250000, "category": "Entertainment", "isBlocked": false,
		})},

		{Collection: "challenges", Key: "dancechallenge2024", Data: stamp(map[string]any{
			"title":             "Dance Challenge 2024",
			"description":       "Show us your best dance moves!",
			"creatorId":         "system",
			"hashtag":           "dancechallenge2024",
			"participantsCount": 1500,
			"videosCount":       3000,
			"viewsCount":        1000000,
			"isOfficial":        true,
			"isFeatured":        true,
			"isActive":          true,
			"startDate":         ts,
			"endDate":           end,
		})},
	}
}
