package benchmark

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/forum-thread-engine/internal/config"
	"github.com/forum-thread-engine/internal/mocks"
	"github.com/forum-thread-engine/internal/models"
	"github.com/forum-thread-engine/internal/reaction"
	"github.com/forum-thread-engine/internal/service"
	"github.com/forum-thread-engine/internal/session"
	"github.com/forum-thread-engine/internal/thread"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// flatThread generates n comments where every third one replies to the
// comment before it
func flatThread(n int) []models.Comment {
	comments := make([]models.Comment, n)
	for i := range comments {
		comments[i] = models.Comment{
			ID:      fmt.Sprintf("c%06d", i),
			PostID:  "p1",
			Content: "benchmark comment",
		}
		if i%3 != 0 {
			comments[i].ParentCommentID = comments[i-1].ID
		}
	}
	return comments
}

// BenchmarkBuildTree benchmarks tree construction from flat records
func BenchmarkBuildTree(b *testing.B) {
	comments := flatThread(10000)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		thread.BuildTree(comments, thread.DefaultMaxDepth)
	}

	b.ReportMetric(float64(len(comments)*b.N)/b.Elapsed().Seconds(), "records/sec")
}

// BenchmarkApplyReaction benchmarks an optimistic toggle on the last comment
func BenchmarkApplyReaction(b *testing.B) {
	comments := flatThread(10000)
	tree := thread.BuildTree(comments, thread.DefaultMaxDepth)
	target := comments[len(comments)-1].ID

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		m := thread.ApplyReaction(tree, target, reaction.Like)
		if !m.Found {
			b.Fatal("target not found")
		}
	}
}

// BenchmarkInsertReply benchmarks appending a reply under a root
func BenchmarkInsertReply(b *testing.B) {
	tree := thread.BuildTree(flatThread(10000), thread.DefaultMaxDepth)
	reply := models.Comment{ID: "new", PostID: "p1", Content: "reply"}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := thread.InsertReply(tree, "c009999", reply, thread.DefaultMaxDepth); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkConcurrentReactions benchmarks parallel toggles on one view
func BenchmarkConcurrentReactions(b *testing.B) {
	repos := mocks.NewMockRepositories()
	repos.Post.Posts["p1"] = &models.Post{ID: "p1"}
	repos.Comment.Comments["p1"] = flatThread(1000)

	cfg := &config.Config{Forum: config.ForumConfig{MaxDepth: thread.DefaultMaxDepth, ViewTTL: time.Hour}}
	services := service.NewServices(repos.Repositories(), cfg, service.NewMetrics(prometheus.NewRegistry()), zerolog.Nop())
	sess := session.New("u1", "access", "refresh")
	ctx := context.Background()

	if _, err := services.Thread.Thread(ctx, sess, "p1", false); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			id := fmt.Sprintf("c%06d", i%1000)
			if _, err := services.Thread.ReactToComment(ctx, sess, "p1", id, reaction.Like); err != nil {
				b.Error(err)
				return
			}
			i++
		}
	})
}
