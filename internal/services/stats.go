package services

import (
	"context"
	"fmt"

	"housing-backend/internal/models"
	"housing-backend/internal/repository"

	"golang.org/x/sync/errgroup"
)

// StatsService summarizes accounts and chat activity
type StatsService struct {
	userRepo    *repository.UserRepository
	messageRepo repository.MessageRepository
}

// NewStatsService creates a new stats service
func NewStatsService(userRepo *repository.UserRepository, messageRepo repository.MessageRepository) *StatsService {
	return &StatsService{
		userRepo:    userRepo,
		messageRepo: messageRepo,
	}
}

// Summary loads users and both streams concurrently and counts them
func (s *StatsService) Summary(ctx context.Context) (*models.Stats, error) {
	var (
		users   []models.UserAccount
		streams = make([][]models.ChatMessage, len(models.Streams))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.userRepo.LoadAll(gctx)
		return err
	})
	for i, stream := range models.Streams {
		i, stream := i, stream
		g.Go(func() error {
			messages, err := s.messageRepo.ListAll(gctx, stream)
			if err != nil {
				return fmt.Errorf("failed to load %s messages: %w", stream, err)
			}
			streams[i] = messages
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &models.Stats{
		UsersByType:    map[models.UserType]int{},
		MessagesByUser: map[string]int{},
		MessagesByChat: map[models.Stream]int{},
	}

	seen := make(map[string]struct{}, len(users))
	for _, u := range users {
		seen[u.Username] = struct{}{}
		stats.UsersByType[u.UserType]++
	}
	stats.Users = len(seen)

	for i, stream := range models.Streams {
		stats.MessagesByChat[stream] = len(streams[i])
		stats.Messages += len(streams[i])
		for _, msg := range streams[i] {
			stats.MessagesByUser[msg.Author]++
		}
	}

	return stats, nil
}
