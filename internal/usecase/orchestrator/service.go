// Package orchestrator composes the agent's actions: scheduled posts,
// discovered-post replies, mention sweeps and the analytics report. Every
// outbound call goes through the quota guard first and the rate-limit
// retrier underneath; quota accounting happens here exactly once per
// operation regardless of physical retries.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Danyalalam/X-automation/internal/domain"
	"github.com/Danyalalam/X-automation/internal/persona"
	"github.com/Danyalalam/X-automation/internal/retry"
)

const searchMaxResults = 10

// Service executes the composite actions.
type Service struct {
	generator domain.Generator
	platform  domain.Platform
	guard     QuotaGuard
	cursor    CursorStore
	retrier   *retry.Retrier
	logger    *zap.Logger

	identity   domain.Identity
	replyDelay time.Duration
	mentionCap int

	sleep func(ctx context.Context, d time.Duration) error
	pick  func(n int) int
}

// New creates the orchestration service.
func New(
	generator domain.Generator,
	platform domain.Platform,
	guard QuotaGuard,
	cursor CursorStore,
	retrier *retry.Retrier,
	logger *zap.Logger,
) *Service {
	return &Service{
		generator:  generator,
		platform:   platform,
		guard:      guard,
		cursor:     cursor,
		retrier:    retrier,
		logger:     logger,
		replyDelay: 30 * time.Second,
		mentionCap: 2,
		sleep:      ctxSleep,
		pick:       rand.Intn,
	}
}

// WithIdentity sets the authenticated account, established at startup.
func (s *Service) WithIdentity(id domain.Identity) *Service {
	s.identity = id
	return s
}

// WithBatch overrides the inter-reply delay and the mention-sweep cap.
func (s *Service) WithBatch(replyDelay time.Duration, mentionCap int) *Service {
	if replyDelay > 0 {
		s.replyDelay = replyDelay
	}
	if mentionCap > 0 {
		s.mentionCap = mentionCap
	}
	return s
}

// PostWisdom generates and publishes the scheduled persona post.
func (s *Service) PostWisdom(ctx context.Context) error {
	theme := persona.Themes[s.pick(len(persona.Themes))]
	return s.generateAndPost(ctx, persona.WisdomPrompt(theme))
}

// PostParable publishes the weekly deeper-lore post.
func (s *Service) PostParable(ctx context.Context) error {
	return s.generateAndPost(ctx, persona.ParablePrompt)
}

func (s *Service) generateAndPost(ctx context.Context, prompt string) error {
	text, err := s.generator.Generate(ctx, persona.SystemPrompt, prompt)
	if err != nil {
		return fmt.Errorf("generate post: %w", err)
	}

	if !s.guard.Authorize(ctx, domain.OpPost) {
		return domain.ErrQuotaExceeded
	}

	id, err := retry.Do(s.retrier, ctx, func(ctx context.Context) (string, error) {
		return s.platform.CreatePost(ctx, text)
	})
	if err != nil {
		return fmt.Errorf("publish post: %w", err)
	}

	s.logger.Info("Wisdom shared", zap.String("post_id", id))
	return nil
}

// ReplyToDiscovered finds one candidate post and replies to it.
func (s *Service) ReplyToDiscovered(ctx context.Context) error {
	candidate, err := s.discoverCandidate(ctx)
	if err != nil {
		return err
	}

	text, err := s.generator.Generate(ctx, persona.SystemPrompt, persona.ReplyPrompt(candidate.Text))
	if err != nil {
		return fmt.Errorf("generate reply: %w", err)
	}

	if !s.guard.Authorize(ctx, domain.OpReply) {
		return domain.ErrQuotaExceeded
	}

	id, err := retry.Do(s.retrier, ctx, func(ctx context.Context) (string, error) {
		return s.platform.CreateReply(ctx, candidate.ID, text)
	})
	if err != nil {
		return fmt.Errorf("publish reply: %w", err)
	}

	s.logger.Info("Replied to discovered post",
		zap.String("parent_id", candidate.ID),
		zap.String("reply_id", id),
	)
	return nil
}

// discoverCandidate samples the following list first and falls back to
// keyword search when that source errors or comes back empty.
func (s *Service) discoverCandidate(ctx context.Context) (domain.Post, error) {
	if post, err := s.candidateFromFollowing(ctx); err == nil {
		return post, nil
	} else if !errors.Is(err, domain.ErrNoCandidate) {
		s.logger.Warn("Following-list discovery failed, falling back to keyword search", zap.Error(err))
	}
	return s.candidateFromKeywords(ctx)
}

func (s *Service) candidateFromFollowing(ctx context.Context) (domain.Post, error) {
	s.guard.Authorize(ctx, domain.OpRead)
	following, err := s.platform.ListFollowing(ctx, s.identity.ID)
	if err != nil {
		return domain.Post{}, fmt.Errorf("list following: %w", err)
	}
	if len(following) == 0 {
		return domain.Post{}, domain.ErrNoCandidate
	}

	author := following[s.pick(len(following))]
	query := fmt.Sprintf("from:%s -is:retweet -is:reply", author)

	s.guard.Authorize(ctx, domain.OpRead)
	posts, err := s.platform.SearchRecent(ctx, query, searchMaxResults)
	if err != nil {
		return domain.Post{}, fmt.Errorf("search following posts: %w", err)
	}
	if len(posts) == 0 {
		return domain.Post{}, domain.ErrNoCandidate
	}
	return posts[s.pick(len(posts))], nil
}

func (s *Service) candidateFromKeywords(ctx context.Context) (domain.Post, error) {
	keyword := persona.SearchKeywords[s.pick(len(persona.SearchKeywords))]
	query := fmt.Sprintf("%s -is:retweet -is:reply lang:en", keyword)

	s.guard.Authorize(ctx, domain.OpRead)
	posts, err := s.platform.SearchRecent(ctx, query, searchMaxResults)
	if err != nil {
		return domain.Post{}, fmt.Errorf("keyword search %q: %w", keyword, err)
	}
	if len(posts) == 0 {
		return domain.Post{}, fmt.Errorf("keyword %q: %w", keyword, domain.ErrNoCandidate)
	}
	return posts[s.pick(len(posts))], nil
}

// BatchReplies runs ReplyToDiscovered n times with a fixed inter-call delay
// to spread load. Individual failures are logged and the batch continues.
// Returns the number of successful replies.
func (s *Service) BatchReplies(ctx context.Context, n int) int {
	successes := 0
	for i := 0; i < n; i++ {
		if i > 0 {
			if err := s.sleep(ctx, s.replyDelay); err != nil {
				break
			}
		}
		if err := s.ReplyToDiscovered(ctx); err != nil {
			if errors.Is(err, domain.ErrQuotaExceeded) {
				// Denial holds until the month rolls over, so the rest of
				// the batch would just burn generation calls.
				s.logger.Warn("Reply batch halted by quota", zap.Int("attempt", i+1))
				break
			}
			s.logger.Warn("Batch reply failed", zap.Int("attempt", i+1), zap.Error(err))
			continue
		}
		successes++
	}
	return successes
}

// SweepMentions fetches mentions newer than the cursor, replies oldest-first
// up to the per-run cap, and advances the cursor after every processed item
// even when the reply failed, so one poisoned mention cannot block the queue.
func (s *Service) SweepMentions(ctx context.Context) (int, error) {
	sinceID, err := s.cursor.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("read mention cursor: %w", err)
	}

	s.guard.Authorize(ctx, domain.OpRead)
	mentions, err := s.platform.ListMentionsSince(ctx, s.identity.ID, sinceID, searchMaxResults)
	if err != nil {
		return 0, fmt.Errorf("list mentions: %w", err)
	}
	if len(mentions) == 0 {
		s.logger.Info("No new seekers have called")
		return 0, nil
	}

	sortOldestFirst(mentions)

	replies := 0
	for _, mention := range mentions {
		if replies >= s.mentionCap {
			break
		}
		ok, err := s.replyToMention(ctx, mention)
		if errors.Is(err, domain.ErrQuotaExceeded) {
			// Leave the cursor behind this mention so it is retried once
			// the monthly budget allows replies again.
			s.logger.Warn("Mention sweep halted by quota", zap.String("mention_id", mention.ID))
			break
		}
		if ok {
			replies++
		}
		if err := s.cursor.Advance(ctx, mention.ID); err != nil {
			s.logger.Error("Failed to advance mention cursor",
				zap.String("mention_id", mention.ID), zap.Error(err))
		}
	}
	return replies, nil
}

// replyToMention processes one mention. Reply and generation failures are
// logged, not returned, so the sweep moves on. Quota denial is returned
// so the caller can stop the sweep without consuming the mention.
func (s *Service) replyToMention(ctx context.Context, mention domain.Post) (bool, error) {
	text, err := s.generator.Generate(ctx, persona.SystemPrompt, persona.MentionPrompt(mention.Text))
	if err != nil {
		s.logger.Warn("Failed to generate mention reply",
			zap.String("mention_id", mention.ID), zap.Error(err))
		return false, nil
	}

	if !s.guard.Authorize(ctx, domain.OpReply) {
		return false, domain.ErrQuotaExceeded
	}

	id, err := retry.Do(s.retrier, ctx, func(ctx context.Context) (string, error) {
		return s.platform.CreateReply(ctx, mention.ID, text)
	})
	if err != nil {
		s.logger.Warn("Failed to post mention reply",
			zap.String("mention_id", mention.ID), zap.Error(err))
		return false, nil
	}

	s.logger.Info("Answered a seeker",
		zap.String("mention_id", mention.ID),
		zap.String("reply_id", id),
	)
	return true, nil
}

// Report formats the current usage counters. It accounts one internal read
// but the rendered counts deliberately exclude reads, so two back-to-back
// reports with no intervening grants are byte-identical.
func (s *Service) Report(ctx context.Context) string {
	s.guard.Authorize(ctx, domain.OpRead)
	rec := s.guard.Snapshot(ctx)

	today := domain.DayKeyAt(time.Now())
	var b strings.Builder
	fmt.Fprintf(&b, "Usage report for %s\n", rec.PeriodKey)
	fmt.Fprintf(&b, "  posts:     %d/%d\n", rec.PostsCount, rec.PlanLimit)
	fmt.Fprintf(&b, "  replies:   %d\n", rec.RepliesCount)
	fmt.Fprintf(&b, "  today:     %d primary\n", rec.PrimaryToday(today))
	fmt.Fprintf(&b, "  remaining: %d\n", rec.Remaining())
	return b.String()
}

// sortOldestFirst orders mentions ascending by id. Ids are numeric strings
// (snowflakes), so shorter ids sort before longer ones.
func sortOldestFirst(mentions []domain.Post) {
	sort.Slice(mentions, func(i, j int) bool {
		a, b := mentions[i].ID, mentions[j].ID
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
}

func ctxSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
