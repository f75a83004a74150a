package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/VeerPalSingh-0000/Revision-Mania/internal/models"
	"github.com/VeerPalSingh-0000/Revision-Mania/pkg/logger"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const digestBatchSize = 100

// UserSource iterates every account.
type UserSource interface {
	ForEach(ctx context.Context, batchSize int, fn func(models.User) error) error
}

// DigestJob mails each user the number of problems due today.
type DigestJob struct {
	users  UserSource
	repo   ProblemRepo
	sched  *DueScheduler
	mailer Mailer
	loc    *time.Location
	now    func() time.Time
	appURL string
	log    zerolog.Logger
}

func NewDigestJob(users UserSource, repo ProblemRepo, sched *DueScheduler, mailer Mailer, loc *time.Location, appURL string) *DigestJob {
	if loc == nil {
		loc = time.UTC
	}
	return &DigestJob{
		users:  users,
		repo:   repo,
		sched:  sched,
		mailer: mailer,
		loc:    loc,
		now:    time.Now,
		appURL: appURL,
		log:    logger.With("digest"),
	}
}

// Start runs the job on spec until ctx is done. An empty spec disables it.
func (j *DigestJob) Start(ctx context.Context, spec string) error {
	if spec == "" {
		j.log.Info().Msg("Due digest disabled")
		return nil
	}

	c := cron.New(cron.WithLocation(j.loc))
	_, err := c.AddFunc(spec, func() {
		if _, err := j.RunOnce(ctx); err != nil {
			j.log.Error().Err(err).Msg("Due digest run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid DIGEST_SCHEDULE %q: %w", spec, err)
	}

	c.Start()
	j.log.Info().Str("schedule", spec).Str("location", j.loc.String()).Msg("Due digest scheduled")

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		j.log.Info().Msg("Due digest stopped")
	}()
	return nil
}

// RunOnce mails every user with something due and returns how many were sent.
// A failure for one user is logged and does not stop the run.
func (j *DigestJob) RunOnce(ctx context.Context) (int, error) {
	now := j.now().In(j.loc)
	sent := 0

	err := j.users.ForEach(ctx, digestBatchSize, func(u models.User) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		problems, err := j.repo.List(ctx, u.ID)
		if err != nil {
			j.log.Error().Err(err).Str("user_id", u.ID).Msg("Digest: failed to load problems")
			return nil
		}

		tiers := j.sched.DueToday(problems, now)
		total := TotalDue(tiers)
		if total == 0 {
			return nil
		}

		if err := j.mailer.Send(ctx, u.Email, digestSubject(total), j.digestBody(u, tiers)); err != nil {
			j.log.Error().Err(err).Str("user_id", u.ID).Msg("Digest: failed to send")
			return nil
		}
		sent++
		return nil
	})
	if err != nil {
		return sent, err
	}

	j.log.Info().Int("sent", sent).Msg("Due digest processed")
	return sent, nil
}

func digestSubject(total int) string {
	if total == 1 {
		return "1 problem is due for revision today"
	}
	return fmt.Sprintf("%d problems are due for revision today", total)
}

func (j *DigestJob) digestBody(u models.User, tiers []Tier) string {
	var b strings.Builder
	name := u.DisplayName
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	for _, t := range tiers {
		fmt.Fprintf(&b, "Solved %s:\n", t.Interval.Label)
		for _, p := range t.Problems {
			fmt.Fprintf(&b, "  - %s\n", p.ProblemText)
		}
		b.WriteString("\n")
	}
	if j.appURL != "" {
		fmt.Fprintf(&b, "Revise them at %s\n", j.appURL)
	}
	return b.String()
}
