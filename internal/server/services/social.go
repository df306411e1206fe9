package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/server/models"
	"github.com/dmitrijs2005/socialnet/internal/server/notifications"
)

// FollowChoice is the responder's answer to a follow request.
type FollowChoice string

const (
	FollowBack   FollowChoice = "1"
	FollowAccept FollowChoice = "2"
	FollowReject FollowChoice = "3"
)

// SocialService implements the follow workflow, posts, reposts, comments
// and profile access.
type SocialService struct {
	*feed
}

func NewSocialService(d Deps) *SocialService {
	return &SocialService{feed: newFeed(d)}
}

// RequestFollow leaves a pending follow request in target's mailbox. A second
// request while one is pending fails with common.ErrorAlreadyExists.
func (s *SocialService) RequestFollow(ctx context.Context, requester, target string) error {
	if !s.graph.Exists(target) {
		return fmt.Errorf("client %s: %w", target, common.ErrorNotFound)
	}

	_, err := s.notes.AddRequest(models.Notification{
		Sender:   requester,
		Receiver: target,
		Type:     models.NotificationFollowRequest,
		Content:  "wants to follow you.",
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "follow request sent", "client", requester, "target", target)
	return nil
}

// RespondFollow resolves the pending follow request from requestor.
//
// FollowBack creates both edges. When the second edge fails after the first
// was created the request stays accepted and ErrPartialFollowBack is
// returned.
func (s *SocialService) RespondFollow(ctx context.Context, responder, requestor string, choice FollowChoice) error {
	q := notifications.Query{Sender: requestor, Receiver: responder, Type: models.NotificationFollowRequest}
	if !s.notes.HasPending(q) {
		return fmt.Errorf("follow request from %s: %w", requestor, ErrNoPendingRequest)
	}

	switch choice {
	case FollowBack, FollowAccept:
		if _, err := s.notes.Resolve(q, models.StatusAccepted); err != nil {
			return fmt.Errorf("%w: %w", ErrNoPendingRequest, err)
		}
		if _, err := s.graph.CreateEdge(requestor, responder); err != nil {
			return fmt.Errorf("error creating follow edge: %w", err)
		}
		if choice == FollowAccept {
			s.notify(responder, requestor, models.NotificationSystem, responder+" accepted your follow request.")
			s.log.Info(ctx, "follow request accepted", "client", responder, "requestor", requestor)
			return nil
		}
		if _, err := s.graph.CreateEdge(responder, requestor); err != nil {
			s.log.Error(ctx, "follow back failed", "client", responder, "requestor", requestor, "error", err)
			return fmt.Errorf("%w: %w", common.ErrPartialFollowBack, err)
		}
		s.notify(responder, requestor, models.NotificationSystem,
			responder+" accepted your follow request and is now following you back.")
		s.log.Info(ctx, "follow request accepted with follow back", "client", responder, "requestor", requestor)
		return nil

	case FollowReject:
		if _, err := s.notes.Resolve(q, models.StatusRejected); err != nil {
			return fmt.Errorf("%w: %w", ErrNoPendingRequest, err)
		}
		s.notify(responder, requestor, models.NotificationSystem, responder+" rejected your follow request.")
		s.log.Info(ctx, "follow request rejected", "client", responder, "requestor", requestor)
		return nil

	default:
		return ErrInvalidChoice
	}
}

// Unfollow removes the requester -> target edge.
func (s *SocialService) Unfollow(ctx context.Context, requester, target string) error {
	if !s.graph.Exists(target) {
		return fmt.Errorf("client %s: %w", target, common.ErrorNotFound)
	}
	if err := s.graph.RemoveEdge(requester, target); err != nil {
		if errors.Is(err, common.ErrEdgeNotFound) {
			return fmt.Errorf("%w: %w", common.ErrNotFollowing, err)
		}
		return err
	}

	s.notify(requester, target, models.NotificationSystem, requester+" has unfollowed you.")
	s.log.Info(ctx, "client unfollowed", "client", requester, "target", target)
	return nil
}

// AccessProfile returns target's profile timeline. The owner is told about
// every view and every denied attempt.
func (s *SocialService) AccessProfile(ctx context.Context, requester, target string) ([]string, error) {
	if !s.graph.Exists(target) {
		return nil, fmt.Errorf("client %s: %w", target, common.ErrorNotFound)
	}
	if !s.graph.IsFollowing(requester, target) {
		s.notify(requester, target, models.NotificationSystem,
			requester+" attempted to view your profile but was denied (not following you).")
		s.log.Warn(ctx, "profile access denied", "client", requester, "target", target)
		return nil, fmt.Errorf("%s -> %s: %w", requester, target, common.ErrNotFollowing)
	}

	lines, err := s.repomanager.Profiles(s.db).Lines(ctx, target, models.TimelineProfile)
	if err != nil {
		return nil, fmt.Errorf("error reading profile: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("client %s: %w", target, ErrProfileNotFound)
	}

	s.notify(requester, target, models.NotificationSystem, requester+" viewed your profile.")
	return lines, nil
}

// Post appends a timestamped line to author's profile, notifies followers
// and returns the stored line.
func (s *SocialService) Post(ctx context.Context, author, content string) (string, error) {
	line := s.stamp() + " " + content
	if err := s.appendLines(ctx, author, models.TimelineProfile, line); err != nil {
		return "", fmt.Errorf("error updating profile: %w", err)
	}
	s.fanOut(ctx, author, author+" posted: "+line)
	return line, nil
}

// Repost copies a post into reposter's others timeline, with an optional
// comment line, and notifies reposter's followers.
func (s *SocialService) Repost(ctx context.Context, reposter, origin, content, comment string) error {
	ts := s.stamp()
	lines := []string{ts + " REPOST from " + origin + ": " + content}
	if comment != "" {
		lines = append(lines, ts+" COMMENT: "+comment)
	}
	if err := s.appendLines(ctx, reposter, models.TimelineOthers, lines...); err != nil {
		return fmt.Errorf("error updating timeline: %w", err)
	}

	msg := reposter + " reposted from " + origin + ": " + content
	if comment != "" {
		msg += " with comment: " + comment
	}
	s.fanOut(ctx, reposter, msg)
	return nil
}

// AskComment asks target to approve a comment. Only followers may ask.
func (s *SocialService) AskComment(ctx context.Context, requester, target, comment string) error {
	if !s.graph.Exists(target) {
		return fmt.Errorf("client %s: %w", target, common.ErrorNotFound)
	}
	if !s.graph.IsFollowing(requester, target) {
		return fmt.Errorf("%s -> %s: %w", requester, target, common.ErrNotFollowing)
	}

	s.notify(requester, target, models.NotificationCommentRequest, requester+" wants to post comment: "+comment)
	return nil
}

// ApproveComment answers a comment request. A comment whose script does not
// match the approver's language is rejected whatever the decision was.
// It reports whether the comment ended up approved.
func (s *SocialService) ApproveComment(ctx context.Context, approver string, lang models.Language, requestor, decision, comment string) (bool, error) {
	if !s.graph.Exists(requestor) {
		return false, fmt.Errorf("client %s: %w", requestor, common.ErrorNotFound)
	}

	approved := strings.EqualFold(strings.TrimSpace(decision), "yes")
	if approved && !MatchesLanguage(comment, lang) {
		s.log.Info(ctx, "comment language mismatch, rejecting", "client", approver, "requestor", requestor)
		approved = false
	}

	verb := " rejected your comment: "
	if approved {
		verb = " approved your comment: "
	}
	s.notify(approver, requestor, models.NotificationCommentResponse, approver+verb+comment)
	return approved, nil
}

// Comment records a comment on target's post in commenter's profile and
// delivers it to the followers of both.
func (s *SocialService) Comment(ctx context.Context, commenter, target, comment string) (string, error) {
	if !s.graph.Exists(target) {
		return "", fmt.Errorf("client %s: %w", target, common.ErrorNotFound)
	}

	line := s.stamp() + " " + commenter + " commented on " + target + "'s post: " + comment
	if err := s.appendLines(ctx, commenter, models.TimelineProfile, line); err != nil {
		return "", fmt.Errorf("error updating profile: %w", err)
	}

	seen := make(map[string]struct{})
	for _, follower := range append(s.graph.Followers(commenter), s.graph.Followers(target)...) {
		if _, ok := seen[follower]; ok {
			continue
		}
		seen[follower] = struct{}{}

		s.notify(commenter, follower, models.NotificationPost, commenter+" posted: "+line)
		if err := s.appendLines(ctx, follower, models.TimelineOthers, line); err != nil {
			s.log.Error(ctx, "error updating follower timeline", "follower", follower, "error", err)
		}
	}
	return line, nil
}

// Notifications returns receiver's active mailbox entries.
func (s *SocialService) Notifications(receiver string) []models.Notification {
	return s.notes.Active(receiver)
}

// MarkRead marks the given entries read; pending requests are left as is.
func (s *SocialService) MarkRead(receiver string, ids ...int64) int {
	return s.notes.MarkRead(receiver, ids...)
}

// MatchesLanguage is the script heuristic used for comment approval: Greek
// preference requires at least one Greek letter, any other preference
// requires none.
func MatchesLanguage(text string, lang models.Language) bool {
	hasGreek := strings.IndexFunc(text, func(r rune) bool {
		return unicode.Is(unicode.Greek, r)
	}) >= 0

	if lang == models.LangGR {
		return hasGreek
	}
	return !hasGreek
}
