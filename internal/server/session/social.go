package session

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/server/notifications"
	"github.com/dmitrijs2005/socialnet/internal/server/services"
)

const msgContinueReading = "continue_reading"

func (s *session) post(ctx context.Context, content string) error {
	line, err := s.h.svc.Social.Post(ctx, s.st.id, content)
	if err != nil {
		s.log.Error(ctx, "post failed", "error", err)
		return s.reply("Error creating post: " + err.Error())
	}
	return s.reply("Post created successfully! Your profile has been updated with: " + line)
}

func (s *session) repost(ctx context.Context, params string) error {
	parts := strings.SplitN(params, ":", 3)
	if len(parts) < 3 {
		return s.reply("ERROR:Invalid parameters format. Expected 'originalSenderID:postContent:comment'")
	}
	origin, content, comment := trim(parts[0]), trim(parts[1]), trim(parts[2])

	if err := s.h.svc.Social.Repost(ctx, s.st.id, origin, content, comment); err != nil {
		s.log.Error(ctx, "repost failed", "error", err)
		return s.reply("ERROR:" + err.Error())
	}
	return s.reply("SUCCESS:Repost created successfully!")
}

func (s *session) followRequest(ctx context.Context, target string) error {
	err := s.h.svc.Social.RequestFollow(ctx, s.st.id, target)
	switch {
	case err == nil:
		return s.reply("Follow request sent to client " + target + ". Waiting for their response.")
	case errors.Is(err, common.ErrorNotFound):
		return s.reply("Error: Client " + target + " does not exist.")
	case errors.Is(err, common.ErrorAlreadyExists):
		return s.reply("Error: A follow request to " + target + " is already pending")
	default:
		s.log.Error(ctx, "follow request failed", "target", target, "error", err)
		return s.reply("Error: " + err.Error())
	}
}

func (s *session) followResponse(ctx context.Context, params string) error {
	requestor, choice, ok := strings.Cut(params, ":")
	if !ok {
		return s.reply("Error: Invalid parameters format. Expected 'senderID:choice'")
	}
	requestor, choice = trim(requestor), trim(choice)

	err := s.h.svc.Social.RespondFollow(ctx, s.st.id, requestor, services.FollowChoice(choice))
	switch {
	case errors.Is(err, services.ErrNoPendingRequest):
		return s.reply("Error: No pending follow request from client " + requestor)
	case errors.Is(err, services.ErrInvalidChoice):
		return s.reply("Error: Invalid choice. Expected 1, 2, or 3.")
	case errors.Is(err, common.ErrPartialFollowBack):
		return s.reply("Error: You accepted the follow request from " + requestor + " but following them back failed. Please try again.")
	case err != nil:
		s.log.Error(ctx, "follow response failed", "requestor", requestor, "error", err)
		return s.reply("Error creating follow relationship. Please try again.")
	}

	switch services.FollowChoice(choice) {
	case services.FollowBack:
		return s.reply("You are now following " + requestor + " and they are following you.")
	case services.FollowAccept:
		return s.reply("You accepted the follow request from " + requestor)
	default:
		return s.reply("You rejected the follow request from " + requestor)
	}
}

func (s *session) unfollow(ctx context.Context, target string) error {
	err := s.h.svc.Social.Unfollow(ctx, s.st.id, target)
	switch {
	case err == nil:
		return s.reply("You have unfollowed client " + target + ".")
	case errors.Is(err, common.ErrNotFollowing):
		return s.reply("Error: You are not following client " + target + ".")
	case errors.Is(err, common.ErrorNotFound):
		return s.reply("Error: Client " + target + " does not exist.")
	default:
		s.log.Error(ctx, "unfollow failed", "target", target, "error", err)
		return s.reply("Error: Failed to unfollow client " + target + ". Please try again.")
	}
}

func (s *session) accessProfile(ctx context.Context, target string) error {
	lines, err := s.h.svc.Social.AccessProfile(ctx, s.st.id, target)
	switch {
	case err == nil:
		out := make([]string, 0, len(lines)+2)
		out = append(out, "PROFILE_START")
		out = append(out, lines...)
		out = append(out, "PROFILE_END")
		return s.reply(out...)
	case errors.Is(err, services.ErrProfileNotFound):
		return s.reply("ERROR:Profile for client " + target + " not found.")
	case errors.Is(err, common.ErrorNotFound):
		return s.reply("ERROR:Client " + target + " does not exist.")
	case errors.Is(err, common.ErrNotFollowing):
		return s.reply("DENIED:You do not have permission to access the profile of client " + target + ". You must follow them first.")
	default:
		s.log.Error(ctx, "profile read failed", "target", target, "error", err)
		return s.reply("ERROR:Failed to read profile: " + err.Error())
	}
}

func (s *session) askComment(ctx context.Context, params string) error {
	target, comment, ok := strings.Cut(params, ":")
	if !ok {
		return s.reply("Error: Invalid parameters. Expected 'targetID:comment'")
	}
	target, comment = trim(target), trim(comment)

	err := s.h.svc.Social.AskComment(ctx, s.st.id, target, comment)
	switch {
	case err == nil:
		return s.reply("Comment request sent to " + target + ".")
	case errors.Is(err, common.ErrorNotFound):
		return s.reply("Error: Client " + target + " does not exist.")
	case errors.Is(err, common.ErrNotFollowing):
		return s.reply("Error: You must follow " + target + " to comment on their posts.")
	default:
		return s.reply("Error: " + err.Error())
	}
}

func (s *session) approveComment(ctx context.Context, params string) error {
	parts := strings.SplitN(params, ":", 3)
	if len(parts) < 2 {
		return s.reply("Error: Invalid parameters. Expected 'requestorID:response:comment'")
	}
	requestor, decision := trim(parts[0]), trim(parts[1])
	var comment string
	if len(parts) == 3 {
		comment = trim(parts[2])
	}

	_, err := s.h.svc.Social.ApproveComment(ctx, s.st.id, s.st.lang, requestor, decision, comment)
	switch {
	case err == nil:
		return s.reply("Your response has been sent to " + requestor + ".")
	case errors.Is(err, common.ErrorNotFound):
		return s.reply("Error: Client " + requestor + " does not exist.")
	default:
		return s.reply("Error: " + err.Error())
	}
}

func (s *session) comment(ctx context.Context, params string) error {
	target, comment, ok := strings.Cut(params, ":")
	if !ok {
		return s.reply("Error: Invalid parameters. Expected 'targetID:comment'")
	}
	target, comment = trim(target), trim(comment)

	line, err := s.h.svc.Social.Comment(ctx, s.st.id, target, comment)
	switch {
	case err == nil:
		return s.reply("COMMENT_POSTED:" + line)
	case errors.Is(err, common.ErrorNotFound):
		return s.reply("Error: Client " + target + " does not exist.")
	default:
		s.log.Error(ctx, "comment failed", "target", target, "error", err)
		return s.reply("Error: " + err.Error())
	}
}

// notifications sends the first active entry and, if the client asks with
// continue_reading, the rest followed by END_OF_NOTIFICATIONS. Entries are
// marked read only once they have been sent.
func (s *session) notifications(ctx context.Context, _ string) error {
	list := s.h.svc.Social.Notifications(s.st.id)
	if len(list) == 0 {
		return s.reply("No notifications.")
	}

	if err := s.reply(notifications.Format(list[0])); err != nil {
		return err
	}
	s.h.svc.Social.MarkRead(s.st.id, list[0].ID)

	answer, err := s.conn.ReadLine()
	if err != nil {
		return err
	}
	if answer != msgContinueReading {
		// not part of the exchange; dispatch it as the next command
		s.unread = &answer
		return nil
	}

	out := make([]string, 0, len(list))
	ids := make([]int64, 0, len(list)-1)
	for _, n := range list[1:] {
		out = append(out, notifications.Format(n))
		ids = append(ids, n.ID)
	}
	out = append(out, "END_OF_NOTIFICATIONS")
	if err := s.reply(out...); err != nil {
		return err
	}
	s.h.svc.Social.MarkRead(s.st.id, ids...)
	return nil
}

func (s *session) setLanguage(ctx context.Context, raw string) error {
	lang, err := s.h.svc.Accounts.SetLanguage(ctx, s.st.id, raw)
	switch {
	case errors.Is(err, common.ErrorValidation):
		return s.reply("ERROR:Invalid language. Use 'en' or 'gr'")
	case err != nil:
		s.log.Error(ctx, "saving language failed", "error", err)
		return s.reply("ERROR:" + err.Error())
	}
	s.st.lang = lang
	return s.reply("SUCCESS:Language preference updated to " + string(lang))
}

func (s *session) sync(ctx context.Context, id string) error {
	if id != s.st.id {
		return s.reply("Error: Client ID mismatch")
	}
	if err := s.h.svc.Sync.Synchronize(ctx, id); err != nil {
		s.log.Error(ctx, "synchronization failed", "error", err)
		return s.reply("Synchronization failed or was incomplete")
	}
	return s.reply("Data synchronized successfully")
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
