package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/server/models"
	"github.com/dmitrijs2005/socialnet/internal/server/notifications"
	"github.com/dmitrijs2005/socialnet/internal/server/permissions"
	"github.com/dmitrijs2005/socialnet/internal/server/storage"
	"github.com/dmitrijs2005/socialnet/internal/transfer"
)

// UploadRequest is the parsed header of an upload command.
type UploadRequest struct {
	Owner         string
	Name          string
	DescriptionEN string
	DescriptionGR string
}

// PhotoDetails is what photo_details reports about a photo.
type PhotoDetails struct {
	models.Photo
	Descriptions map[models.Language]string
}

// ContentService implements photo upload, search, the photo permission
// workflow and the download authorization.
type ContentService struct {
	*feed
	perms         *permissions.Store
	storage       *storage.Store
	maxUploadSize int64
}

func NewContentService(d Deps, maxUploadSize int64) *ContentService {
	return &ContentService{
		feed:          newFeed(d),
		perms:         d.Permissions,
		storage:       d.Storage,
		maxUploadSize: maxUploadSize,
	}
}

// ValidateUpload checks an upload header before any bytes are exchanged.
func (s *ContentService) ValidateUpload(req UploadRequest) error {
	if req.DescriptionEN == "" && req.DescriptionGR == "" {
		return ErrNoDescription
	}
	if req.Name == "" {
		return ErrEmptyFileName
	}
	if err := models.ValidatePhotoName(req.Name); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFileName, err)
	}
	return nil
}

// ValidateSize checks an announced upload size.
func (s *ContentService) ValidateSize(size int64) error {
	if size < 0 {
		return ErrInvalidSize
	}
	if size > s.maxUploadSize {
		return ErrFileTooLarge
	}
	return nil
}

// Upload stores the photo and its descriptions, records the upload in the
// owner's profile, notifies followers and adds a feed entry to each
// follower's others timeline in that follower's language.
func (s *ContentService) Upload(ctx context.Context, req UploadRequest, data []byte) (string, error) {
	if err := s.ValidateUpload(req); err != nil {
		return "", err
	}
	if err := s.ValidateSize(int64(len(data))); err != nil {
		return "", err
	}

	if err := s.storage.PutPhoto(ctx, req.Owner, req.Name, data); err != nil {
		return "", fmt.Errorf("error storing photo: %w", err)
	}
	descs := make(map[models.Language]string, 2)
	if req.DescriptionEN != "" {
		descs[models.LangEN] = req.DescriptionEN
	}
	if req.DescriptionGR != "" {
		descs[models.LangGR] = req.DescriptionGR
	}
	for lang, text := range descs {
		if err := s.storage.PutDescription(ctx, req.Owner, req.Name, lang, text); err != nil {
			return "", fmt.Errorf("error storing description: %w", err)
		}
	}

	line := s.stamp() + " " + req.Owner + " posted " + req.Name
	if err := s.appendLines(ctx, req.Owner, models.TimelineProfile, line); err != nil {
		return "", fmt.Errorf("error updating profile: %w", err)
	}
	s.log.Info(ctx, "photo uploaded", "client", req.Owner, "file", req.Name, "bytes", len(data))

	for _, follower := range s.fanOut(ctx, req.Owner, req.Owner+" posted: "+line) {
		entry := []string{line}
		if _, text, ok := PickDescription(descs, s.language(ctx, follower)); ok {
			entry = append(entry, text)
		}
		if err := s.appendLines(ctx, follower, models.TimelineOthers, entry...); err != nil {
			s.log.Error(ctx, "error updating follower timeline", "follower", follower, "error", err)
		}
	}
	return line, nil
}

// Search returns the followed identities that own a photo called name, and
// when lang is set, also hold a description in that language.
func (s *ContentService) Search(ctx context.Context, requester, name, lang string) ([]string, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyFileName
	}

	var filter models.Language
	if lang != "" {
		l, err := models.ParseLanguage(lang)
		if err != nil {
			return nil, err
		}
		filter = l
	}

	following := s.graph.Following(requester)
	if len(following) == 0 {
		return nil, ErrNotFollowingAnyone
	}
	if err := models.ValidatePhotoName(name); err != nil {
		return nil, nil
	}

	var owners []string
	for _, owner := range following {
		ok, err := s.storage.PhotoExists(ctx, owner, name)
		if err != nil {
			return nil, fmt.Errorf("error searching photos: %w", err)
		}
		if !ok {
			continue
		}
		if filter != "" {
			_, has, err := s.storage.Description(ctx, owner, name, filter)
			if err != nil {
				return nil, fmt.Errorf("error searching photos: %w", err)
			}
			if !has {
				continue
			}
		}
		owners = append(owners, owner)
	}

	s.log.Info(ctx, "photo search", "client", requester, "file", name, "lang", lang, "results", len(owners))
	return owners, nil
}

// AskPhoto leaves a pending photo request for file in owner's mailbox.
func (s *ContentService) AskPhoto(ctx context.Context, requester, owner, file string) error {
	if err := s.checkPhotoAccess(ctx, requester, owner, file); err != nil {
		return err
	}

	_, err := s.notes.AddRequest(models.Notification{
		Sender:   requester,
		Receiver: owner,
		Type:     models.NotificationPhotoRequest,
		Subject:  file,
		Content:  "wants to download " + file + ".",
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "photo request sent", "client", requester, "owner", owner, "file", file)
	return nil
}

// PermitPhoto resolves requester's pending request for file. On approval a
// single-use download grant is stored.
func (s *ContentService) PermitPhoto(ctx context.Context, owner, requester, file, decision string) (bool, error) {
	var (
		granted bool
		status  models.Status
	)
	switch strings.ToLower(strings.TrimSpace(decision)) {
	case "yes":
		granted, status = true, models.StatusAccepted
	case "no":
		status = models.StatusRejected
	default:
		return false, ErrInvalidChoice
	}

	q := notifications.Query{
		Sender:   requester,
		Receiver: owner,
		Type:     models.NotificationPhotoRequest,
		Subject:  file,
	}
	if _, err := s.notes.Resolve(q, status); err != nil {
		return false, fmt.Errorf("photo request from %s for %s: %w: %w", requester, file, ErrNoPendingRequest, err)
	}

	content := owner + " denied your request to download " + file + "."
	if granted {
		s.perms.Grant(owner, file, requester)
		content = owner + " granted your request to download " + file + "."
	}
	s.notes.Add(models.Notification{
		Sender:   owner,
		Receiver: requester,
		Type:     models.NotificationPhotoResponse,
		Subject:  file,
		Content:  content,
	})

	s.log.Info(ctx, "photo request resolved", "client", owner, "requester", requester, "file", file, "granted", granted)
	return granted, nil
}

// Details returns size, checksum and descriptions of owner's photo.
func (s *ContentService) Details(ctx context.Context, requester, owner, file string) (*PhotoDetails, error) {
	if err := s.checkPhotoAccess(ctx, requester, owner, file); err != nil {
		return nil, err
	}

	photo, err := s.storage.Stat(ctx, owner, file)
	if err != nil {
		return nil, fmt.Errorf("error reading photo: %w", err)
	}
	descs, err := s.storage.Descriptions(ctx, owner, file)
	if err != nil {
		return nil, fmt.Errorf("error reading descriptions: %w", err)
	}
	return &PhotoDetails{Photo: photo, Descriptions: descs}, nil
}

// AuthorizeDownload runs the download checks in order: the source exists,
// the requester follows it, the photo exists, and a grant is held. The grant
// is consumed by a successful call.
func (s *ContentService) AuthorizeDownload(ctx context.Context, requester, file, source string) error {
	if !s.graph.Exists(source) {
		return fmt.Errorf("client %s: %w", source, common.ErrorNotFound)
	}
	if !s.graph.IsFollowing(requester, source) {
		s.notify(requester, source, models.NotificationSystem,
			requester+" attempted to download "+file+" but was denied (not following you).")
		return fmt.Errorf("%s -> %s: %w", requester, source, common.ErrNotFollowing)
	}
	if err := s.photoExists(ctx, source, file); err != nil {
		return err
	}
	if err := s.perms.CheckAndConsume(source, file, requester); err != nil {
		return err
	}
	return nil
}

// Payload loads the photo and picks the description for lang.
func (s *ContentService) Payload(ctx context.Context, source, file string, lang models.Language) (transfer.Payload, error) {
	data, err := s.storage.GetPhoto(ctx, source, file)
	if err != nil {
		return transfer.Payload{}, fmt.Errorf("error reading photo: %w", err)
	}
	descs, err := s.storage.Descriptions(ctx, source, file)
	if err != nil {
		return transfer.Payload{}, fmt.Errorf("error reading descriptions: %w", err)
	}

	p := transfer.Payload{Data: data}
	if _, text, ok := PickDescription(descs, lang); ok {
		p.Description, p.HasDescription = text, true
	}
	return p, nil
}

// CompleteDownload copies a transferred photo and its descriptions into the
// requester's storage, keeping copies that already exist, and records the
// download in the requester's profile.
func (s *ContentService) CompleteDownload(ctx context.Context, requester, file, source string) error {
	if requester != source {
		if err := s.copyPhoto(ctx, requester, file, source); err != nil {
			return err
		}
	}

	line := s.stamp() + " " + requester + " downloaded " + file + " from " + source
	if err := s.appendLines(ctx, requester, models.TimelineProfile, line); err != nil {
		return fmt.Errorf("error updating profile: %w", err)
	}
	return nil
}

func (s *ContentService) copyPhoto(ctx context.Context, requester, file, source string) error {
	exists, err := s.storage.PhotoExists(ctx, requester, file)
	if err != nil {
		return err
	}
	if !exists {
		data, err := s.storage.GetPhoto(ctx, source, file)
		if err != nil {
			return fmt.Errorf("error reading photo: %w", err)
		}
		if err := s.storage.PutPhoto(ctx, requester, file, data); err != nil {
			return fmt.Errorf("error copying photo: %w", err)
		}
	}

	descs, err := s.storage.Descriptions(ctx, source, file)
	if err != nil {
		return fmt.Errorf("error reading descriptions: %w", err)
	}
	for lang, text := range descs {
		_, has, err := s.storage.Description(ctx, requester, file, lang)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if err := s.storage.PutDescription(ctx, requester, file, lang, text); err != nil {
			return fmt.Errorf("error copying description: %w", err)
		}
	}
	return nil
}

// checkPhotoAccess requires owner to exist, requester to follow owner (or be
// owner) and the photo to exist.
func (s *ContentService) checkPhotoAccess(ctx context.Context, requester, owner, file string) error {
	if !s.graph.Exists(owner) {
		return fmt.Errorf("client %s: %w", owner, common.ErrorNotFound)
	}
	if requester != owner && !s.graph.IsFollowing(requester, owner) {
		return fmt.Errorf("%s -> %s: %w", requester, owner, common.ErrNotFollowing)
	}
	return s.photoExists(ctx, owner, file)
}

func (s *ContentService) photoExists(ctx context.Context, owner, file string) error {
	if err := models.ValidatePhotoName(file); err != nil {
		return fmt.Errorf("%s/%s: %w", owner, file, ErrPhotoNotFound)
	}
	ok, err := s.storage.PhotoExists(ctx, owner, file)
	if err != nil {
		return fmt.Errorf("error checking photo: %w", err)
	}
	if !ok {
		return fmt.Errorf("%s/%s: %w", owner, file, ErrPhotoNotFound)
	}
	return nil
}

// PickDescription chooses the description to deliver: the preferred Greek
// text when available, otherwise English, otherwise Greek.
func PickDescription(descs map[models.Language]string, pref models.Language) (models.Language, string, bool) {
	if pref == models.LangGR {
		if text, ok := descs[models.LangGR]; ok {
			return models.LangGR, text, true
		}
	}
	if text, ok := descs[models.LangEN]; ok {
		return models.LangEN, text, true
	}
	if text, ok := descs[models.LangGR]; ok {
		return models.LangGR, text, true
	}
	return "", "", false
}
