package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/server/models"
	"github.com/dmitrijs2005/socialnet/internal/server/services"
)

func (s *session) upload(ctx context.Context, params string) error {
	parts := strings.SplitN(params, ":", 3)
	if len(parts) < 2 {
		return s.reply("Error: Invalid parameters format. Expected 'filename:description_en[:description_gr]'")
	}
	req := services.UploadRequest{
		Owner:         s.st.id,
		Name:          trim(parts[0]),
		DescriptionEN: trim(parts[1]),
	}
	if len(parts) == 3 {
		req.DescriptionGR = trim(parts[2])
	}

	content := s.h.svc.Content
	switch err := content.ValidateUpload(req); {
	case errors.Is(err, services.ErrNoDescription):
		return s.reply("Error: At least one description (EN or GR) must be provided")
	case errors.Is(err, services.ErrEmptyFileName):
		return s.reply("Error: File name cannot be empty")
	case err != nil:
		return s.reply("Error: Invalid file name")
	}

	if err := s.reply("READY_FOR_PHOTO"); err != nil {
		return err
	}
	sizeLine, err := s.conn.ReadLine()
	if err != nil {
		return err
	}
	size, err := strconv.ParseInt(trim(sizeLine), 10, 64)
	if err != nil {
		return s.reply("ERROR:Invalid file size format")
	}
	switch err := content.ValidateSize(size); {
	case errors.Is(err, services.ErrFileTooLarge):
		return s.reply("ERROR:File too large")
	case err != nil:
		return s.reply("ERROR:Invalid file size format")
	}

	if err := s.reply("START_SENDING"); err != nil {
		return err
	}
	data, err := s.conn.ReadFull(size)
	if err != nil {
		return err
	}

	if _, err := content.Upload(ctx, req, data); err != nil {
		s.log.Error(ctx, "upload failed", "file", req.Name, "error", err)
		return s.reply("ERROR:" + err.Error())
	}
	return s.reply("SUCCESS:Photo and description uploaded successfully. Profile updated.")
}

func (s *session) search(ctx context.Context, params string) error {
	name, lang, _ := strings.Cut(params, ":")
	name, lang = trim(name), strings.ToLower(trim(lang))

	owners, err := s.h.svc.Content.Search(ctx, s.st.id, name, lang)
	switch {
	case errors.Is(err, services.ErrEmptyFileName):
		return s.reply("ERROR:Please provide a valid file name to search for")
	case errors.Is(err, common.ErrorValidation):
		return s.reply("ERROR:Invalid language. Use 'en' or 'gr'")
	case errors.Is(err, services.ErrNotFollowingAnyone):
		return s.reply("RESULT:You are not following any users. No search results.")
	case err != nil:
		s.log.Error(ctx, "search failed", "file", name, "error", err)
		return s.reply("ERROR:Failed to search for photo: " + err.Error())
	case len(owners) == 0:
		return s.reply("RESULT:No matching photos found in your social graph.")
	}
	return s.reply(searchResult(name, owners))
}

// searchResult renders owners on one line using the ##ENTRIES## and
// ##NEWLINE## separators the client expands.
func searchResult(name string, owners []string) string {
	entries := make([]string, 0, len(owners))
	for i, owner := range owners {
		entries = append(entries, fmt.Sprintf("%d. Client ID: %s - File: %s", i+1, owner, name))
	}
	return fmt.Sprintf("RESULT:%d result(s) found:##ENTRIES##%s", len(owners), strings.Join(entries, "##NEWLINE##"))
}

func (s *session) askPhoto(ctx context.Context, params string) error {
	owner, file, ok := strings.Cut(params, ":")
	if !ok {
		return s.reply("Error: Invalid parameters. Expected 'ownerID:fileName'")
	}
	owner, file = trim(owner), trim(file)

	err := s.h.svc.Content.AskPhoto(ctx, s.st.id, owner, file)
	switch {
	case err == nil:
		return s.reply("Photo request sent to client " + owner + " for file " + file + ".")
	case errors.Is(err, services.ErrPhotoNotFound):
		return s.reply("Error: File " + file + " not found in client " + owner + "'s directory")
	case errors.Is(err, common.ErrorNotFound):
		return s.reply("Error: Client " + owner + " does not exist.")
	case errors.Is(err, common.ErrNotFollowing):
		return s.reply("Error: You must follow " + owner + " to request their photos.")
	case errors.Is(err, common.ErrorAlreadyExists):
		return s.reply("Error: A photo request for " + file + " is already pending")
	default:
		s.log.Error(ctx, "photo request failed", "owner", owner, "file", file, "error", err)
		return s.reply("Error: " + err.Error())
	}
}

func (s *session) permitPhoto(ctx context.Context, params string) error {
	parts := strings.SplitN(params, ":", 3)
	if len(parts) < 3 {
		return s.reply("Error: Invalid parameters. Expected 'requesterID:fileName:yes|no'")
	}
	requester, file, decision := trim(parts[0]), trim(parts[1]), trim(parts[2])

	granted, err := s.h.svc.Content.PermitPhoto(ctx, s.st.id, requester, file, decision)
	switch {
	case errors.Is(err, services.ErrInvalidChoice):
		return s.reply("Error: Invalid choice. Expected yes or no.")
	case errors.Is(err, common.ErrorNotFound):
		return s.reply("Error: No pending photo request from client " + requester + " for " + file)
	case err != nil:
		return s.reply("Error: " + err.Error())
	case granted:
		return s.reply("You granted " + requester + " permission to download " + file + ".")
	default:
		return s.reply("You denied " + requester + "'s request to download " + file + ".")
	}
}

func (s *session) photoDetails(ctx context.Context, params string) error {
	owner, file, ok := strings.Cut(params, ":")
	if !ok {
		return s.reply("ERROR:Invalid parameters. Expected 'ownerID:fileName'")
	}
	owner, file = trim(owner), trim(file)

	det, err := s.h.svc.Content.Details(ctx, s.st.id, owner, file)
	switch {
	case errors.Is(err, services.ErrPhotoNotFound):
		return s.reply("ERROR:File " + file + " not found in client " + owner + "'s directory")
	case errors.Is(err, common.ErrorNotFound):
		return s.reply("ERROR:Client " + owner + " does not exist.")
	case errors.Is(err, common.ErrNotFollowing):
		return s.reply("ERROR:You must follow " + owner + " to view photo details")
	case err != nil:
		s.log.Error(ctx, "photo details failed", "owner", owner, "file", file, "error", err)
		return s.reply("ERROR:" + err.Error())
	}

	lines := []string{
		"PHOTO_DETAILS_START",
		"Owner: " + det.Owner,
		"File: " + det.Name,
		fmt.Sprintf("Size: %d bytes", det.Size),
		"Checksum: " + det.Checksum,
	}
	for _, lang := range models.Languages {
		if text, ok := det.Descriptions[lang]; ok {
			lines = append(lines, fmt.Sprintf("Description (%s): %s", lang, text))
		}
	}
	lines = append(lines, "PHOTO_DETAILS_END")
	return s.reply(lines...)
}
