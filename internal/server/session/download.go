package session

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/socialnet/internal/common"
	"github.com/dmitrijs2005/socialnet/internal/server/services"
)

const (
	msgHandshakeInit = "HANDSHAKE_INIT"
	msgSynAck        = "SYN_ACK"
	msgTransferReady = "TRANSFER_READY"
)

// download authorizes a download and records it as pending. The grant is
// consumed here, so a handshake that is never completed spends it.
func (s *session) download(ctx context.Context, params string) error {
	file, source, ok := strings.Cut(params, ":")
	file, source = trim(file), trim(source)
	if !ok || file == "" || source == "" {
		return s.reply("ERROR:Invalid parameters format. Expected 'fileName:sourceClientID'")
	}

	err := s.h.svc.Content.AuthorizeDownload(ctx, s.st.id, file, source)
	switch {
	case errors.Is(err, services.ErrPhotoNotFound):
		return s.reply("ERROR:File " + file + " not found in client " + source + "'s directory")
	case errors.Is(err, common.ErrorNotFound):
		return s.reply("ERROR:Source client " + source + " does not exist")
	case errors.Is(err, common.ErrNotFollowing):
		s.log.Warn(ctx, "download denied", "source", source, "file", file, "reason", "not following")
		return s.reply("ERROR:You are not following client " + source)
	case errors.Is(err, common.ErrNoGrant):
		s.log.Warn(ctx, "download denied", "source", source, "file", file, "reason", "no grant")
		return s.reply("ERROR:No download permission for " + file + " from client " + source + ". Request it with ask_photo first.")
	case err != nil:
		s.log.Error(ctx, "download authorization failed", "source", source, "file", file, "error", err)
		return s.reply("ERROR:" + err.Error())
	}

	s.st.setPendingDownload(file, source)
	s.log.Info(ctx, "download authorized", "source", source, "file", file)
	return s.reply(msgHandshakeInit)
}

func (s *session) downloadSyn(ctx context.Context, id string) error {
	token, err := s.st.beginHandshake(s.h.issuer, id)
	switch {
	case errors.Is(err, common.ErrClientMismatch):
		s.log.Warn(ctx, "handshake client mismatch", "received", id)
		return s.reply("ERROR:Client ID mismatch")
	case errors.Is(err, common.ErrNoPendingDownload):
		return s.reply("ERROR:No pending download request")
	case err != nil:
		s.log.Error(ctx, "issuing handshake token failed", "error", err)
		return s.reply("ERROR:" + err.Error())
	}

	s.log.Debug(ctx, "handshake started", "seq", s.st.seq)
	return s.reply(msgSynAck + ":" + token)
}

func (s *session) downloadAck(ctx context.Context, params string) error {
	parts := strings.SplitN(params, ":", 3)
	if len(parts) != 3 {
		s.st.abortHandshake()
		return s.reply("ERROR:Invalid ACK parameters")
	}

	d, err := s.st.completeHandshake(s.h.issuer, trim(parts[0]), trim(parts[1]), trim(parts[2]))
	switch {
	case errors.Is(err, common.ErrTargetMismatch):
		s.log.Warn(ctx, "handshake target mismatch", "file", parts[1], "source", parts[2])
		return s.reply("ERROR:File or source client mismatch")
	case err != nil:
		s.log.Warn(ctx, "handshake sequence mismatch", "error", err)
		return s.reply("ERROR:Sequence number mismatch")
	}

	if err := s.reply(msgTransferReady); err != nil {
		return err
	}
	return s.transfer(ctx, d)
}

// transfer runs the chunked exchange for a completed handshake. Protocol
// violations and transfer failures end the download only.
func (s *session) transfer(ctx context.Context, d pendingDownload) error {
	log := s.log.With("source", d.source, "file", d.file)
	content := s.h.svc.Content

	payload, err := content.Payload(ctx, d.source, d.file, s.st.lang)
	if err != nil {
		log.Error(ctx, "loading photo failed", "error", err)
		return s.reply("ERROR:Photo file not found")
	}

	log.Info(ctx, "transfer started", "bytes", len(payload.Data))
	err = s.h.sender.Send(ctx, s.conn, payload)
	switch {
	case errors.Is(err, common.ErrProtocolViolation), errors.Is(err, common.ErrTransferFailed):
		log.Warn(ctx, "transfer aborted", "error", err)
		return nil
	case err != nil:
		return err
	}
	log.Info(ctx, "transfer completed")

	if err := content.CompleteDownload(ctx, s.st.id, d.file, d.source); err != nil {
		log.Error(ctx, "post-transfer copy failed", "error", err)
	}
	return nil
}
