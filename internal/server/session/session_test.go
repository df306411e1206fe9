package session

import (
	"context"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/logging"
	"github.com/dmitrijs2005/socialnet/internal/netx"
	"github.com/dmitrijs2005/socialnet/internal/server/auth"
	"github.com/dmitrijs2005/socialnet/internal/server/catalog"
	"github.com/dmitrijs2005/socialnet/internal/server/graph"
	"github.com/dmitrijs2005/socialnet/internal/server/models"
	"github.com/dmitrijs2005/socialnet/internal/server/notifications"
	"github.com/dmitrijs2005/socialnet/internal/server/permissions"
	"github.com/dmitrijs2005/socialnet/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/socialnet/internal/server/services"
	"github.com/dmitrijs2005/socialnet/internal/server/storage"
	"github.com/dmitrijs2005/socialnet/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const readTimeout = 5 * time.Second

type harness struct {
	deps    services.Deps
	catalog *catalog.Catalog
	addr    string
}

// newHarness serves a Handler on a loopback listener. Loopback TCP is used
// instead of net.Pipe because the transfer relies on buffered writes.
func newHarness(t *testing.T) *harness {
	t.Helper()

	b, err := storage.NewFSBackend(t.TempDir())
	require.NoError(t, err)
	deps := services.Deps{
		Repos:         repomanager.NewInMemoryRepositoryManager(),
		Graph:         graph.NewStore(),
		Notifications: notifications.NewStore(),
		Permissions:   permissions.NewStore(),
		Storage:       storage.New(b),
		Log:           logging.NewDiscardLogger(),
	}
	issuer, err := auth.NewHandshakeIssuer([]byte("test-secret"), time.Minute)
	require.NoError(t, err)
	sender := transfer.NewSender(transfer.SenderConfig{
		ChunkCount:  10,
		AckTimeout:  500 * time.Millisecond,
		MaxAttempts: 3,
	}, nil)

	cat := catalog.New()
	h := NewHandler(Services{
		Accounts: services.NewAccountService(deps),
		Social:   services.NewSocialService(deps),
		Content:  services.NewContentService(deps, 1<<20),
		Sync:     services.NewSyncService(deps),
	}, cat, issuer, sender, logging.NewDiscardLogger())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = ln.Close()
	})

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() { _ = h.Serve(ctx, conn) }()
		}
	}()

	return &harness{deps: deps, catalog: cat, addr: ln.Addr().String()}
}

type peer struct {
	t    *testing.T
	conn *netx.LineConn
}

func (h *harness) dial(t *testing.T) *peer {
	t.Helper()
	c, err := net.Dial("tcp", h.addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return &peer{t: t, conn: netx.NewLineConn(c)}
}

// as dials and signs id up.
func (h *harness) as(t *testing.T, id string) *peer {
	t.Helper()
	p := h.dial(t)
	assert.Equal(t, "Welcome client "+id, p.do("signup:"+id))
	return p
}

func (p *peer) send(line string) {
	p.t.Helper()
	require.NoError(p.t, p.conn.WriteLine(line))
}

func (p *peer) read() string {
	p.t.Helper()
	line, err := p.conn.ReadLineTimeout(readTimeout)
	require.NoError(p.t, err)
	return line
}

func (p *peer) do(line string) string {
	p.t.Helper()
	p.send(line)
	return p.read()
}

func (p *peer) upload(name, descEN string, data []byte) {
	p.t.Helper()
	require.Equal(p.t, "READY_FOR_PHOTO", p.do("upload:"+name+":"+descEN+":"))
	require.Equal(p.t, "START_SENDING", p.do(strconv.Itoa(len(data))))
	require.NoError(p.t, p.conn.WriteRaw(data))
	require.Equal(p.t, "SUCCESS:Photo and description uploaded successfully. Profile updated.", p.read())
}

func (h *harness) follow(t *testing.T, follower, followed string) {
	t.Helper()
	_, err := h.deps.Graph.CreateEdge(follower, followed)
	require.NoError(t, err)
}

func TestSession_AuthGate(t *testing.T) {
	h := newHarness(t)
	p := h.dial(t)

	assert.Equal(t, lineLoginFirst, p.do("post:hello"))
	assert.Equal(t, lineInvalidFormat, p.do("hello"))
	assert.Equal(t, "Error: Client does not exist. Please signup first.", p.do("login:alice"))
	assert.Equal(t, "Error: Client ID cannot be empty", p.do("signup:"))
	assert.Equal(t, "Welcome client alice", p.do("signup:alice"))
	assert.Equal(t, "Error: Already logged in as alice", p.do("login:alice"))
	assert.Equal(t, "Error: Already logged in as alice", p.do("signup:bob"))
	assert.Equal(t, lineUnknown, p.do("dance:now"))

	other := h.dial(t)
	assert.Equal(t, "Error: Client ID already exists. Please choose another one or login.", other.do("signup:alice"))
	assert.Equal(t, "Welcome back, client alice", other.do("login:alice"))
}

func TestSession_SignupRejectsAliasingIdentity(t *testing.T) {
	h := newHarness(t)
	alice := h.as(t, "alice")
	alice.upload("cat.jpg", "A cat", []byte("meow"))

	other := h.dial(t)
	for _, id := range []string{"alice/.", "alice/x/..", "..", `a\b`} {
		assert.Equal(t, "Error: Invalid client ID. Use a single name without '/', '\\', ':' or '..'", other.do("signup:"+id), id)
		assert.False(t, h.deps.Graph.Exists(id), id)
	}
	assert.Equal(t, lineLoginFirst, other.do("upload:cat.jpg:EVIL"))

	got, err := h.deps.Storage.GetPhoto(context.Background(), "alice", "cat.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("meow"), got)
}

func TestSession_CatalogLifecycle(t *testing.T) {
	h := newHarness(t)
	p := h.as(t, "alice")

	info, ok := h.catalog.Get("alice")
	require.True(t, ok)
	assert.Equal(t, "127.0.0.1", info.Address)

	p.send(cmdExit)
	assert.Eventually(t, func() bool {
		_, ok := h.catalog.Get("alice")
		return !ok
	}, readTimeout, 10*time.Millisecond)
}

func TestSession_FollowFlowAndNotifications(t *testing.T) {
	h := newHarness(t)
	alice := h.as(t, "alice")
	bob := h.as(t, "bob")

	assert.Equal(t, "Follow request sent to client bob. Waiting for their response.", alice.do("follow_request:bob"))
	assert.Equal(t, "Error: A follow request to bob is already pending", alice.do("follow_request:bob"))
	assert.Equal(t, "Error: Client carol does not exist.", alice.do("follow_request:carol"))

	// the pending request is offered on every call until resolved
	for i := 0; i < 2; i++ {
		first := bob.do("get_notifications:")
		assert.Contains(t, first, "You have a follow request from alice")
		bob.send(msgContinueReading)
		assert.Equal(t, "END_OF_NOTIFICATIONS", bob.read())
	}

	assert.Equal(t, "Error: Invalid choice. Expected 1, 2, or 3.", bob.do("follow_response:alice:9"))
	assert.Equal(t, "You are now following alice and they are following you.", bob.do("follow_response:alice:1"))
	assert.Equal(t, "Error: No pending follow request from client alice", bob.do("follow_response:alice:2"))
	assert.True(t, h.deps.Graph.IsFollowing("alice", "bob"))
	assert.True(t, h.deps.Graph.IsFollowing("bob", "alice"))

	first := alice.do("get_notifications:")
	assert.Contains(t, first, "bob accepted your follow request")
	alice.send(msgContinueReading)
	assert.Equal(t, "END_OF_NOTIFICATIONS", alice.read())
	assert.Equal(t, "No notifications.", alice.do("get_notifications:"))
}

func TestSession_NotificationsPushback(t *testing.T) {
	h := newHarness(t)
	alice := h.as(t, "alice")
	bob := h.as(t, "bob")
	h.follow(t, "bob", "alice")
	h.follow(t, "alice", "bob")

	require.Contains(t, alice.do("post:one"), "Post created successfully!")
	require.Contains(t, alice.do("post:two"), "Post created successfully!")

	assert.Contains(t, bob.do("get_notifications:"), "alice posted: ")
	// any other line ends the exchange and runs as a command
	bob.send("unfollow:alice")
	assert.Equal(t, "You have unfollowed client alice.", bob.read())

	assert.Contains(t, bob.do("get_notifications:"), "alice posted: ")
	bob.send(msgContinueReading)
	assert.Equal(t, "END_OF_NOTIFICATIONS", bob.read())
}

func TestSession_AccessProfile(t *testing.T) {
	h := newHarness(t)
	alice := h.as(t, "alice")
	bob := h.as(t, "bob")

	assert.Equal(t, "DENIED:You do not have permission to access the profile of client alice. You must follow them first.", bob.do("access_profile:alice"))

	h.follow(t, "bob", "alice")
	assert.Equal(t, "ERROR:Profile for client alice not found.", bob.do("access_profile:alice"))

	line := alice.do("post:hello world")
	require.True(t, strings.HasPrefix(line, "Post created successfully! Your profile has been updated with: ["))

	assert.Equal(t, "PROFILE_START", bob.do("access_profile:alice"))
	entry := bob.read()
	assert.True(t, strings.HasSuffix(entry, "] hello world"), entry)
	assert.Equal(t, "PROFILE_END", bob.read())
}

func TestSession_UploadAndSearch(t *testing.T) {
	h := newHarness(t)
	alice := h.as(t, "alice")
	bob := h.as(t, "bob")

	assert.Equal(t, "Error: At least one description (EN or GR) must be provided", alice.do("upload:cat.jpg::"))
	assert.Equal(t, "Error: Invalid file name", alice.do("upload:../cat.jpg:A cat"))
	alice.upload("cat.jpg", "A cat", []byte("meow-bytes"))

	assert.Equal(t, "RESULT:You are not following any users. No search results.", bob.do("search:cat.jpg:en"))
	h.follow(t, "bob", "alice")
	assert.Equal(t, "ERROR:Invalid language. Use 'en' or 'gr'", bob.do("search:cat.jpg:fr"))
	assert.Equal(t, "RESULT:1 result(s) found:##ENTRIES##1. Client ID: alice - File: cat.jpg", bob.do("search:cat.jpg:en"))
	assert.Equal(t, "RESULT:No matching photos found in your social graph.", bob.do("search:dog.jpg:en"))

	assert.Equal(t, "PHOTO_DETAILS_START", bob.do("photo_details:alice:cat.jpg"))
	assert.Equal(t, "Owner: alice", bob.read())
	assert.Equal(t, "File: cat.jpg", bob.read())
	assert.Equal(t, "Size: 10 bytes", bob.read())
	assert.True(t, strings.HasPrefix(bob.read(), "Checksum: "))
	assert.Equal(t, "Description (en): A cat", bob.read())
	assert.Equal(t, "PHOTO_DETAILS_END", bob.read())
}

func TestSession_UploadTooLarge(t *testing.T) {
	h := newHarness(t)
	alice := h.as(t, "alice")

	require.Equal(t, "READY_FOR_PHOTO", alice.do("upload:big.jpg:Big"))
	assert.Equal(t, "ERROR:File too large", alice.do(strconv.Itoa(2<<20)))
	require.Equal(t, "READY_FOR_PHOTO", alice.do("upload:big.jpg:Big"))
	assert.Equal(t, "ERROR:Invalid file size format", alice.do("lots"))
	assert.Contains(t, alice.do("post:still here"), "Post created successfully!")
}

func TestSession_DownloadDenied(t *testing.T) {
	h := newHarness(t)
	alice := h.as(t, "alice")
	bob := h.as(t, "bob")
	alice.upload("cat.jpg", "A cat", []byte("meow"))

	assert.Equal(t, "ERROR:Source client carol does not exist", bob.do("download:cat.jpg:carol"))
	assert.Equal(t, "ERROR:You are not following client alice", bob.do("download:cat.jpg:alice"))
	assert.Equal(t, "ERROR:Invalid parameters format. Expected 'fileName:sourceClientID'", bob.do("download:cat.jpg"))

	h.follow(t, "bob", "alice")
	assert.Equal(t, "ERROR:File dog.jpg not found in client alice's directory", bob.do("download:dog.jpg:alice"))
	assert.Equal(t, "ERROR:No download permission for cat.jpg from client alice. Request it with ask_photo first.", bob.do("download:cat.jpg:alice"))
	assert.Equal(t, "ERROR:No pending download request", bob.do("download_syn:bob"))

	first := alice.do("get_notifications:")
	assert.Contains(t, first, "bob attempted to download cat.jpg but was denied")
	alice.send(msgContinueReading)
	assert.Equal(t, "END_OF_NOTIFICATIONS", alice.read())
}

// grant runs the ask_photo/permit_photo exchange for requester.
func grant(t *testing.T, owner, requester *peer, ownerID, requesterID, file string) {
	t.Helper()
	require.Equal(t, "Photo request sent to client "+ownerID+" for file "+file+".", requester.do("ask_photo:"+ownerID+":"+file))
	require.Equal(t, "You granted "+requesterID+" permission to download "+file+".", owner.do("permit_photo:"+requesterID+":"+file+":yes"))
}

func TestSession_HandshakeSequenceMismatch(t *testing.T) {
	h := newHarness(t)
	alice := h.as(t, "alice")
	bob := h.as(t, "bob")
	h.follow(t, "bob", "alice")
	alice.upload("cat.jpg", "A cat", []byte("meow"))
	grant(t, alice, bob, "alice", "bob", "cat.jpg")

	require.Equal(t, msgHandshakeInit, bob.do("download:cat.jpg:alice"))
	assert.Equal(t, "ERROR:Client ID mismatch", bob.do("download_syn:alice"))

	syn := bob.do("download_syn:bob")
	require.True(t, strings.HasPrefix(syn, msgSynAck+":"))
	assert.Equal(t, "ERROR:Sequence number mismatch", bob.do("download_ack:not-a-token:cat.jpg:alice"))

	// the old token was spent by the failed ack
	token := strings.TrimPrefix(syn, msgSynAck+":")
	assert.Equal(t, "ERROR:Sequence number mismatch", bob.do("download_ack:"+token+":cat.jpg:alice"))

	syn = bob.do("download_syn:bob")
	token = strings.TrimPrefix(syn, msgSynAck+":")
	assert.Equal(t, "ERROR:File or source client mismatch", bob.do("download_ack:"+token+":dog.jpg:alice"))

	// no transfer started; the session still dispatches
	assert.Contains(t, bob.do("post:ok"), "Post created successfully!")
}

func TestSession_Download(t *testing.T) {
	h := newHarness(t)
	alice := h.as(t, "alice")
	bob := h.as(t, "bob")
	h.follow(t, "bob", "alice")

	data := []byte(strings.Repeat("cat-photo-bytes:", 64))
	alice.upload("cat.jpg", "A cat", data)
	grant(t, alice, bob, "alice", "bob", "cat.jpg")

	require.Equal(t, msgHandshakeInit, bob.do("download:cat.jpg:alice"))
	syn := bob.do("download_syn:bob")
	token := strings.TrimPrefix(syn, msgSynAck+":")
	require.Equal(t, msgTransferReady, bob.do("download_ack:"+token+":cat.jpg:alice"))

	plan := transfer.DefaultFaultPlan()
	plan.Delay = 200 * time.Millisecond
	plan.DuplicateGap = 50 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := transfer.NewReceiver(plan, readTimeout, nil).Receive(ctx, bob.conn)
	require.NoError(t, err)
	assert.Equal(t, data, res.Data)
	assert.True(t, res.HasDescription)
	assert.Equal(t, "A cat", res.Description)
	assert.Equal(t, []int{1, 1, 2, 1, 1, 1, 1, 1, 1, 1}, res.Receptions, "chunk 3 resent after its ack was withheld")
	assert.Equal(t, 1, res.DuplicateAcks)

	// a late duplicate ack must not be taken for a command
	bob.send("CHUNK_ACK:6")
	assert.Contains(t, bob.do("post:after"), "Post created successfully!")

	// the grant was single use
	assert.Equal(t, "ERROR:No download permission for cat.jpg from client alice. Request it with ask_photo first.", bob.do("download:cat.jpg:alice"))

	copied, err := h.deps.Storage.GetPhoto(context.Background(), "bob", "cat.jpg")
	require.NoError(t, err)
	assert.Equal(t, data, copied)
	lines, err := h.deps.Repos.Profiles(nil).Lines(context.Background(), "bob", models.TimelineProfile)
	require.NoError(t, err)
	assert.Contains(t, strings.Join(lines, "\n"), "bob downloaded cat.jpg from alice")
}

func TestSession_LanguageAndSync(t *testing.T) {
	h := newHarness(t)
	alice := h.as(t, "alice")

	assert.Equal(t, "ERROR:Invalid language. Use 'en' or 'gr'", alice.do("set_language:fr"))
	assert.Equal(t, "SUCCESS:Language preference updated to gr", alice.do("set_language:gr"))
	assert.Equal(t, "Error: Client ID mismatch", alice.do("sync:bob"))
	assert.Equal(t, "Data synchronized successfully", alice.do("sync:alice"))

	again := h.dial(t)
	require.Equal(t, "Welcome back, client alice", again.do("login:alice"))
	acc, err := h.deps.Repos.Accounts(nil).Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, models.LangGR, acc.Language)
}

func TestSession_Comments(t *testing.T) {
	h := newHarness(t)
	alice := h.as(t, "alice")
	bob := h.as(t, "bob")

	assert.Equal(t, "Error: You must follow alice to comment on their posts.", bob.do("ask_comment:alice:nice"))
	h.follow(t, "bob", "alice")
	assert.Equal(t, "Comment request sent to alice.", bob.do("ask_comment:alice:nice"))
	assert.Equal(t, "Your response has been sent to bob.", alice.do("approve_comment:bob:yes:nice"))

	line := bob.do("comment:alice:nice")
	assert.True(t, strings.HasPrefix(line, "COMMENT_POSTED:["), line)
	assert.Contains(t, line, "bob commented on alice's post: nice")
}

func TestSession_ContextCancelClosesConnection(t *testing.T) {
	h := newHarness(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	handler := NewHandler(Services{
		Accounts: services.NewAccountService(h.deps),
		Social:   services.NewSocialService(h.deps),
		Content:  services.NewContentService(h.deps, 1<<20),
		Sync:     services.NewSyncService(h.deps),
	}, h.catalog, nil, nil, logging.NewDiscardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			done <- err
			return
		}
		done <- handler.Serve(ctx, conn)
	}()

	c, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer c.Close()
	p := &peer{t: t, conn: netx.NewLineConn(c)}
	require.Equal(t, "Welcome client carol", p.do("signup:carol"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(readTimeout):
		t.Fatal("Serve did not return after cancel")
	}
	_, ok := h.catalog.Get("carol")
	assert.False(t, ok)
}
