package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/netx"
	"github.com/dmitrijs2005/socialnet/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted serves one connection: for every expected line it reads, it
// writes the paired replies.
type step struct {
	expect  string
	replies []string
	raw     int
}

func serveScript(t *testing.T, script []step) *LineClient {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	errs := make(chan error, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			errs <- err
			return
		}
		defer conn.Close()
		lc := netx.NewLineConn(conn)
		for _, s := range script {
			if s.raw > 0 {
				if _, err := lc.ReadFull(int64(s.raw)); err != nil {
					errs <- err
					return
				}
			} else {
				line, err := lc.ReadLineTimeout(2 * time.Second)
				if err != nil {
					errs <- err
					return
				}
				if line != s.expect {
					errs <- &ReplyError{Line: line}
					return
				}
			}
			if err := lc.WriteLines(s.replies...); err != nil {
				errs <- err
				return
			}
		}
		errs <- nil
	}()
	t.Cleanup(func() {
		select {
		case err := <-errs:
			assert.NoError(t, err, "script")
		case <-time.After(2 * time.Second):
		}
	})

	c, err := Dial(context.Background(), ln.Addr().String(), 2*time.Second, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.conn.Close() })
	return c
}

func TestLineClient_SignupAndLoginFailure(t *testing.T) {
	c := serveScript(t, []step{
		{expect: "signup:alice", replies: []string{"Welcome client alice"}},
		{expect: "login:bob", replies: []string{"Error: Already logged in as alice"}},
	})

	_, err := c.Signup("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", c.ID())

	_, err = c.Login("bob")
	var re *ReplyError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "Already logged in as alice", re.Message())
	assert.Equal(t, "alice", c.ID())
}

func TestLineClient_Notifications(t *testing.T) {
	c := serveScript(t, []step{
		{expect: "get_notifications:", replies: []string{"No notifications."}},
		{expect: "get_notifications:", replies: []string{"[t] one"}},
		{expect: "continue_reading", replies: []string{"[t] two", "[t] three", "END_OF_NOTIFICATIONS"}},
	})

	got, err := c.Notifications()
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = c.Notifications()
	require.NoError(t, err)
	assert.Equal(t, []string{"[t] one", "[t] two", "[t] three"}, got)
}

func TestLineClient_Search(t *testing.T) {
	c := serveScript(t, []step{
		{expect: "search:cat.jpg:en", replies: []string{
			"RESULT:2 result(s) found:##ENTRIES##1. Client ID: alice - File: cat.jpg##NEWLINE##2. Client ID: carol - File: cat.jpg",
		}},
		{expect: "search:dog.jpg:en", replies: []string{"RESULT:No matching photos found in your social graph."}},
		{expect: "search:dog.jpg:fr", replies: []string{"ERROR:Invalid language. Use 'en' or 'gr'"}},
	})

	owners, err := c.Search("cat.jpg", "en")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "carol"}, owners)

	owners, err = c.Search("dog.jpg", "en")
	require.NoError(t, err)
	assert.Empty(t, owners)

	_, err = c.Search("dog.jpg", "fr")
	var re *ReplyError
	require.ErrorAs(t, err, &re)
}

func TestLineClient_UploadAndProfile(t *testing.T) {
	data := []byte("photo")
	c := serveScript(t, []step{
		{expect: "upload:cat.jpg:A cat:", replies: []string{"READY_FOR_PHOTO"}},
		{expect: "5", replies: []string{"START_SENDING"}},
		{raw: len(data), replies: []string{"SUCCESS:Photo and description uploaded successfully. Profile updated."}},
		{expect: "access_profile:alice", replies: []string{"PROFILE_START", "[t] a", "[t] b", "PROFILE_END"}},
		{expect: "access_profile:bob", replies: []string{"DENIED:You do not have permission"}},
	})

	_, err := c.Upload("cat.jpg", "A cat", "", data)
	require.NoError(t, err)

	lines, err := c.Profile("alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"[t] a", "[t] b"}, lines)

	_, err = c.Profile("bob")
	var re *ReplyError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "You do not have permission", re.Message())
}

func TestLineClient_DownloadRefused(t *testing.T) {
	c := serveScript(t, []step{
		{expect: "download:cat.jpg:alice", replies: []string{"ERROR:You are not following client alice"}},
	})

	_, err := c.Download(context.Background(), "cat.jpg", "alice", transfer.NoFaults())
	var re *ReplyError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "You are not following client alice", re.Message())
}

func TestDial_Unavailable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = Dial(context.Background(), addr, time.Second, nil)
	require.ErrorIs(t, err, ErrUnavailable)
}
