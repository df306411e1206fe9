package client

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/socialnet/internal/logging"
	"github.com/dmitrijs2005/socialnet/internal/netx"
	"github.com/dmitrijs2005/socialnet/internal/transfer"
)

const (
	lineNoNotifications  = "No notifications."
	lineEndNotifications = "END_OF_NOTIFICATIONS"
	lineContinue         = "continue_reading"
)

// LineClient speaks the line protocol over one connection.
type LineClient struct {
	conn    *netx.LineConn
	timeout time.Duration
	log     logging.Logger
	id      string
}

// Dial connects to addr. timeout bounds the dial and every later wait for a
// server line.
func Dial(ctx context.Context, addr string, timeout time.Duration, log logging.Logger) (*LineClient, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return NewLineClient(conn, timeout, log), nil
}

func NewLineClient(conn net.Conn, timeout time.Duration, log logging.Logger) *LineClient {
	if log == nil {
		log = logging.NewDiscardLogger()
	}
	return &LineClient{
		conn:    netx.NewLineConn(conn),
		timeout: timeout,
		log:     log.With("module", "line_client"),
	}
}

// ID is the identity the client logged in or signed up as.
func (c *LineClient) ID() string { return c.id }

func (c *LineClient) read() (string, error) {
	if c.timeout <= 0 {
		return c.conn.ReadLine()
	}
	return c.conn.ReadLineTimeout(c.timeout)
}

// Do sends one command line and returns the first reply line.
func (c *LineClient) Do(cmd string) (string, error) {
	if err := c.conn.WriteLine(cmd); err != nil {
		return "", err
	}
	return c.read()
}

// Command sends name:params.
func (c *LineClient) Command(name string, params ...string) (string, error) {
	return c.Do(name + ":" + strings.Join(params, ":"))
}

func (c *LineClient) Login(id string) (string, error) {
	return c.auth("login", id)
}

func (c *LineClient) Signup(id string) (string, error) {
	return c.auth("signup", id)
}

func (c *LineClient) auth(cmd, id string) (string, error) {
	reply, err := c.Command(cmd, id)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(reply, "Welcome") {
		return "", &ReplyError{Line: reply}
	}
	c.id = id
	return reply, nil
}

// block reads the lines of a start..end block whose first line was
// already read.
func (c *LineClient) block(first, start, end string) ([]string, error) {
	if first != start {
		return nil, &ReplyError{Line: first}
	}
	var lines []string
	for {
		line, err := c.read()
		if err != nil {
			return nil, err
		}
		if line == end {
			return lines, nil
		}
		lines = append(lines, line)
	}
}

// Profile returns the timeline of target.
func (c *LineClient) Profile(target string) ([]string, error) {
	first, err := c.Command("access_profile", target)
	if err != nil {
		return nil, err
	}
	return c.block(first, "PROFILE_START", "PROFILE_END")
}

// PhotoDetails returns the detail lines for a photo of owner.
func (c *LineClient) PhotoDetails(owner, file string) ([]string, error) {
	first, err := c.Command("photo_details", owner, file)
	if err != nil {
		return nil, err
	}
	return c.block(first, "PHOTO_DETAILS_START", "PHOTO_DETAILS_END")
}

// Notifications reads every active notification.
func (c *LineClient) Notifications() ([]string, error) {
	first, err := c.Command("get_notifications")
	if err != nil {
		return nil, err
	}
	if first == lineNoNotifications {
		return nil, nil
	}
	if err := c.conn.WriteLine(lineContinue); err != nil {
		return nil, err
	}

	out := []string{first}
	for {
		line, err := c.read()
		if err != nil {
			return nil, err
		}
		if line == lineEndNotifications {
			return out, nil
		}
		out = append(out, line)
	}
}

// Search returns the owners holding name, in the server's order.
func (c *LineClient) Search(name, lang string) ([]string, error) {
	reply, err := c.Command("search", name, lang)
	if err != nil {
		return nil, err
	}
	rest, ok := strings.CutPrefix(reply, "RESULT:")
	if !ok {
		return nil, &ReplyError{Line: reply}
	}
	_, entries, ok := strings.Cut(rest, "##ENTRIES##")
	if !ok {
		return nil, nil
	}

	var owners []string
	for _, e := range strings.Split(entries, "##NEWLINE##") {
		// "1. Client ID: alice - File: cat.jpg"
		_, after, ok := strings.Cut(e, "Client ID: ")
		if !ok {
			continue
		}
		owner, _, _ := strings.Cut(after, " - File:")
		owners = append(owners, owner)
	}
	return owners, nil
}

// Upload runs the upload exchange and returns the final server line.
func (c *LineClient) Upload(name, descEN, descGR string, data []byte) (string, error) {
	reply, err := c.Command("upload", name, descEN, descGR)
	if err != nil {
		return "", err
	}
	if reply != "READY_FOR_PHOTO" {
		return "", &ReplyError{Line: reply}
	}

	reply, err = c.Do(strconv.Itoa(len(data)))
	if err != nil {
		return "", err
	}
	if reply != "START_SENDING" {
		return "", &ReplyError{Line: reply}
	}
	if err := c.conn.WriteRaw(data); err != nil {
		return "", err
	}

	reply, err = c.read()
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(reply, "SUCCESS:") {
		return "", &ReplyError{Line: reply}
	}
	return reply, nil
}

// Download authorizes a download, runs the three-way handshake and receives
// the chunked transfer with the acknowledgement faults in plan.
func (c *LineClient) Download(ctx context.Context, file, source string, plan transfer.FaultPlan) (*transfer.Result, error) {
	reply, err := c.Command("download", file, source)
	if err != nil {
		return nil, err
	}
	if reply != "HANDSHAKE_INIT" {
		return nil, &ReplyError{Line: reply}
	}

	reply, err = c.Command("download_syn", c.id)
	if err != nil {
		return nil, err
	}
	token, ok := strings.CutPrefix(reply, "SYN_ACK:")
	if !ok {
		return nil, &ReplyError{Line: reply}
	}
	c.log.Debug(ctx, "handshake acknowledged", "file", file, "source", source)

	reply, err = c.Command("download_ack", token, file, source)
	if err != nil {
		return nil, err
	}
	if reply != "TRANSFER_READY" {
		return nil, &ReplyError{Line: reply}
	}

	res, err := transfer.NewReceiver(plan, c.timeout, c.log).Receive(ctx, c.conn)
	if err != nil {
		return nil, err
	}
	c.log.Info(ctx, "download complete", "file", file, "source", source, "bytes", len(res.Data))
	return res, nil
}

// Close says goodbye and closes the connection.
func (c *LineClient) Close() error {
	_ = c.conn.WriteLine("exit")
	return c.conn.Close()
}
