package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/socialnet/internal/client/client"
	"github.com/dmitrijs2005/socialnet/internal/filex"
	"github.com/dmitrijs2005/socialnet/internal/server/models"
)

// isConnectionError reports whether err leaves the session unusable.
func isConnectionError(err error) bool {
	var re *client.ReplyError
	if errors.As(err, &re) {
		return false
	}
	var ne net.Error
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.As(err, &ne)
}

// show prints a server reply, unwrapping ReplyError into its message.
func (a *App) show(reply string, err error) error {
	if err != nil {
		var re *client.ReplyError
		if errors.As(err, &re) {
			a.println(re.Message())
			return nil
		}
		return err
	}
	a.println(reply)
	return nil
}

func (a *App) prompt(text string) (string, error) {
	if !a.interactive {
		line, err := a.reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return "", err
		}
		return strings.TrimSpace(line), nil
	}
	return GetSimpleText(a.reader, text, a.out)
}

func (a *App) login(_ context.Context, args string) error {
	if a.isLoggedIn() {
		a.println("Already logged in as", a.conn.ID())
		return nil
	}
	return a.show(a.conn.Login(strings.TrimSpace(args)))
}

func (a *App) signup(_ context.Context, args string) error {
	if a.isLoggedIn() {
		a.println("Already logged in as", a.conn.ID())
		return nil
	}
	return a.show(a.conn.Signup(strings.TrimSpace(args)))
}

func (a *App) post(_ context.Context, args string) error {
	return a.show(a.conn.Command("post", args))
}

func (a *App) follow(_ context.Context, args string) error {
	return a.show(a.conn.Command("follow_request", args))
}

func (a *App) unfollow(_ context.Context, args string) error {
	return a.show(a.conn.Command("unfollow", args))
}

func (a *App) respond(_ context.Context, args string) error {
	f := strings.Fields(args)
	return a.show(a.conn.Command("follow_response", f[0], f[1]))
}

func (a *App) notifications(_ context.Context, _ string) error {
	lines, err := a.conn.Notifications()
	if err != nil {
		return a.show("", err)
	}
	if len(lines) == 0 {
		a.println("No notifications.")
		return nil
	}
	for _, l := range lines {
		a.println(l)
	}
	return nil
}

func (a *App) profile(_ context.Context, args string) error {
	lines, err := a.conn.Profile(args)
	if err != nil {
		return a.show("", err)
	}
	a.printf("Profile of %s:\n", args)
	for _, l := range lines {
		a.println("  " + l)
	}
	return nil
}

func (a *App) upload(_ context.Context, args string) error {
	data, err := os.ReadFile(args)
	if err != nil {
		return fmt.Errorf("read %s: %w", args, err)
	}
	name := filepath.Base(args)
	if err := models.ValidatePhotoName(name); err != nil {
		return err
	}

	en, err := a.prompt("English description (empty to skip)")
	if err != nil {
		return err
	}
	gr, err := a.prompt("Greek description (empty to skip)")
	if err != nil {
		return err
	}
	return a.show(a.conn.Upload(name, en, gr, data))
}

func (a *App) search(_ context.Context, args string) error {
	f := strings.Fields(args)
	owners, err := a.conn.Search(f[0], f[1])
	if err != nil {
		return a.show("", err)
	}
	if len(owners) == 0 {
		a.println("No matching photos found in your social graph.")
		return nil
	}
	for i, o := range owners {
		a.printf("%d. %s\n", i+1, o)
	}
	return nil
}

func (a *App) askPhoto(_ context.Context, args string) error {
	f := strings.Fields(args)
	return a.show(a.conn.Command("ask_photo", f[0], f[1]))
}

func (a *App) permit(_ context.Context, args string) error {
	f := strings.Fields(args)
	return a.show(a.conn.Command("permit_photo", f[0], f[1], f[2]))
}

func (a *App) details(_ context.Context, args string) error {
	f := strings.Fields(args)
	lines, err := a.conn.PhotoDetails(f[0], f[1])
	if err != nil {
		return a.show("", err)
	}
	for _, l := range lines {
		a.println(l)
	}
	return nil
}

// download fetches a photo and stores it with its description under
// <data-dir>/<id>/photos.
func (a *App) download(ctx context.Context, args string) error {
	f := strings.Fields(args)
	file, owner := f[0], f[1]

	res, err := a.conn.Download(ctx, file, owner, a.faultPlan())
	if err != nil {
		return a.show("", err)
	}

	dir := filepath.Join(a.config.DataDir, a.conn.ID(), "photos")
	if err := filex.WriteFileAtomic(filepath.Join(dir, file), res.Data, 0o640); err != nil {
		return err
	}
	if res.HasDescription {
		desc := filepath.Join(dir, models.PhotoBaseName(file)+".txt")
		if err := filex.WriteFileAtomic(desc, []byte(res.Description), 0o640); err != nil {
			return err
		}
	}

	a.printf("Downloaded %s from %s (%d bytes, %d chunks)\n", file, owner, len(res.Data), res.Chunks)
	if res.HasDescription {
		a.println("Description:", res.Description)
	}
	return nil
}

func (a *App) repost(_ context.Context, args string) error {
	content, err := a.prompt("Post content to repost")
	if err != nil {
		return err
	}
	comment, err := a.prompt("Your comment")
	if err != nil {
		return err
	}
	return a.show(a.conn.Command("repost", strings.TrimSpace(args), content, comment))
}

func (a *App) askComment(_ context.Context, args string) error {
	target, text, _ := strings.Cut(args, " ")
	return a.show(a.conn.Command("ask_comment", target, strings.TrimSpace(text)))
}

func (a *App) approve(_ context.Context, args string) error {
	f := strings.SplitN(args, " ", 3)
	params := []string{f[0], f[1]}
	if len(f) == 3 {
		params = append(params, strings.TrimSpace(f[2]))
	}
	return a.show(a.conn.Command("approve_comment", params...))
}

func (a *App) comment(_ context.Context, args string) error {
	target, text, _ := strings.Cut(args, " ")
	return a.show(a.conn.Command("comment", target, strings.TrimSpace(text)))
}

func (a *App) language(_ context.Context, args string) error {
	return a.show(a.conn.Command("set_language", args))
}

func (a *App) sync(_ context.Context, _ string) error {
	return a.show(a.conn.Command("sync", a.conn.ID()))
}

func (a *App) raw(_ context.Context, args string) error {
	return a.show(a.conn.Do(args))
}
