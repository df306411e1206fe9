package cli

import (
	"bufio"
	"context"
	"io"

	"github.com/dmitrijs2005/socialnet/internal/client/client"
	"github.com/dmitrijs2005/socialnet/internal/client/config"
	"github.com/dmitrijs2005/socialnet/internal/logging"
	"github.com/dmitrijs2005/socialnet/internal/transfer"
)

// protocol is the client surface the REPL needs. *client.LineClient
// satisfies it; tests provide a stub.
type protocol interface {
	ID() string
	Login(id string) (string, error)
	Signup(id string) (string, error)
	Do(cmd string) (string, error)
	Command(name string, params ...string) (string, error)
	Profile(target string) ([]string, error)
	PhotoDetails(owner, file string) ([]string, error)
	Notifications() ([]string, error)
	Search(name, lang string) ([]string, error)
	Upload(name, descEN, descGR string, data []byte) (string, error)
	Download(ctx context.Context, file, source string, plan transfer.FaultPlan) (*transfer.Result, error)
	Close() error
}

var _ protocol = (*client.LineClient)(nil)

type App struct {
	config      *config.Config
	conn        protocol
	reader      *bufio.Reader
	out         io.Writer
	interactive bool
}

// NewApp connects to the configured server.
func NewApp(ctx context.Context, c *config.Config, in io.Reader, out io.Writer, log logging.Logger) (*App, error) {
	conn, err := client.Dial(ctx, c.ServerAddr, c.ReadTimeout, log)
	if err != nil {
		return nil, err
	}
	return newApp(c, conn, in, out, stdinIsTerminal()), nil
}

func newApp(c *config.Config, conn protocol, in io.Reader, out io.Writer, interactive bool) *App {
	return &App{
		config:      c,
		conn:        conn,
		reader:      bufio.NewReader(in),
		out:         out,
		interactive: interactive,
	}
}

func (a *App) isLoggedIn() bool {
	return a.conn.ID() != ""
}

func (a *App) faultPlan() transfer.FaultPlan {
	if a.config.InjectFaults {
		return transfer.DefaultFaultPlan()
	}
	return transfer.NoFaults()
}

// Run reads commands until exit or end of input, then closes the session.
func (a *App) Run(ctx context.Context) error {
	defer a.conn.Close()
	return runREPL(ctx, a)
}
